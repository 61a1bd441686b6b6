package handler

import (
	"net/http"
	"reflect"
	"strings"
	"time"

	"cashrecon/internal/apierror"
	"cashrecon/internal/money"
	"cashrecon/internal/reconciliation"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Report the JSON name of a failing field, not the Go one.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	// decimal.Decimal and money.Amount validate as numbers so tags like
	// gte=0 work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		switch v := field.Interface().(type) {
		case decimal.Decimal:
			f, _ := v.Float64()
			return f
		case money.Amount:
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{}, money.Amount{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// dateOrToday parses a YYYY-MM-DD value, falling back to today when empty.
func dateOrToday(raw string, today func() time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return today(), nil
	}
	return reconciliation.ParseDate(raw)
}

// fxOrDefault coerces a query fx rate. Empty means the configured default;
// anything unparsable reads as zero, which disables conversion and shows up
// as a run warning rather than an error.
func fxOrDefault(raw string, def decimal.Decimal) decimal.Decimal {
	if strings.TrimSpace(raw) == "" {
		return def
	}
	return money.ParseOrZero(raw)
}
