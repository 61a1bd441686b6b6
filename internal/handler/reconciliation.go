package handler

import (
	"net/http"

	"cashrecon/internal/apierror"
	"cashrecon/internal/dto"
	"cashrecon/internal/service"

	"github.com/gin-gonic/gin"
)

type ReconciliationHandler struct{ svc service.ReconciliationService }

func NewReconciliationHandler(svc service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{svc: svc}
}

// Run godoc
// @Summary Reconcile a day
// @Description Computes a fresh run. date defaults to today, fx to DEFAULT_FX_RATE.
// @Tags reconciliation
// @Produce json
// @Param date query string false "YYYY-MM-DD"
// @Param fx query string false "local units per reference unit"
// @Success 200 {object} dto.RunResponse
// @Failure 422 {object} apierror.ValidationError
// @Failure 503 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/reconciliation [get]
func (h *ReconciliationHandler) Run(c *gin.Context) {
	var q dto.ReconcileQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid query: "+err.Error()))
		return
	}
	date, err := dateOrToday(q.Date, h.svc.Today)
	if err != nil {
		_ = c.Error(err)
		return
	}
	out, err := h.svc.Reconcile(c.Request.Context(), date, fxOrDefault(q.Fx, h.svc.DefaultFx()))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRunResponse(out.Run))
}

// Latest godoc
// @Summary Last published run for a day
// @Tags reconciliation
// @Produce json
// @Param date query string false "YYYY-MM-DD"
// @Success 200 {object} dto.RunResponse
// @Failure 404 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/reconciliation/latest [get]
func (h *ReconciliationHandler) Latest(c *gin.Context) {
	date, err := dateOrToday(c.Query("date"), h.svc.Today)
	if err != nil {
		_ = c.Error(err)
		return
	}
	run, err := h.svc.Latest(c.Request.Context(), date)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, apierror.New("No run published for that date yet"))
		return
	}
	c.JSON(http.StatusOK, dto.NewRunResponse(*run))
}
