package handler

import (
	"errors"
	"net/http"

	"cashrecon/internal/dto"
	"cashrecon/internal/reconciliation"
	"cashrecon/internal/service"

	"github.com/gin-gonic/gin"
)

type SnapshotsHandler struct{ svc service.SnapshotService }

func NewSnapshotsHandler(svc service.SnapshotService) *SnapshotsHandler {
	return &SnapshotsHandler{svc: svc}
}

// Get godoc
// @Summary Snapshot recorded for a date
// @Tags snapshots
// @Produce json
// @Param date path string true "YYYY-MM-DD"
// @Success 200 {object} dto.SnapshotResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Failure 503 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/snapshots/{date} [get]
func (h *SnapshotsHandler) Get(c *gin.Context) {
	date, err := reconciliation.ParseDate(c.Param("date"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	snap, err := h.svc.GetByDate(c.Request.Context(), date)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSnapshotResponse(*snap))
}

// SaveToday godoc
// @Summary Record today's balances and reconcile
// @Description Upserts the snapshot for today's date in the configured time zone, then re-runs the reconciliation.
// @Tags snapshots
// @Accept json
// @Produce json
// @Param body body dto.SaveSnapshotRequest true "Balances"
// @Success 200 {object} dto.SaveSnapshotResponse
// @Failure 422 {object} apierror.ValidationError
// @Failure 503 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/snapshots/today [put]
func (h *SnapshotsHandler) SaveToday(c *gin.Context) {
	var req dto.SaveSnapshotRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.SaveToday(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	resp := dto.SaveSnapshotResponse{Snapshot: dto.NewSnapshotResponse(res.Snapshot)}
	if res.Outcome != nil {
		run := dto.NewRunResponse(res.Outcome.Run)
		resp.Run = &run
		resp.Published = res.Outcome.Published
	} else {
		resp.RunError = runErrorMessage(res.RunErr)
	}
	c.JSON(http.StatusOK, resp)
}

// runErrorMessage tells the client the write stuck and how to retry, without
// leaking anything but the actionable store error.
func runErrorMessage(err error) string {
	if errors.Is(err, reconciliation.ErrStoreUnavailable) {
		return "Snapshot saved, but the reconciliation store is not provisioned"
	}
	return "Snapshot saved, but reconciliation failed; retry GET /v1/reconciliation"
}
