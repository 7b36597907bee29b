package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/quickcourt/quickcourt-api/internal/reports"
	"github.com/quickcourt/quickcourt-api/internal/repository"
)

// ReportHandler lets users flag a venue for admin review.
type ReportHandler struct {
	Reports reports.Reports
	Log     *zap.Logger
}

func NewReportHandler(r reports.Reports, log *zap.Logger) *ReportHandler {
	if r == nil {
		r = reports.Disabled{}
	}
	return &ReportHandler{Reports: r, Log: orNop(log)}
}

type reportReq struct {
	VenueID uint64 `json:"venue_id"`
	Reason  string `json:"reason"`
}

// Create handles POST /v1/reports.
func (h *ReportHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return errorJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	var req reportReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	if req.VenueID == 0 {
		return errorJSON(c, http.StatusBadRequest, "venue_id is required")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	rep, err := h.Reports.Submit(ctx, uid, req.VenueID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, reports.ErrReportsDisabled):
			return errorJSON(c, http.StatusNotImplemented, "reports are disabled")
		case errors.Is(err, reports.ErrEmptyReason):
			return errorJSON(c, http.StatusBadRequest, "reason is required")
		case errors.Is(err, repository.ErrVenueNotFound):
			return errorJSON(c, http.StatusNotFound, "venue not found")
		}
		return internalError(c, h.Log, "failed to submit report", err)
	}
	return c.JSON(http.StatusCreated, rep)
}
