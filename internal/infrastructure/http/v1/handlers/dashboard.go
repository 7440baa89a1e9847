package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orderledger/internal/domain/reports"
)

// DashboardHandler serves the ledger summary.
type DashboardHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(base *BaseHandler, service *reports.Service) *DashboardHandler {
	return &DashboardHandler{BaseHandler: base, service: service}
}

// Get handles GET /dashboard.
func (h *DashboardHandler) Get(c *gin.Context) {
	d, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
