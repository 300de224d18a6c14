package handlers

import (
	"net/http"
	"time"

	"parkhub-backend/internal/services"
	"parkhub-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// GetRevenueReport aggregates revenue over a date range, defaulting to the last 30 days
func (h *ReportHandler) GetRevenueReport(c *gin.Context) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	if startParam := c.Query("start"); startParam != "" {
		parsed, err := time.Parse(time.RFC3339, startParam)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid start date, expected RFC3339", err)
			return
		}
		start = parsed
	}
	if endParam := c.Query("end"); endParam != "" {
		parsed, err := time.Parse(time.RFC3339, endParam)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid end date, expected RFC3339", err)
			return
		}
		end = parsed
	}

	report, err := h.reportService.RevenueReport(start, end)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to generate revenue report", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Revenue report generated successfully", report)
}

// GetDashboardSummary returns the headline numbers for the dashboard
func (h *ReportHandler) GetDashboardSummary(c *gin.Context) {
	summary, err := h.reportService.DashboardSummary()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to generate dashboard summary", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Dashboard summary generated successfully", summary)
}
