package handlers

import (
	"net/http"
	"time"

	"parkhub-backend/internal/services"
	"parkhub-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type SessionHandler struct {
	sessionService *services.SessionService
	validator      *validator.Validate
}

func NewSessionHandler(sessionService *services.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		validator:      validator.New(),
	}
}

// GetSessions retrieves all parking sessions
func (h *SessionHandler) GetSessions(c *gin.Context) {
	sessions, err := h.sessionService.GetAllSessions()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve sessions", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Sessions retrieved successfully", sessions)
}

// GetParkedSessions retrieves sessions whose vehicles are still in the lot
func (h *SessionHandler) GetParkedSessions(c *gin.Context) {
	sessions, err := h.sessionService.GetParkedSessions()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve parked sessions", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Parked sessions retrieved successfully", sessions)
}

// GetSession retrieves a specific session by ID
func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Session ID is required", nil)
		return
	}

	session, err := h.sessionService.GetSessionByID(sessionID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Session not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Session retrieved successfully", session)
}

// RecordEntry opens a session for a vehicle at the entry gate
func (h *SessionHandler) RecordEntry(c *gin.Context) {
	var req services.EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	session, err := h.sessionService.RecordEntry(&req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to record entry", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Entry recorded successfully", session)
}

// QuoteFee returns the amount the session owes right now
func (h *SessionHandler) QuoteFee(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Session ID is required", nil)
		return
	}

	quote, err := h.sessionService.QuoteFee(sessionID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to compute fee quote", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Fee quote computed successfully", quote)
}

// ProcessPayment charges the session at a kiosk
func (h *SessionHandler) ProcessPayment(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Session ID is required", nil)
		return
	}

	var req services.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	session, err := h.sessionService.ProcessPayment(sessionID, &req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to process payment", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Payment processed successfully", session)
}

// RecordWaiver zeroes out the session's fee with a reason
func (h *SessionHandler) RecordWaiver(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Session ID is required", nil)
		return
	}

	var req services.WaiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	session, err := h.sessionService.RecordWaiver(sessionID, &req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to record waiver", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Waiver recorded successfully", session)
}

// RecordExit closes the session at the exit gate
func (h *SessionHandler) RecordExit(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Session ID is required", nil)
		return
	}

	var req services.ExitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	session, err := h.sessionService.RecordExit(sessionID, &req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to record exit", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Exit recorded successfully", session)
}

// GetOccupancy returns the live count of vehicles in the lot
func (h *SessionHandler) GetOccupancy(c *gin.Context) {
	count, err := h.sessionService.GetOccupancy()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve occupancy", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Occupancy retrieved successfully", gin.H{"parked": count})
}

// GetSessionsByDateRange retrieves sessions whose entry falls in the range
func (h *SessionHandler) GetSessionsByDateRange(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid start date, expected RFC3339", err)
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid end date, expected RFC3339", err)
		return
	}

	sessions, err := h.sessionService.GetSessionsByDateRange(start, end)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve sessions", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Sessions retrieved successfully", sessions)
}
