package handlers

import (
	"net/http"

	"parkhub-backend/internal/services"
	"parkhub-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type PassHandler struct {
	passService *services.PassService
	validator   *validator.Validate
}

func NewPassHandler(passService *services.PassService) *PassHandler {
	return &PassHandler{
		passService: passService,
		validator:   validator.New(),
	}
}

// GetPasses retrieves all long-term passes
func (h *PassHandler) GetPasses(c *gin.Context) {
	passes, err := h.passService.GetAllPasses()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve passes", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Passes retrieved successfully", passes)
}

// GetPass retrieves a specific pass by ID
func (h *PassHandler) GetPass(c *gin.Context) {
	passID := c.Param("id")
	if passID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Pass ID is required", nil)
		return
	}

	pass, err := h.passService.GetPassByID(passID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Pass not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Pass retrieved successfully", pass)
}

// GetValidPass looks up the currently valid pass for a plate
func (h *PassHandler) GetValidPass(c *gin.Context) {
	vehicleNumber := c.Param("vehicleNumber")
	if vehicleNumber == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Vehicle number is required", nil)
		return
	}

	pass, err := h.passService.GetValidPass(vehicleNumber)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "No valid pass for vehicle", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Pass retrieved successfully", pass)
}

// CreatePass issues a new long-term pass
func (h *PassHandler) CreatePass(c *gin.Context) {
	var req services.CreatePassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	pass, err := h.passService.CreatePass(&req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to create pass", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Pass created successfully", pass)
}

// UpdatePass updates pass holder details or validity window
func (h *PassHandler) UpdatePass(c *gin.Context) {
	passID := c.Param("id")
	if passID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Pass ID is required", nil)
		return
	}

	var req services.UpdatePassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	pass, err := h.passService.UpdatePass(passID, &req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to update pass", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Pass updated successfully", pass)
}

// RevokePass deactivates a pass
func (h *PassHandler) RevokePass(c *gin.Context) {
	passID := c.Param("id")
	if passID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Pass ID is required", nil)
		return
	}

	if err := h.passService.RevokePass(passID); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to revoke pass", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Pass revoked successfully", nil)
}

// ReinstatePass reactivates a revoked pass
func (h *PassHandler) ReinstatePass(c *gin.Context) {
	passID := c.Param("id")
	if passID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Pass ID is required", nil)
		return
	}

	if err := h.passService.ReinstatePass(passID); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to reinstate pass", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Pass reinstated successfully", nil)
}

// DeletePass removes a pass record
func (h *PassHandler) DeletePass(c *gin.Context) {
	passID := c.Param("id")
	if passID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Pass ID is required", nil)
		return
	}

	if err := h.passService.DeletePass(passID); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to delete pass", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Pass deleted successfully", nil)
}
