package handlers

import (
	"net/http"

	"parkhub-backend/internal/services"
	"parkhub-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type PricingHandler struct {
	pricingService *services.PricingService
	validator      *validator.Validate
}

func NewPricingHandler(pricingService *services.PricingService) *PricingHandler {
	return &PricingHandler{
		pricingService: pricingService,
		validator:      validator.New(),
	}
}

// GetPlans retrieves all pricing plans
func (h *PricingHandler) GetPlans(c *gin.Context) {
	plans, err := h.pricingService.GetAllPlans()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve pricing plans", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Pricing plans retrieved successfully", plans)
}

// GetPlan retrieves a specific pricing plan by ID
func (h *PricingHandler) GetPlan(c *gin.Context) {
	planID := c.Param("id")
	if planID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Plan ID is required", nil)
		return
	}

	plan, err := h.pricingService.GetPlanByID(planID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Pricing plan not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Pricing plan retrieved successfully", plan)
}

// GetActivePlan retrieves the active plan for a vehicle type
func (h *PricingHandler) GetActivePlan(c *gin.Context) {
	vehicleType := c.Param("vehicleType")
	if vehicleType == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Vehicle type is required", nil)
		return
	}

	plan, err := h.pricingService.GetActivePlan(vehicleType)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "No active plan for vehicle type", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Active plan retrieved successfully", plan)
}

// CreatePlan creates a new pricing plan
func (h *PricingHandler) CreatePlan(c *gin.Context) {
	var req services.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	plan, err := h.pricingService.CreatePlan(&req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to create pricing plan", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Pricing plan created successfully", plan)
}

// UpdatePlan updates an existing pricing plan
func (h *PricingHandler) UpdatePlan(c *gin.Context) {
	planID := c.Param("id")
	if planID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Plan ID is required", nil)
		return
	}

	var req services.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	plan, err := h.pricingService.UpdatePlan(planID, &req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to update pricing plan", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Pricing plan updated successfully", plan)
}

// ActivatePlan makes a plan the active one for its vehicle type
func (h *PricingHandler) ActivatePlan(c *gin.Context) {
	planID := c.Param("id")
	if planID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Plan ID is required", nil)
		return
	}

	if err := h.pricingService.ActivatePlan(planID); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to activate pricing plan", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Pricing plan activated successfully", nil)
}

// DeletePlan deletes an inactive pricing plan
func (h *PricingHandler) DeletePlan(c *gin.Context) {
	planID := c.Param("id")
	if planID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Plan ID is required", nil)
		return
	}

	if err := h.pricingService.DeletePlan(planID); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to delete pricing plan", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Pricing plan deleted successfully", nil)
}
