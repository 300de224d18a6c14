package handlers

import (
	"net/http"

	"parkhub-backend/internal/services"
	"parkhub-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type DeviceHandler struct {
	deviceService *services.DeviceService
	validator     *validator.Validate
}

func NewDeviceHandler(deviceService *services.DeviceService) *DeviceHandler {
	return &DeviceHandler{
		deviceService: deviceService,
		validator:     validator.New(),
	}
}

// GetDevices retrieves all lot devices, optionally filtered by kind
func (h *DeviceHandler) GetDevices(c *gin.Context) {
	if kind := c.Query("kind"); kind != "" {
		devices, err := h.deviceService.GetDevicesByKind(kind)
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve devices", err)
			return
		}
		utils.SuccessResponse(c, http.StatusOK, "Devices retrieved successfully", devices)
		return
	}

	devices, err := h.deviceService.GetAllDevices()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve devices", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Devices retrieved successfully", devices)
}

// GetDevice retrieves a specific device by ID
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	deviceID := c.Param("id")
	if deviceID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Device ID is required", nil)
		return
	}

	device, err := h.deviceService.GetDeviceByID(deviceID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Device not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device retrieved successfully", device)
}

// RegisterDevice registers a gate, kiosk or display
func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	var req services.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	device, err := h.deviceService.RegisterDevice(&req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to register device", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Device registered successfully", device)
}

// RecordHeartbeat ingests a device status report
func (h *DeviceHandler) RecordHeartbeat(c *gin.Context) {
	deviceID := c.Param("id")
	if deviceID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Device ID is required", nil)
		return
	}

	var req services.HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	if err := h.deviceService.RecordHeartbeat(deviceID, &req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to record heartbeat", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Heartbeat recorded successfully", nil)
}

// DeleteDevice removes a device from the registry
func (h *DeviceHandler) DeleteDevice(c *gin.Context) {
	deviceID := c.Param("id")
	if deviceID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Device ID is required", nil)
		return
	}

	if err := h.deviceService.DeleteDevice(deviceID); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to delete device", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device deleted successfully", nil)
}
