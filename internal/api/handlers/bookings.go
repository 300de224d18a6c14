package handlers

import (
	"net/http"

	"parkhub-backend/internal/services"
	"parkhub-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type BookingHandler struct {
	bookingService *services.BookingService
	validator      *validator.Validate
}

func NewBookingHandler(bookingService *services.BookingService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		validator:      validator.New(),
	}
}

// GetBookings retrieves all bookings, optionally filtered by status
func (h *BookingHandler) GetBookings(c *gin.Context) {
	if status := c.Query("status"); status != "" {
		bookings, err := h.bookingService.GetBookingsByStatus(status)
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve bookings", err)
			return
		}
		utils.SuccessResponse(c, http.StatusOK, "Bookings retrieved successfully", bookings)
		return
	}

	bookings, err := h.bookingService.GetAllBookings()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve bookings", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Bookings retrieved successfully", bookings)
}

// GetBooking retrieves a specific booking by ID
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID := c.Param("id")
	if bookingID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Booking ID is required", nil)
		return
	}

	booking, err := h.bookingService.GetBookingByID(bookingID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Booking not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Booking retrieved successfully", booking)
}

// GetBookingByCode looks up a booking by its redemption code
func (h *BookingHandler) GetBookingByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Booking code is required", nil)
		return
	}

	booking, err := h.bookingService.GetBookingByCode(code)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Booking not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Booking retrieved successfully", booking)
}

// CreateBooking reserves a spot ahead of arrival
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req services.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	booking, err := h.bookingService.CreateBooking(&req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to create booking", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Booking created successfully", booking)
}

// CancelBooking cancels a confirmed booking
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID := c.Param("id")
	if bookingID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Booking ID is required", nil)
		return
	}

	if err := h.bookingService.CancelBooking(bookingID); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to cancel booking", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Booking cancelled successfully", nil)
}
