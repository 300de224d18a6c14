package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"parkhub-backend/internal/models"
	"parkhub-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingService struct {
	bookingRepo *repository.BookingRepository
}

func NewBookingService(bookingRepo *repository.BookingRepository) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
	}
}

type CreateBookingRequest struct {
	VehicleNumber string    `json:"vehicleNumber" validate:"required,min=1,max=20"`
	VehicleType   string    `json:"vehicleType" validate:"required,oneof=car motorcycle truck"`
	FullName      string    `json:"fullName" validate:"required,min=1,max=100"`
	Email         string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone         string    `json:"phone,omitempty"`
	StartTime     time.Time `json:"startTime" validate:"required"`
	EndTime       time.Time `json:"endTime" validate:"required"`
}

func (s *BookingService) CreateBooking(req *CreateBookingRequest) (*models.Booking, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, errors.New("end time must be after start time")
	}

	code, err := generateBookingCode()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	booking := &models.Booking{
		ID:            primitive.NewObjectID(),
		Code:          code,
		VehicleNumber: req.VehicleNumber,
		VehicleType:   req.VehicleType,
		FullName:      req.FullName,
		Email:         req.Email,
		Phone:         req.Phone,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Status:        models.BookingStatusConfirmed,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	return s.bookingRepo.Create(booking)
}

func (s *BookingService) GetAllBookings() ([]*models.Booking, error) {
	return s.bookingRepo.FindAll()
}

func (s *BookingService) GetBookingsByStatus(status string) ([]*models.Booking, error) {
	return s.bookingRepo.FindByStatus(status)
}

func (s *BookingService) GetBookingByID(id string) (*models.Booking, error) {
	return s.bookingRepo.FindByID(id)
}

func (s *BookingService) GetBookingByCode(code string) (*models.Booking, error) {
	return s.bookingRepo.FindByCode(code)
}

// CancelBooking cancels a confirmed booking. Claimed or expired bookings
// cannot be cancelled.
func (s *BookingService) CancelBooking(id string) error {
	booking, err := s.bookingRepo.FindByID(id)
	if err != nil {
		return err
	}
	if booking.Status != models.BookingStatusConfirmed {
		return errors.New("only confirmed bookings can be cancelled")
	}

	return s.bookingRepo.UpdateStatus(id, models.BookingStatusCancelled)
}

// ExpireLapsed marks confirmed bookings past their end time as expired.
func (s *BookingService) ExpireLapsed() (int64, error) {
	return s.bookingRepo.ExpireBefore(time.Now())
}

// generateBookingCode returns an 8-character uppercase hex code. The unique
// index on the code column catches the rare collision.
func generateBookingCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
