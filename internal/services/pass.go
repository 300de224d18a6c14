package services

import (
	"errors"
	"time"

	"parkhub-backend/internal/models"
	"parkhub-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PassService struct {
	passRepo *repository.PassRepository
}

func NewPassService(passRepo *repository.PassRepository) *PassService {
	return &PassService{
		passRepo: passRepo,
	}
}

type CreatePassRequest struct {
	HolderName    string    `json:"holderName" validate:"required,min=1,max=100"`
	VehicleNumber string    `json:"vehicleNumber" validate:"required,min=1,max=20"`
	Type          string    `json:"type" validate:"required,oneof=monthly contract staff"`
	ValidFrom     time.Time `json:"validFrom" validate:"required"`
	ValidUntil    time.Time `json:"validUntil" validate:"required"`
}

type UpdatePassRequest struct {
	HolderName string     `json:"holderName,omitempty"`
	ValidUntil *time.Time `json:"validUntil,omitempty"`
}

func (s *PassService) CreatePass(req *CreatePassRequest) (*models.Pass, error) {
	if !req.ValidUntil.After(req.ValidFrom) {
		return nil, errors.New("valid until must be after valid from")
	}

	// One valid pass per plate at a time.
	existing, _ := s.passRepo.FindValidByVehicleNumber(req.VehicleNumber, time.Now())
	if existing != nil {
		return nil, errors.New("vehicle already has a valid pass")
	}

	now := time.Now()
	pass := &models.Pass{
		ID:            primitive.NewObjectID(),
		HolderName:    req.HolderName,
		VehicleNumber: req.VehicleNumber,
		Type:          req.Type,
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	return s.passRepo.Create(pass)
}

func (s *PassService) GetAllPasses() ([]*models.Pass, error) {
	return s.passRepo.FindAll()
}

func (s *PassService) GetPassByID(id string) (*models.Pass, error) {
	return s.passRepo.FindByID(id)
}

// GetValidPass returns the pass currently covering the plate, if any.
func (s *PassService) GetValidPass(vehicleNumber string) (*models.Pass, error) {
	return s.passRepo.FindValidByVehicleNumber(vehicleNumber, time.Now())
}

func (s *PassService) UpdatePass(id string, req *UpdatePassRequest) (*models.Pass, error) {
	pass, err := s.passRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if req.HolderName != "" {
		pass.HolderName = req.HolderName
	}
	if req.ValidUntil != nil {
		if !req.ValidUntil.After(pass.ValidFrom) {
			return nil, errors.New("valid until must be after valid from")
		}
		pass.ValidUntil = *req.ValidUntil
	}

	return s.passRepo.Update(id, pass)
}

// RevokePass deactivates the pass without deleting its history.
func (s *PassService) RevokePass(id string) error {
	return s.passRepo.SetActive(id, false)
}

func (s *PassService) ReinstatePass(id string) error {
	return s.passRepo.SetActive(id, true)
}

func (s *PassService) DeletePass(id string) error {
	return s.passRepo.Delete(id)
}
