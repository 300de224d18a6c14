package services

import (
	"errors"
	"fmt"
	"time"

	"parkhub-backend/internal/models"
	"parkhub-backend/internal/repository"
	"parkhub-backend/pkg/cache"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PricingService struct {
	pricingRepo  *repository.PricingRepository
	cacheManager cache.CacheManager
	cacheConfig  cache.CacheConfig
}

func NewPricingService(pricingRepo *repository.PricingRepository) *PricingService {
	return &PricingService{
		pricingRepo: pricingRepo,
		cacheConfig: cache.DefaultCacheConfig(),
	}
}

// SetCacheManager allows setting the cache manager for active plan caching
func (s *PricingService) SetCacheManager(cacheManager cache.CacheManager) {
	s.cacheManager = cacheManager
}

// SetCacheConfig allows setting custom cache configuration
func (s *PricingService) SetCacheConfig(config cache.CacheConfig) {
	s.cacheConfig = config
}

type TierRequest struct {
	DurationValue int     `json:"durationValue" validate:"required,min=1"`
	DurationUnit  string  `json:"durationUnit" validate:"required,oneof=hour day"`
	UnitPrice     float64 `json:"unitPrice" validate:"min=0"`
}

type CreatePlanRequest struct {
	Name        string        `json:"name" validate:"required,min=1,max=100"`
	VehicleType string        `json:"vehicleType" validate:"required,oneof=car motorcycle truck"`
	Tiers       []TierRequest `json:"tiers" validate:"required,min=1,dive"`
	Active      bool          `json:"active"`
}

type UpdatePlanRequest struct {
	Name  string        `json:"name,omitempty"`
	Tiers []TierRequest `json:"tiers,omitempty" validate:"omitempty,min=1,dive"`
}

func (s *PricingService) CreatePlan(req *CreatePlanRequest) (*models.PricingPlan, error) {
	now := time.Now()
	plan := &models.PricingPlan{
		ID:          primitive.NewObjectID(),
		Name:        req.Name,
		VehicleType: req.VehicleType,
		Tiers:       convertTiers(req.Tiers),
		Active:      false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.pricingRepo.Create(plan)
	if err != nil {
		return nil, err
	}

	// Activation deactivates any sibling plan for the same vehicle type.
	if req.Active {
		if err := s.ActivatePlan(created.ID.Hex()); err != nil {
			return nil, err
		}
		created.Active = true
	}

	return created, nil
}

func (s *PricingService) GetAllPlans() ([]*models.PricingPlan, error) {
	return s.pricingRepo.FindAll()
}

func (s *PricingService) GetPlanByID(id string) (*models.PricingPlan, error) {
	return s.pricingRepo.FindByID(id)
}

func (s *PricingService) GetActivePlan(vehicleType string) (*models.PricingPlan, error) {
	return s.pricingRepo.FindActive(vehicleType)
}

func (s *PricingService) UpdatePlan(id string, req *UpdatePlanRequest) (*models.PricingPlan, error) {
	plan, err := s.pricingRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		plan.Name = req.Name
	}
	if len(req.Tiers) > 0 {
		plan.Tiers = convertTiers(req.Tiers)
	}

	updated, err := s.pricingRepo.Update(id, plan)
	if err != nil {
		return nil, err
	}

	// Tier changes must be visible to the next fee quote.
	if updated.Active {
		s.invalidatePlanCache(updated.VehicleType)
	}

	return updated, nil
}

// ActivatePlan makes the plan the single active one for its vehicle type.
func (s *PricingService) ActivatePlan(id string) error {
	plan, err := s.pricingRepo.FindByID(id)
	if err != nil {
		return err
	}

	if err := s.pricingRepo.SetActive(id); err != nil {
		return err
	}

	s.invalidatePlanCache(plan.VehicleType)
	return nil
}

func (s *PricingService) DeletePlan(id string) error {
	plan, err := s.pricingRepo.FindByID(id)
	if err != nil {
		return err
	}
	if plan.Active {
		return errors.New("cannot delete the active pricing plan")
	}

	return s.pricingRepo.Delete(id)
}

func (s *PricingService) invalidatePlanCache(vehicleType string) {
	if s.cacheManager == nil {
		return
	}
	if err := s.cacheManager.InvalidateActivePlan(vehicleType); err != nil {
		fmt.Printf("Failed to invalidate active plan cache for %s: %v\n", vehicleType, err)
	}
}

func convertTiers(reqs []TierRequest) []models.PricingTier {
	tiers := make([]models.PricingTier, len(reqs))
	for i, r := range reqs {
		tiers[i] = models.PricingTier{
			DurationValue: r.DurationValue,
			DurationUnit:  r.DurationUnit,
			UnitPrice:     r.UnitPrice,
		}
	}
	return tiers
}
