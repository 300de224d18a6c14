package services

import (
	"testing"
	"time"

	"parkhub-backend/internal/models"
	"parkhub-backend/internal/pricing"
	"parkhub-backend/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSessionService_QuoteAt_ExemptCategory(t *testing.T) {
	service := &SessionService{
		cacheConfig: cache.DefaultCacheConfig(),
		feeOptions:  pricing.DefaultOptions(),
	}

	entry := time.Now().Add(-3 * time.Hour)
	session := &models.Session{
		ID:            primitive.NewObjectID(),
		VehicleNumber: "KAA 100S",
		VehicleType:   models.VehicleTypeStaff,
		EntryTime:     entry,
		Status:        models.SessionStatusParked,
	}

	quote, err := service.quoteAt(session, time.Now())
	require.NoError(t, err)

	assert.True(t, quote.Exempt)
	assert.Equal(t, "exempt vehicle category", quote.ExemptReason)
	assert.Equal(t, float64(0), quote.Amount)
	assert.Equal(t, 3, quote.BillableHours)
}

func TestSessionService_QuoteAt_PassHolder(t *testing.T) {
	service := &SessionService{
		cacheConfig: cache.DefaultCacheConfig(),
		feeOptions:  pricing.DefaultOptions(),
	}

	session := &models.Session{
		ID:            primitive.NewObjectID(),
		VehicleNumber: "KBB 200P",
		VehicleType:   models.VehicleTypeCar,
		PassID:        primitive.NewObjectID().Hex(),
		EntryTime:     time.Now().Add(-90 * time.Minute),
		Status:        models.SessionStatusParked,
	}

	quote, err := service.quoteAt(session, time.Now())
	require.NoError(t, err)

	assert.True(t, quote.Exempt)
	assert.Equal(t, "valid pass", quote.ExemptReason)
	assert.Equal(t, float64(0), quote.Amount)
}

func TestSessionService_QuoteAt_TieredFee(t *testing.T) {
	mockCache := new(MockCacheManager)
	service := &SessionService{
		cacheManager: mockCache,
		cacheConfig:  cache.DefaultCacheConfig(),
		feeOptions:   pricing.DefaultOptions(),
	}

	plan := &models.PricingPlan{
		ID:          primitive.NewObjectID(),
		Name:        "Standard Car",
		VehicleType: models.VehicleTypeCar,
		Tiers: []models.PricingTier{
			{DurationValue: 2, DurationUnit: models.DurationUnitHour, UnitPrice: 3.0},
			{DurationValue: 4, DurationUnit: models.DurationUnitHour, UnitPrice: 2.0},
		},
		Active: true,
	}
	mockCache.On("GetActivePlan", models.VehicleTypeCar).Return(plan, nil)

	entry := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	session := &models.Session{
		ID:            primitive.NewObjectID(),
		VehicleNumber: "KCC 300C",
		VehicleType:   models.VehicleTypeCar,
		EntryTime:     entry,
		Status:        models.SessionStatusParked,
	}

	// 3h30m bills as 4 hours: 2h at 3.0 plus 2h at 2.0.
	quote, err := service.quoteAt(session, entry.Add(3*time.Hour+30*time.Minute))
	require.NoError(t, err)

	assert.False(t, quote.Exempt)
	assert.Equal(t, 4, quote.BillableHours)
	assert.Equal(t, 10.0, quote.Amount)
	mockCache.AssertExpectations(t)
}

func TestSessionService_QuoteAt_EvaluationBeforeEntry(t *testing.T) {
	mockCache := new(MockCacheManager)
	service := &SessionService{
		cacheManager: mockCache,
		cacheConfig:  cache.DefaultCacheConfig(),
		feeOptions:   pricing.DefaultOptions(),
	}

	plan := &models.PricingPlan{
		ID:          primitive.NewObjectID(),
		VehicleType: models.VehicleTypeCar,
		Tiers: []models.PricingTier{
			{DurationValue: 1, DurationUnit: models.DurationUnitHour, UnitPrice: 3.0},
		},
		Active: true,
	}
	mockCache.On("GetActivePlan", models.VehicleTypeCar).Return(plan, nil)

	entry := time.Now()
	session := &models.Session{
		ID:            primitive.NewObjectID(),
		VehicleNumber: "KDD 400D",
		VehicleType:   models.VehicleTypeCar,
		EntryTime:     entry,
		Status:        models.SessionStatusParked,
	}

	_, err := service.quoteAt(session, entry.Add(-time.Minute))
	assert.ErrorIs(t, err, pricing.ErrEvaluationBeforeEntry)
}
