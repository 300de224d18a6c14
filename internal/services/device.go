package services

import (
	"errors"
	"fmt"
	"time"

	"parkhub-backend/internal/models"
	"parkhub-backend/internal/repository"
	"parkhub-backend/pkg/batch"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DeviceService struct {
	deviceRepo          *repository.DeviceRepository
	notificationService *NotificationService
	batchProcessor      batch.BatchProcessor
}

func NewDeviceService(deviceRepo *repository.DeviceRepository) *DeviceService {
	return &DeviceService{
		deviceRepo: deviceRepo,
	}
}

// SetNotificationService allows setting the notification service for refill and offline alerts
func (s *DeviceService) SetNotificationService(notificationService *NotificationService) {
	s.notificationService = notificationService
}

// SetBatchProcessor allows setting the batch processor for heartbeat writes
func (s *DeviceService) SetBatchProcessor(batchProcessor batch.BatchProcessor) {
	s.batchProcessor = batchProcessor
}

type RegisterDeviceRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Kind     string `json:"kind" validate:"required,oneof=entry_gate exit_gate kiosk"`
	Location string `json:"location,omitempty"`
}

type HeartbeatRequest struct {
	Status     string `json:"status,omitempty" validate:"omitempty,oneof=online offline fault"`
	PaperLevel *int   `json:"paperLevel,omitempty" validate:"omitempty,min=0,max=100"`
}

func (s *DeviceService) RegisterDevice(req *RegisterDeviceRequest) (*models.Device, error) {
	now := time.Now()
	device := &models.Device{
		ID:            primitive.NewObjectID(),
		Name:          req.Name,
		Kind:          req.Kind,
		Location:      req.Location,
		Status:        models.DeviceStatusOnline,
		PaperLevel:    100,
		LastHeartbeat: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	return s.deviceRepo.Create(device)
}

func (s *DeviceService) GetAllDevices() ([]*models.Device, error) {
	return s.deviceRepo.FindAll()
}

func (s *DeviceService) GetDevicesByKind(kind string) ([]*models.Device, error) {
	return s.deviceRepo.FindByKind(kind)
}

func (s *DeviceService) GetDeviceByID(id string) (*models.Device, error) {
	return s.deviceRepo.FindByID(id)
}

func (s *DeviceService) DeleteDevice(id string) error {
	return s.deviceRepo.Delete(id)
}

// RecordHeartbeat ingests one device heartbeat. Writes go through the batch
// processor to absorb bursts; a kiosk reporting paper below the refill
// threshold raises a paper_refill notification.
func (s *DeviceService) RecordHeartbeat(id string, req *HeartbeatRequest) error {
	device, err := s.deviceRepo.FindByID(id)
	if err != nil {
		return err
	}

	update := batch.DeviceUpdateData{
		PaperLevel: req.PaperLevel,
		Timestamp:  time.Now(),
	}
	if req.Status != "" {
		status := req.Status
		update.Status = &status
	}

	if s.batchProcessor != nil {
		if err := s.batchProcessor.AddUpdate(id, update); err != nil {
			fmt.Printf("Batch processing failed for device %s, falling back to direct update: %v\n", id, err)
			s.fallbackToDirectUpdate(device, update)
		}
	} else {
		s.fallbackToDirectUpdate(device, update)
	}

	s.checkPaperLevel(device, req.PaperLevel)

	return nil
}

// fallbackToDirectUpdate writes the heartbeat straight to the repository when
// batch processing is unavailable.
func (s *DeviceService) fallbackToDirectUpdate(device *models.Device, update batch.DeviceUpdateData) {
	if update.Status != nil {
		device.Status = *update.Status
	}
	if update.PaperLevel != nil {
		device.PaperLevel = *update.PaperLevel
	}
	device.LastHeartbeat = update.Timestamp
	device.UpdatedAt = update.Timestamp

	if _, err := s.deviceRepo.Update(device.ID.Hex(), device); err != nil {
		fmt.Printf("Failed to update device %s directly: %v\n", device.ID.Hex(), err)
	}
}

// checkPaperLevel raises a paper_refill notification when a kiosk crosses the
// refill threshold from above. Reporting below-threshold repeatedly does not
// stack alerts.
func (s *DeviceService) checkPaperLevel(device *models.Device, paperLevel *int) {
	if paperLevel == nil || device.Kind != models.DeviceKindKiosk || s.notificationService == nil {
		return
	}
	if *paperLevel >= models.PaperLevelRefillThreshold || device.PaperLevel < models.PaperLevelRefillThreshold {
		return
	}

	_, err := s.notificationService.CreateNotification(&CreateNotificationRequest{
		Type:    models.NotificationTypePaperRefill,
		Message: fmt.Sprintf("Kiosk %s paper level at %d%%, refill needed", device.Name, *paperLevel),
	})
	if err != nil {
		fmt.Printf("Failed to create paper refill notification for device %s: %v\n", device.ID.Hex(), err)
	}
}

// SweepStaleDevices flips devices without a recent heartbeat to offline and
// raises a device_offline notification for each transition.
func (s *DeviceService) SweepStaleDevices(staleAfter time.Duration) (int, error) {
	if staleAfter <= 0 {
		return 0, errors.New("stale threshold must be positive")
	}

	transitioned, err := s.deviceRepo.MarkOfflineBefore(time.Now().Add(-staleAfter))
	if err != nil {
		return 0, err
	}

	if s.notificationService != nil {
		for _, device := range transitioned {
			_, err := s.notificationService.CreateNotification(&CreateNotificationRequest{
				Type:    models.NotificationTypeDeviceOffline,
				Message: fmt.Sprintf("Device %s (%s) stopped sending heartbeats", device.Name, device.Kind),
			})
			if err != nil {
				fmt.Printf("Failed to create offline notification for device %s: %v\n", device.ID.Hex(), err)
			}
		}
	}

	return len(transitioned), nil
}
