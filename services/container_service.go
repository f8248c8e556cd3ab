package services

import (
	"errors"
	"fmt"
	"time"

	"water-delivery-api/apperrors"
	"water-delivery-api/models"

	"github.com/google/uuid"
	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ContainerService is the quality-testing registry. A container is tested
// exactly once: the tri-state approved flag moves from nil to true/false
// and never changes again.
type ContainerService struct {
	db *gorm.DB
}

func NewContainerService(db *gorm.DB) *ContainerService {
	return &ContainerService{db: db}
}

// Intake registers a batch of untested containers. Weight defaults to 20 L
// when not given; serials are generated.
func (s *ContainerService) Intake(count int, weight float64) ([]models.Container, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: count must be at least 1", apperrors.ErrValidation)
	}
	if weight == 0 {
		weight = 20
	}
	if weight < 0 {
		return nil, fmt.Errorf("%w: weight must be positive", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	containers := make([]models.Container, count)
	for i := range containers {
		containers[i] = models.Container{
			Serial:          "CONT-" + uuid.NewString(),
			Weight:          weight,
			ManufactureDate: now,
			ExpiryDate:      now.AddDate(1, 0, 0),
		}
	}
	if err := s.db.Create(&containers).Error; err != nil {
		return nil, err
	}

	logrus.WithField("count", count).Info("containers registered")
	return containers, nil
}

// Test records a quality test result. The actor must be a tester and the
// container must still be untested — re-testing is blocked, the UPDATE is
// guarded on approved IS NULL so two concurrent tests cannot both win.
func (s *ContainerService) Test(containerID, actorID uint, approved bool, notes string) (*models.Container, error) {
	var actor models.User
	if err := s.db.First(&actor, actorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", apperrors.ErrNotFound, actorID)
		}
		return nil, err
	}
	if actor.Role != models.RoleTester {
		return nil, fmt.Errorf("%w: only a tester can record test results", apperrors.ErrAuthorization)
	}

	var container models.Container
	if err := s.db.First(&container, containerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: container %d", apperrors.ErrNotFound, containerID)
		}
		return nil, err
	}
	if container.Approved != nil {
		return nil, fmt.Errorf("%w: container %d has already been tested", apperrors.ErrInvalidTransition, containerID)
	}

	now := time.Now().UTC()
	res := s.db.Model(&models.Container{}).
		Where("id = ? AND approved IS NULL", containerID).
		Updates(map[string]interface{}{
			"approved":   approved,
			"tester_id":  actor.ID,
			"test_notes": notes,
			"tested_at":  now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: container %d has already been tested", apperrors.ErrInvalidTransition, containerID)
	}

	logrus.WithFields(logrus.Fields{
		"container": containerID,
		"approved":  approved,
		"tester":    actor.ID,
	}).Info("container tested")

	var updated models.Container
	if err := s.db.First(&updated, containerID).Error; err != nil {
		return nil, err
	}
	return &updated, nil
}

// List returns all containers, optionally only untested ones.
func (s *ContainerService) List(untestedOnly bool) ([]models.Container, error) {
	var containers []models.Container
	query := s.db.Preload("Tester")
	if untestedOnly {
		query = query.Where("approved IS NULL")
	}
	err := query.Order("created_at desc").Find(&containers).Error
	return containers, err
}
