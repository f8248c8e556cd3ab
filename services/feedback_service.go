package services

import (
	"errors"
	"fmt"

	"water-delivery-api/apperrors"
	"water-delivery-api/models"

	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// FeedbackService records one rating per delivered order. The transporter
// id is denormalized from the order at submission time.
type FeedbackService struct {
	db *gorm.DB
}

func NewFeedbackService(db *gorm.DB) *FeedbackService {
	return &FeedbackService{db: db}
}

// Submit creates the feedback row for an order. The caller must own the
// order, the order must be delivered, and no prior feedback may exist.
func (s *FeedbackService) Submit(userID, orderID uint, rating int, comment string) (*models.Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", apperrors.ErrValidation)
	}

	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", apperrors.ErrNotFound, orderID)
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%w: order %d does not belong to you", apperrors.ErrInvalidState, orderID)
	}
	if order.Status != models.StatusDelivered {
		return nil, fmt.Errorf("%w: order %d is %s, feedback requires a delivered order", apperrors.ErrInvalidState, orderID, order.Status)
	}

	var existing int64
	if err := s.db.Model(&models.Feedback{}).Where("order_id = ?", orderID).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: feedback already submitted for order %d", apperrors.ErrDuplicate, orderID)
	}

	feedback := models.Feedback{
		UserID:        userID,
		OrderID:       orderID,
		TransporterID: order.TransporterID,
		Rating:        rating,
		Comment:       comment,
	}
	if err := s.db.Create(&feedback).Error; err != nil {
		// unique index on order_id backstops the pre-check under concurrency
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: feedback already submitted for order %d", apperrors.ErrDuplicate, orderID)
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id": orderID,
		"rating":   rating,
	}).Info("feedback submitted")

	return &feedback, nil
}

// ListAll returns all feedback, newest first.
func (s *FeedbackService) ListAll() ([]models.Feedback, error) {
	var feedback []models.Feedback
	err := s.db.Order("created_at desc").Find(&feedback).Error
	return feedback, err
}
