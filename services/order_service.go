package services

import (
	"errors"
	"fmt"
	"time"

	"water-delivery-api/apperrors"
	"water-delivery-api/models"
	"water-delivery-api/statemachine"

	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OrderService owns the order state machine: creation, the admin
// approve/reject decision, and the transporter's transit transitions.
// Every transition is a compare-and-swap on the current status so two
// concurrent calls can never both succeed.
type OrderService struct {
	db        *gorm.DB
	unitPrice float64
}

func NewOrderService(db *gorm.DB, unitPrice float64) *OrderService {
	return &OrderService{db: db, unitPrice: unitPrice}
}

type CreateOrderInput struct {
	CustomerID            uint
	Quantity              int
	DeliveryAddress       string
	PreferredDeliveryTime models.DeliveryWindow
	SpecialInstructions   string
	PaymentMethod         models.PaymentMethod
	PaymentReference      string
}

var validWindows = map[models.DeliveryWindow]bool{
	models.WindowMorning:   true,
	models.WindowAfternoon: true,
	models.WindowEvening:   true,
	models.WindowAnytime:   true,
}

// Create places a new order in pending state. The total is always computed
// from the server-side unit price. Cash orders are written immediately;
// mpesa orders require an already-settled payment reference — if the
// payment did not settle, no order row is created.
func (s *OrderService) Create(in CreateOrderInput) (*models.Order, error) {
	if in.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", apperrors.ErrValidation)
	}
	if in.DeliveryAddress == "" {
		return nil, fmt.Errorf("%w: delivery address is required", apperrors.ErrValidation)
	}
	if !validWindows[in.PreferredDeliveryTime] {
		return nil, fmt.Errorf("%w: preferred delivery time must be morning, afternoon, evening or anytime", apperrors.ErrValidation)
	}

	order := models.Order{
		UserID:                in.CustomerID,
		Quantity:              in.Quantity,
		DeliveryAddress:       in.DeliveryAddress,
		PreferredDeliveryTime: in.PreferredDeliveryTime,
		SpecialInstructions:   in.SpecialInstructions,
		TotalAmount:           float64(in.Quantity) * s.unitPrice,
		Status:                models.StatusPending,
	}

	switch in.PaymentMethod {
	case models.PaymentCash, "":
		order.PaymentMethod = models.PaymentCash
	case models.PaymentMpesa:
		if in.PaymentReference == "" {
			return nil, fmt.Errorf("%w: mpesa orders require a payment reference", apperrors.ErrPayment)
		}
		var payment models.Payment
		if err := s.db.Where("reference = ?", in.PaymentReference).First(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: unknown payment reference %q", apperrors.ErrPayment, in.PaymentReference)
			}
			return nil, err
		}
		if payment.Status != models.PaymentSettled {
			return nil, fmt.Errorf("%w: payment %q is %s, not settled", apperrors.ErrPayment, in.PaymentReference, payment.Status)
		}
		var consumed int64
		if err := s.db.Model(&models.Order{}).Where("payment_reference = ?", in.PaymentReference).Count(&consumed).Error; err != nil {
			return nil, err
		}
		if consumed > 0 {
			return nil, fmt.Errorf("%w: payment reference %q already used by another order", apperrors.ErrDuplicate, in.PaymentReference)
		}
		order.PaymentMethod = models.PaymentMpesa
		order.PaymentReference = in.PaymentReference
	default:
		return nil, fmt.Errorf("%w: payment method must be cash or mpesa", apperrors.ErrValidation)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.StatusPending,
			ChangedBy: in.CustomerID,
			Note:      "Order placed by customer",
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"customer": in.CustomerID,
		"method":   order.PaymentMethod,
		"total":    order.TotalAmount,
	}).Info("order created")

	return &order, nil
}

// Approve moves a pending order to approved and assigns a transporter.
// Only admins may call it; the transporter must exist with the transporter
// role, and at least one quality-approved container must be on record.
func (s *OrderService) Approve(orderID, actorID, transporterID uint) (*models.Order, error) {
	actor, err := s.loadUser(actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: only an admin can approve orders", apperrors.ErrAuthorization)
	}

	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}

	var transporter models.User
	if err := s.db.Where("id = ? AND role = ?", transporterID, models.RoleTransporter).First(&transporter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: transporter %d", apperrors.ErrNotFound, transporterID)
		}
		return nil, err
	}

	var approvedContainers int64
	if err := s.db.Model(&models.Container{}).Where("approved = ?", true).Count(&approvedContainers).Error; err != nil {
		return nil, err
	}
	if approvedContainers == 0 {
		return nil, fmt.Errorf("%w: no quality-approved containers available for delivery", apperrors.ErrInvalidState)
	}

	if err := statemachine.CanTransition(order.Status, models.StatusApproved, actor.Role); err != nil {
		return nil, err
	}

	return s.commitTransition(order, actor, models.StatusApproved, map[string]interface{}{
		"status":         models.StatusApproved,
		"transporter_id": transporter.ID,
	}, fmt.Sprintf("Approved and assigned to transporter %s", transporter.Name))
}

// Reject moves a pending order to the terminal rejected state. Admin only.
// No transporter is assigned.
func (s *OrderService) Reject(orderID, actorID uint) (*models.Order, error) {
	actor, err := s.loadUser(actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: only an admin can reject orders", apperrors.ErrAuthorization)
	}

	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if err := statemachine.CanTransition(order.Status, models.StatusRejected, actor.Role); err != nil {
		return nil, err
	}

	return s.commitTransition(order, actor, models.StatusRejected, map[string]interface{}{
		"status": models.StatusRejected,
	}, "Rejected by admin")
}

// StartTransit moves an approved order to in_transit and stamps the start
// time. Only the assigned transporter may call it.
func (s *OrderService) StartTransit(orderID, actorID uint) (*models.Order, error) {
	actor, order, err := s.loadTransporterAndOrder(orderID, actorID)
	if err != nil {
		return nil, err
	}
	if err := statemachine.CanTransition(order.Status, models.StatusInTransit, actor.Role); err != nil {
		return nil, err
	}
	if order.TransporterID == nil || *order.TransporterID != actor.ID {
		return nil, fmt.Errorf("%w: order %d is not assigned to you", apperrors.ErrAuthorization, orderID)
	}

	now := time.Now().UTC()
	return s.commitTransition(order, actor, models.StatusInTransit, map[string]interface{}{
		"status":     models.StatusInTransit,
		"start_time": now,
	}, "Transporter started delivery")
}

// MarkDelivered moves an in_transit order to the terminal delivered state
// and stamps the delivery time. Only the assigned transporter may call it.
func (s *OrderService) MarkDelivered(orderID, actorID uint) (*models.Order, error) {
	actor, order, err := s.loadTransporterAndOrder(orderID, actorID)
	if err != nil {
		return nil, err
	}
	if err := statemachine.CanTransition(order.Status, models.StatusDelivered, actor.Role); err != nil {
		return nil, err
	}
	if order.TransporterID == nil || *order.TransporterID != actor.ID {
		return nil, fmt.Errorf("%w: order %d is not assigned to you", apperrors.ErrAuthorization, orderID)
	}

	now := time.Now().UTC()
	return s.commitTransition(order, actor, models.StatusDelivered, map[string]interface{}{
		"status":         models.StatusDelivered,
		"delivered_time": now,
	}, "Order delivered to customer")
}

// ListForUser returns a customer's own orders, newest first.
func (s *OrderService) ListForUser(userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("Transporter").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error
	return orders, err
}

// ListForTransporter returns orders assigned to a transporter, newest first.
func (s *OrderService) ListForTransporter(transporterID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("User").
		Where("transporter_id = ?", transporterID).
		Order("created_at desc").
		Find(&orders).Error
	return orders, err
}

// ListAll returns every order, newest first, with optional status filter.
func (s *OrderService) ListAll(status models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	query := s.db.Preload("User").Preload("Transporter")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("created_at desc").Find(&orders).Error
	return orders, err
}

// Get returns a single order with its history.
func (s *OrderService) Get(orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("User").Preload("Transporter").Preload("StatusHistory").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", apperrors.ErrNotFound, orderID)
		}
		return nil, err
	}
	return &order, nil
}

// commitTransition performs the atomic read-modify-write: the UPDATE is
// guarded by the order's current status, so a concurrent transition that
// got there first leaves zero rows affected and this call fails without
// any partial write.
func (s *OrderService) commitTransition(order *models.Order, actor *models.User, to models.OrderStatus, updates map[string]interface{}, note string) (*models.Order, error) {
	from := order.Status

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order %d is no longer %s", apperrors.ErrInvalidTransition, order.ID, from)
		}
		history := models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: from,
			ToStatus:   to,
			ChangedBy:  actor.ID,
			Note:       note,
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"from":     from,
		"to":       to,
		"actor":    actor.ID,
	}).Info("order transition")

	var updated models.Order
	if err := s.db.Preload("Transporter").First(&updated, order.ID).Error; err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *OrderService) loadUser(id uint) (*models.User, error) {
	var u models.User
	if err := s.db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", apperrors.ErrNotFound, id)
		}
		return nil, err
	}
	return &u, nil
}

func (s *OrderService) loadOrder(id uint) (*models.Order, error) {
	var o models.Order
	if err := s.db.First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", apperrors.ErrNotFound, id)
		}
		return nil, err
	}
	return &o, nil
}

func (s *OrderService) loadTransporterAndOrder(orderID, actorID uint) (*models.User, *models.Order, error) {
	actor, err := s.loadUser(actorID)
	if err != nil {
		return nil, nil, err
	}
	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, nil, err
	}
	return actor, order, nil
}
