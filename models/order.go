package models

import "time"

// OrderStatus represents all possible states of a water delivery order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusApproved  OrderStatus = "approved"
	StatusRejected  OrderStatus = "rejected"
	StatusInTransit OrderStatus = "in_transit"
	StatusDelivered OrderStatus = "delivered"
)

// DeliveryWindow is the customer's preferred delivery slot
type DeliveryWindow string

const (
	WindowMorning   DeliveryWindow = "morning"
	WindowAfternoon DeliveryWindow = "afternoon"
	WindowEvening   DeliveryWindow = "evening"
	WindowAnytime   DeliveryWindow = "anytime"
)

// PaymentMethod is how the customer pays for an order
type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentMpesa PaymentMethod = "mpesa"
)

type Order struct {
	ID                    uint           `json:"id" gorm:"primaryKey"`
	UserID                uint           `json:"user_id" gorm:"not null;index"`
	User                  User           `json:"customer,omitempty" gorm:"foreignKey:UserID"`
	Quantity              int            `json:"quantity" gorm:"not null"`
	DeliveryAddress       string         `json:"delivery_address" gorm:"not null"`
	PreferredDeliveryTime DeliveryWindow `json:"preferred_delivery_time" gorm:"not null"`
	SpecialInstructions   string         `json:"special_instructions"`
	TotalAmount           float64        `json:"total_amount"` // always quantity × unit price, computed server-side
	Status                OrderStatus    `json:"status" gorm:"not null;default:'pending';index"`
	TransporterID         *uint          `json:"transporter_id"`
	Transporter           *User          `json:"transporter,omitempty" gorm:"foreignKey:TransporterID"`
	PaymentMethod         PaymentMethod  `json:"payment_method" gorm:"not null;default:'cash'"`
	PaymentReference      string         `json:"payment_reference,omitempty"`
	StartTime             *time.Time     `json:"start_time"`
	DeliveredTime         *time.Time     `json:"delivered_time"`

	StatusHistory []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderStatusHistory tracks every status change for the audit trail
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"order_id" gorm:"not null;index"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  uint        `json:"changed_by"` // user ID who triggered the transition
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}
