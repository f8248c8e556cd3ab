package models

import "time"

// Feedback is a customer rating of a delivered order. At most one row exists
// per order. TransporterID is copied from the order at submission time.
type Feedback struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	UserID        uint   `json:"user_id" gorm:"not null;index"`
	OrderID       uint   `json:"order_id" gorm:"not null;uniqueIndex"`
	Order         Order  `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	TransporterID *uint  `json:"transporter_id"`
	Rating        int    `json:"rating" gorm:"not null"` // 1..5
	Comment       string `json:"comment"`

	CreatedAt time.Time `json:"created_at"`
}
