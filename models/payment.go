package models

import "time"

// PaymentStatus tracks an M-Pesa STK push attempt. The gateway callback moves
// a payment from initiated to settled or failed; there is no retry in-repo.
type PaymentStatus string

const (
	PaymentInitiated PaymentStatus = "initiated"
	PaymentSettled   PaymentStatus = "settled"
	PaymentFailed    PaymentStatus = "failed"
)

type Payment struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	Reference     string        `json:"reference" gorm:"uniqueIndex;not null"` // gateway CheckoutRequestID
	AccountRef    string        `json:"account_ref"`
	PhoneNumber   string        `json:"phone_number"`
	Amount        float64       `json:"amount"`
	Status        PaymentStatus `json:"status" gorm:"not null;default:'initiated'"`
	ReceiptNumber string        `json:"receipt_number"`
	ResultDesc    string        `json:"result_desc"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
