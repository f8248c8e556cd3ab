package models

import "time"

// Container is a distilled-water container tracked through quality testing.
// Approved is tri-state: nil means untested, true approved, false rejected.
// TesterID/TestNotes/TestedAt are set exactly when Approved becomes non-nil.
type Container struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	Serial          string    `json:"serial" gorm:"uniqueIndex;not null"`
	Weight          float64   `json:"weight"` // litres
	ManufactureDate time.Time `json:"manufacture_date"`
	ExpiryDate      time.Time `json:"expiry_date"`

	Approved  *bool      `json:"approved"`
	TesterID  *uint      `json:"tester_id"`
	Tester    *User      `json:"tester,omitempty" gorm:"foreignKey:TesterID"`
	TestNotes string     `json:"test_notes"`
	TestedAt  *time.Time `json:"tested_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
