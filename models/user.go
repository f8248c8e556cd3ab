package models

import (
	"time"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleCustomer    UserRole = "customer"
	RoleAdmin       UserRole = "admin"
	RoleTester      UserRole = "tester"
	RoleTransporter UserRole = "transporter"
)

// VehicleSize classifies a transporter's vehicle capacity
type VehicleSize string

const (
	VehicleSmall  VehicleSize = "small"
	VehicleMedium VehicleSize = "medium"
	VehicleLarge  VehicleSize = "large"
)

type User struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	Name         string   `json:"name" gorm:"not null"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string   `json:"-" gorm:"not null"`
	Role         UserRole `json:"role" gorm:"not null;default:'customer'"`
	Phone        string   `json:"phone"`
	Address      string   `json:"address"`

	// Vehicle fields are set only for transporters
	VehicleID   string      `json:"vehicle_id,omitempty"`
	VehicleName string      `json:"vehicle_name,omitempty"`
	VehicleSize VehicleSize `json:"vehicle_size,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
