package services

import (
	"testing"
	"time"

	"water-delivery-api/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Container{},
		&models.Order{},
		&models.OrderStatusHistory{},
		&models.Feedback{},
		&models.Payment{},
	))
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string, role models.UserRole) *models.User {
	t.Helper()
	user := models.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createApprovedContainer(t *testing.T, db *gorm.DB, testerID uint) *models.Container {
	t.Helper()
	approved := true
	now := time.Now().UTC()
	container := models.Container{
		Serial:          "CONT-TEST-" + name8(t),
		Weight:          20,
		ManufactureDate: now,
		ExpiryDate:      now.AddDate(1, 0, 0),
		Approved:        &approved,
		TesterID:        &testerID,
		TestedAt:        &now,
	}
	require.NoError(t, db.Create(&container).Error)
	return &container
}

var serialCounter int

func name8(t *testing.T) string {
	t.Helper()
	serialCounter++
	return time.Now().Format("150405.000") + "-" + t.Name() + "-" + string(rune('A'+serialCounter%26))
}

func settlePayment(t *testing.T, db *gorm.DB, reference string, amount float64) {
	t.Helper()
	payment := models.Payment{
		Reference:   reference,
		PhoneNumber: "254712345678",
		Amount:      amount,
		Status:      models.PaymentSettled,
	}
	require.NoError(t, db.Create(&payment).Error)
}
