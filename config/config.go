package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"water-delivery-api/models"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// JWTSecret used to sign tokens — populated by Load
var JWTSecret []byte

// UnitPrice is the price of one container of water. Order totals are always
// computed server-side from this value.
var UnitPrice float64

// MpesaConfig holds Daraja gateway credentials and endpoints
type MpesaConfig struct {
	ConsumerKey     string
	ConsumerSecret  string
	ShortCode       string
	PassKey         string
	CallbackURL     string
	BaseURL         string
	TimeoutSeconds  int
	TransactionType string
}

var Mpesa MpesaConfig

// Load reads .env (if present) and populates package configuration.
func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found – relying on env vars")
	}

	JWTSecret = []byte(getEnv("JWT_SECRET", "water_delivery_super_secret"))
	UnitPrice = getEnvFloat("UNIT_PRICE", 25)

	Mpesa = MpesaConfig{
		ConsumerKey:     getEnv("MPESA_CONSUMER_KEY", ""),
		ConsumerSecret:  getEnv("MPESA_CONSUMER_SECRET", ""),
		ShortCode:       getEnv("MPESA_BUSINESS_SHORT_CODE", "174379"),
		PassKey:         getEnv("MPESA_PASSKEY", ""),
		CallbackURL:     getEnv("MPESA_CALLBACK_URL", "http://localhost:8080/callback"),
		BaseURL:         getEnv("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke"),
		TimeoutSeconds:  getEnvInt("MPESA_TIMEOUT", 30),
		TransactionType: getEnv("MPESA_TRANSACTION_TYPE", "CustomerPayBillOnline"),
	}
}

// InitDB opens the configured database engine and migrates all models.
// DB_DRIVER selects sqlite (default) or postgres; both run through the same
// GORM store, so handlers and services never see the difference.
func InitDB() {
	var dialector gorm.Dialector
	switch getEnv("DB_DRIVER", "sqlite") {
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", "password"),
			getEnv("DB_NAME", "water_delivery"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_SSLMODE", "disable"),
			getEnv("DB_TIMEZONE", "UTC"),
		)
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(getEnv("SQLITE_PATH", "water_delivery.db"))
	}

	var err error
	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.Container{},
		&models.Order{},
		&models.OrderStatusHistory{},
		&models.Feedback{},
		&models.Payment{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	log.Println("✅ Database connected and migrated successfully")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
