package database

import (
	"fmt"
	"os"

	"buchhaltung-backend/models"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Connect() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file found, relying on environment")
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		env("DB_HOST", "db"), os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"), env("DB_PORT", "5432"), env("DB_SSLMODE", "disable"))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to database")
	}
}

// AutoMigrate creates/extends all tables. EnsureSchema applies the hardening
// pass (column types, constraints) afterwards.
func AutoMigrate() {
	if err := DB.AutoMigrate(
		&models.Company{},
		&models.User{},
		&models.Vendor{},
		&models.PurchaseInvoice{},
		&models.PurchaseInvoiceItem{},
		&models.PaymentVoucher{},
		&models.VoucherSequence{},
		&models.LedgerEntry{},
		&models.ChartOfAccount{},
		&models.AuditLog{},
		&models.IdempotencyKey{},
	); err != nil {
		log.Fatal().Err(err).Msg("automigrate failed")
	}
}
