package database

import (
	"log"

	"foyer-backend/internal/config"
	"foyer-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	// TranslateError: unique-index violations must surface as
	// gorm.ErrDuplicatedKey so services can turn them into 400s
	// instead of leaking driver error codes.
	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	log.Println("Database connected, migration done.")
}

// Migrate runs the schema migration. Exported so tests can run the same
// schema against an in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Member{},
		&models.BankAccount{},
		&models.BankAccountMember{},
		&models.Income{},
		&models.Expense{},
		&models.Budget{},
		&models.Transaction{},
		&models.AuditLog{},
	)
}
