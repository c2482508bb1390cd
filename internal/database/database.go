package database

import (
	"fmt"
	"log"

	"match-escrow/internal/config"
	"match-escrow/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the configured database
func Connect(cfg *config.Config) error {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.SQLitePath)
	default:
		dialector = postgres.Open(cfg.GetDSN())
	}

	var err error
	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Error),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Database.Driver == "sqlite" {
		// single writer
		sqlDB, err := DB.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Printf("Database connection established successfully (%s)", cfg.Database.Driver)
	return nil
}

// Models lists every persisted model in migration order
func Models() []interface{} {
	return []interface{}{
		// ledger
		&models.Account{},
		&models.Transfer{},
		// escrows
		&models.Match{},
		&models.MatchBet{},
		&models.SideMarketEscrow{},
		&models.SideMarketPool{},
		&models.SideMarketBet{},
		// reputation
		&models.OrganiserRating{},
		&models.Vote{},
		// payouts
		&models.Payout{},
		&models.PendingCredit{},
	}
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate() error {
	for _, model := range Models() {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("migration failed for %T: %w", model, err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
