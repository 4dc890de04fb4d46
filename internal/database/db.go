package database

import (
	"log"

	"glasswork-backend/internal/config"
	"glasswork-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Could not connect to the database: %v", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.InventoryItem{},
		&models.Process{},
		&models.ProcessThicknessPrice{},
		&models.Product{},
		&models.ProductMaterial{},
		&models.ProductProcessStep{},
		&models.Service{},
		&models.BankAccount{},
		&models.WorkOrder{},
		&models.WorkOrderItem{},
		&models.ItemMaterial{},
		&models.ItemProcessStep{},
		&models.StockTransaction{},
		&models.DeliveryNote{},
		&models.DeliveryNoteItem{},
		&models.Quote{},
		&models.QuoteItem{},
		&models.AuditLog{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	log.Println("Database connected, migration complete.")
}
