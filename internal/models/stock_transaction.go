package models

import "time"

type StockTransactionType string

const (
	StockTransactionOut    StockTransactionType = "out"    // issued to production
	StockTransactionReturn StockTransactionType = "return" // credited back on archive
	StockTransactionIn     StockTransactionType = "in"     // manual stock receipt
	StockTransactionAdjust StockTransactionType = "adjust" // manual correction
)

// StockTransaction: append-only stock ledger entry. Never updated or
// deleted; reversals are recorded as new "return" rows. WorkOrderID links
// the entry to the order that caused it (nil for manual movements).
type StockTransaction struct {
	ID               uint   `gorm:"primaryKey"`
	Reference        string `gorm:"size:40;uniqueIndex"` // uuid
	InventoryItemID  uint   `gorm:"index;not null"`
	InventoryItem    InventoryItem
	WorkOrderID      *uint                `gorm:"index"`
	Type             StockTransactionType `gorm:"size:20;not null"`
	Quantity         float64              `gorm:"not null"` // absolute magnitude moved
	PreviousQuantity float64              `gorm:"not null"`
	NewQuantity      float64              `gorm:"not null"`
	Notes            string               `gorm:"size:2000"` // human-readable breakdown
	CreatedAt        time.Time
}
