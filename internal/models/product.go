package models

import "time"

// Product: sellable item built from raw materials (e.g. "Tempered glass 8mm")
type Product struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null"`
	Code        string `gorm:"size:50;index"`
	Description string `gorm:"size:255"`
	Price       float64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Materials []ProductMaterial `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// ProductMaterial: how much of one inventory item a product consumes.
// Quantity is the consumption rate per m2 (or per piece) of the product.
type ProductMaterial struct {
	ID                 uint `gorm:"primaryKey"`
	ProductID          uint `gorm:"index;not null"`
	InventoryItemID    uint `gorm:"index;not null"`
	InventoryItem      InventoryItem
	Quantity           float64 `gorm:"not null"`
	Unit               string  `gorm:"size:20"`
	HasProcesses       bool    `gorm:"default:false"`
	ShowOnDeliveryNote bool    `gorm:"default:true"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	ProcessSteps []ProductProcessStep `gorm:"foreignKey:ProductMaterialID;constraint:OnDelete:CASCADE"`
}

// ProductProcessStep: default process attached to a product material.
// IsDefault marks it as mandatory - it is copied onto order lines as a
// fixed step that the order editor cannot remove.
type ProductProcessStep struct {
	ID                uint `gorm:"primaryKey"`
	ProductMaterialID uint `gorm:"index;not null"`
	ProcessID         uint `gorm:"index;not null"`
	Process           Process
	IsDefault         bool `gorm:"default:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
