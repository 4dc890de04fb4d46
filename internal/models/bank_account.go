package models

import "time"

// BankAccount: workshop account shown as payment info on quotes
type BankAccount struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null"` // bank name
	IBAN        string `gorm:"size:50;not null"`
	SwiftCode   string `gorm:"size:20"`
	Description string `gorm:"size:255"`
	IsActive    bool   `gorm:"default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
