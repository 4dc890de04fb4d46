package models

import "time"

type WorkOrderStatus string

const (
	WorkOrderStatusDraft      WorkOrderStatus = "draft"
	WorkOrderStatusPending    WorkOrderStatus = "pending"
	WorkOrderStatusInProgress WorkOrderStatus = "in-progress"
	WorkOrderStatusCompleted  WorkOrderStatus = "completed"
	WorkOrderStatusCancelled  WorkOrderStatus = "cancelled"
	WorkOrderStatusArchived   WorkOrderStatus = "archived"
)

type ProcessStepStatus string

const (
	StepStatusPending    ProcessStepStatus = "pending"
	StepStatusInProgress ProcessStepStatus = "in-progress"
	StepStatusCompleted  ProcessStepStatus = "completed"
)

// WorkOrder: a production job for one client. Drafts have no inventory
// effect; issuing deducts materials, archiving credits them back.
type WorkOrder struct {
	ID               uint   `gorm:"primaryKey"`
	OrderNumber      string `gorm:"size:30;not null;uniqueIndex"` // WOyymmdd-NNNNNN
	ClientID         uint   `gorm:"index;not null"`
	Client           Client
	Status           WorkOrderStatus `gorm:"size:20;not null;default:draft"`
	Notes            string          `gorm:"size:1000"`
	PurchaseOrder    string          `gorm:"size:100"` // client's PO reference, optional
	QuoteID          *uint           `gorm:"index"`    // provenance if converted from a quote
	QuoteNumber      string          `gorm:"size:30"`
	CompletedAt      *time.Time
	CompletionReason string `gorm:"size:255"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Items []WorkOrderItem `gorm:"foreignKey:WorkOrderID;constraint:OnDelete:CASCADE"`
}

// WorkOrderItem: one line of an order. Either a product line (ProductID set,
// dimensions required) or a service line (IsService + ServiceID).
type WorkOrderItem struct {
	ID          uint  `gorm:"primaryKey"`
	WorkOrderID uint  `gorm:"index;not null"`
	ProductID   *uint `gorm:"index"`
	IsService   bool  `gorm:"default:false"`
	ServiceID   *uint
	ProductName string  `gorm:"size:100"` // denormalized display name
	Quantity    int     `gorm:"not null"` // piece count
	Width       float64 // mm
	Height      float64 // mm
	Area        float64 // m2, always recomputed as (Width/1000)*(Height/1000)
	Notes       string  `gorm:"size:500"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Materials []ItemMaterial `gorm:"foreignKey:WorkOrderItemID;constraint:OnDelete:CASCADE"`
}

// ItemMaterial: per-line copy of a product material, taken at the moment the
// product was put on the order. Carries its own process steps.
type ItemMaterial struct {
	ID                 uint    `gorm:"primaryKey"`
	WorkOrderItemID    uint    `gorm:"index;not null"`
	InventoryItemID    uint    `gorm:"index;not null"`
	Name               string  `gorm:"size:100"`
	Quantity           float64 `gorm:"not null"` // consumption per m2 of the product
	Unit               string  `gorm:"size:20"`
	ShowOnDeliveryNote bool    `gorm:"default:true"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	ProcessSteps []ItemProcessStep `gorm:"foreignKey:ItemMaterialID;constraint:OnDelete:CASCADE"`
}

// ItemProcessStep: a production operation on one material instance, tracked
// to completion. IsFixed steps were copied from a mandatory product process
// and cannot be removed by the order editor.
type ItemProcessStep struct {
	ID             uint              `gorm:"primaryKey"`
	ItemMaterialID uint              `gorm:"index;not null"`
	ProcessID      uint              `gorm:"index;not null"`
	Name           string            `gorm:"size:100"`
	Status         ProcessStepStatus `gorm:"size:20;not null;default:pending"`
	IsFixed        bool              `gorm:"default:false"`
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
