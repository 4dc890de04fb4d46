package workorder

import (
	"strings"
	"testing"
	"time"

	"glasswork-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftOrder() models.WorkOrder {
	return models.WorkOrder{
		ID:          42,
		OrderNumber: "WO260828-000123",
		Status:      models.WorkOrderStatusDraft,
		Items: []models.WorkOrderItem{
			{ProductID: uintPtr(1), ProductName: "Tempered glass", Quantity: 2, Width: 500, Height: 1000, Area: 0.5},
		},
	}
}

func TestPrepareIssueSufficient(t *testing.T) {
	products := []models.Product{glassProduct(1, 10, 0.5)}
	inventory := []models.InventoryItem{
		{ID: 10, Name: "Float glass 6mm", Unit: "m2", Quantity: 100},
	}

	res := PrepareIssue(draftOrder(), products, inventory)

	require.True(t, res.Sufficient)
	assert.Equal(t, models.WorkOrderStatusPending, res.UpdatedOrder.Status)

	require.Len(t, res.UpdatedInventory, 1)
	assert.InDelta(t, 99.5, res.UpdatedInventory[0].Quantity, 1e-9)

	require.Len(t, res.NewTransactions, 1)
	tx := res.NewTransactions[0]
	assert.Equal(t, models.StockTransactionOut, tx.Type)
	assert.Equal(t, uint(10), tx.InventoryItemID)
	require.NotNil(t, tx.WorkOrderID)
	assert.Equal(t, uint(42), *tx.WorkOrderID)
	assert.InDelta(t, 0.5, tx.Quantity, 1e-9)
	assert.InDelta(t, 100.0, tx.PreviousQuantity, 1e-9)
	assert.InDelta(t, 99.5, tx.NewQuantity, 1e-9)
	assert.NotEmpty(t, tx.Reference)
	assert.Contains(t, tx.Notes, "Issued for work order WO260828-000123")
	assert.Contains(t, tx.Notes, "Tempered glass")

	assert.Contains(t, res.MaterialSummary, "Float glass 6mm: 0.500 m2 (100.000 -> 99.500)")
}

func TestPrepareIssueInsufficientChangesNothing(t *testing.T) {
	products := []models.Product{glassProduct(1, 10, 0.5)}
	inventory := []models.InventoryItem{
		{ID: 10, Name: "Float glass 6mm", Unit: "m2", Quantity: 0.3},
	}
	order := draftOrder()

	res := PrepareIssue(order, products, inventory)

	require.False(t, res.Sufficient)
	assert.Equal(t, models.WorkOrderStatusDraft, res.UpdatedOrder.Status)
	assert.Empty(t, res.NewTransactions)
	assert.Equal(t, inventory, res.UpdatedInventory)

	require.Len(t, res.Requirements, 1)
	assert.False(t, res.Requirements[0].Sufficient)
	assert.InDelta(t, 0.5, res.Requirements[0].Required, 1e-9)
	assert.InDelta(t, 0.3, res.Requirements[0].Available, 1e-9)
}

func TestPrepareIssueDoesNotMutateInputs(t *testing.T) {
	products := []models.Product{glassProduct(1, 10, 0.5)}
	inventory := []models.InventoryItem{
		{ID: 10, Name: "Float glass 6mm", Unit: "m2", Quantity: 100},
	}
	order := draftOrder()

	_ = PrepareIssue(order, products, inventory)

	assert.Equal(t, models.WorkOrderStatusDraft, order.Status)
	assert.InDelta(t, 100.0, inventory[0].Quantity, 1e-9)
}

func TestPrepareIssueExactStockIsSufficient(t *testing.T) {
	products := []models.Product{glassProduct(1, 10, 0.5)}
	inventory := []models.InventoryItem{
		{ID: 10, Name: "Float glass 6mm", Unit: "m2", Quantity: 0.5},
	}

	res := PrepareIssue(draftOrder(), products, inventory)

	require.True(t, res.Sufficient)
	assert.InDelta(t, 0.0, res.UpdatedInventory[0].Quantity, 1e-9)
}

func TestPrepareIssueOneTransactionPerInventoryItem(t *testing.T) {
	products := []models.Product{
		{
			ID:   1,
			Name: "Insulated unit",
			Materials: []models.ProductMaterial{
				{InventoryItemID: 10, InventoryItem: models.InventoryItem{ID: 10, Name: "Glass"}, Quantity: 2, Unit: "m2"},
				{InventoryItemID: 20, InventoryItem: models.InventoryItem{ID: 20, Name: "Sealant"}, Quantity: 0.1, Unit: "kg"},
			},
		},
	}
	inventory := []models.InventoryItem{
		{ID: 10, Name: "Glass", Unit: "m2", Quantity: 50},
		{ID: 20, Name: "Sealant", Unit: "kg", Quantity: 10},
	}
	order := models.WorkOrder{
		ID:          7,
		OrderNumber: "WO260828-000007",
		Status:      models.WorkOrderStatusDraft,
		Items: []models.WorkOrderItem{
			{ProductID: uintPtr(1), Quantity: 1, Area: 1.0},
			{ProductID: uintPtr(1), Quantity: 2, Area: 0.5},
		},
	}

	res := PrepareIssue(order, products, inventory)

	require.True(t, res.Sufficient)
	// Two lines, but demand is aggregated per inventory item
	require.Len(t, res.NewTransactions, 2)
	assert.InDelta(t, 4.0, res.NewTransactions[0].Quantity, 1e-9)
	assert.InDelta(t, 0.2, res.NewTransactions[1].Quantity, 1e-9)
}

func TestNewOrderNumberFormat(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	number := NewOrderNumber(now)

	assert.True(t, strings.HasPrefix(number, "WO260828-"))
	assert.Len(t, number, len("WO260828-")+6)
}
