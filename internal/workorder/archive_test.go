package workorder

import (
	"testing"

	"glasswork-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareArchiveRestoresIssuedStock(t *testing.T) {
	products := []models.Product{glassProduct(1, 10, 0.5)}
	inventory := []models.InventoryItem{
		{ID: 10, Name: "Float glass 6mm", Unit: "m2", Quantity: 100},
	}
	order := draftOrder()

	issued := PrepareIssue(order, products, inventory)
	require.True(t, issued.Sufficient)

	// Round trip: archive the issued order against the post-issue snapshot
	res, err := PrepareArchive(issued.UpdatedOrder, issued.NewTransactions, issued.UpdatedInventory)
	require.NoError(t, err)

	assert.Equal(t, models.WorkOrderStatusArchived, res.UpdatedOrder.Status)
	require.Len(t, res.RestoredInventory, 1)
	assert.InDelta(t, 100.0, res.RestoredInventory[0].Quantity, 1e-9)

	require.Len(t, res.ReturnTransactions, 1)
	ret := res.ReturnTransactions[0]
	assert.Equal(t, models.StockTransactionReturn, ret.Type)
	assert.InDelta(t, 0.5, ret.Quantity, 1e-9)
	assert.InDelta(t, 99.5, ret.PreviousQuantity, 1e-9)
	assert.InDelta(t, 100.0, ret.NewQuantity, 1e-9)
	require.NotNil(t, ret.WorkOrderID)
	assert.Equal(t, order.ID, *ret.WorkOrderID)
	assert.Contains(t, ret.Notes, "work order WO260828-000123 archived")
}

func TestPrepareArchiveDraftIsPureStatusFlip(t *testing.T) {
	inventory := []models.InventoryItem{
		{ID: 10, Name: "Float glass 6mm", Unit: "m2", Quantity: 100},
	}
	order := draftOrder()

	res, err := PrepareArchive(order, nil, inventory)
	require.NoError(t, err)

	assert.Equal(t, models.WorkOrderStatusArchived, res.UpdatedOrder.Status)
	assert.Empty(t, res.ReturnTransactions)
	assert.Equal(t, inventory, res.RestoredInventory)
}

func TestPrepareArchiveRejectsDoubleArchive(t *testing.T) {
	order := draftOrder()
	order.Status = models.WorkOrderStatusArchived

	_, err := PrepareArchive(order, nil, nil)
	assert.ErrorIs(t, err, ErrAlreadyArchived)
}

func TestPrepareArchiveIgnoresForeignAndNonOutTransactions(t *testing.T) {
	order := draftOrder()
	order.Status = models.WorkOrderStatusPending

	otherOrder := uint(99)
	transactions := []models.StockTransaction{
		{InventoryItemID: 10, WorkOrderID: &order.ID, Type: models.StockTransactionOut, Quantity: 0.5},
		{InventoryItemID: 10, WorkOrderID: &otherOrder, Type: models.StockTransactionOut, Quantity: 3.0},
		{InventoryItemID: 10, WorkOrderID: &order.ID, Type: models.StockTransactionReturn, Quantity: 1.0},
		{InventoryItemID: 10, WorkOrderID: nil, Type: models.StockTransactionOut, Quantity: 2.0},
	}
	inventory := []models.InventoryItem{
		{ID: 10, Name: "Float glass 6mm", Unit: "m2", Quantity: 99.5},
	}

	res, err := PrepareArchive(order, transactions, inventory)
	require.NoError(t, err)

	// Only the order's own "out" entry counts toward the credit
	require.Len(t, res.ReturnTransactions, 1)
	assert.InDelta(t, 0.5, res.ReturnTransactions[0].Quantity, 1e-9)
	assert.InDelta(t, 100.0, res.RestoredInventory[0].Quantity, 1e-9)
}

func TestPrepareArchiveCancelledOrderStillCredits(t *testing.T) {
	order := draftOrder()
	order.Status = models.WorkOrderStatusCancelled

	transactions := []models.StockTransaction{
		{InventoryItemID: 10, WorkOrderID: &order.ID, Type: models.StockTransactionOut, Quantity: 0.5},
	}
	inventory := []models.InventoryItem{
		{ID: 10, Name: "Float glass 6mm", Unit: "m2", Quantity: 99.5},
	}

	res, err := PrepareArchive(order, transactions, inventory)
	require.NoError(t, err)
	require.Len(t, res.ReturnTransactions, 1)
	assert.InDelta(t, 100.0, res.RestoredInventory[0].Quantity, 1e-9)
}
