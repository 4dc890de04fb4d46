package workorder

import (
	"errors"
	"fmt"

	"glasswork-backend/internal/models"

	"github.com/google/uuid"
)

var ErrAlreadyArchived = errors.New("work order is already archived")

// ArchiveResult: the computed effect of archiving a work order. For drafts
// nothing was ever deducted, so RestoredInventory equals the input and no
// return transactions are produced.
type ArchiveResult struct {
	RestoredInventory  []models.InventoryItem
	ReturnTransactions []models.StockTransaction
	UpdatedOrder       models.WorkOrder
}

// PrepareArchive computes the reversal of an issued work order: consumed
// quantities (summed from the order's "out" ledger entries) are credited
// back onto the inventory snapshot and matching "return" entries are
// generated. The caller also cascades the archived status to the order's
// delivery note and source quote, and must apply everything as one
// transaction.
//
// Archiving an already-archived order is rejected so the credit can never
// be applied twice.
func PrepareArchive(order models.WorkOrder, transactions []models.StockTransaction, inventory []models.InventoryItem) (ArchiveResult, error) {
	if order.Status == models.WorkOrderStatusArchived {
		return ArchiveResult{}, ErrAlreadyArchived
	}

	updatedOrder := order
	updatedOrder.Status = models.WorkOrderStatusArchived

	// Drafts never touched inventory, a pure status flip with no credit
	if order.Status == models.WorkOrderStatusDraft {
		return ArchiveResult{
			RestoredInventory:  inventory,
			ReturnTransactions: []models.StockTransaction{},
			UpdatedOrder:       updatedOrder,
		}, nil
	}

	restoreByItem := make(map[uint]float64)
	var seen []uint
	for _, tx := range transactions {
		if tx.Type != models.StockTransactionOut {
			continue
		}
		if tx.WorkOrderID == nil || *tx.WorkOrderID != order.ID {
			continue
		}
		if _, ok := restoreByItem[tx.InventoryItemID]; !ok {
			seen = append(seen, tx.InventoryItemID)
		}
		restoreByItem[tx.InventoryItemID] += tx.Quantity
	}

	inventoryByID := make(map[uint]models.InventoryItem, len(inventory))
	for _, inv := range inventory {
		inventoryByID[inv.ID] = inv
	}

	restored := make([]models.InventoryItem, len(inventory))
	copy(restored, inventory)
	for i := range restored {
		if credit, ok := restoreByItem[restored[i].ID]; ok {
			restored[i].Quantity += credit
		}
	}

	orderID := order.ID
	returns := make([]models.StockTransaction, 0, len(seen))
	for _, itemID := range seen {
		credit := restoreByItem[itemID]
		previous := inventoryByID[itemID].Quantity

		returns = append(returns, models.StockTransaction{
			Reference:        uuid.NewString(),
			InventoryItemID:  itemID,
			WorkOrderID:      &orderID,
			Type:             models.StockTransactionReturn,
			Quantity:         credit,
			PreviousQuantity: previous,
			NewQuantity:      previous + credit,
			Notes:            fmt.Sprintf("Returned to stock, work order %s archived", order.OrderNumber),
		})
	}

	return ArchiveResult{
		RestoredInventory:  restored,
		ReturnTransactions: returns,
		UpdatedOrder:       updatedOrder,
	}, nil
}
