package workorder

import (
	"fmt"
	"strings"

	"glasswork-backend/internal/models"

	"github.com/google/uuid"
)

// IssueResult: everything the caller needs to commit an issuance, computed
// without side effects. The input order and inventory slices are never
// mutated; UpdatedInventory is a fresh copy.
type IssueResult struct {
	Sufficient       bool
	Requirements     []MaterialRequirement
	UpdatedInventory []models.InventoryItem
	NewTransactions  []models.StockTransaction
	UpdatedOrder     models.WorkOrder
	MaterialSummary  string
}

// PrepareIssue computes the full effect of issuing a draft work order:
// aggregate requirements, the inventory snapshot after deduction, one "out"
// ledger entry per consumed inventory item and the order with its status
// flipped to pending. The caller checks the draft precondition and performs
// the persistence as a single transaction.
//
// If stock is insufficient the result carries the per-material shortfall and
// leaves inventory, transactions and order status untouched; insufficiency
// is a value, not an error.
func PrepareIssue(order models.WorkOrder, products []models.Product, inventory []models.InventoryItem) IssueResult {
	requirements := ComputeRequirements(order.Items, products, inventory)

	sufficient := true
	for _, req := range requirements {
		if !req.Sufficient {
			sufficient = false
			break
		}
	}

	if !sufficient {
		return IssueResult{
			Sufficient:       false,
			Requirements:     requirements,
			UpdatedInventory: inventory,
			NewTransactions:  []models.StockTransaction{},
			UpdatedOrder:     order,
		}
	}

	requiredByItem := make(map[uint]float64, len(requirements))
	for _, req := range requirements {
		requiredByItem[req.InventoryItemID] = req.Required
	}

	updatedInventory := make([]models.InventoryItem, len(inventory))
	copy(updatedInventory, inventory)
	for i := range updatedInventory {
		if required, ok := requiredByItem[updatedInventory[i].ID]; ok {
			updatedInventory[i].Quantity -= required
		}
	}

	breakdown := consumptionBreakdown(order, products)

	transactions := make([]models.StockTransaction, 0, len(requirements))
	var summary strings.Builder
	for _, req := range requirements {
		notes := fmt.Sprintf("Issued for work order %s", order.OrderNumber)
		if lines, ok := breakdown[req.InventoryItemID]; ok {
			notes += "\n" + strings.Join(lines, "\n")
		}

		orderID := order.ID
		transactions = append(transactions, models.StockTransaction{
			Reference:        uuid.NewString(),
			InventoryItemID:  req.InventoryItemID,
			WorkOrderID:      &orderID,
			Type:             models.StockTransactionOut,
			Quantity:         req.Required,
			PreviousQuantity: req.Available,
			NewQuantity:      req.Available - req.Required,
			Notes:            notes,
		})

		fmt.Fprintf(&summary, "%s: %.3f %s (%.3f -> %.3f)\n",
			req.Name, req.Required, req.Unit, req.Available, req.Available-req.Required)
	}

	updatedOrder := order
	updatedOrder.Status = models.WorkOrderStatusPending

	return IssueResult{
		Sufficient:       true,
		Requirements:     requirements,
		UpdatedInventory: updatedInventory,
		NewTransactions:  transactions,
		UpdatedOrder:     updatedOrder,
		MaterialSummary:  strings.TrimRight(summary.String(), "\n"),
	}
}

// consumptionBreakdown builds the per-inventory-item audit lines that go
// into transaction notes: which line and which material consumed what.
func consumptionBreakdown(order models.WorkOrder, products []models.Product) map[uint][]string {
	productByID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	lines := make(map[uint][]string)
	appendLine := func(inventoryItemID uint, displayName, materialName, unit string, consumed float64, item models.WorkOrderItem) {
		lines[inventoryItemID] = append(lines[inventoryItemID],
			fmt.Sprintf("- %s / %s: %.3f %s (%d pcs @ %.0fx%.0f mm)",
				displayName, materialName, consumed, unit, item.Quantity, item.Width, item.Height))
	}

	for _, item := range order.Items {
		if item.Quantity <= 0 || item.Area <= 0 {
			continue
		}

		if item.IsService {
			for _, m := range item.Materials {
				consumed := m.Quantity * float64(item.Quantity) * item.Area
				appendLine(m.InventoryItemID, item.ProductName, m.Name, m.Unit, consumed, item)
			}
			continue
		}

		if item.ProductID == nil {
			continue
		}
		product, ok := productByID[*item.ProductID]
		if !ok {
			continue
		}

		for _, m := range product.Materials {
			consumed := m.Quantity * float64(item.Quantity) * item.Area
			appendLine(m.InventoryItemID, product.Name, m.InventoryItem.Name, m.Unit, consumed, item)
		}
	}

	return lines
}
