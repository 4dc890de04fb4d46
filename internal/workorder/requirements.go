package workorder

import (
	"glasswork-backend/internal/models"
)

// MaterialRequirement: aggregate demand for one inventory item across all
// lines of an order, compared against current stock.
type MaterialRequirement struct {
	InventoryItemID uint    `json:"inventory_item_id"`
	Name            string  `json:"name"`
	Required        float64 `json:"required"`
	Available       float64 `json:"available"`
	Unit            string  `json:"unit"`
	Sufficient      bool    `json:"sufficient"`
}

// ComputeRequirements aggregates the raw-material demand of a set of order
// lines. For every product line with a resolvable product and a positive
// area, each product material contributes
//
//	material.Quantity * item.Quantity * item.Area
//
// to the running total of its inventory item. Service lines contribute only
// the materials copied onto the line itself (usually none). Lines with zero
// area or an unresolvable product are skipped.
//
// A material pointing at a missing inventory item is reported as "Unknown
// material" with zero availability, which fails the sufficiency check and
// blocks issuance instead of silently dropping the line.
func ComputeRequirements(items []models.WorkOrderItem, products []models.Product, inventory []models.InventoryItem) []MaterialRequirement {
	productByID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}
	inventoryByID := make(map[uint]models.InventoryItem, len(inventory))
	for _, inv := range inventory {
		inventoryByID[inv.ID] = inv
	}

	totals := make(map[uint]float64)
	var seen []uint // first-encounter order of inventory item ids

	add := func(inventoryItemID uint, qty float64) {
		if _, ok := totals[inventoryItemID]; !ok {
			seen = append(seen, inventoryItemID)
		}
		totals[inventoryItemID] += qty
	}

	for _, item := range items {
		if item.Quantity <= 0 || item.Area <= 0 {
			continue
		}

		if item.IsService {
			for _, m := range item.Materials {
				add(m.InventoryItemID, m.Quantity*float64(item.Quantity)*item.Area)
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
			add(m.InventoryItemID, m.Quantity*float64(item.Quantity)*item.Area)
		}
	}

	requirements := make([]MaterialRequirement, 0, len(seen))
	for _, id := range seen {
		required := totals[id]

		req := MaterialRequirement{
			InventoryItemID: id,
			Required:        required,
		}

		if inv, ok := inventoryByID[id]; ok {
			req.Name = inv.Name
			req.Available = inv.Quantity
			req.Unit = inv.Unit
		} else {
			// Stale reference, block issuance rather than ignore it
			req.Name = "Unknown material"
			req.Available = 0
		}

		req.Sufficient = req.Available >= req.Required
		requirements = append(requirements, req)
	}

	return requirements
}
