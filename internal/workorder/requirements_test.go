package workorder

import (
	"testing"

	"glasswork-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }

func glassProduct(productID, inventoryItemID uint, consumption float64) models.Product {
	return models.Product{
		ID:   productID,
		Name: "Tempered glass",
		Materials: []models.ProductMaterial{
			{
				InventoryItemID: inventoryItemID,
				InventoryItem:   models.InventoryItem{ID: inventoryItemID, Name: "Float glass 6mm"},
				Quantity:        consumption,
				Unit:            "m2",
			},
		},
	}
}

func TestComputeRequirementsAggregatesPerInventoryItem(t *testing.T) {
	products := []models.Product{glassProduct(1, 10, 0.5)}
	inventory := []models.InventoryItem{
		{ID: 10, Name: "Float glass 6mm", Unit: "m2", Quantity: 100},
	}
	items := []models.WorkOrderItem{
		{ProductID: uintPtr(1), Quantity: 2, Width: 500, Height: 1000, Area: 0.5},
	}

	reqs := ComputeRequirements(items, products, inventory)
	require.Len(t, reqs, 1)

	// 0.5 consumption * 2 pcs * 0.5 m2
	assert.InDelta(t, 0.5, reqs[0].Required, 1e-9)
	assert.Equal(t, uint(10), reqs[0].InventoryItemID)
	assert.Equal(t, "Float glass 6mm", reqs[0].Name)
	assert.Equal(t, 100.0, reqs[0].Available)
	assert.True(t, reqs[0].Sufficient)
}

func TestComputeRequirementsSumsAcrossLines(t *testing.T) {
	products := []models.Product{glassProduct(1, 10, 1.0)}
	inventory := []models.InventoryItem{
		{ID: 10, Name: "Float glass 6mm", Unit: "m2", Quantity: 100},
	}
	items := []models.WorkOrderItem{
		{ProductID: uintPtr(1), Quantity: 1, Width: 1000, Height: 1000, Area: 1.0},
		{ProductID: uintPtr(1), Quantity: 3, Width: 500, Height: 500, Area: 0.25},
	}

	reqs := ComputeRequirements(items, products, inventory)
	require.Len(t, reqs, 1)
	assert.InDelta(t, 1.75, reqs[0].Required, 1e-9)
}

func TestComputeRequirementsEqualityIsSufficient(t *testing.T) {
	products := []models.Product{glassProduct(1, 10, 1.0)}
	inventory := []models.InventoryItem{
		{ID: 10, Name: "Float glass 6mm", Unit: "m2", Quantity: 2.0},
	}
	items := []models.WorkOrderItem{
		{ProductID: uintPtr(1), Quantity: 2, Width: 1000, Height: 1000, Area: 1.0},
	}

	reqs := ComputeRequirements(items, products, inventory)
	require.Len(t, reqs, 1)
	assert.InDelta(t, 2.0, reqs[0].Required, 1e-9)
	assert.True(t, reqs[0].Sufficient, "available == required must pass")
}

func TestComputeRequirementsMissingInventoryItem(t *testing.T) {
	products := []models.Product{glassProduct(1, 99, 1.0)}
	items := []models.WorkOrderItem{
		{ProductID: uintPtr(1), Quantity: 1, Width: 1000, Height: 1000, Area: 1.0},
	}

	reqs := ComputeRequirements(items, products, nil)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Unknown material", reqs[0].Name)
	assert.Equal(t, 0.0, reqs[0].Available)
	assert.False(t, reqs[0].Sufficient)
}

func TestComputeRequirementsSkipsZeroAreaAndUnknownProduct(t *testing.T) {
	products := []models.Product{glassProduct(1, 10, 1.0)}
	inventory := []models.InventoryItem{
		{ID: 10, Name: "Float glass 6mm", Unit: "m2", Quantity: 100},
	}
	items := []models.WorkOrderItem{
		{ProductID: uintPtr(1), Quantity: 1, Area: 0},   // zero area
		{ProductID: uintPtr(7), Quantity: 1, Area: 1.0}, // product not in catalog
		{ProductID: uintPtr(1), Quantity: 0, Area: 1.0}, // zero quantity
	}

	reqs := ComputeRequirements(items, products, inventory)
	assert.Empty(t, reqs)
}

func TestComputeRequirementsServiceLineUsesOwnMaterials(t *testing.T) {
	inventory := []models.InventoryItem{
		{ID: 20, Name: "Sealant", Unit: "kg", Quantity: 5},
	}
	items := []models.WorkOrderItem{
		{
			IsService: true,
			Quantity:  2,
			Area:      1.0,
			Materials: []models.ItemMaterial{
				{InventoryItemID: 20, Name: "Sealant", Quantity: 0.25, Unit: "kg"},
			},
		},
	}

	reqs := ComputeRequirements(items, nil, inventory)
	require.Len(t, reqs, 1)
	assert.InDelta(t, 0.5, reqs[0].Required, 1e-9)
	assert.True(t, reqs[0].Sufficient)
}

func TestComputeRequirementsDeterministicOrder(t *testing.T) {
	products := []models.Product{
		{
			ID:   1,
			Name: "Insulated unit",
			Materials: []models.ProductMaterial{
				{InventoryItemID: 30, Quantity: 1, Unit: "m2"},
				{InventoryItemID: 10, Quantity: 2, Unit: "m2"},
				{InventoryItemID: 20, Quantity: 0.1, Unit: "kg"},
			},
		},
	}
	inventory := []models.InventoryItem{
		{ID: 10, Name: "Glass", Unit: "m2", Quantity: 100},
		{ID: 20, Name: "Sealant", Unit: "kg", Quantity: 100},
		{ID: 30, Name: "Spacer", Unit: "m2", Quantity: 100},
	}
	items := []models.WorkOrderItem{
		{ProductID: uintPtr(1), Quantity: 1, Area: 1.0},
	}

	for run := 0; run < 20; run++ {
		reqs := ComputeRequirements(items, products, inventory)
		require.Len(t, reqs, 3)
		assert.Equal(t, uint(30), reqs[0].InventoryItemID)
		assert.Equal(t, uint(10), reqs[1].InventoryItemID)
		assert.Equal(t, uint(20), reqs[2].InventoryItemID)
	}
}
