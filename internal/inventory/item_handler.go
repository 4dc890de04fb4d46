package inventory

import (
	"fmt"

	"glasswork-backend/internal/audit"
	"glasswork-backend/internal/auth"
	"glasswork-backend/internal/database"
	"glasswork-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type InventoryItemRequest struct {
	Name           string   `json:"name"`
	Code           string   `json:"code"`
	Unit           string   `json:"unit"`
	Quantity       *float64 `json:"quantity"` // only honored on create, adjustments go through the ledger
	Type           string   `json:"type"`
	GlassThickness *float64 `json:"glass_thickness"`
}

type InventoryItemResponse struct {
	ID             uint     `json:"id"`
	Name           string   `json:"name"`
	Code           string   `json:"code"`
	Unit           string   `json:"unit"`
	Quantity       float64  `json:"quantity"`
	Type           string   `json:"type"`
	GlassThickness *float64 `json:"glass_thickness"`
	CreatedAt      string   `json:"created_at"`
}

func toItemResponse(item models.InventoryItem) InventoryItemResponse {
	return InventoryItemResponse{
		ID:             item.ID,
		Name:           item.Name,
		Code:           item.Code,
		Unit:           item.Unit,
		Quantity:       item.Quantity,
		Type:           item.Type,
		GlassThickness: item.GlassThickness,
		CreatedAt:      item.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/inventory-items
func CreateInventoryItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body InventoryItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name == "" || body.Unit == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name and unit are required")
		}
		if body.Type != "" && body.Type != "glass" {
			return fiber.NewError(fiber.StatusBadRequest, "Type must be empty or 'glass'")
		}

		item := models.InventoryItem{
			Name:           body.Name,
			Code:           body.Code,
			Unit:           body.Unit,
			Type:           body.Type,
			GlassThickness: body.GlassThickness,
		}
		if body.Quantity != nil {
			if *body.Quantity < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Opening quantity cannot be negative")
			}
			item.Quantity = *body.Quantity
		}

		if err := database.DB.Create(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create inventory item")
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "inventory_item",
				EntityID:    item.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Inventory item '%s' created (%.3f %s)", item.Name, item.Quantity, item.Unit),
				After:       item,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(toItemResponse(item))
	}
}

// GET /api/inventory-items
func ListInventoryItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var items []models.InventoryItem
		if err := database.DB.Order("name ASC").Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list inventory items")
		}

		resp := make([]InventoryItemResponse, 0, len(items))
		for _, item := range items {
			resp = append(resp, toItemResponse(item))
		}
		return c.JSON(resp)
	}
}

// GET /api/inventory-items/:id
func GetInventoryItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		item, err := loadItem(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(toItemResponse(*item))
	}
}

// PUT /api/inventory-items/:id
// Descriptive fields only. Quantity never changes here - that would bypass
// the stock ledger.
func UpdateInventoryItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		item, err := loadItem(c.Params("id"))
		if err != nil {
			return err
		}

		var body InventoryItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name == "" || body.Unit == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name and unit are required")
		}
		if body.Type != "" && body.Type != "glass" {
			return fiber.NewError(fiber.StatusBadRequest, "Type must be empty or 'glass'")
		}

		before := *item

		if err := database.DB.Model(&models.InventoryItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
			"name":            body.Name,
			"code":            body.Code,
			"unit":            body.Unit,
			"type":            body.Type,
			"glass_thickness": body.GlassThickness,
		}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update inventory item")
		}

		item.Name = body.Name
		item.Code = body.Code
		item.Unit = body.Unit
		item.Type = body.Type
		item.GlassThickness = body.GlassThickness

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "inventory_item",
				EntityID:    item.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Inventory item '%s' updated", item.Name),
				Before:      before,
				After:       item,
			})
		}

		return c.JSON(toItemResponse(*item))
	}
}

// DELETE /api/inventory-items/:id
// Rejected while any product material still references the item.
func DeleteInventoryItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		item, err := loadItem(c.Params("id"))
		if err != nil {
			return err
		}

		var refCount int64
		database.DB.Model(&models.ProductMaterial{}).
			Where("inventory_item_id = ?", item.ID).
			Count(&refCount)
		if refCount > 0 {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Inventory item is used by %d product material(s)", refCount))
		}

		if err := database.DB.Delete(&models.InventoryItem{}, item.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete inventory item")
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "inventory_item",
				EntityID:    item.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Inventory item '%s' deleted", item.Name),
				Before:      item,
			})
		}

		return c.JSON(fiber.Map{"message": "Inventory item deleted"})
	}
}

func loadItem(idParam string) (*models.InventoryItem, error) {
	var itemID uint
	if _, err := fmt.Sscan(idParam, &itemID); err != nil || itemID == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid inventory item ID")
	}

	var item models.InventoryItem
	if err := database.DB.First(&item, "id = ?", itemID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Inventory item not found")
	}
	return &item, nil
}
