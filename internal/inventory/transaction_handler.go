package inventory

import (
	"fmt"

	"glasswork-backend/internal/audit"
	"glasswork-backend/internal/auth"
	"glasswork-backend/internal/database"
	"glasswork-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdjustStockRequest struct {
	Type     models.StockTransactionType `json:"type"` // in / out / adjust
	Quantity float64                     `json:"quantity"`
	Notes    string                      `json:"notes"`
}

type StockTransactionResponse struct {
	ID               uint                        `json:"id"`
	Reference        string                      `json:"reference"`
	InventoryItemID  uint                        `json:"inventory_item_id"`
	ItemName         string                      `json:"item_name"`
	Unit             string                      `json:"unit"`
	WorkOrderID      *uint                       `json:"work_order_id"`
	Type             models.StockTransactionType `json:"type"`
	Quantity         float64                     `json:"quantity"`
	PreviousQuantity float64                     `json:"previous_quantity"`
	NewQuantity      float64                     `json:"new_quantity"`
	Notes            string                      `json:"notes"`
	CreatedAt        string                      `json:"created_at"`
}

func toTransactionResponse(tx models.StockTransaction) StockTransactionResponse {
	return StockTransactionResponse{
		ID:               tx.ID,
		Reference:        tx.Reference,
		InventoryItemID:  tx.InventoryItemID,
		ItemName:         tx.InventoryItem.Name,
		Unit:             tx.InventoryItem.Unit,
		WorkOrderID:      tx.WorkOrderID,
		Type:             tx.Type,
		Quantity:         tx.Quantity,
		PreviousQuantity: tx.PreviousQuantity,
		NewQuantity:      tx.NewQuantity,
		Notes:            tx.Notes,
		CreatedAt:        tx.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/inventory-items/:id/adjust
// Manual stock movement (receipt, correction, manual write-off). The
// quantity update and the ledger entry are one database transaction; a bare
// quantity write without a ledger row does not exist in this system.
func AdjustStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		item, err := loadItem(c.Params("id"))
		if err != nil {
			return err
		}

		var body AdjustStockRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Quantity must be positive")
		}
		if body.Notes == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Notes are required for manual stock movements")
		}

		var delta float64
		switch body.Type {
		case models.StockTransactionIn:
			delta = body.Quantity
		case models.StockTransactionOut, models.StockTransactionAdjust:
			delta = -body.Quantity
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Type must be 'in', 'out' or 'adjust'")
		}

		entry := models.StockTransaction{
			Reference:        uuid.NewString(),
			InventoryItemID:  item.ID,
			Type:             body.Type,
			Quantity:         body.Quantity,
			PreviousQuantity: item.Quantity,
			NewQuantity:      item.Quantity + delta,
			Notes:            body.Notes,
		}

		tx := database.DB.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		query := tx.Model(&models.InventoryItem{}).Where("id = ?", item.ID)
		if delta < 0 {
			// No over-draw through manual movements either
			query = query.Where("quantity >= ?", body.Quantity)
		}
		result := query.Update("quantity", gorm.Expr("quantity + ?", delta))
		if result.Error != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not adjust stock")
		}
		if result.RowsAffected == 0 {
			tx.Rollback()
			return fiber.NewError(fiber.StatusConflict, "Not enough stock for this movement")
		}

		if err := tx.Create(&entry).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not write stock transaction")
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not adjust stock")
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "stock_transaction",
				EntityID:    entry.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Manual %s: %s %.3f %s", body.Type, item.Name, body.Quantity, item.Unit),
				After:       entry,
			})
		}

		entry.InventoryItem = *item
		return c.Status(fiber.StatusCreated).JSON(toTransactionResponse(entry))
	}
}

// GET /api/stock-transactions?inventory_item_id=1&work_order_id=2&type=out
func ListStockTransactionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.
			Preload("InventoryItem").
			Model(&models.StockTransaction{})

		if itemIDStr := c.Query("inventory_item_id"); itemIDStr != "" {
			var iid uint
			if _, err := fmt.Sscan(itemIDStr, &iid); err == nil && iid > 0 {
				dbq = dbq.Where("inventory_item_id = ?", iid)
			}
		}
		if orderIDStr := c.Query("work_order_id"); orderIDStr != "" {
			var oid uint
			if _, err := fmt.Sscan(orderIDStr, &oid); err == nil && oid > 0 {
				dbq = dbq.Where("work_order_id = ?", oid)
			}
		}
		if txType := c.Query("type"); txType != "" {
			dbq = dbq.Where("type = ?", txType)
		}

		var transactions []models.StockTransaction
		if err := dbq.Order("created_at DESC").Find(&transactions).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list stock transactions")
		}

		resp := make([]StockTransactionResponse, 0, len(transactions))
		for _, tx := range transactions {
			resp = append(resp, toTransactionResponse(tx))
		}
		return c.JSON(resp)
	}
}
