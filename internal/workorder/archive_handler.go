package workorder

import (
	"errors"
	"fmt"

	"glasswork-backend/internal/audit"
	"glasswork-backend/internal/auth"
	"glasswork-backend/internal/database"
	"glasswork-backend/internal/models"
	"glasswork-backend/internal/realtime"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ArchiveResponse struct {
	Order              WorkOrderResponse `json:"order"`
	RestoredMaterials  int               `json:"restored_materials"`
	DeliveryNoteStatus string            `json:"delivery_note_status,omitempty"`
	QuoteStatus        string            `json:"quote_status,omitempty"`
}

// POST /api/work-orders/:id/archive
// Reverses an issued order: credits consumed materials back (summed from
// the order's "out" ledger entries), appends "return" entries and cascades
// the archived status to the order, its delivery note and its source quote,
// all in one database transaction. Archiving a draft is a pure status flip;
// re-archiving is rejected.
func ArchiveWorkOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, err := loadOrder(c.Params("id"))
		if err != nil {
			return err
		}

		var transactions []models.StockTransaction
		if err := database.DB.
			Where("work_order_id = ? AND type = ?", order.ID, models.StockTransactionOut).
			Find(&transactions).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load stock transactions")
		}

		var inventory []models.InventoryItem
		if err := database.DB.Find(&inventory).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load inventory")
		}

		res, err := PrepareArchive(*order, transactions, inventory)
		if err != nil {
			if errors.Is(err, ErrAlreadyArchived) {
				return fiber.NewError(fiber.StatusConflict, "Work order is already archived")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not prepare archive")
		}

		previousStatus := order.Status

		tx := database.DB.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		// Status guard keeps the credit from ever being applied twice
		result := tx.Model(&models.WorkOrder{}).
			Where("id = ? AND status = ?", order.ID, previousStatus).
			Update("status", models.WorkOrderStatusArchived)
		if result.Error != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not archive work order")
		}
		if result.RowsAffected == 0 {
			tx.Rollback()
			return fiber.NewError(fiber.StatusConflict, "Work order status changed concurrently, reload and retry")
		}

		for _, ret := range res.ReturnTransactions {
			if err := tx.Model(&models.InventoryItem{}).
				Where("id = ?", ret.InventoryItemID).
				Update("quantity", gorm.Expr("quantity + ?", ret.Quantity)).Error; err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Could not restore stock")
			}
		}

		if len(res.ReturnTransactions) > 0 {
			if err := tx.Create(&res.ReturnTransactions).Error; err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Could not write stock transactions")
			}
		}

		// Cascade: delivery note of this order
		deliveryNoteStatus := ""
		deliveryResult := tx.Model(&models.DeliveryNote{}).
			Where("work_order_id = ? AND status <> ?", order.ID, models.DeliveryNoteStatusArchived).
			Update("status", models.DeliveryNoteStatusArchived)
		if deliveryResult.Error != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not archive delivery note")
		}
		if deliveryResult.RowsAffected > 0 {
			deliveryNoteStatus = string(models.DeliveryNoteStatusArchived)
		}

		// Cascade: source quote, when the order came from one
		quoteStatus := ""
		if order.QuoteID != nil {
			quoteResult := tx.Model(&models.Quote{}).
				Where("id = ? AND status <> ?", *order.QuoteID, models.QuoteStatusArchived).
				Update("status", models.QuoteStatusArchived)
			if quoteResult.Error != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Could not archive quote")
			}
			if quoteResult.RowsAffected > 0 {
				quoteStatus = string(models.QuoteStatusArchived)
			}
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not archive work order")
		}

		order.Status = models.WorkOrderStatusArchived

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "work_order",
				EntityID:    order.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Work order %s archived (%s), %d materials returned", order.OrderNumber, previousStatus, len(res.ReturnTransactions)),
				After:       order,
			})
		}

		realtime.BroadcastChange("work_order", "update", order.ID)

		return c.JSON(ArchiveResponse{
			Order:              toWorkOrderResponse(*order),
			RestoredMaterials:  len(res.ReturnTransactions),
			DeliveryNoteStatus: deliveryNoteStatus,
			QuoteStatus:        quoteStatus,
		})
	}
}
