package quote

import (
	"fmt"
	"time"

	"glasswork-backend/internal/audit"
	"glasswork-backend/internal/auth"
	"glasswork-backend/internal/database"
	"glasswork-backend/internal/models"
	"glasswork-backend/internal/realtime"
	"glasswork-backend/internal/workorder"

	"github.com/gofiber/fiber/v2"
)

type ConvertResponse struct {
	Quote     QuoteResponse `json:"quote"`
	WorkOrder fiber.Map     `json:"work_order"`
}

// POST /api/quotes/:id/convert
// Turns a sent or accepted quote into a draft work order. Lines are
// materialized through the product catalog, so the order picks up the
// current recipe (materials and default process steps), not a snapshot
// from quoting time. The quote moves to accepted.
func ConvertQuoteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		quote, err := loadQuote(c.Params("id"))
		if err != nil {
			return err
		}

		if quote.Status != models.QuoteStatusSent && quote.Status != models.QuoteStatusAccepted {
			return fiber.NewError(fiber.StatusConflict, "Only sent or accepted quotes can be converted")
		}

		var existing int64
		database.DB.Model(&models.WorkOrder{}).Where("quote_id = ?", quote.ID).Count(&existing)
		if existing > 0 {
			return fiber.NewError(fiber.StatusConflict, "Quote was already converted to a work order")
		}

		order := models.WorkOrder{
			ClientID:    quote.ClientID,
			Status:      models.WorkOrderStatusDraft,
			Notes:       quote.Notes,
			QuoteID:     &quote.ID,
			QuoteNumber: quote.QuoteNumber,
		}

		for _, line := range quote.Items {
			item, err := workorder.BuildItem(workorder.WorkOrderItemRequest{
				ProductID:   line.ProductID,
				IsService:   line.IsService,
				ServiceID:   line.ServiceID,
				ProductName: line.ProductName,
				Quantity:    line.Quantity,
				Width:       line.Width,
				Height:      line.Height,
				Notes:       line.Notes,
			})
			if err != nil {
				return err
			}
			order.Items = append(order.Items, item)
		}

		// Random suffix can collide, re-roll until the number is free
		for attempt := 0; attempt < 5; attempt++ {
			order.OrderNumber = workorder.NewOrderNumber(time.Now())
			var count int64
			database.DB.Model(&models.WorkOrder{}).
				Where("order_number = ?", order.OrderNumber).
				Count(&count)
			if count == 0 {
				break
			}
		}

		previousStatus := quote.Status

		tx := database.DB.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		if err := tx.Create(&order).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create work order")
		}

		if previousStatus != models.QuoteStatusAccepted {
			result := tx.Model(&models.Quote{}).
				Where("id = ? AND status = ?", quote.ID, previousStatus).
				Update("status", models.QuoteStatusAccepted)
			if result.Error != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Could not accept quote")
			}
			if result.RowsAffected == 0 {
				tx.Rollback()
				return fiber.NewError(fiber.StatusConflict, "Quote status changed concurrently, reload and retry")
			}
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not convert quote")
		}

		quote.Status = models.QuoteStatusAccepted

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "quote",
				EntityID:    quote.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Quote %s converted to work order %s", quote.QuoteNumber, order.OrderNumber),
				After:       order,
			})
		}

		realtime.BroadcastChange("quote", "update", quote.ID)
		realtime.BroadcastChange("work_order", "create", order.ID)

		return c.Status(fiber.StatusCreated).JSON(ConvertResponse{
			Quote: toQuoteResponse(*quote),
			WorkOrder: fiber.Map{
				"id":           order.ID,
				"order_number": order.OrderNumber,
				"status":       order.Status,
				"quote_id":     quote.ID,
				"quote_number": quote.QuoteNumber,
			},
		})
	}
}
