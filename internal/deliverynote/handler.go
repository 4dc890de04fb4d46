package deliverynote

import (
	"fmt"
	"time"

	"glasswork-backend/internal/audit"
	"glasswork-backend/internal/auth"
	"glasswork-backend/internal/database"
	"glasswork-backend/internal/models"
	"glasswork-backend/internal/realtime"

	"github.com/gofiber/fiber/v2"
)

type GenerateRequest struct {
	// Explicit user confirmation when some process steps are incomplete
	ConfirmIncomplete bool   `json:"confirm_incomplete"`
	Notes             string `json:"notes"`
}

type GenerateResponse struct {
	Generated    bool                  `json:"generated"`
	Analysis     ProcessAnalysis       `json:"analysis"`
	DeliveryNote *DeliveryNoteResponse `json:"delivery_note,omitempty"`
}

type DeliveryNoteItemResponse struct {
	ID          uint    `json:"id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Area        float64 `json:"area"`
	Materials   string  `json:"materials"`
	Notes       string  `json:"notes"`
}

type DeliveryNoteResponse struct {
	ID             uint                       `json:"id"`
	DeliveryNumber string                     `json:"delivery_number"`
	WorkOrderID    uint                       `json:"work_order_id"`
	ClientID       uint                       `json:"client_id"`
	ClientName     string                     `json:"client_name"`
	Status         models.DeliveryNoteStatus  `json:"status"`
	Notes          string                     `json:"notes"`
	CreatedAt      string                     `json:"created_at"`
	Items          []DeliveryNoteItemResponse `json:"items"`
}

func toDeliveryNoteResponse(note models.DeliveryNote) DeliveryNoteResponse {
	resp := DeliveryNoteResponse{
		ID:             note.ID,
		DeliveryNumber: note.DeliveryNumber,
		WorkOrderID:    note.WorkOrderID,
		ClientID:       note.ClientID,
		ClientName:     note.Client.Name,
		Status:         note.Status,
		Notes:          note.Notes,
		CreatedAt:      note.CreatedAt.Format("2006-01-02 15:04:05"),
		Items:          make([]DeliveryNoteItemResponse, 0, len(note.Items)),
	}
	for _, item := range note.Items {
		resp.Items = append(resp.Items, DeliveryNoteItemResponse{
			ID:          item.ID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Width:       item.Width,
			Height:      item.Height,
			Area:        item.Area,
			Materials:   item.Materials,
			Notes:       item.Notes,
		})
	}
	return resp
}

// GET /api/work-orders/:id/delivery-note/preview
// Classifies every process step as complete/incomplete without writing.
func PreviewHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, err := loadActiveOrder(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(AnalyzeProcessCompletion(*order))
	}
}

// POST /api/work-orders/:id/delivery-note
// Generates the shipping document. Business rule: generating a delivery
// note always finalizes the order - every process step is forced to
// completed and the order becomes completed, regardless of actual
// production state. With incomplete steps the caller must confirm first;
// without confirmation the analysis is returned and nothing is written.
func GenerateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, err := loadActiveOrder(c.Params("id"))
		if err != nil {
			return err
		}

		var body GenerateRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		analysis := AnalyzeProcessCompletion(*order)

		if analysis.TotalIncomplete > 0 && !body.ConfirmIncomplete {
			return c.JSON(GenerateResponse{
				Generated: false,
				Analysis:  analysis,
			})
		}

		now := time.Now()
		note := BuildDeliveryNote(*order, NewDeliveryNumber(now), body.Notes)

		previousStatus := order.Status

		tx := database.DB.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		result := tx.Model(&models.WorkOrder{}).
			Where("id = ? AND status = ?", order.ID, previousStatus).
			Updates(map[string]interface{}{
				"status":            models.WorkOrderStatusCompleted,
				"completed_at":      now,
				"completion_reason": fmt.Sprintf("Delivery note %s generated", note.DeliveryNumber),
			})
		if result.Error != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not complete work order")
		}
		if result.RowsAffected == 0 {
			tx.Rollback()
			return fiber.NewError(fiber.StatusConflict, "Work order status changed concurrently, reload and retry")
		}

		if err := tx.Create(&note).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create delivery note")
		}

		// Force every step to completed; stamp completed_at only on steps
		// that were not already complete.
		for _, item := range order.Items {
			for _, material := range item.Materials {
				if err := tx.Model(&models.ItemProcessStep{}).
					Where("item_material_id = ? AND status <> ?", material.ID, models.StepStatusCompleted).
					Updates(map[string]interface{}{
						"status":       models.StepStatusCompleted,
						"completed_at": now,
					}).Error; err != nil {
					tx.Rollback()
					return fiber.NewError(fiber.StatusInternalServerError, "Could not complete process steps")
				}
			}
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not generate delivery note")
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "delivery_note",
				EntityID:    note.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Delivery note %s generated, work order %s completed", note.DeliveryNumber, order.OrderNumber),
				After:       note,
			})
		}

		realtime.BroadcastChange("delivery_note", "create", note.ID)
		realtime.BroadcastChange("work_order", "update", order.ID)

		note.Client = order.Client
		noteResp := toDeliveryNoteResponse(note)
		return c.Status(fiber.StatusCreated).JSON(GenerateResponse{
			Generated:    true,
			Analysis:     analysis,
			DeliveryNote: &noteResp,
		})
	}
}

// GET /api/delivery-notes?status=generated&client_id=1
func ListDeliveryNotesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.
			Preload("Client").
			Preload("Items").
			Model(&models.DeliveryNote{})

		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}
		if clientIDStr := c.Query("client_id"); clientIDStr != "" {
			var cid uint
			if _, err := fmt.Sscan(clientIDStr, &cid); err == nil && cid > 0 {
				dbq = dbq.Where("client_id = ?", cid)
			}
		}

		var notes []models.DeliveryNote
		if err := dbq.Order("created_at DESC").Find(&notes).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list delivery notes")
		}

		resp := make([]DeliveryNoteResponse, 0, len(notes))
		for _, note := range notes {
			resp = append(resp, toDeliveryNoteResponse(note))
		}
		return c.JSON(resp)
	}
}

// GET /api/delivery-notes/:id
func GetDeliveryNoteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var noteID uint
		if _, err := fmt.Sscan(c.Params("id"), &noteID); err != nil || noteID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid delivery note ID")
		}

		var note models.DeliveryNote
		if err := database.DB.
			Preload("Client").
			Preload("Items").
			First(&note, "id = ?", noteID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Delivery note not found")
		}

		return c.JSON(toDeliveryNoteResponse(note))
	}
}

// loadActiveOrder fetches an order that is in production (issued, not yet
// completed/archived).
func loadActiveOrder(idParam string) (*models.WorkOrder, error) {
	var orderID uint
	if _, err := fmt.Sscan(idParam, &orderID); err != nil || orderID == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid work order ID")
	}

	var order models.WorkOrder
	if err := database.DB.
		Preload("Client").
		Preload("Items.Materials.ProcessSteps").
		First(&order, "id = ?", orderID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Work order not found")
	}

	if order.Status != models.WorkOrderStatusPending && order.Status != models.WorkOrderStatusInProgress {
		return nil, fiber.NewError(fiber.StatusConflict, "Delivery notes can only be generated for active work orders")
	}

	return &order, nil
}
