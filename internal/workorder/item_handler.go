package workorder

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

type UpdateItemRequest struct {
	Quantity *int     `json:"quantity"`
	Width    *float64 `json:"width"`
	Height   *float64 `json:"height"`
	Notes    *string  `json:"notes"`
}

type AddProcessStepRequest struct {
	ProcessID uint `json:"process_id"`
}

type UpdateStepStatusRequest struct {
	Status models.ProcessStepStatus `json:"status"`
}

// POST /api/work-orders/:id/items (drafts only)
func AddItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, err := loadOrder(c.Params("id"))
		if err != nil {
			return err
		}
		if order.Status != models.WorkOrderStatusDraft {
			return fiber.NewError(fiber.StatusConflict, "Only draft work orders can be edited")
		}

		var body WorkOrderItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		item, err := BuildItem(body)
		if err != nil {
			return err
		}
		item.WorkOrderID = order.ID

		if err := database.DB.Create(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not add item")
		}

		writeItemAudit(c, order, fmt.Sprintf("Item '%s' added to work order %s", item.ProductName, order.OrderNumber))
		realtime.BroadcastChange("work_order", "update", order.ID)

		order, err = loadOrder(c.Params("id"))
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toWorkOrderResponse(*order))
	}
}

// PUT /api/work-orders/:id/items/:itemID (drafts only)
// Area is always recomputed from the millimeter inputs.
func UpdateItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, item, err := loadOrderItem(c)
		if err != nil {
			return err
		}
		if order.Status != models.WorkOrderStatusDraft {
			return fiber.NewError(fiber.StatusConflict, "Only draft work orders can be edited")
		}

		var body UpdateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Quantity != nil {
			if *body.Quantity <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Item quantity must be positive")
			}
			item.Quantity = *body.Quantity
		}
		if body.Width != nil {
			item.Width = *body.Width
		}
		if body.Height != nil {
			item.Height = *body.Height
		}
		if !item.IsService && (item.Width <= 0 || item.Height <= 0) {
			return fiber.NewError(fiber.StatusBadRequest, "Product lines need positive width and height (mm)")
		}
		if body.Notes != nil {
			item.Notes = *body.Notes
		}
		item.Area = (item.Width / 1000) * (item.Height / 1000)

		if err := database.DB.Model(&models.WorkOrderItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
			"quantity": item.Quantity,
			"width":    item.Width,
			"height":   item.Height,
			"area":     item.Area,
			"notes":    item.Notes,
		}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update item")
		}

		writeItemAudit(c, order, fmt.Sprintf("Item '%s' on work order %s updated", item.ProductName, order.OrderNumber))
		realtime.BroadcastChange("work_order", "update", order.ID)

		order, err = loadOrder(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(toWorkOrderResponse(*order))
	}
}

// DELETE /api/work-orders/:id/items/:itemID (drafts only)
func DeleteItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, item, err := loadOrderItem(c)
		if err != nil {
			return err
		}
		if order.Status != models.WorkOrderStatusDraft {
			return fiber.NewError(fiber.StatusConflict, "Only draft work orders can be edited")
		}

		if err := database.DB.Delete(&models.WorkOrderItem{}, item.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete item")
		}

		writeItemAudit(c, order, fmt.Sprintf("Item '%s' removed from work order %s", item.ProductName, order.OrderNumber))
		realtime.BroadcastChange("work_order", "update", order.ID)

		return c.JSON(fiber.Map{"message": "Item deleted"})
	}
}

// POST /api/work-orders/:id/items/:itemID/materials/:materialID/steps
// Adds an optional process step to a material (drafts only).
func AddProcessStepHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, _, err := loadOrderItem(c)
		if err != nil {
			return err
		}
		if order.Status != models.WorkOrderStatusDraft {
			return fiber.NewError(fiber.StatusConflict, "Only draft work orders can be edited")
		}

		material, err := loadMaterial(c)
		if err != nil {
			return err
		}

		var body AddProcessStepRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		var process models.Process
		if err := database.DB.First(&process, "id = ?", body.ProcessID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Process not found")
		}

		step := models.ItemProcessStep{
			ItemMaterialID: material.ID,
			ProcessID:      process.ID,
			Name:           process.Name,
			Status:         models.StepStatusPending,
			IsFixed:        false, // user-added steps are always removable
		}

		if err := database.DB.Create(&step).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not add process step")
		}

		writeItemAudit(c, order, fmt.Sprintf("Process '%s' added on work order %s", process.Name, order.OrderNumber))
		realtime.BroadcastChange("work_order", "update", order.ID)

		order, err = loadOrder(c.Params("id"))
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toWorkOrderResponse(*order))
	}
}

// DELETE /api/work-orders/:id/items/:itemID/materials/:materialID/steps/:stepID
// Fixed steps came from a mandatory product process and can never be
// removed by the order editor.
func DeleteProcessStepHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, _, err := loadOrderItem(c)
		if err != nil {
			return err
		}
		if order.Status != models.WorkOrderStatusDraft {
			return fiber.NewError(fiber.StatusConflict, "Only draft work orders can be edited")
		}

		step, err := loadStep(c)
		if err != nil {
			return err
		}

		if step.IsFixed {
			return fiber.NewError(fiber.StatusConflict, "Fixed process steps cannot be removed")
		}

		if err := database.DB.Delete(&models.ItemProcessStep{}, step.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete process step")
		}

		writeItemAudit(c, order, fmt.Sprintf("Process '%s' removed on work order %s", step.Name, order.OrderNumber))
		realtime.BroadcastChange("work_order", "update", order.ID)

		return c.JSON(fiber.Map{"message": "Process step deleted"})
	}
}

// PUT /api/work-orders/:id/items/:itemID/materials/:materialID/steps/:stepID/status
// Production tracking on active (issued, not archived/completed) orders.
func UpdateStepStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, _, err := loadOrderItem(c)
		if err != nil {
			return err
		}
		if order.Status != models.WorkOrderStatusPending && order.Status != models.WorkOrderStatusInProgress {
			return fiber.NewError(fiber.StatusConflict, "Process steps can only be tracked on active work orders")
		}

		step, err := loadStep(c)
		if err != nil {
			return err
		}

		var body UpdateStepStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		switch body.Status {
		case models.StepStatusPending, models.StepStatusInProgress, models.StepStatusCompleted:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Status must be pending, in-progress or completed")
		}

		updates := map[string]interface{}{"status": body.Status}
		if body.Status == models.StepStatusCompleted && step.CompletedAt == nil {
			updates["completed_at"] = time.Now()
		}
		if body.Status != models.StepStatusCompleted {
			updates["completed_at"] = nil
		}

		if err := database.DB.Model(&models.ItemProcessStep{}).Where("id = ?", step.ID).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update process step")
		}

		realtime.BroadcastChange("work_order", "update", order.ID)

		order, err = loadOrder(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(toWorkOrderResponse(*order))
	}
}

func loadOrderItem(c *fiber.Ctx) (*models.WorkOrder, *models.WorkOrderItem, error) {
	order, err := loadOrder(c.Params("id"))
	if err != nil {
		return nil, nil, err
	}

	var itemID uint
	if _, err := fmt.Sscan(c.Params("itemID"), &itemID); err != nil || itemID == 0 {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "Invalid item ID")
	}

	for i := range order.Items {
		if order.Items[i].ID == itemID {
			return order, &order.Items[i], nil
		}
	}
	return nil, nil, fiber.NewError(fiber.StatusNotFound, "Item not found on this work order")
}

func loadMaterial(c *fiber.Ctx) (*models.ItemMaterial, error) {
	var materialID uint
	if _, err := fmt.Sscan(c.Params("materialID"), &materialID); err != nil || materialID == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid material ID")
	}

	var material models.ItemMaterial
	if err := database.DB.First(&material, "id = ?", materialID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Material not found")
	}
	return &material, nil
}

func loadStep(c *fiber.Ctx) (*models.ItemProcessStep, error) {
	var stepID uint
	if _, err := fmt.Sscan(c.Params("stepID"), &stepID); err != nil || stepID == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid step ID")
	}

	var step models.ItemProcessStep
	if err := database.DB.First(&step, "id = ?", stepID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Process step not found")
	}
	return &step, nil
}

func writeItemAudit(c *fiber.Ctx, order *models.WorkOrder, description string) {
	if userID, userName, err := auth.CurrentUser(c); err == nil {
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "work_order",
			EntityID:    order.ID,
			Action:      models.AuditActionUpdate,
			Description: description,
		})
	}
}
