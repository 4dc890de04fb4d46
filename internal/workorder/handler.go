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

type WorkOrderItemRequest struct {
	ProductID   *uint   `json:"product_id"`
	IsService   bool    `json:"is_service"`
	ServiceID   *uint   `json:"service_id"`
	ProductName string  `json:"product_name"` // display name for service lines
	Quantity    int     `json:"quantity"`     // piece count
	Width       float64 `json:"width"`        // mm
	Height      float64 `json:"height"`       // mm
	Notes       string  `json:"notes"`
}

type CreateWorkOrderRequest struct {
	ClientID      uint                   `json:"client_id"`
	Notes         string                 `json:"notes"`
	PurchaseOrder string                 `json:"purchase_order"`
	Items         []WorkOrderItemRequest `json:"items"`
}

type UpdateWorkOrderRequest struct {
	ClientID      *uint   `json:"client_id"`
	Notes         *string `json:"notes"`
	PurchaseOrder *string `json:"purchase_order"`
}

type UpdateStatusRequest struct {
	Status models.WorkOrderStatus `json:"status"`
}

type ProcessStepResponse struct {
	ID          uint   `json:"id"`
	ProcessID   uint   `json:"process_id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	IsFixed     bool   `json:"is_fixed"`
	CompletedAt string `json:"completed_at,omitempty"`
}

type ItemMaterialResponse struct {
	ID                 uint                  `json:"id"`
	InventoryItemID    uint                  `json:"inventory_item_id"`
	Name               string                `json:"name"`
	Quantity           float64               `json:"quantity"`
	Unit               string                `json:"unit"`
	ShowOnDeliveryNote bool                  `json:"show_on_delivery_note"`
	ProcessSteps       []ProcessStepResponse `json:"process_steps"`
}

type WorkOrderItemResponse struct {
	ID          uint                   `json:"id"`
	ProductID   *uint                  `json:"product_id"`
	IsService   bool                   `json:"is_service"`
	ServiceID   *uint                  `json:"service_id"`
	ProductName string                 `json:"product_name"`
	Quantity    int                    `json:"quantity"`
	Width       float64                `json:"width"`
	Height      float64                `json:"height"`
	Area        float64                `json:"area"`
	Notes       string                 `json:"notes"`
	Materials   []ItemMaterialResponse `json:"materials"`
}

type WorkOrderResponse struct {
	ID               uint                    `json:"id"`
	OrderNumber      string                  `json:"order_number"`
	ClientID         uint                    `json:"client_id"`
	ClientName       string                  `json:"client_name"`
	Status           models.WorkOrderStatus  `json:"status"`
	Notes            string                  `json:"notes"`
	PurchaseOrder    string                  `json:"purchase_order"`
	QuoteID          *uint                   `json:"quote_id"`
	QuoteNumber      string                  `json:"quote_number"`
	CompletedAt      string                  `json:"completed_at,omitempty"`
	CompletionReason string                  `json:"completion_reason,omitempty"`
	CreatedAt        string                  `json:"created_at"`
	Items            []WorkOrderItemResponse `json:"items"`
}

func toWorkOrderResponse(order models.WorkOrder) WorkOrderResponse {
	resp := WorkOrderResponse{
		ID:               order.ID,
		OrderNumber:      order.OrderNumber,
		ClientID:         order.ClientID,
		ClientName:       order.Client.Name,
		Status:           order.Status,
		Notes:            order.Notes,
		PurchaseOrder:    order.PurchaseOrder,
		QuoteID:          order.QuoteID,
		QuoteNumber:      order.QuoteNumber,
		CompletionReason: order.CompletionReason,
		CreatedAt:        order.CreatedAt.Format("2006-01-02 15:04:05"),
		Items:            make([]WorkOrderItemResponse, 0, len(order.Items)),
	}
	if order.CompletedAt != nil {
		resp.CompletedAt = order.CompletedAt.Format("2006-01-02 15:04:05")
	}

	for _, item := range order.Items {
		itemResp := WorkOrderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			IsService:   item.IsService,
			ServiceID:   item.ServiceID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Width:       item.Width,
			Height:      item.Height,
			Area:        item.Area,
			Notes:       item.Notes,
			Materials:   make([]ItemMaterialResponse, 0, len(item.Materials)),
		}
		for _, m := range item.Materials {
			matResp := ItemMaterialResponse{
				ID:                 m.ID,
				InventoryItemID:    m.InventoryItemID,
				Name:               m.Name,
				Quantity:           m.Quantity,
				Unit:               m.Unit,
				ShowOnDeliveryNote: m.ShowOnDeliveryNote,
				ProcessSteps:       make([]ProcessStepResponse, 0, len(m.ProcessSteps)),
			}
			for _, s := range m.ProcessSteps {
				stepResp := ProcessStepResponse{
					ID:        s.ID,
					ProcessID: s.ProcessID,
					Name:      s.Name,
					Status:    string(s.Status),
					IsFixed:   s.IsFixed,
				}
				if s.CompletedAt != nil {
					stepResp.CompletedAt = s.CompletedAt.Format("2006-01-02 15:04:05")
				}
				matResp.ProcessSteps = append(matResp.ProcessSteps, stepResp)
			}
			itemResp.Materials = append(itemResp.Materials, matResp)
		}
		resp.Items = append(resp.Items, itemResp)
	}

	return resp
}

// BuildItem turns an item request into a full item tree. Product lines copy
// the product's materials and default process steps onto the line; steps
// copied from a mandatory (IsDefault) product process are marked fixed.
// Quote conversion reuses this to materialize quoted lines.
func BuildItem(req WorkOrderItemRequest) (models.WorkOrderItem, error) {
	if req.Quantity <= 0 {
		return models.WorkOrderItem{}, fiber.NewError(fiber.StatusBadRequest, "Item quantity must be positive")
	}

	item := models.WorkOrderItem{
		ProductID:   req.ProductID,
		IsService:   req.IsService,
		ServiceID:   req.ServiceID,
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		Width:       req.Width,
		Height:      req.Height,
		Area:        (req.Width / 1000) * (req.Height / 1000),
		Notes:       req.Notes,
	}

	if req.IsService {
		if req.ServiceID != nil {
			var service models.Service
			if err := database.DB.First(&service, "id = ?", *req.ServiceID).Error; err != nil {
				return models.WorkOrderItem{}, fiber.NewError(fiber.StatusBadRequest, "Service not found")
			}
			if item.ProductName == "" {
				item.ProductName = service.Name
			}
		}
		if item.ProductName == "" {
			return models.WorkOrderItem{}, fiber.NewError(fiber.StatusBadRequest, "Service lines need a service_id or a product_name")
		}
		item.ProductID = nil
		return item, nil
	}

	if req.ProductID == nil {
		return models.WorkOrderItem{}, fiber.NewError(fiber.StatusBadRequest, "Product lines need a product_id")
	}
	if req.Width <= 0 || req.Height <= 0 {
		return models.WorkOrderItem{}, fiber.NewError(fiber.StatusBadRequest, "Product lines need positive width and height (mm)")
	}

	var product models.Product
	if err := database.DB.
		Preload("Materials.InventoryItem").
		Preload("Materials.ProcessSteps.Process").
		First(&product, "id = ?", *req.ProductID).Error; err != nil {
		return models.WorkOrderItem{}, fiber.NewError(fiber.StatusBadRequest, "Product not found")
	}

	item.ProductName = product.Name

	for _, pm := range product.Materials {
		material := models.ItemMaterial{
			InventoryItemID:    pm.InventoryItemID,
			Name:               pm.InventoryItem.Name,
			Quantity:           pm.Quantity,
			Unit:               pm.Unit,
			ShowOnDeliveryNote: pm.ShowOnDeliveryNote,
		}
		for _, step := range pm.ProcessSteps {
			material.ProcessSteps = append(material.ProcessSteps, models.ItemProcessStep{
				ProcessID: step.ProcessID,
				Name:      step.Process.Name,
				Status:    models.StepStatusPending,
				IsFixed:   step.IsDefault,
			})
		}
		item.Materials = append(item.Materials, material)
	}

	return item, nil
}

// POST /api/work-orders
func CreateWorkOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateWorkOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.ClientID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "client_id is required")
		}
		if len(body.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "At least one item is required")
		}

		var client models.Client
		if err := database.DB.First(&client, "id = ?", body.ClientID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Client not found")
		}

		order := models.WorkOrder{
			ClientID:      body.ClientID,
			Status:        models.WorkOrderStatusDraft,
			Notes:         body.Notes,
			PurchaseOrder: body.PurchaseOrder,
		}

		for _, itemReq := range body.Items {
			item, err := BuildItem(itemReq)
			if err != nil {
				return err
			}
			order.Items = append(order.Items, item)
		}

		// Random suffix can collide, re-roll until the number is free
		for attempt := 0; attempt < 5; attempt++ {
			order.OrderNumber = NewOrderNumber(time.Now())
			var count int64
			database.DB.Model(&models.WorkOrder{}).
				Where("order_number = ?", order.OrderNumber).
				Count(&count)
			if count == 0 {
				break
			}
		}

		if err := database.DB.Create(&order).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create work order")
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "work_order",
				EntityID:    order.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Work order %s created (%d items)", order.OrderNumber, len(order.Items)),
				Before:      nil,
				After:       order,
			})
		}

		realtime.BroadcastChange("work_order", "create", order.ID)

		order.Client = client
		return c.Status(fiber.StatusCreated).JSON(toWorkOrderResponse(order))
	}
}

// GET /api/work-orders?status=draft&client_id=1
func ListWorkOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.
			Preload("Client").
			Preload("Items.Materials.ProcessSteps").
			Model(&models.WorkOrder{})

		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}
		if clientIDStr := c.Query("client_id"); clientIDStr != "" {
			var cid uint
			if _, err := fmt.Sscan(clientIDStr, &cid); err == nil && cid > 0 {
				dbq = dbq.Where("client_id = ?", cid)
			}
		}

		var orders []models.WorkOrder
		if err := dbq.Order("created_at DESC").Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list work orders")
		}

		resp := make([]WorkOrderResponse, 0, len(orders))
		for _, order := range orders {
			resp = append(resp, toWorkOrderResponse(order))
		}

		return c.JSON(resp)
	}
}

// GET /api/work-orders/:id
func GetWorkOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, err := loadOrder(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(toWorkOrderResponse(*order))
	}
}

// DELETE /api/work-orders/:id (drafts only; issued orders are archived instead)
func DeleteWorkOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, err := loadOrder(c.Params("id"))
		if err != nil {
			return err
		}

		if order.Status != models.WorkOrderStatusDraft {
			return fiber.NewError(fiber.StatusConflict, "Only draft work orders can be deleted, archive instead")
		}

		if err := database.DB.Delete(&models.WorkOrder{}, order.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete work order")
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "work_order",
				EntityID:    order.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Draft work order %s deleted", order.OrderNumber),
				Before:      order,
				After:       nil,
			})
		}

		realtime.BroadcastChange("work_order", "delete", order.ID)

		return c.JSON(fiber.Map{"message": "Work order deleted"})
	}
}

// PUT /api/work-orders/:id (header fields, drafts only)
func UpdateWorkOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, err := loadOrder(c.Params("id"))
		if err != nil {
			return err
		}

		if order.Status != models.WorkOrderStatusDraft {
			return fiber.NewError(fiber.StatusConflict, "Only draft work orders can be edited")
		}

		var body UpdateWorkOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		before := *order

		if body.ClientID != nil {
			var client models.Client
			if err := database.DB.First(&client, "id = ?", *body.ClientID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Client not found")
			}
			order.ClientID = *body.ClientID
			order.Client = client
		}
		if body.Notes != nil {
			order.Notes = *body.Notes
		}
		if body.PurchaseOrder != nil {
			order.PurchaseOrder = *body.PurchaseOrder
		}

		if err := database.DB.Model(&models.WorkOrder{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
			"client_id":      order.ClientID,
			"notes":          order.Notes,
			"purchase_order": order.PurchaseOrder,
		}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update work order")
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "work_order",
				EntityID:    order.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Work order %s updated", order.OrderNumber),
				Before:      before,
				After:       order,
			})
		}

		realtime.BroadcastChange("work_order", "update", order.ID)

		return c.JSON(toWorkOrderResponse(*order))
	}
}

// POST /api/work-orders/:id/status
// Manual transitions with no inventory effect: pending -> in-progress,
// and cancelling an active order. Issue/archive/delivery-note flows own
// the other transitions.
func UpdateWorkOrderStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, err := loadOrder(c.Params("id"))
		if err != nil {
			return err
		}

		var body UpdateStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		allowed := false
		switch body.Status {
		case models.WorkOrderStatusInProgress:
			allowed = order.Status == models.WorkOrderStatusPending
		case models.WorkOrderStatusCancelled:
			allowed = order.Status == models.WorkOrderStatusPending || order.Status == models.WorkOrderStatusInProgress
		}
		if !allowed {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Cannot move work order from '%s' to '%s'", order.Status, body.Status))
		}

		before := order.Status

		result := database.DB.Model(&models.WorkOrder{}).
			Where("id = ? AND status = ?", order.ID, before).
			Update("status", body.Status)
		if result.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update status")
		}
		if result.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "Work order status changed concurrently, reload and retry")
		}

		order.Status = body.Status

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "work_order",
				EntityID:    order.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Work order %s: %s -> %s", order.OrderNumber, before, body.Status),
			})
		}

		realtime.BroadcastChange("work_order", "update", order.ID)

		return c.JSON(toWorkOrderResponse(*order))
	}
}

// loadOrder fetches the full order tree or translates the failure
func loadOrder(idParam string) (*models.WorkOrder, error) {
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

	return &order, nil
}
