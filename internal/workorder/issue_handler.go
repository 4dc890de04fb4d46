package workorder

import (
	"fmt"

	"glasswork-backend/internal/audit"
	"glasswork-backend/internal/auth"
	"glasswork-backend/internal/database"
	"glasswork-backend/internal/models"
	"glasswork-backend/internal/realtime"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type IssueResponse struct {
	Sufficient      bool                  `json:"sufficient"`
	Requirements    []MaterialRequirement `json:"requirements"`
	MaterialSummary string                `json:"material_summary,omitempty"`
	Order           *WorkOrderResponse    `json:"order,omitempty"`
}

// GET /api/work-orders/:id/requirements
// Pure calculation, nothing is written.
func GetRequirementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, err := loadOrder(c.Params("id"))
		if err != nil {
			return err
		}

		products, inventory, err := loadCatalog()
		if err != nil {
			return err
		}

		return c.JSON(ComputeRequirements(order.Items, products, inventory))
	}
}

// POST /api/work-orders/:id/issue
// Converts a draft into a pending production order: computes requirements,
// and if stock suffices, deducts materials, appends "out" ledger entries and
// flips the status - all in one database transaction. Insufficient stock is
// a regular response carrying the per-material shortfall, not an error.
func IssueWorkOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, err := loadOrder(c.Params("id"))
		if err != nil {
			return err
		}

		if order.Status != models.WorkOrderStatusDraft {
			return fiber.NewError(fiber.StatusConflict, "Only draft work orders can be issued")
		}

		products, inventory, err := loadCatalog()
		if err != nil {
			return err
		}

		res := PrepareIssue(*order, products, inventory)

		if !res.Sufficient {
			return c.JSON(IssueResponse{
				Sufficient:   false,
				Requirements: res.Requirements,
			})
		}

		tx := database.DB.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		// Status guard doubles as the at-most-once issuance lock: a
		// concurrent issue of the same order loses this update.
		result := tx.Model(&models.WorkOrder{}).
			Where("id = ? AND status = ?", order.ID, models.WorkOrderStatusDraft).
			Update("status", models.WorkOrderStatusPending)
		if result.Error != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not issue work order")
		}
		if result.RowsAffected == 0 {
			tx.Rollback()
			return fiber.NewError(fiber.StatusConflict, "Work order was issued concurrently")
		}

		// Guarded deduction: refuses to over-draw if stock moved since the
		// sufficiency check.
		for _, req := range res.Requirements {
			result := tx.Model(&models.InventoryItem{}).
				Where("id = ? AND quantity >= ?", req.InventoryItemID, req.Required).
				Update("quantity", gorm.Expr("quantity - ?", req.Required))
			if result.Error != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Could not deduct stock")
			}
			if result.RowsAffected == 0 {
				tx.Rollback()
				return fiber.NewError(fiber.StatusConflict,
					fmt.Sprintf("Stock of '%s' changed during issue, reload and retry", req.Name))
			}
		}

		if len(res.NewTransactions) > 0 {
			if err := tx.Create(&res.NewTransactions).Error; err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Could not write stock transactions")
			}
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not issue work order")
		}

		order.Status = models.WorkOrderStatusPending

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "work_order",
				EntityID:    order.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Work order %s issued, %d materials deducted", order.OrderNumber, len(res.NewTransactions)),
				After:       order,
			})
		}

		realtime.BroadcastChange("work_order", "update", order.ID)

		orderResp := toWorkOrderResponse(*order)
		return c.JSON(IssueResponse{
			Sufficient:      true,
			Requirements:    res.Requirements,
			MaterialSummary: res.MaterialSummary,
			Order:           &orderResp,
		})
	}
}

// loadCatalog fetches the product definitions and the inventory snapshot the
// engines run against.
func loadCatalog() ([]models.Product, []models.InventoryItem, error) {
	var products []models.Product
	if err := database.DB.Preload("Materials.InventoryItem").Find(&products).Error; err != nil {
		return nil, nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load products")
	}

	var inventory []models.InventoryItem
	if err := database.DB.Find(&inventory).Error; err != nil {
		return nil, nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load inventory")
	}

	return products, inventory, nil
}
