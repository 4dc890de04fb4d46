package catalog

import (
	"fmt"

	"glasswork-backend/internal/audit"
	"glasswork-backend/internal/auth"
	"glasswork-backend/internal/database"
	"glasswork-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ThicknessPriceRequest struct {
	Thickness float64 `json:"thickness"`
	Price     float64 `json:"price"`
}

type ProcessRequest struct {
	Name              string                  `json:"name"`
	Description       string                  `json:"description"`
	Order             int                     `json:"order"`
	EstimatedDuration int                     `json:"estimated_duration"`
	Price             *float64                `json:"price"`
	PriceType         models.PriceType        `json:"price_type"`
	ThicknessPrices   []ThicknessPriceRequest `json:"thickness_prices"`
}

type ThicknessPriceResponse struct {
	ID        uint    `json:"id"`
	Thickness float64 `json:"thickness"`
	Price     float64 `json:"price"`
}

type ProcessResponse struct {
	ID                uint                     `json:"id"`
	Name              string                   `json:"name"`
	Description       string                   `json:"description"`
	Order             int                      `json:"order"`
	EstimatedDuration int                      `json:"estimated_duration"`
	Price             *float64                 `json:"price"`
	PriceType         models.PriceType         `json:"price_type"`
	ThicknessPrices   []ThicknessPriceResponse `json:"thickness_prices"`
	CreatedAt         string                   `json:"created_at"`
}

func toProcessResponse(process models.Process) ProcessResponse {
	resp := ProcessResponse{
		ID:                process.ID,
		Name:              process.Name,
		Description:       process.Description,
		Order:             process.Order,
		EstimatedDuration: process.EstimatedDuration,
		Price:             process.Price,
		PriceType:         process.PriceType,
		ThicknessPrices:   make([]ThicknessPriceResponse, 0, len(process.ThicknessPrices)),
		CreatedAt:         process.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	for _, tp := range process.ThicknessPrices {
		resp.ThicknessPrices = append(resp.ThicknessPrices, ThicknessPriceResponse{
			ID:        tp.ID,
			Thickness: tp.Thickness,
			Price:     tp.Price,
		})
	}
	return resp
}

// validatePricing enforces that a process is priced one way or the other:
// a flat price, or per-thickness rows. Both set is a contradiction.
func validatePricing(body ProcessRequest) error {
	if body.Price != nil && len(body.ThicknessPrices) > 0 {
		return fiber.NewError(fiber.StatusBadRequest,
			"A process uses either a flat price or thickness prices, not both")
	}
	if body.Price != nil && *body.Price < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Price cannot be negative")
	}
	seen := map[float64]bool{}
	for _, tp := range body.ThicknessPrices {
		if tp.Thickness <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Thickness must be positive")
		}
		if tp.Price < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Price cannot be negative")
		}
		if seen[tp.Thickness] {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("Duplicate thickness %.1f mm", tp.Thickness))
		}
		seen[tp.Thickness] = true
	}
	return nil
}

func validPriceType(pt models.PriceType) bool {
	switch pt {
	case "", models.PriceTypePerSquareMeter, models.PriceTypePerLinearMeter,
		models.PriceTypePerPiece, models.PriceTypePerHour:
		return true
	}
	return false
}

// POST /api/processes
func CreateProcessHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProcessRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}
		if !validPriceType(body.PriceType) {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid price type")
		}
		if err := validatePricing(body); err != nil {
			return err
		}

		process := models.Process{
			Name:              body.Name,
			Description:       body.Description,
			Order:             body.Order,
			EstimatedDuration: body.EstimatedDuration,
			Price:             body.Price,
			PriceType:         body.PriceType,
		}
		for _, tp := range body.ThicknessPrices {
			process.ThicknessPrices = append(process.ThicknessPrices, models.ProcessThicknessPrice{
				Thickness: tp.Thickness,
				Price:     tp.Price,
			})
		}

		if err := database.DB.Create(&process).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create process")
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "process",
				EntityID:    process.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Process '%s' created", process.Name),
				After:       process,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(toProcessResponse(process))
	}
}

// GET /api/processes
func ListProcessesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var processes []models.Process
		if err := database.DB.
			Preload("ThicknessPrices").
			Order("sort_order ASC, name ASC").
			Find(&processes).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list processes")
		}

		resp := make([]ProcessResponse, 0, len(processes))
		for _, process := range processes {
			resp = append(resp, toProcessResponse(process))
		}
		return c.JSON(resp)
	}
}

// GET /api/processes/:id
func GetProcessHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		process, err := loadProcess(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(toProcessResponse(*process))
	}
}

// PUT /api/processes/:id
// Thickness prices are replaced wholesale with the submitted set.
func UpdateProcessHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		process, err := loadProcess(c.Params("id"))
		if err != nil {
			return err
		}

		var body ProcessRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}
		if !validPriceType(body.PriceType) {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid price type")
		}
		if err := validatePricing(body); err != nil {
			return err
		}

		before := *process

		tx := database.DB.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		if err := tx.Model(&models.Process{}).Where("id = ?", process.ID).Updates(map[string]interface{}{
			"name":               body.Name,
			"description":        body.Description,
			"sort_order":         body.Order,
			"estimated_duration": body.EstimatedDuration,
			"price":              body.Price,
			"price_type":         body.PriceType,
		}).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update process")
		}

		if err := tx.Where("process_id = ?", process.ID).Delete(&models.ProcessThicknessPrice{}).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update thickness prices")
		}
		for _, tp := range body.ThicknessPrices {
			row := models.ProcessThicknessPrice{
				ProcessID: process.ID,
				Thickness: tp.Thickness,
				Price:     tp.Price,
			}
			if err := tx.Create(&row).Error; err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Could not update thickness prices")
			}
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update process")
		}

		updated, err := loadProcess(c.Params("id"))
		if err != nil {
			return err
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "process",
				EntityID:    updated.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Process '%s' updated", updated.Name),
				Before:      before,
				After:       updated,
			})
		}

		return c.JSON(toProcessResponse(*updated))
	}
}

// DELETE /api/processes/:id
// Rejected while product defaults or order lines still reference the process.
func DeleteProcessHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		process, err := loadProcess(c.Params("id"))
		if err != nil {
			return err
		}

		var productRefs int64
		database.DB.Model(&models.ProductProcessStep{}).Where("process_id = ?", process.ID).Count(&productRefs)
		var orderRefs int64
		database.DB.Model(&models.ItemProcessStep{}).Where("process_id = ?", process.ID).Count(&orderRefs)
		if productRefs > 0 || orderRefs > 0 {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Process is used by %d product(s) and %d order line(s)", productRefs, orderRefs))
		}

		if err := database.DB.Delete(&models.Process{}, process.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete process")
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "process",
				EntityID:    process.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Process '%s' deleted", process.Name),
				Before:      process,
			})
		}

		return c.JSON(fiber.Map{"message": "Process deleted"})
	}
}

func loadProcess(idParam string) (*models.Process, error) {
	var processID uint
	if _, err := fmt.Sscan(idParam, &processID); err != nil || processID == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid process ID")
	}

	var process models.Process
	if err := database.DB.
		Preload("ThicknessPrices").
		First(&process, "id = ?", processID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Process not found")
	}
	return &process, nil
}
