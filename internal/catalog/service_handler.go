package catalog

import (
	"fmt"

	"glasswork-backend/internal/audit"
	"glasswork-backend/internal/auth"
	"glasswork-backend/internal/database"
	"glasswork-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ServiceRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit"`
}

type ServiceResponse struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit"`
	CreatedAt   string  `json:"created_at"`
}

func toServiceResponse(service models.Service) ServiceResponse {
	return ServiceResponse{
		ID:          service.ID,
		Name:        service.Name,
		Description: service.Description,
		Price:       service.Price,
		Unit:        service.Unit,
		CreatedAt:   service.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/services
func CreateServiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ServiceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}
		if body.Price < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Price cannot be negative")
		}

		service := models.Service{
			Name:        body.Name,
			Description: body.Description,
			Price:       body.Price,
			Unit:        body.Unit,
		}

		if err := database.DB.Create(&service).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create service")
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "service",
				EntityID:    service.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Service '%s' created", service.Name),
				After:       service,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(toServiceResponse(service))
	}
}

// GET /api/services
func ListServicesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var services []models.Service
		if err := database.DB.Order("name ASC").Find(&services).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list services")
		}

		resp := make([]ServiceResponse, 0, len(services))
		for _, service := range services {
			resp = append(resp, toServiceResponse(service))
		}
		return c.JSON(resp)
	}
}

// GET /api/services/:id
func GetServiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		service, err := loadService(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(toServiceResponse(*service))
	}
}

// PUT /api/services/:id
func UpdateServiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		service, err := loadService(c.Params("id"))
		if err != nil {
			return err
		}

		var body ServiceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}
		if body.Price < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Price cannot be negative")
		}

		before := *service

		if err := database.DB.Model(&models.Service{}).Where("id = ?", service.ID).Updates(map[string]interface{}{
			"name":        body.Name,
			"description": body.Description,
			"price":       body.Price,
			"unit":        body.Unit,
		}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update service")
		}

		service.Name = body.Name
		service.Description = body.Description
		service.Price = body.Price
		service.Unit = body.Unit

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "service",
				EntityID:    service.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Service '%s' updated", service.Name),
				Before:      before,
				After:       service,
			})
		}

		return c.JSON(toServiceResponse(*service))
	}
}

// DELETE /api/services/:id
// Rejected while work order lines still reference the service.
func DeleteServiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		service, err := loadService(c.Params("id"))
		if err != nil {
			return err
		}

		var orderRefs int64
		database.DB.Model(&models.WorkOrderItem{}).Where("service_id = ?", service.ID).Count(&orderRefs)
		if orderRefs > 0 {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Service is used by %d order line(s)", orderRefs))
		}

		if err := database.DB.Delete(&models.Service{}, service.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete service")
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "service",
				EntityID:    service.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Service '%s' deleted", service.Name),
				Before:      service,
			})
		}

		return c.JSON(fiber.Map{"message": "Service deleted"})
	}
}

func loadService(idParam string) (*models.Service, error) {
	var serviceID uint
	if _, err := fmt.Sscan(idParam, &serviceID); err != nil || serviceID == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid service ID")
	}

	var service models.Service
	if err := database.DB.First(&service, "id = ?", serviceID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Service not found")
	}
	return &service, nil
}
