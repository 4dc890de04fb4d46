package catalog

import (
	"fmt"

	"glasswork-backend/internal/audit"
	"glasswork-backend/internal/auth"
	"glasswork-backend/internal/database"
	"glasswork-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ClientRequest struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	City      string `json:"city"`
	TaxNumber string `json:"tax_number"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Notes     string `json:"notes"`
}

type ClientResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	City      string `json:"city"`
	TaxNumber string `json:"tax_number"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"created_at"`
}

func toClientResponse(client models.Client) ClientResponse {
	return ClientResponse{
		ID:        client.ID,
		Name:      client.Name,
		Address:   client.Address,
		City:      client.City,
		TaxNumber: client.TaxNumber,
		Phone:     client.Phone,
		Email:     client.Email,
		Notes:     client.Notes,
		CreatedAt: client.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/clients
func CreateClientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ClientRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}

		client := models.Client{
			Name:      body.Name,
			Address:   body.Address,
			City:      body.City,
			TaxNumber: body.TaxNumber,
			Phone:     body.Phone,
			Email:     body.Email,
			Notes:     body.Notes,
		}

		if err := database.DB.Create(&client).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create client")
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "client",
				EntityID:    client.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Client '%s' created", client.Name),
				After:       client,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(toClientResponse(client))
	}
}

// GET /api/clients
func ListClientsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var clients []models.Client
		if err := database.DB.Order("name ASC").Find(&clients).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list clients")
		}

		resp := make([]ClientResponse, 0, len(clients))
		for _, client := range clients {
			resp = append(resp, toClientResponse(client))
		}
		return c.JSON(resp)
	}
}

// GET /api/clients/:id
func GetClientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		client, err := loadClient(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(toClientResponse(*client))
	}
}

// PUT /api/clients/:id
func UpdateClientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		client, err := loadClient(c.Params("id"))
		if err != nil {
			return err
		}

		var body ClientRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}

		before := *client

		if err := database.DB.Model(&models.Client{}).Where("id = ?", client.ID).Updates(map[string]interface{}{
			"name":       body.Name,
			"address":    body.Address,
			"city":       body.City,
			"tax_number": body.TaxNumber,
			"phone":      body.Phone,
			"email":      body.Email,
			"notes":      body.Notes,
		}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update client")
		}

		client.Name = body.Name
		client.Address = body.Address
		client.City = body.City
		client.TaxNumber = body.TaxNumber
		client.Phone = body.Phone
		client.Email = body.Email
		client.Notes = body.Notes

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "client",
				EntityID:    client.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Client '%s' updated", client.Name),
				Before:      before,
				After:       client,
			})
		}

		return c.JSON(toClientResponse(*client))
	}
}

// DELETE /api/clients/:id
// Rejected while work orders or quotes still reference the client.
func DeleteClientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		client, err := loadClient(c.Params("id"))
		if err != nil {
			return err
		}

		var orderCount int64
		database.DB.Model(&models.WorkOrder{}).Where("client_id = ?", client.ID).Count(&orderCount)
		var quoteCount int64
		database.DB.Model(&models.Quote{}).Where("client_id = ?", client.ID).Count(&quoteCount)
		if orderCount > 0 || quoteCount > 0 {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Client has %d work order(s) and %d quote(s)", orderCount, quoteCount))
		}

		if err := database.DB.Delete(&models.Client{}, client.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete client")
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "client",
				EntityID:    client.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Client '%s' deleted", client.Name),
				Before:      client,
			})
		}

		return c.JSON(fiber.Map{"message": "Client deleted"})
	}
}

func loadClient(idParam string) (*models.Client, error) {
	var clientID uint
	if _, err := fmt.Sscan(idParam, &clientID); err != nil || clientID == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid client ID")
	}

	var client models.Client
	if err := database.DB.First(&client, "id = ?", clientID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Client not found")
	}
	return &client, nil
}
