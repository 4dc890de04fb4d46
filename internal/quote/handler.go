package quote

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

type QuoteItemRequest struct {
	ProductID   *uint    `json:"product_id"`
	IsService   bool     `json:"is_service"`
	ServiceID   *uint    `json:"service_id"`
	ProductName string   `json:"product_name"`
	Quantity    int      `json:"quantity"`
	Width       float64  `json:"width"`      // mm
	Height      float64  `json:"height"`     // mm
	UnitPrice   *float64 `json:"unit_price"` // defaults to the catalog price
	Notes       string   `json:"notes"`
}

type QuoteRequest struct {
	ClientID      uint               `json:"client_id"`
	VATRate       *float64           `json:"vat_rate"`
	ValidUntil    *time.Time         `json:"valid_until"`
	BankAccountID *uint              `json:"bank_account_id"`
	Notes         string             `json:"notes"`
	Items         []QuoteItemRequest `json:"items"`
}

type QuoteStatusRequest struct {
	Status models.QuoteStatus `json:"status"`
}

type QuoteItemResponse struct {
	ID          uint    `json:"id"`
	ProductID   *uint   `json:"product_id"`
	IsService   bool    `json:"is_service"`
	ServiceID   *uint   `json:"service_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Area        float64 `json:"area"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
	Notes       string  `json:"notes"`
}

type QuoteResponse struct {
	ID            uint                `json:"id"`
	QuoteNumber   string              `json:"quote_number"`
	ClientID      uint                `json:"client_id"`
	ClientName    string              `json:"client_name"`
	Status        models.QuoteStatus  `json:"status"`
	Subtotal      float64             `json:"subtotal"`
	VATRate       float64             `json:"vat_rate"`
	VATAmount     float64             `json:"vat_amount"`
	Total         float64             `json:"total"`
	ValidUntil    string              `json:"valid_until,omitempty"`
	BankAccountID *uint               `json:"bank_account_id"`
	Notes         string              `json:"notes"`
	CreatedAt     string              `json:"created_at"`
	Items         []QuoteItemResponse `json:"items"`
}

func toQuoteResponse(quote models.Quote) QuoteResponse {
	resp := QuoteResponse{
		ID:            quote.ID,
		QuoteNumber:   quote.QuoteNumber,
		ClientID:      quote.ClientID,
		ClientName:    quote.Client.Name,
		Status:        quote.Status,
		Subtotal:      quote.Subtotal,
		VATRate:       quote.VATRate,
		VATAmount:     quote.VATAmount,
		Total:         quote.Total,
		BankAccountID: quote.BankAccountID,
		Notes:         quote.Notes,
		CreatedAt:     quote.CreatedAt.Format("2006-01-02 15:04:05"),
		Items:         make([]QuoteItemResponse, 0, len(quote.Items)),
	}
	if quote.ValidUntil != nil {
		resp.ValidUntil = quote.ValidUntil.Format("2006-01-02")
	}
	for _, item := range quote.Items {
		resp.Items = append(resp.Items, QuoteItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			IsService:   item.IsService,
			ServiceID:   item.ServiceID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Width:       item.Width,
			Height:      item.Height,
			Area:        item.Area,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
			Notes:       item.Notes,
		})
	}
	return resp
}

// buildQuoteItems validates the submitted lines and prices them. A missing
// unit price falls back to the catalog price of the product or service.
func buildQuoteItems(requests []QuoteItemRequest) ([]models.QuoteItem, error) {
	items := make([]models.QuoteItem, 0, len(requests))
	for _, req := range requests {
		if req.Quantity <= 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Item quantity must be positive")
		}

		item := models.QuoteItem{
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
					return nil, fiber.NewError(fiber.StatusBadRequest, "Service not found")
				}
				if item.ProductName == "" {
					item.ProductName = service.Name
				}
				if req.UnitPrice == nil {
					item.UnitPrice = service.Price
				}
			}
			if item.ProductName == "" {
				return nil, fiber.NewError(fiber.StatusBadRequest, "Service lines need a service_id or a product_name")
			}
			item.ProductID = nil
		} else {
			if req.ProductID == nil {
				return nil, fiber.NewError(fiber.StatusBadRequest, "Product lines need a product_id")
			}
			if req.Width <= 0 || req.Height <= 0 {
				return nil, fiber.NewError(fiber.StatusBadRequest, "Product lines need positive width and height (mm)")
			}
			var product models.Product
			if err := database.DB.First(&product, "id = ?", *req.ProductID).Error; err != nil {
				return nil, fiber.NewError(fiber.StatusBadRequest, "Product not found")
			}
			item.ProductName = product.Name
			if req.UnitPrice == nil {
				item.UnitPrice = product.Price
			}
		}

		if req.UnitPrice != nil {
			if *req.UnitPrice < 0 {
				return nil, fiber.NewError(fiber.StatusBadRequest, "Unit price cannot be negative")
			}
			item.UnitPrice = *req.UnitPrice
		}

		items = append(items, item)
	}
	return items, nil
}

// POST /api/quotes
func CreateQuoteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body QuoteRequest
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

		if body.BankAccountID != nil {
			var account models.BankAccount
			if err := database.DB.First(&account, "id = ?", *body.BankAccountID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Bank account not found")
			}
		}

		items, err := buildQuoteItems(body.Items)
		if err != nil {
			return err
		}

		vatRate := 25.0
		if body.VATRate != nil {
			if *body.VATRate < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "VAT rate cannot be negative")
			}
			vatRate = *body.VATRate
		}
		subtotal, vatAmount, total := ComputeTotals(items, vatRate)

		quote := models.Quote{
			ClientID:      body.ClientID,
			Status:        models.QuoteStatusDraft,
			Subtotal:      subtotal,
			VATRate:       vatRate,
			VATAmount:     vatAmount,
			Total:         total,
			ValidUntil:    body.ValidUntil,
			BankAccountID: body.BankAccountID,
			Notes:         body.Notes,
			Items:         items,
		}

		// Random suffix can collide, re-roll until the number is free
		for attempt := 0; attempt < 5; attempt++ {
			quote.QuoteNumber = NewQuoteNumber(time.Now())
			var count int64
			database.DB.Model(&models.Quote{}).
				Where("quote_number = ?", quote.QuoteNumber).
				Count(&count)
			if count == 0 {
				break
			}
		}

		if err := database.DB.Create(&quote).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create quote")
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "quote",
				EntityID:    quote.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Quote %s created (%d items, total %.2f)", quote.QuoteNumber, len(quote.Items), quote.Total),
				After:       quote,
			})
		}

		realtime.BroadcastChange("quote", "create", quote.ID)

		quote.Client = client
		return c.Status(fiber.StatusCreated).JSON(toQuoteResponse(quote))
	}
}

// GET /api/quotes?status=draft&client_id=1
func ListQuotesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.
			Preload("Client").
			Preload("Items").
			Model(&models.Quote{})

		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}
		if clientIDStr := c.Query("client_id"); clientIDStr != "" {
			var cid uint
			if _, err := fmt.Sscan(clientIDStr, &cid); err == nil && cid > 0 {
				dbq = dbq.Where("client_id = ?", cid)
			}
		}

		var quotes []models.Quote
		if err := dbq.Order("created_at DESC").Find(&quotes).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list quotes")
		}

		resp := make([]QuoteResponse, 0, len(quotes))
		for _, quote := range quotes {
			resp = append(resp, toQuoteResponse(quote))
		}
		return c.JSON(resp)
	}
}

// GET /api/quotes/:id
func GetQuoteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		quote, err := loadQuote(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(toQuoteResponse(*quote))
	}
}

// PUT /api/quotes/:id (drafts only; line set replaced wholesale, totals recomputed)
func UpdateQuoteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		quote, err := loadQuote(c.Params("id"))
		if err != nil {
			return err
		}

		if quote.Status != models.QuoteStatusDraft {
			return fiber.NewError(fiber.StatusConflict, "Only draft quotes can be edited")
		}

		var body QuoteRequest
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

		if body.BankAccountID != nil {
			var account models.BankAccount
			if err := database.DB.First(&account, "id = ?", *body.BankAccountID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Bank account not found")
			}
		}

		items, err := buildQuoteItems(body.Items)
		if err != nil {
			return err
		}

		vatRate := quote.VATRate
		if body.VATRate != nil {
			if *body.VATRate < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "VAT rate cannot be negative")
			}
			vatRate = *body.VATRate
		}
		subtotal, vatAmount, total := ComputeTotals(items, vatRate)

		before := *quote

		tx := database.DB.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		if err := tx.Model(&models.Quote{}).Where("id = ?", quote.ID).Updates(map[string]interface{}{
			"client_id":       body.ClientID,
			"subtotal":        subtotal,
			"vat_rate":        vatRate,
			"vat_amount":      vatAmount,
			"total":           total,
			"valid_until":     body.ValidUntil,
			"bank_account_id": body.BankAccountID,
			"notes":           body.Notes,
		}).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update quote")
		}

		if err := tx.Where("quote_id = ?", quote.ID).Delete(&models.QuoteItem{}).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update quote items")
		}
		for i := range items {
			items[i].QuoteID = quote.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Could not update quote items")
			}
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update quote")
		}

		updated, err := loadQuote(c.Params("id"))
		if err != nil {
			return err
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "quote",
				EntityID:    updated.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Quote %s updated (total %.2f)", updated.QuoteNumber, updated.Total),
				Before:      before,
				After:       updated,
			})
		}

		realtime.BroadcastChange("quote", "update", updated.ID)

		return c.JSON(toQuoteResponse(*updated))
	}
}

// POST /api/quotes/:id/status
// draft -> sent, sent -> accepted/rejected, and any non-archived -> archived.
func UpdateQuoteStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		quote, err := loadQuote(c.Params("id"))
		if err != nil {
			return err
		}

		var body QuoteStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		allowed := false
		switch body.Status {
		case models.QuoteStatusSent:
			allowed = quote.Status == models.QuoteStatusDraft
		case models.QuoteStatusAccepted, models.QuoteStatusRejected:
			allowed = quote.Status == models.QuoteStatusSent
		case models.QuoteStatusArchived:
			allowed = quote.Status != models.QuoteStatusArchived
		}
		if !allowed {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Cannot move quote from '%s' to '%s'", quote.Status, body.Status))
		}

		before := quote.Status

		result := database.DB.Model(&models.Quote{}).
			Where("id = ? AND status = ?", quote.ID, before).
			Update("status", body.Status)
		if result.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update quote status")
		}
		if result.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "Quote status changed concurrently, reload and retry")
		}

		quote.Status = body.Status

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "quote",
				EntityID:    quote.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Quote %s: %s -> %s", quote.QuoteNumber, before, body.Status),
			})
		}

		realtime.BroadcastChange("quote", "update", quote.ID)

		return c.JSON(toQuoteResponse(*quote))
	}
}

// DELETE /api/quotes/:id (drafts only)
func DeleteQuoteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		quote, err := loadQuote(c.Params("id"))
		if err != nil {
			return err
		}

		if quote.Status != models.QuoteStatusDraft {
			return fiber.NewError(fiber.StatusConflict, "Only draft quotes can be deleted, archive instead")
		}

		if err := database.DB.Delete(&models.Quote{}, quote.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete quote")
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "quote",
				EntityID:    quote.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Draft quote %s deleted", quote.QuoteNumber),
				Before:      quote,
			})
		}

		realtime.BroadcastChange("quote", "delete", quote.ID)

		return c.JSON(fiber.Map{"message": "Quote deleted"})
	}
}

func loadQuote(idParam string) (*models.Quote, error) {
	var quoteID uint
	if _, err := fmt.Sscan(idParam, &quoteID); err != nil || quoteID == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid quote ID")
	}

	var quote models.Quote
	if err := database.DB.
		Preload("Client").
		Preload("Items").
		First(&quote, "id = ?", quoteID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Quote not found")
	}
	return &quote, nil
}
