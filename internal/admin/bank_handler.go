package admin

import (
	"fmt"

	"glasswork-backend/internal/audit"
	"glasswork-backend/internal/auth"
	"glasswork-backend/internal/database"
	"glasswork-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type BankAccountRequest struct {
	Name        string `json:"name"`
	IBAN        string `json:"iban"`
	SwiftCode   string `json:"swift_code"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

type BankAccountResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	IBAN        string `json:"iban"`
	SwiftCode   string `json:"swift_code"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
}

func toBankAccountResponse(account models.BankAccount) BankAccountResponse {
	return BankAccountResponse{
		ID:          account.ID,
		Name:        account.Name,
		IBAN:        account.IBAN,
		SwiftCode:   account.SwiftCode,
		Description: account.Description,
		IsActive:    account.IsActive,
		CreatedAt:   account.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/bank-accounts (admin)
func CreateBankAccountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BankAccountRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name == "" || body.IBAN == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name and IBAN are required")
		}

		account := models.BankAccount{
			Name:        body.Name,
			IBAN:        body.IBAN,
			SwiftCode:   body.SwiftCode,
			Description: body.Description,
			IsActive:    true,
		}
		if body.IsActive != nil {
			account.IsActive = *body.IsActive
		}

		if err := database.DB.Create(&account).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create bank account")
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "bank_account",
				EntityID:    account.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Bank account '%s' created", account.Name),
				After:       account,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(toBankAccountResponse(account))
	}
}

// GET /api/bank-accounts?active=true
func ListBankAccountsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.BankAccount{})
		if c.Query("active") == "true" {
			dbq = dbq.Where("is_active = ?", true)
		}

		var accounts []models.BankAccount
		if err := dbq.Order("name ASC").Find(&accounts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list bank accounts")
		}

		resp := make([]BankAccountResponse, 0, len(accounts))
		for _, account := range accounts {
			resp = append(resp, toBankAccountResponse(account))
		}
		return c.JSON(resp)
	}
}

// PUT /api/bank-accounts/:id (admin)
func UpdateBankAccountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		account, err := loadBankAccount(c.Params("id"))
		if err != nil {
			return err
		}

		var body BankAccountRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name == "" || body.IBAN == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name and IBAN are required")
		}

		before := *account

		isActive := account.IsActive
		if body.IsActive != nil {
			isActive = *body.IsActive
		}

		if err := database.DB.Model(&models.BankAccount{}).Where("id = ?", account.ID).Updates(map[string]interface{}{
			"name":        body.Name,
			"iban":        body.IBAN,
			"swift_code":  body.SwiftCode,
			"description": body.Description,
			"is_active":   isActive,
		}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update bank account")
		}

		account.Name = body.Name
		account.IBAN = body.IBAN
		account.SwiftCode = body.SwiftCode
		account.Description = body.Description
		account.IsActive = isActive

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "bank_account",
				EntityID:    account.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Bank account '%s' updated", account.Name),
				Before:      before,
				After:       account,
			})
		}

		return c.JSON(toBankAccountResponse(*account))
	}
}

// DELETE /api/bank-accounts/:id (admin)
// Accounts referenced by quotes are deactivated instead of deleted so old
// documents keep their payment info.
func DeleteBankAccountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		account, err := loadBankAccount(c.Params("id"))
		if err != nil {
			return err
		}

		var quoteRefs int64
		database.DB.Model(&models.Quote{}).Where("bank_account_id = ?", account.ID).Count(&quoteRefs)
		if quoteRefs > 0 {
			if err := database.DB.Model(&models.BankAccount{}).
				Where("id = ?", account.ID).
				Update("is_active", false).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not deactivate bank account")
			}
			return c.JSON(fiber.Map{"message": "Bank account is referenced by quotes and was deactivated instead"})
		}

		if err := database.DB.Delete(&models.BankAccount{}, account.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete bank account")
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "bank_account",
				EntityID:    account.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Bank account '%s' deleted", account.Name),
				Before:      account,
			})
		}

		return c.JSON(fiber.Map{"message": "Bank account deleted"})
	}
}

func loadBankAccount(idParam string) (*models.BankAccount, error) {
	var accountID uint
	if _, err := fmt.Sscan(idParam, &accountID); err != nil || accountID == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid bank account ID")
	}

	var account models.BankAccount
	if err := database.DB.First(&account, "id = ?", accountID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Bank account not found")
	}
	return &account, nil
}
