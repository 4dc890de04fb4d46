package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"glasswork-backend/internal/database"
	"glasswork-backend/internal/models"
)

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func WriteLog(opts LogOptions) error {
	// Postgres jsonb wants "null", not an empty string
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
		Undone:      false,
		IsUndone:    false,
	}

	if err := database.DB.Create(&log).Error; err != nil {
		return fmt.Errorf("could not write audit log: %w", err)
	}

	return nil
}

// UndoLog reverts a logged change. Only catalog entities can be undone:
// stock-affecting records (work orders, inventory, the transaction ledger)
// are excluded because replaying them outside the issue/archive flows would
// break the quantity/ledger invariant.
func UndoLog(logID uint, userID uint, userName string) error {
	var log models.AuditLog
	if err := database.DB.First(&log, "id = ?", logID).Error; err != nil {
		return fmt.Errorf("log not found: %w", err)
	}

	if log.IsUndone {
		return fmt.Errorf("this change has already been undone")
	}

	if !undoableEntity(log.EntityType) {
		return fmt.Errorf("changes to %s cannot be undone", log.EntityType)
	}

	switch log.Action {
	case models.AuditActionCreate:
		if err := deleteEntity(log.EntityType, log.EntityID); err != nil {
			return fmt.Errorf("could not delete entity: %w", err)
		}

	case models.AuditActionUpdate:
		if err := restoreEntity(log.EntityType, log.EntityID, log.BeforeData); err != nil {
			return fmt.Errorf("could not restore entity: %w", err)
		}

	case models.AuditActionDelete:
		if err := recreateEntity(log.EntityType, log.AfterData); err != nil {
			return fmt.Errorf("could not recreate entity: %w", err)
		}

	default:
		return fmt.Errorf("this action cannot be undone")
	}

	now := time.Now()
	log.IsUndone = true
	log.UndoneBy = &userID
	log.UndoneAt = &now

	if err := database.DB.Save(&log).Error; err != nil {
		return fmt.Errorf("could not update log: %w", err)
	}

	undoLog := models.AuditLog{
		UserID:      userID,
		UserName:    userName,
		EntityType:  log.EntityType,
		EntityID:    log.EntityID,
		Action:      models.AuditActionUndo,
		Description: fmt.Sprintf("Undone: %s", log.Description),
		BeforeData:  log.AfterData,
		AfterData:   log.BeforeData,
		Undone:      true,
		IsUndone:    false,
	}

	if err := database.DB.Create(&undoLog).Error; err != nil {
		return fmt.Errorf("could not write undo log: %w", err)
	}

	return nil
}

func undoableEntity(entityType string) bool {
	switch entityType {
	case "client", "process", "bank_account", "service":
		return true
	default:
		return false
	}
}

func deleteEntity(entityType string, entityID uint) error {
	switch entityType {
	case "client":
		return database.DB.Delete(&models.Client{}, "id = ?", entityID).Error
	case "process":
		return database.DB.Delete(&models.Process{}, "id = ?", entityID).Error
	case "bank_account":
		return database.DB.Delete(&models.BankAccount{}, "id = ?", entityID).Error
	case "service":
		return database.DB.Delete(&models.Service{}, "id = ?", entityID).Error
	default:
		return fmt.Errorf("unknown entity type: %s", entityType)
	}
}

func recreateEntity(entityType string, dataJSON string) error {
	switch entityType {
	case "client":
		var client models.Client
		if err := json.Unmarshal([]byte(dataJSON), &client); err != nil {
			return err
		}
		client.ID = 0
		return database.DB.Create(&client).Error

	case "process":
		var process models.Process
		if err := json.Unmarshal([]byte(dataJSON), &process); err != nil {
			return err
		}
		process.ID = 0
		for i := range process.ThicknessPrices {
			process.ThicknessPrices[i].ID = 0
			process.ThicknessPrices[i].ProcessID = 0
		}
		return database.DB.Create(&process).Error

	case "bank_account":
		var account models.BankAccount
		if err := json.Unmarshal([]byte(dataJSON), &account); err != nil {
			return err
		}
		account.ID = 0
		return database.DB.Create(&account).Error

	case "service":
		var service models.Service
		if err := json.Unmarshal([]byte(dataJSON), &service); err != nil {
			return err
		}
		service.ID = 0
		return database.DB.Create(&service).Error

	default:
		return fmt.Errorf("unknown entity type: %s", entityType)
	}
}

func restoreEntity(entityType string, entityID uint, dataJSON string) error {
	switch entityType {
	case "client":
		var client models.Client
		if err := json.Unmarshal([]byte(dataJSON), &client); err != nil {
			return err
		}
		return database.DB.Model(&models.Client{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":       client.Name,
			"address":    client.Address,
			"city":       client.City,
			"tax_number": client.TaxNumber,
			"phone":      client.Phone,
			"email":      client.Email,
			"notes":      client.Notes,
		}).Error

	case "process":
		var process models.Process
		if err := json.Unmarshal([]byte(dataJSON), &process); err != nil {
			return err
		}
		return database.DB.Model(&models.Process{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":               process.Name,
			"description":        process.Description,
			"sort_order":         process.Order,
			"estimated_duration": process.EstimatedDuration,
			"price":              process.Price,
			"price_type":         process.PriceType,
		}).Error

	case "bank_account":
		var account models.BankAccount
		if err := json.Unmarshal([]byte(dataJSON), &account); err != nil {
			return err
		}
		return database.DB.Model(&models.BankAccount{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":        account.Name,
			"iban":        account.IBAN,
			"swift_code":  account.SwiftCode,
			"description": account.Description,
			"is_active":   account.IsActive,
		}).Error

	case "service":
		var service models.Service
		if err := json.Unmarshal([]byte(dataJSON), &service); err != nil {
			return err
		}
		return database.DB.Model(&models.Service{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":        service.Name,
			"description": service.Description,
			"price":       service.Price,
			"unit":        service.Unit,
		}).Error

	default:
		return fmt.Errorf("unknown entity type: %s", entityType)
	}
}
