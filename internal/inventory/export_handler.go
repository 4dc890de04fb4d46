package inventory

import (
	"fmt"
	"time"

	"glasswork-backend/internal/database"
	"glasswork-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// GET /api/stock-transactions/export
// Streams the stock ledger as an xlsx workbook, newest first.
func ExportStockTransactionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var transactions []models.StockTransaction
		if err := database.DB.
			Preload("InventoryItem").
			Order("created_at DESC").
			Find(&transactions).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load stock transactions")
		}

		f := excelize.NewFile()
		defer func() { _ = f.Close() }()

		sheet := f.GetSheetName(f.GetActiveSheetIndex())

		header := []interface{}{
			"reference",
			"date",
			"item",
			"code",
			"type",
			"quantity",
			"unit",
			"previous_quantity",
			"new_quantity",
			"work_order_id",
			"notes",
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build export file")
		}

		row := 2
		for _, tx := range transactions {
			var workOrderID interface{}
			if tx.WorkOrderID != nil {
				workOrderID = *tx.WorkOrderID
			}
			excelRow := []interface{}{
				tx.Reference,
				tx.CreatedAt.Format("2006-01-02 15:04:05"),
				tx.InventoryItem.Name,
				tx.InventoryItem.Code,
				string(tx.Type),
				tx.Quantity,
				tx.InventoryItem.Unit,
				tx.PreviousQuantity,
				tx.NewQuantity,
				workOrderID,
				tx.Notes,
			}
			cell := fmt.Sprintf("A%d", row)
			if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not build export file")
			}
			row++
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not write export file")
		}

		filename := fmt.Sprintf("stock-transactions-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
		return c.Send(buf.Bytes())
	}
}
