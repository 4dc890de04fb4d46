package documents

import (
	"fmt"

	"glasswork-backend/internal/database"
	"glasswork-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type lineView struct {
	Position      int
	Name          string
	Materials     string
	Width         float64
	Height        float64
	Area          float64
	HasDimensions bool
	Quantity      int
	UnitPrice     float64
	LineTotal     float64
	Notes         string
	MaterialsList []materialView
}

type materialView struct {
	Name  string
	Steps []stepView
}

type stepView struct {
	Name      string
	Completed bool
}

type quoteView struct {
	QuoteNumber   string
	ClientName    string
	ClientAddress string
	Date          string
	ValidUntil    string
	Subtotal      float64
	VATRate       float64
	VATAmount     float64
	Total         float64
	BankName      string
	BankIBAN      string
	BankSwift     string
	Notes         string
	Items         []lineView
}

type workOrderView struct {
	OrderNumber   string
	ClientName    string
	Status        string
	Date          string
	QuoteNumber   string
	PurchaseOrder string
	Notes         string
	Items         []orderLineView
}

type orderLineView struct {
	Position      int
	Name          string
	Width         float64
	Height        float64
	Area          float64
	HasDimensions bool
	Quantity      int
	Notes         string
	Materials     []materialView
}

type deliveryNoteView struct {
	DeliveryNumber string
	ClientName     string
	ClientAddress  string
	OrderNumber    string
	Date           string
	Notes          string
	Items          []lineView
}

type labelView struct {
	OrderNumber   string
	ClientName    string
	Name          string
	Width         float64
	Height        float64
	HasDimensions bool
	Piece         int
	Total         int
}

type labelsView struct {
	OrderNumber string
	Labels      []labelView
}

// GET /api/documents/:kind/:id
// Renders a printable HTML document: quote, work-order, delivery-note,
// or labels (one cutting label per piece of a work order).
func RenderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid document ID")
		}

		var (
			page []byte
			err  error
		)
		switch c.Params("kind") {
		case "quote":
			page, err = renderQuote(id)
		case "work-order":
			page, err = renderWorkOrder(id)
		case "delivery-note":
			page, err = renderDeliveryNote(id)
		case "labels":
			page, err = renderLabels(id)
		default:
			return fiber.NewError(fiber.StatusNotFound, "Unknown document kind")
		}
		if err != nil {
			return err
		}

		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Send(page)
	}
}

func renderQuote(id uint) ([]byte, error) {
	var quote models.Quote
	if err := database.DB.
		Preload("Client").
		Preload("Items").
		First(&quote, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Quote not found")
	}

	view := quoteView{
		QuoteNumber:   quote.QuoteNumber,
		ClientName:    quote.Client.Name,
		ClientAddress: quote.Client.Address,
		Date:          quote.CreatedAt.Format("2006-01-02"),
		Subtotal:      quote.Subtotal,
		VATRate:       quote.VATRate,
		VATAmount:     quote.VATAmount,
		Total:         quote.Total,
		Notes:         quote.Notes,
	}
	if quote.ValidUntil != nil {
		view.ValidUntil = quote.ValidUntil.Format("2006-01-02")
	}
	if quote.BankAccountID != nil {
		var account models.BankAccount
		if err := database.DB.First(&account, "id = ?", *quote.BankAccountID).Error; err == nil {
			view.BankName = account.Name
			view.BankIBAN = account.IBAN
			view.BankSwift = account.SwiftCode
		}
	}
	for i, item := range quote.Items {
		view.Items = append(view.Items, lineView{
			Position:      i + 1,
			Name:          item.ProductName,
			Width:         item.Width,
			Height:        item.Height,
			Area:          item.Area,
			HasDimensions: item.Width > 0 && item.Height > 0,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			LineTotal:     item.LineTotal,
			Notes:         item.Notes,
		})
	}

	return render("quote.html", view)
}

func renderWorkOrder(id uint) ([]byte, error) {
	order, err := loadOrderTree(id)
	if err != nil {
		return nil, err
	}

	view := workOrderView{
		OrderNumber:   order.OrderNumber,
		ClientName:    order.Client.Name,
		Status:        string(order.Status),
		Date:          order.CreatedAt.Format("2006-01-02"),
		QuoteNumber:   order.QuoteNumber,
		PurchaseOrder: order.PurchaseOrder,
		Notes:         order.Notes,
	}
	for i, item := range order.Items {
		line := orderLineView{
			Position:      i + 1,
			Name:          item.ProductName,
			Width:         item.Width,
			Height:        item.Height,
			Area:          item.Area,
			HasDimensions: item.Width > 0 && item.Height > 0,
			Quantity:      item.Quantity,
			Notes:         item.Notes,
		}
		for _, material := range item.Materials {
			mv := materialView{Name: material.Name}
			for _, step := range material.ProcessSteps {
				mv.Steps = append(mv.Steps, stepView{
					Name:      step.Name,
					Completed: step.Status == models.StepStatusCompleted,
				})
			}
			line.Materials = append(line.Materials, mv)
		}
		view.Items = append(view.Items, line)
	}

	return render("work_order.html", view)
}

func renderDeliveryNote(id uint) ([]byte, error) {
	var note models.DeliveryNote
	if err := database.DB.
		Preload("Client").
		Preload("Items").
		First(&note, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Delivery note not found")
	}

	var orderNumber string
	var order models.WorkOrder
	if err := database.DB.First(&order, "id = ?", note.WorkOrderID).Error; err == nil {
		orderNumber = order.OrderNumber
	}

	view := deliveryNoteView{
		DeliveryNumber: note.DeliveryNumber,
		ClientName:     note.Client.Name,
		ClientAddress:  note.Client.Address,
		OrderNumber:    orderNumber,
		Date:           note.CreatedAt.Format("2006-01-02"),
		Notes:          note.Notes,
	}
	for i, item := range note.Items {
		view.Items = append(view.Items, lineView{
			Position:      i + 1,
			Name:          item.ProductName,
			Materials:     item.Materials,
			Width:         item.Width,
			Height:        item.Height,
			Area:          item.Area,
			HasDimensions: item.Width > 0 && item.Height > 0,
			Quantity:      item.Quantity,
			Notes:         item.Notes,
		})
	}

	return render("delivery_note.html", view)
}

func renderLabels(id uint) ([]byte, error) {
	order, err := loadOrderTree(id)
	if err != nil {
		return nil, err
	}

	view := labelsView{OrderNumber: order.OrderNumber}
	for _, item := range order.Items {
		if item.IsService {
			continue
		}
		for piece := 1; piece <= item.Quantity; piece++ {
			view.Labels = append(view.Labels, labelView{
				OrderNumber:   order.OrderNumber,
				ClientName:    order.Client.Name,
				Name:          item.ProductName,
				Width:         item.Width,
				Height:        item.Height,
				HasDimensions: item.Width > 0 && item.Height > 0,
				Piece:         piece,
				Total:         item.Quantity,
			})
		}
	}

	return render("labels.html", view)
}

func loadOrderTree(id uint) (*models.WorkOrder, error) {
	var order models.WorkOrder
	if err := database.DB.
		Preload("Client").
		Preload("Items.Materials.ProcessSteps").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Work order not found")
	}
	return &order, nil
}
