package main

import (
	"log"
	"strings"

	"glasswork-backend/internal/admin"
	"glasswork-backend/internal/audit"
	"glasswork-backend/internal/auth"
	"glasswork-backend/internal/catalog"
	"glasswork-backend/internal/config"
	"glasswork-backend/internal/database"
	"glasswork-backend/internal/deliverynote"
	"glasswork-backend/internal/documents"
	"glasswork-backend/internal/inventory"
	"glasswork-backend/internal/models"
	"glasswork-backend/internal/quote"
	"glasswork-backend/internal/realtime"
	"glasswork-backend/internal/workorder"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	// Live change feed for connected frontends
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(realtime.Handler()))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin-only routes
	adminRoutes := protected.Group("")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/auth/users", auth.CreateUserHandler())

	adminRoutes.Post("/bank-accounts", admin.CreateBankAccountHandler())
	adminRoutes.Put("/bank-accounts/:id", admin.UpdateBankAccountHandler())
	adminRoutes.Delete("/bank-accounts/:id", admin.DeleteBankAccountHandler())

	adminRoutes.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler())

	// Clients
	protected.Post("/clients", catalog.CreateClientHandler())
	protected.Get("/clients", catalog.ListClientsHandler())
	protected.Get("/clients/:id", catalog.GetClientHandler())
	protected.Put("/clients/:id", catalog.UpdateClientHandler())
	protected.Delete("/clients/:id", catalog.DeleteClientHandler())

	// Products
	protected.Post("/products", catalog.CreateProductHandler())
	protected.Get("/products", catalog.ListProductsHandler())
	protected.Get("/products/:id", catalog.GetProductHandler())
	protected.Put("/products/:id", catalog.UpdateProductHandler())
	protected.Delete("/products/:id", catalog.DeleteProductHandler())

	// Processes
	protected.Post("/processes", catalog.CreateProcessHandler())
	protected.Get("/processes", catalog.ListProcessesHandler())
	protected.Get("/processes/:id", catalog.GetProcessHandler())
	protected.Put("/processes/:id", catalog.UpdateProcessHandler())
	protected.Delete("/processes/:id", catalog.DeleteProcessHandler())

	// Services
	protected.Post("/services", catalog.CreateServiceHandler())
	protected.Get("/services", catalog.ListServicesHandler())
	protected.Get("/services/:id", catalog.GetServiceHandler())
	protected.Put("/services/:id", catalog.UpdateServiceHandler())
	protected.Delete("/services/:id", catalog.DeleteServiceHandler())

	// Bank accounts (read side is open to all users, quotes need it)
	protected.Get("/bank-accounts", admin.ListBankAccountsHandler())

	// Inventory
	protected.Post("/inventory-items", inventory.CreateInventoryItemHandler())
	protected.Get("/inventory-items", inventory.ListInventoryItemsHandler())
	protected.Get("/inventory-items/:id", inventory.GetInventoryItemHandler())
	protected.Put("/inventory-items/:id", inventory.UpdateInventoryItemHandler())
	protected.Delete("/inventory-items/:id", inventory.DeleteInventoryItemHandler())
	protected.Post("/inventory-items/:id/adjust", inventory.AdjustStockHandler())
	protected.Get("/stock-transactions", inventory.ListStockTransactionsHandler())
	protected.Get("/stock-transactions/export", inventory.ExportStockTransactionsHandler())

	// Work orders
	protected.Post("/work-orders", workorder.CreateWorkOrderHandler())
	protected.Get("/work-orders", workorder.ListWorkOrdersHandler())
	protected.Get("/work-orders/:id", workorder.GetWorkOrderHandler())
	protected.Put("/work-orders/:id", workorder.UpdateWorkOrderHandler())
	protected.Delete("/work-orders/:id", workorder.DeleteWorkOrderHandler())
	protected.Post("/work-orders/:id/status", workorder.UpdateWorkOrderStatusHandler())
	protected.Get("/work-orders/:id/requirements", workorder.GetRequirementsHandler())
	protected.Post("/work-orders/:id/issue", workorder.IssueWorkOrderHandler())
	protected.Post("/work-orders/:id/archive", workorder.ArchiveWorkOrderHandler())

	// Work order lines
	protected.Post("/work-orders/:id/items", workorder.AddItemHandler())
	protected.Put("/work-orders/:id/items/:itemID", workorder.UpdateItemHandler())
	protected.Delete("/work-orders/:id/items/:itemID", workorder.DeleteItemHandler())
	protected.Post("/work-orders/:id/items/:itemID/materials/:materialID/steps", workorder.AddProcessStepHandler())
	protected.Delete("/work-orders/:id/items/:itemID/materials/:materialID/steps/:stepID", workorder.DeleteProcessStepHandler())
	protected.Put("/work-orders/:id/items/:itemID/materials/:materialID/steps/:stepID/status", workorder.UpdateStepStatusHandler())

	// Delivery notes
	protected.Get("/work-orders/:id/delivery-note/preview", deliverynote.PreviewHandler())
	protected.Post("/work-orders/:id/delivery-note", deliverynote.GenerateHandler())
	protected.Get("/delivery-notes", deliverynote.ListDeliveryNotesHandler())
	protected.Get("/delivery-notes/:id", deliverynote.GetDeliveryNoteHandler())

	// Quotes
	protected.Post("/quotes", quote.CreateQuoteHandler())
	protected.Get("/quotes", quote.ListQuotesHandler())
	protected.Get("/quotes/:id", quote.GetQuoteHandler())
	protected.Put("/quotes/:id", quote.UpdateQuoteHandler())
	protected.Delete("/quotes/:id", quote.DeleteQuoteHandler())
	protected.Post("/quotes/:id/status", quote.UpdateQuoteStatusHandler())
	protected.Post("/quotes/:id/convert", quote.ConvertQuoteHandler())

	// Printable documents
	protected.Get("/documents/:kind/:id", documents.RenderHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	log.Println("Server listening on port", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
