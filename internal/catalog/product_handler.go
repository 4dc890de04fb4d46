package catalog

import (
	"fmt"

	"glasswork-backend/internal/audit"
	"glasswork-backend/internal/auth"
	"glasswork-backend/internal/database"
	"glasswork-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ProductProcessStepRequest struct {
	ProcessID uint `json:"process_id"`
	IsDefault bool `json:"is_default"`
}

type ProductMaterialRequest struct {
	InventoryItemID    uint                        `json:"inventory_item_id"`
	Quantity           float64                     `json:"quantity"`
	Unit               string                      `json:"unit"`
	HasProcesses       bool                        `json:"has_processes"`
	ShowOnDeliveryNote bool                        `json:"show_on_delivery_note"`
	ProcessSteps       []ProductProcessStepRequest `json:"process_steps"`
}

type ProductRequest struct {
	Name        string                   `json:"name"`
	Code        string                   `json:"code"`
	Description string                   `json:"description"`
	Price       float64                  `json:"price"`
	Materials   []ProductMaterialRequest `json:"materials"`
}

type ProductProcessStepResponse struct {
	ID          uint   `json:"id"`
	ProcessID   uint   `json:"process_id"`
	ProcessName string `json:"process_name"`
	IsDefault   bool   `json:"is_default"`
}

type ProductMaterialResponse struct {
	ID                 uint                         `json:"id"`
	InventoryItemID    uint                         `json:"inventory_item_id"`
	InventoryItemName  string                       `json:"inventory_item_name"`
	Quantity           float64                      `json:"quantity"`
	Unit               string                       `json:"unit"`
	HasProcesses       bool                         `json:"has_processes"`
	ShowOnDeliveryNote bool                         `json:"show_on_delivery_note"`
	ProcessSteps       []ProductProcessStepResponse `json:"process_steps"`
}

type ProductResponse struct {
	ID          uint                      `json:"id"`
	Name        string                    `json:"name"`
	Code        string                    `json:"code"`
	Description string                    `json:"description"`
	Price       float64                   `json:"price"`
	Materials   []ProductMaterialResponse `json:"materials"`
	CreatedAt   string                    `json:"created_at"`
}

func toProductResponse(product models.Product) ProductResponse {
	resp := ProductResponse{
		ID:          product.ID,
		Name:        product.Name,
		Code:        product.Code,
		Description: product.Description,
		Price:       product.Price,
		Materials:   make([]ProductMaterialResponse, 0, len(product.Materials)),
		CreatedAt:   product.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	for _, material := range product.Materials {
		mr := ProductMaterialResponse{
			ID:                 material.ID,
			InventoryItemID:    material.InventoryItemID,
			InventoryItemName:  material.InventoryItem.Name,
			Quantity:           material.Quantity,
			Unit:               material.Unit,
			HasProcesses:       material.HasProcesses,
			ShowOnDeliveryNote: material.ShowOnDeliveryNote,
			ProcessSteps:       make([]ProductProcessStepResponse, 0, len(material.ProcessSteps)),
		}
		for _, step := range material.ProcessSteps {
			mr.ProcessSteps = append(mr.ProcessSteps, ProductProcessStepResponse{
				ID:          step.ID,
				ProcessID:   step.ProcessID,
				ProcessName: step.Process.Name,
				IsDefault:   step.IsDefault,
			})
		}
		resp.Materials = append(resp.Materials, mr)
	}
	return resp
}

// buildMaterials validates the submitted recipe and turns it into model rows.
// Every inventory item and process must exist.
func buildMaterials(requests []ProductMaterialRequest) ([]models.ProductMaterial, error) {
	materials := make([]models.ProductMaterial, 0, len(requests))
	for _, req := range requests {
		if req.Quantity <= 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Material quantity must be positive")
		}

		var item models.InventoryItem
		if err := database.DB.First(&item, "id = ?", req.InventoryItemID).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("Inventory item %d not found", req.InventoryItemID))
		}

		material := models.ProductMaterial{
			InventoryItemID:    req.InventoryItemID,
			Quantity:           req.Quantity,
			Unit:               req.Unit,
			HasProcesses:       req.HasProcesses,
			ShowOnDeliveryNote: req.ShowOnDeliveryNote,
		}
		if material.Unit == "" {
			material.Unit = item.Unit
		}

		for _, stepReq := range req.ProcessSteps {
			var process models.Process
			if err := database.DB.First(&process, "id = ?", stepReq.ProcessID).Error; err != nil {
				return nil, fiber.NewError(fiber.StatusBadRequest,
					fmt.Sprintf("Process %d not found", stepReq.ProcessID))
			}
			material.ProcessSteps = append(material.ProcessSteps, models.ProductProcessStep{
				ProcessID: stepReq.ProcessID,
				IsDefault: stepReq.IsDefault,
			})
		}

		materials = append(materials, material)
	}
	return materials, nil
}

// POST /api/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}

		materials, err := buildMaterials(body.Materials)
		if err != nil {
			return err
		}

		product := models.Product{
			Name:        body.Name,
			Code:        body.Code,
			Description: body.Description,
			Price:       body.Price,
			Materials:   materials,
		}

		if err := database.DB.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create product")
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "product",
				EntityID:    product.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Product '%s' created with %d material(s)", product.Name, len(product.Materials)),
				After:       product,
			})
		}

		created, loadErr := loadProduct(fmt.Sprint(product.ID))
		if loadErr != nil {
			return loadErr
		}
		return c.Status(fiber.StatusCreated).JSON(toProductResponse(*created))
	}
}

// GET /api/products
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var products []models.Product
		if err := database.DB.
			Preload("Materials.InventoryItem").
			Preload("Materials.ProcessSteps.Process").
			Order("name ASC").
			Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list products")
		}

		resp := make([]ProductResponse, 0, len(products))
		for _, product := range products {
			resp = append(resp, toProductResponse(product))
		}
		return c.JSON(resp)
	}
}

// GET /api/products/:id
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		product, err := loadProduct(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(toProductResponse(*product))
	}
}

// PUT /api/products/:id
// The material recipe is replaced wholesale with the submitted set. Order
// lines already created from the old recipe keep their own copies.
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		product, err := loadProduct(c.Params("id"))
		if err != nil {
			return err
		}

		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}

		materials, err := buildMaterials(body.Materials)
		if err != nil {
			return err
		}

		before := *product

		tx := database.DB.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).Updates(map[string]interface{}{
			"name":        body.Name,
			"code":        body.Code,
			"description": body.Description,
			"price":       body.Price,
		}).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update product")
		}

		var oldMaterialIDs []uint
		if err := tx.Model(&models.ProductMaterial{}).
			Where("product_id = ?", product.ID).
			Pluck("id", &oldMaterialIDs).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update product materials")
		}
		if len(oldMaterialIDs) > 0 {
			if err := tx.Where("product_material_id IN ?", oldMaterialIDs).
				Delete(&models.ProductProcessStep{}).Error; err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Could not update product materials")
			}
			if err := tx.Where("product_id = ?", product.ID).
				Delete(&models.ProductMaterial{}).Error; err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Could not update product materials")
			}
		}

		for i := range materials {
			materials[i].ProductID = product.ID
			if err := tx.Create(&materials[i]).Error; err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Could not update product materials")
			}
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update product")
		}

		updated, err := loadProduct(c.Params("id"))
		if err != nil {
			return err
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "product",
				EntityID:    updated.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Product '%s' updated", updated.Name),
				Before:      before,
				After:       updated,
			})
		}

		return c.JSON(toProductResponse(*updated))
	}
}

// DELETE /api/products/:id
// Rejected while work order or quote lines still reference the product.
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		product, err := loadProduct(c.Params("id"))
		if err != nil {
			return err
		}

		var orderRefs int64
		database.DB.Model(&models.WorkOrderItem{}).Where("product_id = ?", product.ID).Count(&orderRefs)
		var quoteRefs int64
		database.DB.Model(&models.QuoteItem{}).Where("product_id = ?", product.ID).Count(&quoteRefs)
		if orderRefs > 0 || quoteRefs > 0 {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Product is used by %d order line(s) and %d quote line(s)", orderRefs, quoteRefs))
		}

		if err := database.DB.Delete(&models.Product{}, product.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete product")
		}

		if userID, userName, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "product",
				EntityID:    product.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Product '%s' deleted", product.Name),
				Before:      product,
			})
		}

		return c.JSON(fiber.Map{"message": "Product deleted"})
	}
}

func loadProduct(idParam string) (*models.Product, error) {
	var productID uint
	if _, err := fmt.Sscan(idParam, &productID); err != nil || productID == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid product ID")
	}

	var product models.Product
	if err := database.DB.
		Preload("Materials.InventoryItem").
		Preload("Materials.ProcessSteps.Process").
		First(&product, "id = ?", productID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Product not found")
	}
	return &product, nil
}
