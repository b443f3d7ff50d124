package handlers

import (
	"giftlist/internal/models"
	"giftlist/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	service  *services.CatalogService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.CatalogService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

type createProductRequest struct {
	Name            string `json:"name" validate:"required"`
	Brand           string `json:"brand" validate:"required"`
	Price           *int64 `json:"price" validate:"required"`
	InStockQuantity *int   `json:"in_stock_quantity" validate:"required"`
}

type adjustStockRequest struct {
	Delta *int `json:"delta" validate:"required"`
}

type restockRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
	productRoutes.Patch("/:id/stock", h.HandleAdjustStock)
	productRoutes.Post("/:id/restock", h.HandleRestock)
}

// HandleGetProducts lists the catalog.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products := []models.Product{}
	for product, err := range h.service.ListProducts(c.UserContext()) {
		if err != nil {
			return respondError(c, "Could not retrieve products", err)
		}
		products = append(products, product)
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, "Invalid product ID", err)
	}
	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return respondError(c, "Could not retrieve product", err)
	}
	return c.JSON(product)
}

// HandleCreateProduct adds a product to the catalog.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req createProductRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	id, err := h.service.AddProduct(c.UserContext(), req.Name, req.Brand, *req.Price, *req.InStockQuantity)
	if err != nil {
		return respondError(c, "Could not create product", err)
	}
	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return respondError(c, "Could not retrieve created product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleAdjustStock applies a signed change to a product's stock.
func (h *ProductHandler) HandleAdjustStock(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, "Invalid product ID", err)
	}
	var req adjustStockRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	qty, err := h.service.AdjustStock(c.UserContext(), id, *req.Delta)
	if err != nil {
		return respondError(c, "Could not adjust stock", err)
	}
	return c.JSON(fiber.Map{"id": id, "in_stock_quantity": qty})
}

// HandleRestock adds units to a product's stock.
func (h *ProductHandler) HandleRestock(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, "Invalid product ID", err)
	}
	var req restockRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	qty, err := h.service.Restock(c.UserContext(), id, req.Quantity)
	if err != nil {
		return respondError(c, "Could not restock product", err)
	}
	return c.JSON(fiber.Map{"id": id, "in_stock_quantity": qty})
}

// HandleDeleteProduct removes a product no gift refers to.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, "Invalid product ID", err)
	}
	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		return respondError(c, "Could not delete product", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
