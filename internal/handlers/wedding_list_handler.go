package handlers

import (
	"fmt"

	"giftlist/internal/models"
	"giftlist/internal/services"

	"github.com/gofiber/fiber/v2"
)

// WeddingListHandler handles HTTP requests for the wedding list.
type WeddingListHandler struct {
	service *services.RegistryService
}

// NewWeddingListHandler creates a new WeddingListHandler.
func NewWeddingListHandler(service *services.RegistryService) *WeddingListHandler {
	return &WeddingListHandler{service: service}
}

type addGiftRequest struct {
	// A missing or null product_id adds a placeholder.
	ProductID *uint `json:"product_id"`
}

type updateGiftRequest struct {
	Purchase bool `json:"purchase"`
}

// RegisterRoutes registers the wedding list routes with the Fiber app.
func (h *WeddingListHandler) RegisterRoutes(router fiber.Router) {
	listRoutes := router.Group("/wedding-list")
	listRoutes.Get("/", h.HandleGetGifts)
	listRoutes.Put("/", h.HandleAddGift)
	listRoutes.Get("/report", h.HandleGetReport)
	listRoutes.Get("/:id", h.HandleGetGift)
	listRoutes.Patch("/:id", h.HandleUpdateGift)
	listRoutes.Delete("/:id", h.HandleRemoveGift)
}

// HandleGetGifts lists the wedding list with product details.
func (h *WeddingListHandler) HandleGetGifts(c *fiber.Ctx) error {
	gifts, err := h.service.ListGifts(c.UserContext())
	if err != nil {
		return respondError(c, "Could not retrieve wedding list", err)
	}
	return c.JSON(gifts)
}

// HandleGetReport returns purchased and outstanding gifts separately.
func (h *WeddingListHandler) HandleGetReport(c *fiber.Ctx) error {
	report, err := h.service.Report(c.UserContext())
	if err != nil {
		return respondError(c, "Could not build wedding list report", err)
	}
	return c.JSON(report)
}

// HandleGetGift retrieves a single wedding list entry.
func (h *WeddingListHandler) HandleGetGift(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, "Invalid gift ID", err)
	}
	entry, err := h.service.GetEntry(c.UserContext(), id)
	if err != nil {
		return respondError(c, "Could not retrieve gift", err)
	}
	return c.JSON(entry)
}

// HandleAddGift puts a product on the wedding list.
func (h *WeddingListHandler) HandleAddGift(c *fiber.Ctx) error {
	var req addGiftRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return respondBadBody(c, err)
		}
	}
	if req.ProductID != nil && *req.ProductID == 0 {
		return respondError(c, "Invalid product ID", fmt.Errorf("%w: product_id must be positive", models.ErrValidation))
	}

	id, err := h.service.AddEntry(c.UserContext(), req.ProductID)
	if err != nil {
		return respondError(c, "Could not add gift", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"gift_id": id})
}

// HandleUpdateGift purchases a gift. Only {"purchase": true} is accepted;
// purchases cannot be undone.
func (h *WeddingListHandler) HandleUpdateGift(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, "Invalid gift ID", err)
	}
	var req updateGiftRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if !req.Purchase {
		return respondError(c, "Unsupported gift update", fmt.Errorf("%w: only purchase=true is supported", models.ErrValidation))
	}

	if err := h.service.Purchase(c.UserContext(), id); err != nil {
		return respondError(c, "Could not purchase gift", err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Gift %d purchased", id),
	})
}

// HandleRemoveGift takes an unpurchased gift off the wedding list.
func (h *WeddingListHandler) HandleRemoveGift(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, "Invalid gift ID", err)
	}
	if err := h.service.RemoveEntry(c.UserContext(), id); err != nil {
		return respondError(c, "Could not remove gift", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
