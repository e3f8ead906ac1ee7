package controller

import (
	"errors"

	"shop-assistant-be/internal/dto"
	"shop-assistant-be/internal/pkg/serverutils"
	"shop-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router, middleware ...fiber.Handler)
	ListConversations(ctx *fiber.Ctx) error
	ShowConversation(ctx *fiber.Ctx) error
	ReindexProduct(ctx *fiber.Ctx) error
}

type adminController struct {
	conversationService service.IConversationService
	catalogService      service.ICatalogService
}

func NewAdminController(conversationService service.IConversationService, catalogService service.ICatalogService) IAdminController {
	return &adminController{
		conversationService: conversationService,
		catalogService:      catalogService,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router, middleware ...fiber.Handler) {
	h := r.Group("/admin")
	for _, m := range middleware {
		h.Use(m)
	}
	h.Get("/conversations", c.ListConversations)
	h.Get("/conversations/:id", c.ShowConversation)
	h.Post("/catalog/:id/reindex", c.ReindexProduct)
}

func (c *adminController) ListConversations(ctx *fiber.Ctx) error {
	var req dto.ConversationListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}

	res, err := c.conversationService.List(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Conversations", res))
}

func (c *adminController) ShowConversation(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid conversation id")
	}

	res, err := c.conversationService.Show(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Conversation not found")
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Conversation", res))
}

func (c *adminController) ReindexProduct(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid product id")
	}

	res, err := c.catalogService.RequestReindex(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Product queued for reindex", res))
}
