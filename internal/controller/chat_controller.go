package controller

import (
	"errors"

	"shop-assistant-be/internal/dto"
	"shop-assistant-be/internal/pkg/serverutils"
	"shop-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const UnavailableMessage = "Sorry, we could not process your message right now."

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
}

type chatController struct {
	assistantService service.IAssistantService
}

func NewChatController(assistantService service.IAssistantService) IChatController {
	return &chatController{
		assistantService: assistantService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	r.Post("/chat", c.Chat)
}

// Chat answers with the bare {response, conversationId} body expected by the
// storefront widget.
func (c *chatController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.HandleTurn(ctx.UserContext(), &req, ctx.IP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			return fiber.NewError(fiber.StatusBadRequest, "message is required")
		case errors.Is(err, service.ErrConversationNotFound):
			return fiber.NewError(fiber.StatusNotFound, "Conversation not found")
		case errors.Is(err, service.ErrAssistantUnavailable):
			return fiber.NewError(fiber.StatusServiceUnavailable, UnavailableMessage)
		}
		return err
	}

	return ctx.JSON(res)
}
