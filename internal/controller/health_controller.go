package controller

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	db Pinger
}

func NewHealthController(db Pinger) IHealthController {
	return &healthController{db: db}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	status := fiber.Map{"status": "ok", "database": "ok"}
	if c.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
		defer cancel()
		if err := c.db(pingCtx); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(status)
		}
	}
	return ctx.JSON(status)
}
