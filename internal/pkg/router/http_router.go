package router

import (
	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

// InstallRouter registers the plain HTTP surface: a liveness probe. The
// gateway is headless; everything else lives under /api and /l.
func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
