package router

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/autentika/leadgate/app/controllers"
	"github.com/autentika/leadgate/app/repository"
	"github.com/autentika/leadgate/internal/pkg/env"
	"github.com/autentika/leadgate/internal/pkg/ingest"
	"github.com/autentika/leadgate/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	factory := repository.GetGlobalFactory()
	svc := ingest.NewService(
		factory.GetLandingPageRepository(),
		factory.GetLeadRepository(),
		ingest.NewRedisDeduper(),
	)
	intake := controllers.NewIntakeController(svc)
	admin := controllers.NewAdminLandingController(factory.GetLandingPageRepository())

	api := app.Group("/api", limiter.New(publicLimiterConfig()))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "leadgate api",
		})
	})

	v1 := api.Group("/v1")
	v1.Post("/leads/intake", intake.HandleIntake)

	adminGroup := v1.Group("/admin", middleware.StaffAuthMiddleware())
	landing := adminGroup.Group("/landing-pages")
	landing.Post("/", admin.HandleCreate)
	landing.Get("/", admin.HandleList)
	landing.Get("/:id", admin.HandleGet)
	landing.Patch("/:id/active", admin.HandleSetActive)
	landing.Post("/:id/rotate-secret", admin.HandleRotateSecret)
	landing.Post("/:id/rotate-hash", admin.HandleRotateHash)
	landing.Put("/:id/allowlist", admin.HandleReplaceAllowlist)

	// Form-action alias for no-code HTML forms; shares the limiter.
	app.Post("/l/:hash", limiter.New(publicLimiterConfig()), intake.HandleIntakeByHash)
}

// publicLimiterConfig rate limits untrusted callers, keyed by client IP and
// backed by redis so limits hold across instances.
func publicLimiterConfig() limiter.Config {
	port, err := strconv.Atoi(env.GetEnv("CACHE_PORT", "6379"))
	if err != nil {
		port = 6379
	}
	storage := redis.New(redis.Config{
		Host:     env.GetEnv("CACHE_HOST", "localhost"),
		Port:     port,
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		Database: 2, // limiter gets its own database, cache uses 0
	})

	return limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		Storage:    storage,
	}
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
