package middlewares

import (
	"github.com/gofiber/fiber/v2"

	loggerMiddleware "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/middlewares/logger"
)

// SetupMiddlewares wires the base middleware stack.
func SetupMiddlewares(app *fiber.App) {
	app.Use(RecoveryMiddleware())
	app.Use(CorsMiddleware())
	app.Use(loggerMiddleware.LoggerMiddleware())
	app.Use(GlobalRateLimiter())
}
