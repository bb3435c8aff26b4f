package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/middlewares/auth"
	"github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/route/details"
)

// SetupRoutes mounts the whole HTTP surface:
//
//	/payments/webhook/*  public, signature-verified
//	/api/*               bearer-token auth; /..../admin/* additionally IsAdmin
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	details.FinanceWebhookRoutes(app, db)

	api := app.Group("/api", auth.AuthMiddleware())

	details.FinanceUserRoutes(api, db)
	details.RegistrationUserRoutes(api, db)

	details.FinanceAdminRoutes(api, db)
	details.RegistrationAdminRoutes(api, db)
}
