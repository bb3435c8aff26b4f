package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	planController "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/installment_plans/controller"
	paymentController "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/payments/controller"
	reportController "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/reports/controller"
	"github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/middlewares"
	"github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/middlewares/auth"
)

// FinanceWebhookRoutes mounts the public gateway callback. No auth: the
// signature check inside the handler is the trust boundary.
func FinanceWebhookRoutes(app *fiber.App, db *gorm.DB) {
	webhookCtl := paymentController.NewWebhookController(db)
	app.Post("/payments/webhook/:gateway", webhookCtl.Handle)
}

// FinanceUserRoutes mounts the authenticated student surface.
func FinanceUserRoutes(api fiber.Router, db *gorm.DB) {
	paymentCtl := paymentController.NewPaymentController(db)
	planCtl := planController.NewInstallmentPlanController(db)

	payments := api.Group("/payments")
	payments.Post("/", middlewares.PaymentInitRateLimiter(), paymentCtl.CreatePayment)
	payments.Get("/my", paymentCtl.MyPayments)

	plans := api.Group("/installment-plans")
	plans.Get("/my", planCtl.MyPlans)
	plans.Post("/", planCtl.CreatePlan)

	// keep after the static /my routes so "my" never parses as an id
	payments.Get("/:id", paymentCtl.GetPaymentByID)
}

// FinanceAdminRoutes mounts the admin finance surface (requires IsAdmin).
func FinanceAdminRoutes(api fiber.Router, db *gorm.DB) {
	adminPaymentCtl := paymentController.NewAdminPaymentController(db)
	planCtl := planController.NewInstallmentPlanController(db)
	reportCtl := reportController.NewReportController(db)

	admin := api.Group("/payments/admin", auth.IsAdmin())
	admin.Get("/all", adminPaymentCtl.ListPayments)
	admin.Get("/installment-plans", planCtl.ListPlans)
	admin.Get("/gateway-events", adminPaymentCtl.ListGatewayEvents)
	admin.Get("/stats", reportCtl.Stats)

	plans := api.Group("/installment-plans", auth.IsAdmin())
	plans.Patch("/:id/default", planCtl.MarkDefaulted)
}
