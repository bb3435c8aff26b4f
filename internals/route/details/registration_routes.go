package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	registrationController "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/registrations/controller"
	"github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/middlewares/auth"
)

// RegistrationUserRoutes mounts the authenticated student surface.
func RegistrationUserRoutes(api fiber.Router, db *gorm.DB) {
	ctl := registrationController.NewRegistrationController(db)

	regs := api.Group("/registrations")
	regs.Get("/my", ctl.MyRegistrations)
}

// RegistrationAdminRoutes mounts the admin registrations table (requires IsAdmin).
func RegistrationAdminRoutes(api fiber.Router, db *gorm.DB) {
	ctl := registrationController.NewRegistrationController(db)

	regs := api.Group("/registrations", auth.IsAdmin())
	regs.Get("/admin/all", ctl.ListRegistrations)
	regs.Patch("/status/bulk", ctl.BulkUpdateStatus)
	regs.Patch("/:id/status", ctl.UpdateStatus)
}
