package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/reports/service"
	helper "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/helpers"
)

type ReportController struct {
	DB *gorm.DB
}

func NewReportController(db *gorm.DB) *ReportController {
	return &ReportController{DB: db}
}

// Stats serves GET /api/payments/admin/stats for the finance dashboard.
func (ctl *ReportController) Stats(c *fiber.Ctx) error {
	stats, err := service.FinanceStats(c.Context(), ctl.DB)
	if err != nil {
		log.Println("[ERROR] finance stats:", err)
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to build stats")
	}
	return helper.Success(c, "OK", stats)
}
