package controller

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/payments/dto"
	model "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/payments/model"
	"github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/payments/service"
	helper "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/helpers"
)

/* =========================================================
   Admin: payment ledger (read-only)
========================================================= */

type AdminPaymentController struct {
	DB     *gorm.DB
	Stores *service.GormStores
}

func NewAdminPaymentController(db *gorm.DB) *AdminPaymentController {
	return &AdminPaymentController{DB: db, Stores: service.NewGormStores(db)}
}

// ListPayments serves GET /api/payments/admin/all with CSV filters:
// ?status=success,failed&type=installment&user_id=&course_id=&from=&to=&q=
func (ctl *AdminPaymentController) ListPayments(c *fiber.Ctx) error {
	paging := helper.ResolvePaging(c, 20, 100)

	f := service.ListFilter{
		Statuses: splitCSV(c.Query("status")),
		Types:    splitCSV(c.Query("type")),
		Search:   c.Query("q"),
		Limit:    paging.Limit,
		Offset:   paging.Offset,
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Invalid user_id")
		}
		f.UserID = &id
	}
	if raw := c.Query("course_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Invalid course_id")
		}
		f.CourseID = &id
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Invalid from date (want YYYY-MM-DD)")
		}
		f.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Invalid to date (want YYYY-MM-DD)")
		}
		// inclusive day
		t = t.AddDate(0, 0, 1)
		f.To = &t
	}

	rows, total, err := ctl.Stores.ListForAdmin(c.Context(), f)
	if err != nil {
		log.Println("[ERROR] admin list payments:", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to list payments")
	}

	return helper.JsonList(c, "OK",
		dto.ToPaymentResponses(rows),
		helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage),
	)
}

// ListGatewayEvents serves GET /api/payments/admin/gateway-events:
// the raw webhook delivery log, newest first.
func (ctl *AdminPaymentController) ListGatewayEvents(c *fiber.Ctx) error {
	paging := helper.ResolvePaging(c, 20, 100)

	q := ctl.DB.WithContext(c.Context()).Model(&model.PaymentGatewayEvent{})
	if statuses := splitCSV(c.Query("status")); len(statuses) > 0 {
		q = q.Where("gateway_event_status IN (?)", statuses)
	}
	if ref := strings.TrimSpace(c.Query("reference")); ref != "" {
		q = q.Where("gateway_event_reference = ?", ref)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to count events")
	}

	var events []model.PaymentGatewayEvent
	if err := q.Order("gateway_event_received_at DESC").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&events).Error; err != nil {
		log.Println("[ERROR] list gateway events:", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to list events")
	}

	return helper.JsonList(c, "OK",
		dto.ToGatewayEventResponses(events),
		helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage),
	)
}

/* ================= utils ================= */

func splitCSV(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
