package controller

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/registrations/dto"
	model "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/registrations/model"
	"github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/registrations/service"
	helper "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/helpers"
	"github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/middlewares/auth"
)

var validate = validator.New()

type RegistrationController struct {
	DB *gorm.DB
}

func NewRegistrationController(db *gorm.DB) *RegistrationController {
	return &RegistrationController{DB: db}
}

/* =========================================================
   GET /api/registrations/my  (student)
========================================================= */

func (ctl *RegistrationController) MyRegistrations(c *fiber.Ctx) error {
	userID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}

	regs, err := service.RegistrationsForUser(c.Context(), ctl.DB, userID)
	if err != nil {
		log.Println("[ERROR] list my registrations:", err)
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to list registrations")
	}
	return helper.Success(c, "OK", dto.ToRegistrationResponses(regs))
}

/* =========================================================
   GET /api/registrations/admin/all  (admin)
========================================================= */

func (ctl *RegistrationController) ListRegistrations(c *fiber.Ctx) error {
	paging := helper.ResolvePaging(c, 20, 100)

	f := service.RegistrationListFilter{
		Statuses: splitCSV(c.Query("status")),
		Limit:    paging.Limit,
		Offset:   paging.Offset,
	}
	if raw := c.Query("course_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Invalid course_id")
		}
		f.CourseID = &id
	}

	regs, total, err := service.ListRegistrations(c.Context(), ctl.DB, f)
	if err != nil {
		log.Println("[ERROR] admin list registrations:", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to list registrations")
	}

	return helper.JsonList(c, "OK",
		dto.ToRegistrationResponses(regs),
		helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage),
	)
}

/* =========================================================
   PATCH /api/registrations/:id/status  (admin)
========================================================= */

// UpdateStatus applies one admin status change from the registrations table
// view. completed is reserved for the payment reconciler and rejected here by
// the request validator.
func (ctl *RegistrationController) UpdateStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid registration id")
	}

	var req dto.UpdateRegistrationStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	reg, err := service.AdminSetStatus(c.Context(), ctl.DB, id,
		model.RegistrationStatus(req.Status), req.Note, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRegistrationNotFound):
			return helper.Error(c, fiber.StatusNotFound, "Registration not found")
		case errors.Is(err, model.ErrInvalidTransition):
			return helper.Error(c, fiber.StatusConflict, err.Error())
		default:
			log.Println("[ERROR] update registration status:", err)
			return helper.Error(c, fiber.StatusInternalServerError, "Failed to update registration")
		}
	}

	return helper.Success(c, "Registration updated", dto.ToRegistrationResponse(reg))
}

/* =========================================================
   PATCH /api/registrations/status/bulk  (admin)
========================================================= */

// BulkUpdateStatus applies one transition to many registrations; each row
// reports its own outcome so a single invalid row never sinks the batch.
func (ctl *RegistrationController) BulkUpdateStatus(c *fiber.Ctx) error {
	var req dto.BulkUpdateRegistrationStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	results := service.BulkSetStatus(c.Context(), ctl.DB, req.RegistrationIDs,
		model.RegistrationStatus(req.Status), req.Note, time.Now())

	okCount := 0
	for _, r := range results {
		if r.OK {
			okCount++
		}
	}

	return helper.Success(c, "Bulk update finished", fiber.Map{
		"updated": okCount,
		"failed":  len(results) - okCount,
		"results": results,
	})
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
