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

	"github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/installment_plans/dto"
	model "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/installment_plans/model"
	"github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/installment_plans/service"
	helper "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/helpers"
	"github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/middlewares/auth"
)

var validate = validator.New()

type InstallmentPlanController struct {
	DB *gorm.DB
}

func NewInstallmentPlanController(db *gorm.DB) *InstallmentPlanController {
	return &InstallmentPlanController{DB: db}
}

/* =========================================================
   GET /api/installment-plans/my  (student)
========================================================= */

func (ctl *InstallmentPlanController) MyPlans(c *fiber.Ctx) error {
	userID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}

	plans, err := service.PlansForUser(c.Context(), ctl.DB, userID)
	if err != nil {
		log.Println("[ERROR] list my plans:", err)
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to list installment plans")
	}
	return helper.Success(c, "OK", dto.ToInstallmentPlanResponses(plans))
}

/* =========================================================
   POST /api/installment-plans  (admin)
========================================================= */

// CreatePlan opens a plan for a student on a course. Students enroll
// themselves; admins may enroll on behalf via user_id. One plan per
// (student, course); a second attempt is a 409.
func (ctl *InstallmentPlanController) CreatePlan(c *fiber.Ctx) error {
	callerID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}

	var req dto.CreateInstallmentPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	role, _ := c.Locals("role").(string)
	if role != auth.RoleAdmin || req.UserID == uuid.Nil {
		req.UserID = callerID
	}
	if req.ApplicationFeeIDR >= req.TotalFeeIDR {
		return helper.Error(c, fiber.StatusBadRequest, "application_fee_idr must be smaller than total_fee_idr")
	}

	in := service.CreatePlanInput{
		UserID:            req.UserID,
		CourseID:          req.CourseID,
		TotalFeeIDR:       req.TotalFeeIDR,
		ApplicationFeeIDR: req.ApplicationFeeIDR,
		TotalInstallments: req.TotalInstallments,
		Cadence:           model.PlanCadence(req.Cadence),
	}
	if req.FirstDueDate != nil {
		t, err := time.Parse("2006-01-02", *req.FirstDueDate)
		if err != nil {
			return helper.Error(c, fiber.StatusBadRequest, "Invalid first_due_date (want YYYY-MM-DD)")
		}
		in.FirstDueDate = &t
	}

	plan, err := service.CreatePlan(c.Context(), ctl.DB, in)
	if err != nil {
		if errors.Is(err, service.ErrPlanAlreadyExists) {
			return helper.Error(c, fiber.StatusConflict, "An installment plan already exists for this student and course")
		}
		log.Println("[ERROR] create plan:", err)
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to create installment plan")
	}

	return helper.SuccessWithCode(c, fiber.StatusCreated, "Installment plan created", dto.ToInstallmentPlanResponse(plan))
}

/* =========================================================
   GET /api/payments/admin/installment-plans  (admin)
========================================================= */

func (ctl *InstallmentPlanController) ListPlans(c *fiber.Ctx) error {
	paging := helper.ResolvePaging(c, 20, 100)

	f := service.PlanListFilter{
		Statuses: splitCSV(c.Query("status")),
		Cadences: splitCSV(c.Query("cadence")),
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
	if raw := c.Query("due_before"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Invalid due_before (want YYYY-MM-DD)")
		}
		f.DueTo = &t
	}

	plans, total, err := service.ListPlans(c.Context(), ctl.DB, f)
	if err != nil {
		log.Println("[ERROR] admin list plans:", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to list installment plans")
	}

	return helper.JsonList(c, "OK",
		dto.ToInstallmentPlanResponses(plans),
		helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage),
	)
}

/* =========================================================
   PATCH /api/installment-plans/:id/default  (admin)
========================================================= */

// MarkDefaulted flags an overdue plan; the sweep that decides which plans are
// overdue runs in the ops scheduler, this is its write endpoint.
func (ctl *InstallmentPlanController) MarkDefaulted(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid plan id")
	}

	plan, err := service.MarkDefaulted(c.Context(), ctl.DB, id)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "Installment plan not found")
		}
		log.Println("[ERROR] mark defaulted:", err)
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to update plan")
	}
	return helper.Success(c, "OK", dto.ToInstallmentPlanResponse(plan))
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
