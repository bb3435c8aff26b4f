package controller

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	planService "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/installment_plans/service"
	"github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/payments/dto"
	model "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/payments/model"
	"github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/payments/service"
	helper "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/helpers"
	"github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/middlewares/auth"
)

var validate = validator.New()

type PaymentController struct {
	DB     *gorm.DB
	Stores *service.GormStores
}

func NewPaymentController(db *gorm.DB) *PaymentController {
	return &PaymentController{
		DB:     db,
		Stores: service.NewGormStores(db),
	}
}

/* =========================================================
   POST /api/payments  (student)
========================================================= */

// CreatePayment opens a pending record and a Snap checkout session. The
// amount for application_fee and installment payments is resolved from the
// student's plan, never trusted from the client.
func (ctl *PaymentController) CreatePayment(c *fiber.Ctx) error {
	userID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}

	var req dto.CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	p := model.Payment{
		PaymentUserID:   userID,
		PaymentCourseID: req.CourseID,
		PaymentCurrency: "IDR",
		PaymentType:     model.PaymentType(req.Type),
		PaymentMethod:   model.PaymentMethodGateway,
	}
	if req.Description != "" {
		desc := req.Description
		p.PaymentDescription = &desc
	}

	switch p.PaymentType {
	case model.PaymentTypeInstallment:
		plan, err := planService.PlanForUserCourse(c.Context(), ctl.DB, userID, req.CourseID)
		if err != nil {
			if errors.Is(err, planService.ErrPlanNotFound) {
				return helper.Error(c, fiber.StatusNotFound, "No installment plan for this course")
			}
			return helper.Error(c, fiber.StatusInternalServerError, "Failed to load installment plan")
		}
		if plan.InstallmentPlanStatus != "active" {
			return helper.Error(c, fiber.StatusConflict, "Installment plan is not active")
		}
		expected := plan.ExpectedInstallmentIDR()
		if expected <= 0 {
			return helper.Error(c, fiber.StatusConflict, "Installment plan has no remaining balance")
		}
		p.PaymentAmountIDR = expected
		n := plan.InstallmentPlanPaidInstallments + 1
		total := plan.InstallmentPlanTotalInstallments
		p.PaymentInstallmentNumber = &n
		p.PaymentTotalInstallments = &total

	case model.PaymentTypeApplicationFee:
		plan, err := planService.PlanForUserCourse(c.Context(), ctl.DB, userID, req.CourseID)
		if err != nil {
			if errors.Is(err, planService.ErrPlanNotFound) {
				return helper.Error(c, fiber.StatusNotFound, "No installment plan for this course")
			}
			return helper.Error(c, fiber.StatusInternalServerError, "Failed to load installment plan")
		}
		if plan.InstallmentPlanApplicationFeePaid {
			return helper.Error(c, fiber.StatusConflict, "Application fee already paid")
		}
		if plan.InstallmentPlanApplicationFeeIDR <= 0 {
			return helper.Error(c, fiber.StatusConflict, "This plan has no application fee")
		}
		p.PaymentAmountIDR = plan.InstallmentPlanApplicationFeeIDR

	case model.PaymentTypeCourseFee:
		if req.AmountIDR <= 0 {
			return helper.Error(c, fiber.StatusBadRequest, "amount_idr is required for course_fee payments")
		}
		p.PaymentAmountIDR = req.AmountIDR

	default:
		return helper.Error(c, fiber.StatusBadRequest, "Unknown payment type")
	}

	p.PaymentReference = service.GenOrderID("PAY")

	if err := ctl.Stores.CreatePending(c.Context(), &p); err != nil {
		if errors.Is(err, service.ErrDuplicateReference) {
			// a reference collision is a same-millisecond retry; ask the client to retry
			return helper.Error(c, fiber.StatusConflict, "Payment reference collision, please retry")
		}
		log.Println("[ERROR] create payment:", err)
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to create payment")
	}

	token, redirectURL, err := service.GenerateSnapToken(p, service.CustomerInput{
		FirstName: req.CustomerFirstName,
		LastName:  req.CustomerLastName,
		Email:     req.CustomerEmail,
		Phone:     req.CustomerPhone,
	})
	if err != nil {
		// the pending record survives; the student can re-open checkout later
		log.Println("[ERROR] snap token:", err)
		return helper.Error(c, fiber.StatusBadGateway, "Payment gateway unavailable, please try again")
	}

	p.PaymentCheckoutURL = &redirectURL
	p.PaymentMeta = map[string]interface{}{"snap_token": token}
	if err := ctl.Stores.SavePayment(c.Context(), &p); err != nil {
		log.Println("[ERROR] save checkout url:", err)
	}

	return helper.SuccessWithCode(c, fiber.StatusCreated, "Payment created", dto.CheckoutResponse{
		Payment:     dto.ToPaymentResponse(&p),
		SnapToken:   token,
		RedirectURL: redirectURL,
	})
}

/* =========================================================
   GET /api/payments/:id
========================================================= */

func (ctl *PaymentController) GetPaymentByID(c *fiber.Ctx) error {
	userID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid payment id")
	}

	p, err := ctl.Stores.PaymentByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUnknownReference) {
			return helper.Error(c, fiber.StatusNotFound, "Payment not found")
		}
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load payment")
	}

	role, _ := c.Locals("role").(string)
	if p.PaymentUserID != userID && role != auth.RoleAdmin {
		return helper.Error(c, fiber.StatusForbidden, "Not your payment")
	}

	return helper.Success(c, "OK", dto.ToPaymentResponse(p))
}

/* =========================================================
   GET /api/payments/my
========================================================= */

func (ctl *PaymentController) MyPayments(c *fiber.Ctx) error {
	userID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}

	paging := helper.ResolvePaging(c, 20, 100)

	f := service.ListFilter{
		UserID: &userID,
		Limit:  paging.Limit,
		Offset: paging.Offset,
	}
	if s := c.Query("status"); s != "" {
		f.Statuses = splitCSV(s)
	}
	if t := c.Query("type"); t != "" {
		f.Types = splitCSV(t)
	}

	rows, total, err := ctl.Stores.ListForAdmin(c.Context(), f)
	if err != nil {
		log.Println("[ERROR] list my payments:", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to list payments")
	}

	return helper.JsonList(c, "OK",
		dto.ToPaymentResponses(rows),
		helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage),
	)
}
