package dto

import (
	"time"

	"github.com/google/uuid"

	model "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/installment_plans/model"
)

/* ===================== Requests ===================== */

// CreateInstallmentPlanRequest enrolls a student into a plan. user_id is only
// honored for admins; regular callers always enroll themselves.
type CreateInstallmentPlanRequest struct {
	UserID            uuid.UUID `json:"user_id" validate:"omitempty"`
	CourseID          uuid.UUID `json:"course_id" validate:"required"`
	TotalFeeIDR       int       `json:"total_fee_idr" validate:"required,gt=0"`
	ApplicationFeeIDR int       `json:"application_fee_idr" validate:"gte=0"`
	TotalInstallments int       `json:"total_installments" validate:"required,gt=0"`
	Cadence           string    `json:"cadence" validate:"required,oneof=weekly monthly quarterly"`
	FirstDueDate      *string   `json:"first_due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

/* ===================== Responses ===================== */

type InstallmentPlanResponse struct {
	InstallmentPlanID uuid.UUID `json:"installment_plan_id"`
	UserID            uuid.UUID `json:"user_id"`
	CourseID          uuid.UUID `json:"course_id"`

	TotalFeeIDR        int  `json:"total_fee_idr"`
	ApplicationFeeIDR  int  `json:"application_fee_idr"`
	ApplicationFeePaid bool `json:"application_fee_paid"`

	TotalInstallments      int `json:"total_installments"`
	InstallmentAmountIDR   int `json:"installment_amount_idr"`
	PaidInstallments       int `json:"paid_installments"`
	RemainingIDR           int `json:"remaining_idr"`
	ExpectedInstallmentIDR int `json:"expected_installment_idr"`

	NextDueDate *time.Time `json:"next_due_date,omitempty"`
	Cadence     string     `json:"cadence"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToInstallmentPlanResponse(p *model.InstallmentPlan) InstallmentPlanResponse {
	return InstallmentPlanResponse{
		InstallmentPlanID:      p.InstallmentPlanID,
		UserID:                 p.InstallmentPlanUserID,
		CourseID:               p.InstallmentPlanCourseID,
		TotalFeeIDR:            p.InstallmentPlanTotalFeeIDR,
		ApplicationFeeIDR:      p.InstallmentPlanApplicationFeeIDR,
		ApplicationFeePaid:     p.InstallmentPlanApplicationFeePaid,
		TotalInstallments:      p.InstallmentPlanTotalInstallments,
		InstallmentAmountIDR:   p.InstallmentPlanInstallmentAmountIDR,
		PaidInstallments:       p.InstallmentPlanPaidInstallments,
		RemainingIDR:           p.InstallmentPlanRemainingIDR,
		ExpectedInstallmentIDR: p.ExpectedInstallmentIDR(),
		NextDueDate:            p.InstallmentPlanNextDueDate,
		Cadence:                string(p.InstallmentPlanCadence),
		Status:                 string(p.InstallmentPlanStatus),
		CompletedAt:            p.InstallmentPlanCompletedAt,
		CreatedAt:              p.InstallmentPlanCreatedAt,
		UpdatedAt:              p.InstallmentPlanUpdatedAt,
	}
}

func ToInstallmentPlanResponses(plans []model.InstallmentPlan) []InstallmentPlanResponse {
	out := make([]InstallmentPlanResponse, 0, len(plans))
	for i := range plans {
		out = append(out, ToInstallmentPlanResponse(&plans[i]))
	}
	return out
}
