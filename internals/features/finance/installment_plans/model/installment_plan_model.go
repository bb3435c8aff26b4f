package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ===================== Enums (string) ===================== */

type PlanStatus string
type PlanCadence string

const (
	PlanStatusActive    PlanStatus = "active"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusDefaulted PlanStatus = "defaulted"
	PlanStatusCancelled PlanStatus = "cancelled"
)

const (
	PlanCadenceWeekly    PlanCadence = "weekly"
	PlanCadenceMonthly   PlanCadence = "monthly"
	PlanCadenceQuarterly PlanCadence = "quarterly"
)

func (c PlanCadence) Valid() bool {
	switch c {
	case PlanCadenceWeekly, PlanCadenceMonthly, PlanCadenceQuarterly:
		return true
	default:
		return false
	}
}

var (
	ErrPlanNotActive       = errors.New("installment plan is not active")
	ErrOverpaymentRejected = errors.New("payment would drive remaining balance negative")
)

/* ===================== Model ===================== */

// InstallmentPlan is the single source of truth for a student's remaining
// balance on a course. Invariant held at all times:
//
//	remaining = totalFee − (appFeePaid ? appFee : 0) − paidInstallments × installmentAmount
//
// (final installment may be smaller when the fee does not divide evenly, in
// which case remaining simply hits zero earlier).
type InstallmentPlan struct {
	InstallmentPlanID uuid.UUID `gorm:"column:installment_plan_id;type:uuid;default:gen_random_uuid();primaryKey" json:"installment_plan_id"`

	InstallmentPlanUserID   uuid.UUID `gorm:"column:installment_plan_user_id;type:uuid;not null;uniqueIndex:uq_installment_plans_user_course" json:"installment_plan_user_id"`
	InstallmentPlanCourseID uuid.UUID `gorm:"column:installment_plan_course_id;type:uuid;not null;uniqueIndex:uq_installment_plans_user_course" json:"installment_plan_course_id"`

	InstallmentPlanTotalFeeIDR       int  `gorm:"column:installment_plan_total_fee_idr;not null;check:installment_plan_total_fee_idr >= 0" json:"installment_plan_total_fee_idr"`
	InstallmentPlanApplicationFeeIDR int  `gorm:"column:installment_plan_application_fee_idr;not null;default:0" json:"installment_plan_application_fee_idr"`
	InstallmentPlanApplicationFeePaid bool `gorm:"column:installment_plan_application_fee_paid;not null;default:false" json:"installment_plan_application_fee_paid"`

	InstallmentPlanTotalInstallments    int `gorm:"column:installment_plan_total_installments;not null;check:installment_plan_total_installments > 0" json:"installment_plan_total_installments"`
	InstallmentPlanInstallmentAmountIDR int `gorm:"column:installment_plan_installment_amount_idr;not null" json:"installment_plan_installment_amount_idr"`
	InstallmentPlanPaidInstallments     int `gorm:"column:installment_plan_paid_installments;not null;default:0" json:"installment_plan_paid_installments"`
	InstallmentPlanRemainingIDR         int `gorm:"column:installment_plan_remaining_idr;not null;check:installment_plan_remaining_idr >= 0" json:"installment_plan_remaining_idr"`

	InstallmentPlanNextDueDate *time.Time  `gorm:"column:installment_plan_next_due_date" json:"installment_plan_next_due_date,omitempty"`
	InstallmentPlanCadence     PlanCadence `gorm:"column:installment_plan_cadence;type:plan_cadence;not null" json:"installment_plan_cadence"`
	InstallmentPlanStatus      PlanStatus  `gorm:"column:installment_plan_status;type:plan_status;not null;default:'active'" json:"installment_plan_status"`

	InstallmentPlanCompletedAt *time.Time `gorm:"column:installment_plan_completed_at" json:"installment_plan_completed_at,omitempty"`

	InstallmentPlanCreatedAt time.Time      `gorm:"column:installment_plan_created_at;autoCreateTime" json:"installment_plan_created_at"`
	InstallmentPlanUpdatedAt time.Time      `gorm:"column:installment_plan_updated_at;autoUpdateTime" json:"installment_plan_updated_at"`
	InstallmentPlanDeletedAt gorm.DeletedAt `gorm:"column:installment_plan_deleted_at;index" json:"installment_plan_deleted_at,omitempty"`
}

func (InstallmentPlan) TableName() string { return "installment_plans" }

/* ===================== Balance math ===================== */

// ExpectedInstallmentIDR is the amount the next installment must carry.
func (p *InstallmentPlan) ExpectedInstallmentIDR() int {
	if p.InstallmentPlanRemainingIDR < p.InstallmentPlanInstallmentAmountIDR {
		return p.InstallmentPlanRemainingIDR
	}
	return p.InstallmentPlanInstallmentAmountIDR
}

// ApplyInstallment books one successful installment payment: remaining goes
// down by amount, paid count goes up by one. Rejections leave the plan
// untouched.
func (p *InstallmentPlan) ApplyInstallment(amountIDR int, now time.Time) error {
	if p.InstallmentPlanStatus != PlanStatusActive {
		return fmt.Errorf("%w: plan=%s status=%s", ErrPlanNotActive, p.InstallmentPlanID, p.InstallmentPlanStatus)
	}
	if amountIDR <= 0 || amountIDR > p.InstallmentPlanRemainingIDR {
		return fmt.Errorf("%w: amount=%d remaining=%d", ErrOverpaymentRejected, amountIDR, p.InstallmentPlanRemainingIDR)
	}
	if p.InstallmentPlanPaidInstallments >= p.InstallmentPlanTotalInstallments {
		return fmt.Errorf("%w: all %d installments already paid", ErrOverpaymentRejected, p.InstallmentPlanTotalInstallments)
	}

	p.InstallmentPlanRemainingIDR -= amountIDR
	p.InstallmentPlanPaidInstallments++
	p.advanceDueDate()
	p.settleIfCleared(now)
	return nil
}

// MarkApplicationFeePaid flips the one-way flag and deducts the fee from the
// balance. Idempotent: a redelivered gateway event is a no-op, not an error.
func (p *InstallmentPlan) MarkApplicationFeePaid(now time.Time) (bool, error) {
	if p.InstallmentPlanApplicationFeePaid {
		return false, nil
	}
	if p.InstallmentPlanStatus != PlanStatusActive {
		return false, fmt.Errorf("%w: plan=%s status=%s", ErrPlanNotActive, p.InstallmentPlanID, p.InstallmentPlanStatus)
	}

	if p.InstallmentPlanApplicationFeeIDR > p.InstallmentPlanRemainingIDR {
		return false, fmt.Errorf("%w: application fee=%d remaining=%d",
			ErrOverpaymentRejected, p.InstallmentPlanApplicationFeeIDR, p.InstallmentPlanRemainingIDR)
	}

	p.InstallmentPlanApplicationFeePaid = true
	p.InstallmentPlanRemainingIDR -= p.InstallmentPlanApplicationFeeIDR
	p.settleIfCleared(now)
	return true, nil
}

// MarkDefaulted is the hook for the external overdue sweep; only active plans
// can default.
func (p *InstallmentPlan) MarkDefaulted() bool {
	if p.InstallmentPlanStatus != PlanStatusActive {
		return false
	}
	p.InstallmentPlanStatus = PlanStatusDefaulted
	return true
}

func (p *InstallmentPlan) Completed() bool {
	return p.InstallmentPlanStatus == PlanStatusCompleted
}

func (p *InstallmentPlan) settleIfCleared(now time.Time) {
	if p.InstallmentPlanRemainingIDR == 0 {
		p.InstallmentPlanStatus = PlanStatusCompleted
		p.InstallmentPlanCompletedAt = &now
		p.InstallmentPlanNextDueDate = nil
	}
}

func (p *InstallmentPlan) advanceDueDate() {
	if p.InstallmentPlanNextDueDate == nil {
		return
	}
	next := NextDueDate(*p.InstallmentPlanNextDueDate, p.InstallmentPlanCadence)
	p.InstallmentPlanNextDueDate = &next
}

// NextDueDate advances a due date by one cadence period.
func NextDueDate(from time.Time, cadence PlanCadence) time.Time {
	switch cadence {
	case PlanCadenceWeekly:
		return from.AddDate(0, 0, 7)
	case PlanCadenceQuarterly:
		return from.AddDate(0, 3, 0)
	default: // monthly
		return from.AddDate(0, 1, 0)
	}
}
