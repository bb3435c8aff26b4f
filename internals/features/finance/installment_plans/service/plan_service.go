package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	model "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/installment_plans/model"
)

/* =========================================================
   Installment Plan Tracker
========================================================= */

var (
	// ErrPlanAlreadyExists: one plan per (student, course), enforced by the
	// composite unique index.
	ErrPlanAlreadyExists = errors.New("installment plan already exists for this student and course")

	ErrPlanNotFound = errors.New("installment plan not found")
)

// CreatePlanInput is the validated payload for opening a plan.
type CreatePlanInput struct {
	UserID            uuid.UUID
	CourseID          uuid.UUID
	TotalFeeIDR       int
	ApplicationFeeIDR int
	TotalInstallments int
	Cadence           model.PlanCadence
	FirstDueDate      *time.Time
}

// BuildPlan derives the installment schedule from the inputs. The nominal
// amount is the ceiling of (totalFee − appFee) / n so the sum of n nominal
// installments always covers the balance; the final one may be smaller.
func BuildPlan(in CreatePlanInput) model.InstallmentPlan {
	financed := in.TotalFeeIDR - in.ApplicationFeeIDR
	nominal := (financed + in.TotalInstallments - 1) / in.TotalInstallments

	return model.InstallmentPlan{
		InstallmentPlanUserID:               in.UserID,
		InstallmentPlanCourseID:             in.CourseID,
		InstallmentPlanTotalFeeIDR:          in.TotalFeeIDR,
		InstallmentPlanApplicationFeeIDR:    in.ApplicationFeeIDR,
		InstallmentPlanTotalInstallments:    in.TotalInstallments,
		InstallmentPlanInstallmentAmountIDR: nominal,
		InstallmentPlanRemainingIDR:         in.TotalFeeIDR,
		InstallmentPlanNextDueDate:          in.FirstDueDate,
		InstallmentPlanCadence:              in.Cadence,
		InstallmentPlanStatus:               model.PlanStatusActive,
	}
}

// CreatePlan opens a plan; the unique index rejects a second plan for the
// same (student, course).
func CreatePlan(ctx context.Context, db *gorm.DB, in CreatePlanInput) (*model.InstallmentPlan, error) {
	plan := BuildPlan(in)
	if err := db.WithContext(ctx).Create(&plan).Error; err != nil {
		lc := strings.ToLower(err.Error())
		if strings.Contains(lc, "duplicate key") || strings.Contains(lc, "23505") {
			return nil, ErrPlanAlreadyExists
		}
		return nil, err
	}
	return &plan, nil
}

// PlanForUserCourse fetches the (single) plan for a student on a course.
func PlanForUserCourse(ctx context.Context, db *gorm.DB, userID, courseID uuid.UUID) (*model.InstallmentPlan, error) {
	var plan model.InstallmentPlan
	err := db.WithContext(ctx).
		First(&plan, "installment_plan_user_id = ? AND installment_plan_course_id = ?", userID, courseID).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// PlansForUser lists every plan a student holds, newest first.
func PlansForUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]model.InstallmentPlan, error) {
	var plans []model.InstallmentPlan
	err := db.WithContext(ctx).
		Where("installment_plan_user_id = ?", userID).
		Order("installment_plan_created_at DESC").
		Find(&plans).Error
	return plans, err
}

/* ================= balance mutations (row-locked) ================= */

// lockPlan reads the plan row FOR UPDATE. Callers must already be inside a
// transaction; serializing here is what keeps the remaining-balance math
// race-free under concurrent webhook deliveries.
func lockPlan(ctx context.Context, db *gorm.DB, userID, courseID uuid.UUID) (*model.InstallmentPlan, error) {
	var plan model.InstallmentPlan
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&plan, "installment_plan_user_id = ? AND installment_plan_course_id = ?", userID, courseID).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// ApplyInstallmentPayment books one successful installment on the plan.
// The bool reports whether the plan just completed.
func ApplyInstallmentPayment(ctx context.Context, db *gorm.DB, userID, courseID uuid.UUID, amountIDR int, now time.Time) (*model.InstallmentPlan, bool, error) {
	plan, err := lockPlan(ctx, db, userID, courseID)
	if err != nil {
		return nil, false, err
	}
	if err := plan.ApplyInstallment(amountIDR, now); err != nil {
		return nil, false, err
	}
	if err := db.WithContext(ctx).Save(plan).Error; err != nil {
		return nil, false, err
	}
	return plan, plan.Completed(), nil
}

// MarkApplicationFeePaid flips the app-fee flag and deducts it from the
// balance. Redelivery is a no-op.
func MarkApplicationFeePaid(ctx context.Context, db *gorm.DB, userID, courseID uuid.UUID, now time.Time) (*model.InstallmentPlan, bool, error) {
	plan, err := lockPlan(ctx, db, userID, courseID)
	if err != nil {
		return nil, false, err
	}
	changed, err := plan.MarkApplicationFeePaid(now)
	if err != nil {
		return nil, false, err
	}
	if changed {
		if err := db.WithContext(ctx).Save(plan).Error; err != nil {
			return nil, false, err
		}
	}
	return plan, plan.Completed(), nil
}

// MarkDefaulted is the hook for an overdue sweep (run by an external
// scheduler); only active plans move to defaulted.
func MarkDefaulted(ctx context.Context, db *gorm.DB, planID uuid.UUID) (*model.InstallmentPlan, error) {
	var plan model.InstallmentPlan
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&plan, "installment_plan_id = ?", planID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPlanNotFound
			}
			return err
		}
		if !plan.MarkDefaulted() {
			return nil
		}
		return tx.Save(&plan).Error
	})
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

/* ================= admin list ================= */

type PlanListFilter struct {
	Statuses []string
	Cadences []string
	UserID   *uuid.UUID
	CourseID *uuid.UUID
	DueFrom  *time.Time
	DueTo    *time.Time
	Order    string
	Limit    int
	Offset   int
}

func ListPlans(ctx context.Context, db *gorm.DB, f PlanListFilter) ([]model.InstallmentPlan, int64, error) {
	q := db.WithContext(ctx).Model(&model.InstallmentPlan{})

	if len(f.Statuses) > 0 {
		q = q.Where("installment_plan_status IN (?)", f.Statuses)
	}
	if len(f.Cadences) > 0 {
		q = q.Where("installment_plan_cadence IN (?)", f.Cadences)
	}
	if f.UserID != nil {
		q = q.Where("installment_plan_user_id = ?", *f.UserID)
	}
	if f.CourseID != nil {
		q = q.Where("installment_plan_course_id = ?", *f.CourseID)
	}
	if f.DueFrom != nil {
		q = q.Where("installment_plan_next_due_date >= ?", *f.DueFrom)
	}
	if f.DueTo != nil {
		q = q.Where("installment_plan_next_due_date < ?", *f.DueTo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := f.Order
	if order == "" {
		order = "installment_plan_created_at DESC"
	}

	var plans []model.InstallmentPlan
	if err := q.Order(order).Limit(f.Limit).Offset(f.Offset).Find(&plans).Error; err != nil {
		return nil, 0, err
	}
	return plans, total, nil
}
