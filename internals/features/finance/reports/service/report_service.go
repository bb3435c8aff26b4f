package service

import (
	"context"

	"gorm.io/gorm"

	planModel "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/installment_plans/model"
	paymentModel "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/payments/model"
	"github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/reports/dto"
	regModel "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/registrations/model"
)

/* =========================================================
   Finance overview aggregator (admin dashboard)
========================================================= */

type countRow struct {
	Key   string `gorm:"column:key"`
	Count int64  `gorm:"column:count"`
}

// FinanceStats aggregates the dashboard numbers in a handful of group-by
// queries. Read-only; safe to run outside a transaction.
func FinanceStats(ctx context.Context, db *gorm.DB) (*dto.FinanceStatsResponse, error) {
	out := &dto.FinanceStatsResponse{
		Payments: dto.PaymentStats{
			ByStatus: map[string]int64{},
			ByType:   map[string]int64{},
		},
		Plans: dto.PlanStats{
			ByStatus:  map[string]int64{},
			ByCadence: map[string]int64{},
		},
		Registrations: dto.RegistrationStats{
			ByStatus: map[string]int64{},
		},
	}

	if err := groupCount(ctx, db, &paymentModel.Payment{}, "payment_status", out.Payments.ByStatus); err != nil {
		return nil, err
	}
	if err := groupCount(ctx, db, &paymentModel.Payment{}, "payment_type", out.Payments.ByType); err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Model(&paymentModel.Payment{}).
		Where("payment_status = ?", paymentModel.PaymentStatusSuccess).
		Select("COALESCE(SUM(payment_amount_idr), 0)").
		Scan(&out.Payments.RevenueIDR).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&paymentModel.Payment{}).
		Where("payment_status = ?", paymentModel.PaymentStatusPending).
		Select("COALESCE(SUM(payment_amount_idr), 0)").
		Scan(&out.Payments.PendingIDR).Error; err != nil {
		return nil, err
	}

	if err := groupCount(ctx, db, &planModel.InstallmentPlan{}, "installment_plan_status", out.Plans.ByStatus); err != nil {
		return nil, err
	}
	if err := groupCount(ctx, db, &planModel.InstallmentPlan{}, "installment_plan_cadence", out.Plans.ByCadence); err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&planModel.InstallmentPlan{}).
		Where("installment_plan_status = ?", planModel.PlanStatusActive).
		Select("COALESCE(SUM(installment_plan_remaining_idr), 0)").
		Scan(&out.Plans.OutstandingIDR).Error; err != nil {
		return nil, err
	}

	if err := groupCount(ctx, db, &regModel.Registration{}, "registration_status", out.Registrations.ByStatus); err != nil {
		return nil, err
	}

	return out, nil
}

func groupCount(ctx context.Context, db *gorm.DB, model interface{}, column string, into map[string]int64) error {
	var rows []countRow
	err := db.WithContext(ctx).Model(model).
		Select(column + " AS key, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return err
	}
	for _, r := range rows {
		into[r.Key] = r.Count
	}
	return nil
}
