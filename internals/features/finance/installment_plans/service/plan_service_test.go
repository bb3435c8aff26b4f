package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	model "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/installment_plans/model"
)

func TestBuildPlanEvenSplit(t *testing.T) {
	plan := BuildPlan(CreatePlanInput{
		UserID:            uuid.New(),
		CourseID:          uuid.New(),
		TotalFeeIDR:       1_200_000,
		ApplicationFeeIDR: 200_000,
		TotalInstallments: 4,
		Cadence:           model.PlanCadenceMonthly,
	})

	require.Equal(t, 250_000, plan.InstallmentPlanInstallmentAmountIDR)
	require.Equal(t, 1_200_000, plan.InstallmentPlanRemainingIDR, "remaining starts at the full fee")
	require.Equal(t, 0, plan.InstallmentPlanPaidInstallments)
	require.False(t, plan.InstallmentPlanApplicationFeePaid)
	require.Equal(t, model.PlanStatusActive, plan.InstallmentPlanStatus)
}

// When the financed amount does not divide evenly the nominal installment is
// rounded up, so the last one shrinks instead of leaving a remainder.
func TestBuildPlanUnevenSplit(t *testing.T) {
	plan := BuildPlan(CreatePlanInput{
		TotalFeeIDR:       1_000_000,
		ApplicationFeeIDR: 0,
		TotalInstallments: 3,
		Cadence:           model.PlanCadenceMonthly,
	})

	require.Equal(t, 333_334, plan.InstallmentPlanInstallmentAmountIDR)

	// walking the whole schedule lands exactly on zero
	now := time.Now()
	_, err := plan.MarkApplicationFeePaid(now)
	require.NoError(t, err)
	for plan.InstallmentPlanRemainingIDR > 0 {
		require.NoError(t, plan.ApplyInstallment(plan.ExpectedInstallmentIDR(), now))
	}
	require.Equal(t, 3, plan.InstallmentPlanPaidInstallments)
	require.Equal(t, model.PlanStatusCompleted, plan.InstallmentPlanStatus)
}

func TestBuildPlanKeepsFirstDueDate(t *testing.T) {
	due := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	plan := BuildPlan(CreatePlanInput{
		TotalFeeIDR:       500_000,
		TotalInstallments: 2,
		Cadence:           model.PlanCadenceWeekly,
		FirstDueDate:      &due,
	})

	require.NotNil(t, plan.InstallmentPlanNextDueDate)
	require.Equal(t, due, *plan.InstallmentPlanNextDueDate)
	require.Equal(t, model.PlanCadenceWeekly, plan.InstallmentPlanCadence)
}
