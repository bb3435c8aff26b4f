package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func activePlan() InstallmentPlan {
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	return InstallmentPlan{
		InstallmentPlanTotalFeeIDR:          1_000_000,
		InstallmentPlanApplicationFeeIDR:    200_000,
		InstallmentPlanTotalInstallments:    4,
		InstallmentPlanInstallmentAmountIDR: 200_000,
		InstallmentPlanRemainingIDR:         1_000_000,
		InstallmentPlanNextDueDate:          &due,
		InstallmentPlanCadence:              PlanCadenceMonthly,
		InstallmentPlanStatus:               PlanStatusActive,
	}
}

// conservation: remaining = totalFee − (appFeePaid ? appFee : 0) − paid × amount
func checkConservation(t *testing.T, p *InstallmentPlan) {
	t.Helper()
	expected := p.InstallmentPlanTotalFeeIDR
	if p.InstallmentPlanApplicationFeePaid {
		expected -= p.InstallmentPlanApplicationFeeIDR
	}
	expected -= p.InstallmentPlanPaidInstallments * p.InstallmentPlanInstallmentAmountIDR
	require.Equal(t, expected, p.InstallmentPlanRemainingIDR)
	require.GreaterOrEqual(t, p.InstallmentPlanRemainingIDR, 0)
}

func TestFullLifecycleToCompleted(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	p := activePlan()

	changed, err := p.MarkApplicationFeePaid(now)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, 800_000, p.InstallmentPlanRemainingIDR)
	checkConservation(t, &p)

	for i := 1; i <= 4; i++ {
		require.NoError(t, p.ApplyInstallment(200_000, now))
		require.Equal(t, i, p.InstallmentPlanPaidInstallments)
		checkConservation(t, &p)
	}

	require.Equal(t, 0, p.InstallmentPlanRemainingIDR)
	require.Equal(t, PlanStatusCompleted, p.InstallmentPlanStatus)
	require.NotNil(t, p.InstallmentPlanCompletedAt)
	require.Nil(t, p.InstallmentPlanNextDueDate)
}

func TestApplyInstallmentRejectsOverpayment(t *testing.T) {
	now := time.Now()
	p := activePlan()
	p.InstallmentPlanRemainingIDR = 150_000

	before := p
	err := p.ApplyInstallment(200_000, now)
	require.ErrorIs(t, err, ErrOverpaymentRejected)
	require.Equal(t, before, p, "rejected payment must leave the plan untouched")
}

func TestApplyInstallmentRejectsNonPositiveAmount(t *testing.T) {
	p := activePlan()
	require.ErrorIs(t, p.ApplyInstallment(0, time.Now()), ErrOverpaymentRejected)
	require.ErrorIs(t, p.ApplyInstallment(-500, time.Now()), ErrOverpaymentRejected)
}

func TestApplyInstallmentRejectsInactivePlan(t *testing.T) {
	for _, status := range []PlanStatus{PlanStatusCompleted, PlanStatusDefaulted, PlanStatusCancelled} {
		p := activePlan()
		p.InstallmentPlanStatus = status

		err := p.ApplyInstallment(200_000, time.Now())
		require.ErrorIs(t, err, ErrPlanNotActive)
		require.Equal(t, 1_000_000, p.InstallmentPlanRemainingIDR)
	}
}

func TestMarkApplicationFeePaidIsIdempotent(t *testing.T) {
	now := time.Now()
	p := activePlan()

	changed, err := p.MarkApplicationFeePaid(now)
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = p.MarkApplicationFeePaid(now)
	require.NoError(t, err)
	require.False(t, changed, "redelivery must be a no-op")
	require.Equal(t, 800_000, p.InstallmentPlanRemainingIDR)
}

func TestMarkApplicationFeePaidRejectsWhenFeeExceedsRemaining(t *testing.T) {
	p := activePlan()
	p.InstallmentPlanRemainingIDR = 100_000 // smaller than the 200k app fee

	changed, err := p.MarkApplicationFeePaid(time.Now())
	require.ErrorIs(t, err, ErrOverpaymentRejected)
	require.False(t, changed)
	require.False(t, p.InstallmentPlanApplicationFeePaid)
}

func TestExpectedInstallmentShrinksAtTheTail(t *testing.T) {
	p := activePlan()
	require.Equal(t, 200_000, p.ExpectedInstallmentIDR())

	p.InstallmentPlanRemainingIDR = 120_000
	require.Equal(t, 120_000, p.ExpectedInstallmentIDR())
}

func TestApplyInstallmentAdvancesDueDate(t *testing.T) {
	now := time.Now()
	p := activePlan()
	first := *p.InstallmentPlanNextDueDate

	require.NoError(t, p.ApplyInstallment(200_000, now))
	require.Equal(t, first.AddDate(0, 1, 0), *p.InstallmentPlanNextDueDate)
}

func TestNextDueDateCadences(t *testing.T) {
	from := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	require.Equal(t, from.AddDate(0, 0, 7), NextDueDate(from, PlanCadenceWeekly))
	require.Equal(t, from.AddDate(0, 1, 0), NextDueDate(from, PlanCadenceMonthly))
	require.Equal(t, from.AddDate(0, 3, 0), NextDueDate(from, PlanCadenceQuarterly))
}

func TestMarkDefaulted(t *testing.T) {
	p := activePlan()
	require.True(t, p.MarkDefaulted())
	require.Equal(t, PlanStatusDefaulted, p.InstallmentPlanStatus)

	require.False(t, p.MarkDefaulted(), "only active plans can default")

	done := activePlan()
	done.InstallmentPlanStatus = PlanStatusCompleted
	require.False(t, done.MarkDefaulted())
}
