package controller

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	planModel "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/installment_plans/model"
	planService "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/installment_plans/service"
	model "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/payments/model"
	"github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/payments/service"
)

func TestParseGrossAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1500000.00", 1_500_000, true},
		{"250000", 250_000, true},
		{" 99000.00 ", 99_000, true},
		{"0.00", 0, true},
		{"", 0, false},
		{"abc", 0, false},
	}

	for _, tc := range cases {
		got, err := parseGrossAmount(tc.in)
		if tc.ok {
			require.NoError(t, err, "input=%q", tc.in)
			require.Equal(t, tc.want, got, "input=%q", tc.in)
		} else {
			require.Error(t, err, "input=%q", tc.in)
		}
	}
}

// Only unexpected failures may return 500 (the gateway retries those);
// every rule violation must land in the non-retryable 4xx class.
func TestReconcileErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{service.ErrUnknownReference, fiber.StatusNotFound},
		{service.ErrConflictingTransition, fiber.StatusConflict},
		{model.ErrInvalidTransition, fiber.StatusConflict},
		{planService.ErrPlanNotFound, fiber.StatusConflict},
		{planModel.ErrPlanNotActive, fiber.StatusConflict},
		{service.ErrAmountMismatch, fiber.StatusUnprocessableEntity},
		{planModel.ErrOverpaymentRejected, fiber.StatusUnprocessableEntity},
		{errors.New("connection reset"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		code, _ := reconcileErrorStatus(tc.err)
		require.Equal(t, tc.code, code, "err=%v", tc.err)

		// wrapped the way the services annotate them
		code, _ = reconcileErrorStatus(fmt.Errorf("reference=PAY-1: %w", tc.err))
		require.Equal(t, tc.code, code, "wrapped err=%v", tc.err)
	}
}

func TestSplitCSV(t *testing.T) {
	require.Nil(t, splitCSV(""))
	require.Nil(t, splitCSV("  "))
	require.Equal(t, []string{"success"}, splitCSV("success"))
	require.Equal(t, []string{"success", "failed"}, splitCSV(" success, failed ,"))
}
