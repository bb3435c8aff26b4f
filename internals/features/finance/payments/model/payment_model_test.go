package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTransitionPendingToTerminal(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		to        PaymentStatus
		timestamp func(p *Payment) *time.Time
	}{
		{PaymentStatusSuccess, func(p *Payment) *time.Time { return p.PaymentPaidAt }},
		{PaymentStatusFailed, func(p *Payment) *time.Time { return p.PaymentFailedAt }},
		{PaymentStatusCancelled, func(p *Payment) *time.Time { return p.PaymentCancelledAt }},
	}

	for _, tc := range cases {
		t.Run(string(tc.to), func(t *testing.T) {
			p := Payment{PaymentReference: "PAY-1", PaymentStatus: PaymentStatusPending}

			require.NoError(t, p.Transition(tc.to, now))
			require.Equal(t, tc.to, p.PaymentStatus)
			require.NotNil(t, tc.timestamp(&p))
			require.Equal(t, now, *tc.timestamp(&p))
		})
	}
}

func TestTransitionTerminalIsImmutable(t *testing.T) {
	now := time.Now()

	for _, from := range []PaymentStatus{PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusCancelled} {
		for _, to := range []PaymentStatus{PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusCancelled} {
			p := Payment{PaymentReference: "PAY-2", PaymentStatus: from}

			err := p.Transition(to, now)
			require.ErrorIs(t, err, ErrInvalidTransition)
			require.Equal(t, from, p.PaymentStatus, "terminal status must not change")
		}
	}
}

func TestTransitionRejectsNonTerminalTarget(t *testing.T) {
	p := Payment{PaymentStatus: PaymentStatusPending}

	require.ErrorIs(t, p.Transition(PaymentStatusPending, time.Now()), ErrInvalidTransition)
	require.ErrorIs(t, p.Transition(PaymentStatus("refunded"), time.Now()), ErrInvalidTransition)
	require.Equal(t, PaymentStatusPending, p.PaymentStatus)
}

func TestStatusPredicates(t *testing.T) {
	require.True(t, PaymentStatusSuccess.Terminal())
	require.True(t, PaymentStatusFailed.Terminal())
	require.True(t, PaymentStatusCancelled.Terminal())
	require.False(t, PaymentStatusPending.Terminal())

	p := Payment{PaymentStatus: PaymentStatusPending}
	require.True(t, p.IsOpen())
	require.False(t, p.IsPaid())

	p.PaymentStatus = PaymentStatusSuccess
	require.True(t, p.IsPaid())
	require.False(t, p.IsOpen())
}
