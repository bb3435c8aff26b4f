package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAdminTransitionTable(t *testing.T) {
	now := time.Now()

	cases := []struct {
		from RegistrationStatus
		to   RegistrationStatus
		ok   bool
	}{
		{RegistrationStatusPending, RegistrationStatusApproved, true},
		{RegistrationStatusPending, RegistrationStatusRejected, true},
		{RegistrationStatusApproved, RegistrationStatusRejected, true},

		{RegistrationStatusPending, RegistrationStatusCompleted, false},
		{RegistrationStatusApproved, RegistrationStatusApproved, false},
		{RegistrationStatusRejected, RegistrationStatusApproved, false},
		{RegistrationStatusRejected, RegistrationStatusPending, false},
		{RegistrationStatusCompleted, RegistrationStatusApproved, false},
		{RegistrationStatusCompleted, RegistrationStatusRejected, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			r := Registration{RegistrationStatus: tc.from}
			err := r.AdminTransition(tc.to, now)

			if tc.ok {
				require.NoError(t, err)
				require.Equal(t, tc.to, r.RegistrationStatus)
			} else {
				require.ErrorIs(t, err, ErrInvalidTransition)
				require.Equal(t, tc.from, r.RegistrationStatus)
			}
		})
	}
}

func TestAdminTransitionSetsApprovedAt(t *testing.T) {
	now := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	r := Registration{RegistrationStatus: RegistrationStatusPending}

	require.NoError(t, r.AdminTransition(RegistrationStatusApproved, now))
	require.NotNil(t, r.RegistrationApprovedAt)
	require.Equal(t, now, *r.RegistrationApprovedAt)
}

func TestCompleteOnPayment(t *testing.T) {
	now := time.Now()

	r := Registration{RegistrationStatus: RegistrationStatusApproved}
	require.True(t, r.CompleteOnPayment(now))
	require.Equal(t, RegistrationStatusCompleted, r.RegistrationStatus)
	require.NotNil(t, r.RegistrationCompletedAt)

	// payment never bypasses admin approval
	for _, from := range []RegistrationStatus{RegistrationStatusPending, RegistrationStatusRejected, RegistrationStatusCompleted} {
		r := Registration{RegistrationStatus: from}
		require.False(t, r.CompleteOnPayment(now))
		require.Equal(t, from, r.RegistrationStatus)
		require.Nil(t, r.RegistrationCompletedAt)
	}
}

func TestAppendNote(t *testing.T) {
	r := Registration{}
	r.AppendNote("verified documents")
	r.AppendNote("")
	r.AppendNote("approved after interview")

	require.Len(t, r.RegistrationNotes, 2)
	require.Equal(t, "approved after interview", r.RegistrationNotes[1])
}
