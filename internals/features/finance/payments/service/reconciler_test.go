package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	planModel "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/installment_plans/model"
	model "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/payments/model"
	regModel "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/registrations/model"
)

/* ===================== in-memory Stores fake ===================== */

type fakeStores struct {
	payments     map[string]*model.Payment
	plan         *planModel.InstallmentPlan
	registration *regModel.Registration

	saveCalls int
	txCalls   int
}

func newFakeStores() *fakeStores {
	return &fakeStores{payments: map[string]*model.Payment{}}
}

func (f *fakeStores) addPayment(p model.Payment) *model.Payment {
	cp := p
	f.payments[cp.PaymentReference] = &cp
	return &cp
}

func (f *fakeStores) PaymentByReference(_ context.Context, reference string) (*model.Payment, error) {
	p, ok := f.payments[reference]
	if !ok {
		return nil, ErrUnknownReference
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStores) SavePayment(_ context.Context, p *model.Payment) error {
	f.saveCalls++
	cp := *p
	f.payments[cp.PaymentReference] = &cp
	return nil
}

func (f *fakeStores) MarkApplicationFeePaid(_ context.Context, _, _ uuid.UUID) (bool, error) {
	if f.plan == nil {
		return false, planModel.ErrPlanNotActive
	}
	if _, err := f.plan.MarkApplicationFeePaid(time.Now()); err != nil {
		return false, err
	}
	return f.plan.Completed(), nil
}

func (f *fakeStores) ApplyInstallmentPayment(_ context.Context, _, _ uuid.UUID, amountIDR int) (bool, error) {
	if f.plan == nil {
		return false, planModel.ErrPlanNotActive
	}
	if err := f.plan.ApplyInstallment(amountIDR, time.Now()); err != nil {
		return false, err
	}
	return f.plan.Completed(), nil
}

func (f *fakeStores) OnPaymentCompleted(_ context.Context, _, _ uuid.UUID) (bool, error) {
	if f.registration == nil {
		return false, nil
	}
	return f.registration.CompleteOnPayment(time.Now()), nil
}

func (f *fakeStores) InTx(_ context.Context, fn func(Stores) error) error {
	f.txCalls++
	return fn(f)
}

// rivalStores simulates a concurrent delivery committing between the
// fail-fast precheck and the row lock: the rival runs right before fn gets
// the locked view.
type rivalStores struct {
	*fakeStores
	rival func()
}

func (r *rivalStores) InTx(_ context.Context, fn func(Stores) error) error {
	if r.rival != nil {
		r.rival()
		r.rival = nil
	}
	return fn(r.fakeStores)
}

/* ===================== fixtures ===================== */

var (
	studentID = uuid.New()
	courseID  = uuid.New()
)

func pendingPayment(ref string, typ model.PaymentType, amount int) model.Payment {
	return model.Payment{
		PaymentID:        uuid.New(),
		PaymentUserID:    studentID,
		PaymentCourseID:  courseID,
		PaymentReference: ref,
		PaymentAmountIDR: amount,
		PaymentCurrency:  "IDR",
		PaymentType:      typ,
		PaymentStatus:    model.PaymentStatusPending,
		PaymentMethod:    model.PaymentMethodGateway,
	}
}

func fourInstallmentPlan() *planModel.InstallmentPlan {
	return &planModel.InstallmentPlan{
		InstallmentPlanUserID:               studentID,
		InstallmentPlanCourseID:             courseID,
		InstallmentPlanTotalFeeIDR:          1_000_000,
		InstallmentPlanTotalInstallments:    4,
		InstallmentPlanInstallmentAmountIDR: 250_000,
		InstallmentPlanRemainingIDR:         1_000_000,
		InstallmentPlanCadence:              planModel.PlanCadenceMonthly,
		InstallmentPlanStatus:               planModel.PlanStatusActive,
	}
}

func successEvent(ref string, amount int) GatewayEvent {
	return GatewayEvent{
		Reference:  ref,
		Status:     model.PaymentStatusSuccess,
		AmountIDR:  amount,
		Currency:   "IDR",
		GatewayRef: "mid-" + ref,
	}
}

/* ===================== scenarios ===================== */

// Four successful installments of 250k settle a 1M plan, and the settlement
// completes the approved registration in the same pass.
func TestProcessInstallmentsToPlanCompletion(t *testing.T) {
	stores := newFakeStores()
	stores.plan = fourInstallmentPlan()
	stores.registration = &regModel.Registration{
		RegistrationUserID:   studentID,
		RegistrationCourseID: courseID,
		RegistrationStatus:   regModel.RegistrationStatusApproved,
	}
	r := NewReconciler(stores)

	for i := 1; i <= 4; i++ {
		ref := GenOrderID("PAY")
		stores.addPayment(pendingPayment(ref, model.PaymentTypeInstallment, 250_000))

		res, err := r.Process(context.Background(), successEvent(ref, 250_000))
		require.NoError(t, err)
		require.True(t, res.Applied)
		require.Equal(t, model.PaymentStatusSuccess, res.Payment.PaymentStatus)
		require.Equal(t, i, stores.plan.InstallmentPlanPaidInstallments)

		if i < 4 {
			require.False(t, res.PlanCompleted)
			require.False(t, res.RegistrationCompleted)
		} else {
			require.True(t, res.PlanCompleted)
			require.True(t, res.RegistrationCompleted)
		}
	}

	require.Equal(t, 0, stores.plan.InstallmentPlanRemainingIDR)
	require.Equal(t, planModel.PlanStatusCompleted, stores.plan.InstallmentPlanStatus)
	require.Equal(t, regModel.RegistrationStatusCompleted, stores.registration.RegistrationStatus)
}

// A success followed by a failed event for the same reference is a data
// integrity conflict; the stored record keeps its first terminal status.
func TestProcessConflictingTerminalEvent(t *testing.T) {
	stores := newFakeStores()
	ref := "PAY-CONFLICT"
	stores.addPayment(pendingPayment(ref, model.PaymentTypeCourseFee, 500_000))
	r := NewReconciler(stores)

	_, err := r.Process(context.Background(), successEvent(ref, 500_000))
	require.NoError(t, err)

	evt := successEvent(ref, 500_000)
	evt.Status = model.PaymentStatusFailed
	_, err = r.Process(context.Background(), evt)
	require.ErrorIs(t, err, ErrConflictingTransition)

	stored := stores.payments[ref]
	require.Equal(t, model.PaymentStatusSuccess, stored.PaymentStatus)
}

// Replaying the identical terminal event acknowledges without touching
// anything: no save, no second plan mutation.
func TestProcessIdenticalReplayIsNoOp(t *testing.T) {
	stores := newFakeStores()
	stores.plan = fourInstallmentPlan()
	ref := "PAY-REPLAY"
	stores.addPayment(pendingPayment(ref, model.PaymentTypeInstallment, 250_000))
	r := NewReconciler(stores)

	res, err := r.Process(context.Background(), successEvent(ref, 250_000))
	require.NoError(t, err)
	require.True(t, res.Applied)
	savesAfterFirst := stores.saveCalls

	res, err = r.Process(context.Background(), successEvent(ref, 250_000))
	require.NoError(t, err)
	require.False(t, res.Applied)
	require.Equal(t, savesAfterFirst, stores.saveCalls)
	require.Equal(t, 1, stores.plan.InstallmentPlanPaidInstallments)
}

// An event naming a reference we never issued must not create a record.
func TestProcessUnknownReference(t *testing.T) {
	stores := newFakeStores()
	r := NewReconciler(stores)

	_, err := r.Process(context.Background(), successEvent("PAY-GHOST", 100_000))
	require.ErrorIs(t, err, ErrUnknownReference)
	require.Empty(t, stores.payments)
	require.Zero(t, stores.saveCalls)
}

// A pending heartbeat is acknowledged with no writes.
func TestProcessPendingEventIsAck(t *testing.T) {
	stores := newFakeStores()
	ref := "PAY-HEARTBEAT"
	stores.addPayment(pendingPayment(ref, model.PaymentTypeCourseFee, 300_000))
	r := NewReconciler(stores)

	evt := successEvent(ref, 300_000)
	evt.Status = model.PaymentStatusPending
	res, err := r.Process(context.Background(), evt)
	require.NoError(t, err)
	require.False(t, res.Applied)
	require.Zero(t, stores.saveCalls)
	require.Equal(t, model.PaymentStatusPending, stores.payments[ref].PaymentStatus)
}

// An amount mismatch leaves the record pending for manual review.
func TestProcessAmountMismatchKeepsPending(t *testing.T) {
	stores := newFakeStores()
	ref := "PAY-MISMATCH"
	stores.addPayment(pendingPayment(ref, model.PaymentTypeCourseFee, 500_000))
	r := NewReconciler(stores)

	_, err := r.Process(context.Background(), successEvent(ref, 450_000))
	require.ErrorIs(t, err, ErrAmountMismatch)
	require.Equal(t, model.PaymentStatusPending, stores.payments[ref].PaymentStatus)
	require.Zero(t, stores.saveCalls)
}

// A failed event flips the record but must not touch the plan.
func TestProcessFailedEventHasNoSideEffects(t *testing.T) {
	stores := newFakeStores()
	stores.plan = fourInstallmentPlan()
	ref := "PAY-FAILED"
	stores.addPayment(pendingPayment(ref, model.PaymentTypeInstallment, 250_000))
	r := NewReconciler(stores)

	evt := successEvent(ref, 250_000)
	evt.Status = model.PaymentStatusFailed
	res, err := r.Process(context.Background(), evt)
	require.NoError(t, err)
	require.True(t, res.Applied)
	require.Equal(t, model.PaymentStatusFailed, stores.payments[ref].PaymentStatus)
	require.Equal(t, 0, stores.plan.InstallmentPlanPaidInstallments)
	require.Equal(t, 1_000_000, stores.plan.InstallmentPlanRemainingIDR)
}

// Application fee success: flag flips, balance drops, and redelivering a
// different reference for the same fee stays idempotent at the plan level.
func TestProcessApplicationFee(t *testing.T) {
	stores := newFakeStores()
	plan := fourInstallmentPlan()
	plan.InstallmentPlanApplicationFeeIDR = 200_000
	stores.plan = plan
	ref := "PAY-APPFEE"
	stores.addPayment(pendingPayment(ref, model.PaymentTypeApplicationFee, 200_000))
	r := NewReconciler(stores)

	res, err := r.Process(context.Background(), successEvent(ref, 200_000))
	require.NoError(t, err)
	require.True(t, res.Applied)
	require.True(t, stores.plan.InstallmentPlanApplicationFeePaid)
	require.Equal(t, 800_000, stores.plan.InstallmentPlanRemainingIDR)
}

// A rival delivery of the same success commits between the fail-fast check
// and the row lock: the locked re-check must see the terminal record and
// acknowledge without decrementing the balance a second time.
func TestProcessRivalDeliverySameStatus(t *testing.T) {
	stores := newFakeStores()
	stores.plan = fourInstallmentPlan()
	ref := "PAY-RACE-SAME"
	stores.addPayment(pendingPayment(ref, model.PaymentTypeInstallment, 250_000))

	rs := &rivalStores{fakeStores: stores}
	rs.rival = func() {
		p := stores.payments[ref]
		require.NoError(t, p.Transition(model.PaymentStatusSuccess, time.Now()))
		require.NoError(t, stores.plan.ApplyInstallment(250_000, time.Now()))
	}

	res, err := NewReconciler(rs).Process(context.Background(), successEvent(ref, 250_000))
	require.NoError(t, err)
	require.False(t, res.Applied)
	require.Equal(t, 1, stores.plan.InstallmentPlanPaidInstallments, "balance must not be decremented twice")
	require.Equal(t, 750_000, stores.plan.InstallmentPlanRemainingIDR)
	require.Zero(t, stores.saveCalls)
}

// A rival delivery commits a different terminal status first: the locked
// re-check surfaces the conflict and the record keeps the rival's status.
func TestProcessRivalDeliveryDifferentStatus(t *testing.T) {
	stores := newFakeStores()
	ref := "PAY-RACE-DIFF"
	stores.addPayment(pendingPayment(ref, model.PaymentTypeCourseFee, 500_000))

	rs := &rivalStores{fakeStores: stores}
	rs.rival = func() {
		p := stores.payments[ref]
		require.NoError(t, p.Transition(model.PaymentStatusFailed, time.Now()))
	}

	_, err := NewReconciler(rs).Process(context.Background(), successEvent(ref, 500_000))
	require.ErrorIs(t, err, ErrConflictingTransition)
	require.Equal(t, model.PaymentStatusFailed, stores.payments[ref].PaymentStatus)
	require.Zero(t, stores.saveCalls)
}

// Gateway transaction id is persisted with the transition.
func TestProcessStoresGatewayReference(t *testing.T) {
	stores := newFakeStores()
	ref := "PAY-GWREF"
	stores.addPayment(pendingPayment(ref, model.PaymentTypeCourseFee, 750_000))
	r := NewReconciler(stores)

	_, err := r.Process(context.Background(), successEvent(ref, 750_000))
	require.NoError(t, err)

	stored := stores.payments[ref]
	require.NotNil(t, stored.PaymentGatewayReference)
	require.Equal(t, "mid-"+ref, *stored.PaymentGatewayReference)
}
