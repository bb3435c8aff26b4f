package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	model "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/payments/model"
)

/* =========================================================
   Gateway Webhook Reconciler
   Maps asynchronous gateway events onto internal payment
   state. All cross-entity writes happen inside one
   transaction so a success can never be recorded with the
   plan balance left untouched (or the reverse).
========================================================= */

// GatewayEvent is a provider-agnostic webhook notification, already
// signature-verified and status-mapped by the transport layer.
type GatewayEvent struct {
	Reference  string
	Status     model.PaymentStatus // success | failed | cancelled | pending
	AmountIDR  int
	Currency   string
	GatewayRef string // transaction id at the provider
}

// Result reports what the reconciler did with an event.
type Result struct {
	Payment *model.Payment
	// Applied=false means the event was acknowledged without side effects
	// (safe replay of an identical terminal status, or a pending heartbeat).
	Applied bool
	// PlanCompleted / RegistrationCompleted flag downstream settlements made
	// in the same transaction.
	PlanCompleted         bool
	RegistrationCompleted bool
}

// Stores is the persistence surface the reconciler reads and mutates.
// InTx must hand fn a Stores whose writes are atomic: either everything fn
// does is committed or none of it is. Inside a transaction,
// PaymentByReference must lock the row it returns.
type Stores interface {
	PaymentByReference(ctx context.Context, reference string) (*model.Payment, error)
	SavePayment(ctx context.Context, p *model.Payment) error

	// Installment Plan Tracker ops, keyed by the (student, course) pair the
	// payment belongs to. The bool reports whether the plan just completed.
	MarkApplicationFeePaid(ctx context.Context, userID, courseID uuid.UUID) (bool, error)
	ApplyInstallmentPayment(ctx context.Context, userID, courseID uuid.UUID, amountIDR int) (bool, error)

	// Registration Status Coordinator hook: approved → completed, no-op
	// otherwise. The bool reports whether the registration changed.
	OnPaymentCompleted(ctx context.Context, userID, courseID uuid.UUID) (bool, error)

	InTx(ctx context.Context, fn func(Stores) error) error
}

type Reconciler struct {
	Stores Stores
	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewReconciler(stores Stores) *Reconciler {
	return &Reconciler{Stores: stores, Now: time.Now}
}

// Process runs the webhook algorithm:
//
//  1. look up the record by reference (UnknownReference never creates one)
//  2. idempotency check: identical terminal replay is a silent success,
//     a different terminal status is a ConflictingTransition
//  3. exact amount match, otherwise AmountMismatch and the record stays pending
//  4. apply the transition and, for success, the plan/registration side
//     effects — all inside a single transaction with the payment row locked
//
// Steps 1–3 run once unlocked to fail fast, then again under the row lock,
// because a concurrent delivery may have won the race in between.
func (r *Reconciler) Process(ctx context.Context, evt GatewayEvent) (*Result, error) {
	p, err := r.Stores.PaymentByReference(ctx, evt.Reference)
	if err != nil {
		return nil, err
	}
	if res, done, err := r.precheck(p, evt); done || err != nil {
		return res, err
	}

	out := &Result{}
	err = r.Stores.InTx(ctx, func(s Stores) error {
		locked, err := s.PaymentByReference(ctx, evt.Reference)
		if err != nil {
			return err
		}
		if res, done, err := r.precheck(locked, evt); err != nil {
			return err
		} else if done {
			*out = *res
			return nil
		}

		now := r.Now()
		if err := locked.Transition(evt.Status, now); err != nil {
			return err
		}
		if evt.GatewayRef != "" {
			ref := evt.GatewayRef
			locked.PaymentGatewayReference = &ref
		}
		if err := s.SavePayment(ctx, locked); err != nil {
			return err
		}

		out.Payment = locked
		out.Applied = true

		if evt.Status != model.PaymentStatusSuccess {
			// failed/cancelled: no balance mutation, no registration change
			return nil
		}

		switch locked.PaymentType {
		case model.PaymentTypeApplicationFee:
			completed, err := s.MarkApplicationFeePaid(ctx, locked.PaymentUserID, locked.PaymentCourseID)
			if err != nil {
				return err
			}
			out.PlanCompleted = completed
			if !completed {
				// fee alone never settles the obligation
				return nil
			}
		case model.PaymentTypeInstallment:
			completed, err := s.ApplyInstallmentPayment(ctx, locked.PaymentUserID, locked.PaymentCourseID, locked.PaymentAmountIDR)
			if err != nil {
				return err
			}
			out.PlanCompleted = completed
			if !completed {
				return nil
			}
		case model.PaymentTypeCourseFee:
			// single full payment settles the obligation directly
		default:
			return fmt.Errorf("payment %s has unknown type %q", locked.PaymentReference, locked.PaymentType)
		}

		changed, err := s.OnPaymentCompleted(ctx, locked.PaymentUserID, locked.PaymentCourseID)
		if err != nil {
			return err
		}
		out.RegistrationCompleted = changed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// precheck covers the locally-recoverable rejections (steps 2–3): nothing is
// written when it fails, so the gateway can be answered immediately.
// done=true with a nil error is a safe no-op acknowledgement.
func (r *Reconciler) precheck(p *model.Payment, evt GatewayEvent) (*Result, bool, error) {
	if p.PaymentStatus.Terminal() {
		if p.PaymentStatus == evt.Status {
			return &Result{Payment: p, Applied: false}, true, nil
		}
		return nil, false, fmt.Errorf("%w: reference=%s stored=%s incoming=%s",
			ErrConflictingTransition, p.PaymentReference, p.PaymentStatus, evt.Status)
	}

	if evt.Status == model.PaymentStatusPending {
		// gateway heartbeat; the record is already pending
		return &Result{Payment: p, Applied: false}, true, nil
	}

	if evt.AmountIDR != p.PaymentAmountIDR || (evt.Currency != "" && evt.Currency != p.PaymentCurrency) {
		return nil, false, fmt.Errorf("%w: reference=%s expected=%d %s got=%d %s",
			ErrAmountMismatch, p.PaymentReference,
			p.PaymentAmountIDR, p.PaymentCurrency, evt.AmountIDR, evt.Currency)
	}

	return nil, false, nil
}
