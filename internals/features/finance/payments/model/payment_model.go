package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

/* ===================== Enums (string) ===================== */
/* Aligned with the ENUMs in PostgreSQL:
   payment_status, payment_type, payment_method
*/

type PaymentStatus string
type PaymentType string
type PaymentMethod string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSuccess   PaymentStatus = "success"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

const (
	PaymentTypeApplicationFee PaymentType = "application_fee"
	PaymentTypeCourseFee      PaymentType = "course_fee"
	PaymentTypeInstallment    PaymentType = "installment"
)

const (
	PaymentMethodGateway      PaymentMethod = "gateway"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCash         PaymentMethod = "cash"
)

// Terminal reports whether no further transition is permitted from s.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	default:
		return false
	}
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	default:
		return false
	}
}

func (t PaymentType) Valid() bool {
	switch t {
	case PaymentTypeApplicationFee, PaymentTypeCourseFee, PaymentTypeInstallment:
		return true
	default:
		return false
	}
}

// ErrInvalidTransition: terminal payment records are immutable.
var ErrInvalidTransition = errors.New("payment: invalid status transition")

/* ===================== Model ===================== */

// Payment is one payment attempt (application fee, full course fee, or a
// single installment). Records are append-only: rows are never deleted and a
// terminal status is never overwritten, so the table doubles as the audit
// trail for reconciliation.
type Payment struct {
	PaymentID uuid.UUID `gorm:"column:payment_id;type:uuid;default:gen_random_uuid();primaryKey" json:"payment_id"`

	PaymentUserID   uuid.UUID `gorm:"column:payment_user_id;type:uuid;not null;index:idx_payments_user" json:"payment_user_id"`
	PaymentCourseID uuid.UUID `gorm:"column:payment_course_id;type:uuid;not null;index:idx_payments_course" json:"payment_course_id"`

	// Gateway order id; globally unique, webhook lookups key on it.
	PaymentReference string `gorm:"column:payment_reference;type:varchar(64);not null;uniqueIndex:uq_payments_reference" json:"payment_reference"`

	PaymentAmountIDR int    `gorm:"column:payment_amount_idr;not null;check:payment_amount_idr >= 0" json:"payment_amount_idr"`
	PaymentCurrency  string `gorm:"column:payment_currency;type:varchar(8);not null;default:IDR" json:"payment_currency"`

	PaymentType   PaymentType   `gorm:"column:payment_type;type:payment_type;not null" json:"payment_type"`
	PaymentStatus PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'pending'" json:"payment_status"`
	PaymentMethod PaymentMethod `gorm:"column:payment_method;type:payment_method;not null;default:'gateway'" json:"payment_method"`

	// Only set for installment-typed records.
	PaymentInstallmentNumber *int `gorm:"column:payment_installment_number" json:"payment_installment_number,omitempty"`
	PaymentTotalInstallments *int `gorm:"column:payment_total_installments" json:"payment_total_installments,omitempty"`

	// Gateway info
	PaymentGatewayReference *string `gorm:"column:payment_gateway_reference" json:"payment_gateway_reference,omitempty"` // transaction_id at the PSP
	PaymentCheckoutURL      *string `gorm:"column:payment_checkout_url" json:"payment_checkout_url,omitempty"`

	PaymentDescription *string           `gorm:"column:payment_description" json:"payment_description,omitempty"`
	PaymentMeta        datatypes.JSONMap `gorm:"column:payment_meta;type:jsonb" json:"payment_meta,omitempty"`

	PaymentPaidAt      *time.Time `gorm:"column:payment_paid_at" json:"payment_paid_at,omitempty"`
	PaymentFailedAt    *time.Time `gorm:"column:payment_failed_at" json:"payment_failed_at,omitempty"`
	PaymentCancelledAt *time.Time `gorm:"column:payment_cancelled_at" json:"payment_cancelled_at,omitempty"`

	PaymentCreatedAt time.Time `gorm:"column:payment_created_at;autoCreateTime" json:"payment_created_at"`
	PaymentUpdatedAt time.Time `gorm:"column:payment_updated_at;autoUpdateTime" json:"payment_updated_at"`
}

func (Payment) TableName() string { return "payments" }

/* ===================== State machine ===================== */

// Transition moves a pending record into a terminal state exactly once.
// Every status mutation in the codebase goes through here; call sites must
// not poke PaymentStatus directly.
func (p *Payment) Transition(to PaymentStatus, now time.Time) error {
	if !to.Valid() || !to.Terminal() {
		return fmt.Errorf("%w: %q is not a terminal status", ErrInvalidTransition, to)
	}
	if p.PaymentStatus.Terminal() {
		return fmt.Errorf("%w: reference=%s already %s, refusing %s",
			ErrInvalidTransition, p.PaymentReference, p.PaymentStatus, to)
	}

	p.PaymentStatus = to
	switch to {
	case PaymentStatusSuccess:
		p.PaymentPaidAt = &now
	case PaymentStatusFailed:
		p.PaymentFailedAt = &now
	case PaymentStatusCancelled:
		p.PaymentCancelledAt = &now
	}
	return nil
}

func (p *Payment) IsPaid() bool {
	return p.PaymentStatus == PaymentStatusSuccess
}

func (p *Payment) IsOpen() bool {
	return p.PaymentStatus == PaymentStatusPending
}
