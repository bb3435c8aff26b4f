package dto

import (
	"time"

	"github.com/google/uuid"

	model "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/payments/model"
)

/* ===================== Requests ===================== */

// CreatePaymentRequest opens a pending payment record and a hosted-checkout
// session. For installment and application_fee types the amount is resolved
// server-side from the plan; for course_fee it must be supplied.
type CreatePaymentRequest struct {
	CourseID  uuid.UUID `json:"course_id" validate:"required"`
	Type      string    `json:"type" validate:"required,oneof=application_fee course_fee installment"`
	AmountIDR int       `json:"amount_idr" validate:"omitempty,gt=0"`

	Description string `json:"description" validate:"omitempty,max=200"`

	// Forwarded to the gateway checkout page.
	CustomerFirstName string `json:"customer_first_name" validate:"omitempty,max=50"`
	CustomerLastName  string `json:"customer_last_name" validate:"omitempty,max=50"`
	CustomerEmail     string `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone     string `json:"customer_phone" validate:"omitempty,max=20"`
}

/* ===================== Responses ===================== */

type PaymentResponse struct {
	PaymentID uuid.UUID `json:"payment_id"`
	UserID    uuid.UUID `json:"user_id"`
	CourseID  uuid.UUID `json:"course_id"`

	Reference string `json:"reference"`
	AmountIDR int    `json:"amount_idr"`
	Currency  string `json:"currency"`

	Type   string `json:"type"`
	Status string `json:"status"`
	Method string `json:"method"`

	InstallmentNumber *int `json:"installment_number,omitempty"`
	TotalInstallments *int `json:"total_installments,omitempty"`

	GatewayReference *string `json:"gateway_reference,omitempty"`
	CheckoutURL      *string `json:"checkout_url,omitempty"`
	Description      *string `json:"description,omitempty"`

	PaidAt      *time.Time `json:"paid_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func ToPaymentResponse(p *model.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:         p.PaymentID,
		UserID:            p.PaymentUserID,
		CourseID:          p.PaymentCourseID,
		Reference:         p.PaymentReference,
		AmountIDR:         p.PaymentAmountIDR,
		Currency:          p.PaymentCurrency,
		Type:              string(p.PaymentType),
		Status:            string(p.PaymentStatus),
		Method:            string(p.PaymentMethod),
		InstallmentNumber: p.PaymentInstallmentNumber,
		TotalInstallments: p.PaymentTotalInstallments,
		GatewayReference:  p.PaymentGatewayReference,
		CheckoutURL:       p.PaymentCheckoutURL,
		Description:       p.PaymentDescription,
		PaidAt:            p.PaymentPaidAt,
		FailedAt:          p.PaymentFailedAt,
		CancelledAt:       p.PaymentCancelledAt,
		CreatedAt:         p.PaymentCreatedAt,
	}
}

func ToPaymentResponses(rows []model.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, ToPaymentResponse(&rows[i]))
	}
	return out
}

// CheckoutResponse is returned by POST /api/payments: the pending record plus
// the hosted-checkout handle the frontend redirects to.
type CheckoutResponse struct {
	Payment     PaymentResponse `json:"payment"`
	SnapToken   string          `json:"snap_token,omitempty"`
	RedirectURL string          `json:"redirect_url,omitempty"`
}

/* ===================== Gateway events ===================== */

type GatewayEventResponse struct {
	GatewayEventID uuid.UUID  `json:"gateway_event_id"`
	PaymentID      *uuid.UUID `json:"payment_id,omitempty"`
	Provider       string     `json:"provider"`
	Type           *string    `json:"type,omitempty"`
	Reference      string     `json:"reference"`
	ExternalRef    *string    `json:"external_ref,omitempty"`
	Status         string     `json:"status"`
	Error          *string    `json:"error,omitempty"`
	ReceivedAt     time.Time  `json:"received_at"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
}

func ToGatewayEventResponse(e *model.PaymentGatewayEvent) GatewayEventResponse {
	return GatewayEventResponse{
		GatewayEventID: e.GatewayEventID,
		PaymentID:      e.GatewayEventPaymentID,
		Provider:       e.GatewayEventProvider,
		Type:           e.GatewayEventType,
		Reference:      e.GatewayEventReference,
		ExternalRef:    e.GatewayEventExternalRef,
		Status:         string(e.GatewayEventStatus),
		Error:          e.GatewayEventError,
		ReceivedAt:     e.GatewayEventReceivedAt,
		ProcessedAt:    e.GatewayEventProcessedAt,
	}
}

func ToGatewayEventResponses(rows []model.PaymentGatewayEvent) []GatewayEventResponse {
	out := make([]GatewayEventResponse, 0, len(rows))
	for i := range rows {
		out = append(out, ToGatewayEventResponse(&rows[i]))
	}
	return out
}
