// file: internals/features/finance/payments/model/payment_gateway_event_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

/*
  payment_gateway_events = webhook / callback log from the payment gateway.
  - Many rows per payment are possible (one per delivery, including retries).
  - Keeps raw headers, payload and signature for manual reconciliation and replay.
*/

type GatewayEventStatus string

const (
	GatewayEventStatusReceived  GatewayEventStatus = "received"
	GatewayEventStatusProcessed GatewayEventStatus = "processed"
	GatewayEventStatusFailed    GatewayEventStatus = "failed"
)

type PaymentGatewayEvent struct {
	GatewayEventID uuid.UUID `gorm:"column:gateway_event_id;type:uuid;default:gen_random_uuid();primaryKey" json:"gateway_event_id"`

	GatewayEventPaymentID *uuid.UUID `gorm:"column:gateway_event_payment_id;type:uuid;index:idx_gateway_events_payment" json:"gateway_event_payment_id,omitempty"`

	GatewayEventProvider string `gorm:"column:gateway_event_provider;type:varchar(32);not null" json:"gateway_event_provider"`

	// Type holds the raw transaction_status; Reference is the provider's
	// order_id and ExternalRef its transaction_id.
	GatewayEventType        *string `gorm:"column:gateway_event_type" json:"gateway_event_type,omitempty"`
	GatewayEventReference   string  `gorm:"column:gateway_event_reference;not null;index:idx_gateway_events_reference" json:"gateway_event_reference"`
	GatewayEventExternalRef *string `gorm:"column:gateway_event_external_ref" json:"gateway_event_external_ref,omitempty"`

	// Raw data (debug / replay)
	GatewayEventHeaders   datatypes.JSON `gorm:"column:gateway_event_headers;type:jsonb" json:"gateway_event_headers,omitempty"`
	GatewayEventPayload   datatypes.JSON `gorm:"column:gateway_event_payload;type:jsonb" json:"gateway_event_payload,omitempty"`
	GatewayEventSignature *string        `gorm:"column:gateway_event_signature" json:"gateway_event_signature,omitempty"`

	GatewayEventStatus GatewayEventStatus `gorm:"column:gateway_event_status;type:gateway_event_status;not null;default:'received'" json:"gateway_event_status"`
	GatewayEventError  *string            `gorm:"column:gateway_event_error" json:"gateway_event_error,omitempty"`

	GatewayEventReceivedAt  time.Time  `gorm:"column:gateway_event_received_at;not null;default:now()" json:"gateway_event_received_at"`
	GatewayEventProcessedAt *time.Time `gorm:"column:gateway_event_processed_at" json:"gateway_event_processed_at,omitempty"`

	GatewayEventCreatedAt time.Time `gorm:"column:gateway_event_created_at;autoCreateTime" json:"gateway_event_created_at"`
	GatewayEventUpdatedAt time.Time `gorm:"column:gateway_event_updated_at;autoUpdateTime" json:"gateway_event_updated_at"`
}

func (PaymentGatewayEvent) TableName() string {
	return "payment_gateway_events"
}
