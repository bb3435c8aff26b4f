package controller

import (
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/configs"
	planModel "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/installment_plans/model"
	planService "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/installment_plans/service"
	model "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/payments/model"
	"github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/payments/service"
	helper "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/helpers"
)

/* =========================================================
   Gateway webhook (public, signature-verified)
========================================================= */

type WebhookController struct {
	DB         *gorm.DB
	Reconciler *service.Reconciler
}

func NewWebhookController(db *gorm.DB) *WebhookController {
	return &WebhookController{
		DB:         db,
		Reconciler: service.NewReconciler(service.NewGormStores(db)),
	}
}

// midtransNotification is the subset of the Midtrans HTTP notification we
// act on. The full payload is still persisted raw on the event row.
type midtransNotification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
	Currency          string `json:"currency"`
}

// Handle processes POST /payments/webhook/:gateway. Midtrans is the only
// wired provider; anything else is a 404.
//
// Response codes drive the gateway's retry behavior: 2xx acknowledges the
// delivery for good, 4xx tells it the event is permanently unprocessable,
// 5xx asks for a retry.
func (ctl *WebhookController) Handle(c *fiber.Ctx) error {
	if c.Params("gateway") != service.ProviderMidtrans {
		return helper.Error(c, fiber.StatusNotFound, "Unknown gateway")
	}

	raw := c.Body()

	var notif midtransNotification
	if err := sonic.Unmarshal(raw, &notif); err != nil || notif.OrderID == "" {
		return helper.Error(c, fiber.StatusBadRequest, "Malformed notification")
	}

	evt := ctl.logReceived(c, notif, raw)

	if !service.VerifySignature(notif.OrderID, notif.StatusCode, notif.GrossAmount,
		configs.MidtransServerKey, notif.SignatureKey) {
		ctl.finishEvent(evt, model.GatewayEventStatusFailed, "invalid signature", nil)
		return helper.Error(c, fiber.StatusUnauthorized, "Invalid signature")
	}

	status, ok := service.MapMidtransStatus(notif.TransactionStatus, notif.FraudStatus)
	if !ok {
		// unrecognized status: acknowledge so the gateway stops retrying
		ctl.finishEvent(evt, model.GatewayEventStatusProcessed, "", nil)
		return helper.Success(c, "Ignored", nil)
	}

	amount, err := parseGrossAmount(notif.GrossAmount)
	if err != nil {
		ctl.finishEvent(evt, model.GatewayEventStatusFailed, "unparseable gross_amount", nil)
		return helper.Error(c, fiber.StatusBadRequest, "Invalid gross_amount")
	}

	res, err := ctl.Reconciler.Process(c.Context(), service.GatewayEvent{
		Reference:  notif.OrderID,
		Status:     status,
		AmountIDR:  amount,
		Currency:   notif.Currency,
		GatewayRef: notif.TransactionID,
	})
	if err != nil {
		ctl.finishEvent(evt, model.GatewayEventStatusFailed, err.Error(), nil)

		code, msg := reconcileErrorStatus(err)
		if code == fiber.StatusInternalServerError {
			// 500 → Midtrans retries the delivery
			log.Println("[ERROR] webhook reconcile:", err)
		}
		return helper.Error(c, code, msg)
	}

	var paymentID *string
	if res.Payment != nil {
		id := res.Payment.PaymentID.String()
		paymentID = &id
	}
	ctl.finishEvent(evt, model.GatewayEventStatusProcessed, "", paymentID)

	if !res.Applied {
		return helper.Success(c, "Already processed", nil)
	}
	return helper.Success(c, "Processed", fiber.Map{
		"status":                 res.Payment.PaymentStatus,
		"plan_completed":         res.PlanCompleted,
		"registration_completed": res.RegistrationCompleted,
	})
}

// reconcileErrorStatus classifies reconciliation failures for the gateway.
// 4xx means retrying the same delivery can never succeed (logged and
// alerted, handled manually); only unexpected failures stay 500 so the
// gateway redelivers.
func reconcileErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrUnknownReference):
		// never create a record from a webhook
		return fiber.StatusNotFound, "Unknown payment reference"
	case errors.Is(err, service.ErrConflictingTransition),
		errors.Is(err, model.ErrInvalidTransition):
		return fiber.StatusConflict, "Conflicting payment status"
	case errors.Is(err, planService.ErrPlanNotFound),
		errors.Is(err, planModel.ErrPlanNotActive):
		return fiber.StatusConflict, "Installment plan cannot accept this payment"
	case errors.Is(err, service.ErrAmountMismatch):
		return fiber.StatusUnprocessableEntity, "Amount mismatch"
	case errors.Is(err, planModel.ErrOverpaymentRejected):
		return fiber.StatusUnprocessableEntity, "Payment would overdraw the plan balance"
	default:
		return fiber.StatusInternalServerError, "Reconciliation failed"
	}
}

/* ================= event log ================= */

func (ctl *WebhookController) logReceived(c *fiber.Ctx, notif midtransNotification, raw []byte) *model.PaymentGatewayEvent {
	headers := map[string]string{}
	c.Request().Header.VisitAll(func(k, v []byte) {
		headers[string(k)] = string(v)
	})
	headerJSON, _ := sonic.Marshal(headers)

	evt := &model.PaymentGatewayEvent{
		GatewayEventProvider:  service.ProviderMidtrans,
		GatewayEventReference: notif.OrderID,
		GatewayEventHeaders:   datatypes.JSON(headerJSON),
		GatewayEventPayload:   datatypes.JSON(append([]byte(nil), raw...)),
		GatewayEventStatus:    model.GatewayEventStatusReceived,
		GatewayEventReceivedAt: time.Now(),
	}
	if notif.TransactionStatus != "" {
		ts := notif.TransactionStatus
		evt.GatewayEventType = &ts
	}
	if notif.TransactionID != "" {
		txID := notif.TransactionID
		evt.GatewayEventExternalRef = &txID
	}
	if notif.SignatureKey != "" {
		sig := notif.SignatureKey
		evt.GatewayEventSignature = &sig
	}

	if err := ctl.DB.WithContext(c.Context()).Create(evt).Error; err != nil {
		// the audit row is best-effort; reconciliation still runs
		log.Println("[ERROR] log gateway event:", err)
	}
	return evt
}

func (ctl *WebhookController) finishEvent(evt *model.PaymentGatewayEvent, status model.GatewayEventStatus, errMsg string, paymentID *string) {
	if evt.GatewayEventID == uuid.Nil {
		return
	}
	now := time.Now()
	updates := map[string]interface{}{
		"gateway_event_status":       status,
		"gateway_event_processed_at": now,
	}
	if errMsg != "" {
		updates["gateway_event_error"] = errMsg
	}
	if paymentID != nil {
		updates["gateway_event_payment_id"] = *paymentID
	}
	if err := ctl.DB.Model(evt).Updates(updates).Error; err != nil {
		log.Println("[ERROR] update gateway event:", err)
	}
}

/* ================= utils ================= */

// parseGrossAmount parses Midtrans' "1500000.00" money string into whole IDR.
func parseGrossAmount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f + 0.5), nil
}
