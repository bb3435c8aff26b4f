package service

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/google/uuid"

	model "github.com/Genius-Space-Foundation/kmmediatraininginstitute-sub003/internals/features/finance/payments/model"
)

/* =========================================================
   Midtrans Client
========================================================= */

const ProviderMidtrans = "midtrans"

var SnapClient snap.Client

// InitMidtrans must be called once at bootstrap.
// useProduction=true for Production, false for Sandbox.
func InitMidtrans(serverKey string, useProduction bool) {
	if useProduction {
		SnapClient.New(serverKey, midtrans.Production)
	} else {
		SnapClient.New(serverKey, midtrans.Sandbox)
	}
}

/* =========================================================
   Checkout (Snap token)
========================================================= */

type CustomerInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// GenerateSnapToken creates the hosted-checkout token for a pending payment.
// The payment reference doubles as the Midtrans OrderID.
func GenerateSnapToken(p model.Payment, cust CustomerInput) (string, string, error) {
	if p.PaymentAmountIDR <= 0 {
		return "", "", errors.New("invalid payment_amount_idr")
	}
	if strings.TrimSpace(p.PaymentReference) == "" {
		return "", "", errors.New("payment_reference is required (used as OrderID)")
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  p.PaymentReference,
			GrossAmt: int64(p.PaymentAmountIDR),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: cust.FirstName,
			LName: cust.LastName,
			Email: cust.Email,
			Phone: cust.Phone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       p.PaymentReference,
				Price:    int64(p.PaymentAmountIDR),
				Qty:      1,
				Name:     itemName(p),
				Category: string(p.PaymentType),
			},
		},
	}

	resp, err := SnapClient.CreateTransaction(req)
	if err != nil {
		return "", "", err
	}
	return resp.Token, resp.RedirectURL, nil
}

func itemName(p model.Payment) string {
	if p.PaymentDescription != nil && *p.PaymentDescription != "" {
		return truncate(*p.PaymentDescription, 50)
	}
	switch p.PaymentType {
	case model.PaymentTypeApplicationFee:
		return "Application Fee"
	case model.PaymentTypeInstallment:
		return "Course Installment"
	default:
		return "Course Fee"
	}
}

/* =========================================================
   Webhook helpers
========================================================= */

// VerifySignature checks the Midtrans notification signature:
// SHA512(order_id + status_code + gross_amount + ServerKey).
func VerifySignature(orderID, statusCode, grossAmount, serverKey, signature string) bool {
	want := strings.ToLower(strings.TrimSpace(signature))
	if want == "" {
		return false
	}
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:]) == want
}

// MapMidtransStatus converts a Midtrans transaction_status (+ fraud_status
// for card captures) into the internal payment status. ok=false means the
// event carries no status we act on (e.g. an unrecognized value) and should
// be acknowledged without side effects.
func MapMidtransStatus(transactionStatus, fraudStatus string) (model.PaymentStatus, bool) {
	ts := strings.ToLower(transactionStatus)
	fraud := strings.ToLower(fraudStatus)

	switch ts {
	case "capture":
		if fraud == "accept" {
			return model.PaymentStatusSuccess, true
		}
		if fraud == "challenge" {
			// still under review at the gateway
			return model.PaymentStatusPending, true
		}
		return model.PaymentStatusFailed, true

	case "settlement":
		return model.PaymentStatusSuccess, true

	case "pending":
		return model.PaymentStatusPending, true

	case "deny", "failure":
		return model.PaymentStatusFailed, true

	case "cancel", "expire":
		return model.PaymentStatusCancelled, true
	}

	return "", false
}

/* =========================================================
   Utils
========================================================= */

// GenOrderID builds a payment reference with a given prefix (used as the
// Midtrans order_id).
func GenOrderID(prefix string) string {
	now := time.Now().UTC().Format("20060102-150405")
	u := uuid.New().String()
	if len(u) > 8 {
		u = u[:8]
	}
	return prefix + "-" + now + "-" + strings.ToUpper(u)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
