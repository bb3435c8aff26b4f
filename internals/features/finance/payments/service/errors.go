package service

import "errors"

// Reconciliation-level failures. Entity-level rule violations (invalid
// transition, overpayment, inactive plan) live on the models themselves.
var (
	// ErrDuplicateReference: a pending record with this gateway reference
	// already exists.
	ErrDuplicateReference = errors.New("duplicate payment reference")

	// ErrUnknownReference: a webhook named a reference we never issued.
	// Likely spoofed or stale; the event is logged but never creates a record.
	ErrUnknownReference = errors.New("unknown payment reference")

	// ErrConflictingTransition: the record is already terminal with a
	// different status than the incoming event. Data-integrity alert.
	ErrConflictingTransition = errors.New("conflicting status transition")

	// ErrAmountMismatch: the gateway reported a different amount than the
	// record expects. The record stays pending for manual review.
	ErrAmountMismatch = errors.New("gateway amount does not match expected amount")
)
