package superpay

import (
	"errors"
	"fmt"
)

// PaymentError represents a payment-specific error surfaced to callers.
type PaymentError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Common error codes
const (
	ErrCodeAmountBelowMinimum     = "amount_below_minimum"
	ErrCodeAmountNotRepresentable = "amount_not_representable"
	ErrCodeInvalidRecipient       = "invalid_recipient"
	ErrCodeMissingReference       = "missing_reference"
	ErrCodeRecipientNotRegistered = "recipient_not_registered"
	ErrCodeBridgeRejected         = "bridge_rejected"
)

// NewPaymentError creates a new payment error
func NewPaymentError(code, message string, details map[string]interface{}) *PaymentError {
	return &PaymentError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Sentinel errors used to classify collaborator outcomes. Lookup errors that
// match none of these are treated as transient and retried on the next tick.
var (
	// ErrReferenceNotFound means no on-chain transfer mentions the reference
	// yet. Expected while the payer has not paid; never terminal.
	ErrReferenceNotFound = errors.New("no transfer found for reference")

	// ErrTransferNotConfirmed means a transfer was located but has not reached
	// the requested commitment level. Expected and never terminal.
	ErrTransferNotConfirmed = errors.New("transfer not yet confirmed")

	// ErrTransferMismatch means a transfer references the request but its
	// recipient or amount differ from what was advertised. Terminal.
	ErrTransferMismatch = errors.New("transfer does not match payment request")

	// ErrRecipientNotRegistered means the creator has no wallet registered in
	// the user directory. The flow must abort before encoding a request.
	ErrRecipientNotRegistered = errors.New("recipient is not registered")

	// ErrSessionAlreadyStarted is returned by Start on a session that already
	// owns a running poll loop.
	ErrSessionAlreadyStarted = errors.New("confirmation session already started")
)
