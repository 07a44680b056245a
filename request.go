package superpay

import (
	"github.com/shopspring/decimal"

	solana "github.com/gagliardetto/solana-go"
)

// lamportDecimals is the number of decimal places in one SOL.
const lamportDecimals = 9

// MinimumTipAmount is the smallest accepted tip, in SOL. Requests below it
// are rejected before a reference is generated.
var MinimumTipAmount = decimal.New(1, -3)

// ValidateAmount checks a tip amount against the configured minimum and the
// lamport precision limit. It is called before any reference is generated so
// that rejected attempts leave no trace.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThan(MinimumTipAmount) {
		return NewPaymentError(ErrCodeAmountBelowMinimum,
			"tip amount is below the configured minimum",
			map[string]interface{}{
				"amount":  amount.String(),
				"minimum": MinimumTipAmount.String(),
			})
	}
	if amount.Exponent() < -lamportDecimals {
		return NewPaymentError(ErrCodeAmountNotRepresentable,
			"tip amount has more than 9 decimal places and cannot be represented in lamports",
			map[string]interface{}{"amount": amount.String()})
	}
	return nil
}

// NewPaymentRequest builds an immutable payment request from a resolved
// recipient, a validated amount and a freshly generated reference.
//
// Preconditions enforced here:
//   - recipient is a non-zero ledger address
//   - amount is positive, at or above MinimumTipAmount, and exactly
//     representable in lamports
//   - reference is a non-zero key (generated per attempt, never reused)
func NewPaymentRequest(recipient solana.PublicKey, amount decimal.Decimal, reference solana.PublicKey, meta RequestMetadata) (PaymentRequest, error) {
	if recipient.IsZero() {
		return PaymentRequest{}, NewPaymentError(ErrCodeInvalidRecipient,
			"recipient address is required", nil)
	}
	if err := ValidateAmount(amount); err != nil {
		return PaymentRequest{}, err
	}
	if reference.IsZero() {
		return PaymentRequest{}, NewPaymentError(ErrCodeMissingReference,
			"payment reference is required", nil)
	}
	return PaymentRequest{
		Recipient: recipient,
		Amount:    amount,
		Reference: reference,
		Metadata:  meta,
	}, nil
}
