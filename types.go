package superpay

import (
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// State is the lifecycle state of a ConfirmationSession.
type State int

const (
	// StateWaiting means no ledger lookup has been issued since the last tick.
	StateWaiting State = iota
	// StateChecking means a lookup for the session's reference is in flight.
	StateChecking
	// StateConfirmed is terminal: a matching transfer was found and validated
	// against the request's recipient and amount.
	StateConfirmed
	// StateExpired is terminal: the deadline passed with no confirmed transfer.
	StateExpired
	// StateFailed is terminal: a transfer referencing the request exists but
	// failed validation (recipient or amount mismatch), or the bridge reported
	// an unrecoverable error.
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateChecking:
		return "checking"
	case StateConfirmed:
		return "confirmed"
	case StateExpired:
		return "expired"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state permits no further transitions.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateExpired || s == StateFailed
}

// RequestMetadata carries the opaque descriptive fields of a payment request.
// None of them are validated beyond presence; they are embedded verbatim in
// the encoded payment URI.
type RequestMetadata struct {
	Label   string
	Message string
	Memo    string
}

// PaymentRequest describes a single tip attempt. It is immutable once built
// by NewPaymentRequest and is correlated with the on-chain transfer through
// its single-use Reference key.
type PaymentRequest struct {
	// Recipient is the creator's wallet address. Must be resolved through the
	// recipient directory before the request can be built.
	Recipient solana.PublicKey

	// Amount is the tip size in SOL. Positive, at or above MinimumTipAmount,
	// and representable in whole lamports.
	Amount decimal.Decimal

	// Reference is a fresh keypair-derived public key generated for this
	// request only. It carries no funds; it exists so the matching on-chain
	// transfer can be found by account lookup.
	Reference solana.PublicKey

	Metadata RequestMetadata
}

// Lamports converts the request amount to the chain's smallest unit.
// NewPaymentRequest guarantees the conversion is exact.
func (r PaymentRequest) Lamports() uint64 {
	return uint64(r.Amount.Shift(lamportDecimals).IntPart())
}

// TransferRecord identifies an on-chain transfer located by reference lookup.
type TransferRecord struct {
	// Signature is the ledger transaction identifier.
	Signature solana.Signature
	// Slot is the slot the transaction was processed in.
	Slot uint64
	// BlockTime is the estimated production time of the containing block,
	// when the RPC node reports one.
	BlockTime time.Time
}

// TransferExpectation is what a located transfer must satisfy before a
// session may report Confirmed. A match on reference alone is not proof of
// a correct payment.
type TransferExpectation struct {
	Recipient solana.PublicKey
	Amount    decimal.Decimal
	Reference solana.PublicKey
}

// CheckStatus classifies the outcome of a single confirmation check.
type CheckStatus int

const (
	// CheckPending means no validated transfer yet; the session re-arms the
	// next tick. Covers both "reference not found" and "found but not yet
	// confirmed at the requested commitment".
	CheckPending CheckStatus = iota
	// CheckConfirmed means a transfer was found and validated.
	CheckConfirmed
	// CheckFailed means the attempt is unrecoverable: a transfer referencing
	// the request exists but does not match it, or the bridge reported an
	// error. Distinct from transient lookup failures, which are returned as
	// ordinary errors and retried.
	CheckFailed
)

// CheckResult is the outcome of ConfirmationSource.Check.
type CheckResult struct {
	Status CheckStatus
	// TransactionID is the ledger transaction identifier. Set on CheckConfirmed.
	TransactionID string
	// Err describes why the attempt failed. Set on CheckFailed.
	Err error
}
