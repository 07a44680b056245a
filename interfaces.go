package superpay

import (
	"context"

	solana "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// ConfirmationSource is the pluggable origin of payment confirmations.
// Both confirmation paths drive the same ConfirmationSession through this
// interface: the QR path polls the ledger, the extension path reads a
// one-shot bridge mailbox.
//
// Check must classify every outcome:
//   - (CheckResult{Status: CheckPending}, nil): nothing conclusive yet,
//     the session re-arms the next tick
//   - (CheckResult{Status: CheckConfirmed, TransactionID: ...}, nil):
//     terminal success
//   - (CheckResult{Status: CheckFailed, Err: ...}, nil): terminal failure
//   - (CheckResult{}, err): transient collaborator failure; the session
//     logs it and retries on the next tick
type ConfirmationSource interface {
	Check(ctx context.Context, req PaymentRequest) (CheckResult, error)
}

// LedgerClient queries the chain for transfers matching a reference and
// validates a located transfer against a payment request. Implementations
// are read-only and safe to share across concurrently open sessions; they
// are constructed once at startup and passed by reference into sessions.
type LedgerClient interface {
	// FindTransferByReference locates the oldest successful transaction that
	// mentions the reference account. Returns ErrReferenceNotFound when none
	// exists and ErrTransferNotConfirmed when one exists below the requested
	// commitment level.
	FindTransferByReference(ctx context.Context, reference solana.PublicKey) (TransferRecord, error)

	// ValidateTransfer checks that the transaction moved the expected amount
	// to the expected recipient and explicitly references the expectation's
	// reference key. Returns ErrTransferMismatch on any discrepancy.
	ValidateTransfer(ctx context.Context, signature solana.Signature, expect TransferExpectation) error
}

// RecipientDirectory resolves a creator's platform identity to a wallet
// address. Resolution failures map to ErrRecipientNotRegistered so callers
// can short-circuit before a request is encoded.
type RecipientDirectory interface {
	ResolveRecipientAddress(ctx context.Context, username, platform string) (solana.PublicKey, error)
}

// TipSender hands a tip request to the wallet-extension bridge and returns
// the ConfirmationSource that will observe the bridge's single result
// message. The bridge collaborator owns the retry and signature-prompt
// lifecycle; the returned source never retries on its own.
type TipSender interface {
	SendTip(ctx context.Context, recipient solana.PublicKey, amountLamports uint64) (ConfirmationSource, error)
}

// TipRecorder persists a completed tip. Implementations typically post to
// the backend transaction API. A nil recorder disables recording.
type TipRecorder interface {
	RecordTip(ctx context.Context, recipient string, amount decimal.Decimal, message string) error
}
