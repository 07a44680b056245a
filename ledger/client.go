// Package ledger implements the ledger-query collaborator over the Solana
// JSON-RPC API: locating a transfer by its reference account and validating
// it against the advertised payment request.
package ledger

import (
	"context"
	"fmt"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	superpay "github.com/superpage/superpay-go"
)

// signatureFetchLimit bounds a single reference lookup. A reference key is
// single-use, so in practice at most a handful of signatures ever mention it.
const signatureFetchLimit = 1000

var maxTxVersion = uint64(0)

// RPCClient is the slice of the Solana RPC surface the ledger client needs.
// Narrowed to an interface so tests can run against mocks instead of a
// process-global connection.
type RPCClient interface {
	GetSignaturesForAddressWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error)
	GetTransaction(ctx context.Context, signature solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
}

// Option configures a Client.
type Option func(*Client)

// WithCommitment sets the confirmation level a transfer must reach before it
// is treated as settled. Defaults to confirmed.
func WithCommitment(commitment rpc.CommitmentType) Option {
	return func(c *Client) {
		c.commitment = commitment
	}
}

// WithLogger attaches a logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client queries a Solana RPC node for transfers. It is read-only and
// stateless and therefore safe to share across concurrently open sessions;
// construct it once at startup and pass it by reference.
type Client struct {
	rpc        RPCClient
	commitment rpc.CommitmentType
	logger     *zap.Logger
}

var _ superpay.LedgerClient = (*Client)(nil)

// New creates a ledger client against the given RPC endpoint, e.g.
// rpc.DevNet_RPC or rpc.MainNetBeta_RPC.
func New(rpcURL string, opts ...Option) *Client {
	return NewWithRPC(rpc.New(rpcURL), opts...)
}

// NewWithRPC creates a ledger client over an existing RPC client. Used by
// tests to inject a mock.
func NewWithRPC(client RPCClient, opts ...Option) *Client {
	c := &Client{
		rpc:        client,
		commitment: rpc.CommitmentConfirmed,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FindTransferByReference locates the oldest successful transaction that
// mentions the reference account.
//
// Returns superpay.ErrReferenceNotFound when nothing on chain mentions the
// reference yet and superpay.ErrTransferNotConfirmed when a transaction
// exists but has not reached the requested commitment. Both are expected,
// non-terminal outcomes for a poller.
func (c *Client) FindTransferByReference(ctx context.Context, reference solana.PublicKey) (superpay.TransferRecord, error) {
	limit := signatureFetchLimit
	signatures, err := c.rpc.GetSignaturesForAddressWithOpts(ctx, reference, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: c.commitment,
	})
	if err != nil {
		return superpay.TransferRecord{}, fmt.Errorf("signature lookup for reference %s: %w", reference, err)
	}

	// Signatures come back newest first; the oldest successful one is the
	// transfer that satisfied the request.
	for i := len(signatures) - 1; i >= 0; i-- {
		sig := signatures[i]
		if sig == nil || sig.Err != nil {
			continue
		}
		if sig.ConfirmationStatus == rpc.ConfirmationStatusProcessed {
			return superpay.TransferRecord{}, superpay.ErrTransferNotConfirmed
		}

		record := superpay.TransferRecord{
			Signature: sig.Signature,
			Slot:      sig.Slot,
		}
		if sig.BlockTime != nil {
			record.BlockTime = sig.BlockTime.Time()
		}
		c.logger.Debug("reference matched on chain",
			zap.String("reference", reference.String()),
			zap.String("signature", sig.Signature.String()))
		return record, nil
	}

	return superpay.TransferRecord{}, superpay.ErrReferenceNotFound
}

// ValidateTransfer confirms that the located transaction actually pays the
// request: the recipient's balance grew by exactly the expected lamports and
// the transaction explicitly references the expectation's reference key.
//
// Returns superpay.ErrTransferMismatch on any discrepancy (terminal) and
// superpay.ErrTransferNotConfirmed when the node no longer reports the
// transaction at the requested commitment (non-terminal).
func (c *Client) ValidateTransfer(ctx context.Context, signature solana.Signature, expect superpay.TransferExpectation) error {
	out, err := c.rpc.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     c.commitment,
		MaxSupportedTransactionVersion: &maxTxVersion,
	})
	if err != nil {
		return fmt.Errorf("transaction fetch for %s: %w", signature, err)
	}
	if out == nil {
		return superpay.ErrTransferNotConfirmed
	}
	if out.Meta == nil {
		return fmt.Errorf("transaction %s is missing metadata", signature)
	}
	if out.Meta.Err != nil {
		return fmt.Errorf("%w: transaction %s failed on chain", superpay.ErrTransferMismatch, signature)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(out.Transaction.GetBinary()))
	if err != nil {
		return fmt.Errorf("failed to decode transaction %s: %w", signature, err)
	}

	return validateTransferTx(tx, out.Meta, expect)
}

// validateTransferTx checks decoded transaction contents against the
// expectation. Split out so the validation rules are testable without an
// RPC round trip.
func validateTransferTx(tx *solana.Transaction, meta *rpc.TransactionMeta, expect superpay.TransferExpectation) error {
	keys := tx.Message.AccountKeys

	recipientIndex := -1
	referencePresent := false
	for i, key := range keys {
		if key.Equals(expect.Recipient) {
			recipientIndex = i
		}
		if key.Equals(expect.Reference) {
			referencePresent = true
		}
	}

	if recipientIndex < 0 {
		return fmt.Errorf("%w: recipient %s not found in transaction", superpay.ErrTransferMismatch, expect.Recipient)
	}
	if !referencePresent {
		return fmt.Errorf("%w: reference %s not found in transaction", superpay.ErrTransferMismatch, expect.Reference)
	}
	if recipientIndex >= len(meta.PreBalances) || recipientIndex >= len(meta.PostBalances) {
		return fmt.Errorf("transaction metadata does not cover recipient account %d", recipientIndex)
	}

	pre := meta.PreBalances[recipientIndex]
	post := meta.PostBalances[recipientIndex]
	if post <= pre {
		return fmt.Errorf("%w: recipient balance did not increase", superpay.ErrTransferMismatch)
	}

	received := post - pre
	expected := uint64(expect.Amount.Shift(9).IntPart())
	if received != expected {
		return fmt.Errorf("%w: expected %d lamports, recipient received %d", superpay.ErrTransferMismatch, expected, received)
	}

	return nil
}
