package ledger

import (
	"context"
	"errors"
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	superpay "github.com/superpage/superpay-go"
)

// mockRPC is a test double for the RPC slice the client uses.
type mockRPC struct {
	getSignatures  func(account solana.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error)
	getTransaction func(signature solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
}

func (m *mockRPC) GetSignaturesForAddressWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error) {
	return m.getSignatures(account, opts)
}

func (m *mockRPC) GetTransaction(ctx context.Context, signature solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error) {
	return m.getTransaction(signature, opts)
}

var (
	payer     = solana.MustPublicKeyFromBase58("9aE476sH92Vz7DMPyq5WLPkrKWivxeuTKEFKd2sZZcde")
	recipient = solana.MustPublicKeyFromBase58("CmtShTafYxCfpAehyvNacWXwGeG2RL9Nvp7T5Q2DheGj")
	reference = solana.MustPublicKeyFromBase58("4fYNw3dojWmQ4dXtSGE9epjRGy9pFSx62YypT7avPYvA")
)

func sigWithByte(b byte) solana.Signature {
	var sig solana.Signature
	sig[0] = b
	return sig
}

func TestFindTransferByReferenceNotFound(t *testing.T) {
	client := NewWithRPC(&mockRPC{
		getSignatures: func(account solana.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error) {
			assert.True(t, account.Equals(reference))
			return nil, nil
		},
	})

	_, err := client.FindTransferByReference(context.Background(), reference)
	assert.ErrorIs(t, err, superpay.ErrReferenceNotFound)
}

func TestFindTransferByReferenceSkipsFailedTransactions(t *testing.T) {
	client := NewWithRPC(&mockRPC{
		getSignatures: func(solana.PublicKey, *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error) {
			return []*rpc.TransactionSignature{
				{Signature: sigWithByte(1), Err: map[string]any{"InstructionError": []any{}}},
			}, nil
		},
	})

	_, err := client.FindTransferByReference(context.Background(), reference)
	assert.ErrorIs(t, err, superpay.ErrReferenceNotFound)
}

func TestFindTransferByReferenceBelowCommitment(t *testing.T) {
	client := NewWithRPC(&mockRPC{
		getSignatures: func(solana.PublicKey, *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error) {
			return []*rpc.TransactionSignature{
				{Signature: sigWithByte(1), ConfirmationStatus: rpc.ConfirmationStatusProcessed},
			}, nil
		},
	})

	_, err := client.FindTransferByReference(context.Background(), reference)
	assert.ErrorIs(t, err, superpay.ErrTransferNotConfirmed)
}

func TestFindTransferByReferencePicksOldestSuccessful(t *testing.T) {
	newest := sigWithByte(1)
	oldest := sigWithByte(2)
	client := NewWithRPC(&mockRPC{
		getSignatures: func(solana.PublicKey, *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error) {
			// Newest first, as the RPC returns them.
			return []*rpc.TransactionSignature{
				{Signature: newest, Slot: 20, ConfirmationStatus: rpc.ConfirmationStatusConfirmed},
				{Signature: oldest, Slot: 10, ConfirmationStatus: rpc.ConfirmationStatusFinalized},
			}, nil
		},
	})

	record, err := client.FindTransferByReference(context.Background(), reference)
	require.NoError(t, err)
	assert.Equal(t, oldest, record.Signature)
	assert.Equal(t, uint64(10), record.Slot)
}

func TestFindTransferByReferencePropagatesRPCErrors(t *testing.T) {
	client := NewWithRPC(&mockRPC{
		getSignatures: func(solana.PublicKey, *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error) {
			return nil, errors.New("rpc: node behind")
		},
	})

	_, err := client.FindTransferByReference(context.Background(), reference)
	require.Error(t, err)
	assert.NotErrorIs(t, err, superpay.ErrReferenceNotFound)
}

func TestValidateTransferMissingTransaction(t *testing.T) {
	client := NewWithRPC(&mockRPC{
		getTransaction: func(solana.Signature, *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error) {
			return nil, nil
		},
	})

	err := client.ValidateTransfer(context.Background(), sigWithByte(1), superpay.TransferExpectation{})
	assert.ErrorIs(t, err, superpay.ErrTransferNotConfirmed)
}

func TestValidateTransferOnChainFailure(t *testing.T) {
	client := NewWithRPC(&mockRPC{
		getTransaction: func(solana.Signature, *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error) {
			return &rpc.GetTransactionResult{
				Meta: &rpc.TransactionMeta{Err: map[string]any{"InstructionError": []any{}}},
			}, nil
		},
	})

	err := client.ValidateTransfer(context.Background(), sigWithByte(1), superpay.TransferExpectation{})
	assert.ErrorIs(t, err, superpay.ErrTransferMismatch)
}

func transferTx(keys ...solana.PublicKey) *solana.Transaction {
	return &solana.Transaction{Message: solana.Message{AccountKeys: keys}}
}

func expectation(amount string) superpay.TransferExpectation {
	return superpay.TransferExpectation{
		Recipient: recipient,
		Amount:    decimal.RequireFromString(amount),
		Reference: reference,
	}
}

func TestValidateTransferTx(t *testing.T) {
	t.Run("valid transfer", func(t *testing.T) {
		tx := transferTx(payer, recipient, reference, solana.SystemProgramID)
		meta := &rpc.TransactionMeta{
			PreBalances:  []uint64{1_000_000_000, 500, 0, 1},
			PostBalances: []uint64{949_994_000, 50_000_500, 0, 1},
		}
		assert.NoError(t, validateTransferTx(tx, meta, expectation("0.05")))
	})

	t.Run("amount mismatch", func(t *testing.T) {
		tx := transferTx(payer, recipient, reference)
		meta := &rpc.TransactionMeta{
			PreBalances:  []uint64{1_000_000_000, 500, 0},
			PostBalances: []uint64{959_994_000, 40_000_500, 0},
		}
		err := validateTransferTx(tx, meta, expectation("0.05"))
		assert.ErrorIs(t, err, superpay.ErrTransferMismatch)
	})

	t.Run("recipient absent", func(t *testing.T) {
		tx := transferTx(payer, reference)
		meta := &rpc.TransactionMeta{
			PreBalances:  []uint64{1_000_000_000, 0},
			PostBalances: []uint64{949_994_000, 0},
		}
		err := validateTransferTx(tx, meta, expectation("0.05"))
		assert.ErrorIs(t, err, superpay.ErrTransferMismatch)
	})

	t.Run("reference absent", func(t *testing.T) {
		tx := transferTx(payer, recipient)
		meta := &rpc.TransactionMeta{
			PreBalances:  []uint64{1_000_000_000, 500},
			PostBalances: []uint64{949_994_000, 50_000_500},
		}
		err := validateTransferTx(tx, meta, expectation("0.05"))
		assert.ErrorIs(t, err, superpay.ErrTransferMismatch)
	})

	t.Run("balance decreased", func(t *testing.T) {
		tx := transferTx(payer, recipient, reference)
		meta := &rpc.TransactionMeta{
			PreBalances:  []uint64{1_000_000_000, 500, 0},
			PostBalances: []uint64{1_000_000_000, 400, 0},
		}
		err := validateTransferTx(tx, meta, expectation("0.05"))
		assert.ErrorIs(t, err, superpay.ErrTransferMismatch)
	})

	t.Run("metadata too short", func(t *testing.T) {
		tx := transferTx(payer, recipient, reference)
		meta := &rpc.TransactionMeta{
			PreBalances:  []uint64{1_000_000_000},
			PostBalances: []uint64{949_994_000},
		}
		err := validateTransferTx(tx, meta, expectation("0.05"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, superpay.ErrTransferMismatch)
	})
}
