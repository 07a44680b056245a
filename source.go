package superpay

import (
	"context"
	"errors"
)

// ledgerSource adapts a LedgerClient to the ConfirmationSource interface.
// Each check is a find-then-validate pair: locating a transfer by reference
// alone is not sufficient proof of a correct payment.
type ledgerSource struct {
	client LedgerClient
}

// NewLedgerSource returns the confirmation source used by the QR path. The
// ledger client is a shared, read-only collaborator; the source holds no
// state of its own.
func NewLedgerSource(client LedgerClient) ConfirmationSource {
	return &ledgerSource{client: client}
}

func (l *ledgerSource) Check(ctx context.Context, req PaymentRequest) (CheckResult, error) {
	record, err := l.client.FindTransferByReference(ctx, req.Reference)
	switch {
	case errors.Is(err, ErrReferenceNotFound), errors.Is(err, ErrTransferNotConfirmed):
		return CheckResult{Status: CheckPending}, nil
	case err != nil:
		return CheckResult{}, err
	}

	err = l.client.ValidateTransfer(ctx, record.Signature, TransferExpectation{
		Recipient: req.Recipient,
		Amount:    req.Amount,
		Reference: req.Reference,
	})
	switch {
	case errors.Is(err, ErrTransferNotConfirmed):
		return CheckResult{Status: CheckPending}, nil
	case errors.Is(err, ErrTransferMismatch):
		return CheckResult{Status: CheckFailed, Err: err}, nil
	case err != nil:
		return CheckResult{}, err
	}

	return CheckResult{Status: CheckConfirmed, TransactionID: record.Signature.String()}, nil
}
