package superpay

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/superpage/superpay-go/solanapay"
)

// DefaultQRSize is the pixel width of rendered QR codes.
const DefaultQRSize = 256

// FlowOption configures a TipFlow.
type FlowOption func(*TipFlow)

// WithBridge enables the extension path by attaching the bridge sender.
func WithBridge(sender TipSender) FlowOption {
	return func(f *TipFlow) {
		f.sender = sender
	}
}

// WithRecorder attaches a recorder that persists confirmed tips through the
// backend transaction API.
func WithRecorder(recorder TipRecorder) FlowOption {
	return func(f *TipFlow) {
		f.recorder = recorder
	}
}

// WithFlowLogger attaches a logger. Defaults to a no-op logger.
func WithFlowLogger(logger *zap.Logger) FlowOption {
	return func(f *TipFlow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithSessionOptions sets the options applied to every session the flow
// creates (poll interval, deadline, presentation hooks).
func WithSessionOptions(opts ...SessionOption) FlowOption {
	return func(f *TipFlow) {
		f.sessionOpts = opts
	}
}

// WithQRSize overrides the rendered QR code size.
func WithQRSize(size int) FlowOption {
	return func(f *TipFlow) {
		if size > 0 {
			f.qrSize = size
		}
	}
}

// TipFlow is the single entry point for both confirmation paths. A user
// action selects exactly one path per payment attempt, QR/poll or
// extension/bridge, and both converge on the same terminal states through
// the same session machinery.
type TipFlow struct {
	directory   RecipientDirectory
	ledger      LedgerClient
	sender      TipSender
	sessions    *SessionManager
	recorder    TipRecorder
	logger      *zap.Logger
	sessionOpts []SessionOption
	qrSize      int
}

// NewTipFlow creates a flow over the shared, process-wide collaborators.
// The ledger client is read-only and safely shared by every session the
// flow starts.
func NewTipFlow(directory RecipientDirectory, ledger LedgerClient, opts ...FlowOption) *TipFlow {
	f := &TipFlow{
		directory: directory,
		ledger:    ledger,
		sessions:  NewSessionManager(),
		logger:    zap.NewNop(),
		qrSize:    DefaultQRSize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Sessions exposes the flow's session manager, mainly so a caller can
// release a session when its surface is dismissed.
func (f *TipFlow) Sessions() *SessionManager {
	return f.sessions
}

// QRTip is the result of starting a QR-path tip attempt.
type QRTip struct {
	Request PaymentRequest
	// URL is the canonical payment-request URI embedded in the QR code.
	URL string
	// QR is the rendered PNG. Displaying it is the caller's responsibility.
	QR []byte
	// Session is already started; observe it through hooks or Wait.
	Session *ConfirmationSession
}

// BridgeTip is the result of starting an extension-path tip attempt.
type BridgeTip struct {
	Request PaymentRequest
	Session *ConfirmationSession
}

// RequestQRTip starts a QR-path tip attempt for the given surface.
//
// The amount is validated synchronously before anything else happens: a
// rejected amount generates no reference and creates no session. Recipient
// resolution failures abort before a request is encoded. Any session
// previously active on the surface is cancelled before the new one starts.
func (f *TipFlow) RequestQRTip(ctx context.Context, surface, username, platform string, amount decimal.Decimal, meta RequestMetadata) (*QRTip, error) {
	req, err := f.buildRequest(ctx, username, platform, amount, meta)
	if err != nil {
		return nil, err
	}

	url, err := solanapay.EncodeURL(solanapay.URLParams{
		Recipient: req.Recipient,
		Amount:    req.Amount,
		Reference: req.Reference,
		Label:     req.Metadata.Label,
		Message:   req.Metadata.Message,
		Memo:      req.Metadata.Memo,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment request: %w", err)
	}

	qr, err := solanapay.QRCode(url, f.qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render payment QR: %w", err)
	}

	session := f.startSession(ctx, surface, req, NewLedgerSource(f.ledger))
	if err := session.Start(ctx); err != nil {
		return nil, err
	}

	f.logger.Info("qr tip attempt started",
		zap.String("surface", surface),
		zap.String("recipient", req.Recipient.String()),
		zap.String("reference", req.Reference.String()),
		zap.String("amount", req.Amount.String()))

	return &QRTip{Request: req, URL: url, QR: qr, Session: session}, nil
}

// RequestBridgeTip starts an extension-path tip attempt for the given
// surface. The bridge collaborator owns the signature-prompt lifecycle; the
// session simply observes its single result message, bounded by the same
// deadline as the QR path.
func (f *TipFlow) RequestBridgeTip(ctx context.Context, surface, username, platform string, amount decimal.Decimal, meta RequestMetadata) (*BridgeTip, error) {
	if f.sender == nil {
		return nil, fmt.Errorf("no bridge configured for extension tips")
	}

	req, err := f.buildRequest(ctx, username, platform, amount, meta)
	if err != nil {
		return nil, err
	}

	source, err := f.sender.SendTip(ctx, req.Recipient, req.Lamports())
	if err != nil {
		return nil, fmt.Errorf("failed to hand tip to bridge: %w", err)
	}

	session := f.startSession(ctx, surface, req, source)
	if err := session.Start(ctx); err != nil {
		return nil, err
	}

	f.logger.Info("bridge tip attempt started",
		zap.String("surface", surface),
		zap.String("recipient", req.Recipient.String()),
		zap.Uint64("lamports", req.Lamports()))

	return &BridgeTip{Request: req, Session: session}, nil
}

// buildRequest validates the amount, resolves the recipient and generates a
// fresh reference, in that order. Each step short-circuits so that invalid
// attempts leave no side effects.
func (f *TipFlow) buildRequest(ctx context.Context, username, platform string, amount decimal.Decimal, meta RequestMetadata) (PaymentRequest, error) {
	if err := ValidateAmount(amount); err != nil {
		return PaymentRequest{}, err
	}

	recipient, err := f.directory.ResolveRecipientAddress(ctx, username, platform)
	if err != nil {
		f.logger.Warn("recipient resolution failed",
			zap.String("username", username),
			zap.String("platform", platform),
			zap.Error(err))
		return PaymentRequest{}, err
	}

	reference, err := solanapay.GenerateReference()
	if err != nil {
		return PaymentRequest{}, fmt.Errorf("failed to generate payment reference: %w", err)
	}

	return NewPaymentRequest(recipient, amount, reference, meta)
}

// startSession builds the session, wires the recorder, and installs it as
// the surface's active session (cancelling any predecessor).
func (f *TipFlow) startSession(ctx context.Context, surface string, req PaymentRequest, source ConfirmationSource) *ConfirmationSession {
	opts := append([]SessionOption{}, f.sessionOpts...)
	if f.recorder != nil {
		opts = append(opts, WithConfirmedHook(func(c ConfirmedContext) {
			// Recording runs off the session goroutine so a slow backend
			// cannot stall teardown.
			go func() {
				if err := f.recorder.RecordTip(context.WithoutCancel(ctx), c.Request.Recipient.String(), c.Request.Amount, c.Request.Metadata.Message); err != nil {
					f.logger.Warn("failed to record confirmed tip",
						zap.String("transaction", c.TransactionID),
						zap.Error(err))
				}
			}()
		}))
	}

	session := NewConfirmationSession(req, source, opts...)
	f.sessions.Replace(surface, session)
	return session
}
