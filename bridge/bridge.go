package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	solana "github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	superpay "github.com/superpage/superpay-go"
)

// Transport posts an outbound message toward the injected wallet-bridge
// script. Implementations deliver however the host embeds the bridge
// (native messaging, websocket, in-page relay); the bridge only assumes
// at-most-once response semantics per correlation ID.
type Transport interface {
	Post(ctx context.Context, message []byte) error
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger attaches a logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Bridge correlates outbound tip requests with their single result message.
// Each request registers a one-shot mailbox keyed by correlation ID; the
// mailbox is unregistered the moment its response arrives, so a later,
// unrelated message can never be double-processed.
//
// The bridge collaborator on the far side owns the retry and
// signature-prompt lifecycle; this side never retries.
type Bridge struct {
	transport Transport
	logger    *zap.Logger

	mu      sync.Mutex
	pending map[string]*mailbox
}

var _ superpay.TipSender = (*Bridge)(nil)

// New creates a bridge over the given transport.
func New(transport Transport, opts ...Option) *Bridge {
	b := &Bridge{
		transport: transport,
		logger:    zap.NewNop(),
		pending:   make(map[string]*mailbox),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SendTip posts a TIP_REQUEST and returns the ConfirmationSource that will
// observe the correlated TIP_RESULT. The mailbox is registered before the
// message is posted so an immediate response cannot be lost.
func (b *Bridge) SendTip(ctx context.Context, recipient solana.PublicKey, amountLamports uint64) (superpay.ConfirmationSource, error) {
	payload, err := json.Marshal(TipRequestPayload{
		Recipient:      recipient.String(),
		AmountLamports: amountLamports,
	})
	if err != nil {
		return nil, fmt.Errorf("tip request encode: %w", err)
	}

	id := uuid.NewString()
	message, err := json.Marshal(Envelope{
		Version:       EnvelopeVersion,
		Type:          TypeTipRequest,
		CorrelationID: id,
		Payload:       payload,
	})
	if err != nil {
		return nil, fmt.Errorf("tip request envelope encode: %w", err)
	}

	box := &mailbox{}
	b.mu.Lock()
	b.pending[id] = box
	b.mu.Unlock()

	if err := b.transport.Post(ctx, message); err != nil {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
		return nil, fmt.Errorf("tip request post: %w", err)
	}

	b.logger.Debug("tip request posted to bridge",
		zap.String("correlationId", id),
		zap.Uint64("lamports", amountLamports))
	return box, nil
}

// Dispatch routes one inbound message from the bridge script. Unknown or
// late correlation IDs are rejected rather than broadcast; malformed
// messages never reach a mailbox.
func (b *Bridge) Dispatch(raw []byte) error {
	env, err := parseEnvelope(raw)
	if err != nil {
		b.logger.Warn("rejected malformed bridge message", zap.Error(err))
		return err
	}
	if env.Type != TypeTipResult {
		return fmt.Errorf("unexpected bridge message type %q", env.Type)
	}

	result, err := parseTipResult(env.Payload)
	if err != nil {
		b.logger.Warn("rejected malformed tip result",
			zap.String("correlationId", env.CorrelationID),
			zap.Error(err))
		return err
	}

	b.mu.Lock()
	box, ok := b.pending[env.CorrelationID]
	if ok {
		delete(b.pending, env.CorrelationID)
	}
	b.mu.Unlock()

	if !ok {
		return fmt.Errorf("no pending request for correlation id %s", env.CorrelationID)
	}

	box.deliver(result)
	b.logger.Debug("tip result delivered",
		zap.String("correlationId", env.CorrelationID),
		zap.Bool("success", result.Success))
	return nil
}

// PendingCount reports how many requests still await a result.
func (b *Bridge) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// mailbox holds at most one result and exposes it through the
// ConfirmationSource interface, letting the bridge path drive the same
// session state machine as the poll path.
type mailbox struct {
	mu     sync.Mutex
	result *TipResultPayload
}

func (m *mailbox) deliver(result TipResultPayload) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.result != nil {
		return
	}
	m.result = &result
}

// Check inspects the mailbox without blocking. Pending until the single
// result message arrives; there is no retry on this path.
func (m *mailbox) Check(_ context.Context, _ superpay.PaymentRequest) (superpay.CheckResult, error) {
	m.mu.Lock()
	result := m.result
	m.mu.Unlock()

	if result == nil {
		return superpay.CheckResult{Status: superpay.CheckPending}, nil
	}
	if !result.Success {
		return superpay.CheckResult{
			Status: superpay.CheckFailed,
			Err: superpay.NewPaymentError(superpay.ErrCodeBridgeRejected,
				"wallet bridge reported a failure",
				map[string]interface{}{"error": result.Error}),
		}, nil
	}
	if result.TransactionID == "" {
		return superpay.CheckResult{
			Status: superpay.CheckFailed,
			Err: superpay.NewPaymentError(superpay.ErrCodeBridgeRejected,
				"wallet bridge reported success without a transaction id", nil),
		}, nil
	}
	return superpay.CheckResult{
		Status:        superpay.CheckConfirmed,
		TransactionID: result.TransactionID,
	}, nil
}
