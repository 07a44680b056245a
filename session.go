package superpay

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timings for the reconciliation loop. The interval matches the
// source's patience for RPC latency; the deadline is the user patience
// window after which a session expires.
const (
	DefaultPollInterval = 4 * time.Second
	DefaultDeadline     = 5 * time.Minute
)

// SessionOption configures a ConfirmationSession at creation time.
type SessionOption func(*ConfirmationSession)

// WithPollInterval overrides the tick interval between confirmation checks.
func WithPollInterval(d time.Duration) SessionOption {
	return func(s *ConfirmationSession) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithDeadline overrides the patience window after which the session expires.
func WithDeadline(d time.Duration) SessionOption {
	return func(s *ConfirmationSession) {
		if d > 0 {
			s.deadline = d
		}
	}
}

// WithSessionLogger attaches a logger for transient lookup failures and
// state transitions. Defaults to a no-op logger.
func WithSessionLogger(logger *zap.Logger) SessionOption {
	return func(s *ConfirmationSession) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// ConfirmationSession reconciles one payment request against its
// confirmation source and transitions through Waiting/Checking into exactly
// one of Confirmed, Expired or Failed.
//
// The session owns two timers: the poll ticker and the deadline timer. Both
// are stopped together the moment any terminal transition occurs. Ticks are
// serialized: the loop runs on a single goroutine and a new check is never
// issued while a prior one is in flight; ticks that elapse during a slow
// check are coalesced by the ticker.
type ConfirmationSession struct {
	request  PaymentRequest
	source   ConfirmationSource
	interval time.Duration
	deadline time.Duration
	logger   *zap.Logger
	hooks    sessionHooks

	mu         sync.Mutex
	state      State
	transferID string
	failure    error
	started    bool
	startedAt  time.Time
	expireAt   time.Time
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewConfirmationSession creates a session in the Waiting state. Nothing
// runs until Start is called.
func NewConfirmationSession(request PaymentRequest, source ConfirmationSource, opts ...SessionOption) *ConfirmationSession {
	s := &ConfirmationSession{
		request:  request,
		source:   source,
		interval: DefaultPollInterval,
		deadline: DefaultDeadline,
		logger:   zap.NewNop(),
		state:    StateWaiting,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the reconciliation loop. It returns
// ErrSessionAlreadyStarted if the session already owns a running loop; a
// session is single-use and a fresh request needs a fresh session.
func (s *ConfirmationSession) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrSessionAlreadyStarted
	}
	s.started = true
	s.startedAt = time.Now()
	s.expireAt = s.startedAt.Add(s.deadline)
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	go s.run(ctx)
	return nil
}

// Cancel stops the loop and releases both timers. It is idempotent and safe
// to call from any goroutine. No further ledger queries are issued after
// Cancel returns and the loop has wound down; an in-flight check observes
// the cancelled context. Cancelling does not produce a terminal transition:
// a dismissed session simply stops where it is.
func (s *ConfirmationSession) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Done is closed when the loop has stopped, whether by terminal transition
// or cancellation.
func (s *ConfirmationSession) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session stops or ctx is cancelled, returning the
// state at that point.
func (s *ConfirmationSession) Wait(ctx context.Context) (State, error) {
	select {
	case <-s.done:
		return s.State(), nil
	case <-ctx.Done():
		return s.State(), ctx.Err()
	}
}

// State returns the current session state.
func (s *ConfirmationSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Request returns the payment request this session reconciles.
func (s *ConfirmationSession) Request() PaymentRequest {
	return s.request
}

// MatchedTransferID returns the ledger transaction identifier of the
// validated transfer. Empty unless the session is Confirmed.
func (s *ConfirmationSession) MatchedTransferID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transferID
}

// Err returns the failure that drove a Failed transition, nil otherwise.
func (s *ConfirmationSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

func (s *ConfirmationSession) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	expiry := time.NewTimer(s.deadline)
	defer expiry.Stop()
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return

		case <-expiry.C:
			if s.expire() {
				return
			}
			// Lost a race with a terminal transition; nothing left to do.
			return

		case <-ticker.C:
			if !s.setState(StateChecking) {
				// Defensive: a terminal transition slipped in between the
				// tick firing and this check. Ticks after a terminal state
				// are no-ops.
				return
			}
			result, err := s.source.Check(ctx, s.request)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				// Transient collaborator failure. One bad poll must not fail
				// the user's payment.
				s.logger.Warn("confirmation check failed, will retry",
					zap.String("reference", s.request.Reference.String()),
					zap.Error(err))
				s.setState(StateWaiting)
				continue
			}
			switch result.Status {
			case CheckConfirmed:
				s.confirm(result.TransactionID)
				return
			case CheckFailed:
				s.fail(result.Err)
				return
			default:
				s.setState(StateWaiting)
			}
		}
	}
}

// setState performs a non-terminal transition. Returns false if the session
// is already terminal or the state is unchanged.
func (s *ConfirmationSession) setState(to State) bool {
	s.mu.Lock()
	if s.state.Terminal() || s.state == to {
		s.mu.Unlock()
		return false
	}
	from := s.state
	s.state = to
	s.mu.Unlock()

	s.notifyStateChange(from, to)
	return true
}

func (s *ConfirmationSession) confirm(transactionID string) {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	from := s.state
	s.state = StateConfirmed
	s.transferID = transactionID
	elapsed := time.Since(s.startedAt)
	s.mu.Unlock()

	s.logger.Info("payment confirmed",
		zap.String("reference", s.request.Reference.String()),
		zap.String("transaction", transactionID),
		zap.Duration("elapsed", elapsed))
	s.notifyStateChange(from, StateConfirmed)
	for _, h := range s.hooks.onConfirmed {
		h(ConfirmedContext{Request: s.request, TransactionID: transactionID, Elapsed: elapsed})
	}
}

func (s *ConfirmationSession) fail(cause error) {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	from := s.state
	s.state = StateFailed
	s.failure = cause
	elapsed := time.Since(s.startedAt)
	s.mu.Unlock()

	s.logger.Warn("payment failed validation",
		zap.String("reference", s.request.Reference.String()),
		zap.Error(cause))
	s.notifyStateChange(from, StateFailed)
	for _, h := range s.hooks.onFailure {
		h(FailureContext{Request: s.request, Err: cause, Elapsed: elapsed})
	}
}

func (s *ConfirmationSession) expire() bool {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return false
	}
	from := s.state
	s.state = StateExpired
	deadline := s.expireAt
	s.mu.Unlock()

	s.logger.Info("payment window expired",
		zap.String("reference", s.request.Reference.String()))
	s.notifyStateChange(from, StateExpired)
	for _, h := range s.hooks.onExpired {
		h(ExpiredContext{Request: s.request, Deadline: deadline})
	}
	return true
}

func (s *ConfirmationSession) notifyStateChange(from, to State) {
	ctx := StateChangeContext{Request: s.request, From: from, To: to, Timestamp: time.Now()}
	for _, h := range s.hooks.onStateChange {
		h(ctx)
	}
}
