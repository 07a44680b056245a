package superpay

import "time"

// ============================================================================
// Session Hook Context Types
// ============================================================================

// StateChangeContext contains information passed to state-change hooks
type StateChangeContext struct {
	Request   PaymentRequest
	From      State
	To        State
	Timestamp time.Time
}

// ConfirmedContext contains information passed to confirmation hooks
type ConfirmedContext struct {
	Request       PaymentRequest
	TransactionID string
	Elapsed       time.Duration
}

// FailureContext contains information passed to failure hooks
type FailureContext struct {
	Request PaymentRequest
	Err     error
	Elapsed time.Duration
}

// ExpiredContext contains information passed to expiry hooks
type ExpiredContext struct {
	Request  PaymentRequest
	Deadline time.Time
}

// ============================================================================
// Session Hook Function Types
// ============================================================================

// StateChangeHook is called on every state transition, terminal or not.
// This is where a presentation surface renders the session's progress.
// Hooks run on the session goroutine; they must not block.
type StateChangeHook func(StateChangeContext)

// ConfirmedHook is called exactly once, after the Confirmed transition.
type ConfirmedHook func(ConfirmedContext)

// FailureHook is called exactly once, after the Failed transition.
type FailureHook func(FailureContext)

// ExpiredHook is called exactly once, after the Expired transition.
type ExpiredHook func(ExpiredContext)

type sessionHooks struct {
	onStateChange []StateChangeHook
	onConfirmed   []ConfirmedHook
	onFailure     []FailureHook
	onExpired     []ExpiredHook
}

// ============================================================================
// Session Hook Registration Options
// ============================================================================

// WithStateChangeHook registers a hook to run on every state transition
func WithStateChangeHook(hook StateChangeHook) SessionOption {
	return func(s *ConfirmationSession) {
		s.hooks.onStateChange = append(s.hooks.onStateChange, hook)
	}
}

// WithConfirmedHook registers a hook to run after the Confirmed transition
func WithConfirmedHook(hook ConfirmedHook) SessionOption {
	return func(s *ConfirmationSession) {
		s.hooks.onConfirmed = append(s.hooks.onConfirmed, hook)
	}
}

// WithFailureHook registers a hook to run after the Failed transition
func WithFailureHook(hook FailureHook) SessionOption {
	return func(s *ConfirmationSession) {
		s.hooks.onFailure = append(s.hooks.onFailure, hook)
	}
}

// WithExpiredHook registers a hook to run after the Expired transition
func WithExpiredHook(hook ExpiredHook) SessionOption {
	return func(s *ConfirmationSession) {
		s.hooks.onExpired = append(s.hooks.onExpired, hook)
	}
}
