package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	superpay "github.com/superpage/superpay-go"
)

// captureTransport records posted messages.
type captureTransport struct {
	messages [][]byte
	err      error
}

func (t *captureTransport) Post(_ context.Context, message []byte) error {
	if t.err != nil {
		return t.err
	}
	t.messages = append(t.messages, message)
	return nil
}

var testRecipient = solana.MustPublicKeyFromBase58("CmtShTafYxCfpAehyvNacWXwGeG2RL9Nvp7T5Q2DheGj")

// sendTip posts a request and returns the source plus the envelope that
// went over the wire.
func sendTip(t *testing.T, b *Bridge, transport *captureTransport) (superpay.ConfirmationSource, Envelope) {
	t.Helper()
	before := len(transport.messages)
	source, err := b.SendTip(context.Background(), testRecipient, 50_000_000)
	require.NoError(t, err)
	require.Len(t, transport.messages, before+1)

	var env Envelope
	require.NoError(t, json.Unmarshal(transport.messages[len(transport.messages)-1], &env))
	return source, env
}

func resultMessage(t *testing.T, correlationID string, payload TipResultPayload) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	msg, err := json.Marshal(Envelope{
		Version:       EnvelopeVersion,
		Type:          TypeTipResult,
		CorrelationID: correlationID,
		Payload:       raw,
	})
	require.NoError(t, err)
	return msg
}

func TestSendTipPostsVersionedEnvelope(t *testing.T) {
	transport := &captureTransport{}
	b := New(transport)

	_, env := sendTip(t, b, transport)

	assert.Equal(t, EnvelopeVersion, env.Version)
	assert.Equal(t, TypeTipRequest, env.Type)
	assert.NotEmpty(t, env.CorrelationID)

	var payload TipRequestPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, testRecipient.String(), payload.Recipient)
	assert.Equal(t, uint64(50_000_000), payload.AmountLamports)

	assert.Equal(t, 1, b.PendingCount())
}

func TestSendTipUnregistersOnTransportError(t *testing.T) {
	b := New(&captureTransport{err: errors.New("port closed")})

	_, err := b.SendTip(context.Background(), testRecipient, 1_000_000)
	require.Error(t, err)
	assert.Equal(t, 0, b.PendingCount())
}

func TestDispatchRoutesByCorrelationID(t *testing.T) {
	transport := &captureTransport{}
	b := New(transport)

	sourceA, envA := sendTip(t, b, transport)
	sourceB, envB := sendTip(t, b, transport)
	require.NotEqual(t, envA.CorrelationID, envB.CorrelationID)

	// Only B's result arrives. A must stay pending.
	require.NoError(t, b.Dispatch(resultMessage(t, envB.CorrelationID, TipResultPayload{
		Success:       true,
		TransactionID: "sig-b",
	})))

	resultA, err := sourceA.Check(context.Background(), superpay.PaymentRequest{})
	require.NoError(t, err)
	assert.Equal(t, superpay.CheckPending, resultA.Status)

	resultB, err := sourceB.Check(context.Background(), superpay.PaymentRequest{})
	require.NoError(t, err)
	assert.Equal(t, superpay.CheckConfirmed, resultB.Status)
	assert.Equal(t, "sig-b", resultB.TransactionID)

	assert.Equal(t, 1, b.PendingCount())
}

func TestDispatchUnregistersMailboxOnDelivery(t *testing.T) {
	transport := &captureTransport{}
	b := New(transport)
	_, env := sendTip(t, b, transport)

	msg := resultMessage(t, env.CorrelationID, TipResultPayload{Success: true, TransactionID: "sig-1"})
	require.NoError(t, b.Dispatch(msg))
	assert.Equal(t, 0, b.PendingCount())

	// A duplicate of the same message is rejected, not re-delivered.
	err := b.Dispatch(msg)
	assert.Error(t, err)
}

func TestDispatchRejectsUnknownCorrelationID(t *testing.T) {
	b := New(&captureTransport{})
	err := b.Dispatch(resultMessage(t, "never-issued", TipResultPayload{Success: true, TransactionID: "sig"}))
	assert.Error(t, err)
}

func TestDispatchRejectsMalformedMessages(t *testing.T) {
	transport := &captureTransport{}
	b := New(transport)
	_, env := sendTip(t, b, transport)

	cases := []struct {
		name string
		raw  []byte
	}{
		{"not json", []byte("definitely not json")},
		{"missing correlation id", []byte(`{"version":1,"type":"TIP_RESULT","payload":{"success":true}}`)},
		{"missing payload", []byte(`{"version":1,"type":"TIP_RESULT","correlationId":"x"}`)},
		{"payload without success", []byte(fmt.Sprintf(`{"version":1,"type":"TIP_RESULT","correlationId":%q,"payload":{}}`, env.CorrelationID))},
		{"future version", []byte(fmt.Sprintf(`{"version":99,"type":"TIP_RESULT","correlationId":%q,"payload":{"success":true}}`, env.CorrelationID))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, b.Dispatch(tc.raw))
		})
	}

	// None of the rejects reached the mailbox.
	assert.Equal(t, 1, b.PendingCount())
}

func TestDispatchRejectsWrongMessageType(t *testing.T) {
	transport := &captureTransport{}
	b := New(transport)
	_, env := sendTip(t, b, transport)

	msg, err := json.Marshal(Envelope{
		Version:       EnvelopeVersion,
		Type:          TypeTipRequest,
		CorrelationID: env.CorrelationID,
		Payload:       json.RawMessage(`{"recipient":"x","amountLamports":1}`),
	})
	require.NoError(t, err)
	assert.Error(t, b.Dispatch(msg))
	assert.Equal(t, 1, b.PendingCount())
}

func TestMailboxCheckSemantics(t *testing.T) {
	t.Run("failure result maps to CheckFailed", func(t *testing.T) {
		transport := &captureTransport{}
		b := New(transport)
		source, env := sendTip(t, b, transport)

		require.NoError(t, b.Dispatch(resultMessage(t, env.CorrelationID, TipResultPayload{
			Success: false,
			Error:   "user rejected the signature prompt",
		})))

		result, err := source.Check(context.Background(), superpay.PaymentRequest{})
		require.NoError(t, err)
		assert.Equal(t, superpay.CheckFailed, result.Status)

		var perr *superpay.PaymentError
		require.ErrorAs(t, result.Err, &perr)
		assert.Equal(t, superpay.ErrCodeBridgeRejected, perr.Code)
	})

	t.Run("success without transaction id maps to CheckFailed", func(t *testing.T) {
		transport := &captureTransport{}
		b := New(transport)
		source, env := sendTip(t, b, transport)

		require.NoError(t, b.Dispatch(resultMessage(t, env.CorrelationID, TipResultPayload{
			Success: true,
		})))

		result, err := source.Check(context.Background(), superpay.PaymentRequest{})
		require.NoError(t, err)
		assert.Equal(t, superpay.CheckFailed, result.Status)
	})

	t.Run("first delivered result wins", func(t *testing.T) {
		box := &mailbox{}
		box.deliver(TipResultPayload{Success: true, TransactionID: "first"})
		box.deliver(TipResultPayload{Success: true, TransactionID: "second"})

		result, err := box.Check(context.Background(), superpay.PaymentRequest{})
		require.NoError(t, err)
		assert.Equal(t, "first", result.TransactionID)
	})
}
