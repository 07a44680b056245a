// Package bridge implements the wallet-extension confirmation path: a typed,
// versioned message envelope with explicit correlation IDs replaces the
// wildcard postMessage dispatch, so concurrent sessions can never receive
// each other's responses.
package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// EnvelopeVersion is the current wire version of bridge messages.
const EnvelopeVersion = 1

// Message types carried by the envelope.
const (
	TypeTipRequest = "TIP_REQUEST"
	TypeTipResult  = "TIP_RESULT"
)

// Envelope is the versioned wrapper around every bridge message.
type Envelope struct {
	Version       int             `json:"version"`
	Type          string          `json:"type"`
	CorrelationID string          `json:"correlationId"`
	Payload       json.RawMessage `json:"payload"`
}

// TipRequestPayload is the outbound request handed to the bridge. Amounts
// cross the bridge in the chain's smallest unit to keep the wire integral.
type TipRequestPayload struct {
	Recipient      string `json:"recipient"`
	AmountLamports uint64 `json:"amountLamports"`
}

// TipResultPayload is the single inbound response expected per request.
type TipResultPayload struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId,omitempty"`
	Error         string `json:"error,omitempty"`
}

// envelopeSchema validates the shape of inbound messages before any field
// is trusted. Payload contents are validated per message type.
const envelopeSchema = `{
	"type": "object",
	"required": ["version", "type", "correlationId", "payload"],
	"properties": {
		"version": {"type": "integer", "minimum": 1},
		"type": {"type": "string", "minLength": 1},
		"correlationId": {"type": "string", "minLength": 1},
		"payload": {"type": "object"}
	}
}`

const tipResultSchema = `{
	"type": "object",
	"required": ["success"],
	"properties": {
		"success": {"type": "boolean"},
		"transactionId": {"type": "string"},
		"error": {"type": "string"}
	}
}`

var (
	envelopeSchemaLoader  = gojsonschema.NewStringLoader(envelopeSchema)
	tipResultSchemaLoader = gojsonschema.NewStringLoader(tipResultSchema)
)

// parseEnvelope validates and decodes an inbound envelope.
func parseEnvelope(raw []byte) (Envelope, error) {
	result, err := gojsonschema.Validate(envelopeSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return Envelope{}, fmt.Errorf("envelope validation: %w", err)
	}
	if !result.Valid() {
		return Envelope{}, fmt.Errorf("invalid envelope: %v", result.Errors())
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("envelope decode: %w", err)
	}
	if env.Version > EnvelopeVersion {
		return Envelope{}, fmt.Errorf("unsupported envelope version %d", env.Version)
	}
	return env, nil
}

// parseTipResult validates and decodes a TIP_RESULT payload.
func parseTipResult(raw json.RawMessage) (TipResultPayload, error) {
	result, err := gojsonschema.Validate(tipResultSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return TipResultPayload{}, fmt.Errorf("tip result validation: %w", err)
	}
	if !result.Valid() {
		return TipResultPayload{}, fmt.Errorf("invalid tip result: %v", result.Errors())
	}

	var payload TipResultPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return TipResultPayload{}, fmt.Errorf("tip result decode: %w", err)
	}
	return payload, nil
}
