package solanapay

import (
	"fmt"
	"net/url"
	"strings"

	solana "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Scheme is the URI scheme of the Solana Pay convention.
const Scheme = "solana"

// URLParams are the fields embedded in a payment-request URI.
type URLParams struct {
	// Recipient is the payee account. Required.
	Recipient solana.PublicKey
	// Amount is the transfer size in SOL. Required and positive; a wallet
	// treats a missing amount as "ask the user", which a tip flow never wants.
	Amount decimal.Decimal
	// Reference is the correlation key the payer's wallet includes in the
	// transfer. Required.
	Reference solana.PublicKey
	// Label, Message and Memo are opaque descriptive metadata.
	Label   string
	Message string
	Memo    string
}

// EncodeURL builds the canonical payment-request URI, e.g.
//
//	solana:<recipient>?amount=0.05&reference=<ref>&label=Tip&message=Thanks
//
// Rendering the URI (QR or link) is the caller's responsibility.
func EncodeURL(p URLParams) (string, error) {
	if p.Recipient.IsZero() {
		return "", fmt.Errorf("payment url requires a recipient")
	}
	if !p.Amount.IsPositive() {
		return "", fmt.Errorf("payment url requires a positive amount")
	}
	if p.Reference.IsZero() {
		return "", fmt.Errorf("payment url requires a reference")
	}

	query := url.Values{}
	query.Set("amount", p.Amount.String())
	query.Set("reference", p.Reference.String())
	if p.Label != "" {
		query.Set("label", p.Label)
	}
	if p.Message != "" {
		query.Set("message", p.Message)
	}
	if p.Memo != "" {
		query.Set("memo", p.Memo)
	}

	return Scheme + ":" + p.Recipient.String() + "?" + query.Encode(), nil
}

// ParseURL decodes a payment-request URI produced by EncodeURL. Used by
// tests and by tooling that needs to inspect advertised requests.
func ParseURL(raw string) (URLParams, error) {
	rest, ok := strings.CutPrefix(raw, Scheme+":")
	if !ok {
		return URLParams{}, fmt.Errorf("not a %s: url", Scheme)
	}

	recipientPart, queryPart, _ := strings.Cut(rest, "?")
	recipient, err := solana.PublicKeyFromBase58(recipientPart)
	if err != nil {
		return URLParams{}, fmt.Errorf("invalid recipient in payment url: %w", err)
	}

	query, err := url.ParseQuery(queryPart)
	if err != nil {
		return URLParams{}, fmt.Errorf("invalid payment url query: %w", err)
	}

	p := URLParams{
		Recipient: recipient,
		Label:     query.Get("label"),
		Message:   query.Get("message"),
		Memo:      query.Get("memo"),
	}

	if raw := query.Get("amount"); raw != "" {
		p.Amount, err = decimal.NewFromString(raw)
		if err != nil {
			return URLParams{}, fmt.Errorf("invalid amount in payment url: %w", err)
		}
	}
	if raw := query.Get("reference"); raw != "" {
		p.Reference, err = solana.PublicKeyFromBase58(raw)
		if err != nil {
			return URLParams{}, fmt.Errorf("invalid reference in payment url: %w", err)
		}
	}

	return p, nil
}
