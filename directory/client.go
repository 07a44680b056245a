// Package directory resolves a creator's platform identity to a wallet
// address through the backend profile API.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	superpay "github.com/superpage/superpay-go"
)

// DefaultTimeout bounds a single resolution call.
const DefaultTimeout = 10 * time.Second

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
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

// Client is the user-directory collaborator. It must succeed before a
// payment request can be encoded; callers short-circuit on error instead of
// emitting an empty-recipient request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

var (
	_ superpay.RecipientDirectory = (*Client)(nil)
	_ superpay.TipRecorder        = (*Client)(nil)
)

// New creates a directory client against the backend base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type findProfileRequest struct {
	Platform string `json:"platform"`
}

type findProfileResponse struct {
	Status string `json:"status"`
	Data   struct {
		WalletAddress string `json:"walletAddress"`
	} `json:"data"`
}

type createTransactionRequest struct {
	To      string `json:"to"`
	Amount  string `json:"amount"`
	Message string `json:"message"`
}

// RecordTip posts a completed tip to the backend transaction API. The
// backend exposes the directory lookup and the transaction record on the
// same base URL, so this client serves both.
func (c *Client) RecordTip(ctx context.Context, recipient string, amount decimal.Decimal, message string) error {
	body, err := json.Marshal(createTransactionRequest{
		To:      recipient,
		Amount:  amount.String(),
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("transaction record encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transactions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("transaction record build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transaction record post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("transaction record post: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// ResolveRecipientAddress looks up the wallet registered for a platform
// username. A creator with no registration maps to
// superpay.ErrRecipientNotRegistered.
func (c *Client) ResolveRecipientAddress(ctx context.Context, username, platform string) (solana.PublicKey, error) {
	body, err := json.Marshal(findProfileRequest{Platform: platform})
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("directory request encode: %w", err)
	}

	endpoint := fmt.Sprintf("%s/profile/find/%s", c.baseURL, url.PathEscape(username))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("directory request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("directory lookup for %s: %w", username, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return solana.PublicKey{}, fmt.Errorf("%w: %s on %s", superpay.ErrRecipientNotRegistered, username, platform)
	}
	if resp.StatusCode != http.StatusOK {
		return solana.PublicKey{}, fmt.Errorf("directory lookup for %s: unexpected status %d", username, resp.StatusCode)
	}

	var out findProfileResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return solana.PublicKey{}, fmt.Errorf("directory response decode: %w", err)
	}
	if out.Data.WalletAddress == "" {
		return solana.PublicKey{}, fmt.Errorf("%w: %s has no wallet on file", superpay.ErrRecipientNotRegistered, username)
	}

	address, err := solana.PublicKeyFromBase58(out.Data.WalletAddress)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("directory returned an invalid wallet address for %s: %w", username, err)
	}

	c.logger.Debug("recipient resolved",
		zap.String("username", username),
		zap.String("platform", platform),
		zap.String("wallet", address.String()))
	return address, nil
}
