// Package bank proxies the bank-aggregator provider. The provider API is an
// external collaborator; this client just shuttles JSON over HTTP and maps
// failures onto domain errors.
package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pote-app/pote-backend/internal/domain"
	"github.com/pote-app/pote-backend/internal/logging"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type ExchangeResult struct {
	ProviderRef string
	Name        string
}

type BalanceResult struct {
	Balance  int64
	Currency domain.Currency
}

type exchangeRequest struct {
	Code     string `json:"code"`
	Provider string `json:"provider"`
}

type exchangeResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ExchangeToken trades a link-flow authorization code for a durable account
// reference at the provider.
func (c *Client) ExchangeToken(ctx context.Context, code string, provider domain.BankProvider) (*ExchangeResult, error) {
	var resp exchangeResponse
	if err := c.post(ctx, "/exchange", exchangeRequest{Code: code, Provider: string(provider)}, &resp); err != nil {
		return nil, fmt.Errorf("ExchangeToken: %w", err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("ExchangeToken: empty account id: %w", domain.ErrProviderFailure)
	}
	return &ExchangeResult{ProviderRef: resp.ID, Name: resp.Name}, nil
}

type balanceRequest struct {
	AccountID string `json:"account_id"`
	Provider  string `json:"provider"`
}

type balanceResponse struct {
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

// FetchBalance returns the provider's current balance snapshot in minor units.
func (c *Client) FetchBalance(ctx context.Context, providerRef string, provider domain.BankProvider) (*BalanceResult, error) {
	var resp balanceResponse
	if err := c.post(ctx, "/balance", balanceRequest{AccountID: providerRef, Provider: string(provider)}, &resp); err != nil {
		return nil, fmt.Errorf("FetchBalance: %w", err)
	}

	currency := domain.Currency(resp.Currency)
	if !currency.IsValid() {
		return nil, fmt.Errorf("FetchBalance: currency %q: %w", resp.Currency, domain.ErrInvalidCurrency)
	}

	return &BalanceResult{
		Balance:  decimal.NewFromFloat(resp.Balance).Shift(2).Round(0).IntPart(),
		Currency: currency,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	log := logging.FromContext(ctx)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("post: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post: send: %w", domain.ErrProviderFailure)
	}
	defer resp.Body.Close()

	log.Info("bank provider response",
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("post: status %d: %s: %w", resp.StatusCode, string(respBody), domain.ErrProviderFailure)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("post: decode: %w", err)
	}
	return nil
}
