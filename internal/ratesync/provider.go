package ratesync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"

	"github.com/chasseuragace/videsh/internal/currency"
)

// Provider delivers the current pivot multipliers from an external
// rate service.
type Provider interface {
	FetchRates(ctx context.Context) ([]currency.Rate, error)
}

// HTTPProvider pulls rates from a JSON endpoint shaped as
// {"rates": [{"code": "AED", "multiplier": "1"}, ...]}.
type HTTPProvider struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewHTTPProvider(endpoint, token string) *HTTPProvider {
	return &HTTPProvider{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type ratePayload struct {
	Code       string `json:"code"`
	Multiplier string `json:"multiplier"`
}

// FetchRates requests and decodes the provider payload.
func (p *HTTPProvider) FetchRates(ctx context.Context) ([]currency.Rate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.token))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate provider: bad status: %s", resp.Status)
	}

	var body struct {
		Rates []any `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("rate provider payload: %w", err)
	}

	var payload []ratePayload
	cfg := &mapstructure.DecoderConfig{
		Result:  &payload,
		TagName: "json",
	}
	decoder, _ := mapstructure.NewDecoder(cfg)
	if err := decoder.Decode(body.Rates); err != nil {
		return nil, fmt.Errorf("rate provider payload shape: %w", err)
	}

	now := time.Now().UTC()
	rates := make([]currency.Rate, 0, len(payload))
	for _, entry := range payload {
		multiplier, err := decimal.NewFromString(entry.Multiplier)
		if err != nil {
			return nil, fmt.Errorf("rate %s: multiplier %q: %w", entry.Code, entry.Multiplier, err)
		}
		rates = append(rates, currency.Rate{
			Code:       entry.Code,
			Multiplier: multiplier,
			UpdatedAt:  now,
		})
	}
	return rates, nil
}
