// Package exchangerate implements the exchangerate-api.com FX provider.
// The open v4 endpoint serves a daily rate table per base currency with no
// API key required.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/voyago/farescout/internal/infra"
	"github.com/voyago/farescout/internal/provider"
	"github.com/voyago/farescout/pkg/models"
)

const (
	providerName   = "exchangerate"
	defaultBaseURL = "https://api.exchangerate-api.com"
)

// Provider implements provider.Provider for exchangerate-api.com.
type Provider struct {
	provider.BaseProvider
	baseURL string
}

// New creates a new exchangerate provider and registers all fetchers.
func New() *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"exchangerate-api.com - free daily FX rate tables",
			"https://www.exchangerate-api.com",
			nil, // no credentials required
		),
		baseURL: defaultBaseURL,
	}
	p.RegisterFetcher(newRatesFetcher(p))
	return p
}

// SetBaseURL overrides the API base URL (used by tests).
func (p *Provider) SetBaseURL(base string) {
	p.baseURL = base
}

// Ping checks connectivity by fetching the EUR table.
func (p *Provider) Ping(ctx context.Context) error {
	body, _, err := infra.DoGet(ctx, p.baseURL+"/v4/latest/EUR", jsonHeaders())
	if err != nil {
		return fmt.Errorf("exchangerate ping: %w", err)
	}
	body.Close()
	return nil
}

func jsonHeaders() map[string]string {
	return map[string]string{"Accept": "application/json"}
}

// --- CurrencyRates fetcher ---

// latestResponse is the /v4/latest/{base} payload.
type latestResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

type ratesFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newRatesFetcher(p *Provider) *ratesFetcher {
	return &ratesFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelCurrencyRates,
			"Latest FX rate table from exchangerate-api.com",
			[]string{provider.ParamBase},
			nil,
			10*time.Minute, 5, time.Second,
		),
		p: p,
	}
}

func (f *ratesFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	base := strings.ToUpper(params[provider.ParamBase])

	cacheKey := provider.CacheKey(f.ModelType(), params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return &provider.FetchResult{Data: cached, FetchedAt: time.Now(), Cached: true}, nil
	}
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	body, _, err := infra.DoGet(ctx, f.p.baseURL+"/v4/latest/"+base, jsonHeaders())
	if err != nil {
		return nil, fmt.Errorf("exchangerate latest %s: %w", base, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var resp latestResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse exchangerate JSON: %w", err)
	}
	if len(resp.Rates) == 0 {
		return nil, fmt.Errorf("exchangerate latest %s: empty rate table", base)
	}

	table := &models.RateTable{
		Base:   base,
		Date:   resp.Date,
		Rates:  resp.Rates,
		Source: providerName,
	}

	f.CacheSet(cacheKey, table)
	return &provider.FetchResult{Data: table, FetchedAt: time.Now()}, nil
}
