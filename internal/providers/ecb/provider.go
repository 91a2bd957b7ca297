// Package ecb implements an FX provider backed by the ECB daily euro
// reference feed. The feed is an XML document of EUR-denominated rates;
// tables for other base currencies are derived as cross rates
// (rate(from→to) = eur[to] / eur[from]).
//
// Feed: https://www.ecb.europa.eu/stats/eurofxref/eurofxref-daily.xml
package ecb

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/voyago/farescout/internal/infra"
	"github.com/voyago/farescout/internal/provider"
	"github.com/voyago/farescout/pkg/models"
)

const (
	providerName   = "ecb"
	defaultBaseURL = "https://www.ecb.europa.eu"
	feedPath       = "/stats/eurofxref/eurofxref-daily.xml"
)

// Provider implements provider.Provider for the ECB reference feed.
type Provider struct {
	provider.BaseProvider
	baseURL string
}

// New creates a new ECB provider and registers all fetchers.
func New() *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"European Central Bank - daily euro foreign exchange reference rates",
			"https://www.ecb.europa.eu",
			nil, // no credentials required
		),
		baseURL: defaultBaseURL,
	}
	p.RegisterFetcher(newRatesFetcher(p))
	return p
}

// SetBaseURL overrides the feed base URL (used by tests).
func (p *Provider) SetBaseURL(base string) {
	p.baseURL = base
}

// Ping checks that the daily feed is reachable.
func (p *Provider) Ping(ctx context.Context) error {
	body, _, err := infra.DoGet(ctx, p.baseURL+feedPath, nil)
	if err != nil {
		return fmt.Errorf("ecb ping: %w", err)
	}
	body.Close()
	return nil
}

// --- Feed document ---

// ecbEnvelope maps the gesmes envelope of the daily feed. Only the nested
// Cube structure matters: Cube → Cube[time] → Cube[currency, rate].
type ecbEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Cube    struct {
		Day struct {
			Time  string `xml:"time,attr"`
			Rates []struct {
				Currency string  `xml:"currency,attr"`
				Rate     float64 `xml:"rate,attr"`
			} `xml:"Cube"`
		} `xml:"Cube"`
	} `xml:"Cube"`
}

// --- CurrencyRates fetcher ---

type ratesFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newRatesFetcher(p *Provider) *ratesFetcher {
	return &ratesFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelCurrencyRates,
			"FX rate table derived from the ECB daily reference feed",
			[]string{provider.ParamBase},
			nil,
			time.Hour, 5, time.Second,
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

	eurRates, date, err := f.fetchEuroTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("ecb daily feed: %w", err)
	}

	table, err := crossTable(base, date, eurRates)
	if err != nil {
		return nil, err
	}

	f.CacheSet(cacheKey, table)
	return &provider.FetchResult{Data: table, FetchedAt: time.Now()}, nil
}

// fetchEuroTable downloads and parses the EUR-denominated daily table.
func (f *ratesFetcher) fetchEuroTable(ctx context.Context) (map[string]float64, string, error) {
	body, _, err := infra.DoGet(ctx, f.p.baseURL+feedPath, map[string]string{"Accept": "application/xml"})
	if err != nil {
		return nil, "", err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, "", fmt.Errorf("read feed: %w", err)
	}

	var env ecbEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return nil, "", fmt.Errorf("parse feed XML: %w", err)
	}
	if len(env.Cube.Day.Rates) == 0 {
		return nil, "", fmt.Errorf("feed contains no rates")
	}

	rates := make(map[string]float64, len(env.Cube.Day.Rates)+1)
	rates["EUR"] = 1.0
	for _, r := range env.Cube.Day.Rates {
		if r.Rate > 0 {
			rates[r.Currency] = r.Rate
		}
	}
	return rates, env.Cube.Day.Time, nil
}

// crossTable derives a rate table for the requested base from EUR rates.
func crossTable(base, date string, eur map[string]float64) (*models.RateTable, error) {
	baseRate, ok := eur[base]
	if !ok || baseRate == 0 {
		return nil, fmt.Errorf("currency %s not in ECB reference table", base)
	}

	rates := make(map[string]float64, len(eur))
	for code, r := range eur {
		if code == base {
			continue
		}
		rates[code] = r / baseRate
	}

	return &models.RateTable{
		Base:   base,
		Date:   date,
		Rates:  rates,
		Source: providerName,
	}, nil
}
