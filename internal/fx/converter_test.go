package fx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/voyago/farescout/internal/provider"
	"github.com/voyago/farescout/pkg/models"
)

// ratesStub serves a fixed rate table, counting fetches.
type ratesStub struct {
	provider.BaseProvider
	table *models.RateTable
	err   error
	calls int
}

func newRatesStub(name string, table *models.RateTable, err error) *ratesStub {
	s := &ratesStub{
		BaseProvider: provider.NewBaseProvider(name, "stub rates", "", nil),
		table:        table,
		err:          err,
	}
	s.RegisterFetcher(&ratesStubFetcher{s: s})
	return s
}

type ratesStubFetcher struct {
	s *ratesStub
}

func (f *ratesStubFetcher) ModelType() provider.ModelType { return provider.ModelCurrencyRates }
func (f *ratesStubFetcher) Description() string           { return "stub rates" }
func (f *ratesStubFetcher) RequiredParams() []string      { return []string{provider.ParamBase} }
func (f *ratesStubFetcher) OptionalParams() []string      { return nil }

func (f *ratesStubFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	f.s.calls++
	if f.s.err != nil {
		return nil, f.s.err
	}
	return &provider.FetchResult{Data: f.s.table, FetchedAt: time.Now()}, nil
}

func testConverter(stubs ...*ratesStub) *Converter {
	reg := provider.NewRegistry()
	for _, s := range stubs {
		_ = reg.Register(s)
	}
	return New(reg, nil)
}

func TestConvertIdentity(t *testing.T) {
	stub := newRatesStub("rates", &models.RateTable{Base: "EUR", Rates: map[string]float64{"USD": 1.1}}, nil)
	c := testConverter(stub)

	got, err := c.Convert(context.Background(), 123.456, "EUR", "EUR")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got != 123.456 {
		t.Errorf("identity conversion must return the amount exactly, got %v", got)
	}
	if stub.calls != 0 {
		t.Errorf("identity conversion must not fetch rates, got %d calls", stub.calls)
	}
}

func TestConvertAppliesRateRounded(t *testing.T) {
	stub := newRatesStub("rates", &models.RateTable{
		Base:  "MXN",
		Rates: map[string]float64{"EUR": 0.0513, "USD": 0.0551},
	}, nil)
	c := testConverter(stub)

	got, err := c.Convert(context.Background(), 100, "MXN", "EUR")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got != 5.13 { // round2(100 * 0.0513)
		t.Errorf("expected 5.13, got %v", got)
	}
}

func TestConvertSoftFailsToOriginalAmount(t *testing.T) {
	stub := newRatesStub("rates", nil, errors.New("rate source down"))
	c := testConverter(stub)

	got, err := c.Convert(context.Background(), 99.99, "MXN", "USD")
	if err == nil {
		t.Fatal("expected a reported error")
	}
	if got != 99.99 {
		t.Errorf("soft-fail must return the original amount, got %v", got)
	}
}

func TestConvertDetailedMarksEstimate(t *testing.T) {
	stub := newRatesStub("rates", &models.RateTable{
		Base:  "GBP",
		Rates: map[string]float64{"EUR": 1.17}, // no USD rate
	}, nil)
	c := testConverter(stub)

	conv, err := c.ConvertDetailed(context.Background(), 10, "GBP", "USD")
	if err == nil {
		t.Fatal("expected error for missing target rate")
	}
	if !conv.Estimated {
		t.Error("expected Estimated flag on soft-fail")
	}
	if conv.Converted != 10 {
		t.Errorf("expected original amount, got %v", conv.Converted)
	}

	conv, err = c.ConvertDetailed(context.Background(), 10, "GBP", "EUR")
	if err != nil {
		t.Fatalf("ConvertDetailed: %v", err)
	}
	if conv.Estimated {
		t.Error("successful conversion should not be an estimate")
	}
	if conv.Rate != 1.17 || conv.Converted != 11.70 {
		t.Errorf("unexpected conversion: %+v", conv)
	}
}

func TestConvertFallsBackAcrossProviders(t *testing.T) {
	broken := newRatesStub("primary", nil, errors.New("down"))
	healthy := newRatesStub("secondary", &models.RateTable{
		Base:  "EUR",
		Rates: map[string]float64{"USD": 1.10},
	}, nil)
	c := testConverter(broken, healthy)

	got, err := c.Convert(context.Background(), 100, "EUR", "USD")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got != 110.00 {
		t.Errorf("expected 110.00 via fallback provider, got %v", got)
	}
	if broken.calls != 1 || healthy.calls != 1 {
		t.Errorf("unexpected call counts: primary=%d secondary=%d", broken.calls, healthy.calls)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.004, 1.00},
		{1.125, 1.13}, // exact binary tie, rounds away from zero
		{-1.125, -1.13},
		{38.479, 38.48},
		{0, 0},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
