// Package fx converts monetary amounts between currencies using the
// CurrencyRates providers registered in the provider registry.
package fx

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/voyago/farescout/internal/provider"
	"github.com/voyago/farescout/pkg/models"
)

// Converter converts amounts via registry-backed rate tables. Conversion
// fails soft: the returned value is always usable, and a non-nil error marks
// it as an unconverted estimate rather than aborting the caller.
type Converter struct {
	reg *provider.Registry
	log *zap.Logger
}

// New creates a converter on top of the given registry.
func New(reg *provider.Registry, log *zap.Logger) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Converter{reg: reg, log: log}
}

// Convert converts amount from one currency to another using the rate in
// effect at call time, rounded to two decimals. Identical currencies convert
// without a network call. On any rate failure the original amount is returned
// together with the error; callers treat the value as best-effort.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	conv, err := c.ConvertDetailed(ctx, amount, from, to)
	return conv.Converted, err
}

// ConvertDetailed is Convert with the full conversion result, including the
// applied rate and the Estimated flag for presentation.
func (c *Converter) ConvertDetailed(ctx context.Context, amount float64, from, to string) (models.Conversion, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	conv := models.Conversion{Amount: amount, From: from, To: to}

	if from == to {
		conv.Rate = 1.0
		conv.Converted = amount
		return conv, nil
	}

	rate, err := c.rate(ctx, from, to)
	if err != nil {
		c.log.Warn("currency conversion failed, keeping original amount",
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err),
		)
		conv.Converted = amount
		conv.Estimated = true
		return conv, err
	}

	conv.Rate = rate
	conv.Converted = Round2(amount * rate)
	return conv, nil
}

// rate fetches the from-denominated rate table and extracts the target rate,
// falling back across registered FX providers.
func (c *Converter) rate(ctx context.Context, from, to string) (float64, error) {
	res, err := c.reg.FetchWithFallback(ctx, provider.ModelCurrencyRates,
		provider.QueryParams{provider.ParamBase: from})
	if err != nil {
		return 0, err
	}

	table, ok := res.Data.(*models.RateTable)
	if !ok {
		return 0, fmt.Errorf("unexpected rate data type %T", res.Data)
	}

	rate, ok := table.Rate(to)
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("no %s rate in %s table from %s", to, from, res.Provider)
	}
	return rate, nil
}

// Round2 rounds half away from zero to two decimal places. Display currency
// only needs a consistent convention within one run.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
