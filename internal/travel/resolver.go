// Package travel implements the search pipeline: place-name resolution,
// catalog enumeration, and flight-offer normalization on top of the
// provider registry.
package travel

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/voyago/farescout/internal/provider"
	"github.com/voyago/farescout/pkg/models"
)

// Resolver maps free-text place names to IATA codes.
type Resolver struct {
	reg *provider.Registry
	log *zap.Logger
}

// NewResolver creates a resolver backed by the given registry.
func NewResolver(reg *provider.Registry, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{reg: reg, log: log}
}

// Resolve returns the IATA code of the first location matching the place
// name among cities and airports. An empty code with a nil error means no
// match, which is a valid outcome, not a fault. A provider error is returned
// for reporting; the code is still empty so callers degrade uniformly.
func (r *Resolver) Resolve(ctx context.Context, placeName string) (string, error) {
	placeName = strings.TrimSpace(placeName)
	if placeName == "" {
		return "", nil
	}

	res, err := r.reg.Fetch(ctx, provider.ModelLocationSearch,
		provider.QueryParams{provider.ParamKeyword: placeName})
	if err != nil {
		r.log.Warn("location lookup failed",
			zap.String("keyword", placeName),
			zap.Error(err),
		)
		return "", err
	}

	locations, ok := res.Data.([]models.Location)
	if !ok || len(locations) == 0 {
		return "", nil
	}
	return locations[0].IATACode, nil
}
