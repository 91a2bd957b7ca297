package travel

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/voyago/farescout/internal/infra"
	"github.com/voyago/farescout/internal/provider"
	"github.com/voyago/farescout/pkg/models"
)

// catalogLetters is the enumeration keyword set: one query per letter.
const catalogLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// CatalogProgress describes one completed letter of a catalog build.
type CatalogProgress struct {
	Letter string `json:"letter"`
	Index  int    `json:"index"` // 1-based position in the enumeration
	Total  int    `json:"total"`
	Names  int    `json:"names"` // distinct names gathered so far
}

// CatalogBuilder enumerates the selectable city/airport names by querying the
// location provider once per letter of the alphabet. Letter queries are paced
// by a token bucket to stay under provider quotas; a failing letter never
// aborts the rest of the enumeration.
type CatalogBuilder struct {
	reg        *provider.Registry
	log        *zap.Logger
	limiter    *infra.RateLimiter
	group      singleflight.Group
	onProgress func(CatalogProgress)
}

// NewCatalogBuilder creates a builder paced at one letter query per second.
func NewCatalogBuilder(reg *provider.Registry, log *zap.Logger) *CatalogBuilder {
	return NewCatalogBuilderWithPace(reg, log, 1, time.Second)
}

// NewCatalogBuilderWithPace creates a builder with a custom pacing budget.
func NewCatalogBuilderWithPace(reg *provider.Registry, log *zap.Logger, requests int, window time.Duration) *CatalogBuilder {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogBuilder{
		reg:     reg,
		log:     log,
		limiter: infra.NewRateLimiter(requests, window),
	}
}

// SetProgress installs a hook invoked after each letter completes. Must be
// set before Build is called.
func (b *CatalogBuilder) SetProgress(fn func(CatalogProgress)) {
	b.onProgress = fn
}

// Build runs the 26-letter enumeration and returns the distinct names,
// lexicographically sorted. Quota-exceeded responses are swallowed as
// expected steady-state noise; any other letter failure is logged, folded
// into the returned aggregate error, and the enumeration continues. Names
// gathered from succeeding letters are returned even when the error is
// non-nil. Concurrent builds are collapsed into a single enumeration.
func (b *CatalogBuilder) Build(ctx context.Context) ([]string, error) {
	v, err, _ := b.group.Do("catalog", func() (any, error) {
		return b.build(ctx)
	})
	names, _ := v.([]string)
	return names, err
}

func (b *CatalogBuilder) build(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var failures []error

	for i, r := range catalogLetters {
		if err := b.limiter.Wait(ctx); err != nil {
			return sortedKeys(seen), err
		}
		letter := string(r)

		res, err := b.reg.Fetch(ctx, provider.ModelLocationSearch,
			provider.QueryParams{provider.ParamKeyword: letter})
		if err != nil {
			var quota *provider.ErrQuotaExceeded
			if errors.As(err, &quota) {
				// Expected under free-tier quotas; the letter simply
				// contributes nothing.
				b.log.Debug("catalog letter skipped on quota", zap.String("letter", letter))
			} else {
				b.log.Warn("catalog letter failed", zap.String("letter", letter), zap.Error(err))
				failures = append(failures, err)
			}
			continue
		}

		if locations, ok := res.Data.([]models.Location); ok {
			for _, loc := range locations {
				if loc.Name != "" {
					seen[loc.Name] = struct{}{}
				}
			}
		}

		if b.onProgress != nil {
			b.onProgress(CatalogProgress{
				Letter: letter,
				Index:  i + 1,
				Total:  len(catalogLetters),
				Names:  len(seen),
			})
		}
	}

	return sortedKeys(seen), errors.Join(failures...)
}

func sortedKeys(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
