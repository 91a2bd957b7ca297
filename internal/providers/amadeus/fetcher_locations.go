package amadeus

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/voyago/farescout/internal/provider"
	"github.com/voyago/farescout/pkg/models"
)

// --- LocationSearch fetcher ---

type locationSearchFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newLocationSearchFetcher(p *Provider) *locationSearchFetcher {
	return &locationSearchFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelLocationSearch,
			"City and airport lookup from Amadeus reference data",
			[]string{provider.ParamKeyword},
			nil,
			30*time.Minute, 1, time.Second,
		),
		p: p,
	}
}

func (f *locationSearchFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	keyword := params[provider.ParamKeyword]

	cacheKey := provider.CacheKey(f.ModelType(), params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return newCachedResult(cached), nil
	}
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/v1/reference-data/locations?keyword=%s&subType=CITY,AIRPORT",
		url.QueryEscape(keyword))

	var resp amadeusLocations
	if err := f.p.fetchJSON(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("amadeus locations %q: %w", keyword, err)
	}

	locations := make([]models.Location, 0, len(resp.Data))
	for _, e := range resp.Data {
		locations = append(locations, models.Location{
			Name:     e.Name,
			IATACode: e.IataCode,
			SubType:  e.SubType,
		})
	}

	f.CacheSet(cacheKey, locations)
	return newResult(locations), nil
}
