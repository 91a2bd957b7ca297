package amadeus

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/voyago/farescout/internal/provider"
	"github.com/voyago/farescout/pkg/models"
)

// --- FlightOffers fetcher ---

type flightOffersFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newFlightOffersFetcher(p *Provider) *flightOffersFetcher {
	return &flightOffersFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelFlightOffers,
			"Flight offers search from Amadeus shopping APIs",
			[]string{
				provider.ParamOrigin,
				provider.ParamDestination,
				provider.ParamDepartureDate,
				provider.ParamAdults,
			},
			nil,
			2*time.Minute, 1, time.Second,
		),
		p: p,
	}
}

func (f *flightOffersFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	origin := params[provider.ParamOrigin]
	destination := params[provider.ParamDestination]
	date := params[provider.ParamDepartureDate]
	adults := params[provider.ParamAdults]

	cacheKey := provider.CacheKey(f.ModelType(), params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return newCachedResult(cached), nil
	}
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	q := url.Values{
		"originLocationCode":      {origin},
		"destinationLocationCode": {destination},
		"departureDate":           {date},
		"adults":                  {adults},
	}
	path := "/v2/shopping/flight-offers?" + q.Encode()

	var resp amadeusOffers
	if err := f.p.fetchJSON(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("amadeus offers %s-%s: %w", origin, destination, err)
	}

	offers := make([]models.FlightOffer, 0, len(resp.Data))
	for _, raw := range resp.Data {
		offers = append(offers, toFlightOffer(raw))
	}

	f.CacheSet(cacheKey, offers)
	return newResult(offers), nil
}

// toFlightOffer reshapes a raw Amadeus offer into the provider-agnostic model.
// Offer order and itinerary/segment order are preserved as given.
func toFlightOffer(raw amadeusOffer) models.FlightOffer {
	itineraries := make([]models.FlightItinerary, 0, len(raw.Itineraries))
	for _, it := range raw.Itineraries {
		segments := make([]models.FlightSegment, 0, len(it.Segments))
		for _, s := range it.Segments {
			segments = append(segments, models.FlightSegment{
				DepartureCode: s.Departure.IataCode,
				DepartureAt:   s.Departure.At,
				ArrivalCode:   s.Arrival.IataCode,
				ArrivalAt:     s.Arrival.At,
				CarrierCode:   s.CarrierCode,
			})
		}
		itineraries = append(itineraries, models.FlightItinerary{Segments: segments})
	}

	total, _ := strconv.ParseFloat(raw.Price.Total, 64)

	var cabins []string
	if len(raw.TravelerPricings) > 0 {
		for _, fd := range raw.TravelerPricings[0].FareDetailsBySegment {
			cabins = append(cabins, fd.Cabin)
		}
	}

	return models.FlightOffer{
		ID:            raw.ID,
		Itineraries:   itineraries,
		PriceTotal:    total,
		PriceCurrency: raw.Price.Currency,
		Cabins:        cabins,
	}
}
