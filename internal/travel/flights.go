package travel

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/voyago/farescout/internal/fx"
	"github.com/voyago/farescout/internal/provider"
	"github.com/voyago/farescout/pkg/models"
)

// FlightSearch queries the flight-offers provider and flattens each raw
// offer into a FlightRecord with prices normalized to EUR and USD.
type FlightSearch struct {
	reg  *provider.Registry
	conv *fx.Converter
	log  *zap.Logger
}

// NewFlightSearch creates a flight search on top of the registry and converter.
func NewFlightSearch(reg *provider.Registry, conv *fx.Converter, log *zap.Logger) *FlightSearch {
	if log == nil {
		log = zap.NewNop()
	}
	return &FlightSearch{reg: reg, conv: conv, log: log}
}

// Search runs one flight-offers query and returns the normalized records in
// provider order. The contract is fail-closed: a provider error yields no
// records at all, never a partial set. Offers whose first itinerary has no
// segments are dropped silently; a conversion fault never drops a record.
func (s *FlightSearch) Search(ctx context.Context, originCode, destCode, date string, adults int) ([]models.FlightRecord, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("invalid departure date %q: %w", date, err)
	}
	if adults < 1 {
		return nil, fmt.Errorf("passenger count must be positive, got %d", adults)
	}

	res, err := s.reg.Fetch(ctx, provider.ModelFlightOffers, provider.QueryParams{
		provider.ParamOrigin:        originCode,
		provider.ParamDestination:   destCode,
		provider.ParamDepartureDate: date,
		provider.ParamAdults:        strconv.Itoa(adults),
	})
	if err != nil {
		s.log.Warn("flight offers search failed",
			zap.String("origin", originCode),
			zap.String("destination", destCode),
			zap.Error(err),
		)
		return nil, err
	}

	offers, ok := res.Data.([]models.FlightOffer)
	if !ok {
		return nil, fmt.Errorf("unexpected offer data type %T", res.Data)
	}

	records := make([]models.FlightRecord, 0, len(offers))
	for _, offer := range offers {
		if rec, ok := s.buildRecord(ctx, offer); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// buildRecord flattens one offer. The record describes the whole first
// itinerary: route endpoints come from the first and last segment.
func (s *FlightSearch) buildRecord(ctx context.Context, offer models.FlightOffer) (models.FlightRecord, bool) {
	if len(offer.Itineraries) == 0 {
		return models.FlightRecord{}, false
	}
	segments := offer.Itineraries[0].Segments
	if len(segments) == 0 {
		return models.FlightRecord{}, false
	}

	first := segments[0]
	last := segments[len(segments)-1]

	cabin := ""
	if len(offer.Cabins) > 0 {
		cabin = offer.Cabins[0]
	}

	return models.FlightRecord{
		Price:         offer.PriceTotal,
		Currency:      offer.PriceCurrency,
		PriceOriginal: priceLabel(offer.PriceTotal, offer.PriceCurrency),
		PriceEUR:      s.convertedLabel(ctx, offer.PriceTotal, offer.PriceCurrency, "EUR"),
		PriceUSD:      s.convertedLabel(ctx, offer.PriceTotal, offer.PriceCurrency, "USD"),
		Origin:        first.DepartureCode,
		Destination:   last.ArrivalCode,
		DepartureAt:   first.DepartureAt,
		ArrivalAt:     last.ArrivalAt,
		Stops:         len(segments) - 1,
		Carrier:       first.CarrierCode,
		Cabin:         cabin,
	}, true
}

// convertedLabel renders the price in the target currency. On a conversion
// soft-fail the original amount labels the field instead, so the record
// survives FX outages.
func (s *FlightSearch) convertedLabel(ctx context.Context, amount float64, from, to string) string {
	conv, err := s.conv.ConvertDetailed(ctx, amount, from, to)
	if err != nil || conv.Estimated {
		return priceLabel(amount, from)
	}
	return priceLabel(conv.Converted, to)
}

func priceLabel(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, currency)
}
