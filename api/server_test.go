package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/voyago/farescout/internal/config"
	"github.com/voyago/farescout/internal/provider"
	"github.com/voyago/farescout/pkg/models"
)

type stubFetcher struct {
	model    provider.ModelType
	required []string
	calls    int
	fn       func(params provider.QueryParams) (any, error)
}

func (f *stubFetcher) ModelType() provider.ModelType { return f.model }
func (f *stubFetcher) Description() string           { return "stub" }
func (f *stubFetcher) RequiredParams() []string      { return f.required }
func (f *stubFetcher) OptionalParams() []string      { return nil }

func (f *stubFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	f.calls++
	data, err := f.fn(params)
	if err != nil {
		return nil, err
	}
	return &provider.FetchResult{Data: data}, nil
}

type stubProvider struct {
	name     string
	fetchers map[provider.ModelType]provider.Fetcher
}

func (p *stubProvider) Info() provider.ProviderInfo {
	return provider.ProviderInfo{Name: p.name, Models: p.SupportedModels()}
}
func (p *stubProvider) Init(map[string]string) error { return nil }
func (p *stubProvider) Fetcher(model provider.ModelType) provider.Fetcher {
	return p.fetchers[model]
}
func (p *stubProvider) SupportedModels() []provider.ModelType {
	ms := make([]provider.ModelType, 0, len(p.fetchers))
	for m := range p.fetchers {
		ms = append(ms, m)
	}
	return ms
}
func (p *stubProvider) Ping(context.Context) error { return nil }

// locationsFetcher resolves a fixed keyword → locations table; unknown
// keywords return no matches.
func locationsFetcher(byKeyword map[string][]models.Location) *stubFetcher {
	return &stubFetcher{
		model:    provider.ModelLocationSearch,
		required: []string{provider.ParamKeyword},
		fn: func(params provider.QueryParams) (any, error) {
			return byKeyword[params[provider.ParamKeyword]], nil
		},
	}
}

func offersFetcher(fn func(params provider.QueryParams) (any, error)) *stubFetcher {
	return &stubFetcher{
		model: provider.ModelFlightOffers,
		required: []string{
			provider.ParamOrigin,
			provider.ParamDestination,
			provider.ParamDepartureDate,
			provider.ParamAdults,
		},
		fn: fn,
	}
}

func ratesFetcher(table *models.RateTable, err error) *stubFetcher {
	return &stubFetcher{
		model:    provider.ModelCurrencyRates,
		required: []string{provider.ParamBase},
		fn: func(params provider.QueryParams) (any, error) {
			if err != nil {
				return nil, err
			}
			return table, nil
		},
	}
}

func mxnTable() *models.RateTable {
	return &models.RateTable{
		Base:  "MXN",
		Rates: map[string]float64{"EUR": 0.05, "USD": 0.055},
	}
}

func nOffers(n int) []models.FlightOffer {
	offers := make([]models.FlightOffer, n)
	for i := range offers {
		offers[i] = models.FlightOffer{
			ID: fmt.Sprintf("%d", i),
			Itineraries: []models.FlightItinerary{{
				Segments: []models.FlightSegment{{
					DepartureCode: "MEX",
					DepartureAt:   "2025-06-01T06:00:00",
					ArrivalCode:   "MAD",
					ArrivalAt:     "2025-06-01T20:00:00",
					CarrierCode:   "AM",
				}},
			}},
			PriceTotal:    float64(100 + i),
			PriceCurrency: "MXN",
		}
	}
	return offers
}

func routeLocations() map[string][]models.Location {
	return map[string][]models.Location{
		"Mexico City": {{Name: "MEXICO CITY", IATACode: "MEX", SubType: "CITY"}},
		"Madrid":      {{Name: "MADRID", IATACode: "MAD", SubType: "CITY"}},
	}
}

func newTestServer(t *testing.T, fetchers ...*stubFetcher) *Server {
	t.Helper()
	fm := make(map[provider.ModelType]provider.Fetcher, len(fetchers))
	for _, f := range fetchers {
		fm[f.model] = f
	}
	reg := provider.NewRegistry()
	if err := reg.Register(&stubProvider{name: "stub", fetchers: fm}); err != nil {
		t.Fatalf("register stub: %v", err)
	}
	cfg := &config.Config{
		Search: config.SearchConfig{PageSize: 10, CatalogRatePerSec: 1000},
	}
	return NewServer(cfg, zap.NewNop(), reg)
}

func doJSON(t *testing.T, s *Server, method, path, sessionID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodePage(t *testing.T, rec *httptest.ResponseRecorder) ResultsPage {
	t.Helper()
	var env struct {
		Success bool        `json:"success"`
		Data    ResultsPage `json:"data"`
		Error   string      `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if !env.Success {
		t.Fatalf("request failed: %s", env.Error)
	}
	return env.Data
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSearchPaginationFlow(t *testing.T) {
	s := newTestServer(t,
		locationsFetcher(routeLocations()),
		offersFetcher(func(params provider.QueryParams) (any, error) {
			if params[provider.ParamOrigin] != "MEX" || params[provider.ParamDestination] != "MAD" {
				t.Errorf("unexpected route %s-%s",
					params[provider.ParamOrigin], params[provider.ParamDestination])
			}
			return nOffers(23), nil
		}),
		ratesFetcher(mxnTable(), nil),
	)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/search", "", SearchRequest{
		Origin:      "Mexico City",
		Destination: "Madrid",
		Date:        "2025-06-01",
		Adults:      2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	sessionID := rec.Header().Get(SessionHeader)
	if sessionID == "" {
		t.Fatal("expected a session ID header")
	}

	page := decodePage(t, rec)
	if page.Total != 23 || page.Pages != 3 || page.Page != 0 || len(page.Records) != 10 {
		t.Fatalf("unexpected first page: %+v", page)
	}
	if page.Records[0].PriceEUR != "5.00 EUR" {
		t.Errorf("unexpected EUR label: %s", page.Records[0].PriceEUR)
	}

	// Results are replayable within the session.
	rec = doJSON(t, s, http.MethodGet, "/api/v1/results", sessionID, nil)
	if page = decodePage(t, rec); page.Page != 0 || len(page.Records) != 10 {
		t.Fatalf("results replay broke: %+v", page)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/v1/results/next", sessionID, nil)
	if page = decodePage(t, rec); page.Page != 1 {
		t.Fatalf("next should move to page 1: %+v", page)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/v1/results/prev", sessionID, nil)
	if page = decodePage(t, rec); page.Page != 0 {
		t.Fatalf("prev should move back to page 0: %+v", page)
	}

	// A fresh session sees no results.
	rec = doJSON(t, s, http.MethodGet, "/api/v1/results", "", nil)
	if page = decodePage(t, rec); page.Total != 0 {
		t.Fatalf("fresh session must start empty: %+v", page)
	}
}

func TestSearchUnknownPlace(t *testing.T) {
	s := newTestServer(t,
		locationsFetcher(routeLocations()),
		offersFetcher(func(params provider.QueryParams) (any, error) {
			t.Error("search must not run with an unresolved place")
			return nil, nil
		}),
		ratesFetcher(mxnTable(), nil),
	)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/search", "", SearchRequest{
		Origin:      "Atlantis",
		Destination: "Madrid",
		Date:        "2025-06-01",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("unresolvable place is degraded, not a fault; expected 200, got %d", rec.Code)
	}
	var env struct {
		Data SearchResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Total != 0 || len(env.Data.Records) != 0 {
		t.Errorf("expected an empty result set, got %+v", env.Data.ResultsPage)
	}
	if len(env.Data.Warnings) != 1 {
		t.Errorf("expected one warning naming the origin, got %v", env.Data.Warnings)
	}
}

func TestSearchValidation(t *testing.T) {
	s := newTestServer(t, locationsFetcher(routeLocations()))

	cases := []SearchRequest{
		{Destination: "Madrid", Date: "2025-06-01"},                        // no origin
		{Origin: "Mexico City", Destination: "Madrid", Date: "01/06/2025"}, // bad date
		{Origin: "Mexico City", Destination: "Madrid", Date: "2025-06-01", Adults: -1},
	}
	for _, req := range cases {
		if rec := doJSON(t, s, http.MethodPost, "/api/v1/search", "", req); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for %+v, got %d", req, rec.Code)
		}
	}
}

func TestSearchProviderFailure(t *testing.T) {
	s := newTestServer(t,
		locationsFetcher(routeLocations()),
		offersFetcher(func(params provider.QueryParams) (any, error) {
			return nil, errors.New("upstream down")
		}),
		ratesFetcher(mxnTable(), nil),
	)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/search", "", SearchRequest{
		Origin:      "Mexico City",
		Destination: "Madrid",
		Date:        "2025-06-01",
	})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestLocations(t *testing.T) {
	s := newTestServer(t, locationsFetcher(routeLocations()))

	if rec := doJSON(t, s, http.MethodGet, "/api/v1/locations", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without keyword, got %d", rec.Code)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/v1/locations?keyword=Madrid", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var env struct {
		Data []models.Location `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(env.Data) != 1 || env.Data[0].IATACode != "MAD" {
		t.Errorf("unexpected locations: %+v", env.Data)
	}
}

func TestConvert(t *testing.T) {
	s := newTestServer(t, ratesFetcher(mxnTable(), nil))

	rec := doJSON(t, s, http.MethodGet, "/api/v1/convert?amount=100&from=MXN&to=EUR", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var env struct {
		Data struct {
			Conversion models.Conversion `json:"conversion"`
			Warning    string            `json:"warning"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Conversion.Converted != 5 || env.Data.Conversion.Estimated {
		t.Errorf("unexpected conversion: %+v", env.Data.Conversion)
	}

	if rec := doJSON(t, s, http.MethodGet, "/api/v1/convert?from=MXN&to=EUR", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without amount, got %d", rec.Code)
	}
}

func TestConvertSoftFail(t *testing.T) {
	s := newTestServer(t, ratesFetcher(nil, errors.New("fx source down")))

	rec := doJSON(t, s, http.MethodGet, "/api/v1/convert?amount=100&from=MXN&to=EUR", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("soft-fail must still answer 200, got %d", rec.Code)
	}
	var env struct {
		Data struct {
			Conversion models.Conversion `json:"conversion"`
			Warning    string            `json:"warning"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Conversion.Converted != 100 || !env.Data.Conversion.Estimated {
		t.Errorf("expected estimated original amount, got %+v", env.Data.Conversion)
	}
	if env.Data.Warning == "" {
		t.Error("expected a warning describing the FX fault")
	}
}

func TestCatalogCachedPerSession(t *testing.T) {
	byLetter := make(map[string][]models.Location)
	for r := 'A'; r <= 'Z'; r++ {
		letter := string(r)
		byLetter[letter] = []models.Location{{Name: "CITY-" + letter, IATACode: letter + "XX"}}
	}
	locs := locationsFetcher(byLetter)
	s := newTestServer(t, locs)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/catalog", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	sessionID := rec.Header().Get(SessionHeader)

	var env struct {
		Data CatalogResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(env.Data.Names) != 26 || env.Data.Cached || env.Data.Degraded {
		t.Fatalf("unexpected catalog: names=%d cached=%v degraded=%v",
			len(env.Data.Names), env.Data.Cached, env.Data.Degraded)
	}
	if locs.calls != 26 {
		t.Fatalf("expected 26 letter queries, got %d", locs.calls)
	}

	// The second request must come from the session cache.
	rec = doJSON(t, s, http.MethodGet, "/api/v1/catalog", sessionID, nil)
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Data.Cached || len(env.Data.Names) != 26 {
		t.Fatalf("expected cached catalog, got %+v", env.Data)
	}
	if locs.calls != 26 {
		t.Errorf("cached catalog must not re-query, got %d calls", locs.calls)
	}
}

func TestProviders(t *testing.T) {
	s := newTestServer(t, ratesFetcher(mxnTable(), nil))

	rec := doJSON(t, s, http.MethodGet, "/api/v1/providers", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var env struct {
		Data struct {
			Providers []provider.ProviderInfo `json:"providers"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(env.Data.Providers) != 1 || env.Data.Providers[0].Name != "stub" {
		t.Errorf("unexpected providers: %+v", env.Data.Providers)
	}
}
