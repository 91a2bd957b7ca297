// Package amadeus implements the Amadeus Self-Service travel-data provider.
// It wraps the reference-data locations and flight-offers search endpoints
// into the standard provider/fetcher framework.
//
// Authentication uses the OAuth2 client-credentials flow; the bearer token is
// cached until shortly before expiry. Free tier quotas are tight, so fetchers
// surface HTTP 429 as ErrQuotaExceeded for callers that need to tell quota
// noise apart from real faults.
//
// Docs: https://developers.amadeus.com/self-service
package amadeus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/voyago/farescout/internal/infra"
	"github.com/voyago/farescout/internal/provider"
)

const (
	providerName = "amadeus"

	// Test environment base URL. Production deployments override this
	// via config (api.amadeus.com).
	defaultBaseURL = "https://test.api.amadeus.com"

	credClientID     = "client_id"
	credClientSecret = "client_secret"

	// Refresh the cached token this long before it actually expires.
	tokenSlack = 30 * time.Second
)

// Provider implements provider.Provider for Amadeus.
type Provider struct {
	provider.BaseProvider

	baseURL      string
	clientID     string
	clientSecret string

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

// New creates a new Amadeus provider and registers all fetchers.
func New() *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Amadeus Self-Service APIs - location reference data and flight offers",
			"https://developers.amadeus.com",
			[]provider.ProviderCredential{
				{
					Name:        credClientID,
					Description: "Amadeus API key from developers.amadeus.com",
					Required:    true,
					EnvVar:      "AMADEUS_CLIENT_ID",
				},
				{
					Name:        credClientSecret,
					Description: "Amadeus API secret from developers.amadeus.com",
					Required:    true,
					EnvVar:      "AMADEUS_CLIENT_SECRET",
				},
			},
		),
		baseURL: defaultBaseURL,
	}

	p.RegisterFetcher(newLocationSearchFetcher(p))
	p.RegisterFetcher(newFlightOffersFetcher(p))

	return p
}

// Init stores the credential pair.
func (p *Provider) Init(credentials map[string]string) error {
	if err := p.BaseProvider.Init(credentials); err != nil {
		return err
	}
	p.clientID = credentials[credClientID]
	p.clientSecret = credentials[credClientSecret]
	return nil
}

// SetBaseURL overrides the API base URL (production endpoint or test server).
func (p *Provider) SetBaseURL(base string) {
	p.baseURL = base
}

// Ping verifies credentials by requesting an access token.
func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.accessToken(ctx); err != nil {
		return fmt.Errorf("amadeus ping: %w", err)
	}
	return nil
}

// accessToken returns a valid bearer token, requesting a new one when the
// cached token is missing or about to expire.
func (p *Provider) accessToken(ctx context.Context) (string, error) {
	p.tokenMu.Lock()
	defer p.tokenMu.Unlock()

	if p.token != "" && time.Now().Before(p.tokenExpiry.Add(-tokenSlack)) {
		return p.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {p.clientID},
		"client_secret": {p.clientSecret},
	}
	body, _, err := infra.DoPostForm(ctx, p.baseURL+"/v1/security/oauth2/token", form)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer body.Close()

	var tok amadeusToken
	if err := json.NewDecoder(body).Decode(&tok); err != nil {
		return "", fmt.Errorf("parse token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", &provider.ErrInvalidCredentials{Provider: providerName, Detail: "empty access token"}
	}

	p.token = tok.AccessToken
	p.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return p.token, nil
}

// fetchJSON performs an authenticated GET against the Amadeus API and decodes
// the response into dest. HTTP 429 is translated to ErrQuotaExceeded.
func (p *Provider) fetchJSON(ctx context.Context, path string, dest any) error {
	token, err := p.accessToken(ctx)
	if err != nil {
		return err
	}

	headers := map[string]string{
		"Accept":        "application/json",
		"Authorization": "Bearer " + token,
	}
	body, _, err := infra.DoGet(ctx, p.baseURL+path, headers)
	if err != nil {
		var httpErr *infra.ErrHTTPStatus
		if errors.As(err, &httpErr) && httpErr.StatusCode == 429 {
			return &provider.ErrQuotaExceeded{Provider: providerName}
		}
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse amadeus JSON: %w", err)
	}
	return nil
}

// newResult creates a FetchResult.
func newResult(data any) *provider.FetchResult {
	return &provider.FetchResult{
		Data:      data,
		FetchedAt: time.Now(),
	}
}

// newCachedResult creates a cached FetchResult.
func newCachedResult(data any) *provider.FetchResult {
	return &provider.FetchResult{
		Data:      data,
		FetchedAt: time.Now(),
		Cached:    true,
	}
}
