// Package providers initializes and registers all concrete data providers
// with the global provider registry.
package providers

import (
	"os"

	"github.com/voyago/farescout/internal/provider"
	"github.com/voyago/farescout/internal/providers/amadeus"
	"github.com/voyago/farescout/internal/providers/ecb"
	"github.com/voyago/farescout/internal/providers/exchangerate"
)

// Credentials carries provider credentials and endpoint overrides resolved
// from configuration.
type Credentials struct {
	AmadeusClientID     string
	AmadeusClientSecret string
	AmadeusBaseURL      string // empty = provider default
}

// RegisterAll creates and registers all available providers with the
// global registry. Amadeus is only registered when its credential pair is
// configured (or present in the environment).
func RegisterAll(creds Credentials) error {
	return RegisterAllTo(provider.Global(), creds)
}

// RegisterAllTo registers all available providers to the given registry.
// Registration order matters for FX: exchangerate is the default
// CurrencyRates provider and the ECB reference feed is the fallback.
func RegisterAllTo(reg *provider.Registry, creds Credentials) error {
	// --- exchangerate-api (free, no API key) ---
	xr := exchangerate.New()
	if err := xr.Init(nil); err != nil {
		return err
	}
	if err := reg.Register(xr); err != nil {
		return err
	}

	// --- ECB daily reference feed (free, no API key) ---
	bank := ecb.New()
	if err := bank.Init(nil); err != nil {
		return err
	}
	if err := reg.Register(bank); err != nil {
		return err
	}

	// --- Amadeus (requires client credential pair) ---
	clientID := creds.AmadeusClientID
	clientSecret := creds.AmadeusClientSecret
	if clientID == "" {
		clientID = os.Getenv("AMADEUS_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("AMADEUS_CLIENT_SECRET")
	}
	if clientID != "" && clientSecret != "" {
		am := amadeus.New()
		if err := am.Init(map[string]string{
			"client_id":     clientID,
			"client_secret": clientSecret,
		}); err != nil {
			return err
		}
		if creds.AmadeusBaseURL != "" {
			am.SetBaseURL(creds.AmadeusBaseURL)
		}
		if err := reg.Register(am); err != nil {
			return err
		}
	}

	return nil
}
