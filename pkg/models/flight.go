// Package models defines the core data structures used throughout FareScout.
package models

// FlightSegment is one stop-to-stop hop operated by a single carrier.
// Departure and arrival times are kept as the provider's local ISO-8601
// strings; flight-offer feeds carry no zone offset.
type FlightSegment struct {
	DepartureCode string `json:"departure_code"` // e.g., "MAD"
	DepartureAt   string `json:"departure_at"`   // e.g., "2025-06-01T07:35:00"
	ArrivalCode   string `json:"arrival_code"`
	ArrivalAt     string `json:"arrival_at"`
	CarrierCode   string `json:"carrier_code"` // e.g., "IB"
}

// FlightItinerary is one leg of travel, possibly composed of multiple segments.
type FlightItinerary struct {
	Segments []FlightSegment `json:"segments"`
}

// FlightOffer is a priced, bookable flight proposal as returned by a
// flight-offers search, reshaped into a provider-agnostic structure.
type FlightOffer struct {
	ID            string            `json:"id"`
	Itineraries   []FlightItinerary `json:"itineraries"`
	PriceTotal    float64           `json:"price_total"`
	PriceCurrency string            `json:"price_currency"` // e.g., "EUR"
	Cabins        []string          `json:"cabins"`         // per segment, first traveler pricing
}

// FlightRecord is the read-only projection of a single offer, built once and
// never mutated. Price labels carry the display strings; on a conversion
// fault the EUR/USD labels fall back to the original amount.
type FlightRecord struct {
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	PriceOriginal string  `json:"price_original"` // e.g., "750.00 MXN"
	PriceEUR      string  `json:"price_eur"`      // e.g., "38.12 EUR"
	PriceUSD      string  `json:"price_usd"`
	Origin        string  `json:"origin"`       // first segment departure code
	Destination   string  `json:"destination"`  // last segment arrival code
	DepartureAt   string  `json:"departure_at"` // first segment departure time
	ArrivalAt     string  `json:"arrival_at"`   // last segment arrival time
	Stops         int     `json:"stops"`        // segments - 1
	Carrier       string  `json:"carrier"`      // first segment carrier code
	Cabin         string  `json:"cabin"`        // first segment cabin class
}

// Location is a city or airport entry returned by a location search.
type Location struct {
	Name     string `json:"name"`      // e.g., "MADRID"
	IATACode string `json:"iata_code"` // e.g., "MAD"
	SubType  string `json:"sub_type"`  // "CITY" or "AIRPORT"
}
