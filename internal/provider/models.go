package provider

// ModelType identifies a standard data model served by one or more providers.
// Each ModelType maps to a specific data structure in pkg/models/.
type ModelType string

const (
	// ModelLocationSearch resolves a free-text keyword to city/airport
	// location entries. Data type: []models.Location.
	ModelLocationSearch ModelType = "LocationSearch"

	// ModelFlightOffers searches bookable flight offers between two IATA
	// codes on a departure date. Data type: []models.FlightOffer.
	ModelFlightOffers ModelType = "FlightOffers"

	// ModelCurrencyRates fetches a rate table denominated in a base
	// currency. Data type: *models.RateTable.
	ModelCurrencyRates ModelType = "CurrencyRates"
)
