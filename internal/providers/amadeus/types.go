package amadeus

// --- Amadeus API response types ---

// amadeusToken is the OAuth2 token endpoint response.
type amadeusToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

// amadeusLocations is the reference-data locations response.
type amadeusLocations struct {
	Data []amadeusLocationEntry `json:"data"`
}

type amadeusLocationEntry struct {
	Name     string `json:"name"`
	IataCode string `json:"iataCode"`
	SubType  string `json:"subType"` // "CITY" or "AIRPORT"
}

// amadeusOffers is the flight-offers search response.
type amadeusOffers struct {
	Data []amadeusOffer `json:"data"`
}

type amadeusOffer struct {
	ID               string                   `json:"id"`
	Itineraries      []amadeusItinerary       `json:"itineraries"`
	Price            amadeusPrice             `json:"price"`
	TravelerPricings []amadeusTravelerPricing `json:"travelerPricings"`
}

type amadeusItinerary struct {
	Duration string           `json:"duration"`
	Segments []amadeusSegment `json:"segments"`
}

type amadeusSegment struct {
	Departure   amadeusEndpoint `json:"departure"`
	Arrival     amadeusEndpoint `json:"arrival"`
	CarrierCode string          `json:"carrierCode"`
	Number      string          `json:"number"`
}

type amadeusEndpoint struct {
	IataCode string `json:"iataCode"`
	Terminal string `json:"terminal"`
	At       string `json:"at"` // local ISO-8601, no zone offset
}

type amadeusPrice struct {
	Total    string `json:"total"` // decimal string, e.g., "123.45"
	Currency string `json:"currency"`
}

type amadeusTravelerPricing struct {
	TravelerID           string               `json:"travelerId"`
	FareDetailsBySegment []amadeusFareDetails `json:"fareDetailsBySegment"`
}

type amadeusFareDetails struct {
	SegmentID string `json:"segmentId"`
	Cabin     string `json:"cabin"` // e.g., "ECONOMY", "BUSINESS"
}
