package models

// RateTable holds exchange rates denominated in a single base currency.
type RateTable struct {
	Base   string             `json:"base"`   // e.g., "EUR"
	Date   string             `json:"date"`   // provider's rate date, YYYY-MM-DD
	Rates  map[string]float64 `json:"rates"`  // target code → rate
	Source string             `json:"source"` // e.g., "exchangerate-api", "ecb"
}

// Rate returns the rate for the target currency. The base converts to itself
// at 1.0 even when the provider omits it from the table.
func (t *RateTable) Rate(target string) (float64, bool) {
	if target == t.Base {
		return 1.0, true
	}
	r, ok := t.Rates[target]
	return r, ok
}

// Conversion is the result of converting an amount between two currencies.
// Estimated is true when the rate could not be fetched and the converted
// value is the unchanged original amount.
type Conversion struct {
	Amount    float64 `json:"amount"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Rate      float64 `json:"rate"`
	Converted float64 `json:"converted"`
	Estimated bool    `json:"estimated"`
}
