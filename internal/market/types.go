// Package market provides BTC price history, the synthetic fallback series,
// the hidden-history cutoff rule and sample import.
package market

// Symbol is the only instrument served.
const Symbol = "BTCUSD"

// Sources reported in History.Source.
const (
	SourceCoinGecko = "coingecko"
	SourceStatic    = "static-data"
)

// Point is one close price. Time is unix seconds.
type Point struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// History is a price series with its provenance.
type History struct {
	Symbol string  `json:"symbol"`
	Data   []Point `json:"data"`
	Source string  `json:"source"`
}

// Round is a series with its tail hidden behind Cutoff.
// Data holds only the visible prefix unless Revealed is true.
type Round struct {
	Symbol   string  `json:"symbol"`
	Source   string  `json:"source"`
	Data     []Point `json:"data"`
	Cutoff   int     `json:"cutoff"`
	Total    int     `json:"total"`
	Revealed bool    `json:"revealed"`
}
