package yahoo

import "time"

// HistoricalPrice represents a single daily bar. Only the close is used by
// the pipeline; AdjClose and Volume are kept for the local cache.
type HistoricalPrice struct {
	Date     time.Time `json:"date"`
	Close    float64   `json:"close"`
	Volume   int64     `json:"volume"`
	AdjClose float64   `json:"adj_close"`
}
