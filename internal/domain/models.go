package domain

import (
	"sort"
	"time"
)

// Point is a single observation in a ticker's daily series. Date carries no
// time-of-day component; it is normalized to midnight UTC.
type Point struct {
	Date   time.Time `json:"date"`
	Price  float64   `json:"price"`
	Return float64   `json:"return"`
}

// Series is an ordered-by-date sequence of observations for one ticker.
// Invariant: dates strictly increasing, no duplicates.
type Series []Point

// Dataset maps ticker symbols to their series. After alignment every series
// shares an identical ordered date index.
type Dataset map[string]Series

// Holiday is a non-trading day used as an event regressor when fitting the
// forecast model. Windows are day offsets around the holiday itself.
type Holiday struct {
	Name        string
	Date        time.Time
	LowerWindow int
	UpperWindow int
}

// Date normalizes t to a calendar date (midnight UTC).
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Last returns the final observation of the series. The second return is
// false for an empty series.
func (s Series) Last() (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	return s[len(s)-1], true
}

// Dates returns the ordered date index of the series.
func (s Series) Dates() []time.Time {
	dates := make([]time.Time, len(s))
	for i, p := range s {
		dates[i] = p.Date
	}
	return dates
}

// Prices returns the price column of the series.
func (s Series) Prices() []float64 {
	prices := make([]float64, len(s))
	for i, p := range s {
		prices[i] = p.Price
	}
	return prices
}

// Returns returns the return column of the series.
func (s Series) Returns() []float64 {
	returns := make([]float64, len(s))
	for i, p := range s {
		returns[i] = p.Return
	}
	return returns
}

// Tail returns the trailing n observations, or the whole series when it has
// fewer than n rows. The result shares backing storage with s.
func (s Series) Tail(n int) Series {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// Clone returns a deep copy of the series.
func (s Series) Clone() Series {
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// Tickers returns the dataset's ticker symbols in sorted order.
func (d Dataset) Tickers() []string {
	tickers := make([]string, 0, len(d))
	for t := range d {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}
