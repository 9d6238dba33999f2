package alignment

import (
	"sort"
	"time"

	"github.com/optifolio/optifolio/internal/domain"
)

// Align reindexes every series to the sorted intersection of all per-ticker
// date sets, so post-alignment each ticker shares an identical date index.
// An empty input yields an empty output. An empty intersection yields empty
// series for every ticker; that is a valid result, not an error.
func Align(dataset domain.Dataset) domain.Dataset {
	if len(dataset) == 0 {
		return domain.Dataset{}
	}

	common := commonDates(dataset)

	aligned := make(domain.Dataset, len(dataset))
	for ticker, series := range dataset {
		byDate := make(map[time.Time]domain.Point, len(series))
		for _, p := range series {
			byDate[p.Date] = p
		}

		out := make(domain.Series, 0, len(common))
		for _, d := range common {
			out = append(out, byDate[d])
		}
		aligned[ticker] = out
	}

	return aligned
}

// commonDates returns the sorted set-intersection of all series' dates.
func commonDates(dataset domain.Dataset) []time.Time {
	counts := make(map[time.Time]int)
	for _, series := range dataset {
		for _, p := range series {
			counts[p.Date]++
		}
	}

	n := len(dataset)
	var common []time.Time
	for d, c := range counts {
		if c == n {
			common = append(common, d)
		}
	}

	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })
	return common
}
