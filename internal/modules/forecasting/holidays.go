package forecasting

import (
	"fmt"
	"sort"
	"time"

	"github.com/optifolio/optifolio/internal/domain"
)

// Holiday windows are fixed at one day either side of the holiday itself.
const (
	holidayLowerWindow = -1
	holidayUpperWindow = 1
)

// TradingHolidays builds the NYSE non-trading-day table for the inclusive
// year range [startYear, endYear], sorted by date. Fixed-date holidays that
// land on a weekend are shifted to the observed weekday (Saturday to Friday,
// Sunday to Monday).
func TradingHolidays(startYear, endYear int) ([]domain.Holiday, error) {
	if endYear < startYear {
		return nil, fmt.Errorf("end year %d before start year %d", endYear, startYear)
	}

	var holidays []domain.Holiday
	add := func(name string, date time.Time) {
		holidays = append(holidays, domain.Holiday{
			Name:        name,
			Date:        date,
			LowerWindow: holidayLowerWindow,
			UpperWindow: holidayUpperWindow,
		})
	}

	for year := startYear; year <= endYear; year++ {
		// NYSE skips New Year's Day when January 1 lands on a Saturday;
		// there is no Friday observance in the prior year
		if nyd := day(year, time.January, 1); nyd.Weekday() != time.Saturday {
			add("new_years_day", observed(nyd))
		}
		add("martin_luther_king_jr_day", nthWeekday(year, time.January, time.Monday, 3))
		add("washingtons_birthday", nthWeekday(year, time.February, time.Monday, 3))
		add("good_friday", easter(year).AddDate(0, 0, -2))
		add("memorial_day", lastWeekday(year, time.May, time.Monday))
		if year >= 2022 {
			// NYSE first observed Juneteenth in 2022
			add("juneteenth", observed(day(year, time.June, 19)))
		}
		add("independence_day", observed(day(year, time.July, 4)))
		add("labor_day", nthWeekday(year, time.September, time.Monday, 1))
		add("thanksgiving_day", nthWeekday(year, time.November, time.Thursday, 4))
		add("christmas_day", observed(day(year, time.December, 25)))
	}

	sort.Slice(holidays, func(i, j int) bool { return holidays[i].Date.Before(holidays[j].Date) })
	return holidays, nil
}

// FilterRange keeps holidays with start <= date <= end.
func FilterRange(holidays []domain.Holiday, start, end time.Time) []domain.Holiday {
	var out []domain.Holiday
	for _, h := range holidays {
		if h.Date.Before(start) || h.Date.After(end) {
			continue
		}
		out = append(out, h)
	}
	return out
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// observed shifts weekend holidays to the nearest weekday.
func observed(date time.Time) time.Time {
	switch date.Weekday() {
	case time.Saturday:
		return date.AddDate(0, 0, -1)
	case time.Sunday:
		return date.AddDate(0, 0, 1)
	default:
		return date
	}
}

// nthWeekday returns the n-th occurrence of weekday in the given month.
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	date := day(year, month, 1)
	offset := (int(weekday) - int(date.Weekday()) + 7) % 7
	return date.AddDate(0, 0, offset+(n-1)*7)
}

// lastWeekday returns the final occurrence of weekday in the given month.
func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	date := day(year, month+1, 1).AddDate(0, 0, -1)
	offset := (int(date.Weekday()) - int(weekday) + 7) % 7
	return date.AddDate(0, 0, -offset)
}

// easter computes Easter Sunday for year using the anonymous Gregorian
// computus.
func easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	dayOfMonth := (h+l-7*m+114)%31 + 1
	return day(year, time.Month(month), dayOfMonth)
}
