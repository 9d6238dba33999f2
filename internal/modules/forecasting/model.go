package forecasting

import (
	"fmt"
	"time"

	forecaster "github.com/aouyang1/go-forecaster"
	"github.com/aouyang1/go-forecaster/forecast/options"
	"github.com/rs/zerolog"

	"github.com/optifolio/optifolio/internal/domain"
)

// Model wraps the additive-regression forecaster. A fresh model instance is
// fitted from scratch on every PredictNext call; nothing is cached across
// tickers or calls.
type Model struct {
	settings Settings
	log      zerolog.Logger
}

// NewModel creates a forecast model with the given settings.
func NewModel(settings Settings, log zerolog.Logger) *Model {
	return &Model{
		settings: settings,
		log:      log.With().Str("component", "forecast_model").Logger(),
	}
}

// PredictNext fits the full price series and returns the point estimate for
// exactly one calendar day after the series' last date.
func (m *Model) PredictNext(series domain.Series) (float64, error) {
	if len(series) < 2 {
		return 0, fmt.Errorf("series too short to fit: %d points", len(series))
	}

	first := series[0].Date
	last := series[len(series)-1].Date

	seasonality := options.SeasonalityOptions{}
	if m.settings.DailyOrders > 0 {
		seasonality.SeasonalityConfigs = append(seasonality.SeasonalityConfigs,
			options.NewDailySeasonalityConfig(m.settings.DailyOrders))
	}
	if m.settings.WeeklyOrders > 0 {
		seasonality.SeasonalityConfigs = append(seasonality.SeasonalityConfigs,
			options.NewWeeklySeasonalityConfig(m.settings.WeeklyOrders))
	}

	opts := &options.Options{
		SeasonalityOptions: seasonality,
		ChangepointOptions: options.ChangepointOptions{
			Auto:                true,
			AutoNumChangepoints: m.settings.AutoChangepoints,
		},
	}

	if m.settings.UseHolidays {
		events, err := m.holidayEvents(first, last)
		if err != nil {
			return 0, err
		}
		if len(events) > 0 {
			opts.EventOptions = options.EventOptions{Events: events}
			m.log.Debug().Int("holidays", len(events)).Msg("Fitting with trading holidays")
		} else {
			m.log.Warn().Msg("No holidays in series range, fitting without holiday regressors")
		}
	}

	fopts := forecaster.NewDefaultOptions()
	fopts.SeriesOptions.ForecastOptions = opts

	f, err := forecaster.New(fopts)
	if err != nil {
		return 0, fmt.Errorf("failed to construct forecaster: %w", err)
	}

	if err := f.Fit(series.Dates(), series.Prices()); err != nil {
		return 0, fmt.Errorf("failed to fit model: %w", err)
	}

	next := last.AddDate(0, 0, 1)
	res, err := f.Predict([]time.Time{next})
	if err != nil {
		return 0, fmt.Errorf("failed to predict: %w", err)
	}
	if len(res.Forecast) == 0 {
		return 0, fmt.Errorf("forecaster returned no prediction")
	}

	return res.Forecast[0], nil
}

// holidayEvents builds the event regressors for the series range. The table
// covers the year before the series start through the year after its end,
// then gets filtered down to the dates actually observed.
func (m *Model) holidayEvents(first, last time.Time) ([]options.Event, error) {
	table, err := TradingHolidays(first.Year()-1, last.Year()+1)
	if err != nil {
		return nil, fmt.Errorf("failed to build holiday table: %w", err)
	}

	inRange := FilterRange(table, first, last)

	events := make([]options.Event, 0, len(inRange))
	for _, h := range inRange {
		events = append(events, options.Event{
			Name:  h.Name,
			Start: h.Date.AddDate(0, 0, h.LowerWindow),
			End:   h.Date.AddDate(0, 0, h.UpperWindow),
		})
	}
	return events, nil
}
