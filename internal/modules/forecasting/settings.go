package forecasting

// Settings configures the forecast model. These are static knobs, not tuned
// per ticker: weekly seasonality on, daily off, with automatic changepoint
// detection carrying the long-horizon trend.
type Settings struct {
	WeeklyOrders     int  // Fourier orders for weekly seasonality; 0 disables
	DailyOrders      int  // Fourier orders for daily seasonality; 0 disables
	AutoChangepoints int  // number of trend changepoints to auto-detect
	UseHolidays      bool // pass the trading-holiday table as event regressors
}

// DefaultSettings returns the configuration used by the production pipeline.
func DefaultSettings() Settings {
	return Settings{
		WeeklyOrders:     3,
		DailyOrders:      0,
		AutoChangepoints: 12,
		UseHolidays:      true,
	}
}
