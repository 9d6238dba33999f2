package reporting

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// PredictionRow is one persisted record per (ticker, run).
type PredictionRow struct {
	ID                    string  `gorm:"column:id;primaryKey"`
	CreatedAt             string  `gorm:"column:created_at"`
	AsOfDate              string  `gorm:"column:as_of_date"`
	Ticker                string  `gorm:"column:ticker"`
	PredictedPrice        float64 `gorm:"column:predicted_price"`
	PredictedReturn       float64 `gorm:"column:predicted_return"`
	PortfolioWeight       float64 `gorm:"column:portfolio_weight"`
	ActualPricesLastMonth string  `gorm:"column:actual_prices_last_month"` // JSON-encoded float array
}

// Store writes prediction rows to the remote Postgres table.
type Store struct {
	db    *gorm.DB
	table string
	log   zerolog.Logger
}

// NewStore connects to the remote store. An empty DSN returns (nil, nil):
// persistence is optional infrastructure, and a nil *Store is the explicit
// "credentials absent, skip" handle the caller branches on.
func NewStore(dsn, table string, log zerolog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, nil
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to remote store: %w", err)
	}

	return &Store{
		db:    db,
		table: table,
		log:   log.With().Str("component", "store").Logger(),
	}, nil
}

// Migrate creates the prediction table if it does not exist.
func (s *Store) Migrate() error {
	if err := s.db.Table(s.table).AutoMigrate(&PredictionRow{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", s.table, err)
	}
	return nil
}

// Save writes one row per ticker with a fresh UUID and timestamp per row.
// Write failures propagate to the caller.
func (s *Store) Save(report *Report) error {
	if len(report.Predictions) == 0 {
		s.log.Warn().Msg("No predictions to save")
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	asOf := report.AsOfDate.Format("2006-01-02")

	rows := make([]PredictionRow, 0, len(report.Predictions))
	for _, ticker := range report.Tickers() {
		prices, err := json.Marshal(report.RecentPrices[ticker])
		if err != nil {
			return fmt.Errorf("failed to encode recent prices for %s: %w", ticker, err)
		}

		rows = append(rows, PredictionRow{
			ID:                    uuid.NewString(),
			CreatedAt:             now,
			AsOfDate:              asOf,
			Ticker:                ticker,
			PredictedPrice:        report.Predictions[ticker],
			PredictedReturn:       report.PredictedReturns[ticker],
			PortfolioWeight:       report.Weights[ticker],
			ActualPricesLastMonth: string(prices),
		})
	}

	if err := s.db.Table(s.table).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert %d rows: %w", len(rows), err)
	}

	s.log.Info().Int("rows", len(rows)).Str("table", s.table).Msg("Saved predictions to remote store")
	return nil
}

// Recent returns the most recently created rows, newest first. This is the
// read path the dashboard consumes.
func (s *Store) Recent(limit int) ([]PredictionRow, error) {
	var rows []PredictionRow
	err := s.db.Table(s.table).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query recent predictions: %w", err)
	}
	return rows, nil
}
