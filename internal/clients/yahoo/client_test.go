package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/optifolio/optifolio/pkg/logger"
)

func chartJSON(timestamps []int64, closes []float64) string {
	ts, cs := "", ""
	for i := range timestamps {
		if i > 0 {
			ts += ","
			cs += ","
		}
		ts += fmt.Sprintf("%d", timestamps[i])
		cs += fmt.Sprintf("%g", closes[i])
	}
	return fmt.Sprintf(`{
		"chart": {
			"result": [{
				"timestamp": [%s],
				"indicators": {
					"quote": [{"close": [%s], "volume": [10, 20, 30]}],
					"adjclose": [{"adjclose": [%s]}]
				}
			}],
			"error": null
		}
	}`, ts, cs, cs)
}

func TestGetDailyHistory_ParsesBars(t *testing.T) {
	day := int64(86400)
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).Unix()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("interval"); got != "1d" {
			t.Errorf("interval = %q, want 1d", got)
		}
		if r.URL.Query().Get("period1") == "" || r.URL.Query().Get("period2") == "" {
			t.Error("missing period1/period2 parameters")
		}
		fmt.Fprint(w, chartJSON([]int64{base, base + day, base + 2*day}, []float64{100, 101, 102}))
	}))
	defer srv.Close()

	log := logger.New(logger.Config{Level: "error", Pretty: false})
	client := NewClient(log, WithBaseURL(srv.URL+"/"), WithRateLimit(6000))

	bars, err := client.GetDailyHistory(context.Background(), "AAPL",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	if bars[0].Close != 100 || bars[2].Close != 102 {
		t.Errorf("unexpected closes: %+v", bars)
	}
	if bars[1].Volume != 20 {
		t.Errorf("volume = %d, want 20", bars[1].Volume)
	}
}

func TestGetDailyHistory_SkipsNullBars(t *testing.T) {
	day := int64(86400)
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).Unix()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// middle bar is a null (zero) half-session artifact
		fmt.Fprint(w, chartJSON([]int64{base, base + day, base + 2*day}, []float64{100, 0, 102}))
	}))
	defer srv.Close()

	log := logger.New(logger.Config{Level: "error", Pretty: false})
	client := NewClient(log, WithBaseURL(srv.URL+"/"), WithRateLimit(6000))

	bars, err := client.GetDailyHistory(context.Background(), "AAPL", time.Now().AddDate(0, -1, 0), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected null bar skipped, got %d bars", len(bars))
	}
}

func TestGetDailyHistory_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart": {"result": [], "error": {"code": "Not Found", "description": "No data found"}}}`)
	}))
	defer srv.Close()

	log := logger.New(logger.Config{Level: "error", Pretty: false})
	client := NewClient(log, WithBaseURL(srv.URL+"/"), WithRateLimit(6000))

	_, err := client.GetDailyHistory(context.Background(), "BOGUS", time.Now().AddDate(0, -1, 0), time.Now())
	if err == nil {
		t.Fatal("expected error for API error payload")
	}
}

func TestGetDailyHistory_HTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	log := logger.New(logger.Config{Level: "error", Pretty: false})
	client := NewClient(log, WithBaseURL(srv.URL+"/"), WithRateLimit(6000))

	_, err := client.GetDailyHistory(context.Background(), "AAPL", time.Now().AddDate(0, -1, 0), time.Now())
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestGetDailyHistory_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart": {"result": [], "error": null}}`)
	}))
	defer srv.Close()

	log := logger.New(logger.Config{Level: "error", Pretty: false})
	client := NewClient(log, WithBaseURL(srv.URL+"/"), WithRateLimit(6000))

	bars, err := client.GetDailyHistory(context.Background(), "AAPL", time.Now().AddDate(0, -1, 0), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("expected empty bars, got %d", len(bars))
	}
}
