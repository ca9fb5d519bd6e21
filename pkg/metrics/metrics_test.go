package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewManager_Disabled(t *testing.T) {
	m := NewManager(false)

	if m.Enabled() {
		t.Error("Expected manager to be disabled")
	}

	// No-op calls must not panic on a disabled manager
	m.RecordSettlement()
	m.RecordResultsIngested("feed", 20)
	m.RecordPriceUpdate()
	m.RecordScoreComputed()
	m.RecordRosterEdit("add_driver", "accepted")
	m.RecordHTTPRequest("GET", "/api/lockout", 200, 5*time.Millisecond)
	m.WSClientConnected(1)
	m.RecordJobRun("results_poll", "success")
}

func TestNewManager_Enabled(t *testing.T) {
	m := NewManager(true)

	if !m.Enabled() {
		t.Fatal("Expected manager to be enabled")
	}

	m.RecordSettlement()
	m.RecordResultsIngested("feed", 20)
	m.RecordHTTPRequest("GET", "/api/lockout", 200, 5*time.Millisecond)
	m.WSClientConnected(1)

	// Scrape the registry and check our namespace shows up
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("Expected 200 from metrics handler, got %d", rec.Code)
	}

	body := rec.Body.String()
	if body == "" {
		t.Fatal("Expected metrics output, got empty body")
	}

	for _, want := range []string{
		"podium_settlements_total",
		"podium_results_ingested_total",
		"podium_http_requests_total",
		"podium_ws_clients",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected metrics output to contain %q", want)
		}
	}
}
