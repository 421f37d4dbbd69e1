package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"mspro-labs/crop-weather/internal/config"
	"mspro-labs/crop-weather/internal/crop"
	"mspro-labs/crop-weather/internal/dashboard"
	"mspro-labs/crop-weather/internal/models"
)

func noRefresh(context.Context) (models.CrawlRun, error) {
	return models.CrawlRun{}, errors.New("not expected")
}

func testSettings() *config.Settings {
	s := config.DefaultSettings()
	return &s
}

func writeTestSnapshot(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "weather_20250301_080000.json"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestDashboardPage renders the HTML view and checks it with goquery.
func TestDashboardPage(t *testing.T) {
	// 1. A snapshot with a cold week
	dir := t.TempDir()
	writeTestSnapshot(t, dir, `{"地點":"全台","t":[10,10,10,10,10,10,10]}`)

	app, err := newServer(dir, testSettings(), noRefresh)
	if err != nil {
		t.Fatalf("newServer failed: %v", err)
	}

	// 2. Request the page for rice
	req := httptest.NewRequest(http.MethodGet, "/?crop="+url.QueryEscape("水稻"), nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected HTML content type, got '%s'", ct)
	}

	// 3. Assertions
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatalf("Failed to parse HTML: %v", err)
	}
	if level, _ := doc.Find("#verdict").Attr("data-level"); level != string(crop.BelowRange) {
		t.Errorf("Verdict level wrong: expected '%s', got '%s'", crop.BelowRange, level)
	}
	if got := strings.TrimSpace(doc.Find("#snapshot").Text()); got != "weather_20250301_080000.json" {
		t.Errorf("Snapshot name wrong: got '%s'", got)
	}
	if rows := doc.Find("#forecast tbody tr").Length(); rows != 7 {
		t.Errorf("Expected 7 forecast rows, got %d", rows)
	}
	if got := doc.Find("#mean").Text(); got != "10.0" {
		t.Errorf("Mean wrong: got '%s'", got)
	}
	if selected := doc.Find("#crop option[selected]").AttrOr("value", ""); selected != "水稻" {
		t.Errorf("Selected crop wrong: got '%s'", selected)
	}
	if doc.Find("#degraded").Length() != 1 {
		t.Errorf("Heuristic series should be flagged as degraded")
	}
	if doc.Find("#no-data").Length() != 0 {
		t.Errorf("No-data warning should not be shown")
	}
}

func TestDashboardPageNoData(t *testing.T) {
	app, err := newServer(filepath.Join(t.TempDir(), "empty"), testSettings(), noRefresh)
	if err != nil {
		t.Fatalf("newServer failed: %v", err)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Find("#no-data").Length() != 1 {
		t.Errorf("Expected the no-data warning")
	}
	if doc.Find("#refresh").Length() != 1 {
		t.Errorf("Expected the refresh button")
	}
}

func TestForecastAPI(t *testing.T) {
	dir := t.TempDir()
	writeTestSnapshot(t, dir, `{"t":[35,35,35,35,35,35,35]}`)

	app, err := newServer(dir, testSettings(), noRefresh)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/forecast?crop=tomato", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var view dashboard.View
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode view: %v", err)
	}
	if view.Verdict.Level != crop.AboveRange {
		t.Errorf("Expected above-range, got %s", view.Verdict.Level)
	}
	if view.Profile.Name != "番茄" || !view.KnownCrop {
		t.Errorf("Alias should resolve to 番茄: %+v", view.Profile)
	}
	if len(view.Days) != 7 {
		t.Errorf("Expected 7 days, got %d", len(view.Days))
	}
}

func TestForecastAPIRejectsLongCrop(t *testing.T) {
	app, err := newServer(t.TempDir(), testSettings(), noRefresh)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/forecast?crop="+strings.Repeat("x", 40), nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestRefresh(t *testing.T) {
	testCases := []struct {
		name    string
		run     models.CrawlRun
		err     error
		wantMsg string
	}{
		{"success", models.CrawlRun{Path: "weather_data/weather_20250301_080000.json"}, nil, "✅ Saved: weather_data/weather_20250301_080000.json"},
		{"failure", models.CrawlRun{}, errors.New("boom"), "❌ Error: boom"},
	}

	for _, tc := range testCases {
		calls := 0
		refresh := func(context.Context) (models.CrawlRun, error) {
			calls++
			return tc.run, tc.err
		}
		app, err := newServer(t.TempDir(), testSettings(), refresh)
		if err != nil {
			t.Fatal(err)
		}

		req := httptest.NewRequest(http.MethodPost, "/refresh", strings.NewReader("crop=tomato"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatal(err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if calls != 1 {
			t.Errorf("%s: expected 1 refresh call, got %d", tc.name, calls)
		}
		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("%s: expected 303, got %d", tc.name, resp.StatusCode)
		}
		loc, err := url.Parse(resp.Header.Get("Location"))
		if err != nil {
			t.Fatal(err)
		}
		if got := loc.Query().Get("msg"); got != tc.wantMsg {
			t.Errorf("%s: flash wrong: got %q", tc.name, got)
		}
		if got := loc.Query().Get("crop"); got != "tomato" {
			t.Errorf("%s: crop not carried over: got %q", tc.name, got)
		}
	}
}

func TestHealth(t *testing.T) {
	app, err := newServer(t.TempDir(), testSettings(), noRefresh)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}
