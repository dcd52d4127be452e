package httpapi

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"fundlock/internal/store"
	api "fundlock/pkg/fundlock"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewServer(s, slog.Default())
}

// flatRequest builds a request whose mother fund jumps +10% on the last day.
func flatRequest(mode string, save bool) api.BacktestRequest {
	prices := map[string][]api.PricePoint{
		"BND": {
			{Date: "2021-01-04", Close: 100},
			{Date: "2021-01-05", Close: 100},
			{Date: "2021-01-06", Close: 110},
		},
		"QQQ": {
			{Date: "2021-01-04", Close: 50},
			{Date: "2021-01-05", Close: 50},
			{Date: "2021-01-06", Close: 55},
		},
	}
	return api.BacktestRequest{
		Mode: mode,
		Save: save,
		Params: api.Params{
			MotherTicker:   "BND",
			ChildTickers:   []string{"QQQ"},
			Capital:        300000,
			TransferAmount: 3000,
			TransferDays:   []int{26},
			TargetROI:      0.10,
		},
		Prices: prices,
	}
}

func doBacktest(t *testing.T, srv *Server, req api.BacktestRequest) (*httptest.ResponseRecorder, api.BacktestResponse) {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	r := httptest.NewRequest("POST", "/api/v1/backtest", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)

	var resp api.BacktestResponse
	if w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshaling response: %v", err)
		}
	}
	return w, resp
}

func TestBacktestSingle(t *testing.T) {
	srv := testServer(t)
	w, resp := doBacktest(t, srv, flatRequest("single", false))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !resp.Triggered {
		t.Error("expected stop-profit to trigger")
	}
	if len(resp.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(resp.Records))
	}
	if resp.Records[2].Action != "StopProfit" {
		t.Errorf("last action = %q, want StopProfit", resp.Records[2].Action)
	}
	if resp.RunID != 0 {
		t.Errorf("RunID = %d without save, want 0", resp.RunID)
	}
}

func TestBacktestDefaultsToSingleMode(t *testing.T) {
	srv := testServer(t)
	w, resp := doBacktest(t, srv, flatRequest("", false))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if resp.Mode != "single" {
		t.Errorf("mode = %q, want single", resp.Mode)
	}
}

func TestBacktestContinuousSaveAndFetch(t *testing.T) {
	srv := testServer(t)
	w, resp := doBacktest(t, srv, flatRequest("continuous", true))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if resp.Stats == nil {
		t.Fatal("continuous response missing stats")
	}
	if resp.Stats.CompletedRounds != 1 {
		t.Errorf("CompletedRounds = %d, want 1", resp.Stats.CompletedRounds)
	}
	if len(resp.Summaries) != 1 {
		t.Errorf("got %d summaries, want 1", len(resp.Summaries))
	}
	if resp.RunID == 0 {
		t.Fatal("RunID = 0, want assigned ID after save")
	}

	// List runs.
	r := httptest.NewRequest("GET", "/api/v1/runs", nil)
	lw := httptest.NewRecorder()
	srv.Handler().ServeHTTP(lw, r)
	if lw.Code != http.StatusOK {
		t.Fatalf("list status = %d", lw.Code)
	}
	var list api.RunsResponse
	if err := json.Unmarshal(lw.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshaling list: %v", err)
	}
	if len(list.Runs) != 1 || list.Runs[0].ID != resp.RunID {
		t.Fatalf("list = %+v, want one run with ID %d", list.Runs, resp.RunID)
	}

	// Fetch the run back with records.
	gr := httptest.NewRequest("GET", "/api/v1/runs/"+strconv.FormatInt(resp.RunID, 10), nil)
	gw := httptest.NewRecorder()
	srv.Handler().ServeHTTP(gw, gr)
	if gw.Code != http.StatusOK {
		t.Fatalf("get status = %d, body %s", gw.Code, gw.Body.String())
	}
	var run api.Run
	if err := json.Unmarshal(gw.Body.Bytes(), &run); err != nil {
		t.Fatalf("unmarshaling run: %v", err)
	}
	if len(run.Records) != 3 {
		t.Errorf("fetched run has %d records, want 3", len(run.Records))
	}
}

func TestBacktestMissingMother(t *testing.T) {
	srv := testServer(t)
	req := flatRequest("single", false)
	delete(req.Prices, "BND")

	w, _ := doBacktest(t, srv, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
}

func TestBacktestEmptyPrices(t *testing.T) {
	srv := testServer(t)
	req := flatRequest("single", false)
	req.Prices = nil

	w, _ := doBacktest(t, srv, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
}

func TestBacktestBadMode(t *testing.T) {
	srv := testServer(t)
	req := flatRequest("turbo", false)

	w, _ := doBacktest(t, srv, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetRunNotFound(t *testing.T) {
	srv := testServer(t)

	r := httptest.NewRequest("GET", "/api/v1/runs/999", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
