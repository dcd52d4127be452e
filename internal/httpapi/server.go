package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"fundlock/internal/domain"
	"fundlock/internal/pricetable"
	"fundlock/internal/sim"
	"fundlock/internal/store"
	api "fundlock/pkg/fundlock"
)

// Server serves the backtest HTTP API. The run store may be nil, in which
// case persistence endpoints return 503 and Save requests are rejected.
type Server struct {
	runs store.RunStore
	log  *slog.Logger
}

// NewServer creates a Server backed by the given run store.
func NewServer(runs store.RunStore, log *slog.Logger) *Server {
	return &Server{
		runs: runs,
		log:  log,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/backtest", s.handleBacktest)
	mux.HandleFunc("GET /api/v1/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/v1/runs/{id}", s.handleGetRun)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req api.BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	mode := req.Mode
	if mode == "" {
		mode = store.ModeSingle
	}
	if mode != store.ModeSingle && mode != store.ModeContinuous {
		writeError(w, http.StatusBadRequest, "mode must be \"single\" or \"continuous\"")
		return
	}

	series := make(map[string][]domain.PricePoint, len(req.Prices))
	for ticker, points := range req.Prices {
		converted := make([]domain.PricePoint, 0, len(points))
		for _, p := range points {
			d, err := time.Parse(dateLayout, p.Date)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid date "+p.Date+" for "+ticker)
				return
			}
			converted = append(converted, domain.PricePoint{Date: d, Close: p.Close})
		}
		series[ticker] = converted
	}
	table := pricetable.Build(series)

	params := toParams(req.Params)
	resp := api.BacktestResponse{Mode: mode}
	run := &store.Run{Mode: mode, Params: params}

	switch mode {
	case store.ModeSingle:
		res, err := sim.Run(table, params)
		if err != nil {
			writeSimError(w, err)
			return
		}
		resp.Triggered = res.Triggered
		resp.Children = res.Children
		resp.Records = toRecords(res.Records)
		run.Triggered = res.Triggered
		run.Records = res.Records

	case store.ModeContinuous:
		res, err := sim.RunContinuous(table, params)
		if err != nil {
			writeSimError(w, err)
			return
		}
		resp.Children = res.Children
		resp.Records = toRecords(res.Records)
		resp.Summaries = toSummaries(res.Summaries)
		resp.Stats = toStats(res.Stats)
		run.Records = res.Records
		run.Summaries = res.Summaries
		run.Stats = res.Stats
	}

	if req.Save {
		if s.runs == nil {
			writeError(w, http.StatusServiceUnavailable, "run persistence not configured")
			return
		}
		id, err := s.runs.SaveRun(r.Context(), run)
		if err != nil {
			s.log.Error("saving run", "error", err)
			writeError(w, http.StatusInternalServerError, "saving run")
			return
		}
		resp.RunID = id
	}

	writeJSON(w, resp)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run persistence not configured")
		return
	}
	runs, err := s.runs.ListRuns(r.Context())
	if err != nil {
		s.log.Error("listing runs", "error", err)
		writeError(w, http.StatusInternalServerError, "listing runs")
		return
	}

	resp := api.RunsResponse{Runs: make([]api.RunMeta, 0, len(runs))}
	for i := range runs {
		resp.Runs = append(resp.Runs, toRunMeta(&runs[i]))
	}
	writeJSON(w, resp)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run persistence not configured")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run ID")
		return
	}

	run, err := s.runs.GetRun(r.Context(), id)
	if err != nil {
		s.log.Error("loading run", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "loading run")
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	writeJSON(w, api.Run{
		RunMeta:   toRunMeta(run),
		Records:   toRecords(run.Records),
		Summaries: toSummaries(run.Summaries),
	})
}

// writeSimError maps engine errors onto HTTP statuses: bad price input is
// the client's fault, anything else is a 500.
func writeSimError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrMissingMotherData) || errors.Is(err, domain.ErrInsufficientData) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
