package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// APIServer exposes the journal reports over HTTP. Authentication and
// session handling live in front of this server; it only does routing and
// JSON serialization.
type APIServer struct {
	server  *http.Server
	service *Service
	logger  *zap.Logger
}

// NewAPIServer creates a new APIServer.
func NewAPIServer(service *Service, logger *zap.Logger, port int) *APIServer {
	s := &APIServer{
		service: service,
		logger:  logger.Named("api-server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/status", s.statusHandler)
	mux.HandleFunc("/api/trades", s.tradesHandler)
	mux.HandleFunc("/api/statistics", s.statisticsHandler)
	mux.HandleFunc("/api/chart", s.chartHandler)
	mux.HandleFunc("/api/performance", s.performanceHandler)
	mux.HandleFunc("/api/leaderboard", s.leaderboardHandler)
	mux.HandleFunc("/api/notes", s.notesHandler)
	mux.HandleFunc("/api/notes/", s.noteHandler)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	return s
}

// Start runs the HTTP server in a new goroutine.
func (s *APIServer) Start() {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *APIServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}

func (s *APIServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *APIServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := struct {
		UUID      string `json:"uuid"`
		StartTime string `json:"start_time"`
		Uptime    string `json:"uptime"`
	}{
		UUID:      s.service.UUID,
		StartTime: s.service.StartTime.Format(time.RFC3339),
		Uptime:    time.Since(s.service.StartTime).String(),
	}
	s.writeJSON(w, status)
}

func (s *APIServer) tradesHandler(w http.ResponseWriter, r *http.Request) {
	userID, from, to, ok := s.queryParams(w, r)
	if !ok {
		return
	}

	includeDeposits := r.URL.Query().Get("include_deposits") == "true"
	trades, err := s.service.AllTrades(r.Context(), userID, from, to, includeDeposits)
	if err != nil {
		s.logger.Error("Failed to get trades", zap.Error(err))
		http.Error(w, "Failed to get trades", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, trades)
}

func (s *APIServer) statisticsHandler(w http.ResponseWriter, r *http.Request) {
	userID, from, to, ok := s.queryParams(w, r)
	if !ok {
		return
	}

	report, err := s.service.Statistics(r.Context(), userID, from, to)
	if err != nil {
		s.logger.Error("Failed to calculate statistics", zap.Error(err))
		http.Error(w, "Failed to calculate statistics", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, report)
}

func (s *APIServer) chartHandler(w http.ResponseWriter, r *http.Request) {
	userID, from, to, ok := s.queryParams(w, r)
	if !ok {
		return
	}

	chart, err := s.service.BalanceChart(r.Context(), userID, from, to)
	if err != nil {
		s.logger.Error("Failed to build balance chart", zap.Error(err))
		http.Error(w, "Failed to build balance chart", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, chart)
}

func (s *APIServer) performanceHandler(w http.ResponseWriter, r *http.Request) {
	userID, _, _, ok := s.queryParams(w, r)
	if !ok {
		return
	}

	var disabled *bool
	if value := r.URL.Query().Get("disabled"); value != "" {
		parsed := value == "true"
		disabled = &parsed
	}

	report, err := s.service.AccountPerformance(r.Context(), userID, disabled)
	if err != nil {
		s.logger.Error("Failed to calculate account performance", zap.Error(err))
		http.Error(w, "Failed to calculate account performance", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, report)
}

func (s *APIServer) leaderboardHandler(w http.ResponseWriter, r *http.Request) {
	leaderboard, err := s.service.Leaderboard(r.Context())
	if err != nil {
		s.logger.Error("Failed to build leaderboard", zap.Error(err))
		http.Error(w, "Failed to build leaderboard", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, leaderboard)
}

// notesHandler lists the user's notes or creates a new one.
func (s *APIServer) notesHandler(w http.ResponseWriter, r *http.Request) {
	userID, _, _, ok := s.queryParams(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		notes, err := s.service.TradeNotes(r.Context(), userID)
		if err != nil {
			s.logger.Error("Failed to list notes", zap.Error(err))
			http.Error(w, "Failed to list notes", http.StatusInternalServerError)
			return
		}
		s.writeJSON(w, notes)
	case http.MethodPost:
		var input TradeNoteInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "Invalid note payload", http.StatusBadRequest)
			return
		}
		note, err := s.service.AddTradeNote(r.Context(), userID, input)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		s.writeJSON(w, note)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// noteHandler gets, updates or deletes a single note by its path id.
func (s *APIServer) noteHandler(w http.ResponseWriter, r *http.Request) {
	userID, _, _, ok := s.queryParams(w, r)
	if !ok {
		return
	}

	noteID, err := strconv.ParseUint(strings.TrimPrefix(r.URL.Path, "/api/notes/"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid note id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		note, err := s.service.TradeNote(r.Context(), userID, uint(noteID))
		if err != nil {
			http.Error(w, "Note not found", http.StatusNotFound)
			return
		}
		s.writeJSON(w, note)
	case http.MethodPut:
		var input TradeNoteInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "Invalid note payload", http.StatusBadRequest)
			return
		}
		note, err := s.service.UpdateTradeNote(r.Context(), userID, uint(noteID), input)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				http.Error(w, "Note not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.writeJSON(w, note)
	case http.MethodDelete:
		if err := s.service.DeleteTradeNote(r.Context(), userID, uint(noteID)); err != nil {
			http.Error(w, "Note not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// queryParams parses the required user id and the optional RFC3339
// from/to range. A range is only applied when both ends are present.
func (s *APIServer) queryParams(w http.ResponseWriter, r *http.Request) (uint, *time.Time, *time.Time, bool) {
	userValue := r.URL.Query().Get("user")
	userID, err := strconv.ParseUint(userValue, 10, 64)
	if err != nil {
		http.Error(w, "Missing or invalid user parameter", http.StatusBadRequest)
		return 0, nil, nil, false
	}

	var from, to *time.Time
	if fromValue := r.URL.Query().Get("from"); fromValue != "" {
		parsed, err := time.Parse(time.RFC3339, fromValue)
		if err != nil {
			http.Error(w, "Invalid from parameter", http.StatusBadRequest)
			return 0, nil, nil, false
		}
		from = &parsed
	}
	if toValue := r.URL.Query().Get("to"); toValue != "" {
		parsed, err := time.Parse(time.RFC3339, toValue)
		if err != nil {
			http.Error(w, "Invalid to parameter", http.StatusBadRequest)
			return 0, nil, nil, false
		}
		to = &parsed
	}
	if (from == nil) != (to == nil) {
		http.Error(w, "from and to must be supplied together", http.StatusBadRequest)
		return 0, nil, nil, false
	}

	return uint(userID), from, to, true
}

func (s *APIServer) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
