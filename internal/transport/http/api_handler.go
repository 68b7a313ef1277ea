package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"detective-quiz-service/internal/app"
	"detective-quiz-service/internal/domain"
)

// APIHandler exposes the session ingest and leaderboard query surface.
type APIHandler struct {
	stats       *app.StatsService
	leaderboard *app.LeaderboardService
}

func NewAPIHandler(stats *app.StatsService, leaderboard *app.LeaderboardService) *APIHandler {
	return &APIHandler{stats: stats, leaderboard: leaderboard}
}

// Register wires the handler's routes onto the mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/sessions", h.handleRecordSession)
	mux.HandleFunc("/stats", h.handleStats)
	mux.HandleFunc("/leaderboard", h.handleLeaderboard)
	mux.HandleFunc("/leaderboard/position", h.handlePosition)
	mux.HandleFunc("/leaderboard/rebuild", h.handleRebuild)
}

type recordSessionRequest struct {
	GameID      string          `json:"gameId"`
	UserID      string          `json:"userId"`
	DisplayName string          `json:"displayName"`
	Answers     []domain.Answer `json:"answers"`
}

type recordSessionResponse struct {
	Session  domain.SessionResult `json:"session"`
	Stats    domain.UserStats     `json:"stats"`
	Unlocked []domain.Achievement `json:"unlocked"`
}

func (h *APIHandler) handleRecordSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req recordSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid session payload", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	stats, result, unlocked, err := h.stats.RecordSession(r.Context(), req.UserID, req.DisplayName, req.GameID, req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	if unlocked == nil {
		unlocked = []domain.Achievement{}
	}
	writeJSON(w, http.StatusOK, recordSessionResponse{Session: result, Stats: stats, Unlocked: unlocked})
}

func (h *APIHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	stats, err := h.stats.Stats(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *APIHandler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	period, err := domain.ParsePeriod(periodParam(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.leaderboard.Top(r.Context(), period, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Period  domain.Period             `json:"period"`
		Entries []domain.LeaderboardEntry `json:"entries"`
	}{Period: period, Entries: entries})
}

func (h *APIHandler) handlePosition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	period, err := domain.ParsePeriod(periodParam(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	entry, err := h.leaderboard.Position(r.Context(), period, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type rebuildResult struct {
	Success bool   `json:"success"`
	Count   int    `json:"count,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *APIHandler) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	results := h.leaderboard.RebuildAll(r.Context())
	payload := make(map[domain.Period]rebuildResult, len(results))
	for period, result := range results {
		if result.Err != nil {
			payload[period] = rebuildResult{Success: false, Error: result.Err.Error()}
		} else {
			payload[period] = rebuildResult{Success: true, Count: result.Count}
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func periodParam(r *http.Request) string {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = string(domain.PeriodAll)
	}
	return period
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrEntryNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrUnknownPeriod):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrWriteConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
