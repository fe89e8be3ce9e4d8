package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/danjglick/scorefirst-sub000/internal/game"

	"github.com/go-chi/chi/v5"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
	maxRecentEvents        = 500
	maxWallPoints          = 256
)

type pointRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (h *routerHandlers) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
		Seed   int64   `json:"seed"`
	}
	// An empty body takes the server defaults
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Width < 0 || req.Height < 0 {
		writeError(w, "width and height must be positive", http.StatusBadRequest)
		return
	}

	e, err := h.sessions.Create(game.SessionOptions{
		Width:  req.Width,
		Height: req.Height,
		Seed:   req.Seed,
	})
	if err != nil {
		writeSessionError(w, err)
		return
	}
	UpdateSessionCount(h.sessions.Count())

	writeJSONStatus(w, http.StatusCreated, map[string]interface{}{
		"id":   e.SessionID(),
		"seed": e.Seed(),
	})
}

func (h *routerHandlers) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Remove(chi.URLParam(r, "id")); err != nil {
		writeSessionError(w, err)
		return
	}
	UpdateSessionCount(h.sessions.Count())
	w.WriteHeader(http.StatusNoContent)
}

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	e, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, e.Snapshot())
}

func (h *routerHandlers) handlePress(w http.ResponseWriter, r *http.Request) {
	e, ok := h.session(w, r)
	if !ok {
		return
	}
	var req pointRequest
	if !decode(w, r, &req) {
		return
	}
	e.PressStart(game.NewVec2(req.X, req.Y))
	writeJSON(w, e.Snapshot())
}

func (h *routerHandlers) handleDrag(w http.ResponseWriter, r *http.Request) {
	e, ok := h.session(w, r)
	if !ok {
		return
	}
	var req pointRequest
	if !decode(w, r, &req) {
		return
	}
	e.DragMove(game.NewVec2(req.X, req.Y))
	w.WriteHeader(http.StatusNoContent)
}

func (h *routerHandlers) handleRelease(w http.ResponseWriter, r *http.Request) {
	e, ok := h.session(w, r)
	if !ok {
		return
	}
	e.PressEnd()
	writeJSON(w, e.Snapshot())
}

func (h *routerHandlers) handleResize(w http.ResponseWriter, r *http.Request) {
	e, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if !decode(w, r, &req) {
		return
	}
	if !e.Resize(req.Width, req.Height) {
		writeError(w, "width and height must be positive", http.StatusBadRequest)
		return
	}
	writeJSON(w, e.Snapshot())
}

func (h *routerHandlers) handleSetWalls(w http.ResponseWriter, r *http.Request) {
	e, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Walls []game.Wall `json:"walls"`
	}
	if !decode(w, r, &req) {
		return
	}
	for _, wall := range req.Walls {
		if len(wall.Points) < 2 || len(wall.Points) > maxWallPoints {
			writeError(w, "each wall needs 2 to 256 points", http.StatusBadRequest)
			return
		}
	}
	e.SetWalls(req.Walls)
	w.WriteHeader(http.StatusNoContent)
}

func (h *routerHandlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	n, ok := queryCount(w, r, "n", defaultLeaderboardSize, maxLeaderboardSize)
	if !ok {
		return
	}

	entries, err := h.scores.Top(r.Context(), n)
	if err != nil {
		log.Printf("⚠️ Leaderboard query failed: %v", err)
		writeError(w, "leaderboard unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, entries)
}

func (h *routerHandlers) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	n, ok := queryCount(w, r, "n", 50, maxRecentEvents)
	if !ok {
		return
	}
	if h.events == nil {
		writeJSON(w, []game.Event{})
		return
	}
	writeJSON(w, h.events.Recent(n))
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	count := h.sessions.Count()
	UpdateSessionCount(count)
	stats := map[string]interface{}{
		"sessions":  count,
		"rateLimit": h.rateLimiter.GetStats(),
	}
	if h.events != nil {
		stats["events"] = h.events.GetStats()
		UpdateEventLogStats(h.events.GetTotalCount(), h.events.GetDroppedCount())
	}
	writeJSON(w, stats)
}

// session resolves {id} or writes the error response.
func (h *routerHandlers) session(w http.ResponseWriter, r *http.Request) (*game.Engine, bool) {
	e, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeSessionError(w, err)
		return nil, false
	}
	return e, true
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

func queryCount(w http.ResponseWriter, r *http.Request, key string, def, limit int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		writeError(w, key+" must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	if n > limit {
		n = limit
	}
	return n, true
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		writeError(w, "session not found", http.StatusNotFound)
	case errors.Is(err, game.ErrSessionLimit):
		// DoS protection
		writeError(w, "session limit reached", http.StatusServiceUnavailable)
	default:
		log.Printf("❌ Session error: %v", err)
		writeError(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSONStatus(w, code, map[string]string{"error": message})
}
