package chanting

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"japa/cmd/internal/httpx"
	"japa/cmd/internal/leaderboard"
	"japa/cmd/internal/ledger"
)

// MaxLeaderboardLimit caps the ?limit= query parameter.
const MaxLeaderboardLimit = 500

// Config controls the chanting HTTP handlers.
type Config struct {
	MaxBodyBytes int64
}

// Handler serves /chanting/*.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	svc      *Service
	sessions httpx.SessionValidator
	board    *leaderboard.Board
}

// NewHandler constructs a Handler.
func NewHandler(log *slog.Logger, cfg Config, svc *Service, sessions httpx.SessionValidator, board *leaderboard.Board) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 64 << 10
	}
	return &Handler{log: log, cfg: cfg, svc: svc, sessions: sessions, board: board}
}

// Register wires chanting routes onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/chanting/add", h.handleAdd)
	mux.HandleFunc("/chanting/summary", h.handleSummary)
	mux.HandleFunc("/chanting/leaderboard", h.handleLeaderboard)
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.MethodNotAllowed(w, http.MethodPost)
		return
	}

	id, ok := httpx.RequireIdentity(w, r, h.sessions, h.log)
	if !ok {
		return
	}

	var req addRequest
	if err := httpx.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	rounds, err := ledger.ParseRounds(req.Rounds)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_rounds", "rounds must be a positive integer")
		return
	}

	rawDate := req.OccurredOn
	if strings.TrimSpace(rawDate) == "" {
		rawDate = req.ChantDate
	}
	occurredOn, err := ledger.ParseOccurredOn(rawDate)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_date", "occurred_on must be YYYY-MM-DD")
		return
	}

	res, err := h.svc.Add(r.Context(), AddInput{UserID: id.UserID, Rounds: rounds, OccurredOn: occurredOn})
	if err != nil {
		h.writeServiceError(w, "chant.add.fail", id.UserID, err)
		return
	}

	h.log.Info("chant.add",
		"user_id", id.UserID,
		"entry_id", res.Entry.ID,
		"rounds", res.Entry.Rounds,
		"occurred_on", res.Entry.OccurredOn.String(),
		"current_streak", res.Streak.Current,
	)

	httpx.WriteJSON(w, http.StatusOK, addResponse{
		EntryID:    res.Entry.ID,
		Rounds:     res.Entry.Rounds,
		OccurredOn: res.Entry.OccurredOn,
		RecordedAt: res.Entry.RecordedAt,
		Streak:     streakResponse{Current: res.Streak.Current, Longest: res.Streak.Longest},
	})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.MethodNotAllowed(w, http.MethodGet)
		return
	}

	id, ok := httpx.RequireIdentity(w, r, h.sessions, h.log)
	if !ok {
		return
	}

	sum, err := h.svc.Summary(r.Context(), id.UserID)
	if err != nil {
		h.writeServiceError(w, "chant.summary.fail", id.UserID, err)
		return
	}

	daily := sum.Daily
	if daily == nil {
		daily = []ledger.DayTotal{}
	}
	httpx.WriteJSON(w, http.StatusOK, summaryResponse{
		TotalRounds: sum.TotalRounds,
		Daily:       daily,
		Streak: summaryStreak{
			Current:         sum.Streak.Current,
			Longest:         sum.Streak.Longest,
			LastCountedDate: sum.Streak.LastCounted,
		},
	})
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.MethodNotAllowed(w, http.MethodGet)
		return
	}

	limit := 0
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = min(n, MaxLeaderboardLimit)
	}

	rows, err := h.board.Top(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, "chant.leaderboard.fail", "", err)
		return
	}
	if rows == nil {
		rows = []leaderboard.Row{}
	}
	httpx.WriteJSON(w, http.StatusOK, leaderboardResponse{Data: rows})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, event, userID string, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidRounds):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_rounds", "rounds must be a positive integer")
	case errors.Is(err, ledger.ErrFutureDate):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_date", "occurred_on is too far in the future")
	case errors.Is(err, ledger.ErrInvalidDate):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_date", "occurred_on must be YYYY-MM-DD")
	case errors.Is(err, ledger.ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid request")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
		h.log.Warn(event, "user_id", userID, "err", err)
	default:
		h.log.Error(event, "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}
