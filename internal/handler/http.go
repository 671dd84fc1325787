package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/game-leaderboard/internal/domain"
	"github.com/game-leaderboard/internal/service"
	"github.com/game-leaderboard/internal/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const welcomeMessage = "Welcome to the Game Leaderboard Microservice!"

// Handler provides HTTP handlers for the leaderboard API
type Handler struct {
	service *service.LeaderboardService
	hub     *websocket.Hub
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler. hub may be nil, in which case
// the live feed endpoint is not mounted.
func NewHandler(service *service.LeaderboardService, hub *websocket.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
		logger:  logger,
	}
}

// MessageResponse is the confirmation body of successful commands
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	r.Get("/", h.Root)
	r.Get("/health", h.HealthCheck)

	if h.hub != nil {
		r.Get("/ws", h.HandleWebSocket)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/register-player", h.RegisterPlayer)
		r.Get("/players", h.ListPlayers)
		r.Post("/submit-score", h.SubmitScore)
		r.Get("/leaderboard", h.GetLeaderboard)
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to encode response", "error", err)
	}
}

// writeMessage writes a confirmation message
func (h *Handler) writeMessage(w http.ResponseWriter, format string, args ...interface{}) {
	h.writeJSON(w, http.StatusOK, MessageResponse{Message: fmt.Sprintf(format, args...)})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, detail string) {
	h.writeJSON(w, status, ErrorResponse{Detail: detail})
}

// writeDomainError maps a service error to a status code and detail
func (h *Handler) writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrPlayerExists):
		h.writeError(w, http.StatusBadRequest, "Player already exists")
	case errors.Is(err, domain.ErrNoPlayers):
		h.writeError(w, http.StatusNotFound, "No players found")
	case errors.Is(err, domain.ErrPlayerNotFound):
		h.writeError(w, http.StatusNotFound, "Player not found")
	case errors.Is(err, domain.ErrNoScores):
		h.writeError(w, http.StatusNotFound, "No scores found")
	default:
		h.logger.Error("request failed", "operation", op, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError.Error())
	}
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// Root returns the welcome message
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, MessageResponse{Message: welcomeMessage})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// RegisterPlayer handles player registration
func (h *Handler) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	var req registerPlayerRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	player := req.toPlayer()
	if err := h.service.RegisterPlayer(r.Context(), player); err != nil {
		h.writeDomainError(w, "register player", err)
		return
	}

	h.writeMessage(w, "Player %s registered successfully!", player.Username)
}

// ListPlayers returns all registered players
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.service.ListPlayers(r.Context())
	if err != nil {
		h.writeDomainError(w, "list players", err)
		return
	}

	h.writeJSON(w, http.StatusOK, players)
}

// SubmitScore handles score submission
func (h *Handler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	var req submitScoreRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	submission := req.toSubmission()
	player, err := h.service.SubmitScore(r.Context(), submission)
	if err != nil {
		h.writeDomainError(w, "submit score", err)
		return
	}

	h.writeMessage(w, "Score of %d for player %s submitted successfully!", submission.Score, player.Username)
}

// GetLeaderboard returns the ranked leaderboard
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.GetLeaderboard(r.Context())
	if err != nil {
		h.writeDomainError(w, "get leaderboard", err)
		return
	}

	h.writeJSON(w, http.StatusOK, entries)
}
