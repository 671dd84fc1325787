package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/game-leaderboard/internal/service"
	"github.com/game-leaderboard/internal/store"
	"github.com/game-leaderboard/internal/websocket"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewLeaderboardService(store.NewMemory(), logger)
	return NewHandler(svc, nil, logger).Router()
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRoot(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Welcome to the Game Leaderboard Microservice!"}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestEndToEnd(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/register-player", `{"id":1,"username":"alice","email":"a@x.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Player alice registered successfully!"}`, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/submit-score", `{"player_id":1,"score":30}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Score of 30 for player alice submitted successfully!"}`, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/submit-score", `{"player_id":1,"score":20}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/leaderboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"username":"alice","score":50}]`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/players", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"username":"alice","email":"a@x.com"}]`, rec.Body.String())
}

func TestEmptyStateErrors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		detail string
	}{
		{"list players", http.MethodGet, "/api/players", "", "No players found"},
		{"submit score", http.MethodPost, "/api/submit-score", `{"player_id":1,"score":10}`, "Player not found"},
		{"leaderboard", http.MethodGet, "/api/leaderboard", "", "No scores found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusNotFound, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.detail, resp.Detail)
		})
	}
}

func TestDuplicateRegistration(t *testing.T) {
	router := newTestRouter(t)
	body := `{"id":7,"username":"bob","email":"b@x.com"}`

	rec := do(t, router, http.MethodPost, "/api/register-player", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/register-player", `{"id":7,"username":"eve","email":"e@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"Player already exists"}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/players", "")
	assert.JSONEq(t, `[{"id":7,"username":"bob","email":"b@x.com"}]`, rec.Body.String())
}

func TestLeaderboardOrdering(t *testing.T) {
	router := newTestRouter(t)

	players := []string{
		`{"id":1,"username":"A","email":"a@x.com"}`,
		`{"id":2,"username":"B","email":"b@x.com"}`,
		`{"id":3,"username":"C","email":"c@x.com"}`,
	}
	for _, p := range players {
		require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/register-player", p).Code)
	}
	scores := []string{
		`{"player_id":1,"score":50}`,
		`{"player_id":2,"score":80}`,
		`{"player_id":3,"score":20}`,
	}
	for _, s := range scores {
		require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/submit-score", s).Code)
	}

	rec := do(t, router, http.MethodGet, "/api/leaderboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"username":"B","score":80},{"username":"A","score":50},{"username":"C","score":20}]`, rec.Body.String())
}

func TestValidation(t *testing.T) {
	router := newTestRouter(t)
	require.Equal(t, http.StatusOK,
		do(t, router, http.MethodPost, "/api/register-player", `{"id":1,"username":"alice","email":"a@x.com"}`).Code)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"empty body", "/api/register-player", "", http.StatusUnprocessableEntity},
		{"not json", "/api/register-player", "id=1", http.StatusUnprocessableEntity},
		{"array body", "/api/register-player", `[1,2]`, http.StatusUnprocessableEntity},
		{"missing email", "/api/register-player", `{"id":2,"username":"bob"}`, http.StatusUnprocessableEntity},
		{"string id", "/api/register-player", `{"id":"two","username":"bob","email":"b@x.com"}`, http.StatusUnprocessableEntity},
		{"fractional id", "/api/register-player", `{"id":2.5,"username":"bob","email":"b@x.com"}`, http.StatusUnprocessableEntity},
		{"numeric username", "/api/register-player", `{"id":2,"username":5,"email":"b@x.com"}`, http.StatusUnprocessableEntity},
		{"null username", "/api/register-player", `{"id":2,"username":null,"email":"b@x.com"}`, http.StatusUnprocessableEntity},
		{"extra fields ignored", "/api/register-player", `{"id":2,"username":"bob","email":"b@x.com","level":9}`, http.StatusOK},
		{"integral float id", "/api/register-player", `{"id":3.0,"username":"carol","email":"c@x.com"}`, http.StatusOK},
		{"trailing data", "/api/register-player", `{"id":4,"username":"dave","email":"d@x.com"} garbage{`, http.StatusUnprocessableEntity},
		{"second object", "/api/register-player", `{"id":4,"username":"dave","email":"d@x.com"}{}`, http.StatusUnprocessableEntity},
		{"trailing whitespace", "/api/register-player", "{\"id\":5,\"username\":\"erin\",\"email\":\"e@x.com\"}\n", http.StatusOK},
		{"missing score", "/api/submit-score", `{"player_id":1}`, http.StatusUnprocessableEntity},
		{"boolean score", "/api/submit-score", `{"player_id":1,"score":true}`, http.StatusUnprocessableEntity},
		{"negative score", "/api/submit-score", `{"player_id":1,"score":-40}`, http.StatusOK},
		{"zero score", "/api/submit-score", `{"player_id":1,"score":0}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.want == http.StatusUnprocessableEntity {
				var resp ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.NotEmpty(t, resp.Detail)
			}
		})
	}

	rec := do(t, router, http.MethodGet, "/api/leaderboard", "")
	assert.JSONEq(t, `[{"username":"alice","score":-40}]`, rec.Body.String())

	// rejected bodies never reach the registry
	rec = do(t, router, http.MethodGet, "/api/players", "")
	assert.NotContains(t, rec.Body.String(), "dave")
}

func TestWebSocketFeed(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := websocket.NewHub(logger)
	go hub.Run()
	defer hub.Stop()

	svc := service.NewLeaderboardService(store.NewMemory(), logger)
	svc.SetHub(hub)
	srv := httptest.NewServer(NewHandler(svc, hub, logger).Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.GetTotalConnections() == 1 }, 2*time.Second, 10*time.Millisecond)

	rec := do(t, srv.Config.Handler, http.MethodPost, "/api/register-player", `{"id":1,"username":"alice","email":"a@x.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, srv.Config.Handler, http.MethodPost, "/api/submit-score", `{"player_id":1,"score":12}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var messages []websocket.Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for len(messages) < 2 {
		var msg websocket.Message
		require.NoError(t, conn.ReadJSON(&msg))
		messages = append(messages, msg)
	}

	assert.Equal(t, websocket.MessageTypePlayerRegistered, messages[0].Type)
	assert.Equal(t, websocket.MessageTypeLeaderboardUpdate, messages[1].Type)

	data, err := json.Marshal(messages[1].Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"entries":[{"username":"alice","score":12}],"total_players":1}`, string(data))
}

func TestWebSocketDisabled(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/ws", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
