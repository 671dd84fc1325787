package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerName(t *testing.T) {
	assert.Equal(t, "Phoenix1", playerName(1))
	assert.Equal(t, "Sigma1", playerName(20))
	assert.Equal(t, "Phoenix2", playerName(21))
}

func TestRegisterPlayers(t *testing.T) {
	var (
		mu  sync.Mutex
		ids []int64
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/register-player", r.URL.Path)
		var body struct {
			ID int64 `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		ids = append(ids, body.ID)
		mu.Unlock()
		if body.ID == 2 {
			w.WriteHeader(http.StatusBadRequest) // already registered
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, registerPlayers(srv.URL+"/", 3))
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestRegisterPlayersFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	assert.Error(t, registerPlayers(srv.URL, 1))
}
