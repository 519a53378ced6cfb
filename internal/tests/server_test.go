package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kekopoly/dentetsu/internal/api"
	"github.com/kekopoly/dentetsu/internal/api/handlers"
	"github.com/kekopoly/dentetsu/internal/api/middleware/auth"
	"github.com/kekopoly/dentetsu/internal/config"
	"github.com/kekopoly/dentetsu/internal/db/breaker"
	redisdb "github.com/kekopoly/dentetsu/internal/db/redis"
	"github.com/kekopoly/dentetsu/internal/game/catalog"
	"github.com/kekopoly/dentetsu/internal/game/manager"
	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/persistence"
	"github.com/kekopoly/dentetsu/internal/game/websocket"
	"github.com/kekopoly/dentetsu/internal/queue"
)

const secret = "integration-secret"

type stack struct {
	url    string
	token  string
	gm     *manager.GameManager
	hub    *websocket.Hub
	store  *redisdb.SaveStore
	worker *queue.Worker
}

// newStack wires the server the way cmd/server does, on miniredis
func newStack(t *testing.T) *stack {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	logger := zap.NewNop()
	sugar := logger.Sugar()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cb := redisdb.NewCircuitBreakerClient(client, breaker.New(5, time.Second), sugar)
	store := redisdb.NewSaveStore(cb)
	q := queue.NewRedisQueue(client, logger)

	content, err := catalog.Default()
	require.NoError(t, err)
	gm := manager.NewGameManager(ctx, content, store, sugar, manager.Options{
		Seed:       11,
		TotalYears: 1,
		MaxPlayers: 4,
	})
	hub := websocket.NewHub(ctx, sugar, 50*time.Millisecond)
	go hub.Run()
	gm.SetWebSocketHub(hub)
	gm.SetMessageQueue(q)
	worker := queue.NewWorker(q, store, gm, logger)

	cfg := &config.Config{JWT: config.JWTConfig{Secret: secret, Expiration: 1}}
	srv := api.NewServer(cfg, api.Dependencies{
		GameManager: gm,
		Hub:         hub,
		Results:     q,
		Health:      map[string]handlers.Pinger{"redis": cb},
	}, sugar)
	httpSrv := httptest.NewServer(srv.Echo())
	t.Cleanup(httpSrv.Close)

	token, err := auth.GenerateJWT("user-1", secret, 1)
	require.NoError(t, err)

	return &stack{url: httpSrv.URL, token: token, gm: gm, hub: hub, store: store, worker: worker}
}

func (s *stack) call(t *testing.T, method, path, body string, out interface{}) int {
	t.Helper()
	req, err := http.NewRequest(method, s.url+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+s.token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

const humanVsCPU = `{
	"name": "Integration",
	"seats": [
		{"name": "Alice", "kind": "HUMAN"},
		{"name": "Bot", "kind": "CPU", "difficulty": "HARD"}
	]
}`

func TestGameLifecycleOverHTTP(t *testing.T) {
	s := newStack(t)

	var info manager.GameInfo
	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/api/v1/games", humanVsCPU, &info))
	require.NotEmpty(t, info.ID)
	assert.Equal(t, "Integration", info.Name)

	var cpu handlers.CPUResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/v1/games/"+info.ID+"/cpu", "", &cpu))

	var played handlers.TurnResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/v1/games/"+info.ID+"/turn", `{"plan": {"buy": true}}`, &played))
	require.NotNil(t, played.Report)
	assert.Equal(t, info.ID, played.Report.GameID)
	assert.Equal(t, "Alice", played.State.Players[0].Name)

	// the human seat is done, so playing again is someone else's turn
	assert.Equal(t, http.StatusForbidden, s.call(t, http.MethodPost, "/api/v1/games/"+info.ID+"/turn", "", nil))

	// the worker autosaves every queued turn
	assert.Positive(t, s.worker.ProcessOnce(context.Background()))
	env, err := s.store.Load(context.Background(), persistence.AutosaveSlot(info.ID))
	require.NoError(t, err)
	assert.Equal(t, info.ID, env.State.ID)

	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/v1/games/"+info.ID+"/save", `{"slotId": "manual"}`, nil))
	var metas []models.SlotMeta
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/v1/saves", "", &metas))
	slots := make([]string, 0, len(metas))
	for _, m := range metas {
		slots = append(slots, m.SlotID)
	}
	assert.Contains(t, slots, "manual")
	assert.Contains(t, slots, persistence.AutosaveSlot(info.ID))

	var loaded manager.GameInfo
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/v1/saves/manual/load", "", &loaded))
	assert.Equal(t, info.ID, loaded.ID)
	assert.Equal(t, played.State.Turn, loaded.State.Turn)

	assert.Equal(t, http.StatusNoContent, s.call(t, http.MethodDelete, "/api/v1/saves/manual", "", nil))
	assert.Equal(t, http.StatusNotFound, s.call(t, http.MethodPost, "/api/v1/saves/manual/load", "", nil))

	// no result until the game is over
	assert.Equal(t, http.StatusNotFound, s.call(t, http.MethodGet, "/api/v1/games/"+info.ID+"/result", "", nil))
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	s := newStack(t)
	resp, err := http.Get(s.url + "/api/v1/games")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(s.url + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTurnReportReachesWebSocket(t *testing.T) {
	s := newStack(t)

	var info manager.GameInfo
	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/api/v1/games", humanVsCPU, &info))
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/v1/games/"+info.ID+"/cpu", "", nil))

	wsURL := "ws" + strings.TrimPrefix(s.url, "http") + "/ws/" + info.ID + "?token=" + s.token
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.hub.IsConnected(info.ID, "user-1") }, 2*time.Second, 10*time.Millisecond)

	// no plan: any decision goes over the socket and times out to its default
	done := make(chan int, 1)
	go func() {
		req, _ := http.NewRequest(http.MethodPost, s.url+"/api/v1/games/"+info.ID+"/turn", nil)
		req.Header.Set("Authorization", "Bearer "+s.token)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			done <- 0
			return
		}
		resp.Body.Close()
		done <- resp.StatusCode
	}()

	var types []string
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		types = append(types, msg.Type)
		if msg.Type == "turn_report" || msg.Type == "game_over" {
			break
		}
	}
	assert.NotContains(t, types, "error")
	assert.Equal(t, http.StatusOK, <-done)
}
