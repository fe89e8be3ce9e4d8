package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danjglick/scorefirst-sub000/internal/game"
	"github.com/danjglick/scorefirst-sub000/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type testAPI struct {
	ts     *httptest.Server
	mgr    *game.Manager
	clock  *game.ManualClock
	scores *store.MemoryStore
}

func newTestAPI(t *testing.T, maxSessions int) *testAPI {
	t.Helper()
	clock := game.NewManualClock(testEpoch)
	mgr := game.NewManualManager(game.ManagerConfig{
		Width:       400,
		Height:      800,
		MaxSessions: maxSessions,
		Clock:       clock,
	})
	scores := store.NewMemoryStore()
	limiter := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000, CleanupInterval: time.Hour})

	router := NewRouter(RouterConfig{
		Sessions:       mgr,
		Scores:         scores,
		RateLimiter:    limiter,
		DisableLogging: true,
	})
	ts := httptest.NewServer(router)
	t.Cleanup(func() {
		ts.Close()
		limiter.Stop()
		mgr.Shutdown()
	})
	return &testAPI{ts: ts, mgr: mgr, clock: clock, scores: scores}
}

func (a *testAPI) post(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(a.ts.URL+path, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (a *testAPI) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(a.ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (a *testAPI) createSession(t *testing.T, body string) string {
	t.Helper()
	resp := a.post(t, "/api/sessions", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session: status %d", resp.StatusCode)
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.ID == "" {
		t.Fatalf("create session: bad body (%v)", err)
	}
	return out.ID
}

// settle finishes the spawn glide so the ball accepts input.
func (a *testAPI) settle(t *testing.T, id string) game.GameSnapshot {
	t.Helper()
	e, err := a.mgr.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	a.clock.Advance(game.SpawnDuration)
	e.Step()
	snap := e.Snapshot()
	if snap.Spawning {
		t.Fatal("ball is still spawning")
	}
	return snap
}

func TestNewRouterHasNoSideEffects(t *testing.T) {
	limiter := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, CleanupInterval: time.Hour})
	defer limiter.Stop()

	router := NewRouter(RouterConfig{
		Sessions:    game.NewManualManager(game.ManagerConfig{}),
		RateLimiter: limiter,
	})
	if router == nil {
		t.Fatal("Router should not be nil")
	}
}

func TestAPISessionLifecycle(t *testing.T) {
	a := newTestAPI(t, 10)

	id := a.createSession(t, `{"width": 300, "height": 600, "seed": 7}`)

	resp := a.get(t, "/api/sessions/"+id+"/state")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("state: status %d", resp.StatusCode)
	}
	var snap game.GameSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if snap.SessionID != id || snap.Width != 300 || snap.Height != 600 {
		t.Errorf("state = %s %vx%v, want %s 300x600", snap.SessionID, snap.Width, snap.Height, id)
	}
	if snap.Score.Level != 1 || len(snap.Team) == 0 {
		t.Errorf("new session should be on a populated level 1: %+v", snap.Score)
	}

	req, _ := http.NewRequest(http.MethodDelete, a.ts.URL+"/api/sessions/"+id, nil)
	del, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	del.Body.Close()
	if del.StatusCode != http.StatusNoContent {
		t.Errorf("delete: status %d", del.StatusCode)
	}

	if resp := a.get(t, "/api/sessions/"+id+"/state"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("state after delete: status %d, want 404", resp.StatusCode)
	}
}

func TestAPICreateSessionValidation(t *testing.T) {
	a := newTestAPI(t, 1)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"empty body takes defaults", ``, http.StatusCreated},
		{"limit reached", `{}`, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := a.post(t, "/api/sessions", tt.body); resp.StatusCode != tt.wantStatus {
				t.Errorf("status %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}

	b := newTestAPI(t, 10)
	for _, body := range []string{`{invalid}`, `{"width": -1}`} {
		if resp := b.post(t, "/api/sessions", body); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %q: status %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestAPIFlingThroughPointerRoutes(t *testing.T) {
	a := newTestAPI(t, 10)
	id := a.createSession(t, `{"seed": 3}`)
	ball := a.settle(t, id).Ball

	base := "/api/sessions/" + id
	a.post(t, base+"/press", `{"x": `+ftoa(ball.X)+`, "y": `+ftoa(ball.Y)+`}`)
	if resp := a.post(t, base+"/drag", `{"x": `+ftoa(ball.X)+`, "y": `+ftoa(ball.Y-60)+`}`); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("drag: status %d", resp.StatusCode)
	}

	resp := a.post(t, base+"/release", ``)
	var snap game.GameSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !snap.ShotActive || snap.Score.Tries != 1 {
		t.Errorf("release should start a shot: active=%v tries=%d", snap.ShotActive, snap.Score.Tries)
	}
	if snap.Ball.VY >= 0 {
		t.Errorf("ball should head up the arena, vy=%v", snap.Ball.VY)
	}
}

func TestAPIInputErrors(t *testing.T) {
	a := newTestAPI(t, 10)
	id := a.createSession(t, `{}`)
	base := "/api/sessions/" + id

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{"unknown session", "/api/sessions/nope/press", `{"x":1,"y":1}`, http.StatusNotFound},
		{"bad press body", base + "/press", `nope`, http.StatusBadRequest},
		{"zero resize", base + "/resize", `{"width":0,"height":800}`, http.StatusBadRequest},
		{"good resize", base + "/resize", `{"width":500,"height":900}`, http.StatusOK},
		{"one-point wall", base + "/walls", `{"walls":[{"points":[{"x":1,"y":1}]}]}`, http.StatusBadRequest},
		{"wall", base + "/walls", `{"walls":[{"points":[{"x":0,"y":300},{"x":200,"y":300}]}]}`, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := a.post(t, tt.path, tt.body); resp.StatusCode != tt.wantStatus {
				t.Errorf("status %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestAPILeaderboard(t *testing.T) {
	a := newTestAPI(t, 10)
	ctx := context.Background()
	a.scores.RecordTrophies(ctx, "s_low", 1)
	a.scores.RecordTrophies(ctx, "s_high", 4)
	a.scores.RecordTrophies(ctx, "s_mid", 2)

	resp := a.get(t, "/api/leaderboard?n=2")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var entries []store.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].SessionID != "s_high" || entries[1].SessionID != "s_mid" {
		t.Errorf("leaderboard = %+v", entries)
	}

	if resp := a.get(t, "/api/leaderboard?n=zero"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad n: status %d", resp.StatusCode)
	}
}

func TestAPIStats(t *testing.T) {
	a := newTestAPI(t, 10)
	a.createSession(t, `{}`)
	a.createSession(t, `{}`)

	var stats map[string]interface{}
	if err := json.NewDecoder(a.get(t, "/api/stats").Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats["sessions"] != float64(2) {
		t.Errorf("sessions = %v, want 2", stats["sessions"])
	}
}

func TestRateLimitRejects(t *testing.T) {
	limiter := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2, CleanupInterval: time.Hour})
	defer limiter.Stop()
	mgr := game.NewManualManager(game.ManagerConfig{})
	defer mgr.Shutdown()

	ts := httptest.NewServer(NewRouter(RouterConfig{Sessions: mgr, RateLimiter: limiter, DisableLogging: true}))
	defer ts.Close()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := http.Get(ts.URL + "/api/stats")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}
	if limiter.GetStats()["rejected"] != 1 {
		t.Errorf("stats = %v", limiter.GetStats())
	}
}

func TestIsAllowedOrigin(t *testing.T) {
	tests := map[string]bool{
		"":                      false,
		"http://localhost":      true,
		"http://localhost:5173": true,
		"http://127.0.0.1:3000": true,
		"https://evil.example":  false,
		"http://localhost.evil": false,
	}
	for origin, want := range tests {
		if got := IsAllowedOrigin(origin); got != want {
			t.Errorf("IsAllowedOrigin(%q) = %v, want %v", origin, got, want)
		}
	}
}

func TestWebSocketStreamsAndAcceptsInput(t *testing.T) {
	clock := game.NewManualClock(testEpoch)
	mgr := game.NewManualManager(game.ManagerConfig{Clock: clock})
	defer mgr.Shutdown()

	hub := NewWebSocketHub(mgr)
	go hub.Run()
	defer hub.Stop()

	r := chi.NewRouter()
	r.Get("/ws", hub.HandleWebSocket)
	ts := httptest.NewServer(r)
	defer ts.Close()

	e, err := mgr.Create(game.SessionOptions{Seed: 9})
	if err != nil {
		t.Fatal(err)
	}
	clock.Advance(game.SpawnDuration)
	e.Step()
	ball := e.Snapshot().Ball

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session="
	header := http.Header{"Origin": []string{"http://localhost:3000"}}

	if _, resp, err := websocket.DefaultDialer.Dial(wsURL+"missing", header); err == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown session should 404 before upgrade (err=%v)", err)
	}
	if _, resp, err := websocket.DefaultDialer.Dial(wsURL+e.SessionID(), http.Header{"Origin": []string{"https://evil.example"}}); err == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign origin should be refused (err=%v)", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+e.SessionID(), header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.broadcastSnapshots()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame struct {
		Event string            `json:"event"`
		Data  game.GameSnapshot `json:"data"`
	}
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.Event != "game:state" || frame.Data.SessionID != e.SessionID() {
		t.Errorf("frame = %s for %s", frame.Event, frame.Data.SessionID)
	}

	for _, cmd := range []wsCommand{
		{Type: "press", X: ball.X, Y: ball.Y},
		{Type: "drag", X: ball.X + 40, Y: ball.Y - 40},
		{Type: "release"},
	} {
		if err := conn.WriteJSON(cmd); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	waitFor(t, func() bool { return e.Snapshot().ShotActive })

	if err := mgr.Remove(e.SessionID()); err != nil {
		t.Fatal(err)
	}
	hub.broadcastSnapshots()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var closed struct {
		Event string `json:"event"`
	}
	if err := conn.ReadJSON(&closed); err != nil || closed.Event != "session:closed" {
		t.Fatalf("want session:closed, got %q (%v)", closed.Event, err)
	}
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestMetricsHooksAreComplete(t *testing.T) {
	h := MetricsHooks()
	if h.OnTick == nil || h.OnLevelCleared == nil || h.OnStall == nil || h.OnTrophy == nil || h.OnPlacementFallback == nil {
		t.Fatal("every engine hook should feed a metric")
	}
	// must not panic on any grade label
	h.OnLevelCleared("s", 1, game.GradeFor(1, 5))
	h.OnTick("s", time.Millisecond)
}

func TestDebugHandler(t *testing.T) {
	ts := httptest.NewServer(NewDebugHandler(ObservabilityConfig{BasicAuthUser: "ops", BasicAuthPass: "pw"}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated /health = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/metrics", nil)
	req.SetBasicAuth("ops", "pw")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/metrics = %d", resp.StatusCode)
	}
}

func TestIsLoopback(t *testing.T) {
	for addr, want := range map[string]bool{
		"127.0.0.1:6060": true,
		"localhost:9000": true,
		"[::1]:6060":     true,
		"0.0.0.0:6060":   false,
		":6060":          false,
	} {
		if got := isLoopback(addr); got != want {
			t.Errorf("isLoopback(%q) = %v, want %v", addr, got, want)
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 2s")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func ftoa(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}
