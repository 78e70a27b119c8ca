package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/beach-tennis-live/handlers"
	"github.com/Dosada05/beach-tennis-live/live"
	"github.com/Dosada05/beach-tennis-live/middleware"
	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/repositories"
	"github.com/Dosada05/beach-tennis-live/services"
	"github.com/Dosada05/beach-tennis-live/session"
	"github.com/Dosada05/beach-tennis-live/storage"
	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail    = "org@example.com"
	adminPassword = "areia-quente"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 8, 9, 0, 0, 0, time.UTC))
	store := repositories.NewMemoryStore(clock)
	hub := live.NewHub(store, logger)
	store.SetNotifier(hub)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	auth := services.NewAuthService(adminEmail, string(hash), "test-secret", clock, logger)
	access := services.NewAccessService(store, session.NewCodec("test-secret"), clock, logger)
	mirror, err := live.NewCourtMirror(t.Context(), hub, logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mirror.Close)
	courts := services.NewCourtService(store, mirror, nil, logger)
	matches := services.NewMatchService(store, clock, logger)

	router := chi.NewRouter()
	SetupRoutes(router, Handlers{
		Auth:       handlers.NewAuthHandler(auth),
		Tournament: handlers.NewTournamentHandler(services.NewTournamentService(store, nil, logger)),
		Arena:      handlers.NewArenaHandler(services.NewArenaService(store, logger)),
		Player:     handlers.NewPlayerHandler(services.NewPlayerService(store, storage.NewMemoryUploader("http://cdn.test"), logger)),
		Court:      handlers.NewCourtHandler(courts, "http://beach.test"),
		Match:      handlers.NewMatchHandler(matches),
		Result:     handlers.NewResultHandler(services.NewResultService(store)),
		Referee:    handlers.NewRefereeHandler(access, courts, matches),
		WebSocket:  handlers.NewWebSocketHandler(hub, []string{"*"}, logger),
	}, Options{
		AuthService:    auth,
		AccessService:  access,
		PinLimiter:     middleware.NewIPLimiter(0.2, 3, time.Minute),
		RequestTimeout: 5 * time.Second,
		AllowedOrigins: []string{"*"},
		Logger:         logger,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

type apiClient struct {
	t     *testing.T
	base  string
	token string
}

func (c *apiClient) do(method, path string, body any, out any) int {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		c.t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			c.t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestLiveScoringFlow(t *testing.T) {
	srv := newTestServer(t)
	admin := &apiClient{t: t, base: srv.URL + "/api/v1"}

	var login struct {
		Token string `json:"token"`
	}
	if code := admin.do(http.MethodPost, "/auth/login", map[string]string{"email": adminEmail, "password": adminPassword}, &login); code != http.StatusOK {
		t.Fatalf("admin login = %d", code)
	}
	admin.token = login.Token

	var arena struct {
		Arena models.Arena `json:"arena"`
	}
	code := admin.do(http.MethodPost, "/admin/arenas", map[string]any{
		"name":     "Arena Leme",
		"location": "Rio de Janeiro",
		"courts":   []map[string]string{{"name": "Quadra 1"}, {"name": "Quadra 2"}},
	}, &arena)
	if code != http.StatusCreated {
		t.Fatalf("create arena = %d", code)
	}

	var created struct {
		Tournament models.Tournament `json:"tournament"`
		Courts     []models.Court    `json:"courts"`
	}
	code = admin.do(http.MethodPost, "/admin/tournaments", map[string]any{
		"name": "Open do Leme", "date": "2025-03-08", "arenaId": arena.Arena.ID,
	}, &created)
	if code != http.StatusCreated || len(created.Courts) != 2 {
		t.Fatalf("create tournament = %d, courts %d", code, len(created.Courts))
	}
	court := created.Courts[0]

	var playerIDs []string
	for _, name := range []string{"Ana", "Bia"} {
		var p struct {
			Player models.Player `json:"player"`
		}
		if code := admin.do(http.MethodPost, "/admin/players", map[string]string{"name": name, "category": "A"}, &p); code != http.StatusCreated {
			t.Fatalf("create player = %d", code)
		}
		playerIDs = append(playerIDs, p.Player.ID)
	}

	var match struct {
		Match models.Match `json:"match"`
	}
	code = admin.do(http.MethodPost, "/admin/matches", map[string]any{
		"tournamentId": created.Tournament.ID,
		"teamA":        map[string]string{"player1Id": playerIDs[0]},
		"teamB":        map[string]string{"player1Id": playerIDs[1]},
	}, &match)
	if code != http.StatusCreated {
		t.Fatalf("create match = %d", code)
	}
	if code := admin.do(http.MethodPost, "/admin/matches/"+match.Match.ID+"/start", map[string]string{"courtId": court.ID}, nil); code != http.StatusOK {
		t.Fatalf("start match = %d", code)
	}

	referee := &apiClient{t: t, base: srv.URL + "/api/v1"}
	if code := referee.do(http.MethodPost, "/referee/login", map[string]string{"pin": "0000"}, nil); code != http.StatusNotFound {
		t.Errorf("login with unknown pin = %d, want 404", code)
	}
	var bound struct {
		Token string `json:"token"`
	}
	if code := referee.do(http.MethodPost, "/referee/login", map[string]string{"pin": court.Pin}, &bound); code != http.StatusOK {
		t.Fatalf("referee login = %d", code)
	}
	referee.token = bound.Token

	var scored struct {
		Court models.Court `json:"court"`
	}
	// Последовательные нажатия одного судьи не теряются.
	for i := 0; i < 40; i++ {
		if code := referee.do(http.MethodPost, "/referee/score", map[string]any{"team": "A", "delta": 1}, &scored); code != http.StatusOK {
			t.Fatalf("score = %d", code)
		}
	}
	referee.do(http.MethodPost, "/referee/score", map[string]any{"team": "B", "delta": -1}, &scored)
	if scored.Court.CurrentMatch.ScoreA != 40 || scored.Court.CurrentMatch.ScoreB != 0 {
		t.Errorf("score = %d-%d, want 40-0", scored.Court.CurrentMatch.ScoreA, scored.Court.CurrentMatch.ScoreB)
	}
	for _, delta := range []any{1000, -11, 1e30} {
		if code := referee.do(http.MethodPost, "/referee/score", map[string]any{"team": "A", "delta": delta}, nil); code != http.StatusBadRequest {
			t.Errorf("delta %v = %d, want 400", delta, code)
		}
	}

	// Публичный список не раскрывает PIN.
	var public struct {
		Courts []map[string]any `json:"courts"`
	}
	admin.do(http.MethodGet, "/courts?tournamentId="+created.Tournament.ID, nil, &public)
	for _, c := range public.Courts {
		if _, ok := c["pin"]; ok {
			t.Errorf("public court leaks pin: %v", c)
		}
	}

	var finished struct {
		Result models.MatchResult `json:"result"`
	}
	if code := referee.do(http.MethodPost, "/referee/finish", nil, &finished); code != http.StatusOK {
		t.Fatalf("finish = %d", code)
	}
	if finished.Result.ScoreA != 40 || finished.Result.TeamANames != "Ana" {
		t.Errorf("result = %+v", finished.Result)
	}

	var results struct {
		Results []models.MatchResult `json:"results"`
	}
	admin.do(http.MethodGet, "/results?tournamentId="+created.Tournament.ID, nil, &results)
	if len(results.Results) != 1 {
		t.Errorf("results = %+v", results.Results)
	}

	// Новый PIN отзывает привязку судьи.
	if code := admin.do(http.MethodPost, "/admin/courts/"+court.ID+"/pin", nil, nil); code != http.StatusOK {
		t.Fatalf("regenerate pin = %d", code)
	}
	if code := referee.do(http.MethodGet, "/referee/court", nil, nil); code != http.StatusForbidden {
		t.Errorf("referee after pin change = %d, want 403", code)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)
	c := &apiClient{t: t, base: srv.URL + "/api/v1"}
	if code := c.do(http.MethodGet, "/admin/arenas", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", code)
	}
	c.token = "garbage"
	if code := c.do(http.MethodGet, "/admin/arenas", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("bad token = %d, want 401", code)
	}
	if code := c.do(http.MethodGet, "/referee/court", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("bad referee token = %d, want 401", code)
	}
}

func TestRefereeLoginIsRateLimited(t *testing.T) {
	srv := newTestServer(t)
	c := &apiClient{t: t, base: srv.URL + "/api/v1"}

	last := 0
	for i := 0; i < 4; i++ {
		last = c.do(http.MethodPost, "/referee/login", map[string]string{"pin": "1234"}, nil)
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("4th attempt = %d, want 429", last)
	}
}
