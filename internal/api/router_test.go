package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wonny/tradingquiz/internal/api/handlers"
	"github.com/wonny/tradingquiz/internal/auth"
	"github.com/wonny/tradingquiz/internal/contracts"
	"github.com/wonny/tradingquiz/internal/leaderboard"
	"github.com/wonny/tradingquiz/internal/market"
	"github.com/wonny/tradingquiz/internal/quiz"
	"github.com/wonny/tradingquiz/internal/realtime"
	"github.com/wonny/tradingquiz/internal/replay"
	"github.com/wonny/tradingquiz/internal/store/memory"
	"github.com/wonny/tradingquiz/pkg/config"
	"github.com/wonny/tradingquiz/pkg/logger"
)

const testOrigin = "http://localhost:3000"

type testServer struct {
	handler http.Handler
	store   *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Nop()
	store := memory.New()
	hub := realtime.NewHub(log)
	t.Cleanup(hub.Close)

	board := leaderboard.NewService(store.Users(), nil, time.Minute, hub, log)
	authSvc := auth.NewService(store.Users(), config.AuthConfig{
		JWTSecret: "test-secret", TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost,
	}, nil, log)
	quizSvc := quiz.NewService(store, board, board, log)
	replaySvc := replay.NewService(store, board, log)
	history := market.NewHistoryService(nil, market.DefaultGenerator(), nil, time.Minute, log)

	h := NewRouter(Routes{
		Auth:        handlers.NewAuthHandler(authSvc, log),
		Quiz:        handlers.NewQuizHandler(quizSvc, history, log),
		Leaderboard: handlers.NewLeaderboardHandler(board, log),
		Profile:     handlers.NewProfileHandler(quizSvc, log),
		Replay:      handlers.NewReplayHandler(replaySvc, log),
		Stream:      realtime.NewHandler(hub, log, testOrigin),
		Tokens:      authSvc,
	}, testOrigin, log)

	return &testServer{handler: h, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(t *testing.T, username string) auth.Session {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username, "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sess auth.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	return sess
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error { return errors.New("down") }

func TestHealthDegraded(t *testing.T) {
	rec := httptest.NewRecorder()
	healthCheckHandler(failingPinger{})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	sess := s.register(t, "alice")
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, contracts.InitialRating, sess.User.EloScore)

	rec := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "ALICE", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "secret1",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "malformed")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/quiz/random"},
		{http.MethodPost, "/api/quiz/submit"},
		{http.MethodGet, "/api/profile/me"},
		{http.MethodPost, "/api/replay/sessions"},
	} {
		rec := s.do(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)

		rec = s.do(t, tc.method, tc.path, "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
	}
}

func TestQuizRoundTrip(t *testing.T) {
	s := newTestServer(t)
	sess := s.register(t, "bob")

	rec := s.do(t, http.MethodGet, "/api/quiz/random", sess.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, s.store.Samples().Create(context.Background(), &contracts.Sample{
		ID: "chart-1", AssetName: "BTCUSD", Timeframe: "1D", ImageRef: "/charts/1", Outcome: contracts.DirectionUp,
	}))

	rec = s.do(t, http.MethodGet, "/api/quiz/random", sess.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "chart-1", view["id"])
	assert.NotContains(t, view, "outcome")

	rec = s.do(t, http.MethodPost, "/api/quiz/submit", sess.Token, map[string]string{
		"chartId": "chart-1", "prediction": "up",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[contracts.SubmitResult](t, rec)
	assert.True(t, result.Correct)
	assert.Equal(t, 16, result.Delta)
	assert.Equal(t, 1016.0, result.NewRating)

	rec = s.do(t, http.MethodPost, "/api/quiz/submit", sess.Token, map[string]string{
		"chartId": "chart-1", "prediction": "sideways",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/quiz/submit", sess.Token, map[string]string{
		"chartId": "missing", "prediction": "down",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/profile/me", sess.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[contracts.Profile](t, rec)
	assert.Equal(t, 1, profile.TotalQuizzes)
	assert.Equal(t, 100, profile.WinRate)
	assert.Equal(t, 1, profile.Rank)
}

func TestLeaderboard(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "carol")
	s.register(t, "dave")

	rec := s.do(t, http.MethodGet, "/api/leaderboard?limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]contracts.LeaderboardEntry](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Rank)

	rec = s.do(t, http.MethodGet, "/api/leaderboard?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReplaySession(t *testing.T) {
	s := newTestServer(t)
	sess := s.register(t, "erin")

	trade := map[string]interface{}{
		"type": "long", "entryPrice": "100", "entryTime": 1, "size": "1000",
		"exitPrice": "105", "exitTime": 2,
	}
	rec := s.do(t, http.MethodPost, "/api/replay/sessions", sess.Token, map[string]interface{}{
		"trades": []interface{}{trade},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	result := decode[contracts.SessionResult](t, rec)
	assert.Equal(t, 50, result.Delta)
	assert.Equal(t, 1050.0, result.NewRating)
	assert.Equal(t, "105000", result.EndBalance.String())

	// A client balance that disagrees with the trades is rejected.
	rec = s.do(t, http.MethodPost, "/api/replay/sessions", sess.Token, map[string]interface{}{
		"trades": []interface{}{trade}, "endBalance": "900000000",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Leverage beyond the cash balance is rejected.
	trade["size"] = "5000"
	rec = s.do(t, http.MethodPost, "/api/replay/sessions", sess.Token, map[string]interface{}{
		"trades": []interface{}{trade},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/profile/me", sess.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1050.0, decode[contracts.Profile](t, rec).EloScore)
}

func TestBTCHistoryFallback(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/quiz/btc-history?days=30", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	hist := decode[market.History](t, rec)
	assert.Equal(t, market.SourceStatic, hist.Source)
	assert.Len(t, hist.Data, 30)

	rec = s.do(t, http.MethodGet, "/api/quiz/btc-history?days=400", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/quiz/round?days=60", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/quiz/submit", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, testOrigin, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestBearerTokenCookieFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "abc"})
	assert.Equal(t, "abc", bearerToken(req))

	req.Header.Set("Authorization", "Basic xyz")
	assert.Empty(t, bearerToken(req))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
