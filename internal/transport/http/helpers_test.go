package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dmarkhas/relaychat-server/internal/auth"
	"github.com/dmarkhas/relaychat-server/internal/config"
	"github.com/dmarkhas/relaychat-server/internal/core"
	"github.com/dmarkhas/relaychat-server/internal/store/sqlite"
)

type testEnv struct {
	ts    *httptest.Server
	srv   *stdhttp.Server
	store *sqlite.SQLiteStore
	auth  *auth.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithRateLimit(t, 0)
}

func newTestEnvWithRateLimit(t *testing.T, messageRateLimit int) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	require.NoError(t, err, "create store")

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})

	hub := core.NewHub(st, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	nop := zerolog.Nop()
	cfg := config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
		HistoryPageLimit:  20,
		MessageRateLimit:  messageRateLimit,
	}

	srv := NewServer(hub, authService, st, &cfg, &nop)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		cancel()
		st.Close()
	})

	return &testEnv{ts: ts, srv: srv, store: st, auth: authService}
}

// register creates a user through the API and returns its id and token.
func (e *testEnv) register(t *testing.T, name, email string) (int64, string) {
	t.Helper()

	resp := e.do(t, stdhttp.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, stdhttp.StatusCreated, resp.Code, resp.Body.String())

	var body AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	return body.User.ID, body.Token
}

// do executes one request against the server's handler.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(resp, req)
	return resp
}
