package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatter-hq/chatter-server/internal/archive"
	"github.com/chatter-hq/chatter-server/internal/auth"
	"github.com/chatter-hq/chatter-server/internal/broker"
	"github.com/chatter-hq/chatter-server/internal/config"
	"github.com/chatter-hq/chatter-server/internal/directory"
	"github.com/chatter-hq/chatter-server/internal/store"
	"github.com/chatter-hq/chatter-server/internal/store/sqlite"
)

// testEnv bundles everything a transport test needs.
type testEnv struct {
	ts    *httptest.Server
	store store.Store
	auth  *auth.Service
}

// newTestEnv spins up the HTTP stack on an in-memory store and broker.
func newTestEnv(t *testing.T, notify bool) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)

	logger := zerolog.Nop()
	cfg := config.Default()
	cfg.NotifyOnEnterLeave = notify

	server := NewServer(Deps{
		Auth:      authService,
		Store:     st,
		Directory: directory.NewStoreDirectory(st),
		Broker:    broker.NewMemory(),
		Archiver:  archive.NewLogArchiver(&logger),
	}, cfg, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, store: st, auth: authService}
}

// createUser inserts a user directly and returns a valid token for it.
func (e *testEnv) createUser(t *testing.T, username string, staff bool) string {
	t.Helper()

	ctx := context.Background()
	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if _, err := e.store.CreateUser(ctx, username, hash, staff); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}

	token, err := e.auth.Login(ctx, username, "password123")
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return token
}

// createRoom inserts a room directly and returns its id.
func (e *testEnv) createRoom(t *testing.T, staffOnly bool) string {
	t.Helper()

	room, err := e.store.CreateRoom(context.Background(), staffOnly)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return room.ID
}
