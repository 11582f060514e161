package huckleberry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, children []Child) *Manager {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/login":
			_ = json.NewEncoder(w).Encode(map[string]any{"token": "tok-123"})
		case "/v1/children":
			_ = json.NewEncoder(w).Encode(childrenResponse{Children: children})
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
		}
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL)
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return NewManager(client, loc, zerolog.Nop())
}

func TestManagerRoster(t *testing.T) {
	t.Run("should resolve primary child and names after startup", func(t *testing.T) {
		m := newTestManager(t, []Child{
			{UID: "child-1", Name: "Hollis"},
			{UID: "child-2", Name: "Juniper"},
		})
		require.NoError(t, m.Startup(context.Background()))
		defer m.Teardown()

		assert.Equal(t, "child-1", m.PrimaryChildUID())
		assert.Equal(t, "Hollis", m.ChildName("child-1"))
		assert.Equal(t, "Juniper", m.ChildName("child-2"))
		assert.Len(t, m.Children(), 2)
	})

	t.Run("should fall back to uid for unknown child", func(t *testing.T) {
		m := newTestManager(t, []Child{{UID: "child-1", Name: "Hollis"}})
		require.NoError(t, m.Startup(context.Background()))
		defer m.Teardown()

		assert.Equal(t, "child-x", m.ChildName("child-x"))
	})

	t.Run("should return empty primary uid for empty roster", func(t *testing.T) {
		m := newTestManager(t, nil)
		require.NoError(t, m.Startup(context.Background()))
		defer m.Teardown()

		assert.Equal(t, "", m.PrimaryChildUID())
	})
}

func TestManagerCurrentState(t *testing.T) {
	t.Run("should serve cached state without network calls", func(t *testing.T) {
		m := newTestManager(t, []Child{{UID: "child-1", Name: "Hollis"}})
		m.setCache(m.stateCache, "child-1", map[string]any{"sleep": map[string]any{"status": "asleep"}})
		m.setCache(m.feedCache, "child-1", map[string]any{"feeding": map[string]any{"status": "paused"}})

		payload, err := m.CurrentState(context.Background(), "child-1")
		require.NoError(t, err)

		state, ok := payload["state"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, state, "sleep")

		feed, ok := payload["feed"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, feed, "feeding")
	})

	t.Run("should return empty maps for unknown child", func(t *testing.T) {
		m := newTestManager(t, nil)
		payload, err := m.CurrentState(context.Background(), "child-x")
		require.NoError(t, err)
		assert.Empty(t, payload["state"])
		assert.Empty(t, payload["feed"])
	})
}

func TestStateSummary(t *testing.T) {
	t.Run("should report loading before any frames arrive", func(t *testing.T) {
		m := newTestManager(t, nil)
		assert.Contains(t, m.StateSummary("child-1"), "not yet available")
	})

	t.Run("should render active sleep with local start time", func(t *testing.T) {
		m := newTestManager(t, nil)
		m.setCache(m.stateCache, "child-1", map[string]any{
			"sleep": map[string]any{
				"status":    "asleep",
				"startTime": "2026-08-28T17:30:00Z",
			},
		})

		summary := m.StateSummary("child-1")
		// 17:30 UTC is 1:30 PM in America/New_York during DST.
		assert.Contains(t, summary, "Sleep: asleep since 1:30 PM")
		assert.Contains(t, summary, "Feeding: not active")
	})

	t.Run("should render feeding with side", func(t *testing.T) {
		m := newTestManager(t, nil)
		m.setCache(m.feedCache, "child-1", map[string]any{
			"feeding": map[string]any{"status": "active", "side": "left"},
		})

		summary := m.StateSummary("child-1")
		assert.Contains(t, summary, "Feeding: active (left)")
		assert.Contains(t, summary, "Sleep: not active")
	})

	t.Run("should omit time when start is unparseable", func(t *testing.T) {
		m := newTestManager(t, nil)
		m.setCache(m.stateCache, "child-1", map[string]any{
			"sleep": map[string]any{"status": "paused", "startTime": "not-a-time"},
		})

		summary := m.StateSummary("child-1")
		assert.Contains(t, summary, "Sleep: paused")
		assert.NotContains(t, summary, "since")
	})
}

func TestListener(t *testing.T) {
	t.Run("should update caches from stream frames", func(t *testing.T) {
		upgrader := websocket.Upgrader{}
		frames := []streamFrame{
			{Channel: "state", Data: map[string]any{"sleep": map[string]any{"status": "asleep"}}},
			{Channel: "feed", Data: map[string]any{"feeding": map[string]any{"status": "active"}}},
			{Channel: "bogus", Data: map[string]any{"ignored": true}},
		}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := upgrader.Upgrade(w, r, nil)
			require.NoError(t, err)
			defer conn.Close()
			for _, f := range frames {
				require.NoError(t, conn.WriteJSON(f))
			}
			// Hold the connection open until the client goes away.
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}))
		defer server.Close()

		stateCh := make(chan map[string]any, 4)
		feedCh := make(chan map[string]any, 4)
		listener := NewListener(ListenerConfig{
			ChildUID: "child-1",
			URL:      "ws" + strings.TrimPrefix(server.URL, "http"),
			OnState:  func(d map[string]any) { stateCh <- d },
			OnFeed:   func(d map[string]any) { feedCh <- d },
			Logger:   zerolog.Nop(),
		})
		listener.Start()
		defer listener.Stop()

		select {
		case state := <-stateCh:
			assert.Contains(t, state, "sleep")
		case <-time.After(2 * time.Second):
			t.Fatal("no state frame received")
		}
		select {
		case feed := <-feedCh:
			assert.Contains(t, feed, "feeding")
		case <-time.After(2 * time.Second):
			t.Fatal("no feed frame received")
		}
	})

	t.Run("should stop cleanly while disconnected", func(t *testing.T) {
		listener := NewListener(ListenerConfig{
			ChildUID: "child-1",
			URL:      "ws://127.0.0.1:1/stream",
			Logger:   zerolog.Nop(),
		})
		listener.Start()
		time.Sleep(50 * time.Millisecond)

		done := make(chan struct{})
		go func() {
			listener.Stop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			t.Fatal("listener did not stop")
		}
	})

	t.Run("should be safe to stop twice", func(t *testing.T) {
		listener := NewListener(ListenerConfig{
			ChildUID: "child-1",
			URL:      "ws://127.0.0.1:1/stream",
			Logger:   zerolog.Nop(),
		})
		listener.Start()
		listener.Stop()
		listener.Stop()
	})
}
