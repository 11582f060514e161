package huckleberry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hollis/cradle/pkg/tools"
)

// Manager is the single shared handle on the backend. It owns the children
// roster and a realtime-fed state cache per child, and exposes the backend
// actions to the tool dispatcher. One Manager is created at startup and
// shared by every session.
type Manager struct {
	*Client

	logger   zerolog.Logger
	location *time.Location

	mu         sync.Mutex
	children   []Child
	stateCache map[string]map[string]any
	feedCache  map[string]map[string]any
	listeners  []*Listener
}

// NewManager creates a manager around an authenticated-on-startup client.
func NewManager(client *Client, location *time.Location, logger zerolog.Logger) *Manager {
	if location == nil {
		location = time.UTC
	}
	return &Manager{
		Client:     client,
		logger:     logger,
		location:   location,
		stateCache: make(map[string]map[string]any),
		feedCache:  make(map[string]map[string]any),
	}
}

// Startup authenticates, loads the children roster, and opens a realtime
// stream per child. A failed stream is logged and skipped; actions still
// work without it.
func (m *Manager) Startup(ctx context.Context) error {
	if err := m.Login(ctx); err != nil {
		return fmt.Errorf("huckleberry login failed: %w", err)
	}

	children, err := m.Client.Children(ctx)
	if err != nil {
		return fmt.Errorf("failed to load children: %w", err)
	}

	names := make([]string, 0, len(children))
	for _, c := range children {
		names = append(names, c.Name)
	}
	m.logger.Info().
		Int("count", len(children)).
		Strs("names", names).
		Msg("Loaded children roster")

	m.mu.Lock()
	m.children = children
	for _, c := range children {
		m.stateCache[c.UID] = map[string]any{}
		m.feedCache[c.UID] = map[string]any{}
	}
	m.mu.Unlock()

	for _, c := range children {
		uid := c.UID
		url, header := m.StreamURL(uid)
		listener := NewListener(ListenerConfig{
			ChildUID: uid,
			URL:      url,
			Header:   header,
			OnState:  func(data map[string]any) { m.setCache(m.stateCache, uid, data) },
			OnFeed:   func(data map[string]any) { m.setCache(m.feedCache, uid, data) },
			Logger:   m.logger,
		})
		listener.Start()

		m.mu.Lock()
		m.listeners = append(m.listeners, listener)
		m.mu.Unlock()
	}

	return nil
}

// Teardown stops all realtime listeners.
func (m *Manager) Teardown() {
	m.mu.Lock()
	listeners := m.listeners
	m.listeners = nil
	m.mu.Unlock()

	for _, l := range listeners {
		l.Stop()
	}
	m.logger.Info().Msg("Huckleberry listeners stopped")
}

func (m *Manager) setCache(cache map[string]map[string]any, uid string, data map[string]any) {
	m.mu.Lock()
	cache[uid] = data
	m.mu.Unlock()
	m.logger.Debug().Str("child_uid", uid).Msg("Cache updated")
}

// CurrentState returns the cached realtime view for a child. No network
// call; the caches are the source of truth.
func (m *Manager) CurrentState(_ context.Context, childUID string) (tools.Payload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return tools.Payload{
		"state": copyMap(m.stateCache[childUID]),
		"feed":  copyMap(m.feedCache[childUID]),
	}, nil
}

// PrimaryChildUID returns the first child's uid, or "" for an empty roster.
func (m *Manager) PrimaryChildUID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.children) == 0 {
		return ""
	}
	return m.children[0].UID
}

// ChildName resolves a display name, falling back to the uid itself.
func (m *Manager) ChildName(uid string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.children {
		if c.UID == uid {
			if c.Name != "" {
				return c.Name
			}
			return uid
		}
	}
	return uid
}

// Children returns a copy of the roster.
func (m *Manager) Children() []Child {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Child, len(m.children))
	copy(out, m.children)
	return out
}

// StateSummary renders a short human-readable status line set for the
// system prompt.
func (m *Manager) StateSummary(uid string) string {
	m.mu.Lock()
	state := m.stateCache[uid]
	feed := m.feedCache[uid]
	m.mu.Unlock()

	if len(state) == 0 && len(feed) == 0 {
		return "State not yet available (stream loading)"
	}

	var lines []string

	sleep := subMap(state, "sleep")
	if sleep == nil {
		sleep = subMap(state, "currentSleep")
	}
	if sleep != nil {
		status := stringField(sleep, "status", "unknown")
		start := stringField(sleep, "startTime", "")
		if start == "" {
			start = stringField(sleep, "start", "")
		}
		if ts, err := time.Parse(time.RFC3339, start); start != "" && err == nil {
			lines = append(lines, fmt.Sprintf("Sleep: %s since %s", status, formatClock(ts.In(m.location))))
		} else {
			lines = append(lines, "Sleep: "+status)
		}
	} else {
		lines = append(lines, "Sleep: not active")
	}

	feeding := subMap(feed, "feeding")
	if feeding == nil {
		feeding = subMap(state, "currentFeeding")
	}
	if feeding != nil {
		status := stringField(feeding, "status", "unknown")
		if side := stringField(feeding, "side", ""); side != "" {
			lines = append(lines, fmt.Sprintf("Feeding: %s (%s)", status, side))
		} else {
			lines = append(lines, "Feeding: "+status)
		}
	} else {
		lines = append(lines, "Feeding: not active")
	}

	return strings.Join(lines, "\n")
}

// formatClock renders a time like "7:02 AM", without a leading zero.
func formatClock(t time.Time) string {
	return t.Format("3:04 PM")
}

func subMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	sub, _ := m[key].(map[string]any)
	return sub
}

func stringField(m map[string]any, key, fallback string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func copyMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
