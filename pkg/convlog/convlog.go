// Package convlog appends conversation turns to a JSONL file and prunes
// entries past their retention window once a day.
package convlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultRetentionDays is how long entries survive before pruning.
const DefaultRetentionDays = 7

// Entry is one logged conversation turn.
type Entry struct {
	TS               time.Time `json:"ts"`
	SessionID        string    `json:"session_id"`
	Turn             int       `json:"turn"`
	User             string    `json:"user"`
	Reply            string    `json:"reply"`
	ConversationDone bool      `json:"conversation_done"`
}

// Log is a JSONL conversation log. Appends are serialized; a cron job
// prunes old entries daily.
type Log struct {
	path      string
	retention time.Duration
	logger    zerolog.Logger
	now       func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// Config holds conversation log configuration
type Config struct {
	Path          string
	RetentionDays int
	Logger        zerolog.Logger
}

// New creates a conversation log writing to the given path. The parent
// directory is created if missing.
func New(cfg Config) (*Log, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("log path is required")
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = DefaultRetentionDays
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &Log{
		path:      cfg.Path,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		logger:    cfg.Logger,
		now:       time.Now,
	}, nil
}

// Append writes one turn as a JSON line. Failures are logged, never
// returned; the conversation log must not break a turn.
func (l *Log) Append(entry Entry) {
	if entry.TS.IsZero() {
		entry.TS = l.now().UTC()
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		l.logger.Error().Err(err).Msg("Failed to encode conversation log entry")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		l.logger.Error().Err(err).Msg("Failed to open conversation log")
		return
	}
	defer f.Close()

	if _, err := f.Write(append(raw, '\n')); err != nil {
		l.logger.Error().Err(err).Msg("Failed to write conversation log entry")
	}
}

// Prune rewrites the log keeping only entries newer than the retention
// cutoff. Malformed lines are kept rather than silently dropped. Returns
// the number of entries removed.
func (l *Log) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	raw, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0
		}
		l.logger.Error().Err(err).Msg("Failed to read conversation log for pruning")
		return 0
	}

	cutoff := l.now().UTC().Add(-l.retention)
	var kept []string
	removed := 0

	// Split rather than scan: a scanner caps line length and a single
	// oversized line would silently drop everything after it.
	for _, line := range strings.Split(string(raw), "\n") {
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil || entry.TS.IsZero() {
			kept = append(kept, line)
			continue
		}
		if entry.TS.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, line)
	}

	out := strings.Join(kept, "\n")
	if out != "" {
		out += "\n"
	}
	if err := os.WriteFile(l.path, []byte(out), 0o644); err != nil {
		l.logger.Error().Err(err).Msg("Failed to rewrite conversation log")
		return 0
	}

	if removed > 0 {
		l.logger.Info().Int("removed", removed).Msg("Pruned old conversation log entries")
	}
	return removed
}

// StartPruneSchedule runs Prune once a day until Stop is called.
func (l *Log) StartPruneSchedule() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc("@daily", func() { l.Prune() }); err != nil {
		return fmt.Errorf("failed to schedule log pruning: %w", err)
	}
	c.Start()
	l.cron = c
	l.logger.Debug().Msg("Conversation log prune schedule started")
	return nil
}

// Stop halts the prune schedule.
func (l *Log) Stop() {
	l.mu.Lock()
	c := l.cron
	l.cron = nil
	l.mu.Unlock()

	if c != nil {
		ctx := c.Stop()
		<-ctx.Done()
	}
}
