package huckleberry

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	reconnectInitialDelay = time.Second
	reconnectMaxDelay     = 30 * time.Second
	handshakeTimeout      = 10 * time.Second
)

// Listener maintains one child's realtime stream. It reconnects with
// backoff and pushes every frame into the cache callbacks; it never
// surfaces errors to callers.
type Listener struct {
	childUID string
	url      string
	header   http.Header
	onState  func(map[string]any)
	onFeed   func(map[string]any)
	logger   zerolog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// ListenerConfig holds listener configuration
type ListenerConfig struct {
	ChildUID string
	URL      string
	Header   http.Header
	OnState  func(map[string]any)
	OnFeed   func(map[string]any)
	Logger   zerolog.Logger
}

// NewListener creates a realtime listener for one child.
func NewListener(cfg ListenerConfig) *Listener {
	return &Listener{
		childUID: cfg.ChildUID,
		url:      cfg.URL,
		header:   cfg.Header,
		onState:  cfg.OnState,
		onFeed:   cfg.OnFeed,
		logger:   cfg.Logger,
	}
}

// Start begins the connect/read loop in the background.
func (l *Listener) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	l.running = true
	l.stopCh = make(chan struct{})
	l.doneCh = make(chan struct{})
	go l.run()
}

// Stop closes the stream and waits for the loop to exit.
func (l *Listener) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	close(l.stopCh)
	if l.conn != nil {
		l.conn.Close()
	}
	done := l.doneCh
	l.mu.Unlock()

	<-done
	l.logger.Debug().Str("child_uid", l.childUID).Msg("Realtime listener stopped")
}

func (l *Listener) run() {
	defer close(l.doneCh)

	delay := reconnectInitialDelay
	for {
		select {
		case <-l.stopCh:
			return
		default:
		}

		conn, err := l.dial()
		if err != nil {
			l.logger.Warn().Err(err).
				Str("child_uid", l.childUID).
				Dur("retry_in", delay).
				Msg("Realtime connect failed")
			select {
			case <-l.stopCh:
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > reconnectMaxDelay {
				delay = reconnectMaxDelay
			}
			continue
		}

		delay = reconnectInitialDelay
		l.logger.Info().Str("child_uid", l.childUID).Msg("Realtime stream connected")
		l.readLoop(conn)

		select {
		case <-l.stopCh:
			return
		default:
			l.logger.Warn().Str("child_uid", l.childUID).Msg("Realtime stream dropped, reconnecting")
		}
	}
}

func (l *Listener) dial() (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.Dial(l.url, l.header)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
	return conn, nil
}

func (l *Listener) readLoop(conn *websocket.Conn) {
	defer conn.Close()

	for {
		var frame streamFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}

		data := frame.Data
		if data == nil {
			data = map[string]any{}
		}

		switch frame.Channel {
		case channelState:
			if l.onState != nil {
				l.onState(data)
			}
		case channelFeed:
			if l.onFeed != nil {
				l.onFeed(data)
			}
		default:
			l.logger.Debug().
				Str("channel", frame.Channel).
				Str("child_uid", l.childUID).
				Msg("Ignoring unknown stream channel")
		}
	}
}
