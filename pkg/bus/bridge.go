package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// bridgeSource marks messages that arrived through a bridge.
const bridgeSource = "bridge"

// Envelope is the wire form of a message on the remote hub.
type Envelope struct {
	Topic string `json:"topic"`
	Data  any    `json:"data,omitempty"`
}

// Bridge relays messages between a remote websocket hub and a local Hub.
// Every inbound envelope is dispatched locally; local messages on the
// outbound topics are written to the remote end.
type Bridge struct {
	url      string
	hub      *Hub
	outbound []string
	dialer   *websocket.Dialer
	logger   *logrus.Entry

	minBackoff   time.Duration
	maxBackoff   time.Duration
	writeTimeout time.Duration

	writeMu sync.Mutex
	conn    *websocket.Conn
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithOutbound sets the local topics forwarded to the remote hub.
func WithOutbound(topics ...string) BridgeOption {
	return func(b *Bridge) { b.outbound = topics }
}

// WithBackoff bounds the reconnect delay.
func WithBackoff(min, max time.Duration) BridgeOption {
	return func(b *Bridge) {
		b.minBackoff = min
		b.maxBackoff = max
	}
}

// WithWriteTimeout bounds each outbound write. Non-positive values are
// ignored.
func WithWriteTimeout(d time.Duration) BridgeOption {
	return func(b *Bridge) {
		if d > 0 {
			b.writeTimeout = d
		}
	}
}

// WithBridgeLogger sets the logger.
func WithBridgeLogger(l *logrus.Entry) BridgeOption {
	return func(b *Bridge) { b.logger = l.WithField("component", "bridge") }
}

// NewBridge creates a bridge to the websocket endpoint at url.
func NewBridge(url string, hub *Hub, opts ...BridgeOption) *Bridge {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second

	b := &Bridge{
		url:        url,
		hub:        hub,
		outbound:   []string{TopicFileSelected, TopicDiffOpen},
		dialer:     &dialer,
		logger:     hub.logger.WithField("component", "bridge"),
		minBackoff:   time.Second,
		maxBackoff:   30 * time.Second,
		writeTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run keeps the bridge connected until ctx is cancelled, reconnecting with
// exponential backoff after failures. The backoff starts over after every
// session that got connected.
func (b *Bridge) Run(ctx context.Context) error {
	unsubscribe := b.forwardOutbound()
	defer unsubscribe()

	backoff := b.minBackoff
	for {
		connected, err := b.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			backoff = b.minBackoff
		}
		b.logger.WithError(err).WithField("retry_in", backoff).Warn("bus connection lost")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > b.maxBackoff {
			backoff = b.maxBackoff
		}
	}
}

// session dials once and pumps inbound envelopes until the connection fails.
// connected reports whether the dial succeeded.
func (b *Bridge) session(ctx context.Context) (connected bool, err error) {
	conn, _, err := b.dialer.DialContext(ctx, b.url, nil)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", b.url, err)
	}
	b.logger.WithField("url", b.url).Info("connected to bus")

	b.writeMu.Lock()
	b.conn = conn
	b.writeMu.Unlock()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	defer func() {
		b.writeMu.Lock()
		b.conn = nil
		b.writeMu.Unlock()
		conn.Close()
	}()

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				return true, fmt.Errorf("remote closed: %w", err)
			}
			return true, fmt.Errorf("read: %w", err)
		}
		if env.Topic == "" {
			continue
		}
		b.hub.Dispatch(Message{Topic: env.Topic, Data: env.Data, Source: bridgeSource})
	}
}

func (b *Bridge) forwardOutbound() func() {
	var unsubs []func()
	for _, topic := range b.outbound {
		unsubs = append(unsubs, b.hub.Subscribe(topic, b.send))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (b *Bridge) send(msg Message) {
	if msg.Source == bridgeSource {
		return
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if b.conn == nil {
		b.logger.WithField("topic", msg.Topic).Debug("not connected, dropping outbound message")
		return
	}
	if err := b.conn.SetWriteDeadline(time.Now().Add(b.writeTimeout)); err != nil {
		b.logger.WithError(err).Warn("failed to set write deadline")
	}
	if err := b.conn.WriteJSON(Envelope{Topic: msg.Topic, Data: msg.Data}); err != nil {
		b.logger.WithError(err).WithField("topic", msg.Topic).Warn("failed to forward message")
	}
}
