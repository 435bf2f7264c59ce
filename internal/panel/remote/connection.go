package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/overlaykit/markers/pkg/streaming"
)

const (
	sendChSize     = 10_000
	ackChSize      = 16
	maxReconnect   = 10
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
	writeWait      = 10 * time.Second
	ackTimeout     = 10 * time.Second
)

var errClosed = errors.New("renderer connection closed")

// connection streams panel operations to the renderer. A single run goroutine
// owns the socket: it is the only writer, and it alone re-dials after a drop,
// so operations reach the renderer in the order they were sent.
type connection struct {
	mu          sync.Mutex
	closed      bool
	cachedHello []byte // replayed first on every new socket

	sendCh  chan []byte
	ackCh   chan streaming.AckMessage
	done    chan struct{} // closed on shutdown
	stopped chan struct{} // closed when run returns; nil until dial succeeds

	wsURL   string
	secret  string
	backoff time.Duration

	logger *slog.Logger
}

func newConnection(logger *slog.Logger) *connection {
	return &connection{
		sendCh:  make(chan []byte, sendChSize),
		ackCh:   make(chan streaming.AckMessage, ackChSize),
		done:    make(chan struct{}),
		backoff: initialBackoff,
		logger:  logger,
	}
}

// dial makes the first connection and hands it to the run goroutine.
func (c *connection) dial(rawURL, secret string) error {
	c.wsURL = rawURL
	c.secret = secret

	conn, err := c.dialOnce()
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return errClosed
	}
	c.stopped = make(chan struct{})
	c.mu.Unlock()

	go c.run(conn)
	return nil
}

func (c *connection) dialOnce() (*ws.Conn, error) {
	u, err := url.Parse(c.wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	q := u.Query()
	q.Set("secret", c.secret)
	u.RawQuery = q.Encode()

	conn, _, err := ws.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

func (c *connection) setHello(data []byte) {
	c.mu.Lock()
	c.cachedHello = data
	c.mu.Unlock()
}

func (c *connection) hello() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cachedHello
}

// run writes queued messages to conn until shutdown. When the socket fails it
// re-dials, replays hello and retries the message that was in flight. Messages
// queued meanwhile wait in sendCh.
func (c *connection) run(conn *ws.Conn) {
	defer close(c.stopped)

	var pending []byte
	for conn != nil {
		readErr := make(chan error, 1)
		go c.readLoop(conn, readErr)

		err := c.writeLoop(conn, readErr, &pending)
		_ = conn.Close()
		if err == nil {
			return
		}
		c.logger.Warn("Renderer connection lost", "error", err)
		conn = c.redial()
	}
}

// writeLoop drains sendCh onto conn. It returns nil on shutdown and the cause
// when the socket breaks. A message that failed to write is left in pending.
func (c *connection) writeLoop(conn *ws.Conn, readErr <-chan error, pending *[]byte) error {
	if *pending != nil {
		if err := write(conn, *pending); err != nil {
			return err
		}
		*pending = nil
	}

	for {
		select {
		case <-c.done:
			c.flush(conn)
			return nil
		case err := <-readErr:
			return err
		case data := <-c.sendCh:
			if err := write(conn, data); err != nil {
				*pending = data
				return err
			}
		}
	}
}

// flush writes whatever is already queued, then the close frame, all within
// one writeWait window.
func (c *connection) flush(conn *ws.Conn) {
	deadline := time.Now().Add(writeWait)
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return
	}
	for {
		select {
		case data := <-c.sendCh:
			if err := conn.WriteMessage(ws.TextMessage, data); err != nil {
				return
			}
		default:
			_ = conn.WriteControl(
				ws.CloseMessage,
				ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
				deadline,
			)
			return
		}
	}
}

func write(conn *ws.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := conn.WriteMessage(ws.TextMessage, data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// readLoop routes acks from conn to ackCh and reports the error that ends it.
// Each socket gets its own readLoop, so a stale one cannot touch a newer socket.
func (c *connection) readLoop(conn *ws.Conn, readErr chan<- error) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			readErr <- fmt.Errorf("read: %w", err)
			return
		}

		var ack streaming.AckMessage
		if err := json.Unmarshal(message, &ack); err != nil {
			c.logger.Debug("Non-ack message received", "raw", string(message))
			continue
		}
		if ack.Type != streaming.TypeAck {
			continue
		}
		select {
		case c.ackCh <- ack:
		default:
			c.logger.Debug("Ack channel full, dropping", "for", ack.For)
		}
	}
}

// redial retries with exponential backoff and returns a socket that already
// carries the replayed hello, or nil on shutdown or when attempts run out.
// Panels created before the drop are not replayed; the renderer clears its
// tree on a new hello.
func (c *connection) redial() *ws.Conn {
	backoff := c.backoff
	for attempt := 1; attempt <= maxReconnect; attempt++ {
		c.logger.Info("Reconnecting to renderer", "attempt", attempt, "backoff", backoff)
		timer := time.NewTimer(backoff)
		select {
		case <-c.done:
			timer.Stop()
			return nil
		case <-timer.C:
		}
		backoff = min(backoff*2, maxBackoff)

		conn, err := c.dialOnce()
		if err != nil {
			c.logger.Warn("Reconnect dial failed", "attempt", attempt, "error", err)
			continue
		}
		if hello := c.hello(); hello != nil {
			if err := write(conn, hello); err != nil {
				c.logger.Warn("Failed to replay hello after reconnect", "error", err)
				_ = conn.Close()
				continue
			}
		}

		c.logger.Info("Renderer reconnected", "attempt", attempt)
		return conn
	}

	c.logger.Error("Renderer reconnect failed after max attempts", "maxAttempts", maxReconnect)
	return nil
}

// send queues data for the run goroutine. Non-blocking; drops if the queue is full.
func (c *connection) send(data []byte) {
	select {
	case c.sendCh <- data:
	default:
		c.logger.Warn("Renderer send channel full, dropping message")
	}
}

// sendAndWait blocks until the renderer acks ackFor or the timeout expires.
func (c *connection) sendAndWait(data []byte, ackFor string, timeout time.Duration) error {
	c.send(data)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case ack := <-c.ackCh:
			if ack.For == ackFor {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timeout waiting for ack of %q", ackFor)
		case <-c.done:
			return fmt.Errorf("%w while waiting for ack of %q", errClosed, ackFor)
		}
	}
}

// close stops the run goroutine, which flushes the queue and sends the close
// frame, and waits for it to exit.
func (c *connection) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	stopped := c.stopped
	c.mu.Unlock()

	if stopped != nil {
		<-stopped
	}
	return nil
}
