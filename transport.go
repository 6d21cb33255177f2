package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Conn is a live event stream to the game server for one game code. Events
// arrive in server emission order on a single channel.
type Conn interface {
	Sender
	Events() <-chan []byte
	// Done is closed once the stream has ended; Err then reports why.
	Done() <-chan struct{}
	Err() error
	// Detach stops delivery without closing the socket.
	Detach()
	Close() error
}

type wsConn struct {
	conn     *websocket.Conn
	writeMu  sync.Mutex
	events   chan []byte
	done     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	detached atomic.Bool
	err      error
}

// DialServer opens a websocket to the game server.
func DialServer(ctx context.Context, url string) (Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	log.Printf("🔌 Connected to game server %s\n", url)
	return newWSConn(conn), nil
}

func newWSConn(conn *websocket.Conn) *wsConn {
	c := &wsConn{
		conn:   conn,
		events: make(chan []byte),
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *wsConn) readLoop() {
	defer close(c.done)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if !c.detached.Load() {
				c.err = err
			}
			return
		}
		if c.detached.Load() {
			return
		}
		select {
		case c.events <- msg:
		case <-c.stop:
			return
		}
	}
}

func (c *wsConn) Events() <-chan []byte { return c.events }
func (c *wsConn) Done() <-chan struct{} { return c.done }

// Err is only meaningful after Done is closed.
func (c *wsConn) Err() error { return c.err }

func (c *wsConn) Send(msg Message) error {
	if c.detached.Load() {
		return ErrNotConnected
	}
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Type, err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, jsonData); err != nil {
		return fmt.Errorf("write %s: %w", msg.Type, err)
	}
	log.Printf("📤 Sent %s\n", msg.Type)
	return nil
}

func (c *wsConn) Detach() {
	c.stopOnce.Do(func() {
		c.detached.Store(true)
		close(c.stop)
	})
}

// Close detaches first so no event is delivered after teardown begins.
func (c *wsConn) Close() error {
	c.Detach()
	c.writeMu.Lock()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	err := c.conn.Close()
	<-c.done
	return err
}

// DialFunc opens one connection attempt.
type DialFunc func(ctx context.Context) (Conn, error)

// dialWithRetry keeps trying until attempts run out or ctx ends.
func dialWithRetry(ctx context.Context, dial DialFunc, attempts int, delay time.Duration) (Conn, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		conn, err := dial(ctx)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		log.Printf("⚠️ Connect attempt %d/%d failed: %v\n", i+1, attempts, err)
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrNotConnected, attempts, lastErr)
}
