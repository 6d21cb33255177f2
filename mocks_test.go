package main

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

type MockSender struct {
	mu    sync.Mutex
	sent  []Message
	Error error
}

func (m *MockSender) Send(msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Error != nil {
		return m.Error
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *MockSender) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

func (m *MockSender) Count(msgType string) int {
	n := 0
	for _, msg := range m.Sent() {
		if msg.Type == msgType {
			n++
		}
	}
	return n
}

// MockConn is an in-memory Conn. Push blocks until the reader takes the
// event, like the websocket read loop does.
type MockConn struct {
	MockSender

	events    chan []byte
	done      chan struct{}
	doneOnce  sync.Once
	err       error
	detached  bool
	closed    bool
	stateLock sync.Mutex
}

func NewMockConn() *MockConn {
	return &MockConn{
		events: make(chan []byte),
		done:   make(chan struct{}),
	}
}

func (m *MockConn) Events() <-chan []byte { return m.events }
func (m *MockConn) Done() <-chan struct{} { return m.done }
func (m *MockConn) Err() error            { return m.err }

func (m *MockConn) Detach() {
	m.stateLock.Lock()
	defer m.stateLock.Unlock()
	m.detached = true
}

func (m *MockConn) Close() error {
	m.stateLock.Lock()
	m.closed = true
	m.stateLock.Unlock()
	m.doneOnce.Do(func() { close(m.done) })
	return nil
}

func (m *MockConn) Closed() (detached, closed bool) {
	m.stateLock.Lock()
	defer m.stateLock.Unlock()
	return m.detached, m.closed
}

// Drop simulates the server going away.
func (m *MockConn) Drop(err error) {
	m.err = err
	m.doneOnce.Do(func() { close(m.done) })
}

func (m *MockConn) Push(t *testing.T, msgType string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		t.Fatalf("marshal %s: %v", msgType, err)
	}
	select {
	case m.events <- raw:
	case <-time.After(2 * time.Second):
		t.Fatalf("nobody read %s", msgType)
	}
}

// dialQueue hands out the given connections one per dial.
func dialQueue(conns ...*MockConn) (DialFunc, *int) {
	var mu sync.Mutex
	calls := 0
	return func(ctx context.Context) (Conn, error) {
		mu.Lock()
		defer mu.Unlock()
		if calls >= len(conns) {
			calls++
			return nil, ErrNotConnected
		}
		c := conns[calls]
		calls++
		return c, nil
	}, &calls
}

type MockPresenter struct {
	mu    sync.Mutex
	snaps []RenderSnapshot
}

func (m *MockPresenter) Render(snap RenderSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps = append(m.snaps, snap)
}

func (m *MockPresenter) Last() (RenderSnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.snaps) == 0 {
		return RenderSnapshot{}, false
	}
	return m.snaps[len(m.snaps)-1], true
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// newGame builds an n x n game with the given players and no moves.
func newGame(code string, n int, players ...string) *GameState {
	gs := &GameState{
		Code:     code,
		GridSize: n,
		Edges:    map[EdgeID]Edge{},
		Boxes:    map[BoxID]Box{},
	}
	for _, p := range players {
		gs.Players = append(gs.Players, Player{UserID: p, User: User{Username: "user-" + p}})
	}
	for r := 0; r < n-1; r++ {
		for c := 0; c < n-1; c++ {
			gs.Boxes[BoxIDFor(Dot{r, c})] = Box{}
		}
	}
	return gs
}

func withOwners(gs *GameState, owners map[BoxID]string) *GameState {
	next := *gs
	next.Boxes = map[BoxID]Box{}
	for id, b := range gs.Boxes {
		next.Boxes[id] = b
	}
	for id, owner := range owners {
		next.Boxes[id] = Box{Owner: owner}
	}
	return &next
}

func withEdges(gs *GameState, by string, ids ...EdgeID) *GameState {
	next := *gs
	next.Edges = map[EdgeID]Edge{}
	for id, e := range gs.Edges {
		next.Edges[id] = e
	}
	for _, id := range ids {
		next.Edges[id] = Edge{Drawn: true, PlayerID: by}
	}
	return &next
}
