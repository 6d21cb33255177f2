package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeGameServer upgrades every request and hands the socket to handle.
func fakeGameServer(t *testing.T, handle func(conn *websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readEvent(t *testing.T, c Conn) Event {
	t.Helper()
	select {
	case raw := <-c.Events():
		ev, err := DecodeEvent(raw)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		return ev
	case <-c.Done():
		t.Fatalf("stream ended: %v", c.Err())
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
	}
	return nil
}

func TestDialServerRoundTrip(t *testing.T) {
	url := fakeGameServer(t, func(conn *websocket.Conn) {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		var join JoinGameData
		json.Unmarshal(msg.Data, &join)
		gs := newGame(join.Code, 3, join.UserID)
		conn.WriteJSON(Message{Type: EventGameJoined, Data: GameJoinedData{GameState: gs, Player: gs.Players[0]}})
		conn.WriteJSON(Message{Type: EventNextPlayer, Data: NextPlayerData{PlayerID: join.UserID}})
		// hold the socket open until the client leaves
		conn.ReadMessage()
	})

	c, err := DialServer(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Send(Message{Type: EventJoinGame, Data: JoinGameData{Code: "ABCD", UserID: "p1"}}); err != nil {
		t.Fatal(err)
	}
	join, ok := readEvent(t, c).(JoinAcknowledged)
	if !ok || join.State.Code != "ABCD" || join.Player.UserID != "p1" {
		t.Fatalf("join = %+v", join)
	}
	// events keep server order
	if turn, ok := readEvent(t, c).(TurnChanged); !ok || turn.PlayerID != "p1" {
		t.Errorf("turn = %+v", turn)
	}
}

func TestConnReportsServerClose(t *testing.T) {
	url := fakeGameServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "restarting"))
	})

	c, err := DialServer(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("done never closed")
	}
	if !websocket.IsCloseError(c.Err(), websocket.CloseGoingAway) {
		t.Errorf("err = %v", c.Err())
	}
}

func TestConnCloseDetaches(t *testing.T) {
	url := fakeGameServer(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
	})

	c, err := DialServer(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	c.Close()

	select {
	case <-c.Done():
	default:
		t.Fatal("Close returned before the reader stopped")
	}
	if c.Err() != nil {
		t.Errorf("deliberate close reported %v", c.Err())
	}
	if err := c.Send(Message{Type: EventMakeMove}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("send after close = %v", err)
	}
}

func TestDialServerUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := DialServer(ctx, "ws://127.0.0.1:1/ws"); err == nil {
		t.Error("dial to closed port succeeded")
	}
}

func TestDialWithRetry(t *testing.T) {
	boom := errors.New("refused")
	attempts := 0
	dial := func(ctx context.Context) (Conn, error) {
		attempts++
		if attempts < 3 {
			return nil, boom
		}
		return NewMockConn(), nil
	}
	conn, err := dialWithRetry(context.Background(), dial, 5, time.Millisecond)
	if err != nil || conn == nil || attempts != 3 {
		t.Fatalf("conn = %v err = %v attempts = %d", conn, err, attempts)
	}

	attempts = 0
	dial = func(ctx context.Context) (Conn, error) {
		attempts++
		return nil, boom
	}
	_, err = dialWithRetry(context.Background(), dial, 4, time.Millisecond)
	if !errors.Is(err, ErrNotConnected) || attempts != 4 {
		t.Errorf("err = %v attempts = %d", err, attempts)
	}
}

func TestDialWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	dial := func(context.Context) (Conn, error) {
		attempts++
		cancel()
		return nil, errors.New("refused")
	}
	if _, err := dialWithRetry(ctx, dial, 10, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d", attempts)
	}
}
