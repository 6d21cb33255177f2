package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

var (
	ErrUsernameRequired = errors.New("please enter a username")
	ErrCodeRequired     = errors.New("please enter a game code")
	ErrServerRejected   = errors.New("server rejected request")
)

// GridSizes are the sizes offered on the entry screen.
var GridSizes = []int{3, 5, 7}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return ErrUsernameRequired
	}
	return nil
}

// CreateGame asks the server for a new game and waits for its code.
func CreateGame(ctx context.Context, conn Conn, id Identity, gridSize int) (string, error) {
	if err := validateUsername(id.Username); err != nil {
		return "", err
	}
	if gridSize < 2 {
		return "", ErrInvalidGridSize
	}
	err := conn.Send(Message{
		Type: EventCreateGame,
		Data: CreateGameData{GridSize: gridSize, UserID: id.UserID, Username: id.Username},
	})
	if err != nil {
		return "", err
	}
	log.Printf("🎲 Creating %dx%d game as %s\n", gridSize, gridSize, id.Username)
	return awaitCode(ctx, conn)
}

// JoinGame validates the entry form and sends the join. The game view then
// takes over with its own connection.
func JoinGame(ctx context.Context, conn Conn, id Identity, code string) (string, error) {
	if err := validateUsername(id.Username); err != nil {
		return "", err
	}
	code = NormalizeCode(code)
	if code == "" {
		return "", ErrCodeRequired
	}
	err := conn.Send(Message{
		Type: EventJoinGame,
		Data: JoinGameData{Code: code, UserID: id.UserID, Username: id.Username},
	})
	if err != nil {
		return "", err
	}
	return awaitCode(ctx, conn)
}

// awaitCode waits for gameCreated or gameJoined, whichever names the game to
// navigate to.
func awaitCode(ctx context.Context, conn Conn) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-conn.Done():
			return "", fmt.Errorf("%w: %v", ErrNotConnected, conn.Err())
		case raw := <-conn.Events():
			ev, err := DecodeEvent(raw)
			if err != nil {
				log.Printf("unmarshal error: %v\n", err)
				continue
			}
			switch e := ev.(type) {
			case GameCreated:
				return e.Code, nil
			case JoinAcknowledged:
				return e.State.Code, nil
			case FatalError:
				return "", fmt.Errorf("%w: %s", ErrServerRejected, e.Reason)
			}
		}
	}
}

// EnterGame is the entry screen: it creates a game or joins one by code on a
// short-lived connection and returns the code the game view should open. A
// refused join surfaces here, before any game view starts.
func EnterGame(ctx context.Context, cfg Config, id Identity, dial DialFunc) (string, error) {
	conn, err := dialWithRetry(ctx, dial, cfg.ReconnectAttempts, cfg.ReconnectDelay)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if cfg.Create {
		code, err := CreateGame(ctx, conn, id, cfg.GridSize)
		if err != nil {
			return "", fmt.Errorf("create game: %w", err)
		}
		log.Printf("✅ Created game %s\n", code)
		return code, nil
	}
	code, err := JoinGame(ctx, conn, id, cfg.Code)
	if err != nil {
		return "", fmt.Errorf("join game %s: %w", NormalizeCode(cfg.Code), err)
	}
	log.Printf("✅ Joined game %s\n", code)
	return code, nil
}
