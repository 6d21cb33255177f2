package main

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event is one input to the reducer: a decoded server event, a local
// transport event, or a timer firing.
type Event interface {
	Name() string
}

type JoinAcknowledged struct {
	State  *GameState
	Player Player
}

type PlayerListChanged struct {
	State  *GameState
	Player Player
}

type StateChanged struct {
	State *GameState
}

type TurnChanged struct {
	PlayerID string
}

type MoveRejected struct {
	Reason string
}

type FatalError struct {
	Reason string
}

type GameCompleted struct {
	FinalState *GameState
}

// GameEnded is the end signal older servers send instead of gameCompleted.
type GameEnded struct {
	IsTie    bool
	WinnerID string
}

type GameCreated struct {
	Code string
}

type ConnectionLost struct {
	Err error
}

type Reconnected struct{}

// SendFailed reports a move that could not be written to the socket.
type SendFailed struct {
	Err error
}

type NoticeExpired struct {
	Seq int
}

type RedirectDue struct{}

func (JoinAcknowledged) Name() string  { return EventGameJoined }
func (PlayerListChanged) Name() string { return EventPlayerJoined }
func (StateChanged) Name() string      { return EventGameStateUpdated }
func (TurnChanged) Name() string       { return EventNextPlayer }
func (MoveRejected) Name() string      { return EventInvalidMove }
func (FatalError) Name() string        { return EventError }
func (GameCompleted) Name() string     { return EventGameCompleted }
func (GameEnded) Name() string         { return EventGameEnded }
func (GameCreated) Name() string       { return EventGameCreated }
func (ConnectionLost) Name() string    { return "connectionLost" }
func (Reconnected) Name() string       { return "reconnected" }
func (SendFailed) Name() string        { return "sendFailed" }
func (NoticeExpired) Name() string     { return "noticeExpired" }
func (RedirectDue) Name() string       { return "redirectDue" }

var ErrMissingGameState = errors.New("payload carries no game state")

// DecodeEvent turns a raw envelope into an Event. Unknown event names yield
// (nil, nil) so newer servers can add events without breaking old clients.
func DecodeEvent(raw []byte) (Event, error) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return decodePayload(msg)
}

func decodePayload(msg inboundMessage) (Event, error) {
	switch msg.Type {
	case EventGameJoined:
		var d GameJoinedData
		if err := unmarshalData(msg, &d); err != nil {
			return nil, err
		}
		if d.GameState == nil {
			return nil, fmt.Errorf("%s: %w", msg.Type, ErrMissingGameState)
		}
		return JoinAcknowledged{State: d.GameState, Player: d.Player}, nil

	case EventPlayerJoined:
		var d GameJoinedData
		if err := unmarshalData(msg, &d); err != nil {
			return nil, err
		}
		if d.GameState == nil {
			return nil, fmt.Errorf("%s: %w", msg.Type, ErrMissingGameState)
		}
		return PlayerListChanged{State: d.GameState, Player: d.Player}, nil

	case EventGameStateUpdated:
		var d GameStateUpdatedData
		if err := unmarshalData(msg, &d); err != nil {
			return nil, err
		}
		if d.GameState == nil {
			return nil, fmt.Errorf("%s: %w", msg.Type, ErrMissingGameState)
		}
		return StateChanged{State: d.GameState}, nil

	case EventNextPlayer:
		var d NextPlayerData
		if err := unmarshalData(msg, &d); err != nil {
			return nil, err
		}
		return TurnChanged{PlayerID: d.PlayerID}, nil

	case EventInvalidMove:
		var d NoticeData
		if err := unmarshalData(msg, &d); err != nil {
			return nil, err
		}
		return MoveRejected{Reason: d.Message}, nil

	case EventError:
		var d NoticeData
		if err := unmarshalData(msg, &d); err != nil {
			return nil, err
		}
		return FatalError{Reason: d.Message}, nil

	case EventGameCompleted:
		var d GameCompletedData
		if err := unmarshalData(msg, &d); err != nil {
			return nil, err
		}
		if d.FinalState == nil {
			return nil, fmt.Errorf("%s: %w", msg.Type, ErrMissingGameState)
		}
		return GameCompleted{FinalState: d.FinalState}, nil

	case EventGameEnded:
		var d GameEndedData
		if err := unmarshalData(msg, &d); err != nil {
			return nil, err
		}
		return GameEnded{IsTie: d.IsTie, WinnerID: d.WinnerID}, nil

	case EventGameCreated:
		var d GameCreatedData
		if err := unmarshalData(msg, &d); err != nil {
			return nil, err
		}
		return GameCreated{Code: d.Code}, nil
	}
	return nil, nil
}

func unmarshalData(msg inboundMessage, v interface{}) error {
	if len(msg.Data) == 0 {
		return fmt.Errorf("%s: empty payload", msg.Type)
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return fmt.Errorf("%s: %w", msg.Type, err)
	}
	return nil
}
