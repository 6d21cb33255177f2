package main

import "fmt"

// Sender forwards one envelope to the game server.
type Sender interface {
	Send(msg Message) error
}

// MoveGate is a responsiveness guard in front of makeMove. The server still
// re-validates every move; the last-known snapshot is the only ledger of
// drawn edges.
type MoveGate struct {
	UserID string
	Sender Sender
}

// Submit returns true when an intent was forwarded.
func (g *MoveGate) Submit(state ClientState, id EdgeID) (bool, error) {
	gs := state.Game
	if gs == nil || state.Phase >= PhaseEnded {
		return false, nil
	}
	if state.CurrentPlayerID == "" || state.CurrentPlayerID != g.UserID {
		return false, nil
	}
	if gs.EdgeDrawn(id) {
		return false, nil
	}
	err := g.Sender.Send(Message{
		Type: EventMakeMove,
		Data: MakeMoveData{Code: gs.Code, EdgeID: id, UserID: g.UserID},
	})
	if err != nil {
		return false, fmt.Errorf("send move %s: %w", id, err)
	}
	return true, nil
}
