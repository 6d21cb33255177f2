package main

import (
	"fmt"
	"time"
)

type ConnPhase int

const (
	PhaseConnecting ConnPhase = iota
	PhaseJoined
	PhaseActive
	PhaseEnded
	PhaseErrored
	PhaseRedirecting
)

func (p ConnPhase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseJoined:
		return "joined"
	case PhaseActive:
		return "active"
	case PhaseEnded:
		return "ended"
	case PhaseErrored:
		return "errored"
	case PhaseRedirecting:
		return "redirecting"
	default:
		return "unknown"
	}
}

func (p ConnPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

var Palette = []string{
	"#3B82F6", // blue-500
	"#EF4444", // red-500
	"#10B981", // green-500
	"#F59E0B", // amber-500
	"#8B5CF6", // violet-500
}

const DefaultNoticeTTL = 3 * time.Second

type Notice struct {
	Seq     int       `json:"seq"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Outcome is the end result as declared by the server.
type Outcome struct {
	IsTie    bool   `json:"isTie"`
	WinnerID string `json:"winnerId,omitempty"`
}

// ClientState is everything the session knows. Reduce treats it as a value:
// maps are copied before they change and Game is only ever swapped.
type ClientState struct {
	Code            string
	UserID          string
	Phase           ConnPhase
	Game            *GameState
	Colors          map[string]string
	CurrentPlayerID string
	Status          string
	Notice          *Notice
	NoticeSeq       int
	Stats           Stats
	Declared        *Outcome
}

func NewClientState(code, userID string) ClientState {
	return ClientState{
		Code:   code,
		UserID: userID,
		Phase:  PhaseConnecting,
		Colors: map[string]string{},
		Stats:  ComputeStats(nil),
	}
}

// Effect is a side effect requested by the reducer and run by the session.
type Effect interface {
	effect()
}

type ScheduleNoticeClear struct {
	Seq   int
	After time.Duration
}

type ScheduleRedirect struct {
	After time.Duration
}

// Teardown closes the connection and returns to the entry screen.
type Teardown struct {
	Reason string
}

func (ScheduleNoticeClear) effect() {}
func (ScheduleRedirect) effect()    {}
func (Teardown) effect()            {}

type Reducer struct {
	NoticeTTL time.Duration
}

func (r Reducer) ttl() time.Duration {
	if r.NoticeTTL <= 0 {
		return DefaultNoticeTTL
	}
	return r.NoticeTTL
}

// Reduce is the single writer of ClientState.
func (r Reducer) Reduce(s ClientState, ev Event) (ClientState, []Effect) {
	if s.Phase == PhaseRedirecting {
		return s, nil
	}
	if s.Phase == PhaseErrored {
		switch ev.(type) {
		case NoticeExpired, RedirectDue:
		default:
			return s, nil
		}
	}

	switch e := ev.(type) {
	case JoinAcknowledged:
		s = adopt(s, e.State)
		s.Colors = assignColors(s.Colors, e.State.Players)
		s.Declared = nil
		if s.Stats.GameOver {
			s.Phase = PhaseEnded
			s.Status = endStatus(s)
			return s, nil
		}
		s.Phase = PhaseJoined
		if p, ok := e.State.Player(s.CurrentPlayerID); ok {
			s.Status = fmt.Sprintf("Game started! It's %s's turn", p.Name())
		}
		return s, nil

	case PlayerListChanged:
		s.Game = e.State
		s.Stats = ComputeStats(e.State)
		s.Colors = assignColors(s.Colors, e.State.Players)
		return s, nil

	case StateChanged:
		s = adopt(s, e.State)
		if s.Stats.GameOver {
			s.Phase = PhaseEnded
			s.Status = endStatus(s)
		} else {
			s.Phase = PhaseActive
		}
		return s, nil

	case TurnChanged:
		s.CurrentPlayerID = e.PlayerID
		if s.Phase == PhaseEnded {
			return s, nil
		}
		if s.Phase == PhaseJoined {
			s.Phase = PhaseActive
		}
		s.Status = turnStatus(s, e.PlayerID)
		return s, nil

	case MoveRejected:
		return r.notify(s, RejectedMove, e.Reason)

	case ConnectionLost:
		s.Phase = PhaseConnecting
		msg := "Connection lost, reconnecting..."
		if e.Err != nil {
			msg = fmt.Sprintf("Connection lost (%v), reconnecting...", e.Err)
		}
		return r.notify(s, ConnectionError, msg)

	case SendFailed:
		return r.notify(s, ConnectionError, fmt.Sprintf("Could not send move: %v", e.Err))

	case Reconnected:
		s.Phase = PhaseConnecting
		s.Status = "Reconnected, rejoining game..."
		return s, nil

	case FatalError:
		var effects []Effect
		s, effects = r.notify(s, FatalServerError, e.Reason)
		s.Phase = PhaseErrored
		return s, append(effects, ScheduleRedirect{After: r.ttl()})

	case RedirectDue:
		s.Phase = PhaseRedirecting
		s.Notice = nil
		return s, []Effect{Teardown{Reason: "fatal server error"}}

	case NoticeExpired:
		// an older timer must not erase a fresher notice
		if s.Notice != nil && s.Notice.Seq == e.Seq {
			s.Notice = nil
		}
		return s, nil

	case GameCompleted:
		s = adopt(s, e.FinalState)
		s.Phase = PhaseEnded
		s.Status = endStatus(s)
		return s, nil

	case GameEnded:
		s.Declared = &Outcome{IsTie: e.IsTie, WinnerID: e.WinnerID}
		s.Phase = PhaseEnded
		s.Status = endStatus(s)
		return s, nil

	case GameCreated:
		if s.Code == "" {
			s.Code = e.Code
		}
		return s, nil
	}
	return s, nil
}

// adopt swaps in a full snapshot and recomputes everything derived from it.
func adopt(s ClientState, gs *GameState) ClientState {
	s.Game = gs
	if gs.Code != "" {
		s.Code = gs.Code
	}
	s.CurrentPlayerID = gs.CurrentPlayerID()
	s.Stats = ComputeStats(gs)
	return s
}

func (r Reducer) notify(s ClientState, kind ErrorKind, msg string) (ClientState, []Effect) {
	s.NoticeSeq++
	s.Notice = &Notice{Seq: s.NoticeSeq, Kind: kind, Message: msg}
	return s, []Effect{ScheduleNoticeClear{Seq: s.NoticeSeq, After: r.ttl()}}
}

// assignColors keeps colours already handed out and gives everyone else the
// palette entry for their current index.
func assignColors(prev map[string]string, players []Player) map[string]string {
	next := make(map[string]string, len(players))
	for id, c := range prev {
		next[id] = c
	}
	for i, p := range players {
		if _, ok := next[p.UserID]; !ok {
			next[p.UserID] = Palette[i%len(Palette)]
		}
	}
	return next
}

func turnStatus(s ClientState, playerID string) string {
	if playerID != "" && playerID == s.UserID {
		return "Your turn!"
	}
	if p, ok := s.Game.Player(playerID); ok {
		return fmt.Sprintf("%s's turn", p.Name())
	}
	return s.Status
}

// Outcome prefers the server's declaration over the locally derived one.
func (s ClientState) Outcome() (Outcome, bool) {
	if s.Declared != nil {
		return *s.Declared, true
	}
	if s.Stats.GameOver {
		return Outcome{IsTie: s.Stats.IsTie, WinnerID: s.Stats.WinnerID}, true
	}
	return Outcome{}, false
}

func endStatus(s ClientState) string {
	o, ok := s.Outcome()
	if !ok {
		return "Game over!"
	}
	if o.IsTie {
		return "Game ended in a tie!"
	}
	name := "Someone"
	if p, ok := s.Game.Player(o.WinnerID); ok {
		name = p.Name()
	}
	return fmt.Sprintf("%s wins!", name)
}
