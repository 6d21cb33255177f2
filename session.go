package main

import (
	"context"
	"errors"
	"log"
	"time"
)

// ErrSessionEnded is returned by Run after a fatal server error has run its
// course and the session has been torn down.
var ErrSessionEnded = errors.New("session ended by server")

type InputKind string

const (
	InputPointerDown  InputKind = "pointerDown"
	InputPointerMove  InputKind = "pointerMove"
	InputPointerUp    InputKind = "pointerUp"
	InputPointerLeave InputKind = "pointerLeave"
	InputTouchStart   InputKind = "touchStart"
	InputTouchMove    InputKind = "touchMove"
	InputTouchEnd     InputKind = "touchEnd"
	InputResize       InputKind = "resize"
)

// InputEvent is raw input from the presentation layer, in surface-local
// pixels.
type InputEvent struct {
	Kind      InputKind
	Point     Point
	Touches   []Point
	Remaining int
	Width     float64
	Height    float64
}

type SessionConfig struct {
	Code              string
	UserID            string
	Username          string
	NoticeTTL         time.Duration
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	Verbose           bool
}

// Session is the single logical writer of ClientState. Server events, input
// and timer firings are all handled one at a time on the goroutine running
// Run.
type Session struct {
	cfg        SessionConfig
	dial       DialFunc
	reducer    Reducer
	presenters []Presenter

	state   ClientState
	gesture Gesture
	layout  Layout
	surface Point // zero means the default surface for the grid

	conn   Conn
	gate   MoveGate
	input  chan InputEvent
	timers *timers
}

func NewSession(cfg SessionConfig, dial DialFunc, presenters ...Presenter) *Session {
	s := &Session{
		cfg:        cfg,
		dial:       dial,
		reducer:    Reducer{NoticeTTL: cfg.NoticeTTL},
		presenters: presenters,
		state:      NewClientState(cfg.Code, cfg.UserID),
		input:      make(chan InputEvent),
	}
	s.gate = MoveGate{UserID: cfg.UserID, Sender: sessionSender{s}}
	return s
}

// sessionSender routes sends to whichever connection is current.
type sessionSender struct{ s *Session }

func (ss sessionSender) Send(msg Message) error {
	if ss.s.conn == nil {
		return ErrNotConnected
	}
	return ss.s.conn.Send(msg)
}

// Dispatch hands raw input to the session goroutine. It is safe to call from
// any goroutine.
func (s *Session) Dispatch(ctx context.Context, in InputEvent) error {
	select {
	case s.input <- in:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run connects, joins and processes events until ctx ends or the server
// ends the session. The connection is closed on every return path. Every
// call starts from a blank state, so running again after a teardown is a
// clean rejoin with the same code and user id.
func (s *Session) Run(ctx context.Context) error {
	s.state = NewClientState(s.cfg.Code, s.cfg.UserID)
	s.gesture.Cancel()
	s.layout = Layout{}
	s.timers = newTimers()
	defer s.timers.stop()
	defer s.teardown()

	if err := s.connect(ctx); err != nil {
		return err
	}
	s.publish()

	for {
		var events <-chan []byte
		var done <-chan struct{}
		if s.conn != nil {
			events = s.conn.Events()
			done = s.conn.Done()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw := <-events:
			ev, err := DecodeEvent(raw)
			if err != nil {
				log.Printf("unmarshal error: %v\n", err)
				continue
			}
			if ev == nil {
				s.debugf("ignoring unknown event: %s", raw)
				continue
			}
			log.Printf("📦 Received %s\n", ev.Name())
			s.apply(ev)

		case <-done:
			err := s.conn.Err()
			log.Printf("❌ Disconnected from game server: %v\n", err)
			s.teardown()
			if s.state.Phase >= PhaseErrored {
				// the server already ended the session; wait out the redirect
				continue
			}
			s.apply(ConnectionLost{Err: err})
			if err := s.reconnect(ctx); err != nil {
				return err
			}

		case in := <-s.input:
			s.handleInput(in)

		case ev := <-s.timers.fire:
			s.apply(ev)
		}

		if s.state.Phase == PhaseRedirecting {
			return ErrSessionEnded
		}
	}
}

func (s *Session) connect(ctx context.Context) error {
	conn, err := dialWithRetry(ctx, s.dial, s.cfg.ReconnectAttempts, s.cfg.ReconnectDelay)
	if err != nil {
		return err
	}
	s.conn = conn
	return s.join()
}

func (s *Session) join() error {
	return s.conn.Send(Message{
		Type: EventJoinGame,
		Data: JoinGameData{Code: s.cfg.Code, UserID: s.cfg.UserID, Username: s.cfg.Username},
	})
}

// reconnect redials and re-issues the join with the same code and user id.
// The server answers with a fresh full snapshot.
func (s *Session) reconnect(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	log.Printf("🔄 Rejoining game %s as %s\n", s.cfg.Code, s.cfg.UserID)
	s.apply(Reconnected{})
	return nil
}

// teardown detaches the listener before closing so no handler fires after
// the connection is gone.
func (s *Session) teardown() {
	if s.conn == nil {
		return
	}
	s.conn.Detach()
	if err := s.conn.Close(); err != nil {
		s.debugf("close: %v", err)
	}
	s.conn = nil
}

func (s *Session) apply(ev Event) {
	var effects []Effect
	s.state, effects = s.reducer.Reduce(s.state, ev)
	s.relayout()
	for _, eff := range effects {
		switch e := eff.(type) {
		case ScheduleNoticeClear:
			s.timers.scheduleNotice(e.Seq, e.After)
		case ScheduleRedirect:
			s.timers.scheduleRedirect(e.After)
		case Teardown:
			log.Printf("🚪 Leaving game %s: %s\n", s.state.Code, e.Reason)
			s.teardown()
		}
	}
	if n := s.state.Notice; n != nil && n.Kind != LocalGestureDiscard {
		s.debugf("notice %d (%s): %s", n.Seq, n.Kind, n.Message)
	}
	s.publish()
}

// relayout keeps the layout in step with the grid size and surface.
func (s *Session) relayout() {
	n := 0
	if s.state.Game != nil {
		n = s.state.Game.GridSize
	}
	if n < 2 {
		s.layout = Layout{}
		return
	}
	w, h := s.surface.X, s.surface.Y
	if w <= 0 || h <= 0 {
		w, h = DefaultSurface(n)
	}
	if s.layout.GridSize == n && s.layout.Width == w && s.layout.Height == h {
		return
	}
	if s.layout.GridSize != 0 {
		s.gesture.Cancel()
	}
	s.layout, _ = NewLayout(n, w, h)
}

func (s *Session) handleInput(in InputEvent) {
	drawn := s.state.Game.EdgeDrawn
	switch in.Kind {
	case InputPointerDown:
		s.gesture.Press(s.layout, in.Point)
	case InputPointerMove:
		s.gesture.Move(s.layout, in.Point)
	case InputPointerUp:
		s.commit(s.gesture.Release(s.layout, in.Point, drawn))
	case InputPointerLeave:
		s.gesture.Leave()
	case InputTouchStart:
		s.gesture.TouchStart(s.layout, in.Touches)
	case InputTouchMove:
		s.gesture.TouchMove(s.layout, in.Touches)
	case InputTouchEnd:
		s.commit(s.gesture.TouchEnd(s.layout, in.Remaining, in.Point, drawn))
	case InputResize:
		s.surface = Point{X: in.Width, Y: in.Height}
		s.relayout()
	default:
		s.debugf("ignoring input %q", in.Kind)
		return
	}
	s.publish()
}

func (s *Session) commit(res GestureResult) {
	if !res.Committed {
		if res.Discarded != DiscardNone {
			s.debugf("gesture discarded: %s", res.Discarded)
		}
		return
	}
	sent, err := s.gate.Submit(s.state, res.Intent)
	if err != nil {
		s.apply(SendFailed{Err: err})
		return
	}
	if !sent {
		s.debugf("move %s held back by gate", res.Intent)
	}
}

func (s *Session) publish() {
	snap := BuildSnapshot(s.state, &s.gesture, s.layout)
	for _, p := range s.presenters {
		p.Render(snap)
	}
}

// State returns the current state. Only call it from the goroutine running
// Run, or after Run has returned.
func (s *Session) State() ClientState { return s.state }

func (s *Session) debugf(format string, v ...interface{}) {
	if s.cfg.Verbose {
		log.Printf("DEBUG: "+format+"\n", v...)
	}
}
