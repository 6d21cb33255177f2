package main

type GesturePhase int

const (
	GestureIdle GesturePhase = iota
	GestureArmed
	GestureDragging
)

func (p GesturePhase) String() string {
	switch p {
	case GestureIdle:
		return "idle"
	case GestureArmed:
		return "armed"
	case GestureDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// DiscardReason explains why a release produced no intent. Discards are
// local and never reported to the user.
type DiscardReason string

const (
	DiscardNone        DiscardReason = ""
	DiscardNotArmed    DiscardReason = "not armed"
	DiscardOffLattice  DiscardReason = "released off lattice"
	DiscardNotAdjacent DiscardReason = "not adjacent"
	DiscardDrawn       DiscardReason = "edge already drawn"
	DiscardCancelled   DiscardReason = "cancelled"
)

type GestureResult struct {
	Intent    EdgeID
	Committed bool
	Discarded DiscardReason
}

// Point is a surface-local pixel coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Gesture turns press/move/release into at most one edge proposal per drag.
// The zero value is an idle gesture.
type Gesture struct {
	phase    GesturePhase
	origin   Dot
	endpoint *Dot
	hover    *Dot
}

func (g *Gesture) Phase() GesturePhase { return g.phase }

func (g *Gesture) Origin() (Dot, bool) {
	return g.origin, g.phase != GestureIdle
}

func (g *Gesture) Hover() (Dot, bool) {
	if g.hover == nil {
		return Dot{}, false
	}
	return *g.hover, true
}

// Preview returns the edge to draw as a dashed preview while dragging.
func (g *Gesture) Preview() (Dot, Dot, bool) {
	if g.phase != GestureDragging || g.endpoint == nil {
		return Dot{}, Dot{}, false
	}
	return g.origin, *g.endpoint, true
}

func (g *Gesture) reset() {
	g.phase = GestureIdle
	g.origin = Dot{}
	g.endpoint = nil
}

func (g *Gesture) setHover(l Layout, p Point) (Dot, bool) {
	d, ok := l.NearestDot(p.X, p.Y)
	if ok {
		g.hover = &d
	} else {
		g.hover = nil
	}
	return d, ok
}

func (g *Gesture) Press(l Layout, p Point) {
	d, ok := g.setHover(l, p)
	if g.phase != GestureIdle || !ok {
		return
	}
	g.phase = GestureArmed
	g.origin = d
	g.endpoint = nil
}

func (g *Gesture) Move(l Layout, p Point) {
	d, ok := g.setHover(l, p)
	if g.phase == GestureIdle {
		return
	}
	g.phase = GestureDragging
	if ok && IsAdjacent(g.origin, d) {
		g.endpoint = &d
	} else {
		g.endpoint = nil
	}
}

// Release ends the gesture. drawn reports whether an edge is already drawn in
// the last-known authoritative state.
func (g *Gesture) Release(l Layout, p Point, drawn func(EdgeID) bool) GestureResult {
	if g.phase == GestureIdle {
		return GestureResult{Discarded: DiscardNotArmed}
	}
	origin := g.origin
	g.reset()
	g.hover = nil

	d, ok := l.NearestDot(p.X, p.Y)
	if !ok {
		return GestureResult{Discarded: DiscardOffLattice}
	}
	id, err := CanonicalEdgeID(origin, d)
	if err != nil {
		return GestureResult{Discarded: DiscardNotAdjacent}
	}
	if drawn != nil && drawn(id) {
		return GestureResult{Discarded: DiscardDrawn}
	}
	return GestureResult{Intent: id, Committed: true}
}

// Leave handles the pointer leaving the surface.
func (g *Gesture) Leave() GestureResult {
	armed := g.phase != GestureIdle
	g.reset()
	g.hover = nil
	if armed {
		return GestureResult{Discarded: DiscardCancelled}
	}
	return GestureResult{}
}

// Cancel aborts any in-flight gesture, e.g. on multi-touch or a resize.
func (g *Gesture) Cancel() GestureResult {
	return g.Leave()
}

func (g *Gesture) TouchStart(l Layout, touches []Point) {
	if len(touches) != 1 {
		g.Cancel()
		return
	}
	g.Press(l, touches[0])
}

func (g *Gesture) TouchMove(l Layout, touches []Point) {
	if len(touches) != 1 {
		g.Cancel()
		return
	}
	g.Move(l, touches[0])
}

// TouchEnd commits only when the last finger lifts; changed is the position
// of the touch that ended.
func (g *Gesture) TouchEnd(l Layout, remaining int, changed Point, drawn func(EdgeID) bool) GestureResult {
	if remaining != 0 {
		return g.Cancel()
	}
	return g.Release(l, changed, drawn)
}
