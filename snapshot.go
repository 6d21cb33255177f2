package main

import "sort"

const undrawnOwnerColor = "#9CA3AF"

type DotView struct {
	Dot Dot     `json:"dot"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
}

type EdgeView struct {
	ID    EdgeID  `json:"id"`
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color string  `json:"color"`
	// Completes is how many boxes drawing this edge would close.
	Completes int `json:"completes,omitempty"`
}

type BoxView struct {
	ID    BoxID   `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size"`
	Owner string  `json:"owner"`
	Color string  `json:"color"`
	// Count is the owner's total number of boxes, drawn inside the box.
	Count int `json:"count"`
}

type PlayerView struct {
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	Score   int    `json:"score"`
	Current bool   `json:"current"`
	You     bool   `json:"you"`
}

// RenderSnapshot is everything a presentation layer needs for one frame.
type RenderSnapshot struct {
	Code     string       `json:"code"`
	Phase    ConnPhase    `json:"phase"`
	Width    float64      `json:"width"`
	Height   float64      `json:"height"`
	Dots     []DotView    `json:"dots"`
	Edges    []EdgeView   `json:"edges"`
	Boxes    []BoxView    `json:"boxes"`
	Preview  *EdgeView    `json:"preview,omitempty"`
	Hover    *DotView     `json:"hover,omitempty"`
	Players  []PlayerView `json:"players"`
	Stats    Stats        `json:"stats"`
	Outcome  *Outcome     `json:"outcome,omitempty"`
	Status   string       `json:"status,omitempty"`
	Notice   *Notice      `json:"notice,omitempty"`
	YourTurn bool         `json:"yourTurn"`
}

// Presenter draws snapshots. Implementations must not retain the slices
// beyond the call if they mutate them.
type Presenter interface {
	Render(snap RenderSnapshot)
}

// BuildSnapshot is a pure view over the reducer's output and the gesture.
func BuildSnapshot(s ClientState, g *Gesture, l Layout) RenderSnapshot {
	snap := RenderSnapshot{
		Code:     s.Code,
		Phase:    s.Phase,
		Width:    l.Width,
		Height:   l.Height,
		Stats:    s.Stats,
		Status:   s.Status,
		Notice:   s.Notice,
		YourTurn: s.CurrentPlayerID != "" && s.CurrentPlayerID == s.UserID,
	}
	if o, ok := s.Outcome(); ok {
		snap.Outcome = &o
	}
	gs := s.Game
	if gs == nil || !l.Valid() {
		return snap
	}

	for row := 0; row < l.GridSize; row++ {
		for col := 0; col < l.GridSize; col++ {
			d := Dot{Row: row, Col: col}
			x, y := l.DotPosition(d)
			snap.Dots = append(snap.Dots, DotView{Dot: d, X: x, Y: y})
		}
	}

	for _, id := range sortedEdgeIDs(gs.Edges) {
		e := gs.Edges[id]
		if !e.Drawn {
			continue
		}
		v, ok := edgeView(l, id)
		if !ok {
			continue
		}
		v.Color = colorOf(s.Colors, e.PlayerID)
		snap.Edges = append(snap.Edges, v)
	}

	spacing := l.Spacing()
	inset := spacing / 8
	for _, id := range sortedBoxIDs(gs.Boxes) {
		b := gs.Boxes[id]
		if b.Owner == "" {
			continue
		}
		d, err := id.TopLeft()
		if err != nil || !d.In(l.GridSize-1) {
			continue
		}
		x, y := l.DotPosition(d)
		snap.Boxes = append(snap.Boxes, BoxView{
			ID:    id,
			X:     x + inset,
			Y:     y + inset,
			Size:  spacing - 2*inset,
			Owner: b.Owner,
			Color: colorOf(s.Colors, b.Owner),
			Count: s.Stats.Scores[b.Owner],
		})
	}

	for _, p := range gs.Players {
		snap.Players = append(snap.Players, PlayerView{
			UserID:  p.UserID,
			Name:    p.Name(),
			Color:   s.Colors[p.UserID],
			Score:   s.Stats.Scores[p.UserID],
			Current: p.UserID == s.CurrentPlayerID,
			You:     p.UserID == s.UserID,
		})
	}

	if g == nil {
		return snap
	}
	if a, b, ok := g.Preview(); ok {
		if id, err := CanonicalEdgeID(a, b); err == nil {
			v, _ := edgeView(l, id)
			v.Color = colorOf(s.Colors, s.UserID) + "80"
			v.Completes = boxesClosedBy(gs, id)
			snap.Preview = &v
		}
	}
	if d, ok := g.Hover(); ok {
		x, y := l.DotPosition(d)
		snap.Hover = &DotView{Dot: d, X: x, Y: y}
	}
	return snap
}

func edgeView(l Layout, id EdgeID) (EdgeView, bool) {
	a, b, err := id.Dots()
	if err != nil || !a.In(l.GridSize) || !b.In(l.GridSize) {
		return EdgeView{}, false
	}
	x1, y1 := l.DotPosition(a)
	x2, y2 := l.DotPosition(b)
	return EdgeView{ID: id, X1: x1, Y1: y1, X2: x2, Y2: y2}, true
}

// boxesClosedBy counts the boxes whose other three sides are already drawn.
func boxesClosedBy(gs *GameState, id EdgeID) int {
	if gs.EdgeDrawn(id) {
		return 0
	}
	n := 0
	for _, d := range BoxesBeside(id, gs.GridSize) {
		closed := true
		for _, side := range BoxEdges(d) {
			if side != id && !gs.EdgeDrawn(side) {
				closed = false
				break
			}
		}
		if closed {
			n++
		}
	}
	return n
}

func colorOf(colors map[string]string, userID string) string {
	if c, ok := colors[userID]; ok && userID != "" {
		return c
	}
	return undrawnOwnerColor
}

func sortedEdgeIDs(m map[EdgeID]Edge) []EdgeID {
	ids := make([]EdgeID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedBoxIDs(m map[BoxID]Box) []BoxID {
	ids := make([]BoxID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
