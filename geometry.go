package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidEdge     = errors.New("invalid edge")
	ErrInvalidGridSize = errors.New("grid size must be at least 2")
	ErrInvalidDot      = errors.New("invalid dot")
)

const (
	dotSeparator  = "-"
	edgeSeparator = "_"

	DefaultPadding    = 20.0
	DefaultDotSpacing = 40.0
)

// Dot is a lattice point addressed by row and column.
type Dot struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (d Dot) String() string {
	return strconv.Itoa(d.Row) + dotSeparator + strconv.Itoa(d.Col)
}

func ParseDot(s string) (Dot, error) {
	r, c, ok := strings.Cut(s, dotSeparator)
	if !ok {
		return Dot{}, fmt.Errorf("%w: %q", ErrInvalidDot, s)
	}
	row, err := strconv.Atoi(r)
	if err != nil || row < 0 {
		return Dot{}, fmt.Errorf("%w: %q", ErrInvalidDot, s)
	}
	col, err := strconv.Atoi(c)
	if err != nil || col < 0 {
		return Dot{}, fmt.Errorf("%w: %q", ErrInvalidDot, s)
	}
	return Dot{Row: row, Col: col}, nil
}

func (d Dot) In(gridSize int) bool {
	return d.Row >= 0 && d.Col >= 0 && d.Row < gridSize && d.Col < gridSize
}

// IsAdjacent reports whether a and b share a row or column and are one step
// apart.
func IsAdjacent(a, b Dot) bool {
	dr := abs(a.Row - b.Row)
	dc := abs(a.Col - b.Col)
	return (dr == 1 && dc == 0) || (dr == 0 && dc == 1)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// EdgeID is the canonical textual id of an undirected edge, e.g. "0-0_0-1".
type EdgeID string

// CanonicalEdgeID sorts the two dot encodings before joining them, so the
// result does not depend on argument order.
func CanonicalEdgeID(a, b Dot) (EdgeID, error) {
	if a == b || !IsAdjacent(a, b) {
		return "", fmt.Errorf("%w: %s to %s", ErrInvalidEdge, a, b)
	}
	sa, sb := a.String(), b.String()
	if sb < sa {
		sa, sb = sb, sa
	}
	return EdgeID(sa + edgeSeparator + sb), nil
}

// Dots parses the id back into its endpoints.
func (id EdgeID) Dots() (Dot, Dot, error) {
	l, r, ok := strings.Cut(string(id), edgeSeparator)
	if !ok {
		return Dot{}, Dot{}, fmt.Errorf("%w: %q", ErrInvalidEdge, id)
	}
	a, err := ParseDot(l)
	if err != nil {
		return Dot{}, Dot{}, fmt.Errorf("%w: %q", ErrInvalidEdge, id)
	}
	b, err := ParseDot(r)
	if err != nil {
		return Dot{}, Dot{}, fmt.Errorf("%w: %q", ErrInvalidEdge, id)
	}
	if !IsAdjacent(a, b) {
		return Dot{}, Dot{}, fmt.Errorf("%w: %q", ErrInvalidEdge, id)
	}
	return a, b, nil
}

// BoxID is the "row-col" encoding of a box's top-left dot.
type BoxID string

func BoxIDFor(topLeft Dot) BoxID { return BoxID(topLeft.String()) }

func (id BoxID) TopLeft() (Dot, error) { return ParseDot(string(id)) }

// BoxEdges returns the four edges bounding the box whose top-left dot is d.
func BoxEdges(d Dot) [4]EdgeID {
	tr := Dot{d.Row, d.Col + 1}
	bl := Dot{d.Row + 1, d.Col}
	br := Dot{d.Row + 1, d.Col + 1}
	// all pairs below are adjacent by construction
	top, _ := CanonicalEdgeID(d, tr)
	left, _ := CanonicalEdgeID(d, bl)
	right, _ := CanonicalEdgeID(tr, br)
	bottom, _ := CanonicalEdgeID(bl, br)
	return [4]EdgeID{top, right, bottom, left}
}

// BoxesBeside returns the top-left dots of the one or two boxes an edge
// borders on an n x n lattice.
func BoxesBeside(id EdgeID, gridSize int) []Dot {
	a, b, err := id.Dots()
	if err != nil {
		return nil
	}
	var candidates [2]Dot
	if a.Row == b.Row {
		c := min(a.Col, b.Col)
		candidates = [2]Dot{{a.Row - 1, c}, {a.Row, c}}
	} else {
		r := min(a.Row, b.Row)
		candidates = [2]Dot{{r, a.Col - 1}, {r, a.Col}}
	}
	var boxes []Dot
	for _, d := range candidates {
		if d.In(gridSize - 1) {
			boxes = append(boxes, d)
		}
	}
	return boxes
}

func TotalBoxes(gridSize int) int {
	if gridSize < 2 {
		return 0
	}
	return (gridSize - 1) * (gridSize - 1)
}

// Layout maps lattice coordinates onto a resizable drawing surface.
type Layout struct {
	GridSize int
	Width    float64
	Height   float64
	Padding  float64
}

func NewLayout(gridSize int, width, height float64) (Layout, error) {
	if gridSize < 2 {
		return Layout{}, ErrInvalidGridSize
	}
	return Layout{GridSize: gridSize, Width: width, Height: height, Padding: DefaultPadding}, nil
}

// DefaultSurface is the square canvas the web client sized itself to.
func DefaultSurface(gridSize int) (w, h float64) {
	side := float64(gridSize-1)*DefaultDotSpacing + 2*DefaultPadding
	return side, side
}

func (l Layout) Valid() bool {
	return l.GridSize >= 2 && l.Spacing() > 0
}

func (l Layout) Spacing() float64 {
	if l.GridSize < 2 {
		return 0
	}
	return (math.Min(l.Width, l.Height) - 2*l.Padding) / float64(l.GridSize-1)
}

// offsets centre the lattice on both axes.
func (l Layout) offsets() (ox, oy float64) {
	span := l.Spacing() * float64(l.GridSize-1)
	return (l.Width - span) / 2, (l.Height - span) / 2
}

func (l Layout) DotPosition(d Dot) (x, y float64) {
	s := l.Spacing()
	ox, oy := l.offsets()
	return ox + float64(d.Col)*s, oy + float64(d.Row)*s
}

// NearestDot returns the closest dot to (px, py), but only when it lies
// strictly within half a spacing of it.
func (l Layout) NearestDot(px, py float64) (Dot, bool) {
	if !l.Valid() {
		return Dot{}, false
	}
	s := l.Spacing()
	ox, oy := l.offsets()
	// the closest lattice point is the rounded cell, clamped to the grid
	col := clamp(int(math.Round((px-ox)/s)), 0, l.GridSize-1)
	row := clamp(int(math.Round((py-oy)/s)), 0, l.GridSize-1)
	d := Dot{Row: row, Col: col}
	x, y := l.DotPosition(d)
	if math.Hypot(px-x, py-y) < s/2 {
		return d, true
	}
	return Dot{}, false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
