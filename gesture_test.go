package main

import "testing"

func testLayout(t *testing.T, n int) Layout {
	t.Helper()
	w, h := DefaultSurface(n)
	l, err := NewLayout(n, w, h)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func at(l Layout, r, c int) Point {
	x, y := l.DotPosition(Dot{r, c})
	return Point{X: x, Y: y}
}

func noneDrawn(EdgeID) bool { return false }

func TestGestureCommitsAdjacentDrag(t *testing.T) {
	l := testLayout(t, 3)
	var g Gesture

	g.Press(l, at(l, 1, 1))
	if g.Phase() != GestureArmed {
		t.Fatalf("phase after press = %v", g.Phase())
	}
	if o, ok := g.Origin(); !ok || o != (Dot{1, 1}) {
		t.Fatalf("origin = %v %v", o, ok)
	}
	g.Move(l, at(l, 1, 2))
	if g.Phase() != GestureDragging {
		t.Fatalf("phase after move = %v", g.Phase())
	}
	a, b, ok := g.Preview()
	if !ok || a != (Dot{1, 1}) || b != (Dot{1, 2}) {
		t.Fatalf("preview = %v %v %v", a, b, ok)
	}

	res := g.Release(l, at(l, 1, 2), noneDrawn)
	if !res.Committed || res.Intent != "1-1_1-2" {
		t.Fatalf("release = %+v", res)
	}
	if g.Phase() != GestureIdle {
		t.Errorf("phase after release = %v", g.Phase())
	}
	if _, _, ok := g.Preview(); ok {
		t.Error("preview survived release")
	}
}

func TestGestureNonAdjacentReleaseNeverEmits(t *testing.T) {
	l := testLayout(t, 4)
	var g Gesture
	for _, target := range []Dot{{0, 2}, {1, 1}, {3, 3}, {0, 0}} {
		g.Press(l, at(l, 0, 0))
		g.Move(l, at(l, target.Row, target.Col))
		if _, _, ok := g.Preview(); ok {
			t.Errorf("preview shown for non-adjacent %v", target)
		}
		res := g.Release(l, at(l, target.Row, target.Col), noneDrawn)
		if res.Committed || res.Intent != "" {
			t.Errorf("release on %v emitted %+v", target, res)
		}
		if res.Discarded != DiscardNotAdjacent {
			t.Errorf("release on %v discard = %q", target, res.Discarded)
		}
		if g.Phase() != GestureIdle {
			t.Errorf("not idle after discard on %v", target)
		}
	}
}

func TestGestureDrawnEdgeIsDiscarded(t *testing.T) {
	l := testLayout(t, 3)
	var g Gesture
	drawn := func(id EdgeID) bool { return id == "0-0_0-1" }

	g.Press(l, at(l, 0, 1))
	g.Move(l, at(l, 0, 0))
	res := g.Release(l, at(l, 0, 0), drawn)
	if res.Committed || res.Discarded != DiscardDrawn {
		t.Errorf("release = %+v", res)
	}
}

func TestGestureReleaseOffLattice(t *testing.T) {
	l := testLayout(t, 3)
	var g Gesture
	g.Press(l, at(l, 0, 0))
	res := g.Release(l, Point{X: -100, Y: -100}, noneDrawn)
	if res.Committed || res.Discarded != DiscardOffLattice {
		t.Errorf("release = %+v", res)
	}
}

func TestGesturePressOffDotStaysIdle(t *testing.T) {
	l := testLayout(t, 3)
	var g Gesture
	p := at(l, 0, 0)
	p.X += l.Spacing() / 2
	g.Press(l, p)
	if g.Phase() != GestureIdle {
		t.Errorf("phase = %v", g.Phase())
	}
	if res := g.Release(l, at(l, 0, 1), noneDrawn); res.Committed {
		t.Errorf("release without press emitted %+v", res)
	}
}

func TestGestureMoveAwayClearsEndpoint(t *testing.T) {
	l := testLayout(t, 3)
	var g Gesture
	g.Press(l, at(l, 0, 0))
	g.Move(l, at(l, 1, 0))
	if _, _, ok := g.Preview(); !ok {
		t.Fatal("no preview on adjacent dot")
	}
	g.Move(l, Point{X: -50, Y: -50})
	if _, _, ok := g.Preview(); ok {
		t.Error("preview kept after moving off lattice")
	}
	if g.Phase() != GestureDragging {
		t.Errorf("phase = %v", g.Phase())
	}
}

func TestGestureLeaveDiscards(t *testing.T) {
	l := testLayout(t, 3)
	var g Gesture
	g.Press(l, at(l, 0, 0))
	g.Move(l, at(l, 0, 1))
	if res := g.Leave(); res.Discarded != DiscardCancelled {
		t.Errorf("leave = %+v", res)
	}
	if _, ok := g.Hover(); ok {
		t.Error("hover kept after leave")
	}
	// the release that follows must not submit the aborted drag
	if res := g.Release(l, at(l, 0, 1), noneDrawn); res.Committed {
		t.Errorf("release after leave emitted %+v", res)
	}
}

func TestGestureHoverIndependentOfDrag(t *testing.T) {
	l := testLayout(t, 3)
	var g Gesture
	g.Move(l, at(l, 2, 2))
	if d, ok := g.Hover(); !ok || d != (Dot{2, 2}) {
		t.Errorf("hover = %v %v", d, ok)
	}
	if g.Phase() != GestureIdle {
		t.Errorf("hover changed phase to %v", g.Phase())
	}
}

func TestGestureMultiTouchCancels(t *testing.T) {
	l := testLayout(t, 3)
	var g Gesture

	g.TouchStart(l, []Point{at(l, 0, 0)})
	g.TouchMove(l, []Point{at(l, 0, 1)})
	g.TouchMove(l, []Point{at(l, 0, 1), at(l, 2, 2)})
	if g.Phase() != GestureIdle {
		t.Fatalf("phase after second finger = %v", g.Phase())
	}
	if res := g.TouchEnd(l, 0, at(l, 0, 1), noneDrawn); res.Committed {
		t.Errorf("touch end after cancel emitted %+v", res)
	}
}

func TestGestureSingleTouchCommits(t *testing.T) {
	l := testLayout(t, 3)
	var g Gesture
	g.TouchStart(l, []Point{at(l, 2, 1)})
	g.TouchMove(l, []Point{at(l, 2, 2)})
	res := g.TouchEnd(l, 0, at(l, 2, 2), noneDrawn)
	if !res.Committed || res.Intent != "2-1_2-2" {
		t.Errorf("touch end = %+v", res)
	}
}

func TestGestureTouchEndWithFingersLeft(t *testing.T) {
	l := testLayout(t, 3)
	var g Gesture
	g.TouchStart(l, []Point{at(l, 0, 0)})
	if res := g.TouchEnd(l, 1, at(l, 0, 1), noneDrawn); res.Committed {
		t.Errorf("touch end with remaining finger emitted %+v", res)
	}
}
