package arena

import "testing"

func TestDirectionOpposite(t *testing.T) {
	cases := map[Direction]Direction{
		Up:    Down,
		Down:  Up,
		Left:  Right,
		Right: Left,
	}
	for d, want := range cases {
		if got := d.Opposite(); got != want {
			t.Errorf("%v.Opposite() = %v, want %v", d, got, want)
		}
	}
}

func TestDirectionDelta(t *testing.T) {
	dx, dy := Up.Delta()
	if dx != 0 || dy != -1 {
		t.Errorf("Up.Delta() = (%v,%v), want (0,-1)", dx, dy)
	}
	dx, dy = Right.Delta()
	if dx != 1 || dy != 0 {
		t.Errorf("Right.Delta() = (%v,%v), want (1,0)", dx, dy)
	}
}

func TestDirectionIsHorizontal(t *testing.T) {
	if !Left.IsHorizontal() || !Right.IsHorizontal() {
		t.Error("Left/Right should be horizontal")
	}
	if Up.IsHorizontal() || Down.IsHorizontal() {
		t.Error("Up/Down should not be horizontal")
	}
}

func TestSegmentIsAxisAligned(t *testing.T) {
	seg := Segment{Start: Point{0, 0}, End: Point{1, 0}}
	if !seg.IsAxisAligned() {
		t.Error("horizontal segment should be axis-aligned")
	}
	diag := Segment{Start: Point{0, 0}, End: Point{1, 1}}
	if diag.IsAxisAligned() {
		t.Error("diagonal segment should not be axis-aligned")
	}
}

func TestFatAABBHorizontal(t *testing.T) {
	seg := Segment{Start: Point{0, 0}, End: Point{1, 0}}
	box := fatAABB(seg, 0.1)
	if box.MinX != 0 || box.MaxX != 1 {
		t.Errorf("unexpected x range: %v..%v", box.MinX, box.MaxX)
	}
	if box.MinY != -0.1 || box.MaxY != 0.1 {
		t.Errorf("unexpected y range: %v..%v", box.MinY, box.MaxY)
	}
}

func TestFatAABBVertical(t *testing.T) {
	seg := Segment{Start: Point{0, 0}, End: Point{0, 1}}
	box := fatAABB(seg, 0.1)
	if box.MinY != 0 || box.MaxY != 1 {
		t.Errorf("unexpected y range: %v..%v", box.MinY, box.MaxY)
	}
	if box.MinX != -0.1 || box.MaxX != 0.1 {
		t.Errorf("unexpected x range: %v..%v", box.MinX, box.MaxX)
	}
}

func TestLineToLineNoOverlap(t *testing.T) {
	a := Segment{Start: Point{0, 0}, End: Point{1, 0}}
	b := Segment{Start: Point{0, 5}, End: Point{1, 5}}
	_, _, hit := lineToLine(a, b, 0.01)
	if hit {
		t.Error("expected no collision for distant segments")
	}
}

func TestLineToLineOverlap(t *testing.T) {
	a := Segment{Start: Point{-1, 0}, End: Point{1, 0}} // travelling +x
	b := Segment{Start: Point{0, -1}, End: Point{0, 1}} // vertical wall crossing x=0
	start, _, hit := lineToLine(a, b, 0.01)
	if !hit {
		t.Fatal("expected collision where horizontal crosses vertical")
	}
	if start.X < -0.02 || start.X > 0.02 {
		t.Errorf("collision entry point x = %v, want near 0", start.X)
	}
}

func TestLerpTimeMidpoint(t *testing.T) {
	seg := Segment{Start: Point{0, 0}, End: Point{10, 0}}
	mid := Point{5, 0}
	ts := lerpTime(seg, mid, 1000, 100)
	if ts != 1050 {
		t.Errorf("lerpTime midpoint = %v, want 1050", ts)
	}
}

func TestLerpTimeZeroLengthSegment(t *testing.T) {
	seg := Segment{Start: Point{2, 2}, End: Point{2, 2}}
	ts := lerpTime(seg, Point{2, 2}, 500, 100)
	if ts != 500 {
		t.Errorf("lerpTime on zero-length segment = %v, want startMs 500", ts)
	}
}

func TestInBounds(t *testing.T) {
	if !inBounds(Point{0, 0}, 1.5) {
		t.Error("origin should be in bounds")
	}
	if inBounds(Point{1.6, 0}, 1.5) {
		t.Error("x=1.6 should be out of bounds for aspectRatio 1.5")
	}
	if inBounds(Point{0, 1.01}, 1.5) {
		t.Error("y=1.01 should be out of bounds")
	}
}
