// Package geom provides the integer rectangle geometry used by the router.
//
// Bounding boxes limit how far a connection search may expand, and cutlines
// divide device regions into halves during spatial partitioning. Cutlines sit
// between integer coordinates: a cutline at position p on axis A separates
// coordinate p (left/up side) from p+1 (right/down side), i.e. the line is at
// A = p + 0.5.
package geom

// Axis selects a device axis for a cutline.
type Axis int

const (
	// X cuts the device along a vertical line (splits into left and right).
	X Axis = iota
	// Y cuts the device along a horizontal line (splits into up and down).
	Y
)

// String returns "x" or "y".
func (a Axis) String() string {
	if a == X {
		return "x"
	}
	return "y"
}

// Side identifies one half of a cutline. Left means left of a vertical
// cutline or above a horizontal one; Right is the opposite half.
type Side int

const (
	Left Side = iota
	Right
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Left {
		return Right
	}
	return Left
}

// SideOf returns which side of the cutline at axis = pos + 0.5 the
// coordinate (x, y) falls on.
func SideOf(x, y int, axis Axis, pos int) Side {
	c := x
	if axis == Y {
		c = y
	}
	if c > pos {
		return Right
	}
	return Left
}

// BBox is an inclusive integer rectangle in grid coordinates.
// A valid box satisfies XMin <= XMax and YMin <= YMax; both borders belong
// to the box.
type BBox struct {
	XMin int `json:"xmin"`
	XMax int `json:"xmax"`
	YMin int `json:"ymin"`
	YMax int `json:"ymax"`
}

// Width returns the number of columns covered by the box.
func (b BBox) Width() int { return b.XMax - b.XMin + 1 }

// Height returns the number of rows covered by the box.
func (b BBox) Height() int { return b.YMax - b.YMin + 1 }

// Valid reports whether the box is non-empty.
func (b BBox) Valid() bool { return b.XMin <= b.XMax && b.YMin <= b.YMax }

// Contains reports whether (x, y) lies inside the box, borders included.
func (b BBox) Contains(x, y int) bool {
	return x >= b.XMin && x <= b.XMax && y >= b.YMin && y <= b.YMax
}

// ContainsBox reports whether other lies entirely inside b.
func (b BBox) ContainsBox(other BBox) bool {
	return other.XMin >= b.XMin && other.XMax <= b.XMax &&
		other.YMin >= b.YMin && other.YMax <= b.YMax
}

// Intersects reports whether b and other share at least one grid location.
func (b BBox) Intersects(other BBox) bool {
	return b.XMin <= other.XMax && other.XMin <= b.XMax &&
		b.YMin <= other.YMax && other.YMin <= b.YMax
}

// Crosses reports whether the box straddles the cutline at axis = pos + 0.5,
// i.e. min <= pos <= max on the cutline axis. A box touching the cutline
// from either side crosses it, because the border coordinate itself is part
// of the box.
func (b BBox) Crosses(axis Axis, pos int) bool {
	if axis == X {
		return b.XMin <= pos && b.XMax >= pos
	}
	return b.YMin <= pos && b.YMax >= pos
}

// SideOfCutline returns the side of the cutline the whole box lies on.
// The box must not cross the cutline.
func (b BBox) SideOfCutline(axis Axis, pos int) Side {
	if axis == X {
		return SideOf(b.XMin, 0, X, pos)
	}
	return SideOf(0, b.YMin, Y, pos)
}

// ClipToSide returns the part of b on the given side of the cutline at
// axis = pos + 0.5. The cutline coordinate pos itself stays on the Left
// (left/up) side.
func (b BBox) ClipToSide(axis Axis, pos int, side Side) BBox {
	out := b
	switch {
	case axis == X && side == Left:
		out.XMax = pos
	case axis == X && side == Right:
		out.XMin = pos + 1
	case axis == Y && side == Left:
		out.YMax = pos
	default:
		out.YMin = pos + 1
	}
	return out
}

// Union returns the smallest box covering both b and other.
func (b BBox) Union(other BBox) BBox {
	return BBox{
		XMin: min(b.XMin, other.XMin),
		XMax: max(b.XMax, other.XMax),
		YMin: min(b.YMin, other.YMin),
		YMax: max(b.YMax, other.YMax),
	}
}

// Expand grows the box by d in every direction, clamped to bounds.
func (b BBox) Expand(d int, bounds BBox) BBox {
	return BBox{
		XMin: max(bounds.XMin, b.XMin-d),
		XMax: min(bounds.XMax, b.XMax+d),
		YMin: max(bounds.YMin, b.YMin-d),
		YMax: min(bounds.YMax, b.YMax+d),
	}
}
