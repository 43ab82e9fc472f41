// Package sim simulates a differential drive robot moving among
// rectangular obstacles. Units are centimeters and seconds.
package sim

import "math"

// Size2D defines the rectangular size in 2D.
type Size2D struct {
	CX, CY float64
}

// Pos2D defines the position in 2D.
type Pos2D struct {
	X, Y float64
}

// Rect is an axis aligned rectangle, Pos2D is its lowest corner.
type Rect struct {
	Pos2D
	Size2D
}

// Pose2D defines the pose in 2D.
type Pose2D struct {
	Pos2D
	Orientation Angle
}

// Angle is the common representation of angle, in radians.
type Angle float64

// Add is a helper to add Pos2D.
func (p Pos2D) Add(p1 Pos2D) Pos2D {
	return Pos2D{X: p.X + p1.X, Y: p.Y + p1.Y}
}

// OffsetBy performs Add in-place.
func (p *Pos2D) OffsetBy(p1 Pos2D) *Pos2D {
	p.X += p1.X
	p.Y += p1.Y
	return p
}

// DistanceTo is the euclidean distance between two positions.
func (p Pos2D) DistanceTo(p1 Pos2D) float64 {
	return math.Hypot(p1.X-p.X, p1.Y-p.Y)
}

// CenteredRect creates a Rect of size cx*cy centered at c.
func CenteredRect(c Pos2D, cx, cy float64) Rect {
	return Rect{Pos2D: Pos2D{X: c.X - cx/2, Y: c.Y - cy/2}, Size2D: Size2D{CX: cx, CY: cy}}
}

// Contains tells if p is inside the rectangle, borders included.
func (r Rect) Contains(p Pos2D) bool {
	return p.X >= r.X && p.X <= r.X+r.CX && p.Y >= r.Y && p.Y <= r.Y+r.CY
}

// Grow extends the rectangle by d on every side.
func (r Rect) Grow(d float64) Rect {
	return Rect{Pos2D: Pos2D{X: r.X - d, Y: r.Y - d}, Size2D: Size2D{CX: r.CX + 2*d, CY: r.CY + 2*d}}
}

// intersect returns the entry and exit distance of a ray from o along
// the unit vector dir, using the slab method.
func (r Rect) intersect(o, dir Pos2D) (tmin, tmax float64, ok bool) {
	tmin, tmax = math.Inf(-1), math.Inf(1)
	axes := [2][4]float64{
		{o.X, dir.X, r.X, r.X + r.CX},
		{o.Y, dir.Y, r.Y, r.Y + r.CY},
	}
	for _, a := range axes {
		from, d, lo, hi := a[0], a[1], a[2], a[3]
		if d == 0 {
			if from < lo || from > hi {
				return 0, 0, false
			}
			continue
		}
		t1, t2 := (lo-from)/d, (hi-from)/d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin, tmax = math.Max(tmin, t1), math.Min(tmax, t2)
	}
	if tmax < 0 || tmin > tmax {
		return 0, 0, false
	}
	return tmin, tmax, true
}
