package sim

import "math"

// World is a walled arena with rectangular obstacles.
type World struct {
	Bounds    Rect
	Obstacles []Rect
}

// NewArena creates a square arena of side size centered at the origin.
func NewArena(size float64) *World {
	return &World{Bounds: CenteredRect(Pos2D{}, size, size)}
}

// Range returns the distance from o along heading to the nearest wall or
// obstacle, +Inf if nothing is hit.
func (w *World) Range(o Pos2D, heading Angle) float64 {
	dir := heading.Project(1)
	dist := math.Inf(1)
	if w.Bounds.CX > 0 && w.Bounds.CY > 0 {
		if tmin, tmax, ok := w.Bounds.intersect(o, dir); ok && tmin <= 0 {
			dist = tmax
		} else {
			// outside the arena.
			return 0
		}
	}
	for _, r := range w.Obstacles {
		tmin, _, ok := r.intersect(o, dir)
		if !ok {
			continue
		}
		if tmin < 0 {
			return 0
		}
		dist = math.Min(dist, tmin)
	}
	return dist
}

// Blocked tells if a round body of radius r at p overlaps a wall or an
// obstacle.
func (w *World) Blocked(p Pos2D, r float64) bool {
	if w.Bounds.CX > 0 && w.Bounds.CY > 0 && !w.Bounds.Grow(-r).Contains(p) {
		return true
	}
	for _, o := range w.Obstacles {
		if o.Grow(r).Contains(p) {
			return true
		}
	}
	return false
}
