package vision

import "math"

// Moments holds the spatial moments of a contour up to first order.
type Moments struct {
	M00, M10, M01 float64
}

// Centroid returns the truncated centroid; ok is false when M00 is zero.
func (m Moments) Centroid() (x, y int, ok bool) {
	if m.M00 == 0 {
		return 0, 0, false
	}
	return int(m.M10 / m.M00), int(m.M01 / m.M00), true
}

// PolygonMoments computes contour moments with Green's theorem, the way
// OpenCV's moments() treats a point vector. The result is orientation
// independent: a clockwise polygon yields the same positive M00.
func PolygonMoments(c Contour) Moments {
	n := len(c)
	if n < 3 {
		return Moments{}
	}
	var a00, a10, a01 float64
	prev := c[n-1]
	for _, p := range c {
		xi1, yi1 := float64(prev.X), float64(prev.Y)
		xi, yi := float64(p.X), float64(p.Y)
		cross := xi1*yi - xi*yi1
		a00 += cross
		a10 += cross * (xi1 + xi)
		a01 += cross * (yi1 + yi)
		prev = p
	}
	if a00 == 0 {
		return Moments{}
	}
	m := Moments{M00: a00 / 2, M10: a10 / 6, M01: a01 / 6}
	if m.M00 < 0 {
		m.M00, m.M10, m.M01 = -m.M00, -m.M10, -m.M01
	}
	return m
}

// PolygonArea returns the absolute shoelace area of the contour.
func PolygonArea(c Contour) float64 {
	n := len(c)
	if n < 3 {
		return 0
	}
	var s float64
	prev := c[n-1]
	for _, p := range c {
		s += float64(prev.X)*float64(p.Y) - float64(p.X)*float64(prev.Y)
		prev = p
	}
	return math.Abs(s) / 2
}
