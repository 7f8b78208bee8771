package purego

import (
	"image"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/blur"

	"github.com/DavidGR0788/ruleta/domain/vision"
)

const (
	// houghSmoothing is the Gaussian radius applied before gradients are
	// taken. Without it the 3x3 Sobel directions on an aliased rim scatter
	// the center votes over several cells.
	houghSmoothing = 2.0

	// maxCenterCandidates bounds how many accumulator peaks are refined.
	maxCenterCandidates = 64

	// fitTolerance is the distance from the current radius within which
	// edge pixels take part in the circle fit.
	fitTolerance = 6.0

	fitIterations = 3
)

// HoughCircles follows the classic HOUGH_GRADIENT scheme:
//
//  1. Gaussian smoothing, then Canny edges (Sobel L1 magnitude, non-maximum
//     suppression, hysteresis between EdgeThreshold/2 and EdgeThreshold).
//  2. Every edge pixel votes along its gradient line, both directions, for
//     radii in [MinRadius, MaxRadius] into an accumulator scaled by 1/DP.
//  3. Local maxima of the 3x3 summed accumulator above AccumulatorThreshold
//     become center candidates, strongest first.
//  4. Each candidate starts at the vote centroid around its peak and is
//     refined by a least-squares fit over the edge pixels near its best
//     radius. Circles with fewer than AccumulatorThreshold supporting edge
//     pixels, a radius outside the range, or a center closer than
//     MinDistance to an accepted circle are dropped.
func (Ops) HoughCircles(src *image.Gray, p vision.HoughParams) ([]vision.Circle, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, vision.ErrEmptyImage
	}
	if p.DP < 1 {
		p.DP = 1
	}
	if p.MinRadius < 1 {
		p.MinRadius = 1
	}
	if p.MaxRadius < p.MinRadius {
		return nil, nil
	}
	img := channelToGray(blur.Gaussian(rebaseGray(src), houghSmoothing))
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	dx, dy := sobel(img)
	edges := canny(dx, dy, w, h, math.Max(1, p.EdgeThreshold/2), p.EdgeThreshold)

	var edgePts []image.Point
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if edges[y*w+x] {
				edgePts = append(edgePts, image.Pt(x, y))
			}
		}
	}
	if len(edgePts) == 0 {
		return nil, nil
	}

	acc, aw, ah := vote(edgePts, dx, dy, w, h, p)
	centers := peaks(sum3x3(acc, aw, ah), aw, ah, p.AccumulatorThreshold)
	if len(centers) > maxCenterCandidates {
		centers = centers[:maxCenterCandidates]
	}

	minDist2 := p.MinDistance * p.MinDistance
	var out []vision.Circle
	for _, c := range centers {
		cx, cy := voteCentroid(acc, aw, ah, c, p.DP)
		if near(out, cx, cy, minDist2) {
			continue
		}
		circle, support := fitCircle(edgePts, cx, cy, p.MinRadius, p.MaxRadius)
		if float64(support) < p.AccumulatorThreshold {
			continue
		}
		if circle.Radius < float64(p.MinRadius) || circle.Radius > float64(p.MaxRadius) {
			continue
		}
		if near(out, circle.X, circle.Y, minDist2) {
			continue
		}
		out = append(out, circle)
	}
	return out, nil
}

func near(circles []vision.Circle, x, y, dist2 float64) bool {
	for _, o := range circles {
		dx, dy := o.X-x, o.Y-y
		if dx*dx+dy*dy < dist2 {
			return true
		}
	}
	return false
}

// sobel returns 3x3 Sobel derivatives with replicated borders.
func sobel(img *image.Gray) (dx, dy []int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dx = make([]int, w*h)
	dy = make([]int, w*h)
	at := func(x, y int) int {
		x = clamp(x, 0, w-1)
		y = clamp(y, 0, h-1)
		return int(img.Pix[y*img.Stride+x])
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := (at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)) - (at(x-1, y-1) + 2*at(x-1, y) + at(x-1, y+1))
			gy := (at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)) - (at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1))
			dx[y*w+x] = gx
			dy[y*w+x] = gy
		}
	}
	return dx, dy
}

func canny(dx, dy []int, w, h int, low, high float64) []bool {
	mag := make([]float64, w*h)
	for i := range mag {
		mag[i] = math.Abs(float64(dx[i])) + math.Abs(float64(dy[i]))
	}
	// 0: none, 1: weak, 2: strong
	state := make([]uint8, w*h)
	var stack []int
	tan22 := math.Tan(math.Pi / 8)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			m := mag[i]
			if m <= low {
				continue
			}
			ax, ay := math.Abs(float64(dx[i])), math.Abs(float64(dy[i]))
			var n1, n2 float64
			switch {
			case ay <= ax*tan22: // horizontal gradient
				n1, n2 = mag[i-1], mag[i+1]
			case ax <= ay*tan22: // vertical gradient
				n1, n2 = mag[i-w], mag[i+w]
			case (dx[i] > 0) == (dy[i] > 0):
				n1, n2 = mag[i-w-1], mag[i+w+1]
			default:
				n1, n2 = mag[i-w+1], mag[i+w-1]
			}
			if m <= n1 || m < n2 {
				continue
			}
			if m > high {
				state[i] = 2
				stack = append(stack, i)
			} else {
				state[i] = 1
			}
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for ny := y - 1; ny <= y+1; ny++ {
			for nx := x - 1; nx <= x+1; nx++ {
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if state[j] == 1 {
					state[j] = 2
					stack = append(stack, j)
				}
			}
		}
	}
	edges := make([]bool, w*h)
	for i, s := range state {
		edges[i] = s == 2
	}
	return edges
}

func vote(edgePts []image.Point, dx, dy []int, w, h int, p vision.HoughParams) ([]int, int, int) {
	aw := int(float64(w)/p.DP) + 1
	ah := int(float64(h)/p.DP) + 1
	acc := make([]int, aw*ah)
	idp := 1 / p.DP
	for _, pt := range edgePts {
		i := pt.Y*w + pt.X
		gx, gy := float64(dx[i]), float64(dy[i])
		mag := math.Hypot(gx, gy)
		if mag == 0 {
			continue
		}
		ux, uy := gx/mag, gy/mag
		for _, sign := range [2]float64{1, -1} {
			for r := p.MinRadius; r <= p.MaxRadius; r++ {
				ax := int((float64(pt.X) + 0.5 + sign*float64(r)*ux) * idp)
				ay := int((float64(pt.Y) + 0.5 + sign*float64(r)*uy) * idp)
				if ax < 0 || ay < 0 || ax >= aw || ay >= ah {
					break
				}
				acc[ay*aw+ax]++
			}
		}
	}
	return acc, aw, ah
}

// sum3x3 returns the accumulator with every interior cell replaced by the
// sum of its 3x3 neighbourhood.
func sum3x3(acc []int, aw, ah int) []int {
	out := make([]int, len(acc))
	for y := 1; y < ah-1; y++ {
		for x := 1; x < aw-1; x++ {
			i := y*aw + x
			out[i] = acc[i-aw-1] + acc[i-aw] + acc[i-aw+1] +
				acc[i-1] + acc[i] + acc[i+1] +
				acc[i+aw-1] + acc[i+aw] + acc[i+aw+1]
		}
	}
	return out
}

// peaks returns accumulator indices above threshold that are local maxima,
// sorted by votes descending then by index.
func peaks(acc []int, aw, ah int, threshold float64) []int {
	var out []int
	for y := 1; y < ah-1; y++ {
		for x := 1; x < aw-1; x++ {
			i := y*aw + x
			v := acc[i]
			if float64(v) <= threshold {
				continue
			}
			if v > acc[i-1] && v >= acc[i+1] && v > acc[i-aw] && v >= acc[i+aw] {
				out = append(out, i)
			}
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return acc[out[a]] > acc[out[b]] })
	return out
}

// voteCentroid returns the vote-weighted center of the 5x5 cells around
// accumulator index i, in image coordinates.
func voteCentroid(acc []int, aw, ah, i int, dp float64) (float64, float64) {
	px, py := i%aw, i/aw
	var sw, sx, sy float64
	for y := max(py-2, 0); y <= min(py+2, ah-1); y++ {
		for x := max(px-2, 0); x <= min(px+2, aw-1); x++ {
			v := float64(acc[y*aw+x])
			sw += v
			sx += v * (float64(x) + 0.5)
			sy += v * (float64(y) + 0.5)
		}
	}
	if sw == 0 {
		return (float64(px) + 0.5) * dp, (float64(py) + 0.5) * dp
	}
	return sx / sw * dp, sy / sw * dp
}

// fitCircle starts from the best radius around (cx, cy) and repeatedly fits
// a circle to the edge pixels within fitTolerance of it. support counts the
// edge pixels within 1.5 pixels of the final circle.
func fitCircle(edgePts []image.Point, cx, cy float64, minR, maxR int) (c vision.Circle, support int) {
	r, n := bestRadius(edgePts, cx, cy, minR, maxR)
	if n == 0 {
		return vision.Circle{}, 0
	}
	sel := make([]image.Point, 0, len(edgePts))
	for i := 0; i < fitIterations; i++ {
		sel = sel[:0]
		for _, pt := range edgePts {
			if math.Abs(math.Hypot(float64(pt.X)+0.5-cx, float64(pt.Y)+0.5-cy)-r) <= fitTolerance {
				sel = append(sel, pt)
			}
		}
		fx, fy, fr, ok := leastSquaresCircle(sel, cx, cy)
		if !ok {
			break
		}
		cx, cy, r = fx, fy, fr
	}
	for _, pt := range edgePts {
		if math.Abs(math.Hypot(float64(pt.X)+0.5-cx, float64(pt.Y)+0.5-cy)-r) <= 1.5 {
			support++
		}
	}
	return vision.Circle{X: cx, Y: cy, Radius: r}, support
}

// leastSquaresCircle fits x²+y²+Dx+Ey+F = 0 to pts (algebraic fit) in
// coordinates relative to (ox, oy).
func leastSquaresCircle(pts []image.Point, ox, oy float64) (cx, cy, r float64, ok bool) {
	if len(pts) < 3 {
		return 0, 0, 0, false
	}
	var suu, suv, svv, su, sv, n, suz, svz, sz float64
	for _, pt := range pts {
		u := float64(pt.X) + 0.5 - ox
		v := float64(pt.Y) + 0.5 - oy
		z := u*u + v*v
		suu += u * u
		suv += u * v
		svv += v * v
		su += u
		sv += v
		n++
		suz += u * z
		svz += v * z
		sz += z
	}
	a := [3][3]float64{{suu, suv, su}, {suv, svv, sv}, {su, sv, n}}
	b := [3]float64{-suz, -svz, -sz}
	d := det3(a)
	if math.Abs(d) < 1e-9 {
		return 0, 0, 0, false
	}
	var sol [3]float64
	for col := 0; col < 3; col++ {
		m := a
		for row := 0; row < 3; row++ {
			m[row][col] = b[row]
		}
		sol[col] = det3(m) / d
	}
	ux, uy := -sol[0]/2, -sol[1]/2
	r2 := ux*ux + uy*uy - sol[2]
	if r2 <= 0 {
		return 0, 0, 0, false
	}
	return ox + ux, oy + uy, math.Sqrt(r2), true
}

func det3(m [3][3]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// bestRadius histograms edge distances from (cx, cy) in one-pixel bins and
// returns the mean distance inside the strongest three-bin window together
// with the number of edge pixels in it.
func bestRadius(edgePts []image.Point, cx, cy float64, minR, maxR int) (float64, int) {
	n := maxR - minR + 1
	counts := make([]int, n)
	sums := make([]float64, n)
	for _, pt := range edgePts {
		d := math.Hypot(float64(pt.X)+0.5-cx, float64(pt.Y)+0.5-cy)
		bin := int(math.Round(d)) - minR
		if bin < 0 || bin >= n {
			continue
		}
		counts[bin]++
		sums[bin] += d
	}
	best, bestCount := -1, 0
	for i := 0; i < n; i++ {
		c := counts[i]
		if i > 0 {
			c += counts[i-1]
		}
		if i < n-1 {
			c += counts[i+1]
		}
		if c > bestCount {
			best, bestCount = i, c
		}
	}
	if best < 0 {
		return 0, 0
	}
	var sum float64
	for i := best - 1; i <= best+1; i++ {
		if i >= 0 && i < n {
			sum += sums[i]
		}
	}
	return sum / float64(bestCount), bestCount
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
