package purego

import (
	"image"

	"github.com/DavidGR0788/ruleta/domain/vision"
)

// Moore neighbourhood, clockwise in image coordinates starting west.
var ring = [8]image.Point{
	{X: -1, Y: 0}, {X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
	{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: -1, Y: 1},
}

type binaryMask struct {
	fg   []bool
	w, h int
}

func (m *binaryMask) at(p image.Point) bool {
	if p.X < 0 || p.Y < 0 || p.X >= m.w || p.Y >= m.h {
		return false
	}
	return m.fg[p.Y*m.w+p.X]
}

// externalContours returns the outer boundary of every 8-connected
// foreground component that is not enclosed by another component, in raster
// order of each component's top-left pixel.
func externalContours(img *image.Gray) []vision.Contour {
	b := img.Bounds()
	m := &binaryMask{fg: make([]bool, b.Dx()*b.Dy()), w: b.Dx(), h: b.Dy()}
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			m.fg[y*m.w+x] = img.Pix[y*img.Stride+x] != 0
		}
	}
	outside := outerBackground(m)
	visited := make([]bool, len(m.fg))
	var out []vision.Contour
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			i := y*m.w + x
			if !m.fg[i] || visited[i] {
				continue
			}
			markComponent(m, visited, image.Pt(x, y))
			// The pixel above a component's first raster pixel is background;
			// if the border cannot reach it the component sits in a hole.
			if y > 0 && !outside[i-m.w] {
				continue
			}
			out = append(out, traceBoundary(m, image.Pt(x, y)))
		}
	}
	return out
}

// outerBackground marks background pixels 4-connected to the image border.
func outerBackground(m *binaryMask) []bool {
	seen := make([]bool, len(m.fg))
	var stack []int
	push := func(x, y int) {
		i := y*m.w + x
		if !m.fg[i] && !seen[i] {
			seen[i] = true
			stack = append(stack, i)
		}
	}
	for x := 0; x < m.w; x++ {
		push(x, 0)
		push(x, m.h-1)
	}
	for y := 0; y < m.h; y++ {
		push(0, y)
		push(m.w-1, y)
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%m.w, i/m.w
		if x > 0 {
			push(x-1, y)
		}
		if x < m.w-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < m.h-1 {
			push(x, y+1)
		}
	}
	return seen
}

func markComponent(m *binaryMask, visited []bool, start image.Point) {
	stack := []image.Point{start}
	visited[start.Y*m.w+start.X] = true
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range ring {
			n := p.Add(d)
			if !m.at(n) {
				continue
			}
			j := n.Y*m.w + n.X
			if !visited[j] {
				visited[j] = true
				stack = append(stack, n)
			}
		}
	}
}

// traceBoundary walks the outer boundary clockwise from start, which must be
// the component's first pixel in raster order. It stops when the walk is
// about to repeat its first move.
func traceBoundary(m *binaryMask, start image.Point) vision.Contour {
	contour := vision.Contour{start}
	cur := start
	back := 0 // west of start is background
	var first image.Point
	moved := false
	limit := 4*len(m.fg) + 8
	for step := 0; step < limit; step++ {
		next, nextBack, ok := advance(m, cur, back)
		if !ok {
			break // isolated pixel
		}
		if cur == start && moved && next == first {
			break
		}
		if !moved {
			first, moved = next, true
		}
		cur, back = next, nextBack
		contour = append(contour, cur)
	}
	if n := len(contour); n > 1 && contour[n-1] == start {
		contour = contour[:n-1]
	}
	return contour
}

// advance scans the ring of cur clockwise starting after the backtrack
// direction and returns the first foreground neighbour together with the
// backtrack direction seen from that neighbour.
func advance(m *binaryMask, cur image.Point, back int) (image.Point, int, bool) {
	for k := 1; k <= 8; k++ {
		d := (back + k) % 8
		p := cur.Add(ring[d])
		if !m.at(p) {
			continue
		}
		prev := cur.Add(ring[(back+k-1)%8])
		return p, ringIndex(prev.Sub(p)), true
	}
	return image.Point{}, 0, false
}

func ringIndex(d image.Point) int {
	for i, r := range ring {
		if r == d {
			return i
		}
	}
	return 0
}
