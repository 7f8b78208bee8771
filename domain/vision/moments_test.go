package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x0, y0, side int) Contour {
	return Contour{
		{X: x0, Y: y0},
		{X: x0, Y: y0 + side},
		{X: x0 + side, Y: y0 + side},
		{X: x0 + side, Y: y0},
	}
}

func TestPolygonArea(t *testing.T) {
	assert.Equal(t, 16.0, PolygonArea(square(10, 10, 4)))
	assert.Equal(t, 0.0, PolygonArea(Contour{{X: 1, Y: 1}, {X: 2, Y: 2}}))
	assert.Equal(t, 0.0, PolygonArea(nil))
}

func TestPolygonMoments_CentroidOfSquare(t *testing.T) {
	m := PolygonMoments(square(10, 20, 4))
	require.InDelta(t, 16.0, m.M00, 1e-9)

	x, y, ok := m.Centroid()
	require.True(t, ok)
	assert.Equal(t, 12, x)
	assert.Equal(t, 22, y)
}

func TestPolygonMoments_OrientationIndependent(t *testing.T) {
	cw := square(0, 0, 6)
	ccw := Contour{cw[3], cw[2], cw[1], cw[0]}
	assert.Equal(t, PolygonMoments(cw), PolygonMoments(ccw))
}

func TestMoments_DegenerateHasNoCentroid(t *testing.T) {
	_, _, ok := PolygonMoments(Contour{{X: 3, Y: 3}}).Centroid()
	assert.False(t, ok)
}

func TestContourBounds(t *testing.T) {
	assert.Equal(t, image.Rect(10, 20, 15, 25), square(10, 20, 4).Bounds())
	assert.True(t, Contour(nil).Bounds().Empty())
}

func TestHSVImage_SetAt(t *testing.T) {
	m := NewHSVImage(image.Rect(5, 5, 8, 7))
	m.Set(6, 6, HSV{H: 90, S: 10, V: 250})
	m.Set(100, 100, HSV{H: 1}) // ignored
	assert.Equal(t, HSV{H: 90, S: 10, V: 250}, m.At(6, 6))
	assert.Equal(t, HSV{}, m.At(5, 5))
	assert.Equal(t, HSV{}, m.At(0, 0))
}
