package images

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/DavidGR0788/ruleta/domain/roulette"
)

// Overlay colours.
var (
	WheelColor  = color.RGBA{G: 255, A: 255}
	CenterColor = color.RGBA{R: 255, A: 255}
	BallColor   = color.RGBA{B: 255, A: 255}
	panelColor  = color.RGBA{A: 255}
)

const (
	rimThickness = 3
	centerRadius = 5
	ballRadius   = 8
	lineHeight   = 16
)

// StatusLine summarises a result the way the overlay prints it.
func StatusLine(res roulette.Result) string {
	yesNo := func(b bool) string {
		if b {
			return "YES"
		}
		return "NO"
	}
	return fmt.Sprintf("Wheel: %s | Ball: %s", yesNo(res.Wheel != nil), yesNo(res.Ball != nil))
}

// Annotate returns a copy of frame with the detections drawn on it: the
// wheel rim in green with a red centre, the ball as a blue dot, and a status
// line plus any extra lines in the top-left corner. frame is not modified.
func Annotate(frame *image.RGBA, res roulette.Result, extra ...string) *image.RGBA {
	b := frame.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, frame, b.Min, draw.Src)

	if w := res.Wheel; w != nil {
		ring(out, w.X, w.Y, w.Radius, rimThickness, WheelColor)
		disc(out, w.X, w.Y, centerRadius, CenterColor)
		label(out, w.X-50, w.Y-w.Radius-10, fmt.Sprintf("Wheel R:%d", w.Radius), WheelColor)
	}
	if ball := res.Ball; ball != nil {
		disc(out, ball.X, ball.Y, ballRadius, BallColor)
		label(out, ball.X-20, ball.Y-15, "BALL", BallColor)
	}

	lines := append([]string{StatusLine(res)}, extra...)
	status := WheelColor
	if res.Wheel == nil {
		status = CenterColor
	}
	panel(out, b.Min.X+5, b.Min.Y+5, lines, status)
	return out
}

// ring draws a circle outline of the given thickness centred on the radius.
func ring(img *image.RGBA, cx, cy, r, thickness int, c color.RGBA) {
	inner := float64(r) - float64(thickness)/2
	outer := float64(r) + float64(thickness)/2
	lo, hi := inner*inner, outer*outer
	span := r + thickness
	for y := cy - span; y <= cy+span; y++ {
		for x := cx - span; x <= cx+span; x++ {
			dx, dy := float64(x-cx), float64(y-cy)
			if d := dx*dx + dy*dy; d >= lo && d <= hi {
				setIn(img, x, y, c)
			}
		}
	}
}

func disc(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if (x-cx)*(x-cx)+(y-cy)*(y-cy) <= r*r {
				setIn(img, x, y, c)
			}
		}
	}
}

func setIn(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Rect) {
		img.SetRGBA(x, y, c)
	}
}

// label draws text with its baseline at (x, y).
func label(img *image.RGBA, x, y int, text string, c color.RGBA) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// panel draws lines on a black box so they stay readable on any frame.
func panel(img *image.RGBA, x, y int, lines []string, c color.RGBA) {
	width := 0
	for _, l := range lines {
		if adv := font.MeasureString(basicfont.Face7x13, l).Ceil(); adv > width {
			width = adv
		}
	}
	box := image.Rect(x, y, x+width+10, y+len(lines)*lineHeight+6).Intersect(img.Rect)
	draw.Draw(img, box, image.NewUniform(panelColor), image.Point{}, draw.Src)
	for i, l := range lines {
		label(img, x+5, y+(i+1)*lineHeight, l, c)
	}
}
