package roulette

import (
	"fmt"
	"image"
	"math"
	"time"
)

// Wheel is the detected wheel boundary in frame pixel coordinates.
type Wheel struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Radius int `json:"radius"`
}

// Center returns the wheel center as a point.
func (w Wheel) Center() image.Point { return image.Pt(w.X, w.Y) }

// Contains reports whether p lies within the wheel radius (boundary included).
func (w Wheel) Contains(p image.Point) bool {
	return math.Hypot(float64(p.X-w.X), float64(p.Y-w.Y)) <= float64(w.Radius)
}

func (w Wheel) String() string { return fmt.Sprintf("wheel(%d,%d r=%d)", w.X, w.Y, w.Radius) }

// Ball is the detected ball centroid in frame pixel coordinates.
type Ball struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Point returns the ball position as a point.
func (b Ball) Point() image.Point { return image.Pt(b.X, b.Y) }

func (b Ball) String() string { return fmt.Sprintf("ball(%d,%d)", b.X, b.Y) }

// Result is the outcome of one detection pass over a frame.
type Result struct {
	Wheel     *Wheel        `json:"wheel,omitempty"`
	Ball      *Ball         `json:"ball,omitempty"`
	BothFound bool          `json:"both_found"`
	At        time.Time     `json:"at"`
	Duration  time.Duration `json:"duration_ns"`
}

// Detector runs a detection pass over one frame.
type Detector interface {
	Detect(frame *image.RGBA) Result
}
