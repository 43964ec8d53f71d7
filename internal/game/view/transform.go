package view

import "github.com/cory-johannsen/mudmap/internal/game/scene"

// Viewport is the size of the rendering surface in screen pixels.
type Viewport struct {
	Width  float64
	Height float64
}

// Center returns the midpoint of the viewport.
func (v Viewport) Center() scene.Point {
	return scene.Point{X: v.Width / 2, Y: v.Height / 2}
}

// Transform maps scene coordinates onto the viewport: p*Scale + Offset.
type Transform struct {
	Scale  float64
	Offset scene.Point
}

// Apply maps one scene point.
func (t Transform) Apply(p scene.Point) scene.Point {
	return scene.Point{X: p.X*t.Scale + t.Offset.X, Y: p.Y*t.Scale + t.Offset.Y}
}

// Invert maps a viewport point back into scene coordinates.
//
// Precondition: t.Scale must be non-zero.
func (t Transform) Invert(p scene.Point) scene.Point {
	return scene.Point{X: (p.X - t.Offset.X) / t.Scale, Y: (p.Y - t.Offset.Y) / t.Scale}
}

// TransformFor centers the scene content in vp, scaled by the state's zoom
// and shifted by its pan offset.
func TransformFor(sc *scene.Scene, s State, vp Viewport) Transform {
	content := contentBounds(sc).Center()
	center := vp.Center()
	return Transform{
		Scale: s.Zoom,
		Offset: scene.Point{
			X: center.X + s.Pan.X - content.X*s.Zoom,
			Y: center.Y + s.Pan.Y - content.Y*s.Zoom,
		},
	}
}

// contentBounds is the room bounds extended upward to include the title.
func contentBounds(sc *scene.Scene) scene.Rect {
	b := sc.Bounds
	if titleTop := sc.Title.At.Y - sc.Title.Size; titleTop < b.Min.Y {
		b.Min.Y = titleTop
	}
	return b
}
