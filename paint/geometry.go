// Package paint defines the data exchanged with an immediate-mode GUI library.
//
// The GUI library itself is an external collaborator. Each frame it consumes a
// RawInput, produces a FullOutput, and tessellates the output shapes into
// ClippedPrimitives. The types here are the contract between that library and
// the render pipeline in package render.
//
// All coordinates are in logical points unless a name says otherwise.
// Multiply by pixels-per-point to get physical pixels.
package paint

import "github.com/chewxy/math32"

// Pos2 is a position or size in logical points.
type Pos2 struct {
	X, Y float32
}

// Rect is an axis-aligned rectangle in logical points.
// Min is the top-left corner, Max the bottom-right corner.
type Rect struct {
	Min, Max Pos2
}

// NewRect returns the rectangle spanning (x0, y0)-(x1, y1).
func NewRect(x0, y0, x1, y1 float32) Rect {
	return Rect{Min: Pos2{X: x0, Y: y0}, Max: Pos2{X: x1, Y: y1}}
}

// Width returns Max.X - Min.X.
func (r Rect) Width() float32 { return r.Max.X - r.Min.X }

// Height returns Max.Y - Min.Y.
func (r Rect) Height() float32 { return r.Max.Y - r.Min.Y }

// IsPositive reports whether the rectangle has a positive area.
func (r Rect) IsPositive() bool { return r.Width() > 0 && r.Height() > 0 }

// Scale multiplies every coordinate by f.
func (r Rect) Scale(f float32) Rect {
	return Rect{
		Min: Pos2{X: r.Min.X * f, Y: r.Min.Y * f},
		Max: Pos2{X: r.Max.X * f, Y: r.Max.Y * f},
	}
}

// Round rounds every coordinate to the nearest integer, halves away from zero.
func (r Rect) Round() Rect {
	return Rect{
		Min: Pos2{X: math32.Round(r.Min.X), Y: math32.Round(r.Min.Y)},
		Max: Pos2{X: math32.Round(r.Max.X), Y: math32.Round(r.Max.Y)},
	}
}

// Everything is a rectangle that contains every other rectangle.
var Everything = Rect{
	Min: Pos2{X: -math32.MaxFloat32, Y: -math32.MaxFloat32},
	Max: Pos2{X: math32.MaxFloat32, Y: math32.MaxFloat32},
}

// Color32 is a premultiplied sRGBA color, as the GUI library emits it.
type Color32 [4]uint8

// Common colors.
var (
	Transparent = Color32{0, 0, 0, 0}
	White       = Color32{255, 255, 255, 255}
	Black       = Color32{0, 0, 0, 255}
)

// Vertex is one tessellated vertex.
//
// The GPU layout is 20 bytes:
//
//	pos   (vec2<f32>)   = 8 bytes (location 0)
//	uv    (vec2<f32>)   = 8 bytes (location 1)
//	color (unorm8x4)    = 4 bytes (location 2)
type Vertex struct {
	Pos   Pos2
	UV    Pos2
	Color Color32
}

// VertexSize is the byte size of one packed Vertex.
const VertexSize = 20

// Mesh is an indexed triangle list that samples a single texture.
type Mesh struct {
	Indices   []uint32
	Vertices  []Vertex
	TextureID TextureID
}

// IsEmpty reports whether the mesh has nothing to draw.
func (m *Mesh) IsEmpty() bool {
	return m == nil || len(m.Indices) == 0 || len(m.Vertices) == 0
}

// PaintCallback is an opaque custom-paint request positioned at Rect.
//
// Callback carries a type-erased payload. The render pipeline only accepts
// payloads returned by render.CallbackRegistry.Register; anything else is rejected at
// draw-list build time.
type PaintCallback struct {
	Rect     Rect
	Callback any
}

// ClippedPrimitive is one paint job: either a Mesh or a PaintCallback, clipped
// to ClipRect. Exactly one of Mesh and Callback is set.
type ClippedPrimitive struct {
	ClipRect Rect
	Mesh     *Mesh
	Callback *PaintCallback
}

// ClippedShape is a not yet tessellated shape. Shape is owned by the GUI
// library and never inspected by this module.
type ClippedShape struct {
	ClipRect Rect
	Shape    any
}
