// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/uibridge/paint"
)

var fullScreen = paint.NewRect(0, 0, 800, 600)

func decodeIndices(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return out
}

func buildList(t *testing.T, registry *CallbackRegistry, ppp float32, prims ...paint.ClippedPrimitive) *DrawList {
	t.Helper()
	var l DrawList
	BuildDrawList(&l, DrawListInput{
		Owner:          7,
		Primitives:     prims,
		PixelsPerPoint: ppp,
		Width:          800,
		Height:         600,
	}, registry)
	return &l
}

func TestBuildDrawListSingleTriangle(t *testing.T) {
	tex := paint.Managed(3)
	l := buildList(t, NewCallbackRegistry(), 1, meshPrim(fullScreen, 3, 3, tex))

	require.Len(t, l.Commands, 1)
	cmd := l.Commands[0]
	assert.Equal(t, URect{W: 800, H: 600}, cmd.ClipRect)

	mesh, ok := cmd.Primitive.(*MeshDraw)
	require.True(t, ok)
	assert.Equal(t, uint32(3), mesh.IndexCount)
	assert.Equal(t, TextureKey{Kind: paint.TextureManaged, Owner: 7, ID: 3}, mesh.Texture)

	assert.Equal(t, []uint32{0, 1, 2}, decodeIndices(l.Indices))
	assert.Len(t, l.Vertices, 3*paint.VertexSize)
	assert.Equal(t, uint32(3), l.VertexCount())
}

func TestBuildDrawListIndexBias(t *testing.T) {
	l := buildList(t, NewCallbackRegistry(), 1,
		meshPrim(fullScreen, 4, 6, paint.FontTexture),
		meshPrim(fullScreen, 6, 6, paint.FontTexture),
	)

	require.Len(t, l.Commands, 2)
	idx := decodeIndices(l.Indices)
	require.Len(t, idx, 12)
	assert.Equal(t, []uint32{0, 1, 2, 3, 0, 1}, idx[:6])
	assert.Equal(t, []uint32{4, 5, 6, 7, 8, 9}, idx[6:], "second mesh biased by first mesh's vertex count")
}

func TestBuildDrawListOffscreenMeshDropped(t *testing.T) {
	outside := paint.NewRect(900, 700, 1000, 800)
	l := buildList(t, NewCallbackRegistry(), 1, meshPrim(outside, 3, 3, paint.FontTexture))

	assert.Empty(t, l.Commands)
	assert.Empty(t, l.Vertices)
	assert.Empty(t, l.Indices)
}

func TestBuildDrawListSkippedMeshContributesNoBias(t *testing.T) {
	outside := paint.NewRect(-100, -100, -10, -10)
	l := buildList(t, NewCallbackRegistry(), 1,
		meshPrim(fullScreen, 3, 3, paint.FontTexture),
		meshPrim(outside, 5, 6, paint.FontTexture),
		meshPrim(fullScreen, 3, 3, paint.FontTexture),
	)

	require.Len(t, l.Commands, 2)
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5}, decodeIndices(l.Indices))
	assert.Equal(t, uint32(6), l.VertexCount())
}

func TestBuildDrawListZeroAreaClip(t *testing.T) {
	tests := []struct {
		name string
		clip paint.Rect
	}{
		{"zero width", paint.NewRect(10, 10, 10, 50)},
		{"sub-pixel", paint.NewRect(10.1, 10.1, 10.3, 10.3)},
		{"inverted", paint.NewRect(50, 50, 10, 10)},
		{"touching right edge", paint.NewRect(800, 0, 900, 600)},
		{"nan", paint.NewRect(float32(math.NaN()), 0, float32(math.NaN()), 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := buildList(t, NewCallbackRegistry(), 1, meshPrim(tt.clip, 3, 3, paint.FontTexture))
			assert.Empty(t, l.Commands)
		})
	}
}

func TestBuildDrawListClipScaledAndClamped(t *testing.T) {
	l := buildList(t, NewCallbackRegistry(), 2,
		meshPrim(paint.NewRect(10.2, 20.4, 30.6, 40.8), 3, 3, paint.FontTexture),
		meshPrim(paint.NewRect(350, 250, 500, 400), 3, 3, paint.FontTexture),
	)

	require.Len(t, l.Commands, 2)
	assert.Equal(t, URect{X: 20, Y: 41, W: 41, H: 41}, l.Commands[0].ClipRect)
	assert.Equal(t, URect{X: 700, Y: 500, W: 100, H: 100}, l.Commands[1].ClipRect, "clamped to target")
}

func TestBuildDrawListMeshCountProperty(t *testing.T) {
	clips := []paint.Rect{
		fullScreen,
		paint.NewRect(-50, -50, 0, 0),
		paint.NewRect(100, 100, 200, 200),
		paint.NewRect(799.4, 0, 900, 10),
		paint.NewRect(799.6, 0, 900, 10),
		paint.NewRect(0, 600, 10, 700),
	}
	var prims []paint.ClippedPrimitive
	want := 0
	for _, c := range clips {
		prims = append(prims, meshPrim(c, 3, 3, paint.FontTexture))
		if !PhysicalRect(c, 1).Intersect(URect{W: 800, H: 600}).IsEmpty() {
			want++
		}
	}

	l := buildList(t, NewCallbackRegistry(), 1, prims...)
	assert.Len(t, l.Commands, want)
	assert.Equal(t, 3, want)
}

func TestBuildDrawListCallbacks(t *testing.T) {
	registry := NewCallbackRegistry()
	cb := &renderOnly{}
	pc := registry.Register(paint.NewRect(10, 10, 50, 50), cb)

	l := buildList(t, registry, 1,
		meshPrim(fullScreen, 3, 3, paint.FontTexture),
		callbackPrim(fullScreen, pc),
		callbackPrim(paint.NewRect(2000, 2000, 3000, 3000), pc),
		meshPrim(fullScreen, 3, 3, paint.FontTexture),
	)

	require.Len(t, l.Commands, 4)
	draw, ok := l.Commands[1].Primitive.(*CallbackDraw)
	require.True(t, ok)
	assert.Equal(t, paint.NewRect(10, 10, 50, 50), draw.Rect, "callback keeps its own rect")
	assert.Equal(t, fullScreen, draw.ClipRect)

	assert.True(t, l.Commands[2].ClipRect.IsEmpty(), "off-target callback kept with empty clip")
	assert.Len(t, l.Callbacks(), 2)
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5}, decodeIndices(l.Indices), "callbacks append no geometry")
}

func TestBuildDrawListUnknownCallbackPayload(t *testing.T) {
	registry := NewCallbackRegistry()
	foreign := NewCallbackRegistry().Register(fullScreen, &renderOnly{})

	l := buildList(t, registry, 1,
		callbackPrim(fullScreen, paint.PaintCallback{Rect: fullScreen, Callback: "not a callback"}),
		callbackPrim(fullScreen, foreign),
		meshPrim(fullScreen, 3, 3, paint.FontTexture),
	)

	require.Len(t, l.Commands, 1)
	assert.IsType(t, &MeshDraw{}, l.Commands[0].Primitive)
	assert.Equal(t, uint64(2), registry.Rejected())
}

func TestBuildDrawListTextureScoping(t *testing.T) {
	l := buildList(t, NewCallbackRegistry(), 1,
		meshPrim(fullScreen, 3, 3, paint.Managed(1)),
		meshPrim(fullScreen, 3, 3, paint.User(1)),
	)

	require.Len(t, l.Commands, 2)
	assert.Equal(t, TextureKey{Kind: paint.TextureManaged, Owner: 7, ID: 1}, l.Commands[0].Primitive.(*MeshDraw).Texture)
	assert.Equal(t, TextureKey{Kind: paint.TextureUser, ID: 1}, l.Commands[1].Primitive.(*MeshDraw).Texture)
}

func TestDrawListResetKeepsCapacity(t *testing.T) {
	l := buildList(t, NewCallbackRegistry(), 1, meshPrim(fullScreen, 30, 30, paint.FontTexture))
	capV := cap(l.Vertices)

	BuildDrawList(l, DrawListInput{Owner: 7, PixelsPerPoint: 1, Width: 800, Height: 600}, NewCallbackRegistry())
	assert.Empty(t, l.Commands)
	assert.Zero(t, l.VertexCount())
	assert.Zero(t, l.IndexCount())
	assert.Equal(t, capV, cap(l.Vertices))
}

func TestWriteVertexLayout(t *testing.T) {
	buf := make([]byte, paint.VertexSize)
	writeVertex(buf, &paint.Vertex{
		Pos:   paint.Pos2{X: 1.5, Y: -2},
		UV:    paint.Pos2{X: 0.25, Y: 0.75},
		Color: paint.Color32{10, 20, 30, 40},
	})

	assert.Equal(t, float32(1.5), math.Float32frombits(binary.LittleEndian.Uint32(buf[0:])))
	assert.Equal(t, float32(-2), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:])))
	assert.Equal(t, float32(0.25), math.Float32frombits(binary.LittleEndian.Uint32(buf[8:])))
	assert.Equal(t, float32(0.75), math.Float32frombits(binary.LittleEndian.Uint32(buf[12:])))
	assert.Equal(t, []byte{10, 20, 30, 40}, buf[16:20])
}
