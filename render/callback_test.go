// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/uibridge/paint"
)

func TestCallbackInfoViewportInPixels(t *testing.T) {
	tests := []struct {
		name string
		info CallbackInfo
		want ViewportInPixels
	}{
		{
			name: "scaled",
			info: CallbackInfo{Viewport: paint.NewRect(10, 10, 50, 50), PixelsPerPoint: 2, ScreenSizePx: [2]uint32{800, 600}},
			want: ViewportInPixels{LeftPx: 20, TopPx: 20, FromBottomPx: 500, WidthPx: 80, HeightPx: 80},
		},
		{
			name: "clamped to screen",
			info: CallbackInfo{Viewport: paint.NewRect(-10, 550, 900, 700), PixelsPerPoint: 1, ScreenSizePx: [2]uint32{800, 600}},
			want: ViewportInPixels{LeftPx: 0, TopPx: 550, FromBottomPx: 0, WidthPx: 800, HeightPx: 50},
		},
		{
			name: "inverted collapses",
			info: CallbackInfo{Viewport: paint.NewRect(50, 50, 10, 10), PixelsPerPoint: 1, ScreenSizePx: [2]uint32{100, 100}},
			want: ViewportInPixels{LeftPx: 50, TopPx: 50, FromBottomPx: 50},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.ViewportInPixels())
		})
	}
}

func TestCallbackInfoClipRectInPixels(t *testing.T) {
	info := CallbackInfo{
		Viewport:       paint.NewRect(0, 0, 100, 100),
		ClipRect:       paint.NewRect(5, 5, 15, 25),
		PixelsPerPoint: 1.5,
		ScreenSizePx:   [2]uint32{300, 300},
	}
	got := info.ClipRectInPixels()
	assert.Equal(t, int32(8), got.LeftPx)
	assert.Equal(t, int32(8), got.TopPx)
	assert.Equal(t, int32(15), got.WidthPx)
	assert.Equal(t, int32(30), got.HeightPx)
}

func TestCallbackRegistryResolve(t *testing.T) {
	registry := NewCallbackRegistry()
	cb := &renderOnly{}
	pc := registry.Register(paint.NewRect(1, 2, 3, 4), cb)

	assert.Equal(t, paint.NewRect(1, 2, 3, 4), pc.Rect)
	resolved, ok := registry.Resolve(pc.Callback)
	require.True(t, ok)
	assert.Same(t, cb, resolved.Callback())
	assert.Equal(t, uint64(1), resolved.ID())

	tests := []struct {
		name    string
		payload any
	}{
		{"nil", nil},
		{"foreign type", 42},
		{"nil handle", (*PaintCallback)(nil)},
		{"other registry", NewCallbackRegistry().Register(paint.Rect{}, cb).Callback},
		{"nil callback", registry.Register(paint.Rect{}, nil).Callback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := registry.Resolve(tt.payload)
			assert.False(t, ok)
		})
	}
	assert.Equal(t, uint64(len(tests)), registry.Rejected())
}

func TestCallbackRegistryConcurrentRegister(t *testing.T) {
	registry := NewCallbackRegistry()

	const workers, each = 8, 100
	ids := make(chan uint64, workers*each)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				pc := registry.Register(paint.Rect{}, &renderOnly{})
				resolved, ok := registry.Resolve(pc.Callback)
				if ok {
					ids <- resolved.ID()
				}
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers*each)
	assert.Equal(t, uint64(workers*each), registry.Registered())
}
