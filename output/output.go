// Package output applies the platform side of GUI output: the mouse cursor,
// copied text and redraw requests.
package output

import (
	"github.com/gogpu/gpucontext"
	"github.com/yohamta/donburi"

	"github.com/gogpu/uibridge/ecs"
	"github.com/gogpu/uibridge/paint"
)

// Processor forwards each frame's ecs.Output to the platform.
type Processor struct {
	platform gpucontext.PlatformProvider
	cursor   gpucontext.CursorShape
	applied  bool
}

// NewProcessor creates a processor. A nil platform drops cursor and
// clipboard output.
func NewProcessor(platform gpucontext.PlatformProvider) *Processor {
	if platform == nil {
		platform = gpucontext.NullPlatformProvider{}
	}
	return &Processor{platform: platform}
}

// Process consumes every context's platform output and redraw request and
// reports whether any context asked for another frame. A context whose pass
// did not run since the last Process does not ask again.
//
// The cursor is the last non-default cursor in context order, so a context
// under the pointer wins over idle ones. SetCursor is only called when the
// shape changes.
func (p *Processor) Process(world donburi.World) bool {
	redraw := false
	cursor := gpucontext.CursorDefault

	for _, entry := range ecs.Contexts(world) {
		out := ecs.Output.Get(entry)
		id := ecs.Context.Get(entry).ID
		platform := out.Platform
		out.Platform = paint.PlatformOutput{}
		if out.RedrawRequested {
			redraw = true
		}
		out.RedrawRequested = false

		if platform.CursorIcon != paint.CursorDefault {
			cursor = CursorShape(platform.CursorIcon)
		}
		if platform.CopiedText != "" {
			if err := p.platform.ClipboardWrite(platform.CopiedText); err != nil {
				slogger().Warn("uibridge: clipboard write failed", "context", id, "error", err)
			}
		}
		if platform.OpenURL != "" {
			slogger().Info("uibridge: open url requested", "context", id, "url", platform.OpenURL)
		}
	}

	if !p.applied || cursor != p.cursor {
		p.platform.SetCursor(cursor)
		p.cursor = cursor
		p.applied = true
	}
	return redraw
}

// Wants returns the union of the input claimed by every context's last pass.
func Wants(world donburi.World) paint.InputWants {
	var w paint.InputWants
	for _, entry := range ecs.Contexts(world) {
		w = w.Merge(ecs.Output.Get(entry).Wants)
	}
	return w
}

// CursorShape maps a GUI cursor onto the closest platform shape.
func CursorShape(c paint.CursorIcon) gpucontext.CursorShape {
	switch c {
	case paint.CursorNone:
		return gpucontext.CursorNone
	case paint.CursorPointingHand, paint.CursorGrab, paint.CursorGrabbing:
		return gpucontext.CursorPointer
	case paint.CursorText:
		return gpucontext.CursorText
	case paint.CursorCrosshair:
		return gpucontext.CursorCrosshair
	case paint.CursorMove:
		return gpucontext.CursorMove
	case paint.CursorNotAllowed:
		return gpucontext.CursorNotAllowed
	case paint.CursorWait:
		return gpucontext.CursorWait
	case paint.CursorResizeHorizontal:
		return gpucontext.CursorResizeEW
	case paint.CursorResizeVertical:
		return gpucontext.CursorResizeNS
	case paint.CursorResizeNeSw:
		return gpucontext.CursorResizeNESW
	case paint.CursorResizeNwSe:
		return gpucontext.CursorResizeNWSE
	default:
		return gpucontext.CursorDefault
	}
}
