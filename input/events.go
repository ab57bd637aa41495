// Package input turns platform events into GUI input.
//
// Attach subscribes to a gpucontext.EventSource and publishes every callback
// as a Message on the simulation world's donburi event queue, tagged with the
// context it belongs to. Collector drains the queue once per frame and
// appends the translated paint.Events to each context's ecs.Input.
//
// Coordinates arrive in window logical pixels. GUI points are logical pixels
// divided by the bridge-wide scale factor.
package input

import (
	"github.com/gogpu/gpucontext"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"

	"github.com/gogpu/uibridge/render"
)

// MessageKind discriminates Message.
type MessageKind uint8

const (
	MsgKeyPress MessageKind = iota
	MsgKeyRelease
	MsgText
	MsgPointerMove
	MsgPointerPress
	MsgPointerRelease
	MsgPointerLeave
	MsgScroll
	MsgResize
	MsgFocus
)

// Message is one platform event addressed to a context.
type Message struct {
	Context render.ContextID
	Kind    MessageKind

	Key  gpucontext.Key
	Mods gpucontext.Modifiers
	Text string

	X, Y   float64
	Button gpucontext.MouseButton

	DX, DY    float64
	DeltaMode gpucontext.ScrollDeltaMode

	Width, Height int
	Focused       bool
}

// Messages is the world event queue Attach publishes to.
var Messages = events.NewEventType[Message]()

// Attach forwards src's callbacks for context id into world's message queue.
// Sources that also implement gpucontext.ScrollEventSource or
// gpucontext.PointerEventSource contribute scroll units and pointer leave
// events.
//
// Callbacks must be delivered on the goroutine that runs the frame, which is
// what gpucontext sources guarantee.
func Attach(world donburi.World, id render.ContextID, src gpucontext.EventSource) {
	publish := func(m Message) {
		m.Context = id
		Messages.Publish(world, m)
	}

	src.OnKeyPress(func(key gpucontext.Key, mods gpucontext.Modifiers) {
		publish(Message{Kind: MsgKeyPress, Key: key, Mods: mods})
	})
	src.OnKeyRelease(func(key gpucontext.Key, mods gpucontext.Modifiers) {
		publish(Message{Kind: MsgKeyRelease, Key: key, Mods: mods})
	})
	src.OnTextInput(func(text string) {
		publish(Message{Kind: MsgText, Text: text})
	})
	src.OnIMECompositionStart(func() {})
	src.OnIMECompositionUpdate(func(gpucontext.IMEState) {})
	src.OnIMECompositionEnd(func(committed string) {
		publish(Message{Kind: MsgText, Text: committed})
	})
	src.OnMouseMove(func(x, y float64) {
		publish(Message{Kind: MsgPointerMove, X: x, Y: y})
	})
	src.OnMousePress(func(b gpucontext.MouseButton, x, y float64) {
		publish(Message{Kind: MsgPointerPress, Button: b, X: x, Y: y})
	})
	src.OnMouseRelease(func(b gpucontext.MouseButton, x, y float64) {
		publish(Message{Kind: MsgPointerRelease, Button: b, X: x, Y: y})
	})
	src.OnResize(func(w, h int) {
		publish(Message{Kind: MsgResize, Width: w, Height: h})
	})
	src.OnFocus(func(focused bool) {
		publish(Message{Kind: MsgFocus, Focused: focused})
	})

	if ss, ok := src.(gpucontext.ScrollEventSource); ok {
		ss.OnScrollEvent(func(ev gpucontext.ScrollEvent) {
			publish(Message{Kind: MsgScroll, DX: ev.DeltaX, DY: ev.DeltaY, DeltaMode: ev.DeltaMode, Mods: ev.Modifiers})
		})
	} else {
		src.OnScroll(func(dx, dy float64) {
			publish(Message{Kind: MsgScroll, DX: dx, DY: dy, DeltaMode: gpucontext.ScrollDeltaLine})
		})
	}

	if ps, ok := src.(gpucontext.PointerEventSource); ok {
		ps.OnPointer(func(ev gpucontext.PointerEvent) {
			if ev.Type == gpucontext.PointerLeave || ev.Type == gpucontext.PointerCancel {
				publish(Message{Kind: MsgPointerLeave})
			}
		})
	}
	slogger().Debug("uibridge: input attached", "context", id)
}
