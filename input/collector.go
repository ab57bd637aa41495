package input

import (
	"strings"
	"unicode"

	"github.com/gogpu/gpucontext"
	"github.com/yohamta/donburi"
	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/uibridge/ecs"
	"github.com/gogpu/uibridge/paint"
	"github.com/gogpu/uibridge/render"
)

// scrollLine is the height of one wheel line in points.
const scrollLine = 50

// ClipboardReader supplies text for paste shortcuts.
// gpucontext.PlatformProvider satisfies it.
type ClipboardReader interface {
	ClipboardRead() (string, error)
}

type contextState struct {
	mods    paint.Modifiers
	pressed map[gpucontext.Key]bool
}

// Collector translates queued Messages into each context's ecs.Input.
type Collector struct {
	world     donburi.World
	scale     float32
	clipboard ClipboardReader
	states    map[render.ContextID]*contextState
}

// NewCollector subscribes to world's message queue. clipboard may be nil,
// in which case paste shortcuts produce no paste event.
func NewCollector(world donburi.World, scale float32, clipboard ClipboardReader) *Collector {
	if scale <= 0 {
		scale = 1
	}
	c := &Collector{
		world:     world,
		scale:     scale,
		clipboard: clipboard,
		states:    make(map[render.ContextID]*contextState),
	}
	Messages.Subscribe(world, c.handle)
	return c
}

// SetScaleFactor changes the logical pixel to point ratio.
func (c *Collector) SetScaleFactor(s float32) {
	if s > 0 {
		c.scale = s
	}
}

// Collect drains the message queue.
func (c *Collector) Collect() {
	Messages.ProcessEvents(c.world)
}

// Forget drops the key and modifier state of a removed context.
func (c *Collector) Forget(id render.ContextID) {
	delete(c.states, id)
}

func (c *Collector) state(id render.ContextID) *contextState {
	st, ok := c.states[id]
	if !ok {
		st = &contextState{pressed: make(map[gpucontext.Key]bool)}
		c.states[id] = st
	}
	return st
}

func (c *Collector) point(x, y float64) paint.Pos2 {
	return paint.Pos2{X: float32(x) / c.scale, Y: float32(y) / c.scale}
}

func (c *Collector) handle(w donburi.World, m Message) {
	entry, ok := ecs.Find(w, m.Context)
	if !ok {
		slogger().Debug("uibridge: input for unknown context dropped", "context", m.Context, "kind", m.Kind)
		return
	}
	in := &ecs.Input.Get(entry).Raw
	st := c.state(m.Context)

	push := func(ev paint.Event) {
		ev.Modifiers = st.mods
		in.Events = append(in.Events, ev)
	}

	switch m.Kind {
	case MsgKeyPress:
		st.mods = TranslateModifiers(m.Mods)
		c.keyPress(st, m.Key, push)

	case MsgKeyRelease:
		st.mods = TranslateModifiers(m.Mods)
		delete(st.pressed, m.Key)
		if key := TranslateKey(m.Key); key != paint.KeyUnknown {
			push(paint.Event{Kind: paint.EventKey, Key: key})
		}

	case MsgText:
		if st.mods.Ctrl && !st.mods.Alt {
			break
		}
		if text := cleanText(m.Text); text != "" {
			push(paint.Event{Kind: paint.EventText, Text: text})
		}

	case MsgPointerMove:
		push(paint.Event{Kind: paint.EventPointerMoved, Pos: c.point(m.X, m.Y)})

	case MsgPointerPress, MsgPointerRelease:
		button, ok := TranslateButton(m.Button)
		if !ok {
			break
		}
		push(paint.Event{
			Kind:    paint.EventPointerButton,
			Pos:     c.point(m.X, m.Y),
			Button:  button,
			Pressed: m.Kind == MsgPointerPress,
		})

	case MsgPointerLeave:
		push(paint.Event{Kind: paint.EventPointerGone})

	case MsgScroll:
		if m.Mods != 0 {
			st.mods = TranslateModifiers(m.Mods)
		}
		unit := c.scrollUnit(m.DeltaMode, in.ScreenRect)
		push(paint.Event{
			Kind:  paint.EventMouseWheel,
			Delta: paint.Pos2{X: -float32(m.DX) * unit, Y: -float32(m.DY) * unit},
		})

	case MsgResize:
		if m.Width > 0 && m.Height > 0 {
			r := paint.NewRect(0, 0, float32(m.Width)/c.scale, float32(m.Height)/c.scale)
			in.ScreenRect = &r
		}

	case MsgFocus:
		in.Focused = m.Focused
		if !m.Focused {
			clear(st.pressed)
		}
		push(paint.Event{Kind: paint.EventWindowFocused, Focused: m.Focused})
	}
	in.Modifiers = st.mods
}

func (c *Collector) keyPress(st *contextState, k gpucontext.Key, push func(paint.Event)) {
	key := TranslateKey(k)
	if key == paint.KeyUnknown {
		return
	}
	repeat := st.pressed[k]
	st.pressed[k] = true

	if st.mods.Command && !repeat {
		switch key {
		case paint.KeyC:
			push(paint.Event{Kind: paint.EventCopy})
		case paint.KeyX:
			push(paint.Event{Kind: paint.EventCut})
		case paint.KeyV:
			c.paste(push)
		}
	}
	push(paint.Event{Kind: paint.EventKey, Key: key, Pressed: true, Repeat: repeat})
}

func (c *Collector) paste(push func(paint.Event)) {
	if c.clipboard == nil {
		return
	}
	text, err := c.clipboard.ClipboardRead()
	if err != nil {
		slogger().Warn("uibridge: clipboard read failed", "error", err)
		return
	}
	if text = norm.NFC.String(text); text != "" {
		push(paint.Event{Kind: paint.EventPaste, Text: text})
	}
}

func (c *Collector) scrollUnit(mode gpucontext.ScrollDeltaMode, screen *paint.Rect) float32 {
	switch mode {
	case gpucontext.ScrollDeltaLine:
		return scrollLine
	case gpucontext.ScrollDeltaPage:
		if screen != nil {
			return screen.Height()
		}
		return scrollLine
	default:
		return 1 / c.scale
	}
}

// cleanText normalizes text to NFC and drops control characters.
func cleanText(s string) string {
	s = norm.NFC.String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
