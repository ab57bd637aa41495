package paint

// Key is a logical key understood by the GUI library.
type Key uint16

// Keys the GUI library cares about. Letters and digits are contiguous.
const (
	KeyUnknown Key = iota
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
	KeyArrowUp
	KeyEscape
	KeyTab
	KeyBackspace
	KeyEnter
	KeySpace
	KeyInsert
	KeyDelete
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// Modifiers is the state of the modifier keys.
type Modifiers struct {
	Alt     bool
	Ctrl    bool
	Shift   bool
	Command bool
}

// PointerButton is a mouse button.
type PointerButton uint8

const (
	PointerPrimary PointerButton = iota
	PointerSecondary
	PointerMiddle
	PointerExtra1
	PointerExtra2
)

// EventKind discriminates Event.
type EventKind uint8

const (
	EventKey EventKind = iota
	EventText
	EventPointerMoved
	EventPointerButton
	EventPointerGone
	EventMouseWheel
	EventCopy
	EventCut
	EventPaste
	EventWindowFocused
)

// Event is one input event in logical points. Which fields are meaningful
// depends on Kind.
type Event struct {
	Kind EventKind

	// EventKey
	Key     Key
	Pressed bool
	Repeat  bool

	// EventText, EventPaste
	Text string

	// EventPointerMoved, EventPointerButton
	Pos    Pos2
	Button PointerButton

	// EventMouseWheel
	Delta Pos2

	// EventWindowFocused
	Focused bool

	Modifiers Modifiers
}

// RawInput is everything the GUI library needs to run one pass.
type RawInput struct {
	// ScreenRect is the available area in logical points.
	ScreenRect *Rect

	// MaxTextureSide is the largest texture the renderer accepts.
	MaxTextureSide int

	Time      float64
	Modifiers Modifiers
	Focused   bool
	Events    []Event
}

// Take returns the accumulated input and resets the events, keeping the
// persistent state (modifiers, focus, screen rect).
func (in *RawInput) Take() RawInput {
	out := *in
	in.Events = nil
	return out
}
