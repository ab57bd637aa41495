package paint

// CursorIcon is the mouse cursor the GUI library asks for.
type CursorIcon uint8

const (
	CursorDefault CursorIcon = iota
	CursorNone
	CursorPointingHand
	CursorText
	CursorCrosshair
	CursorMove
	CursorGrab
	CursorGrabbing
	CursorNotAllowed
	CursorWait
	CursorResizeHorizontal
	CursorResizeVertical
	CursorResizeNeSw
	CursorResizeNwSe
)

// PlatformOutput is what the GUI library wants from the platform this frame.
type PlatformOutput struct {
	CursorIcon CursorIcon

	// CopiedText is non-empty when the user copied or cut text.
	CopiedText string

	// OpenURL is set when a hyperlink was clicked.
	OpenURL string
}

// IsEmpty reports whether the platform has nothing to do.
func (o PlatformOutput) IsEmpty() bool {
	return o.CursorIcon == CursorDefault && o.CopiedText == "" && o.OpenURL == ""
}

// InputWants is how much of the user's input the GUI claimed during a pass.
// Hosts consult it to keep GUI clicks and typing away from the rest of the
// application.
type InputWants struct {
	// PointerOverArea is set while the pointer hovers a GUI area.
	PointerOverArea bool

	// WantsPointer is set when the GUI wants the next pointer events, for
	// example while a drag started on a widget.
	WantsPointer bool

	// UsingPointer is set while a widget is being interacted with.
	UsingPointer bool

	// WantsKeyboard is set while a widget has keyboard focus.
	WantsKeyboard bool

	// PopupOpen is set while a popup is shown. An open popup claims both
	// pointer and keyboard.
	PopupOpen bool
}

// AnyPointer reports whether the GUI claims pointer input.
func (w InputWants) AnyPointer() bool {
	return w.PointerOverArea || w.WantsPointer || w.UsingPointer || w.PopupOpen
}

// AnyKeyboard reports whether the GUI claims keyboard input.
func (w InputWants) AnyKeyboard() bool { return w.WantsKeyboard || w.PopupOpen }

// Any reports whether the GUI claims pointer or keyboard input.
func (w InputWants) Any() bool { return w.AnyPointer() || w.AnyKeyboard() }

// Merge returns the union of w and o.
func (w InputWants) Merge(o InputWants) InputWants {
	return InputWants{
		PointerOverArea: w.PointerOverArea || o.PointerOverArea,
		WantsPointer:    w.WantsPointer || o.WantsPointer,
		UsingPointer:    w.UsingPointer || o.UsingPointer,
		WantsKeyboard:   w.WantsKeyboard || o.WantsKeyboard,
		PopupOpen:       w.PopupOpen || o.PopupOpen,
	}
}

// FullOutput is the result of one GUI pass.
type FullOutput struct {
	PlatformOutput PlatformOutput
	TexturesDelta  TexturesDelta
	Shapes         []ClippedShape
	PixelsPerPoint float32

	// Wants is the input the GUI claimed at the end of the pass.
	Wants InputWants

	// RepaintRequested asks for another frame even without new input.
	RepaintRequested bool
}

// Context is one GUI library instance driving one surface.
//
// BeginPass and EndPass bracket the host's UI code for a frame. Tessellate
// turns the pass's shapes into GPU-ready primitives; it is called exactly
// once per context per frame.
type Context interface {
	BeginPass(input RawInput)
	EndPass() FullOutput
	Tessellate(shapes []ClippedShape, pixelsPerPoint float32) []ClippedPrimitive
}
