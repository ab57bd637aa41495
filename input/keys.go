package input

import (
	"runtime"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/uibridge/paint"
)

// TranslateKey maps a platform key to the GUI's key. Keys the GUI has no
// name for map to paint.KeyUnknown.
func TranslateKey(k gpucontext.Key) paint.Key {
	switch {
	case k >= gpucontext.KeyA && k <= gpucontext.KeyZ:
		return paint.KeyA + paint.Key(k-gpucontext.KeyA)
	case k >= gpucontext.Key0 && k <= gpucontext.Key9:
		return paint.Key0 + paint.Key(k-gpucontext.Key0)
	case k >= gpucontext.KeyNumpad0 && k <= gpucontext.KeyNumpad9:
		return paint.Key0 + paint.Key(k-gpucontext.KeyNumpad0)
	case k >= gpucontext.KeyF1 && k <= gpucontext.KeyF12:
		return paint.KeyF1 + paint.Key(k-gpucontext.KeyF1)
	}

	switch k {
	case gpucontext.KeyDown:
		return paint.KeyArrowDown
	case gpucontext.KeyLeft:
		return paint.KeyArrowLeft
	case gpucontext.KeyRight:
		return paint.KeyArrowRight
	case gpucontext.KeyUp:
		return paint.KeyArrowUp
	case gpucontext.KeyEscape:
		return paint.KeyEscape
	case gpucontext.KeyTab:
		return paint.KeyTab
	case gpucontext.KeyBackspace:
		return paint.KeyBackspace
	case gpucontext.KeyEnter, gpucontext.KeyNumpadEnter:
		return paint.KeyEnter
	case gpucontext.KeySpace:
		return paint.KeySpace
	case gpucontext.KeyInsert:
		return paint.KeyInsert
	case gpucontext.KeyDelete:
		return paint.KeyDelete
	case gpucontext.KeyHome:
		return paint.KeyHome
	case gpucontext.KeyEnd:
		return paint.KeyEnd
	case gpucontext.KeyPageUp:
		return paint.KeyPageUp
	case gpucontext.KeyPageDown:
		return paint.KeyPageDown
	default:
		return paint.KeyUnknown
	}
}

// macCommand reports whether Command is the Super key rather than Ctrl.
var macCommand = runtime.GOOS == "darwin"

// TranslateModifiers maps platform modifiers. Command is Super on macOS and
// Ctrl elsewhere.
func TranslateModifiers(m gpucontext.Modifiers) paint.Modifiers {
	out := paint.Modifiers{
		Alt:   m&gpucontext.ModAlt != 0,
		Ctrl:  m&gpucontext.ModControl != 0,
		Shift: m&gpucontext.ModShift != 0,
	}
	if macCommand {
		out.Command = m&gpucontext.ModSuper != 0
	} else {
		out.Command = out.Ctrl
	}
	return out
}

// TranslateButton maps a platform mouse button.
func TranslateButton(b gpucontext.MouseButton) (paint.PointerButton, bool) {
	switch b {
	case gpucontext.MouseButtonLeft:
		return paint.PointerPrimary, true
	case gpucontext.MouseButtonRight:
		return paint.PointerSecondary, true
	case gpucontext.MouseButtonMiddle:
		return paint.PointerMiddle, true
	case gpucontext.MouseButton4:
		return paint.PointerExtra1, true
	case gpucontext.MouseButton5:
		return paint.PointerExtra2, true
	default:
		return 0, false
	}
}
