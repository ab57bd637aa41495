package uibridge

import "errors"

var (
	// ErrInvalidSettings is returned for settings that fail validation.
	ErrInvalidSettings = errors.New("uibridge: invalid settings")

	// ErrContextExists is returned when a context id is added twice.
	ErrContextExists = errors.New("uibridge: context already exists")

	// ErrUnknownContext is returned for ids that were never added or were removed.
	ErrUnknownContext = errors.New("uibridge: unknown context")

	// ErrNoGUI is returned when a context is added without a GUI instance.
	ErrNoGUI = errors.New("uibridge: context has no GUI")

	// ErrPassActive is returned when BeginPass is called twice in a frame.
	ErrPassActive = errors.New("uibridge: pass already begun")

	// ErrClosed is returned by a Bridge after Close.
	ErrClosed = errors.New("uibridge: bridge closed")
)
