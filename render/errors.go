package render

import "errors"

var (
	// ErrNoDevice is returned when a DeviceHandle does not expose a HAL device and queue.
	ErrNoDevice = errors.New("render: provider has no HAL device")

	// ErrNodeNotUpdated is returned by Node.Run when Update has not run for this frame.
	ErrNodeNotUpdated = errors.New("render: node executed before update")

	// ErrPipelineMissing is reported when an updated context has no pipeline for its key.
	ErrPipelineMissing = errors.New("render: pipeline missing for context")

	// ErrBufferDestroyed is returned when a destroyed GeometryBuffer is used.
	ErrBufferDestroyed = errors.New("render: buffer has been destroyed")

	// ErrUnknownCallback is reported when a paint callback payload was not
	// created by this module's CallbackRegistry.
	ErrUnknownCallback = errors.New("render: unsupported paint callback payload")
)
