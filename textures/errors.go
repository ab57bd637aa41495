package textures

import "errors"

var (
	// ErrNotManaged is returned when a delta names a user texture.
	ErrNotManaged = errors.New("textures: delta for a user texture")

	// ErrNoImage is returned for a delta without image data.
	ErrNoImage = errors.New("textures: delta has no image")

	// ErrUnknownTexture is returned when a partial update names a texture
	// that was never set.
	ErrUnknownTexture = errors.New("textures: partial update of unknown texture")

	// ErrPatchOutOfBounds is returned when a partial update does not fit
	// inside the existing image.
	ErrPatchOutOfBounds = errors.New("textures: patch exceeds texture bounds")

	// ErrEmptyImage is returned when an image to upload has no pixels.
	ErrEmptyImage = errors.New("textures: empty image")
)
