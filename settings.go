package uibridge

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"
)

// Settings configure a Bridge. They are usually loaded from a TOML file:
//
//	scale_factor = 1.25
//	bindless = true
//	max_bindless_textures = 16
//	image_load_op = "clear"
//	image_clear_color = [0.0, 0.0, 0.0, 0.0]
type Settings struct {
	// ScaleFactor multiplies every target's own DPI scale.
	ScaleFactor float32 `toml:"scale_factor"`

	// RunManually leaves starting GUI passes to the host, see Bridge.BeginPass.
	RunManually bool `toml:"run_manually"`

	// Bindless packs textures into bindless bind groups when the device
	// supports it.
	Bindless bool `toml:"bindless"`

	// MaxBindlessTextures caps the textures in one bindless group.
	MaxBindlessTextures uint32 `toml:"max_bindless_textures"`

	// ImageLoadOp is "clear" or "load" and applies to image targets.
	ImageLoadOp string `toml:"image_load_op"`

	// ImageClearColor is the RGBA clear color of image targets.
	ImageClearColor [4]float64 `toml:"image_clear_color"`

	// PrecompileShaders compiles WGSL to SPIR-V before creating pipelines.
	PrecompileShaders bool `toml:"precompile_shaders"`
}

// DefaultSettings returns the settings used when none are given.
func DefaultSettings() Settings {
	return Settings{
		ScaleFactor:         1,
		MaxBindlessTextures: 16,
		ImageLoadOp:         "clear",
	}
}

// ParseSettings decodes TOML on top of DefaultSettings. Unknown keys are an
// error.
func ParseSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Settings{}, fmt.Errorf("%w: %s", ErrInvalidSettings, strict.String())
		}
		return Settings{}, fmt.Errorf("uibridge: parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadSettings reads and parses a TOML settings file.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("uibridge: load settings: %w", err)
	}
	return ParseSettings(data)
}

// Validate reports the first invalid field.
func (s Settings) Validate() error {
	if s.ScaleFactor <= 0 {
		return fmt.Errorf("%w: scale_factor must be positive, got %v", ErrInvalidSettings, s.ScaleFactor)
	}
	if s.Bindless && s.MaxBindlessTextures == 0 {
		return fmt.Errorf("%w: max_bindless_textures must be positive when bindless is set", ErrInvalidSettings)
	}
	if _, err := parseLoadOp(s.ImageLoadOp); err != nil {
		return err
	}
	for i, c := range s.ImageClearColor {
		if c < 0 || c > 1 {
			return fmt.Errorf("%w: image_clear_color[%d] = %v is outside [0, 1]", ErrInvalidSettings, i, c)
		}
	}
	return nil
}

func parseLoadOp(s string) (gputypes.LoadOp, error) {
	switch s {
	case "", "clear":
		return gputypes.LoadOpClear, nil
	case "load":
		return gputypes.LoadOpLoad, nil
	default:
		return 0, fmt.Errorf("%w: image_load_op must be \"clear\" or \"load\", got %q", ErrInvalidSettings, s)
	}
}

func (s Settings) clearColor() gputypes.Color {
	c := s.ImageClearColor
	return gputypes.Color{R: c[0], G: c[1], B: c[2], A: c[3]}
}
