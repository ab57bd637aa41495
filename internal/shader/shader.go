// Package shader holds the WGSL sources of the GUI mesh pipeline and turns
// them into HAL shader modules.
package shader

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"
	"text/template"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// Entry points shared by all GUI shaders.
const (
	VertexEntry    = "vs_main"
	FragmentLinear = "fs_main_linear"
	FragmentGamma  = "fs_main_gamma"
)

// Bind group layout shared by all GUI shaders.
const (
	TransformGroup    = 0
	TransformBinding  = 0
	TransformByteSize = 16

	TextureGroup   = 1
	TextureBinding = 0
	SamplerBinding = 1
)

//go:embed ui.wgsl
var uiSource string

//go:embed ui_bindless.wgsl.tmpl
var bindlessSource string

var bindlessTemplate = template.Must(template.New("ui_bindless").Parse(bindlessSource))

// bindlessCache memoizes generated sources by slot count.
var bindlessCache sync.Map

// UI returns the single-texture shader source.
func UI() string { return uiSource }

// Slot is one texture/sampler pair of a bindless bind group.
type Slot struct {
	Index   uint32
	Texture uint32
	Sampler uint32
}

// SlotBindings returns the texture and sampler binding numbers of slot i.
func SlotBindings(i uint32) (texture, sampler uint32) {
	return 2 * i, 2*i + 1
}

// Bindless returns the shader source for bind groups holding count textures.
func Bindless(count uint32) (string, error) {
	if count == 0 {
		return "", fmt.Errorf("shader: bindless slot count must be positive")
	}
	if src, ok := bindlessCache.Load(count); ok {
		return src.(string), nil
	}

	slots := make([]Slot, count)
	for i := range slots {
		idx := uint32(i) //nolint:gosec // slot count is a small bind group limit
		tex, smp := SlotBindings(idx)
		slots[i] = Slot{Index: idx, Texture: tex, Sampler: smp}
	}

	var buf bytes.Buffer
	err := bindlessTemplate.Execute(&buf, struct {
		Count uint32
		Slots []Slot
	}{Count: count, Slots: slots})
	if err != nil {
		return "", fmt.Errorf("shader: generate bindless source: %w", err)
	}
	src, _ := bindlessCache.LoadOrStore(count, buf.String())
	return src.(string), nil
}

// CompileSPIRV compiles WGSL source to SPIR-V words with naga.
func CompileSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("shader: compile: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return code, nil
}

// CreateModule creates a HAL shader module from WGSL. With precompile set
// the source is compiled to SPIR-V first, for backends that do not accept
// WGSL.
func CreateModule(device hal.Device, label, wgslSource string, precompile bool) (hal.ShaderModule, error) {
	src := hal.ShaderSource{WGSL: wgslSource}
	if precompile {
		code, err := CompileSPIRV(wgslSource)
		if err != nil {
			return nil, err
		}
		src = hal.ShaderSource{SPIRV: code}
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: src,
	})
	if err != nil {
		return nil, fmt.Errorf("shader: create %s module: %w", label, err)
	}
	return module, nil
}
