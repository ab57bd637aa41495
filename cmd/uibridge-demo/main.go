// Command uibridge-demo runs a scripted GUI through the bridge on a headless
// device and logs per-frame statistics.
package main

import (
	"flag"
	"image"
	"image/color"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/yohamta/donburi"

	"github.com/gogpu/uibridge"
	"github.com/gogpu/uibridge/ecs"
	"github.com/gogpu/uibridge/paint"
	"github.com/gogpu/uibridge/render"
)

func main() {
	var (
		width  = flag.Uint("width", 800, "target width in pixels")
		height = flag.Uint("height", 600, "target height in pixels")
		frames = flag.Int("frames", 3, "frames to render")
		config = flag.String("config", "", "TOML settings file")
		debug  = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	settings := uibridge.DefaultSettings()
	if *config != "" {
		var err error
		if settings, err = uibridge.LoadSettings(*config); err != nil {
			log.Fatalf("Failed to load settings: %v", err)
		}
	}

	device, queue, err := openDevice()
	if err != nil {
		log.Fatalf("Failed to open device: %v", err)
	}

	b, err := uibridge.New(render.StaticDevice{HAL: device, Q: queue, Format: gputypes.TextureFormatRGBA8Unorm},
		uibridge.WithSettings(settings),
		uibridge.WithLogger(logger),
	)
	if err != nil {
		log.Fatalf("Failed to create bridge: %v", err)
	}
	defer b.Close()

	view, err := offscreenTarget(device, uint32(*width), uint32(*height))
	if err != nil {
		log.Fatalf("Failed to create target: %v", err)
	}

	gui := &scriptedGUI{}
	gui.marker = b.RegisterCallback(paint.NewRect(20, 20, 120, 60), markerCallback{logger: logger})
	if err := b.AddContext(1, gui, ecs.TargetData{
		Kind:        render.TargetImage,
		View:        view,
		Format:      gputypes.TextureFormatRGBA8Unorm,
		Width:       uint32(*width),
		Height:      uint32(*height),
		ScaleFactor: 1,
		Active:      true,
	}); err != nil {
		log.Fatalf("Failed to add context: %v", err)
	}

	for i := range *frames {
		if err := b.BeginFrame(); err != nil {
			log.Fatalf("Frame %d: %v", i, err)
		}
		if err := b.EndFrame(); err != nil {
			log.Fatalf("Frame %d: %v", i, err)
		}
		if err := b.Render(); err != nil {
			log.Fatalf("Frame %d: %v", i, err)
		}
		s := b.Stats()
		logger.Info("frame rendered",
			"frame", i,
			"draw_calls", s.DrawCalls,
			"callbacks", s.Callbacks,
			"vertex_bytes", s.VertexBytes,
			"index_bytes", s.IndexBytes,
			"missing_textures", s.MissingTextures)
	}
}

func openDevice() (hal.Device, hal.Queue, error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, nil, err
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return nil, nil, os.ErrNotExist
	}
	dev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		return nil, nil, err
	}
	return dev.Device, dev.Queue, nil
}

func offscreenTarget(device hal.Device, w, h uint32) (hal.TextureView, error) {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "demo_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, err
	}
	return device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:     "demo_target_view",
		Format:    gputypes.TextureFormatRGBA8Unorm,
		Dimension: gputypes.TextureViewDimension2D,
		Aspect:    gputypes.TextureAspectAll,
	})
}

// scriptedGUI draws a solid panel, a white square sampling its atlas and a
// custom-painted marker.
type scriptedGUI struct {
	frame  int
	screen paint.Rect
	marker paint.PaintCallback
}

func (g *scriptedGUI) BeginPass(in paint.RawInput) {
	if in.ScreenRect != nil {
		g.screen = *in.ScreenRect
	}
}

func (g *scriptedGUI) EndPass() paint.FullOutput {
	var out paint.FullOutput
	if g.frame == 0 {
		atlas := image.NewNRGBA(image.Rect(0, 0, 4, 4))
		for y := range 4 {
			for x := range 4 {
				atlas.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
			}
		}
		out.TexturesDelta.Set = append(out.TexturesDelta.Set, paint.TextureSet{
			ID:    paint.Managed(0),
			Delta: paint.ImageDelta{Image: atlas, Options: paint.TextureLinear},
		})
	}
	g.frame++
	return out
}

func (g *scriptedGUI) Tessellate(_ []paint.ClippedShape, _ float32) []paint.ClippedPrimitive {
	panel := paint.NewRect(10, 10, g.screen.Width()-10, g.screen.Height()-10)
	return []paint.ClippedPrimitive{
		{ClipRect: g.screen, Mesh: rectMesh(panel, paint.Color32{40, 44, 52, 255})},
		{ClipRect: panel, Callback: &g.marker},
		{ClipRect: panel, Mesh: rectMesh(paint.NewRect(140, 20, 240, 120), paint.Color32{255, 255, 255, 255})},
	}
}

func rectMesh(r paint.Rect, c paint.Color32) *paint.Mesh {
	return &paint.Mesh{
		TextureID: paint.Managed(0),
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
		Vertices: []paint.Vertex{
			{Pos: r.Min, Color: c},
			{Pos: paint.Pos2{X: r.Max.X, Y: r.Min.Y}, UV: paint.Pos2{X: 1}, Color: c},
			{Pos: r.Max, UV: paint.Pos2{X: 1, Y: 1}, Color: c},
			{Pos: paint.Pos2{X: r.Min.X, Y: r.Max.Y}, UV: paint.Pos2{Y: 1}, Color: c},
		},
	}
}

type markerCallback struct {
	logger *slog.Logger
}

func (m markerCallback) Render(info render.CallbackInfo, _ hal.RenderPassEncoder, id render.ContextID, _ render.PipelineKey, _ donburi.World) {
	vp := info.ViewportInPixels()
	m.logger.Debug("marker painted", "context", id, "viewport", vp)
}
