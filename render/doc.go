// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render draws immediate-mode GUI output with a host's GPU device.
//
// The package RECEIVES the device and queue from the host application, it
// does NOT create its own. GUI passes are recorded into the host's command
// encoder, so windows, off-screen images and custom callback content all
// share one device.
//
// # Frame Cycle
//
// A Node moves through Idle, Updated and Submitted once per frame:
//
//   - Extraction writes one View and one Output component per GUI context
//     into the render world.
//   - Node.Update builds a DrawList per context with BuildDrawList, invokes
//     callback updates, uploads geometry into per-context GeometryBuffers and
//     rebuilds the TransformTable and TextureBindingTable.
//   - Node.Run records one render pass per context: scissored indexed draws
//     for meshes, viewport-restricted Render calls for paint callbacks.
//
// Run before Update fails with ErrNodeNotUpdated. Every other problem (a
// degenerate target, a texture not yet resolvable, a missing pipeline, an
// unknown callback payload) skips the affected unit of work for one frame
// and is logged.
//
// # Paint Callbacks
//
// Application code registers a Callback with CallbackRegistry.Register and
// hands the returned paint.PaintCallback to the GUI library. When the GUI
// emits it inside a ClippedPrimitive, the node calls the optional Update and
// Prepare hooks and finally Render inside the GUI pass:
//
//	type overlay struct{ pipeline hal.RenderPipeline }
//
//	func (o *overlay) Render(info render.CallbackInfo, pass hal.RenderPassEncoder,
//		id render.ContextID, key render.PipelineKey, world donburi.World) {
//		pass.SetPipeline(o.pipeline)
//		pass.Draw(3, 1, 0, 0)
//	}
//
//	prim := registry.Register(paint.NewRect(10, 10, 50, 50), &overlay{...})
//
// # Textures
//
// Textures are bound one per bind group, or, when BindlessChunkSize reports
// support, packed into bindless chunks addressed by slot. The slot travels
// as the draw's first instance so no extra buffer is needed.
//
// # Logging
//
// The package logs through log/slog and is silent by default. Use SetLogger
// (or uibridge.SetLogger) to enable output.
package render
