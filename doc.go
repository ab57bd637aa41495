// Package uibridge renders immediate-mode GUI contexts with a host's GPU
// device.
//
// # Overview
//
// A GUI library produces, once per frame and per context, a list of clipped
// triangle meshes, texture changes and platform requests. uibridge moves that
// output out of the simulation world, uploads geometry and textures, and
// records one render pass per context into the context's target. Window
// targets and offscreen image targets are both supported, and custom GPU
// drawing can be interleaved with the GUI's meshes through paint callbacks.
//
// # Quick Start
//
//	settings, err := uibridge.LoadSettings("ui.toml")
//	if err != nil {
//	    return err
//	}
//	b, err := uibridge.New(provider, uibridge.WithSettings(settings))
//	if err != nil {
//	    return err
//	}
//	defer b.Close()
//
//	_ = b.AddContext(1, gui, ecs.TargetData{
//	    Kind:   render.TargetWindow,
//	    View:   view,
//	    Format: provider.SurfaceFormat(),
//	    Width:  800, Height: 600,
//	    ScaleFactor: 1,
//	    Active: true,
//	})
//	_ = b.AttachInput(1, events)
//
//	for running {
//	    _ = b.BeginFrame()
//	    buildUI(gui)
//	    _ = b.EndFrame()
//	    if err := b.Render(); err != nil {
//	        return err
//	    }
//	}
//
// # Architecture
//
// The module is organized into:
//   - paint: the GUI library's output and input types
//   - ecs: simulation world components, one entity per context
//   - input: platform events to GUI input
//   - extract: simulation world to render world, once per frame
//   - textures: managed texture images, user textures and their GPU copies
//   - render: geometry buffers, draw lists, texture bindings, transforms,
//     paint callbacks and the render node
//   - output: cursor and clipboard requests back to the platform
//
// # Coordinate System
//
// GUI coordinates are logical points with the origin at the top-left and
// y pointing down. Pixels per point is the target's scale factor multiplied
// by Settings.ScaleFactor unless the GUI pass reports its own.
package uibridge
