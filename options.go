package uibridge

import (
	"log/slog"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/uibridge/textures"
)

// Option configures a Bridge during creation.
//
// Example:
//
//	settings, err := uibridge.LoadSettings("ui.toml")
//	if err != nil {
//	    return err
//	}
//	b, err := uibridge.New(provider,
//	    uibridge.WithSettings(settings),
//	    uibridge.WithPlatform(platform),
//	)
type Option func(*options)

// options holds optional configuration for Bridge creation.
type options struct {
	settings Settings
	platform gpucontext.PlatformProvider
	resolver textures.ImageResolver
	logger   *slog.Logger
	limits   gputypes.Limits
}

// defaultOptions returns the default bridge options.
func defaultOptions() options {
	return options{
		settings: DefaultSettings(),
		limits:   gputypes.DefaultLimits(),
	}
}

// WithSettings replaces DefaultSettings.
func WithSettings(s Settings) Option {
	return func(o *options) {
		o.settings = s
	}
}

// WithPlatform sets the platform that receives cursor and clipboard output
// and supplies paste text. Without it platform output is dropped.
func WithPlatform(p gpucontext.PlatformProvider) Option {
	return func(o *options) {
		o.platform = p
	}
}

// WithImageResolver sets how user texture handles resolve to GPU views.
// Without it no user texture resolves.
func WithImageResolver(r textures.ImageResolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithLogger calls SetLogger with l when the bridge is created.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithLimits sets the device limits used for bindless chunking and uniform
// alignment. The default is gputypes.DefaultLimits.
func WithLimits(l gputypes.Limits) Option {
	return func(o *options) {
		o.limits = l
	}
}
