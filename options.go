package castellan

import (
	"log/slog"

	"github.com/xraph/castellan/plugin"
	"github.com/xraph/castellan/store"
)

// Option is a functional option for the Engine.
type Option func(*Engine)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(e *Engine) { e.store = s } }

// WithCache sets the permission set cache. Without it the engine builds an
// in-process LRU sized by Config.
func WithCache(c Cache) Option { return func(e *Engine) { e.cache = c } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithConfig sets the engine configuration.
func WithConfig(c Config) Option { return func(e *Engine) { e.config = c } }

// WithPlugin registers a plugin with the engine.
func WithPlugin(x plugin.Plugin) Option {
	return func(e *Engine) {
		if e.plugins == nil {
			e.plugins = plugin.NewRegistry(e.logger)
		}
		e.plugins.Register(x)
	}
}

// WithPlugins registers several plugins in order.
func WithPlugins(xs ...plugin.Plugin) Option {
	return func(e *Engine) {
		for _, x := range xs {
			WithPlugin(x)(e)
		}
	}
}
