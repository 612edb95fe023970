package strategy

import (
	"runtime"

	"go.uber.org/zap"
)

// MaxPopulation bounds the populations the builder will tabulate.
const MaxPopulation = 24

// Option configures a Builder.
type Option func(*Builder)

// WithWorkers bounds how many signatures of one generation are evaluated at
// once. Values below 1 fall back to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		b.workers = n
	}
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}
