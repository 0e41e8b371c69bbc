package trust

import "github.com/okian/monopad/pkg/logger"

// Option applies a configuration option to an Adapter.
type Option func(*Adapter)

// WithRefresher installs the detail-view refresh observer.
func WithRefresher(r Refresher) Option {
	return func(a *Adapter) {
		a.refresh = r
	}
}

// WithLogger sets the adapter's logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.log = l
		}
	}
}
