package ledger

// Option applies a configuration option to a Ledger.
type Option func(*Ledger)

// WithMaxSize bounds the ledger. When full, the oldest signature is evicted.
// maxSize <= 0 keeps the ledger unbounded.
func WithMaxSize(maxSize int) Option {
	return func(l *Ledger) {
		l.maxSize = maxSize
	}
}
