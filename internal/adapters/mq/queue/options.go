package queue

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity bounds the number of waiting jobs. capacity <= 0 keeps the
// queue unbounded, which is the default.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		q.capacity = capacity
	}
}
