package dedupe

// Option applies a configuration option to the memory deduper.
type Option func(*memoryDeduper)

// WithCapacity sets how many delivery IDs are retained before the
// oldest is evicted. Zero or negative disables eviction.
func WithCapacity(n int) Option {
	return func(d *memoryDeduper) {
		d.cap = n
	}
}
