package dedupe

// defaultMaxSize bounds the deduper when no option is given.
const defaultMaxSize = 100_000

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets the maximum number of IDs kept in memory.
// A size of 0 or below means unbounded.
func WithMaxSize(size int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = size
	}
}
