package publisher

// Publisher pushes captured briefing events out to downstream consumers
type Publisher interface {
	// Publish publishes one event payload under the given key
	Publish(key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}
