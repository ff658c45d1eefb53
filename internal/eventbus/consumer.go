package eventbus

import "context"

// Consumer handles events of one type. A returned error is retried by the
// bus; return nil for events that should be dropped.
type Consumer interface {
	Consume(ctx context.Context, event Event) error
	// GetWorkerCount is the number of goroutines draining the channel.
	GetWorkerCount() int
}
