package observability

import "context"

// NoOpObserver discards all events with zero overhead.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(ctx context.Context, event Event) {}

// OrNoOp returns observer, or NoOpObserver when observer is nil.
func OrNoOp(observer Observer) Observer {
	if observer == nil {
		return NoOpObserver{}
	}
	return observer
}
