package store

import "github.com/tailored-agentic-units/store/observability"

// Store event types.
const (
	EventCreate         observability.EventType = "store.create"
	EventDispatch       observability.EventType = "store.dispatch"
	EventDispatchError  observability.EventType = "store.dispatch.error"
	EventNotify         observability.EventType = "store.notify"
	EventSubscribe      observability.EventType = "store.subscribe"
	EventUnsubscribe    observability.EventType = "store.unsubscribe"
	EventReplaceReducer observability.EventType = "store.replace_reducer"
)
