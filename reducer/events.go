package reducer

import "github.com/tailored-agentic-units/store/observability"

const (
	EventCombine         observability.EventType = "reducer.combine"
	EventMissing         observability.EventType = "reducer.missing"
	EventEmpty           observability.EventType = "reducer.empty"
	EventUnexpectedShape observability.EventType = "reducer.unexpected_shape"
	EventUnexpectedKeys  observability.EventType = "reducer.unexpected_keys"
	EventSanityFailed    observability.EventType = "reducer.sanity_failed"
)
