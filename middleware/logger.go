package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/tailored-agentic-units/store/observability"
	"github.com/tailored-agentic-units/store/store"
)

// Middleware event types.
const (
	EventAction      observability.EventType = "middleware.action"
	EventState       observability.EventType = "middleware.state"
	EventActionError observability.EventType = "middleware.action.error"
)

// Logger emits an event before every action is passed on and another with
// the resulting state once the rest of the chain has returned.
func Logger(observer observability.Observer) Middleware {
	observer = observability.OrNoOp(observer)

	return func(api API) Wrapper {
		return func(next store.Dispatch) store.Dispatch {
			return func(action any) (any, error) {
				actionType := describe(action)
				start := time.Now()

				observer.OnEvent(context.Background(), observability.Event{
					Type:      EventAction,
					Level:     observability.LevelInfo,
					Timestamp: start,
					Source:    "middleware.logger",
					Data:      map[string]any{"action_type": actionType},
				})

				result, err := next(action)
				if err != nil {
					observer.OnEvent(context.Background(), observability.Event{
						Type:      EventActionError,
						Level:     observability.LevelError,
						Timestamp: time.Now(),
						Source:    "middleware.logger",
						Data: map[string]any{
							"action_type": actionType,
							"error":       err.Error(),
						},
					})
					return result, err
				}

				observer.OnEvent(context.Background(), observability.Event{
					Type:      EventState,
					Level:     observability.LevelVerbose,
					Timestamp: time.Now(),
					Source:    "middleware.logger",
					Data: map[string]any{
						"action_type": actionType,
						"state":       api.GetState(),
						"duration":    time.Since(start).String(),
					},
				})
				return result, nil
			}
		}
	}
}

// describe names an action for logs and spans: its type for records, its Go
// type otherwise.
func describe(action any) string {
	if a, err := store.AsAction(action); err == nil {
		return a.TypeString()
	}
	return fmt.Sprintf("%T", action)
}
