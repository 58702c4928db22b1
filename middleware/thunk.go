package middleware

import "github.com/tailored-agentic-units/store/store"

// ThunkFunc is a dispatchable function. The Thunk middleware calls it with
// the full-pipeline dispatch and the store's GetState instead of forwarding
// it to the reducer.
type ThunkFunc func(dispatch store.Dispatch, getState func() any) (any, error)

// Thunk lets callers dispatch ThunkFunc values to sequence several actions or
// defer dispatching until work they start has finished. Anything else is
// passed to the next dispatch unchanged.
//
// Work started by a thunk that dispatches from another goroutine must
// serialize access to the store itself.
func Thunk() Middleware {
	return func(api API) Wrapper {
		return func(next store.Dispatch) store.Dispatch {
			return func(action any) (any, error) {
				switch thunk := action.(type) {
				case ThunkFunc:
					return thunk(api.Dispatch, api.GetState)
				case func(store.Dispatch, func() any) (any, error):
					return thunk(api.Dispatch, api.GetState)
				}
				return next(action)
			}
		}
	}
}
