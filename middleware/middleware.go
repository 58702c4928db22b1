// Package middleware builds store enhancers that intercept dispatch with a
// chain of wrapper functions.
//
// A Middleware receives the store API and returns a transformer over the next
// dispatch function in the chain. The first middleware passed to Apply is the
// outermost: it sees each action first and its return value last.
//
//	s, err := store.New(root, store.WithEnhancer(
//	    middleware.Apply(middleware.Thunk(), middleware.Logger(observer)),
//	))
package middleware

import (
	"errors"
	"fmt"

	"github.com/tailored-agentic-units/store/compose"
	"github.com/tailored-agentic-units/store/store"
)

// ErrInvalidMiddleware is returned when a middleware, or the wrapper it
// produces, is nil.
var ErrInvalidMiddleware = errors.New("expected the middleware to be a function")

// API is the fixed store surface handed to every middleware.
//
// Dispatch always forwards to the store's outermost dispatch, so a middleware
// calling it sends the action through the whole chain again, including
// middleware that runs after it.
type API struct {
	GetState func() any
	Dispatch store.Dispatch
}

// Wrapper transforms the next dispatch function into a new one.
type Wrapper func(next store.Dispatch) store.Dispatch

// Middleware produces a Wrapper for a store.
type Middleware func(api API) Wrapper

// Apply returns an enhancer that installs middlewares on the store it
// creates. The returned store shares state and listeners with the base store;
// only its dispatch differs.
func Apply(middlewares ...Middleware) store.Enhancer {
	return func(create store.Creator) store.Creator {
		return func(reducer store.Reducer, preloadedState any) (*store.Store, error) {
			s, err := create(reducer, preloadedState)
			if err != nil {
				return nil, err
			}

			dispatch := s.Dispatch
			api := API{
				GetState: s.GetState,
				Dispatch: func(action any) (any, error) {
					return dispatch(action)
				},
			}

			chain := make([]func(store.Dispatch) store.Dispatch, 0, len(middlewares))
			for i, m := range middlewares {
				if m == nil {
					return nil, fmt.Errorf("%w: middleware %d is nil", ErrInvalidMiddleware, i)
				}
				wrapper := m(api)
				if wrapper == nil {
					return nil, fmt.Errorf("%w: middleware %d returned a nil wrapper", ErrInvalidMiddleware, i)
				}
				chain = append(chain, wrapper)
			}

			dispatch = compose.Compose(chain...)(s.Dispatch)
			return s.WithDispatch(dispatch), nil
		}
	}
}
