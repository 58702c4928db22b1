package store

import (
	"errors"
	"fmt"
)

// Sentinel errors for store construction, subscription, and dispatch. Every
// error signals a programmer mistake; none are transient.
var (
	ErrInvalidReducer       = errors.New("expected the reducer to be a function")
	ErrInvalidEnhancer      = errors.New("expected the enhancer to be a function")
	ErrInvalidListener      = errors.New("expected the listener to be a function")
	ErrInvalidObserver      = errors.New("expected the observer to be non-nil")
	ErrInvalidActionShape   = errors.New("actions must be plain records; use custom middleware for other values")
	ErrMissingDiscriminator = errors.New(`actions may not have an absent "type" field`)
	ErrReentrantDispatch    = errors.New("reducers may not dispatch actions")
)

// Reducer failures, carried by ReducerError.
var (
	ErrUndefinedState = errors.New("reducer returned an absent state; to ignore an action, return the previous state")
	ErrReducerInit    = errors.New("reducer returned an absent state during initialization")
	ErrReducerProbe   = errors.New("reducer returned an absent state when probed with a random type")
)

// ReducerError identifies the reducer that broke the absent-state rule.
//
// Err is one of ErrUndefinedState, ErrReducerInit or ErrReducerProbe. Cause
// holds the error the reducer itself returned, if any. Key is empty for the
// root reducer of a store.
type ReducerError struct {
	Key        string
	ActionType any
	Err        error
	Cause      error
}

// Error implements the error interface.
func (e *ReducerError) Error() string {
	name := "root reducer"
	if e.Key != "" {
		name = fmt.Sprintf("reducer %q", e.Key)
	}

	action := "an action"
	if e.ActionType != nil {
		action = fmt.Sprintf("action %q", fmt.Sprint(e.ActionType))
	}

	msg := fmt.Sprintf("%s (given %s): %v", name, action, e.Err)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap enables errors.Is and errors.As against both Err and Cause.
func (e *ReducerError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}
