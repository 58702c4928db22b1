// Package reducer merges independent reducers into one reducer over a
// record-shaped state.
//
// Each key of the combined state is owned by exactly one sub-reducer:
//
//	root := reducer.Combine(map[string]store.Reducer{
//	    "todos":  todos,
//	    "filter": visibilityFilter,
//	})
//	s, err := store.New(root)
//
// The merged reducer reuses the previous state map whenever no sub-reducer
// produced a new slice, so consumers can detect change by identity.
package reducer

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/store/observability"
	"github.com/tailored-agentic-units/store/store"
)

// Option configures Combine.
type Option func(*options)

type options struct {
	observer observability.Observer
	source   string
}

// WithObserver receives composition warnings and sanity-check failures.
func WithObserver(observer observability.Observer) Option {
	return func(o *options) { o.observer = observability.OrNoOp(observer) }
}

// WithSource sets the event source name. Defaults to "reducer".
func WithSource(source string) Option {
	return func(o *options) {
		if source != "" {
			o.source = source
		}
	}
}

// Combine merges reducers into a single reducer whose state is a
// map[string]any keyed like reducers. Nil entries are skipped with a warning.
//
// Every retained reducer is checked once, here: it must return a non-nil
// state for ActionInit and for a randomly generated unknown action type when
// given an absent state. A failure does not stop composition; the returned
// reducer fails with it on every call instead.
func Combine(reducers map[string]store.Reducer, opts ...Option) store.Reducer {
	o := &options{observer: observability.NoOpObserver{}, source: "reducer"}
	for _, opt := range opts {
		opt(o)
	}

	finalReducers := make(map[string]store.Reducer, len(reducers))
	for _, key := range slices.Sorted(maps.Keys(reducers)) {
		if reducers[key] == nil {
			o.emit(EventMissing, observability.LevelWarning, map[string]any{"key": key})
			continue
		}
		finalReducers[key] = reducers[key]
	}
	finalKeys := slices.Sorted(maps.Keys(finalReducers))

	if len(finalKeys) == 0 {
		o.emit(EventEmpty, observability.LevelWarning, nil)
	}

	sanityErr := assertReducerShapes(finalKeys, finalReducers)
	if sanityErr != nil {
		o.emit(EventSanityFailed, observability.LevelError, map[string]any{"error": sanityErr.Error()})
	}

	o.emit(EventCombine, observability.LevelVerbose, map[string]any{"keys": finalKeys})

	unexpectedKeyCache := make(map[string]bool)

	return func(state any, action store.Action) (any, error) {
		if sanityErr != nil {
			return nil, sanityErr
		}

		previous, ok := state.(map[string]any)
		switch {
		case state == nil:
			previous = map[string]any{}
		case !ok:
			o.emit(EventUnexpectedShape, observability.LevelWarning, map[string]any{
				"action_type": action.TypeString(),
				"state_type":  fmt.Sprintf("%T", state),
				"keys":        finalKeys,
			})
		default:
			o.warnUnexpectedKeys(previous, finalReducers, action, unexpectedKeyCache)
		}

		hasChanged := false
		next := make(map[string]any, len(finalKeys))
		for _, key := range finalKeys {
			previousForKey := previous[key]

			nextForKey, err := finalReducers[key](previousForKey, action)
			if err != nil {
				return nil, fmt.Errorf("reducer %q: %w", key, err)
			}
			if nextForKey == nil {
				return nil, &store.ReducerError{
					Key:        key,
					ActionType: action.Type(),
					Err:        store.ErrUndefinedState,
				}
			}

			next[key] = nextForKey
			hasChanged = hasChanged || !Same(nextForKey, previousForKey)
		}

		if hasChanged {
			return next, nil
		}
		if state == nil {
			return previous, nil
		}
		return state, nil
	}
}

func (o *options) warnUnexpectedKeys(state map[string]any, reducers map[string]store.Reducer, action store.Action, cache map[string]bool) {
	var unexpected []string
	for _, key := range slices.Sorted(maps.Keys(state)) {
		if _, known := reducers[key]; known || cache[key] {
			continue
		}
		cache[key] = true
		unexpected = append(unexpected, key)
	}

	if len(unexpected) == 0 {
		return
	}

	o.emit(EventUnexpectedKeys, observability.LevelWarning, map[string]any{
		"action_type": action.TypeString(),
		"unexpected":  unexpected,
		"keys":        slices.Sorted(maps.Keys(reducers)),
	})
}

func (o *options) emit(eventType observability.EventType, level observability.Level, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	o.observer.OnEvent(context.Background(), observability.Event{
		Type:      eventType,
		Level:     level,
		Timestamp: time.Now(),
		Source:    o.source,
		Data:      data,
	})
}

// ProbeType returns an unguessable action type in the store's reserved
// namespace.
func ProbeType() string {
	return store.ActionProbePrefix + uuid.NewString()
}

func assertReducerShapes(keys []string, reducers map[string]store.Reducer) error {
	for _, key := range keys {
		reducer := reducers[key]

		initial, err := invoke(reducer, store.Action{store.TypeKey: store.ActionInit})
		if err != nil || initial == nil {
			return &store.ReducerError{
				Key:        key,
				ActionType: store.ActionInit,
				Err:        store.ErrReducerInit,
				Cause:      err,
			}
		}

		probe := ProbeType()
		probed, err := invoke(reducer, store.Action{store.TypeKey: probe})
		if err != nil || probed == nil {
			return &store.ReducerError{
				Key:        key,
				ActionType: probe,
				Err:        store.ErrReducerProbe,
				Cause:      err,
			}
		}
	}
	return nil
}

// invoke calls reducer with an absent state, converting a panic into an
// error so the sanity check can defer it like any other failure.
func invoke(reducer store.Reducer, action store.Action) (state any, err error) {
	defer func() {
		if p := recover(); p != nil {
			state, err = nil, fmt.Errorf("reducer panicked: %v", p)
		}
	}()
	return reducer(nil, action)
}
