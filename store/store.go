// Package store implements a synchronous, unidirectional state container.
//
// A Store owns a single state value that changes only when an action is
// dispatched through its current Reducer. Listeners registered with Subscribe
// are notified, in registration order, after every successful dispatch.
//
//	s, err := store.New(store.Pure(counter))
//	unsubscribe, err := s.Subscribe(func() { fmt.Println(s.GetState()) })
//	_, err = s.Dispatch(store.NewAction("INC", nil))
//
// A Store is not safe for concurrent use. Callers that share one across
// goroutines must serialize access themselves.
package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/store/observability"
)

// Listener is called with no arguments after each successful dispatch.
type Listener func()

// Dispatch applies an action and returns it, or a value substituted by
// middleware.
type Dispatch func(action any) (any, error)

// Creator builds a store from a reducer and an optional preloaded state.
type Creator func(reducer Reducer, preloadedState any) (*Store, error)

// Enhancer wraps store construction. The middleware pipeline is one.
type Enhancer func(next Creator) Creator

// Store is a handle onto a state container. Handles returned by WithDispatch
// share state, reducer, and listeners with the handle they came from.
type Store struct {
	core     *core
	dispatch Dispatch
}

type core struct {
	id                    string
	name                  string
	observer              observability.Observer
	allowListenerDispatch bool

	currentReducer   Reducer
	currentState     any
	currentListeners *listenerList
	nextListeners    *listenerList
	isDispatching    bool
	isNotifying      bool
}

type listenerList struct {
	entries []*subscription
}

type subscription struct {
	listener   Listener
	subscribed bool
}

// New creates a Store around reducer and dispatches ActionInit once to
// populate the initial state. When an enhancer is supplied construction is
// delegated to it entirely.
func New(reducer Reducer, opts ...Option) (*Store, error) {
	o := newOptions(opts)

	if o.enhancer != nil {
		create := o.enhancer(o.creator())
		if create == nil {
			return nil, ErrInvalidEnhancer
		}
		return create(reducer, o.preloadedState)
	}

	return o.build(reducer, o.preloadedState)
}

// Create mirrors the three-argument construction form. When enhancer is nil
// and preloadedState is itself an Enhancer it is used as the enhancer and the
// initial state is left unset. Any other function value in that position
// fails with ErrInvalidEnhancer.
func Create(reducer Reducer, preloadedState any, enhancer Enhancer) (*Store, error) {
	if enhancer == nil {
		switch e := preloadedState.(type) {
		case Enhancer:
			enhancer, preloadedState = e, nil
		case func(Creator) Creator:
			enhancer, preloadedState = e, nil
		default:
			if isFunc(preloadedState) {
				return nil, fmt.Errorf("%w: got %T", ErrInvalidEnhancer, preloadedState)
			}
		}
	}

	return New(reducer, WithPreloadedState(preloadedState), WithEnhancer(enhancer))
}

func (o *options) creator() Creator {
	return func(reducer Reducer, preloadedState any) (*Store, error) {
		return o.build(reducer, preloadedState)
	}
}

func (o *options) build(reducer Reducer, preloadedState any) (*Store, error) {
	if reducer == nil {
		return nil, ErrInvalidReducer
	}

	listeners := &listenerList{}
	c := &core{
		id:                    uuid.New().String(),
		name:                  o.name,
		observer:              o.observer,
		allowListenerDispatch: o.allowListenerDispatch,
		currentReducer:        reducer,
		currentState:          preloadedState,
		currentListeners:      listeners,
		nextListeners:         listeners,
	}

	c.emit(EventCreate, observability.LevelInfo, map[string]any{
		"preloaded":               preloadedState != nil,
		"allow_listener_dispatch": c.allowListenerDispatch,
	})

	if _, err := c.dispatch(Action{TypeKey: ActionInit}); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	return &Store{core: c, dispatch: c.dispatch}, nil
}

// ID returns the unique identifier assigned at construction.
func (s *Store) ID() string {
	return s.core.id
}

// Name returns the configured store name.
func (s *Store) Name() string {
	return s.core.name
}

// GetState returns the state produced by the most recent completed dispatch.
func (s *Store) GetState() any {
	return s.core.currentState
}

// Dispatch sends action through this handle's dispatch chain.
func (s *Store) Dispatch(action any) (any, error) {
	return s.dispatch(action)
}

// Subscribe registers listener to run after every successful dispatch and
// returns a function that removes it. Removal is idempotent.
//
// Subscribing or unsubscribing from inside a listener never affects the
// notification pass in progress; the change applies from the next dispatch.
func (s *Store) Subscribe(listener Listener) (func(), error) {
	return s.core.subscribe(listener)
}

// ReplaceReducer swaps the active reducer and dispatches ActionInit so that
// newly introduced state branches populate their defaults. When the swap
// cannot dispatch, or the ActionInit dispatch fails, the previous reducer and
// state are kept.
func (s *Store) ReplaceReducer(next Reducer) error {
	if next == nil {
		return ErrInvalidReducer
	}

	c := s.core
	if err := c.checkReentrancy(); err != nil {
		return err
	}

	previous := c.currentReducer
	c.currentReducer = next
	c.emit(EventReplaceReducer, observability.LevelInfo, nil)

	if _, err := c.dispatch(Action{TypeKey: ActionInit}); err != nil {
		c.currentReducer = previous
		return err
	}
	return nil
}

// WithDispatch returns a handle identical to s except that Dispatch calls d.
// A nil d restores the base dispatch.
func (s *Store) WithDispatch(d Dispatch) *Store {
	if d == nil {
		d = s.core.dispatch
	}
	return &Store{core: s.core, dispatch: d}
}

// ensureCanMutateNextListeners clones the pending list when it still aliases
// the snapshot an in-flight or completed dispatch iterated.
func (c *core) ensureCanMutateNextListeners() {
	if c.nextListeners == c.currentListeners {
		c.nextListeners = &listenerList{entries: slices.Clone(c.currentListeners.entries)}
	}
}

func (c *core) subscribe(listener Listener) (func(), error) {
	if listener == nil {
		return nil, ErrInvalidListener
	}

	sub := &subscription{listener: listener, subscribed: true}

	c.ensureCanMutateNextListeners()
	c.nextListeners.entries = append(c.nextListeners.entries, sub)
	c.emit(EventSubscribe, observability.LevelVerbose, map[string]any{
		"listeners": len(c.nextListeners.entries),
	})

	return func() {
		if !sub.subscribed {
			return
		}
		sub.subscribed = false

		c.ensureCanMutateNextListeners()
		c.nextListeners.entries = slices.DeleteFunc(c.nextListeners.entries, func(e *subscription) bool {
			return e == sub
		})
		c.emit(EventUnsubscribe, observability.LevelVerbose, map[string]any{
			"listeners": len(c.nextListeners.entries),
		})
	}, nil
}

func (c *core) dispatch(raw any) (any, error) {
	action, err := AsAction(raw)
	if err != nil {
		return nil, err
	}

	if err := c.checkReentrancy(); err != nil {
		return nil, err
	}

	next, err := c.reduce(action)
	if err != nil {
		c.emit(EventDispatchError, observability.LevelError, map[string]any{
			"action_type": action.TypeString(),
			"error":       err.Error(),
		})
		return nil, err
	}
	c.currentState = next

	c.emit(EventDispatch, observability.LevelVerbose, map[string]any{
		"action_type": action.TypeString(),
	})

	c.notify()
	return raw, nil
}

func (c *core) checkReentrancy() error {
	if c.isDispatching {
		return ErrReentrantDispatch
	}
	if c.isNotifying && !c.allowListenerDispatch {
		return fmt.Errorf("%w: dispatch issued from a listener", ErrReentrantDispatch)
	}
	return nil
}

// reduce runs the current reducer under the reentrancy guard. The guard is
// reset on every exit path, panics included.
func (c *core) reduce(action Action) (any, error) {
	c.isDispatching = true
	defer func() { c.isDispatching = false }()

	next, err := c.currentReducer(c.currentState, action)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, &ReducerError{ActionType: action.Type(), Err: ErrUndefinedState}
	}
	return next, nil
}

func (c *core) notify() {
	listeners := c.nextListeners
	c.currentListeners = listeners

	wasNotifying := c.isNotifying
	c.isNotifying = true
	defer func() { c.isNotifying = wasNotifying }()

	c.emit(EventNotify, observability.LevelVerbose, map[string]any{
		"listeners": len(listeners.entries),
	})

	for _, sub := range listeners.entries {
		sub.listener()
	}
}

func (c *core) emit(eventType observability.EventType, level observability.Level, data map[string]any) {
	if data == nil {
		data = make(map[string]any, 1)
	}
	data["store_id"] = c.id

	c.observer.OnEvent(context.Background(), observability.Event{
		Type:      eventType,
		Level:     level,
		Timestamp: time.Now(),
		Source:    c.name,
		Data:      data,
	})
}
