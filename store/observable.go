package store

// StateObserver receives the store state through the reactive interop
// entry point.
type StateObserver interface {
	Next(state any)
}

// StateObserverFunc adapts a function to StateObserver. A nil function
// ignores every state.
type StateObserverFunc func(state any)

func (f StateObserverFunc) Next(state any) {
	if f != nil {
		f(state)
	}
}

// Observable is a minimal reactive view over a store's state.
type Observable struct {
	store *Store
}

// Subscription is returned by Observable.Subscribe.
type Subscription struct {
	unsubscribe func()
}

// Unsubscribe stops delivery. Calling it more than once, or on a zero
// Subscription, has no effect.
func (s *Subscription) Unsubscribe() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Observable returns the reactive interop view of s.
func (s *Store) Observable() *Observable {
	return &Observable{store: s}
}

// Subscribe immediately delivers the current state to observer, then
// delivers the state after every subsequent dispatch.
func (o *Observable) Subscribe(observer StateObserver) (*Subscription, error) {
	if observer == nil {
		return nil, ErrInvalidObserver
	}

	observeState := func() {
		observer.Next(o.store.GetState())
	}

	observeState()
	unsubscribe, err := o.store.Subscribe(observeState)
	if err != nil {
		return nil, err
	}
	return &Subscription{unsubscribe: unsubscribe}, nil
}
