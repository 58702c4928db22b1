package store

// Reducer is a pure state transition. It must return a non-nil state for
// every action, including unknown ones and ActionInit; the error return is
// reserved for reducer composition failures.
type Reducer func(state any, action Action) (any, error)

// Pure adapts an error-free transition function into a Reducer. Pure(nil)
// returns nil so construction still rejects it.
func Pure(fn func(state any, action Action) any) Reducer {
	if fn == nil {
		return nil
	}
	return func(state any, action Action) (any, error) {
		return fn(state, action), nil
	}
}
