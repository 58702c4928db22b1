package main

import (
	"maps"
	"slices"

	"github.com/tailored-agentic-units/store/middleware"
	"github.com/tailored-agentic-units/store/reducer"
	"github.com/tailored-agentic-units/store/store"
)

// Action types understood by the demo reducers.
const (
	actionIncrement = "counter/increment"
	actionDecrement = "counter/decrement"
	actionAddTodo   = "todos/add"
	actionToggle    = "todos/toggle"
)

// count accepts int and float64 amounts so actions decoded from the wire work.
func count(state any, action store.Action) any {
	n, _ := state.(int)

	by := 1
	switch v := action["by"].(type) {
	case int:
		by = v
	case float64:
		by = int(v)
	}

	switch action.Type() {
	case actionIncrement:
		return n + by
	case actionDecrement:
		return n - by
	default:
		return n
	}
}

// todos keeps each entry as a plain map so the state can be served over rpc.
func todos(state any, action store.Action) any {
	list, ok := state.([]any)
	if !ok {
		list = []any{}
	}

	switch action.Type() {
	case actionAddTodo:
		text, _ := action["text"].(string)
		return append(slices.Clone(list), map[string]any{"text": text, "completed": false})
	case actionToggle:
		index := -1
		switch v := action["index"].(type) {
		case int:
			index = v
		case float64:
			index = int(v)
		}
		if index < 0 || index >= len(list) {
			return list
		}
		item, _ := list[index].(map[string]any)
		toggled := maps.Clone(item)
		if toggled == nil {
			toggled = map[string]any{}
		}
		completed, _ := toggled["completed"].(bool)
		toggled["completed"] = !completed

		next := slices.Clone(list)
		next[index] = toggled
		return next
	default:
		return list
	}
}

func rootReducer(opts ...reducer.Option) store.Reducer {
	return reducer.Combine(map[string]store.Reducer{
		"count": store.Pure(count),
		"todos": store.Pure(todos),
	}, opts...)
}

// addTodos dispatches one add action per text.
func addTodos(texts ...string) middleware.ThunkFunc {
	return func(dispatch store.Dispatch, getState func() any) (any, error) {
		for _, text := range texts {
			if _, err := dispatch(store.NewAction(actionAddTodo, map[string]any{"text": text})); err != nil {
				return nil, err
			}
		}
		return getState(), nil
	}
}
