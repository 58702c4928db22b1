package store

import (
	"fmt"
	"strings"
)

// TypeKey is the discriminator field every Action must carry.
const TypeKey = "type"

// Reserved action types. Application reducers must never handle these
// explicitly: for any unknown action they return the current state, or their
// initial state when the current state is absent.
const (
	// ActionInit is dispatched once when a store is created and again every
	// time its reducer is replaced, so each reducer populates its defaults.
	ActionInit = "@@store/INIT"

	// ActionProbePrefix prefixes the randomly generated types used to verify
	// that reducers have a default branch.
	ActionProbePrefix = "@@store/PROBE_UNKNOWN_ACTION_"
)

// Action is a plain record describing an intended state change. The value at
// TypeKey discriminates the action and must not be nil.
type Action map[string]any

// NewAction creates an Action of the given type carrying a copy of payload.
// A "type" entry in payload is overwritten by actionType.
func NewAction(actionType any, payload map[string]any) Action {
	action := make(Action, len(payload)+1)
	for k, v := range payload {
		action[k] = v
	}
	action[TypeKey] = actionType
	return action
}

// Type returns the discriminator value, or nil when absent.
func (a Action) Type() any {
	return a[TypeKey]
}

// TypeString returns the discriminator formatted as a string, or "" when absent.
func (a Action) TypeString() string {
	t := a.Type()
	if t == nil {
		return ""
	}
	if s, ok := t.(string); ok {
		return s
	}
	return fmt.Sprint(t)
}

// Get returns the value stored under key.
func (a Action) Get(key string) (any, bool) {
	v, ok := a[key]
	return v, ok
}

// IsReserved reports whether the action type belongs to the store's private
// namespace.
func (a Action) IsReserved() bool {
	t, ok := a.Type().(string)
	return ok && strings.HasPrefix(t, reservedPrefix)
}

const reservedPrefix = "@@store/"

// AsAction converts a dispatched value into an Action. Only Action and
// map[string]any values are plain records; anything else, including nil
// maps, fails with ErrInvalidActionShape.
func AsAction(v any) (Action, error) {
	var action Action
	switch a := v.(type) {
	case Action:
		action = a
	case map[string]any:
		action = Action(a)
	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidActionShape, v)
	}

	if action == nil {
		return nil, fmt.Errorf("%w: got nil record", ErrInvalidActionShape)
	}
	if action.Type() == nil {
		return nil, ErrMissingDiscriminator
	}
	return action, nil
}
