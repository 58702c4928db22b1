package reducer_test

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/store/observability"
	"github.com/tailored-agentic-units/store/reducer"
	"github.com/tailored-agentic-units/store/store"
)

// --- Test helpers ---

func counter(state any, action store.Action) (any, error) {
	n, _ := state.(int)
	switch action.Type() {
	case "INC":
		return n + 1, nil
	default:
		return n, nil
	}
}

func todos(state any, action store.Action) (any, error) {
	list, _ := state.([]string)
	if list == nil {
		list = []string{}
	}
	if action.Type() == "ADD" {
		text, _ := action["text"].(string)
		return append(slices.Clone(list), text), nil
	}
	return list, nil
}

// allowList returns nil for any type it does not recognize, which is the
// bug the sanity check exists to catch.
func allowList(state any, action store.Action) (any, error) {
	switch action.Type() {
	case store.ActionInit, "INC":
		return 0, nil
	default:
		return nil, nil
	}
}

type captureObserver struct {
	events []observability.Event
}

func (c *captureObserver) OnEvent(ctx context.Context, event observability.Event) {
	c.events = append(c.events, event)
}

func (c *captureObserver) byType(eventType observability.EventType) []observability.Event {
	var matched []observability.Event
	for _, e := range c.events {
		if e.Type == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

func initAction() store.Action {
	return store.NewAction(store.ActionInit, nil)
}

func mustReduce(t *testing.T, r store.Reducer, state any, action store.Action) map[string]any {
	t.Helper()
	next, err := r(state, action)
	if err != nil {
		t.Fatalf("reducer failed: %v", err)
	}
	m, ok := next.(map[string]any)
	if !ok {
		t.Fatalf("reducer returned %T, want map[string]any", next)
	}
	return m
}

// --- Combine ---

func TestCombine_InitialStateFromSubReducers(t *testing.T) {
	r := reducer.Combine(map[string]store.Reducer{
		"count": counter,
		"todos": todos,
	})

	state := mustReduce(t, r, nil, initAction())

	wantCount, _ := counter(nil, initAction())
	if state["count"] != wantCount {
		t.Errorf("count = %v, want %v", state["count"], wantCount)
	}
	if list, ok := state["todos"].([]string); !ok || len(list) != 0 {
		t.Errorf("todos = %#v, want empty []string", state["todos"])
	}
	if len(state) != 2 {
		t.Errorf("state has %d keys, want 2", len(state))
	}
}

func TestCombine_ReferenceStability(t *testing.T) {
	r := reducer.Combine(map[string]store.Reducer{
		"count": counter,
		"todos": todos,
	})

	first := mustReduce(t, r, nil, initAction())
	second := mustReduce(t, r, first, store.NewAction("UNKNOWN", nil))

	if !reducer.Same(first, second) {
		t.Error("expected the same top-level state when no slice changed")
	}
}

type settings struct {
	Theme string
	Tags  []string
}

func TestCombine_ReferenceStabilityWithStructSlices(t *testing.T) {
	r := reducer.Combine(map[string]store.Reducer{
		"settings": func(state any, action store.Action) (any, error) {
			current, ok := state.(settings)
			if !ok {
				return settings{Theme: "light", Tags: []string{}}, nil
			}
			if action.Type() == "TAG" {
				return settings{Theme: current.Theme, Tags: append(slices.Clone(current.Tags), "new")}, nil
			}
			return current, nil
		},
	})

	first := mustReduce(t, r, nil, initAction())
	second := mustReduce(t, r, first, store.NewAction("UNKNOWN", nil))
	if !reducer.Same(first, second) {
		t.Error("expected the same top-level state when the struct slice was returned unchanged")
	}

	third := mustReduce(t, r, second, store.NewAction("TAG", nil))
	if reducer.Same(second, third) {
		t.Error("expected a new top-level state after the struct slice changed")
	}
}

func TestCombine_NewStateOnChange(t *testing.T) {
	r := reducer.Combine(map[string]store.Reducer{
		"count": counter,
		"todos": todos,
	})

	first := mustReduce(t, r, nil, initAction())
	second := mustReduce(t, r, first, store.NewAction("ADD", map[string]any{"text": "learn Go"}))

	if reducer.Same(first, second) {
		t.Fatal("expected a new top-level state after a slice changed")
	}
	if !reducer.Same(first["count"], second["count"]) {
		t.Error("expected unchanged slice to be carried over")
	}
	if got := second["todos"].([]string); !slices.Equal(got, []string{"learn Go"}) {
		t.Errorf("todos = %v, want [learn Go]", got)
	}
	if len(first["todos"].([]string)) != 0 {
		t.Error("previous state must not be mutated")
	}
}

func TestCombine_UndefinedState(t *testing.T) {
	r := reducer.Combine(map[string]store.Reducer{
		"count": counter,
		"flaky": func(state any, action store.Action) (any, error) {
			if action.Type() == "BREAK" {
				return nil, nil
			}
			return "ok", nil
		},
	})

	_, err := r(nil, store.NewAction("BREAK", nil))

	var reducerErr *store.ReducerError
	if !errors.As(err, &reducerErr) {
		t.Fatalf("error = %v, want *store.ReducerError", err)
	}
	if !errors.Is(err, store.ErrUndefinedState) {
		t.Errorf("error = %v, want ErrUndefinedState", err)
	}
	if reducerErr.Key != "flaky" || reducerErr.ActionType != "BREAK" {
		t.Errorf("got key %q action %v, want flaky BREAK", reducerErr.Key, reducerErr.ActionType)
	}
	if !strings.Contains(err.Error(), `"flaky"`) || !strings.Contains(err.Error(), `"BREAK"`) {
		t.Errorf("error message %q should name key and action type", err.Error())
	}
}

func TestCombine_SubReducerErrorNamesKey(t *testing.T) {
	boom := errors.New("boom")
	r := reducer.Combine(map[string]store.Reducer{
		"broken": func(state any, action store.Action) (any, error) {
			if action.Type() == "EXPLODE" {
				return nil, boom
			}
			return 0, nil
		},
	})

	_, err := r(nil, store.NewAction("EXPLODE", nil))
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped boom", err)
	}
	if !strings.Contains(err.Error(), `"broken"`) {
		t.Errorf("error %q should name the key", err.Error())
	}
}

func TestCombine_SanityCheckDeferred(t *testing.T) {
	tests := []struct {
		name    string
		reducer store.Reducer
		wantErr error
	}{
		{
			name:    "absent for unknown types",
			reducer: allowList,
			wantErr: store.ErrReducerProbe,
		},
		{
			name: "absent during initialization",
			reducer: func(state any, action store.Action) (any, error) {
				return state, nil
			},
			wantErr: store.ErrReducerInit,
		},
		{
			name: "error during initialization",
			reducer: func(state any, action store.Action) (any, error) {
				return nil, errors.New("not ready")
			},
			wantErr: store.ErrReducerInit,
		},
		{
			name: "panic during initialization",
			reducer: func(state any, action store.Action) (any, error) {
				panic("no default")
			},
			wantErr: store.ErrReducerInit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := reducer.Combine(map[string]store.Reducer{
				"count": counter,
				"bad":   tt.reducer,
			})
			if r == nil {
				t.Fatal("Combine must always return a reducer")
			}

			for range 2 {
				_, err := r(nil, store.NewAction("INC", nil))
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}

				var reducerErr *store.ReducerError
				if !errors.As(err, &reducerErr) || reducerErr.Key != "bad" {
					t.Errorf("error = %v, want ReducerError for key bad", err)
				}
			}
		})
	}
}

func TestCombine_ProbeUsesReservedRandomType(t *testing.T) {
	var probes []string
	r := reducer.Combine(map[string]store.Reducer{
		"spy": func(state any, action store.Action) (any, error) {
			if action.Type() != store.ActionInit {
				probes = append(probes, action.TypeString())
			}
			return 0, nil
		},
	})
	_ = r

	if len(probes) != 1 {
		t.Fatalf("reducer probed %d times, want 1", len(probes))
	}
	if !strings.HasPrefix(probes[0], store.ActionProbePrefix) || len(probes[0]) <= len(store.ActionProbePrefix) {
		t.Errorf("probe type %q should extend %q", probes[0], store.ActionProbePrefix)
	}
	if reducer.ProbeType() == reducer.ProbeType() {
		t.Error("expected distinct probe types")
	}
}

func TestCombine_SanityFailureFailsStoreCreation(t *testing.T) {
	obs := &captureObserver{}
	r := reducer.Combine(map[string]store.Reducer{"bad": allowList}, reducer.WithObserver(obs))

	if len(obs.byType(reducer.EventSanityFailed)) != 1 {
		t.Errorf("expected one %s event", reducer.EventSanityFailed)
	}

	_, err := store.New(r)
	if !errors.Is(err, store.ErrReducerProbe) {
		t.Errorf("store.New error = %v, want ErrReducerProbe", err)
	}
}

func TestCombine_NilEntriesSkipped(t *testing.T) {
	obs := &captureObserver{}
	r := reducer.Combine(map[string]store.Reducer{
		"count":   counter,
		"missing": nil,
	}, reducer.WithObserver(obs), reducer.WithSource("root"))

	state := mustReduce(t, r, nil, initAction())

	if _, exists := state["missing"]; exists {
		t.Error("nil reducer key should not appear in state")
	}

	warnings := obs.byType(reducer.EventMissing)
	if len(warnings) != 1 || warnings[0].Data["key"] != "missing" {
		t.Fatalf("missing warnings = %+v, want one for key missing", warnings)
	}
	if warnings[0].Level != observability.LevelWarning || warnings[0].Source != "root" {
		t.Errorf("warning level %v source %q, want WARN root", warnings[0].Level, warnings[0].Source)
	}
}

func TestCombine_Empty(t *testing.T) {
	obs := &captureObserver{}
	r := reducer.Combine(nil, reducer.WithObserver(obs))

	state := mustReduce(t, r, nil, initAction())
	if len(state) != 0 {
		t.Errorf("state = %v, want empty", state)
	}
	if len(obs.byType(reducer.EventEmpty)) != 1 {
		t.Errorf("expected one %s event", reducer.EventEmpty)
	}

	again := mustReduce(t, r, state, initAction())
	if !reducer.Same(state, again) {
		t.Error("expected the same state for an empty reducer tree")
	}
}

func TestCombine_UnexpectedKeys(t *testing.T) {
	obs := &captureObserver{}
	r := reducer.Combine(map[string]store.Reducer{"count": counter}, reducer.WithObserver(obs))

	preloaded := map[string]any{"count": 1, "stale": true, "legacy": "x"}
	next := mustReduce(t, r, preloaded, initAction())
	mustReduce(t, r, preloaded, initAction())

	warnings := obs.byType(reducer.EventUnexpectedKeys)
	if len(warnings) != 1 {
		t.Fatalf("got %d unexpected-key warnings, want 1 (reported once per key)", len(warnings))
	}
	if got := warnings[0].Data["unexpected"].([]string); !slices.Equal(got, []string{"legacy", "stale"}) {
		t.Errorf("unexpected = %v, want [legacy stale]", got)
	}
	if !reducer.Same(next, preloaded) {
		t.Error("expected the preloaded state back when no slice changed")
	}

	changed := mustReduce(t, r, preloaded, store.NewAction("INC", nil))
	if got := slices.Sorted(maps.Keys(changed)); !slices.Equal(got, []string{"count"}) {
		t.Errorf("changed state keys = %v, want [count] (unexpected keys dropped)", got)
	}
}

func TestCombine_UnexpectedShape(t *testing.T) {
	obs := &captureObserver{}
	r := reducer.Combine(map[string]store.Reducer{"count": counter}, reducer.WithObserver(obs))

	state := mustReduce(t, r, "not a record", initAction())

	if state["count"] != 0 {
		t.Errorf("count = %v, want 0", state["count"])
	}
	warnings := obs.byType(reducer.EventUnexpectedShape)
	if len(warnings) != 1 || warnings[0].Data["state_type"] != "string" {
		t.Errorf("shape warnings = %+v, want one naming string", warnings)
	}
}

func TestCombine_Nested(t *testing.T) {
	inner := reducer.Combine(map[string]store.Reducer{"count": counter})
	root := reducer.Combine(map[string]store.Reducer{
		"inner": inner,
		"todos": todos,
	})

	s, err := store.New(root)
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}

	before := s.GetState().(map[string]any)
	if _, err := s.Dispatch(store.NewAction("INC", nil)); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	after := s.GetState().(map[string]any)

	if got := after["inner"].(map[string]any)["count"]; got != 1 {
		t.Errorf("inner.count = %v, want 1", got)
	}
	if !reducer.Same(before["todos"], after["todos"]) {
		t.Error("expected todos slice to be shared across dispatches")
	}
}

func TestCombine_PreloadedStateThroughStore(t *testing.T) {
	r := reducer.Combine(map[string]store.Reducer{"count": counter, "todos": todos})

	preloaded := map[string]any{"count": 5, "todos": []string{"a"}}
	s, err := store.New(r, store.WithPreloadedState(preloaded))
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}

	if !reducer.Same(s.GetState(), preloaded) {
		t.Error("expected preloaded state to survive ActionInit unchanged")
	}
}
