package middleware_test

import (
	"context"
	"slices"
	"testing"

	"github.com/tailored-agentic-units/store/middleware"
	"github.com/tailored-agentic-units/store/observability"
	"github.com/tailored-agentic-units/store/store"
)

type captureObserver struct {
	events []observability.Event
}

func (c *captureObserver) OnEvent(ctx context.Context, event observability.Event) {
	c.events = append(c.events, event)
}

func TestLogger_Events(t *testing.T) {
	obs := &captureObserver{}
	s := newStore(t, middleware.Logger(obs))

	if _, err := s.Dispatch(inc()); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	s.Dispatch(42)

	var types []observability.EventType
	for _, e := range obs.events {
		types = append(types, e.Type)
	}
	want := []observability.EventType{
		middleware.EventAction, middleware.EventState,
		middleware.EventAction, middleware.EventActionError,
	}
	if !slices.Equal(types, want) {
		t.Fatalf("event types = %v, want %v", types, want)
	}

	if obs.events[0].Data["action_type"] != "INC" {
		t.Errorf("action_type = %v, want INC", obs.events[0].Data["action_type"])
	}
	if obs.events[1].Data["state"] != 1 {
		t.Errorf("state = %v, want 1", obs.events[1].Data["state"])
	}
	if obs.events[2].Data["action_type"] != "int" {
		t.Errorf("action_type = %v, want int", obs.events[2].Data["action_type"])
	}
	if obs.events[3].Level != observability.LevelError {
		t.Errorf("error event level = %v, want ERROR", obs.events[3].Level)
	}
}

func TestLogger_NilObserver(t *testing.T) {
	s := newStore(t, middleware.Logger(nil))

	if _, err := s.Dispatch(inc()); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if got := s.GetState(); got != 1 {
		t.Errorf("GetState() = %v, want 1", got)
	}
}

func TestLogger_ComposesWithThunk(t *testing.T) {
	obs := &captureObserver{}
	s := newStore(t, middleware.Thunk(), middleware.Logger(obs))

	thunk := middleware.ThunkFunc(func(dispatch store.Dispatch, getState func() any) (any, error) {
		return dispatch(inc())
	})
	if _, err := s.Dispatch(thunk); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	// The thunk is consumed before the logger; only the INC it issued is logged.
	if len(obs.events) != 2 || obs.events[0].Data["action_type"] != "INC" {
		t.Errorf("events = %+v, want action/state for INC", obs.events)
	}
}
