package store

import (
	"reflect"

	"github.com/tailored-agentic-units/store/observability"
)

const defaultName = "store"

// Option configures store construction.
type Option func(*options)

type options struct {
	name                  string
	observer              observability.Observer
	preloadedState        any
	enhancer              Enhancer
	allowListenerDispatch bool
}

func newOptions(opts []Option) *options {
	o := &options{
		name:     defaultName,
		observer: observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithName sets the name used as the event source.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithObserver overrides the default NoOpObserver.
func WithObserver(observer observability.Observer) Option {
	return func(o *options) { o.observer = observability.OrNoOp(observer) }
}

// WithPreloadedState sets the state the reducer receives with ActionInit.
func WithPreloadedState(state any) Option {
	return func(o *options) { o.preloadedState = state }
}

// WithEnhancer delegates construction to enhancer.
func WithEnhancer(enhancer Enhancer) Option {
	return func(o *options) { o.enhancer = enhancer }
}

// WithListenerDispatch controls whether listeners may dispatch while a
// notification pass is running. It is off by default, in which case such a
// dispatch fails with ErrReentrantDispatch. Reducers may never dispatch.
func WithListenerDispatch(allow bool) Option {
	return func(o *options) { o.allowListenerDispatch = allow }
}

func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}
