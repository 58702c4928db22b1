package middleware

import (
	"context"

	"github.com/tailored-agentic-units/store/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/tailored-agentic-units/store/middleware"

// Tracing records one span per dispatch, named after the action type. A nil
// tracer uses the global tracer provider.
//
// Dispatch carries no context, so every span starts a new trace.
func Tracing(tracer trace.Tracer) Middleware {
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}

	return func(api API) Wrapper {
		return func(next store.Dispatch) store.Dispatch {
			return func(action any) (any, error) {
				actionType := describe(action)

				_, span := tracer.Start(context.Background(), "dispatch "+actionType,
					trace.WithSpanKind(trace.SpanKindInternal),
					trace.WithAttributes(attribute.String("store.action.type", actionType)),
				)
				defer span.End()

				result, err := next(action)
				if err != nil {
					span.RecordError(err)
					span.SetStatus(codes.Error, err.Error())
				}
				return result, err
			}
		}
	}
}
