// Package rpc exposes a store over HTTP using Connect.
//
// Actions and state travel as google.protobuf.Struct messages, so only
// JSON-like values (maps, slices, strings, numbers, booleans, nil) cross the
// wire. Numbers arrive at reducers as float64.
//
//	path, handler := rpc.NewHandler(s)
//	mux.Handle(path, handler)
//
//	client := rpc.NewClient(http.DefaultClient, "http://localhost:8080")
//	action, err := client.Dispatch(ctx, store.NewAction("INC", nil))
package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"connectrpc.com/connect"
	"github.com/tailored-agentic-units/store/store"
	"google.golang.org/protobuf/types/known/structpb"
)

// Service and procedure names.
const (
	ServiceName = "store.v1.StoreService"

	DispatchProcedure = "/" + ServiceName + "/Dispatch"
	GetStateProcedure = "/" + ServiceName + "/GetState"
)

// stateField wraps the state in the GetState response so that non-record
// states can be carried by a Struct.
const stateField = "state"

// Handler serves Dispatch and GetState for one store. Calls are serialized
// because a store is not safe for concurrent use.
type Handler struct {
	mu    sync.Mutex
	store *store.Store
}

// NewHandler returns the service path prefix and an http.Handler serving s.
func NewHandler(s *store.Store, opts ...connect.HandlerOption) (string, http.Handler) {
	h := &Handler{store: s}

	mux := http.NewServeMux()
	mux.Handle(DispatchProcedure, connect.NewUnaryHandler(DispatchProcedure, h.Dispatch, opts...))
	mux.Handle(GetStateProcedure, connect.NewUnaryHandler(GetStateProcedure, h.GetState, opts...))

	return "/" + ServiceName + "/", mux
}

// Dispatch applies the request action and echoes back the value returned by
// the store's dispatch chain.
func (h *Handler) Dispatch(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	action := store.Action(req.Msg.AsMap())

	h.mu.Lock()
	result, err := h.store.Dispatch(action)
	h.mu.Unlock()
	if err != nil {
		return nil, connectError(err)
	}

	msg, err := toStruct(result)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

// GetState returns the current state as {"state": <value>}.
func (h *Handler) GetState(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	h.mu.Lock()
	state := h.store.GetState()
	h.mu.Unlock()

	msg, err := structpb.NewStruct(map[string]any{stateField: state})
	if err != nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("state is not representable: %w", err))
	}
	return connect.NewResponse(msg), nil
}

func toStruct(v any) (*structpb.Struct, error) {
	switch m := v.(type) {
	case store.Action:
		return structpb.NewStruct(m)
	case map[string]any:
		return structpb.NewStruct(m)
	case nil:
		return &structpb.Struct{}, nil
	}
	return structpb.NewStruct(map[string]any{"result": v})
}

func connectError(err error) *connect.Error {
	switch {
	case errors.Is(err, store.ErrInvalidActionShape), errors.Is(err, store.ErrMissingDiscriminator):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, store.ErrReentrantDispatch):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// Client calls a remote store Handler.
type Client struct {
	dispatch *connect.Client[structpb.Struct, structpb.Struct]
	getState *connect.Client[structpb.Struct, structpb.Struct]
}

// NewClient creates a Client for the service hosted at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	return &Client{
		dispatch: connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+DispatchProcedure, opts...),
		getState: connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+GetStateProcedure, opts...),
	}
}

// Dispatch sends action to the remote store and returns the dispatch result.
func (c *Client) Dispatch(ctx context.Context, action store.Action) (map[string]any, error) {
	msg, err := structpb.NewStruct(action)
	if err != nil {
		return nil, fmt.Errorf("action is not representable: %w", err)
	}

	resp, err := c.dispatch.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return resp.Msg.AsMap(), nil
}

// GetState fetches the remote store's current state.
func (c *Client) GetState(ctx context.Context) (any, error) {
	resp, err := c.getState.CallUnary(ctx, connect.NewRequest(&structpb.Struct{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.AsMap()[stateField], nil
}
