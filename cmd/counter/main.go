package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/tailored-agentic-units/store/middleware"
	"github.com/tailored-agentic-units/store/observability"
	"github.com/tailored-agentic-units/store/reducer"
	"github.com/tailored-agentic-units/store/rpc"
	"github.com/tailored-agentic-units/store/store"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to store config JSON file (defaults to STORE_* environment variables)")
		addr       = flag.String("addr", "", "Serve the store over Connect on this address instead of running the scripted session")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	observability.RegisterObserver("slog", observability.NewSlogObserver(logger))

	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		log.Fatalf("Failed to resolve observer: %v", err)
	}

	s, err := store.NewFromConfig(cfg, rootReducer(reducer.WithObserver(observer)),
		store.WithEnhancer(middleware.Apply(
			middleware.Thunk(),
			middleware.Logger(observer),
			middleware.Tracing(nil),
		)),
	)
	if err != nil {
		log.Fatalf("Failed to create store: %v", err)
	}

	if *addr != "" {
		if err := serve(s, *addr, logger); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
		return
	}

	if err := runSession(s); err != nil {
		log.Fatalf("Session failed: %v", err)
	}
}

func loadConfig(path string) (*store.Config, error) {
	if path == "" {
		return store.LoadConfigFromEnv()
	}
	return store.LoadConfig(path)
}

// runSession dispatches a fixed script and prints the state after each
// dispatch, unsubscribing one listener halfway through.
func runSession(s *store.Store) error {
	printState := func(label string) {
		data, err := json.Marshal(s.GetState())
		if err != nil {
			fmt.Printf("%s: %v\n", label, s.GetState())
			return
		}
		fmt.Printf("%s: %s\n", label, data)
	}

	printState("initial state")

	unsubscribeA, err := s.Subscribe(func() { printState("listener A") })
	if err != nil {
		return err
	}
	if _, err := s.Subscribe(func() { printState("listener B") }); err != nil {
		return err
	}

	steps := []any{
		store.NewAction(actionIncrement, nil),
		addTodos("learn the store", "write a reducer"),
		store.NewAction(actionToggle, map[string]any{"index": 0}),
		store.NewAction(actionIncrement, map[string]any{"by": 5}),
		store.NewAction(actionDecrement, nil),
	}

	for i, step := range steps {
		if i == len(steps)/2 {
			unsubscribeA()
		}
		if _, err := s.Dispatch(step); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	return nil
}

func serve(s *store.Store, addr string, logger *slog.Logger) error {
	path, handler := rpc.NewHandler(s)
	mux := http.NewServeMux()
	mux.Handle(path, handler)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving store", "addr", addr, "store", s.Name(), "store_id", s.ID())
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
