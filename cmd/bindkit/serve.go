package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/bindkit-dev/bindkit/pkg/binding"
	"github.com/bindkit-dev/bindkit/pkg/bridge"
	"github.com/bindkit-dev/bindkit/pkg/observable"
	"github.com/bindkit-dev/bindkit/pkg/value"
)

func serveCmd() *cobra.Command {
	var (
		addr    string
		metrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve demo objects over HTTP and WebSocket",
		Long: `Start a bridge server exposing a pair of bound demo objects.

The thermostat holds a celsius temperature; the display mirrors it in
fahrenheit through a bidirectional binding. Writes from any client are
propagated to the other side and broadcast to all connections.

Routes:
  GET /objects         list exposed objects
  GET /objects/{name}  current state of one object
  GET /ws              WebSocket change stream / set endpoint
  GET /metrics         Prometheus metrics (with --metrics)

Examples:
  bindkit serve
  bindkit serve --addr=:9000 --metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, metrics)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "Address to listen on")
	cmd.Flags().BoolVarP(&metrics, "metrics", "m", false, "Expose Prometheus metrics at /metrics")

	return cmd
}

func runServe(addr string, metrics bool) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if metrics {
		binding.EnableMetrics()
	}

	thermostat, display, b, err := demoPair()
	if err != nil {
		return err
	}
	defer b.Release()

	srv, err := bridge.New(bridge.Config{
		Logger:      logger,
		CheckOrigin: func(*http.Request) bool { return true },
	}, thermostat, display)
	if err != nil {
		return err
	}
	defer srv.Close()

	mux := http.NewServeMux()
	mux.Handle("/", srv)
	if metrics {
		mux.Handle("/metrics", promhttp.Handler())
	}

	httpSrv := &http.Server{Addr: addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	printBanner()
	success("serving on %s", addr)
	info("objects: thermostat (celsius), display (fahrenheit)")
	if metrics {
		info("metrics: %s/metrics", addr)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// demoPair builds the thermostat/display objects and the bidirectional
// celsius↔fahrenheit binding between them.
func demoPair() (*observable.Object, *observable.Object, *binding.Binding, error) {
	thermostat, err := observable.New("thermostat",
		observable.Descriptor{Name: "celsius", Kind: value.Float, Readable: true, Writable: true, Default: value.FloatVal(21)},
	)
	if err != nil {
		return nil, nil, nil, err
	}
	display, err := observable.New("display",
		observable.Descriptor{Name: "fahrenheit", Kind: value.Float, Readable: true, Writable: true, Default: value.FloatVal(69.8)},
	)
	if err != nil {
		return nil, nil, nil, err
	}

	b, err := binding.Bind(thermostat, "celsius", display, "fahrenheit", binding.Bidirectional,
		binding.WithTransform(func(_ *binding.Binding, v value.Value) (value.Value, error) {
			c, _ := v.Float()
			return value.FloatVal(c*9/5 + 32), nil
		}),
		binding.WithBackTransform(func(_ *binding.Binding, v value.Value) (value.Value, error) {
			f, _ := v.Float()
			return value.FloatVal((f - 32) * 5 / 9), nil
		}),
	)
	if err != nil {
		return nil, nil, nil, err
	}
	return thermostat, display, b, nil
}
