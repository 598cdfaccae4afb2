package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpadapter "github.com/aretw0/scorm/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// Handler builds the HTTP API of rt, with metrics and a store health check when configured.
func (rt *Runtime) Handler() http.Handler {
	opts := []httpadapter.Option{
		httpadapter.WithLogger(rt.Logger),
		httpadapter.WithRateLimit(rt.Config.Server.RateLimit),
		httpadapter.WithHealthCheck(func(r *http.Request) error {
			return rt.Ping(r.Context())
		}),
	}
	if rt.Registry != nil {
		opts = append(opts, httpadapter.WithMetricsHandler(promhttp.HandlerFor(rt.Registry, promhttp.HandlerOpts{})))
	}
	return httpadapter.NewHandler(rt.Manager, opts...)
}

// Serve runs the HTTP API on the configured address until ctx is cancelled,
// then drains in-flight requests.
func Serve(ctx context.Context, rt *Runtime) error {
	srv := &http.Server{
		Addr:              rt.Config.Server.Addr,
		Handler:           rt.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		rt.Logger.Info("HTTP server listening", "address", srv.Addr, "driver", rt.Config.Store.Driver)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		rt.Logger.Info("Shutdown signal received, shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			closeErr := srv.Close()
			return errors.Join(fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err), closeErr)
		}
		return nil
	}
}
