package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const metricsReadHeaderTimeout = 5 * time.Second

// MetricsServer serves /metrics on its own listener.
type MetricsServer struct {
	srv *http.Server
	ln  net.Listener
}

// StartMetricsServer listens on addr and serves handler at /metrics in the
// background. Use Addr for the bound address when addr has port 0.
func StartMetricsServer(addr string, handler http.Handler, logger *slog.Logger) (*MetricsServer, error) {
	if handler == nil {
		return nil, errors.New("metrics handler is nil; enable prometheus export")
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	ms := &MetricsServer{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: metricsReadHeaderTimeout},
		ln:  ln,
	}

	go func() {
		serveErr := ms.srv.Serve(ln)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) && logger != nil {
			logger.Error("metrics server stopped", "error", serveErr)
		}
	}()

	return ms, nil
}

// Addr returns the listening address.
func (ms *MetricsServer) Addr() string {
	return ms.ln.Addr().String()
}

// Shutdown stops the server.
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	return ms.srv.Shutdown(ctx)
}
