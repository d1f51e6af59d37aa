package app

import (
	"context"
	"net/http"
	"time"

	"github.com/knightkill/parley-app/internal/metrics"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StartHTTP serves the API, the websocket endpoint, health and metrics.
// Shuts down when ctx is cancelled.
func StartHTTP(ctx context.Context, addr string, pool *pgxpool.Pool, api, wsGateway http.Handler) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
		defer cancel()
		t0 := time.Now()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ok: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		metrics.ObserveDBPing(time.Since(t0))
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/api/", api)
	mux.Handle("/ws", wsGateway)

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	return srv
}
