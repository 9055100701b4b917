package admin

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/me/timetable/internal/logging"
)

type ctxKey struct{}

// RequestIDFromContext returns the admin request id, "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// withRequestID tags each request with a req_ id, echoed in X-Request-ID
// and in the response envelope.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := requestID()
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// operatorLog records each request. Reads go to the debug log only;
// control calls (anything but GET) also land in the operator event log,
// next to the listener's own "Server started"/"Server stopped." lines.
func operatorLog(logger *slog.Logger, events logging.Sink) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			id := RequestIDFromContext(r.Context())

			if r.Method != http.MethodGet {
				events.Event(fmt.Sprintf("Operator requested %s from %s (%s)", path.Base(r.URL.Path), r.RemoteAddr, id))
			}
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if r.Method != http.MethodGet && status >= http.StatusBadRequest {
				events.Event(fmt.Sprintf("Operator %s failed: %d %s (%s)", path.Base(r.URL.Path), status, http.StatusText(status), id))
			}
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
				"request_id", id,
			)
		})
	}
}
