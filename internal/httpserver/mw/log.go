package mw

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Checkmk/checkmk-sub072/internal/logger"
)

// Log returns a middleware that logs one line per HTTP request. Probes are
// logged at debug level.
func Log(loggerClient logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []logger.Field{
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", status),
				logger.Int("bytes", ww.BytesWritten()),
				logger.Duration("duration", time.Since(start)),
				logger.String("remote_ip", r.RemoteAddr),
				logger.String("request_id", middleware.GetReqID(r.Context())),
			}

			switch {
			case status >= http.StatusInternalServerError:
				loggerClient.Error("http_request", fields...)
			case r.URL.Path == "/healthz" || r.URL.Path == "/readyz":
				loggerClient.Debug("http_request", fields...)
			default:
				loggerClient.Info("http_request", fields...)
			}
		})
	}
}
