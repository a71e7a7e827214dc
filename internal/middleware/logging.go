package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// responseTap wraps http.ResponseWriter to capture the status code and
// response size.
type responseTap struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (t *responseTap) WriteHeader(code int) {
	t.status = code
	t.ResponseWriter.WriteHeader(code)
}

func (t *responseTap) Write(p []byte) (int, error) {
	n, err := t.ResponseWriter.Write(p)
	t.bytes += n
	return n, err
}

func (t *responseTap) Unwrap() http.ResponseWriter {
	return t.ResponseWriter
}

// RequestLogger returns middleware that logs each HTTP request with
// method, path, status, size, duration, remote IP and, when the request
// carried one, the tenant header. It runs outside RequireTenant, so the
// tenant is reported as received, not as resolved.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			tap := &responseTap{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(tap, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", tap.status),
				slog.Int("bytes", tap.bytes),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote", RealIP(r)),
			}
			if tenant := r.Header.Get(tenantHeader); tenant != "" {
				attrs = append(attrs, slog.String("tenant", tenant))
			}

			level := slog.LevelInfo
			switch {
			case tap.status >= 500:
				level = slog.LevelError
			case tap.status >= 400:
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "request", attrs...)
		})
	}
}
