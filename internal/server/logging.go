package server

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"
)

// requestLogKey identifies the request-scoped log record.
type requestLogKey struct{}

// requestLog collects attributes handlers attach while serving a request.
// Later values replace earlier ones with the same key.
type requestLog struct {
	mu     sync.Mutex
	attrs  []slog.Attr
	failed bool
}

func (l *requestLog) set(attr slog.Attr) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i := slices.IndexFunc(l.attrs, func(a slog.Attr) bool { return a.Key == attr.Key }); i >= 0 {
		l.attrs[i] = attr
		return
	}
	l.attrs = append(l.attrs, attr)
}

func (l *requestLog) snapshot() ([]slog.Attr, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.attrs), l.failed
}

// LoggingMiddleware logs a start and a completion line for each request.
// The completion line carries status, bytes written, duration and the
// attributes added through AddLogField, AddLogInt and AddError. It is
// logged at WARN when an error was recorded or the status is 5xx.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := GetRequestID(r.Context())

			rl := &requestLog{}
			ctx := context.WithValue(r.Context(), requestLogKey{}, rl)
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			logger.InfoContext(ctx, "request started",
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
			)

			next.ServeHTTP(sw, r.WithContext(ctx))

			extra, failed := rl.snapshot()
			attrs := append([]slog.Attr{
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.Int64("bytes", sw.bytes),
				slog.Duration("duration", time.Since(start)),
			}, extra...)

			level := slog.LevelInfo
			if failed || sw.status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.LogAttrs(ctx, level, "request completed", attrs...)
		})
	}
}

// statusWriter records the status code and body size of a response.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Flush keeps streamed bodies streaming through the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func addAttr(ctx context.Context, attr slog.Attr) {
	if rl, ok := ctx.Value(requestLogKey{}).(*requestLog); ok {
		rl.set(attr)
	}
}

// AddLogField attaches key=value to the request's completion line. Empty
// values are ignored. No-op outside LoggingMiddleware.
func AddLogField(ctx context.Context, key, value string) {
	if value == "" {
		return
	}
	addAttr(ctx, slog.String(key, value))
}

// AddLogInt is AddLogField for integers.
func AddLogInt(ctx context.Context, key string, value int) {
	addAttr(ctx, slog.Int(key, value))
}

// AddError records err on the completion line and raises it to WARN.
func AddError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if rl, ok := ctx.Value(requestLogKey{}).(*requestLog); ok {
		rl.set(slog.String("error", err.Error()))
		rl.mu.Lock()
		rl.failed = true
		rl.mu.Unlock()
	}
}
