package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/mcoot/partyquiz/internal/api/apierr"
)

// Recovery turns a panicking handler into a 500 JSON response.
// A panic after the response has started only gets logged.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With(slog.String("component", "http"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				err := recover()
				if err == nil {
					return
				}
				if err == http.ErrAbortHandler {
					panic(err)
				}

				logger.Error("panic recovered",
					slog.Any("error", err),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Bool("response_started", rw.Started()),
				)

				if !rw.Started() {
					apierr.WriteError(rw, apierr.NewInternalError())
				}
			}()

			next.ServeHTTP(rw, r)
		})
	}
}
