package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/Paul-frank/todo-app/internal/logger"
)

// RecoveryMiddleware fängt Panics ab und antwortet mit 500
func RecoveryMiddleware(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.WithRequestID(log, GetRequestID(r.Context())).WithFields(logrus.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
					"panic":  rec,
					"stack":  string(debug.Stack()),
				}).Error("panic recovered")

				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// Chain legt die Middlewares so um h, dass die erste ganz außen liegt
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Standard liefert die Middlewares in der Reihenfolge für Chain.
// Recovery liegt innerhalb von Logging und Metrics, eine Panic erscheint dort als 500.
func Standard(log *logrus.Logger, csrf bool) []func(http.Handler) http.Handler {
	mws := []func(http.Handler) http.Handler{
		RequestIDMiddleware,
		LoggingMiddleware(log),
		MetricsMiddleware,
		RecoveryMiddleware(log),
		SecurityHeadersMiddleware,
	}
	if csrf {
		mws = append(mws, CSRFMiddleware)
	}
	return mws
}
