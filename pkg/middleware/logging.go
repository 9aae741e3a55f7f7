package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// RequestLogger logs one structured line per request and converts panics
// into 500 responses. The request ID is taken from requestIDHeader when the
// caller supplies one, generated otherwise, and echoed back in the response.
func RequestLogger(log *logrus.Logger, requestIDHeader string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)

			sw := &statusWriter{ResponseWriter: w}
			entry := log.WithFields(logrus.Fields{
				"request_id": requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
			})

			defer func() {
				if rec := recover(); rec != nil {
					entry.WithFields(logrus.Fields{
						"panic": rec,
						"stack": string(debug.Stack()),
					}).Error("request panicked")
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				entry.WithFields(logrus.Fields{
					"status":   sw.Status(),
					"duration": time.Since(start).String(),
				}).Info("request handled")
			}()

			next.ServeHTTP(sw, r)
		})
	}
}
