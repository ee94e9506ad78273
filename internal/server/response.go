package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/klauspost/compress/gzip"

	"github.com/drew/jobreport/internal/metrics"
)

// envelope wraps every API response
type envelope struct {
	OK      bool   `json:"ok"`
	Msg     string `json:"msg"`
	Payload any    `json:"payload"`
}

// composeResponse writes a gzip-encoded JSON envelope. ok is true exactly
// for 200 responses.
func composeResponse(w http.ResponseWriter, log *slog.Logger, code int, msg string, payload any) {
	data, err := json.Marshal(envelope{OK: code == http.StatusOK, Msg: msg, Payload: payload})
	if err != nil {
		log.Error("failed to encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Encoding", "gzip")
	w.Header().Set("Vary", "Accept-Encoding")
	w.WriteHeader(code)

	zw := gzip.NewWriter(w)
	if _, err := zw.Write(data); err != nil {
		log.Debug("failed to write response", "error", err)
	}
	if err := zw.Close(); err != nil {
		log.Debug("failed to flush response", "error", err)
	}
}

// statusRecorder remembers the status code a handler wrote
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument counts requests per route and response code
func instrument(route string, log *slog.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next(rec, r)
		metrics.APIRequests.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
		log.Debug("request", "route", route, "method", r.Method, "code", rec.code)
	}
}
