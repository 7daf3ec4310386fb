package web

import (
	"encoding/json"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bvh-pose-renderer/internal/skeleton"
)

func WriteJson(w http.ResponseWriter, data interface{}) {
	res, err := json.Marshal(data)
	if err != nil {
		WriteError(w, errors.Wrapf(err, "Failed to marshal"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	WriteResult(w, res)
}

func WriteResult(w http.ResponseWriter, data []byte) {
	if _, err := w.Write(data); err != nil {
		log.Warn().Err(err).Msg("Error when writing response")
	}
}

// WriteError replies with {"error": ...} and a status derived from err.
func WriteError(w http.ResponseWriter, err error) {
	type jError struct {
		Error string `json:"error"`
	}
	data, merr := json.Marshal(&jError{Error: err.Error()})
	if merr != nil {
		log.Error().Err(merr).Msg("Error marshaling error")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	WriteResult(w, data)
}

type badRequest struct{ error }

func statusFor(err error) int {
	var br badRequest
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest
	case errors.Is(err, skeleton.ErrOutOfRange), errors.Is(err, skeleton.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// RequestLogger logs one line per request on logger.
func RequestLogger(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		event := logger.Info()
		if m.Code >= 500 {
			event = logger.Error()
		} else if m.Code >= 400 {
			event = logger.Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", m.Code).
			Dur("duration", m.Duration).
			Str("client_ip", r.RemoteAddr).
			Int64("bytes", m.Written).
			Msg("http_request")
	})
}
