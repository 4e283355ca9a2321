package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rpggio/calldesk/internal/domain/call"
	"github.com/rpggio/calldesk/internal/domain/contact"
	"go.uber.org/zap"
)

const maxBodyBytes = 8 << 20

var (
	errBadRequest = errors.New("bad request")
	errEmptyBody  = fmt.Errorf("%w: empty body", errBadRequest)
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, ErrorBody{Error: err.Error(), Code: code})
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, contact.ErrInvalidInput),
		errors.Is(err, call.ErrNoPhoneNumber),
		errors.Is(err, call.ErrMissingContact):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, contact.ErrContactNotFound), errors.Is(err, contact.ErrImportNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, contact.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, call.ErrDeviceNotFound):
		return http.StatusServiceUnavailable, "device_not_found"
	case errors.Is(err, call.ErrDeviceTimeout):
		return http.StatusGatewayTimeout, "device_timeout"
	case errors.Is(err, call.ErrDeviceCommandFailed):
		return http.StatusBadGateway, "device_command_failed"
	case errors.Is(err, contact.ErrStorageRead), errors.Is(err, contact.ErrStorageWrite):
		return http.StatusInternalServerError, "storage"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
