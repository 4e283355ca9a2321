package transport

import (
	"errors"
	"net/http"

	"github.com/rpggio/calldesk/internal/domain/call"
)

func (s *Server) startCall(w http.ResponseWriter, r *http.Request) {
	var req call.StartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.calls.StartCall(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) endCall(w http.ResponseWriter, r *http.Request) {
	var req call.EndRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.calls.EndCall(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeEndResult(w, res)
}

func (s *Server) callStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.calls.Reconcile(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// hangUp accepts an empty body when only the tracked call should end.
func (s *Server) hangUp(w http.ResponseWriter, r *http.Request) {
	var req call.HangUpRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		s.writeError(w, r, err)
		return
	}
	res, err := s.calls.HangUp(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeEndResult(w, res)
}

// writeEndResult reports a device failure through the status code while the
// body still carries the recorded outcome.
func writeEndResult(w http.ResponseWriter, res *call.EndResult) {
	status := http.StatusOK
	if res.CommandErr != nil {
		status, _ = errorStatus(res.CommandErr)
	}
	writeJSON(w, status, res)
}
