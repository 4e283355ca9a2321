package transport

import "net/http"

func (s *Server) deviceStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.device.Status(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) batteryStatus(w http.ResponseWriter, r *http.Request) {
	battery, err := s.device.Battery(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, battery)
}
