package transport

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/calldesk/internal/domain/contact"
)

func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := contact.SearchOptions{
		Query:  q.Get("q"),
		Status: q.Get("status"),
	}
	var err error
	if opts.Limit, err = intParam(q.Get("limit")); err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.Offset, err = intParam(q.Get("offset")); err != nil {
		s.writeError(w, r, err)
		return
	}

	contacts, err := s.contacts.Search(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (s *Server) getContact(w http.ResponseWriter, r *http.Request) {
	c, err := s.contacts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) createContact(w http.ResponseWriter, r *http.Request) {
	var req contact.CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.contacts.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) updateContact(w http.ResponseWriter, r *http.Request) {
	var patch contact.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.contacts.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteContact(w http.ResponseWriter, r *http.Request) {
	if err := s.contacts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteAllContacts(w http.ResponseWriter, r *http.Request) {
	if err := s.contacts.DeleteAll(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// importContacts accepts a JSON array of contacts and merges it in the
// background.
func (s *Server) importContacts(w http.ResponseWriter, r *http.Request) {
	var rows []contact.CreateRequest
	if err := decodeJSON(w, r, &rows); err != nil {
		s.writeError(w, r, err)
		return
	}
	job := s.contacts.QueueImport(rows)
	w.Header().Set("Location", "/contacts/import/"+job.ID)
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) importStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.contacts.ImportStatus(chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) exportContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.contacts.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("contacts-%s.json", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	writeJSON(w, http.StatusOK, contacts)
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: expected a non-negative integer, got %q", errBadRequest, v)
	}
	return n, nil
}
