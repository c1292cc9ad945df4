package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tilda-center/backend/internal/imap"
	"github.com/tilda-center/backend/internal/store"
)

// detail is the error payload shape: a status code plus a human-readable
// message.
type detail struct {
	Detail string `json:"detail"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encoding response", "error", err)
	}
}

func (s *Server) respondDetail(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, detail{Detail: msg})
}

// respondError translates a fault from the mail core or the post store
// into a status code. No fault is downgraded to success and unknown
// errors surface as 500s.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch imap.KindOf(err) {
	case imap.FaultAuth:
		s.respondDetail(w, http.StatusForbidden, "Failed to login to mail server")
		return
	case imap.FaultFolderNotFound:
		s.respondDetail(w, http.StatusConflict, "No such folder")
		return
	case imap.FaultProtocol:
		s.respondDetail(w, http.StatusConflict, "Invalid data from mail server")
		return
	case imap.FaultConnection:
		s.respondDetail(w, http.StatusBadGateway, "Mail server unreachable")
		return
	}

	switch {
	case errors.Is(err, store.ErrPostNotFound):
		s.respondDetail(w, http.StatusNotFound, "No such post")
	case errors.Is(err, store.ErrDuplicatePost):
		s.respondDetail(w, http.StatusConflict, "Post with the same title already exists")
	case errors.Is(err, store.ErrAmbiguousPost):
		s.respondDetail(w, http.StatusConflict, "Multiple posts found")
	default:
		s.log.Error("request failed", "error", err)
		s.respondDetail(w, http.StatusInternalServerError, "Internal error")
	}
}
