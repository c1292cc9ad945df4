package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tilda-center/backend/internal/model"
)

// handleListFolders returns the caller's folder hierarchy.
func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	user, _ := identityFrom(r.Context())

	folders, err := s.mail.ListFolders(r.Context(), user)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, folders)
}

// handleCreateFolder makes a new folder for the caller.
func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	user, _ := identityFrom(r.Context())

	var box model.Mailbox
	if err := json.NewDecoder(r.Body).Decode(&box); err != nil || box.Name == "" {
		s.respondDetail(w, http.StatusBadRequest, "Folder name is required")
		return
	}

	if err := s.mail.CreateFolder(r.Context(), user, box.Name); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, box)
}

// handleListMessages returns every message of one folder.
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	user, _ := identityFrom(r.Context())
	folder := chi.URLParam(r, "folder")

	if _, err := s.mail.GetFolder(r.Context(), user, folder); err != nil {
		s.respondError(w, err)
		return
	}
	emails, err := s.mail.ListMessages(r.Context(), user, folder)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, emails)
}

// handleDeleteFolder removes one folder.
func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	user, _ := identityFrom(r.Context())
	folder := chi.URLParam(r, "folder")

	if err := s.mail.DeleteFolder(r.Context(), user, folder); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, model.Mailbox{Name: folder})
}

// handleGetMessage returns one message by its sequence id.
func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	user, _ := identityFrom(r.Context())
	folder := chi.URLParam(r, "folder")

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		s.respondDetail(w, http.StatusBadRequest, "Invalid message id")
		return
	}

	if _, err := s.mail.GetFolder(r.Context(), user, folder); err != nil {
		s.respondError(w, err)
		return
	}
	email, err := s.mail.GetMessage(r.Context(), user, folder, id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, email)
}
