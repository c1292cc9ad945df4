package web

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxImageSize = 10 << 20 // 10 MiB

var allowedImageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// handleUploadImage stores one multipart-uploaded image under a
// collision-free name and returns its public URL.
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondDetail(w, http.StatusBadRequest, "Missing file upload")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		s.respondDetail(w, http.StatusBadRequest, "Unsupported image type")
		return
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		s.respondError(w, fmt.Errorf("creating upload dir: %w", err))
		return
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.uploadDir, name))
	if err != nil {
		s.respondError(w, fmt.Errorf("creating image file: %w", err))
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		s.respondError(w, fmt.Errorf("writing image file: %w", err))
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{
		"filename": name,
		"url":      "/images/" + name,
	})
}

// handleGetImage serves one previously uploaded image.
func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	// Base strips any path traversal out of the requested name.
	name := filepath.Base(chi.URLParam(r, "name"))
	http.ServeFile(w, r, filepath.Join(s.uploadDir, name))
}
