package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tilda-center/backend/internal/model"
	"github.com/tilda-center/backend/internal/store"
)

// MailService is the mailbox API the handlers proxy to. It is implemented
// by the imap package.
type MailService interface {
	ListFolders(ctx context.Context, user model.Identity) ([]*model.Mailbox, error)
	GetFolder(ctx context.Context, user model.Identity, name string) (*model.Mailbox, error)
	CreateFolder(ctx context.Context, user model.Identity, name string) error
	DeleteFolder(ctx context.Context, user model.Identity, name string) error
	ListMessages(ctx context.Context, user model.Identity, folder string) ([]model.EMail, error)
	GetMessage(ctx context.Context, user model.Identity, folder string, id int) (*model.EMail, error)
}

// Configuration wires the server's collaborators.
type Configuration struct {
	Posts     store.Store
	Mail      MailService
	JWTSecret string
	UploadDir string
}

// Server carries the HTTP handlers for the blog and webmail API.
type Server struct {
	posts     store.Store
	mail      MailService
	jwtSecret []byte
	uploadDir string
	log       *slog.Logger
}

// NewServer creates the HTTP server around its collaborators.
func NewServer(cfg Configuration) *Server {
	return &Server{
		posts:     cfg.Posts,
		mail:      cfg.Mail,
		jwtSecret: []byte(cfg.JWTSecret),
		uploadDir: cfg.UploadDir,
		log:       slog.Default(),
	}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.optionalAuth)
			r.Get("/posts", s.handleListPosts)
		})
		r.Get("/posts/{year}/{month}/{day}/{slug}", s.handleGetPost)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/posts", s.handleCreatePost)
			r.Patch("/posts/{year}/{month}/{day}/{slug}", s.handlePatchPost)
			r.Delete("/posts/{year}/{month}/{day}/{slug}", s.handleDeletePost)

			r.Post("/images", s.handleUploadImage)

			r.Get("/folders", s.handleListFolders)
			r.Post("/folders", s.handleCreateFolder)
			r.Get("/folders/{folder}", s.handleListMessages)
			r.Delete("/folders/{folder}", s.handleDeleteFolder)
			r.Get("/folders/{folder}/{id}", s.handleGetMessage)
		})
	})

	r.Get("/images/{name}", s.handleGetImage)

	return r
}

// requestLogger logs one line per request with status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
