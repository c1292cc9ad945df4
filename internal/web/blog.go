package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tilda-center/backend/internal/model"
	"github.com/tilda-center/backend/internal/store"
)

const defaultPerPage = 10

// postPage is the paginated listing response.
type postPage struct {
	Total   int          `json:"total"`
	Page    int          `json:"page"`
	PerPage int          `json:"per_page"`
	Data    []model.Post `json:"data"`
}

// pagination reads page/per_page query parameters, 1-based.
func pagination(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 {
		perPage = defaultPerPage
	}
	return page, perPage
}

// postDateFrom parses the {year}/{month}/{day} path segments.
func postDateFrom(r *http.Request) (store.PostDate, bool) {
	year, err1 := strconv.Atoi(chi.URLParam(r, "year"))
	month, err2 := strconv.Atoi(chi.URLParam(r, "month"))
	day, err3 := strconv.Atoi(chi.URLParam(r, "day"))
	if err1 != nil || err2 != nil || err3 != nil {
		return store.PostDate{}, false
	}
	return store.PostDate{Year: year, Month: month, Day: day}, true
}

// handleListPosts lists posts, newest first. Anonymous readers only see
// published posts; authenticated callers see everything.
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	_, authenticated := identityFrom(r.Context())
	page, perPage := pagination(r)

	filter := store.PostFilter{
		PublishedOnly: !authenticated,
		Limit:         perPage,
		Offset:        (page - 1) * perPage,
	}

	total, err := s.posts.CountPosts(r.Context(), filter)
	if err != nil {
		s.respondError(w, err)
		return
	}
	posts, err := s.posts.GetPosts(r.Context(), filter)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, postPage{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Data:    posts,
	})
}

// handleCreatePost creates a post authored by the caller.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	user, _ := identityFrom(r.Context())

	var post model.Post
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
		s.respondDetail(w, http.StatusBadRequest, "Invalid post payload")
		return
	}
	if post.Title == "" {
		s.respondDetail(w, http.StatusBadRequest, "Title is required")
		return
	}
	post.Author = user.Email

	created, err := s.posts.CreatePost(r.Context(), post)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, created)
}

// handleGetPost returns one post addressed by date and slug.
func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	date, ok := postDateFrom(r)
	if !ok {
		s.respondDetail(w, http.StatusBadRequest, "Invalid date")
		return
	}

	post, err := s.posts.FindPost(r.Context(), date, chi.URLParam(r, "slug"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, post)
}

// postPatch holds the editable fields; absent fields stay unchanged.
type postPatch struct {
	Title     *string `json:"title"`
	Slug      *string `json:"slug"`
	Content   *string `json:"content"`
	Image     *string `json:"image"`
	Published *bool   `json:"published"`
}

// handlePatchPost edits one post's fields.
func (s *Server) handlePatchPost(w http.ResponseWriter, r *http.Request) {
	date, ok := postDateFrom(r)
	if !ok {
		s.respondDetail(w, http.StatusBadRequest, "Invalid date")
		return
	}

	post, err := s.posts.FindPost(r.Context(), date, chi.URLParam(r, "slug"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	var patch postPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.respondDetail(w, http.StatusBadRequest, "Invalid patch payload")
		return
	}
	if patch.Title != nil {
		post.Title = *patch.Title
	}
	if patch.Slug != nil {
		post.Slug = *patch.Slug
	}
	if patch.Content != nil {
		post.Content = *patch.Content
	}
	if patch.Image != nil {
		post.Image = *patch.Image
	}
	if patch.Published != nil {
		post.Published = *patch.Published
	}

	if err := s.posts.UpdatePost(r.Context(), *post); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, post)
}

// handleDeletePost removes one post and returns it.
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	date, ok := postDateFrom(r)
	if !ok {
		s.respondDetail(w, http.StatusBadRequest, "Invalid date")
		return
	}

	post, err := s.posts.FindPost(r.Context(), date, chi.URLParam(r, "slug"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	if err := s.posts.DeletePost(r.Context(), post.ID); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, post)
}
