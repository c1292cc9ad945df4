package store

import (
	"context"
	"errors"
	"time"

	"github.com/tilda-center/backend/internal/model"
)

var (
	// ErrPostNotFound is returned when no post matches the query.
	ErrPostNotFound = errors.New("post not found")

	// ErrDuplicatePost is returned when a post with the same slug
	// already exists on the same day.
	ErrDuplicatePost = errors.New("post with the same slug already exists")

	// ErrAmbiguousPost is returned when a (date, slug) lookup matches
	// more than one post.
	ErrAmbiguousPost = errors.New("multiple posts found")
)

// PostFilter controls filtering and pagination for post listings.
type PostFilter struct {
	// PublishedOnly restricts the listing to published posts; the web
	// layer sets it for unauthenticated readers.
	PublishedOnly bool

	Limit  int
	Offset int
}

// PostDate identifies the day a post is addressed by.
type PostDate struct {
	Year  int
	Month int
	Day   int
}

// Start returns the beginning of the day in UTC.
func (d PostDate) Start() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// End returns the beginning of the next day in UTC.
func (d PostDate) End() time.Time {
	return d.Start().AddDate(0, 0, 1)
}

// Store defines the persistence interface for blog posts.
type Store interface {
	CreatePost(ctx context.Context, post model.Post) (*model.Post, error)
	GetPosts(ctx context.Context, filter PostFilter) ([]model.Post, error)
	CountPosts(ctx context.Context, filter PostFilter) (int, error)
	FindPost(ctx context.Context, date PostDate, slug string) (*model.Post, error)
	UpdatePost(ctx context.Context, post model.Post) error
	DeletePost(ctx context.Context, id string) error
}
