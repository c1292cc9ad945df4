package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/tilda-center/backend/internal/model"
)

// CreatePost stores a new post. A missing id gets a fresh UUID, a missing
// slug derives from the title, and a zero date becomes the current time.
// A post with the same slug on the same day is rejected with
// ErrDuplicatePost.
func (s *SQLiteStore) CreatePost(ctx context.Context, post model.Post) (*model.Post, error) {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.Slug == "" {
		post.Slug = slug.Make(post.Title)
	}
	if post.Date.IsZero() {
		post.Date = time.Now().UTC()
	}
	post.Date = post.Date.UTC()

	day := PostDate{Year: post.Date.Year(), Month: int(post.Date.Month()), Day: post.Date.Day()}
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM posts WHERE date >= ? AND date < ? AND slug = ?",
		day.Start(), day.End(), post.Slug,
	)
	if err != nil {
		return nil, fmt.Errorf("checking for duplicate slug: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicatePost
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO posts (id, author, title, slug, content, image, published, date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.Author, post.Title, post.Slug,
		post.Content, post.Image, post.Published, post.Date,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting post: %w", err)
	}

	return &post, nil
}

// GetPosts returns posts newest first, honoring the filter's published
// restriction and pagination.
func (s *SQLiteStore) GetPosts(ctx context.Context, filter PostFilter) ([]model.Post, error) {
	query := "SELECT * FROM posts"
	args := []any{}
	if filter.PublishedOnly {
		query += " WHERE published = 1"
	}
	query += " ORDER BY date DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	posts := []model.Post{}
	if err := s.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// CountPosts returns the total number of posts the filter matches,
// ignoring pagination.
func (s *SQLiteStore) CountPosts(ctx context.Context, filter PostFilter) (int, error) {
	query := "SELECT COUNT(*) FROM posts"
	if filter.PublishedOnly {
		query += " WHERE published = 1"
	}

	var count int
	if err := s.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("counting posts: %w", err)
	}
	return count, nil
}

// FindPost looks a post up by its day and slug. It returns ErrPostNotFound
// when nothing matches and ErrAmbiguousPost when more than one post does.
func (s *SQLiteStore) FindPost(ctx context.Context, date PostDate, slug string) (*model.Post, error) {
	posts := []model.Post{}
	err := s.db.SelectContext(ctx, &posts,
		"SELECT * FROM posts WHERE date >= ? AND date < ? AND slug = ?",
		date.Start(), date.End(), slug,
	)
	if err != nil {
		return nil, fmt.Errorf("finding post: %w", err)
	}

	switch len(posts) {
	case 0:
		return nil, ErrPostNotFound
	case 1:
		return &posts[0], nil
	default:
		return nil, ErrAmbiguousPost
	}
}

// UpdatePost rewrites the mutable fields of an existing post.
func (s *SQLiteStore) UpdatePost(ctx context.Context, post model.Post) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE posts
		SET title = ?, slug = ?, content = ?, image = ?, published = ?
		WHERE id = ?`,
		post.Title, post.Slug, post.Content, post.Image, post.Published, post.ID,
	)
	if err != nil {
		return fmt.Errorf("updating post: %w", err)
	}
	return requireRow(res)
}

// DeletePost removes a post by id.
func (s *SQLiteStore) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return nil
}

// IsNotFound reports whether err is the missing-post sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPostNotFound)
}
