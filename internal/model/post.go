package model

import "time"

// Post is a single blog post.
type Post struct {
	// ID is the unique identifier for this post.
	ID string `db:"id" json:"id"`

	// Author is the email address of the post's author.
	Author string `db:"author" json:"author"`

	// Title is the human-readable post title.
	Title string `db:"title" json:"title"`

	// Slug is the URL-safe form of the title, derived on creation when
	// empty. A post is addressed by (date, slug).
	Slug string `db:"slug" json:"slug"`

	// Content is the post body.
	Content string `db:"content" json:"content"`

	// Image is the filename of the post's cover image, if any.
	Image string `db:"image" json:"image"`

	// Published controls visibility for unauthenticated readers.
	Published bool `db:"published" json:"published"`

	// Date is the creation timestamp (UTC).
	Date time.Time `db:"date" json:"date"`
}
