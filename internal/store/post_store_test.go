package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilda-center/backend/internal/model"
	"github.com/tilda-center/backend/internal/store"
	"github.com/tilda-center/backend/tests/testutil"
)

func TestCreatePostFillsDefaults(t *testing.T) {
	s := testutil.NewTestStore(t)

	post, err := s.CreatePost(context.Background(), model.Post{
		Author:  "author@example.com",
		Title:   "Hello, Wörld!",
		Content: "first post",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "hello-world", post.Slug)
	assert.False(t, post.Date.IsZero())
}

func TestCreatePostDuplicateSlugSameDay(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	date := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	_, err := s.CreatePost(ctx, model.Post{Title: "My Post", Date: date})
	require.NoError(t, err)

	_, err = s.CreatePost(ctx, model.Post{Title: "My Post", Date: date.Add(time.Hour)})
	assert.ErrorIs(t, err, store.ErrDuplicatePost)

	// The same slug on a different day is fine.
	_, err = s.CreatePost(ctx, model.Post{Title: "My Post", Date: date.AddDate(0, 0, 1)})
	assert.NoError(t, err)
}

func TestGetPostsPublishedFilter(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.CreatePost(ctx, model.Post{Title: "draft", Published: false})
	require.NoError(t, err)
	_, err = s.CreatePost(ctx, model.Post{Title: "live", Published: true})
	require.NoError(t, err)

	all, err := s.GetPosts(ctx, store.PostFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	published, err := s.GetPosts(ctx, store.PostFilter{PublishedOnly: true})
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, "live", published[0].Title)

	count, err := s.CountPosts(ctx, store.PostFilter{PublishedOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetPostsPagination(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := s.CreatePost(ctx, model.Post{
			Title: "post " + string(rune('a'+i)),
			Date:  base.AddDate(0, 0, i),
		})
		require.NoError(t, err)
	}

	page, err := s.GetPosts(ctx, store.PostFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	// Newest first: offset 2 lands on the third-newest post.
	assert.Equal(t, "post c", page[0].Title)
	assert.Equal(t, "post b", page[1].Title)
}

func TestFindPost(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	date := time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)
	created, err := s.CreatePost(ctx, model.Post{Title: "Findable", Date: date})
	require.NoError(t, err)

	day := store.PostDate{Year: 2024, Month: 5, Day: 10}
	found, err := s.FindPost(ctx, day, "findable")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = s.FindPost(ctx, day, "missing")
	assert.ErrorIs(t, err, store.ErrPostNotFound)

	_, err = s.FindPost(ctx, store.PostDate{Year: 2024, Month: 5, Day: 11}, "findable")
	assert.ErrorIs(t, err, store.ErrPostNotFound)
}

func TestUpdatePost(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	created, err := s.CreatePost(ctx, model.Post{Title: "Before"})
	require.NoError(t, err)

	created.Title = "After"
	created.Published = true
	require.NoError(t, s.UpdatePost(ctx, *created))

	day := store.PostDate{
		Year:  created.Date.Year(),
		Month: int(created.Date.Month()),
		Day:   created.Date.Day(),
	}
	found, err := s.FindPost(ctx, day, created.Slug)
	require.NoError(t, err)
	assert.Equal(t, "After", found.Title)
	assert.True(t, found.Published)

	err = s.UpdatePost(ctx, model.Post{ID: "nope"})
	assert.ErrorIs(t, err, store.ErrPostNotFound)
}

func TestDeletePost(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	created, err := s.CreatePost(ctx, model.Post{Title: "Doomed"})
	require.NoError(t, err)

	require.NoError(t, s.DeletePost(ctx, created.ID))
	assert.ErrorIs(t, s.DeletePost(ctx, created.ID), store.ErrPostNotFound)
}
