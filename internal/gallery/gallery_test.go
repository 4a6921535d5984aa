package gallery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelperfect/internal/booking"
	"pixelperfect/internal/catalog"
	"pixelperfect/internal/model"
)

func ids(items []model.GalleryItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestList(t *testing.T) {
	s := New(catalog.New(nil), Defaults(), nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all newest first", Filter{}, []string{"1", "2", "3", "4"}},
		{"published only", Filter{PublishedOnly: true}, []string{"1", "2", "3"}},
		{"category", Filter{Category: "Portrait"}, []string{"2"}},
		{"category all", Filter{Category: "all"}, []string{"1", "2", "3", "4"}},
		{"search title", Filter{Search: "WEDDING"}, []string{"1"}},
		{"search description", Filter{Search: "brand marketing"}, []string{"4"}},
		{"search description and tags", Filter{Search: "corporate"}, []string{"2", "3"}},
		{"search and published", Filter{Search: "marketing", PublishedOnly: true}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(s.List(ctx, tt.filter)))
		})
	}
}

func TestCreate(t *testing.T) {
	s := New(catalog.New(nil), nil, nil)
	s.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	it, err := s.Create(ctx, Draft{
		Title:    " Studio Portrait ",
		Category: "Portrait",
		ImageURL: "https://example.com/p.jpg",
		Tags:     []string{"Studio", " portrait", "studio", ""},
		Publish:  true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, it.ID)
	assert.Equal(t, "Studio Portrait", it.Title)
	assert.Equal(t, []string{"studio", "portrait"}, it.Tags)
	assert.True(t, it.IsPublished)
	assert.False(t, it.IsFeatured)
	assert.Equal(t, s.now(), it.CreatedAt)

	got, err := s.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, it, got)
}

func TestCreateValidation(t *testing.T) {
	s := New(catalog.New(nil), nil, nil)

	_, err := s.Create(context.Background(), Draft{Category: "Food"})
	var fe booking.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Title is required", fe["title"])
	assert.Equal(t, "Image is required", fe["image_url"])
	assert.Equal(t, "Unknown category", fe["category"])
	assert.Empty(t, s.List(context.Background(), Filter{}))
}

func TestUpdate(t *testing.T) {
	s := New(catalog.New(nil), Defaults(), nil)
	ctx := context.Background()

	title := "Golden Hour Vows"
	tags := []string{"Sunset"}
	it, err := s.Update(ctx, "1", Edit{Title: &title, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, "Golden Hour Vows", it.Title)
	assert.Equal(t, []string{"sunset"}, it.Tags)
	assert.Equal(t, "Wedding", it.Category)

	blank := ""
	_, err = s.Update(ctx, "1", Edit{Title: &blank})
	var fe booking.FieldErrors
	require.ErrorAs(t, err, &fe)
	got, _ := s.Get(ctx, "1")
	assert.Equal(t, "Golden Hour Vows", got.Title)

	_, err = s.Update(ctx, "99", Edit{Title: &title})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestTogglesAndDelete(t *testing.T) {
	s := New(nil, Defaults(), nil)
	ctx := context.Background()

	it, err := s.TogglePublished(ctx, "4")
	require.NoError(t, err)
	assert.True(t, it.IsPublished)

	it, err = s.ToggleFeatured(ctx, "1")
	require.NoError(t, err)
	assert.False(t, it.IsFeatured)

	require.NoError(t, s.Delete(ctx, "2"))
	assert.ErrorIs(t, s.Delete(ctx, "2"), ErrItemNotFound)
	_, err = s.Get(ctx, "2")
	assert.ErrorIs(t, err, ErrItemNotFound)
	_, err = s.ToggleFeatured(ctx, "2")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestReturnedItemsAreCopies(t *testing.T) {
	s := New(nil, Defaults(), nil)
	ctx := context.Background()

	it, err := s.Get(ctx, "1")
	require.NoError(t, err)
	it.Tags[0] = "changed"

	again, _ := s.Get(ctx, "1")
	assert.Equal(t, "wedding", again.Tags[0])
}
