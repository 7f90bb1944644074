package openlearnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ytSearchFixture = `{
	"items": [
		{
			"id": {"videoId": "abc123xyz00"},
			"snippet": {
				"title": "Go Crash Course",
				"description": "Learn Go fast",
				"channelTitle": "GoChannel",
				"publishedAt": "2024-01-02T03:04:05Z",
				"thumbnails": {"high": {"url": "https://img.example/abc.jpg"}}
			}
		},
		{
			"id": {},
			"snippet": {"title": "Not a video"}
		}
	]
}`

func TestSearchCourseVideos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "snippet", q.Get("part"))
		assert.Equal(t, "golang course", q.Get("q"))
		assert.Equal(t, "video", q.Get("type"))
		assert.Equal(t, "10", q.Get("maxResults"))
		assert.Equal(t, "yt-key", q.Get("key"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(ytSearchFixture))
	}))
	defer srv.Close()

	vc := NewVideoClient("yt-key", srv.URL)
	videos, err := vc.SearchCourseVideos(context.Background(), "golang")
	require.NoError(t, err)
	// Items without a video id are skipped.
	require.Len(t, videos, 1)

	got := videos[0]
	assert.Equal(t, "Go Crash Course", got.Title)
	assert.Equal(t, "abc123xyz00", got.VideoID)
	assert.Equal(t, "https://img.example/abc.jpg", got.Thumbnail)
	assert.Equal(t, "GoChannel", got.ChannelTitle)
	assert.Equal(t, "2024-01-02T03:04:05Z", got.PublishedAt)
}

func TestSearchCourseVideosAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	vc := NewVideoClient("yt-key", srv.URL)
	_, err := vc.SearchCourseVideos(context.Background(), "golang")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
