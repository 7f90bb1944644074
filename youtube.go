package openlearnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultYouTubeBaseURL is the YouTube Data API v3 base.
const DefaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"

const maxCourseVideos = 10

// --- YouTube Data API v3 types ---

type ytSearchResp struct {
	Items []ytItem `json:"items"`
}

type ytItem struct {
	ID      ytItemID      `json:"id"`
	Snippet ytItemSnippet `json:"snippet"`
}

type ytItemID struct {
	VideoID string `json:"videoId"`
}

type ytItemSnippet struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	ChannelTitle string       `json:"channelTitle"`
	PublishedAt  string       `json:"publishedAt"`
	Thumbnails   ytThumbnails `json:"thumbnails"`
}

type ytThumbnails struct {
	High ytThumbnail `json:"high"`
}

type ytThumbnail struct {
	URL string `json:"url"`
}

// VideoClient looks up course videos through the YouTube Data API.
type VideoClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewVideoClient creates a video search client. An empty baseURL uses
// the YouTube Data API endpoint.
func NewVideoClient(apiKey, baseURL string) *VideoClient {
	if baseURL == "" {
		baseURL = DefaultYouTubeBaseURL
	}
	return &VideoClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SearchCourseVideos searches for videos matching "<course> course" and
// maps the snippets into Video entries.
func (vc *VideoClient) SearchCourseVideos(ctx context.Context, course string) ([]Video, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("maxResults", strconv.Itoa(maxCourseVideos))
	params.Set("q", course+" course")
	params.Set("key", vc.apiKey)
	params.Set("type", "video")

	apiURL := vc.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build video search request: %w", err)
	}

	resp, err := vc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("video search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("video search API %d: %s", resp.StatusCode, string(body))
	}

	var result ytSearchResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode video search response: %w", err)
	}

	videos := make([]Video, 0, len(result.Items))
	for _, item := range result.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, Video{
			Title:        item.Snippet.Title,
			VideoID:      item.ID.VideoID,
			Thumbnail:    item.Snippet.Thumbnails.High.URL,
			Description:  item.Snippet.Description,
			ChannelTitle: item.Snippet.ChannelTitle,
			PublishedAt:  item.Snippet.PublishedAt,
		})
	}
	return videos, nil
}
