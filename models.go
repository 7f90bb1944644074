package openlearnhub

import "time"

// UserAccount holds the profile fields stored for a user. The UID is
// assigned at account creation and never changes; the profile fields
// are owned by the identity gateway.
type UserAccount struct {
	UID      string `json:"uid"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// QuizQuestion is a single multiple-choice question as emitted by the
// model: four options and the label (A-D) of the correct one.
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// QuizResult is one scored quiz attempt. Results are append-only; a
// duplicate submission creates a second record.
type QuizResult struct {
	UID        string    `json:"uid"`
	VideoID    string    `json:"videoId"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Difficulty string    `json:"difficulty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Video is one entry from a course video search.
type Video struct {
	Title        string `json:"title"`
	VideoID      string `json:"videoId"`
	Thumbnail    string `json:"thumbnail"`
	Description  string `json:"description"`
	ChannelTitle string `json:"channelTitle"`
	PublishedAt  string `json:"publishedAt"`
}
