package core

import (
	"time"

	"github.com/google/uuid"
)

// SourceType records where a library item came from.
type SourceType string

// Library item source types.
const (
	SourceFile    SourceType = "file"
	SourceText    SourceType = "text"
	SourceWeb     SourceType = "web"
	SourcePodcast SourceType = "podcast"
)

// Podcast styles. Only lecture is offered by the wizard today.
const (
	StyleLecture   = "lecture"
	StyleDebate    = "debate"
	StyleInterview = "interview"
	StyleLateNight = "late_night"
)

const (
	// TimestampLayout formats CreatedAt fields.
	TimestampLayout = "2006-01-02 15:04:05"

	podcastDurationPlaceholder = "~5 min"
	teacherSpeakerName         = "Teacher"
	studentSpeakerName         = "Student"
)

// LibraryItem is a document available for playback.
type LibraryItem struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	SourceType SourceType `json:"source_type"`
	Thumbnail  string     `json:"thumbnail"`
	CreatedAt  string     `json:"created_at"`
}

// Speaker is one voice in a podcast dialogue.
type Speaker struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Voice string `json:"voice"`
}

// PodcastItem is a generated two-speaker script.
type PodcastItem struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Style      string    `json:"style"`
	SourceText string    `json:"source_text"`
	Script     string    `json:"script"`
	AudioURL   string    `json:"audio_url"`
	Duration   string    `json:"duration"`
	CreatedAt  string    `json:"created_at"`
	Speakers   []Speaker `json:"speakers"`
}

// NewLibraryItem builds a library item with a fresh ID and creation timestamp.
func NewLibraryItem(title, content string, source SourceType, now time.Time) LibraryItem {
	return LibraryItem{
		ID:         uuid.NewString(),
		Title:      title,
		Content:    content,
		SourceType: source,
		Thumbnail:  "",
		CreatedAt:  now.Format(TimestampLayout),
	}
}

// NewPodcastItem builds a podcast with the fixed Teacher/Student speaker pair.
// AudioURL stays empty because audio rendering is not implemented.
func NewPodcastItem(style, sourceText, script, teacherVoice, studentVoice string, now time.Time) PodcastItem {
	return PodcastItem{
		ID:         uuid.NewString(),
		Title:      "Lecture - " + now.Format("Jan 02"),
		Style:      style,
		SourceText: sourceText,
		Script:     script,
		AudioURL:   "",
		Duration:   podcastDurationPlaceholder,
		CreatedAt:  now.Format(TimestampLayout),
		Speakers: []Speaker{
			{ID: "1", Name: teacherSpeakerName, Voice: teacherVoice},
			{ID: "2", Name: studentSpeakerName, Voice: studentVoice},
		},
	}
}
