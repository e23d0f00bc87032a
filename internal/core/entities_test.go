// Package core_test tests the domain record constructors.
package core_test

import (
	"testing"
	"time"

	"github.com/book-expert/vibevoice/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLibraryItem(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

	first := core.NewLibraryItem("Title", "body", core.SourceText, now)
	second := core.NewLibraryItem("Title", "body", core.SourceText, now)

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID, "IDs must never be reused")
	assert.Equal(t, "2024-03-05 14:07:09", first.CreatedAt)
	assert.Equal(t, core.SourceText, first.SourceType)
	assert.Empty(t, first.Thumbnail)
}

func TestNewPodcastItem(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.November, 9, 8, 0, 0, 0, time.UTC)

	podcast := core.NewPodcastItem(core.StyleLecture, "source", "Speaker 1: hi", "en-Carter_man", "en-Emma_woman", now)

	assert.Equal(t, "Lecture - Nov 09", podcast.Title)
	assert.Equal(t, core.StyleLecture, podcast.Style)
	assert.Empty(t, podcast.AudioURL)
	assert.Equal(t, "~5 min", podcast.Duration)
	require.Len(t, podcast.Speakers, 2)
	assert.Equal(t, core.Speaker{ID: "1", Name: "Teacher", Voice: "en-Carter_man"}, podcast.Speakers[0])
	assert.Equal(t, core.Speaker{ID: "2", Name: "Student", Voice: "en-Emma_woman"}, podcast.Speakers[1])
}
