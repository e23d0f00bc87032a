package app

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/book-expert/vibevoice/internal/core"
)

// GeneratePodcast drives the wizard's single generate action. While no script
// exists it asks the generator for one; once a script is present the next
// call saves it as a podcast and resets the wizard.
func (c *Controller) GeneratePodcast(ctx context.Context) {
	var (
		request  core.ScriptRequest
		generate bool
	)

	c.update(func(s *State) []core.PlaybackCommand {
		if s.GeneratedScript != "" {
			c.commitPodcast(s)

			return nil
		}

		s.PodcastGenerating = true
		s.PodcastProgress = ProgressGenerating

		// Keys are used as entered; only an empty key falls back.
		apiKey := s.GeminiAPIKey
		if apiKey == "" {
			apiKey = c.fallbackAPIKey
		}

		if apiKey == "" {
			s.PodcastProgress = ProgressMissingAPIKey
			s.PodcastGenerating = false

			return nil
		}

		request = core.ScriptRequest{APIKey: apiKey, SourceText: s.PodcastSourceText}
		generate = true

		return nil
	})

	if !generate {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	script, err := c.generator.GenerateScript(ctx, request)

	c.update(func(s *State) []core.PlaybackCommand {
		s.PodcastGenerating = false

		if err != nil {
			s.PodcastProgress = generationFailureProgress(err)

			return nil
		}

		s.GeneratedScript = script
		s.PodcastProgress = ProgressScriptReady

		return nil
	})

	if err != nil {
		c.logWarn(logFmtGenerateFailed, err)

		return
	}

	c.logInfo(logFmtScriptGenerated, len(script))
}

func (c *Controller) commitPodcast(s *State) {
	podcast := core.NewPodcastItem(
		s.PodcastStyle,
		s.PodcastSourceText,
		s.GeneratedScript,
		s.Speaker1Voice,
		s.Speaker2Voice,
		c.now(),
	)

	s.Podcasts = append([]core.PodcastItem{podcast}, s.Podcasts...)
	s.ShowCreatePodcastModal = false
	s.PodcastCreationStep = firstPodcastStep
	s.PodcastSourceText = ""
	s.GeneratedScript = ""
	s.PodcastGenerating = false
	s.PodcastProgress = ProgressCreated

	c.logInfo(logFmtPodcastCreated, podcast.ID)
}

func generationFailureProgress(err error) string {
	var statusErr *core.APIStatusError

	switch {
	case errors.Is(err, core.ErrAPIKeyMissing):
		return ProgressMissingAPIKey
	case errors.Is(err, core.ErrNoCandidates):
		return ProgressNoResponse
	case errors.Is(err, core.ErrEmptyContent):
		return ProgressEmptyResponse
	case errors.As(err, &statusErr):
		return fmt.Sprintf(progressFmtAPIStatus, statusErr.StatusCode)
	default:
		return fmt.Sprintf(progressFmtError, err)
	}
}

// ToggleCreatePodcastModal opens or closes the wizard. Closing it discards
// the source text and any generated script but keeps the speaker voices.
func (c *Controller) ToggleCreatePodcastModal() {
	c.update(func(s *State) []core.PlaybackCommand {
		s.ShowCreatePodcastModal = !s.ShowCreatePodcastModal
		if s.ShowCreatePodcastModal {
			return nil
		}

		s.PodcastCreationStep = firstPodcastStep
		s.PodcastSourceText = ""
		s.GeneratedScript = ""
		s.PodcastGenerating = false

		return nil
	})
}

// NextPodcastStep advances the wizard. Leaving the source step requires at
// least 50 characters of source text.
func (c *Controller) NextPodcastStep() {
	c.update(func(s *State) []core.PlaybackCommand {
		if s.PodcastCreationStep >= lastPodcastStep {
			return nil
		}

		if s.PodcastCreationStep == sourceTextStep && utf8.RuneCountInString(s.PodcastSourceText) < minSourceTextRunes {
			return nil
		}

		s.PodcastCreationStep++

		return nil
	})
}

// PrevPodcastStep moves the wizard back one step.
func (c *Controller) PrevPodcastStep() {
	c.update(func(s *State) []core.PlaybackCommand {
		if s.PodcastCreationStep > firstPodcastStep {
			s.PodcastCreationStep--
		}

		return nil
	})
}

// SetPodcastStyle selects the dialogue style.
func (c *Controller) SetPodcastStyle(style string) error {
	switch style {
	case core.StyleLecture, core.StyleDebate, core.StyleInterview, core.StyleLateNight:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}

	c.update(func(s *State) []core.PlaybackCommand {
		s.PodcastStyle = style

		return nil
	})

	return nil
}

// SetPodcastSourceText stores the text the script is generated from.
func (c *Controller) SetPodcastSourceText(text string) {
	c.update(func(s *State) []core.PlaybackCommand {
		s.PodcastSourceText = text

		return nil
	})
}

// SetSpeakerVoice assigns a voice to speaker 1 (Teacher) or 2 (Student).
func (c *Controller) SetSpeakerVoice(speaker int, voice string) error {
	if speaker != 1 && speaker != 2 {
		return fmt.Errorf("%w: got %d", ErrUnknownSpeaker, speaker)
	}

	c.update(func(s *State) []core.PlaybackCommand {
		if speaker == 1 {
			s.Speaker1Voice = voice
		} else {
			s.Speaker2Voice = voice
		}

		return nil
	})

	return nil
}

// SelectPodcast marks a podcast as current.
func (c *Controller) SelectPodcast(id string) {
	c.update(func(s *State) []core.PlaybackCommand {
		if s.podcastIndex(id) >= 0 {
			s.CurrentPodcastID = id
		}

		return nil
	})
}

// PlayPodcast selects a podcast for listening. Podcast audio is not rendered
// yet, so this only changes the selection.
func (c *Controller) PlayPodcast(id string) {
	c.SelectPodcast(id)
}

// DeletePodcast removes a podcast and clears the selection if it pointed at it.
func (c *Controller) DeletePodcast(id string) {
	c.update(func(s *State) []core.PlaybackCommand {
		idx := s.podcastIndex(id)
		if idx < 0 {
			return nil
		}

		s.Podcasts = append(s.Podcasts[:idx:idx], s.Podcasts[idx+1:]...)
		if s.CurrentPodcastID == id {
			s.CurrentPodcastID = ""
		}

		return nil
	})
}
