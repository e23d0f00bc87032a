package app

import "github.com/book-expert/vibevoice/internal/core"

// TogglePlayback starts playback of the selected item, or stops it if it is
// already playing. Starting requires a selection and a live connection.
func (c *Controller) TogglePlayback() {
	c.update(func(s *State) []core.PlaybackCommand {
		if s.CurrentItemID == "" {
			s.PlaybackStatus = PlaybackSelectFirst

			return nil
		}

		if !s.IsConnected {
			s.PlaybackStatus = PlaybackNotConnected

			return nil
		}

		if s.IsPlaying {
			s.IsPlaying = false
			s.AudioTextToPlay = ""
			s.PlaybackStatus = PlaybackStopped

			return []core.PlaybackCommand{{Kind: core.PlaybackStop}}
		}

		item, _ := s.CurrentItem()
		if item.Content == "" {
			s.PlaybackStatus = PlaybackNoContent

			return nil
		}

		s.IsPlaying = true
		s.AudioTextToPlay = item.Content
		s.AudioServerURL = s.ServerURL
		s.AudioVoice = s.CurrentVoice
		s.PlaybackStatus = PlaybackStarting

		return []core.PlaybackCommand{{
			Kind:   core.PlaybackPlay,
			Text:   item.Content,
			Server: s.ServerURL,
			Voice:  s.CurrentVoice,
			Speed:  s.PlaybackSpeed,
		}}
	})
}

// StopPlayback halts playback without a status message.
func (c *Controller) StopPlayback() {
	c.update(stopPlayback)
}

// PlaybackEnded is reported by the playback driver when audio runs out.
func (c *Controller) PlaybackEnded() {
	c.update(func(s *State) []core.PlaybackCommand {
		s.IsPlaying = false
		s.AudioTextToPlay = ""
		s.PlaybackStatus = PlaybackFinished

		return nil
	})
}

// SetPlaybackSpeed changes the playback rate. The driver is told immediately
// when audio is playing.
func (c *Controller) SetPlaybackSpeed(speed float64) error {
	if !ValidSpeed(speed) {
		return ErrInvalidSpeed
	}

	c.update(func(s *State) []core.PlaybackCommand {
		s.PlaybackSpeed = speed
		if !s.IsPlaying {
			return nil
		}

		return []core.PlaybackCommand{{Kind: core.PlaybackSetSpeed, Speed: speed}}
	})

	return nil
}

// SelectVoice picks the voice for the next playback and closes the picker.
func (c *Controller) SelectVoice(voice string) {
	c.update(func(s *State) []core.PlaybackCommand {
		s.CurrentVoice = voice
		s.ShowVoicePicker = false

		return nil
	})
}

func stopPlayback(s *State) []core.PlaybackCommand {
	wasPlaying := s.IsPlaying

	s.IsPlaying = false
	s.AudioTextToPlay = ""
	s.PlaybackStatus = ""

	if !wasPlaying {
		return nil
	}

	return []core.PlaybackCommand{{Kind: core.PlaybackStop}}
}
