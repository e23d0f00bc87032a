package app

import (
	"context"
	"errors"
	"strings"

	"github.com/book-expert/vibevoice/internal/core"
	"github.com/book-expert/vibevoice/internal/tts"
)

// CheckConnection probes the configured TTS server and refreshes the voice
// catalogue. A server that answers with a non-200 status reports "Server
// error"; anything else that goes wrong reports "Offline".
func (c *Controller) CheckConnection(ctx context.Context) {
	var serverURL string

	c.update(func(s *State) []core.PlaybackCommand {
		serverURL = s.ServerURL
		s.ConnectionStatus = StatusConnecting
		s.IsConnected = false

		return nil
	})

	ctx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	voiceConfig, err := c.checker.FetchConfig(ctx, serverURL)

	c.update(func(s *State) []core.PlaybackCommand {
		if err != nil {
			s.IsConnected = false
			s.ConnectionStatus = connectionFailureStatus(err)

			return nil
		}

		s.Voices = append([]string{}, voiceConfig.Voices...)
		s.DefaultVoice = voiceConfig.DefaultVoice

		if s.CurrentVoice == "" && s.DefaultVoice != "" {
			s.CurrentVoice = s.DefaultVoice
		}

		s.IsConnected = true
		s.ConnectionStatus = StatusConnected

		return nil
	})

	if err != nil {
		c.logWarn(logFmtConnectionFailed, serverURL, err)

		return
	}

	c.logInfo(logFmtConnected, serverURL, len(voiceConfig.Voices))
}

// SaveSettings applies the settings form, closes the modal and reconnects.
func (c *Controller) SaveSettings(ctx context.Context) {
	c.update(func(s *State) []core.PlaybackCommand {
		s.ServerURL = strings.TrimSpace(s.SettingsServerURL)
		s.ShowSettingsModal = false

		return nil
	})

	c.CheckConnection(ctx)
}

// Load prepares the library on first start and checks the connection.
func (c *Controller) Load(ctx context.Context) {
	c.update(func(s *State) []core.PlaybackCommand {
		if len(s.Items) > 0 {
			return nil
		}

		s.Items = []core.LibraryItem{
			core.NewLibraryItem(welcomeTitle, welcomeContent, core.SourceText, c.now()),
		}

		return nil
	})

	c.CheckConnection(ctx)
}

func connectionFailureStatus(err error) string {
	var statusErr *tts.StatusError
	if errors.As(err, &statusErr) {
		return StatusServerError
	}

	return StatusOffline
}
