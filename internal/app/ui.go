package app

import (
	"fmt"

	"github.com/book-expert/vibevoice/internal/core"
)

// ToggleViewMode switches the library between grid and list layouts.
func (c *Controller) ToggleViewMode() {
	c.update(func(s *State) []core.PlaybackCommand {
		if s.ViewMode == ViewGrid {
			s.ViewMode = ViewList
		} else {
			s.ViewMode = ViewGrid
		}

		return nil
	})
}

// SetPage navigates between the library and podcast pages.
func (c *Controller) SetPage(page string) error {
	if page != PageLibrary && page != PagePodcasts {
		return fmt.Errorf("%w: %q", ErrUnknownPage, page)
	}

	c.update(func(s *State) []core.PlaybackCommand {
		s.CurrentPage = page

		return nil
	})

	return nil
}

// ToggleVoicePicker shows or hides the voice list.
func (c *Controller) ToggleVoicePicker() {
	c.update(func(s *State) []core.PlaybackCommand {
		s.ShowVoicePicker = !s.ShowVoicePicker

		return nil
	})
}

// ToggleAddTextModal opens or closes the add-text form. Closing clears it.
func (c *Controller) ToggleAddTextModal() {
	c.update(func(s *State) []core.PlaybackCommand {
		s.ShowAddTextModal = !s.ShowAddTextModal
		if !s.ShowAddTextModal {
			s.NewTextTitle = ""
			s.NewTextContent = ""
		}

		return nil
	})
}

// ToggleAddLinkModal opens or closes the add-link form. Closing clears it.
func (c *Controller) ToggleAddLinkModal() {
	c.update(func(s *State) []core.PlaybackCommand {
		s.ShowAddLinkModal = !s.ShowAddLinkModal
		if !s.ShowAddLinkModal {
			s.NewLinkURL = ""
		}

		return nil
	})
}

// ToggleSettingsModal opens or closes settings. Opening pre-fills the form
// with the current server URL.
func (c *Controller) ToggleSettingsModal() {
	c.update(func(s *State) []core.PlaybackCommand {
		s.ShowSettingsModal = !s.ShowSettingsModal
		if s.ShowSettingsModal {
			s.SettingsServerURL = s.ServerURL
		}

		return nil
	})
}

// SetNewTextTitle updates the add-text form title.
func (c *Controller) SetNewTextTitle(value string) {
	c.setField(func(s *State) { s.NewTextTitle = value })
}

// SetNewTextContent updates the add-text form body.
func (c *Controller) SetNewTextContent(value string) {
	c.setField(func(s *State) { s.NewTextContent = value })
}

// SetNewLinkURL updates the add-link form URL.
func (c *Controller) SetNewLinkURL(value string) {
	c.setField(func(s *State) { s.NewLinkURL = value })
}

// SetSettingsServerURL edits the server URL in the settings form. It takes
// effect on SaveSettings.
func (c *Controller) SetSettingsServerURL(value string) {
	c.setField(func(s *State) { s.SettingsServerURL = value })
}

// SetGeminiAPIKey stores the user's key. It takes precedence over the
// configured fallback.
func (c *Controller) SetGeminiAPIKey(value string) {
	c.setField(func(s *State) { s.GeminiAPIKey = value })
}

func (c *Controller) setField(set func(s *State)) {
	c.update(func(s *State) []core.PlaybackCommand {
		set(s)

		return nil
	})
}
