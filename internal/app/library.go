package app

import (
	"strings"

	"github.com/book-expert/vibevoice/internal/core"
)

// AddTextItem adds the add-text form as a new item at the front of the
// library, closes the modal and clears the form. Whitespace-only content is
// ignored.
func (c *Controller) AddTextItem() {
	c.update(func(s *State) []core.PlaybackCommand {
		content := strings.TrimSpace(s.NewTextContent)
		if content == "" {
			return nil
		}

		now := c.now()

		title := strings.TrimSpace(s.NewTextTitle)
		if title == "" {
			title = now.Format(textTitleLayout)
		}

		item := core.NewLibraryItem(title, content, core.SourceText, now)
		s.Items = append([]core.LibraryItem{item}, s.Items...)
		s.ShowAddTextModal = false
		s.NewTextTitle = ""
		s.NewTextContent = ""

		return nil
	})
}

// AddLinkItem adds the link form as a new web item. The page is not fetched;
// the item content only records the URL.
func (c *Controller) AddLinkItem() {
	c.update(func(s *State) []core.PlaybackCommand {
		link := strings.TrimSpace(s.NewLinkURL)
		if link == "" {
			return nil
		}

		item := core.NewLibraryItem(LinkTitle(link), linkContentPrefix+link, core.SourceWeb, c.now())
		s.Items = append([]core.LibraryItem{item}, s.Items...)
		s.ShowAddLinkModal = false
		s.NewLinkURL = ""

		return nil
	})
}

// LinkTitle derives a display title from a URL: the scheme is dropped and the
// text is cut at the first slash.
func LinkTitle(link string) string {
	host := strings.ReplaceAll(link, "https://", "")
	host = strings.ReplaceAll(host, "http://", "")

	host, _, _ = strings.Cut(host, "/")

	return host
}

// DeleteItem removes the item with the given id. Deleting the selected item
// resets the selection and stops playback if it is running.
func (c *Controller) DeleteItem(id string) {
	c.update(func(s *State) []core.PlaybackCommand {
		idx := s.itemIndex(id)
		if idx < 0 {
			return nil
		}

		s.Items = append(s.Items[:idx:idx], s.Items[idx+1:]...)

		if s.CurrentItemID != id {
			return nil
		}

		s.CurrentItemID = ""
		s.CurrentText = defaultDisplayText

		if s.IsPlaying {
			return stopPlayback(s)
		}

		return nil
	})
}

// SelectItem marks an item as current and shows its preview. Unknown ids are
// ignored. Selecting does not start playback.
func (c *Controller) SelectItem(id string) {
	c.update(func(s *State) []core.PlaybackCommand {
		idx := s.itemIndex(id)
		if idx < 0 {
			return nil
		}

		s.CurrentItemID = id
		s.CurrentText = Preview(s.Items[idx].Content)

		return nil
	})
}
