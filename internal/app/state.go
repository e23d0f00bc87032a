package app

import "github.com/book-expert/vibevoice/internal/core"

// Defaults applied to a fresh State.
const (
	DefaultServerURL     = "http://localhost:3000"
	DefaultPlaybackSpeed = 1.0
	defaultDisplayText   = "Select an item to start reading"
	firstPodcastStep     = 1
	lastPodcastStep      = 4
	sourceTextStep       = 2
	minSourceTextRunes   = 50
	previewRunes         = 100
)

// View modes and pages.
const (
	ViewGrid     = "grid"
	ViewList     = "list"
	PageLibrary  = "library"
	PagePodcasts = "podcasts"
)

// Connection status strings.
const (
	StatusConnecting  = "Connecting..."
	StatusConnected   = "Connected"
	StatusServerError = "Server error"
	StatusOffline     = "Offline"
)

// Playback status strings.
const (
	PlaybackSelectFirst  = "Select an item first"
	PlaybackNotConnected = "Not connected to server"
	PlaybackNoContent    = "No content to play"
	PlaybackStarting     = "Starting playback..."
	PlaybackStopped      = "Stopped"
	PlaybackFinished     = "Finished"
	PlaybackFailed       = "Playback failed"
)

// Podcast wizard progress strings.
const (
	ProgressGenerating    = "Generating script with AI..."
	ProgressMissingAPIKey = "Error: Please set your Gemini API key in Settings"
	ProgressScriptReady   = "Script generated! Click 'Create Podcast' to save."
	ProgressNoResponse    = "Error: No response from AI"
	ProgressEmptyResponse = "Error: Empty response from AI"
	ProgressCreated       = "Podcast created!"
	progressFmtAPIStatus  = "Error: API returned %d"
	progressFmtError      = "Error: %v"
)

const (
	welcomeTitle   = "Welcome to VibeVoice"
	welcomeContent = "Welcome to VibeVoice, your premium text-to-speech application. " +
		"Add documents, articles, or any text and listen to them with natural-sounding AI voices. " +
		"Get started by clicking the '+' button to add your first item."
	textTitleLayout   = "Text - Jan 02, 2006"
	linkContentPrefix = "Content from: "
)

// DefaultVoices is the catalogue shown until a TTS server reports its own.
var DefaultVoices = []string{
	"en-Carter_man",
	"en-Emma_woman",
	"en-David_man",
	"en-Sarah_woman",
	"en-Michael_man",
	"en-Emily_woman",
}

var allowedSpeeds = []float64{0.5, 0.75, 1.0, 1.25, 1.5, 2.0}

// State is the complete application state owned by a Controller.
type State struct {
	// Library.
	Items         []core.LibraryItem `json:"items"`
	CurrentItemID string             `json:"current_item_id"`
	CurrentText   string             `json:"current_text"`

	// Connection.
	ServerURL        string   `json:"server_url"`
	IsConnected      bool     `json:"is_connected"`
	ConnectionStatus string   `json:"connection_status"`
	Voices           []string `json:"voices"`
	CurrentVoice     string   `json:"current_voice"`
	DefaultVoice     string   `json:"default_voice"`

	// Playback.
	IsPlaying       bool    `json:"is_playing"`
	PlaybackSpeed   float64 `json:"playback_speed"`
	PlaybackStatus  string  `json:"playback_status"`
	AudioTextToPlay string  `json:"audio_text_to_play"`
	AudioServerURL  string  `json:"audio_server_url"`
	AudioVoice      string  `json:"audio_voice"`

	// UI.
	ViewMode          string `json:"view_mode"`
	ShowVoicePicker   bool   `json:"show_voice_picker"`
	ShowAddTextModal  bool   `json:"show_add_text_modal"`
	ShowAddLinkModal  bool   `json:"show_add_link_modal"`
	ShowSettingsModal bool   `json:"show_settings_modal"`
	CurrentPage       string `json:"current_page"`

	// Forms.
	NewTextTitle      string `json:"new_text_title"`
	NewTextContent    string `json:"new_text_content"`
	NewLinkURL        string `json:"new_link_url"`
	SettingsServerURL string `json:"settings_server_url"`
	GeminiAPIKey      string `json:"gemini_api_key"`

	// Podcast wizard.
	ShowCreatePodcastModal bool               `json:"show_create_podcast_modal"`
	PodcastCreationStep    int                `json:"podcast_creation_step"`
	PodcastStyle           string             `json:"podcast_style"`
	PodcastSourceText      string             `json:"podcast_source_text"`
	PodcastGenerating      bool               `json:"podcast_generating"`
	PodcastProgress        string             `json:"podcast_progress"`
	GeneratedScript        string             `json:"generated_script"`
	Speaker1Voice          string             `json:"speaker_1_voice"`
	Speaker2Voice          string             `json:"speaker_2_voice"`
	Podcasts               []core.PodcastItem `json:"podcasts"`
	CurrentPodcastID       string             `json:"current_podcast_id"`
}

// Snapshot is a deep copy of State handed to readers outside the controller lock.
type Snapshot = State

// NewState returns the state of a freshly started application.
func NewState() State {
	return State{
		Items:               []core.LibraryItem{},
		CurrentText:         defaultDisplayText,
		ServerURL:           DefaultServerURL,
		ConnectionStatus:    StatusConnecting,
		Voices:              append([]string(nil), DefaultVoices...),
		PlaybackSpeed:       DefaultPlaybackSpeed,
		ViewMode:            ViewGrid,
		CurrentPage:         PageLibrary,
		PodcastCreationStep: firstPodcastStep,
		PodcastStyle:        core.StyleLecture,
		Podcasts:            []core.PodcastItem{},
	}
}

// Clone returns a copy that shares no slices with s.
func (s *State) Clone() State {
	out := *s
	out.Items = append([]core.LibraryItem{}, s.Items...)
	out.Voices = append([]string{}, s.Voices...)

	out.Podcasts = make([]core.PodcastItem, len(s.Podcasts))
	for i, podcast := range s.Podcasts {
		podcast.Speakers = append([]core.Speaker{}, podcast.Speakers...)
		out.Podcasts[i] = podcast
	}

	return out
}

// CurrentItem returns the selected library item, if any.
func (s *State) CurrentItem() (core.LibraryItem, bool) {
	idx := s.itemIndex(s.CurrentItemID)
	if idx < 0 {
		return core.LibraryItem{}, false
	}

	return s.Items[idx], true
}

// CurrentPodcast returns the selected podcast, if any.
func (s *State) CurrentPodcast() (core.PodcastItem, bool) {
	idx := s.podcastIndex(s.CurrentPodcastID)
	if idx < 0 {
		return core.PodcastItem{}, false
	}

	return s.Podcasts[idx], true
}

// Preview shortens content for card views.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewRunes {
		return content
	}

	return string(runes[:previewRunes]) + "..."
}

// ValidSpeed reports whether speed is one of the selectable playback speeds.
func ValidSpeed(speed float64) bool {
	for _, allowed := range allowedSpeeds {
		if speed == allowed {
			return true
		}
	}

	return false
}

func (s *State) itemIndex(id string) int {
	if id == "" {
		return -1
	}

	for i := range s.Items {
		if s.Items[i].ID == id {
			return i
		}
	}

	return -1
}

func (s *State) podcastIndex(id string) int {
	if id == "" {
		return -1
	}

	for i := range s.Podcasts {
		if s.Podcasts[i].ID == id {
			return i
		}
	}

	return -1
}
