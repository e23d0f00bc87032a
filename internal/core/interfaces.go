// Package core defines the domain records and the collaborator interfaces of the VibeVoice controller.
package core

import "context"

// VoiceConfig is the voice catalogue advertised by a TTS server.
type VoiceConfig struct {
	Voices       []string `json:"voices"`
	DefaultVoice string   `json:"default_voice"`
}

// ConnectionChecker discovers the voices a TTS server offers.
type ConnectionChecker interface {
	FetchConfig(ctx context.Context, serverURL string) (VoiceConfig, error)
}

// ScriptRequest holds everything needed to turn source text into a dialogue script.
type ScriptRequest struct {
	APIKey     string
	SourceText string
}

// ScriptGenerator turns source text into a two-speaker dialogue script.
type ScriptGenerator interface {
	GenerateScript(ctx context.Context, req ScriptRequest) (string, error)
}

// PlaybackCommandKind names the instruction sent to a playback driver.
type PlaybackCommandKind string

// Playback command kinds.
const (
	PlaybackPlay     PlaybackCommandKind = "play"
	PlaybackStop     PlaybackCommandKind = "stop"
	PlaybackSetSpeed PlaybackCommandKind = "speed"
)

// PlaybackCommand is emitted by the controller whenever playback state changes.
type PlaybackCommand struct {
	Kind   PlaybackCommandKind `json:"kind"`
	Text   string              `json:"text,omitempty"`
	Server string              `json:"server,omitempty"`
	Voice  string              `json:"voice,omitempty"`
	Speed  float64             `json:"speed,omitempty"`
}

// PlaybackDriver receives playback commands. Implementations report natural
// completion back through the controller's PlaybackEnded transition.
type PlaybackDriver interface {
	Dispatch(ctx context.Context, cmd PlaybackCommand) error
}

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}
