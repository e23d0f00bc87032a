// Package playback bridges the controller and an out-of-process audio driver
// over NATS.
//
// Commands flow out on the command subject as CommandEvent messages. Text to
// be spoken can exceed the NATS payload limit, so it is written to the
// object store first and the command carries only its key. The driver
// reports natural completion by publishing an EndedEvent on the ended
// subject.
package playback

import (
	"github.com/book-expert/events"
	"github.com/book-expert/vibevoice/internal/core"
)

// CommandEvent is published for every playback command.
type CommandEvent struct {
	Header  events.EventHeader       `json:"header"`
	Kind    core.PlaybackCommandKind `json:"kind"`
	TextKey string                   `json:"text_key,omitempty"`
	Server  string                   `json:"server,omitempty"`
	Voice   string                   `json:"voice,omitempty"`
	Speed   float64                  `json:"speed,omitempty"`
}

// EndedEvent is published by the driver once audio for TextKey has finished.
type EndedEvent struct {
	Header  events.EventHeader `json:"header"`
	TextKey string             `json:"text_key,omitempty"`
}
