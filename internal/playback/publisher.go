package playback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/vibevoice/internal/core"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// ErrSubjectEmpty is returned when no subject is configured.
var ErrSubjectEmpty = errors.New("subject cannot be empty")

// TextNormalizer rewrites text before it is stored for the driver.
type TextNormalizer interface {
	Normalize(text string) string
}

// PublisherOption customizes a Publisher.
type PublisherOption func(*Publisher)

// WithNormalizer cleans play command text before upload.
func WithNormalizer(normalizer TextNormalizer) PublisherOption {
	return func(p *Publisher) {
		p.normalizer = normalizer
	}
}

// Publisher is a core.PlaybackDriver that publishes commands to NATS.
type Publisher struct {
	natsConnection *nats.Conn
	subject        string
	store          core.ObjectStore
	log            *logger.Logger
	normalizer     TextNormalizer
	sessionID      string

	mu      sync.Mutex
	lastKey string
}

var _ core.PlaybackDriver = (*Publisher)(nil)

// NewPublisher creates a publisher for the given command subject. All events
// it emits share one workflow id for the lifetime of the process.
func NewPublisher(
	natsConnection *nats.Conn,
	subject string,
	store core.ObjectStore,
	log *logger.Logger,
	opts ...PublisherOption,
) (*Publisher, error) {
	if subject == "" {
		return nil, ErrSubjectEmpty
	}

	publisher := &Publisher{
		natsConnection: natsConnection,
		subject:        subject,
		store:          store,
		log:            log,
		sessionID:      uuid.NewString(),
	}
	for _, opt := range opts {
		opt(publisher)
	}

	return publisher, nil
}

// Dispatch uploads the text of play commands and publishes the command.
func (p *Publisher) Dispatch(ctx context.Context, cmd core.PlaybackCommand) error {
	event := CommandEvent{
		Header: events.EventHeader{
			Timestamp:  time.Now(),
			WorkflowID: p.sessionID,
			EventID:    uuid.NewString(),
		},
		Kind:   cmd.Kind,
		Server: cmd.Server,
		Voice:  cmd.Voice,
		Speed:  cmd.Speed,
	}

	switch cmd.Kind {
	case core.PlaybackPlay:
		key := uuid.NewString()

		text := cmd.Text
		if p.normalizer != nil {
			text = p.normalizer.Normalize(text)
		}

		err := p.store.Upload(ctx, key, []byte(text))
		if err != nil {
			return fmt.Errorf("failed to upload playback text: %w", err)
		}

		event.TextKey = key
		p.swapLastKey(ctx, key)
	case core.PlaybackStop:
		p.swapLastKey(ctx, "")
	case core.PlaybackSetSpeed:
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal playback command: %w", err)
	}

	err = p.natsConnection.Publish(p.subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish playback command to %s: %w", p.subject, err)
	}

	return nil
}

// swapLastKey records key as the current text and removes the previous one.
func (p *Publisher) swapLastKey(ctx context.Context, key string) {
	p.mu.Lock()
	previous := p.lastKey
	p.lastKey = key
	p.mu.Unlock()

	if previous == "" {
		return
	}

	err := p.store.Delete(ctx, previous)
	if err != nil && p.log != nil {
		p.log.Warn("Failed to delete stale playback text %s: %v", previous, err)
	}
}

// Release deletes the stored text for key once the driver is done with it and
// reports whether key was current. Keys that are no longer current were
// already removed by a later command.
func (p *Publisher) Release(ctx context.Context, key string) bool {
	p.mu.Lock()
	current := key != "" && p.lastKey == key
	if current {
		p.lastKey = ""
	}
	p.mu.Unlock()

	if !current {
		return false
	}

	err := p.store.Delete(ctx, key)
	if err != nil && p.log != nil {
		p.log.Warn("Failed to delete finished playback text %s: %v", key, err)
	}

	return true
}
