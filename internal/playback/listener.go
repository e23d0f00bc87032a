package playback

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"
)

const handleMessageTimeout = 5 * time.Second

// EndedHandler receives completion reports from the driver.
type EndedHandler interface {
	PlaybackEnded()
}

// TextReleaser frees stored playback text once it has been spoken. Release
// reports whether key belonged to the current playback.
type TextReleaser interface {
	Release(ctx context.Context, key string) bool
}

// EndedListener subscribes to the ended subject and forwards each report to
// the controller.
type EndedListener struct {
	natsConnection *nats.Conn
	subject        string
	handler        EndedHandler
	releaser       TextReleaser
	log            *logger.Logger
}

// NewEndedListener creates a listener. releaser may be nil.
func NewEndedListener(
	natsConnection *nats.Conn,
	subject string,
	handler EndedHandler,
	releaser TextReleaser,
	log *logger.Logger,
) (*EndedListener, error) {
	if subject == "" {
		return nil, ErrSubjectEmpty
	}

	return &EndedListener{
		natsConnection: natsConnection,
		subject:        subject,
		handler:        handler,
		releaser:       releaser,
		log:            log,
	}, nil
}

// Run listens until ctx is cancelled, then drains the subscription.
func (l *EndedListener) Run(ctx context.Context) error {
	sub, err := l.natsConnection.Subscribe(l.subject, l.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", l.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (l *EndedListener) handleMessage(msg *nats.Msg) {
	var event EndedEvent

	// An empty body is a bare completion signal.
	if len(msg.Data) > 0 {
		err := json.Unmarshal(msg.Data, &event)
		if err != nil {
			if l.log != nil {
				l.log.Error("Failed to unmarshal playback ended event: %v", err)
			}

			return
		}
	}

	if l.releaser != nil && event.TextKey != "" {
		ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
		defer cancel()

		// A report for text that was already stopped or replaced is stale.
		if !l.releaser.Release(ctx, event.TextKey) {
			if l.log != nil {
				l.log.Info("Ignoring ended event for stale playback text %s", event.TextKey)
			}

			return
		}
	}

	l.handler.PlaybackEnded()
}
