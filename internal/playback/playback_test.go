// Package playback_test tests the NATS playback bridge.
package playback_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/vibevoice/internal/app"
	"github.com/book-expert/vibevoice/internal/core"
	"github.com/book-expert/vibevoice/internal/objectstore"
	"github.com/book-expert/vibevoice/internal/playback"
	"github.com/book-expert/vibevoice/internal/speech"
	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	commandSubject = "test.playback.command"
	endedSubject   = "test.playback.ended"
	receiveTimeout = 5 * time.Second
)

type harness struct {
	natsConnection *nats.Conn
	store          *objectstore.NatsObjectStore
	publisher      *playback.Publisher
	commands       *nats.Subscription
}

func createTestNatsClient(t *testing.T) *nats.Conn {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1 // Use a random port
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	server := test.RunServer(&opts)

	natsConnection, err := nats.Connect(server.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	t.Cleanup(func() {
		natsConnection.Close()
		server.Shutdown()
	})

	return natsConnection
}

func setupTest(t *testing.T) *harness {
	t.Helper()

	natsConnection := createTestNatsClient(t)

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	store, err := objectstore.New(jetstreamContext, objectstore.Config{Bucket: "TEST_PLAYBACK_TEXT"})
	require.NoError(t, err)

	publisher, err := playback.NewPublisher(natsConnection, commandSubject, store, nil)
	require.NoError(t, err)

	commands, err := natsConnection.SubscribeSync(commandSubject)
	require.NoError(t, err)
	require.NoError(t, natsConnection.Flush())

	return &harness{
		natsConnection: natsConnection,
		store:          store,
		publisher:      publisher,
		commands:       commands,
	}
}

func (h *harness) nextCommand(t *testing.T) playback.CommandEvent {
	t.Helper()

	msg, err := h.commands.NextMsg(receiveTimeout)
	require.NoError(t, err)

	var event playback.CommandEvent
	require.NoError(t, json.Unmarshal(msg.Data, &event))

	return event
}

func TestPublisher_PlayUploadsTextAndPublishesKey(t *testing.T) {
	t.Parallel()

	h := setupTest(t)
	ctx := context.Background()

	err := h.publisher.Dispatch(ctx, core.PlaybackCommand{
		Kind:   core.PlaybackPlay,
		Text:   "Hello from VibeVoice",
		Server: "http://localhost:3000",
		Voice:  "en-Emma_woman",
		Speed:  1.25,
	})
	require.NoError(t, err)

	event := h.nextCommand(t)
	assert.Equal(t, core.PlaybackPlay, event.Kind)
	assert.Equal(t, "http://localhost:3000", event.Server)
	assert.Equal(t, "en-Emma_woman", event.Voice)
	assert.InDelta(t, 1.25, event.Speed, 0)
	assert.NotEmpty(t, event.Header.WorkflowID)
	assert.NotEmpty(t, event.Header.EventID)
	require.NotEmpty(t, event.TextKey)

	text, err := h.store.Download(ctx, event.TextKey)
	require.NoError(t, err)
	assert.Equal(t, "Hello from VibeVoice", string(text))
}

func TestPublisher_StopRemovesText(t *testing.T) {
	t.Parallel()

	h := setupTest(t)
	ctx := context.Background()

	require.NoError(t, h.publisher.Dispatch(ctx, core.PlaybackCommand{Kind: core.PlaybackPlay, Text: "words"}))
	play := h.nextCommand(t)

	require.NoError(t, h.publisher.Dispatch(ctx, core.PlaybackCommand{Kind: core.PlaybackStop}))
	stop := h.nextCommand(t)

	assert.Equal(t, core.PlaybackStop, stop.Kind)
	assert.Empty(t, stop.TextKey)
	assert.Equal(t, play.Header.WorkflowID, stop.Header.WorkflowID)
	assert.NotEqual(t, play.Header.EventID, stop.Header.EventID)

	_, err := h.store.Download(ctx, play.TextKey)
	require.Error(t, err)
}

func TestPublisher_SetSpeedCarriesNoText(t *testing.T) {
	t.Parallel()

	h := setupTest(t)

	require.NoError(t, h.publisher.Dispatch(context.Background(), core.PlaybackCommand{
		Kind:  core.PlaybackSetSpeed,
		Speed: 2,
	}))

	event := h.nextCommand(t)
	assert.Equal(t, core.PlaybackSetSpeed, event.Kind)
	assert.InDelta(t, 2.0, event.Speed, 0)
	assert.Empty(t, event.TextKey)
}

func TestNewPublisher_RequiresSubject(t *testing.T) {
	t.Parallel()

	_, err := playback.NewPublisher(nil, "", nil, nil)
	require.ErrorIs(t, err, playback.ErrSubjectEmpty)

	_, err = playback.NewEndedListener(nil, "", nil, nil, nil)
	require.ErrorIs(t, err, playback.ErrSubjectEmpty)
}

type endedRecorder struct {
	ended chan struct{}
}

func (r *endedRecorder) PlaybackEnded() {
	r.ended <- struct{}{}
}

func startListener(t *testing.T, h *harness, handler playback.EndedHandler) (context.CancelFunc, <-chan error) {
	t.Helper()

	listener, err := playback.NewEndedListener(h.natsConnection, endedSubject, handler, h.publisher, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)

	go func() {
		errChan <- listener.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return h.natsConnection.NumSubscriptions() >= 2
	}, receiveTimeout, 10*time.Millisecond)
	require.NoError(t, h.natsConnection.Flush())

	return cancel, errChan
}

func TestEndedListener_ForwardsAndReleasesText(t *testing.T) {
	t.Parallel()

	h := setupTest(t)
	ctx := context.Background()
	recorder := &endedRecorder{ended: make(chan struct{}, 4)}

	cancel, errChan := startListener(t, h, recorder)
	defer cancel()

	require.NoError(t, h.publisher.Dispatch(ctx, core.PlaybackCommand{Kind: core.PlaybackPlay, Text: "spoken"}))
	play := h.nextCommand(t)

	endedEvent := playback.EndedEvent{
		Header: events.EventHeader{
			Timestamp:  time.Now(),
			WorkflowID: play.Header.WorkflowID,
			EventID:    uuid.NewString(),
		},
		TextKey: play.TextKey,
	}
	data, err := json.Marshal(endedEvent)
	require.NoError(t, err)
	require.NoError(t, h.natsConnection.Publish(endedSubject, data))

	select {
	case <-recorder.ended:
	case <-time.After(receiveTimeout):
		t.Fatal("ended event was not forwarded")
	}

	assert.Eventually(t, func() bool {
		_, downloadErr := h.store.Download(ctx, play.TextKey)

		return downloadErr != nil
	}, receiveTimeout, 20*time.Millisecond)

	cancel()

	shutdownErr := <-errChan
	assert.NoError(t, shutdownErr, "listener.Run should not error on graceful shutdown")
}

func TestEndedListener_IgnoresMalformedEvents(t *testing.T) {
	t.Parallel()

	h := setupTest(t)
	recorder := &endedRecorder{ended: make(chan struct{}, 4)}

	cancel, _ := startListener(t, h, recorder)
	defer cancel()

	require.NoError(t, h.natsConnection.Publish(endedSubject, []byte("{not json")))
	require.NoError(t, h.natsConnection.Publish(endedSubject, nil))

	select {
	case <-recorder.ended:
	case <-time.After(receiveTimeout):
		t.Fatal("bare ended signal was not forwarded")
	}

	assert.Empty(t, recorder.ended, "malformed event must not be forwarded")
}

func TestEndedListener_IgnoresStaleText(t *testing.T) {
	t.Parallel()

	h := setupTest(t)
	ctx := context.Background()
	recorder := &endedRecorder{ended: make(chan struct{}, 4)}

	cancel, _ := startListener(t, h, recorder)
	defer cancel()

	require.NoError(t, h.publisher.Dispatch(ctx, core.PlaybackCommand{Kind: core.PlaybackPlay, Text: "first"}))
	first := h.nextCommand(t)
	require.NoError(t, h.publisher.Dispatch(ctx, core.PlaybackCommand{Kind: core.PlaybackStop}))
	h.nextCommand(t)

	data, err := json.Marshal(playback.EndedEvent{TextKey: first.TextKey})
	require.NoError(t, err)
	require.NoError(t, h.natsConnection.Publish(endedSubject, data))
	require.NoError(t, h.natsConnection.Publish(endedSubject, nil))

	select {
	case <-recorder.ended:
	case <-time.After(receiveTimeout):
		t.Fatal("bare ended signal was not forwarded")
	}

	assert.Empty(t, recorder.ended, "stale ended event must not be forwarded")
	assert.False(t, h.publisher.Release(ctx, first.TextKey))
}

// mockChecker reports a reachable TTS server.
type mockChecker struct{}

func (mockChecker) FetchConfig(context.Context, string) (core.VoiceConfig, error) {
	return core.VoiceConfig{Voices: []string{"en-Carter_man"}, DefaultVoice: "en-Carter_man"}, nil
}

type unusedGenerator struct{}

func (unusedGenerator) GenerateScript(context.Context, core.ScriptRequest) (string, error) {
	return "", nil
}

func TestControllerRoundTrip(t *testing.T) {
	t.Parallel()

	h := setupTest(t)
	controller := app.NewController(mockChecker{}, unusedGenerator{}, app.WithPlaybackDriver(h.publisher))

	cancel, _ := startListener(t, h, controller)
	defer cancel()

	controller.Load(context.Background())
	controller.SelectItem(controller.Snapshot().Items[0].ID)
	controller.TogglePlayback()
	require.True(t, controller.Snapshot().IsPlaying)

	play := h.nextCommand(t)
	assert.Equal(t, core.PlaybackPlay, play.Kind)
	assert.Equal(t, "en-Carter_man", play.Voice)

	text, err := h.store.Download(context.Background(), play.TextKey)
	require.NoError(t, err)
	assert.Equal(t, controller.Snapshot().AudioTextToPlay, string(text))

	data, err := json.Marshal(playback.EndedEvent{TextKey: play.TextKey})
	require.NoError(t, err)
	require.NoError(t, h.natsConnection.Publish(endedSubject, data))

	assert.Eventually(t, func() bool {
		state := controller.Snapshot()

		return !state.IsPlaying && state.PlaybackStatus == app.PlaybackFinished
	}, receiveTimeout, 20*time.Millisecond)
}

func TestPublisher_NormalizesPlayText(t *testing.T) {
	t.Parallel()

	h := setupTest(t)
	ctx := context.Background()

	publisher, err := playback.NewPublisher(
		h.natsConnection, commandSubject, h.store, nil, playback.WithNormalizer(speech.NewNormalizer()),
	)
	require.NoError(t, err)

	err = publisher.Dispatch(ctx, core.PlaybackCommand{
		Kind:  core.PlaybackPlay,
		Text:  "Leaves store energy[1] as “sugar”…",
		Voice: "en-Carter_man",
		Speed: 1,
	})
	require.NoError(t, err)

	event := h.nextCommand(t)

	text, err := h.store.Download(ctx, event.TextKey)
	require.NoError(t, err)
	assert.Equal(t, `Leaves store energy as "sugar"...`, string(text))
}
