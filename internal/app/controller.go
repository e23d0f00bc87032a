// Package app holds the VibeVoice application state machine.
//
// A single Controller owns the State. Every transition runs under the
// controller lock and completes before the next one starts. The two
// transitions that wait on the network (connection check and script
// generation) release the lock for the duration of the call and re-acquire it
// to apply the result, so overlapping calls resolve last-write-wins.
//
// After each transition the controller hands subscribers a deep-copied
// Snapshot and forwards any playback commands it produced to the
// PlaybackDriver. Both happen outside the lock and in transition order.
// Subscribers therefore always end on the latest state. A play command the
// driver rejects returns the controller to idle.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/vibevoice/internal/core"
)

// Timeouts for the blocking collaborators.
const (
	DefaultConnectTimeout  = 5 * time.Second
	DefaultGenerateTimeout = 60 * time.Second
	dispatchTimeout        = 5 * time.Second
)

// Log messages.
const (
	logFmtDispatchFailed   = "Failed to dispatch %s playback command: %v"
	logFmtConnectionFailed = "Connection check against %s failed: %v"
	logFmtConnected        = "Connected to TTS server %s (%d voices)"
	logFmtGenerateFailed   = "Script generation failed: %v"
	logFmtScriptGenerated  = "Generated podcast script (%d bytes)"
	logFmtPodcastCreated   = "Created podcast %s"
	logFmtSubscriberPanic  = "Snapshot subscriber panicked: %v"
)

var (
	errNoChecker   = errors.New("no connection checker configured")
	errNoGenerator = errors.New("no script generator configured")
)

// Validation errors returned by the transitions that take free-form input.
var (
	ErrInvalidSpeed   = errors.New("playback speed must be one of 0.5, 0.75, 1, 1.25, 1.5, 2")
	ErrUnknownPage    = errors.New("unknown page")
	ErrUnknownStyle   = errors.New("unknown podcast style")
	ErrUnknownSpeaker = errors.New("speaker must be 1 or 2")
)

// Controller owns the application state and serializes every transition.
type Controller struct {
	mu        sync.Mutex
	state     State
	pending   []pendingCommand
	draining  bool
	snapshots []Snapshot
	notifying bool
	// playSeq numbers play commands so a late dispatch failure only
	// affects the playback it started.
	playSeq uint64

	checker   core.ConnectionChecker
	generator core.ScriptGenerator
	driver    core.PlaybackDriver
	log       *logger.Logger
	now       func() time.Time

	fallbackAPIKey  string
	connectTimeout  time.Duration
	generateTimeout time.Duration

	subMu       sync.Mutex
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

type pendingCommand struct {
	cmd     core.PlaybackCommand
	playSeq uint64
}

// Option customizes a Controller.
type Option func(*Controller)

// WithPlaybackDriver sets the receiver of playback commands.
func WithPlaybackDriver(driver core.PlaybackDriver) Option {
	return func(c *Controller) {
		if driver != nil {
			c.driver = driver
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// WithClock overrides the time source used for titles and timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithFallbackAPIKey sets the key used when the user has not entered one.
func WithFallbackAPIKey(key string) Option {
	return func(c *Controller) {
		c.fallbackAPIKey = key
	}
}

// WithTimeouts overrides the connection check and script generation timeouts.
// Non-positive values keep the defaults.
func WithTimeouts(connect, generate time.Duration) Option {
	return func(c *Controller) {
		if connect > 0 {
			c.connectTimeout = connect
		}

		if generate > 0 {
			c.generateTimeout = generate
		}
	}
}

// WithInitialState replaces the fresh state. Mostly useful in tests.
func WithInitialState(state State) Option {
	return func(c *Controller) {
		c.state = state.Clone()
	}
}

// NewController creates a controller in the initial application state. A nil
// checker reports every server offline and a nil generator fails every
// generate request.
func NewController(checker core.ConnectionChecker, generator core.ScriptGenerator, opts ...Option) *Controller {
	if checker == nil {
		checker = missingChecker{}
	}

	if generator == nil {
		generator = missingGenerator{}
	}

	controller := &Controller{
		state:           NewState(),
		checker:         checker,
		generator:       generator,
		driver:          noopDriver{},
		now:             time.Now,
		connectTimeout:  DefaultConnectTimeout,
		generateTimeout: DefaultGenerateTimeout,
		subscribers:     make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(controller)
	}

	return controller
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state.Clone()
}

// Subscribe registers fn to receive a snapshot after every transition. The
// returned function removes the subscription.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()

		delete(c.subscribers, id)
	}
}

// update applies fn under the state lock, then publishes the resulting
// snapshot and flushes the playback commands it produced.
func (c *Controller) update(fn func(s *State) []core.PlaybackCommand) {
	c.mu.Lock()

	for _, cmd := range fn(&c.state) {
		queued := pendingCommand{cmd: cmd}
		if cmd.Kind == core.PlaybackPlay {
			c.playSeq++
			queued.playSeq = c.playSeq
		}

		c.pending = append(c.pending, queued)
	}

	drain := false
	if !c.draining && len(c.pending) > 0 {
		c.draining = true
		drain = true
	}

	c.snapshots = append(c.snapshots, c.state.Clone())
	c.mu.Unlock()

	c.publish()

	if drain {
		c.drain()
	}
}

// publish delivers queued snapshots in the order they were taken. Only one
// goroutine delivers at a time; others leave their snapshot in the queue.
func (c *Controller) publish() {
	c.mu.Lock()
	if c.notifying {
		c.mu.Unlock()

		return
	}

	c.notifying = true

	for len(c.snapshots) > 0 {
		snapshot := c.snapshots[0]
		c.snapshots = c.snapshots[1:]
		c.mu.Unlock()

		c.notify(snapshot)

		c.mu.Lock()
	}

	c.notifying = false
	c.mu.Unlock()
}

// drain sends queued commands one at a time without holding the state lock,
// so a driver may report PlaybackEnded from inside Dispatch.
func (c *Controller) drain() {
	for {
		c.mu.Lock()
		if len(c.pending) == 0 {
			c.draining = false
			c.mu.Unlock()

			return
		}

		next := c.pending[0]
		c.pending = c.pending[1:]
		c.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		err := c.driver.Dispatch(ctx, next.cmd)

		cancel()

		if err == nil {
			continue
		}

		c.logWarn(logFmtDispatchFailed, next.cmd.Kind, err)

		if next.cmd.Kind == core.PlaybackPlay {
			c.playbackFailed(next.playSeq)
		}
	}
}

// playbackFailed returns to idle if the failed play command is still the
// latest one and nothing has stopped it since.
func (c *Controller) playbackFailed(playSeq uint64) {
	c.update(func(s *State) []core.PlaybackCommand {
		if playSeq != c.playSeq || !s.IsPlaying {
			return nil
		}

		s.IsPlaying = false
		s.AudioTextToPlay = ""
		s.PlaybackStatus = PlaybackFailed

		return nil
	})
}

func (c *Controller) notify(snapshot Snapshot) {
	c.subMu.Lock()
	subscribers := make([]func(Snapshot), 0, len(c.subscribers))

	for _, fn := range c.subscribers {
		subscribers = append(subscribers, fn)
	}
	c.subMu.Unlock()

	for _, fn := range subscribers {
		c.deliver(fn, snapshot.Clone())
	}
}

func (c *Controller) deliver(fn func(Snapshot), snapshot Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			c.logError(logFmtSubscriberPanic, r)
		}
	}()

	fn(snapshot)
}

func (c *Controller) logInfo(format string, args ...any) {
	if c.log != nil {
		c.log.Info(format, args...)
	}
}

func (c *Controller) logWarn(format string, args ...any) {
	if c.log != nil {
		c.log.Warn(format, args...)
	}
}

func (c *Controller) logError(format string, args ...any) {
	if c.log != nil {
		c.log.Error(format, args...)
	}
}

type noopDriver struct{}

func (noopDriver) Dispatch(context.Context, core.PlaybackCommand) error { return nil }

type missingChecker struct{}

func (missingChecker) FetchConfig(context.Context, string) (core.VoiceConfig, error) {
	return core.VoiceConfig{}, errNoChecker
}

type missingGenerator struct{}

func (missingGenerator) GenerateScript(context.Context, core.ScriptRequest) (string, error) {
	return "", errNoGenerator
}
