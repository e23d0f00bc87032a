package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/book-expert/logger"
	"github.com/book-expert/vibevoice/internal/api"
	"github.com/book-expert/vibevoice/internal/app"
	"github.com/book-expert/vibevoice/internal/config"
	"github.com/book-expert/vibevoice/internal/core"
	"github.com/book-expert/vibevoice/internal/objectstore"
	"github.com/book-expert/vibevoice/internal/playback"
	"github.com/book-expert/vibevoice/internal/script"
	"github.com/book-expert/vibevoice/internal/speech"
	"github.com/book-expert/vibevoice/internal/tts"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the controller and its view API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, bind)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override the HTTP listen address")

	return cmd
}

func runServe(ctx context.Context, bindOverride string) error {
	cfg, log, err := bootstrap("vibevoice.log")
	if err != nil {
		return err
	}
	defer closeLogger(log)

	if bindOverride != "" {
		cfg.HTTP.Bind = bindOverride
	}

	generator, err := newScriptGenerator(cfg)
	if err != nil {
		log.Error("Failed to create script generator: %v", err)

		return err
	}

	initial := app.NewState()
	initial.ServerURL = cfg.TTSServer.URL

	opts := []app.Option{
		app.WithLogger(log),
		app.WithInitialState(initial),
		app.WithFallbackAPIKey(cfg.Gemini.APIKey),
		app.WithTimeouts(cfg.ConnectTimeout(), cfg.GeminiTimeout()),
	}

	var bridge *playbackBridge

	if cfg.NATS.URL != "" {
		bridge, err = connectPlayback(cfg, log)
		if err != nil {
			log.Error("Failed to set up playback bridge: %v", err)

			return err
		}
		defer bridge.close()

		opts = append(opts, app.WithPlaybackDriver(bridge.publisher))
	} else {
		log.Warn("nats.url is not set; playback commands are not forwarded")
	}

	controller := app.NewController(tts.NewHTTPClient(cfg.ConnectTimeout()), generator, opts...)

	listenerDone := make(chan error, 1)

	if bridge != nil {
		listener, listenerErr := playback.NewEndedListener(
			bridge.natsConnection, cfg.NATS.EndedSubject, controller, bridge.publisher, log,
		)
		if listenerErr != nil {
			return fmt.Errorf("failed to create playback listener: %w", listenerErr)
		}

		go func() {
			listenerDone <- listener.Run(ctx)
		}()
	} else {
		listenerDone <- nil
	}

	server := api.NewServer(controller, log)

	addr, err := server.Start(cfg.HTTP.Bind)
	if err != nil {
		log.Error("Failed to start API server: %v", err)

		return err
	}

	log.System("VibeVoice controller listening on http://%s (TTS server %s, script backend %s)",
		addr, cfg.TTSServer.URL, cfg.Gemini.Backend)

	go controller.Load(ctx)

	<-ctx.Done()

	log.Info("Shutting down.")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	shutdownErr := server.Shutdown(shutdownCtx)
	listenerErr := <-listenerDone

	return errors.Join(shutdownErr, listenerErr)
}

func newScriptGenerator(cfg *config.Config) (core.ScriptGenerator, error) {
	scriptCfg := script.Config{
		BaseURL:     cfg.Gemini.BaseURL,
		Model:       cfg.Gemini.Model,
		Timeout:     cfg.GeminiTimeout(),
		MinInterval: cfg.GeminiMinInterval(),
	}

	switch cfg.Gemini.Backend {
	case config.BackendREST:
		return script.NewClient(scriptCfg), nil
	case config.BackendSDK:
		return script.NewSDKGenerator(scriptCfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Gemini.Backend)
	}
}

type playbackBridge struct {
	natsConnection *nats.Conn
	publisher      *playback.Publisher
}

func connectPlayback(cfg *config.Config, log *logger.Logger) (*playbackBridge, error) {
	natsConnection, err := nats.Connect(cfg.NATS.URL, nats.Name("vibevoice"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		natsConnection.Close()

		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store, err := objectstore.New(jetstreamContext, objectstore.Config{Bucket: cfg.NATS.PlaybackTextBucket})
	if err != nil {
		natsConnection.Close()

		return nil, fmt.Errorf("failed to open playback text bucket: %w", err)
	}

	var publisherOpts []playback.PublisherOption
	if cfg.NATS.NormalizeText {
		publisherOpts = append(publisherOpts, playback.WithNormalizer(speech.NewNormalizer()))
	}

	publisher, err := playback.NewPublisher(natsConnection, cfg.NATS.CommandSubject, store, log, publisherOpts...)
	if err != nil {
		natsConnection.Close()

		return nil, fmt.Errorf("failed to create playback publisher: %w", err)
	}

	log.Info("Forwarding playback commands to %s on %s", cfg.NATS.CommandSubject, cfg.NATS.URL)

	return &playbackBridge{natsConnection: natsConnection, publisher: publisher}, nil
}

func (b *playbackBridge) close() {
	err := b.natsConnection.Drain()
	if err != nil {
		b.natsConnection.Close()
	}
}
