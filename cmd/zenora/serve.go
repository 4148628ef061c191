package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/zenora/backend/internal/config"
	"github.com/zhouzirui/zenora/backend/internal/handler"
	"github.com/zhouzirui/zenora/backend/internal/logging"
	"github.com/zhouzirui/zenora/backend/internal/model/companion"
	"github.com/zhouzirui/zenora/backend/internal/service/ai"
	"github.com/zhouzirui/zenora/backend/internal/service/chat"
	"github.com/zhouzirui/zenora/backend/internal/service/emotion"
	"github.com/zhouzirui/zenora/backend/internal/service/exercise"
	"github.com/zhouzirui/zenora/backend/internal/service/mood"
	"github.com/zhouzirui/zenora/backend/internal/service/voice"
	"github.com/zhouzirui/zenora/backend/internal/store/db"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logging.Component("serve")

	st, err := db.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	log.WithField("driver", cfg.Store.Driver).Info("store ready")

	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		return fmt.Errorf("init chat model: %w", err)
	}
	classifierModel, err := cfg.AI.NewClassifierModel(ctx)
	if err != nil {
		return fmt.Errorf("init classifier model: %w", err)
	}

	classifier, err := emotion.NewService(classifierModel, emotion.Config{Timeout: cfg.AI.Timeout})
	if err != nil {
		return err
	}
	generator, err := ai.NewService(chatModel, ai.Config{
		HistoryLimit: cfg.AI.HistoryLimit,
		Timeout:      cfg.AI.Timeout,
		Stream:       cfg.AI.StreamResponse,
	})
	if err != nil {
		return err
	}

	sink := mood.NewSink(st, mood.Config{
		Threshold:    cfg.Store.MoodThreshold,
		WriteTimeout: cfg.Store.WriteTimeout,
	})
	profile := companion.Default()

	voiceSvc, err := newVoiceService(ctx, cfg.Voice, profile)
	if err != nil {
		// Voice is optional; the endpoint answers 503 without it.
		log.WithError(err).Warn("text-to-speech disabled")
	}

	router := handler.NewRouter(handler.Dependencies{
		Chat:      chat.NewService(classifier, generator, sink, profile),
		Streaming: generator.StreamingEnabled(),
		Exercise:  exercise.NewService(st),
		Voice:     voiceSvc,
		Logger:    logrus.StandardLogger(),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.WithFields(logrus.Fields{
		"addr":     cfg.Server.Addr,
		"provider": cfg.AI.Provider,
		"model":    cfg.AI.Model,
		"voice":    voiceSvc.Enabled(),
	}).Info("zenora listening")

	serveErr := runServer(ctx, srv)

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sink.Close(drainCtx); err != nil {
		log.WithError(err).Warn("mood writes still pending at shutdown")
	}
	return serveErr
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// newVoiceService always returns a usable service; it is disabled when the
// provider cannot be built.
func newVoiceService(ctx context.Context, cfg config.VoiceConfig, profile companion.Profile) (*voice.Service, error) {
	defaults := voice.Defaults{
		Voice:        cfg.Voice,
		Language:     cfg.Language,
		SpeakingRate: cfg.SpeakingRate,
		Timeout:      cfg.Timeout,
	}
	if defaults.Voice == "" && cfg.Provider == "google" {
		defaults.Voice = profile.VoiceID
	}

	if !cfg.Enabled() {
		return voice.NewService(nil, defaults), fmt.Errorf("no credentials for provider %q", cfg.Provider)
	}

	var (
		synth voice.Synthesizer
		err   error
	)
	switch cfg.Provider {
	case "volcengine":
		synth, err = voice.NewVolcengineSynthesizer(voice.VolcengineConfig{
			AppID:       cfg.VolcAppID,
			AccessToken: cfg.VolcAccessToken,
			ResourceID:  cfg.VolcResourceID,
		})
	default:
		synth, err = voice.NewGoogleSynthesizer(ctx, cfg.GoogleCredentials)
	}
	if err != nil {
		return voice.NewService(nil, defaults), err
	}
	return voice.NewService(synth, defaults), nil
}
