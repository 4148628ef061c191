package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/zenora/backend/internal/logging"
	"github.com/zhouzirui/zenora/backend/internal/model/companion"
	"github.com/zhouzirui/zenora/backend/internal/service/voice"
)

func newSpeakCmd() *cobra.Command {
	var (
		out     string
		voiceID string
		lang    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "speak <text>",
		Short: "Synthesize text with the configured TTS provider and write an mp3",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			svc, err := newVoiceService(cmd.Context(), cfg.Voice, companion.Default())
			if err != nil {
				return fmt.Errorf("text-to-speech unavailable: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			start := time.Now()
			audio, err := svc.Synthesize(ctx, voice.Request{
				Text:     strings.Join(args, " "),
				Voice:    voiceID,
				Language: lang,
			})
			if err != nil {
				return err
			}

			if out == "" {
				out = fmt.Sprintf("zenora-%d.%s", time.Now().Unix(), audio.Format)
			}
			if err := os.WriteFile(out, audio.Content, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			logging.Component("speak").WithField("request_id", audio.RequestID).Debug("synthesis finished")
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s in %s\n", len(audio.Content), out, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default zenora-<unix>.mp3)")
	cmd.Flags().StringVar(&voiceID, "voice", "", "voice name, defaults to TTS_VOICE")
	cmd.Flags().StringVar(&lang, "lang", "", "language code, defaults to TTS_LANGUAGE")
	cmd.Flags().DurationVar(&timeout, "timeout", 45*time.Second, "request timeout")
	return cmd
}
