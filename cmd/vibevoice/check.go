package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/book-expert/vibevoice/internal/core"
	"github.com/book-expert/vibevoice/internal/tts"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

const checkTimeout = 5 * time.Second

func newCheckCommand() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe the TTS server and list its voices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if server == "" {
				cfg, log, err := bootstrap("vibevoice-check.log")
				if err != nil {
					return err
				}
				defer closeLogger(log)

				server = cfg.TTSServer.URL
			}

			return runCheck(cmd.Context(), cmd.OutOrStdout(), tts.NewHTTPClient(checkTimeout), server)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "TTS server URL (defaults to tts_server.url)")

	return cmd
}

type serverProber interface {
	core.ConnectionChecker
	HealthCheck(ctx context.Context, serverURL string) error
}

func runCheck(ctx context.Context, out io.Writer, prober serverProber, server string) error {
	healthErr := prober.HealthCheck(ctx, server)
	if healthErr != nil {
		fmt.Fprintf(out, "health: %v\n", healthErr)
	} else {
		fmt.Fprintln(out, "health: ok")
	}

	voiceConfig, err := prober.FetchConfig(ctx, server)
	if err != nil {
		return fmt.Errorf("fetch voice config from %s: %w", server, err)
	}

	fmt.Fprintf(out, "server: %s\n", server)
	fmt.Fprintf(out, "default voice: %s\n", voiceConfig.DefaultVoice)
	fmt.Fprintln(out, renderVoiceTable(voiceConfig))

	return nil
}

func renderVoiceTable(voiceConfig core.VoiceConfig) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Voice", "Default"})

	for i, voice := range voiceConfig.Voices {
		marker := ""
		if voice == voiceConfig.DefaultVoice {
			marker = "*"
		}

		tw.AppendRow(table.Row{i + 1, voice, marker})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignCenter, AlignHeader: text.AlignLeft},
	})
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d voices", len(voiceConfig.Voices)), ""})

	return tw.Render()
}
