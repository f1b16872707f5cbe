// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatmon-tui/internal/server"
)

func newServeCmd(app *App) *cobra.Command {
	var (
		addr       string
		delay      time.Duration
		failModels []string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local mock backend",
		Long: `Run a local backend that streams echo replies over Server-Sent Events
on the configured endpoint path. Point the client at it with
--api-host http://<addr>.`,
		Example: `  chatmon serve --addr 127.0.0.1:8080
  chatmon serve --delay 100ms --fail-model gpt-4.1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv := server.New(server.Options{
				Addr:       addr,
				Path:       app.cfg.API.Path,
				Catalog:    app.cfg.Catalog(),
				ChunkDelay: delay,
				FailModels: failModels,
				Logger:     app.logger.Named("server"),
			})

			ctx, stop := interruptContext(cmd.Context())
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			fmt.Fprintf(cmd.OutOrStdout(), "%s http://%s%s\n",
				TitleStyle.Render("Serving on"), srv.Addr(), app.cfg.API.Path)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return <-errCh
		},
	}
	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().DurationVar(&delay, "delay", server.DefaultChunkDelay, "pause between streamed words")
	cmd.Flags().StringSliceVar(&failModels, "fail-model", nil, "models that answer with 502")
	return cmd
}
