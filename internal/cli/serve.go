package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/geoagent/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the agent over HTTP",
	Long: `Serve exposes the agent and its stores over HTTP:

  POST /api/agent    run the agent, streaming events as server-sent events
  GET  /api/briefs   list briefs, or ?id=<id>[&format=md|html] for one
  GET  /api/graph    nodes and edges of the knowledge graph

Example:
  geoagent serve --addr :8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		logger := newLogger(os.Stderr, cfg.Log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.close(context.Background())

		srv := server.New(a.agent, a.briefs, a.graph, logger.With("component", "server"))
		return server.Serve(ctx, cfg.Server.Addr, srv)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}
