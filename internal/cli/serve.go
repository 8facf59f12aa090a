package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vidgo/vidsub/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve subtitle tracks of backend videos over HTTP",
	Long: `Start a local HTTP server that builds subtitle tracks on request.

Routes:
  GET /videos/{id}/subtitles.vtt?mode=&lang=&trans=
  GET /videos/{id}/subtitles.srt?lang=
  GET /videos/{id}/cues?lang=&trans=
  GET /healthz

Examples:
  vidsub serve
  vidsub serve --addr 0.0.0.0:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().
		String("addr", "", "Listen address (default from config server.address/server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Server.Addr()
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	c := openCache()
	defer closeCache(c)

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithLanguages(cfg.Languages.Primary, cfg.Languages.Translation),
	}
	if c != nil {
		opts = append(opts, server.WithCache(c))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infow("Starting server", "addr", addr, "backend", cfg.Backend.URL)
	return server.New(client, opts...).ListenAndServe(ctx, addr)
}
