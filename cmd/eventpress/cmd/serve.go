package cmd

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nfrund/eventpress/internal/app"
	"github.com/nfrund/eventpress/internal/config"
	"github.com/nfrund/eventpress/internal/pubsub"
)

var (
	serveEnvFile  string
	serveAddr     string
	serveManifest string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a bus with the admin API",
	Long: `Run an eventpress bus until interrupted.

Configuration comes from an optional .env file and the environment
(EVENTPRESS_*, LOG_FORMAT, LOG_LEVEL, PUBSUB_TRACING_*). Flags override the
admin address and the manifest path. When a manifest is given, its topics
are built at startup and valve states are re-applied whenever the file
changes.

Examples:
  eventpress serve
  eventpress serve --addr :9090 --manifest ./topics.json`,
	RunE: serveHandler,
}

func serveHandler(cmd *cobra.Command, args []string) error {
	var envFiles []string
	if serveEnvFile != "" {
		envFiles = append(envFiles, serveEnvFile)
	}
	cfg, err := config.New(envFiles...)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.AdminAddr = serveAddr
	}
	if serveManifest != "" {
		cfg.ManifestPath = serveManifest
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	pubsub.Version = version
	injector := app.NewContainer(cfg, afero.NewOsFs())
	return app.Run(cmd.Context(), injector)
}

func init() {
	serveCmd.Flags().StringVar(&serveEnvFile, "env", "", "Path of a .env file (default .env)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Admin API address, overrides EVENTPRESS_ADMIN_ADDR")
	serveCmd.Flags().StringVar(&serveManifest, "manifest", "", "Topic manifest, overrides EVENTPRESS_MANIFEST")
	rootCmd.AddCommand(serveCmd)
}
