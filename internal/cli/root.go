package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vidgo/vidsub/internal/api"
	"github.com/vidgo/vidsub/internal/cache"
	"github.com/vidgo/vidsub/internal/config"
	"github.com/vidgo/vidsub/internal/logging"
	"github.com/vidgo/vidsub/internal/track"
)

var (
	verbose    bool
	configPath string
	backendURL string
	logger     *logging.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "vidsub",
	Short: "Subtitle track tool for a video library backend",
	Long: `vidsub fetches, edits, translates and exports the subtitle tracks
of videos stored on a video library backend.

Each video has a primary track and a translation track, aligned cue by cue.
Tracks can be exported as SRT, WebVTT (primary, translation, or both) and ASS,
served over HTTP, or filled in with an LLM translation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, path, err := config.LoadOrDefault(configPath)
		if err != nil {
			return err
		}
		if backendURL != "" {
			loaded.Backend.URL = backendURL
		}
		cfg = loaded

		logger = logging.NewLoggerWithLevel(cfg.LogLevel, verbose)
		if path != "" {
			logger.Debugw("Loaded config", "path", path)
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file (default: ./vidsub.yaml or ~/.config/vidsub/config.yaml)")
	rootCmd.PersistentFlags().
		StringVar(&backendURL, "backend", "", "Backend base URL (overrides backend.url)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
	rootCmd.PersistentFlags().
		StringP("language", "l", "", "Language code (en, zh, jp, system_define)")
}

func newClient() (*api.Client, error) {
	client, err := api.NewClient(cfg.Backend.URL, api.WithTimeout(cfg.Backend.Timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	return client, nil
}

// openCache returns nil when the cache is disabled or cannot be opened;
// commands keep working without it.
func openCache() *cache.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	c, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		logger.Warnw("Track cache unavailable", "path", cfg.Cache.Path, "error", err)
		return nil
	}
	return c
}

func closeCache(c *cache.Cache) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logger.Warnw("Failed to close track cache", "error", err)
	}
}

// newStore builds a store over backend, with c as cache when non-nil
func newStore(backend track.Backend, c *cache.Cache, opts ...track.Option) *track.Store {
	opts = append([]track.Option{track.WithLogger(logger)}, opts...)
	if c != nil {
		opts = append(opts, track.WithCache(c))
	}
	store := track.New(backend, opts...)
	store.Subscribe(func(ev track.Event) {
		logger.Debugw("Track changed",
			"slot", ev.Slot, "kind", ev.Kind, "version", ev.Version, "cues", ev.Len)
	})
	return store
}

func parseVideoID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid video id %q: must be a positive integer", arg)
	}
	return id, nil
}

// languageFlag returns --language, or fallback when it is unset
func languageFlag(cmd *cobra.Command, fallback string) (string, error) {
	lang, _ := cmd.Flags().GetString("language")
	if lang == "" {
		lang = fallback
	}
	return api.ValidateLanguage(lang)
}

// writeOutput writes content to path, or to stdout when path is empty
func writeOutput(path, content string) error {
	if path == "" {
		_, err := fmt.Fprint(os.Stdout, content)
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	absOutput, _ := filepath.Abs(path)
	fmt.Fprintf(os.Stderr, "Written: %s\n", absOutput)
	return nil
}
