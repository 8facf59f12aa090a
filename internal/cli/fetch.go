package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vidgo/vidsub/internal/track"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [video_id]",
	Short: "Download a subtitle track from the backend as SRT",
	Long: `Fetch one subtitle track of a video from the backend and print it as SRT.

The fetched text is stored in the local track cache. With --cached the
backend is not contacted and the cached copy is used instead.

Examples:
  vidsub fetch 42
  vidsub fetch 42 -l en -o episode.en.srt
  vidsub fetch 42 --cached`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().
		Bool("cached", false, "Read the track from the local cache instead of the backend")
}

func runFetch(cmd *cobra.Command, args []string) error {
	videoID, err := parseVideoID(args[0])
	if err != nil {
		return err
	}
	lang, err := languageFlag(cmd, cfg.Languages.Primary)
	if err != nil {
		return err
	}
	cached, _ := cmd.Flags().GetBool("cached")
	outputPath, _ := cmd.Flags().GetString("output")

	c := openCache()
	defer closeCache(c)

	var result track.LoadResult
	var store *track.Store
	if cached {
		if c == nil {
			return track.ErrNoCache
		}
		store = newStore(nil, c)
		result, err = store.LoadCached(videoID, lang, track.Primary)
	} else {
		client, cerr := newClient()
		if cerr != nil {
			return cerr
		}
		store = newStore(client, c)
		result, err = store.Load(context.Background(), videoID, lang, track.Primary)
	}
	if err != nil {
		return err
	}

	if result.Missing {
		return fmt.Errorf("no %s subtitles for video %d", lang, videoID)
	}

	logger.Infow("Fetched subtitle track",
		"video", videoID,
		"lang", lang,
		"cues", len(result.Cues),
		"skipped", result.Skipped,
	)
	if result.Skipped > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d malformed blocks skipped\n", result.Skipped)
	}

	return writeOutput(outputPath, store.Serialize(track.Primary))
}
