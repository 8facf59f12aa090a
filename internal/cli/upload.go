package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vidgo/vidsub/internal/cache"
	"github.com/vidgo/vidsub/internal/subtitle"
	"github.com/vidgo/vidsub/internal/track"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [video_id] [subtitle_file]",
	Short: "Upload a subtitle file to the backend",
	Long: `Upload a subtitle file as one of a video's tracks.

The file may be SRT, VTT, ASS/SSA, TTML or STL; it is converted to SRT
before upload. On success the uploaded text is stored in the local cache.

Examples:
  vidsub upload 42 episode.srt
  vidsub upload 42 episode.en.vtt -l en`,
	Args: cobra.ExactArgs(2),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	videoID, err := parseVideoID(args[0])
	if err != nil {
		return err
	}
	subtitlePath := args[1]
	lang, err := languageFlag(cmd, cfg.Languages.Primary)
	if err != nil {
		return err
	}

	if _, err := os.Stat(subtitlePath); os.IsNotExist(err) {
		return fmt.Errorf("subtitle file not found: %s", subtitlePath)
	}

	doc, err := subtitle.Open(subtitlePath)
	if err != nil {
		return fmt.Errorf("failed to parse subtitle file: %w", err)
	}
	if len(doc.Cues) == 0 {
		return fmt.Errorf("subtitle file contains no entries")
	}
	if doc.Skipped > 0 {
		logger.Warnw("Skipped malformed subtitle blocks", "skipped", doc.Skipped)
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	c := openCache()
	defer closeCache(c)

	if err := uploadAndWait(context.Background(), client, c, videoID, lang, doc.Cues); err != nil {
		return err
	}

	absInput, _ := filepath.Abs(subtitlePath)
	fmt.Printf("Uploaded %s to video %d\n", absInput, videoID)
	fmt.Printf("  Language: %s\n", lang)
	fmt.Printf("  Entries: %d\n", len(doc.Cues))
	return nil
}

// uploadAndWait uploads cues through a track store and blocks until the
// backend answered, returning the notification message as error on failure.
func uploadAndWait(
	ctx context.Context,
	backend track.Backend,
	c *cache.Cache,
	videoID int,
	lang string,
	cues []subtitle.Cue,
) error {
	results := make(chan track.Notification, 1)
	store := newStore(backend, c,
		track.WithNotifier(func(n track.Notification) { results <- n }),
		track.WithProgress(func(id string, sent, total int64) {
			logger.Debugw("Upload progress", "upload", id, "sent", sent, "total", total)
		}),
	)

	if err := store.Replace(track.Primary, cues); err != nil {
		return err
	}
	uploadID, err := store.UploadSlot(ctx, videoID, lang, track.Primary)
	if err != nil {
		return err
	}
	store.Wait()

	n := <-results
	logger.Infow("Upload finished",
		"upload", uploadID,
		"video", videoID,
		"lang", lang,
		"ok", n.OK,
	)
	if !n.OK {
		if n.Err != nil {
			return fmt.Errorf("%s: %w", n.Message, n.Err)
		}
		return fmt.Errorf("%s", n.Message)
	}
	return nil
}
