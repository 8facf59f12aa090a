package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vidgo/vidsub/internal/download"
	"github.com/vidgo/vidsub/internal/subtitle"
)

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Download the published subtitles of an online video",
	Long: `Download the subtitles (uploaded or automatic) of an online video with
yt-dlp, converted to SRT. The video itself is not downloaded.

Examples:
  vidsub download https://www.youtube.com/watch?v=dQw4w9WgXcQ --sub-lang en -o talk.srt
  vidsub download https://example.com/v/123 --sub-lang zh-Hans --upload 42 -l zh`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().
		String("sub-lang", "en", "Subtitle language as named by the video site")
	downloadCmd.Flags().
		Int("upload", 0, "Upload the downloaded track to this backend video")
}

func runDownload(cmd *cobra.Command, args []string) error {
	url := args[0]
	ctx := context.Background()

	subLang, _ := cmd.Flags().GetString("sub-lang")
	uploadID, _ := cmd.Flags().GetInt("upload")
	outputPath, _ := cmd.Flags().GetString("output")

	tempDir, err := os.MkdirTemp("", "vidsub-download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	logger.Infow("Downloading subtitles", "url", url, "lang", subLang)

	path, err := download.Subtitles(ctx, url, subLang, tempDir)
	if err != nil {
		return err
	}
	doc, err := subtitle.Open(path)
	if err != nil {
		return fmt.Errorf("failed to parse downloaded subtitles: %w", err)
	}
	if doc.Skipped > 0 {
		logger.Warnw("Skipped malformed subtitle blocks", "skipped", doc.Skipped)
	}
	logger.Infow("Downloaded subtitles", "cues", len(doc.Cues))

	if uploadID > 0 {
		lang, err := languageFlag(cmd, cfg.Languages.Primary)
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		c := openCache()
		defer closeCache(c)
		if err := uploadAndWait(ctx, client, c, uploadID, lang, doc.Cues); err != nil {
			return err
		}
		fmt.Printf("Subtitles uploaded to video %d (%s)\n", uploadID, lang)
		if outputPath == "" {
			return nil
		}
	}

	return writeOutput(outputPath, subtitle.SerializeSRT(doc.Cues))
}
