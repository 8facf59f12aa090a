package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vidgo/vidsub/internal/subtitle"
	"github.com/vidgo/vidsub/internal/track"
)

var vttCmd = &cobra.Command{
	Use:   "vtt [video_id]",
	Short: "Build a WebVTT track from the primary and translation tracks",
	Long: `Build WebVTT text from a video's tracks, either fetched from the
backend or read from local files.

Modes:
  primary      text of the primary track
  translation  text of the translation track
  both         primary text with the translation on the next line

Examples:
  vidsub vtt 42 --mode both
  vidsub vtt 42 --mode translation --translation-lang en -o 42.en.vtt
  vidsub vtt --primary-file zh.srt --translation-file en.srt --mode both`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVTT,
}

func init() {
	rootCmd.AddCommand(vttCmd)

	vttCmd.Flags().
		StringP("mode", "m", "primary", "Cue text mode (primary, translation, both)")
	addTrackSourceFlags(vttCmd)
}

func runVTT(cmd *cobra.Command, args []string) error {
	modeStr, _ := cmd.Flags().GetString("mode")
	outputPath, _ := cmd.Flags().GetString("output")

	mode, err := subtitle.ParseMode(modeStr)
	if err != nil {
		return err
	}

	need := optionalTranslation
	switch mode {
	case subtitle.ModePrimary:
		need = skipTranslation
	case subtitle.ModeTranslation:
		need = requireTranslation
	}

	store, err := loadTracks(cmd, args, need)
	if err != nil {
		return err
	}

	return writeOutput(outputPath, store.BuildExportVTT(mode))
}

func addTrackSourceFlags(cmd *cobra.Command) {
	cmd.Flags().
		String("primary-file", "", "Read the primary track from a subtitle file")
	cmd.Flags().
		String("translation-file", "", "Read the translation track from a subtitle file")
	cmd.Flags().
		String("translation-lang", "", "Backend language of the translation track (default from config)")
}

// how loadTracks treats the translation track
type translationNeed int

const (
	skipTranslation translationNeed = iota
	optionalTranslation
	requireTranslation
)

// loadTracks fills a store from --primary-file/--translation-file, or from
// the backend when a video id is given. With requireTranslation a missing
// translation file or backend track is an error.
func loadTracks(cmd *cobra.Command, args []string, need translationNeed) (*track.Store, error) {
	primaryFile, _ := cmd.Flags().GetString("primary-file")
	translationFile, _ := cmd.Flags().GetString("translation-file")

	if len(args) == 0 {
		if primaryFile == "" {
			return nil, fmt.Errorf("a video id or --primary-file is required")
		}
		if need == requireTranslation && translationFile == "" {
			return nil, fmt.Errorf("--translation-file is required for the translation track")
		}
		store := newStore(nil, nil)
		if err := replaceFromFile(store, track.Primary, primaryFile); err != nil {
			return nil, err
		}
		if need != skipTranslation && translationFile != "" {
			if err := replaceFromFile(store, track.Translation, translationFile); err != nil {
				return nil, err
			}
		}
		return store, nil
	}

	videoID, err := parseVideoID(args[0])
	if err != nil {
		return nil, err
	}
	lang, err := languageFlag(cmd, cfg.Languages.Primary)
	if err != nil {
		return nil, err
	}
	transLang, _ := cmd.Flags().GetString("translation-lang")
	if transLang == "" {
		transLang = cfg.Languages.Translation
	}

	client, err := newClient()
	if err != nil {
		return nil, err
	}
	c := openCache()
	defer closeCache(c)

	store := newStore(client, c)
	ctx := cmd.Context()

	res, err := store.Load(ctx, videoID, lang, track.Primary)
	if err != nil {
		return nil, err
	}
	if res.Missing {
		logger.Warnw("No primary track on backend", "video", videoID, "lang", lang)
	}

	if need != skipTranslation {
		res, err := store.Load(ctx, videoID, transLang, track.Translation)
		if err != nil {
			return nil, err
		}
		if res.Missing && need == requireTranslation {
			return nil, fmt.Errorf("no %s translation track on backend for video %d", transLang, videoID)
		}
		if res.Missing {
			logger.Warnw("No translation track on backend", "video", videoID, "lang", transLang)
		}
	}
	return store, nil
}

func replaceFromFile(store *track.Store, slot track.Slot, path string) error {
	doc, err := subtitle.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read %s track: %w", slot, err)
	}
	if doc.Skipped > 0 {
		logger.Warnw("Skipped malformed subtitle blocks", "file", path, "skipped", doc.Skipped)
	}
	return store.Replace(slot, doc.Cues)
}
