package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vidgo/vidsub/internal/api"
	"github.com/vidgo/vidsub/internal/subtitle"
	"github.com/vidgo/vidsub/internal/track"
	"github.com/vidgo/vidsub/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate [subtitle_file]",
	Short: "Fill a translation track using AI",
	Long: `Translate a primary track into a translation track with the same
timing, aligned cue by cue.

The primary track comes from a subtitle file, or from the backend with
--video. The result is written to a file and, with --upload, sent to the
backend as the video's translation track.

The --overlay flag writes bilingual subtitles with the translated text
first, followed by the original text on the next line.

Examples:
  vidsub translate episode.zh.srt --target-language english
  vidsub translate --video 42 -l zh --translation-lang en --upload
  vidsub translate episode.srt -t japanese --provider anthropic --overlay`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringP("target-language", "t", "", "Target language for translation (default: name of --translation-lang)")
	translateCmd.Flags().
		String("source-language", "", "Language of the primary track, given to the model as a hint")
	translateCmd.Flags().
		Int("video", 0, "Translate the primary track of this backend video")
	translateCmd.Flags().
		String("translation-lang", "", "Backend language of the translation track (default from config)")
	translateCmd.Flags().
		Bool("upload", false, "Upload the translation track to the backend (requires --video)")
	translateCmd.Flags().
		Bool("overlay", false, "Overlay translated text with original (bilingual subtitles)")
	translateCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY env var)")
	translateCmd.Flags().
		String("model", "", "Model to use for translation (provider-specific, uses sensible defaults)")
	translateCmd.Flags().
		String("provider", "", "Translation provider (gemini, openai, anthropic; default from config)")
	translateCmd.Flags().
		Int("concurrency", 0, "Number of parallel translation workers (default from config)")
	translateCmd.Flags().
		Int("batch-size", 0, "Number of subtitle entries per API request (default from config)")
	translateCmd.Flags().
		Int("context-size", -1, "Neighbouring lines sent as context (default from config, 0 disables)")
}

var languageNames = map[string]string{
	"en": "English",
	"zh": "Chinese",
	"jp": "Japanese",
}

func runTranslate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	targetLang, _ := cmd.Flags().GetString("target-language")
	sourceLang, _ := cmd.Flags().GetString("source-language")
	videoID, _ := cmd.Flags().GetInt("video")
	transLang, _ := cmd.Flags().GetString("translation-lang")
	upload, _ := cmd.Flags().GetBool("upload")
	overlay, _ := cmd.Flags().GetBool("overlay")
	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")
	providerStr, _ := cmd.Flags().GetString("provider")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	contextSize, _ := cmd.Flags().GetInt("context-size")
	outputPath, _ := cmd.Flags().GetString("output")

	if (len(args) == 0) == (videoID == 0) {
		return fmt.Errorf("give either a subtitle file or --video")
	}
	if upload && videoID == 0 {
		return fmt.Errorf("--upload requires --video")
	}
	if upload && overlay {
		return fmt.Errorf("--overlay output cannot be uploaded as a translation track")
	}

	if transLang == "" {
		transLang = cfg.Languages.Translation
	}
	transLang, err := api.ValidateLanguage(transLang)
	if err != nil {
		return err
	}
	if targetLang == "" {
		targetLang = languageNames[transLang]
	}
	if targetLang == "" {
		return fmt.Errorf("target language is required for %q tracks", transLang)
	}

	if providerStr == "" {
		providerStr = cfg.Translate.Provider
	}
	provider, err := translate.ParseProvider(providerStr)
	if err != nil {
		return err
	}
	if model == "" {
		model = cfg.Translate.Model
	}
	if concurrency == 0 {
		concurrency = cfg.Translate.Concurrency
	}
	if batchSize == 0 {
		batchSize = cfg.Translate.BatchSize
	}
	if contextSize < 0 {
		contextSize = cfg.Translate.ContextSize
	}
	if concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be positive, got %d", batchSize)
	}

	if apiKey == "" {
		apiKey = os.Getenv(translate.APIKeyEnv[provider])
	}
	if apiKey == "" {
		return fmt.Errorf(
			"API key is required: use --api-key flag or set %s environment variable",
			translate.APIKeyEnv[provider],
		)
	}

	var (
		primary   []subtitle.Cue
		inputPath string
		client    *api.Client
	)
	if videoID > 0 {
		lang, err := languageFlag(cmd, cfg.Languages.Primary)
		if err != nil {
			return err
		}
		if sourceLang == "" {
			sourceLang = languageNames[lang]
		}
		client, err = newClient()
		if err != nil {
			return err
		}
		res, err := newStore(client, nil).Load(ctx, videoID, lang, track.Primary)
		if err != nil {
			return err
		}
		if res.Missing {
			return fmt.Errorf("no %s subtitles for video %d", lang, videoID)
		}
		primary = res.Cues
	} else {
		inputPath = args[0]
		if _, err := os.Stat(inputPath); os.IsNotExist(err) {
			return fmt.Errorf("subtitle file not found: %s", inputPath)
		}
		doc, err := subtitle.Open(inputPath)
		if err != nil {
			return fmt.Errorf("failed to parse subtitle file: %w", err)
		}
		primary = doc.Cues
	}
	if len(primary) == 0 {
		return fmt.Errorf("primary track contains no entries")
	}

	if sourceLang != "" && strings.EqualFold(strings.TrimSpace(sourceLang), strings.TrimSpace(targetLang)) {
		return fmt.Errorf(
			"source language %q and target language %q cannot be the same",
			sourceLang,
			targetLang,
		)
	}

	if outputPath == "" && inputPath != "" {
		ext := filepath.Ext(inputPath)
		baseName := strings.TrimSuffix(inputPath, ext)
		if overlay {
			outputPath = fmt.Sprintf("%s.%s.overlay%s", baseName, transLang, ext)
		} else {
			outputPath = fmt.Sprintf("%s.%s%s", baseName, transLang, ext)
		}
	}

	logger.Infow("Starting subtitle translation",
		"input", inputPath,
		"video", videoID,
		"output", outputPath,
		"target_language", targetLang,
		"source_language", sourceLang,
		"provider", provider,
		"model", model,
		"entries", len(primary),
	)

	translator, err := translate.Factory(ctx, provider, apiKey, translate.Options{
		InputLanguage:  sourceLang,
		TargetLanguage: targetLang,
		Model:          model,
		BatchSize:      batchSize,
		ContextSize:    contextSizeOption(contextSize),
	})
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	translation, err := translate.FillTrack(ctx, translator, primary, concurrency)
	if err != nil {
		return err
	}
	if missing := translate.Missing(primary, translation); missing > 0 {
		logger.Warnw("Some cues came back untranslated", "missing", missing)
	}

	if upload {
		c := openCache()
		defer closeCache(c)
		if err := uploadAndWait(ctx, client, c, videoID, transLang, translation); err != nil {
			return err
		}
		fmt.Printf("Translation uploaded to video %d (%s)\n", videoID, transLang)
	}

	out := translation
	if overlay {
		out = subtitle.Merge(subtitle.ModeBoth, translation, primary)
	}

	switch {
	case outputPath != "":
		writer, err := subtitle.NewWriter(subtitle.GetFormatFromExtension(outputPath))
		if err != nil {
			return err
		}
		if err := writer.Write(out, outputPath); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		absOutput, _ := filepath.Abs(outputPath)
		fmt.Printf("Subtitles translated successfully: %s\n", absOutput)
		fmt.Printf("  Entries: %d\n", len(out))
		fmt.Printf("  Target language: %s\n", targetLang)
		if overlay {
			fmt.Printf("  Mode: bilingual overlay\n")
		}
	case !upload:
		return writeOutput("", subtitle.SerializeSRT(out))
	}

	return nil
}

// a configured context size of 0 means none, which Options spells as -1
func contextSizeOption(n int) int {
	if n == 0 {
		return -1
	}
	return n
}
