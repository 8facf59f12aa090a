package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vidgo/vidsub/internal/subtitle"
)

var convertCmd = &cobra.Command{
	Use:   "convert [subtitle_file]",
	Short: "Convert a subtitle file to SRT, VTT or ASS",
	Long: `Convert a subtitle file between formats.

Input may be SRT, VTT, ASS/SSA, TTML or STL. With --translation the two
files are merged by cue index into bilingual subtitles using --mode.
Long cues can be rebalanced with --reflow; reflow splits cues, so it cannot
be combined with --translation.

Examples:
  vidsub convert episode.ass -f srt
  vidsub convert zh.srt --translation en.srt --mode both -f ass -o episode.ass
  vidsub convert episode.vtt -f srt --reflow`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().
		StringP("format", "f", "srt", "Output subtitle format (srt, vtt, ass)")
	convertCmd.Flags().
		String("translation", "", "Translation subtitle file merged by cue index")
	convertCmd.Flags().
		StringP("mode", "m", "both", "Merge mode when --translation is set (primary, translation, both)")
	convertCmd.Flags().
		Bool("reflow", false, "Wrap long lines and split long cues")
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	formatStr, _ := cmd.Flags().GetString("format")
	translationPath, _ := cmd.Flags().GetString("translation")
	modeStr, _ := cmd.Flags().GetString("mode")
	reflow, _ := cmd.Flags().GetBool("reflow")
	outputPath, _ := cmd.Flags().GetString("output")

	if reflow && translationPath != "" {
		return fmt.Errorf("--reflow cannot be combined with --translation: split cues would no longer align by index")
	}

	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("subtitle file not found: %s", inputPath)
	}

	format, err := parseOutputFormat(formatStr)
	if err != nil {
		return err
	}
	mode, err := subtitle.ParseMode(modeStr)
	if err != nil {
		return err
	}

	doc, err := subtitle.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to parse subtitle file: %w", err)
	}
	cues := doc.Cues

	if reflow {
		cues = subtitle.NewReflower().Reflow(cues)
	}

	if translationPath != "" {
		trans, err := subtitle.Open(translationPath)
		if err != nil {
			return fmt.Errorf("failed to parse translation file: %w", err)
		}
		first, second := cues, trans.Cues
		if mode == subtitle.ModeTranslation {
			first, second = trans.Cues, cues
		}
		cues = subtitle.Merge(mode, first, second)
	}

	if outputPath == "" {
		baseName := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
		outputPath = baseName + ".converted" + subtitle.GetExtensionForFormat(format)
	}

	logger.Infow("Converting subtitles",
		"input", inputPath,
		"output", outputPath,
		"from", doc.Format,
		"to", format,
		"cues", len(cues),
	)

	writer, err := subtitle.NewWriter(format)
	if err != nil {
		return err
	}
	if err := writer.Write(cues, outputPath); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Printf("Subtitles converted successfully: %s\n", absOutput)
	fmt.Printf("  Entries: %d\n", len(cues))
	return nil
}

func parseOutputFormat(s string) (subtitle.Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "srt":
		return subtitle.FormatSRT, nil
	case "vtt":
		return subtitle.FormatVTT, nil
	case "ass":
		return subtitle.FormatASS, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use srt, vtt, or ass", s)
	}
}
