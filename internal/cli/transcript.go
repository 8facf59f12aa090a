package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vidgo/vidsub/internal/transcript"
)

var transcriptCmd = &cobra.Command{
	Use:   "transcript [video_id]",
	Short: "Export a bilingual transcript as Markdown or HTML",
	Long: `Export the primary and translation tracks as a readable transcript,
one entry per cue with its start time.

Examples:
  vidsub transcript 42 --title "Lecture 3" -o lecture3.md
  vidsub transcript 42 --format html -o lecture3.html
  vidsub transcript --primary-file zh.srt --translation-file en.srt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTranscript,
}

func init() {
	rootCmd.AddCommand(transcriptCmd)

	transcriptCmd.Flags().
		StringP("format", "f", "md", "Output format (md, html)")
	transcriptCmd.Flags().
		String("title", "", "Transcript title")
	addTrackSourceFlags(transcriptCmd)
}

func runTranscript(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	title, _ := cmd.Flags().GetString("title")
	outputPath, _ := cmd.Flags().GetString("output")

	format = strings.ToLower(strings.TrimSpace(format))
	if format != "md" && format != "html" {
		return fmt.Errorf("unsupported format %q: use md or html", format)
	}

	store, err := loadTracks(cmd, args, optionalTranslation)
	if err != nil {
		return err
	}
	cues := store.Bilingual()
	if len(cues) == 0 {
		return fmt.Errorf("primary track is empty")
	}

	if format == "md" {
		return writeOutput(outputPath, transcript.Markdown(title, cues))
	}
	page, err := transcript.HTML(title, cues)
	if err != nil {
		return err
	}
	return writeOutput(outputPath, page)
}
