package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vidgo/vidsub/internal/subtitle"
	"github.com/vidgo/vidsub/internal/video"
)

var extractCmd = &cobra.Command{
	Use:   "extract [video_file]",
	Short: "Extract an embedded subtitle stream from a video file",
	Long: `Extract a subtitle stream embedded in a video container and save it
as SRT, or upload it straight to the backend.

Only text-based streams (subrip, ass, mov_text, webvtt) can be extracted.
Without --stream the first text stream is used.

Examples:
  vidsub extract movie.mkv --list
  vidsub extract movie.mkv --stream 1 -o movie.en.srt
  vidsub extract movie.mkv --upload 42 -l en`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().
		Bool("list", false, "List the subtitle streams and exit")
	extractCmd.Flags().
		IntP("stream", "s", -1, "Subtitle stream position as shown by --list")
	extractCmd.Flags().
		Int("upload", 0, "Upload the extracted track to this backend video")
}

func runExtract(cmd *cobra.Command, args []string) error {
	videoPath := args[0]
	ctx := context.Background()

	list, _ := cmd.Flags().GetBool("list")
	position, _ := cmd.Flags().GetInt("stream")
	uploadID, _ := cmd.Flags().GetInt("upload")
	outputPath, _ := cmd.Flags().GetString("output")

	streams, err := video.SubtitleStreams(ctx, videoPath)
	if err != nil {
		return err
	}
	if list {
		return printStreams(streams)
	}
	if len(streams) == 0 {
		return fmt.Errorf("no subtitle streams in %s", videoPath)
	}

	stream, err := pickStream(streams, position)
	if err != nil {
		return err
	}

	logger.Infow("Extracting subtitles",
		"video", videoPath,
		"stream", stream.Position,
		"codec", stream.Codec,
		"language", stream.Language,
	)

	srt, err := video.ExtractSRT(ctx, videoPath, stream.Position)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	result := subtitle.ParseSRT(srt)
	if result.Skipped > 0 {
		logger.Warnw("Skipped malformed subtitle blocks", "skipped", result.Skipped)
	}

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
		if err := uploadAndWait(ctx, client, c, uploadID, lang, result.Cues); err != nil {
			return err
		}
		fmt.Printf("Subtitles uploaded to video %d (%s)\n", uploadID, lang)
		if outputPath == "" {
			return nil
		}
	}

	if outputPath == "" {
		suffix := ".srt"
		if stream.Language != "" {
			suffix = "." + stream.Language + ".srt"
		}
		outputPath = strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + suffix
	}
	return writeOutput(outputPath, subtitle.SerializeSRT(result.Cues))
}

// pickStream returns the stream at position, or the first text stream when
// position is negative
func pickStream(streams []video.Stream, position int) (video.Stream, error) {
	if position < 0 {
		for _, s := range streams {
			if s.IsText() {
				return s, nil
			}
		}
		return video.Stream{}, fmt.Errorf("no text subtitle streams: image-based subtitles cannot be extracted")
	}
	if position >= len(streams) {
		return video.Stream{}, fmt.Errorf("subtitle stream %d out of range (0-%d)", position, len(streams)-1)
	}
	s := streams[position]
	if !s.IsText() {
		return video.Stream{}, fmt.Errorf("subtitle stream %d is image-based (%s)", position, s.Codec)
	}
	return s, nil
}

func printStreams(streams []video.Stream) error {
	if len(streams) == 0 {
		fmt.Println("No subtitle streams")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STREAM\tCODEC\tLANGUAGE\tTITLE\tFLAGS")
	for _, s := range streams {
		var flags []string
		if s.Default {
			flags = append(flags, "default")
		}
		if s.Forced {
			flags = append(flags, "forced")
		}
		if !s.IsText() {
			flags = append(flags, "image")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			s.Position, s.Codec, s.Language, s.Title, strings.Join(flags, ","))
	}
	return w.Flush()
}
