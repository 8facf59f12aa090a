package video

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	ffmpegbin "github.com/vidgo/vidsub/internal/ffmpeg"
)

// subtitle stream embedded in a media file
type Stream struct {
	Index    int    // absolute stream index in the container
	Position int    // n-th subtitle stream, as used by -map 0:s:N
	Codec    string // e.g. subrip, ass, mov_text, hdmv_pgs_subtitle
	Language string
	Title    string
	Default  bool
	Forced   bool
}

// image-based codecs cannot be converted to text subtitles
func (s Stream) IsText() bool {
	switch s.Codec {
	case "hdmv_pgs_subtitle", "dvd_subtitle", "dvb_subtitle", "xsub":
		return false
	default:
		return true
	}
}

// SubtitleStreams lists the subtitle streams of a media file with ffprobe.
func SubtitleStreams(ctx context.Context, mediaPath string) ([]Stream, error) {
	if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("media file not found: %s", mediaPath)
	}

	ffprobePath, err := ffmpegbin.FFprobePath()
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "s",
		mediaPath,
	)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseStreams(out.Bytes())
}

func parseStreams(probe []byte) ([]Stream, error) {
	if !gjson.ValidBytes(probe) {
		return nil, fmt.Errorf("failed to parse ffprobe output")
	}

	streams := []Stream{}
	position := 0
	gjson.GetBytes(probe, "streams").ForEach(func(_, s gjson.Result) bool {
		if codecType := s.Get("codec_type").String(); codecType != "" && codecType != "subtitle" {
			return true
		}
		streams = append(streams, Stream{
			Index:    int(s.Get("index").Int()),
			Position: position,
			Codec:    s.Get("codec_name").String(),
			Language: s.Get("tags.language").String(),
			Title:    s.Get("tags.title").String(),
			Default:  s.Get("disposition.default").Int() == 1,
			Forced:   s.Get("disposition.forced").Int() == 1,
		})
		position++
		return true
	})
	return streams, nil
}

// ExtractSubtitles converts the position-th subtitle stream of mediaPath to
// SubRip at outPath.
func ExtractSubtitles(ctx context.Context, mediaPath string, position int, outPath string) error {
	if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
		return fmt.Errorf("media file not found: %s", mediaPath)
	}
	if position < 0 {
		return fmt.Errorf("invalid subtitle stream %d", position)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd := extractStream(mediaPath, position, outPath).
		SetFfmpegPath(ffmpegPath).
		WithErrorOutput(&stderr).
		Compile()

	if err := runCmd(ctx, cmd); err != nil {
		return fmt.Errorf("ffmpeg extraction failed: %w: %s", err, lastLine(stderr.String()))
	}
	return nil
}

// ExtractSRT extracts a subtitle stream and returns its SRT text.
func ExtractSRT(ctx context.Context, mediaPath string, position int) (string, error) {
	tmpDir, err := os.MkdirTemp("", "vidsub-extract-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outPath := filepath.Join(tmpDir, "track.srt")
	if err := ExtractSubtitles(ctx, mediaPath, position, outPath); err != nil {
		return "", err
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to read extracted subtitles: %w", err)
	}
	return string(data), nil
}

func extractStream(mediaPath string, position int, outPath string) *ffmpeg.Stream {
	return ffmpeg.Input(mediaPath).
		Output(outPath, ffmpeg.KwArgs{
			"map": fmt.Sprintf("0:s:%d", position),
			"c:s": "srt",
		}).
		OverWriteOutput()
}

// runCmd runs cmd and kills it when ctx is done; the compiled ffmpeg
// command is not bound to a context.
func runCmd(ctx context.Context, cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return ctx.Err()
	}
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}
