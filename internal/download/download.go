// Package download fetches subtitles published alongside online videos
// with yt-dlp and hands them back as SRT files.
package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lrstanley/go-ytdlp"
)

const outputTemplate = "%(id)s.%(ext)s"

// Subtitles downloads the lang subtitles (uploaded or automatic) of url
// into dir, converted to SRT, and returns the path of the SRT file. The
// media itself is never downloaded.
func Subtitles(ctx context.Context, url, lang, dir string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("url is required")
	}
	if lang == "" {
		return "", fmt.Errorf("subtitle language is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return "", fmt.Errorf("failed to install yt-dlp: %w", err)
	}

	dl := ytdlp.New().
		SkipDownload().
		WriteSubs().
		WriteAutoSubs().
		SubLangs(lang).
		SubFormat("srt/best").
		ConvertSubs("srt").
		ForceOverwrites().
		Output(filepath.Join(dir, outputTemplate))

	if _, err := dl.Run(ctx, url); err != nil {
		return "", fmt.Errorf("yt-dlp failed: %w", err)
	}

	return findSubtitle(dir, lang)
}

// picks the most recent .srt in dir, preferring files tagged with lang
func findSubtitle(dir, lang string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.srt"))
	if err != nil {
		return "", fmt.Errorf("failed to list subtitles: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no %s subtitles available", lang)
	}

	type candidate struct {
		path    string
		tagged  bool
		modUnix int64
	}
	candidates := make([]candidate, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{
			path:    m,
			tagged:  strings.HasSuffix(strings.TrimSuffix(filepath.Base(m), ".srt"), "."+lang),
			modUnix: info.ModTime().UnixNano(),
		})
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no %s subtitles available", lang)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].tagged != candidates[j].tagged {
			return candidates[i].tagged
		}
		return candidates[i].modUnix > candidates[j].modUnix
	})
	return candidates[0].path, nil
}
