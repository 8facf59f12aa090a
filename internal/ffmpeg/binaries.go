// Package ffmpeg locates the ffmpeg and ffprobe executables used for
// subtitle stream probing and extraction, fetching a static build into the
// user cache when neither the environment nor PATH provides them.
package ffmpeg

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

const (
	EnvFFmpegPath  = "VIDSUB_FFMPEG_PATH"
	EnvFFprobePath = "VIDSUB_FFPROBE_PATH"

	releaseVersion = "6.1"
	releaseBaseURL = "https://github.com/ffbinaries/ffbinaries-prebuilt/releases/download"
)

var ErrNotFound = errors.New("ffmpeg binaries not found")

type Paths struct {
	FFmpeg  string
	FFprobe string
}

var (
	resolveOnce  sync.Once
	resolved     Paths
	resolveErr   error
	AutoDownload = true
)

// Resolve finds both binaries once per process.
func Resolve() (Paths, error) {
	resolveOnce.Do(func() {
		resolved, resolveErr = Lookup()
		if errors.Is(resolveErr, ErrNotFound) && AutoDownload {
			resolved, resolveErr = Install(context.Background(), CacheDir())
		}
	})
	return resolved, resolveErr
}

func FFmpegPath() (string, error) {
	p, err := Resolve()
	return p.FFmpeg, err
}

func FFprobePath() (string, error) {
	p, err := Resolve()
	return p.FFprobe, err
}

// Lookup checks the env overrides, then PATH, then a previous Install into
// CacheDir. It never downloads.
func Lookup() (Paths, error) {
	p := Paths{
		FFmpeg:  os.Getenv(EnvFFmpegPath),
		FFprobe: os.Getenv(EnvFFprobePath),
	}
	if p.FFmpeg == "" {
		p.FFmpeg, _ = exec.LookPath("ffmpeg")
	}
	if p.FFprobe == "" {
		p.FFprobe, _ = exec.LookPath("ffprobe")
	}
	if p.FFmpeg != "" && p.FFprobe != "" {
		return p, nil
	}

	cached := installedPaths(CacheDir())
	if isExecutable(cached.FFmpeg) && isExecutable(cached.FFprobe) {
		return cached, nil
	}
	return Paths{}, ErrNotFound
}

// where Install puts binaries for this platform
func CacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, "vidsub", "ffmpeg", releaseVersion, runtime.GOOS+"-"+runtime.GOARCH)
}

func installedPaths(dir string) Paths {
	return Paths{
		FFmpeg:  filepath.Join(dir, "ffmpeg"+exeSuffix()),
		FFprobe: filepath.Join(dir, "ffprobe"+exeSuffix()),
	}
}

// Install downloads the ffmpeg and ffprobe archives for this platform and
// unpacks them into dir.
func Install(ctx context.Context, dir string) (Paths, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("failed to create ffmpeg cache dir: %w", err)
	}

	paths := installedPaths(dir)
	for name, dest := range map[string]string{"ffmpeg": paths.FFmpeg, "ffprobe": paths.FFprobe} {
		if isExecutable(dest) {
			continue
		}
		asset, err := assetName(name, runtime.GOOS, runtime.GOARCH)
		if err != nil {
			return Paths{}, err
		}
		if err := fetchBinary(ctx, releaseBaseURL+"/v"+releaseVersion+"/"+asset, name, dest); err != nil {
			return Paths{}, err
		}
	}
	return paths, nil
}

func assetName(binary, goos, goarch string) (string, error) {
	var platform string
	switch goos + "/" + goarch {
	case "linux/amd64":
		platform = "linux-64"
	case "linux/arm64":
		platform = "linux-arm-64"
	case "darwin/amd64":
		platform = "macos-64"
	case "windows/amd64":
		platform = "win-64"
	default:
		return "", fmt.Errorf("no prebuilt %s for %s/%s", binary, goos, goarch)
	}
	return fmt.Sprintf("%s-%s-%s.zip", binary, releaseVersion, platform), nil
}

func fetchBinary(ctx context.Context, url, name, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: unexpected status %s", name, resp.Status)
	}

	tmp, err := os.CreateTemp("", "vidsub-"+name+"-*.zip")
	if err != nil {
		return fmt.Errorf("failed to create temp archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s archive: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s archive: %w", name, err)
	}

	return unzipBinary(tmp.Name(), name, dest)
}

// copies the entry called name (or name.exe) from the archive to dest
func unzipBinary(archive, name, dest string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("failed to open %s archive: %w", name, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		base := strings.ToLower(filepath.Base(f.Name))
		if base != name && base != name+".exe" {
			continue
		}

		src, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to read %s from archive: %w", name, err)
		}
		defer src.Close()

		out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", dest, err)
		}
		if _, err := io.Copy(out, src); err != nil {
			out.Close()
			return fmt.Errorf("failed to write %s: %w", dest, err)
		}
		return out.Close()
	}
	return fmt.Errorf("%s missing from archive", name)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

func exeSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}
