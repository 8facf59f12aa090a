package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vidgo/vidsub/internal/api"
)

const zhSRT = `1
00:00:01,000 --> 00:00:02,000
你好

2
00:00:03,000 --> 00:00:04,000
再见
`

const enSRT = `1
00:00:01,000 --> 00:00:02,000
Hello
`

type fakeBackend struct {
	tracks map[string]string // "id/lang" -> srt
	fail   bool
}

func (f *fakeBackend) FetchSubtitle(_ context.Context, videoID int, lang string) (string, error) {
	if f.fail {
		return "", errors.New("connection refused")
	}
	srt, ok := f.tracks[fmt.Sprintf("%d/%s", videoID, lang)]
	if !ok {
		return "", api.ErrNotFound
	}
	return srt, nil
}

func (f *fakeBackend) UploadSubtitle(
	context.Context, int, string, string, api.ProgressFunc,
) (*api.UploadResponse, error) {
	return nil, errors.New("not supported")
}

func newTestServer(fail bool) *httptest.Server {
	backend := &fakeBackend{
		tracks: map[string]string{"7/zh": zhSRT, "7/en": enSRT, "8/zh": zhSRT},
		fail:   fail,
	}
	return httptest.NewServer(New(backend, WithLanguages("zh", "en")).Handler())
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestVTTModes(t *testing.T) {
	ts := newTestServer(false)
	defer ts.Close()

	tests := []struct {
		name  string
		path  string
		wants []string
	}{
		{
			name:  "primary default",
			path:  "/videos/7/subtitles.vtt",
			wants: []string{"WEBVTT\n\n", "00:00:01.000 --> 00:00:02.000\n你好\n\n"},
		},
		{
			name:  "translation",
			path:  "/videos/7/subtitles.vtt?mode=translation",
			wants: []string{"00:00:01.000 --> 00:00:02.000\nHello\n\n"},
		},
		{
			name:  "both",
			path:  "/videos/7/subtitles.vtt?mode=both",
			wants: []string{"你好\nHello\n\n", "再见\n\n\n"},
		},
		{
			name:  "both without translation",
			path:  "/videos/8/subtitles.vtt?mode=both",
			wants: []string{"你好\n\n\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, ts.URL+tt.path)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, body %s", resp.StatusCode, body)
			}
			if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/vtt") {
				t.Errorf("Content-Type = %q", ct)
			}
			for _, want := range tt.wants {
				if !strings.Contains(body, want) {
					t.Errorf("body missing %q:\n%s", want, body)
				}
			}
		})
	}
}

func TestSRT(t *testing.T) {
	ts := newTestServer(false)
	defer ts.Close()

	resp, body := get(t, ts.URL+"/videos/7/subtitles.srt?lang=EN")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/x-subrip") {
		t.Errorf("Content-Type = %q", ct)
	}
	if body != "1\n00:00:01,000 --> 00:00:02,000\nHello\n\n" {
		t.Errorf("body = %q", body)
	}
}

func TestCues(t *testing.T) {
	ts := newTestServer(false)
	defer ts.Close()

	resp, body := get(t, ts.URL+"/videos/7/cues")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got cuesResponse
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.VideoID != 7 || got.Lang != "zh" || got.Translation != "en" || len(got.Cues) != 2 {
		t.Fatalf("response = %+v", got)
	}
	if got.Cues[0].Text != "你好" || got.Cues[0].Translation != "Hello" || got.Cues[1].Translation != "" {
		t.Errorf("cues = %+v", got.Cues)
	}
	if strings.Contains(body, "editing") || strings.Contains(body, "Editing") {
		t.Errorf("editing flags leaked: %s", body)
	}
}

func TestErrorStatuses(t *testing.T) {
	ok := newTestServer(false)
	defer ok.Close()
	down := newTestServer(true)
	defer down.Close()

	tests := []struct {
		name   string
		url    string
		status int
	}{
		{"bad id", ok.URL + "/videos/abc/subtitles.vtt", http.StatusBadRequest},
		{"zero id", ok.URL + "/videos/0/cues", http.StatusBadRequest},
		{"bad mode", ok.URL + "/videos/7/subtitles.vtt?mode=karaoke", http.StatusBadRequest},
		{"bad lang", ok.URL + "/videos/7/subtitles.srt?lang=fr", http.StatusBadRequest},
		{"missing primary", ok.URL + "/videos/9/subtitles.vtt", http.StatusNotFound},
		{"missing translation", ok.URL + "/videos/8/subtitles.vtt?mode=translation", http.StatusNotFound},
		{"backend down", down.URL + "/videos/7/subtitles.srt", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, tt.url)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d (body %s)", resp.StatusCode, tt.status, body)
			}
			if !strings.Contains(body, `"error"`) {
				t.Errorf("expected JSON error body, got %s", body)
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(false)
	defer ts.Close()

	resp, body := get(t, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK || body != "ok" {
		t.Errorf("healthz = %d %q", resp.StatusCode, body)
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s := New(&fakeBackend{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("ListenAndServe() = %v", err)
	}
}
