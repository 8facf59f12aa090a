package track

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/vidgo/vidsub/internal/api"
	"github.com/vidgo/vidsub/internal/subtitle"
)

const helloSRT = "1\n00:00:00,000 --> 00:00:05,000\nHello\n\n2\n00:00:05,000 --> 00:00:10,000\nWorld\n\n"
const xySRT = "1\n00:00:00,000 --> 00:00:05,000\nX\n\n2\n00:00:05,000 --> 00:00:10,000\nY\n\n"

type uploadCall struct {
	videoID int
	lang    string
	srt     string
	ctxErr  error
}

type fakeBackend struct {
	mu        sync.Mutex
	texts     map[string]string
	fetchErr  error
	gates     map[string]chan struct{}
	uploadErr error
	uploads   []uploadCall
	// closed by the test to let uploads finish
	uploadGate chan struct{}
}

func (f *fakeBackend) FetchSubtitle(ctx context.Context, videoID int, lang string) (string, error) {
	f.mu.Lock()
	gate := f.gates[lang]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return "", f.fetchErr
	}
	text, ok := f.texts[lang]
	if !ok {
		return "", api.ErrNotFound
	}
	return text, nil
}

func (f *fakeBackend) UploadSubtitle(
	ctx context.Context,
	videoID int,
	lang, srt string,
	progress api.ProgressFunc,
) (*api.UploadResponse, error) {
	if f.uploadGate != nil {
		<-f.uploadGate
	}
	if progress != nil {
		progress(int64(len(srt)/2), int64(len(srt)))
		progress(int64(len(srt)), int64(len(srt)))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, uploadCall{videoID: videoID, lang: lang, srt: srt, ctxErr: ctx.Err()})
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &api.UploadResponse{Success: true, Message: "ok"}, nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]string)}
}

func (c *memCache) key(videoID int, lang string) string {
	return fmt.Sprintf("%d/%s", videoID, lang)
}

func (c *memCache) Put(videoID int, lang, srt string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.key(videoID, lang)] = srt
	return nil
}

func (c *memCache) Get(videoID int, lang string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	srt, ok := c.entries[c.key(videoID, lang)]
	return srt, ok, nil
}

func TestLoad(t *testing.T) {
	backend := &fakeBackend{texts: map[string]string{"zh": helloSRT}}
	cache := newMemCache()
	s := New(backend, WithCache(cache))

	res, err := s.Load(context.Background(), 42, "ZH", Primary)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Missing || len(res.Cues) != 2 || res.Cues[1].Text != "World" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Version != s.Version() {
		t.Errorf("result version %d, store version %d", res.Version, s.Version())
	}
	if got := s.Snapshot(Primary); len(got) != 2 {
		t.Errorf("slot holds %d cues", len(got))
	}
	if srt, ok, _ := cache.Get(42, "zh"); !ok || srt != helloSRT {
		t.Errorf("fetched text not cached: %q %v", srt, ok)
	}
}

func TestLoadMissingEmptiesSlot(t *testing.T) {
	backend := &fakeBackend{texts: map[string]string{}}
	s := New(backend)
	_, _ = s.Parse(Translation, helloSRT)

	res, err := s.Load(context.Background(), 42, "en", Translation)
	if err != nil {
		t.Fatalf("404 must not be an error: %v", err)
	}
	if !res.Missing || res.Cues == nil || len(res.Cues) != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
	if got := s.Snapshot(Translation); len(got) != 0 {
		t.Errorf("slot not emptied: %+v", got)
	}
}

func TestLoadFailureLeavesSlot(t *testing.T) {
	backend := &fakeBackend{fetchErr: &api.StatusError{StatusCode: 500}}
	s := New(backend)
	_, _ = s.Parse(Primary, helloSRT)
	before := s.Version()

	_, err := s.Load(context.Background(), 42, "zh", Primary)
	var statusErr *api.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected wrapped *api.StatusError, got %v", err)
	}
	if len(s.Snapshot(Primary)) != 2 || s.Version() != before {
		t.Error("failed load must leave the slot untouched")
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	s := New(&fakeBackend{})
	if _, err := s.Load(context.Background(), 1, "fr", Primary); !errors.Is(err, api.ErrUnsupportedLanguage) {
		t.Errorf("expected ErrUnsupportedLanguage, got %v", err)
	}
	if _, err := s.Load(context.Background(), 1, "zh", Slot("third")); err == nil {
		t.Error("expected error for unknown slot")
	}
	if _, err := New(nil).Load(context.Background(), 1, "zh", Primary); err == nil {
		t.Error("expected error without backend")
	}
}

func TestConcurrentLoadsLastResolvedWins(t *testing.T) {
	gate := make(chan struct{})
	backend := &fakeBackend{
		texts: map[string]string{"zh": helloSRT, "en": xySRT},
		gates: map[string]chan struct{}{"zh": gate},
	}
	s := New(backend)

	var slow LoadResult
	done := make(chan struct{})
	go func() {
		defer close(done)
		slow, _ = s.Load(context.Background(), 1, "zh", Primary)
	}()

	fast, err := s.Load(context.Background(), 1, "en", Primary)
	if err != nil {
		t.Fatalf("Load(en): %v", err)
	}
	if got := s.Snapshot(Primary)[0].Text; got != "X" {
		t.Fatalf("after fast load slot holds %q", got)
	}

	close(gate)
	<-done

	if got := s.Snapshot(Primary)[0].Text; got != "Hello" {
		t.Errorf("slot holds %q, want the last resolved load", got)
	}
	if slow.Version <= fast.Version {
		t.Errorf("versions do not reflect resolution order: slow %d fast %d", slow.Version, fast.Version)
	}
}

func TestLoadCached(t *testing.T) {
	if _, err := New(nil).LoadCached(1, "zh", Primary); !errors.Is(err, ErrNoCache) {
		t.Errorf("expected ErrNoCache, got %v", err)
	}

	cache := newMemCache()
	_ = cache.Put(5, "zh", helloSRT)
	s := New(nil, WithCache(cache))

	res, err := s.LoadCached(5, "zh", Primary)
	if err != nil {
		t.Fatalf("LoadCached: %v", err)
	}
	if len(res.Cues) != 2 || res.Missing {
		t.Errorf("unexpected result: %+v", res)
	}

	res, err = s.LoadCached(5, "en", Translation)
	if err != nil || !res.Missing {
		t.Errorf("expected Missing for uncached track, got %+v, %v", res, err)
	}
}

func TestParseReportsSkipped(t *testing.T) {
	s := New(nil)
	res, err := s.Parse(Primary, helloSRT+"3\nbroken\n\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Cues) != 2 || res.Skipped != 1 {
		t.Errorf("Parse() = %d cues, %d skipped", len(res.Cues), res.Skipped)
	}
}

func TestEditing(t *testing.T) {
	s := New(nil)
	if err := s.Replace(Primary, []subtitle.Cue{{Start: 0, End: 1, Text: "a"}}); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if err := s.SetText(Primary, 0, "b"); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	if err := s.Edit(Primary, 0, func(c *subtitle.Cue) { c.End = 2 }); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	got := s.Snapshot(Primary)[0]
	if got.Text != "b" || got.End != 2 {
		t.Errorf("cue = %+v", got)
	}

	err := s.SetText(Primary, 3, "x")
	if err == nil || !strings.Contains(err.Error(), "index 3 out of range (0-0)") {
		t.Errorf("unexpected error: %v", err)
	}
	if err := s.SetText(Translation, 0, "x"); err == nil {
		t.Error("expected error on empty track")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := New(nil)
	cues := []subtitle.Cue{{Text: "a"}}
	_ = s.Replace(Primary, cues)
	cues[0].Text = "changed by caller"

	snap := s.Snapshot(Primary)
	if snap[0].Text != "a" {
		t.Error("Replace kept a reference to the caller's slice")
	}
	snap[0].Text = "changed by reader"
	if s.Snapshot(Primary)[0].Text != "a" {
		t.Error("Snapshot exposed the store's slice")
	}
}

func TestBilingualNeverSerializesEditingFlags(t *testing.T) {
	s := New(nil)
	_, _ = s.Parse(Primary, helloSRT)
	_, _ = s.Parse(Translation, "1\n00:00:00,000 --> 00:00:05,000\nX\n\n")
	if err := s.SetEditing(Primary, 1, true); err != nil {
		t.Fatalf("SetEditing: %v", err)
	}
	if err := s.SetEditing(Translation, 0, true); err != nil {
		t.Fatalf("SetEditing: %v", err)
	}

	pairs := s.Bilingual()
	if len(pairs) != 2 || pairs[0].Translation != "X" || pairs[1].Translation != "" {
		t.Fatalf("unexpected pairs: %+v", pairs)
	}
	if !pairs[1].Editing || !pairs[0].TranslationEditing || pairs[0].Editing {
		t.Errorf("editing flags not carried: %+v", pairs)
	}

	data, err := json.Marshal(pairs)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(strings.ToLower(string(data)), "editing") {
		t.Errorf("editing flags leaked: %s", data)
	}
	for _, slot := range []Slot{Primary, Translation} {
		if strings.Contains(strings.ToLower(s.Serialize(slot)), "editing") {
			t.Errorf("editing flags leaked into SRT")
		}
	}
}

func TestSerialize(t *testing.T) {
	s := New(nil)
	_, _ = s.Parse(Primary, helloSRT)
	if got := s.Serialize(Primary); got != helloSRT {
		t.Errorf("Serialize() = %q", got)
	}
	if got := s.Serialize(Translation); got != "" {
		t.Errorf("empty slot serialized to %q", got)
	}
}

func TestBuildExportVTT(t *testing.T) {
	s := New(nil)
	_, _ = s.Parse(Primary, helloSRT)
	_, _ = s.Parse(Translation, xySRT)

	tests := []struct {
		mode subtitle.Mode
		want []string
	}{
		{subtitle.ModePrimary, []string{"\nHello\n\n", "\nWorld\n\n"}},
		{subtitle.ModeTranslation, []string{"\nX\n\n", "\nY\n\n"}},
		{subtitle.ModeBoth, []string{"\nHello\nX\n\n", "\nWorld\nY\n\n"}},
	}
	for _, tt := range tests {
		got := s.BuildExportVTT(tt.mode)
		if !strings.HasPrefix(got, "WEBVTT\n\n") {
			t.Errorf("%s: missing header", tt.mode)
		}
		for _, want := range tt.want {
			if !strings.Contains(got, want) {
				t.Errorf("%s: missing %q in\n%s", tt.mode, want, got)
			}
		}
	}

	custom := s.BuildVTT(subtitle.ModePrimary, []subtitle.Cue{{Start: 0, End: 1, Text: "solo"}})
	if !strings.Contains(custom, "solo") {
		t.Errorf("BuildVTT ignored caller tracks: %q", custom)
	}
}

func TestResetAndSubscribe(t *testing.T) {
	s := New(nil)
	var mu sync.Mutex
	var events []Event
	unsubscribe := s.Subscribe(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
		// callbacks may read the store
		_ = s.Snapshot(Primary)
	})

	_, _ = s.Parse(Primary, helloSRT)
	_ = s.SetText(Primary, 0, "hi")
	s.Reset()

	if len(s.Snapshot(Primary)) != 0 || len(s.Snapshot(Translation)) != 0 {
		t.Error("Reset left cues behind")
	}

	unsubscribe()
	_ = s.Replace(Translation, nil)

	mu.Lock()
	defer mu.Unlock()
	wantKinds := []EventKind{EventParsed, EventEdited, EventReset}
	if len(events) != len(wantKinds) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(wantKinds), events)
	}
	for i, kind := range wantKinds {
		if events[i].Kind != kind {
			t.Errorf("event %d kind %q, want %q", i, events[i].Kind, kind)
		}
		if i > 0 && events[i].Version <= events[i-1].Version {
			t.Errorf("event %d version did not increase", i)
		}
	}
	if events[0].Slot != Primary || events[0].Len != 2 {
		t.Errorf("unexpected first event: %+v", events[0])
	}
}

func TestParseSlot(t *testing.T) {
	if slot, err := ParseSlot(" Translation "); err != nil || slot != Translation {
		t.Errorf("ParseSlot = %q, %v", slot, err)
	}
	if _, err := ParseSlot("both"); err == nil {
		t.Error("expected error")
	}
}
