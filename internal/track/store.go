// Package track holds the primary and translation subtitle tracks of one
// video context and mediates every load, edit, upload and export of them.
package track

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vidgo/vidsub/internal/api"
	"github.com/vidgo/vidsub/internal/logging"
	"github.com/vidgo/vidsub/internal/subtitle"
)

// names one of the two tracks a store holds
type Slot string

const (
	Primary     Slot = "primary"
	Translation Slot = "translation"
)

func ParseSlot(s string) (Slot, error) {
	switch Slot(strings.ToLower(strings.TrimSpace(s))) {
	case Primary:
		return Primary, nil
	case Translation:
		return Translation, nil
	default:
		return "", fmt.Errorf("unknown track slot %q: use primary or translation", s)
	}
}

var ErrNoCache = errors.New("track cache not configured")

// remote subtitle storage; *api.Client satisfies it
type Backend interface {
	FetchSubtitle(ctx context.Context, videoID int, lang string) (string, error)
	UploadSubtitle(
		ctx context.Context,
		videoID int,
		lang, srt string,
		progress api.ProgressFunc,
	) (*api.UploadResponse, error)
}

// local copy of raw SRT text; *cache.Cache satisfies it
type Cache interface {
	Put(videoID int, lang, srt string) error
	Get(videoID int, lang string) (string, bool, error)
}

// outcome of a Load or LoadCached call
type LoadResult struct {
	Cues    []subtitle.Cue
	Skipped int
	// the backend or cache had nothing for the pair; the slot is now empty
	Missing bool
	Version uint64
}

type Option func(*Store)

func WithCache(c Cache) Option {
	return func(s *Store) { s.cache = c }
}

func WithNotifier(fn NotifyFunc) Option {
	return func(s *Store) { s.notify = fn }
}

func WithProgress(fn ProgressFunc) Option {
	return func(s *Store) { s.progress = fn }
}

func WithLogger(l *logging.Logger) Option {
	return func(s *Store) { s.logger = logging.OrNop(l) }
}

// Store owns the two tracks of the current video context. All methods are
// safe for concurrent use; readers get copies. Concurrent loads into the
// same slot are not ordered: the last one to resolve wins.
type Store struct {
	backend  Backend
	cache    Cache
	notify   NotifyFunc
	progress ProgressFunc
	logger   *logging.Logger

	mu      sync.Mutex
	tracks  map[Slot]*trackState
	version uint64

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int

	uploads sync.WaitGroup
}

type trackState struct {
	cues    []subtitle.Cue
	editing []bool
}

// New builds an empty store. backend may be nil for stores that only parse,
// edit and export local text.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  logging.Nop(),
		tracks: map[Slot]*trackState{
			Primary:     {},
			Translation: {},
		},
		subs: make(map[int]func(Event)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load fetches a track from the backend and replaces slot with it. A 404
// empties the slot and reports Missing with a nil error. Any other failure
// leaves the slot untouched. Fetched text is written through to the cache.
func (s *Store) Load(ctx context.Context, videoID int, lang string, slot Slot) (LoadResult, error) {
	if err := checkSlot(slot); err != nil {
		return LoadResult{}, err
	}
	if s.backend == nil {
		return LoadResult{}, errors.New("no backend configured")
	}
	lang, err := api.ValidateLanguage(lang)
	if err != nil {
		return LoadResult{}, err
	}

	s.logger.Debugw("Fetching subtitle track", "video", videoID, "lang", lang, "slot", slot)

	text, err := s.backend.FetchSubtitle(ctx, videoID, lang)
	if errors.Is(err, api.ErrNotFound) {
		s.logger.Infow("No subtitle track on backend", "video", videoID, "lang", lang)
		version := s.replace(slot, []subtitle.Cue{}, EventLoaded)
		return LoadResult{Cues: []subtitle.Cue{}, Missing: true, Version: version}, nil
	}
	if err != nil {
		return LoadResult{}, fmt.Errorf("failed to load %s track: %w", slot, err)
	}

	if s.cache != nil {
		if err := s.cache.Put(videoID, lang, text); err != nil {
			s.logger.Warnw("Failed to cache subtitle track", "video", videoID, "lang", lang, "error", err)
		}
	}

	return s.load(slot, text, videoID, lang), nil
}

// LoadCached is Load against the local cache instead of the backend.
func (s *Store) LoadCached(videoID int, lang string, slot Slot) (LoadResult, error) {
	if err := checkSlot(slot); err != nil {
		return LoadResult{}, err
	}
	if s.cache == nil {
		return LoadResult{}, ErrNoCache
	}
	lang, err := api.ValidateLanguage(lang)
	if err != nil {
		return LoadResult{}, err
	}

	text, found, err := s.cache.Get(videoID, lang)
	if err != nil {
		return LoadResult{}, fmt.Errorf("failed to load cached %s track: %w", slot, err)
	}
	if !found {
		version := s.replace(slot, []subtitle.Cue{}, EventLoaded)
		return LoadResult{Cues: []subtitle.Cue{}, Missing: true, Version: version}, nil
	}
	return s.load(slot, text, videoID, lang), nil
}

func (s *Store) load(slot Slot, text string, videoID int, lang string) LoadResult {
	result := subtitle.ParseSRT(text)
	if result.Skipped > 0 {
		s.logger.Warnw("Skipped malformed subtitle blocks",
			"video", videoID, "lang", lang, "skipped", result.Skipped)
	}
	version := s.replace(slot, result.Cues, EventLoaded)
	return LoadResult{
		Cues:    subtitle.Clone(result.Cues),
		Skipped: result.Skipped,
		Version: version,
	}
}

// Parse replaces slot with the cues parsed from raw SRT text, as for a
// user-selected file.
func (s *Store) Parse(slot Slot, text string) (subtitle.ParseResult, error) {
	if err := checkSlot(slot); err != nil {
		return subtitle.ParseResult{}, err
	}
	result := subtitle.ParseSRT(text)
	s.replace(slot, result.Cues, EventParsed)
	return subtitle.ParseResult{Cues: subtitle.Clone(result.Cues), Skipped: result.Skipped}, nil
}

// Replace swaps the whole slot for a copy of cues.
func (s *Store) Replace(slot Slot, cues []subtitle.Cue) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	s.replace(slot, subtitle.Clone(cues), EventReplaced)
	return nil
}

func (s *Store) replace(slot Slot, cues []subtitle.Cue, kind EventKind) uint64 {
	s.mu.Lock()
	s.tracks[slot] = &trackState{cues: cues, editing: make([]bool, len(cues))}
	s.version++
	ev := Event{Slot: slot, Kind: kind, Version: s.version, Len: len(cues)}
	s.mu.Unlock()

	s.emit(ev)
	return ev.Version
}

// SetText replaces the text of cue i.
func (s *Store) SetText(slot Slot, i int, text string) error {
	return s.Edit(slot, i, func(c *subtitle.Cue) { c.Text = text })
}

// Edit applies fn to cue i in place.
func (s *Store) Edit(slot Slot, i int, fn func(*subtitle.Cue)) error {
	if err := checkSlot(slot); err != nil {
		return err
	}

	s.mu.Lock()
	ts := s.tracks[slot]
	if i < 0 || i >= len(ts.cues) {
		n := len(ts.cues)
		s.mu.Unlock()
		return indexError(i, n)
	}
	fn(&ts.cues[i])
	s.version++
	ev := Event{Slot: slot, Kind: EventEdited, Version: s.version, Len: len(ts.cues)}
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

// SetEditing toggles the presentation-only editing flag of cue i. It does
// not bump the version and is never serialized.
func (s *Store) SetEditing(slot Slot, i int, editing bool) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.tracks[slot]
	if i < 0 || i >= len(ts.editing) {
		return indexError(i, len(ts.editing))
	}
	ts.editing[i] = editing
	return nil
}

func indexError(i, n int) error {
	if n == 0 {
		return fmt.Errorf("index %d out of range: track is empty", i)
	}
	return fmt.Errorf("index %d out of range (0-%d)", i, n-1)
}

// Snapshot returns a copy of the slot's cues; never nil.
func (s *Store) Snapshot(slot Slot) []subtitle.Cue {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, ok := s.tracks[slot]
	if !ok {
		return []subtitle.Cue{}
	}
	return subtitle.Clone(ts.cues)
}

// Bilingual pairs the two tracks by index, carrying the editing flags.
func (s *Store) Bilingual() []subtitle.BilingualCue {
	s.mu.Lock()
	defer s.mu.Unlock()

	primary := s.tracks[Primary]
	translation := s.tracks[Translation]
	out := subtitle.Pair(primary.cues, translation.cues)
	for i := range out {
		out[i].Editing = primary.editing[i]
		if i < len(translation.editing) {
			out[i].TranslationEditing = translation.editing[i]
		}
	}
	return out
}

// Serialize renders the slot as SRT text.
func (s *Store) Serialize(slot Slot) string {
	return subtitle.SerializeSRT(s.Snapshot(slot))
}

// Reset empties both slots, as when leaving the video context. In-flight
// uploads are not affected.
func (s *Store) Reset() {
	s.mu.Lock()
	s.tracks = map[Slot]*trackState{
		Primary:     {},
		Translation: {},
	}
	s.version++
	ev := Event{Kind: EventReset, Version: s.version}
	s.mu.Unlock()

	s.emit(ev)
}

// Version increases on every mutation of either slot.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// BuildExportVTT renders the held tracks as WebVTT text. translation mode
// uses the translation slot as the first track.
func (s *Store) BuildExportVTT(mode subtitle.Mode) string {
	primary := s.Snapshot(Primary)
	translation := s.Snapshot(Translation)

	switch mode {
	case subtitle.ModeTranslation:
		return subtitle.BuildVTT(mode, translation)
	case subtitle.ModeBoth:
		return subtitle.BuildVTT(mode, primary, translation)
	default:
		return subtitle.BuildVTT(subtitle.ModePrimary, primary)
	}
}

// BuildVTT renders caller-supplied tracks without touching the store.
func (s *Store) BuildVTT(mode subtitle.Mode, tracks ...[]subtitle.Cue) string {
	return subtitle.BuildVTT(mode, tracks...)
}

func checkSlot(slot Slot) error {
	if slot != Primary && slot != Translation {
		return fmt.Errorf("unknown track slot %q", slot)
	}
	return nil
}
