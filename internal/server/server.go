// Package server exposes the tracks of backend videos over HTTP so players
// can point a <track> element at a URL instead of a local file.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vidgo/vidsub/internal/api"
	"github.com/vidgo/vidsub/internal/logging"
	"github.com/vidgo/vidsub/internal/subtitle"
	"github.com/vidgo/vidsub/internal/track"
)

const (
	contentTypeVTT = "text/vtt; charset=utf-8"
	contentTypeSRT = "application/x-subrip; charset=utf-8"

	shutdownTimeout = 10 * time.Second
)

type Option func(*Server)

func WithCache(c track.Cache) Option {
	return func(s *Server) { s.cache = c }
}

func WithLogger(l *logging.Logger) Option {
	return func(s *Server) { s.logger = logging.OrNop(l) }
}

// WithLanguages sets the languages used when a request names none.
func WithLanguages(primary, translation string) Option {
	return func(s *Server) {
		s.primaryLang = primary
		s.translationLang = translation
	}
}

// Server answers each request from a fresh track.Store over the backend,
// so requests never share track state.
type Server struct {
	backend         track.Backend
	cache           track.Cache
	logger          *logging.Logger
	primaryLang     string
	translationLang string
	router          chi.Router
}

func New(backend track.Backend, opts ...Option) *Server {
	s := &Server{
		backend:         backend,
		logger:          logging.Nop(),
		primaryLang:     "zh",
		translationLang: "en",
	}
	for _, o := range opts {
		o(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.requestLogger, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/videos/{id}", func(r chi.Router) {
		r.Get("/subtitles.vtt", s.handleVTT)
		r.Get("/subtitles.srt", s.handleSRT)
		r.Get("/cues", s.handleCues)
	})

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("Serving subtitles", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.logger.Infow("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

// GET /videos/{id}/subtitles.vtt?mode=&lang=&trans=
func (s *Server) handleVTT(w http.ResponseWriter, r *http.Request) {
	videoID, ok := s.videoID(w, r)
	if !ok {
		return
	}
	mode, err := subtitle.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	store := s.newStore()
	ctx := r.Context()

	if mode != subtitle.ModeTranslation {
		if !s.load(ctx, w, store, videoID, s.lang(r, "lang", s.primaryLang), track.Primary, true) {
			return
		}
	}
	if mode != subtitle.ModePrimary {
		// in both mode a missing translation just leaves the second lines empty
		required := mode == subtitle.ModeTranslation
		if !s.load(ctx, w, store, videoID, s.lang(r, "trans", s.translationLang), track.Translation, required) {
			return
		}
	}

	w.Header().Set("Content-Type", contentTypeVTT)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(store.BuildExportVTT(mode)))
}

// GET /videos/{id}/subtitles.srt?lang=
func (s *Server) handleSRT(w http.ResponseWriter, r *http.Request) {
	videoID, ok := s.videoID(w, r)
	if !ok {
		return
	}

	store := s.newStore()
	if !s.load(r.Context(), w, store, videoID, s.lang(r, "lang", s.primaryLang), track.Primary, true) {
		return
	}

	w.Header().Set("Content-Type", contentTypeSRT)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(store.Serialize(track.Primary)))
}

type cuesResponse struct {
	VideoID     int                     `json:"video_id"`
	Lang        string                  `json:"lang"`
	Translation string                  `json:"translation_lang"`
	Cues        []subtitle.BilingualCue `json:"cues"`
}

// GET /videos/{id}/cues?lang=&trans=
func (s *Server) handleCues(w http.ResponseWriter, r *http.Request) {
	videoID, ok := s.videoID(w, r)
	if !ok {
		return
	}

	lang := s.lang(r, "lang", s.primaryLang)
	trans := s.lang(r, "trans", s.translationLang)
	store := s.newStore()
	ctx := r.Context()

	if !s.load(ctx, w, store, videoID, lang, track.Primary, true) {
		return
	}
	if !s.load(ctx, w, store, videoID, trans, track.Translation, false) {
		return
	}

	writeJSON(w, http.StatusOK, cuesResponse{
		VideoID:     videoID,
		Lang:        lang,
		Translation: trans,
		Cues:        store.Bilingual(),
	})
}

func (s *Server) newStore() *track.Store {
	opts := []track.Option{track.WithLogger(s.logger)}
	if s.cache != nil {
		opts = append(opts, track.WithCache(s.cache))
	}
	return track.New(s.backend, opts...)
}

// load fills slot and writes the error response itself when it returns false
func (s *Server) load(
	ctx context.Context,
	w http.ResponseWriter,
	store *track.Store,
	videoID int,
	lang string,
	slot track.Slot,
	required bool,
) bool {
	res, err := store.Load(ctx, videoID, lang, slot)
	switch {
	case errors.Is(err, api.ErrUnsupportedLanguage):
		errorJSON(w, http.StatusBadRequest, err.Error())
		return false
	case err != nil:
		s.logger.Warnw("Backend fetch failed", "video", videoID, "lang", lang, "error", err)
		errorJSON(w, http.StatusBadGateway, err.Error())
		return false
	case res.Missing && required:
		errorJSON(w, http.StatusNotFound, "no "+lang+" subtitles for video "+strconv.Itoa(videoID))
		return false
	}
	return true
}

func (s *Server) videoID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		errorJSON(w, http.StatusBadRequest, "invalid video id")
		return 0, false
	}
	return id, true
}

func (s *Server) lang(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Infow("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
