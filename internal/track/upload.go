package track

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vidgo/vidsub/internal/api"
	"github.com/vidgo/vidsub/internal/subtitle"
)

// user-facing upload outcome messages
const (
	MsgUploadOK         = "Subtitles successfully uploaded."
	MsgUploadFailed     = "Failed to upload subtitles."
	MsgUploadInvalid    = "Subtitles uploaded but invalid server response."
	MsgUploadNetworkErr = "Network error occurred during subtitle upload."
	MsgUploadCSRF       = "Failed to upload subtitles: could not get a CSRF token."
)

// result of one upload, delivered exactly once per upload id
type Notification struct {
	UploadID string
	VideoID  int
	Lang     string
	OK       bool
	Message  string
	Err      error
}

type NotifyFunc func(Notification)

// reports upload progress in bytes
type ProgressFunc func(uploadID string, sent, total int64)

// Upload serializes cues and sends them to the backend in the background.
// It returns the upload id immediately; the outcome goes to the notifier
// and progress to the progress callback. Once started an upload is not
// cancelled by ctx. Wait blocks until all uploads have finished.
func (s *Store) Upload(ctx context.Context, videoID int, lang string, cues []subtitle.Cue) (string, error) {
	if s.backend == nil {
		return "", errors.New("no backend configured")
	}
	lang, err := api.ValidateLanguage(lang)
	if err != nil {
		return "", err
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	uploadID := id.String()
	srt := subtitle.SerializeSRT(cues)
	ctx = context.WithoutCancel(ctx)

	s.logger.Debugw("Uploading subtitle track",
		"upload", uploadID, "video", videoID, "lang", lang, "cues", len(cues))

	s.uploads.Add(1)
	go func() {
		defer s.uploads.Done()
		s.runUpload(ctx, uploadID, videoID, lang, srt)
	}()

	return uploadID, nil
}

// UploadSlot uploads the current contents of slot.
func (s *Store) UploadSlot(ctx context.Context, videoID int, lang string, slot Slot) (string, error) {
	if err := checkSlot(slot); err != nil {
		return "", err
	}
	return s.Upload(ctx, videoID, lang, s.Snapshot(slot))
}

// Wait blocks until every upload started so far has reported its outcome.
func (s *Store) Wait() {
	s.uploads.Wait()
}

func (s *Store) runUpload(ctx context.Context, uploadID string, videoID int, lang, srt string) {
	var progress api.ProgressFunc
	if s.progress != nil {
		progress = func(sent, total int64) { s.progress(uploadID, sent, total) }
	}

	_, err := s.backend.UploadSubtitle(ctx, videoID, lang, srt, progress)

	n := Notification{
		UploadID: uploadID,
		VideoID:  videoID,
		Lang:     lang,
		OK:       err == nil,
		Message:  uploadMessage(err),
		Err:      err,
	}

	if err != nil {
		s.logger.Warnw("Subtitle upload failed", "upload", uploadID, "video", videoID, "error", err)
	} else {
		s.logger.Infow("Subtitle upload complete", "upload", uploadID, "video", videoID, "lang", lang)
		if s.cache != nil {
			if err := s.cache.Put(videoID, lang, srt); err != nil {
				s.logger.Warnw("Failed to cache uploaded track", "video", videoID, "error", err)
			}
		}
	}

	if s.notify != nil {
		s.notify(n)
	}
}

func uploadMessage(err error) string {
	if err == nil {
		return MsgUploadOK
	}

	var rejected *api.RejectedError
	var status *api.StatusError
	switch {
	case errors.Is(err, api.ErrCSRF):
		return MsgUploadCSRF
	case errors.As(err, &rejected):
		if rejected.Message != "" {
			return rejected.Message
		}
		return MsgUploadFailed
	case errors.Is(err, api.ErrInvalidResponse):
		return MsgUploadInvalid
	case errors.As(err, &status):
		return fmt.Sprintf("%s Status: %d", MsgUploadFailed, status.StatusCode)
	default:
		return MsgUploadNetworkErr
	}
}
