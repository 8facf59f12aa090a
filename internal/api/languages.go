package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// language codes the backend stores subtitles under
var SupportedLanguages = []string{"en", "zh", "jp", "system_define"}

// one audio/subtitle language available for a video
type LanguageTrack struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type"` // original or tts
	URL  string `json:"url"`
}

type languagesResponse struct {
	Success bool `json:"success"`
	Data    struct {
		VideoID   int             `json:"video_id"`
		VideoName string          `json:"video_name"`
		Languages []LanguageTrack `json:"languages"`
	} `json:"data"`
	Error string `json:"error"`
}

// ValidateLanguage lower-cases code and checks it against SupportedLanguages.
func ValidateLanguage(code string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(code))
	for _, lang := range SupportedLanguages {
		if normalized == lang {
			return normalized, nil
		}
	}
	return "", fmt.Errorf(
		"%w %q: use one of %s",
		ErrUnsupportedLanguage,
		code,
		strings.Join(SupportedLanguages, ", "),
	)
}

// Languages lists the language tracks the backend knows for a video.
func (c *Client) Languages(ctx context.Context, videoID int) ([]LanguageTrack, error) {
	resp, err := c.get(ctx, "/api/video/"+strconv.Itoa(videoID)+"/languages", nil)
	if err != nil {
		return nil, err
	}

	var out languagesResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch language tracks: %w", err)
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "Failed to fetch language tracks"
		}
		return nil, &RejectedError{Message: msg}
	}
	if out.Data.Languages == nil {
		return []LanguageTrack{}, nil
	}
	return out.Data.Languages, nil
}
