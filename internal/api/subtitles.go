package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// receives upload progress as bytes sent out of total
type ProgressFunc func(sent, total int64)

// body of a successful upload call
type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

type csrfResponse struct {
	Token string `json:"csrf_token"`
}

type uploadRequest struct {
	SRTContent string `json:"srtContent"`
}

// CSRFToken asks the backend for a fresh CSRF token. The matching cookie
// lands in the client's jar. Every failure wraps ErrCSRF.
func (c *Client) CSRFToken(ctx context.Context) (string, error) {
	resp, err := c.get(ctx, "/api/get_csrf_token/", nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCSRF, err)
	}

	var out csrfResponse
	if err := decodeJSON(resp, &out); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCSRF, err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("%w: empty token", ErrCSRF)
	}
	return out.Token, nil
}

// FetchSubtitle returns the raw SRT text stored for a video and language.
// A 404 is reported as ErrNotFound.
func (c *Client) FetchSubtitle(ctx context.Context, videoID int, lang string) (string, error) {
	query := url.Values{"lang": {lang}}
	resp, err := c.get(ctx, "/api/subtitle/query/"+strconv.Itoa(videoID), query)
	if err != nil {
		return "", err
	}
	defer drainAndClose(resp.Body)

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read subtitle body: %w", err)
	}
	return string(body), nil
}

// UploadSubtitle stores SRT text for a video and language. The backend
// answers 200 or 201 with {success, message}; any other status is a
// *StatusError, an undecodable body is ErrInvalidResponse and
// success=false is a *RejectedError carrying the server message. A failed
// token request is ErrCSRF and means nothing was sent.
func (c *Client) UploadSubtitle(
	ctx context.Context,
	videoID int,
	lang, srt string,
	progress ProgressFunc,
) (*UploadResponse, error) {
	token, err := c.CSRFToken(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(uploadRequest{SRTContent: srt})
	if err != nil {
		return nil, fmt.Errorf("failed to encode upload body: %w", err)
	}

	query := url.Values{"lang": {lang}}
	endpoint := c.endpoint("/api/subtitle/upload/"+strconv.Itoa(videoID), query)

	body := &progressReader{
		r:        bytes.NewReader(payload),
		total:    int64(len(payload)),
		progress: progress,
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.ContentLength = int64(len(payload))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(payload)), nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRFToken", token)
	req.Header.Set("Referer", c.baseURL.String()+"/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach backend: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}

	var out UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if !out.Success {
		return &out, &RejectedError{Message: out.Message}
	}
	return &out, nil
}

// counts bytes as the transport reads the request body
type progressReader struct {
	r        io.Reader
	sent     int64
	total    int64
	progress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.progress != nil {
			p.progress(p.sent, p.total)
		}
	}
	return n, err
}
