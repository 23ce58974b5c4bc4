// Package transcript fetches YouTube captions and video metadata from the
// caption-extractor service.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Result is everything the generation pipeline needs about a video.
type Result struct {
	Transcript       string
	VideoTitle       string
	VideoDescription string
}

// Source resolves a video ID into its transcript and metadata.
type Source interface {
	Fetch(ctx context.Context, videoID string) (Result, error)
}

// Options configures the HTTP caption-extractor client.
type Options struct {
	BaseURL    string
	Language   string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// HTTPSource talks to the caption-extractor sidecar over HTTP.
type HTTPSource struct {
	baseURL    string
	language   string
	httpClient *http.Client
}

// NewHTTPSource validates options and builds a client.
func NewHTTPSource(opts Options) (*HTTPSource, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("transcript: base url is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPSource{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		language:   opts.Language,
		httpClient: httpClient,
	}, nil
}

type subtitle struct {
	Start string `json:"start"`
	Dur   string `json:"dur"`
	Text  string `json:"text"`
}

type subtitlesResponse struct {
	Subtitles []subtitle `json:"subtitles"`
	Error     string     `json:"error"`
}

type videoDetailsResponse struct {
	VideoDetails struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"videoDetails"`
	Error string `json:"error"`
}

// Fetch retrieves subtitles and video details, joining the subtitle lines
// into one transcript string. An available video with no usable captions
// yields an empty Transcript, not an error; admission decides what to do
// with that.
func (s *HTTPSource) Fetch(ctx context.Context, videoID string) (Result, error) {
	var subs subtitlesResponse
	if err := s.getJSON(ctx, "/api/subtitles", videoID, &subs); err != nil {
		return Result{}, err
	}

	var details videoDetailsResponse
	if err := s.getJSON(ctx, "/api/videoDetails", videoID, &details); err != nil {
		return Result{}, err
	}

	parts := make([]string, 0, len(subs.Subtitles))
	for _, sub := range subs.Subtitles {
		if text := strings.TrimSpace(sub.Text); text != "" {
			parts = append(parts, text)
		}
	}

	return Result{
		Transcript:       strings.Join(parts, " "),
		VideoTitle:       details.VideoDetails.Title,
		VideoDescription: details.VideoDetails.Description,
	}, nil
}

func (s *HTTPSource) getJSON(ctx context.Context, path, videoID string, out interface{}) error {
	q := url.Values{"videoID": {videoID}}
	if s.language != "" {
		q.Set("lang", s.language)
	}
	endpoint := s.baseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("transcript: build request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transcript: %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("transcript: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := extractError(body)
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return fmt.Errorf("transcript: %s returned status %d: %s", path, resp.StatusCode, msg)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("transcript: decode %s response: %w", path, err)
	}
	return nil
}

func extractError(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Error
}
