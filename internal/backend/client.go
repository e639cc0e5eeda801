package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/maheshrc27/composer-api/internal/models"
	"github.com/maheshrc27/composer-api/internal/transfer"
)

var (
	// ErrReauthRequired means the backend rejected the stored bearer token.
	// The token has already been cleared; the user must log in again.
	ErrReauthRequired = errors.New("backend authentication required")

	// ErrRateLimited maps HTTP 429 from the AI/upload endpoints.
	ErrRateLimited = errors.New("backend rate limited")
)

// TokenSource supplies a user's backend bearer token. Token is read fresh
// on every request so login/logout in another tab is picked up.
type TokenSource interface {
	Token(ctx context.Context, userID int64) (string, error)
	Clear(ctx context.Context, userID int64) error
}

// Client talks to the external scheduling backend. Three timeout classes:
// a short default, a longer one for AI/upload endpoints, and the longest
// for carousel generation.
type Client struct {
	baseURL  string
	tokens   TokenSource
	short    *http.Client
	media    *http.Client
	carousel *http.Client
}

func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL:  baseURL,
		tokens:   tokens,
		short:    &http.Client{Timeout: 15 * time.Second},
		media:    &http.Client{Timeout: 120 * time.Second},
		carousel: &http.Client{Timeout: 180 * time.Second},
	}
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, hc *http.Client, userID int64, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshalling payload: %w", err)
		}
		payload = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if userID != 0 {
		token, err := c.tokens.Token(ctx, userID)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("backend request error: %w", err)
	}
	defer resp.Body.Close()

	// A single bounded retry on 503, for non-mutating requests only.
	if resp.StatusCode == http.StatusServiceUnavailable && method == http.MethodGet {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		time.Sleep(time.Second)

		req2, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("error creating request: %w", err)
		}
		req2.Header = req.Header.Clone()
		resp, err = hc.Do(req2)
		if err != nil {
			return fmt.Errorf("backend request error: %w", err)
		}
		defer resp.Body.Close()
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if userID != 0 {
			if err := c.tokens.Clear(ctx, userID); err != nil {
				slog.Info(err.Error())
			}
		}
		return ErrReauthRequired
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode >= 400:
		respBody, _ := io.ReadAll(resp.Body)
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("backend error (status %d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("unexpected status code from backend: %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("error parsing backend response: %w", err)
		}
	}
	return nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*transfer.BackendLoginResponse, error) {
	var result transfer.BackendLoginResponse
	req := transfer.BackendLoginRequest{Email: email, Password: password}
	if err := c.do(ctx, c.short, 0, http.MethodPost, "/auth/login", req, &result); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if result.Token == "" {
		return nil, errors.New("no token returned from backend")
	}
	return &result, nil
}

// BulkSchedule submits one batch of posts. Carousel batches use the
// longest timeout class.
func (c *Client) BulkSchedule(ctx context.Context, userID int64, req *transfer.BulkScheduleRequest) (*transfer.BulkScheduleResponse, error) {
	hc := c.media
	for _, p := range req.Posts {
		if p.PostType == models.PostTypeCarousel {
			hc = c.carousel
			break
		}
	}

	var result transfer.BulkScheduleResponse
	if err := c.do(ctx, hc, userID, http.MethodPost, "/api/posts/bulk_schedule", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListScheduled(ctx context.Context, userID int64, platform string) ([]*models.ScheduledPost, error) {
	var posts []*models.ScheduledPost
	path := "/api/posts?platform=" + url.QueryEscape(platform)
	if err := c.do(ctx, c.short, userID, http.MethodGet, path, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) UpdatePost(ctx context.Context, userID, postID int64, upd *transfer.PostUpdateRequest) error {
	return c.do(ctx, c.short, userID, http.MethodPut, fmt.Sprintf("/api/posts/%d", postID), upd, nil)
}

func (c *Client) DeletePost(ctx context.Context, userID, postID int64) error {
	return c.do(ctx, c.short, userID, http.MethodDelete, fmt.Sprintf("/api/posts/%d", postID), nil, nil)
}

func (c *Client) GenerateCaption(ctx context.Context, userID int64, prompt, context string) (string, error) {
	var result transfer.CaptionGenerationResponse
	req := transfer.CaptionGenerationRequest{Prompt: prompt, Context: context}
	if err := c.do(ctx, c.media, userID, http.MethodPost, "/api/ai/caption", req, &result); err != nil {
		return "", err
	}
	if result.Caption == "" {
		return "", errors.New("no caption returned from backend")
	}
	return result.Caption, nil
}

func (c *Client) GenerateImage(ctx context.Context, userID int64, prompt string) (string, error) {
	var result transfer.ImageGenerationResponse
	req := transfer.ImageGenerationRequest{Prompt: prompt}
	if err := c.do(ctx, c.media, userID, http.MethodPost, "/api/ai/image", req, &result); err != nil {
		return "", err
	}
	if result.URL == "" {
		return "", errors.New("no image URL returned from backend")
	}
	return result.URL, nil
}

// FetchMedia downloads a media URL and returns its bytes plus the reported
// content type. Used by the submission pipeline to embed remote media.
func (c *Client) FetchMedia(ctx context.Context, mediaURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.media.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("media fetch error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status code fetching media: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("error reading media body: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
