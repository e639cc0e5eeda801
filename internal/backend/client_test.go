package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/maheshrc27/composer-api/internal/models"
	"github.com/maheshrc27/composer-api/internal/transfer"
)

type recordingTokens struct {
	cleared atomic.Bool
}

func (r *recordingTokens) Token(ctx context.Context, userID int64) (string, error) {
	return "stored-token", nil
}

func (r *recordingTokens) Clear(ctx context.Context, userID int64) error {
	r.cleared.Store(true)
	return nil
}

func TestUnauthorizedClearsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := &recordingTokens{}
	client := NewClient(srv.URL, tokens)

	_, err := client.ListScheduled(context.Background(), 1, "facebook")
	if !errors.Is(err, ErrReauthRequired) {
		t.Fatalf("expected ErrReauthRequired, got %v", err)
	}
	if !tokens.cleared.Load() {
		t.Error("401 must clear the stored token")
	}
}

func TestRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tokens := &recordingTokens{}
	client := NewClient(srv.URL, tokens)

	_, err := client.GenerateImage(context.Background(), 1, "a prompt")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if tokens.cleared.Load() {
		t.Error("429 must not clear the token")
	}
}

func TestServiceUnavailableRetriesGetOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode([]*models.ScheduledPost{{ID: 1, Caption: "ok"}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &recordingTokens{})
	posts, err := client.ListScheduled(context.Background(), 1, "facebook")
	if err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	if calls.Load() != 2 {
		t.Errorf("expected exactly 2 requests, got %d", calls.Load())
	}
}

func TestServiceUnavailableDoesNotRetryPost(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &recordingTokens{})
	_, err := client.BulkSchedule(context.Background(), 1, &transfer.BulkScheduleRequest{
		Posts: []transfer.PostPayload{{Caption: "x"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("POST must not be retried, got %d requests", calls.Load())
	}
}

func TestBackendErrorMessageSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "social account not connected"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &recordingTokens{})
	_, err := client.ListScheduled(context.Background(), 1, "facebook")
	if err == nil {
		t.Fatal("expected error")
	}
	if want := "social account not connected"; !strings.Contains(err.Error(), want) {
		t.Errorf("expected error to carry %q, got %q", want, err.Error())
	}
}

func TestLoginRequiresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("login must not send an authorization header")
		}
		json.NewEncoder(w).Encode(transfer.BackendLoginResponse{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &recordingTokens{})
	if _, err := client.Login(context.Background(), "a@b.com", "pw"); err == nil {
		t.Error("expected error when backend returns no token")
	}
}
