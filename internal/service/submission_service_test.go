package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/maheshrc27/composer-api/internal/backend"
	"github.com/maheshrc27/composer-api/internal/models"
	"github.com/maheshrc27/composer-api/internal/transfer"
)

type staticTokens struct{}

func (staticTokens) Token(ctx context.Context, userID int64) (string, error) { return "test-token", nil }
func (staticTokens) Clear(ctx context.Context, userID int64) error           { return nil }

func newTestSubmission(backendURL string, store *SessionStore) *submissionService {
	return &submissionService{
		store:  store,
		client: backend.NewClient(backendURL, staticTokens{}),
		now:    func() time.Time { return testNow },
	}
}

func readyRow(id, caption string) *models.Row {
	row := photoRow(id)
	row.Caption = caption
	row.Status = models.RowStatusReady
	return row
}

func TestSubmitPartialFailure(t *testing.T) {
	var gotReq transfer.BulkScheduleRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/posts/bulk_schedule" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("bad request body: %v", err)
			return
		}

		resp := transfer.BulkScheduleResponse{
			Success: true,
			Message: "2 of 3 scheduled",
			FailedPosts: []transfer.FailedPostItem{
				{ClientRef: gotReq.Posts[1].ClientRef, Error: "caption rejected"},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	store := NewSessionStore()
	rows := []*models.Row{readyRow("r1", "one"), readyRow("r2", "two"), readyRow("r3", "three")}
	seedRows(t, store, 1, "facebook", rows...)
	svc := newTestSubmission(srv.URL, store)

	result, err := svc.Submit(context.Background(), 1, "facebook", 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Submitted != 3 || result.Scheduled != 2 || result.Failed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if gotReq.SocialAccountID != 42 {
		t.Errorf("expected social account 42, got %d", gotReq.SocialAccountID)
	}

	if rows[0].Status != models.RowStatusScheduled {
		t.Errorf("r1: expected scheduled, got %s", rows[0].Status)
	}
	if rows[1].Status != models.RowStatusFailed || rows[1].Error != "caption rejected" {
		t.Errorf("r2: expected failed with message, got %s %q", rows[1].Status, rows[1].Error)
	}
	if rows[2].Status != models.RowStatusScheduled {
		t.Errorf("r3: expected scheduled, got %s", rows[2].Status)
	}
}

func TestSubmitLegacyResultsShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req transfer.BulkScheduleRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := transfer.BulkScheduleResponse{
			Results: []transfer.LegacyResultItem{
				{Success: true, Caption: req.Posts[0].Caption, ScheduledDate: req.Posts[0].ScheduledDate},
				{Success: false, Error: "duplicate post", Caption: req.Posts[1].Caption, ScheduledDate: req.Posts[1].ScheduledDate},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	store := NewSessionStore()
	rows := []*models.Row{readyRow("r1", "first"), readyRow("r2", "second")}
	seedRows(t, store, 1, "facebook", rows...)
	svc := newTestSubmission(srv.URL, store)

	result, err := svc.Submit(context.Background(), 1, "facebook", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Scheduled != 1 || result.Failed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if rows[0].Status != models.RowStatusScheduled {
		t.Errorf("r1: expected scheduled, got %s", rows[0].Status)
	}
	if rows[1].Status != models.RowStatusFailed || rows[1].Error != "duplicate post" {
		t.Errorf("r2: expected failed, got %s %q", rows[1].Status, rows[1].Error)
	}
}

func TestSubmitTransportFailureLeavesRowsReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := NewSessionStore()
	rows := []*models.Row{readyRow("r1", "one"), readyRow("r2", "two")}
	seedRows(t, store, 1, "facebook", rows...)
	svc := newTestSubmission(srv.URL, store)

	if _, err := svc.Submit(context.Background(), 1, "facebook", 7); err == nil {
		t.Fatal("expected error from failing backend")
	}
	for _, row := range rows {
		if row.Status != models.RowStatusReady {
			t.Errorf("%s: transport failure must leave rows ready, got %s", row.ID, row.Status)
		}
	}
}

func TestSubmitNoReadyRows(t *testing.T) {
	store := NewSessionStore()
	seedRows(t, store, 1, "facebook", photoRow("r1"))
	svc := newTestSubmission("http://127.0.0.1:0", store)

	if _, err := svc.Submit(context.Background(), 1, "facebook", 7); err == nil {
		t.Fatal("expected error when nothing is ready")
	}
}

func TestSubmitEmbedsUploadedMedia(t *testing.T) {
	var gotReq transfer.BulkScheduleRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/media/a.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("\x89PNG\r\n\x1a\nfakepixels"))
	})
	mux.HandleFunc("/api/posts/bulk_schedule", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(transfer.BulkScheduleResponse{Success: true})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := NewSessionStore()
	row := photoRow("r1")
	row.Caption = "with media"
	row.MediaURL = srv.URL + "/media/a.png"
	row.MediaFilename = "a.png"
	row.Status = models.RowStatusReady
	seedRows(t, store, 1, "facebook", row)
	svc := newTestSubmission(srv.URL, store)

	if _, err := svc.Submit(context.Background(), 1, "facebook", 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotReq.Posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(gotReq.Posts))
	}
	post := gotReq.Posts[0]
	if !strings.HasPrefix(post.MediaFile, "data:image/png;base64,") {
		t.Errorf("expected a png data URI, got %q", post.MediaFile[:min(40, len(post.MediaFile))])
	}
	if post.MediaFilename != "a.png" {
		t.Errorf("expected media filename, got %q", post.MediaFilename)
	}
	if post.ImagePrompt != "" {
		t.Error("rows with media must not carry an image prompt")
	}
}

func TestSubmitDegradesToImagePrompt(t *testing.T) {
	var gotReq transfer.BulkScheduleRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/media/gone.png", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/api/posts/bulk_schedule", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(transfer.BulkScheduleResponse{Success: true})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := NewSessionStore()
	row := photoRow("r1")
	row.Caption = "prompt source"
	row.MediaURL = srv.URL + "/media/gone.png"
	row.Status = models.RowStatusReady
	seedRows(t, store, 1, "facebook", row)
	svc := newTestSubmission(srv.URL, store)

	if _, err := svc.Submit(context.Background(), 1, "facebook", 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	post := gotReq.Posts[0]
	if post.MediaFile != "" {
		t.Error("unreachable media must not be embedded")
	}
	if post.ImagePrompt != "prompt source" {
		t.Errorf("expected caption-derived image prompt, got %q", post.ImagePrompt)
	}
}
