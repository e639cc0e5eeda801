package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/h2non/filetype"
	"github.com/maheshrc27/composer-api/internal/backend"
	"github.com/maheshrc27/composer-api/internal/models"
	"github.com/maheshrc27/composer-api/internal/transfer"
)

type SubmissionService interface {
	Submit(ctx context.Context, userID int64, platform string, socialAccountID int64) (*transfer.SubmissionResult, error)
}

type submissionService struct {
	store  *SessionStore
	client *backend.Client
	now    func() time.Time
}

func NewSubmissionService(store *SessionStore, client *backend.Client) SubmissionService {
	return &submissionService{
		store:  store,
		client: client,
		now:    time.Now,
	}
}

// Submit takes every ready row, resolves its media into an embeddable
// representation, submits one batch call, and reconciles per-row status
// from the response. A transport-level failure leaves all rows at ready so
// the whole batch can be retried.
func (s *submissionService) Submit(ctx context.Context, userID int64, platform string, socialAccountID int64) (*transfer.SubmissionResult, error) {
	session, err := s.store.get(userID, platform)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	ready := make([]*models.Row, 0, len(session.rows))
	for _, row := range session.rows {
		if row.Status == models.RowStatusReady {
			ready = append(ready, cloneRow(row))
		}
	}
	session.mu.Unlock()

	if len(ready) == 0 {
		return nil, fmt.Errorf("no rows are ready to schedule")
	}

	payloads := make([]transfer.PostPayload, 0, len(ready))
	for _, row := range ready {
		payloads = append(payloads, s.buildPayload(ctx, row))
	}

	resp, err := s.client.BulkSchedule(ctx, userID, &transfer.BulkScheduleRequest{
		SocialAccountID: socialAccountID,
		Posts:           payloads,
	})
	if err != nil {
		// Rows stay ready; the user retries the whole batch.
		return nil, fmt.Errorf("batch submission failed: %w", err)
	}

	return s.reconcile(session, ready, resp), nil
}

// buildPayload resolves a row's media by priority: uploaded file, then
// generated/remote URL, then nothing but a caption-derived image prompt.
// Fetch failures degrade to sending the post without media.
func (s *submissionService) buildPayload(ctx context.Context, row *models.Row) transfer.PostPayload {
	payload := transfer.PostPayload{
		ClientRef:     row.ClientRef,
		Caption:       row.Caption,
		ScheduledDate: row.ScheduledDate,
		ScheduledTime: row.ScheduledTime,
		PostType:      row.PostType,
	}

	s.checkFutureDated(row)

	if row.PostType == models.PostTypeCarousel {
		for _, imageURL := range row.CarouselImages {
			dataURI, err := s.fetchAsDataURI(ctx, imageURL)
			if err != nil {
				slog.Info("carousel image fetch failed", "row_id", row.ID, "error", err.Error())
				continue
			}
			payload.CarouselImages = append(payload.CarouselImages, dataURI)
		}
		return payload
	}

	mediaURL := row.MediaURL
	if mediaURL == "" {
		mediaURL = row.GeneratedImageURL
	}

	if mediaURL != "" {
		dataURI, err := s.fetchAsDataURI(ctx, mediaURL)
		if err != nil {
			// Degrade to no media and let the backend's prompt-based
			// generation path take over.
			slog.Info("media resolution failed, sending without media", "row_id", row.ID, "error", err.Error())
			payload.ImagePrompt = truncatePrompt(row.Caption)
		} else {
			payload.MediaFile = dataURI
			payload.MediaFilename = row.MediaFilename
		}
	} else {
		payload.ImagePrompt = truncatePrompt(row.Caption)
	}

	if row.PostType == models.PostTypeReel && row.ThumbnailURL != "" {
		dataURI, err := s.fetchAsDataURI(ctx, row.ThumbnailURL)
		if err != nil {
			slog.Info("thumbnail fetch failed", "row_id", row.ID, "error", err.Error())
		} else {
			payload.ThumbnailFile = dataURI
		}
	}

	return payload
}

// fetchAsDataURI downloads a media URL and re-encodes it as a MIME-prefixed
// base64 data URI.
func (s *submissionService) fetchAsDataURI(ctx context.Context, mediaURL string) (string, error) {
	data, contentType, err := s.client.FetchMedia(ctx, mediaURL)
	if err != nil {
		return "", err
	}

	if contentType == "" || contentType == "application/octet-stream" {
		if kind, err := filetype.Match(data); err == nil && kind.MIME.Value != "" {
			contentType = kind.MIME.Value
		}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)), nil
}

// checkFutureDated logs past-dated rows. Advisory only: the row is still
// submitted and the backend decides what to do with it.
func (s *submissionService) checkFutureDated(row *models.Row) {
	scheduled, err := time.ParseInLocation(dateLayout+" 15:04", row.ScheduledDate+" "+row.ScheduledTime, slotZone)
	if err != nil {
		slog.Info("unparseable scheduled datetime", "row_id", row.ID, "error", err.Error())
		return
	}
	if scheduled.Before(s.now()) {
		slog.Warn("row is scheduled in the past, submitting anyway",
			"row_id", row.ID, "scheduled", scheduled.Format(time.RFC3339))
	}
}

// reconcile maps the backend's per-item results back onto the originating
// rows. The modern shape matches by client ref (falling back to index);
// the legacy results array matches by caption plus scheduled date.
func (s *submissionService) reconcile(session *composerSession, ready []*models.Row, resp *transfer.BulkScheduleResponse) *transfer.SubmissionResult {
	failures := make(map[string]string, len(resp.FailedPosts))

	if len(resp.Results) > 0 {
		for i := range ready {
			for _, item := range resp.Results {
				if item.Caption == ready[i].Caption && item.ScheduledDate == ready[i].ScheduledDate {
					if !item.Success {
						failures[ready[i].ID] = item.Error
					}
					break
				}
			}
		}
	} else {
		for _, item := range resp.FailedPosts {
			if item.ClientRef != "" {
				for i := range ready {
					if ready[i].ClientRef == item.ClientRef {
						failures[ready[i].ID] = item.Error
						break
					}
				}
			} else if item.Index >= 0 && item.Index < len(ready) {
				failures[ready[item.Index].ID] = item.Error
			}
		}
	}

	result := &transfer.SubmissionResult{Submitted: len(ready), Message: resp.Message}

	session.mu.Lock()
	defer session.mu.Unlock()
	for _, submittedRow := range ready {
		row, _ := session.findRow(submittedRow.ID)
		if row == nil {
			continue
		}
		if msg, failed := failures[row.ID]; failed {
			row.Status = models.RowStatusFailed
			row.Error = msg
			result.Failed++
		} else {
			row.Status = models.RowStatusScheduled
			row.Error = ""
			result.Scheduled++
		}
	}
	return result
}
