package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"sync"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/composer-api/internal/backend"
	"github.com/maheshrc27/composer-api/internal/models"
	"github.com/maheshrc27/composer-api/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// rateLimitCooldown is honored between rows after the AI endpoint answers
// with HTTP 429.
const rateLimitCooldown = 10 * time.Second

type ComposerService interface {
	Session(userID int64, platform string) (*transfer.SessionView, error)
	GenerateRows(userID int64, platform string, strategy *models.Strategy) (*transfer.SessionView, error)
	AddRow(userID int64, platform string) (*models.Row, error)
	EditCell(userID int64, platform, rowID, field, value string) (*models.Row, error)
	ToggleSelect(userID int64, platform, rowID string) ([]string, error)
	SelectAll(userID int64, platform string) ([]string, error)
	Reorder(userID int64, platform, sourceID, targetID string) error
	BulkDelete(userID int64, platform string, rowIDs []string) error
	DuplicateRow(userID int64, platform, rowID string) (*models.Row, error)
	UploadMedia(ctx context.Context, userID int64, platform, rowID string, file *multipart.FileHeader) (*models.Row, error)
	UploadCarousel(ctx context.Context, userID int64, platform, rowID string, files []*multipart.FileHeader) (*models.Row, error)
	UploadThumbnail(ctx context.Context, userID int64, platform, rowID string, file *multipart.FileHeader) (*models.Row, error)
	GenerateCaptions(ctx context.Context, userID int64, platform string, rowIDs []string) (*transfer.GenerationReport, error)
	GenerateImages(ctx context.Context, userID int64, platform string, rowIDs []string) (*transfer.GenerationReport, error)
	ReconcileStatuses(userID int64, platform string, posts []*models.ScheduledPost)
}

type composerService struct {
	store       *SessionStore
	captions    CaptionProvider
	images      ImageProvider
	r2          *R2Service
	concurrency int
	now         func() time.Time
}

func NewComposerService(store *SessionStore, captions CaptionProvider, images ImageProvider, r2 *R2Service, concurrency int) ComposerService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &composerService{
		store:       store,
		captions:    captions,
		images:      images,
		r2:          r2,
		concurrency: concurrency,
		now:         time.Now,
	}
}

func (s *composerService) Session(userID int64, platform string) (*transfer.SessionView, error) {
	session, err := s.store.get(userID, platform)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	return snapshot(platform, session), nil
}

// GenerateRows expands the strategy and replaces the whole row list. Any
// in-progress edits to individual rows are discarded; callers warn before
// invoking this on a non-empty grid.
func (s *composerService) GenerateRows(userID int64, platform string, strategy *models.Strategy) (*transfer.SessionView, error) {
	session, err := s.store.get(userID, platform)
	if err != nil {
		return nil, err
	}

	if strategy.PostType == models.PostTypeCarousel && strategy.CarouselImageCount == 0 {
		strategy.CarouselImageCount = models.CarouselMaxImages
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	rows, err := GenerateRows(strategy, session.caps, s.now())
	if err != nil {
		return nil, err
	}

	session.strategy = strategy
	session.rows = rows
	session.selected = make(map[string]struct{})
	session.report = nil

	return snapshot(platform, session), nil
}

func (s *composerService) AddRow(userID int64, platform string) (*models.Row, error) {
	session, err := s.store.get(userID, platform)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	strategy := session.strategy
	if strategy == nil {
		strategy = &models.Strategy{PostType: models.PostTypePhoto, TimeSlot: "09:00"}
	}

	today := s.now().In(slotZone)
	row, err := newDraftRow(strategy, today)
	if err != nil {
		return nil, err
	}

	session.rows = append(session.rows, row)
	return cloneRow(row), nil
}

func (s *composerService) EditCell(userID int64, platform, rowID, field, value string) (*models.Row, error) {
	session, err := s.store.get(userID, platform)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	row, _ := session.findRow(rowID)
	if row == nil {
		return nil, ErrRowNotFound
	}
	if submitted(row) {
		return nil, ErrRowLocked
	}

	switch field {
	case "caption":
		row.Caption = value
	case "scheduled_date":
		if _, err := time.ParseInLocation(dateLayout, value, slotZone); err != nil {
			return nil, fmt.Errorf("invalid scheduled date: %w", err)
		}
		row.ScheduledDate = value
	case "scheduled_time":
		if _, err := time.Parse("15:04", value); err != nil {
			return nil, fmt.Errorf("invalid scheduled time: %w", err)
		}
		row.ScheduledTime = value
	case "media_url":
		row.GeneratedImageURL = value
	case "thumbnail_url":
		row.ThumbnailURL = value
	default:
		return nil, fmt.Errorf("unknown field %q", field)
	}

	recomputeStatus(row)
	return cloneRow(row), nil
}

// ToggleSelect flips one row's membership in the selection set.
func (s *composerService) ToggleSelect(userID int64, platform, rowID string) ([]string, error) {
	session, err := s.store.get(userID, platform)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if row, _ := session.findRow(rowID); row == nil {
		return nil, ErrRowNotFound
	}

	if _, ok := session.selected[rowID]; ok {
		delete(session.selected, rowID)
	} else {
		session.selected[rowID] = struct{}{}
	}
	return selectedIDs(session), nil
}

// SelectAll selects every row, or clears the selection when every row is
// already selected.
func (s *composerService) SelectAll(userID int64, platform string) ([]string, error) {
	session, err := s.store.get(userID, platform)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if len(session.selected) == len(session.rows) && len(session.rows) > 0 {
		session.selected = make(map[string]struct{})
	} else {
		for _, row := range session.rows {
			session.selected[row.ID] = struct{}{}
		}
	}
	return selectedIDs(session), nil
}

func (s *composerService) Reorder(userID int64, platform, sourceID, targetID string) error {
	session, err := s.store.get(userID, platform)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	source, sourceIdx := session.findRow(sourceID)
	if source == nil {
		return ErrRowNotFound
	}
	_, targetIdx := session.findRow(targetID)
	if targetIdx < 0 {
		return ErrRowNotFound
	}
	if sourceIdx == targetIdx {
		return nil
	}

	rows := append(session.rows[:sourceIdx], session.rows[sourceIdx+1:]...)
	targetIdx = findIndex(rows, targetID)
	inserted := make([]*models.Row, 0, len(rows)+1)
	inserted = append(inserted, rows[:targetIdx]...)
	inserted = append(inserted, source)
	inserted = append(inserted, rows[targetIdx:]...)
	session.rows = inserted
	return nil
}

func (s *composerService) BulkDelete(userID int64, platform string, rowIDs []string) error {
	session, err := s.store.get(userID, platform)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	drop := make(map[string]struct{}, len(rowIDs))
	for _, id := range rowIDs {
		drop[id] = struct{}{}
	}

	kept := session.rows[:0]
	for _, row := range session.rows {
		if _, ok := drop[row.ID]; ok {
			delete(session.selected, row.ID)
			continue
		}
		kept = append(kept, row)
	}
	session.rows = kept
	return nil
}

// DuplicateRow clones a row under a new id with its scheduled date reset to
// today. Status and media are copied as-is.
func (s *composerService) DuplicateRow(userID int64, platform, rowID string) (*models.Row, error) {
	session, err := s.store.get(userID, platform)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	row, idx := session.findRow(rowID)
	if row == nil {
		return nil, ErrRowNotFound
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	ref, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	clone := cloneRow(row)
	clone.ID = "row-" + id
	clone.ClientRef = ref
	clone.ScheduledDate = s.now().In(slotZone).Format(dateLayout)

	session.rows = append(session.rows, nil)
	copy(session.rows[idx+2:], session.rows[idx+1:])
	session.rows[idx+1] = clone
	return cloneRow(clone), nil
}

var allowedMediaTypes = map[string]struct{}{
	"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {},
}

func (s *composerService) UploadMedia(ctx context.Context, userID int64, platform, rowID string, file *multipart.FileHeader) (*models.Row, error) {
	session, err := s.store.get(userID, platform)
	if err != nil {
		return nil, err
	}
	if err := checkUploadTarget(session, rowID); err != nil {
		return nil, err
	}

	url, err := s.storeUpload(ctx, file)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	// Re-resolve: the row can be deleted or submitted while the upload
	// was in flight.
	row, _ := session.findRow(rowID)
	if row == nil {
		return nil, ErrRowNotFound
	}
	if submitted(row) {
		return nil, ErrRowLocked
	}

	row.MediaURL = url
	row.MediaFilename = file.Filename
	recomputeStatus(row)
	return cloneRow(row), nil
}

// checkUploadTarget rejects uploads for rows that do not exist or are no
// longer editable, before any bytes are stored.
func checkUploadTarget(session *composerSession, rowID string) error {
	session.mu.Lock()
	defer session.mu.Unlock()

	row, _ := session.findRow(rowID)
	if row == nil {
		return ErrRowNotFound
	}
	if submitted(row) {
		return ErrRowLocked
	}
	return nil
}

// UploadCarousel replaces a carousel row's image list. The whole batch is
// validated before any upload; a count outside the configured bounds
// rejects everything and leaves the row unchanged.
func (s *composerService) UploadCarousel(ctx context.Context, userID int64, platform, rowID string, files []*multipart.FileHeader) (*models.Row, error) {
	session, err := s.store.get(userID, platform)
	if err != nil {
		return nil, err
	}

	if err := checkUploadTarget(session, rowID); err != nil {
		return nil, err
	}

	session.mu.Lock()
	configured := models.CarouselMaxImages
	if session.strategy != nil && session.strategy.CarouselImageCount > 0 {
		configured = session.strategy.CarouselImageCount
	}
	session.mu.Unlock()

	if err := checkCarouselBatch(len(files), configured); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(files))
	for _, file := range files {
		url, err := s.storeUpload(ctx, file)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	row, _ := session.findRow(rowID)
	if row == nil {
		return nil, ErrRowNotFound
	}
	if submitted(row) {
		return nil, ErrRowLocked
	}

	row.CarouselImages = urls
	recomputeStatus(row)
	return cloneRow(row), nil
}

func (s *composerService) UploadThumbnail(ctx context.Context, userID int64, platform, rowID string, file *multipart.FileHeader) (*models.Row, error) {
	session, err := s.store.get(userID, platform)
	if err != nil {
		return nil, err
	}
	if err := checkUploadTarget(session, rowID); err != nil {
		return nil, err
	}

	url, err := s.storeUpload(ctx, file)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	row, _ := session.findRow(rowID)
	if row == nil {
		return nil, ErrRowNotFound
	}
	if submitted(row) {
		return nil, ErrRowLocked
	}

	row.ThumbnailURL = url
	recomputeStatus(row)
	return cloneRow(row), nil
}

// checkCarouselBatch validates a carousel upload count against the row's
// configured image count.
func checkCarouselBatch(n, configured int) error {
	if n < models.CarouselMinImages || n > models.CarouselMaxImages || n > configured {
		return fmt.Errorf("carousel requires between %d and %d images, got %d", models.CarouselMinImages, configured, n)
	}
	return nil
}

func (s *composerService) storeUpload(ctx context.Context, file *multipart.FileHeader) (string, error) {
	fileContent, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("error opening file: %w", err)
	}
	defer fileContent.Close()

	fileBytes, err := io.ReadAll(fileContent)
	if err != nil {
		return "", fmt.Errorf("error reading file content: %w", err)
	}

	fileType, err := filetype.Match(fileBytes)
	if err != nil || fileType == types.Unknown {
		return "", fmt.Errorf("unsupported file type: %w", err)
	}
	if _, ok := allowedMediaTypes[fileType.Extension]; !ok {
		return "", fmt.Errorf("file type %s is not allowed", fileType.Extension)
	}

	key, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	if err := s.r2.UploadToR2(ctx, key, fileBytes, fileType.MIME.Value); err != nil {
		return "", fmt.Errorf("error uploading file: %w", err)
	}
	return s.r2.PublicURL(key), nil
}

// GenerateCaptions calls the caption provider once per row, bounded by the
// configured concurrency (default 1, sequential). Rows whose generation
// fails keep their caption; outcomes are aggregated into one report.
func (s *composerService) GenerateCaptions(ctx context.Context, userID int64, platform string, rowIDs []string) (*transfer.GenerationReport, error) {
	session, err := s.store.get(userID, platform)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	prompt := ""
	if session.strategy != nil {
		prompt = session.strategy.PromptTemplate
		if prompt == models.PromptTemplateCustom {
			prompt = session.strategy.CustomStrategyTemplate
		}
	}

	type target struct {
		id      string
		context string
	}
	targets := make([]target, 0, len(rowIDs))
	report := &transfer.GenerationReport{Requested: len(rowIDs)}
	for _, id := range rowIDs {
		row, _ := session.findRow(id)
		if row == nil || submitted(row) {
			report.Skipped++
			continue
		}
		targets = append(targets, target{
			id:      id,
			context: rowContext(row),
		})
	}
	session.mu.Unlock()

	var wg sync.WaitGroup
	var mu sync.Mutex
	semaphore := make(chan struct{}, s.concurrency)

	for _, t := range targets {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(t target) {
			defer wg.Done()
			defer func() { <-semaphore }()

			caption, err := s.captions.GenerateCaption(ctx, userID, prompt, t.context)
			if err != nil {
				slog.Info("caption generation failed", "row_id", t.id, "error", err.Error())
				mu.Lock()
				report.Failed++
				mu.Unlock()
				if errors.Is(err, backend.ErrRateLimited) {
					time.Sleep(rateLimitCooldown)
				}
				return
			}

			session.mu.Lock()
			if row, _ := session.findRow(t.id); row != nil && !submitted(row) {
				row.Caption = caption
				recomputeStatus(row)
			}
			session.mu.Unlock()

			mu.Lock()
			report.Succeeded++
			mu.Unlock()
		}(t)
	}
	wg.Wait()

	session.mu.Lock()
	session.report = report
	session.mu.Unlock()
	return report, nil
}

// GenerateImages runs per-row image generation. Rows with empty captions
// are skipped; individual failures are logged and do not abort the batch.
func (s *composerService) GenerateImages(ctx context.Context, userID int64, platform string, rowIDs []string) (*transfer.GenerationReport, error) {
	session, err := s.store.get(userID, platform)
	if err != nil {
		return nil, err
	}

	type target struct {
		id     string
		prompt string
	}
	report := &transfer.GenerationReport{Requested: len(rowIDs)}

	session.mu.Lock()
	targets := make([]target, 0, len(rowIDs))
	for _, id := range rowIDs {
		row, _ := session.findRow(id)
		if row == nil || submitted(row) || row.Caption == "" {
			report.Skipped++
			continue
		}
		targets = append(targets, target{id: id, prompt: truncatePrompt(row.Caption)})
	}
	session.mu.Unlock()

	var wg sync.WaitGroup
	var mu sync.Mutex
	semaphore := make(chan struct{}, s.concurrency)

	for _, t := range targets {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(t target) {
			defer wg.Done()
			defer func() { <-semaphore }()

			url, err := s.images.GenerateImage(ctx, userID, t.prompt)
			if err != nil {
				slog.Info("image generation failed", "row_id", t.id, "error", err.Error())
				mu.Lock()
				report.Failed++
				mu.Unlock()
				if errors.Is(err, backend.ErrRateLimited) {
					time.Sleep(rateLimitCooldown)
				}
				return
			}

			session.mu.Lock()
			if row, _ := session.findRow(t.id); row != nil && !submitted(row) {
				row.GeneratedImageURL = url
				recomputeStatus(row)
			}
			session.mu.Unlock()

			mu.Lock()
			report.Succeeded++
			mu.Unlock()
		}(t)
	}
	wg.Wait()

	session.mu.Lock()
	session.report = report
	session.mu.Unlock()
	return report, nil
}

// ReconcileStatuses folds backend history records back into submitted rows.
// Match is caption plus scheduled date; duplicate captions on the same date
// misattribute, a known fragility until the backend echoes client refs on
// history records.
func (s *composerService) ReconcileStatuses(userID int64, platform string, posts []*models.ScheduledPost) {
	session, err := s.store.get(userID, platform)
	if err != nil {
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	for _, row := range session.rows {
		if !submitted(row) {
			continue
		}
		for _, post := range posts {
			if post.Caption != row.Caption || post.ScheduledAt.In(slotZone).Format(dateLayout) != row.ScheduledDate {
				continue
			}
			switch post.Status {
			case models.PostStatusPublished:
				row.Status = models.RowStatusPublished
			case models.PostStatusFailed:
				row.Status = models.RowStatusFailed
				row.Error = post.ErrorMessage
			}
			break
		}
	}
}

// rowContext is the human-readable per-row context passed to the caption
// provider. Caller must hold session.mu.
func rowContext(row *models.Row) string {
	d, err := time.ParseInLocation(dateLayout, row.ScheduledDate, slotZone)
	if err != nil {
		return fmt.Sprintf("%s post", row.PostType)
	}
	return fmt.Sprintf("%s post scheduled for %s", row.PostType, d.Format("Monday, January 2, 2006"))
}

func selectedIDs(session *composerSession) []string {
	ids := make([]string, 0, len(session.selected))
	for _, row := range session.rows {
		if _, ok := session.selected[row.ID]; ok {
			ids = append(ids, row.ID)
		}
	}
	return ids
}

func snapshot(platform string, session *composerSession) *transfer.SessionView {
	rows := make([]*models.Row, len(session.rows))
	for i, row := range session.rows {
		rows[i] = cloneRow(row)
	}
	return &transfer.SessionView{
		Platform: platform,
		Strategy: session.strategy,
		Rows:     rows,
		Selected: selectedIDs(session),
		Report:   session.report,
	}
}
