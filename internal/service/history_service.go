package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/maheshrc27/composer-api/internal/backend"
	"github.com/maheshrc27/composer-api/internal/models"
	"github.com/maheshrc27/composer-api/internal/transfer"
)

var (
	ErrPostNotFound    = errors.New("scheduled post not found")
	ErrPostNotEditable = errors.New("only scheduled posts can be edited or deleted")
	ErrConfirmRequired = errors.New("deletion requires confirmation")
)

type HistoryService interface {
	List(ctx context.Context, userID int64, platform string, query transfer.HistoryQuery) (*transfer.HistoryPage, error)
	Update(ctx context.Context, userID, postID int64, platform string, upd *transfer.PostUpdate) error
	Delete(ctx context.Context, userID, postID int64, platform string, confirm bool) error
	Refresh(ctx context.Context, userID int64, platform string) ([]*models.ScheduledPost, error)
}

type historyService struct {
	client *backend.Client

	mu    sync.Mutex
	cache map[string][]*models.ScheduledPost
}

func NewHistoryService(client *backend.Client) HistoryService {
	return &historyService{
		client: client,
		cache:  make(map[string][]*models.ScheduledPost),
	}
}

// Refresh fetches the user's history from the backend and updates the
// local cache used between fetches.
func (s *historyService) Refresh(ctx context.Context, userID int64, platform string) ([]*models.ScheduledPost, error) {
	posts, err := s.client.ListScheduled(ctx, userID, platform)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[sessionKey(userID, platform)] = posts
	s.mu.Unlock()
	return posts, nil
}

// List fetches history and applies client-side search, single-field sort,
// and fixed-size pagination. The page size follows the platform variant.
func (s *historyService) List(ctx context.Context, userID int64, platform string, query transfer.HistoryQuery) (*transfer.HistoryPage, error) {
	caps, ok := models.CapsFor(platform)
	if !ok {
		return nil, ErrUnknownPlatform
	}

	posts, err := s.Refresh(ctx, userID, platform)
	if err != nil {
		// Serve the last good fetch if the backend is unreachable.
		s.mu.Lock()
		cached, ok := s.cache[sessionKey(userID, platform)]
		s.mu.Unlock()
		if !ok {
			return nil, err
		}
		slog.Info("serving cached history", "user_id", userID, "error", err.Error())
		posts = cached
	}

	filtered := filterPosts(posts, query.Search)
	sortPosts(filtered, query.SortBy, query.SortDir)

	pageSize := caps.PageSize
	totalItems := len(filtered)
	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > totalItems {
		start = totalItems
	}
	if end > totalItems {
		end = totalItems
	}

	return &transfer.HistoryPage{
		Posts:      filtered[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}, nil
}

// Update submits a full replacement object. Mirrors the backend rule that
// only posts still in the scheduled state may change; the backend remains
// the authority.
func (s *historyService) Update(ctx context.Context, userID, postID int64, platform string, upd *transfer.PostUpdate) error {
	post, err := s.findPost(ctx, userID, platform, postID)
	if err != nil {
		return err
	}
	if post.Status != models.PostStatusScheduled {
		return ErrPostNotEditable
	}

	scheduled, err := time.ParseInLocation(dateLayout+" 15:04", upd.ScheduledDate+" "+upd.ScheduledTime, slotZone)
	if err != nil {
		return fmt.Errorf("invalid scheduled datetime: %w", err)
	}

	req := &transfer.PostUpdateRequest{
		Caption:           upd.Caption,
		PostType:          upd.PostType,
		ScheduledDatetime: scheduled.Format(time.RFC3339),
	}
	if err := s.client.UpdatePost(ctx, userID, postID, req); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (s *historyService) Delete(ctx context.Context, userID, postID int64, platform string, confirm bool) error {
	if !confirm {
		return ErrConfirmRequired
	}

	post, err := s.findPost(ctx, userID, platform, postID)
	if err != nil {
		return err
	}
	if post.Status != models.PostStatusScheduled {
		return ErrPostNotEditable
	}

	if err := s.client.DeletePost(ctx, userID, postID); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (s *historyService) findPost(ctx context.Context, userID int64, platform string, postID int64) (*models.ScheduledPost, error) {
	posts, err := s.Refresh(ctx, userID, platform)
	if err != nil {
		return nil, err
	}
	for _, post := range posts {
		if post.ID == postID {
			return post, nil
		}
	}
	return nil, ErrPostNotFound
}

// filterPosts keeps posts whose caption, status, or type contains the
// search term, case-insensitively.
func filterPosts(posts []*models.ScheduledPost, search string) []*models.ScheduledPost {
	if search == "" {
		return append([]*models.ScheduledPost(nil), posts...)
	}

	term := strings.ToLower(search)
	filtered := make([]*models.ScheduledPost, 0, len(posts))
	for _, post := range posts {
		if strings.Contains(strings.ToLower(post.Caption), term) ||
			strings.Contains(strings.ToLower(post.Status), term) ||
			strings.Contains(strings.ToLower(post.PostType), term) {
			filtered = append(filtered, post)
		}
	}
	return filtered
}

func sortPosts(posts []*models.ScheduledPost, sortBy, sortDir string) {
	desc := sortDir == "desc"

	less := func(a, b *models.ScheduledPost) bool {
		switch sortBy {
		case "caption":
			return a.Caption < b.Caption
		case "status":
			return a.Status < b.Status
		case "post_type":
			return a.PostType < b.PostType
		default:
			return a.ScheduledAt.Before(b.ScheduledAt)
		}
	}

	sort.SliceStable(posts, func(i, j int) bool {
		if desc {
			return less(posts[j], posts[i])
		}
		return less(posts[i], posts[j])
	})
}
