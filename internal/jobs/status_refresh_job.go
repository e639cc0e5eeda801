package job

import (
	"context"
	"log/slog"
	"sync"

	"github.com/maheshrc27/composer-api/internal/models"
	"github.com/maheshrc27/composer-api/internal/repository"
	"github.com/maheshrc27/composer-api/internal/service"
)

// StatusRefreshJob periodically re-fetches backend history for every user
// with a stored token and folds the authoritative statuses back into their
// composer sessions.
type StatusRefreshJob struct {
	tr repository.TokenRepository
	hs service.HistoryService
	cs service.ComposerService
}

func NewStatusRefreshJob(
	tr repository.TokenRepository,
	hs service.HistoryService,
	cs service.ComposerService) *StatusRefreshJob {
	return &StatusRefreshJob{
		tr: tr,
		hs: hs,
		cs: cs,
	}
}

func (j *StatusRefreshJob) RefreshStatuses() {
	ctx := context.Background()

	userIDs, err := j.tr.ListUserIDs(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, userID := range userIDs {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(userID int64) {
			defer wg.Done()
			defer func() { <-semaphore }()

			for _, platform := range []string{models.CapsFacebook.Platform, models.CapsInstagram.Platform} {
				posts, err := j.hs.Refresh(ctx, userID, platform)
				if err != nil {
					slog.Info("Unable to refresh history", "user_id", userID, "platform", platform)
					continue
				}
				j.cs.ReconcileStatuses(userID, platform, posts)
			}
		}(userID)
	}

	wg.Wait()
}
