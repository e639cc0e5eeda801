package service

import (
	"errors"
	"fmt"
	"sync"

	"github.com/maheshrc27/composer-api/internal/models"
	"github.com/maheshrc27/composer-api/internal/transfer"
)

var (
	ErrUnknownPlatform = errors.New("unknown composer platform")
	ErrRowNotFound     = errors.New("row not found")
	ErrRowLocked       = errors.New("row already submitted")
)

// composerSession holds one user's draft row list and selection set for one
// platform variant. All access goes through mu; the row list and selection
// set are the only shared mutable state in the composer.
type composerSession struct {
	mu       sync.Mutex
	caps     models.PlatformCaps
	strategy *models.Strategy
	rows     []*models.Row
	selected map[string]struct{}
	report   *transfer.GenerationReport
}

type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*composerSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*composerSession)}
}

func sessionKey(userID int64, platform string) string {
	return fmt.Sprintf("%d:%s", userID, platform)
}

// get finds or creates the session for a user/platform pair.
func (s *SessionStore) get(userID int64, platform string) (*composerSession, error) {
	caps, ok := models.CapsFor(platform)
	if !ok {
		return nil, ErrUnknownPlatform
	}

	key := sessionKey(userID, platform)

	s.mu.RLock()
	session, exists := s.sessions[key]
	s.mu.RUnlock()
	if exists {
		return session, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if session, exists = s.sessions[key]; exists {
		return session, nil
	}

	session = &composerSession{
		caps:     caps,
		selected: make(map[string]struct{}),
	}
	s.sessions[key] = session
	return session, nil
}

// findRow returns the row and its index. Caller must hold session.mu.
func (c *composerSession) findRow(id string) (*models.Row, int) {
	for i, row := range c.rows {
		if row.ID == id {
			return row, i
		}
	}
	return nil, -1
}

func findIndex(rows []*models.Row, id string) int {
	for i, row := range rows {
		if row.ID == id {
			return i
		}
	}
	return -1
}

// submitted reports whether the row has left the draft/ready stage. Such
// rows are owned by the backend and no longer user-editable here.
func submitted(row *models.Row) bool {
	return row.Status != models.RowStatusDraft && row.Status != models.RowStatusReady
}

// recomputeStatus applies the readiness invariant: caption non-empty AND
// (media present OR a carousel with at least 2 images). Submitted rows are
// never touched.
func recomputeStatus(row *models.Row) {
	if submitted(row) {
		return
	}
	if row.Caption != "" && row.HasMedia() {
		row.Status = models.RowStatusReady
	} else {
		row.Status = models.RowStatusDraft
	}
}

// cloneRow copies a row for safe hand-out to callers.
func cloneRow(row *models.Row) *models.Row {
	clone := *row
	if row.CarouselImages != nil {
		clone.CarouselImages = append([]string(nil), row.CarouselImages...)
	}
	return &clone
}
