package service

import (
	"sync"
	"time"

	"github.com/maheshrc27/composer-api/internal/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// maxNotificationsPerUser bounds in-memory retention per user; the oldest
// entries are dropped first.
const maxNotificationsPerUser = 100

type NotificationService interface {
	Push(userID int64, n *models.Notification)
	List(userID int64) []*models.Notification
	MarkRead(userID int64, notificationID string) bool
	MarkAllRead(userID int64)
	UnreadCount(userID int64) int
}

type notificationService struct {
	mu    sync.RWMutex
	byUID map[int64][]*models.Notification
}

func NewNotificationService() NotificationService {
	return &notificationService{byUID: make(map[int64][]*models.Notification)}
}

// Push implements backend.NotificationSink; called from the relay's read
// loop.
func (s *notificationService) Push(userID int64, n *models.Notification) {
	if n.ID == "" {
		if id, err := gonanoid.New(); err == nil {
			n.ID = id
		}
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := append(s.byUID[userID], n)
	if len(list) > maxNotificationsPerUser {
		list = list[len(list)-maxNotificationsPerUser:]
	}
	s.byUID[userID] = list
}

// List returns notifications newest first.
func (s *notificationService) List(userID int64) []*models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.byUID[userID]
	out := make([]*models.Notification, len(list))
	for i, n := range list {
		clone := *n
		out[len(list)-1-i] = &clone
	}
	return out
}

func (s *notificationService) MarkRead(userID int64, notificationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.byUID[userID] {
		if n.ID == notificationID {
			n.IsRead = true
			return true
		}
	}
	return false
}

func (s *notificationService) MarkAllRead(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.byUID[userID] {
		n.IsRead = true
	}
}

func (s *notificationService) UnreadCount(userID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.byUID[userID] {
		if !n.IsRead {
			count++
		}
	}
	return count
}
