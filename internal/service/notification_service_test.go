package service

import (
	"fmt"
	"testing"

	"github.com/maheshrc27/composer-api/internal/models"
)

func TestNotificationsNewestFirst(t *testing.T) {
	svc := NewNotificationService()
	svc.Push(1, &models.Notification{Message: "first"})
	svc.Push(1, &models.Notification{Message: "second"})
	svc.Push(2, &models.Notification{Message: "other user"})

	list := svc.List(1)
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(list))
	}
	if list[0].Message != "second" || list[1].Message != "first" {
		t.Error("notifications should be listed newest first")
	}
	if list[0].ID == "" {
		t.Error("push should assign an id")
	}
	if list[0].CreatedAt.IsZero() {
		t.Error("push should stamp a creation time")
	}
}

func TestNotificationReadTracking(t *testing.T) {
	svc := NewNotificationService()
	svc.Push(1, &models.Notification{Message: "a"})
	svc.Push(1, &models.Notification{Message: "b"})

	if got := svc.UnreadCount(1); got != 2 {
		t.Fatalf("expected 2 unread, got %d", got)
	}

	id := svc.List(1)[0].ID
	if !svc.MarkRead(1, id) {
		t.Fatal("expected MarkRead to find the notification")
	}
	if got := svc.UnreadCount(1); got != 1 {
		t.Fatalf("expected 1 unread, got %d", got)
	}
	if svc.MarkRead(1, "missing") {
		t.Error("unknown id should not be marked read")
	}

	svc.MarkAllRead(1)
	if got := svc.UnreadCount(1); got != 0 {
		t.Fatalf("expected 0 unread after mark-all, got %d", got)
	}
}

func TestNotificationRetentionBound(t *testing.T) {
	svc := NewNotificationService()
	for i := 0; i < maxNotificationsPerUser+20; i++ {
		svc.Push(1, &models.Notification{Message: fmt.Sprintf("n%d", i)})
	}

	list := svc.List(1)
	if len(list) != maxNotificationsPerUser {
		t.Fatalf("expected retention bound %d, got %d", maxNotificationsPerUser, len(list))
	}
	if list[0].Message != fmt.Sprintf("n%d", maxNotificationsPerUser+19) {
		t.Error("newest notification should survive trimming")
	}
}
