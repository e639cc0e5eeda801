package backend

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/maheshrc27/composer-api/internal/models"
	"github.com/maheshrc27/composer-api/internal/transfer"
)

// NotificationSink receives notifications read off the backend socket.
type NotificationSink interface {
	Push(userID int64, n *models.Notification)
}

const relayBackoff = 5 * time.Second

// Relay keeps one websocket connection per logged-in user to the backend's
// notification stream and forwards notification messages to the sink.
// Reconnects with a fixed backoff until stopped.
type Relay struct {
	wsURL  string
	tokens TokenSource
	sink   NotificationSink

	mu      sync.Mutex
	cancels map[int64]context.CancelFunc
}

func NewRelay(wsURL string, tokens TokenSource, sink NotificationSink) *Relay {
	return &Relay{
		wsURL:   wsURL,
		tokens:  tokens,
		sink:    sink,
		cancels: make(map[int64]context.CancelFunc),
	}
}

func (r *Relay) Start(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cancels[userID]; exists {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancels[userID] = cancel
	go r.run(ctx, userID)
}

func (r *Relay) Stop(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cancel, exists := r.cancels[userID]; exists {
		cancel()
		delete(r.cancels, userID)
	}
}

func (r *Relay) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, cancel := range r.cancels {
		cancel()
		delete(r.cancels, userID)
	}
}

func (r *Relay) run(ctx context.Context, userID int64) {
	for {
		if err := r.connect(ctx, userID); err != nil {
			slog.Info("notification relay disconnected", "user_id", userID, "error", err.Error())
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(relayBackoff):
		}
	}
}

func (r *Relay) connect(ctx context.Context, userID int64) error {
	token, err := r.tokens.Token(ctx, userID)
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.wsURL, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	// The watcher must not outlive this connection, or every dropped
	// connection would strand one goroutine until logout.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var envelope transfer.WSEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			slog.Info(err.Error())
			continue
		}
		if envelope.Type != "notification" {
			continue
		}

		var n models.Notification
		if err := json.Unmarshal(envelope.Notification, &n); err != nil {
			slog.Info(err.Error())
			continue
		}
		n.UserID = userID
		r.sink.Push(userID, &n)
	}
}
