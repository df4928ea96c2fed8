// README: Push notifications over FCM. Delivery is best effort: failures are
// logged, never propagated, and a missing device token is not an error.
package notify

import (
	"context"
	"sync"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"

	"fixnow/internal/types"
)

// TokenStore maps users to their current FCM device token.
type TokenStore interface {
	Token(ctx context.Context, userID types.ID) (string, error)
	SetToken(ctx context.Context, userID types.ID, token string) error
}

// MemoryTokenStore is good enough for a single process; device tokens are
// re-registered on every app start anyway.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[types.ID]string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[types.ID]string)}
}

func (s *MemoryTokenStore) Token(_ context.Context, userID types.ID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[userID], nil
}

func (s *MemoryTokenStore) SetToken(_ context.Context, userID types.ID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userID] = token
	return nil
}

type FCMNotifier struct {
	client *messaging.Client
	tokens TokenStore
	logger *zap.Logger
}

func NewFCMNotifier(client *messaging.Client, tokens TokenStore, logger *zap.Logger) *FCMNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FCMNotifier{client: client, tokens: tokens, logger: logger}
}

func (n *FCMNotifier) Notify(ctx context.Context, userID types.ID, title, body string, data map[string]string) {
	token, err := n.tokens.Token(ctx, userID)
	if err != nil || token == "" {
		n.logger.Debug("no device token for user", zap.String("user_id", string(userID)))
		return
	}
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	if _, err := n.client.Send(ctx, msg); err != nil {
		n.logger.Warn("push notification failed",
			zap.String("user_id", string(userID)), zap.Error(err))
	}
}

// LogNotifier stands in when FCM is not configured, e.g. local development.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, userID types.ID, title, body string, data map[string]string) {
	n.logger.Info("notification",
		zap.String("user_id", string(userID)),
		zap.String("title", title),
		zap.String("body", body),
		zap.Any("data", data),
	)
}
