package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Kkibe/spin-and-win-to-mpesa/domain"

	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository holds the per-login session mirror in Redis. The key is
// an opaque session id carried by the cookie; the value is the
// password-stripped user projection plus the derived access token.
type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{
		client: client,
	}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func flashKey(sessionID string) string {
	return fmt.Sprintf("session:%s:flash", sessionID)
}

func (r *SessionRepository) Create(ctx context.Context, sessionID string, data domain.SessionData, ttl time.Duration) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(sessionID), jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in Redis: %w", err)
	}

	return nil
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (domain.SessionData, error) {
	val, err := r.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return domain.SessionData{}, ErrSessionNotFound
		}
		return domain.SessionData{}, fmt.Errorf("failed to get session from Redis: %w", err)
	}

	var data domain.SessionData
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return domain.SessionData{}, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	return data, nil
}

// Refresh overwrites the mirror's user projection with authoritative
// persisted values while keeping the token and issue time. The remaining
// TTL is preserved so a refresh never extends the absolute session life.
func (r *SessionRepository) Refresh(ctx context.Context, sessionID string, user domain.SessionUser) error {
	data, err := r.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	data.User = user

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(sessionID), jsonData, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("failed to refresh session in Redis: %w", err)
	}

	return nil
}

// Destroy removes a session and its pending flash message. Safe to call on
// a session that is already gone.
func (r *SessionRepository) Destroy(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID), flashKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}

	return nil
}

func (r *SessionRepository) SetFlash(ctx context.Context, sessionID string, msg domain.FlashMessage) error {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal flash message: %w", err)
	}

	// flash messages share the session's fate but never outlive a page cycle
	if err := r.client.Set(ctx, flashKey(sessionID), jsonData, 10*time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to store flash message: %w", err)
	}

	return nil
}

// TakeFlash reads and deletes the pending message in one round trip, so a
// message is delivered exactly once.
func (r *SessionRepository) TakeFlash(ctx context.Context, sessionID string) (*domain.FlashMessage, error) {
	val, err := r.client.GetDel(ctx, flashKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to take flash message: %w", err)
	}

	var msg domain.FlashMessage
	if err := json.Unmarshal([]byte(val), &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flash message: %w", err)
	}

	return &msg, nil
}
