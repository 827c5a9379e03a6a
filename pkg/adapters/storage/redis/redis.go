package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aescanero/llmgate/pkg/domain/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	sessionKeyPrefix = "llmgate:session:"
	jobKeyPrefix     = "llmgate:job:"
)

// Store implements SessionStore and JobStore using Redis with JSON
// serialization and TTL.
type Store struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewStore creates a new Redis store. Records expire after ttl.
func NewStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// SaveSession persists a session transcript.
func (s *Store) SaveSession(ctx context.Context, sess *session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Debug("session saved",
		zap.String("session_id", sess.ID),
		zap.Int("messages", len(sess.Messages)))

	return nil
}

// LoadSession retrieves a session transcript.
func (s *Store) LoadSession(ctx context.Context, id string) (*session.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("session not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &sess, nil
}

// DeleteSession removes a session transcript.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.logger.Debug("session deleted", zap.String("session_id", id))
	return nil
}

// SessionExists checks whether a session exists.
func (s *Store) SessionExists(ctx context.Context, id string) (bool, error) {
	result, err := s.client.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return result > 0, nil
}

// ListSessions returns the IDs of all stored sessions.
func (s *Store) ListSessions(ctx context.Context) ([]string, error) {
	pattern := sessionKeyPrefix + "*"

	var cursor uint64
	var keys []string

	for {
		var batch []string
		var err error

		batch, cursor, err = s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}

		keys = append(keys, batch...)

		if cursor == 0 {
			break
		}
	}

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		if len(key) > len(sessionKeyPrefix) {
			ids = append(ids, key[len(sessionKeyPrefix):])
		}
	}

	return ids, nil
}

// SaveJob persists an asynchronous chat job.
func (s *Store) SaveJob(ctx context.Context, job *session.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := s.client.Set(ctx, jobKey(job.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	s.logger.Debug("job saved",
		zap.String("job_id", job.ID),
		zap.String("status", string(job.Status)))

	return nil
}

// LoadJob retrieves an asynchronous chat job.
func (s *Store) LoadJob(ctx context.Context, id string) (*session.Job, error) {
	data, err := s.client.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("job not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var job session.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// DeleteJob removes an asynchronous chat job.
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, jobKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func jobKey(id string) string {
	return jobKeyPrefix + id
}
