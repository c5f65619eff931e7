package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/lingoroots/backend/internal/models"
	"github.com/lingoroots/backend/internal/quizrunner"
)

// AttemptTTL bounds how long an unfinished attempt is kept
const AttemptTTL = 24 * time.Hour

const attemptUpdateRetries = 5

var errAttemptNotFound = fmt.Errorf("attempt %w", models.ErrNotFound)

// attemptStore keeps quiz attempts as JSON in Redis
type attemptStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAttemptStore creates a Redis backed attempt store
func NewAttemptStore(client *redis.Client) *attemptStore {
	return &attemptStore{client: client, ttl: AttemptTTL}
}

func attemptKey(id string) string {
	return "quiz_attempt:" + id
}

// Create stores a new attempt
func (s *attemptStore) Create(ctx context.Context, a *quizrunner.Attempt) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode attempt: %w", err)
	}
	ok, err := s.client.SetNX(ctx, attemptKey(a.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store attempt: %w", err)
	}
	if !ok {
		return fmt.Errorf("attempt %s: %w", a.ID, models.ErrConflict)
	}
	return nil
}

// Get loads an attempt
func (s *attemptStore) Get(ctx context.Context, id string) (*quizrunner.Attempt, error) {
	data, err := s.client.Get(ctx, attemptKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt: %w", err)
	}
	var a quizrunner.Attempt
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode attempt: %w", err)
	}
	return &a, nil
}

// Update applies fn to the stored attempt under WATCH, so two concurrent
// transitions of the same attempt cannot both succeed. An error from fn aborts
// without writing.
func (s *attemptStore) Update(ctx context.Context, id string, fn func(*quizrunner.Attempt) error) (*quizrunner.Attempt, error) {
	key := attemptKey(id)
	var updated *quizrunner.Attempt

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return errAttemptNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load attempt: %w", err)
		}

		var a quizrunner.Attempt
		if err := json.Unmarshal(data, &a); err != nil {
			return fmt.Errorf("failed to decode attempt: %w", err)
		}
		if err := fn(&a); err != nil {
			return err
		}

		encoded, err := json.Marshal(&a)
		if err != nil {
			return fmt.Errorf("failed to encode attempt: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, redis.KeepTTL)
			return nil
		})
		if err != nil {
			return err
		}
		updated = &a
		return nil
	}

	for i := 0; i < attemptUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("attempt %s changed concurrently: %w", id, models.ErrConflict)
}
