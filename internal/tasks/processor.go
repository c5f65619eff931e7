package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// StreakResetter zeroes streaks of learners who skipped a day
type StreakResetter interface {
	ResetInactiveStreaks(ctx context.Context) (int, error)
}

// LeaderboardRebuilder reloads the cached leaderboard from the database
type LeaderboardRebuilder interface {
	Rebuild(ctx context.Context) (int, error)
}

// TokenCleaner deletes refresh tokens issued at or before expiryTime
type TokenCleaner interface {
	DeleteExpiredTokens(ctx context.Context, expiryTime time.Time) (int, error)
}

// Processor handles tasks in the worker
type Processor struct {
	sender      Sender
	streaks     StreakResetter
	leaderboard LeaderboardRebuilder
	tokens      TokenCleaner
	tokenMaxAge time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewProcessor creates a new task processor
func NewProcessor(sender Sender, streaks StreakResetter, leaderboard LeaderboardRebuilder, logger *zap.Logger) *Processor {
	return &Processor{
		sender:      sender,
		streaks:     streaks,
		leaderboard: leaderboard,
		logger:      logger,
		now:         time.Now,
	}
}

// WithTokenCleanup enables removal of refresh tokens older than maxAge
func (p *Processor) WithTokenCleanup(tokens TokenCleaner, maxAge time.Duration) *Processor {
	p.tokens = tokens
	p.tokenMaxAge = maxAge
	return p
}

// Register binds the handlers to mux
func (p *Processor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeEmail, p.HandleEmail)
	mux.HandleFunc(TypeStreakReset, p.HandleStreakReset)
	mux.HandleFunc(TypeLeaderboardRebuild, p.HandleLeaderboardRebuild)
	if p.tokens != nil {
		mux.HandleFunc(TypeTokenCleanup, p.HandleTokenCleanup)
	}
}

// HandleEmail renders and sends an e-mail. Malformed payloads are not retried.
func (p *Processor) HandleEmail(ctx context.Context, t *asynq.Task) error {
	var payload EmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid email payload: %v: %w", err, asynq.SkipRetry)
	}

	subject, body, err := Render(payload.Template, payload.Data)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := p.sender.Send(payload.To, subject, body); err != nil {
		p.logger.Warn("failed to send email",
			zap.String("template", string(payload.Template)),
			zap.Error(err),
		)
		return err
	}

	p.logger.Info("Email sent", zap.String("template", string(payload.Template)))
	return nil
}

// HandleStreakReset resets lapsed streaks
func (p *Processor) HandleStreakReset(ctx context.Context, _ *asynq.Task) error {
	n, err := p.streaks.ResetInactiveStreaks(ctx)
	if err != nil {
		return err
	}
	p.logger.Info("Streaks reset", zap.Int("users", n))
	return nil
}

// HandleLeaderboardRebuild reloads the leaderboard cache
func (p *Processor) HandleLeaderboardRebuild(ctx context.Context, _ *asynq.Task) error {
	n, err := p.leaderboard.Rebuild(ctx)
	if err != nil {
		return err
	}
	p.logger.Info("Leaderboard rebuilt", zap.Int("entries", n))
	return nil
}

// HandleTokenCleanup deletes expired refresh tokens
func (p *Processor) HandleTokenCleanup(ctx context.Context, _ *asynq.Task) error {
	n, err := p.tokens.DeleteExpiredTokens(ctx, p.now().Add(-p.tokenMaxAge))
	if err != nil {
		return err
	}
	p.logger.Info("Expired tokens deleted", zap.Int("tokens", n))
	return nil
}
