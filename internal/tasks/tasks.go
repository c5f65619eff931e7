// Package tasks defines the background jobs run by the worker: e-mails and
// periodic maintenance of streaks, the leaderboard and refresh tokens.
package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeEmail              = "email:send"
	TypeStreakReset        = "maintenance:streak_reset"
	TypeLeaderboardRebuild = "maintenance:leaderboard_rebuild"
	TypeTokenCleanup       = "maintenance:token_cleanup"
)

// Queue names and their worker priorities
const (
	QueueEmail       = "email"
	QueueMaintenance = "maintenance"
)

// Queues is the asynq queue configuration of the worker
var Queues = map[string]int{
	QueueEmail:       5,
	QueueMaintenance: 1,
}

// EmailTemplate names a message layout
type EmailTemplate string

const (
	EmailWelcome       EmailTemplate = "welcome"
	EmailPasswordReset EmailTemplate = "password_reset"
	EmailAchievement   EmailTemplate = "achievement"
)

// EmailPayload is the body of an email:send task
type EmailPayload struct {
	To       string            `json:"to"`
	Template EmailTemplate     `json:"template"`
	Data     map[string]string `json:"data"`
}

// NewEmailTask wraps p into an asynq task on the email queue
func NewEmailTask(p EmailPayload) (*asynq.Task, error) {
	if p.To == "" {
		return nil, fmt.Errorf("email recipient is required")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode email payload: %w", err)
	}
	return asynq.NewTask(TypeEmail, data, asynq.Queue(QueueEmail), asynq.MaxRetry(5)), nil
}
