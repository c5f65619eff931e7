package models

import (
	"slices"
	"time"
)

// Progress is the learning record embedded in a user
type Progress struct {
	Points           int         `json:"points"`
	CompletedLessons []int       `json:"completedLessons"`
	QuizScores       map[int]int `json:"quizScores"`
	CurrentStreak    int         `json:"currentStreak"`
	LongestStreak    int         `json:"longestStreak"`
	LastActiveOn     *time.Time  `json:"lastActiveOn,omitempty"`
	Badges           []string    `json:"badges"`
}

// NewProgress returns zero-valued progress with non-nil collections
func NewProgress() Progress {
	return Progress{
		CompletedLessons: []int{},
		QuizScores:       map[int]int{},
		Badges:           []string{},
	}
}

// Clone returns a deep copy
func (p Progress) Clone() Progress {
	c := p
	c.CompletedLessons = append([]int{}, p.CompletedLessons...)
	c.Badges = append([]string{}, p.Badges...)
	c.QuizScores = make(map[int]int, len(p.QuizScores))
	for k, v := range p.QuizScores {
		c.QuizScores[k] = v
	}
	if p.LastActiveOn != nil {
		d := *p.LastActiveOn
		c.LastActiveOn = &d
	}
	return c
}

// HasCompleted reports whether lessonID is in the completed set
func (p Progress) HasCompleted(lessonID int) bool {
	return slices.Contains(p.CompletedLessons, lessonID)
}

// HasBadge reports whether the badge was earned
func (p Progress) HasBadge(id string) bool {
	return slices.Contains(p.Badges, id)
}

// ProgressEventKind names what produced a ledger write
type ProgressEventKind string

const (
	EventLessonCompleted ProgressEventKind = "lesson_completed"
	EventQuizCompleted   ProgressEventKind = "quiz_completed"
)

// ProgressEvent is the idempotency record of one ledger write
type ProgressEvent struct {
	UserID    int
	EventID   string
	Kind      ProgressEventKind
	RefID     int
	Points    int
	CreatedAt time.Time
}

// ProgressDiff lists what a ledger write changed, so repositories touch only those rows
type ProgressDiff struct {
	AddedLessons []int
	QuizScores   map[int]int
	AddedBadges  []string
}

// QuizResultRequest records a quiz score computed by the client
type QuizResultRequest struct {
	PointsEarned int `json:"pointsEarned" validate:"min=0"`
}

// ProgressUpdate is returned by ledger-writing endpoints
type ProgressUpdate struct {
	Progress      Progress `json:"progress"`
	PointsAwarded int      `json:"pointsAwarded"`
	NewBadges     []string `json:"newBadges"`
	Applied       bool     `json:"applied"`
}
