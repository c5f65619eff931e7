// Package quizrunner is the state machine of a single quiz attempt.
//
//	presenting(i) -> awaiting_submission -> answered -> presenting(i+1) | completed
//
// Every question is answered exactly once, in order. An attempt is a plain value
// that callers persist between transitions.
package quizrunner

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lingoroots/backend/internal/models"
)

// State of an attempt
type State string

const (
	StatePresenting         State = "presenting"
	StateAwaitingSubmission State = "awaiting_submission"
	StateAnswered           State = "answered"
	StateCompleted          State = "completed"
)

// ErrInvalidTransition is returned when an operation is not allowed in the current state
var ErrInvalidTransition = errors.New("invalid quiz transition")

// Answer is the graded submission for one question
type Answer struct {
	QuestionID    int    `json:"questionId"`
	Given         string `json:"given"`
	Correct       bool   `json:"correct"`
	PointsAwarded int    `json:"pointsAwarded"`
}

// Attempt is one run through a quiz. Questions are a snapshot taken at start,
// so later edits of the quiz do not affect attempts in flight.
type Attempt struct {
	ID               string            `json:"id"`
	UserID           int               `json:"userId"`
	QuizID           int               `json:"quizId"`
	LanguageID       string            `json:"languageId"`
	LessonID         int               `json:"lessonId"`
	Questions        []models.Question `json:"questions"`
	PassingScore     *int              `json:"passingScore,omitempty"`
	State            State             `json:"state"`
	Index            int               `json:"index"`
	Score            int               `json:"score"`
	Answers          []Answer          `json:"answers"`
	ProgressRecorded bool              `json:"progressRecorded"`
	StartedAt        time.Time         `json:"startedAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	CompletedAt      *time.Time        `json:"completedAt,omitempty"`
}

// Feedback is returned by Submit
type Feedback struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
	Explanation   string `json:"explanation,omitempty"`
	PointsAwarded int    `json:"pointsAwarded"`
	Score         int    `json:"score"`
	IsLast        bool   `json:"isLast"`
}

// Result summarizes an attempt
type Result struct {
	Score         int     `json:"score"`
	Total         int     `json:"total"`
	Percentage    float64 `json:"percentage"`
	Passed        bool    `json:"passed"`
	Completed     bool    `json:"completed"`
	CorrectCount  int     `json:"correctCount"`
	QuestionCount int     `json:"questionCount"`
}

// Start creates an attempt for quiz. A quiz without questions is completed immediately.
func Start(id string, userID int, quiz models.Quiz, now time.Time) *Attempt {
	a := &Attempt{
		ID:           id,
		UserID:       userID,
		QuizID:       quiz.ID,
		LanguageID:   quiz.LanguageID,
		LessonID:     quiz.LessonID,
		Questions:    append([]models.Question{}, quiz.Questions...),
		PassingScore: quiz.PassingScore,
		State:        StatePresenting,
		Answers:      []Answer{},
		StartedAt:    now,
		UpdatedAt:    now,
	}
	if len(a.Questions) == 0 {
		a.complete(now)
	}
	return a
}

// Current returns the question at the cursor
func (a *Attempt) Current() (models.Question, bool) {
	if a.State == StateCompleted || a.Index >= len(a.Questions) {
		return models.Question{}, false
	}
	return a.Questions[a.Index], true
}

// Present shows the current question without its answer and waits for a submission.
// Presenting again while waiting returns the same question.
func (a *Attempt) Present(now time.Time) (models.QuestionView, error) {
	switch a.State {
	case StatePresenting, StateAwaitingSubmission:
	default:
		return models.QuestionView{}, fmt.Errorf("%w: cannot present in state %s", ErrInvalidTransition, a.State)
	}
	q, _ := a.Current()
	if a.State == StatePresenting {
		a.State = StateAwaitingSubmission
		a.UpdatedAt = now
	}
	return q.View(), nil
}

// Submit grades answer for the presented question. It can be called once per question.
func (a *Attempt) Submit(answer string, now time.Time) (Feedback, error) {
	if a.State != StateAwaitingSubmission {
		return Feedback{}, fmt.Errorf("%w: cannot submit in state %s", ErrInvalidTransition, a.State)
	}

	q, _ := a.Current()
	correct := IsCorrect(q, answer)
	awarded := 0
	if correct {
		awarded = q.Points
	}

	a.Score += awarded
	a.Answers = append(a.Answers, Answer{
		QuestionID:    q.ID,
		Given:         answer,
		Correct:       correct,
		PointsAwarded: awarded,
	})
	a.State = StateAnswered
	a.UpdatedAt = now

	return Feedback{
		Correct:       correct,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
		PointsAwarded: awarded,
		Score:         a.Score,
		IsLast:        a.Index == len(a.Questions)-1,
	}, nil
}

// Next advances past an answered question, completing the attempt after the last one
func (a *Attempt) Next(now time.Time) error {
	if a.State != StateAnswered {
		return fmt.Errorf("%w: cannot advance in state %s", ErrInvalidTransition, a.State)
	}
	a.Index++
	a.UpdatedAt = now
	if a.Index >= len(a.Questions) {
		a.complete(now)
		return nil
	}
	a.State = StatePresenting
	return nil
}

// Completed reports whether the attempt reached its final state
func (a *Attempt) Completed() bool {
	return a.State == StateCompleted
}

// TotalPoints is the sum of question points
func (a *Attempt) TotalPoints() int {
	total := 0
	for _, q := range a.Questions {
		total += q.Points
	}
	return total
}

// Result reports score, percentage and pass status. Passed is only true once completed.
func (a *Attempt) Result() Result {
	correct := 0
	for _, ans := range a.Answers {
		if ans.Correct {
			correct++
		}
	}
	total := a.TotalPoints()
	pct, passed := Evaluate(a.Score, total, len(a.Questions), a.PassingScore)

	return Result{
		Score:         a.Score,
		Total:         total,
		Percentage:    math.Round(pct*10) / 10,
		Passed:        passed && a.Completed(),
		Completed:     a.Completed(),
		CorrectCount:  correct,
		QuestionCount: len(a.Questions),
	}
}

func (a *Attempt) complete(now time.Time) {
	a.State = StateCompleted
	a.UpdatedAt = now
	a.CompletedAt = &now
}

// Evaluate computes the percentage and pass status of a score.
// Without questions nothing passes; without a passing score any completed quiz passes.
func Evaluate(score, total, questionCount int, passingScore *int) (float64, bool) {
	if questionCount == 0 {
		return 0, false
	}
	pct := 0.0
	if total > 0 {
		pct = float64(score) / float64(total) * 100
	}
	if passingScore == nil {
		return pct, true
	}
	return pct, pct >= float64(*passingScore)
}

// IsCorrect compares an answer with the expected one.
// Typed answers ignore case and surrounding spaces, chosen options must match exactly.
func IsCorrect(q models.Question, answer string) bool {
	if q.Type == models.QuestionFillBlank {
		return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.CorrectAnswer))
	}
	return answer == q.CorrectAnswer
}
