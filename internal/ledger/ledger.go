// Package ledger holds the pure progress mutations behind lesson completion,
// quiz results, streaks and badges. Persistence lives in ProgressService.
package ledger

import (
	"fmt"
	"slices"
	"time"

	"github.com/lingoroots/backend/internal/models"
)

// LessonCompletionReward is added once per completed lesson
const LessonCompletionReward = 50

// ScoringPolicy decides how repeated quiz attempts add points
type ScoringPolicy string

const (
	// ScoringCumulative adds the raw score of every attempt and keeps the latest score
	ScoringCumulative ScoringPolicy = "cumulative"
	// ScoringBest adds only the improvement over the best previous score
	ScoringBest ScoringPolicy = "best"
)

// ParseScoringPolicy validates a configured policy name
func ParseScoringPolicy(s string) (ScoringPolicy, error) {
	switch p := ScoringPolicy(s); p {
	case ScoringCumulative, ScoringBest:
		return p, nil
	default:
		return "", fmt.Errorf("unknown scoring policy %q", s)
	}
}

// Event is one thing that happened to a learner
type Event struct {
	Kind  models.ProgressEventKind
	RefID int
	// PointsEarned, PointsPossible and QuestionCount are set for quiz events
	PointsEarned   int
	PointsPossible int
	QuestionCount  int
	At             time.Time
}

// Outcome is the result of applying an event
type Outcome struct {
	Progress      models.Progress
	PointsAwarded int
	NewBadges     []string
	Diff          models.ProgressDiff
	Changed       bool
}

// Ledger applies events to progress under a scoring policy
type Ledger struct {
	policy ScoringPolicy
}

// New creates a ledger
func New(policy ScoringPolicy) *Ledger {
	return &Ledger{policy: policy}
}

// Policy returns the configured scoring policy
func (l *Ledger) Policy() ScoringPolicy {
	return l.policy
}

// Apply returns the progress after ev and the list of changes. The input is not modified.
// Completing an already completed lesson leaves progress untouched, streak included.
func (l *Ledger) Apply(p models.Progress, ev Event, achievements []models.Achievement) (Outcome, error) {
	next := p.Clone()
	out := Outcome{Diff: models.ProgressDiff{QuizScores: map[int]int{}}}
	perfect := false

	switch ev.Kind {
	case models.EventLessonCompleted:
		if next.HasCompleted(ev.RefID) {
			out.Progress = next
			return out, nil
		}
		next, out.PointsAwarded = CompleteLesson(next, ev.RefID)
		out.Diff.AddedLessons = []int{ev.RefID}

	case models.EventQuizCompleted:
		if ev.QuestionCount < 1 {
			return Outcome{}, fmt.Errorf("%w: quiz %d has no questions", models.ErrInvalidInput, ev.RefID)
		}
		if ev.PointsEarned < 0 || ev.PointsEarned > ev.PointsPossible {
			return Outcome{}, fmt.Errorf("%w: earned %d of %d points", models.ErrInvalidInput, ev.PointsEarned, ev.PointsPossible)
		}
		next, out.PointsAwarded = RecordQuizResult(next, ev.RefID, ev.PointsEarned, l.policy)
		out.Diff.QuizScores[ev.RefID] = next.QuizScores[ev.RefID]
		perfect = ev.PointsPossible > 0 && ev.PointsEarned == ev.PointsPossible

	default:
		return Outcome{}, fmt.Errorf("%w: unknown event kind %q", models.ErrInvalidInput, ev.Kind)
	}

	next = TouchStreak(next, ev.At)
	next, out.NewBadges = AwardBadges(next, achievements, perfect)
	out.Diff.AddedBadges = out.NewBadges
	out.Progress = next
	out.Changed = true
	return out, nil
}

// CompleteLesson marks lessonID completed and adds LessonCompletionReward.
// It is a no-op for a lesson already completed.
func CompleteLesson(p models.Progress, lessonID int) (models.Progress, int) {
	if p.HasCompleted(lessonID) {
		return p, 0
	}
	p.CompletedLessons = append(p.CompletedLessons, lessonID)
	p.Points += LessonCompletionReward
	return p, LessonCompletionReward
}

// RecordQuizResult stores the score for quizID and adds points according to policy.
// Points never decrease.
func RecordQuizResult(p models.Progress, quizID, earned int, policy ScoringPolicy) (models.Progress, int) {
	if p.QuizScores == nil {
		p.QuizScores = map[int]int{}
	}
	prev, seen := p.QuizScores[quizID]

	if policy == ScoringBest {
		if seen && earned <= prev {
			return p, 0
		}
		award := earned
		if seen {
			award = earned - prev
		}
		p.QuizScores[quizID] = earned
		p.Points += award
		return p, award
	}

	p.QuizScores[quizID] = earned
	p.Points += earned
	return p, earned
}

// TouchStreak records activity on the UTC day of now.
// Same day keeps the streak, the following day extends it, a longer gap restarts it at 1.
func TouchStreak(p models.Progress, now time.Time) models.Progress {
	today := Day(now)

	switch {
	case p.LastActiveOn == nil || p.CurrentStreak == 0:
		p.CurrentStreak = 1
	default:
		gap := DaysBetween(*p.LastActiveOn, today)
		switch {
		case gap < 0:
			// clock went backwards; keep the later day
			return p
		case gap == 0:
		case gap == 1:
			p.CurrentStreak++
		default:
			p.CurrentStreak = 1
		}
	}

	p.LastActiveOn = &today
	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}
	return p
}

// EffectiveStreak is the streak as of now: a streak whose last active day is
// before yesterday has lapsed even if the nightly reset has not run yet.
func EffectiveStreak(p models.Progress, now time.Time) int {
	if p.LastActiveOn == nil {
		return 0
	}
	if DaysBetween(*p.LastActiveOn, Day(now)) > 1 {
		return 0
	}
	return p.CurrentStreak
}

// AwardBadges adds every achievement whose rule is satisfied. Badges are never removed.
func AwardBadges(p models.Progress, achievements []models.Achievement, perfectQuiz bool) (models.Progress, []string) {
	var earned []string
	for _, a := range achievements {
		if p.HasBadge(a.ID) || slices.Contains(earned, a.ID) {
			continue
		}
		if ruleMet(p, a, perfectQuiz) {
			earned = append(earned, a.ID)
		}
	}
	if len(earned) > 0 {
		p.Badges = append(p.Badges, earned...)
	}
	return p, earned
}

func ruleMet(p models.Progress, a models.Achievement, perfectQuiz bool) bool {
	switch a.Rule {
	case models.RuleLessonsCompleted:
		return len(p.CompletedLessons) >= a.Threshold
	case models.RuleQuizzesCompleted:
		return len(p.QuizScores) >= a.Threshold
	case models.RuleStreakDays:
		return p.CurrentStreak >= a.Threshold
	case models.RulePoints:
		return p.Points >= a.Threshold
	case models.RulePerfectQuiz:
		return perfectQuiz
	default:
		return false
	}
}

// Day truncates t to midnight UTC
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole UTC days from a to b
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}
