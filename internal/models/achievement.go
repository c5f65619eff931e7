package models

import "time"

// AchievementRule names the progress measure an achievement watches
type AchievementRule string

const (
	RuleLessonsCompleted AchievementRule = "lessons_completed"
	RuleQuizzesCompleted AchievementRule = "quizzes_completed"
	RuleStreakDays       AchievementRule = "streak_days"
	RulePoints           AchievementRule = "points"
	RulePerfectQuiz      AchievementRule = "perfect_quiz"
)

// Achievement is a badge definition, with DateEarned set when listed for a user who has it
type Achievement struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Rule        AchievementRule `json:"rule"`
	Threshold   int             `json:"threshold"`
	DateEarned  *time.Time      `json:"dateEarned,omitempty"`
}

// LeaderboardEntry is one row of the leaderboard
type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	UserID         int    `json:"userId"`
	DisplayName    string `json:"displayName"`
	Points         int    `json:"points"`
	AvatarFallback string `json:"avatarFallback"`
}

// FeedbackRequest asks for a short explanation of a wrong answer
type FeedbackRequest struct {
	Question      string `json:"question" validate:"required,max=1000"`
	UserAnswer    string `json:"userAnswer" validate:"max=500"`
	CorrectAnswer string `json:"correctAnswer" validate:"required,max=500"`
	LanguageID    string `json:"languageId" validate:"omitempty,max=16"`
}

// FeedbackResponse carries generated feedback text
type FeedbackResponse struct {
	Feedback string `json:"feedback"`
}
