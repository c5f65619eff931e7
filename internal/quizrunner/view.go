package quizrunner

import "github.com/lingoroots/backend/internal/models"

// View is what a learner sees of an attempt
type View struct {
	ID            string               `json:"id"`
	QuizID        int                  `json:"quizId"`
	LanguageID    string               `json:"languageId"`
	State         State                `json:"state"`
	QuestionIndex int                  `json:"questionIndex"`
	QuestionCount int                  `json:"questionCount"`
	Score         int                  `json:"score"`
	Question      *models.QuestionView `json:"question,omitempty"`
	LastAnswer    *Feedback            `json:"lastAnswer,omitempty"`
	Result        *Result              `json:"result,omitempty"`
}

// View renders the attempt without leaking answers of unanswered questions
func (a *Attempt) View() View {
	v := View{
		ID:            a.ID,
		QuizID:        a.QuizID,
		LanguageID:    a.LanguageID,
		State:         a.State,
		QuestionIndex: a.Index,
		QuestionCount: len(a.Questions),
		Score:         a.Score,
	}

	switch a.State {
	case StatePresenting, StateAwaitingSubmission:
		if q, ok := a.Current(); ok {
			qv := q.View()
			v.Question = &qv
		}
	case StateAnswered:
		q, _ := a.Current()
		qv := q.View()
		v.Question = &qv
		last := a.Answers[len(a.Answers)-1]
		v.LastAnswer = &Feedback{
			Correct:       last.Correct,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
			PointsAwarded: last.PointsAwarded,
			Score:         a.Score,
			IsLast:        a.Index == len(a.Questions)-1,
		}
	case StateCompleted:
		r := a.Result()
		v.Result = &r
	}
	return v
}
