package models

// QuestionType describes how a question is answered
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionFillBlank      QuestionType = "fill-blank"
	QuestionMatching       QuestionType = "matching"
)

// Question is one quiz question including its answer
type Question struct {
	ID            int          `json:"id"`
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer"`
	Points        int          `json:"points"`
	Explanation   string       `json:"explanation,omitempty"`
}

// View strips the answer and explanation
func (q Question) View() QuestionView {
	return QuestionView{
		ID:      q.ID,
		Text:    q.Text,
		Type:    q.Type,
		Options: q.Options,
		Points:  q.Points,
	}
}

// QuestionView is a question as shown to a learner
type QuestionView struct {
	ID      int          `json:"id"`
	Text    string       `json:"text"`
	Type    QuestionType `json:"type"`
	Options []string     `json:"options,omitempty"`
	Points  int          `json:"points"`
}

// Quiz is an ordered list of questions attached to a lesson
type Quiz struct {
	ID           int        `json:"id"`
	LanguageID   string     `json:"languageId"`
	LessonID     int        `json:"lessonId"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Questions    []Question `json:"questions"`
	PassingScore *int       `json:"passingScore,omitempty"`
}

// TotalPoints is the maximum score of the quiz
func (q Quiz) TotalPoints() int {
	total := 0
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

// View hides correct answers from learners
func (q Quiz) View() QuizView {
	questions := make([]QuestionView, 0, len(q.Questions))
	for _, question := range q.Questions {
		questions = append(questions, question.View())
	}
	return QuizView{
		ID:           q.ID,
		LanguageID:   q.LanguageID,
		LessonID:     q.LessonID,
		Title:        q.Title,
		Description:  q.Description,
		Questions:    questions,
		TotalPoints:  q.TotalPoints(),
		PassingScore: q.PassingScore,
	}
}

// QuizView is a quiz as shown to a learner
type QuizView struct {
	ID           int            `json:"id"`
	LanguageID   string         `json:"languageId"`
	LessonID     int            `json:"lessonId"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Questions    []QuestionView `json:"questions"`
	TotalPoints  int            `json:"totalPoints"`
	PassingScore *int           `json:"passingScore,omitempty"`
}

// QuizListItem represents a quiz in list responses
type QuizListItem struct {
	ID            int    `json:"id"`
	LanguageID    string `json:"languageId"`
	LessonID      int    `json:"lessonId"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	QuestionCount int    `json:"questionCount"`
	TotalPoints   int    `json:"totalPoints"`
	PassingScore  *int   `json:"passingScore,omitempty"`
	Score         *int   `json:"score,omitempty"`
}

// QuestionRequest is a question in create/update requests
type QuestionRequest struct {
	Text          string       `json:"text" validate:"required,max=1000"`
	Type          QuestionType `json:"type" validate:"required,oneof=multiple-choice fill-blank matching"`
	Options       []string     `json:"options" validate:"omitempty,dive,required,max=200"`
	CorrectAnswer string       `json:"correctAnswer" validate:"required,max=200"`
	Points        int          `json:"points" validate:"min=0,max=1000"`
	Explanation   string       `json:"explanation" validate:"max=2000"`
}

// CreateQuizRequest represents a request to create a quiz
type CreateQuizRequest struct {
	LessonID     int               `json:"lessonId" validate:"required,min=1"`
	Title        string            `json:"title" validate:"required,max=200"`
	Description  string            `json:"description" validate:"max=2000"`
	PassingScore *int              `json:"passingScore,omitempty" validate:"omitempty,min=0,max=100"`
	Questions    []QuestionRequest `json:"questions" validate:"min=1,dive"`
}

// UpdateQuizRequest represents a partial quiz update. Questions, when present, replace the list.
type UpdateQuizRequest struct {
	Title        *string            `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description  *string            `json:"description,omitempty" validate:"omitempty,max=2000"`
	PassingScore *int               `json:"passingScore,omitempty" validate:"omitempty,min=0,max=100"`
	Questions    *[]QuestionRequest `json:"questions,omitempty" validate:"omitempty,dive"`
}

// ToQuestions converts request questions into model questions
func ToQuestions(reqs []QuestionRequest) []Question {
	questions := make([]Question, 0, len(reqs))
	for _, r := range reqs {
		questions = append(questions, Question{
			Text:          r.Text,
			Type:          r.Type,
			Options:       r.Options,
			CorrectAnswer: r.CorrectAnswer,
			Points:        r.Points,
			Explanation:   r.Explanation,
		})
	}
	return questions
}
