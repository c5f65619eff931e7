package models

// VocabularyItem is one term of a lesson
type VocabularyItem struct {
	Term        string `json:"term" validate:"required,max=200"`
	Translation string `json:"translation" validate:"required,max=200"`
	Example     string `json:"example,omitempty" validate:"max=500"`
	ImageURL    string `json:"imageUrl,omitempty" validate:"omitempty,url"`
	AudioURL    string `json:"audioUrl,omitempty"`
}

// DialogueLine is one utterance of a lesson dialogue
type DialogueLine struct {
	Speaker  string `json:"speaker" validate:"required,max=100"`
	Line     string `json:"line" validate:"required,max=1000"`
	AudioURL string `json:"audioUrl,omitempty"`
}

// Lesson represents a lesson of a language
type Lesson struct {
	ID                   int              `json:"id"`
	LanguageID           string           `json:"languageId"`
	Title                string           `json:"title"`
	Description          string           `json:"description"`
	Category             string           `json:"category"`
	Order                int              `json:"order"`
	EstimatedTimeMinutes int              `json:"estimatedTimeMinutes"`
	Vocabulary           []VocabularyItem `json:"vocabulary"`
	Dialogues            []DialogueLine   `json:"dialogues"`
	CulturalNotes        string           `json:"culturalNotes,omitempty"`
	VideoURL             string           `json:"videoUrl,omitempty"`
}

// LessonListItem represents a lesson in list responses
type LessonListItem struct {
	ID                   int    `json:"id"`
	LanguageID           string `json:"languageId"`
	Title                string `json:"title"`
	Description          string `json:"description"`
	Category             string `json:"category"`
	Order                int    `json:"order"`
	EstimatedTimeMinutes int    `json:"estimatedTimeMinutes"`
	Completed            bool   `json:"completed"`
}

// CreateLessonRequest represents a request to create a lesson
type CreateLessonRequest struct {
	Title                string           `json:"title" validate:"required,max=200"`
	Description          string           `json:"description" validate:"max=2000"`
	Category             string           `json:"category" validate:"max=100"`
	Order                int              `json:"order" validate:"min=0"`
	EstimatedTimeMinutes int              `json:"estimatedTimeMinutes" validate:"min=0,max=600"`
	Vocabulary           []VocabularyItem `json:"vocabulary" validate:"dive"`
	Dialogues            []DialogueLine   `json:"dialogues" validate:"dive"`
	CulturalNotes        string           `json:"culturalNotes" validate:"max=5000"`
	VideoURL             string           `json:"videoUrl" validate:"omitempty,url"`
}

// UpdateLessonRequest represents a partial lesson update
type UpdateLessonRequest struct {
	Title                *string           `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description          *string           `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category             *string           `json:"category,omitempty" validate:"omitempty,max=100"`
	Order                *int              `json:"order,omitempty" validate:"omitempty,min=0"`
	EstimatedTimeMinutes *int              `json:"estimatedTimeMinutes,omitempty" validate:"omitempty,min=0,max=600"`
	Vocabulary           *[]VocabularyItem `json:"vocabulary,omitempty" validate:"omitempty,dive"`
	Dialogues            *[]DialogueLine   `json:"dialogues,omitempty" validate:"omitempty,dive"`
	CulturalNotes        *string           `json:"culturalNotes,omitempty" validate:"omitempty,max=5000"`
	VideoURL             *string           `json:"videoUrl,omitempty" validate:"omitempty,url"`
}

// AudioGenerationResult reports what vocabulary audio was synthesized
type AudioGenerationResult struct {
	LessonID  int      `json:"lessonId"`
	Generated int      `json:"generated"`
	Terms     []string `json:"terms"`
}
