package models

// Language is a course root
type Language struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl,omitempty"`
	IsActive    bool   `json:"isActive"`
	LessonCount int    `json:"lessonCount"`
}

// CreateLanguageRequest represents a request to create a language
type CreateLanguageRequest struct {
	ID          string `json:"id" validate:"required,lowercase,alphanum,max=16"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
	IsActive    bool   `json:"isActive"`
}

// UpdateLanguageRequest represents a partial language update
type UpdateLanguageRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	ImageURL    *string `json:"imageUrl,omitempty" validate:"omitempty,url"`
	IsActive    *bool   `json:"isActive,omitempty"`
}
