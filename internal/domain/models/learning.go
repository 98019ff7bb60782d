package models

// LearningTrack is a self-paced lesson from the embedded catalogue.
type LearningTrack struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Duration    string `json:"duration" yaml:"duration"`
	Level       string `json:"level" yaml:"level"`
	Content     string `json:"content" yaml:"content"` // sanitised HTML
	Markdown    string `json:"markdown,omitempty" yaml:"-"`
}

// TourStep is one stop of the onboarding tour.
type TourStep struct {
	ID          string `json:"id" yaml:"id"`
	Route       string `json:"route" yaml:"route"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// TourState is a user's position in the onboarding tour.
type TourState struct {
	Step      int       `json:"step"`
	Total     int       `json:"total"`
	Current   *TourStep `json:"current,omitempty"`
	Completed bool      `json:"completed"`
}
