package services

import (
	"context"

	"plume/internal/domain/models"
)

// WritingAssistant groups the AI writing tools. Every call is a single
// model request; failures surface as domain.ErrTransient and are not retried.
type WritingAssistant interface {
	Rhymes(ctx context.Context, req *RhymesRequest) (*RhymesResponse, error)
	Prompts(ctx context.Context, req *PromptsRequest) (*PromptsResponse, error)
	Feedback(ctx context.Context, req *FeedbackRequest) (*FeedbackResponse, error)
	Inspiration(ctx context.Context, req *InspirationRequest) (*InspirationResponse, error)
	Tutor(ctx context.Context, req *TutorRequest) (*TutorResponse, error)
	Chat(ctx context.Context, identity *models.Identity, req *ChatRequest) (*ChatResponse, error)
}

type RhymesRequest struct {
	Word string `json:"word"`
}

type RhymesResponse struct {
	Rhymes []string `json:"rhymes"`
}

type PromptsRequest struct {
	Genre    string `json:"genre"`    // poetry | slam | rap
	Count    int    `json:"count"`    // 1-5, default 3
	Language string `json:"language"` // french | english
}

type PromptsResponse struct {
	Prompts []string `json:"prompts"`
}

type FeedbackRequest struct {
	Text  string `json:"text"`
	Style string `json:"style"`
}

type FeedbackResponse struct {
	Feedback    string   `json:"feedback"`
	Suggestions []string `json:"suggestions"`
}

type InspirationRequest struct {
	Word string `json:"word"`
}

type InspirationResponse struct {
	Paragraphs []string `json:"paragraphs"`
}

// TutorMode selects between an explanation and a quiz.
type TutorMode string

const (
	TutorExplain TutorMode = "explain"
	TutorQuiz    TutorMode = "quiz"
)

type TutorRequest struct {
	Topic   string    `json:"topic"`
	Mode    TutorMode `json:"mode"`
	TrackID string    `json:"track_id,omitempty"`
}

type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

type TutorResponse struct {
	Explanation string         `json:"explanation,omitempty"`
	Quiz        []QuizQuestion `json:"quiz,omitempty"`
}

type ChatRequest struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}
