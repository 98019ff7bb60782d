package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"plume/internal/config"
	"plume/internal/domain"
	"plume/internal/domain/models"
	"plume/internal/domain/services"
)

const (
	defaultPromptCount   = 3
	maxPromptCount       = 5
	inspirationParagraph = 5
	quizLength           = 10
	maxWordLength        = 100
	requestTimeout       = 60 * time.Second
)

const museSystem = "Tu es Plume Sonore, une muse créative pour poètes, slameurs et rappeurs. " +
	"Réponds uniquement avec un objet JSON valide, sans texte autour."

// TrackContext supplies learning-track content for the tutor.
type TrackContext interface {
	TrackMarkdown(id string) (string, error)
}

// Service implements services.WritingAssistant on top of a Generator.
type Service struct {
	gen     Generator
	tracks  TrackContext
	logger  *slog.Logger
	timeout time.Duration
}

// NewService creates the writing assistant. tracks may be nil.
func NewService(gen Generator, tracks TrackContext, logger *slog.Logger) *Service {
	return &Service{
		gen:     gen,
		tracks:  tracks,
		logger:  logger,
		timeout: requestTimeout,
	}
}

var _ services.WritingAssistant = (*Service)(nil)

func (s *Service) Rhymes(ctx context.Context, req *services.RhymesRequest) (*services.RhymesResponse, error) {
	word := strings.TrimSpace(req.Word)
	if err := validation.Validate(word, validation.Required, validation.RuneLength(1, maxWordLength)); err != nil {
		return nil, fmt.Errorf("%w: word: %v", domain.ErrValidation, err)
	}

	doc, raw, err := s.complete(ctx, "rhymes", &Request{
		System:    "Tu es un dictionnaire de rimes. Réponds uniquement avec un objet JSON valide.",
		Prompt:    fmt.Sprintf("Donne une liste de rimes pour : %q.\nFormat : {\"rhymes\": [\"...\"]}", word),
		MaxTokens: 512,
		Expect:    Expectation{Kind: OutputList, Field: "rhymes", Count: 12},
	})
	if err != nil {
		return nil, err
	}

	rhymes := stringList(doc, "rhymes")
	if doc == "" {
		rhymes = plainLines(raw)
	}
	rhymes = dedupe(rhymes)
	if len(rhymes) == 0 {
		return nil, s.malformed("rhymes", "no rhymes returned")
	}
	return &services.RhymesResponse{Rhymes: rhymes}, nil
}

func (s *Service) Prompts(ctx context.Context, req *services.PromptsRequest) (*services.PromptsResponse, error) {
	if req.Count == 0 {
		req.Count = defaultPromptCount
	}
	if req.Language == "" {
		req.Language = "french"
	}
	err := validation.ValidateStruct(req,
		validation.Field(&req.Genre, validation.Required, validation.In("poetry", "slam", "rap")),
		validation.Field(&req.Count, validation.Min(1), validation.Max(maxPromptCount)),
		validation.Field(&req.Language, validation.In("french", "english")),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	doc, raw, err := s.complete(ctx, "prompts", &Request{
		System: museSystem,
		Prompt: fmt.Sprintf(
			"Génère %d consignes d'écriture pour le genre %s, rédigées en %s. "+
				"Chaque consigne doit être unique et aider à vaincre la page blanche.\n"+
				"Format : {\"prompts\": [\"...\"]}",
			req.Count, req.Genre, languageName(req.Language)),
		MaxTokens: 1024,
		Expect:    Expectation{Kind: OutputList, Field: "prompts", Count: req.Count},
	})
	if err != nil {
		return nil, err
	}

	prompts := stringList(doc, "prompts")
	if doc == "" {
		prompts = plainLines(raw)
	}
	if len(prompts) == 0 {
		return nil, s.malformed("prompts", "no prompts returned")
	}
	if len(prompts) > req.Count {
		prompts = prompts[:req.Count]
	}
	return &services.PromptsResponse{Prompts: prompts}, nil
}

func (s *Service) Feedback(ctx context.Context, req *services.FeedbackRequest) (*services.FeedbackResponse, error) {
	req.Text = strings.TrimSpace(req.Text)
	err := validation.ValidateStruct(req,
		validation.Field(&req.Text, validation.Required, validation.RuneLength(1, config.MaxAIInputLength)),
		validation.Field(&req.Style, validation.Required, validation.In("poetry", "slam", "rap")),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	doc, raw, err := s.complete(ctx, "feedback", &Request{
		System: "Tu es un assistant qui aide à améliorer l'écriture créative. " +
			"Réponds uniquement avec un objet JSON valide, en français.",
		Prompt: fmt.Sprintf(
			"Style : %s\nTexte :\n%s\n\n"+
				"Donne un retour détaillé sur la rime, le rythme et les procédés stylistiques, "+
				"puis des suggestions concrètes.\n"+
				"Format : {\"feedback\": \"...\", \"suggestions\": [\"...\"]}",
			req.Style, req.Text),
		MaxTokens: 2048,
		Expect:    Expectation{Kind: OutputFeedback},
	})
	if err != nil {
		return nil, err
	}

	if doc == "" {
		return &services.FeedbackResponse{Feedback: strings.TrimSpace(raw), Suggestions: []string{}}, nil
	}
	feedback := firstString(doc, "feedback")
	if feedback == "" {
		return nil, s.malformed("feedback", "empty feedback")
	}
	suggestions := stringList(doc, "suggestions")
	if suggestions == nil {
		suggestions = []string{}
	}
	return &services.FeedbackResponse{Feedback: feedback, Suggestions: suggestions}, nil
}

func (s *Service) Inspiration(ctx context.Context, req *services.InspirationRequest) (*services.InspirationResponse, error) {
	word := strings.TrimSpace(req.Word)
	if err := validation.Validate(word, validation.Required, validation.RuneLength(1, maxWordLength)); err != nil {
		return nil, fmt.Errorf("%w: word: %v", domain.ErrValidation, err)
	}

	doc, raw, err := s.complete(ctx, "inspiration", &Request{
		System: museSystem,
		Prompt: fmt.Sprintf(
			"Mot : %q.\nÉcris au moins %d paragraphes distincts, chacun explorant une facette, "+
				"une métaphore ou une histoire liée à ce mot. Ton évocateur et poétique.\n"+
				"Format : {\"paragraphs\": [\"...\"]}",
			word, inspirationParagraph),
		MaxTokens: 3072,
		Expect:    Expectation{Kind: OutputList, Field: "paragraphs", Count: inspirationParagraph},
	})
	if err != nil {
		return nil, err
	}

	paragraphs := stringList(doc, "paragraphs")
	if doc == "" {
		paragraphs = splitParagraphs(raw)
	}
	if len(paragraphs) < inspirationParagraph {
		return nil, s.malformed("inspiration", fmt.Sprintf("%d paragraphs returned", len(paragraphs)))
	}
	return &services.InspirationResponse{Paragraphs: paragraphs}, nil
}

func (s *Service) Tutor(ctx context.Context, req *services.TutorRequest) (*services.TutorResponse, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	err := validation.ValidateStruct(req,
		validation.Field(&req.Topic, validation.Required, validation.RuneLength(1, config.MaxAIInputLength)),
		validation.Field(&req.Mode, validation.Required, validation.In(services.TutorExplain, services.TutorQuiz)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var lesson string
	if req.TrackID != "" && s.tracks != nil {
		if lesson, err = s.tracks.TrackMarkdown(req.TrackID); err != nil {
			return nil, err
		}
	}

	var prompt strings.Builder
	if lesson != "" {
		prompt.WriteString("Cours de référence :\n")
		prompt.WriteString(lesson)
		prompt.WriteString("\n\n")
	}
	fmt.Fprintf(&prompt, "Sujet : %q\n", req.Topic)

	if req.Mode == services.TutorExplain {
		prompt.WriteString("Explique ce sujet clairement, en français, avec des exemples tirés de la poésie, du slam ou du rap.\n" +
			"Format : {\"explanation\": \"...\"}")
		doc, raw, err := s.complete(ctx, "tutor", &Request{
			System:    museSystem,
			Prompt:    prompt.String(),
			MaxTokens: 2048,
			Expect:    Expectation{Kind: OutputText, Field: "explanation"},
		})
		if err != nil {
			return nil, err
		}
		explanation := firstString(doc, "explanation", "response")
		if doc == "" {
			explanation = strings.TrimSpace(raw)
		}
		if explanation == "" {
			return nil, s.malformed("tutor", "empty explanation")
		}
		return &services.TutorResponse{Explanation: explanation}, nil
	}

	fmt.Fprintf(&prompt, "Crée un quiz de %d questions à choix multiples sur ce sujet, en français. "+
		"Chaque question a exactement 4 options et une réponse qui est l'une des options.\n"+
		"Format : {\"quiz\": [{\"question\": \"...\", \"options\": [\"a\",\"b\",\"c\",\"d\"], \"answer\": \"a\"}]}",
		quizLength)
	doc, _, err := s.complete(ctx, "tutor", &Request{
		System:    museSystem,
		Prompt:    prompt.String(),
		MaxTokens: 4096,
		Expect:    Expectation{Kind: OutputQuiz, Count: quizLength},
	})
	if err != nil {
		return nil, err
	}

	questions := quizQuestions(doc)
	if len(questions) < quizLength {
		return nil, s.malformed("tutor", fmt.Sprintf("%d valid quiz questions returned", len(questions)))
	}
	quiz := make([]services.QuizQuestion, quizLength)
	for i := range quiz {
		quiz[i] = services.QuizQuestion{
			Question: questions[i].question,
			Options:  questions[i].options,
			Answer:   questions[i].answer,
		}
	}
	return &services.TutorResponse{Quiz: quiz}, nil
}

func (s *Service) Chat(ctx context.Context, identity *models.Identity, req *services.ChatRequest) (*services.ChatResponse, error) {
	if identity == nil {
		return nil, domain.ErrUnauthenticated
	}
	req.Message = strings.TrimSpace(req.Message)
	err := validation.ValidateStruct(req,
		validation.Field(&req.Recipient, validation.Required, validation.RuneLength(1, maxWordLength)),
		validation.Field(&req.Message, validation.Required, validation.RuneLength(1, config.MaxCommentLength)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	doc, raw, err := s.complete(ctx, "chat", &Request{
		System: fmt.Sprintf("Tu incarnes %s, un artiste virtuel de la communauté Plume Sonore. "+
			"Ta personnalité est bienveillante et créative, dans le style d'un poète, slameur ou rappeur. "+
			"Réponds brièvement, chaleureusement, en français, avec un objet JSON valide.", req.Recipient),
		Prompt: fmt.Sprintf("Message de %s :\n%q\n\nFormat : {\"reply\": \"...\"}",
			identity.DisplayName, req.Message),
		MaxTokens: 512,
		Expect:    Expectation{Kind: OutputText, Field: "reply"},
	})
	if err != nil {
		return nil, err
	}

	reply := firstString(doc, "reply", "response")
	if doc == "" {
		reply = strings.TrimSpace(raw)
	}
	if reply == "" {
		return nil, s.malformed("chat", "empty reply")
	}
	return &services.ChatResponse{Reply: reply}, nil
}

// complete runs one generation. doc is the JSON object found in the output,
// or empty when the model answered in plain text.
func (s *Service) complete(ctx context.Context, tool string, req *Request) (doc, raw string, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err = s.gen.Generate(ctx, req)
	if err != nil {
		s.logger.Warn("ai generation failed",
			"tool", tool,
			"provider", s.gen.Name(),
			"duration", time.Since(start),
			"error", err,
		)
		return "", "", fmt.Errorf("%w: %s: %v", domain.ErrTransient, tool, err)
	}

	s.logger.Debug("ai generation completed",
		"tool", tool,
		"provider", s.gen.Name(),
		"duration", time.Since(start),
		"chars", len(raw),
	)

	doc, err = extractJSON(raw)
	if errors.Is(err, errNoJSON) {
		return "", raw, nil
	}
	return doc, raw, err
}

func (s *Service) malformed(tool, reason string) error {
	s.logger.Warn("ai output unusable", "tool", tool, "provider", s.gen.Name(), "reason", reason)
	return fmt.Errorf("%w: %s: %s", domain.ErrTransient, tool, reason)
}

func languageName(lang string) string {
	if lang == "english" {
		return "anglais"
	}
	return "français"
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, it := range items {
		key := strings.ToLower(it)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}
