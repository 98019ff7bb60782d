package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"plume/internal/domain"
	"plume/internal/domain/models"
	"plume/internal/domain/services"
)

// fakeGenerator returns a canned output and records the last request.
type fakeGenerator struct {
	output string
	err    error
	calls  int
	last   *Request
}

func (g *fakeGenerator) Name() string { return "fake" }

func (g *fakeGenerator) Generate(ctx context.Context, req *Request) (string, error) {
	g.calls++
	g.last = req
	return g.output, g.err
}

type fakeTracks map[string]string

func (f fakeTracks) TrackMarkdown(id string) (string, error) {
	md, ok := f[id]
	if !ok {
		return "", &domain.NotFoundError{Message: "learning track not found: " + id}
	}
	return md, nil
}

func newTestService(gen Generator) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(gen, fakeTracks{"rimes": "# Les rimes\n\nRime riche, rime pauvre."}, logger)
}

func TestRhymes_ParsesFencedJSON(t *testing.T) {
	gen := &fakeGenerator{output: "Voici :\n```json\n{\"rhymes\": [\"lumière\", \"rivière\", \"Lumière\", \" \"]}\n```"}
	svc := newTestService(gen)

	got, err := svc.Rhymes(context.Background(), &services.RhymesRequest{Word: "pierre"})
	if err != nil {
		t.Fatalf("Rhymes: %v", err)
	}
	if diff := cmp.Diff([]string{"lumière", "rivière"}, got.Rhymes); diff != "" {
		t.Errorf("rhymes mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(gen.last.Prompt, "pierre") {
		t.Errorf("prompt does not mention the word: %q", gen.last.Prompt)
	}
}

func TestRhymes_PlainTextFallback(t *testing.T) {
	svc := newTestService(&fakeGenerator{output: "- lumière\n- rivière\n"})

	got, err := svc.Rhymes(context.Background(), &services.RhymesRequest{Word: "pierre"})
	if err != nil {
		t.Fatalf("Rhymes: %v", err)
	}
	if diff := cmp.Diff([]string{"lumière", "rivière"}, got.Rhymes); diff != "" {
		t.Errorf("rhymes mismatch (-want +got):\n%s", diff)
	}
}

func TestGeneratorFailureIsTransient(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("503 overloaded")}
	svc := newTestService(gen)

	_, err := svc.Inspiration(context.Background(), &services.InspirationRequest{Word: "mer"})
	if !errors.Is(err, domain.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if gen.calls != 1 {
		t.Errorf("generator called %d times, want 1 (no retry)", gen.calls)
	}
}

func TestPrompts_DefaultsAndValidation(t *testing.T) {
	gen := &fakeGenerator{output: `{"prompts": ["a", "b", "c", "d"]}`}
	svc := newTestService(gen)
	ctx := context.Background()

	got, err := svc.Prompts(ctx, &services.PromptsRequest{Genre: "slam"})
	if err != nil {
		t.Fatalf("Prompts: %v", err)
	}
	if len(got.Prompts) != defaultPromptCount {
		t.Errorf("prompts = %d, want %d", len(got.Prompts), defaultPromptCount)
	}
	if gen.last.Expect.Count != defaultPromptCount {
		t.Errorf("requested count = %d", gen.last.Expect.Count)
	}

	invalid := []*services.PromptsRequest{
		{Genre: "opera"},
		{Genre: "rap", Count: 6},
		{Genre: "rap", Language: "german"},
	}
	for _, req := range invalid {
		if _, err := svc.Prompts(ctx, req); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("%+v: expected ErrValidation, got %v", req, err)
		}
	}
}

func TestFeedback_SuggestionsAsString(t *testing.T) {
	svc := newTestService(&fakeGenerator{output: `{"feedback": "Beau rythme.", "suggestions": "Varie les rimes."}`})

	got, err := svc.Feedback(context.Background(), &services.FeedbackRequest{Text: "Mon texte", Style: "poetry"})
	if err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	want := &services.FeedbackResponse{Feedback: "Beau rythme.", Suggestions: []string{"Varie les rimes."}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("feedback mismatch (-want +got):\n%s", diff)
	}
}

func TestInspiration_RequiresFiveParagraphs(t *testing.T) {
	svc := newTestService(&fakeGenerator{output: `{"paragraphs": ["un", "deux"]}`})

	if _, err := svc.Inspiration(context.Background(), &services.InspirationRequest{Word: "mer"}); !errors.Is(err, domain.ErrTransient) {
		t.Errorf("expected ErrTransient for short output, got %v", err)
	}
}

func TestTutor_QuizWithLorem(t *testing.T) {
	svc := newTestService(NewLoremGenerator())

	got, err := svc.Tutor(context.Background(), &services.TutorRequest{Topic: "l'allitération", Mode: services.TutorQuiz})
	if err != nil {
		t.Fatalf("Tutor: %v", err)
	}
	if len(got.Quiz) != quizLength {
		t.Fatalf("quiz = %d questions, want %d", len(got.Quiz), quizLength)
	}
	for i, q := range got.Quiz {
		if len(q.Options) != 4 || !contains(q.Options, q.Answer) {
			t.Errorf("question %d malformed: %+v", i, q)
		}
	}
}

func TestTutor_TrackContext(t *testing.T) {
	gen := &fakeGenerator{output: `{"explanation": "Une rime riche partage trois sons."}`}
	svc := newTestService(gen)
	ctx := context.Background()

	got, err := svc.Tutor(ctx, &services.TutorRequest{Topic: "rimes", Mode: services.TutorExplain, TrackID: "rimes"})
	if err != nil {
		t.Fatalf("Tutor: %v", err)
	}
	if got.Explanation == "" || got.Quiz != nil {
		t.Errorf("response = %+v", got)
	}
	if !strings.Contains(gen.last.Prompt, "Rime riche, rime pauvre.") {
		t.Errorf("track content missing from prompt")
	}

	if _, err := svc.Tutor(ctx, &services.TutorRequest{Topic: "x", Mode: services.TutorExplain, TrackID: "nope"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown track: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Tutor(ctx, &services.TutorRequest{Topic: "x", Mode: "sing"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("unknown mode: expected ErrValidation, got %v", err)
	}
}

func TestChat(t *testing.T) {
	gen := &fakeGenerator{output: `{"reply": "Merci pour ton message !"}`}
	svc := newTestService(gen)
	ctx := context.Background()

	if _, err := svc.Chat(ctx, nil, &services.ChatRequest{Recipient: "Léa", Message: "salut"}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}

	got, err := svc.Chat(ctx, &models.Identity{UID: "u1", DisplayName: "Sam"}, &services.ChatRequest{Recipient: "Léa", Message: "salut"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got.Reply != "Merci pour ton message !" {
		t.Errorf("reply = %q", got.Reply)
	}
	if !strings.Contains(gen.last.System, "Léa") || !strings.Contains(gen.last.Prompt, "Sam") {
		t.Errorf("names missing from request: %+v", gen.last)
	}
}

func TestLoremGenerator_AllShapesParse(t *testing.T) {
	svc := newTestService(NewLoremGenerator())
	ctx := context.Background()

	if _, err := svc.Rhymes(ctx, &services.RhymesRequest{Word: "mot"}); err != nil {
		t.Errorf("Rhymes: %v", err)
	}
	if _, err := svc.Prompts(ctx, &services.PromptsRequest{Genre: "rap", Count: 5}); err != nil {
		t.Errorf("Prompts: %v", err)
	}
	if _, err := svc.Feedback(ctx, &services.FeedbackRequest{Text: "t", Style: "slam"}); err != nil {
		t.Errorf("Feedback: %v", err)
	}
	if got, err := svc.Inspiration(ctx, &services.InspirationRequest{Word: "mot"}); err != nil || len(got.Paragraphs) < inspirationParagraph {
		t.Errorf("Inspiration: %v", err)
	}
}
