package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	loremgen "github.com/bozaro/golorem"
)

// LoremGenerator fabricates well-formed tool output from lorem ipsum text.
// Used for development and tests without an API key.
type LoremGenerator struct {
	generator *loremgen.Lorem
}

// NewLoremGenerator creates the offline generator.
func NewLoremGenerator() *LoremGenerator {
	return &LoremGenerator{
		generator: loremgen.New(),
	}
}

func (g *LoremGenerator) Name() string {
	return "lorem"
}

func (g *LoremGenerator) Generate(ctx context.Context, req *Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	count := req.Expect.Count
	if count <= 0 {
		count = 1
	}
	field := req.Expect.Field
	if field == "" {
		field = "text"
	}

	var doc interface{}
	switch req.Expect.Kind {
	case OutputText:
		doc = map[string]string{field: g.generator.Paragraph(2, 4)}

	case OutputList:
		items := make([]string, count)
		for i := range items {
			items[i] = g.item(field)
		}
		doc = map[string][]string{field: items}

	case OutputFeedback:
		suggestions := make([]string, 3)
		for i := range suggestions {
			suggestions[i] = g.generator.Sentence(6, 12)
		}
		doc = map[string]interface{}{
			"feedback":    g.generator.Paragraph(2, 3),
			"suggestions": suggestions,
		}

	case OutputQuiz:
		quiz := make([]map[string]interface{}, count)
		for i := range quiz {
			options := []string{
				g.generator.Word(4, 10),
				g.generator.Word(4, 10),
				g.generator.Word(4, 10),
				g.generator.Word(4, 10),
			}
			quiz[i] = map[string]interface{}{
				"question": strings.TrimSuffix(g.generator.Sentence(5, 10), ".") + " ?",
				"options":  options,
				"answer":   options[i%len(options)],
			}
		}
		doc = map[string]interface{}{"quiz": quiz}

	default:
		return "", fmt.Errorf("unknown output kind %d", req.Expect.Kind)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// item produces one list entry sized for the field.
func (g *LoremGenerator) item(field string) string {
	switch field {
	case "rhymes":
		return g.generator.Word(3, 9)
	case "paragraphs":
		return g.generator.Paragraph(3, 5)
	default:
		return g.generator.Sentence(8, 14)
	}
}
