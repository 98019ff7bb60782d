package ai

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

var errNoJSON = errors.New("model output contains no JSON object")

// extractJSON returns the outermost JSON object in text. Models often wrap
// the object in prose or a fenced code block.
func extractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", errNoJSON
	}
	doc := text[start : end+1]
	if !gjson.Valid(doc) {
		return "", errNoJSON
	}
	return doc, nil
}

// stringList reads field as a list of non-blank strings. A bare string is
// treated as a one-element list.
func stringList(doc, field string) []string {
	res := gjson.Get(doc, field)
	if !res.Exists() {
		return nil
	}
	if !res.IsArray() {
		if s := strings.TrimSpace(res.String()); s != "" {
			return []string{s}
		}
		return nil
	}

	var out []string
	res.ForEach(func(_, v gjson.Result) bool {
		if s := strings.TrimSpace(v.String()); s != "" {
			out = append(out, s)
		}
		return true
	})
	return out
}

// firstString returns the first non-blank string among fields.
func firstString(doc string, fields ...string) string {
	for _, f := range fields {
		if s := strings.TrimSpace(gjson.Get(doc, f).String()); s != "" {
			return s
		}
	}
	return ""
}

type rawQuestion struct {
	question string
	options  []string
	answer   string
}

// quizQuestions reads the quiz array, keeping questions that have exactly
// four options and an answer among them.
func quizQuestions(doc string) []rawQuestion {
	var out []rawQuestion
	gjson.Get(doc, "quiz").ForEach(func(_, q gjson.Result) bool {
		rq := rawQuestion{
			question: strings.TrimSpace(q.Get("question").String()),
			options:  stringList(q.Raw, "options"),
			answer:   strings.TrimSpace(q.Get("answer").String()),
		}
		if rq.question != "" && len(rq.options) == 4 && contains(rq.options, rq.answer) {
			out = append(out, rq)
		}
		return true
	})
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// plainLines splits free text into trimmed non-empty lines, dropping list
// markers.
func plainLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•0123456789.) ")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
