package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lukasbauer/interviewer/internal/llm"
	"github.com/rs/zerolog"
)

const (
	DefaultQuestionCount = 3
	MaxQuestionCount     = 10

	fenceOpen  = "```json"
	fenceClose = "```"
)

// Question is a single interview question as returned to the client.
type Question struct {
	Question string `json:"question"`
}

// QuestionGenerator asks the model for a question set and normalizes its output.
type QuestionGenerator struct {
	llm    llm.Client
	logger zerolog.Logger
}

func NewQuestionGenerator(client llm.Client, logger zerolog.Logger) *QuestionGenerator {
	return &QuestionGenerator{
		llm:    client,
		logger: logger.With().Str("component", "questions").Logger(),
	}
}

// Generate returns n questions. Any model or parse failure yields an empty
// slice together with an error wrapping ErrGeneration.
func (g *QuestionGenerator) Generate(ctx context.Context, n int) ([]Question, error) {
	if n <= 0 {
		n = DefaultQuestionCount
	}

	prompt := llm.QuestionPrompt(n)
	g.logger.Debug().Int("count", n).Msg("sending question prompt")

	raw, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		g.logger.Error().Err(err).Msg("error generating questions")
		return []Question{}, fmt.Errorf("%w: %w: %v", ErrGeneration, ErrUpstream, err)
	}
	g.logger.Debug().Str("raw", raw).Msg("raw model response")

	questions := ParseQuestions(raw, g.logger)
	if len(questions) == 0 {
		g.logger.Error().Msg("model response is not in the expected format")
		return []Question{}, ErrGeneration
	}

	g.logger.Info().Int("count", len(questions)).Msg("generated questions")
	return questions, nil
}

// StripFence removes a surrounding ```json ... ``` wrapper. Text without both
// tokens is returned trimmed but otherwise untouched.
func StripFence(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if len(cleaned) >= len(fenceOpen)+len(fenceClose) &&
		strings.HasPrefix(cleaned, fenceOpen) && strings.HasSuffix(cleaned, fenceClose) {
		cleaned = cleaned[len(fenceOpen) : len(cleaned)-len(fenceClose)]
	}
	return cleaned
}

// ParseQuestions decodes model output into questions. It never fails: output
// that is not a JSON array yields an empty slice.
func ParseQuestions(raw string, logger zerolog.Logger) []Question {
	cleaned := StripFence(raw)

	var items []any
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		logger.Error().Err(err).Str("cleaned", cleaned).Msg("failed to parse model response as JSON array")
		return []Question{}
	}

	questions := make([]Question, 0, len(items))
	for _, item := range items {
		questions = append(questions, normalizeQuestion(item, logger))
	}
	return questions
}

func normalizeQuestion(item any, logger zerolog.Logger) Question {
	switch v := item.(type) {
	case map[string]any:
		q, ok := v["question"]
		if s, isString := q.(string); ok && isString {
			return Question{Question: s}
		}
		logger.Warn().Interface("item", v).Msg("question object without a string question field")
		if ok {
			return Question{Question: stringify(q)}
		}
		return Question{Question: stringify(v)}
	case string:
		return Question{Question: v}
	default:
		logger.Warn().Interface("item", v).Msg("unexpected question format")
		return Question{Question: stringify(v)}
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64, bool:
		return fmt.Sprint(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
