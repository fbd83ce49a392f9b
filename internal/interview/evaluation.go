package interview

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lukasbauer/interviewer/internal/llm"
	"github.com/rs/zerolog"
)

// Criterion is one of the fixed scoring dimensions.
type Criterion string

const (
	Relevance   Criterion = "Relevance"
	Correctness Criterion = "Correctness"
	Clarity     Criterion = "Clarity"
	Depth       Criterion = "Depth"
)

// Criteria lists the scoring dimensions in prompt order.
var Criteria = []Criterion{Relevance, Correctness, Clarity, Depth}

// Evaluation is the scored answer. It is always returned in full shape.
type Evaluation struct {
	Question            string  `json:"question"`
	Answer              string  `json:"answer"`
	OverallScore        float64 `json:"overall_score"`
	Relevance           float64 `json:"relevance"`
	Correctness         float64 `json:"correctness"`
	Clarity             float64 `json:"clarity"`
	Depth               float64 `json:"depth"`
	RelevanceFeedback   string  `json:"relevance_feedback"`
	CorrectnessFeedback string  `json:"correctness_feedback"`
	ClarityFeedback     string  `json:"clarity_feedback"`
	DepthFeedback       string  `json:"depth_feedback"`
}

func (e *Evaluation) set(c Criterion, score float64, feedback string) {
	switch c {
	case Relevance:
		e.Relevance, e.RelevanceFeedback = score, feedback
	case Correctness:
		e.Correctness, e.CorrectnessFeedback = score, feedback
	case Clarity:
		e.Clarity, e.ClarityFeedback = score, feedback
	case Depth:
		e.Depth, e.DepthFeedback = score, feedback
	}
}

type fieldKind int

const (
	scoreField fieldKind = iota
	feedbackField
	overallField
)

// field is one expected line of the scoring layout.
type field struct {
	criterion Criterion
	kind      fieldKind
	pattern   *regexp.Regexp
}

const scoreCapture = `(\d+(?:\.\d+)?)`

var evaluationFields = func() []field {
	fields := make([]field, 0, len(Criteria)*2+1)
	for _, c := range Criteria {
		fields = append(fields,
			field{criterion: c, kind: scoreField, pattern: regexp.MustCompile(string(c) + `: ` + scoreCapture)},
			field{criterion: c, kind: feedbackField, pattern: regexp.MustCompile(string(c) + ` Feedback: (.*)`)},
		)
	}
	return append(fields, field{kind: overallField, pattern: regexp.MustCompile(`Overall Score: ` + scoreCapture)})
}()

// ParseResult is the outcome of parsing a scoring response.
type ParseResult struct {
	Evaluation Evaluation
	// Missing lists criteria lacking a score or a feedback line.
	Missing []Criterion
	// OverallParsed is false when the overall score was computed as a mean.
	OverallParsed bool
}

// ParseEvaluation scans the response line by line. The first match of each
// field wins; a criterion counts only when both its score and its feedback
// were found.
func ParseEvaluation(question, answer, response string) ParseResult {
	scores := make(map[Criterion]float64, len(Criteria))
	feedback := make(map[Criterion]string, len(Criteria))
	var overall float64
	overallFound := false

	for _, line := range strings.Split(response, "\n") {
		for _, f := range evaluationFields {
			m := f.pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			switch f.kind {
			case scoreField:
				if _, seen := scores[f.criterion]; !seen {
					if v, err := strconv.ParseFloat(m[1], 64); err == nil {
						scores[f.criterion] = v
					}
				}
			case feedbackField:
				if _, seen := feedback[f.criterion]; !seen {
					feedback[f.criterion] = strings.TrimSpace(m[1])
				}
			case overallField:
				if !overallFound {
					if v, err := strconv.ParseFloat(m[1], 64); err == nil {
						overall, overallFound = v, true
					}
				}
			}
		}
	}

	res := ParseResult{Evaluation: Evaluation{Question: question, Answer: answer}}
	var sum float64
	var recorded int
	for _, c := range Criteria {
		score, hasScore := scores[c]
		fb, hasFeedback := feedback[c]
		if !hasScore || !hasFeedback {
			res.Missing = append(res.Missing, c)
			continue
		}
		res.Evaluation.set(c, score, fb)
		sum += score
		recorded++
	}

	switch {
	case overallFound:
		res.Evaluation.OverallScore = overall
		res.OverallParsed = true
	case recorded > 0:
		res.Evaluation.OverallScore = sum / float64(recorded)
	}
	return res
}

// AnswerEvaluator scores a candidate answer with the generative model.
type AnswerEvaluator struct {
	llm    llm.Client
	logger zerolog.Logger
}

func NewAnswerEvaluator(client llm.Client, logger zerolog.Logger) *AnswerEvaluator {
	return &AnswerEvaluator{
		llm:    client,
		logger: logger.With().Str("component", "evaluator").Logger(),
	}
}

// Evaluate calls the model once and parses its scoring response. Partial parse
// failures are logged and never returned as errors.
func (e *AnswerEvaluator) Evaluate(ctx context.Context, question, answer string) (*Evaluation, error) {
	e.logger.Info().Str("question", question).Str("answer", answer).Msg("evaluating answer")

	raw, err := e.llm.Generate(ctx, llm.EvaluationPrompt(question, answer))
	if err != nil {
		e.logger.Error().Err(err).Msg("error calling model")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	e.logger.Debug().Str("raw", raw).Msg("raw model response")

	if strings.TrimSpace(raw) == "" {
		e.logger.Error().Msg("received empty response from model")
		return nil, ErrEmptyResponse
	}

	res := ParseEvaluation(question, answer, raw)
	if len(res.Missing) > 0 {
		missing := make([]string, len(res.Missing))
		for i, c := range res.Missing {
			missing[i] = string(c)
		}
		e.logger.Warn().Strs("missing", missing).Bool("overall_parsed", res.OverallParsed).
			Msg("scoring response only partially parsed")
	}

	e.logger.Info().Float64("overall_score", res.Evaluation.OverallScore).Msg("parsed evaluation")
	return &res.Evaluation, nil
}
