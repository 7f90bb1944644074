package openlearnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
)

// Extraction failure kinds. The two-stage extract-then-parse split
// keeps "model didn't follow instructions" (ErrNoJSONArrayFound) apart
// from "JSON is syntactically broken" (ErrMalformedJSON) so callers get
// a precise kind to log on.
var (
	ErrEmptyCompletion  = errors.New("completion returned no quiz content")
	ErrNoJSONArrayFound = errors.New("no JSON array found in completion text")
	ErrMalformedJSON    = errors.New("completion JSON is malformed")
	ErrInvalidQuestion  = errors.New("question failed schema validation")
)

const quizSystemPrompt = "You are a quiz master AI for educational videos."

// quizArrayRE matches the first bracket-delimited sequence of objects
// in the completion text. Model output is not guaranteed to be pure
// JSON; this tolerates conversational wrapper text around the array.
var quizArrayRE = regexp.MustCompile(`(?s)\[\s*\{.*?\}\s*\]`)

// Completer is the completion capability the quiz pipeline needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt, model string) (string, error)
}

// QuizGenerator builds a structured quiz prompt, invokes the completion
// provider, and extracts a well-formed question array from the
// free-form text output.
type QuizGenerator struct {
	completer Completer
	logger    *CompletionLogger
}

// NewQuizGenerator creates a quiz generator over the given completer.
func NewQuizGenerator(c Completer) *QuizGenerator {
	return &QuizGenerator{completer: c}
}

// SetLogger attaches a transcript logger for prompts and raw responses.
func (qg *QuizGenerator) SetLogger(logger *CompletionLogger) {
	qg.logger = logger
}

// GenerateQuiz generates the quiz for a video and returns the extracted
// questions, or one of the extraction failure kinds.
func (qg *QuizGenerator) GenerateQuiz(ctx context.Context, videoTitle, topic, difficulty string) ([]QuizQuestion, error) {
	if difficulty == "" {
		difficulty = "beginner"
	}

	prompt := buildQuizPrompt(videoTitle, topic, difficulty)
	if qg.logger != nil {
		qg.logger.LogRequest(prompt)
	}

	raw, err := qg.completer.Complete(ctx, quizSystemPrompt, prompt, QuizModel)
	if err != nil {
		return nil, fmt.Errorf("quiz completion failed: %w", err)
	}
	if qg.logger != nil {
		qg.logger.LogResponse(raw)
	}
	VerboseLog("Quiz completion returned %d characters", len(raw))

	questions, err := ExtractQuiz(raw)
	if err != nil {
		log.Printf("Quiz extraction failed for %q: %v", videoTitle, err)
		return nil, err
	}
	if err := ValidateQuiz(questions); err != nil {
		log.Printf("Quiz validation failed for %q: %v", videoTitle, err)
		return nil, err
	}
	return questions, nil
}

// buildQuizPrompt builds the deterministic instruction prompt with an
// explicit output-format example.
func buildQuizPrompt(videoTitle, topic, difficulty string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Generate exactly 10 multiple-choice questions based on the video titled %q (topic: %s, difficulty: %s).\n\n", videoTitle, topic, difficulty))
	sb.WriteString("Each question must have this format only:\n")
	sb.WriteString("{\n")
	sb.WriteString("  \"question\": \"string\",\n")
	sb.WriteString("  \"options\": [\"A\", \"B\", \"C\", \"D\"],\n")
	sb.WriteString("  \"answer\": \"A\" | \"B\" | \"C\" | \"D\"\n")
	sb.WriteString("}\n\n")
	sb.WriteString("Output a valid JSON array ONLY, like this:\n")
	sb.WriteString("[\n")
	sb.WriteString("  { \"question\": \"...\", \"options\": [...], \"answer\": \"B\" },\n")
	sb.WriteString("  ...\n")
	sb.WriteString("]\n")
	sb.WriteString("DO NOT include explanations. Output ONLY the JSON array.\n")

	return sb.String()
}

// ExtractQuiz scans free-form completion text for the first JSON array
// of objects and parses it into questions.
func ExtractQuiz(raw string) ([]QuizQuestion, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyCompletion
	}

	match := quizArrayRE.FindString(raw)
	if match == "" {
		return nil, ErrNoJSONArrayFound
	}

	var questions []QuizQuestion
	if err := json.Unmarshal([]byte(match), &questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return questions, nil
}

// ValidateQuiz enforces the per-question invariants: exactly 4 options
// and an answer label in A-D. The question count is deliberately not
// enforced; the model routinely returns short quizzes and a partial
// quiz is still servable.
func ValidateQuiz(questions []QuizQuestion) error {
	for i, q := range questions {
		if len(q.Options) != 4 {
			return fmt.Errorf("%w: question %d has %d options, want 4", ErrInvalidQuestion, i+1, len(q.Options))
		}
		switch q.Answer {
		case "A", "B", "C", "D":
		default:
			return fmt.Errorf("%w: question %d has answer %q, want A-D", ErrInvalidQuestion, i+1, q.Answer)
		}
	}
	return nil
}
