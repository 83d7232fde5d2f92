package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/zauns/job-search/internal/oracle"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

func TestExtractKeywords(t *testing.T) {
	stub := &stubGenerator{response: `{"terms": ["Go", "PostgreSQL", "go", ""], "language": "EN"}`}
	o := NewOracle(stub, zap.NewNop())

	extraction, err := o.ExtractKeywords(context.Background(), "Senior Go developer with PostgreSQL experience")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(extraction.Terms) != 2 {
		t.Fatalf("expected lowercased deduplicated terms, got %v", extraction.Terms)
	}
	if extraction.Terms[0] != "go" || extraction.Terms[1] != "postgresql" {
		t.Fatalf("unexpected terms: %v", extraction.Terms)
	}
	if extraction.Language != "en" {
		t.Fatalf("expected language en, got %q", extraction.Language)
	}
	if !strings.Contains(stub.lastPrompt, "Senior Go developer") {
		t.Fatalf("expected the document in the prompt")
	}
}

func TestExtractKeywordsStripsCodeFence(t *testing.T) {
	stub := &stubGenerator{response: "```json\n{\"terms\": [\"go\"], \"language\": \"en\"}\n```"}
	o := NewOracle(stub, zap.NewNop())

	extraction, err := o.ExtractKeywords(context.Background(), "doc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(extraction.Terms) != 1 || extraction.Terms[0] != "go" {
		t.Fatalf("unexpected terms: %v", extraction.Terms)
	}
}

func TestExtractKeywordsUnavailableOnGeneratorError(t *testing.T) {
	stub := &stubGenerator{err: errors.New("quota exceeded")}
	o := NewOracle(stub, zap.NewNop())

	_, err := o.ExtractKeywords(context.Background(), "doc")
	if !errors.Is(err, oracle.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestExtractKeywordsUnavailableOnGarbage(t *testing.T) {
	stub := &stubGenerator{response: "sorry, I cannot help with that"}
	o := NewOracle(stub, zap.NewNop())

	_, err := o.ExtractKeywords(context.Background(), "doc")
	if !errors.Is(err, oracle.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on an unparseable answer, got %v", err)
	}
}

func TestScoreSimilarity(t *testing.T) {
	cases := []struct {
		name     string
		response string
		want     float64
	}{
		{name: "bare number", response: "0.85", want: 0.85},
		{name: "wrapped in prose", response: "The similarity is 0.7 overall.", want: 0.7},
		{name: "fenced", response: "```\n0.4\n```", want: 0.4},
		{name: "clamped high", response: "1.5", want: 1},
		{name: "clamped low", response: "-0.2", want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := NewOracle(&stubGenerator{response: tc.response}, zap.NewNop())
			score, err := o.ScoreSimilarity(context.Background(), "go", "golang")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if score != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, score)
			}
		})
	}
}

func TestScoreSimilarityUnavailableOnGarbage(t *testing.T) {
	o := NewOracle(&stubGenerator{response: "no idea"}, zap.NewNop())

	_, err := o.ScoreSimilarity(context.Background(), "go", "golang")
	if !errors.Is(err, oracle.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
