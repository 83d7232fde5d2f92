package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/zauns/job-search/internal/oracle"
)

const extractPrompt = `You are an expert technical recruiter.
Extract the most relevant skill and competency terms from the document below.

Rules:
- Return between 5 and 25 terms, most important first.
- Keep terms short (1-3 words), lowercase, in the document's language.
- Detect the document language and report it as an ISO 639-1 code.
- Respond with JSON only, no prose, in this exact shape:
  {"terms": ["term1", "term2"], "language": "en"}

Document:
%s`

const similarityPrompt = `Rate how close the following two skill terms are in meaning.
Treat synonyms, abbreviations and cross-language equivalents of the same skill as close.

Term A: %q
Term B: %q

Respond with a single number between 0.0 (unrelated) and 1.0 (same skill). No prose.`

// generator abstracts the model client so the oracle can be exercised
// without network access.
type generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Oracle answers keyword extraction and term similarity through Gemini.
// Every failure to reach or parse the model wraps oracle.ErrUnavailable.
type Oracle struct {
	gen    generator
	logger *zap.Logger
}

func NewOracle(gen generator, logger *zap.Logger) *Oracle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Oracle{gen: gen, logger: logger}
}

func (o *Oracle) ExtractKeywords(ctx context.Context, text string) (*oracle.Extraction, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("extract keywords: document is empty")
	}

	raw, err := o.gen.GenerateContent(ctx, fmt.Sprintf(extractPrompt, text))
	if err != nil {
		return nil, fmt.Errorf("extract keywords: %w: %w", oracle.ErrUnavailable, err)
	}

	extraction, err := parseExtraction(raw)
	if err != nil {
		o.logger.Debug("unparseable extraction response", zap.String("response", raw))
		return nil, fmt.Errorf("extract keywords: %w: %w", oracle.ErrUnavailable, err)
	}

	return extraction, nil
}

func (o *Oracle) ScoreSimilarity(ctx context.Context, termA, termB string) (float64, error) {
	raw, err := o.gen.GenerateContent(ctx, fmt.Sprintf(similarityPrompt, termA, termB))
	if err != nil {
		return 0, fmt.Errorf("score similarity: %w: %w", oracle.ErrUnavailable, err)
	}

	score, err := parseScore(raw)
	if err != nil {
		o.logger.Debug("unparseable similarity response", zap.String("response", raw))
		return 0, fmt.Errorf("score similarity: %w: %w", oracle.ErrUnavailable, err)
	}

	return score, nil
}

func parseExtraction(raw string) (*oracle.Extraction, error) {
	var payload struct {
		Terms    []string `json:"terms"`
		Language string   `json:"language"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}

	terms := make([]string, 0, len(payload.Terms))
	seen := make(map[string]struct{}, len(payload.Terms))
	for _, term := range payload.Terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("extraction response contains no terms")
	}

	return &oracle.Extraction{
		Terms:    terms,
		Language: strings.ToLower(strings.TrimSpace(payload.Language)),
	}, nil
}

// parseScore accepts a bare number, tolerating prose around it by taking the
// first numeric token. Models occasionally wrap the answer despite the prompt.
func parseScore(raw string) (float64, error) {
	for _, field := range strings.Fields(stripCodeFence(raw)) {
		field = strings.Trim(field, ",;:")
		score, err := strconv.ParseFloat(field, 64)
		if err != nil {
			continue
		}
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		return score, nil
	}
	return 0, fmt.Errorf("no numeric score in response %q", raw)
}

// stripCodeFence removes a surrounding markdown fence (```json ... ```) that
// Gemini sometimes adds around structured answers.
func stripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```")
	if idx := strings.Index(raw, "\n"); idx >= 0 {
		raw = raw[idx+1:]
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}
