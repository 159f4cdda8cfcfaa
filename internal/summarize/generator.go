package summarize

import (
	"context"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/sha1n/lexsearch/internal/domain"
)

// Generator names accepted by configuration.
const (
	GeneratorOpenAI     = "openai"
	GeneratorGoogleAI   = "googleai"
	GeneratorExtractive = "extractive"
	GeneratorEcho       = "echo"
)

// DefaultMaxSentences is the extractive summary length.
const DefaultMaxSentences = 5

// EchoGenerator returns the instruction followed by the content. It is used for
// smoke tests and local runs without a model.
type EchoGenerator struct{}

func (EchoGenerator) Generate(ctx context.Context, instruction, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return instruction + "\n\n" + content, nil
}

// UnavailableGenerator fails every call with reason. It stands in for a hosted
// provider that cannot be used so the rest of the server keeps running.
type UnavailableGenerator struct {
	Reason string
}

func (g UnavailableGenerator) Generate(context.Context, string, string) (string, error) {
	return "", domain.GenerationUnavailableError(g.Reason)
}

var (
	sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)
	wordPattern     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

// ExtractiveGenerator picks the sentences with the highest word-frequency score
// and returns them in document order. It works offline and ignores the
// instruction.
type ExtractiveGenerator struct {
	maxSentences int
	stopwords    map[string]struct{}
}

// NewExtractiveGenerator creates a generator that keeps at most maxSentences.
func NewExtractiveGenerator(maxSentences int) *ExtractiveGenerator {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	stop := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stop[w] = struct{}{}
	}
	return &ExtractiveGenerator{maxSentences: maxSentences, stopwords: stop}
}

func (g *ExtractiveGenerator) Generate(ctx context.Context, _ string, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	sentences := sentencePattern.FindAllString(content, -1)
	if len(sentences) == 0 {
		return strings.Join(strings.Fields(content), " "), nil
	}

	tokens := make([][]string, len(sentences))
	freq := make(map[string]float64)
	for i, s := range sentences {
		tokens[i] = wordPattern.FindAllString(strings.ToLower(s), -1)
		for _, tok := range tokens[i] {
			if _, ok := g.stopwords[tok]; !ok {
				freq[tok]++
			}
		}
	}

	var maxFreq float64
	for _, v := range freq {
		maxFreq = max(maxFreq, v)
	}

	type ranked struct {
		idx   int
		score float64
	}
	scores := make([]ranked, len(sentences))
	for i, toks := range tokens {
		var score float64
		for _, tok := range toks {
			score += freq[tok]
		}
		if maxFreq > 0 {
			score /= maxFreq
		}
		// Dampen long sentences
		if len(toks) > 0 {
			score /= math.Sqrt(float64(len(toks)))
		}
		scores[i] = ranked{idx: i, score: score}
	}
	slices.SortStableFunc(scores, func(a, b ranked) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})

	n := min(g.maxSentences, len(scores))
	picked := make([]int, n)
	for i := range n {
		picked[i] = scores[i].idx
	}
	slices.Sort(picked)

	out := make([]string, n)
	for i, idx := range picked {
		out[i] = strings.Join(strings.Fields(sentences[idx]), " ")
	}
	return strings.Join(out, " "), nil
}

var stopwords = []string{
	"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at",
	"by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "its", "this", "that",
	"these", "those", "from", "up", "down", "over", "under", "than", "so", "such", "into", "about",
	"between", "through", "during", "before", "after", "above", "below", "out", "off", "same", "too",
	"very", "can", "will", "shall", "may", "just", "should", "now", "any", "all", "not", "no",
}

// NewGenerator creates the generator named by cfg.Provider.
func NewGenerator(ctx context.Context, cfg ModelConfig, maxSentences int) (Generator, error) {
	switch cfg.Provider {
	case GeneratorExtractive:
		return NewExtractiveGenerator(maxSentences), nil
	case GeneratorEcho:
		return EchoGenerator{}, nil
	default:
		model, err := NewModel(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewLangChainGenerator(model), nil
	}
}
