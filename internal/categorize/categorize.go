// Package categorize suggests spending categories for extracted statement
// candidates. Keyword rules run first; a generative model can pick up the
// remainder. Suggestions are advisory and never fail the pipeline.
package categorize

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nkoval/finledger/internal/ingest"
)

// Engine matches candidates against keyword rules, with an optional model
// fallback for descriptions no rule covers.
type Engine struct {
	rules []Rule
	model ModelClient
	log   zerolog.Logger
}

// NewEngine creates a categorizer. model may be nil to disable the
// fallback.
func NewEngine(rules []Rule, model ModelClient, log zerolog.Logger) *Engine {
	return &Engine{rules: rules, model: model, log: log}
}

var _ ingest.Categorizer = (*Engine)(nil)

// Suggest fills in Category for candidates that don't have one. Keyword
// rules are tried first; candidates still uncategorized go to the model in
// one batch. Model failures leave candidates uncategorized.
func (e *Engine) Suggest(ctx context.Context, candidates []ingest.Candidate) []ingest.Candidate {
	var unmatched []int
	for i := range candidates {
		if candidates[i].Category != "" {
			continue
		}
		if name, ok := e.matchKeywords(candidates[i].Description); ok {
			candidates[i].Category = name
		} else {
			unmatched = append(unmatched, i)
		}
	}

	if e.model == nil || len(unmatched) == 0 {
		return candidates
	}

	suggestions, err := e.suggestWithModel(ctx, candidates, unmatched)
	if err != nil {
		e.log.Warn().Err(err).Int("candidates", len(unmatched)).Msg("Model categorization failed")
		return candidates
	}
	for i, category := range suggestions {
		if e.knownCategory(category) {
			candidates[i].Category = category
		}
	}
	return candidates
}

func (e *Engine) matchKeywords(description string) (string, bool) {
	desc := strings.ToLower(description)
	for _, rule := range e.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(desc, kw) {
				return rule.Name, true
			}
		}
	}
	return "", false
}

// knownCategory guards against the model inventing categories outside the
// taxonomy.
func (e *Engine) knownCategory(name string) bool {
	for _, rule := range e.rules {
		if rule.Name == name {
			return true
		}
	}
	return false
}
