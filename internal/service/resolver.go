package service

import (
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/cloo-solutions/hrassist/internal/domain"
)

// MinAnswerLength is the shortest sanitized answer accepted from the corpus.
const MinAnswerLength = 20

// Resolver turns a retrieval result into the single answer shown to the user.
//
// The ladder, first usable rung wins:
//  1. the top entry's sanitized answer (0.95)
//  2. no entries: the topic's canned answer (0.85)
//  3. anything else, including a panic: the canned answer with escalation (0.80)
type Resolver struct {
	taxonomy *Taxonomy
}

func NewResolver(taxonomy *Taxonomy) *Resolver {
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}
	return &Resolver{taxonomy: taxonomy}
}

// Taxonomy returns the topic rules used for fallbacks and suggestions.
func (r *Resolver) Taxonomy() *Taxonomy {
	return r.taxonomy
}

// Resolve never fails. The returned answer always has text and suggestions.
func (r *Resolver) Resolve(query string, result domain.RetrievalResult) (answer domain.ResolvedAnswer) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("resolver: recovered from panic: %v", rec)
			answer = r.errorFallback(query)
		}
	}()

	top, ok := result.Top()
	if !ok {
		return r.finish(query, r.taxonomy.Answer(query), domain.ConfidenceDomainFallback, domain.MethodDomainFallback, false)
	}

	text, err := acceptAnswer(top.Entry.Answer)
	if err != nil {
		log.Printf("resolver: row %d rejected: %v", top.Entry.RowID, err)
		return r.errorFallback(query)
	}

	method := domain.MethodVectorClean
	if result.Method == domain.RetrievalKeyword {
		method = domain.MethodKeywordClean
	}
	return r.finish(query, text, domain.ConfidenceClean, method, false)
}

func (r *Resolver) errorFallback(query string) domain.ResolvedAnswer {
	return r.finish(query, r.taxonomy.Answer(query), domain.ConfidenceErrorFallback, domain.MethodErrorFallback, true)
}

func (r *Resolver) finish(query, text string, score float64, method string, escalate bool) domain.ResolvedAnswer {
	return domain.ResolvedAnswer{
		Text:            text,
		ConfidenceScore: score,
		ConfidenceLabel: domain.ConfidenceLabel(score),
		RetrievalMethod: method,
		ShowEscalation:  escalate || domain.NeedsEscalation(score),
		Suggestions:     r.taxonomy.Suggest(query),
		Topic:           r.taxonomy.Classify(query),
	}
}

// acceptAnswer sanitizes a corpus answer and checks it is fit to show.
func acceptAnswer(raw string) (string, error) {
	text := Sanitize(raw)
	if text == "" {
		return "", fmt.Errorf("%w: empty after sanitizing", domain.ErrSanitizationRejected)
	}
	if utf8.RuneCountInString(text) < MinAnswerLength {
		return "", fmt.Errorf("%w: %d characters is below the minimum", domain.ErrSanitizationRejected, utf8.RuneCountInString(text))
	}
	if !IsClean(text) {
		return "", fmt.Errorf("%w: leaked marker remains", domain.ErrSanitizationRejected)
	}
	return text, nil
}

// ContactAnswer is the fixed "talk to HR" response. Escalation is always
// offered.
func (r *Resolver) ContactAnswer() domain.ResolvedAnswer {
	text, suggestions := r.taxonomy.ContactAnswer()
	return domain.ResolvedAnswer{
		Text:            text,
		ConfidenceScore: domain.ConfidenceContactFlow,
		ConfidenceLabel: domain.ConfidenceLabel(domain.ConfidenceContactFlow),
		RetrievalMethod: domain.MethodContactFlow,
		ShowEscalation:  true,
		Suggestions:     suggestions,
		Topic:           domain.TopicGeneral,
	}
}
