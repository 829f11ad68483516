package service

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/cloo-solutions/hrassist/internal/domain"
	"gopkg.in/yaml.v3"
)

// maxSuggestions caps the follow-up list returned to the UI.
const maxSuggestions = 4

const questionPlaceholder = "{question}"

//go:embed taxonomy.yaml
var defaultTaxonomyYAML []byte

// Taxonomy maps queries onto HR topics. The same rules drive the canned
// fallback answers and the follow-up suggestions.
type Taxonomy struct {
	Topics  []TopicRule `yaml:"topics"`
	General GeneralRule `yaml:"general"`
	Contact ContactRule `yaml:"contact"`

	topicKeywords   [][][]string
	variantKeywords [][][][]string
}

// TopicRule is one topic: the phrases that select it, its canned answer,
// and its suggestions.
type TopicRule struct {
	Topic       domain.Topic    `yaml:"topic"`
	Keywords    []string        `yaml:"keywords"`
	Answer      string          `yaml:"answer"`
	Variants    []AnswerVariant `yaml:"variants"`
	Suggestions []string        `yaml:"suggestions"`
}

// AnswerVariant replaces the topic answer when one of its phrases is present.
type AnswerVariant struct {
	Keywords []string `yaml:"keywords"`
	Answer   string   `yaml:"answer"`
}

// GeneralRule applies when no topic matches. Answer may contain {question}.
type GeneralRule struct {
	Answer      string   `yaml:"answer"`
	EmptyAnswer string   `yaml:"empty_answer"`
	Suggestions []string `yaml:"suggestions"`
}

// ContactRule is the "talk to HR" introduction.
type ContactRule struct {
	Answer      string   `yaml:"answer"`
	Suggestions []string `yaml:"suggestions"`
}

// ParseTaxonomy decodes and validates a taxonomy document.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	t.compile()
	return &t, nil
}

var (
	defaultTaxonomyOnce sync.Once
	defaultTaxonomy     *Taxonomy
)

// DefaultTaxonomy returns the embedded taxonomy.
func DefaultTaxonomy() *Taxonomy {
	defaultTaxonomyOnce.Do(func() {
		t, err := ParseTaxonomy(defaultTaxonomyYAML)
		if err != nil {
			panic(err)
		}
		defaultTaxonomy = t
	})
	return defaultTaxonomy
}

func (t *Taxonomy) validate() error {
	if len(t.Topics) == 0 {
		return fmt.Errorf("taxonomy: no topics defined")
	}
	seen := make(map[domain.Topic]bool)
	for i, rule := range t.Topics {
		if rule.Topic == "" || rule.Topic == domain.TopicGeneral {
			return fmt.Errorf("taxonomy: topic %d has an invalid name %q", i, rule.Topic)
		}
		if seen[rule.Topic] {
			return fmt.Errorf("taxonomy: duplicate topic %q", rule.Topic)
		}
		seen[rule.Topic] = true
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("taxonomy: topic %q has no keywords", rule.Topic)
		}
		if strings.TrimSpace(rule.Answer) == "" {
			return fmt.Errorf("taxonomy: topic %q has no answer", rule.Topic)
		}
		if len(rule.Suggestions) == 0 {
			return fmt.Errorf("taxonomy: topic %q has no suggestions", rule.Topic)
		}
	}
	if strings.TrimSpace(t.General.Answer) == "" || len(t.General.Suggestions) == 0 {
		return fmt.Errorf("taxonomy: general answer and suggestions are required")
	}
	return nil
}

func (t *Taxonomy) compile() {
	t.topicKeywords = make([][][]string, len(t.Topics))
	t.variantKeywords = make([][][][]string, len(t.Topics))
	for i, rule := range t.Topics {
		t.topicKeywords[i] = tokenizePhrases(rule.Keywords)
		t.variantKeywords[i] = make([][][]string, len(rule.Variants))
		for j, v := range rule.Variants {
			t.variantKeywords[i][j] = tokenizePhrases(v.Keywords)
		}
	}
}

func (t *Taxonomy) match(query string) int {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return -1
	}
	for i := range t.Topics {
		if containsAnyPhrase(tokens, t.topicKeywords[i]) {
			return i
		}
	}
	return -1
}

// Classify returns the first topic, in taxonomy order, with a keyword
// phrase present in query.
func (t *Taxonomy) Classify(query string) domain.Topic {
	if i := t.match(query); i >= 0 {
		return t.Topics[i].Topic
	}
	return domain.TopicGeneral
}

// Answer returns the canned answer for query.
func (t *Taxonomy) Answer(query string) string {
	query = strings.TrimSpace(query)
	i := t.match(query)
	if i < 0 {
		if query == "" && t.General.EmptyAnswer != "" {
			return strings.TrimSpace(t.General.EmptyAnswer)
		}
		return strings.TrimSpace(strings.ReplaceAll(t.General.Answer, questionPlaceholder, query))
	}

	tokens := Tokenize(query)
	rule := t.Topics[i]
	for j, v := range rule.Variants {
		if containsAnyPhrase(tokens, t.variantKeywords[i][j]) {
			return strings.TrimSpace(v.Answer)
		}
	}
	return strings.TrimSpace(rule.Answer)
}

// Suggest returns follow-up questions for query. Never empty.
func (t *Taxonomy) Suggest(query string) []string {
	suggestions := t.General.Suggestions
	if i := t.match(query); i >= 0 {
		suggestions = t.Topics[i].Suggestions
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	out := make([]string, len(suggestions))
	copy(out, suggestions)
	return out
}

// ContactAnswer returns the HR contact introduction and its suggestions.
func (t *Taxonomy) ContactAnswer() (string, []string) {
	suggestions := t.Contact.Suggestions
	if len(suggestions) == 0 {
		suggestions = t.General.Suggestions
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	out := make([]string, len(suggestions))
	copy(out, suggestions)
	return strings.TrimSpace(t.Contact.Answer), out
}

// Tokenize lower-cases text and splits it on anything that is not a letter
// or digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func tokenizePhrases(phrases []string) [][]string {
	out := make([][]string, 0, len(phrases))
	for _, p := range phrases {
		if tokens := Tokenize(p); len(tokens) > 0 {
			out = append(out, tokens)
		}
	}
	return out
}

func containsAnyPhrase(tokens []string, phrases [][]string) bool {
	for _, phrase := range phrases {
		if containsPhrase(tokens, phrase) {
			return true
		}
	}
	return false
}

func containsPhrase(tokens, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(tokens) {
		return false
	}
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		match := true
		for j, p := range phrase {
			if tokens[i+j] != p {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
