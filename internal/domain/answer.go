package domain

// Topic is an HR topic domain used for canned answers and suggestions
type Topic string

const (
	TopicLeave        Topic = "leave"
	TopicBenefits     Topic = "benefits"
	TopicCompensation Topic = "compensation"
	TopicGeneral      Topic = "general"
)

// Confidence scores assigned by each rung of the resolution ladder.
const (
	ConfidenceClean          = 0.95
	ConfidenceDomainFallback = 0.85
	ConfidenceErrorFallback  = 0.80
	ConfidenceContactFlow    = 1.0

	// EscalationThreshold forces the escalation offer below this score.
	EscalationThreshold = 0.5
)

// Retrieval methods reported on resolved answers and tickets.
const (
	MethodVectorClean    = "vector_clean"
	MethodKeywordClean   = "keyword_clean"
	MethodDomainFallback = "domain_fallback"
	MethodErrorFallback  = "error_fallback"
	MethodContactFlow    = "contact_flow"
)

// Confidence labels
const (
	LabelHigh   = "High Confidence"
	LabelMedium = "Medium Confidence"
	LabelLow    = "Low Confidence"
)

// ResolvedAnswer is the single user-facing outcome of a query.
type ResolvedAnswer struct {
	Text            string   `json:"answer"`
	ConfidenceScore float64  `json:"confidence_score"`
	ConfidenceLabel string   `json:"confidence"`
	RetrievalMethod string   `json:"retrieval_method"`
	ShowEscalation  bool     `json:"show_escalation"`
	Suggestions     []string `json:"suggestions"`
	Topic           Topic    `json:"topic"`
}

// ConfidenceLabel maps a score onto its label. 0.7 and 0.4 belong to the
// higher band.
func ConfidenceLabel(score float64) string {
	switch {
	case score >= 0.7:
		return LabelHigh
	case score >= 0.4:
		return LabelMedium
	default:
		return LabelLow
	}
}

// NeedsEscalation reports whether a score is too low to stand on its own.
func NeedsEscalation(score float64) bool {
	return score < EscalationThreshold
}
