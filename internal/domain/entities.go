package domain

// DocumentChunk is the unit of retrieval: a bounded span of instruction
// text with the provenance needed to cite it back to the user.
type DocumentChunk struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	FormNumber  string `json:"form_number"`
	Page        int    `json:"page"`
	SourceLabel string `json:"source_label"`
	OriginPath  string `json:"origin_path"`
}

// Page is one page of extracted document text. Numbers are 1-based.
type Page struct {
	Number int
	Text   string
}

type ScoredChunk struct {
	Chunk DocumentChunk
	Score float64
}

type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

// Message is one half of a conversation turn. Immutable once appended.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Analysis is the structured record produced by classification.
// Field constraints are enforced at parse time; raw model output is
// never trusted.
type Analysis struct {
	Category          string   `json:"immigration_category"`
	ApplicableForms   []string `json:"applicable_forms"`
	PrioritySteps     []string `json:"priority_steps"`
	EstimatedTimeline string   `json:"estimated_timeline"`
	Confidence        float64  `json:"confidence"`
	NeedsMoreInfo     bool     `json:"needs_more_info"`
}

const (
	CategoryFamilyBased     = "family_based"
	CategoryEmploymentBased = "employment_based"
	CategoryNonimmigrant    = "nonimmigrant"
	CategoryHumanitarian    = "humanitarian"
	CategoryNaturalization  = "naturalization"
	CategoryUnknown         = "unknown"
)

// KnownCategories lists every category the classifier may return.
var KnownCategories = []string{
	CategoryFamilyBased,
	CategoryEmploymentBased,
	CategoryNonimmigrant,
	CategoryHumanitarian,
	CategoryNaturalization,
	CategoryUnknown,
}
