package core

// ResultType identifies which search category produced a result.
type ResultType string

const (
	ResultTypeWeb  ResultType = "web"
	ResultTypeNews ResultType = "news"
)

// SearchResult is a normalized web or news hit.
type SearchResult struct {
	Type      ResultType `json:"type"`
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	Snippet   string     `json:"snippet"`
	Relevance float64    `json:"relevance"`
}

// AnswerResult is the outcome of processing one question.
type AnswerResult struct {
	Success          bool           `json:"success"`
	Question         string         `json:"question"`
	Answer           string         `json:"answer"`
	SearchResults    []SearchResult `json:"search_results"`
	SourcesCount     int            `json:"sources_count"`
	MathSolved       bool           `json:"math_solved"`
	AIAvailable      bool           `json:"ai_available"`
	SearchAvailable  bool           `json:"search_available"`
	EnhancedFeatures bool           `json:"enhanced_features"`
	SynthesisMode    string         `json:"synthesis_mode,omitempty"`
	Error            string         `json:"error,omitempty"`
}

// Capabilities is the read-only snapshot of which collaborators came up at
// startup. It is built once and shared by the pipeline and the HTTP layer.
type Capabilities struct {
	AIAvailable     bool   `json:"ai_available"`
	SearchAvailable bool   `json:"search_available"`
	Model           string `json:"model,omitempty"`
	Provider        string `json:"provider,omitempty"`
	SearchBackend   string `json:"search_backend,omitempty"`
}

// Features mirrors the feature switches reported to clients.
type Features struct {
	Search      bool `json:"search"`
	MathSolver  bool `json:"math_solver"`
	WebScraping bool `json:"web_scraping"`
}

// Page is the extracted text of a fetched web page.
type Page struct {
	URL     string `json:"url,omitempty"`
	Title   string `json:"title"`
	Content string `json:"content"`
}
