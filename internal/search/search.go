package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultClient ResultType = "client"
	ResultLead   ResultType = "lead"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type    ResultType `json:"type"`
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet"`
	Status  string     `json:"status"`
}

// Query describes a search request.
type Query struct {
	Text         string
	FilterType   ResultType // empty = all types
	FilterStatus string
	Limit        int
	Offset       int
}

// Response is the envelope returned to the CLI.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
	Backend string   `json:"backend"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexClients(clients []ClientRecord) error
	IndexLeads(leads []LeadRecord) error
	DeleteClient(id string) error
	DeleteLead(id string) error
}

// Backend is an index that can both be written and searched.
type Backend interface {
	Searcher
	Indexer
}

// ClientRecord is the data we index for a client.
type ClientRecord struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Projects        []string `json:"projects"`
	Status          string   `json:"status"`
	AgreementStatus string   `json:"agreementStatus"`
}

// LeadRecord is the data we index for an outreach record.
type LeadRecord struct {
	ID          string `json:"id"`
	StartupName string `json:"startupName"`
	Founder     string `json:"founder"`
	TechStack   string `json:"techStack"`
	ProblemType string `json:"problemType"`
	Status      string `json:"status"`
}

const defaultLimit = 20
