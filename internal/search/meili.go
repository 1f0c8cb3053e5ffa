package search

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	meili "github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

const (
	idxClients = "console_clients"
	idxLeads   = "console_leads"
)

// Meili implements Backend via Meilisearch. Health is probed on construction
// and on Refresh; a failed request marks the client unhealthy until then.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	logger  *zap.Logger
}

// NewMeili creates a Meilisearch client and configures indexes when the
// server answers. An unreachable server yields an unhealthy Meili rather than
// an error so callers can fall back.
func NewMeili(url, apiKey string, logger *zap.Logger) *Meili {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Meili{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		logger: logger,
	}
	if m.Refresh() {
		m.configureIndexes()
	} else {
		logger.Warn("meilisearch unavailable", zap.String("url", url))
	}
	return m
}

// Refresh re-checks health and reports the result.
func (m *Meili) Refresh() bool {
	_, err := m.client.Health()
	m.healthy.Store(err == nil)
	return err == nil
}

func (m *Meili) configureIndexes() {
	indexes := []struct {
		uid        string
		filterable []string
		searchable []string
	}{
		{
			uid:        idxClients,
			filterable: []string{"status", "agreementStatus"},
			searchable: []string{"name", "email", "projects"},
		},
		{
			uid:        idxLeads,
			filterable: []string{"status"},
			searchable: []string{"startupName", "founder", "techStack", "problemType", "status"},
		},
	}

	for _, idx := range indexes {
		if _, err := m.client.CreateIndex(&meili.IndexConfig{
			Uid:        idx.uid,
			PrimaryKey: "id",
		}); err != nil {
			m.logger.Debug("create index (may already exist)", zap.String("index", idx.uid), zap.Error(err))
		}

		index := m.client.Index(idx.uid)
		filterable := make([]interface{}, len(idx.filterable))
		for i, v := range idx.filterable {
			filterable[i] = v
		}
		if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
			m.logger.Warn("update filterable attributes", zap.String("index", idx.uid), zap.Error(err))
		}
		if _, err := index.UpdateSearchableAttributes(&idx.searchable); err != nil {
			m.logger.Warn("update searchable attributes", zap.String("index", idx.uid), zap.Error(err))
		}
	}
}

// Healthy reports whether Meilisearch was reachable on the last check.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries both indexes (or the filtered one) and merges the hits.
func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit <= 0 {
		limit = defaultLimit
	}

	var queries []*meili.SearchRequest
	for _, ti := range []struct {
		uid  string
		rtyp ResultType
	}{
		{idxClients, ResultClient},
		{idxLeads, ResultLead},
	} {
		if q.FilterType != "" && q.FilterType != ti.rtyp {
			continue
		}
		sr := &meili.SearchRequest{
			IndexUID: ti.uid,
			Query:    q.Text,
			Limit:    limit,
			Offset:   int64(q.Offset),
		}
		if q.FilterStatus != "" {
			sr.Filter = fmt.Sprintf("status = %q", q.FilterStatus)
		}
		queries = append(queries, sr)
	}
	if len(queries) == 0 {
		return nil, 0, nil
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{Queries: queries})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	var results []Result
	total := 0
	for _, sr := range resp.Results {
		total += int(sr.EstimatedTotalHits)
		rtyp := indexToResultType(sr.IndexUID)
		for _, hit := range sr.Hits {
			results = append(results, hitToResult(hit, rtyp))
		}
	}
	return results, total, nil
}

func indexToResultType(uid string) ResultType {
	switch uid {
	case idxClients:
		return ResultClient
	case idxLeads:
		return ResultLead
	default:
		return ""
	}
}

func hitToResult(hit meili.Hit, rtyp ResultType) Result {
	r := Result{Type: rtyp, ID: decodeString(hit, "id"), Status: decodeString(hit, "status")}
	switch rtyp {
	case ResultClient:
		var projects []string
		if raw, ok := hit["projects"]; ok {
			_ = json.Unmarshal(raw, &projects)
		}
		r.Title = decodeString(hit, "name")
		r.Snippet = clientSnippet(ClientRecord{Email: decodeString(hit, "email"), Projects: projects})
	case ResultLead:
		r.Title = decodeString(hit, "startupName")
		r.Snippet = leadSnippet(LeadRecord{
			Founder:     decodeString(hit, "founder"),
			TechStack:   decodeString(hit, "techStack"),
			ProblemType: decodeString(hit, "problemType"),
		})
	}
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return ""
}

// IndexClients adds or replaces client records.
func (m *Meili) IndexClients(clients []ClientRecord) error {
	if len(clients) == 0 {
		return nil
	}
	_, err := m.client.Index(idxClients).AddDocuments(clients, nil)
	return err
}

// IndexLeads adds or replaces lead records.
func (m *Meili) IndexLeads(leads []LeadRecord) error {
	if len(leads) == 0 {
		return nil
	}
	_, err := m.client.Index(idxLeads).AddDocuments(leads, nil)
	return err
}

func (m *Meili) DeleteClient(id string) error {
	_, err := m.client.Index(idxClients).DeleteDocument(id, nil)
	return err
}

func (m *Meili) DeleteLead(id string) error {
	_, err := m.client.Index(idxLeads).DeleteDocument(id, nil)
	return err
}
