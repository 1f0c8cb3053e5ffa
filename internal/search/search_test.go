package search

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	healthy   bool
	searchErr error
	results   []Result
	clients   []ClientRecord
	leads     []LeadRecord
	deleted   []string
}

func (f *fakeBackend) Healthy() bool { return f.healthy }

func (f *fakeBackend) Search(Query) ([]Result, int, error) {
	if f.searchErr != nil {
		return nil, 0, f.searchErr
	}
	return f.results, len(f.results), nil
}

func (f *fakeBackend) IndexClients(c []ClientRecord) error {
	f.clients = append(f.clients, c...)
	return nil
}

func (f *fakeBackend) IndexLeads(l []LeadRecord) error {
	f.leads = append(f.leads, l...)
	return nil
}

func (f *fakeBackend) DeleteClient(id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) DeleteLead(id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func sampleClients() []ClientRecord {
	return []ClientRecord{
		{ID: "client_1", Name: "Acme Corp", Email: "ops@acme.io", Projects: []string{"Website"}, Status: "Active"},
		{ID: "client_2", Name: "Globex", Email: "hi@globex.com", Projects: []string{"Mobile App"}, Status: "Completed"},
	}
}

func sampleLeads() []LeadRecord {
	return []LeadRecord{
		{ID: "lead_1", StartupName: "Nimbus", Founder: "Ada", TechStack: "Go", ProblemType: "Performance", Status: "Contacted"},
	}
}

func TestMemorySearch(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.IndexClients(sampleClients()))
	require.NoError(t, m.IndexLeads(sampleLeads()))

	results, total, err := m.Search(Query{Text: "mobile"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "client_2", results[0].ID)

	results, total, _ = m.Search(Query{})
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"client_1", "client_2", "lead_1"}, resultIDs(results))

	results, _, _ = m.Search(Query{Text: "go", FilterType: ResultLead})
	assert.Equal(t, []string{"lead_1"}, resultIDs(results))

	results, _, _ = m.Search(Query{FilterType: ResultClient, FilterStatus: "Completed"})
	assert.Equal(t, []string{"client_2"}, resultIDs(results))

	results, total, _ = m.Search(Query{Limit: 1, Offset: 1})
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"client_2"}, resultIDs(results))

	require.NoError(t, m.DeleteClient("client_1"))
	_, total, _ = m.Search(Query{FilterType: ResultClient})
	assert.Equal(t, 1, total)
}

func TestServiceFallsBackWithoutPrimary(t *testing.T) {
	svc := NewService(nil, nil)
	svc.Reindex(sampleClients(), sampleLeads())

	resp := svc.SearchClients("ACME")
	assert.Equal(t, "memory", resp.Backend)
	assert.Equal(t, []string{"client_1"}, resultIDs(resp.Results))

	resp = svc.SearchLeads("nothing")
	assert.Empty(t, resp.Results)
	assert.NotNil(t, resp.Results)
}

func TestServiceUsesHealthyPrimary(t *testing.T) {
	primary := &fakeBackend{healthy: true, results: []Result{{Type: ResultClient, ID: "client_9"}}}
	svc := NewService(primary, nil)
	svc.Reindex(sampleClients(), sampleLeads())

	assert.Len(t, primary.clients, 2)
	assert.Len(t, primary.leads, 1)

	resp := svc.Search(Query{Text: "anything"})
	assert.Equal(t, "meilisearch", resp.Backend)
	assert.Equal(t, []string{"client_9"}, resultIDs(resp.Results))

	svc.DeleteClient("client_1")
	assert.Equal(t, []string{"client_1"}, primary.deleted)
}

func TestServiceFallsBackOnPrimaryError(t *testing.T) {
	primary := &fakeBackend{healthy: true, searchErr: errors.New("boom")}
	svc := NewService(primary, nil)
	svc.IndexClient(sampleClients()[0])
	svc.IndexLead(sampleLeads()[0])

	resp := svc.Search(Query{Text: "nimbus"})
	assert.Equal(t, "memory", resp.Backend)
	assert.Equal(t, []string{"lead_1"}, resultIDs(resp.Results))
}

func TestServiceSkipsUnhealthyPrimaryWrites(t *testing.T) {
	primary := &fakeBackend{}
	svc := NewService(primary, nil)
	svc.IndexClient(sampleClients()[0])
	svc.DeleteLead("lead_1")

	assert.Empty(t, primary.clients)
	assert.Empty(t, primary.deleted)
	assert.Equal(t, "memory", svc.SearchClients("acme").Backend)
}

func TestUnreachableMeiliIsUnhealthy(t *testing.T) {
	m := NewMeili("http://127.0.0.1:1", "", nil)
	assert.False(t, m.Healthy())
	_, _, err := m.Search(Query{Text: "x"})
	assert.Error(t, err)

	svc := NewService(m, nil)
	svc.Reindex(sampleClients(), nil)
	assert.Equal(t, "memory", svc.SearchClients("globex").Backend)
}

func resultIDs(results []Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.ID)
	}
	return out
}
