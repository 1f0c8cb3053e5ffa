package search

import (
	"sort"
	"strings"
)

// Memory is the fallback searcher. It keeps the indexed records in process
// and matches by case-insensitive substring, so it is always healthy.
type Memory struct {
	clients map[string]ClientRecord
	leads   map[string]LeadRecord
	order   map[string]int
	next    int
}

func NewMemory() *Memory {
	return &Memory{
		clients: map[string]ClientRecord{},
		leads:   map[string]LeadRecord{},
		order:   map[string]int{},
	}
}

func (m *Memory) Healthy() bool { return true }

func (m *Memory) seen(key string) {
	if _, ok := m.order[key]; !ok {
		m.order[key] = m.next
		m.next++
	}
}

func (m *Memory) IndexClients(clients []ClientRecord) error {
	for _, c := range clients {
		m.seen("c:" + c.ID)
		m.clients[c.ID] = c
	}
	return nil
}

func (m *Memory) IndexLeads(leads []LeadRecord) error {
	for _, l := range leads {
		m.seen("l:" + l.ID)
		m.leads[l.ID] = l
	}
	return nil
}

func (m *Memory) DeleteClient(id string) error {
	delete(m.clients, id)
	delete(m.order, "c:"+id)
	return nil
}

func (m *Memory) DeleteLead(id string) error {
	delete(m.leads, id)
	delete(m.order, "l:"+id)
	return nil
}

// Reset drops every indexed record.
func (m *Memory) Reset() {
	m.clients = map[string]ClientRecord{}
	m.leads = map[string]LeadRecord{}
	m.order = map[string]int{}
	m.next = 0
}

// Search returns hits in indexing order, clients before leads.
func (m *Memory) Search(q Query) ([]Result, int, error) {
	text := strings.ToLower(strings.TrimSpace(q.Text))

	var clients, leads []Result
	if q.FilterType == "" || q.FilterType == ResultClient {
		for _, c := range m.clients {
			if q.FilterStatus != "" && c.Status != q.FilterStatus {
				continue
			}
			fields := append([]string{c.Name, c.Email}, c.Projects...)
			if !containsAny(text, fields...) {
				continue
			}
			clients = append(clients, Result{
				Type:    ResultClient,
				ID:      c.ID,
				Title:   c.Name,
				Snippet: clientSnippet(c),
				Status:  c.Status,
			})
		}
		m.sortByOrder("c:", clients)
	}
	if q.FilterType == "" || q.FilterType == ResultLead {
		for _, l := range m.leads {
			if q.FilterStatus != "" && l.Status != q.FilterStatus {
				continue
			}
			if !containsAny(text, l.StartupName, l.Founder, l.TechStack, l.ProblemType, l.Status) {
				continue
			}
			leads = append(leads, Result{
				Type:    ResultLead,
				ID:      l.ID,
				Title:   l.StartupName,
				Snippet: leadSnippet(l),
				Status:  l.Status,
			})
		}
		m.sortByOrder("l:", leads)
	}

	all := append(clients, leads...)
	return page(all, q.Offset, q.Limit), len(all), nil
}

func (m *Memory) sortByOrder(prefix string, results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return m.order[prefix+results[i].ID] < m.order[prefix+results[j].ID]
	})
}

func containsAny(text string, fields ...string) bool {
	if text == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), text) {
			return true
		}
	}
	return false
}

func page(results []Result, offset, limit int) []Result {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 || offset >= len(results) {
		return []Result{}
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end]
}

func clientSnippet(c ClientRecord) string {
	if len(c.Projects) == 0 {
		return c.Email
	}
	return c.Email + " · " + strings.Join(c.Projects, ", ")
}

func leadSnippet(l LeadRecord) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.Founder, l.TechStack, l.ProblemType} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " · ")
}
