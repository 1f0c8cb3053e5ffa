package search

import (
	"go.uber.org/zap"
)

// Service is the facade that tries the primary backend (Meilisearch) first
// and falls back to the in-memory index. Every write goes to both so the
// fallback is always complete.
type Service struct {
	primary  Backend
	fallback *Memory
	logger   *zap.Logger
}

// NewService creates a search service. primary may be nil if Meilisearch is
// not configured.
func NewService(primary Backend, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{primary: primary, fallback: NewMemory(), logger: logger}
}

func (s *Service) primaryReady() bool {
	return s.primary != nil && s.primary.Healthy()
}

// Search tries the primary backend if healthy, otherwise the fallback.
func (s *Service) Search(q Query) Response {
	if s.primaryReady() {
		results, total, err := s.primary.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text, Backend: "meilisearch"}
		}
		s.logger.Warn("primary search failed, falling back to memory", zap.Error(err))
	}

	results, total, _ := s.fallback.Search(q)
	return Response{Results: nonNil(results), Total: total, Query: q.Text, Backend: "memory"}
}

func (s *Service) SearchClients(text string) Response {
	return s.Search(Query{Text: text, FilterType: ResultClient})
}

func (s *Service) SearchLeads(text string) Response {
	return s.Search(Query{Text: text, FilterType: ResultLead})
}

func (s *Service) IndexClient(c ClientRecord) {
	_ = s.fallback.IndexClients([]ClientRecord{c})
	if s.primaryReady() {
		if err := s.primary.IndexClients([]ClientRecord{c}); err != nil {
			s.logger.Warn("index client", zap.String("client_id", c.ID), zap.Error(err))
		}
	}
}

func (s *Service) IndexLead(l LeadRecord) {
	_ = s.fallback.IndexLeads([]LeadRecord{l})
	if s.primaryReady() {
		if err := s.primary.IndexLeads([]LeadRecord{l}); err != nil {
			s.logger.Warn("index lead", zap.String("lead_id", l.ID), zap.Error(err))
		}
	}
}

func (s *Service) DeleteClient(id string) {
	_ = s.fallback.DeleteClient(id)
	if s.primaryReady() {
		if err := s.primary.DeleteClient(id); err != nil {
			s.logger.Warn("delete client from index", zap.String("client_id", id), zap.Error(err))
		}
	}
}

func (s *Service) DeleteLead(id string) {
	_ = s.fallback.DeleteLead(id)
	if s.primaryReady() {
		if err := s.primary.DeleteLead(id); err != nil {
			s.logger.Warn("delete lead from index", zap.String("lead_id", id), zap.Error(err))
		}
	}
}

// Reindex replaces the fallback contents and pushes every record to the
// primary backend when it is healthy.
func (s *Service) Reindex(clients []ClientRecord, leads []LeadRecord) {
	s.fallback.Reset()
	_ = s.fallback.IndexClients(clients)
	_ = s.fallback.IndexLeads(leads)

	if !s.primaryReady() {
		return
	}
	if err := s.primary.IndexClients(clients); err != nil {
		s.logger.Warn("reindex clients", zap.Error(err))
	}
	if err := s.primary.IndexLeads(leads); err != nil {
		s.logger.Warn("reindex leads", zap.Error(err))
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
