package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ai-engineer-001/upcraft-crm/internal/export"
	"github.com/ai-engineer-001/upcraft-crm/internal/files"
	"github.com/ai-engineer-001/upcraft-crm/internal/outreach"
	"github.com/ai-engineer-001/upcraft-crm/internal/search"
	"github.com/ai-engineer-001/upcraft-crm/internal/store"
	"github.com/ai-engineer-001/upcraft-crm/internal/views"
)

// Dashboard is the client list for one lifecycle status plus its totals.
type Dashboard struct {
	Status  store.ClientStatus `json:"status"`
	Clients []views.ClientView `json:"clients"`
	Stats   views.Stats        `json:"stats"`
}

// ClientsWithProjects lists clients with the given lifecycle status.
func (s *Service) ClientsWithProjects(status store.ClientStatus) ([]views.ClientView, error) {
	if !status.Valid() {
		return nil, validationError("status", fmt.Sprintf("invalid client status %q", status))
	}
	return s.views.ClientsWithProjects(status), nil
}

// FindClientView finds an Active or Completed client.
func (s *Service) FindClientView(clientID string) (views.ClientView, error) {
	view, ok := s.views.FindClientView(clientID)
	if !ok {
		s.logger.Warn("client view not found", zap.String("client_id", clientID))
		return views.ClientView{}, domainError(CodeNotFound, "client not found", map[string]any{"clientId": clientID})
	}
	return view, nil
}

// Dashboard applies filter to the clients in status and totals what is left.
// It also refreshes the per-status client gauge.
func (s *Service) Dashboard(status store.ClientStatus, filter views.Filter) (Dashboard, error) {
	all, err := s.ClientsWithProjects(status)
	if err != nil {
		return Dashboard{}, err
	}
	s.refreshClientGauge()
	shown := filter.Apply(all)
	return Dashboard{Status: status, Clients: shown, Stats: views.DashboardStats(shown)}, nil
}

func (s *Service) refreshClientGauge() {
	counts := map[string]int{}
	for _, c := range s.store.Clients() {
		counts[string(c.Status)]++
	}
	s.metrics.SetClients(counts)
}

// ListOutreachRecords returns leads newest first, filtered by query.
func (s *Service) ListOutreachRecords(query string) []store.OutreachRecord {
	return s.ledger.List(query)
}

func (s *Service) OutreachStats() outreach.Stats {
	return s.ledger.Stats()
}

// Search runs a full-text query over clients and leads.
func (s *Service) Search(q search.Query) search.Response {
	q.Text = strings.TrimSpace(q.Text)
	return s.search.Search(q)
}

// DocumentLink returns a time-limited download URL for a document.
func (s *Service) DocumentLink(ctx context.Context, documentID string) (string, error) {
	doc, err := s.store.Document(documentID)
	if err != nil {
		return "", storeError(err)
	}
	if s.links == nil {
		return "", domainError(CodeUnavailable, "document storage is not configured", nil)
	}
	u, err := s.links.DownloadURL(ctx, doc)
	if errors.Is(err, files.ErrEmptyRef) {
		return "", validationError("fileRef", err.Error())
	}
	if err != nil {
		return "", fmt.Errorf("document link: %w", err)
	}
	return u.String(), nil
}

// Report renders a client report in the requested format.
func (s *Service) Report(ctx context.Context, req export.Request) (*export.Result, error) {
	res, err := s.reports.Export(ctx, req)
	if errors.Is(err, export.ErrUnsupportedFormat) {
		return nil, validationError("format", err.Error())
	}
	if err != nil {
		return nil, storeError(err)
	}
	return res, nil
}
