package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ai-engineer-001/upcraft-crm/internal/store"
	"github.com/ai-engineer-001/upcraft-crm/internal/views"
)

// DataStore defines the interface for data access
type DataStore interface {
	ClientView(clientID string) (views.ClientView, error)
}

// Service renders client reports.
type Service struct {
	store DataStore
	now   func() time.Time
}

func NewService(store DataStore) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock sets the time stamped on generated reports.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Export generates a report in the requested format
func (s *Service) Export(_ context.Context, req Request) (*Result, error) {
	view, err := s.store.ClientView(req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	data := BuildTemplateData(view, req, s.now())

	filename := slug(view.Name)
	switch req.Format {
	case FormatMarkdown, "":
		out, err := RenderMarkdown(data)
		if err != nil {
			return nil, fmt.Errorf("render template: %w", err)
		}
		return &Result{Data: []byte(out), Filename: filename + ".md", MimeType: "text/markdown; charset=utf-8"}, nil
	case FormatHTML:
		out, err := RenderHTML(data)
		if err != nil {
			return nil, fmt.Errorf("render template: %w", err)
		}
		return &Result{Data: []byte(out), Filename: filename + ".html", MimeType: "text/html; charset=utf-8"}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.Format)
	}
}

// BuildTemplateData flattens a client view into template data. Projects,
// requirements and tasks keep the view's priority order.
func BuildTemplateData(view views.ClientView, req Request, generatedAt time.Time) TemplateData {
	data := TemplateData{
		ClientName:  view.Name,
		Email:       view.Email,
		Status:      string(view.Status),
		Agreement:   string(view.AgreementStatus),
		GeneratedAt: generatedAt,
		Projects:    []TemplateProject{},
	}
	for _, p := range view.Projects {
		project := TemplateProject{
			Name:      p.Name,
			Status:    string(p.Status),
			Priority:  string(p.Priority),
			Progress:  p.Progress,
			StartDate: p.StartDate,
			Deadline:  p.Deadline,
		}
		for _, r := range p.Requirements {
			requirement := TemplateRequirement{
				Title:       r.Title,
				Description: r.Description,
				Additional:  r.IsAdditionalScope,
			}
			for _, t := range r.Subtasks {
				data.TasksTotal++
				done := t.Status == store.TaskDone
				if done {
					data.TasksDone++
					if !req.IncludeDone {
						continue
					}
				}
				requirement.Tasks = append(requirement.Tasks, TemplateTask{
					Title:    t.Title,
					Status:   string(t.Status),
					Priority: string(t.Priority),
					Assignee: t.Assignee,
					Done:     done,
				})
			}
			project.Requirements = append(project.Requirements, requirement)
		}
		data.Projects = append(data.Projects, project)
	}
	data.Progress = view.Progress()

	if req.IncludeDocuments {
		for _, d := range view.Documents {
			data.Documents = append(data.Documents, TemplateDocument{
				Name:       d.Name,
				Type:       string(d.Type),
				UploadedAt: d.UploadedAt,
			})
		}
	}
	return data
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "client-report"
	}
	return out
}
