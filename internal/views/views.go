// Package views composes read-only client trees for presentation. Nothing in
// this package mutates the store.
package views

import (
	"strings"

	"github.com/ai-engineer-001/upcraft-crm/internal/progress"
	"github.com/ai-engineer-001/upcraft-crm/internal/store"
)

// Reader is the read side of the entity store.
type Reader interface {
	Client(id string) (store.Client, error)
	ClientsByStatus(status store.ClientStatus) []store.Client
	ProjectsByClient(clientID string) []store.Project
	Requirements() []store.Requirement
	Subtasks() []store.Subtask
	DocumentsByClient(clientID string) []store.Document
}

// ClientView is a client with its projects (Urgent first) and documents.
type ClientView struct {
	store.Client
	Projects  []progress.ProjectWithProgress `json:"projects"`
	Documents []store.Document               `json:"documents"`
}

// Progress is the task-weighted completion across all of the client's projects.
func (v ClientView) Progress() int {
	_, _, percent := progress.Overall(v.Projects)
	return percent
}

func (v ClientView) Agreements() []store.Document {
	return v.documents(func(d store.Document) bool { return d.Type == store.DocumentAgreement })
}

// OtherDocuments returns every document that is not an agreement.
func (v ClientView) OtherDocuments() []store.Document {
	return v.documents(func(d store.Document) bool { return d.Type != store.DocumentAgreement })
}

func (v ClientView) documents(keep func(store.Document) bool) []store.Document {
	out := make([]store.Document, 0, len(v.Documents))
	for _, d := range v.Documents {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

type Composer struct {
	store Reader
}

func NewComposer(r Reader) *Composer {
	return &Composer{store: r}
}

// ClientsWithProjects returns the clients with the given lifecycle status in
// insertion order.
func (c *Composer) ClientsWithProjects(status store.ClientStatus) []ClientView {
	clients := c.store.ClientsByStatus(status)
	out := make([]ClientView, 0, len(clients))
	if len(clients) == 0 {
		return out
	}
	requirements := c.store.Requirements()
	subtasks := c.store.Subtasks()
	for _, client := range clients {
		out = append(out, c.compose(client, requirements, subtasks))
	}
	return out
}

// FindClientView looks a client up in the Active and Completed sets.
func (c *Composer) FindClientView(clientID string) (ClientView, bool) {
	client, err := c.store.Client(clientID)
	if err != nil {
		return ClientView{}, false
	}
	if client.Status != store.ClientActive && client.Status != store.ClientCompleted {
		return ClientView{}, false
	}
	return c.compose(client, c.store.Requirements(), c.store.Subtasks()), true
}

// ClientView composes a single client regardless of its status.
func (c *Composer) ClientView(clientID string) (ClientView, error) {
	client, err := c.store.Client(clientID)
	if err != nil {
		return ClientView{}, err
	}
	return c.compose(client, c.store.Requirements(), c.store.Subtasks()), nil
}

func (c *Composer) compose(client store.Client, requirements []store.Requirement, subtasks []store.Subtask) ClientView {
	projects := c.store.ProjectsByClient(client.ID)
	views := make([]progress.ProjectWithProgress, 0, len(projects))
	for _, p := range projects {
		views = append(views, progress.ForProject(p, requirements, subtasks))
	}
	progress.SortProjects(views)

	docs := c.store.DocumentsByClient(client.ID)
	if docs == nil {
		docs = []store.Document{}
	}
	return ClientView{Client: client, Projects: views, Documents: docs}
}

// Filter selects client views by a case-insensitive substring over client
// name, email and project names, optionally keeping only pending agreements.
type Filter struct {
	Query                string
	AgreementPendingOnly bool
}

func (f Filter) Match(v ClientView) bool {
	if f.AgreementPendingOnly && v.AgreementStatus != store.AgreementPending {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(v.Name), q) || strings.Contains(strings.ToLower(v.Email), q) {
		return true
	}
	for _, p := range v.Projects {
		if strings.Contains(strings.ToLower(p.Name), q) {
			return true
		}
	}
	return false
}

func (f Filter) Apply(in []ClientView) []ClientView {
	out := make([]ClientView, 0, len(in))
	for _, v := range in {
		if f.Match(v) {
			out = append(out, v)
		}
	}
	return out
}

// Stats are the dashboard totals over a set of client views.
type Stats struct {
	Clients        int `json:"clients"`
	Projects       int `json:"projects"`
	TasksDone      int `json:"tasks_done"`
	TasksTotal     int `json:"tasks_total"`
	OverallPercent int `json:"overall_percent"`
}

func DashboardStats(clients []ClientView) Stats {
	var all []progress.ProjectWithProgress
	for _, v := range clients {
		all = append(all, v.Projects...)
	}
	done, total, percent := progress.Overall(all)
	return Stats{
		Clients:        len(clients),
		Projects:       len(all),
		TasksDone:      done,
		TasksTotal:     total,
		OverallPercent: percent,
	}
}
