package main

import (
	"context"
	_ "embed"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ai-engineer-001/upcraft-crm/internal/app"
	"github.com/ai-engineer-001/upcraft-crm/internal/store"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Clients  []seedClient           `yaml:"clients"`
	Outreach []store.OutreachRecord `yaml:"outreach"`
}

type seedClient struct {
	Name      string         `yaml:"name"`
	Email     string         `yaml:"email"`
	Projects  []seedProject  `yaml:"projects"`
	Documents []seedDocument `yaml:"documents"`
}

type seedProject struct {
	Name         string              `yaml:"name"`
	Status       store.ProjectStatus `yaml:"status"`
	Priority     store.Priority      `yaml:"priority"`
	StartDate    string              `yaml:"start_date"`
	Deadline     string              `yaml:"deadline"`
	Requirements []seedRequirement   `yaml:"requirements"`
}

type seedRequirement struct {
	Title           string         `yaml:"title"`
	Description     string         `yaml:"description"`
	AdditionalScope bool           `yaml:"additional_scope"`
	Priority        store.Priority `yaml:"priority"`
	Subtasks        []seedSubtask  `yaml:"subtasks"`
}

type seedSubtask struct {
	Title    string           `yaml:"title"`
	Status   store.TaskStatus `yaml:"status"`
	Priority store.Priority   `yaml:"priority"`
	Assignee string           `yaml:"assignee"`
}

type seedDocument struct {
	Name    string             `yaml:"name"`
	Type    store.DocumentType `yaml:"type"`
	FileRef string             `yaml:"file_ref"`
}

type seedSummary struct {
	Clients  int `json:"clients"`
	Projects int `json:"projects"`
	Tasks    int `json:"tasks"`
	Leads    int `json:"leads"`
}

func parseSeed(data []byte) (seedFile, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return seedFile{}, fmt.Errorf("parse seed: %w", err)
	}
	return f, nil
}

// applySeed loads the demo data through the service commands so derived
// state is computed the same way as for user edits.
func applySeed(svc *app.Service, f seedFile) (seedSummary, error) {
	var sum seedSummary
	for _, c := range f.Clients {
		if len(c.Projects) == 0 {
			return sum, fmt.Errorf("seed client %q has no projects", c.Name)
		}
		first := c.Projects[0]
		client, project, err := svc.AddClient(app.AddClientInput{
			Name:        c.Name,
			Email:       c.Email,
			ProjectName: first.Name,
			Priority:    first.Priority,
		})
		if err != nil {
			return sum, fmt.Errorf("seed client %q: %w", c.Name, err)
		}
		sum.Clients++

		for i, p := range c.Projects {
			projectID := project.ID
			if i > 0 {
				added, err := svc.AddProject(app.AddProjectInput{ClientID: client.ID, Name: p.Name, Priority: p.Priority})
				if err != nil {
					return sum, fmt.Errorf("seed project %q: %w", p.Name, err)
				}
				projectID = added.ID
			}
			if err := seedProjectDetails(svc, projectID, p); err != nil {
				return sum, err
			}
			sum.Projects++

			for _, r := range p.Requirements {
				req, err := svc.AddRequirement(app.AddRequirementInput{
					ProjectID:         projectID,
					Title:             r.Title,
					Description:       r.Description,
					IsAdditionalScope: r.AdditionalScope,
					Priority:          r.Priority,
				})
				if err != nil {
					return sum, fmt.Errorf("seed requirement %q: %w", r.Title, err)
				}
				for _, t := range r.Subtasks {
					task, err := svc.AddSubtask(app.AddSubtaskInput{
						RequirementID: req.ID,
						Title:         t.Title,
						Assignee:      t.Assignee,
						Priority:      t.Priority,
					})
					if err != nil {
						return sum, fmt.Errorf("seed task %q: %w", t.Title, err)
					}
					if t.Status != "" && t.Status != store.TaskToDo {
						if _, err := svc.SetSubtaskStatus(task.ID, t.Status); err != nil {
							return sum, fmt.Errorf("seed task %q: %w", t.Title, err)
						}
					}
					sum.Tasks++
				}
			}
		}

		for _, d := range c.Documents {
			if _, err := svc.AddDocument(app.AddDocumentInput{
				ClientID: client.ID,
				Name:     d.Name,
				Type:     d.Type,
				FileRef:  d.FileRef,
			}); err != nil {
				return sum, fmt.Errorf("seed document %q: %w", d.Name, err)
			}
		}
	}

	// the ledger prepends, so add from the bottom to keep file order
	for i := len(f.Outreach) - 1; i >= 0; i-- {
		if _, err := svc.AddOutreachRecord(f.Outreach[i]); err != nil {
			return sum, fmt.Errorf("seed lead %q: %w", f.Outreach[i].StartupName, err)
		}
		sum.Leads++
	}
	return sum, nil
}

func seedProjectDetails(svc *app.Service, projectID string, p seedProject) error {
	var patch store.ProjectPatch
	if p.Status != "" {
		status := p.Status
		patch.Status = &status
	}
	if p.StartDate != "" {
		start, err := parseDate(p.StartDate)
		if err != nil {
			return fmt.Errorf("seed project %q: %w", p.Name, err)
		}
		patch.StartDate = &start
	}
	if p.Deadline != "" {
		deadline, err := parseDate(p.Deadline)
		if err != nil {
			return fmt.Errorf("seed project %q: %w", p.Name, err)
		}
		patch.Deadline = &deadline
	}
	if _, err := svc.UpdateProject(projectID, patch); err != nil {
		return fmt.Errorf("seed project %q: %w", p.Name, err)
	}
	return nil
}

func seedCmd(opts *globalOptions) *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo clients, projects and leads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseSeed(seedYAML)
			if err != nil {
				return err
			}
			return withSession(cmd, opts, true, func(ctx context.Context, s *session) error {
				existing := s.svc.State()
				if len(existing.Graph.Clients)+len(existing.Outreach) > 0 {
					if !reset {
						return fmt.Errorf("state %q is not empty; pass --reset to replace it", s.cfg.SnapshotName)
					}
					if err := s.svc.Restore(store.State{}); err != nil {
						return err
					}
				}
				sum, err := applySeed(s.svc, f)
				if err != nil {
					return err
				}
				return s.emit(sum, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "seeded %d clients, %d projects, %d tasks, %d leads\n",
						sum.Clients, sum.Projects, sum.Tasks, sum.Leads)
					return err
				})
			})
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Replace existing state")
	return cmd
}
