package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ai-engineer-001/upcraft-crm/internal/app"
	"github.com/ai-engineer-001/upcraft-crm/internal/export"
	"github.com/ai-engineer-001/upcraft-crm/internal/search"
	"github.com/ai-engineer-001/upcraft-crm/internal/store"
	"github.com/ai-engineer-001/upcraft-crm/internal/views"
)

func parseDate(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", value)
	}
	return t, nil
}

// printDeleted reports the outcome of a delete. Unknown ids are not an error.
func (s *session) printDeleted(kind, id string, deleted bool) error {
	result := map[string]any{"type": kind, "id": id, "deleted": deleted}
	return s.emit(result, func(w io.Writer) error {
		if !deleted {
			_, err := fmt.Fprintf(w, "no %s with id %s\n", kind, id)
			return err
		}
		_, err := fmt.Fprintf(w, "deleted %s %s\n", kind, id)
		return err
	})
}

func (s *session) printCreated(kind, id string, v any) error {
	return s.emit(v, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "created %s %s\n", kind, id)
		return err
	})
}

func dashboardCmd(opts *globalOptions) *cobra.Command {
	var (
		status  string
		query   string
		pending bool
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "List clients with progress for one lifecycle status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, false, func(ctx context.Context, s *session) error {
				d, err := s.svc.Dashboard(store.ClientStatus(status), views.Filter{Query: query, AgreementPendingOnly: pending})
				if err != nil {
					return err
				}
				return s.emit(d, func(w io.Writer) error { return writeDashboard(w, d) })
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", string(store.ClientActive), "Client status (Active, Completed, Archived)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter by client name, email or project name")
	cmd.Flags().BoolVar(&pending, "pending", false, "Only clients whose agreement is pending")
	return cmd
}

func clientCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "client", Short: "Manage clients"}

	var input app.AddClientInput
	var priority string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a client with its first project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, true, func(ctx context.Context, s *session) error {
				input.Priority = store.Priority(priority)
				client, project, err := s.svc.AddClient(input)
				if err != nil {
					return err
				}
				out := map[string]any{"client": client, "project": project}
				return s.emit(out, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "created client %s with project %s\n", client.ID, project.ID)
					return err
				})
			})
		},
	}
	add.Flags().StringVar(&input.Name, "name", "", "Client name")
	add.Flags().StringVar(&input.Email, "email", "", "Client email")
	add.Flags().StringVar(&input.ProjectName, "project", "", "Name of the first project")
	add.Flags().StringVar(&priority, "priority", "", "Project priority (Low, Medium, High, Urgent)")

	show := &cobra.Command{
		Use:   "show <client-id>",
		Short: "Show a client with projects, requirements, tasks and documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, false, func(ctx context.Context, s *session) error {
				v, err := s.svc.FindClientView(args[0])
				if err != nil {
					return err
				}
				return s.emit(v, func(w io.Writer) error { return writeClientView(w, v) })
			})
		},
	}

	rm := &cobra.Command{
		Use:   "rm <client-id>",
		Short: "Delete a client and everything it owns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, true, func(ctx context.Context, s *session) error {
				deleted, err := s.svc.DeleteClient(args[0])
				if err != nil {
					return err
				}
				return s.printDeleted("client", args[0], deleted)
			})
		},
	}

	cmd.AddCommand(add, show, rm)
	return cmd
}

func projectCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "project", Short: "Manage projects"}

	var (
		name, priority, startDate, deadline string
	)
	add := &cobra.Command{
		Use:   "add <client-id>",
		Short: "Add a project to a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDate(startDate)
			if err != nil {
				return err
			}
			due, err := parseDate(deadline)
			if err != nil {
				return err
			}
			return withSession(cmd, opts, true, func(ctx context.Context, s *session) error {
				p, err := s.svc.AddProject(app.AddProjectInput{
					ClientID:  args[0],
					Name:      name,
					Priority:  store.Priority(priority),
					StartDate: start,
					Deadline:  due,
				})
				if err != nil {
					return err
				}
				return s.printCreated("project", p.ID, p)
			})
		},
	}
	add.Flags().StringVar(&name, "name", "", "Project name")
	add.Flags().StringVar(&priority, "priority", "", "Priority (Low, Medium, High, Urgent)")
	add.Flags().StringVar(&startDate, "start", "", "Start date (YYYY-MM-DD), defaults to today")
	add.Flags().StringVar(&deadline, "deadline", "", "Deadline (YYYY-MM-DD)")

	prio := &cobra.Command{
		Use:   "priority <project-id> <priority>",
		Short: "Change a project's priority",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, true, func(ctx context.Context, s *session) error {
				p, err := s.svc.UpdateProjectPriority(args[0], store.Priority(args[1]))
				if err != nil {
					return err
				}
				return s.emit(p, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "project %s priority %s\n", p.ID, p.Priority)
					return err
				})
			})
		},
	}

	status := &cobra.Command{
		Use:   "status <project-id> <status>",
		Short: "Change a project's status (Planning, In Progress, Completed)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, true, func(ctx context.Context, s *session) error {
				st := store.ProjectStatus(args[1])
				p, err := s.svc.UpdateProject(args[0], store.ProjectPatch{Status: &st})
				if err != nil {
					return err
				}
				return s.emit(p, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "project %s status %s\n", p.ID, p.Status)
					return err
				})
			})
		},
	}

	rm := &cobra.Command{
		Use:   "rm <project-id>",
		Short: "Delete a project with its requirements and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, true, func(ctx context.Context, s *session) error {
				deleted, err := s.svc.DeleteProject(args[0])
				if err != nil {
					return err
				}
				return s.printDeleted("project", args[0], deleted)
			})
		},
	}

	cmd.AddCommand(add, prio, status, rm)
	return cmd
}

func requirementCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "req", Aliases: []string{"requirement"}, Short: "Manage requirements"}

	var input app.AddRequirementInput
	var priority string
	add := &cobra.Command{
		Use:   "add <project-id>",
		Short: "Add a requirement to a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, true, func(ctx context.Context, s *session) error {
				input.ProjectID = args[0]
				input.Priority = store.Priority(priority)
				req, err := s.svc.AddRequirement(input)
				if err != nil {
					return err
				}
				return s.printCreated("requirement", req.ID, req)
			})
		},
	}
	add.Flags().StringVar(&input.Title, "title", "", "Requirement title")
	add.Flags().StringVar(&input.Description, "description", "", "Requirement description")
	add.Flags().BoolVar(&input.IsAdditionalScope, "additional", false, "Mark as additional scope")
	add.Flags().StringVar(&priority, "priority", "", "Priority (Low, Medium, High, Urgent)")

	rm := &cobra.Command{
		Use:   "rm <requirement-id>",
		Short: "Delete a requirement with its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, true, func(ctx context.Context, s *session) error {
				deleted, err := s.svc.DeleteRequirement(args[0])
				if err != nil {
					return err
				}
				return s.printDeleted("requirement", args[0], deleted)
			})
		},
	}

	cmd.AddCommand(add, rm)
	return cmd
}

func taskCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "task", Short: "Manage subtasks"}

	var input app.AddSubtaskInput
	var priority string
	add := &cobra.Command{
		Use:   "add <requirement-id>",
		Short: "Add a subtask to a requirement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, true, func(ctx context.Context, s *session) error {
				input.RequirementID = args[0]
				input.Priority = store.Priority(priority)
				task, err := s.svc.AddSubtask(input)
				if err != nil {
					return err
				}
				return s.printCreated("task", task.ID, task)
			})
		},
	}
	add.Flags().StringVar(&input.Title, "title", "", "Task title")
	add.Flags().StringVar(&input.Assignee, "assignee", "", "Assignee name")
	add.Flags().StringVar(&priority, "priority", "", "Priority (Low, Medium, High, Urgent)")

	status := &cobra.Command{
		Use:   "status <task-id> <status>",
		Short: "Move a task to a kanban column (To Do, In Progress, Review, Done)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, true, func(ctx context.Context, s *session) error {
				task, err := s.svc.SetSubtaskStatus(args[0], store.TaskStatus(args[1]))
				if err != nil {
					return err
				}
				return s.emit(task, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "task %s is %s\n", task.ID, task.Status)
					return err
				})
			})
		},
	}

	rm := &cobra.Command{
		Use:   "rm <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, true, func(ctx context.Context, s *session) error {
				deleted, err := s.svc.DeleteSubtask(args[0])
				if err != nil {
					return err
				}
				return s.printDeleted("task", args[0], deleted)
			})
		},
	}

	cmd.AddCommand(add, status, rm)
	return cmd
}

func documentCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "doc", Aliases: []string{"document"}, Short: "Manage client documents"}

	var input app.AddDocumentInput
	var docType string
	add := &cobra.Command{
		Use:   "add <client-id>",
		Short: "Attach a document to a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, true, func(ctx context.Context, s *session) error {
				input.ClientID = args[0]
				input.Type = store.DocumentType(docType)
				doc, err := s.svc.AddDocument(input)
				if err != nil {
					return err
				}
				return s.printCreated("document", doc.ID, doc)
			})
		},
	}
	add.Flags().StringVar(&input.Name, "name", "", "Document name")
	add.Flags().StringVar(&docType, "type", string(store.DocumentOther), "Type (agreement, contract, proposal, other)")
	add.Flags().StringVar(&input.FileRef, "file", "", "File reference (object key in document storage)")

	rm := &cobra.Command{
		Use:   "rm <document-id>",
		Short: "Remove a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, true, func(ctx context.Context, s *session) error {
				deleted, err := s.svc.DeleteDocument(args[0])
				if err != nil {
					return err
				}
				return s.printDeleted("document", args[0], deleted)
			})
		},
	}

	link := &cobra.Command{
		Use:   "link <document-id>",
		Short: "Print a time-limited download link for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, false, func(ctx context.Context, s *session) error {
				u, err := s.svc.DocumentLink(ctx, args[0])
				if err != nil {
					return err
				}
				return s.emit(map[string]string{"id": args[0], "url": u}, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, u)
					return err
				})
			})
		},
	}

	cmd.AddCommand(add, rm, link)
	return cmd
}

func outreachCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "outreach", Short: "Manage the outreach ledger"}

	var query string
	list := &cobra.Command{
		Use:   "list",
		Short: "List leads, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, false, func(ctx context.Context, s *session) error {
				records := s.svc.ListOutreachRecords(query)
				return s.emit(records, func(w io.Writer) error { return writeLeads(w, records) })
			})
		},
	}
	list.Flags().StringVarP(&query, "query", "q", "", "Filter by startup, founder, tech stack, problem type or status")

	var rec store.OutreachRecord
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a lead",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, true, func(ctx context.Context, s *session) error {
				out, err := s.svc.AddOutreachRecord(rec)
				if err != nil {
					return err
				}
				return s.printCreated("lead", out.ID, out)
			})
		},
	}
	bindLeadFlags(add, &rec)

	var patchSource store.OutreachRecord
	update := &cobra.Command{
		Use:   "update <lead-id>",
		Short: "Update the given fields of a lead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := leadPatch(cmd, patchSource)
			return withSession(cmd, opts, true, func(ctx context.Context, s *session) error {
				out, err := s.svc.UpdateOutreachRecord(args[0], patch)
				if err != nil {
					return err
				}
				return s.emit(out, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "lead %s is %s\n", out.ID, out.Status)
					return err
				})
			})
		},
	}
	bindLeadFlags(update, &patchSource)

	rm := &cobra.Command{
		Use:   "rm <lead-id>",
		Short: "Delete a lead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, true, func(ctx context.Context, s *session) error {
				deleted, err := s.svc.DeleteOutreachRecord(args[0])
				if err != nil {
					return err
				}
				return s.printDeleted("lead", args[0], deleted)
			})
		},
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show outreach funnel counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, false, func(ctx context.Context, s *session) error {
				st := s.svc.OutreachStats()
				return s.emit(st, func(w io.Writer) error { return writeOutreachStats(w, st) })
			})
		},
	}

	cmd.AddCommand(list, add, update, rm, stats)
	return cmd
}

func bindLeadFlags(cmd *cobra.Command, rec *store.OutreachRecord) {
	f := cmd.Flags()
	f.StringVar((*string)(&rec.Status), "status", "", "Status (Identified, Contacted, Replied, In-Talks, Converted, Lost)")
	f.StringVar(&rec.StartupName, "startup", "", "Startup name")
	f.StringVar(&rec.Founder, "founder", "", "Founder name")
	f.StringVar(&rec.ContactLink, "link", "", "Contact link")
	f.StringVar((*string)(&rec.ContactPlatform), "platform", "", "Platform (LinkedIn, Twitter, Email, Other)")
	f.StringVar(&rec.TechStack, "tech", "", "Tech stack")
	f.StringVar(&rec.ProblemType, "problem", "", "Problem type")
	f.StringVar(&rec.SpecificIssue, "issue", "", "Specific issue")
	f.StringVar(&rec.AuditLink, "audit", "", "Audit link")
	f.StringVar(&rec.OutreachDate, "date", "", "Outreach date")
	f.StringVar(&rec.NextAction, "next", "", "Next action")
}

// leadPatch turns the flags the user actually passed into a patch.
func leadPatch(cmd *cobra.Command, rec store.OutreachRecord) store.OutreachPatch {
	var patch store.OutreachPatch
	changed := cmd.Flags().Changed
	if changed("status") {
		patch.Status = &rec.Status
	}
	if changed("startup") {
		patch.StartupName = &rec.StartupName
	}
	if changed("founder") {
		patch.Founder = &rec.Founder
	}
	if changed("link") {
		patch.ContactLink = &rec.ContactLink
	}
	if changed("platform") {
		patch.ContactPlatform = &rec.ContactPlatform
	}
	if changed("tech") {
		patch.TechStack = &rec.TechStack
	}
	if changed("problem") {
		patch.ProblemType = &rec.ProblemType
	}
	if changed("issue") {
		patch.SpecificIssue = &rec.SpecificIssue
	}
	if changed("audit") {
		patch.AuditLink = &rec.AuditLink
	}
	if changed("date") {
		patch.OutreachDate = &rec.OutreachDate
	}
	if changed("next") {
		patch.NextAction = &rec.NextAction
	}
	return patch
}

func reportCmd(opts *globalOptions) *cobra.Command {
	var (
		format  string
		docs    bool
		done    bool
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "report <client-id>",
		Short: "Render a client status report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, false, func(ctx context.Context, s *session) error {
				res, err := s.svc.Report(ctx, export.Request{
					ClientID:         args[0],
					Format:           export.Format(format),
					IncludeDocuments: docs,
					IncludeDone:      done,
				})
				if err != nil {
					return err
				}
				if outPath == "" {
					_, err := s.out.Write(res.Data)
					return err
				}
				if err := os.WriteFile(outPath, res.Data, 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				_, err = fmt.Fprintf(s.out, "wrote %s\n", outPath)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatMarkdown), "Output format (md, html)")
	cmd.Flags().BoolVar(&docs, "docs", false, "Include documents")
	cmd.Flags().BoolVar(&done, "done", false, "List completed tasks too")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the report to a file instead of stdout")
	return cmd
}

func searchCmd(opts *globalOptions) *cobra.Command {
	var (
		kind   string
		status string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search clients and leads",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, false, func(ctx context.Context, s *session) error {
				resp := s.svc.Search(search.Query{
					Text:         strings.Join(args, " "),
					FilterType:   search.ResultType(kind),
					FilterStatus: status,
					Limit:        limit,
				})
				return s.emit(resp, func(w io.Writer) error { return writeSearch(w, resp) })
			})
		},
	}
	cmd.Flags().StringVar(&kind, "type", "", "Only this result type (client, lead)")
	cmd.Flags().StringVar(&status, "status", "", "Only results with this status")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	return cmd
}
