package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ai-engineer-001/upcraft-crm/internal/app"
	"github.com/ai-engineer-001/upcraft-crm/internal/outreach"
	"github.com/ai-engineer-001/upcraft-crm/internal/search"
	"github.com/ai-engineer-001/upcraft-crm/internal/store"
	"github.com/ai-engineer-001/upcraft-crm/internal/views"
)

const dateLayout = "2006-01-02"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func (s *session) emit(v any, text func(w io.Writer) error) error {
	if s.jsonOut {
		return s.printJSON(v)
	}
	return text(s.out)
}

func writeDashboard(w io.Writer, d app.Dashboard) error {
	fmt.Fprintf(w, "%s clients: %d  projects: %d  tasks: %d/%d  overall: %d%%\n\n",
		d.Status, d.Stats.Clients, d.Stats.Projects, d.Stats.TasksDone, d.Stats.TasksTotal, d.Stats.OverallPercent)
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tCLIENT\tAGREEMENT\tPROJECTS\tPROGRESS")
	for _, c := range d.Clients {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d%%\n", c.ID, c.Name, c.AgreementStatus, len(c.Projects), c.Progress())
	}
	return tw.Flush()
}

func writeClientView(w io.Writer, v views.ClientView) error {
	fmt.Fprintf(w, "%s <%s>\n", v.Name, v.Email)
	fmt.Fprintf(w, "id: %s  status: %s  agreement: %s  progress: %d%%\n", v.ID, v.Status, v.AgreementStatus, v.Progress())
	for _, p := range v.Projects {
		fmt.Fprintf(w, "\n[%s] %s  %s  %s  %s..%s  %d%%\n", p.Priority, p.Name, p.ID, p.Status,
			p.StartDate.Format(dateLayout), p.Deadline.Format(dateLayout), p.Progress)
		tw := newTable(w)
		for _, r := range p.Requirements {
			scope := ""
			if r.IsAdditionalScope {
				scope = " (additional scope)"
			}
			fmt.Fprintf(tw, "  %s\t%s%s\t%s\t\n", r.ID, r.Title, scope, r.Priority)
			for _, t := range r.Subtasks {
				fmt.Fprintf(tw, "    %s\t%s\t%s\t%s\n", t.ID, t.Title, t.Status, t.Assignee)
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if len(v.Documents) > 0 {
		fmt.Fprintln(w, "\nDocuments:")
		tw := newTable(w)
		for _, d := range v.Documents {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", d.ID, d.Name, d.Type, d.FileRef)
		}
		return tw.Flush()
	}
	return nil
}

func writeLeads(w io.Writer, records []store.OutreachRecord) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tSTATUS\tSTARTUP\tFOUNDER\tPLATFORM\tNEXT ACTION")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Status, r.StartupName, r.Founder, r.ContactPlatform, r.NextAction)
	}
	return tw.Flush()
}

func writeOutreachStats(w io.Writer, st outreach.Stats) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Total\t%d\n", st.Total)
	fmt.Fprintf(tw, "Contacted\t%d\n", st.Contacted)
	fmt.Fprintf(tw, "In talks\t%d\n", st.InTalks)
	fmt.Fprintf(tw, "Converted\t%d\n", st.Converted)
	return tw.Flush()
}

func writeSearch(w io.Writer, resp search.Response) error {
	fmt.Fprintf(w, "%d results for %q (%s)\n", resp.Total, resp.Query, resp.Backend)
	tw := newTable(w)
	for _, r := range resp.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Type, r.ID, r.Title, r.Status)
	}
	return tw.Flush()
}
