package export

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"strings"
	"text/template"
	"time"
)

//go:embed templates/*
var templateFS embed.FS

var (
	markdownTemplate *template.Template
	htmlTemplate     *htmltemplate.Template
)

func init() {
	funcs := map[string]any{
		"lower": strings.ToLower,
		"formatDate": func(t time.Time, layout string) string {
			if t.IsZero() {
				return "n/a"
			}
			return t.Format(layout)
		},
	}
	markdownTemplate = template.Must(template.New("report.md.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/report.md.tmpl"))
	htmlTemplate = htmltemplate.Must(htmltemplate.New("report.html").Funcs(funcs).ParseFS(templateFS, "templates/report.html"))
}

// TemplateData holds data for report rendering
type TemplateData struct {
	ClientName  string
	Email       string
	Status      string
	Agreement   string
	Progress    int
	TasksDone   int
	TasksTotal  int
	GeneratedAt time.Time
	Projects    []TemplateProject
	Documents   []TemplateDocument
}

type TemplateProject struct {
	Name         string
	Status       string
	Priority     string
	Progress     int
	StartDate    time.Time
	Deadline     time.Time
	Requirements []TemplateRequirement
}

type TemplateRequirement struct {
	Title       string
	Description string
	Additional  bool
	Tasks       []TemplateTask
}

type TemplateTask struct {
	Title    string
	Status   string
	Priority string
	Assignee string
	Done     bool
}

type TemplateDocument struct {
	Name       string
	Type       string
	UploadedAt time.Time
}

func RenderMarkdown(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := markdownTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func RenderHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
