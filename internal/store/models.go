package store

import "time"

type ClientStatus string

const (
	ClientActive    ClientStatus = "Active"
	ClientCompleted ClientStatus = "Completed"
	ClientArchived  ClientStatus = "Archived"
)

func (s ClientStatus) Valid() bool {
	switch s {
	case ClientActive, ClientCompleted, ClientArchived:
		return true
	}
	return false
}

type AgreementStatus string

const (
	AgreementPending AgreementStatus = "Pending"
	AgreementSigned  AgreementStatus = "Signed"
)

type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "Planning"
	ProjectInProgress ProjectStatus = "In Progress"
	ProjectCompleted  ProjectStatus = "Completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanning, ProjectInProgress, ProjectCompleted:
		return true
	}
	return false
}

// TaskStatus is the kanban column of a subtask. Transitions between the four
// values are unrestricted; only TaskDone counts as complete.
type TaskStatus string

const (
	TaskToDo       TaskStatus = "To Do"
	TaskInProgress TaskStatus = "In Progress"
	TaskReview     TaskStatus = "Review"
	TaskDone       TaskStatus = "Done"
)

// TaskStatuses lists the kanban columns in board order.
var TaskStatuses = []TaskStatus{TaskToDo, TaskInProgress, TaskReview, TaskDone}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskToDo, TaskInProgress, TaskReview, TaskDone:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank orders priorities so that Urgent sorts first. Unknown values sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

type DocumentType string

const (
	DocumentAgreement DocumentType = "agreement"
	DocumentContract  DocumentType = "contract"
	DocumentProposal  DocumentType = "proposal"
	DocumentOther     DocumentType = "other"
)

func (t DocumentType) Valid() bool {
	switch t {
	case DocumentAgreement, DocumentContract, DocumentProposal, DocumentOther:
		return true
	}
	return false
}

// Client is the root of the entity graph. AgreementStatus and AgreementRef are
// cached values derived from the client's documents.
type Client struct {
	ID              string          `json:"id" yaml:"id"`
	Name            string          `json:"name" yaml:"name"`
	Email           string          `json:"email" yaml:"email"`
	Status          ClientStatus    `json:"status" yaml:"status"`
	AgreementStatus AgreementStatus `json:"agreement_status" yaml:"agreement_status"`
	AgreementRef    string          `json:"agreement_ref,omitempty" yaml:"agreement_ref,omitempty"`
	CreatedAt       time.Time       `json:"created_at" yaml:"created_at"`
}

type Project struct {
	ID        string        `json:"id" yaml:"id"`
	ClientID  string        `json:"client_id" yaml:"client_id"`
	Name      string        `json:"name" yaml:"name"`
	Status    ProjectStatus `json:"status" yaml:"status"`
	Priority  Priority      `json:"priority" yaml:"priority"`
	StartDate time.Time     `json:"start_date" yaml:"start_date"`
	Deadline  time.Time     `json:"deadline" yaml:"deadline"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
}

// Requirement groups subtasks under a project. IsAdditionalScope marks work
// requested after the initial agreement.
type Requirement struct {
	ID                string    `json:"id" yaml:"id"`
	ProjectID         string    `json:"project_id" yaml:"project_id"`
	Title             string    `json:"title" yaml:"title"`
	Description       string    `json:"description" yaml:"description"`
	IsAdditionalScope bool      `json:"is_additional_scope" yaml:"is_additional_scope"`
	Priority          Priority  `json:"priority" yaml:"priority"`
	CreatedAt         time.Time `json:"created_at" yaml:"created_at"`
}

type Subtask struct {
	ID            string     `json:"id" yaml:"id"`
	RequirementID string     `json:"requirement_id" yaml:"requirement_id"`
	Title         string     `json:"title" yaml:"title"`
	Status        TaskStatus `json:"status" yaml:"status"`
	Priority      Priority   `json:"priority" yaml:"priority"`
	Assignee      string     `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	CreatedAt     time.Time  `json:"created_at" yaml:"created_at"`
}

// Document is an uploaded file attached to a client. FileRef is opaque to the
// store; it is never dereferenced here.
type Document struct {
	ID         string       `json:"id" yaml:"id"`
	ClientID   string       `json:"client_id" yaml:"client_id"`
	Name       string       `json:"name" yaml:"name"`
	Type       DocumentType `json:"type" yaml:"type"`
	FileRef    string       `json:"file_ref" yaml:"file_ref"`
	UploadedAt time.Time    `json:"uploaded_at" yaml:"uploaded_at"`
}

// ProjectPatch lists the updatable project fields. Nil fields are left as is.
type ProjectPatch struct {
	Name      *string
	Status    *ProjectStatus
	Priority  *Priority
	StartDate *time.Time
	Deadline  *time.Time
}

type RequirementPatch struct {
	Title             *string
	Description       *string
	IsAdditionalScope *bool
	Priority          *Priority
}

type SubtaskPatch struct {
	Title    *string
	Status   *TaskStatus
	Priority *Priority
	Assignee *string
}

// Snapshot is the serialisable state of a MemoryStore. Slices keep insertion
// order, which the priority sort relies on for tie breaking.
type Snapshot struct {
	Clients      []Client      `json:"clients" yaml:"clients"`
	Projects     []Project     `json:"projects" yaml:"projects"`
	Requirements []Requirement `json:"requirements" yaml:"requirements"`
	Subtasks     []Subtask     `json:"subtasks" yaml:"subtasks"`
	Documents    []Document    `json:"documents" yaml:"documents"`
}

type OutreachStatus string

const (
	OutreachIdentified OutreachStatus = "Identified"
	OutreachContacted  OutreachStatus = "Contacted"
	OutreachReplied    OutreachStatus = "Replied"
	OutreachInTalks    OutreachStatus = "In-Talks"
	OutreachConverted  OutreachStatus = "Converted"
	OutreachLost       OutreachStatus = "Lost"
)

func (s OutreachStatus) Valid() bool {
	switch s {
	case OutreachIdentified, OutreachContacted, OutreachReplied, OutreachInTalks, OutreachConverted, OutreachLost:
		return true
	}
	return false
}

type ContactPlatform string

const (
	PlatformLinkedIn ContactPlatform = "LinkedIn"
	PlatformTwitter  ContactPlatform = "Twitter"
	PlatformEmail    ContactPlatform = "Email"
	PlatformOther    ContactPlatform = "Other"
)

func (p ContactPlatform) Valid() bool {
	switch p {
	case PlatformLinkedIn, PlatformTwitter, PlatformEmail, PlatformOther:
		return true
	}
	return false
}

// OutreachRecord is a lead in the outreach ledger. It has no relation to the
// client graph.
type OutreachRecord struct {
	ID              string          `json:"id" yaml:"id"`
	Status          OutreachStatus  `json:"status" yaml:"status"`
	StartupName     string          `json:"startup_name" yaml:"startup_name"`
	Founder         string          `json:"founder" yaml:"founder"`
	ContactLink     string          `json:"contact_link" yaml:"contact_link"`
	ContactPlatform ContactPlatform `json:"contact_platform" yaml:"contact_platform"`
	TechStack       string          `json:"tech_stack" yaml:"tech_stack"`
	ProblemType     string          `json:"problem_type" yaml:"problem_type"`
	SpecificIssue   string          `json:"specific_issue" yaml:"specific_issue"`
	AuditLink       string          `json:"audit_link" yaml:"audit_link"`
	OutreachDate    string          `json:"outreach_date" yaml:"outreach_date"`
	NextAction      string          `json:"next_action" yaml:"next_action"`
}

// OutreachPatch lists the updatable ledger fields.
type OutreachPatch struct {
	Status          *OutreachStatus
	StartupName     *string
	Founder         *string
	ContactLink     *string
	ContactPlatform *ContactPlatform
	TechStack       *string
	ProblemType     *string
	SpecificIssue   *string
	AuditLink       *string
	OutreachDate    *string
	NextAction      *string
}

// State is the unit persisted by the snapshot repositories.
type State struct {
	Graph    Snapshot         `json:"graph" yaml:"graph"`
	Outreach []OutreachRecord `json:"outreach" yaml:"outreach"`
	SavedAt  time.Time        `json:"saved_at" yaml:"saved_at"`
}
