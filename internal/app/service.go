package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ai-engineer-001/upcraft-crm/internal/config"
	"github.com/ai-engineer-001/upcraft-crm/internal/export"
	"github.com/ai-engineer-001/upcraft-crm/internal/lifecycle"
	"github.com/ai-engineer-001/upcraft-crm/internal/metrics"
	"github.com/ai-engineer-001/upcraft-crm/internal/outreach"
	"github.com/ai-engineer-001/upcraft-crm/internal/search"
	"github.com/ai-engineer-001/upcraft-crm/internal/store"
	"github.com/ai-engineer-001/upcraft-crm/internal/views"
)

type AddClientInput struct {
	Name        string
	Email       string
	ProjectName string
	Priority    store.Priority
}

type AddProjectInput struct {
	ClientID  string
	Name      string
	Priority  store.Priority
	StartDate time.Time
	Deadline  time.Time
}

type AddRequirementInput struct {
	ProjectID         string
	Title             string
	Description       string
	IsAdditionalScope bool
	Priority          store.Priority
}

type AddSubtaskInput struct {
	RequirementID string
	Title         string
	Assignee      string
	Priority      store.Priority
}

type AddDocumentInput struct {
	ClientID string
	Name     string
	Type     store.DocumentType
	FileRef  string
}

type dataStore interface {
	lifecycle.Store
	views.Reader

	AddClient(name, email, projectName string, priority store.Priority) (store.Client, store.Project)
	Clients() []store.Client
	DeleteClient(id string) bool

	AddProject(clientID, name string, priority store.Priority, start, deadline time.Time) (store.Project, error)
	Project(id string) (store.Project, error)
	UpdateProject(id string, patch store.ProjectPatch) (store.Project, error)
	UpdateProjectPriority(id string, priority store.Priority) (store.Project, error)
	DeleteProject(id string) bool

	AddRequirement(projectID, title, description string, isAdditionalScope bool, priority store.Priority) (store.Requirement, error)
	UpdateRequirement(id string, patch store.RequirementPatch) (store.Requirement, error)
	DeleteRequirement(id string) bool
	ClientOfRequirement(id string) (string, error)

	AddSubtask(requirementID, title, assignee string, priority store.Priority) (store.Subtask, error)
	Subtask(id string) (store.Subtask, error)
	UpdateSubtask(id string, patch store.SubtaskPatch) (store.Subtask, error)
	SetSubtaskStatus(id string, status store.TaskStatus) (store.Subtask, error)
	DeleteSubtask(id string) bool
	ClientOfSubtask(id string) (string, error)

	AddDocument(clientID, name string, docType store.DocumentType, fileRef string) (store.Document, error)
	Document(id string) (store.Document, error)
	DeleteDocument(id string) (store.Document, bool)

	Snapshot() store.Snapshot
	Restore(store.Snapshot) error
}

// Repository persists the whole console state under a name.
type Repository interface {
	SaveState(ctx context.Context, name string, state store.State) error
	LoadState(ctx context.Context, name string) (store.State, error)
}

type documentLinker interface {
	DownloadURL(ctx context.Context, doc store.Document) (*url.URL, error)
}

// Service is the command and query surface of the console. Every mutating
// command re-evaluates the affected client's derived state before returning.
// A Service is not safe for concurrent use.
type Service struct {
	cfg     config.Config
	store   dataStore
	engine  *lifecycle.Engine
	views   *views.Composer
	ledger  *outreach.Ledger
	reports *export.Service
	search  *search.Service
	links   documentLinker
	repo    Repository
	metrics *metrics.Recorder
	logger  *zap.Logger
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(recorder *metrics.Recorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

func WithSearch(svc *search.Service) Option {
	return func(s *Service) {
		if svc != nil {
			s.search = svc
		}
	}
}

// WithLinker enables DocumentLink. Without it the command reports UNAVAILABLE.
func WithLinker(linker documentLinker) Option {
	return func(s *Service) { s.links = linker }
}

func WithRepository(repo Repository) Option {
	return func(s *Service) { s.repo = repo }
}

// WithClock fixes creation dates, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(cfg config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:    cfg,
		ledger: outreach.NewLedger(),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.search == nil {
		s.search = search.NewService(nil, s.logger)
	}
	mem := store.NewMemoryStore().WithClock(s.now).WithSeedDeadline(cfg.SeedDeadlineDays)
	s.store = mem
	s.engine = lifecycle.NewEngine(mem)
	s.views = views.NewComposer(mem)
	s.reports = export.NewService(s.views).WithClock(s.now)
	return s
}

func (s *Service) Metrics() *metrics.Recorder {
	return s.metrics
}

func (s *Service) observe(command string, start time.Time, err error) {
	result := resultLabel(err)
	s.metrics.RecordCommand(command, result, time.Since(start))
	switch result {
	case "ok":
		s.logger.Debug("command", zap.String("command", command))
	case "not_found":
		s.logger.Warn("command target not found", zap.String("command", command), zap.Error(err))
	default:
		s.logger.Info("command rejected", zap.String("command", command), zap.Error(err))
	}
}

func required(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", validationError(field, field+" is required")
	}
	return trimmed, nil
}

func priorityOrDefault(p store.Priority) (store.Priority, error) {
	if p == "" {
		return store.PriorityMedium, nil
	}
	if !p.Valid() {
		return "", validationError("priority", fmt.Sprintf("invalid priority %q", p))
	}
	return p, nil
}

// recheckClient applies the completion rules to one client.
func (s *Service) recheckClient(clientID string) error {
	change, err := s.engine.CheckAndUpdateClientStatus(clientID)
	if err != nil {
		return storeError(err)
	}
	if change.Changed {
		s.logger.Info("client lifecycle changed",
			zap.String("client_id", clientID),
			zap.String("from", string(change.From)),
			zap.String("to", string(change.To)),
		)
		s.metrics.RecordLifecycle(string(change.From), string(change.To))
		s.indexClient(clientID)
	}
	return nil
}

func (s *Service) recomputeAgreement(clientID string) error {
	change, err := s.engine.RecomputeAgreement(clientID)
	if err != nil {
		return storeError(err)
	}
	if change.Changed {
		s.logger.Info("client agreement changed",
			zap.String("client_id", clientID),
			zap.String("to", string(change.To)),
		)
		s.metrics.RecordAgreement(string(change.To))
		s.indexClient(clientID)
	}
	return nil
}

func (s *Service) indexClient(clientID string) {
	client, err := s.store.Client(clientID)
	if err != nil {
		return
	}
	s.search.IndexClient(s.clientRecord(client))
}

func (s *Service) clientRecord(c store.Client) search.ClientRecord {
	projects := s.store.ProjectsByClient(c.ID)
	names := make([]string, 0, len(projects))
	for _, p := range projects {
		names = append(names, p.Name)
	}
	return search.ClientRecord{
		ID:              c.ID,
		Name:            c.Name,
		Email:           c.Email,
		Projects:        names,
		Status:          string(c.Status),
		AgreementStatus: string(c.AgreementStatus),
	}
}

func leadRecord(r store.OutreachRecord) search.LeadRecord {
	return search.LeadRecord{
		ID:          r.ID,
		StartupName: r.StartupName,
		Founder:     r.Founder,
		TechStack:   r.TechStack,
		ProblemType: r.ProblemType,
		Status:      string(r.Status),
	}
}

// AddClient creates an Active client with a Pending agreement and its seed
// project in Planning.
func (s *Service) AddClient(input AddClientInput) (client store.Client, project store.Project, err error) {
	defer func(start time.Time) { s.observe("add_client", start, err) }(time.Now())

	name, err := required("name", input.Name)
	if err != nil {
		return store.Client{}, store.Project{}, err
	}
	email, err := required("email", input.Email)
	if err != nil {
		return store.Client{}, store.Project{}, err
	}
	if !strings.Contains(email, "@") {
		return store.Client{}, store.Project{}, validationError("email", "email must contain @")
	}
	projectName, err := required("projectName", input.ProjectName)
	if err != nil {
		return store.Client{}, store.Project{}, err
	}
	priority, err := priorityOrDefault(input.Priority)
	if err != nil {
		return store.Client{}, store.Project{}, err
	}

	client, project = s.store.AddClient(name, email, projectName, priority)
	s.logger.Info("client created", zap.String("client_id", client.ID), zap.String("project_id", project.ID))
	s.indexClient(client.ID)
	return client, project, nil
}

// DeleteClient removes the client and everything under it. Unknown ids are a
// no-op reported as false.
func (s *Service) DeleteClient(id string) (deleted bool, err error) {
	defer func(start time.Time) { s.observe("delete_client", start, err) }(time.Now())

	deleted = s.store.DeleteClient(id)
	if deleted {
		s.search.DeleteClient(id)
	}
	return deleted, nil
}

func (s *Service) AddProject(input AddProjectInput) (project store.Project, err error) {
	defer func(start time.Time) { s.observe("add_project", start, err) }(time.Now())

	name, err := required("name", input.Name)
	if err != nil {
		return store.Project{}, err
	}
	priority, err := priorityOrDefault(input.Priority)
	if err != nil {
		return store.Project{}, err
	}
	start := input.StartDate
	if start.IsZero() {
		now := s.now().UTC()
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	deadline := input.Deadline
	if deadline.IsZero() {
		days := s.cfg.SeedDeadlineDays
		if days <= 0 {
			days = 30
		}
		deadline = start.AddDate(0, 0, days)
	}
	if deadline.Before(start) {
		return store.Project{}, validationError("deadline", "deadline must not be before start date")
	}
	project, err = s.store.AddProject(input.ClientID, name, priority, start, deadline)
	if err != nil {
		return store.Project{}, storeError(err)
	}
	s.indexClient(project.ClientID)
	return project, nil
}

func (s *Service) UpdateProject(id string, patch store.ProjectPatch) (project store.Project, err error) {
	defer func(start time.Time) { s.observe("update_project", start, err) }(time.Now())

	if patch.Name != nil {
		name, err := required("name", *patch.Name)
		if err != nil {
			return store.Project{}, err
		}
		patch.Name = &name
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return store.Project{}, validationError("status", fmt.Sprintf("invalid project status %q", *patch.Status))
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return store.Project{}, validationError("priority", fmt.Sprintf("invalid priority %q", *patch.Priority))
	}
	project, err = s.store.UpdateProject(id, patch)
	if err != nil {
		return store.Project{}, storeError(err)
	}
	if project.Deadline.Before(project.StartDate) {
		s.logger.Warn("project deadline before start date", zap.String("project_id", id))
	}
	if patch.Name != nil {
		s.indexClient(project.ClientID)
	}
	return project, nil
}

func (s *Service) UpdateProjectPriority(id string, priority store.Priority) (project store.Project, err error) {
	defer func(start time.Time) { s.observe("update_project_priority", start, err) }(time.Now())

	if !priority.Valid() {
		return store.Project{}, validationError("priority", fmt.Sprintf("invalid priority %q", priority))
	}
	project, err = s.store.UpdateProjectPriority(id, priority)
	return project, storeError(err)
}

// DeleteProject removes a project with its requirements and subtasks, then
// re-evaluates the owning client.
func (s *Service) DeleteProject(id string) (deleted bool, err error) {
	defer func(start time.Time) { s.observe("delete_project", start, err) }(time.Now())

	project, lookupErr := s.store.Project(id)
	if lookupErr != nil {
		return false, nil
	}
	deleted = s.store.DeleteProject(id)
	if err := s.recheckClient(project.ClientID); err != nil {
		return deleted, err
	}
	s.indexClient(project.ClientID)
	return deleted, nil
}

func (s *Service) AddRequirement(input AddRequirementInput) (req store.Requirement, err error) {
	defer func(start time.Time) { s.observe("add_requirement", start, err) }(time.Now())

	title, err := required("title", input.Title)
	if err != nil {
		return store.Requirement{}, err
	}
	priority, err := priorityOrDefault(input.Priority)
	if err != nil {
		return store.Requirement{}, err
	}
	req, err = s.store.AddRequirement(input.ProjectID, title, strings.TrimSpace(input.Description), input.IsAdditionalScope, priority)
	if err != nil {
		return store.Requirement{}, storeError(err)
	}
	clientID, err := s.store.ClientOfRequirement(req.ID)
	if err != nil {
		return req, storeError(err)
	}
	return req, s.recheckClient(clientID)
}

func (s *Service) UpdateRequirement(id string, patch store.RequirementPatch) (req store.Requirement, err error) {
	defer func(start time.Time) { s.observe("update_requirement", start, err) }(time.Now())

	if patch.Title != nil {
		title, err := required("title", *patch.Title)
		if err != nil {
			return store.Requirement{}, err
		}
		patch.Title = &title
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return store.Requirement{}, validationError("priority", fmt.Sprintf("invalid priority %q", *patch.Priority))
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		patch.Description = &description
	}
	req, err = s.store.UpdateRequirement(id, patch)
	return req, storeError(err)
}

// DeleteRequirement removes the requirement and its subtasks, then
// re-evaluates the owning client.
func (s *Service) DeleteRequirement(id string) (deleted bool, err error) {
	defer func(start time.Time) { s.observe("delete_requirement", start, err) }(time.Now())

	clientID, lookupErr := s.store.ClientOfRequirement(id)
	if lookupErr != nil {
		return false, nil
	}
	deleted = s.store.DeleteRequirement(id)
	return deleted, s.recheckClient(clientID)
}

func (s *Service) AddSubtask(input AddSubtaskInput) (task store.Subtask, err error) {
	defer func(start time.Time) { s.observe("add_subtask", start, err) }(time.Now())

	title, err := required("title", input.Title)
	if err != nil {
		return store.Subtask{}, err
	}
	priority, err := priorityOrDefault(input.Priority)
	if err != nil {
		return store.Subtask{}, err
	}
	task, err = s.store.AddSubtask(input.RequirementID, title, strings.TrimSpace(input.Assignee), priority)
	if err != nil {
		return store.Subtask{}, storeError(err)
	}
	return task, s.recheckSubtaskOwner(task.ID)
}

func (s *Service) recheckSubtaskOwner(taskID string) error {
	clientID, err := s.store.ClientOfSubtask(taskID)
	if err != nil {
		return storeError(err)
	}
	return s.recheckClient(clientID)
}

func (s *Service) UpdateSubtask(id string, patch store.SubtaskPatch) (task store.Subtask, err error) {
	defer func(start time.Time) { s.observe("update_subtask", start, err) }(time.Now())

	if patch.Title != nil {
		title, err := required("title", *patch.Title)
		if err != nil {
			return store.Subtask{}, err
		}
		patch.Title = &title
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return store.Subtask{}, validationError("status", fmt.Sprintf("invalid task status %q", *patch.Status))
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return store.Subtask{}, validationError("priority", fmt.Sprintf("invalid priority %q", *patch.Priority))
	}
	if patch.Assignee != nil {
		assignee := strings.TrimSpace(*patch.Assignee)
		patch.Assignee = &assignee
	}
	task, err = s.store.UpdateSubtask(id, patch)
	if err != nil {
		return store.Subtask{}, storeError(err)
	}
	if patch.Status == nil {
		return task, nil
	}
	return task, s.recheckSubtaskOwner(task.ID)
}

func (s *Service) SetSubtaskStatus(id string, status store.TaskStatus) (task store.Subtask, err error) {
	defer func(start time.Time) { s.observe("set_subtask_status", start, err) }(time.Now())

	if !status.Valid() {
		return store.Subtask{}, validationError("status", fmt.Sprintf("invalid task status %q", status))
	}
	task, err = s.store.SetSubtaskStatus(id, status)
	if err != nil {
		return store.Subtask{}, storeError(err)
	}
	return task, s.recheckSubtaskOwner(task.ID)
}

func (s *Service) DeleteSubtask(id string) (deleted bool, err error) {
	defer func(start time.Time) { s.observe("delete_subtask", start, err) }(time.Now())

	clientID, lookupErr := s.store.ClientOfSubtask(id)
	if lookupErr != nil {
		return false, nil
	}
	deleted = s.store.DeleteSubtask(id)
	return deleted, s.recheckClient(clientID)
}

// AddDocument attaches a document and recomputes the client's agreement
// status.
func (s *Service) AddDocument(input AddDocumentInput) (doc store.Document, err error) {
	defer func(start time.Time) { s.observe("add_document", start, err) }(time.Now())

	name, err := required("name", input.Name)
	if err != nil {
		return store.Document{}, err
	}
	docType := input.Type
	if docType == "" {
		docType = store.DocumentOther
	}
	if !docType.Valid() {
		return store.Document{}, validationError("type", fmt.Sprintf("invalid document type %q", input.Type))
	}
	doc, err = s.store.AddDocument(input.ClientID, name, docType, strings.TrimSpace(input.FileRef))
	if err != nil {
		return store.Document{}, storeError(err)
	}
	return doc, s.recomputeAgreement(doc.ClientID)
}

func (s *Service) DeleteDocument(id string) (deleted bool, err error) {
	defer func(start time.Time) { s.observe("delete_document", start, err) }(time.Now())

	doc, ok := s.store.DeleteDocument(id)
	if !ok {
		return false, nil
	}
	return true, s.recomputeAgreement(doc.ClientID)
}

// AddOutreachRecord prepends a lead. Startup name and founder are required.
func (s *Service) AddOutreachRecord(rec store.OutreachRecord) (out store.OutreachRecord, err error) {
	defer func(start time.Time) { s.observe("add_outreach_record", start, err) }(time.Now())

	if rec.StartupName, err = required("startupName", rec.StartupName); err != nil {
		return store.OutreachRecord{}, err
	}
	if rec.Founder, err = required("founder", rec.Founder); err != nil {
		return store.OutreachRecord{}, err
	}
	if rec.Status != "" && !rec.Status.Valid() {
		return store.OutreachRecord{}, validationError("status", fmt.Sprintf("invalid outreach status %q", rec.Status))
	}
	if rec.ContactPlatform != "" && !rec.ContactPlatform.Valid() {
		return store.OutreachRecord{}, validationError("contactPlatform", fmt.Sprintf("invalid platform %q", rec.ContactPlatform))
	}
	rec.ID = ""
	out = s.ledger.Add(rec)
	s.search.IndexLead(leadRecord(out))
	return out, nil
}

func (s *Service) UpdateOutreachRecord(id string, patch store.OutreachPatch) (out store.OutreachRecord, err error) {
	defer func(start time.Time) { s.observe("update_outreach_record", start, err) }(time.Now())

	if patch.StartupName != nil {
		name, err := required("startupName", *patch.StartupName)
		if err != nil {
			return store.OutreachRecord{}, err
		}
		patch.StartupName = &name
	}
	if patch.Founder != nil {
		founder, err := required("founder", *patch.Founder)
		if err != nil {
			return store.OutreachRecord{}, err
		}
		patch.Founder = &founder
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return store.OutreachRecord{}, validationError("status", fmt.Sprintf("invalid outreach status %q", *patch.Status))
	}
	if patch.ContactPlatform != nil && !patch.ContactPlatform.Valid() {
		return store.OutreachRecord{}, validationError("contactPlatform", fmt.Sprintf("invalid platform %q", *patch.ContactPlatform))
	}
	out, err = s.ledger.Update(id, patch)
	if err != nil {
		return store.OutreachRecord{}, storeError(err)
	}
	s.search.IndexLead(leadRecord(out))
	return out, nil
}

func (s *Service) DeleteOutreachRecord(id string) (deleted bool, err error) {
	defer func(start time.Time) { s.observe("delete_outreach_record", start, err) }(time.Now())

	deleted = s.ledger.Delete(id)
	if deleted {
		s.search.DeleteLead(id)
	}
	return deleted, nil
}

// State captures the client graph and the outreach ledger.
func (s *Service) State() store.State {
	return store.State{
		Graph:    s.store.Snapshot(),
		Outreach: s.ledger.Records(),
		SavedAt:  s.now().UTC(),
	}
}

// Restore replaces all in-memory state and rebuilds the search index. The
// cached agreement fields are derived again from the restored documents;
// lifecycle status is kept as saved.
func (s *Service) Restore(state store.State) error {
	if err := s.store.Restore(state.Graph); err != nil {
		return fmt.Errorf("restore graph: %w", err)
	}
	for _, c := range s.store.Clients() {
		if err := s.recomputeAgreement(c.ID); err != nil {
			return fmt.Errorf("restore agreement: %w", err)
		}
	}
	s.ledger.Restore(state.Outreach)
	s.reindex()
	return nil
}

func (s *Service) reindex() {
	clients := s.store.Clients()
	records := make([]search.ClientRecord, 0, len(clients))
	for _, c := range clients {
		records = append(records, s.clientRecord(c))
	}
	leads := s.ledger.Records()
	leadRecords := make([]search.LeadRecord, 0, len(leads))
	for _, l := range leads {
		leadRecords = append(leadRecords, leadRecord(l))
	}
	s.search.Reindex(records, leadRecords)
}

// Load restores the configured snapshot. A missing snapshot leaves the
// service empty.
func (s *Service) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	state, err := s.repo.LoadState(ctx, s.cfg.SnapshotName)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Info("no saved state, starting empty", zap.String("snapshot", s.cfg.SnapshotName))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if err := s.Restore(state); err != nil {
		return err
	}
	s.logger.Debug("state loaded",
		zap.String("snapshot", s.cfg.SnapshotName),
		zap.Int("clients", len(state.Graph.Clients)),
		zap.Int("leads", len(state.Outreach)),
	)
	return nil
}

func (s *Service) Save(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.SaveState(ctx, s.cfg.SnapshotName, s.State()); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Ping checks the repository when it supports it.
func (s *Service) Ping(ctx context.Context) error {
	p, ok := s.repo.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	return p.Ping(ctx)
}
