package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/ai-engineer-001/upcraft-crm/internal/util"
)

// ErrNotFound is returned when a command targets an id the store does not hold.
var ErrNotFound = errors.New("not found")

const defaultSeedDeadline = 30 * 24 * time.Hour

// table keeps rows keyed by id while remembering insertion order.
type table[T any] struct {
	order []string
	rows  map[string]T
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) get(id string) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func (t *table[T]) put(id string, row T) {
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

func (t *table[T]) remove(id string) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

func (t *table[T]) list(keep func(T) bool) []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		row := t.rows[id]
		if keep == nil || keep(row) {
			out = append(out, row)
		}
	}
	return out
}

// MemoryStore holds the client graph in process memory. It is a plain data
// container: derived fields are written by the lifecycle engine through
// UpdateClientStatus and UpdateAgreementStatus, never recomputed here.
// A MemoryStore is not safe for concurrent use.
type MemoryStore struct {
	clients      *table[Client]
	projects     *table[Project]
	requirements *table[Requirement]
	subtasks     *table[Subtask]
	documents    *table[Document]

	now          func() time.Time
	seedDeadline time.Duration
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clients:      newTable[Client](),
		projects:     newTable[Project](),
		requirements: newTable[Requirement](),
		subtasks:     newTable[Subtask](),
		documents:    newTable[Document](),
		now:          time.Now,
		seedDeadline: defaultSeedDeadline,
	}
}

// WithClock replaces the clock used for creation dates.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	if now != nil {
		s.now = now
	}
	return s
}

// WithSeedDeadline sets how far after today the seed project's deadline falls.
func (s *MemoryStore) WithSeedDeadline(days int) *MemoryStore {
	if days > 0 {
		s.seedDeadline = time.Duration(days) * 24 * time.Hour
	}
	return s
}

func (s *MemoryStore) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// AddClient creates an Active client with a Pending agreement and one seed
// project in Planning. Inputs are assumed to be validated by the caller.
func (s *MemoryStore) AddClient(name, email, projectName string, priority Priority) (Client, Project) {
	today := s.today()
	client := Client{
		ID:              util.NewID("client"),
		Name:            name,
		Email:           email,
		Status:          ClientActive,
		AgreementStatus: AgreementPending,
		CreatedAt:       today,
	}
	s.clients.put(client.ID, client)

	project := Project{
		ID:        util.NewID("project"),
		ClientID:  client.ID,
		Name:      projectName,
		Status:    ProjectPlanning,
		Priority:  priority,
		StartDate: today,
		Deadline:  today.Add(s.seedDeadline),
		CreatedAt: today,
	}
	s.projects.put(project.ID, project)
	return client, project
}

func (s *MemoryStore) Client(id string) (Client, error) {
	client, ok := s.clients.get(id)
	if !ok {
		return Client{}, notFound("client", id)
	}
	return client, nil
}

func (s *MemoryStore) Clients() []Client {
	return s.clients.list(nil)
}

func (s *MemoryStore) ClientsByStatus(status ClientStatus) []Client {
	return s.clients.list(func(c Client) bool { return c.Status == status })
}

// UpdateClientStatus overwrites the lifecycle status. It is meant for the
// lifecycle engine, not general editing.
func (s *MemoryStore) UpdateClientStatus(id string, status ClientStatus) (Client, error) {
	client, ok := s.clients.get(id)
	if !ok {
		return Client{}, notFound("client", id)
	}
	client.Status = status
	s.clients.put(id, client)
	return client, nil
}

// UpdateAgreementStatus writes the cached agreement fields. Callers derive the
// values from the client's documents.
func (s *MemoryStore) UpdateAgreementStatus(id string, status AgreementStatus, ref string) (Client, error) {
	client, ok := s.clients.get(id)
	if !ok {
		return Client{}, notFound("client", id)
	}
	client.AgreementStatus = status
	client.AgreementRef = ref
	s.clients.put(id, client)
	return client, nil
}

// DeleteClient removes the client with its projects, requirements, subtasks
// and documents. It reports whether the client existed.
func (s *MemoryStore) DeleteClient(id string) bool {
	if _, ok := s.clients.get(id); !ok {
		return false
	}
	for _, project := range s.ProjectsByClient(id) {
		s.DeleteProject(project.ID)
	}
	for _, doc := range s.DocumentsByClient(id) {
		s.documents.remove(doc.ID)
	}
	return s.clients.remove(id)
}

func (s *MemoryStore) AddProject(clientID, name string, priority Priority, start, deadline time.Time) (Project, error) {
	if _, ok := s.clients.get(clientID); !ok {
		return Project{}, notFound("client", clientID)
	}
	project := Project{
		ID:        util.NewID("project"),
		ClientID:  clientID,
		Name:      name,
		Status:    ProjectPlanning,
		Priority:  priority,
		StartDate: start,
		Deadline:  deadline,
		CreatedAt: s.today(),
	}
	s.projects.put(project.ID, project)
	return project, nil
}

func (s *MemoryStore) Project(id string) (Project, error) {
	project, ok := s.projects.get(id)
	if !ok {
		return Project{}, notFound("project", id)
	}
	return project, nil
}

func (s *MemoryStore) Projects() []Project {
	return s.projects.list(nil)
}

func (s *MemoryStore) ProjectsByClient(clientID string) []Project {
	return s.projects.list(func(p Project) bool { return p.ClientID == clientID })
}

func (s *MemoryStore) UpdateProject(id string, patch ProjectPatch) (Project, error) {
	project, ok := s.projects.get(id)
	if !ok {
		return Project{}, notFound("project", id)
	}
	if patch.Name != nil {
		project.Name = *patch.Name
	}
	if patch.Status != nil {
		project.Status = *patch.Status
	}
	if patch.Priority != nil {
		project.Priority = *patch.Priority
	}
	if patch.StartDate != nil {
		project.StartDate = *patch.StartDate
	}
	if patch.Deadline != nil {
		project.Deadline = *patch.Deadline
	}
	s.projects.put(id, project)
	return project, nil
}

func (s *MemoryStore) UpdateProjectPriority(id string, priority Priority) (Project, error) {
	return s.UpdateProject(id, ProjectPatch{Priority: &priority})
}

// DeleteProject removes the project, its requirements and their subtasks.
func (s *MemoryStore) DeleteProject(id string) bool {
	if _, ok := s.projects.get(id); !ok {
		return false
	}
	for _, req := range s.RequirementsByProject(id) {
		s.DeleteRequirement(req.ID)
	}
	return s.projects.remove(id)
}

// ClientOfProject resolves the owning client id.
func (s *MemoryStore) ClientOfProject(projectID string) (string, error) {
	project, ok := s.projects.get(projectID)
	if !ok {
		return "", notFound("project", projectID)
	}
	return project.ClientID, nil
}

func (s *MemoryStore) AddRequirement(projectID, title, description string, isAdditionalScope bool, priority Priority) (Requirement, error) {
	if _, ok := s.projects.get(projectID); !ok {
		return Requirement{}, notFound("project", projectID)
	}
	if priority == "" {
		priority = PriorityMedium
	}
	req := Requirement{
		ID:                util.NewID("req"),
		ProjectID:         projectID,
		Title:             title,
		Description:       description,
		IsAdditionalScope: isAdditionalScope,
		Priority:          priority,
		CreatedAt:         s.today(),
	}
	s.requirements.put(req.ID, req)
	return req, nil
}

func (s *MemoryStore) Requirement(id string) (Requirement, error) {
	req, ok := s.requirements.get(id)
	if !ok {
		return Requirement{}, notFound("requirement", id)
	}
	return req, nil
}

func (s *MemoryStore) Requirements() []Requirement {
	return s.requirements.list(nil)
}

func (s *MemoryStore) RequirementsByProject(projectID string) []Requirement {
	return s.requirements.list(func(r Requirement) bool { return r.ProjectID == projectID })
}

func (s *MemoryStore) UpdateRequirement(id string, patch RequirementPatch) (Requirement, error) {
	req, ok := s.requirements.get(id)
	if !ok {
		return Requirement{}, notFound("requirement", id)
	}
	if patch.Title != nil {
		req.Title = *patch.Title
	}
	if patch.Description != nil {
		req.Description = *patch.Description
	}
	if patch.IsAdditionalScope != nil {
		req.IsAdditionalScope = *patch.IsAdditionalScope
	}
	if patch.Priority != nil {
		req.Priority = *patch.Priority
	}
	s.requirements.put(id, req)
	return req, nil
}

// DeleteRequirement removes the requirement and its subtasks.
func (s *MemoryStore) DeleteRequirement(id string) bool {
	if _, ok := s.requirements.get(id); !ok {
		return false
	}
	for _, task := range s.SubtasksByRequirement(id) {
		s.subtasks.remove(task.ID)
	}
	return s.requirements.remove(id)
}

func (s *MemoryStore) ClientOfRequirement(requirementID string) (string, error) {
	req, ok := s.requirements.get(requirementID)
	if !ok {
		return "", notFound("requirement", requirementID)
	}
	return s.ClientOfProject(req.ProjectID)
}

// AddSubtask creates a subtask in To Do.
func (s *MemoryStore) AddSubtask(requirementID, title, assignee string, priority Priority) (Subtask, error) {
	if _, ok := s.requirements.get(requirementID); !ok {
		return Subtask{}, notFound("requirement", requirementID)
	}
	if priority == "" {
		priority = PriorityMedium
	}
	task := Subtask{
		ID:            util.NewID("task"),
		RequirementID: requirementID,
		Title:         title,
		Status:        TaskToDo,
		Priority:      priority,
		Assignee:      assignee,
		CreatedAt:     s.today(),
	}
	s.subtasks.put(task.ID, task)
	return task, nil
}

func (s *MemoryStore) Subtask(id string) (Subtask, error) {
	task, ok := s.subtasks.get(id)
	if !ok {
		return Subtask{}, notFound("subtask", id)
	}
	return task, nil
}

func (s *MemoryStore) Subtasks() []Subtask {
	return s.subtasks.list(nil)
}

func (s *MemoryStore) SubtasksByRequirement(requirementID string) []Subtask {
	return s.subtasks.list(func(t Subtask) bool { return t.RequirementID == requirementID })
}

// SubtasksByClient gathers every subtask under the client's projects.
func (s *MemoryStore) SubtasksByClient(clientID string) []Subtask {
	var out []Subtask
	for _, project := range s.ProjectsByClient(clientID) {
		for _, req := range s.RequirementsByProject(project.ID) {
			out = append(out, s.SubtasksByRequirement(req.ID)...)
		}
	}
	return out
}

func (s *MemoryStore) UpdateSubtask(id string, patch SubtaskPatch) (Subtask, error) {
	task, ok := s.subtasks.get(id)
	if !ok {
		return Subtask{}, notFound("subtask", id)
	}
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Assignee != nil {
		task.Assignee = *patch.Assignee
	}
	s.subtasks.put(id, task)
	return task, nil
}

func (s *MemoryStore) SetSubtaskStatus(id string, status TaskStatus) (Subtask, error) {
	return s.UpdateSubtask(id, SubtaskPatch{Status: &status})
}

func (s *MemoryStore) DeleteSubtask(id string) bool {
	return s.subtasks.remove(id)
}

func (s *MemoryStore) ClientOfSubtask(subtaskID string) (string, error) {
	task, ok := s.subtasks.get(subtaskID)
	if !ok {
		return "", notFound("subtask", subtaskID)
	}
	return s.ClientOfRequirement(task.RequirementID)
}

func (s *MemoryStore) AddDocument(clientID, name string, docType DocumentType, fileRef string) (Document, error) {
	if _, ok := s.clients.get(clientID); !ok {
		return Document{}, notFound("client", clientID)
	}
	doc := Document{
		ID:         util.NewID("doc"),
		ClientID:   clientID,
		Name:       name,
		Type:       docType,
		FileRef:    fileRef,
		UploadedAt: s.today(),
	}
	s.documents.put(doc.ID, doc)
	return doc, nil
}

func (s *MemoryStore) Document(id string) (Document, error) {
	doc, ok := s.documents.get(id)
	if !ok {
		return Document{}, notFound("document", id)
	}
	return doc, nil
}

func (s *MemoryStore) Documents() []Document {
	return s.documents.list(nil)
}

func (s *MemoryStore) DocumentsByClient(clientID string) []Document {
	return s.documents.list(func(d Document) bool { return d.ClientID == clientID })
}

// DeleteDocument removes the document and returns it so the caller can
// recompute the owning client's agreement status.
func (s *MemoryStore) DeleteDocument(id string) (Document, bool) {
	doc, ok := s.documents.get(id)
	if !ok {
		return Document{}, false
	}
	s.documents.remove(id)
	return doc, true
}
