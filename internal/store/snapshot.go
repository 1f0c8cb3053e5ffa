package store

import (
	"errors"
	"fmt"
)

// ErrDanglingReference is returned by Restore when a row points at a parent
// the snapshot does not contain.
var ErrDanglingReference = errors.New("dangling reference")

// Snapshot copies the current state. Entities are plain values, so the copy
// shares nothing with the store.
func (s *MemoryStore) Snapshot() Snapshot {
	return Snapshot{
		Clients:      s.clients.list(nil),
		Projects:     s.projects.list(nil),
		Requirements: s.requirements.list(nil),
		Subtasks:     s.subtasks.list(nil),
		Documents:    s.documents.list(nil),
	}
}

// Restore replaces the store contents with snap. The snapshot must be
// referentially complete; on error the store is left unchanged.
func (s *MemoryStore) Restore(snap Snapshot) error {
	clients := newTable[Client]()
	for _, c := range snap.Clients {
		clients.put(c.ID, c)
	}
	projects := newTable[Project]()
	for _, p := range snap.Projects {
		if _, ok := clients.get(p.ClientID); !ok {
			return fmt.Errorf("project %s references client %s: %w", p.ID, p.ClientID, ErrDanglingReference)
		}
		projects.put(p.ID, p)
	}
	requirements := newTable[Requirement]()
	for _, r := range snap.Requirements {
		if _, ok := projects.get(r.ProjectID); !ok {
			return fmt.Errorf("requirement %s references project %s: %w", r.ID, r.ProjectID, ErrDanglingReference)
		}
		requirements.put(r.ID, r)
	}
	subtasks := newTable[Subtask]()
	for _, t := range snap.Subtasks {
		if _, ok := requirements.get(t.RequirementID); !ok {
			return fmt.Errorf("subtask %s references requirement %s: %w", t.ID, t.RequirementID, ErrDanglingReference)
		}
		subtasks.put(t.ID, t)
	}
	documents := newTable[Document]()
	for _, d := range snap.Documents {
		if _, ok := clients.get(d.ClientID); !ok {
			return fmt.Errorf("document %s references client %s: %w", d.ID, d.ClientID, ErrDanglingReference)
		}
		documents.put(d.ID, d)
	}

	s.clients = clients
	s.projects = projects
	s.requirements = requirements
	s.subtasks = subtasks
	s.documents = documents
	return nil
}
