// Package lifecycle derives a client's agreement status from its documents and
// moves the client between Active and Completed as its task set changes.
package lifecycle

import (
	"fmt"

	"github.com/ai-engineer-001/upcraft-crm/internal/store"
)

// Store is the slice of the entity store the engine reads and writes.
type Store interface {
	Client(id string) (store.Client, error)
	DocumentsByClient(clientID string) []store.Document
	SubtasksByClient(clientID string) []store.Subtask
	UpdateClientStatus(id string, status store.ClientStatus) (store.Client, error)
	UpdateAgreementStatus(id string, status store.AgreementStatus, ref string) (store.Client, error)
}

// StatusChange describes the outcome of a recompute. Changed is false when
// the stored value already matched.
type StatusChange struct {
	ClientID string
	From     store.ClientStatus
	To       store.ClientStatus
	Changed  bool
}

type AgreementChange struct {
	ClientID string
	From     store.AgreementStatus
	To       store.AgreementStatus
	Ref      string
	Changed  bool
}

// Agreement returns Signed with the file reference of the first agreement
// document, or Pending with an empty reference when there is none.
func Agreement(docs []store.Document) (store.AgreementStatus, string) {
	for _, d := range docs {
		if d.Type == store.DocumentAgreement {
			return store.AgreementSigned, d.FileRef
		}
	}
	return store.AgreementPending, ""
}

// NextStatus applies the completion rules to a client's current status and
// its full task set. Clients with no tasks, and Archived clients, keep their
// status.
func NextStatus(current store.ClientStatus, tasks []store.Subtask) store.ClientStatus {
	if len(tasks) == 0 {
		return current
	}
	allDone := true
	for _, t := range tasks {
		if t.Status != store.TaskDone {
			allDone = false
			break
		}
	}
	switch {
	case allDone && current == store.ClientActive:
		return store.ClientCompleted
	case !allDone && current == store.ClientCompleted:
		return store.ClientActive
	default:
		return current
	}
}

type Engine struct {
	store Store
}

func NewEngine(s Store) *Engine {
	return &Engine{store: s}
}

// RecomputeAgreement rewrites the cached agreement fields of a client from
// its documents.
func (e *Engine) RecomputeAgreement(clientID string) (AgreementChange, error) {
	client, err := e.store.Client(clientID)
	if err != nil {
		return AgreementChange{}, err
	}
	status, ref := Agreement(e.store.DocumentsByClient(clientID))
	change := AgreementChange{ClientID: clientID, From: client.AgreementStatus, To: status, Ref: ref}
	if client.AgreementStatus == status && client.AgreementRef == ref {
		return change, nil
	}
	if _, err := e.store.UpdateAgreementStatus(clientID, status, ref); err != nil {
		return AgreementChange{}, fmt.Errorf("update agreement status: %w", err)
	}
	change.Changed = client.AgreementStatus != status
	return change, nil
}

// CheckAndUpdateClientStatus evaluates the completion rules for one client.
// Calling it when nothing changed is a no-op.
func (e *Engine) CheckAndUpdateClientStatus(clientID string) (StatusChange, error) {
	client, err := e.store.Client(clientID)
	if err != nil {
		return StatusChange{}, err
	}
	next := NextStatus(client.Status, e.store.SubtasksByClient(clientID))
	change := StatusChange{ClientID: clientID, From: client.Status, To: next}
	if next == client.Status {
		return change, nil
	}
	if _, err := e.store.UpdateClientStatus(clientID, next); err != nil {
		return StatusChange{}, fmt.Errorf("update client status: %w", err)
	}
	change.Changed = true
	return change, nil
}
