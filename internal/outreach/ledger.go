// Package outreach keeps the lead ledger. It is independent of the client
// graph.
package outreach

import (
	"fmt"
	"strings"

	"github.com/ai-engineer-001/upcraft-crm/internal/store"
	"github.com/ai-engineer-001/upcraft-crm/internal/util"
)

// Ledger holds outreach records newest first. It is not safe for concurrent use.
type Ledger struct {
	records []store.OutreachRecord
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Add prepends a record, filling in the Identified status and LinkedIn
// platform when unset. A non-empty ID is kept so restored data round-trips.
func (l *Ledger) Add(rec store.OutreachRecord) store.OutreachRecord {
	if rec.ID == "" {
		rec.ID = util.NewID("lead")
	}
	if rec.Status == "" {
		rec.Status = store.OutreachIdentified
	}
	if rec.ContactPlatform == "" {
		rec.ContactPlatform = store.PlatformLinkedIn
	}
	l.records = append([]store.OutreachRecord{rec}, l.records...)
	return rec
}

func (l *Ledger) index(id string) int {
	for i, r := range l.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) Get(id string) (store.OutreachRecord, error) {
	i := l.index(id)
	if i < 0 {
		return store.OutreachRecord{}, fmt.Errorf("outreach record %s: %w", id, store.ErrNotFound)
	}
	return l.records[i], nil
}

// Update applies the non-nil fields of patch in place.
func (l *Ledger) Update(id string, patch store.OutreachPatch) (store.OutreachRecord, error) {
	i := l.index(id)
	if i < 0 {
		return store.OutreachRecord{}, fmt.Errorf("outreach record %s: %w", id, store.ErrNotFound)
	}
	rec := l.records[i]
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	if patch.Status != nil {
		rec.Status = *patch.Status
	}
	if patch.ContactPlatform != nil {
		rec.ContactPlatform = *patch.ContactPlatform
	}
	set(&rec.StartupName, patch.StartupName)
	set(&rec.Founder, patch.Founder)
	set(&rec.ContactLink, patch.ContactLink)
	set(&rec.TechStack, patch.TechStack)
	set(&rec.ProblemType, patch.ProblemType)
	set(&rec.SpecificIssue, patch.SpecificIssue)
	set(&rec.AuditLink, patch.AuditLink)
	set(&rec.OutreachDate, patch.OutreachDate)
	set(&rec.NextAction, patch.NextAction)
	l.records[i] = rec
	return rec, nil
}

// Delete removes the record and reports whether it existed.
func (l *Ledger) Delete(id string) bool {
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.records = append(l.records[:i], l.records[i+1:]...)
	return true
}

// List returns the records whose startup name, founder, tech stack, problem
// type or status contains query, ignoring case. An empty query returns all.
func (l *Ledger) List(query string) []store.OutreachRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]store.OutreachRecord, 0, len(l.records))
	for _, r := range l.records {
		if q == "" || Matches(r, q) {
			out = append(out, r)
		}
	}
	return out
}

// Matches expects q to be lower-cased already.
func Matches(r store.OutreachRecord, q string) bool {
	for _, field := range []string{r.StartupName, r.Founder, r.TechStack, r.ProblemType, string(r.Status)} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Records returns a copy of the ledger, newest first.
func (l *Ledger) Records() []store.OutreachRecord {
	return append([]store.OutreachRecord(nil), l.records...)
}

// Restore replaces the ledger contents, keeping the given order.
func (l *Ledger) Restore(records []store.OutreachRecord) {
	l.records = append([]store.OutreachRecord(nil), records...)
}

type Stats struct {
	Total     int `json:"total"`
	Contacted int `json:"contacted"`
	InTalks   int `json:"in_talks"`
	Converted int `json:"converted"`
}

// Stats counts every record that left Identified as contacted.
func (l *Ledger) Stats() Stats {
	s := Stats{Total: len(l.records)}
	for _, r := range l.records {
		if r.Status != store.OutreachIdentified {
			s.Contacted++
		}
		switch r.Status {
		case store.OutreachInTalks:
			s.InTalks++
		case store.OutreachConverted:
			s.Converted++
		}
	}
	return s
}
