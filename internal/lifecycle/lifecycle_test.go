package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/ai-engineer-001/upcraft-crm/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore() *store.MemoryStore {
	return store.NewMemoryStore().WithClock(func() time.Time {
		return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	})
}

func TestAgreement(t *testing.T) {
	status, ref := Agreement(nil)
	assert.Equal(t, store.AgreementPending, status)
	assert.Empty(t, ref)

	status, ref = Agreement([]store.Document{
		{Type: store.DocumentProposal, FileRef: "proposal.pdf"},
		{Type: store.DocumentAgreement, FileRef: "msa.pdf"},
		{Type: store.DocumentAgreement, FileRef: "msa-v2.pdf"},
	})
	assert.Equal(t, store.AgreementSigned, status)
	assert.Equal(t, "msa.pdf", ref)
}

func TestNextStatus(t *testing.T) {
	done := store.Subtask{Status: store.TaskDone}
	open := store.Subtask{Status: store.TaskReview}

	tests := []struct {
		name    string
		current store.ClientStatus
		tasks   []store.Subtask
		want    store.ClientStatus
	}{
		{"no tasks keeps active", store.ClientActive, nil, store.ClientActive},
		{"no tasks keeps completed", store.ClientCompleted, nil, store.ClientCompleted},
		{"all done completes", store.ClientActive, []store.Subtask{done, done}, store.ClientCompleted},
		{"open task reopens", store.ClientCompleted, []store.Subtask{done, open}, store.ClientActive},
		{"open task keeps active", store.ClientActive, []store.Subtask{open}, store.ClientActive},
		{"all done stays completed", store.ClientCompleted, []store.Subtask{done}, store.ClientCompleted},
		{"archived untouched when done", store.ClientArchived, []store.Subtask{done}, store.ClientArchived},
		{"archived untouched when open", store.ClientArchived, []store.Subtask{open}, store.ClientArchived},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextStatus(tt.current, tt.tasks))
		})
	}
}

func TestAgreementRoundTrip(t *testing.T) {
	s := newStore()
	engine := NewEngine(s)
	client, _ := s.AddClient("Acme", "ops@acme.io", "Website", store.PriorityHigh)

	proposal, err := s.AddDocument(client.ID, "Proposal", store.DocumentProposal, "acme/proposal.pdf")
	require.NoError(t, err)
	change, err := engine.RecomputeAgreement(client.ID)
	require.NoError(t, err)
	assert.False(t, change.Changed)
	assert.Equal(t, store.AgreementPending, change.To)

	msa, err := s.AddDocument(client.ID, "MSA", store.DocumentAgreement, "acme/msa.pdf")
	require.NoError(t, err)
	change, err = engine.RecomputeAgreement(client.ID)
	require.NoError(t, err)
	assert.True(t, change.Changed)
	got, _ := s.Client(client.ID)
	assert.Equal(t, store.AgreementSigned, got.AgreementStatus)
	assert.Equal(t, "acme/msa.pdf", got.AgreementRef)

	s.DeleteDocument(proposal.ID)
	change, err = engine.RecomputeAgreement(client.ID)
	require.NoError(t, err)
	assert.False(t, change.Changed)

	s.DeleteDocument(msa.ID)
	change, err = engine.RecomputeAgreement(client.ID)
	require.NoError(t, err)
	assert.True(t, change.Changed)
	got, _ = s.Client(client.ID)
	assert.Equal(t, store.AgreementPending, got.AgreementStatus)
	assert.Empty(t, got.AgreementRef)
}

func TestClientCompletesAndReopens(t *testing.T) {
	s := newStore()
	engine := NewEngine(s)
	client, project := s.AddClient("Acme", "ops@acme.io", "Website", store.PriorityHigh)
	req, _ := s.AddRequirement(project.ID, "Design", "", false, store.PriorityMedium)

	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		task, err := s.AddSubtask(req.ID, title, "", store.PriorityLow)
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}

	for i, id := range ids {
		_, err := s.SetSubtaskStatus(id, store.TaskDone)
		require.NoError(t, err)
		change, err := engine.CheckAndUpdateClientStatus(client.ID)
		require.NoError(t, err)
		if i < len(ids)-1 {
			assert.False(t, change.Changed, "changed after %d of %d tasks", i+1, len(ids))
		} else {
			assert.True(t, change.Changed)
			assert.Equal(t, store.ClientActive, change.From)
			assert.Equal(t, store.ClientCompleted, change.To)
		}
	}

	change, err := engine.CheckAndUpdateClientStatus(client.ID)
	require.NoError(t, err)
	assert.False(t, change.Changed, "second check must be a no-op")

	extra, _ := s.AddRequirement(project.ID, "Rush bugfix", "", true, store.PriorityUrgent)
	_, err = s.AddSubtask(extra.ID, "Fix", "", store.PriorityUrgent)
	require.NoError(t, err)
	change, err = engine.CheckAndUpdateClientStatus(client.ID)
	require.NoError(t, err)
	assert.True(t, change.Changed)
	assert.Equal(t, store.ClientActive, change.To)
}

func TestClientWithoutTasksNeverMoves(t *testing.T) {
	s := newStore()
	engine := NewEngine(s)
	client, _ := s.AddClient("Acme", "ops@acme.io", "Website", store.PriorityHigh)

	for i := 0; i < 3; i++ {
		change, err := engine.CheckAndUpdateClientStatus(client.ID)
		require.NoError(t, err)
		assert.False(t, change.Changed)
	}
	got, _ := s.Client(client.ID)
	assert.Equal(t, store.ClientActive, got.Status)
}

func TestSingleTaskToggleOscillates(t *testing.T) {
	s := newStore()
	engine := NewEngine(s)
	client, project := s.AddClient("Acme", "ops@acme.io", "Website", store.PriorityHigh)
	req, _ := s.AddRequirement(project.ID, "Design", "", false, store.PriorityMedium)
	task, _ := s.AddSubtask(req.ID, "Only", "", store.PriorityMedium)

	want := []store.ClientStatus{store.ClientCompleted, store.ClientActive, store.ClientCompleted}
	statuses := []store.TaskStatus{store.TaskDone, store.TaskInProgress, store.TaskDone}
	for i, status := range statuses {
		_, _ = s.SetSubtaskStatus(task.ID, status)
		_, err := engine.CheckAndUpdateClientStatus(client.ID)
		require.NoError(t, err)
		got, _ := s.Client(client.ID)
		assert.Equal(t, want[i], got.Status)
	}
}

func TestUnknownClientIsNotFound(t *testing.T) {
	engine := NewEngine(newStore())
	_, err := engine.CheckAndUpdateClientStatus("missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))
	_, err = engine.RecomputeAgreement("missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}
