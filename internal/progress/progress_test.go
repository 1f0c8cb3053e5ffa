package progress

import (
	"testing"

	"github.com/ai-engineer-001/upcraft-crm/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tasksWith(statuses ...store.TaskStatus) []store.Subtask {
	out := make([]store.Subtask, len(statuses))
	for i, s := range statuses {
		out[i] = store.Subtask{ID: string(rune('a' + i)), RequirementID: "r1", Status: s, Priority: store.PriorityMedium}
	}
	return out
}

func TestSubtaskProgressEmptyIsZero(t *testing.T) {
	assert.Equal(t, 0, SubtaskProgress(nil))
	assert.Equal(t, 0, SubtaskProgress([]store.Subtask{}))
}

func TestSubtaskProgressRounding(t *testing.T) {
	tests := []struct {
		name     string
		statuses []store.TaskStatus
		want     int
	}{
		{"none done", []store.TaskStatus{store.TaskToDo, store.TaskReview}, 0},
		{"half", []store.TaskStatus{store.TaskDone, store.TaskToDo}, 50},
		{"one third rounds down", []store.TaskStatus{store.TaskDone, store.TaskToDo, store.TaskInProgress}, 33},
		{"two thirds rounds up", []store.TaskStatus{store.TaskDone, store.TaskDone, store.TaskToDo}, 67},
		{"one eighth is 12.5 and rounds half up", []store.TaskStatus{
			store.TaskDone, store.TaskToDo, store.TaskToDo, store.TaskToDo,
			store.TaskToDo, store.TaskToDo, store.TaskToDo, store.TaskToDo,
		}, 13},
		{"review is not done", []store.TaskStatus{store.TaskReview}, 0},
		{"all done", []store.TaskStatus{store.TaskDone, store.TaskDone}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SubtaskProgress(tasksWith(tt.statuses...)))
		})
	}
}

func TestSubtaskProgressIsMonotonicAndBounded(t *testing.T) {
	for total := 1; total <= 25; total++ {
		tasks := make([]store.Subtask, total)
		for i := range tasks {
			tasks[i] = store.Subtask{Status: store.TaskToDo}
		}
		prev := SubtaskProgress(tasks)
		require.Equal(t, 0, prev)
		for i := range tasks {
			tasks[i].Status = store.TaskDone
			got := SubtaskProgress(tasks)
			require.GreaterOrEqual(t, got, prev, "total=%d done=%d", total, i+1)
			require.LessOrEqual(t, got, 100)
			prev = got
		}
		require.Equal(t, 100, prev)
	}
}

func TestForRequirementSortsByPriority(t *testing.T) {
	req := store.Requirement{ID: "r1"}
	all := []store.Subtask{
		{ID: "low", RequirementID: "r1", Priority: store.PriorityLow},
		{ID: "other", RequirementID: "r2", Priority: store.PriorityUrgent},
		{ID: "urgent", RequirementID: "r1", Priority: store.PriorityUrgent},
		{ID: "medium", RequirementID: "r1", Priority: store.PriorityMedium},
	}

	got := ForRequirement(req, all)

	require.Len(t, got.Subtasks, 3)
	assert.Equal(t, []string{"urgent", "medium", "low"}, ids(got.Subtasks))
}

func TestForRequirementKeepsInsertionOrderOnTies(t *testing.T) {
	req := store.Requirement{ID: "r1"}
	all := []store.Subtask{
		{ID: "h1", RequirementID: "r1", Priority: store.PriorityHigh},
		{ID: "u1", RequirementID: "r1", Priority: store.PriorityUrgent},
		{ID: "h2", RequirementID: "r1", Priority: store.PriorityHigh},
		{ID: "u2", RequirementID: "r1", Priority: store.PriorityUrgent},
	}
	assert.Equal(t, []string{"u1", "u2", "h1", "h2"}, ids(ForRequirement(req, all).Subtasks))
}

func TestForProjectIsTaskWeighted(t *testing.T) {
	project := store.Project{ID: "p1"}
	reqs := []store.Requirement{
		{ID: "big", ProjectID: "p1", Priority: store.PriorityLow},
		{ID: "small", ProjectID: "p1", Priority: store.PriorityUrgent, IsAdditionalScope: true},
		{ID: "elsewhere", ProjectID: "p2"},
	}
	all := []store.Subtask{
		{ID: "b1", RequirementID: "big", Status: store.TaskDone},
		{ID: "b2", RequirementID: "big", Status: store.TaskDone},
		{ID: "b3", RequirementID: "big", Status: store.TaskDone},
		{ID: "s1", RequirementID: "small", Status: store.TaskToDo},
		{ID: "x1", RequirementID: "elsewhere", Status: store.TaskToDo},
	}

	got := ForProject(project, reqs, all)

	// requirement-averaged would be 50; task-weighted is 3/4
	assert.Equal(t, 75, got.Progress)
	require.Len(t, got.Requirements, 2)
	assert.Equal(t, "small", got.Requirements[0].ID)
	assert.Len(t, got.AdditionalScope(), 1)
	assert.Len(t, got.CoreRequirements(), 1)
	assert.Len(t, got.Tasks(), 4)
}

func TestForProjectWithoutTasks(t *testing.T) {
	got := ForProject(store.Project{ID: "p1"}, nil, nil)
	assert.Equal(t, 0, got.Progress)
	assert.NotNil(t, got.Requirements)
}

func TestOverall(t *testing.T) {
	projects := []ProjectWithProgress{
		ForProject(store.Project{ID: "p1"}, []store.Requirement{{ID: "r1", ProjectID: "p1"}},
			[]store.Subtask{{RequirementID: "r1", Status: store.TaskDone}}),
		ForProject(store.Project{ID: "p2"}, []store.Requirement{{ID: "r2", ProjectID: "p2"}},
			[]store.Subtask{{RequirementID: "r2", Status: store.TaskToDo}, {RequirementID: "r2", Status: store.TaskToDo}}),
	}
	done, total, percent := Overall(projects)
	assert.Equal(t, 1, done)
	assert.Equal(t, 3, total)
	assert.Equal(t, 33, percent)
}

func TestSortProjects(t *testing.T) {
	projects := []ProjectWithProgress{
		{Project: store.Project{ID: "a", Priority: store.PriorityLow}},
		{Project: store.Project{ID: "b", Priority: store.PriorityUrgent}},
		{Project: store.Project{ID: "c", Priority: store.PriorityHigh}},
	}
	SortProjects(projects)
	assert.Equal(t, "b", projects[0].ID)
	assert.Equal(t, "c", projects[1].ID)
	assert.Equal(t, "a", projects[2].ID)
}

func ids(tasks []store.Subtask) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}
