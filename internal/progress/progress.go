// Package progress computes completion percentages over subtasks and builds
// the priority-ordered requirement and project compositions.
package progress

import (
	"sort"

	"github.com/ai-engineer-001/upcraft-crm/internal/store"
)

// RequirementWithTasks is a requirement with its subtasks, Urgent first.
type RequirementWithTasks struct {
	store.Requirement
	Subtasks []store.Subtask `json:"subtasks"`
}

// ProjectWithProgress is a project with its requirements and the task-weighted
// completion percentage across all of them.
type ProjectWithProgress struct {
	store.Project
	Requirements []RequirementWithTasks `json:"requirements"`
	Progress     int                    `json:"progress"`
}

// Tasks flattens the subtasks of every requirement.
func (p ProjectWithProgress) Tasks() []store.Subtask {
	var out []store.Subtask
	for _, req := range p.Requirements {
		out = append(out, req.Subtasks...)
	}
	return out
}

// CoreRequirements returns requirements agreed up front.
func (p ProjectWithProgress) CoreRequirements() []RequirementWithTasks {
	return p.filter(false)
}

// AdditionalScope returns requirements flagged as post-agreement scope.
func (p ProjectWithProgress) AdditionalScope() []RequirementWithTasks {
	return p.filter(true)
}

func (p ProjectWithProgress) filter(additional bool) []RequirementWithTasks {
	out := make([]RequirementWithTasks, 0, len(p.Requirements))
	for _, req := range p.Requirements {
		if req.IsAdditionalScope == additional {
			out = append(out, req)
		}
	}
	return out
}

// Percent returns round(100*done/total), half-up, or 0 for no tasks.
func Percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	// integer form of floor(100*done/total + 0.5)
	return (200*done + total) / (2 * total)
}

// CountDone reports how many tasks are Done.
func CountDone(tasks []store.Subtask) int {
	done := 0
	for _, t := range tasks {
		if t.Status == store.TaskDone {
			done++
		}
	}
	return done
}

// SubtaskProgress is the percentage of Done tasks, 0 when tasks is empty.
func SubtaskProgress(tasks []store.Subtask) int {
	return Percent(CountDone(tasks), len(tasks))
}

// SortSubtasks orders tasks by priority rank, keeping insertion order on ties.
func SortSubtasks(tasks []store.Subtask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Priority.Rank() < tasks[j].Priority.Rank()
	})
}

func sortRequirements(reqs []RequirementWithTasks) {
	sort.SliceStable(reqs, func(i, j int) bool {
		return reqs[i].Priority.Rank() < reqs[j].Priority.Rank()
	})
}

// SortProjects orders projects by priority rank, keeping insertion order on ties.
func SortProjects(projects []ProjectWithProgress) {
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].Priority.Rank() < projects[j].Priority.Rank()
	})
}

// ForRequirement attaches the subtasks of req found in allSubtasks.
func ForRequirement(req store.Requirement, allSubtasks []store.Subtask) RequirementWithTasks {
	tasks := make([]store.Subtask, 0)
	for _, t := range allSubtasks {
		if t.RequirementID == req.ID {
			tasks = append(tasks, t)
		}
	}
	SortSubtasks(tasks)
	return RequirementWithTasks{Requirement: req, Subtasks: tasks}
}

// ForProject attaches the project's requirements (each with subtasks) and
// computes progress over the flattened task list, so a requirement with more
// tasks weighs more.
func ForProject(project store.Project, requirements []store.Requirement, allSubtasks []store.Subtask) ProjectWithProgress {
	reqs := make([]RequirementWithTasks, 0)
	for _, req := range requirements {
		if req.ProjectID == project.ID {
			reqs = append(reqs, ForRequirement(req, allSubtasks))
		}
	}
	sortRequirements(reqs)

	out := ProjectWithProgress{Project: project, Requirements: reqs}
	out.Progress = SubtaskProgress(out.Tasks())
	return out
}

// Overall is the task-weighted progress across every given project.
func Overall(projects []ProjectWithProgress) (done, total, percent int) {
	for _, p := range projects {
		tasks := p.Tasks()
		done += CountDone(tasks)
		total += len(tasks)
	}
	return done, total, Percent(done, total)
}
