package domain

import "fmt"

// Kind identifies the type of an orderable item.
type Kind string

const (
	KindTask      Kind = "task"
	KindChecklist Kind = "checklist"
	KindProject   Kind = "project"
)

// Container is the scope inside which item positions are dense and unique.
//
// Parent is the project id for tasks, the task id for checklist items and the
// owner id for projects. Status is only set for tasks.
type Container struct {
	Kind   Kind   `json:"kind"`
	Parent string `json:"parent"`
	Status Status `json:"status,omitempty"`
}

// TaskColumn returns the container of tasks in one status column of a project.
func TaskColumn(projectID string, status Status) Container {
	return Container{Kind: KindTask, Parent: projectID, Status: status}
}

// ChecklistOf returns the container of checklist items of a task.
func ChecklistOf(taskID string) Container {
	return Container{Kind: KindChecklist, Parent: taskID}
}

// ProjectList returns the container of an owner's projects.
func ProjectList(ownerID string) Container {
	return Container{Kind: KindProject, Parent: ownerID}
}

// Scope drops the status so every column of a project maps to one value.
// Writers of one scope are serialized by the store.
func (c Container) Scope() Container {
	c.Status = ""
	return c
}

func (c Container) String() string {
	if c.Status != "" {
		return fmt.Sprintf("%s:%s:%s", c.Kind, c.Parent, c.Status)
	}
	return fmt.Sprintf("%s:%s", c.Kind, c.Parent)
}

// Placement is the container and position an item currently occupies.
type Placement struct {
	Container Container
	Position  int
}

// MoveRequest relocates ItemID to Index inside Destination.
type MoveRequest struct {
	ItemID      string
	Destination Container
	Index       int
}
