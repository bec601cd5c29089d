package api

import (
	"context"
	"errors"
	"sync"

	"taskboard/internal/activity"
	"taskboard/task-service/board"
	"taskboard/task-service/domain"
)

// fakeBoard records the last call and answers with canned values.
type fakeBoard struct {
	mu    sync.Mutex
	calls []string
	err   error

	userID     string
	id         string
	status     domain.Status
	index      int
	position   *int
	orderedIDs []string
	filter     domain.TaskFilter
	newTask    domain.NewTask
	newProject domain.NewProject
	taskChange board.TaskChange
	projChange board.ProjectChange
	itemChange board.ChecklistChange
	title      string
	date       string
	content    string

	task     domain.Task
	tasks    []domain.Task
	project  domain.ProjectSummary
	projects []domain.ProjectSummary
	item     domain.ChecklistItem
	view     board.View
	note     domain.DailyNote
}

func (f *fakeBoard) record(name, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	f.userID = userID
	f.id = id
	return f.err
}

func (f *fakeBoard) lastCall() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeBoard) ListProjects(ctx context.Context, ownerID string) ([]domain.ProjectSummary, error) {
	return f.projects, f.record("ListProjects", ownerID, "")
}

func (f *fakeBoard) GetProject(ctx context.Context, ownerID, projectID string) (domain.ProjectSummary, error) {
	return f.project, f.record("GetProject", ownerID, projectID)
}

func (f *fakeBoard) CreateProject(ctx context.Context, ownerID string, in domain.NewProject) (domain.Project, error) {
	f.newProject = in
	return f.project.Project, f.record("CreateProject", ownerID, "")
}

func (f *fakeBoard) UpdateProject(ctx context.Context, ownerID, projectID string, change board.ProjectChange) (domain.ProjectSummary, error) {
	f.projChange = change
	return f.project, f.record("UpdateProject", ownerID, projectID)
}

func (f *fakeBoard) DeleteProject(ctx context.Context, ownerID, projectID string) error {
	return f.record("DeleteProject", ownerID, projectID)
}

func (f *fakeBoard) ReindexProjects(ctx context.Context, ownerID string, orderedIDs []string) error {
	f.orderedIDs = orderedIDs
	return f.record("ReindexProjects", ownerID, "")
}

func (f *fakeBoard) ListTasks(ctx context.Context, ownerID, projectID string, filter domain.TaskFilter) ([]domain.Task, error) {
	f.filter = filter
	return f.tasks, f.record("ListTasks", ownerID, projectID)
}

func (f *fakeBoard) Board(ctx context.Context, ownerID, projectID string) (board.View, error) {
	return f.view, f.record("Board", ownerID, projectID)
}

func (f *fakeBoard) GetTask(ctx context.Context, ownerID, taskID string) (domain.Task, error) {
	return f.task, f.record("GetTask", ownerID, taskID)
}

func (f *fakeBoard) CreateTask(ctx context.Context, ownerID, projectID string, in domain.NewTask, position *int) (domain.Task, error) {
	f.newTask = in
	f.position = position
	return f.task, f.record("CreateTask", ownerID, projectID)
}

func (f *fakeBoard) UpdateTask(ctx context.Context, ownerID, taskID string, change board.TaskChange) (domain.Task, error) {
	f.taskChange = change
	return f.task, f.record("UpdateTask", ownerID, taskID)
}

func (f *fakeBoard) ChangeTaskStatus(ctx context.Context, ownerID, taskID string, status domain.Status) (domain.Task, error) {
	f.status = status
	return f.task, f.record("ChangeTaskStatus", ownerID, taskID)
}

func (f *fakeBoard) MoveTask(ctx context.Context, ownerID, taskID string, status domain.Status, index int) (domain.Task, error) {
	f.status = status
	f.index = index
	return f.task, f.record("MoveTask", ownerID, taskID)
}

func (f *fakeBoard) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	return f.record("DeleteTask", ownerID, taskID)
}

func (f *fakeBoard) CreateChecklistItem(ctx context.Context, ownerID, taskID, title string, position *int) (domain.ChecklistItem, error) {
	f.title = title
	f.position = position
	return f.item, f.record("CreateChecklistItem", ownerID, taskID)
}

func (f *fakeBoard) UpdateChecklistItem(ctx context.Context, ownerID, itemID string, change board.ChecklistChange) (domain.ChecklistItem, error) {
	f.itemChange = change
	return f.item, f.record("UpdateChecklistItem", ownerID, itemID)
}

func (f *fakeBoard) ToggleChecklistItem(ctx context.Context, ownerID, itemID string) (domain.ChecklistItem, error) {
	return f.item, f.record("ToggleChecklistItem", ownerID, itemID)
}

func (f *fakeBoard) DeleteChecklistItem(ctx context.Context, ownerID, itemID string) error {
	return f.record("DeleteChecklistItem", ownerID, itemID)
}

func (f *fakeBoard) ReindexChecklist(ctx context.Context, ownerID, taskID string, orderedIDs []string) error {
	f.orderedIDs = orderedIDs
	return f.record("ReindexChecklist", ownerID, taskID)
}

func (f *fakeBoard) DailyNote(ctx context.Context, ownerID, date string) (domain.DailyNote, error) {
	f.date = date
	return f.note, f.record("DailyNote", ownerID, "")
}

func (f *fakeBoard) SaveDailyNote(ctx context.Context, ownerID, date, content string) (domain.DailyNote, error) {
	f.date, f.content = date, content
	return f.note, f.record("SaveDailyNote", ownerID, "")
}

type fakeAuth struct{}

var errBadToken = errors.New("token expired")

func (fakeAuth) UserIDFromAuthHeader(h string) (string, error) {
	if h != "Bearer good" {
		return "", errBadToken
	}
	return "user-1", nil
}

type fakeActivity struct {
	items []activity.Item
	limit int
	err   error
}

func (f *fakeActivity) Recent(ctx context.Context, ownerID string, limit int) ([]activity.Item, error) {
	f.limit = limit
	return f.items, f.err
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }
