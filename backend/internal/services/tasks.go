package services

import (
	"context"
	"strings"
	"time"

	"taskboard/backend/internal/apperror"
	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/models"
	"taskboard/backend/internal/policy"
	"taskboard/backend/internal/repositories"

	"github.com/gofrs/uuid"
)

type TaskInput struct {
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
	Checklist   models.Checklist
	Attachments []string
	// AssignedTo is nil when the client did not send an array.
	AssignedTo []uuid.UUID
}

// TaskUpdate applies only the non-nil fields.
type TaskUpdate struct {
	Title       *string
	Description *string
	Priority    *string
	DueDate     *time.Time
	Checklist   *models.Checklist
	Attachments *[]string
	AssignedTo  *[]uuid.UUID
}

type TaskService interface {
	CreateTask(ctx context.Context, caller auth.Identity, input TaskInput) (*TaskView, error)
	ListTasks(ctx context.Context, caller auth.Identity, status string) (*TaskList, error)
	GetTask(ctx context.Context, caller auth.Identity, id uuid.UUID) (*TaskView, error)
	UpdateTask(ctx context.Context, caller auth.Identity, id uuid.UUID, update TaskUpdate) (*TaskView, error)
	DeleteTask(ctx context.Context, caller auth.Identity, id uuid.UUID) error
	UpdateStatus(ctx context.Context, caller auth.Identity, id uuid.UUID, status string) (*TaskView, error)
	UpdateChecklist(ctx context.Context, caller auth.Identity, id uuid.UUID, checklist models.Checklist) (*TaskView, error)
}

type TaskServiceImpl struct {
	tasks  repositories.TaskRepository
	users  repositories.UserRepository
	policy *policy.Policy
}

func NewTaskService(tasks repositories.TaskRepository, users repositories.UserRepository, p *policy.Policy) *TaskServiceImpl {
	return &TaskServiceImpl{tasks: tasks, users: users, policy: p}
}

func (s *TaskServiceImpl) CreateTask(ctx context.Context, caller auth.Identity, input TaskInput) (*TaskView, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperror.Validation("title is required")
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityLow
	}
	if !models.IsValidPriority(priority) {
		return nil, apperror.Validation("priority must be one of Low, Medium, High")
	}

	if err := validateChecklist(input.Checklist); err != nil {
		return nil, err
	}
	if err := s.validateAssignees(ctx, input.AssignedTo); err != nil {
		return nil, err
	}

	task := &models.Task{
		ID:          uuid.Must(uuid.NewV4()),
		Title:       title,
		Description: input.Description,
		Priority:    priority,
		DueDate:     utcTime(input.DueDate),
		Attachments: models.StringList(input.Attachments),
		CreatedBy:   caller.UserID,
	}
	task.SetAssignees(input.AssignedTo)
	task.ApplyChecklist(input.Checklist)

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, apperror.Internal("failed to create task", err)
	}

	return s.reload(ctx, task.ID)
}

// ListTasks scopes the listing by role. The per-status counts honor the
// status filter; the total only honors the scope.
func (s *TaskServiceImpl) ListTasks(ctx context.Context, caller auth.Identity, status string) (*TaskList, error) {
	if status != "" && !models.IsValidStatus(status) {
		return nil, apperror.Validation("status must be one of Pending, In Progress, Completed")
	}

	scope := repositories.TaskQuery{AssignedTo: s.policy.ListScope(caller)}
	filtered := scope
	filtered.Status = status

	tasks, err := s.tasks.Find(ctx, filtered)
	if err != nil {
		return nil, apperror.Internal("failed to list tasks", err)
	}

	all, err := s.tasks.Count(ctx, scope)
	if err != nil {
		return nil, apperror.Internal("failed to count tasks", err)
	}
	byStatus, err := s.tasks.CountBy(ctx, repositories.GroupByStatus, filtered)
	if err != nil {
		return nil, apperror.Internal("failed to count tasks", err)
	}

	list := &TaskList{
		Tasks: make([]TaskView, 0, len(tasks)),
		StatusSummary: StatusSummary{
			All:        all,
			Pending:    byStatus[models.StatusPending],
			InProgress: byStatus[models.StatusInProgress],
			Completed:  byStatus[models.StatusCompleted],
		},
	}
	for _, task := range tasks {
		list.Tasks = append(list.Tasks, newTaskView(task))
	}
	return list, nil
}

func (s *TaskServiceImpl) GetTask(ctx context.Context, caller auth.Identity, id uuid.UUID) (*TaskView, error) {
	task, err := s.authorize(ctx, caller, policy.ActionView, id)
	if err != nil {
		return nil, err
	}
	view := newTaskView(*task)
	return &view, nil
}

func (s *TaskServiceImpl) UpdateTask(ctx context.Context, caller auth.Identity, id uuid.UUID, update TaskUpdate) (*TaskView, error) {
	task, err := s.authorize(ctx, caller, policy.ActionUpdate, id)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, apperror.Validation("title cannot be empty")
		}
		task.Title = title
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.Priority != nil {
		if !models.IsValidPriority(*update.Priority) {
			return nil, apperror.Validation("priority must be one of Low, Medium, High")
		}
		task.Priority = *update.Priority
	}
	if update.DueDate != nil {
		task.DueDate = utcTime(update.DueDate)
	}
	if update.Checklist != nil {
		if err := validateChecklist(*update.Checklist); err != nil {
			return nil, err
		}
		task.ApplyChecklist(*update.Checklist)
	}
	if update.Attachments != nil {
		task.Attachments = models.StringList(*update.Attachments)
	}
	if update.AssignedTo != nil {
		if err := s.validateAssignees(ctx, *update.AssignedTo); err != nil {
			return nil, err
		}
		task.SetAssignees(*update.AssignedTo)
	}

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, storeError(err, "Task not found", "failed to update task")
	}
	return s.reload(ctx, id)
}

func (s *TaskServiceImpl) DeleteTask(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	if _, err := s.authorize(ctx, caller, policy.ActionDelete, id); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return storeError(err, "Task not found", "failed to delete task")
	}
	return nil
}

func (s *TaskServiceImpl) UpdateStatus(ctx context.Context, caller auth.Identity, id uuid.UUID, status string) (*TaskView, error) {
	task, err := s.authorize(ctx, caller, policy.ActionUpdateStatus, id)
	if err != nil {
		return nil, err
	}
	if !models.IsValidStatus(status) {
		return nil, apperror.Validation("status must be one of Pending, In Progress, Completed")
	}

	task.ApplyStatus(status)

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, storeError(err, "Task not found", "failed to update task status")
	}
	return s.reload(ctx, id)
}

// UpdateChecklist replaces the checklist and re-derives progress and status.
// The read-modify-write is not atomic against concurrent writers.
func (s *TaskServiceImpl) UpdateChecklist(ctx context.Context, caller auth.Identity, id uuid.UUID, checklist models.Checklist) (*TaskView, error) {
	task, err := s.authorize(ctx, caller, policy.ActionUpdateChecklist, id)
	if err != nil {
		return nil, err
	}
	if err := validateChecklist(checklist); err != nil {
		return nil, err
	}

	task.ApplyChecklist(checklist)

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, storeError(err, "Task not found", "failed to update checklist")
	}
	return s.reload(ctx, id)
}

// authorize loads the task and asks the policy whether caller may act on it.
func (s *TaskServiceImpl) authorize(ctx context.Context, caller auth.Identity, action policy.Action, id uuid.UUID) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Task not found", "failed to load task")
	}
	if decision := s.policy.Evaluate(caller, action, task); !decision.Allowed {
		return nil, apperror.Forbidden(decision.Reason)
	}
	return task, nil
}

func (s *TaskServiceImpl) reload(ctx context.Context, id uuid.UUID) (*TaskView, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Task not found", "failed to load task")
	}
	view := newTaskView(*task)
	return &view, nil
}

func (s *TaskServiceImpl) validateAssignees(ctx context.Context, ids []uuid.UUID) error {
	if ids == nil {
		return apperror.Validation("assignedTo must be an array of user IDs")
	}
	if len(ids) == 0 {
		return apperror.Validation("assignedTo must contain at least one user")
	}

	distinct := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		distinct[id] = true
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return apperror.Internal("failed to load assignees", err)
	}
	if len(users) != len(distinct) {
		return apperror.Validation("assignedTo references unknown users")
	}
	return nil
}

func validateChecklist(items models.Checklist) error {
	for _, item := range items {
		if strings.TrimSpace(item.Text) == "" {
			return apperror.Validation("checklist items need text")
		}
	}
	return nil
}

func utcTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
