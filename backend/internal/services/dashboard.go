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

const recentTaskLimit = 10

// DashboardScope selects every task (UserID nil) or one user's assignments.
type DashboardScope struct {
	UserID *uuid.UUID
}

func GlobalScope() DashboardScope {
	return DashboardScope{}
}

func UserScope(id uuid.UUID) DashboardScope {
	return DashboardScope{UserID: &id}
}

func (s DashboardScope) CacheKey() string {
	if s.UserID == nil {
		return "dashboard:global"
	}
	return "dashboard:user:" + s.UserID.String()
}

type DashboardService interface {
	GlobalDashboard(ctx context.Context, caller auth.Identity) (*Dashboard, error)
	UserDashboard(ctx context.Context, caller auth.Identity) (*Dashboard, error)
	// Summary aggregates a scope without any access check.
	Summary(ctx context.Context, scope DashboardScope) (*Dashboard, error)
}

type DashboardServiceImpl struct {
	tasks  repositories.TaskRepository
	policy *policy.Policy
	now    func() time.Time
}

func NewDashboardService(tasks repositories.TaskRepository, p *policy.Policy) *DashboardServiceImpl {
	return &DashboardServiceImpl{tasks: tasks, policy: p, now: time.Now}
}

func (s *DashboardServiceImpl) GlobalDashboard(ctx context.Context, caller auth.Identity) (*Dashboard, error) {
	if err := authorizeGlobalDashboard(s.policy, caller); err != nil {
		return nil, err
	}
	return s.Summary(ctx, GlobalScope())
}

func (s *DashboardServiceImpl) UserDashboard(ctx context.Context, caller auth.Identity) (*Dashboard, error) {
	return s.Summary(ctx, UserScope(caller.UserID))
}

func (s *DashboardServiceImpl) Summary(ctx context.Context, scope DashboardScope) (*Dashboard, error) {
	q := repositories.TaskQuery{AssignedTo: scope.UserID}

	total, err := s.tasks.Count(ctx, q)
	if err != nil {
		return nil, apperror.Internal("failed to count tasks", err)
	}

	now := s.now().UTC()
	overdueQuery := q
	overdueQuery.OverdueAt = &now
	overdue, err := s.tasks.Count(ctx, overdueQuery)
	if err != nil {
		return nil, apperror.Internal("failed to count overdue tasks", err)
	}

	byStatus, err := s.tasks.CountBy(ctx, repositories.GroupByStatus, q)
	if err != nil {
		return nil, apperror.Internal("failed to group tasks by status", err)
	}
	byPriority, err := s.tasks.CountBy(ctx, repositories.GroupByPriority, q)
	if err != nil {
		return nil, apperror.Internal("failed to group tasks by priority", err)
	}

	recentQuery := q
	recentQuery.Limit = recentTaskLimit
	recent, err := s.tasks.Find(ctx, recentQuery)
	if err != nil {
		return nil, apperror.Internal("failed to load recent tasks", err)
	}

	distribution := make(map[string]int64, len(models.TaskStatuses)+1)
	for _, status := range models.TaskStatuses {
		distribution[strings.ReplaceAll(status, " ", "")] = byStatus[status]
	}
	distribution["All"] = total

	priorities := make(map[string]int64, len(models.TaskPriorities))
	for _, priority := range models.TaskPriorities {
		priorities[priority] = byPriority[priority]
	}

	dashboard := &Dashboard{
		Statistics: DashboardStatistics{
			TotalTasks:      total,
			PendingTasks:    byStatus[models.StatusPending],
			InProgressTasks: byStatus[models.StatusInProgress],
			CompletedTasks:  byStatus[models.StatusCompleted],
			OverdueTasks:    overdue,
		},
		Charts: DashboardCharts{
			TaskDistribution:  distribution,
			TaskPriorityLevel: priorities,
		},
		RecentTasks: make([]RecentTask, 0, len(recent)),
	}
	for _, task := range recent {
		dashboard.RecentTasks = append(dashboard.RecentTasks, RecentTask{
			ID:        task.ID,
			Title:     task.Title,
			Status:    task.Status,
			Priority:  task.Priority,
			DueDate:   task.DueDate,
			CreatedAt: task.CreatedAt,
		})
	}
	return dashboard, nil
}

func authorizeGlobalDashboard(p *policy.Policy, caller auth.Identity) error {
	if decision := p.Evaluate(caller, policy.ActionViewGlobalDashboard, nil); !decision.Allowed {
		return apperror.Forbidden(decision.Reason)
	}
	return nil
}
