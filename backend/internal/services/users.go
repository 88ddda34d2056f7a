package services

import (
	"context"

	"taskboard/backend/internal/apperror"
	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/models"
	"taskboard/backend/internal/policy"
	"taskboard/backend/internal/repositories"

	"github.com/gofrs/uuid"
)

type UserService interface {
	ListMembers(ctx context.Context, caller auth.Identity) ([]MemberSummary, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type UserServiceImpl struct {
	users  repositories.UserRepository
	tasks  repositories.TaskRepository
	policy *policy.Policy
}

func NewUserService(users repositories.UserRepository, tasks repositories.TaskRepository, p *policy.Policy) *UserServiceImpl {
	return &UserServiceImpl{users: users, tasks: tasks, policy: p}
}

// ListMembers returns every non-admin user with their assignment counts.
func (s *UserServiceImpl) ListMembers(ctx context.Context, caller auth.Identity) ([]MemberSummary, error) {
	if decision := s.policy.Evaluate(caller, policy.ActionManageUsers, nil); !decision.Allowed {
		return nil, apperror.Forbidden(decision.Reason)
	}

	users, err := s.users.List(ctx, models.RoleUser)
	if err != nil {
		return nil, apperror.Internal("failed to list users", err)
	}

	members := make([]MemberSummary, 0, len(users))
	for _, user := range users {
		counts, err := s.statusCounts(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		members = append(members, MemberSummary{
			User:            user,
			PendingTasks:    counts[models.StatusPending],
			InProgressTasks: counts[models.StatusInProgress],
			CompletedTasks:  counts[models.StatusCompleted],
		})
	}
	return members, nil
}

func (s *UserServiceImpl) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "User not found", "failed to load user")
	}
	return user, nil
}

func (s *UserServiceImpl) statusCounts(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	counts, err := s.tasks.CountBy(ctx, repositories.GroupByStatus, repositories.TaskQuery{AssignedTo: &userID})
	if err != nil {
		return nil, apperror.Internal("failed to count user tasks", err)
	}
	return counts, nil
}
