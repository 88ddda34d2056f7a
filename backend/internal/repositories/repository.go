package repositories

import (
	"context"
	"errors"
	"time"

	"taskboard/backend/internal/models"

	"github.com/gofrs/uuid"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// TaskQuery narrows task reads. Zero fields do not filter.
type TaskQuery struct {
	Status     string
	AssignedTo *uuid.UUID
	// OverdueAt selects tasks that are not completed and were due before it.
	OverdueAt *time.Time
	Limit     int
}

type GroupField string

const (
	GroupByStatus   GroupField = "status"
	GroupByPriority GroupField = "priority"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
	// List returns users with the given role, or every user when role is empty.
	List(ctx context.Context, role string) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// TaskRepository persists tasks together with their assignee links.
// Tasks it returns carry their assignees with the user records loaded.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	// Find returns matching tasks, newest first.
	Find(ctx context.Context, q TaskQuery) ([]models.Task, error)
	Count(ctx context.Context, q TaskQuery) (int64, error)
	CountBy(ctx context.Context, field GroupField, q TaskQuery) (map[string]int64, error)
	// Save replaces the stored task, including its assignee set.
	Save(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	Ping(ctx context.Context) error
}
