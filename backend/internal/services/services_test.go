package services

import (
	"context"
	"testing"
	"time"

	"taskboard/backend/internal/apperror"
	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/config"
	"taskboard/backend/internal/models"
	"taskboard/backend/internal/policy"
	"taskboard/backend/internal/repositories"
	"taskboard/backend/internal/testutil"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type testEnv struct {
	db     *gorm.DB
	users  *repositories.GormUserRepository
	tasks  *repositories.GormTaskRepository
	policy *policy.Policy

	admin auth.Identity
	alice auth.Identity
	bob   auth.Identity
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithPolicy(t, config.PolicyConfig{AdminOnlyDashboard: true})
}

func newTestEnvWithPolicy(t *testing.T, cfg config.PolicyConfig) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	admin := testutil.CreateUser(t, db, "Admin", models.RoleAdmin)
	alice := testutil.CreateUser(t, db, "Alice", models.RoleUser)
	bob := testutil.CreateUser(t, db, "Bob", models.RoleUser)

	return &testEnv{
		db:     db,
		users:  repositories.NewGormUserRepository(db),
		tasks:  repositories.NewGormTaskRepository(db),
		policy: policy.New(cfg),
		admin:  auth.Identity{UserID: admin.ID, Role: models.RoleAdmin},
		alice:  auth.Identity{UserID: alice.ID, Role: models.RoleUser},
		bob:    auth.Identity{UserID: bob.ID, Role: models.RoleUser},
	}
}

func (e *testEnv) taskService() *TaskServiceImpl {
	return NewTaskService(e.tasks, e.users, e.policy)
}

// seedTask stores a task directly, bypassing derivation, so tests can set
// up arbitrary status and due date combinations.
func (e *testEnv) seedTask(t *testing.T, title, status, priority string, due *time.Time, assignees ...uuid.UUID) *models.Task {
	t.Helper()

	task := &models.Task{
		ID:        uuid.Must(uuid.NewV4()),
		Title:     title,
		Status:    status,
		Priority:  priority,
		DueDate:   due,
		CreatedBy: e.admin.UserID,
		Checklist: models.Checklist{},
	}
	if status == models.StatusCompleted {
		task.Progress = 100
	}
	task.SetAssignees(assignees)
	if err := e.tasks.Create(context.Background(), task); err != nil {
		t.Fatalf("Failed to seed task %s: %v", title, err)
	}
	return task
}

func expectKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected %s error, got nil", kind)
	}
	if got := apperror.KindOf(err); got != kind {
		t.Fatalf("Expected %s error, got %s (%v)", kind, got, err)
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
