package repositories

import (
	"context"
	"errors"
	"testing"

	"taskboard/backend/internal/models"
	"taskboard/backend/internal/testutil"

	"github.com/gofrs/uuid"
)

func TestGormUserRepository_CreateAndFind(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	user := &models.User{Name: "Ada", Email: "ada@example.com", Password: "hash", Role: models.RoleUser}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if user.ID == uuid.Nil {
		t.Fatal("Expected Create to assign an id")
	}

	byID, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if byID.Email != "ada@example.com" {
		t.Errorf("Expected email ada@example.com, got %s", byID.Email)
	}

	byEmail, err := repo.FindByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("Expected id %s, got %s", user.ID, byEmail.ID)
	}
}

func TestGormUserRepository_NotFound(t *testing.T) {
	repo := NewGormUserRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	if _, err := repo.FindByID(ctx, uuid.Must(uuid.NewV4())); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := repo.FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	ghost := &models.User{ID: uuid.Must(uuid.NewV4()), Name: "Ghost"}
	if err := repo.Update(ctx, ghost); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound updating missing user, got %v", err)
	}
}

func TestGormUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewGormUserRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	first := &models.User{Name: "A", Email: "same@example.com", Password: "x", Role: models.RoleUser}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	second := &models.User{Name: "B", Email: "same@example.com", Password: "y", Role: models.RoleUser}
	if err := repo.Create(ctx, second); !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("Expected ErrDuplicateEmail, got %v", err)
	}

	other := &models.User{Name: "C", Email: "other@example.com", Password: "z", Role: models.RoleUser}
	if err := repo.Create(ctx, other); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	other.Email = "same@example.com"
	if err := repo.Update(ctx, other); !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("Expected ErrDuplicateEmail on update, got %v", err)
	}
}

func TestGormUserRepository_UpdateKeepsRole(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "Grace", models.RoleAdmin)
	user.Name = "Grace Hopper"
	user.Role = models.RoleUser
	if err := repo.Update(ctx, user); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	stored, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if stored.Name != "Grace Hopper" {
		t.Errorf("Expected updated name, got %s", stored.Name)
	}
	if stored.Role != models.RoleAdmin {
		t.Errorf("Expected role to stay admin, got %s", stored.Role)
	}
}

func TestGormUserRepository_ListAndFindByIDs(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	admin := testutil.CreateUser(t, db, "Admin", models.RoleAdmin)
	testutil.CreateUser(t, db, "One", models.RoleUser)
	u2 := testutil.CreateUser(t, db, "Two", models.RoleUser)

	members, err := repo.List(ctx, models.RoleUser)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("Expected 2 members, got %d", len(members))
	}

	everyone, err := repo.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(everyone) != 3 {
		t.Errorf("Expected 3 users, got %d", len(everyone))
	}

	found, err := repo.FindByIDs(ctx, []uuid.UUID{admin.ID, u2.ID, uuid.Must(uuid.NewV4())})
	if err != nil {
		t.Fatalf("FindByIDs failed: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("Expected 2 users, got %d", len(found))
	}

	none, err := repo.FindByIDs(ctx, nil)
	if err != nil || len(none) != 0 {
		t.Errorf("Expected no users for empty ids, got %d (%v)", len(none), err)
	}
}
