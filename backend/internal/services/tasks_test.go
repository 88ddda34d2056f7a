package services

import (
	"context"
	"testing"

	"taskboard/backend/internal/apperror"
	"taskboard/backend/internal/config"
	"taskboard/backend/internal/models"
	"taskboard/backend/internal/repositories"

	"github.com/gofrs/uuid"
)

func abcd() models.Checklist {
	return models.Checklist{{Text: "A"}, {Text: "B"}, {Text: "C"}, {Text: "D"}}
}

func TestCreateTask_DerivesProgressAndDefaults(t *testing.T) {
	env := newTestEnv(t)
	svc := env.taskService()

	checklist := abcd()
	checklist[0].Completed = true

	view, err := svc.CreateTask(context.Background(), env.admin, TaskInput{
		Title:      "  Launch  ",
		Checklist:  checklist,
		AssignedTo: []uuid.UUID{env.alice.UserID, env.bob.UserID},
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if view.Title != "Launch" {
		t.Errorf("Expected trimmed title, got %q", view.Title)
	}
	if view.Priority != models.PriorityLow {
		t.Errorf("Expected default priority Low, got %s", view.Priority)
	}
	if view.Progress != 25 || view.Status != models.StatusInProgress {
		t.Errorf("Expected 25/In Progress, got %d/%s", view.Progress, view.Status)
	}
	if view.CreatedBy != env.admin.UserID {
		t.Errorf("Expected creator %s, got %s", env.admin.UserID, view.CreatedBy)
	}
	if len(view.AssignedTo) != 2 {
		t.Errorf("Expected 2 assignee summaries, got %d", len(view.AssignedTo))
	}
	if view.CompletedCount != 1 {
		t.Errorf("Expected completed count 1, got %d", view.CompletedCount)
	}
}

func TestCreateTask_StatusFollowsChecklist(t *testing.T) {
	env := newTestEnv(t)
	svc := env.taskService()

	done := abcd()
	for i := range done {
		done[i].Completed = true
	}

	tests := []struct {
		name      string
		checklist models.Checklist
		progress  int
		status    string
	}{
		{"no checklist", nil, 0, models.StatusPending},
		{"all open", abcd(), 0, models.StatusPending},
		{"all done", done, 100, models.StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := svc.CreateTask(context.Background(), env.admin, TaskInput{
				Title:      tt.name,
				Checklist:  tt.checklist,
				AssignedTo: []uuid.UUID{env.alice.UserID},
			})
			if err != nil {
				t.Fatalf("CreateTask failed: %v", err)
			}
			if view.Progress != tt.progress || view.Status != tt.status {
				t.Errorf("Expected %d/%s, got %d/%s", tt.progress, tt.status, view.Progress, view.Status)
			}
		})
	}
}

func TestCreateTask_Validation(t *testing.T) {
	env := newTestEnv(t)
	svc := env.taskService()
	ctx := context.Background()
	valid := []uuid.UUID{env.alice.UserID}

	tests := []struct {
		name  string
		input TaskInput
	}{
		{"missing title", TaskInput{AssignedTo: valid}},
		{"assignees not an array", TaskInput{Title: "t"}},
		{"empty assignees", TaskInput{Title: "t", AssignedTo: []uuid.UUID{}}},
		{"unknown assignee", TaskInput{Title: "t", AssignedTo: []uuid.UUID{uuid.Must(uuid.NewV4())}}},
		{"bad priority", TaskInput{Title: "t", Priority: "Urgent", AssignedTo: valid}},
		{"blank checklist item", TaskInput{Title: "t", AssignedTo: valid, Checklist: models.Checklist{{Text: " "}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTask(ctx, env.admin, tt.input)
			expectKind(t, err, apperror.KindValidation)
		})
	}

	if n, _ := env.tasks.Count(ctx, repositories.TaskQuery{}); n != 0 {
		t.Errorf("Expected no tasks to be stored, got %d", n)
	}
}

func TestListTasks_ScopesByRole(t *testing.T) {
	env := newTestEnv(t)
	svc := env.taskService()
	ctx := context.Background()

	env.seedTask(t, "alice only", models.StatusPending, models.PriorityLow, nil, env.alice.UserID)
	env.seedTask(t, "bob only", models.StatusCompleted, models.PriorityLow, nil, env.bob.UserID)
	env.seedTask(t, "shared", models.StatusInProgress, models.PriorityHigh, nil, env.alice.UserID, env.bob.UserID)

	aliceList, err := svc.ListTasks(ctx, env.alice, "")
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(aliceList.Tasks) != 2 {
		t.Errorf("Expected 2 tasks for alice, got %d", len(aliceList.Tasks))
	}
	for _, task := range aliceList.Tasks {
		if !task.IsAssignedTo(env.alice.UserID) {
			t.Errorf("Alice received unassigned task %s", task.Title)
		}
	}
	if s := aliceList.StatusSummary; s.All != 2 || s.Pending != 1 || s.InProgress != 1 || s.Completed != 0 {
		t.Errorf("Unexpected alice summary: %+v", s)
	}

	adminList, err := svc.ListTasks(ctx, env.admin, "")
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(adminList.Tasks) != 3 || adminList.StatusSummary.All != 3 {
		t.Errorf("Expected admin to see 3 tasks, got %d (all=%d)", len(adminList.Tasks), adminList.StatusSummary.All)
	}
}

func TestListTasks_StatusFilter(t *testing.T) {
	env := newTestEnv(t)
	svc := env.taskService()
	ctx := context.Background()

	env.seedTask(t, "p1", models.StatusPending, models.PriorityLow, nil, env.alice.UserID)
	env.seedTask(t, "p2", models.StatusPending, models.PriorityLow, nil, env.bob.UserID)
	env.seedTask(t, "c1", models.StatusCompleted, models.PriorityLow, nil, env.alice.UserID)

	list, err := svc.ListTasks(ctx, env.admin, models.StatusPending)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(list.Tasks) != 2 {
		t.Errorf("Expected 2 pending tasks, got %d", len(list.Tasks))
	}
	s := list.StatusSummary
	if s.All != 3 || s.Pending != 2 || s.Completed != 0 {
		t.Errorf("Expected all=3 pending=2 completed=0 under filter, got %+v", s)
	}

	_, err = svc.ListTasks(ctx, env.admin, "Done")
	expectKind(t, err, apperror.KindValidation)
}

func TestGetTask_NotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.taskService().GetTask(context.Background(), env.alice, uuid.Must(uuid.NewV4()))
	expectKind(t, err, apperror.KindNotFound)
}

func TestUpdateTask_OptionalFields(t *testing.T) {
	env := newTestEnv(t)
	svc := env.taskService()
	ctx := context.Background()

	created, err := svc.CreateTask(ctx, env.admin, TaskInput{
		Title:       "Original",
		Description: "keep me",
		Priority:    models.PriorityMedium,
		AssignedTo:  []uuid.UUID{env.alice.UserID},
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	title := "Renamed"
	checklist := models.Checklist{{Text: "x", Completed: true}, {Text: "y"}}
	assignees := []uuid.UUID{env.bob.UserID}
	updated, err := svc.UpdateTask(ctx, env.alice, created.ID, TaskUpdate{
		Title:      &title,
		Checklist:  &checklist,
		AssignedTo: &assignees,
	})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}

	if updated.Title != "Renamed" || updated.Description != "keep me" || updated.Priority != models.PriorityMedium {
		t.Errorf("Expected only title to change, got %+v", updated.Task)
	}
	if updated.Progress != 50 {
		t.Errorf("Expected progress 50, got %d", updated.Progress)
	}
	if updated.Status != models.StatusInProgress {
		t.Errorf("Expected status re-derived from checklist, got %s", updated.Status)
	}
	if updated.IsAssignedTo(env.alice.UserID) || !updated.IsAssignedTo(env.bob.UserID) {
		t.Errorf("Expected assignees replaced wholesale, got %v", updated.AssigneeIDs())
	}

	empty := []uuid.UUID{}
	_, err = svc.UpdateTask(ctx, env.admin, created.ID, TaskUpdate{AssignedTo: &empty})
	expectKind(t, err, apperror.KindValidation)

	_, err = svc.UpdateTask(ctx, env.admin, uuid.Must(uuid.NewV4()), TaskUpdate{Title: &title})
	expectKind(t, err, apperror.KindNotFound)
}

func TestUpdateAndDelete_RestrictedEdits(t *testing.T) {
	env := newTestEnvWithPolicy(t, config.PolicyConfig{RestrictTaskEdits: true, RestrictTaskReads: true})
	svc := env.taskService()
	ctx := context.Background()

	task := env.seedTask(t, "locked", models.StatusPending, models.PriorityLow, nil, env.alice.UserID)

	title := "hijack"
	_, err := svc.UpdateTask(ctx, env.alice, task.ID, TaskUpdate{Title: &title})
	expectKind(t, err, apperror.KindForbidden)

	_, err = svc.GetTask(ctx, env.bob, task.ID)
	expectKind(t, err, apperror.KindForbidden)

	if _, err := svc.GetTask(ctx, env.alice, task.ID); err != nil {
		t.Errorf("Expected assignee to read task, got %v", err)
	}

	expectKind(t, svc.DeleteTask(ctx, env.bob, task.ID), apperror.KindForbidden)
	if err := svc.DeleteTask(ctx, env.admin, task.ID); err != nil {
		t.Errorf("Expected admin delete to succeed, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	env := newTestEnv(t)
	svc := env.taskService()
	ctx := context.Background()

	task := env.seedTask(t, "bye", models.StatusPending, models.PriorityLow, nil, env.alice.UserID)

	if err := svc.DeleteTask(ctx, env.alice, task.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	_, err := svc.GetTask(ctx, env.admin, task.ID)
	expectKind(t, err, apperror.KindNotFound)

	expectKind(t, svc.DeleteTask(ctx, env.admin, task.ID), apperror.KindNotFound)
}

func TestUpdateStatus_Authorization(t *testing.T) {
	env := newTestEnv(t)
	svc := env.taskService()
	ctx := context.Background()

	task := env.seedTask(t, "guarded", models.StatusPending, models.PriorityLow, nil, env.alice.UserID)

	_, err := svc.UpdateStatus(ctx, env.bob, task.ID, models.StatusInProgress)
	expectKind(t, err, apperror.KindForbidden)

	if _, err := svc.UpdateStatus(ctx, env.alice, task.ID, models.StatusInProgress); err != nil {
		t.Errorf("Expected assignee to update status, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, env.admin, task.ID, models.StatusPending); err != nil {
		t.Errorf("Expected admin to update status, got %v", err)
	}

	_, err = svc.UpdateStatus(ctx, env.alice, task.ID, "Blocked")
	expectKind(t, err, apperror.KindValidation)

	_, err = svc.UpdateStatus(ctx, env.alice, uuid.Must(uuid.NewV4()), models.StatusPending)
	expectKind(t, err, apperror.KindNotFound)
}

func TestUpdateStatus_CompletedForcesChecklist(t *testing.T) {
	env := newTestEnv(t)
	svc := env.taskService()
	ctx := context.Background()

	created, err := svc.CreateTask(ctx, env.admin, TaskInput{
		Title:      "finish",
		Checklist:  abcd(),
		AssignedTo: []uuid.UUID{env.alice.UserID},
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	view, err := svc.UpdateStatus(ctx, env.alice, created.ID, models.StatusCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if view.Status != models.StatusCompleted || view.Progress != 100 {
		t.Errorf("Expected Completed/100, got %s/%d", view.Status, view.Progress)
	}
	for i, item := range view.Checklist {
		if !item.Completed {
			t.Errorf("Expected checklist item %d completed", i)
		}
	}
	if view.CompletedCount != 4 {
		t.Errorf("Expected completed count 4, got %d", view.CompletedCount)
	}
}

func TestUpdateChecklist_Scenario(t *testing.T) {
	env := newTestEnv(t)
	svc := env.taskService()
	ctx := context.Background()

	created, err := svc.CreateTask(ctx, env.admin, TaskInput{
		Title:      "abcd",
		Checklist:  abcd(),
		AssignedTo: []uuid.UUID{env.alice.UserID},
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if created.Progress != 0 || created.Status != models.StatusPending {
		t.Fatalf("Expected 0/Pending at creation, got %d/%s", created.Progress, created.Status)
	}

	items := abcd()
	items[0].Completed = true
	view, err := svc.UpdateChecklist(ctx, env.alice, created.ID, items)
	if err != nil {
		t.Fatalf("UpdateChecklist failed: %v", err)
	}
	if view.Progress != 25 || view.Status != models.StatusInProgress {
		t.Errorf("Expected 25/In Progress, got %d/%s", view.Progress, view.Status)
	}

	view, err = svc.UpdateChecklist(ctx, env.alice, created.ID, items.CompleteAll())
	if err != nil {
		t.Fatalf("UpdateChecklist failed: %v", err)
	}
	if view.Progress != 100 || view.Status != models.StatusCompleted {
		t.Errorf("Expected 100/Completed, got %d/%s", view.Progress, view.Status)
	}

	view, err = svc.UpdateChecklist(ctx, env.admin, created.ID, models.Checklist{})
	if err != nil {
		t.Fatalf("UpdateChecklist failed: %v", err)
	}
	if view.Progress != 0 || view.Status != models.StatusPending {
		t.Errorf("Expected 0/Pending for empty checklist, got %d/%s", view.Progress, view.Status)
	}

	_, err = svc.UpdateChecklist(ctx, env.bob, created.ID, items)
	expectKind(t, err, apperror.KindForbidden)
}

func TestUpdateChecklist_RoundsProgress(t *testing.T) {
	env := newTestEnv(t)
	svc := env.taskService()
	ctx := context.Background()

	created, err := svc.CreateTask(ctx, env.admin, TaskInput{
		Title:      "thirds",
		AssignedTo: []uuid.UUID{env.alice.UserID},
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	tests := []struct {
		completed int
		expected  int
	}{
		{1, 33},
		{2, 67},
		{3, 100},
	}
	for _, tt := range tests {
		items := models.Checklist{{Text: "a"}, {Text: "b"}, {Text: "c"}}
		for i := 0; i < tt.completed; i++ {
			items[i].Completed = true
		}
		view, err := svc.UpdateChecklist(ctx, env.alice, created.ID, items)
		if err != nil {
			t.Fatalf("UpdateChecklist failed: %v", err)
		}
		if view.Progress != tt.expected {
			t.Errorf("Expected progress %d for %d/3, got %d", tt.expected, tt.completed, view.Progress)
		}
		if view.Status != models.StatusForProgress(tt.expected) {
			t.Errorf("Expected status %s, got %s", models.StatusForProgress(tt.expected), view.Status)
		}
	}
}

func TestUpdateTask_ChecklistKeepsStatusInStep(t *testing.T) {
	env := newTestEnv(t)
	svc := env.taskService()
	ctx := context.Background()

	created, err := svc.CreateTask(ctx, env.admin, TaskInput{
		Title:      "Checklist via update",
		AssignedTo: []uuid.UUID{env.alice.UserID},
		Checklist:  abcd(),
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	checklists := []models.Checklist{
		abcd().CompleteAll(),
		{{Text: "A", Completed: true}, {Text: "B"}, {Text: "C"}},
		{},
	}
	expected := []string{models.StatusCompleted, models.StatusInProgress, models.StatusPending}

	for i, items := range checklists {
		items := items
		view, err := svc.UpdateTask(ctx, env.alice, created.ID, TaskUpdate{Checklist: &items})
		if err != nil {
			t.Fatalf("UpdateTask failed: %v", err)
		}
		if view.Status != expected[i] {
			t.Errorf("Expected status %s, got %s", expected[i], view.Status)
		}
		if models.StatusForProgress(view.Progress) != view.Status {
			t.Errorf("Expected status to follow progress %d, got %s", view.Progress, view.Status)
		}
	}
}
