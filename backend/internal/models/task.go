package models

import (
	"time"

	"github.com/gofrs/uuid"
)

const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"

	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// TaskStatuses lists the canonical statuses in dashboard order.
var TaskStatuses = []string{StatusPending, StatusInProgress, StatusCompleted}

// TaskPriorities lists the canonical priorities in dashboard order.
var TaskPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

type Task struct {
	ID          uuid.UUID      `json:"id" gorm:"primaryKey;type:uuid"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description"`
	Priority    string         `json:"priority" gorm:"not null;default:'Low'"`
	DueDate     *time.Time     `json:"dueDate"`
	Status      string         `json:"status" gorm:"not null;default:'Pending';index"`
	Progress    int            `json:"progress" gorm:"not null"`
	Checklist   Checklist      `json:"todoChecklist" gorm:"column:todo_checklist;type:jsonb"`
	Attachments StringList     `json:"attachments" gorm:"type:jsonb"`
	CreatedBy   uuid.UUID      `json:"createdBy" gorm:"type:uuid;not null"`
	Assignees   []TaskAssignee `json:"-" gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time      `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// TaskAssignee links a task to one of the users it is assigned to.
type TaskAssignee struct {
	TaskID uuid.UUID `json:"taskId" gorm:"primaryKey;type:uuid"`
	UserID uuid.UUID `json:"userId" gorm:"primaryKey;type:uuid;index"`
	User   User      `json:"-" gorm:"foreignKey:UserID"`
}

func (t *Task) AssigneeIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.Assignees))
	for _, a := range t.Assignees {
		ids = append(ids, a.UserID)
	}
	return ids
}

func (t *Task) IsAssignedTo(userID uuid.UUID) bool {
	for _, a := range t.Assignees {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

// SetAssignees replaces the assignee set wholesale. Duplicate ids collapse
// into one link.
func (t *Task) SetAssignees(ids []uuid.UUID) {
	seen := make(map[uuid.UUID]bool, len(ids))
	t.Assignees = make([]TaskAssignee, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		t.Assignees = append(t.Assignees, TaskAssignee{TaskID: t.ID, UserID: id})
	}
}

// ApplyChecklist replaces the checklist and re-derives progress and status.
func (t *Task) ApplyChecklist(items Checklist) {
	t.Checklist = items
	t.Progress = items.Progress()
	t.Status = StatusForProgress(t.Progress)
}

// ApplyStatus is a direct status override. Completing a task completes every
// checklist item; progress is kept in step with the checklist.
func (t *Task) ApplyStatus(status string) {
	t.Status = status
	if status == StatusCompleted {
		t.Checklist = t.Checklist.CompleteAll()
		t.Progress = 100
		return
	}
	t.Progress = t.Checklist.Progress()
}

// StatusForProgress maps a progress percentage onto the lifecycle stage.
func StatusForProgress(progress int) string {
	switch {
	case progress >= 100:
		return StatusCompleted
	case progress > 0:
		return StatusInProgress
	default:
		return StatusPending
	}
}

func IsValidStatus(s string) bool {
	for _, v := range TaskStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func IsValidPriority(p string) bool {
	for _, v := range TaskPriorities {
		if v == p {
			return true
		}
	}
	return false
}
