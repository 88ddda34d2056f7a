package services

import (
	"time"

	"taskboard/backend/internal/models"

	"github.com/gofrs/uuid"
)

// UserSummary is the public slice of a user shown on tasks they are assigned to.
type UserSummary struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	ProfileImageURL string    `json:"profileImageUrl"`
}

type TaskView struct {
	models.Task
	AssignedTo     []UserSummary `json:"assignedTo"`
	CompletedCount int           `json:"completedCount"`
}

func newTaskView(task models.Task) TaskView {
	view := TaskView{
		Task:           task,
		AssignedTo:     make([]UserSummary, 0, len(task.Assignees)),
		CompletedCount: task.Checklist.CompletedCount(),
	}
	if view.Checklist == nil {
		view.Checklist = models.Checklist{}
	}
	if view.Attachments == nil {
		view.Attachments = models.StringList{}
	}
	for _, a := range task.Assignees {
		view.AssignedTo = append(view.AssignedTo, UserSummary{
			ID:              a.UserID,
			Name:            a.User.Name,
			Email:           a.User.Email,
			ProfileImageURL: a.User.ProfileImageURL,
		})
	}
	return view
}

type StatusSummary struct {
	All        int64 `json:"allTasks"`
	Pending    int64 `json:"pendingTasks"`
	InProgress int64 `json:"inProgressTasks"`
	Completed  int64 `json:"completedTasks"`
}

type TaskList struct {
	Tasks         []TaskView    `json:"tasks"`
	StatusSummary StatusSummary `json:"statusSummary"`
}

type DashboardStatistics struct {
	TotalTasks      int64 `json:"totalTasks"`
	PendingTasks    int64 `json:"pendingTasks"`
	InProgressTasks int64 `json:"inProgressTasks"`
	CompletedTasks  int64 `json:"completedTasks"`
	OverdueTasks    int64 `json:"overdueTasks"`
}

type DashboardCharts struct {
	// TaskDistribution is keyed Pending, InProgress, Completed and All.
	TaskDistribution  map[string]int64 `json:"taskDistribution"`
	TaskPriorityLevel map[string]int64 `json:"taskPriorityLevel"`
}

type RecentTask struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Status    string     `json:"status"`
	Priority  string     `json:"priority"`
	DueDate   *time.Time `json:"dueDate"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Dashboard struct {
	Statistics  DashboardStatistics `json:"statistics"`
	Charts      DashboardCharts     `json:"charts"`
	RecentTasks []RecentTask        `json:"recentTasks"`
}

// MemberSummary is a user with their task counts by status.
type MemberSummary struct {
	models.User
	PendingTasks    int64 `json:"pendingTasks"`
	InProgressTasks int64 `json:"inProgressTasks"`
	CompletedTasks  int64 `json:"completedTasks"`
}
