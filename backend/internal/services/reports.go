package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"taskboard/backend/internal/apperror"
	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/models"
	"taskboard/backend/internal/policy"
	"taskboard/backend/internal/repositories"
)

var (
	taskReportHeader = []string{"Task ID", "Title", "Description", "Priority", "Status", "Progress", "Due Date", "Assigned To", "Created At"}
	userReportHeader = []string{"User Name", "Email", "Total Assigned Tasks", "Pending Tasks", "In Progress Tasks", "Completed Tasks"}
)

type ReportService interface {
	ExportTasks(ctx context.Context, caller auth.Identity, w io.Writer) error
	ExportUsers(ctx context.Context, caller auth.Identity, w io.Writer) error
}

type ReportServiceImpl struct {
	tasks  repositories.TaskRepository
	users  repositories.UserRepository
	policy *policy.Policy
}

func NewReportService(tasks repositories.TaskRepository, users repositories.UserRepository, p *policy.Policy) *ReportServiceImpl {
	return &ReportServiceImpl{tasks: tasks, users: users, policy: p}
}

func (s *ReportServiceImpl) authorize(caller auth.Identity) error {
	if decision := s.policy.Evaluate(caller, policy.ActionExportReports, nil); !decision.Allowed {
		return apperror.Forbidden(decision.Reason)
	}
	return nil
}

// ExportTasks writes every task as CSV, newest first.
func (s *ReportServiceImpl) ExportTasks(ctx context.Context, caller auth.Identity, w io.Writer) error {
	if err := s.authorize(caller); err != nil {
		return err
	}

	tasks, err := s.tasks.Find(ctx, repositories.TaskQuery{})
	if err != nil {
		return apperror.Internal("failed to load tasks", err)
	}

	out := csv.NewWriter(w)
	if err := out.Write(taskReportHeader); err != nil {
		return fmt.Errorf("writing task report header: %w", err)
	}
	for _, task := range tasks {
		row := []string{
			task.ID.String(),
			task.Title,
			task.Description,
			task.Priority,
			task.Status,
			strconv.Itoa(task.Progress),
			formatDate(task.DueDate),
			assigneeList(task),
			task.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := out.Write(row); err != nil {
			return fmt.Errorf("writing task report row: %w", err)
		}
	}
	out.Flush()
	return out.Error()
}

// ExportUsers writes one CSV row per member with their task counts.
func (s *ReportServiceImpl) ExportUsers(ctx context.Context, caller auth.Identity, w io.Writer) error {
	if err := s.authorize(caller); err != nil {
		return err
	}

	users, err := s.users.List(ctx, models.RoleUser)
	if err != nil {
		return apperror.Internal("failed to load users", err)
	}

	out := csv.NewWriter(w)
	if err := out.Write(userReportHeader); err != nil {
		return fmt.Errorf("writing user report header: %w", err)
	}
	for _, user := range users {
		counts, err := s.tasks.CountBy(ctx, repositories.GroupByStatus, repositories.TaskQuery{AssignedTo: &user.ID})
		if err != nil {
			return apperror.Internal("failed to count user tasks", err)
		}
		var total int64
		for _, n := range counts {
			total += n
		}
		row := []string{
			user.Name,
			user.Email,
			strconv.FormatInt(total, 10),
			strconv.FormatInt(counts[models.StatusPending], 10),
			strconv.FormatInt(counts[models.StatusInProgress], 10),
			strconv.FormatInt(counts[models.StatusCompleted], 10),
		}
		if err := out.Write(row); err != nil {
			return fmt.Errorf("writing user report row: %w", err)
		}
	}
	out.Flush()
	return out.Error()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func assigneeList(task models.Task) string {
	parts := make([]string, 0, len(task.Assignees))
	for _, a := range task.Assignees {
		parts = append(parts, fmt.Sprintf("%s (%s)", a.User.Name, a.User.Email))
	}
	return strings.Join(parts, ", ")
}
