package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"taskboard/backend/internal/apperror"
	"taskboard/backend/internal/models"
	"taskboard/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

const taskNotFound = "Task not found"

type TaskHandler struct {
	tasks      services.TaskService
	dashboards services.DashboardService
}

func NewTaskHandler(tasks services.TaskService, dashboards services.DashboardService) *TaskHandler {
	return &TaskHandler{tasks: tasks, dashboards: dashboards}
}

type createTaskRequest struct {
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Priority      string           `json:"priority"`
	DueDate       *string          `json:"dueDate"`
	TodoChecklist models.Checklist `json:"todoChecklist"`
	Attachments   []string         `json:"attachments"`
	AssignedTo    json.RawMessage  `json:"assignedTo"`
}

type updateTaskRequest struct {
	Title         *string           `json:"title"`
	Description   *string           `json:"description"`
	Priority      *string           `json:"priority"`
	DueDate       *string           `json:"dueDate"`
	TodoChecklist *models.Checklist `json:"todoChecklist"`
	Attachments   *[]string         `json:"attachments"`
	AssignedTo    json.RawMessage   `json:"assignedTo"`
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	assignees, err := parseAssignees(req.AssignedTo)
	if err != nil {
		handleError(c, err)
		return
	}
	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		handleError(c, err)
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), identity, services.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     dueDate,
		Checklist:   req.TodoChecklist,
		Attachments: req.Attachments,
		AssignedTo:  assignees,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Task created successfully", "task": task})
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}

	list, err := h.tasks.ListTasks(c.Request.Context(), identity, c.Query("status"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, taskNotFound)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c.Request.Context(), identity, id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, taskNotFound)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	update := services.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Checklist:   req.TodoChecklist,
		Attachments: req.Attachments,
	}
	if req.DueDate != nil {
		dueDate, err := parseDueDate(req.DueDate)
		if err != nil {
			handleError(c, err)
			return
		}
		update.DueDate = dueDate
	}
	if present(req.AssignedTo) {
		assignees, err := parseAssignees(req.AssignedTo)
		if err != nil {
			handleError(c, err)
			return
		}
		update.AssignedTo = &assignees
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), identity, id, update)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task updated successfully!", "updatedTask": task})
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, taskNotFound)
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(c.Request.Context(), identity, id); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully!"})
}

func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, taskNotFound)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	task, err := h.tasks.UpdateStatus(c.Request.Context(), identity, id, req.Status)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task status updated", "task": task})
}

func (h *TaskHandler) UpdateChecklist(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, taskNotFound)
	if !ok {
		return
	}

	var req struct {
		TodoChecklist *models.Checklist `json:"todoChecklist"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.TodoChecklist == nil {
		badRequest(c, "todoChecklist must be an array")
		return
	}

	task, err := h.tasks.UpdateChecklist(c.Request.Context(), identity, id, *req.TodoChecklist)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task checklist updated", "task": task})
}

func (h *TaskHandler) Dashboard(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}

	dashboard, err := h.dashboards.GlobalDashboard(c.Request.Context(), identity)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

func (h *TaskHandler) UserDashboard(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}

	dashboard, err := h.dashboards.UserDashboard(c.Request.Context(), identity)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// parseAssignees returns nil when the field was absent, so the service can
// reject it, and an error when it is present but not an array of IDs.
func parseAssignees(raw json.RawMessage) ([]uuid.UUID, error) {
	if !present(raw) {
		return nil, nil
	}

	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, apperror.Validation("assignedTo must be an array of user IDs")
	}

	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.FromString(v)
		if err != nil {
			return nil, apperror.Validation("assignedTo must be an array of user IDs")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseDueDate accepts RFC 3339 timestamps and plain dates.
func parseDueDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, *value); err == nil {
			return &t, nil
		}
	}
	return nil, apperror.Validation("dueDate must be a date")
}
