package mongostore

import (
	"fmt"
	"time"

	"taskboard/backend/internal/models"

	"github.com/gofrs/uuid"
)

type userDocument struct {
	ID              string    `bson:"_id"`
	Name            string    `bson:"name"`
	Email           string    `bson:"email"`
	Password        string    `bson:"password"`
	ProfileImageURL string    `bson:"profile_image_url"`
	Role            string    `bson:"role"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

type taskDocument struct {
	ID          string                 `bson:"_id"`
	Title       string                 `bson:"title"`
	Description string                 `bson:"description"`
	Priority    string                 `bson:"priority"`
	DueDate     *time.Time             `bson:"due_date"`
	Status      string                 `bson:"status"`
	Progress    int                    `bson:"progress"`
	Checklist   []models.ChecklistItem `bson:"todo_checklist"`
	Attachments []string               `bson:"attachments"`
	AssignedTo  []string               `bson:"assigned_to"`
	CreatedBy   string                 `bson:"created_by"`
	CreatedAt   time.Time              `bson:"created_at"`
	UpdatedAt   time.Time              `bson:"updated_at"`
}

func fromUser(u *models.User) userDocument {
	return userDocument{
		ID:              u.ID.String(),
		Name:            u.Name,
		Email:           u.Email,
		Password:        u.Password,
		ProfileImageURL: u.ProfileImageURL,
		Role:            u.Role,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func (d userDocument) toModel() (models.User, error) {
	id, err := uuid.FromString(d.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("invalid user id %q: %w", d.ID, err)
	}
	return models.User{
		ID:              id,
		Name:            d.Name,
		Email:           d.Email,
		Password:        d.Password,
		ProfileImageURL: d.ProfileImageURL,
		Role:            d.Role,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}, nil
}

func fromTask(t *models.Task) taskDocument {
	checklist := []models.ChecklistItem(t.Checklist)
	if checklist == nil {
		checklist = []models.ChecklistItem{}
	}
	attachments := []string(t.Attachments)
	if attachments == nil {
		attachments = []string{}
	}
	return taskDocument{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		Status:      t.Status,
		Progress:    t.Progress,
		Checklist:   checklist,
		Attachments: attachments,
		AssignedTo:  idStrings(t.AssigneeIDs()),
		CreatedBy:   t.CreatedBy.String(),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// toModel converts the document; users resolves assignee ids to loaded
// user records, and ids missing from it keep an empty user.
func (d taskDocument) toModel(users map[string]models.User) (models.Task, error) {
	id, err := uuid.FromString(d.ID)
	if err != nil {
		return models.Task{}, fmt.Errorf("invalid task id %q: %w", d.ID, err)
	}
	createdBy, err := uuid.FromString(d.CreatedBy)
	if err != nil {
		return models.Task{}, fmt.Errorf("invalid creator id %q: %w", d.CreatedBy, err)
	}

	task := models.Task{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		Priority:    d.Priority,
		DueDate:     d.DueDate,
		Status:      d.Status,
		Progress:    d.Progress,
		Checklist:   models.Checklist(d.Checklist),
		Attachments: models.StringList(d.Attachments),
		CreatedBy:   createdBy,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}

	for _, raw := range d.AssignedTo {
		userID, err := uuid.FromString(raw)
		if err != nil {
			return models.Task{}, fmt.Errorf("invalid assignee id %q: %w", raw, err)
		}
		task.Assignees = append(task.Assignees, models.TaskAssignee{
			TaskID: id,
			UserID: userID,
			User:   users[raw],
		})
	}
	return task, nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
