package repositories

import (
	"context"
	"fmt"

	"taskboard/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormTaskRepository struct {
	db *gorm.DB
}

func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.Must(uuid.NewV4())
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(task).Error; err != nil {
			return fmt.Errorf("creating task: %w", err)
		}
		return writeAssignees(tx, task)
	})
}

func (r *GormTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).Preload("Assignees.User").First(&task, "id = ?", id).Error
	if err != nil {
		return nil, translateNotFound(err, "finding task")
	}
	return &task, nil
}

func (r *GormTaskRepository) Find(ctx context.Context, q TaskQuery) ([]models.Task, error) {
	var tasks []models.Task
	db := r.applyQuery(r.db.WithContext(ctx).Model(&models.Task{}), q).
		Preload("Assignees.User").
		Order("created_at DESC")
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if err := db.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("finding tasks: %w", err)
	}
	return tasks, nil
}

func (r *GormTaskRepository) Count(ctx context.Context, q TaskQuery) (int64, error) {
	var n int64
	if err := r.applyQuery(r.db.WithContext(ctx).Model(&models.Task{}), q).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting tasks: %w", err)
	}
	return n, nil
}

func (r *GormTaskRepository) CountBy(ctx context.Context, field GroupField, q TaskQuery) (map[string]int64, error) {
	if field != GroupByStatus && field != GroupByPriority {
		return nil, fmt.Errorf("unsupported group field %q", field)
	}

	var rows []struct {
		Bucket string
		Count  int64
	}
	err := r.applyQuery(r.db.WithContext(ctx).Model(&models.Task{}), q).
		Select(string(field) + " AS bucket, COUNT(*) AS count").
		Group(string(field)).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("grouping tasks by %s: %w", field, err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Bucket] = row.Count
	}
	return counts, nil
}

func (r *GormTaskRepository) Save(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Task{}).
			Where("id = ?", task.ID).
			Select("*").
			Omit("id", "created_at", clause.Associations).
			Updates(task)
		if result.Error != nil {
			return fmt.Errorf("saving task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskAssignee{}).Error; err != nil {
			return fmt.Errorf("clearing task assignees: %w", err)
		}
		return writeAssignees(tx, task)
	})
}

func (r *GormTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAssignee{}).Error; err != nil {
			return fmt.Errorf("deleting task assignees: %w", err)
		}
		result := tx.Delete(&models.Task{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("deleting task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormTaskRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *GormTaskRepository) applyQuery(db *gorm.DB, q TaskQuery) *gorm.DB {
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.AssignedTo != nil {
		sub := r.db.Model(&models.TaskAssignee{}).Select("task_id").Where("user_id = ?", *q.AssignedTo)
		db = db.Where("id IN (?)", sub)
	}
	if q.OverdueAt != nil {
		db = db.Where("status <> ? AND due_date IS NOT NULL AND due_date < ?", models.StatusCompleted, *q.OverdueAt)
	}
	return db
}

func writeAssignees(tx *gorm.DB, task *models.Task) error {
	if len(task.Assignees) == 0 {
		return nil
	}
	links := make([]models.TaskAssignee, 0, len(task.Assignees))
	for _, a := range task.Assignees {
		links = append(links, models.TaskAssignee{TaskID: task.ID, UserID: a.UserID})
	}
	if err := tx.Omit(clause.Associations).Create(&links).Error; err != nil {
		return fmt.Errorf("writing task assignees: %w", err)
	}
	return nil
}
