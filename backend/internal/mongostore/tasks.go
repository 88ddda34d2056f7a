package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskboard/backend/internal/models"
	"taskboard/backend/internal/repositories"

	"github.com/gofrs/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TaskRepository keeps assignees as an array of user ids on the task
// document, so a task and its assignee set are written atomically.
type TaskRepository struct {
	coll  *mongo.Collection
	users *UserRepository
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.Must(uuid.NewV4())
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, fromTask(task)); err != nil {
		return fmt.Errorf("creating task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var doc taskDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("finding task: %w", err)
	}

	tasks, err := r.hydrate(ctx, []taskDocument{doc})
	if err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

func (r *TaskRepository) Find(ctx context.Context, q repositories.TaskQuery) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := r.coll.Find(ctx, taskFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("finding tasks: %w", err)
	}
	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding tasks: %w", err)
	}
	return r.hydrate(ctx, docs)
}

func (r *TaskRepository) Count(ctx context.Context, q repositories.TaskQuery) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, taskFilter(q))
	if err != nil {
		return 0, fmt.Errorf("counting tasks: %w", err)
	}
	return n, nil
}

func (r *TaskRepository) CountBy(ctx context.Context, field repositories.GroupField, q repositories.TaskQuery) (map[string]int64, error) {
	if field != repositories.GroupByStatus && field != repositories.GroupByPriority {
		return nil, fmt.Errorf("unsupported group field %q", field)
	}

	cursor, err := r.coll.Aggregate(ctx, groupPipeline(field, q))
	if err != nil {
		return nil, fmt.Errorf("grouping tasks by %s: %w", field, err)
	}
	var rows []struct {
		Bucket string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decoding task groups: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Bucket] = row.Count
	}
	return counts, nil
}

func (r *TaskRepository) Save(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()
	doc := fromTask(task)

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": bson.M{
		"title":          doc.Title,
		"description":    doc.Description,
		"priority":       doc.Priority,
		"due_date":       doc.DueDate,
		"status":         doc.Status,
		"progress":       doc.Progress,
		"todo_checklist": doc.Checklist,
		"attachments":    doc.Attachments,
		"assigned_to":    doc.AssignedTo,
		"updated_at":     doc.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("saving task: %w", err)
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	if result.DeletedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *TaskRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}

// hydrate converts documents and loads every referenced assignee in one query.
func (r *TaskRepository) hydrate(ctx context.Context, docs []taskDocument) ([]models.Task, error) {
	users, err := r.users.usersByID(ctx, assigneeIDs(docs))
	if err != nil {
		return nil, err
	}

	tasks := make([]models.Task, 0, len(docs))
	for _, doc := range docs {
		task, err := doc.toModel(users)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func assigneeIDs(docs []taskDocument) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, doc := range docs {
		for _, id := range doc.AssignedTo {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func taskFilter(q repositories.TaskQuery) bson.M {
	filter := bson.M{}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.AssignedTo != nil {
		filter["assigned_to"] = q.AssignedTo.String()
	}
	if q.OverdueAt != nil {
		if q.Status == "" {
			filter["status"] = bson.M{"$ne": models.StatusCompleted}
		} else if q.Status == models.StatusCompleted {
			// Completed tasks are never overdue.
			filter["_id"] = bson.M{"$exists": false}
		}
		filter["due_date"] = bson.M{"$lt": *q.OverdueAt}
	}
	return filter
}

func groupPipeline(field repositories.GroupField, q repositories.TaskQuery) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: taskFilter(q)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + string(field)},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
}
