package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/plateprep/plateprep/internal/domain/model"
)

// TaskRepository provides task persistence.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id int64) (*model.Task, error)
	ListAll(ctx context.Context, date *time.Time) ([]*model.Task, error)
	// ListForUser returns tasks the user assigned or was assigned.
	ListForUser(ctx context.Context, userID uuid.UUID, date *time.Time) ([]*model.Task, error)
	ListAssignedTo(ctx context.Context, userID uuid.UUID) ([]*model.Task, error)
	ListAssignedBy(ctx context.Context, userID uuid.UUID) ([]*model.Task, error)
	UpdateStatus(ctx context.Context, id int64, status model.TaskStatus) error
}

type taskRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *gorm.DB, logger *zap.Logger) TaskRepository {
	return &taskRepository{
		db:     db,
		logger: logger,
	}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		r.logger.Error("Failed to create task",
			zap.String("name", task.Name),
			zap.Error(err))
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	var task model.Task

	err := r.db.WithContext(ctx).
		Preload("AssignedBy").
		Preload("AssignedTo").
		Where("id = ?", id).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get task",
			zap.Int64("task_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return &task, nil
}

func (r *taskRepository) ListAll(ctx context.Context, date *time.Time) ([]*model.Task, error) {
	query := r.db.WithContext(ctx).Preload("AssignedBy").Preload("AssignedTo")
	query = filterByDate(query, date)

	var tasks []*model.Task
	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		r.logger.Error("Failed to list tasks", zap.Error(err))
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (r *taskRepository) ListForUser(ctx context.Context, userID uuid.UUID, date *time.Time) ([]*model.Task, error) {
	query := r.db.WithContext(ctx).
		Preload("AssignedBy").
		Preload("AssignedTo").
		Where("assigned_by_id = ? OR assigned_to_id = ?", userID, userID)
	query = filterByDate(query, date)

	var tasks []*model.Task
	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		r.logger.Error("Failed to list tasks for user",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (r *taskRepository) ListAssignedTo(ctx context.Context, userID uuid.UUID) ([]*model.Task, error) {
	var tasks []*model.Task

	err := r.db.WithContext(ctx).
		Preload("AssignedBy").
		Where("assigned_to_id = ?", userID).
		Order("created_at DESC").
		Find(&tasks).Error
	if err != nil {
		r.logger.Error("Failed to list assigned tasks",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (r *taskRepository) ListAssignedBy(ctx context.Context, userID uuid.UUID) ([]*model.Task, error) {
	var tasks []*model.Task

	err := r.db.WithContext(ctx).
		Preload("AssignedTo").
		Where("assigned_by_id = ?", userID).
		Order("created_at DESC").
		Find(&tasks).Error
	if err != nil {
		r.logger.Error("Failed to list created tasks",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (r *taskRepository) UpdateStatus(ctx context.Context, id int64, status model.TaskStatus) error {
	result := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		r.logger.Error("Failed to update task status",
			zap.Int64("task_id", id),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update task status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("task not found: %d", id)
	}

	return nil
}

func filterByDate(query *gorm.DB, date *time.Time) *gorm.DB {
	if date == nil {
		return query
	}
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return query.Where("created_at >= ? AND created_at < ?", dayStart, dayStart.AddDate(0, 0, 1))
}
