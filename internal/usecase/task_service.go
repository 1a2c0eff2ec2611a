package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/plateprep/plateprep/internal/adapter/repository"
	"github.com/plateprep/plateprep/internal/apperrors"
	"github.com/plateprep/plateprep/internal/domain/model"
)

// TaskInput carries the fields to create a task.
type TaskInput struct {
	Name            string
	ScheduledDate   time.Time
	DurationMinutes int
	AssignedToID    uuid.UUID
}

// TaskService owns the task lifecycle. Notification fan-out is a side effect
// of creation and of every status transition, never of anything else.
type TaskService struct {
	tasks    repository.TaskRepository
	users    repository.UserRepository
	notifier *TaskNotifier
	logger   *zap.Logger
}

// NewTaskService creates a task service.
func NewTaskService(tasks repository.TaskRepository, users repository.UserRepository, notifier *TaskNotifier, logger *zap.Logger) *TaskService {
	return &TaskService{
		tasks:    tasks,
		users:    users,
		notifier: notifier,
		logger:   logger,
	}
}

// Create saves a task and notifies the assignee. The notification is
// best-effort: the task row is durable before it is attempted.
func (s *TaskService) Create(ctx context.Context, assigner *model.User, in TaskInput) (*model.Task, error) {
	if in.Name == "" {
		return nil, apperrors.NewAppError(apperrors.ErrInvalidArgument, "name is required", nil)
	}

	assignee, err := s.users.GetByID(ctx, in.AssignedToID)
	if err != nil {
		return nil, err
	}
	if assignee == nil {
		return nil, apperrors.NewAppError(apperrors.ErrNotFound, "assigned user not found", nil)
	}

	task := &model.Task{
		Name:            in.Name,
		ScheduledDate:   in.ScheduledDate,
		DurationMinutes: in.DurationMinutes,
		AssignedByID:    assigner.ID,
		AssignedToID:    assignee.ID,
		Status:          model.TaskStatusPending,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	task.AssignedBy = assigner
	task.AssignedTo = assignee
	s.notifier.NotifyTaskAssigned(ctx, task)

	return task, nil
}

// UpdateStatus transitions a task through the explicit status operation.
// Only the assigner, the assignee, or an admin may transition; the status
// must be in the closed set or nothing is mutated and nothing is notified.
func (s *TaskService) UpdateStatus(ctx context.Context, actor *model.User, taskID int64, status model.TaskStatus) (*model.Task, error) {
	if !status.IsValid() {
		return nil, apperrors.NewAppError(apperrors.ErrInvalidArgument, "invalid status", nil)
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperrors.NewAppError(apperrors.ErrNotFound, "task not found", nil)
	}

	if actor.Role != model.RoleAdmin && actor.ID != task.AssignedByID && actor.ID != task.AssignedToID {
		return nil, apperrors.NewAppError(apperrors.ErrUnauthorized, "not allowed to update this task", nil)
	}

	if err := s.tasks.UpdateStatus(ctx, taskID, status); err != nil {
		return nil, err
	}

	task.Status = status
	s.notifier.NotifyStatusUpdate(ctx, task)

	s.logger.Info("Task status updated",
		zap.Int64("task_id", taskID),
		zap.String("status", string(status)),
		zap.String("actor", actor.ID.String()))

	return task, nil
}

// List returns the tasks visible to the user: everything for admins, own
// assignments otherwise, optionally filtered by creation date.
func (s *TaskService) List(ctx context.Context, user *model.User, date *time.Time) ([]*model.Task, error) {
	if user.Role == model.RoleAdmin {
		return s.tasks.ListAll(ctx, date)
	}
	return s.tasks.ListForUser(ctx, user.ID, date)
}

// Get returns one task if the user may see it.
func (s *TaskService) Get(ctx context.Context, user *model.User, taskID int64) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperrors.NewAppError(apperrors.ErrNotFound, "task not found", nil)
	}
	if user.Role != model.RoleAdmin && user.ID != task.AssignedByID && user.ID != task.AssignedToID {
		return nil, apperrors.NewAppError(apperrors.ErrUnauthorized, "not allowed to view this task", nil)
	}
	return task, nil
}

// ListAssignedTo returns tasks assigned to the user.
func (s *TaskService) ListAssignedTo(ctx context.Context, user *model.User) ([]*model.Task, error) {
	return s.tasks.ListAssignedTo(ctx, user.ID)
}

// ListAssignedBy returns tasks the user assigned to others.
func (s *TaskService) ListAssignedBy(ctx context.Context, user *model.User) ([]*model.Task, error) {
	return s.tasks.ListAssignedBy(ctx, user.ID)
}
