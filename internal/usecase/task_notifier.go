package usecase

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/plateprep/plateprep/internal/domain/model"
	"github.com/plateprep/plateprep/internal/realtime"
)

// NewTaskMessage is the frame pushed when a task is assigned.
type NewTaskMessage struct {
	Type       string `json:"type"`
	TaskID     int64  `json:"task_id"`
	TaskName   string `json:"task_name"`
	AssignedBy string `json:"assigned_by"`
	Date       string `json:"date"`
	Duration   int    `json:"duration"`
	Status     string `json:"status"`
}

// StatusUpdateMessage is the frame pushed when a task changes status.
type StatusUpdateMessage struct {
	Type      string `json:"type"`
	TaskID    int64  `json:"task_id"`
	NewStatus string `json:"new_status"`
}

// TaskNotifier fans task lifecycle events out to the assignee's connection
// group. Delivery is best-effort: the task row is already durably saved, so
// every failure here is logged and swallowed.
type TaskNotifier struct {
	bus    realtime.Bus
	logger *zap.Logger
}

// NewTaskNotifier creates a task notifier publishing on the given bus.
func NewTaskNotifier(bus realtime.Bus, logger *zap.Logger) *TaskNotifier {
	return &TaskNotifier{
		bus:    bus,
		logger: logger,
	}
}

// NotifyTaskAssigned pushes a new_task frame to the assignee's group.
func (n *TaskNotifier) NotifyTaskAssigned(ctx context.Context, task *model.Task) {
	assignedBy := ""
	if task.AssignedBy != nil {
		assignedBy = task.AssignedBy.Email
	}

	n.publish(ctx, task, NewTaskMessage{
		Type:       "new_task",
		TaskID:     task.ID,
		TaskName:   task.Name,
		AssignedBy: assignedBy,
		Date:       task.ScheduledDate.Format("2006-01-02"),
		Duration:   task.DurationMinutes,
		Status:     string(task.Status),
	})
}

// NotifyStatusUpdate pushes a status_update frame to the assignee's group.
func (n *TaskNotifier) NotifyStatusUpdate(ctx context.Context, task *model.Task) {
	n.publish(ctx, task, StatusUpdateMessage{
		Type:      "status_update",
		TaskID:    task.ID,
		NewStatus: string(task.Status),
	})
}

func (n *TaskNotifier) publish(ctx context.Context, task *model.Task, msg interface{}) {
	payload, err := json.Marshal(msg)
	if err != nil {
		n.logger.Error("Failed to marshal task notification",
			zap.Int64("task_id", task.ID),
			zap.Error(err))
		return
	}

	group := realtime.UserGroup(task.AssignedToID)
	if err := n.bus.Publish(ctx, group, payload); err != nil {
		n.logger.Warn("Task notification failed",
			zap.Int64("task_id", task.ID),
			zap.String("group", group),
			zap.Error(err))
	}
}
