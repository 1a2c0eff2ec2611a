package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/plateprep/plateprep/internal/domain/model"
	"github.com/plateprep/plateprep/internal/middleware/auth"
	"github.com/plateprep/plateprep/internal/usecase"
)

const dateLayout = "2006-01-02"

type TaskHandler struct {
	tasks  *usecase.TaskService
	logger *zap.Logger
}

func NewTaskHandler(tasks *usecase.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		tasks:  tasks,
		logger: logger,
	}
}

type CreateTaskRequest struct {
	Name            string `json:"name" validate:"required"`
	ScheduledDate   string `json:"scheduled_date" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gt=0"`
	AssignedToID    string `json:"assigned_to_id" validate:"required,uuid"`
}

func (h *TaskHandler) Create(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	scheduled, err := time.Parse(dateLayout, req.ScheduledDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "scheduled_date must be YYYY-MM-DD"})
	}
	assigneeID, err := uuid.Parse(req.AssignedToID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "assigned_to_id must be a valid UUID"})
	}

	task, err := h.tasks.Create(c.Request().Context(), user, usecase.TaskInput{
		Name:            req.Name,
		ScheduledDate:   scheduled,
		DurationMinutes: req.DurationMinutes,
		AssignedToID:    assigneeID,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusCreated, task)
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus is the only way a task's status changes over HTTP.
func (h *TaskHandler) UpdateStatus(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid task id"})
	}

	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	task, err := h.tasks.UpdateStatus(c.Request().Context(), user, taskID, model.TaskStatus(req.Status))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"task_id": task.ID,
		"status":  string(task.Status),
	})
}

func (h *TaskHandler) List(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	var date *time.Time
	if raw := c.QueryParam("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
		date = &parsed
	}

	tasks, err := h.tasks.List(c.Request().Context(), user, date)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) Get(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid task id"})
	}

	task, err := h.tasks.Get(c.Request().Context(), user, taskID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) ListAssignedToMe(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	tasks, err := h.tasks.ListAssignedTo(c.Request().Context(), user)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) ListAssignedByMe(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	tasks, err := h.tasks.ListAssignedBy(c.Request().Context(), user)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, tasks)
}
