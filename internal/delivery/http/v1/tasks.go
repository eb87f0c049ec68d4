package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskdesk/taskdesk/internal/models"
	"github.com/taskdesk/taskdesk/internal/services"
)

type taskResponse struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Description       string            `json:"description,omitempty"`
	AssignedTo        string            `json:"assignedTo"`
	ManagerID         string            `json:"managerId,omitempty"`
	AssignedBy        string            `json:"assignedBy"`
	PlanID            string            `json:"planId,omitempty"`
	Subtasks          []models.Subtask  `json:"subtasks"`
	Status            models.TaskStatus `json:"status"`
	SubmissionNote    string            `json:"submissionNote,omitempty"`
	RejectionReason   string            `json:"rejectionReason,omitempty"`
	Deadline          time.Time         `json:"deadline"`
	CompletionPercent int               `json:"completionPercent"`
	CustomerDetails   map[string]any    `json:"customerDetails,omitempty"`
	PaymentDetails    map[string]any    `json:"paymentDetails,omitempty"`
	ValuationDetails  map[string]any    `json:"valuationDetails,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func newTaskResponse(task *models.Task) taskResponse {
	return taskResponse{
		ID:                task.ID,
		Title:             task.Title,
		Description:       task.Description,
		AssignedTo:        task.AssignedTo,
		ManagerID:         task.ManagerID,
		AssignedBy:        task.AssignedBy,
		PlanID:            task.PlanID,
		Subtasks:          task.Subtasks,
		Status:            task.Status,
		SubmissionNote:    task.SubmissionNote,
		RejectionReason:   task.RejectionReason,
		Deadline:          task.Deadline,
		CompletionPercent: task.CompletionPercent(),
		CustomerDetails:   task.CustomerDetails,
		PaymentDetails:    task.PaymentDetails,
		ValuationDetails:  task.ValuationDetails,
		CreatedAt:         task.CreatedAt,
		UpdatedAt:         task.UpdatedAt,
	}
}

type createTaskRequest struct {
	Title            string         `json:"title" binding:"required,max=255"`
	Description      string         `json:"description"`
	AssignedTo       string         `json:"assignedTo" binding:"required"`
	ManagerID        string         `json:"managerId"`
	PlanID           string         `json:"planId"`
	Variant          string         `json:"variant"`
	Subtasks         []string       `json:"subtasks"`
	Deadline         *time.Time     `json:"deadline"`
	CustomerDetails  map[string]any `json:"customerDetails"`
	PaymentDetails   map[string]any `json:"paymentDetails"`
	ValuationDetails map[string]any `json:"valuationDetails"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	actor, ok := getActorFromContext(c)
	if !ok {
		h.logger.Error().Msg("no actor found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	params := services.CreateTaskParams{
		Title:            req.Title,
		Description:      req.Description,
		AssignedTo:       req.AssignedTo,
		ManagerID:        req.ManagerID,
		PlanID:           req.PlanID,
		Variant:          req.Variant,
		Subtasks:         req.Subtasks,
		CustomerDetails:  req.CustomerDetails,
		PaymentDetails:   req.PaymentDetails,
		ValuationDetails: req.ValuationDetails,
	}
	if req.Deadline != nil {
		params.Deadline = *req.Deadline
	}

	task, err := h.tasks.CreateTask(c, actor, params)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newTaskResponse(task))
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	actor, ok := getActorFromContext(c)
	if !ok {
		h.logger.Error().Msg("no actor found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	tasks, err := h.tasks.GetTasks(c, actor)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get tasks")
		abortServiceError(c, err)
		return
	}

	response := make([]taskResponse, len(tasks))
	for i, task := range tasks {
		response[i] = newTaskResponse(task)
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		h.logger.Error().Msg("no task id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	task, err := h.tasks.GetTaskByID(c, taskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to get task")
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

type updateTaskProgressRequest struct {
	Subtasks       []models.Subtask  `json:"subtasks"`
	Status         models.TaskStatus `json:"status"`
	SubmissionNote *string           `json:"submissionNote"`
}

func (h *handlerImpl) HandleUpdateTaskProgress(c *gin.Context) {
	actor, ok := getActorFromContext(c)
	if !ok {
		h.logger.Error().Msg("no actor found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		h.logger.Error().Msg("no task id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	var req updateTaskProgressRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.UpdateTaskProgress(c, actor, taskID, services.UpdateTaskProgressParams{
		Subtasks:       req.Subtasks,
		Status:         req.Status,
		SubmissionNote: req.SubmissionNote,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to update task progress")
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

type reviewTaskRequest struct {
	Status          models.TaskStatus `json:"status" binding:"required"`
	RejectionReason string            `json:"rejectionReason"`
}

func (h *handlerImpl) HandleReviewTask(c *gin.Context) {
	actor, ok := getActorFromContext(c)
	if !ok {
		h.logger.Error().Msg("no actor found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		h.logger.Error().Msg("no task id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	var req reviewTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.ReviewTask(c, actor, taskID, services.ReviewTaskParams{
		Status:          req.Status,
		RejectionReason: req.RejectionReason,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to review task")
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

type markSubtaskDoneRequest struct {
	Reason string `json:"reason"`
}

func (h *handlerImpl) HandleMarkSubtaskDone(c *gin.Context) {
	actor, ok := getActorFromContext(c)
	if !ok {
		h.logger.Error().Msg("no actor found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	taskID := c.Param("id")
	subtaskID := c.Param("subtaskId")
	if taskID == "" || subtaskID == "" {
		h.logger.Error().Msg("no task or subtask id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	// The body is optional: marking done without a note is the
	// common case.
	var req markSubtaskDoneRequest
	if c.Request.ContentLength > 0 {
		err := c.ShouldBindJSON(&req)
		if err != nil {
			h.logger.Error().
				Err(err).
				Msg("failed to bind json")
			abort(c, newBadRequestError(errInvalidRequestBody.Error()))
			return
		}
	}

	task, err := h.tasks.MarkSubtaskDone(c, actor, taskID, subtaskID, req.Reason)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Str("subtask_id", subtaskID).
			Msg("failed to mark subtask done")
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

type reviewSubtaskRequest struct {
	Status      models.SubtaskStatus `json:"status" binding:"required"`
	ManagerNote string               `json:"managerNote"`
}

func (h *handlerImpl) HandleReviewSubtask(c *gin.Context) {
	actor, ok := getActorFromContext(c)
	if !ok {
		h.logger.Error().Msg("no actor found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	taskID := c.Param("id")
	subtaskID := c.Param("subtaskId")
	if taskID == "" || subtaskID == "" {
		h.logger.Error().Msg("no task or subtask id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	var req reviewSubtaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.ReviewSubtask(c, actor, taskID, subtaskID, services.ReviewSubtaskParams{
		Status:      req.Status,
		ManagerNote: req.ManagerNote,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Str("subtask_id", subtaskID).
			Msg("failed to review subtask")
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}
