package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/taskdesk/taskdesk/internal/approval"
	"github.com/taskdesk/taskdesk/internal/models"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewTaskService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

const selectTaskColumns = `
SELECT id,
       title,
       description,
       assigned_to,
       manager_id,
       assigned_by,
       plan_id,
       subtasks,
       status,
       submission_note,
       rejection_reason,
       deadline,
       customer_details,
       payment_details,
       valuation_details,
       created_at,
       updated_at
FROM tasks
`

// updateTaskStateQuery persists the whole mutated aggregate. The
// subtasks document is replaced wholesale, so two concurrent editors
// racing on the same task last-write-win on the entire array; there is
// no version counter. Known trade-off, not an error condition.
const updateTaskStateQuery = `
UPDATE tasks
SET subtasks = $1,
    status = $2,
    submission_note = $3,
    rejection_reason = $4,
    updated_at = $5
WHERE id = $6
`

func (s *taskServiceImpl) CreateTask(ctx context.Context, actor *models.User, params CreateTaskParams) (*models.Task, error) {
	if params.Title == "" || params.AssignedTo == "" {
		return nil, ErrMissingRequiredField
	}

	assignee, err := s.selectUserRole(ctx, params.AssignedTo)
	if err != nil {
		return nil, err
	}
	if assignee != models.RoleStaff && assignee != models.RoleManager {
		s.logger.Error().
			Str("assigned_to", params.AssignedTo).
			Str("role", string(assignee)).
			Msg("assignee has an invalid role")
		return nil, ErrInvalidAssigneeRole
	}

	if params.ManagerID != "" {
		manager, err := s.selectUserRole(ctx, params.ManagerID)
		if err != nil {
			return nil, err
		}
		if manager != models.RoleManager {
			s.logger.Error().
				Str("manager_id", params.ManagerID).
				Str("role", string(manager)).
				Msg("manager has an invalid role")
			return nil, ErrInvalidManagerRole
		}
	}

	now := time.Now()
	task := &models.Task{
		Title:            params.Title,
		Description:      params.Description,
		AssignedTo:       params.AssignedTo,
		ManagerID:        params.ManagerID,
		AssignedBy:       actor.ID,
		PlanID:           params.PlanID,
		Status:           models.TaskStatusPending,
		Deadline:         params.Deadline,
		CustomerDetails:  params.CustomerDetails,
		PaymentDetails:   params.PaymentDetails,
		ValuationDetails: params.ValuationDetails,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	titles := params.Subtasks
	if params.PlanID != "" {
		titles, err = s.seedFromPlan(ctx, task, params, now, titles)
		if err != nil {
			return nil, err
		}
	}
	if task.Deadline.IsZero() {
		return nil, ErrMissingRequiredField
	}
	if len(titles) == 0 {
		return nil, ErrNoSubtasks
	}

	task.Subtasks = make([]models.Subtask, 0, len(titles))
	for _, title := range titles {
		subtaskUUID, err := uuid.NewV7()
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to generate subtask uuid")
			return nil, err
		}
		task.Subtasks = append(task.Subtasks, models.Subtask{
			ID:     subtaskUUID.String(),
			Title:  title,
			Status: models.SubtaskStatusPending,
		})
	}

	taskUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate task uuid")
		return nil, err
	}
	task.ID = taskUUID.String()

	subtasksDoc, customerDoc, paymentDoc, valuationDoc, err := marshalTaskDocs(task)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to marshal task documents")
		return nil, err
	}

	const insertTaskQuery = `
INSERT INTO tasks (id,
                   title,
                   description,
                   assigned_to,
                   manager_id,
                   assigned_by,
                   plan_id,
                   subtasks,
                   status,
                   submission_note,
                   rejection_reason,
                   deadline,
                   customer_details,
                   payment_details,
                   valuation_details,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertTaskQuery,
		task.ID,
		task.Title,
		task.Description,
		task.AssignedTo,
		task.ManagerID,
		task.AssignedBy,
		task.PlanID,
		subtasksDoc,
		task.Status,
		task.SubmissionNote,
		task.RejectionReason,
		task.Deadline,
		customerDoc,
		paymentDoc,
		valuationDoc,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Int("subtasks", len(task.Subtasks)).
		Msg("inserted task")

	s.logger.Info().
		Str("task_id", task.ID).
		Str("assigned_to", task.AssignedTo).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) GetTasks(ctx context.Context, actor *models.User) ([]*models.Task, error) {
	now := time.Now()

	// Blanket overdue sweep before the listing query. Idempotent:
	// already-overdue and completed tasks are excluded.
	const sweepOverdueQuery = `
UPDATE tasks
SET status = $1,
    updated_at = $2
WHERE deadline < $2 AND
      status NOT IN ($1, $3)
`
	tag, err := s.pgPool.Exec(
		ctx,
		sweepOverdueQuery,
		models.TaskStatusOverdue,
		now,
		models.TaskStatusCompleted,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to sweep overdue tasks")
		return nil, err
	}
	if tag.RowsAffected() > 0 {
		s.logger.Info().
			Int64("swept", tag.RowsAffected()).
			Msg("reclassified overdue tasks")
	}

	query := selectTaskColumns + `ORDER BY created_at DESC`
	args := []any{}
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleManager:
		query = selectTaskColumns + `WHERE manager_id = $1 OR assigned_to = $1
ORDER BY created_at DESC`
		args = append(args, actor.ID)
	default:
		query = selectTaskColumns + `WHERE assigned_to = $1
ORDER BY created_at DESC`
		args = append(args, actor.ID)
	}

	rows, err := s.pgPool.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(tasks)).
		Str("user_id", actor.ID).
		Msg("selected tasks")

	return tasks, nil
}

func (s *taskServiceImpl) GetTaskByID(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.selectTask(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("task_id", task.ID).
		Msg("selected task by id")
	return task, nil
}

func (s *taskServiceImpl) UpdateTaskProgress(ctx context.Context, actor *models.User, id string, params UpdateTaskProgressParams) (*models.Task, error) {
	task, err := s.selectTask(ctx, id)
	if err != nil {
		return nil, err
	}

	decision := approval.Authorize(actor, task, approval.OpProgressSave)
	if !decision.Allowed {
		s.logger.Error().
			Str("task_id", task.ID).
			Str("user_id", actor.ID).
			Str("reason", decision.Reason).
			Msg("progress save denied")
		return nil, ErrNotAuthorized
	}

	err = approval.ApplyProgress(task, actor, approval.ProgressPatch{
		Subtasks:       params.Subtasks,
		Status:         params.Status,
		SubmissionNote: params.SubmissionNote,
	}, time.Now())
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to apply progress")
		return nil, err
	}

	err = s.updateTaskState(ctx, task)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", actor.ID).
		Str("status", string(task.Status)).
		Msg("updated task progress")
	return task, nil
}

func (s *taskServiceImpl) ReviewTask(ctx context.Context, actor *models.User, id string, params ReviewTaskParams) (*models.Task, error) {
	task, err := s.selectTask(ctx, id)
	if err != nil {
		return nil, err
	}

	decision := approval.Authorize(actor, task, approval.OpTaskReview)
	if !decision.Allowed {
		s.logger.Error().
			Str("task_id", task.ID).
			Str("user_id", actor.ID).
			Str("reason", decision.Reason).
			Msg("task review denied")
		return nil, ErrNotAuthorized
	}

	err = approval.Review(task, params.Status, params.RejectionReason, time.Now())
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Str("status", string(params.Status)).
			Msg("failed to review task")
		return nil, err
	}

	err = s.updateTaskState(ctx, task)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", actor.ID).
		Str("status", string(task.Status)).
		Msg("reviewed task")
	return task, nil
}

func (s *taskServiceImpl) MarkSubtaskDone(ctx context.Context, actor *models.User, taskID, subtaskID, reason string) (*models.Task, error) {
	task, err := s.selectTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	decision := approval.Authorize(actor, task, approval.OpSubtaskMarkDone)
	if !decision.Allowed {
		s.logger.Error().
			Str("task_id", task.ID).
			Str("user_id", actor.ID).
			Str("reason", decision.Reason).
			Msg("subtask mark done denied")
		return nil, ErrNotAuthorized
	}

	err = approval.MarkDone(task, subtaskID, reason, time.Now())
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Str("subtask_id", subtaskID).
			Msg("failed to mark subtask done")
		return nil, err
	}

	err = s.updateTaskState(ctx, task)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("subtask_id", subtaskID).
		Str("user_id", actor.ID).
		Msg("marked subtask done")
	return task, nil
}

func (s *taskServiceImpl) ReviewSubtask(ctx context.Context, actor *models.User, taskID, subtaskID string, params ReviewSubtaskParams) (*models.Task, error) {
	task, err := s.selectTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	decision := approval.Authorize(actor, task, approval.OpSubtaskReview)
	if !decision.Allowed {
		s.logger.Error().
			Str("task_id", task.ID).
			Str("user_id", actor.ID).
			Str("reason", decision.Reason).
			Msg("subtask review denied")
		return nil, ErrNotAuthorized
	}

	err = approval.ReviewSubtask(task, subtaskID, params.Status, params.ManagerNote, time.Now())
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Str("subtask_id", subtaskID).
			Msg("failed to review subtask")
		return nil, err
	}

	err = s.updateTaskState(ctx, task)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("subtask_id", subtaskID).
		Str("user_id", actor.ID).
		Str("status", string(params.Status)).
		Msg("reviewed subtask")
	return task, nil
}

func (s *taskServiceImpl) selectTask(ctx context.Context, id string) (*models.Task, error) {
	row := s.pgPool.QueryRow(ctx, selectTaskColumns+`WHERE id = $1`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("task_id", id).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to select task")
		return nil, err
	}
	return task, nil
}

func (s *taskServiceImpl) selectUserRole(ctx context.Context, id string) (models.Role, error) {
	const selectUserRoleQuery = `
SELECT role
FROM users
WHERE id = $1
`
	var role models.Role
	err := s.pgPool.QueryRow(ctx, selectUserRoleQuery, id).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("user_id", id).
				Msg("user not found")
			return "", ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", id).
			Msg("failed to select user role")
		return "", err
	}
	return role, nil
}

// seedFromPlan copies subtask titles from the referenced plan (or one
// of its variants) when the request supplies none, and derives a
// deadline from the template duration when the request omits one.
func (s *taskServiceImpl) seedFromPlan(ctx context.Context, task *models.Task, params CreateTaskParams, now time.Time, titles []string) ([]string, error) {
	const selectPlanTemplateQuery = `
SELECT max_days,
       subtasks,
       variants
FROM plans
WHERE id = $1
`
	var (
		maxDays      int
		subtasksDoc  []byte
		variantsDoc  []byte
		planSubtasks []models.PlanSubtask
		planVariants []models.PlanVariant
	)
	err := s.pgPool.QueryRow(
		ctx,
		selectPlanTemplateQuery,
		params.PlanID,
	).Scan(
		&maxDays,
		&subtasksDoc,
		&variantsDoc,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("plan_id", params.PlanID).
				Msg("plan not found")
			return nil, ErrPlanNotFound
		}

		s.logger.Error().
			Err(err).
			Str("plan_id", params.PlanID).
			Msg("failed to select plan")
		return nil, err
	}

	err = unmarshalDoc(subtasksDoc, &planSubtasks)
	if err == nil {
		err = unmarshalDoc(variantsDoc, &planVariants)
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("plan_id", params.PlanID).
			Msg("failed to unmarshal plan documents")
		return nil, err
	}

	templateSubtasks := planSubtasks
	durationDays := maxDays
	if params.Variant != "" {
		plan := models.Plan{Variants: planVariants}
		variant := plan.Variant(params.Variant)
		if variant == nil {
			s.logger.Error().
				Str("plan_id", params.PlanID).
				Str("variant", params.Variant).
				Msg("plan variant not found")
			return nil, ErrPlanVariantNotFound
		}
		templateSubtasks = variant.Subtasks
		durationDays = variant.Duration
	}

	if len(titles) == 0 {
		for _, st := range templateSubtasks {
			titles = append(titles, st.Title)
		}
	}
	if task.Deadline.IsZero() && durationDays > 0 {
		task.Deadline = now.AddDate(0, 0, durationDays)
	}
	s.logger.Debug().
		Str("plan_id", params.PlanID).
		Str("variant", params.Variant).
		Int("subtasks", len(titles)).
		Msg("seeded task from plan")
	return titles, nil
}

func (s *taskServiceImpl) updateTaskState(ctx context.Context, task *models.Task) error {
	subtasksDoc, err := json.Marshal(task.Subtasks)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to marshal subtasks")
		return err
	}

	_, err = s.pgPool.Exec(
		ctx,
		updateTaskStateQuery,
		subtasksDoc,
		task.Status,
		task.SubmissionNote,
		task.RejectionReason,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to update task state")
		return err
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Msg("updated task state")
	return nil
}

func marshalTaskDocs(task *models.Task) (subtasks, customer, payment, valuation []byte, err error) {
	subtasks, err = json.Marshal(task.Subtasks)
	if err == nil {
		customer, err = json.Marshal(task.CustomerDetails)
	}
	if err == nil {
		payment, err = json.Marshal(task.PaymentDetails)
	}
	if err == nil {
		valuation, err = json.Marshal(task.ValuationDetails)
	}
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal task documents: %w", err)
	}
	return subtasks, customer, payment, valuation, nil
}

func unmarshalDoc(doc []byte, v any) error {
	if len(doc) == 0 {
		return nil
	}
	return json.Unmarshal(doc, v)
}

func scanTask(row pgx.Row) (*models.Task, error) {
	task := new(models.Task)
	var subtasksDoc, customerDoc, paymentDoc, valuationDoc []byte

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.AssignedTo,
		&task.ManagerID,
		&task.AssignedBy,
		&task.PlanID,
		&subtasksDoc,
		&task.Status,
		&task.SubmissionNote,
		&task.RejectionReason,
		&task.Deadline,
		&customerDoc,
		&paymentDoc,
		&valuationDoc,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	err = unmarshalDoc(subtasksDoc, &task.Subtasks)
	if err == nil {
		err = unmarshalDoc(customerDoc, &task.CustomerDetails)
	}
	if err == nil {
		err = unmarshalDoc(paymentDoc, &task.PaymentDetails)
	}
	if err == nil {
		err = unmarshalDoc(valuationDoc, &task.ValuationDetails)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal task documents: %w", err)
	}
	return task, nil
}
