package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskdesk/taskdesk/internal/models"
)

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrPlanVariantNotFound  = errors.New("plan variant not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrPasswordTooShort     = errors.New("password must be at least 6 characters")
	ErrNotAuthorized        = errors.New("not authorized")
	ErrInvalidRole          = errors.New("invalid role")
	ErrInvalidAssigneeRole  = errors.New("assignee must be staff or manager")
	ErrInvalidManagerRole   = errors.New("manager must have the manager role")
	ErrMissingRequiredField = errors.New("title, assignedTo and deadline are required")
	ErrNoSubtasks           = errors.New("at least one subtask is required")
)

type TaskService interface {
	// CreateTask assigns a new task atomically with its full subtask
	// list. When a plan (and optionally a variant) is referenced and
	// no explicit subtasks are given, the subtask titles are seeded
	// from the template; a missing deadline defaults to now plus the
	// template duration.
	//
	// It returns ErrMissingRequiredField, ErrNoSubtasks,
	// ErrUserNotFound, ErrInvalidAssigneeRole, ErrInvalidManagerRole,
	// ErrPlanNotFound or ErrPlanVariantNotFound.
	CreateTask(ctx context.Context, actor *models.User, params CreateTaskParams) (*models.Task, error)

	// GetTasks lists tasks visible to the actor: admins see all,
	// managers see tasks they manage or execute, staff see their own.
	// The overdue sweep runs immediately before the listing query.
	GetTasks(ctx context.Context, actor *models.User) ([]*models.Task, error)

	// GetTaskByID returns ErrTaskNotFound if the task is absent.
	GetTaskByID(ctx context.Context, id string) (*models.Task, error)

	// UpdateTaskProgress saves subtask progress and/or a requested
	// status for the assignee or manager. Non-admin requests for the
	// completed status are downgraded to waiting_approval.
	UpdateTaskProgress(ctx context.Context, actor *models.User, id string, params UpdateTaskProgressParams) (*models.Task, error)

	// ReviewTask is the final admin approve/reject.
	ReviewTask(ctx context.Context, actor *models.User, id string, params ReviewTaskParams) (*models.Task, error)

	// MarkSubtaskDone submits one subtask for manager review.
	MarkSubtaskDone(ctx context.Context, actor *models.User, taskID, subtaskID, reason string) (*models.Task, error)

	// ReviewSubtask resolves one waiting subtask to completed or
	// rejected on behalf of the task's manager or an admin.
	ReviewSubtask(ctx context.Context, actor *models.User, taskID, subtaskID string, params ReviewSubtaskParams) (*models.Task, error)
}

type PlanService interface {
	CreatePlan(ctx context.Context, actor *models.User, params CreatePlanParams) (*models.Plan, error)
	GetPlans(ctx context.Context) ([]*models.Plan, error)
	GetPlanByID(ctx context.Context, id string) (*models.Plan, error)
	UpdatePlan(ctx context.Context, id string, params UpdatePlanParams) (*models.Plan, error)
	DeletePlan(ctx context.Context, id string) error
}

type UserService interface {
	// CreateUser registers a staff/manager/admin account. Usernames
	// are stored lowercase and must be unique.
	CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error)
	GetUsers(ctx context.Context) ([]*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ResetPassword(ctx context.Context, id, password string) error
	DeleteUser(ctx context.Context, id string) error
}

type AuthService interface {
	// Login authenticates by case-insensitive username and password
	// and issues a signed access token.
	//
	// It returns ErrUserNotFound or ErrUserPasswordMismatch.
	Login(ctx context.Context, username, password string) (*LoginResult, error)

	// ParseJWTToken parses the given token and returns the registered
	// claims, with the user id as subject.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)
}

type CreateTaskParams struct {
	Title            string
	Description      string
	AssignedTo       string
	ManagerID        string
	PlanID           string
	Variant          string
	Subtasks         []string
	Deadline         time.Time
	CustomerDetails  map[string]any
	PaymentDetails   map[string]any
	ValuationDetails map[string]any
}

type UpdateTaskProgressParams struct {
	Subtasks       []models.Subtask
	Status         models.TaskStatus
	SubmissionNote *string
}

type ReviewTaskParams struct {
	Status          models.TaskStatus
	RejectionReason string
}

type ReviewSubtaskParams struct {
	Status      models.SubtaskStatus
	ManagerNote string
}

type CreatePlanParams struct {
	Name        string
	Description string
	MaxDays     int
	Subtasks    []models.PlanSubtask
	Variants    []models.PlanVariant
}

type UpdatePlanParams struct {
	Name        *string
	Description *string
	MaxDays     *int
	Subtasks    []models.PlanSubtask
	Variants    []models.PlanVariant
}

type CreateUserParams struct {
	Username string
	Password string
	Name     string
	Role     models.Role
}

type LoginResult struct {
	User        *models.User
	AccessToken string
	ExpiresAt   time.Time
}
