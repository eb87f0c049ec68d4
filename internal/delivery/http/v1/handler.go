package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/taskdesk/taskdesk/internal/services"
)

type Handler interface {
	HandleLogin(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)
	HandleAdminMiddleware(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleUpdateTaskProgress(c *gin.Context)
	HandleReviewTask(c *gin.Context)
	HandleMarkSubtaskDone(c *gin.Context)
	HandleReviewSubtask(c *gin.Context)

	HandleCreatePlan(c *gin.Context)
	HandleGetPlans(c *gin.Context)
	HandleGetPlan(c *gin.Context)
	HandleUpdatePlan(c *gin.Context)
	HandleDeletePlan(c *gin.Context)

	HandleCreateUser(c *gin.Context)
	HandleGetUsers(c *gin.Context)
	HandleResetPassword(c *gin.Context)
	HandleDeleteUser(c *gin.Context)
}

type handlerImpl struct {
	logger zerolog.Logger
	auth   services.AuthService
	users  services.UserService
	plans  services.PlanService
	tasks  services.TaskService
}

func New(
	logger zerolog.Logger,
	authService services.AuthService,
	userService services.UserService,
	planService services.PlanService,
	taskService services.TaskService,
) Handler {
	return &handlerImpl{
		logger: logger,
		auth:   authService,
		users:  userService,
		plans:  planService,
		tasks:  taskService,
	}
}
