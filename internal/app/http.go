package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/taskdesk/taskdesk/internal/config"
	v1 "github.com/taskdesk/taskdesk/internal/delivery/http/v1"
	"github.com/taskdesk/taskdesk/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter) {
	jwtCfg := config.Global().JWT

	authService := services.NewAuthService(
		globalLogger,
		globalPostgresPool,
		jwtCfg.Issuer,
		[]byte(jwtCfg.SigningKey),
		jwtCfg.AccessTokenTTL,
	)
	userService := services.NewUserService(globalLogger, globalPostgresPool)
	planService := services.NewPlanService(globalLogger, globalPostgresPool)
	taskService := services.NewTaskService(globalLogger, globalPostgresPool)

	v1Handler := v1.New(
		globalLogger,
		authService,
		userService,
		planService,
		taskService,
	)
	router = router.Group("/api/v1")

	authRouter := router.Group("/auth")
	authRouter.POST("/login", v1Handler.HandleLogin)

	taskRouter := router.Group("/tasks", v1Handler.HandleAuthMiddleware)
	taskRouter.POST("", v1Handler.HandleAdminMiddleware, v1Handler.HandleCreateTask)
	taskRouter.GET("", v1Handler.HandleGetTasks)
	taskRouter.GET("/:id", v1Handler.HandleGetTask)
	taskRouter.PATCH("/:id", v1Handler.HandleUpdateTaskProgress)
	taskRouter.PUT("/:id/review", v1Handler.HandleAdminMiddleware, v1Handler.HandleReviewTask)
	taskRouter.PATCH("/:id/subtasks/:subtaskId", v1Handler.HandleMarkSubtaskDone)
	taskRouter.PUT("/:id/subtasks/:subtaskId/review", v1Handler.HandleReviewSubtask)

	planRouter := router.Group("/plans", v1Handler.HandleAuthMiddleware)
	planRouter.GET("", v1Handler.HandleGetPlans)
	planRouter.GET("/:id", v1Handler.HandleGetPlan)
	planRouter.POST("", v1Handler.HandleAdminMiddleware, v1Handler.HandleCreatePlan)
	planRouter.PUT("/:id", v1Handler.HandleAdminMiddleware, v1Handler.HandleUpdatePlan)
	planRouter.DELETE("/:id", v1Handler.HandleAdminMiddleware, v1Handler.HandleDeletePlan)

	userRouter := router.Group("/users", v1Handler.HandleAuthMiddleware, v1Handler.HandleAdminMiddleware)
	userRouter.POST("", v1Handler.HandleCreateUser)
	userRouter.GET("", v1Handler.HandleGetUsers)
	userRouter.PUT("/:id/reset-password", v1Handler.HandleResetPassword)
	userRouter.DELETE("/:id", v1Handler.HandleDeleteUser)
}
