package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskdesk/taskdesk/internal/models"
	"github.com/taskdesk/taskdesk/internal/services"
)

type planResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	MaxDays     int                  `json:"maxDays"`
	Subtasks    []models.PlanSubtask `json:"subtasks"`
	Variants    []models.PlanVariant `json:"variants,omitempty"`
	CreatedBy   string               `json:"createdBy"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

func newPlanResponse(plan *models.Plan) planResponse {
	return planResponse{
		ID:          plan.ID,
		Name:        plan.Name,
		Description: plan.Description,
		MaxDays:     plan.MaxDays,
		Subtasks:    plan.Subtasks,
		Variants:    plan.Variants,
		CreatedBy:   plan.CreatedBy,
		CreatedAt:   plan.CreatedAt,
		UpdatedAt:   plan.UpdatedAt,
	}
}

type createPlanRequest struct {
	Name        string               `json:"name" binding:"required,max=255"`
	Description string               `json:"description"`
	MaxDays     int                  `json:"maxDays"`
	Subtasks    []models.PlanSubtask `json:"subtasks" binding:"required,min=1"`
	Variants    []models.PlanVariant `json:"variants"`
}

func (h *handlerImpl) HandleCreatePlan(c *gin.Context) {
	actor, ok := getActorFromContext(c)
	if !ok {
		h.logger.Error().Msg("no actor found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req createPlanRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	plan, err := h.plans.CreatePlan(c, actor, services.CreatePlanParams{
		Name:        req.Name,
		Description: req.Description,
		MaxDays:     req.MaxDays,
		Subtasks:    req.Subtasks,
		Variants:    req.Variants,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create plan")
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newPlanResponse(plan))
}

func (h *handlerImpl) HandleGetPlans(c *gin.Context) {
	plans, err := h.plans.GetPlans(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get plans")
		abortServiceError(c, err)
		return
	}

	response := make([]planResponse, len(plans))
	for i, plan := range plans {
		response[i] = newPlanResponse(plan)
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleGetPlan(c *gin.Context) {
	planID := c.Param("id")
	if planID == "" {
		h.logger.Error().Msg("no plan id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	plan, err := h.plans.GetPlanByID(c, planID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("plan_id", planID).
			Msg("failed to get plan")
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPlanResponse(plan))
}

type updatePlanRequest struct {
	Name        *string              `json:"name"`
	Description *string              `json:"description"`
	MaxDays     *int                 `json:"maxDays"`
	Subtasks    []models.PlanSubtask `json:"subtasks"`
	Variants    []models.PlanVariant `json:"variants"`
}

func (h *handlerImpl) HandleUpdatePlan(c *gin.Context) {
	planID := c.Param("id")
	if planID == "" {
		h.logger.Error().Msg("no plan id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	var req updatePlanRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	plan, err := h.plans.UpdatePlan(c, planID, services.UpdatePlanParams{
		Name:        req.Name,
		Description: req.Description,
		MaxDays:     req.MaxDays,
		Subtasks:    req.Subtasks,
		Variants:    req.Variants,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("plan_id", planID).
			Msg("failed to update plan")
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPlanResponse(plan))
}

func (h *handlerImpl) HandleDeletePlan(c *gin.Context) {
	planID := c.Param("id")
	if planID == "" {
		h.logger.Error().Msg("no plan id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	err := h.plans.DeletePlan(c, planID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("plan_id", planID).
			Msg("failed to delete plan")
		abortServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
