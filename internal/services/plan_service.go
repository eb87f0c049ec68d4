package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/taskdesk/taskdesk/internal/models"
)

type planServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewPlanService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) PlanService {
	return &planServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

const selectPlanColumns = `
SELECT id,
       name,
       description,
       max_days,
       subtasks,
       variants,
       created_by,
       created_at,
       updated_at
FROM plans
`

func (s *planServiceImpl) CreatePlan(ctx context.Context, actor *models.User, params CreatePlanParams) (*models.Plan, error) {
	if params.Name == "" {
		return nil, ErrMissingRequiredField
	}
	if len(params.Subtasks) == 0 {
		return nil, ErrNoSubtasks
	}

	maxDays := params.MaxDays
	if maxDays <= 0 {
		maxDays = 7
	}

	now := time.Now()
	plan := &models.Plan{
		Name:        params.Name,
		Description: params.Description,
		MaxDays:     maxDays,
		Subtasks:    params.Subtasks,
		Variants:    params.Variants,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	planUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate plan uuid")
		return nil, err
	}
	plan.ID = planUUID.String()

	subtasksDoc, variantsDoc, err := marshalPlanDocs(plan)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to marshal plan documents")
		return nil, err
	}

	const insertPlanQuery = `
INSERT INTO plans (id,
                   name,
                   description,
                   max_days,
                   subtasks,
                   variants,
                   created_by,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertPlanQuery,
		plan.ID,
		plan.Name,
		plan.Description,
		plan.MaxDays,
		subtasksDoc,
		variantsDoc,
		plan.CreatedBy,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert plan")
		return nil, err
	}
	s.logger.Debug().
		Str("plan_id", plan.ID).
		Msg("inserted plan")

	s.logger.Info().
		Str("plan_id", plan.ID).
		Str("name", plan.Name).
		Msg("created plan")
	return plan, nil
}

func (s *planServiceImpl) GetPlans(ctx context.Context) ([]*models.Plan, error) {
	rows, err := s.pgPool.Query(ctx, selectPlanColumns+`ORDER BY created_at DESC`)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select plans")
		return nil, err
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan plan")
			return nil, err
		}
		plans = append(plans, plan)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(plans)).
		Msg("selected plans")

	return plans, nil
}

func (s *planServiceImpl) GetPlanByID(ctx context.Context, id string) (*models.Plan, error) {
	plan, err := s.selectPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("plan_id", plan.ID).
		Msg("selected plan by id")
	return plan, nil
}

func (s *planServiceImpl) UpdatePlan(ctx context.Context, id string, params UpdatePlanParams) (*models.Plan, error) {
	plan, err := s.selectPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		plan.Name = *params.Name
	}
	if params.Description != nil {
		plan.Description = *params.Description
	}
	if params.MaxDays != nil && *params.MaxDays > 0 {
		plan.MaxDays = *params.MaxDays
	}
	if params.Subtasks != nil {
		plan.Subtasks = params.Subtasks
	}
	if params.Variants != nil {
		plan.Variants = params.Variants
	}
	plan.UpdatedAt = time.Now()

	subtasksDoc, variantsDoc, err := marshalPlanDocs(plan)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("plan_id", plan.ID).
			Msg("failed to marshal plan documents")
		return nil, err
	}

	const updatePlanQuery = `
UPDATE plans
SET name = $1,
    description = $2,
    max_days = $3,
    subtasks = $4,
    variants = $5,
    updated_at = $6
WHERE id = $7
`
	_, err = s.pgPool.Exec(
		ctx,
		updatePlanQuery,
		plan.Name,
		plan.Description,
		plan.MaxDays,
		subtasksDoc,
		variantsDoc,
		plan.UpdatedAt,
		plan.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("plan_id", plan.ID).
			Msg("failed to update plan")
		return nil, err
	}

	s.logger.Info().
		Str("plan_id", plan.ID).
		Msg("updated plan")
	return plan, nil
}

func (s *planServiceImpl) DeletePlan(ctx context.Context, id string) error {
	const deletePlanQuery = `
DELETE FROM plans
WHERE id = $1
`
	tag, err := s.pgPool.Exec(ctx, deletePlanQuery, id)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("plan_id", id).
			Msg("failed to delete plan")
		return err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Error().
			Str("plan_id", id).
			Msg("plan not found")
		return ErrPlanNotFound
	}

	s.logger.Info().
		Str("plan_id", id).
		Msg("deleted plan")
	return nil
}

func (s *planServiceImpl) selectPlan(ctx context.Context, id string) (*models.Plan, error) {
	row := s.pgPool.QueryRow(ctx, selectPlanColumns+`WHERE id = $1`, id)
	plan, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("plan_id", id).
				Msg("plan not found")
			return nil, ErrPlanNotFound
		}

		s.logger.Error().
			Err(err).
			Str("plan_id", id).
			Msg("failed to select plan")
		return nil, err
	}
	return plan, nil
}

func marshalPlanDocs(plan *models.Plan) (subtasks, variants []byte, err error) {
	subtasks, err = json.Marshal(plan.Subtasks)
	if err == nil {
		variants, err = json.Marshal(plan.Variants)
	}
	if err != nil {
		return nil, nil, err
	}
	return subtasks, variants, nil
}

func scanPlan(row pgx.Row) (*models.Plan, error) {
	plan := new(models.Plan)
	var subtasksDoc, variantsDoc []byte

	err := row.Scan(
		&plan.ID,
		&plan.Name,
		&plan.Description,
		&plan.MaxDays,
		&subtasksDoc,
		&variantsDoc,
		&plan.CreatedBy,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	err = unmarshalDoc(subtasksDoc, &plan.Subtasks)
	if err == nil {
		err = unmarshalDoc(variantsDoc, &plan.Variants)
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}
