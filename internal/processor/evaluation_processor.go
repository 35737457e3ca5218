package processor

import (
	"context"
	"credit_risk/internal/domain"
	"credit_risk/pkg/validator"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// EvaluationProcessor validates a profile and runs it through the local engine.
type EvaluationProcessor struct {
	engine    *RiskEngine
	validator *validator.ProfileValidator
	logger    *slog.Logger
	now       func() time.Time
}

func NewEvaluationProcessor(engine *RiskEngine, logger *slog.Logger) *EvaluationProcessor {
	if logger == nil {
		logger = slog.Default()
	}

	return &EvaluationProcessor{
		engine:    engine,
		validator: validator.NewProfileValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

func (p *EvaluationProcessor) Evaluate(ctx context.Context, profile domain.ApplicantProfile) (*domain.Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := p.validator.ValidateProfile(profile); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	score := p.engine.Score(profile)
	evaluation := &domain.Evaluation{
		ID:          uuid.NewString(),
		Profile:     profile,
		Score:       score,
		EvaluatedAt: p.now(),
	}

	p.logger.InfoContext(ctx, "Applicant evaluated",
		slog.String("evaluation_id", evaluation.ID),
		slog.String("tier", string(score.Tier)),
		slog.Float64("probability", score.Probability),
		slog.Float64("raw_score", score.Raw),
		slog.Int("rules_fired", len(score.Factors)))

	return evaluation, nil
}

// Predict evaluates a form submission with the local engine.
func (p *EvaluationProcessor) Predict(ctx context.Context, req domain.CustomerData) (*domain.Evaluation, error) {
	return p.Evaluate(ctx, req.ToProfile())
}
