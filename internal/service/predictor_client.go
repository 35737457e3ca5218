package service

import (
	"context"
	"credit_risk/internal/domain"
	"credit_risk/internal/processor"
	"credit_risk/pkg/crypto"
	"credit_risk/pkg/metrics"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

var (
	ErrUpstreamUnavailable     = errors.New("predictor upstream unavailable")
	ErrInvalidUpstreamResponse = errors.New("invalid predictor response")
)

type PredictorClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Retries int
}

// PredictorClient forwards form submissions unchanged to a remote /predict
// endpoint and rebuilds the tier locally from the probability it returns.
type PredictorClient struct {
	client  *resty.Client
	engine  *processor.RiskEngine
	signer  *crypto.Signer
	metrics *metrics.MetricsCollector
	logger  *slog.Logger
}

func NewPredictorClient(
	cfg PredictorClientConfig,
	engine *processor.RiskEngine,
	signer *crypto.Signer,
	metricsCollector *metrics.MetricsCollector,
	logger *slog.Logger,
) *PredictorClient {
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &PredictorClient{
		client:  client,
		engine:  engine,
		signer:  signer,
		metrics: metricsCollector,
		logger:  logger,
	}
}

func (c *PredictorClient) Predict(ctx context.Context, req domain.CustomerData) (*domain.Evaluation, error) {
	startTime := time.Now()

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/predict")
	if err != nil {
		return nil, c.fail(ctx, "transport", fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err))
	}

	if resp.IsError() {
		return nil, c.fail(ctx, "status", fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode()))
	}

	body := resp.Body()
	if err := c.signer.Verify(body, resp.Header().Get(crypto.SignatureHeader)); err != nil {
		return nil, c.fail(ctx, "signature", fmt.Errorf("%w: %w", ErrInvalidUpstreamResponse, err))
	}

	if !gjson.ValidBytes(body) {
		return nil, c.fail(ctx, "decode", fmt.Errorf("%w: body is not JSON", ErrInvalidUpstreamResponse))
	}

	prob := gjson.GetBytes(body, "probabilidad")
	if !prob.Exists() || prob.Type != gjson.Number {
		return nil, c.fail(ctx, "decode", fmt.Errorf("%w: probabilidad missing", ErrInvalidUpstreamResponse))
	}

	probability := prob.Float()
	if probability < 0 || probability > 1 {
		return nil, c.fail(ctx, "range", fmt.Errorf("%w: probabilidad %v outside [0,1]", ErrInvalidUpstreamResponse, probability))
	}

	tier := c.engine.ClassifyProbability(probability)
	evaluationID := gjson.GetBytes(body, "evaluacion_id").String()
	if evaluationID == "" {
		evaluationID = uuid.NewString()
	}

	evaluation := &domain.Evaluation{
		ID:      evaluationID,
		Profile: req.ToProfile(),
		Score: domain.RiskScore{
			Probability:     probability,
			Raw:             probability,
			Tier:            tier,
			Recommendations: tier.Recommendations(),
		},
		EvaluatedAt: time.Now(),
	}

	c.logger.InfoContext(ctx, "Remote prediction received",
		slog.String("evaluation_id", evaluation.ID),
		slog.String("tier", string(tier)),
		slog.Float64("probability", probability),
		slog.Bool("upstream_flag", gjson.GetBytes(body, "mal_pagador").Bool()),
		slog.Duration("duration", time.Since(startTime)))

	return evaluation, nil
}

func (c *PredictorClient) fail(ctx context.Context, reason string, err error) error {
	if c.metrics != nil {
		c.metrics.RecordUpstreamError(reason)
	}
	c.logger.ErrorContext(ctx, "Remote prediction failed",
		slog.String("reason", reason),
		slog.String("error", err.Error()))
	return err
}
