package api

import (
	"bytes"
	"context"
	"credit_risk/internal/domain"
	"credit_risk/internal/processor"
	"credit_risk/pkg/crypto"
	"credit_risk/pkg/metrics"
	"credit_risk/pkg/validator"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	maxBodyBytes = 64 << 10

	// predictionUnavailable is the only failure text /api/predict exposes.
	predictionUnavailable = "Error al obtener predicción de morosidad."
)

// Predictor evaluates a validated form submission. Both the local processor
// and the remote predictor client satisfy it.
type Predictor interface {
	Predict(ctx context.Context, req domain.CustomerData) (*domain.Evaluation, error)
}

type APIHandler struct {
	processor      *processor.EvaluationProcessor
	predictor      Predictor
	validator      *validator.ProfileValidator
	metrics        *metrics.MetricsCollector
	signer         *crypto.Signer
	logger         *slog.Logger
	requestTimeout time.Duration
}

// NewAPIHandler wires the handlers. A nil predictor makes /api/predict use
// the local processor.
func NewAPIHandler(
	processor *processor.EvaluationProcessor,
	predictor Predictor,
	metrics *metrics.MetricsCollector,
	signer *crypto.Signer,
	logger *slog.Logger,
) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if predictor == nil {
		predictor = processor
	}

	return &APIHandler{
		processor:      processor,
		predictor:      predictor,
		validator:      validator.NewProfileValidator(),
		metrics:        metrics,
		signer:         signer,
		logger:         logger,
		requestTimeout: 30 * time.Second,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// PredictHandler scores the applicant with the in-process engine.
func (h *APIHandler) PredictHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	evaluation, err := h.processor.Predict(ctx, req)
	h.record(startTime, evaluation, err)

	if err != nil {
		if errors.Is(err, validator.ErrInvalidProfile) {
			h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
			return
		}
		h.logger.ErrorContext(ctx, "Evaluation failed", slog.String("error", err.Error()))
		h.sendError(w, "Evaluation failed", http.StatusInternalServerError, "PROCESSING_ERROR")
		return
	}

	h.sendPrediction(w, evaluation)
}

// GatewayPredictHandler forwards to the configured predictor and hides every
// failure behind a single 503 message.
func (h *APIHandler) GatewayPredictHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	evaluation, err := h.predictor.Predict(ctx, req)
	h.record(startTime, evaluation, err)

	if err != nil {
		h.logger.ErrorContext(ctx, "Prediction unavailable", slog.String("error", err.Error()))
		h.sendError(w, predictionUnavailable, http.StatusServiceUnavailable, "PREDICTION_UNAVAILABLE")
		return
	}

	h.sendPrediction(w, evaluation)
}

func (h *APIHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	}
	h.sendJSON(w, response, http.StatusOK)
}

// decodeRequest writes a 400 and returns false when the body is unusable.
// The decoded request is passed on as sent; only validation sees the profile.
func (h *APIHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (domain.CustomerData, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || !json.Valid(body) {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return domain.CustomerData{}, false
	}

	if err := h.validator.ValidateRequest(body); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return domain.CustomerData{}, false
	}

	var req domain.CustomerData
	if err := json.Unmarshal(body, &req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return domain.CustomerData{}, false
	}

	if err := h.validator.ValidateProfile(req.ToProfile()); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return domain.CustomerData{}, false
	}

	return req, true
}

func (h *APIHandler) record(startTime time.Time, evaluation *domain.Evaluation, err error) {
	if h.metrics == nil {
		return
	}
	if err != nil {
		h.metrics.RecordEvaluation(time.Since(startTime), 0, "", false)
		return
	}
	h.metrics.RecordEvaluation(time.Since(startTime), evaluation.Score.Probability, string(evaluation.Score.Tier), true)
}

func (h *APIHandler) sendPrediction(w http.ResponseWriter, evaluation *domain.Evaluation) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(domain.NewPredictionResponse(evaluation.ID, evaluation.Score)); err != nil {
		h.logger.Error("Failed to encode prediction", slog.String("error", err.Error()))
		h.sendError(w, "Evaluation failed", http.StatusInternalServerError, "PROCESSING_ERROR")
		return
	}

	if h.signer.Enabled() {
		w.Header().Set(crypto.SignatureHeader, h.signer.Sign(buf.Bytes()))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())

	h.logger.Info("Prediction served",
		slog.String("evaluation_id", evaluation.ID),
		slog.String("tier", string(evaluation.Score.Tier)),
		slog.Float64("probability", evaluation.Score.Probability))
}

func (h *APIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func (h *APIHandler) sendError(w http.ResponseWriter, message string, statusCode int, code string) {
	errorResponse := ErrorResponse{
		Error: message,
		Code:  code,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse)

	h.logger.Warn("API error response",
		slog.String("message", message),
		slog.String("code", code),
		slog.Int("status", statusCode))
}

func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /predict", h.PredictHandler)
	mux.HandleFunc("POST /api/predict", h.GatewayPredictHandler)
	mux.HandleFunc("GET /api/health", h.HealthCheckHandler)
}
