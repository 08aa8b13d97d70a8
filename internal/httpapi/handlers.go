package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/taxcore/internal/common"
	"github.com/noah-isme/taxcore/internal/jurisdiction"
	"github.com/noah-isme/taxcore/internal/money"
	"github.com/noah-isme/taxcore/internal/rules"
	"github.com/noah-isme/taxcore/internal/tax"
)

// RegistrySource resolves the registry to compute with for a requested
// snapshot version. The empty version selects the active snapshot.
type RegistrySource interface {
	Registry(ctx context.Context, version string) (*tax.Registry, error)
}

// BatchEnqueuer hands a batch off to the background worker and returns the
// batch id the caller can poll.
type BatchEnqueuer interface {
	EnqueueBatch(ctx context.Context, req BatchRequest) (string, error)
}

// BatchResultReader fetches a stored batch outcome by id.
type BatchResultReader interface {
	BatchResult(ctx context.Context, batchID string) (BatchResult, bool, error)
}

// Handler serves the tax computation endpoints.
type Handler struct {
	source   RegistrySource
	validate *validator.Validate
	enqueuer BatchEnqueuer
	results  BatchResultReader
	logger   zerolog.Logger
}

// NewHandler wires the computation registry into HTTP. Enqueuer and results
// may be nil when the batch endpoints are not mounted.
func NewHandler(source RegistrySource, enqueuer BatchEnqueuer, results BatchResultReader, logger zerolog.Logger) *Handler {
	return &Handler{
		source:   source,
		validate: validator.New(),
		enqueuer: enqueuer,
		results:  results,
		logger:   logger,
	}
}

// Routes mounts the v1 tax endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/v1/tax/compute", h.Compute)
	if h.enqueuer != nil {
		r.Post("/v1/tax/compute/batch", h.ComputeBatch)
	}
	if h.results != nil {
		r.Get("/v1/tax/batch/{batchID}", h.GetBatch)
	}
}

// Compute runs every registered tax type over the submitted order and returns
// the adjusted order.
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "invalid_payload", "request body is not a valid compute request", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "invalid_payload", err.Error(), nil)
		return
	}
	registry, err := h.source.Registry(r.Context(), req.SnapshotVersion)
	if err != nil {
		if errors.Is(err, rules.ErrRuleLookup) {
			common.JSONError(w, http.StatusUnprocessableEntity, "snapshot_not_found", err.Error(), nil)
			return
		}
		h.logger.Error().Err(err).Str("version", req.SnapshotVersion).Msg("resolve snapshot")
		common.JSONError(w, http.StatusInternalServerError, "snapshot_lookup_failed", "could not resolve rule snapshot", nil)
		return
	}
	resp, appErr := ComputeOrder(r.Context(), registry, req.Order)
	if appErr != nil {
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSON(w, http.StatusOK, resp)
}

// ComputeOrder converts a wire order, runs the registry over it and renders
// the result. The batch worker reuses it so both paths agree on semantics.
func ComputeOrder(ctx context.Context, registry *tax.Registry, in OrderInput) (ComputeResponse, *common.AppError) {
	o, err := in.ToDomain()
	if err != nil {
		var mismatch *money.CurrencyMismatchError
		if errors.As(err, &mismatch) {
			return ComputeResponse{}, common.NewAppError("currency_mismatch", err.Error(), http.StatusUnprocessableEntity, err)
		}
		return ComputeResponse{}, common.NewAppError("invalid_payload", err.Error(), http.StatusBadRequest, err)
	}
	adjusted, err := registry.Run(ctx, o)
	if err != nil {
		switch {
		case errors.Is(err, rules.ErrRuleLookup):
			return ComputeResponse{}, common.NewAppError("rule_lookup_failed", err.Error(), http.StatusUnprocessableEntity, err)
		case errors.Is(err, jurisdiction.ErrAmbiguousJurisdiction):
			// Ambiguity is recovered inside the registry; seeing it here
			// means a plugin surfaced it anyway, treat as unprocessable.
			return ComputeResponse{}, common.NewAppError("ambiguous_jurisdiction", err.Error(), http.StatusUnprocessableEntity, err)
		default:
			var mismatch *money.CurrencyMismatchError
			if errors.As(err, &mismatch) {
				return ComputeResponse{}, common.NewAppError("currency_mismatch", err.Error(), http.StatusUnprocessableEntity, err)
			}
			return ComputeResponse{}, common.NewAppError("computation_failed", err.Error(), http.StatusInternalServerError, err)
		}
	}
	resp, err := NewComputeResponse(adjusted)
	if err != nil {
		return ComputeResponse{}, common.NewAppError("computation_failed", err.Error(), http.StatusInternalServerError, err)
	}
	return resp, nil
}

// ComputeBatch validates and enqueues a batch for the worker, replying 202
// with the batch id.
func (h *Handler) ComputeBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "invalid_payload", "request body is not a valid batch request", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "invalid_payload", err.Error(), nil)
		return
	}
	batchID, err := h.enqueuer.EnqueueBatch(r.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("enqueue batch")
		common.JSONError(w, http.StatusServiceUnavailable, "enqueue_failed", "could not enqueue batch", nil)
		return
	}
	common.JSON(w, http.StatusAccepted, map[string]string{
		"batch_id": batchID,
		"status":   BatchStatusPending,
	})
}

// GetBatch returns the stored outcome of a previously enqueued batch.
func (h *Handler) GetBatch(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	result, found, err := h.results.BatchResult(r.Context(), batchID)
	if err != nil {
		h.logger.Error().Err(err).Str("batch_id", batchID).Msg("load batch result")
		common.JSONError(w, http.StatusInternalServerError, "batch_lookup_failed", "could not load batch result", nil)
		return
	}
	if !found {
		common.JSONError(w, http.StatusNotFound, "batch_not_found", "no result stored for this batch", nil)
		return
	}
	common.JSON(w, http.StatusOK, result)
}
