package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/taxcore/internal/httpapi"
	"github.com/noah-isme/taxcore/internal/obs"
	"github.com/noah-isme/taxcore/internal/rules"
)

const defaultResultTTL = 24 * time.Hour

// ResultStore persists batch outcomes in redis keyed by batch id.
type ResultStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewResultStore builds a store. ttl <= 0 falls back to 24h.
func NewResultStore(client *redis.Client, prefix string, ttl time.Duration) *ResultStore {
	if prefix == "" {
		prefix = "taxcore:batch"
	}
	if ttl <= 0 {
		ttl = defaultResultTTL
	}
	return &ResultStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *ResultStore) key(batchID string) string {
	return s.prefix + ":" + batchID
}

// Put stores a batch result with the configured TTL.
func (s *ResultStore) Put(ctx context.Context, result httpapi.BatchResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal batch result: %w", err)
	}
	if err := s.client.Set(ctx, s.key(result.BatchID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store batch result: %w", err)
	}
	return nil
}

// BatchResult loads a stored result. The second return is false when no
// result exists for the id.
func (s *ResultStore) BatchResult(ctx context.Context, batchID string) (httpapi.BatchResult, bool, error) {
	raw, err := s.client.Get(ctx, s.key(batchID)).Bytes()
	if err == redis.Nil {
		return httpapi.BatchResult{}, false, nil
	}
	if err != nil {
		return httpapi.BatchResult{}, false, fmt.Errorf("load batch result: %w", err)
	}
	var result httpapi.BatchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return httpapi.BatchResult{}, false, fmt.Errorf("decode batch result: %w", err)
	}
	return result, true, nil
}

// Worker processes batch recomputation tasks.
type Worker struct {
	source  httpapi.RegistrySource
	results *ResultStore
	logger  zerolog.Logger
}

// NewWorker builds the task handler for the batch task type.
func NewWorker(source httpapi.RegistrySource, results *ResultStore, logger zerolog.Logger) *Worker {
	return &Worker{source: source, results: results, logger: logger}
}

// Register mounts the worker's handlers on an asynq mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypeRecomputeBatch, w.HandleRecomputeBatch)
}

// HandleRecomputeBatch computes every order in the batch. A failing order is
// recorded in the result and counted, never aborts the rest of the batch.
func (w *Worker) HandleRecomputeBatch(ctx context.Context, task *asynq.Task) error {
	var payload batchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w: %w", task.Type(), err, asynq.SkipRetry)
	}

	result := httpapi.BatchResult{
		BatchID: payload.BatchID,
		Status:  httpapi.BatchStatusDone,
	}
	registry, err := w.source.Registry(ctx, payload.Request.SnapshotVersion)
	if err != nil {
		if !errors.Is(err, rules.ErrRuleLookup) {
			return fmt.Errorf("batch %s: resolve snapshot: %w", payload.BatchID, err)
		}
		// Unknown version is deterministic, retrying will not help. Record
		// the failure for every order and finish.
		for i := range payload.Request.Orders {
			result.Orders = append(result.Orders, httpapi.BatchOrderResult{Index: i, Error: err.Error()})
			result.Failed++
			w.countOrder("error")
		}
		if err := w.results.Put(ctx, result); err != nil {
			return fmt.Errorf("batch %s: %w", payload.BatchID, err)
		}
		w.logger.Warn().Str("batch_id", payload.BatchID).Err(err).Msg("batch snapshot unavailable")
		return nil
	}
	for i, in := range payload.Request.Orders {
		resp, appErr := httpapi.ComputeOrder(ctx, registry, in)
		entry := httpapi.BatchOrderResult{Index: i}
		if appErr != nil {
			entry.Error = appErr.Message
			result.Failed++
			w.countOrder("error")
			w.logger.Warn().
				Str("batch_id", payload.BatchID).
				Int("order_index", i).
				Str("code", appErr.Code).
				Err(appErr).
				Msg("batch order failed")
		} else {
			entry.OK = true
			entry.Result = &resp
			result.Processed++
			w.countOrder("ok")
		}
		result.Orders = append(result.Orders, entry)
	}

	if err := w.results.Put(ctx, result); err != nil {
		return fmt.Errorf("batch %s: %w", payload.BatchID, err)
	}
	w.logger.Info().
		Str("batch_id", payload.BatchID).
		Int("processed", result.Processed).
		Int("failed", result.Failed).
		Msg("batch complete")
	return nil
}

func (w *Worker) countOrder(outcome string) {
	if obs.BatchOrdersTotal != nil {
		obs.BatchOrdersTotal.WithLabelValues(outcome).Inc()
	}
}
