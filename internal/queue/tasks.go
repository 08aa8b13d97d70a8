package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/noah-isme/taxcore/internal/httpapi"
)

// TaskTypeRecomputeBatch recomputes tax for a batch of orders off the request
// path.
const TaskTypeRecomputeBatch = "tax:recompute_batch"

// batchPayload is the asynq task body. It wraps the wire batch request with
// the id assigned at enqueue time.
type batchPayload struct {
	BatchID string               `json:"batch_id"`
	Request httpapi.BatchRequest `json:"request"`
}

// Client enqueues batch recomputation tasks.
type Client struct {
	inner *asynq.Client
}

// NewClient wraps an asynq client for batch enqueueing.
func NewClient(inner *asynq.Client) *Client {
	return &Client{inner: inner}
}

// EnqueueBatch assigns a batch id, serialises the request and hands it to
// asynq. The id is returned so the caller can poll for the stored result.
func (c *Client) EnqueueBatch(ctx context.Context, req httpapi.BatchRequest) (string, error) {
	batchID := uuid.NewString()
	payload, err := json.Marshal(batchPayload{BatchID: batchID, Request: req})
	if err != nil {
		return "", fmt.Errorf("marshal batch payload: %w", err)
	}
	task := asynq.NewTask(TaskTypeRecomputeBatch, payload)
	if _, err := c.inner.EnqueueContext(ctx, task); err != nil {
		return "", fmt.Errorf("enqueue %s: %w", TaskTypeRecomputeBatch, err)
	}
	return batchID, nil
}

// Close releases the underlying asynq client.
func (c *Client) Close() error {
	return c.inner.Close()
}
