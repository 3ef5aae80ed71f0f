package tedee

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OperationStatus is the status of a server-side asynchronous command.
type OperationStatus string

// Operation status constants. Anything other than Completed is treated
// as in progress.
const (
	OperationPending   OperationStatus = "Pending"
	OperationCompleted OperationStatus = "Completed"
)

// Operation is an asynchronous command record tracked by the server.
type Operation struct {
	OperationID string          `json:"operationId"`
	Status      OperationStatus `json:"status"`
	Result      int             `json:"result,omitempty"`
}

// Completed reports whether the operation reached its terminal status.
func (o *Operation) Completed() bool {
	return o != nil && o.Status == OperationCompleted
}

// commandRequest is the body of a lock command POST.
type commandRequest struct {
	DeviceID int `json:"deviceId"`
}

// Open unlocks the lock and blocks until the operation completes.
func (c *Client) Open(ctx context.Context, deviceID int) (*Operation, error) {
	return c.command(ctx, "open", deviceID)
}

// Close locks the lock and blocks until the operation completes.
func (c *Client) Close(ctx context.Context, deviceID int) (*Operation, error) {
	return c.command(ctx, "close", deviceID)
}

// PullSpring pulls the spring latch and blocks until the operation completes.
func (c *Client) PullSpring(ctx context.Context, deviceID int) (*Operation, error) {
	return c.command(ctx, "pull-spring", deviceID)
}

// command issues a lock command and polls the resulting operation until
// it completes. The retry policy wraps the whole command+poll sequence:
// a failure anywhere restarts it from the POST, never from mid-poll.
func (c *Client) command(ctx context.Context, action string, deviceID int) (*Operation, error) {
	if deviceID <= 0 {
		return nil, ErrInvalidDeviceID
	}

	op, err := withRetry(ctx, c.retry, func() (*Operation, error) {
		return c.runCommand(ctx, action, deviceID)
	})
	c.LogLockCommand(ctx, deviceID, action, err)
	if err != nil {
		return nil, err
	}

	// State changed; a cached lock listing is stale now.
	c.InvalidateLocks()
	return op, nil
}

// runCommand performs one command+poll attempt without any retries.
func (c *Client) runCommand(ctx context.Context, action string, deviceID int) (*Operation, error) {
	data, err := c.do(ctx, http.MethodPost, "/my/lock/"+action, commandRequest{DeviceID: deviceID})
	if err != nil {
		return nil, err
	}

	var op Operation
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, fmt.Errorf("failed to parse operation: %w (body: %s)", err, truncatePreview(data))
	}

	if op.Completed() {
		return &op, nil
	}
	return c.pollOperation(ctx, op.OperationID)
}

// GetOperation returns an operation record by ID, with the resource
// retry policy applied.
func (c *Client) GetOperation(ctx context.Context, operationID string) (*Operation, error) {
	if operationID == "" {
		return nil, ErrEmptyOperationID
	}

	data, err := c.get(ctx, "/my/device/operation/"+operationID)
	if err != nil {
		return nil, err
	}
	return parseOperation(data)
}

// WaitForOperation polls an operation until it reports Completed. There
// is no upper bound on the number of polls; cancellation comes from ctx.
// Poll requests are single attempts, so a transient failure surfaces to
// the caller rather than being retried mid-poll.
func (c *Client) WaitForOperation(ctx context.Context, operationID string) (*Operation, error) {
	if operationID == "" {
		return nil, ErrEmptyOperationID
	}
	return c.pollOperation(ctx, operationID)
}

// pollOperation sleeps one poll interval, fetches the operation, and
// repeats until it completes.
func (c *Client) pollOperation(ctx context.Context, operationID string) (*Operation, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		data, err := c.do(ctx, http.MethodGet, "/my/device/operation/"+operationID, nil)
		if err != nil {
			return nil, err
		}

		op, err := parseOperation(data)
		if err != nil {
			return nil, err
		}
		if op.Completed() {
			return op, nil
		}
	}
}

func parseOperation(data json.RawMessage) (*Operation, error) {
	var op Operation
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, fmt.Errorf("failed to parse operation: %w (body: %s)", err, truncatePreview(data))
	}
	return &op, nil
}
