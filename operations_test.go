package tedee

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Open_PollsUntilCompleted(t *testing.T) {
	var polls int32

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/my/lock/open":
			assert.Equal(t, http.MethodPost, r.Method)
			var body commandRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, 5, body.DeviceID)
			writeResult(w, Operation{OperationID: "op-1", Status: OperationPending})
		case "/my/device/operation/op-1":
			status := OperationPending
			if atomic.AddInt32(&polls, 1) >= 2 {
				status = OperationCompleted
			}
			writeResult(w, Operation{OperationID: "op-1", Status: status})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	op, err := client.Open(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, op.Completed())
	// pending, then completed
	assert.Equal(t, int32(2), atomic.LoadInt32(&polls))
}

func TestClient_Close_CompletedImmediately(t *testing.T) {
	var polls int32

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/my/lock/close":
			writeResult(w, Operation{OperationID: "op-2", Status: OperationCompleted})
		default:
			atomic.AddInt32(&polls, 1)
			writeResult(w, Operation{OperationID: "op-2", Status: OperationCompleted})
		}
	})

	op, err := client.Close(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, op.Completed())
	assert.Equal(t, int32(0), atomic.LoadInt32(&polls), "no polls when the command reports Completed")
}

func TestClient_PullSpring(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/my/lock/pull-spring":
			writeResult(w, Operation{OperationID: "op-3", Status: OperationPending})
		case "/my/device/operation/op-3":
			writeResult(w, Operation{OperationID: "op-3", Status: OperationCompleted})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	op, err := client.PullSpring(context.Background(), 9)
	require.NoError(t, err)
	assert.True(t, op.Completed())
}

func TestClient_Command_RetryReissuesFromScratch(t *testing.T) {
	// A failure during polling restarts the whole command, never the
	// poll loop alone.
	var posts, polls int32

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/my/lock/open":
			atomic.AddInt32(&posts, 1)
			writeResult(w, Operation{OperationID: "op-4", Status: OperationPending})
		case "/my/device/operation/op-4":
			if atomic.AddInt32(&polls, 1) == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			writeResult(w, Operation{OperationID: "op-4", Status: OperationCompleted})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}, WithRetry(&RetryConfig{MaxAttempts: 2, Interval: 10 * time.Millisecond}))

	op, err := client.Open(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, op.Completed())
	assert.Equal(t, int32(2), atomic.LoadInt32(&posts), "command should be re-issued after a poll failure")
}

func TestClient_Command_RetryExhausted(t *testing.T) {
	var posts int32

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&posts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}, WithRetry(&RetryConfig{MaxAttempts: 3, Interval: 10 * time.Millisecond}))

	_, err := client.Open(context.Background(), 5)
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&posts))
}

func TestClient_Command_InvalidDeviceID(t *testing.T) {
	client, _ := NewClient(testCreds)

	for _, call := range []func(context.Context, int) (*Operation, error){
		client.Open, client.Close, client.PullSpring,
	} {
		_, err := call(context.Background(), 0)
		assert.ErrorIs(t, err, ErrInvalidDeviceID)
	}
}

func TestClient_Command_InvalidatesLockCache(t *testing.T) {
	var listings int32

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/my/lock":
			atomic.AddInt32(&listings, 1)
			writeResult(w, []Lock{{ID: 5, Name: "Front Door"}})
		case "/my/lock/close":
			writeResult(w, Operation{OperationID: "op-5", Status: OperationCompleted})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}, WithCache(NewMemoryCache(), time.Minute))

	_, err := client.GetLocks(context.Background())
	require.NoError(t, err)

	_, err = client.Close(context.Background(), 5)
	require.NoError(t, err)

	_, err = client.GetLocks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&listings), "command should drop the cached listing")
}

func TestClient_GetOperation(t *testing.T) {
	t.Run("by id", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/my/device/operation/op-6", r.URL.Path)
			writeResult(w, Operation{OperationID: "op-6", Status: OperationPending})
		})

		op, err := client.GetOperation(context.Background(), "op-6")
		require.NoError(t, err)
		assert.False(t, op.Completed())
	})

	t.Run("empty id", func(t *testing.T) {
		client, _ := NewClient(testCreds)
		_, err := client.GetOperation(context.Background(), "")
		assert.ErrorIs(t, err, ErrEmptyOperationID)
	})
}

func TestClient_WaitForOperation(t *testing.T) {
	t.Run("waits until completed", func(t *testing.T) {
		var polls int32
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			status := OperationPending
			if atomic.AddInt32(&polls, 1) >= 3 {
				status = OperationCompleted
			}
			writeResult(w, Operation{OperationID: "op-7", Status: status})
		})

		op, err := client.WaitForOperation(context.Background(), "op-7")
		require.NoError(t, err)
		assert.True(t, op.Completed())
		assert.Equal(t, int32(3), atomic.LoadInt32(&polls))
	})

	t.Run("cancellation stops polling", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeResult(w, Operation{OperationID: "op-8", Status: OperationPending})
		})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := client.WaitForOperation(ctx, "op-8")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("empty id", func(t *testing.T) {
		client, _ := NewClient(testCreds)
		_, err := client.WaitForOperation(context.Background(), "")
		assert.ErrorIs(t, err, ErrEmptyOperationID)
	})
}
