package tedee

import (
	"context"
)

// LockAPI defines the interface for Tedee API operations.
// Client implements this interface, enabling mocking for tests.
type LockAPI interface {
	// Authentication
	GetAccessToken(ctx context.Context) (string, error)
	InvalidateToken()

	// Locks
	GetLocks(ctx context.Context) ([]Lock, error)
	GetLock(ctx context.Context, deviceID int) (*Lock, error)
	GetLockByName(ctx context.Context, name string) (*Lock, error)
	SyncLocks(ctx context.Context) ([]LockSync, error)
	SyncLock(ctx context.Context, deviceID int) (*LockSync, error)

	// Commands
	Open(ctx context.Context, deviceID int) (*Operation, error)
	Close(ctx context.Context, deviceID int) (*Operation, error)
	PullSpring(ctx context.Context, deviceID int) (*Operation, error)
	GetOperation(ctx context.Context, operationID string) (*Operation, error)
	WaitForOperation(ctx context.Context, operationID string) (*Operation, error)

	// Activity
	GetDeviceActivity(ctx context.Context, deviceID, count int) ([]DeviceActivity, error)
	GetLatestDeviceActivity(ctx context.Context, deviceID int) (*DeviceActivity, error)
}

// Ensure Client implements LockAPI at compile time.
var _ LockAPI = (*Client)(nil)
