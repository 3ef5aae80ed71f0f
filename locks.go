package tedee

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// LockState is the numeric lock state reported by the API.
type LockState int

// Lock state constants.
const (
	LockStateUncalibrated LockState = 0
	LockStateCalibrating  LockState = 1
	LockStateUnlocked     LockState = 2
	LockStateSemiLocked   LockState = 3
	LockStateUnlocking    LockState = 4
	LockStateLocking      LockState = 5
	LockStateLocked       LockState = 6
	LockStatePulled       LockState = 7
	LockStatePulling      LockState = 8
	LockStateUnknown      LockState = 9
	LockStateUpdating     LockState = 18
)

// String returns a human-readable name for the lock state.
func (s LockState) String() string {
	switch s {
	case LockStateUncalibrated:
		return "uncalibrated"
	case LockStateCalibrating:
		return "calibrating"
	case LockStateUnlocked:
		return "unlocked"
	case LockStateSemiLocked:
		return "semi-locked"
	case LockStateUnlocking:
		return "unlocking"
	case LockStateLocking:
		return "locking"
	case LockStateLocked:
		return "locked"
	case LockStatePulled:
		return "pulled"
	case LockStatePulling:
		return "pulling"
	case LockStateUpdating:
		return "updating"
	default:
		return "unknown"
	}
}

// DeviceSettings holds the lock's configuration as reported by the API.
type DeviceSettings struct {
	AutoLockEnabled     bool `json:"autoLockEnabled,omitempty"`
	AutoLockDelay       int  `json:"autoLockDelay,omitempty"`
	PullSpringEnabled   bool `json:"pullSpringEnabled,omitempty"`
	PullSpringDuration  int  `json:"pullSpringDuration,omitempty"`
	ButtonLockEnabled   bool `json:"buttonLockEnabled,omitempty"`
	ButtonUnlockEnabled bool `json:"buttonUnlockEnabled,omitempty"`
}

// LockProperties is the point-in-time state of a lock.
type LockProperties struct {
	State        LockState `json:"state"`
	BatteryLevel int       `json:"batteryLevel,omitempty"`
	IsCharging   bool      `json:"isCharging,omitempty"`
	IsConnected  bool      `json:"isConnected,omitempty"`
}

// IsLocked reports whether the lock is in the locked state.
func (p *LockProperties) IsLocked() bool {
	return p != nil && p.State == LockStateLocked
}

// IsUnlocked reports whether the lock is in the unlocked state.
func (p *LockProperties) IsUnlocked() bool {
	return p != nil && p.State == LockStateUnlocked
}

// SoftwareVersion is a firmware component version reported for a device.
type SoftwareVersion struct {
	SoftwareType    int    `json:"softwareType"`
	Version         string `json:"version"`
	UpdateAvailable bool   `json:"updateAvailable,omitempty"`
}

// Lock represents a Tedee lock device.
type Lock struct {
	ID               int               `json:"id"`
	Name             string            `json:"name"`
	SerialNumber     string            `json:"serialNumber,omitempty"`
	Type             int               `json:"type,omitempty"`
	Revision         int               `json:"revision,omitempty"`
	Created          string            `json:"created,omitempty"`
	SoftwareVersions []SoftwareVersion `json:"softwareVersions,omitempty"`
	DeviceSettings   *DeviceSettings   `json:"deviceSettings,omitempty"`
	LockProperties   *LockProperties   `json:"lockProperties,omitempty"`
}

// LockSync is a point-in-time state snapshot for a lock, keyed by its id.
type LockSync struct {
	ID             int             `json:"id"`
	Revision       int             `json:"revision,omitempty"`
	LockProperties *LockProperties `json:"lockProperties,omitempty"`
}

// GetLocks returns all locks associated with the account.
func (c *Client) GetLocks(ctx context.Context) ([]Lock, error) {
	if locks, ok := c.locksFromCache(); ok {
		return locks, nil
	}

	data, err := c.get(ctx, "/my/lock")
	if err != nil {
		return nil, err
	}

	var locks []Lock
	if err := json.Unmarshal(data, &locks); err != nil {
		return nil, fmt.Errorf("failed to parse lock list: %w (body: %s)", err, truncatePreview(data))
	}

	c.storeLocksInCache(locks)
	return locks, nil
}

// GetLock returns a single lock by ID.
func (c *Client) GetLock(ctx context.Context, deviceID int) (*Lock, error) {
	if deviceID <= 0 {
		return nil, ErrInvalidDeviceID
	}
	data, err := c.get(ctx, "/my/lock/"+strconv.Itoa(deviceID))
	if err != nil {
		return nil, err
	}

	var lock Lock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("failed to parse lock: %w (body: %s)", err, truncatePreview(data))
	}

	return &lock, nil
}

// GetLockByName returns the lock whose name matches exactly.
// Returns ErrLockNotFound if no lock with that name exists.
func (c *Client) GetLockByName(ctx context.Context, name string) (*Lock, error) {
	locks, err := c.GetLocks(ctx)
	if err != nil {
		return nil, err
	}

	if lock := FindLockByName(locks, name); lock != nil {
		return lock, nil
	}
	return nil, ErrLockNotFound
}

// SyncLocks returns state snapshots for all locks on the account.
func (c *Client) SyncLocks(ctx context.Context) ([]LockSync, error) {
	data, err := c.get(ctx, "/my/lock/sync")
	if err != nil {
		return nil, err
	}

	var syncs []LockSync
	if err := json.Unmarshal(data, &syncs); err != nil {
		return nil, fmt.Errorf("failed to parse lock sync list: %w (body: %s)", err, truncatePreview(data))
	}

	return syncs, nil
}

// SyncLock returns the state snapshot for a single lock.
func (c *Client) SyncLock(ctx context.Context, deviceID int) (*LockSync, error) {
	if deviceID <= 0 {
		return nil, ErrInvalidDeviceID
	}
	data, err := c.get(ctx, "/my/lock/"+strconv.Itoa(deviceID)+"/sync")
	if err != nil {
		return nil, err
	}

	var sync LockSync
	if err := json.Unmarshal(data, &sync); err != nil {
		return nil, fmt.Errorf("failed to parse lock sync: %w (body: %s)", err, truncatePreview(data))
	}

	return &sync, nil
}

// FilterLocks returns locks matching the given filter function.
func FilterLocks(locks []Lock, filter func(Lock) bool) []Lock {
	result := make([]Lock, 0, len(locks))
	for _, l := range locks {
		if filter(l) {
			result = append(result, l)
		}
	}
	return result
}

// FindLockByName returns the first lock matching the given name.
// Returns a pointer to the lock in the slice, or nil if not found.
func FindLockByName(locks []Lock, name string) *Lock {
	for i := range locks {
		if locks[i].Name == name {
			return &locks[i]
		}
	}
	return nil
}

// FindLockByID returns the lock with the given device ID.
// Returns a pointer to the lock in the slice, or nil if not found.
func FindLockByID(locks []Lock, deviceID int) *Lock {
	for i := range locks {
		if locks[i].ID == deviceID {
			return &locks[i]
		}
	}
	return nil
}
