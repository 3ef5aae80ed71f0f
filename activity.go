package tedee

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// DeviceActivity is a single entry from a device's activity history.
type DeviceActivity struct {
	ID       int       `json:"id"`
	DeviceID int       `json:"deviceId"`
	Event    int       `json:"event"`
	Source   int       `json:"source,omitempty"`
	Username string    `json:"username,omitempty"`
	Date     time.Time `json:"date"`
}

// GetDeviceActivity returns up to count activity entries for a device,
// newest first. A count of zero or less requests a single entry.
func (c *Client) GetDeviceActivity(ctx context.Context, deviceID, count int) ([]DeviceActivity, error) {
	if deviceID <= 0 {
		return nil, ErrInvalidDeviceID
	}
	if count <= 0 {
		count = 1
	}

	params := url.Values{}
	params.Set("deviceId", strconv.Itoa(deviceID))
	params.Set("elements", strconv.Itoa(count))

	data, err := c.get(ctx, "/my/deviceactivity?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var activities []DeviceActivity
	if err := json.Unmarshal(data, &activities); err != nil {
		return nil, fmt.Errorf("failed to parse device activity: %w (body: %s)", err, truncatePreview(data))
	}

	return activities, nil
}

// GetLatestDeviceActivity returns the most recent activity entry for a
// device, or nil if the device has no recorded activity.
func (c *Client) GetLatestDeviceActivity(ctx context.Context, deviceID int) (*DeviceActivity, error) {
	activities, err := c.GetDeviceActivity(ctx, deviceID, 1)
	if err != nil {
		return nil, err
	}
	if len(activities) == 0 {
		return nil, nil
	}
	return &activities[0], nil
}
