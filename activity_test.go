package tedee

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetDeviceActivity(t *testing.T) {
	t.Run("passes query parameters", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/my/deviceactivity", r.URL.Path)
			assert.Equal(t, "12", r.URL.Query().Get("deviceId"))
			assert.Equal(t, "5", r.URL.Query().Get("elements"))
			writeResult(w, []DeviceActivity{
				{ID: 100, DeviceID: 12, Event: 2, Date: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
				{ID: 99, DeviceID: 12, Event: 1},
			})
		})

		activities, err := client.GetDeviceActivity(context.Background(), 12, 5)
		require.NoError(t, err)
		require.Len(t, activities, 2)
		assert.Equal(t, 100, activities[0].ID)
		assert.Equal(t, 2, activities[0].Event)
	})

	t.Run("count defaults to one", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1", r.URL.Query().Get("elements"))
			writeResult(w, []DeviceActivity{})
		})

		_, err := client.GetDeviceActivity(context.Background(), 12, 0)
		require.NoError(t, err)
	})

	t.Run("invalid device id", func(t *testing.T) {
		client, _ := NewClient(testCreds)
		_, err := client.GetDeviceActivity(context.Background(), 0, 1)
		assert.ErrorIs(t, err, ErrInvalidDeviceID)
	})
}

func TestClient_GetLatestDeviceActivity(t *testing.T) {
	t.Run("returns the single requested entry", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1", r.URL.Query().Get("elements"))
			writeResult(w, []DeviceActivity{{ID: 100, DeviceID: 12, Event: 3}})
		})

		activity, err := client.GetLatestDeviceActivity(context.Background(), 12)
		require.NoError(t, err)
		require.NotNil(t, activity)
		assert.Equal(t, 100, activity.ID)
	})

	t.Run("empty history returns nil", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeResult(w, []DeviceActivity{})
		})

		activity, err := client.GetLatestDeviceActivity(context.Background(), 12)
		require.NoError(t, err)
		assert.Nil(t, activity)
	})
}
