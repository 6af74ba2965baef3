package session

import (
	"testing"
	"time"

	"github.com/orbworks/orbit/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	cfg, err := newConfig()
	require.NoError(t, err)

	assert.Equal(t, DefaultResponseTimeout, cfg.ResponseTimeout())
	assert.Equal(t, DefaultNotifyTimeout, cfg.NotifyTimeout())
	assert.Equal(t, DefaultCloseTimeout, cfg.CloseTimeout())
	assert.Equal(t, DefaultReadBufferSize, cfg.ReadBufferSize())
	assert.Equal(t, DefaultNotifyQueueSize, cfg.NotifyQueueSize())
	assert.NotNil(t, cfg.GetLogger())
}

func TestConfig_Options(t *testing.T) {
	cfg, err := newConfig(
		WithResponseTimeout(time.Second),
		WithNotifyTimeout(2*time.Second),
		WithCloseTimeout(time.Second),
		WithReadBufferSize(128),
		WithNotifyQueueSize(4),
		WithLogger(logger.GetLogger()),
	)
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.ResponseTimeout())
	assert.Equal(t, 2*time.Second, cfg.NotifyTimeout())
	assert.Equal(t, time.Second, cfg.CloseTimeout())
	assert.Equal(t, 128, cfg.ReadBufferSize())
	assert.Equal(t, 4, cfg.NotifyQueueSize())
}

func TestConfig_ZeroTimeoutsDisableCaps(t *testing.T) {
	cfg, err := newConfig(WithResponseTimeout(0), WithNotifyTimeout(0))
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), cfg.ResponseTimeout())
	assert.Equal(t, time.Duration(0), cfg.NotifyTimeout())
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"response timeout below minimum", WithResponseTimeout(time.Millisecond)},
		{"notify timeout below minimum", WithNotifyTimeout(time.Millisecond)},
		{"close timeout zero", WithCloseTimeout(0)},
		{"close timeout negative", WithCloseTimeout(-time.Second)},
		{"read buffer too small", WithReadBufferSize(MinReadBufferSize - 1)},
		{"notify queue too small", WithNotifyQueueSize(0)},
		{"nil logger", WithLogger(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newConfig(tt.opt)
			assert.Error(t, err)
		})
	}
}

func TestConfig_MinimumsAccepted(t *testing.T) {
	_, err := newConfig(
		WithResponseTimeout(MinResponseTimeout),
		WithNotifyTimeout(MinNotifyTimeout),
		WithReadBufferSize(MinReadBufferSize),
		WithNotifyQueueSize(MinNotifyQueueSize),
	)
	assert.NoError(t, err)
}
