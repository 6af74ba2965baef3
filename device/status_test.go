package device

import (
	"errors"
	"fmt"
	"testing"

	"github.com/orbworks/orbit/protocol"
	"github.com/stretchr/testify/assert"
)

func TestStatusText(t *testing.T) {
	assert.Equal(t, "ok", StatusText(StatusOK))
	assert.Equal(t, "invalid parameter value", StatusText(StatusInvalidParameter))
	assert.Equal(t, "page did not reprogram correctly", StatusText(StatusFlashFailure))
	assert.Equal(t, "status 0x77", StatusText(0x77))
}

func TestStatusOf(t *testing.T) {
	wrapped := fmt.Errorf("send led command: %w", &protocol.StatusError{Code: StatusInvalidParameter})

	code, ok := StatusOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, StatusInvalidParameter, code)

	_, ok = StatusOf(errors.New("link down"))
	assert.False(t, ok)

	_, ok = StatusOf(nil)
	assert.False(t, ok)
}
