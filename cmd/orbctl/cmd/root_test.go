package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseByteArg(t *testing.T) {
	v, err := parseByteArg("speed", "155")
	require.NoError(t, err)
	assert.Equal(t, byte(155), v)

	for _, bad := range []string{"256", "-1", "fast", ""} {
		_, err := parseByteArg("speed", bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParseHeadingArg(t *testing.T) {
	v, err := parseHeadingArg("359")
	require.NoError(t, err)
	assert.Equal(t, uint16(359), v)

	v, err = parseHeadingArg("0")
	require.NoError(t, err)
	assert.Equal(t, uint16(0), v)

	for _, bad := range []string{"360", "-90", "north"} {
		_, err := parseHeadingArg(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestApplyLogLevel(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		assert.NoError(t, applyLogLevel(level), "level %q", level)
	}

	assert.Error(t, applyLogLevel("verbose"))
}

func TestParseProgramArea(t *testing.T) {
	area, err := parseProgramArea("ram")
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), area)

	area, err = parseProgramArea("flash")
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), area)

	_, err = parseProgramArea("cloud")
	assert.Error(t, err)
}
