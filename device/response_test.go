package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsers_ShortData(t *testing.T) {
	tests := []struct {
		name  string
		parse func(data []byte) error
		min   int
	}{
		{"Version", func(d []byte) error { _, err := ParseVersion(d); return err }, 8},
		{"BluetoothInfo", func(d []byte) error { _, err := ParseBluetoothInfo(d); return err }, 32},
		{"PowerState", func(d []byte) error { _, err := ParsePowerState(d); return err }, 8},
		{"PowerNotification", func(d []byte) error { _, err := ParsePowerNotification(d); return err }, 1},
		{"DiagnosticCounters", func(d []byte) error { _, err := ParseDiagnosticCounters(d); return err }, 86},
		{"LocatorReading", func(d []byte) error { _, err := ParseLocatorReading(d); return err }, 10},
		{"RGB", func(d []byte) error { _, err := ParseRGB(d); return err }, 3},
		{"CollisionData", func(d []byte) error { _, err := ParseCollisionData(d); return err }, 16},
		{"PacketTimes", func(d []byte) error { _, err := ParsePacketTimes(d); return err }, 12},
		{"SelfLevelResult", func(d []byte) error { _, err := ParseSelfLevelResult(d); return err }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			short := make([]byte, tt.min-1)
			assert.ErrorIs(t, tt.parse(short), ErrShortResponse)

			full := make([]byte, tt.min)
			assert.NoError(t, tt.parse(full))
		})
	}
}

func TestParseCollisionData(t *testing.T) {
	data := []byte{
		0x00, 0x64, // x = 100
		0xFF, 0x9C, // y = -100
		0x00, 0x00, // z = 0
		0x01,       // x axis crossed
		0x01, 0xF4, // x magnitude = 500
		0x00, 0x00, // y magnitude = 0
		0x32,                   // speed = 50
		0x00, 0x01, 0x86, 0xA0, // timestamp = 100000
	}

	c, err := ParseCollisionData(data)
	require.NoError(t, err)

	assert.Equal(t, int16(100), c.X)
	assert.Equal(t, int16(-100), c.Y)
	assert.Equal(t, int16(0), c.Z)
	assert.Equal(t, CollisionAxisX, c.Axis)
	assert.Equal(t, uint16(500), c.XMagnitude)
	assert.Equal(t, uint16(0), c.YMagnitude)
	assert.Equal(t, byte(50), c.Speed)
	assert.Equal(t, uint32(100000), c.Timestamp)
}

func TestParsePowerNotification(t *testing.T) {
	level, err := ParsePowerNotification([]byte{0x03})
	require.NoError(t, err)

	assert.Equal(t, PowerLow, level)
	assert.Equal(t, "low", level.String())
}

func TestPowerLevel_String(t *testing.T) {
	assert.Equal(t, "charging", PowerCharging.String())
	assert.Equal(t, "ok", PowerOK.String())
	assert.Equal(t, "critical", PowerCritical.String())
	assert.Equal(t, "level(0x77)", PowerLevel(0x77).String())
}

func TestSelfLevelResult_String(t *testing.T) {
	assert.Equal(t, "unknown", SelfLevelResultUnknown.String())
	assert.Equal(t, "timed out", SelfLevelResultTimedOut.String())
	assert.Equal(t, "sensors off", SelfLevelResultSensorsOff.String())
	assert.Equal(t, "aborted", SelfLevelResultAborted.String())
	assert.Equal(t, "result(0x7F)", SelfLevelResult(0x7F).String())
}

func TestPacketTimes_ClockWraparound(t *testing.T) {
	// The caller's clock wraps between transmit and receive; differences
	// stay valid in 32-bit arithmetic.
	times := &PacketTimes{
		ClientTx: 0xFFFFFFF0,
		RobotRx:  2000,
		RobotTx:  2010,
	}

	clientRx := uint32(0x00000030) // 64ms after transmit, post-wrap

	assert.Equal(t, int32(54), times.Delay(clientRx))

	// toRobot = 2000 - (-16) = 2016; fromRobot = 2010 - 48 = 1962.
	assert.Equal(t, int32(1989), times.Offset(clientRx))
}

func TestParseVersion_PackedNibbles(t *testing.T) {
	v, err := ParseVersion([]byte{0x01, 0x02, 0x03, 0x02, 0x00, 0xA5, 0x10, 0xFF})
	require.NoError(t, err)

	assert.Equal(t, "2.0", v.MainApp())
	assert.Equal(t, "10.5", v.Bootloader)
	assert.Equal(t, "1.0", v.BasicVersion)
	assert.Equal(t, "15.15", v.MacroVersion)
}

func TestParseBluetoothInfo_UnpaddedName(t *testing.T) {
	// A 16-character name has no null padding to trim.
	record := make([]byte, 32)
	copy(record, "0123456789ABCDEF")
	copy(record[16:], "AABBCCDDEEFF")

	info, err := ParseBluetoothInfo(record)
	require.NoError(t, err)

	assert.Equal(t, "0123456789ABCDEF", info.Name)
	assert.Equal(t, "AABBCCDDEEFF", info.Address)
}
