package device

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
)

// Core device command ids.
const (
	cidPing                 byte = 0x01
	cidGetVersion           byte = 0x02
	cidSetDeviceName        byte = 0x10
	cidGetBluetoothInfo     byte = 0x11
	cidSetAutoReconnect     byte = 0x12
	cidGetAutoReconnect     byte = 0x13
	cidGetPowerState        byte = 0x20
	cidSetPowerNotification byte = 0x21
	cidSleep                byte = 0x22
	cidGetVoltageTripPoints byte = 0x23
	cidSetVoltageTripPoints byte = 0x24
	cidSetInactivityTimeout byte = 0x25
	cidRunL1Diagnostics     byte = 0x40
	cidRunL2Diagnostics     byte = 0x41
	cidClearCounters        byte = 0x42
	cidAssignTime           byte = 0x50
	cidPollPacketTimes      byte = 0x51
)

// MaxDeviceNameLen is the longest name the robot stores.
const MaxDeviceNameLen = 48

// ErrNameTooLong indicates a device name over MaxDeviceNameLen bytes.
var ErrNameTooLong = errors.New("device: name too long")

// Ping verifies the control link is alive.
func (d *Driver) Ping(ctx context.Context) error {
	return d.exec(ctx, DeviceCore, cidPing)
}

// GetVersion reads the firmware version record.
func (d *Driver) GetVersion(ctx context.Context) (*Version, error) {
	data, err := d.query(ctx, DeviceCore, cidGetVersion)
	if err != nil {
		return nil, err
	}

	return ParseVersion(data)
}

// SetDeviceName stores a new broadcast name. The name is written to
// persistent memory and survives power cycles.
func (d *Driver) SetDeviceName(ctx context.Context, name string) error {
	if len(name) > MaxDeviceNameLen {
		return fmt.Errorf("%w: %d bytes, max %d", ErrNameTooLong, len(name), MaxDeviceNameLen)
	}

	return d.exec(ctx, DeviceCore, cidSetDeviceName, []byte(name))
}

// GetBluetoothInfo reads the radio identity record.
func (d *Driver) GetBluetoothInfo(ctx context.Context) (*BluetoothInfo, error) {
	data, err := d.query(ctx, DeviceCore, cidGetBluetoothInfo)
	if err != nil {
		return nil, err
	}

	return ParseBluetoothInfo(data)
}

// SetAutoReconnect configures whether the radio re-accepts a dropped
// connection, and for how many seconds after waking the window stays
// open.
func (d *Driver) SetAutoReconnect(ctx context.Context, enabled bool, window byte) error {
	return d.exec(ctx, DeviceCore, cidSetAutoReconnect, u8(flagByte(enabled)), u8(window))
}

// GetAutoReconnect reads the auto reconnect setting.
func (d *Driver) GetAutoReconnect(ctx context.Context) (enabled bool, window byte, err error) {
	data, err := d.query(ctx, DeviceCore, cidGetAutoReconnect)
	if err != nil {
		return false, 0, err
	}
	if err := checkLen("auto reconnect", data, 2); err != nil {
		return false, 0, err
	}

	return data[0] != 0x00, data[1], nil
}

// GetPowerState reads the battery status record.
func (d *Driver) GetPowerState(ctx context.Context) (*PowerState, error) {
	data, err := d.query(ctx, DeviceCore, cidGetPowerState)
	if err != nil {
		return nil, err
	}

	return ParsePowerState(data)
}

// SetPowerNotification enables periodic power notifications. While
// enabled the robot reports its battery state every ten seconds and
// whenever the state changes.
func (d *Driver) SetPowerNotification(ctx context.Context, enabled bool) error {
	return d.exec(ctx, DeviceCore, cidSetPowerNotification, u8(flagByte(enabled)))
}

// Sleep puts the robot to sleep immediately. A non-zero wakeup reawakes
// it after that many seconds; zero sleeps until a double tap. A non-zero
// macroID runs that macro on wake, and a non-zero basicLine starts the
// stored program at that line instead.
func (d *Driver) Sleep(ctx context.Context, wakeup uint16, macroID byte, basicLine uint16) error {
	return d.exec(ctx, DeviceCore, cidSleep, u16(wakeup), u8(macroID), u16(basicLine))
}

// GetVoltageTripPoints reads the low and critical battery thresholds in
// hundredths of a volt.
func (d *Driver) GetVoltageTripPoints(ctx context.Context) (low, critical uint16, err error) {
	data, err := d.query(ctx, DeviceCore, cidGetVoltageTripPoints)
	if err != nil {
		return 0, 0, err
	}
	if err := checkLen("voltage trip points", data, 4); err != nil {
		return 0, 0, err
	}

	return binary.BigEndian.Uint16(data[0:2]), binary.BigEndian.Uint16(data[2:4]), nil
}

// SetVoltageTripPoints sets the low and critical battery thresholds in
// hundredths of a volt. The robot constrains both to its accepted bands
// and rejects values outside them.
func (d *Driver) SetVoltageTripPoints(ctx context.Context, low, critical uint16) error {
	return d.exec(ctx, DeviceCore, cidSetVoltageTripPoints, u16(low), u16(critical))
}

// SetInactivityTimeout sets how many seconds of client silence put the
// robot to sleep. The firmware enforces its own minimum.
func (d *Driver) SetInactivityTimeout(ctx context.Context, seconds uint16) error {
	return d.exec(ctx, DeviceCore, cidSetInactivityTimeout, u16(seconds))
}

// RunLevel1Diagnostics asks the robot for its self test report. The
// report arrives as an asynchronous notification carrying human-readable
// text, which can take several seconds to assemble.
func (d *Driver) RunLevel1Diagnostics(ctx context.Context) (string, error) {
	data, err := d.queryNotify(ctx, AsyncLevel1Diagnostics, DeviceCore, cidRunL1Diagnostics)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// RunLevel2Diagnostics reads the link and usage counters record.
func (d *Driver) RunLevel2Diagnostics(ctx context.Context) (*DiagnosticCounters, error) {
	data, err := d.query(ctx, DeviceCore, cidRunL2Diagnostics)
	if err != nil {
		return nil, err
	}

	return ParseDiagnosticCounters(data)
}

// ClearCounters zeroes the resettable counters in the level 2
// diagnostics record.
func (d *Driver) ClearCounters(ctx context.Context) error {
	return d.exec(ctx, DeviceCore, cidClearCounters)
}

// AssignTime sets the robot's millisecond clock.
func (d *Driver) AssignTime(ctx context.Context, counter uint32) error {
	return d.exec(ctx, DeviceCore, cidAssignTime, u32(counter))
}

// PollPacketTimes measures round-trip timing. The caller supplies its
// transmit time on its own millisecond clock; the returned record echoes
// it next to the robot's receive and transmit times, from which
// PacketTimes derives clock offset and network delay.
func (d *Driver) PollPacketTimes(ctx context.Context, clientTx uint32) (*PacketTimes, error) {
	data, err := d.query(ctx, DeviceCore, cidPollPacketTimes, u32(clientTx))
	if err != nil {
		return nil, err
	}

	return ParsePacketTimes(data)
}
