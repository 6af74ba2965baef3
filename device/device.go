package device

import (
	"context"
	"encoding/binary"

	"github.com/orbworks/orbit/protocol"
	"github.com/orbworks/orbit/session"
)

// Virtual device ids addressed by requests.
const (
	DeviceCore       byte = 0x00
	DeviceBootloader byte = 0x01
	DeviceRobot      byte = 0x02
)

// Notification id codes sent by the robot.
const (
	AsyncPowerNotification  byte = 0x01
	AsyncLevel1Diagnostics  byte = 0x02
	AsyncSensorData         byte = 0x03
	AsyncConfigBlock        byte = 0x04
	AsyncPreSleepWarning    byte = 0x05
	AsyncMacroMarker        byte = 0x06
	AsyncCollision          byte = 0x07
	AsyncProgramPrint       byte = 0x08
	AsyncProgramErrorASCII  byte = 0x09
	AsyncProgramErrorBinary byte = 0x0A
	AsyncSelfLevelResult    byte = 0x0B
	AsyncGyroLimitExceeded  byte = 0x0C
)

// Driver issues catalogued commands over an open session.
//
// A Driver is safe for concurrent use; all shared state lives in the
// session underneath it.
type Driver struct {
	s *session.Session
}

// New creates a Driver over the given session.
func New(s *session.Session) *Driver {
	return &Driver{s: s}
}

// Session returns the underlying session, for notification handler
// registration and for raw commands the catalogue does not cover.
func (d *Driver) Session() *session.Session {
	return d.s
}

// command assembles a request whose payload is the given big-endian field
// slices, laid out in order.
func command(deviceID, commandID byte, fields ...[]byte) (*protocol.Command, error) {
	size := 0
	for _, f := range fields {
		size += len(f)
	}

	cmd, err := protocol.NewCommand(deviceID, commandID, size)
	if err != nil {
		return nil, err
	}

	offset := 0
	for _, f := range fields {
		if err := cmd.SetBytes(offset, f); err != nil {
			return nil, err
		}

		offset += len(f)
	}

	return cmd, nil
}

// exec assembles and sends a command whose response carries no payload
// of interest.
func (d *Driver) exec(ctx context.Context, deviceID, commandID byte, fields ...[]byte) error {
	cmd, err := command(deviceID, commandID, fields...)
	if err != nil {
		return err
	}

	_, err = d.s.Send(ctx, cmd)

	return err
}

// query assembles and sends a command and returns the response payload.
func (d *Driver) query(ctx context.Context, deviceID, commandID byte, fields ...[]byte) ([]byte, error) {
	cmd, err := command(deviceID, commandID, fields...)
	if err != nil {
		return nil, err
	}

	return d.s.Send(ctx, cmd)
}

// queryNotify assembles and sends a command whose answer arrives as the
// next notification with the given id code.
func (d *Driver) queryNotify(ctx context.Context, idCode, deviceID, commandID byte, fields ...[]byte) ([]byte, error) {
	cmd, err := command(deviceID, commandID, fields...)
	if err != nil {
		return nil, err
	}

	return d.s.SendExpectNotify(ctx, cmd, idCode)
}

func u8(v byte) []byte {
	return []byte{v}
}

func u16(v uint16) []byte {
	return binary.BigEndian.AppendUint16(nil, v)
}

func u32(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

func flagByte(v bool) byte {
	if v {
		return 0x01
	}

	return 0x00
}
