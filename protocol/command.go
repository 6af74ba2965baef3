package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/orbworks/orbit/internal/util"
)

// Command is a mutable packet-under-construction: a device id, a command
// id, and a data buffer whose length is fixed at construction. Typed
// setters write fields at explicit offsets; multi-byte integers occupy
// consecutive offsets in big-endian order.
//
// A Command is built by a caller for exactly one send. The session assigns
// the sequence number and calls [Command.Finish] when the command goes out;
// after that the command is spent and rejects further writes.
type Command struct {
	deviceID  byte
	commandID byte
	data      []byte
	spent     bool
}

// NewCommand creates a command for the given device and command ids with a
// data buffer of dataLen bytes, all zero. dataLen must be within
// [0, MaxRequestDataSize].
func NewCommand(deviceID, commandID byte, dataLen int) (*Command, error) {
	if dataLen < 0 || dataLen > MaxRequestDataSize {
		return nil, fmt.Errorf("%w: %d data bytes, max %d", ErrDataTooLong, dataLen, MaxRequestDataSize)
	}

	return &Command{
		deviceID:  deviceID,
		commandID: commandID,
		data:      make([]byte, dataLen),
	}, nil
}

// DeviceID returns the target device id.
func (c *Command) DeviceID() byte {
	return c.deviceID
}

// CommandID returns the command id.
func (c *Command) CommandID() byte {
	return c.commandID
}

// DataLen returns the declared data length.
func (c *Command) DataLen() int {
	return len(c.data)
}

// SetUint8 writes a single byte at offset.
func (c *Command) SetUint8(offset int, v byte) error {
	if err := c.checkWrite(offset, 1); err != nil {
		return err
	}
	c.data[offset] = v

	return nil
}

// SetUint16 writes a big-endian 16-bit integer at offset.
func (c *Command) SetUint16(offset int, v uint16) error {
	if err := c.checkWrite(offset, 2); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(c.data[offset:], v)

	return nil
}

// SetUint32 writes a big-endian 32-bit integer at offset.
func (c *Command) SetUint32(offset int, v uint32) error {
	if err := c.checkWrite(offset, 4); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(c.data[offset:], v)

	return nil
}

// SetBytes copies p into the buffer starting at offset.
func (c *Command) SetBytes(offset int, p []byte) error {
	if err := c.checkWrite(offset, len(p)); err != nil {
		return err
	}
	copy(c.data[offset:], p)

	return nil
}

// SetString copies the raw bytes of s into the buffer starting at offset.
// No padding or truncation is applied; the caller sizes the buffer.
func (c *Command) SetString(offset int, s string) error {
	if err := c.checkWrite(offset, len(s)); err != nil {
		return err
	}
	copy(c.data[offset:], s)

	return nil
}

// Finish assigns the sequence number and snapshots the command into an
// immutable Request. Sequence assignment belongs to the session; callers
// hand the Command to the session and never call Finish themselves.
func (c *Command) Finish(seq byte) (*Request, error) {
	if c.spent {
		return nil, ErrCommandSpent
	}
	c.spent = true

	return &Request{
		DeviceID:  c.deviceID,
		CommandID: c.commandID,
		Seq:       seq,
		Data:      util.CloneSlice(c.data, 0),
	}, nil
}

func (c *Command) checkWrite(offset, size int) error {
	if c.spent {
		return ErrCommandSpent
	}
	if offset < 0 || offset+size > len(c.data) {
		return fmt.Errorf("%w: offset %d size %d, declared length %d", ErrOffsetRange, offset, size, len(c.data))
	}

	return nil
}
