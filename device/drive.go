package device

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// Robot device command ids.
const (
	cidSetHeading            byte = 0x01
	cidSetStabilization      byte = 0x02
	cidSetRotationRate       byte = 0x03
	cidSelfLevel             byte = 0x09
	cidSetDataStreaming      byte = 0x11
	cidConfigureCollisions   byte = 0x12
	cidSetAccelerometerRange byte = 0x14
	cidReadLocator           byte = 0x15
	cidSetRGBLED             byte = 0x20
	cidSetBackLED            byte = 0x21
	cidGetRGBLED             byte = 0x22
	cidRoll                  byte = 0x30
	cidBoost                 byte = 0x31
	cidSetRawMotors          byte = 0x32
	cidSetMotionTimeout      byte = 0x33
	cidSetPermanentFlags     byte = 0x35
	cidGetPermanentFlags     byte = 0x36
	cidSetTemporaryFlags     byte = 0x37
	cidGetTemporaryFlags     byte = 0x38
)

// Roll states carried in the roll command.
const (
	rollStateStop   byte = 0x00
	rollStateNormal byte = 0x01
)

// Raw motor modes for SetRawMotors.
const (
	MotorOff     byte = 0x00
	MotorForward byte = 0x01
	MotorReverse byte = 0x02
	MotorBrake   byte = 0x03
	MotorIgnore  byte = 0x04
)

// Self level control bits.
const (
	SelfLevelStart         byte = 0x01 // run; clear aborts a run in progress
	SelfLevelKeepHeading   byte = 0x02 // rotate back to the pre-run heading when done
	SelfLevelSleepAfter    byte = 0x04
	SelfLevelControlSystem byte = 0x08 // leave the control system on afterwards
)

// Accelerometer ranges for SetAccelerometerRange.
const (
	AccelRange2G  byte = 0x00
	AccelRange4G  byte = 0x01
	AccelRange8G  byte = 0x02
	AccelRange16G byte = 0x03
)

// ErrValueRange indicates an argument the wire field cannot express.
var ErrValueRange = errors.New("device: value outside wire range")

// SetHeading rotates the robot to the given heading in degrees and makes
// it the new zero reference.
func (d *Driver) SetHeading(ctx context.Context, heading uint16) error {
	return d.exec(ctx, DeviceRobot, cidSetHeading, u16(heading))
}

// SetStabilization turns the drive control system on or off. With it off
// the robot no longer holds itself level and raw motor commands take
// full effect.
func (d *Driver) SetStabilization(ctx context.Context, enabled bool) error {
	return d.exec(ctx, DeviceRobot, cidSetStabilization, u8(flagByte(enabled)))
}

// SetRotationRate caps how fast heading changes turn the robot. The rate
// is in units of 0.784 degrees per second; zero commands the minimum and
// 0xFF the maximum.
func (d *Driver) SetRotationRate(ctx context.Context, rate byte) error {
	return d.exec(ctx, DeviceRobot, cidSetRotationRate, u8(rate))
}

// SelfLevel runs the self leveling routine and waits for its result
// notification. Zero angleLimit, timeout and settleTime select the
// firmware defaults.
func (d *Driver) SelfLevel(ctx context.Context, flags, angleLimit, timeout, settleTime byte) (SelfLevelResult, error) {
	data, err := d.queryNotify(ctx, AsyncSelfLevelResult, DeviceRobot, cidSelfLevel,
		u8(flags), u8(angleLimit), u8(timeout), u8(settleTime))
	if err != nil {
		return 0, err
	}

	return ParseSelfLevelResult(data)
}

// StreamingConfig selects what the robot streams in sensor data
// notifications and how often.
//
// The sensors sample at 400 Hz; one frame is emitted every Divisor
// samples and FramesPerPacket frames are packed into each notification.
// Mask and Mask2 select the value groups in each frame; the mask bits
// are the platform's streaming bit assignments and pass through
// untouched. PacketCount limits how many notifications are sent, zero
// streaming until reconfigured.
type StreamingConfig struct {
	Divisor         uint16
	FramesPerPacket uint16
	Mask            uint32
	PacketCount     byte
	Mask2           uint32
}

// SetDataStreaming configures sensor data streaming.
func (d *Driver) SetDataStreaming(ctx context.Context, cfg StreamingConfig) error {
	return d.exec(ctx, DeviceRobot, cidSetDataStreaming,
		u16(cfg.Divisor), u16(cfg.FramesPerPacket), u32(cfg.Mask), u8(cfg.PacketCount), u32(cfg.Mask2))
}

// CollisionConfig tunes collision detection. Thresholds and speed
// scaling are per axis: the effective threshold at full speed is
// threshold plus scale. DeadTime is in 10 millisecond units and
// suppresses repeated reports after an impact.
type CollisionConfig struct {
	Method     byte
	XThreshold byte
	XSpeed     byte
	YThreshold byte
	YSpeed     byte
	DeadTime   byte
}

// Collision detection methods.
const (
	CollisionMethodOff    byte = 0x00
	CollisionMethodNormal byte = 0x01
)

// ConfigureCollisionDetection configures impact detection. While enabled
// the robot emits a collision notification for every detected impact.
func (d *Driver) ConfigureCollisionDetection(ctx context.Context, cfg CollisionConfig) error {
	return d.exec(ctx, DeviceRobot, cidConfigureCollisions,
		u8(cfg.Method), u8(cfg.XThreshold), u8(cfg.XSpeed), u8(cfg.YThreshold), u8(cfg.YSpeed), u8(cfg.DeadTime))
}

// SetAccelerometerRange selects the accelerometer's full scale range.
// Ranges below the default trade headroom for resolution and degrade
// stabilization; they are meant for data collection, not driving.
func (d *Driver) SetAccelerometerRange(ctx context.Context, rangeIndex byte) error {
	return d.exec(ctx, DeviceRobot, cidSetAccelerometerRange, u8(rangeIndex))
}

// ReadLocator reads the current position and velocity estimate.
func (d *Driver) ReadLocator(ctx context.Context) (*LocatorReading, error) {
	data, err := d.query(ctx, DeviceRobot, cidReadLocator)
	if err != nil {
		return nil, err
	}

	return ParseLocatorReading(data)
}

// SetRGBLED sets the body LED color. With persist the color also becomes
// the stored user color reapplied on power up.
func (d *Driver) SetRGBLED(ctx context.Context, r, g, b byte, persist bool) error {
	return d.exec(ctx, DeviceRobot, cidSetRGBLED, u8(r), u8(g), u8(b), u8(flagByte(persist)))
}

// SetBackLED sets the tail light brightness. The tail light is blue only
// and marks the robot's rear for aiming.
func (d *Driver) SetBackLED(ctx context.Context, brightness byte) error {
	return d.exec(ctx, DeviceRobot, cidSetBackLED, u8(brightness))
}

// GetRGBLED reads the stored user LED color, which may differ from the
// color currently shown.
func (d *Driver) GetRGBLED(ctx context.Context) (*RGB, error) {
	data, err := d.query(ctx, DeviceRobot, cidGetRGBLED)
	if err != nil {
		return nil, err
	}

	return ParseRGB(data)
}

// Roll drives toward the given heading in degrees at the given speed.
// The robot keeps rolling until told otherwise or until the motion
// timeout expires.
func (d *Driver) Roll(ctx context.Context, speed byte, heading uint16) error {
	return d.exec(ctx, DeviceRobot, cidRoll, u8(speed), u16(heading), u8(rollStateNormal))
}

// Stop commands a controlled stop.
func (d *Driver) Stop(ctx context.Context) error {
	return d.exec(ctx, DeviceRobot, cidRoll, u8(0x00), u16(0), u8(rollStateStop))
}

// Boost turns the boost maneuver on or off.
func (d *Driver) Boost(ctx context.Context, on bool) error {
	return d.exec(ctx, DeviceRobot, cidBoost, u8(flagByte(on)))
}

// SetRawMotors drives both motors directly with a mode and a power value
// each. Sending this puts the control system into a state where
// stabilization usually needs to be re-enabled afterwards.
func (d *Driver) SetRawMotors(ctx context.Context, leftMode, leftPower, rightMode, rightPower byte) error {
	return d.exec(ctx, DeviceRobot, cidSetRawMotors,
		u8(leftMode), u8(leftPower), u8(rightMode), u8(rightPower))
}

// SetMotionTimeout sets how long the last motion command stays in effect
// before the robot stops on its own. The timeout only applies while the
// motion timeouts option flag is set. The wire carries milliseconds in
// 16 bits, so timeouts above 65535ms are rejected.
func (d *Driver) SetMotionTimeout(ctx context.Context, timeout time.Duration) error {
	ms := timeout.Milliseconds()
	if ms < 0 || ms > 0xFFFF {
		return fmt.Errorf("%w: motion timeout %v", ErrValueRange, timeout)
	}

	return d.exec(ctx, DeviceRobot, cidSetMotionTimeout, u16(uint16(ms)))
}

// SetPermanentOptionFlags replaces the persisted option flags with
// exactly the given set. Flags outside the catalogue are rejected before
// anything is sent.
func (d *Driver) SetPermanentOptionFlags(ctx context.Context, flags ...OptionFlag) error {
	bits, err := encodeFlags(permanentFlagTable, flags)
	if err != nil {
		return err
	}

	return d.exec(ctx, DeviceRobot, cidSetPermanentFlags, u32(bits))
}

// GetPermanentOptionFlags reads the persisted option flags as symbolic
// names, in bit order.
func (d *Driver) GetPermanentOptionFlags(ctx context.Context) ([]OptionFlag, error) {
	return d.getFlags(ctx, cidGetPermanentFlags, permanentFlagTable)
}

// SetTemporaryOptionFlags replaces the volatile option flags with
// exactly the given set.
func (d *Driver) SetTemporaryOptionFlags(ctx context.Context, flags ...OptionFlag) error {
	bits, err := encodeFlags(temporaryFlagTable, flags)
	if err != nil {
		return err
	}

	return d.exec(ctx, DeviceRobot, cidSetTemporaryFlags, u32(bits))
}

// GetTemporaryOptionFlags reads the volatile option flags as symbolic
// names, in bit order.
func (d *Driver) GetTemporaryOptionFlags(ctx context.Context) ([]OptionFlag, error) {
	return d.getFlags(ctx, cidGetTemporaryFlags, temporaryFlagTable)
}

func (d *Driver) getFlags(ctx context.Context, commandID byte, table []flagBit) ([]OptionFlag, error) {
	data, err := d.query(ctx, DeviceRobot, commandID)
	if err != nil {
		return nil, err
	}
	if err := checkLen("option flags", data, 4); err != nil {
		return nil, err
	}

	return decodeFlags(table, binary.BigEndian.Uint32(data[0:4]))
}
