package device

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortResponse indicates a response or notification payload shorter
// than the record it is supposed to carry.
var ErrShortResponse = errors.New("device: response shorter than record")

func checkLen(record string, data []byte, want int) error {
	if len(data) < want {
		return fmt.Errorf("%w: %s is %d bytes, need %d", ErrShortResponse, record, len(data), want)
	}

	return nil
}

// nibbleVersion renders a packed-nibble version byte, 0x32 meaning "3.2".
func nibbleVersion(b byte) string {
	return fmt.Sprintf("%d.%d", b>>4, b&0x0F)
}

// Version is the firmware version record.
type Version struct {
	RecordVersion   byte
	Model           byte
	Hardware        byte
	MainAppVersion  byte
	MainAppRevision byte
	Bootloader      string
	BasicVersion    string
	MacroVersion    string
}

// MainApp renders the main application version as "version.revision".
func (v *Version) MainApp() string {
	return fmt.Sprintf("%d.%d", v.MainAppVersion, v.MainAppRevision)
}

// ParseVersion decodes the version record: record version, model, hardware
// revision, two main application bytes, then packed-nibble versions for
// the bootloader, the program interpreter and the macro executive.
func ParseVersion(data []byte) (*Version, error) {
	if err := checkLen("version", data, 8); err != nil {
		return nil, err
	}

	return &Version{
		RecordVersion:   data[0],
		Model:           data[1],
		Hardware:        data[2],
		MainAppVersion:  data[3],
		MainAppRevision: data[4],
		Bootloader:      nibbleVersion(data[5]),
		BasicVersion:    nibbleVersion(data[6]),
		MacroVersion:    nibbleVersion(data[7]),
	}, nil
}

// BluetoothInfo is the radio identity record.
type BluetoothInfo struct {
	Name     string
	Address  string
	IDColors [3]byte
}

// ParseBluetoothInfo decodes the 32-byte identity record: a 16-byte
// null-padded name, the 12-character address, a separator and the three
// identification color bytes.
func ParseBluetoothInfo(data []byte) (*BluetoothInfo, error) {
	if err := checkLen("bluetooth info", data, 32); err != nil {
		return nil, err
	}

	name := data[:16]
	if i := bytes.IndexByte(name, 0x00); i >= 0 {
		name = name[:i]
	}

	info := &BluetoothInfo{
		Name:    string(name),
		Address: string(data[16:28]),
	}
	copy(info.IDColors[:], data[29:32])

	return info, nil
}

// PowerLevel is the coarse battery state reported by the robot.
type PowerLevel byte

const (
	PowerCharging PowerLevel = 0x01
	PowerOK       PowerLevel = 0x02
	PowerLow      PowerLevel = 0x03
	PowerCritical PowerLevel = 0x04
)

func (l PowerLevel) String() string {
	switch l {
	case PowerCharging:
		return "charging"
	case PowerOK:
		return "ok"
	case PowerLow:
		return "low"
	case PowerCritical:
		return "critical"
	}

	return fmt.Sprintf("level(0x%02X)", byte(l))
}

// PowerState is the battery status record.
type PowerState struct {
	RecordVersion      byte
	State              PowerLevel
	BatteryVoltage     uint16 // hundredths of a volt
	ChargeCount        uint16
	SecondsSinceCharge uint16
}

// Voltage returns the battery voltage in volts.
func (p *PowerState) Voltage() float64 {
	return float64(p.BatteryVoltage) / 100
}

// ParsePowerState decodes the 8-byte battery status record.
func ParsePowerState(data []byte) (*PowerState, error) {
	if err := checkLen("power state", data, 8); err != nil {
		return nil, err
	}

	return &PowerState{
		RecordVersion:      data[0],
		State:              PowerLevel(data[1]),
		BatteryVoltage:     binary.BigEndian.Uint16(data[2:4]),
		ChargeCount:        binary.BigEndian.Uint16(data[4:6]),
		SecondsSinceCharge: binary.BigEndian.Uint16(data[6:8]),
	}, nil
}

// ParsePowerNotification decodes the payload of a power notification,
// which carries the coarse battery state only.
func ParsePowerNotification(data []byte) (PowerLevel, error) {
	if err := checkLen("power notification", data, 1); err != nil {
		return 0, err
	}

	return PowerLevel(data[0]), nil
}

// DiagnosticCounters is the level 2 diagnostics record: link quality
// counters maintained since the last counter reset, plus lifetime usage
// counters. Raw keeps the whole record so callers can reach fields newer
// firmware appends past the fixed layout.
type DiagnosticCounters struct {
	RecordVersion  uint16
	RxGood         uint32
	RxBadDeviceID  uint32
	RxBadLength    uint32
	RxBadCommand   uint32
	RxBadChecksum  uint32
	RxOverruns     uint32
	TxSent         uint32
	TxOverruns     uint32
	LastBootReason byte
	BootCounters   [16]uint16

	ChargeCount        uint16
	SecondsSinceCharge uint16
	SecondsOn          uint32
	DistanceRolled     uint32
	SensorFailures     uint16
	GyroAdjustCount    uint32

	Raw []byte
}

// ParseDiagnosticCounters decodes the level 2 diagnostics record.
func ParseDiagnosticCounters(data []byte) (*DiagnosticCounters, error) {
	if err := checkLen("diagnostic counters", data, 86); err != nil {
		return nil, err
	}

	c := &DiagnosticCounters{
		RecordVersion:  binary.BigEndian.Uint16(data[0:2]),
		RxGood:         binary.BigEndian.Uint32(data[2:6]),
		RxBadDeviceID:  binary.BigEndian.Uint32(data[6:10]),
		RxBadLength:    binary.BigEndian.Uint32(data[10:14]),
		RxBadCommand:   binary.BigEndian.Uint32(data[14:18]),
		RxBadChecksum:  binary.BigEndian.Uint32(data[18:22]),
		RxOverruns:     binary.BigEndian.Uint32(data[22:26]),
		TxSent:         binary.BigEndian.Uint32(data[26:30]),
		TxOverruns:     binary.BigEndian.Uint32(data[30:34]),
		LastBootReason: data[34],

		ChargeCount:        binary.BigEndian.Uint16(data[68:70]),
		SecondsSinceCharge: binary.BigEndian.Uint16(data[70:72]),
		SecondsOn:          binary.BigEndian.Uint32(data[72:76]),
		DistanceRolled:     binary.BigEndian.Uint32(data[76:80]),
		SensorFailures:     binary.BigEndian.Uint16(data[80:82]),
		GyroAdjustCount:    binary.BigEndian.Uint32(data[82:86]),

		Raw: append([]byte(nil), data...),
	}

	for i := range c.BootCounters {
		c.BootCounters[i] = binary.BigEndian.Uint16(data[35+2*i : 37+2*i])
	}

	return c, nil
}

// LocatorReading is a position and velocity sample from the locator: the
// coordinates in centimeters from the last configured origin, velocity
// components and speed over ground.
type LocatorReading struct {
	X, Y                 int16
	VelocityX, VelocityY int16
	Speed                uint16
}

// ParseLocatorReading decodes the 10-byte locator record.
func ParseLocatorReading(data []byte) (*LocatorReading, error) {
	if err := checkLen("locator reading", data, 10); err != nil {
		return nil, err
	}

	return &LocatorReading{
		X:         int16(binary.BigEndian.Uint16(data[0:2])),
		Y:         int16(binary.BigEndian.Uint16(data[2:4])),
		VelocityX: int16(binary.BigEndian.Uint16(data[4:6])),
		VelocityY: int16(binary.BigEndian.Uint16(data[6:8])),
		Speed:     binary.BigEndian.Uint16(data[8:10]),
	}, nil
}

// RGB is a LED color triple.
type RGB struct {
	R, G, B byte
}

// ParseRGB decodes a 3-byte color record.
func ParseRGB(data []byte) (*RGB, error) {
	if err := checkLen("rgb", data, 3); err != nil {
		return nil, err
	}

	return &RGB{R: data[0], G: data[1], B: data[2]}, nil
}

// CollisionData is the payload of a collision notification: the impact
// components read from the accelerometer, which axes crossed their
// thresholds, the impact magnitudes, the speed at impact and the robot's
// millisecond clock at detection.
type CollisionData struct {
	X, Y, Z                int16
	Axis                   byte
	XMagnitude, YMagnitude uint16
	Speed                  byte
	Timestamp              uint32
}

// Axis bits in CollisionData.
const (
	CollisionAxisX byte = 0x01
	CollisionAxisY byte = 0x02
)

// ParseCollisionData decodes the 16-byte collision notification payload.
func ParseCollisionData(data []byte) (*CollisionData, error) {
	if err := checkLen("collision data", data, 16); err != nil {
		return nil, err
	}

	return &CollisionData{
		X:          int16(binary.BigEndian.Uint16(data[0:2])),
		Y:          int16(binary.BigEndian.Uint16(data[2:4])),
		Z:          int16(binary.BigEndian.Uint16(data[4:6])),
		Axis:       data[6],
		XMagnitude: binary.BigEndian.Uint16(data[7:9]),
		YMagnitude: binary.BigEndian.Uint16(data[9:11]),
		Speed:      data[11],
		Timestamp:  binary.BigEndian.Uint32(data[12:16]),
	}, nil
}

// PacketTimes is the timing triple from a packet time poll: the caller's
// transmit time echoed back, and the robot's receive and transmit times,
// all in milliseconds on wrapping 32-bit clocks.
type PacketTimes struct {
	ClientTx uint32
	RobotRx  uint32
	RobotTx  uint32
}

// ParsePacketTimes decodes the 12-byte packet timing record.
func ParsePacketTimes(data []byte) (*PacketTimes, error) {
	if err := checkLen("packet times", data, 12); err != nil {
		return nil, err
	}

	return &PacketTimes{
		ClientTx: binary.BigEndian.Uint32(data[0:4]),
		RobotRx:  binary.BigEndian.Uint32(data[4:8]),
		RobotTx:  binary.BigEndian.Uint32(data[8:12]),
	}, nil
}

// Offset estimates the robot clock minus the caller clock in
// milliseconds, given the caller's receive time for the poll response.
// Differences wrap on the 32-bit clocks before sign interpretation.
func (p *PacketTimes) Offset(clientRx uint32) int32 {
	toRobot := int32(p.RobotRx - p.ClientTx)
	fromRobot := int32(p.RobotTx - clientRx)

	return int32((int64(toRobot) + int64(fromRobot)) / 2)
}

// Delay estimates the round-trip network delay in milliseconds, with the
// robot's processing time subtracted out.
func (p *PacketTimes) Delay(clientRx uint32) int32 {
	return int32(clientRx-p.ClientTx) - int32(p.RobotTx-p.RobotRx)
}

// SelfLevelResult is the outcome reported by a self level notification.
type SelfLevelResult byte

const (
	SelfLevelResultUnknown    SelfLevelResult = 0x00
	SelfLevelResultTimedOut   SelfLevelResult = 0x01
	SelfLevelResultSensorsOff SelfLevelResult = 0x02
	SelfLevelResultSuccess    SelfLevelResult = 0x03
	SelfLevelResultAborted    SelfLevelResult = 0x04
)

func (r SelfLevelResult) String() string {
	switch r {
	case SelfLevelResultUnknown:
		return "unknown"
	case SelfLevelResultTimedOut:
		return "timed out"
	case SelfLevelResultSensorsOff:
		return "sensors off"
	case SelfLevelResultSuccess:
		return "success"
	case SelfLevelResultAborted:
		return "aborted"
	}

	return fmt.Sprintf("result(0x%02X)", byte(r))
}

// ParseSelfLevelResult decodes the payload of a self level notification.
func ParseSelfLevelResult(data []byte) (SelfLevelResult, error) {
	if err := checkLen("self level result", data, 1); err != nil {
		return 0, err
	}

	return SelfLevelResult(data[0]), nil
}
