package device

import (
	"errors"
	"fmt"
)

// ErrUnknownOptionFlags indicates an option flag name outside the
// catalogue, or a retrieved bitmap with set bits the catalogue does not
// name. Unknown bits are rejected rather than silently masked.
var ErrUnknownOptionFlags = errors.New("device: unknown option flags")

// OptionFlag is the symbolic name of one option flag bit.
type OptionFlag string

// Permanent option flags, persisted across power cycles.
const (
	FlagPreventSleepInCharger OptionFlag = "prevent-sleep-in-charger"
	FlagVectorDrive           OptionFlag = "vector-drive"
	FlagNoLevelingInCharger   OptionFlag = "no-leveling-in-charger"
	FlagTailLightAlwaysOn     OptionFlag = "tail-light-always-on"
	FlagMotionTimeouts        OptionFlag = "motion-timeouts"
	FlagRetailDemoMode        OptionFlag = "retail-demo-mode"
	FlagTapAwakeLight         OptionFlag = "tap-awake-light"
	FlagTapAwakeHeavy         OptionFlag = "tap-awake-heavy"
	FlagGyroMaxNotify         OptionFlag = "gyro-max-notify"
)

// Temporary option flags, reset on power cycle.
const (
	FlagStopOnDisconnect OptionFlag = "stop-on-disconnect"
)

type flagBit struct {
	name OptionFlag
	bit  uint32
}

// Tables are ordered by bit position so decoded flag lists are stable.
var permanentFlagTable = []flagBit{
	{FlagPreventSleepInCharger, 1 << 0},
	{FlagVectorDrive, 1 << 1},
	{FlagNoLevelingInCharger, 1 << 2},
	{FlagTailLightAlwaysOn, 1 << 3},
	{FlagMotionTimeouts, 1 << 4},
	{FlagRetailDemoMode, 1 << 5},
	{FlagTapAwakeLight, 1 << 6},
	{FlagTapAwakeHeavy, 1 << 7},
	{FlagGyroMaxNotify, 1 << 8},
}

var temporaryFlagTable = []flagBit{
	{FlagStopOnDisconnect, 1 << 0},
}

// PermanentFlagNames lists every permanent option flag the catalogue
// knows, in bit order.
func PermanentFlagNames() []OptionFlag {
	return flagNames(permanentFlagTable)
}

// TemporaryFlagNames lists every temporary option flag the catalogue
// knows, in bit order.
func TemporaryFlagNames() []OptionFlag {
	return flagNames(temporaryFlagTable)
}

func flagNames(table []flagBit) []OptionFlag {
	names := make([]OptionFlag, len(table))
	for i, e := range table {
		names[i] = e.name
	}

	return names
}

func encodeFlags(table []flagBit, flags []OptionFlag) (uint32, error) {
	var bits uint32

nextFlag:
	for _, f := range flags {
		for _, e := range table {
			if e.name == f {
				bits |= e.bit

				continue nextFlag
			}
		}

		return 0, fmt.Errorf("%w: %q", ErrUnknownOptionFlags, string(f))
	}

	return bits, nil
}

func decodeFlags(table []flagBit, bits uint32) ([]OptionFlag, error) {
	var flags []OptionFlag

	rest := bits
	for _, e := range table {
		if rest&e.bit != 0 {
			flags = append(flags, e.name)
			rest &^= e.bit
		}
	}

	if rest != 0 {
		return nil, fmt.Errorf("%w: bits 0x%08X", ErrUnknownOptionFlags, rest)
	}

	return flags, nil
}
