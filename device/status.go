package device

import (
	"errors"
	"fmt"

	"github.com/orbworks/orbit/protocol"
)

// Response status codes. Zero acknowledges success; everything else is
// surfaced to callers wrapped in a protocol.StatusError.
const (
	StatusOK                 byte = 0x00
	StatusGeneralError       byte = 0x01
	StatusChecksumFailure    byte = 0x02
	StatusFragmentReceived   byte = 0x03
	StatusUnknownCommand     byte = 0x04
	StatusUnsupported        byte = 0x05
	StatusBadMessage         byte = 0x06
	StatusInvalidParameter   byte = 0x07
	StatusExecutionFailure   byte = 0x08
	StatusUnknownDevice      byte = 0x09
	StatusMemoryBusy         byte = 0x0A
	StatusBadPassword        byte = 0x0B
	StatusPowerTooLow        byte = 0x31
	StatusIllegalPage        byte = 0x32
	StatusFlashFailure       byte = 0x33
	StatusApplicationCorrupt byte = 0x34
	StatusMessageTimeout     byte = 0x35
)

var statusText = map[byte]string{
	StatusOK:                 "ok",
	StatusGeneralError:       "general error",
	StatusChecksumFailure:    "received checksum failure",
	StatusFragmentReceived:   "received command fragment",
	StatusUnknownCommand:     "unknown command id",
	StatusUnsupported:        "command currently unsupported",
	StatusBadMessage:         "bad message format",
	StatusInvalidParameter:   "invalid parameter value",
	StatusExecutionFailure:   "failed to execute command",
	StatusUnknownDevice:      "unknown device id",
	StatusMemoryBusy:         "ram access needed but busy",
	StatusBadPassword:        "incorrect password",
	StatusPowerTooLow:        "voltage too low for reflash",
	StatusIllegalPage:        "illegal page number",
	StatusFlashFailure:       "page did not reprogram correctly",
	StatusApplicationCorrupt: "main application corrupt",
	StatusMessageTimeout:     "message timed out",
}

// StatusText returns the catalogue description for a response status
// code, or a hex rendering for codes outside the catalogue.
func StatusText(code byte) string {
	if text, ok := statusText[code]; ok {
		return text
	}

	return fmt.Sprintf("status 0x%02X", code)
}

// StatusOf extracts the raw status code from an error chain. It reports
// false when the error does not carry a response status.
func StatusOf(err error) (byte, bool) {
	statusErr := &protocol.StatusError{}
	if errors.As(err, &statusErr) {
		return statusErr.Code, true
	}

	return 0, false
}
