package protocol

import (
	"errors"
	"fmt"
)

// Decoding errors.
var (
	// ErrIncomplete indicates the window holds only a prefix of a frame.
	// The caller must buffer more bytes before decoding can continue.
	ErrIncomplete = errors.New("protocol: incomplete frame")

	// ErrDesync indicates the window does not begin with a start-of-packet
	// marker. Exactly one byte has been discarded to resynchronize.
	ErrDesync = errors.New("protocol: no start-of-packet marker")

	// ErrChecksumMismatch indicates a structurally complete frame whose
	// trailing checksum does not match the recomputation over its body.
	ErrChecksumMismatch = errors.New("protocol: checksum mismatch")

	// ErrInvalidLength indicates a frame whose length field is zero.
	// The length field counts the trailing checksum, so zero is impossible.
	ErrInvalidLength = errors.New("protocol: invalid length field")
)

// Encoding errors.
var (
	// ErrDataTooLong indicates a payload that does not fit the frame's
	// length field. Oversized payloads go through chunked transfer instead.
	ErrDataTooLong = errors.New("protocol: data too long for frame")

	// ErrOffsetRange indicates a Command setter write that would land
	// outside the declared data buffer.
	ErrOffsetRange = errors.New("protocol: write outside declared data length")

	// ErrCommandSpent indicates a Command that was already finished into a
	// Request; spent commands reject further writes.
	ErrCommandSpent = errors.New("protocol: command already finished")
)

// StatusError reports a synchronous response carrying a non-zero status
// code. The meaning of individual codes belongs to the device catalogue;
// this layer only transports the raw value.
type StatusError struct {
	Code byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("protocol: request failed with status 0x%02X", e.Code)
}
