package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/orbworks/orbit/internal/util"
)

// Decode attempts to extract one complete robot→client frame (Response or
// Notification) from the start of window.
//
// It returns the decoded frame and the number of bytes consumed, or:
//
//   - ErrIncomplete (consumed 0): window holds a prefix of a frame; buffer
//     more bytes and retry. Windows shorter than two bytes always report
//     this, since the marker cannot be judged yet.
//   - ErrDesync (consumed 1): window does not begin with a start marker.
//     One byte is discarded; recovery is drop-one-byte-and-rescan, never a
//     skip to the next marker candidate.
//   - ErrChecksumMismatch or ErrInvalidLength (consumed 1): a structurally
//     complete but corrupt frame. One byte is discarded so rescanning can
//     find a genuine marker hiding inside the corrupt region.
//
// Decode never blocks and never retains window; frame data is copied out.
func Decode(window []byte) (Frame, int, error) {
	if len(window) < 2 {
		return nil, 0, ErrIncomplete
	}
	if window[0] != SOP1 || (window[1] != SOP2Sync && window[1] != SOP2Async) {
		return nil, 1, ErrDesync
	}

	if window[1] == SOP2Async {
		return decodeNotification(window)
	}

	return decodeResponse(window)
}

func decodeResponse(window []byte) (Frame, int, error) {
	if len(window) < responseHeaderSize {
		return nil, 0, ErrIncomplete
	}

	dlen := int(window[4])
	if dlen == 0 {
		return nil, 1, fmt.Errorf("%w: zero length byte in response", ErrInvalidLength)
	}

	total := responseHeaderSize + dlen
	if len(window) < total {
		return nil, 0, ErrIncomplete
	}

	if err := verifyChecksum(window[2:total]); err != nil {
		return nil, 1, err
	}

	resp := &Response{
		Status: window[2],
		Seq:    window[3],
		Data:   util.CloneSlice(window[responseHeaderSize:total-checksumSize], 0),
	}

	return resp, total, nil
}

func decodeNotification(window []byte) (Frame, int, error) {
	if len(window) < notifyHeaderSize {
		return nil, 0, ErrIncomplete
	}

	dlen := int(binary.BigEndian.Uint16(window[3:5]))
	if dlen == 0 {
		return nil, 1, fmt.Errorf("%w: zero length field in notification", ErrInvalidLength)
	}

	total := notifyHeaderSize + dlen
	if len(window) < total {
		return nil, 0, ErrIncomplete
	}

	if err := verifyChecksum(window[2:total]); err != nil {
		return nil, 1, err
	}

	notif := &Notification{
		IDCode: window[2],
		Data:   util.CloneSlice(window[notifyHeaderSize:total-checksumSize], 0),
	}

	return notif, total, nil
}

// DecodeRequest extracts one client→robot request frame from the start of
// window. Requests share their marker with synchronous responses, so the
// two wire directions need separate scanners; this one serves the robot
// side (device simulators and tests). The contract matches [Decode].
func DecodeRequest(window []byte) (*Request, int, error) {
	if len(window) < 2 {
		return nil, 0, ErrIncomplete
	}
	if window[0] != SOP1 || window[1] != SOP2Sync {
		return nil, 1, ErrDesync
	}
	if len(window) < requestHeaderSize {
		return nil, 0, ErrIncomplete
	}

	dlen := int(window[5])
	if dlen == 0 {
		return nil, 1, fmt.Errorf("%w: zero length byte in request", ErrInvalidLength)
	}

	total := requestHeaderSize + dlen
	if len(window) < total {
		return nil, 0, ErrIncomplete
	}

	if err := verifyChecksum(window[2:total]); err != nil {
		return nil, 1, err
	}

	req := &Request{
		DeviceID:  window[2],
		CommandID: window[3],
		Seq:       window[4],
		Data:      util.CloneSlice(window[requestHeaderSize:total-checksumSize], 0),
	}

	return req, total, nil
}

// verifyChecksum checks the trailing checksum of body, where body spans
// every byte after the start marker through the checksum itself.
func verifyChecksum(body []byte) error {
	wire := body[len(body)-1]
	computed := Checksum(body[:len(body)-1])
	if wire != computed {
		return fmt.Errorf("%w: wire=0x%02X, computed=0x%02X", ErrChecksumMismatch, wire, computed)
	}

	return nil
}

// Deframer owns the input accumulation buffer for one channel and turns
// arbitrarily chunked reads into whole frames. It is not safe for
// concurrent use; the session drives it from a single read loop.
type Deframer struct {
	buf     []byte
	dropped uint64
}

// Push appends bytes read from the channel to the window.
func (d *Deframer) Push(p []byte) {
	d.buf = append(d.buf, p...)
}

// Next extracts the next frame from the window.
//
// Bytes discarded while hunting for a start marker are consumed silently
// and counted by Dropped. A checksum or length failure is surfaced once
// per corrupt frame with the window already advanced, so calling Next
// again resumes scanning. Next returns ErrIncomplete when the window holds
// no complete frame.
func (d *Deframer) Next() (Frame, error) {
	for {
		frame, consumed, err := Decode(d.buf)
		d.advance(consumed)

		switch {
		case err == nil:
			return frame, nil
		case errors.Is(err, ErrIncomplete):
			return nil, ErrIncomplete
		case errors.Is(err, ErrDesync):
			d.dropped++
		default:
			d.dropped++
			return nil, err
		}
	}
}

// Dropped returns the total number of bytes discarded while
// resynchronizing, across marker hunts and corrupt-frame recovery.
func (d *Deframer) Dropped() uint64 {
	return d.dropped
}

// Buffered returns the number of bytes currently held in the window.
func (d *Deframer) Buffered() int {
	return len(d.buf)
}

func (d *Deframer) advance(n int) {
	switch {
	case n <= 0:
	case n >= len(d.buf):
		d.buf = d.buf[:0]
	default:
		d.buf = append(d.buf[:0], d.buf[n:]...)
	}
}
