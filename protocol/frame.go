package protocol

import (
	"fmt"
)

// Start-of-packet marker bytes. Every frame begins with SOP1 followed by
// one of the SOP2 variants, which selects the frame family.
const (
	// SOP1 is the first byte of every frame.
	SOP1 byte = 0xFF

	// SOP2Sync introduces requests and synchronous responses.
	SOP2Sync byte = 0xFF

	// SOP2Async introduces asynchronous notifications.
	SOP2Async byte = 0xFE
)

// MaxRequestDataSize is the maximum number of data bytes in a request or
// synchronous response. The one-byte length field also counts the trailing
// checksum, so 254 data bytes produce the field's maximum value of 255.
const MaxRequestDataSize = 254

// MaxNotificationDataSize is the maximum number of data bytes in an
// asynchronous notification, whose length field is 16 bits wide.
const MaxNotificationDataSize = 65534

// Header sizes, start marker included.
const (
	requestHeaderSize  = 6 // SOP1 SOP2 DID CID SEQ DLEN
	responseHeaderSize = 5 // SOP1 SOP2 MRSP SEQ DLEN
	notifyHeaderSize   = 5 // SOP1 SOP2 IDCODE DLEN_HI DLEN_LO
	checksumSize       = 1
)

// Frame is one complete protocol message. The concrete types are
// [Request], [Response] and [Notification].
type Frame interface {
	// Encode serializes the frame to its wire representation.
	Encode() ([]byte, error)
}

// Request is a client→robot command frame.
//
// Wire layout: FF FF DID CID SEQ DLEN DATA... CHK.
type Request struct {
	DeviceID  byte
	CommandID byte
	Seq       byte
	Data      []byte
}

// Response is a robot→client synchronous reply, matched to its request by
// sequence number.
//
// Wire layout: FF FF MRSP SEQ DLEN DATA... CHK.
type Response struct {
	Status byte
	Seq    byte
	Data   []byte
}

// Notification is a robot→client asynchronous message, not tied to any
// request by the wire format.
//
// Wire layout: FF FE IDCODE DLEN_HI DLEN_LO DATA... CHK.
type Notification struct {
	IDCode byte
	Data   []byte
}

var (
	_ Frame = (*Request)(nil)
	_ Frame = (*Response)(nil)
	_ Frame = (*Notification)(nil)
)

// Encode serializes the request. It fails with ErrDataTooLong if the data
// exceeds MaxRequestDataSize.
func (r *Request) Encode() ([]byte, error) {
	if len(r.Data) > MaxRequestDataSize {
		return nil, fmt.Errorf("%w: %d data bytes, max %d", ErrDataTooLong, len(r.Data), MaxRequestDataSize)
	}

	buf := make([]byte, 0, requestHeaderSize+len(r.Data)+checksumSize)
	buf = append(buf, SOP1, SOP2Sync, r.DeviceID, r.CommandID, r.Seq, byte(len(r.Data)+1))
	buf = append(buf, r.Data...)
	buf = append(buf, Checksum(buf[2:]))

	return buf, nil
}

// Encode serializes the response. It fails with ErrDataTooLong if the data
// exceeds MaxRequestDataSize.
func (r *Response) Encode() ([]byte, error) {
	if len(r.Data) > MaxRequestDataSize {
		return nil, fmt.Errorf("%w: %d data bytes, max %d", ErrDataTooLong, len(r.Data), MaxRequestDataSize)
	}

	buf := make([]byte, 0, responseHeaderSize+len(r.Data)+checksumSize)
	buf = append(buf, SOP1, SOP2Sync, r.Status, r.Seq, byte(len(r.Data)+1))
	buf = append(buf, r.Data...)
	buf = append(buf, Checksum(buf[2:]))

	return buf, nil
}

// Ok reports whether the response status indicates success.
func (r *Response) Ok() bool {
	return r.Status == 0
}

// Encode serializes the notification. It fails with ErrDataTooLong if the
// data exceeds MaxNotificationDataSize.
func (n *Notification) Encode() ([]byte, error) {
	if len(n.Data) > MaxNotificationDataSize {
		return nil, fmt.Errorf("%w: %d data bytes, max %d", ErrDataTooLong, len(n.Data), MaxNotificationDataSize)
	}

	dlen := len(n.Data) + 1
	buf := make([]byte, 0, notifyHeaderSize+len(n.Data)+checksumSize)
	buf = append(buf, SOP1, SOP2Async, n.IDCode, byte(dlen>>8), byte(dlen))
	buf = append(buf, n.Data...)
	buf = append(buf, Checksum(buf[2:]))

	return buf, nil
}
