package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Request encoding ---

func TestRequest_Encode_Ping(t *testing.T) {
	// The documented worked example: a ping (device 0x00, command 0x01)
	// with no data and sequence 0x52.
	req := &Request{DeviceID: 0x00, CommandID: 0x01, Seq: 0x52}

	wire, err := req.Encode()
	require.NoError(t, err)
	require.Len(t, wire, 7)

	assert.Equal(t, []byte{0xFF, 0xFF, 0x00, 0x01, 0x52, 0x01, 0xAB}, wire)
}

func TestRequest_Encode_WithData(t *testing.T) {
	// Set RGB LED: device 0x02, command 0x20, red with persist flag.
	req := &Request{
		DeviceID:  0x02,
		CommandID: 0x20,
		Seq:       0x07,
		Data:      []byte{0xFF, 0x00, 0x00, 0x01},
	}

	wire, err := req.Encode()
	require.NoError(t, err)
	require.Len(t, wire, 11)

	assert.Equal(t, byte(0xFF), wire[0])
	assert.Equal(t, byte(0xFF), wire[1])
	assert.Equal(t, byte(0x02), wire[2], "device id")
	assert.Equal(t, byte(0x20), wire[3], "command id")
	assert.Equal(t, byte(0x07), wire[4], "sequence")
	assert.Equal(t, byte(0x05), wire[5], "length = data + checksum")
	assert.Equal(t, []byte{0xFF, 0x00, 0x00, 0x01}, wire[6:10])
	assert.Equal(t, Checksum(wire[2:10]), wire[10])
}

func TestRequest_Encode_MaxData(t *testing.T) {
	req := &Request{Data: make([]byte, MaxRequestDataSize)}

	wire, err := req.Encode()
	require.NoError(t, err)
	assert.Len(t, wire, 6+MaxRequestDataSize+1)
	assert.Equal(t, byte(0xFF), wire[5], "length byte at its maximum")
}

func TestRequest_Encode_DataTooLong(t *testing.T) {
	req := &Request{Data: make([]byte, MaxRequestDataSize+1)}

	_, err := req.Encode()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataTooLong)
}

// --- Response encoding ---

func TestResponse_Encode(t *testing.T) {
	resp := &Response{Status: 0x00, Seq: 0x52, Data: []byte{0x03}}

	wire, err := resp.Encode()
	require.NoError(t, err)
	require.Len(t, wire, 7)

	assert.Equal(t, byte(0xFF), wire[0])
	assert.Equal(t, byte(0xFF), wire[1])
	assert.Equal(t, byte(0x00), wire[2], "status")
	assert.Equal(t, byte(0x52), wire[3], "sequence")
	assert.Equal(t, byte(0x02), wire[4], "length")
	assert.Equal(t, byte(0x03), wire[5])
	assert.Equal(t, Checksum(wire[2:6]), wire[6])
}

func TestResponse_Ok(t *testing.T) {
	assert.True(t, (&Response{Status: 0x00}).Ok())
	assert.False(t, (&Response{Status: 0x07}).Ok())
}

// --- Notification encoding ---

func TestNotification_Encode(t *testing.T) {
	notif := &Notification{IDCode: 0x07, Data: []byte{0x01, 0x02}}

	wire, err := notif.Encode()
	require.NoError(t, err)
	require.Len(t, wire, 8)

	assert.Equal(t, byte(0xFF), wire[0])
	assert.Equal(t, byte(0xFE), wire[1], "async marker")
	assert.Equal(t, byte(0x07), wire[2], "id code")
	assert.Equal(t, byte(0x00), wire[3], "length high byte")
	assert.Equal(t, byte(0x03), wire[4], "length low byte = data + checksum")
	assert.Equal(t, []byte{0x01, 0x02}, wire[5:7])
	assert.Equal(t, Checksum(wire[2:7]), wire[7])
}

func TestNotification_Encode_WideLength(t *testing.T) {
	// Sensor streaming frames exceed the one-byte length range; the async
	// family's 16-bit field must carry them.
	notif := &Notification{IDCode: 0x03, Data: make([]byte, 0x0200)}

	wire, err := notif.Encode()
	require.NoError(t, err)
	require.Len(t, wire, 5+0x0200+1)

	assert.Equal(t, byte(0x02), wire[3], "length high byte")
	assert.Equal(t, byte(0x01), wire[4], "length low byte")
}

func TestNotification_Encode_DataTooLong(t *testing.T) {
	notif := &Notification{Data: make([]byte, MaxNotificationDataSize+1)}

	_, err := notif.Encode()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataTooLong)
}

// --- Round-trips through the matching decoder ---

func TestResponse_EncodeDecode_RoundTrip(t *testing.T) {
	orig := &Response{Status: 0x02, Seq: 0x99, Data: []byte{0xDE, 0xAD, 0xBE, 0xEF}}

	wire, err := orig.Encode()
	require.NoError(t, err)

	frame, consumed, err := Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, len(wire), consumed)

	resp, ok := frame.(*Response)
	require.True(t, ok)
	assert.Equal(t, orig.Status, resp.Status)
	assert.Equal(t, orig.Seq, resp.Seq)
	assert.Equal(t, orig.Data, resp.Data)
}

func TestNotification_EncodeDecode_RoundTrip(t *testing.T) {
	orig := &Notification{IDCode: 0x0B, Data: []byte{0x01}}

	wire, err := orig.Encode()
	require.NoError(t, err)

	frame, consumed, err := Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, len(wire), consumed)

	notif, ok := frame.(*Notification)
	require.True(t, ok)
	assert.Equal(t, orig.IDCode, notif.IDCode)
	assert.Equal(t, orig.Data, notif.Data)
}

func TestRequest_EncodeDecode_RoundTrip(t *testing.T) {
	orig := &Request{DeviceID: 0x02, CommandID: 0x30, Seq: 0x11, Data: []byte{0x80, 0x01, 0x2C, 0x01}}

	wire, err := orig.Encode()
	require.NoError(t, err)

	req, consumed, err := DecodeRequest(wire)
	require.NoError(t, err)
	assert.Equal(t, len(wire), consumed)
	assert.Equal(t, orig.DeviceID, req.DeviceID)
	assert.Equal(t, orig.CommandID, req.CommandID)
	assert.Equal(t, orig.Seq, req.Seq)
	assert.Equal(t, orig.Data, req.Data)
}

func TestRequest_EncodeDecode_EmptyData(t *testing.T) {
	orig := &Request{DeviceID: 0x00, CommandID: 0x01, Seq: 0x52}

	wire, err := orig.Encode()
	require.NoError(t, err)

	req, consumed, err := DecodeRequest(wire)
	require.NoError(t, err)
	assert.Equal(t, 7, consumed)
	assert.Empty(t, req.Data)
}
