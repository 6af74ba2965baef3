package protocol

import (
	"errors"
	"testing"
)

// FuzzDecode fuzzes the robot→client frame scanner with arbitrary windows.
//
// The scanner sits directly on channel input, so it must never panic, and
// its consumed-byte contract must hold for every input: a decoded frame
// consumes its full wire length, ErrIncomplete consumes nothing, and every
// other error consumes exactly one byte.
func FuzzDecode(f *testing.F) {
	// Seed: plain ack (status 0x00, seq 0x52, no data)
	f.Add([]byte{0xFF, 0xFF, 0x00, 0x52, 0x01, 0xAC})

	// Seed: response carrying an 8-byte version record
	f.Add([]byte{0xFF, 0xFF, 0x00, 0x01, 0x09, 0x02, 0x03, 0x01, 0x01, 0x14, 0x16, 0x04, 0x09, 0xB7})

	// Seed: power notification (id-code 0x01, one data byte)
	f.Add([]byte{0xFF, 0xFE, 0x01, 0x00, 0x02, 0x02, 0xFA})

	// Seed: empty window
	f.Add([]byte{})

	// Seed: lone first marker byte
	f.Add([]byte{0xFF})

	// Seed: complete marker, nothing after it
	f.Add([]byte{0xFF, 0xFF})

	// Seed: zero length byte (always malformed; the length counts the checksum)
	f.Add([]byte{0xFF, 0xFF, 0x00, 0x52, 0x00})

	// Seed: truncated frame (length claims 5 bytes, window carries 2)
	f.Add([]byte{0xFF, 0xFF, 0x00, 0x52, 0x05, 0x01, 0x02})

	// Seed: checksum mismatch
	f.Add([]byte{0xFF, 0xFF, 0x00, 0x52, 0x01, 0xAB})

	// Seed: garbage bytes before a valid frame
	f.Add([]byte{0x01, 0x02, 0x03, 0xFF, 0xFF, 0x00, 0x52, 0x01, 0xAC})

	// Seed: notification declaring the maximum length with almost no bytes
	f.Add([]byte{0xFF, 0xFE, 0x01, 0xFF, 0xFF, 0x01, 0x02, 0x03})

	f.Fuzz(func(t *testing.T, window []byte) {
		frame, consumed, err := Decode(window)

		switch {
		case err == nil:
			if frame == nil {
				t.Fatal("Decode returned nil frame and nil err")
			}
			if consumed < responseHeaderSize+checksumSize || consumed > len(window) {
				t.Fatalf("decoded frame consumed %d of %d bytes", consumed, len(window))
			}
		case errors.Is(err, ErrIncomplete):
			if consumed != 0 {
				t.Fatalf("ErrIncomplete consumed %d bytes, want 0", consumed)
			}
		default:
			if consumed != 1 {
				t.Fatalf("%v consumed %d bytes, want 1", err, consumed)
			}
		}
	})
}

// FuzzDecodeRequest fuzzes the client→robot request scanner that device
// simulators run on their receive path. Same contract as FuzzDecode.
func FuzzDecodeRequest(f *testing.F) {
	// Seed: ping (DID 0x00, CID 0x01, seq 0x52, no data)
	f.Add([]byte{0xFF, 0xFF, 0x00, 0x01, 0x52, 0x01, 0xAB})

	// Seed: roll command with a 4-byte payload
	f.Add([]byte{0xFF, 0xFF, 0x02, 0x30, 0x01, 0x05, 0x9B, 0x01, 0x2C, 0x01, 0xFE})

	// Seed: empty window
	f.Add([]byte{})

	// Seed: notification marker (wrong direction for this scanner)
	f.Add([]byte{0xFF, 0xFE, 0x01, 0x00, 0x02, 0x02, 0xFA})

	// Seed: zero length byte
	f.Add([]byte{0xFF, 0xFF, 0x00, 0x01, 0x52, 0x00})

	// Seed: header complete, data truncated
	f.Add([]byte{0xFF, 0xFF, 0x02, 0x20, 0x07, 0x05, 0xFF, 0x00})

	// Seed: checksum mismatch
	f.Add([]byte{0xFF, 0xFF, 0x00, 0x01, 0x52, 0x01, 0xAA})

	f.Fuzz(func(t *testing.T, window []byte) {
		req, consumed, err := DecodeRequest(window)

		switch {
		case err == nil:
			if req == nil {
				t.Fatal("DecodeRequest returned nil request and nil err")
			}
			if consumed < requestHeaderSize+checksumSize || consumed > len(window) {
				t.Fatalf("decoded request consumed %d of %d bytes", consumed, len(window))
			}
		case errors.Is(err, ErrIncomplete):
			if consumed != 0 {
				t.Fatalf("ErrIncomplete consumed %d bytes, want 0", consumed)
			}
		default:
			if consumed != 1 {
				t.Fatalf("%v consumed %d bytes, want 1", err, consumed)
			}
		}
	})
}

// FuzzDeframer feeds the deframer an arbitrary stream in arbitrary chunk
// sizes and drains it after every push. The deframer must never panic,
// must make progress on every pass, and must never buffer more bytes than
// it was given.
func FuzzDeframer(f *testing.F) {
	// Seed: two clean frames, chunked mid-frame
	f.Add([]byte{
		0xFF, 0xFF, 0x00, 0x52, 0x01, 0xAC,
		0xFF, 0xFE, 0x01, 0x00, 0x02, 0x02, 0xFA,
	}, uint8(3))

	// Seed: corrupt frame between two clean ones
	f.Add([]byte{
		0xFF, 0xFF, 0x00, 0x52, 0x01, 0xAC,
		0xFF, 0xFF, 0x00, 0x52, 0x01, 0xAB,
		0xFF, 0xFE, 0x01, 0x00, 0x02, 0x02, 0xFA,
	}, uint8(1))

	// Seed: pure garbage
	f.Add([]byte{0x00, 0x11, 0x22, 0xFE, 0xFF, 0x33}, uint8(5))

	f.Fuzz(func(t *testing.T, stream []byte, chunk uint8) {
		size := int(chunk)%16 + 1
		d := &Deframer{}

		passes := 0
		for off := 0; off < len(stream); off += size {
			end := off + size
			if end > len(stream) {
				end = len(stream)
			}
			d.Push(stream[off:end])

			for {
				frame, err := d.Next()
				if errors.Is(err, ErrIncomplete) {
					break
				}
				if err == nil && frame == nil {
					t.Fatal("Next returned nil frame and nil err")
				}

				passes++
				if passes > len(stream)+16 {
					t.Fatal("deframer failed to make progress")
				}
			}

			if d.Buffered() > len(stream) {
				t.Fatalf("deframer buffers %d bytes of a %d byte stream", d.Buffered(), len(stream))
			}
		}

		if d.Dropped() > uint64(len(stream)) {
			t.Fatalf("deframer dropped %d bytes of a %d byte stream", d.Dropped(), len(stream))
		}
	})
}
