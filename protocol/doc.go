// Package protocol implements the framing layer of the Orbit robot command
// protocol: checksums, frame encoding, and a streaming decoder that survives
// noise on the byte channel.
//
// # Protocol Overview
//
// The robot speaks a compact binary protocol over a duplex byte stream
// (Bluetooth RFCOMM or a USB serial bridge). Three frame families exist,
// all introduced by a two-byte start-of-packet marker and terminated by a
// one-byte checksum:
//
//	Request (client → robot):
//	  FF FF  DID  CID  SEQ  DLEN  DATA...  CHK
//
//	Synchronous response (robot → client):
//	  FF FF  MRSP  SEQ  DLEN  DATA...  CHK
//
//	Asynchronous notification (robot → client):
//	  FF FE  IDCODE  DLEN_HI  DLEN_LO  DATA...  CHK
//
// DLEN counts the data bytes plus the trailing checksum, so it is never
// zero. Requests and responses carry a one-byte length field; notifications
// carry a 16-bit big-endian field because sensor streams can exceed 254
// bytes. All multi-byte integers on the wire are big-endian.
//
// The checksum is the modulo-256 sum of every byte between the marker and
// the checksum itself, bitwise-complemented. See [Checksum].
//
// # Decoding
//
// [Decode] is a linear-time streaming scanner: feed it the buffered input,
// and it yields one frame, asks for more bytes, or discards exactly one
// byte to resynchronize after noise. [Deframer] wraps it with buffer
// ownership for use on a live read loop. Corrupt frames are reported and
// skipped without stalling later valid frames.
//
// # Relationship to Other Packages
//
// The session package drives this codec from its read loop and correlates
// decoded responses back to callers; the device package builds [Command]
// payloads for the robot's command catalogue.
package protocol
