// Package transport provides the byte channels a robot session speaks
// through.
//
// The protocol layer is transport-agnostic: anything that moves bytes in
// both directions can carry frames. The common deployment is a serial
// device behind a Bluetooth RFCOMM bridge (see OpenSerial), but a TCP
// connection to a serial multiplexer, or one end of a net.Pipe in tests,
// works the same way.
package transport

import "io"

// Channel is a full-duplex byte stream to a robot.
//
// Reads may be polled: a Channel whose underlying transport supports read
// timeouts returns (0, nil) when the timeout elapses with no data, and
// the caller simply reads again. Implementations must allow Close to be
// called concurrently with a blocked Read to unblock it.
type Channel interface {
	io.ReadWriteCloser
}
