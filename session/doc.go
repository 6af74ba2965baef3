// Package session implements the request/response and notification layer
// of the robot protocol on top of a transport channel.
//
// A Session writes request frames tagged with one-byte sequence numbers
// and correlates each response frame back to the goroutine that sent the
// matching request, so any number of goroutines can issue commands over
// the one serial link. Asynchronous notification frames are routed either
// to a SendExpectNotify waiter or to the registered notification handler.
//
// # Usage
//
//	ch, err := transport.OpenSerial("/dev/rfcomm0")
//	if err != nil {
//		return err
//	}
//
//	s, err := session.New(ctx, ch)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	cmd, _ := protocol.NewCommand(0x00, 0x01, 0) // ping
//	if _, err := s.Send(ctx, cmd); err != nil {
//		return err
//	}
//
// Commands whose real outcome arrives asynchronously (self level, level 1
// diagnostics) use SendExpectNotify, which consumes the immediate
// acknowledgement and then blocks until the notification with the given
// id-code arrives.
//
// Oversized payloads such as macros and orbBasic programs are pushed with
// a Transfer, which fragments the payload and chains the fragments
// strictly sequentially.
package session
