package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/orbworks/orbit/protocol"
)

// Transfer validation errors.
var (
	ErrTransferNoBuilder    = errors.New("session: transfer has no First builder")
	ErrTransferEmptyPayload = errors.New("session: transfer payload is empty")
	ErrTransferFragmentSize = errors.New("session: transfer fragment size out of range")
)

// FragmentError wraps the failure of one step of a chunked transfer.
//
// Fragment is the zero-based index of the failed payload fragment and
// Offset is its byte offset into the payload. The erase step, which
// precedes the payload, reports Fragment -1.
type FragmentError struct {
	Fragment int
	Offset   int
	Err      error
}

func (e *FragmentError) Error() string {
	if e.Fragment < 0 {
		return fmt.Sprintf("session: transfer erase step failed: %v", e.Err)
	}

	return fmt.Sprintf("session: transfer fragment %d (offset %d) failed: %v", e.Fragment, e.Offset, e.Err)
}

func (e *FragmentError) Unwrap() error { return e.Err }

// Transfer pushes a payload that exceeds one request frame to the robot
// as a strictly sequential chain of fragments: fragment k+1 is not sent
// until fragment k's response arrived with zero status.
//
// The builders receive a fragment of the payload and return the command
// carrying it. First builds the command for fragment 0; Next builds
// every later fragment, or defaults to First when nil. Erase, when
// non-nil, builds a preparation command sent before any payload.
type Transfer struct {
	// FragmentSize is the payload byte count per fragment, in
	// [1, protocol.MaxRequestDataSize]. Builders add their own leading
	// bytes on top, so the usable maximum depends on the command.
	FragmentSize int

	Erase func() *protocol.Command
	First func(fragment []byte) *protocol.Command
	Next  func(fragment []byte) *protocol.Command
}

// Run executes the transfer against s. The first failing step aborts the
// chain and is returned wrapped in a *FragmentError; ctx applies to
// every step.
func (t *Transfer) Run(ctx context.Context, s *Session, payload []byte) error {
	if t.First == nil {
		return ErrTransferNoBuilder
	}

	if t.FragmentSize < 1 || t.FragmentSize > protocol.MaxRequestDataSize {
		return fmt.Errorf("%w: %d", ErrTransferFragmentSize, t.FragmentSize)
	}

	if len(payload) == 0 {
		return ErrTransferEmptyPayload
	}

	if t.Erase != nil {
		if _, err := s.Send(ctx, t.Erase()); err != nil {
			return &FragmentError{Fragment: -1, Offset: 0, Err: err}
		}
	}

	build := t.First

	for i, offset := 0, 0; offset < len(payload); i++ {
		end := offset + t.FragmentSize
		if end > len(payload) {
			end = len(payload)
		}

		if _, err := s.Send(ctx, build(payload[offset:end])); err != nil {
			return &FragmentError{Fragment: i, Offset: offset, Err: err}
		}

		if t.Next != nil {
			build = t.Next
		}

		offset = end
	}

	return nil
}
