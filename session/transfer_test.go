package session

import (
	"bytes"
	"context"
	"testing"

	"github.com/orbworks/orbit/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentFragment struct {
	commandID byte
	data      []byte
}

// fragmentRecorder answers every request with a zero status and records
// what arrived, optionally failing one request by index.
func fragmentRecorder(got *[]sentFragment, failAt int, failStatus byte) func(r *fakeRobot, req *protocol.Request) {
	return func(r *fakeRobot, req *protocol.Request) {
		*got = append(*got, sentFragment{
			commandID: req.CommandID,
			data:      append([]byte(nil), req.Data...),
		})

		if len(*got)-1 == failAt {
			r.reply(failStatus, req.Seq, nil)

			return
		}

		r.reply(0x00, req.Seq, nil)
	}
}

func testTransfer(fragmentSize int, withErase bool) *Transfer {
	tr := &Transfer{
		FragmentSize: fragmentSize,
		First: func(fragment []byte) *protocol.Command {
			cmd, _ := protocol.NewCommand(0x02, 0x51, len(fragment))
			_ = cmd.SetBytes(0, fragment)

			return cmd
		},
		Next: func(fragment []byte) *protocol.Command {
			cmd, _ := protocol.NewCommand(0x02, 0x52, len(fragment))
			_ = cmd.SetBytes(0, fragment)

			return cmd
		},
	}

	if withErase {
		tr.Erase = func() *protocol.Command {
			cmd, _ := protocol.NewCommand(0x02, 0x50, 0)

			return cmd
		}
	}

	return tr
}

func TestTransfer_Run(t *testing.T) {
	var got []sentFragment
	s, _ := newTestSession(t, fragmentRecorder(&got, -1, 0))

	payload := bytes.Repeat([]byte{0xAB}, 250)
	require.NoError(t, testTransfer(100, false).Run(context.Background(), s, payload))

	require.Len(t, got, 3)
	assert.Equal(t, byte(0x51), got[0].commandID)
	assert.Equal(t, byte(0x52), got[1].commandID)
	assert.Equal(t, byte(0x52), got[2].commandID)
	assert.Len(t, got[0].data, 100)
	assert.Len(t, got[1].data, 100)
	assert.Len(t, got[2].data, 50)

	// Reassembling the fragments yields the original payload.
	var joined []byte
	for _, f := range got {
		joined = append(joined, f.data...)
	}
	assert.Equal(t, payload, joined)
}

func TestTransfer_Run_SingleFragment(t *testing.T) {
	var got []sentFragment
	s, _ := newTestSession(t, fragmentRecorder(&got, -1, 0))

	require.NoError(t, testTransfer(100, false).Run(context.Background(), s, []byte{0x01, 0x02}))

	require.Len(t, got, 1)
	assert.Equal(t, byte(0x51), got[0].commandID)
	assert.Equal(t, []byte{0x01, 0x02}, got[0].data)
}

func TestTransfer_Run_EraseFirst(t *testing.T) {
	var got []sentFragment
	s, _ := newTestSession(t, fragmentRecorder(&got, -1, 0))

	require.NoError(t, testTransfer(100, true).Run(context.Background(), s, bytes.Repeat([]byte{0x11}, 150)))

	require.Len(t, got, 3)
	assert.Equal(t, byte(0x50), got[0].commandID)
	assert.Empty(t, got[0].data)
	assert.Equal(t, byte(0x51), got[1].commandID)
	assert.Equal(t, byte(0x52), got[2].commandID)
}

func TestTransfer_Run_AbortsOnFailure(t *testing.T) {
	var got []sentFragment
	s, _ := newTestSession(t, fragmentRecorder(&got, 1, 0x31))

	err := testTransfer(100, false).Run(context.Background(), s, bytes.Repeat([]byte{0x11}, 300))
	require.Error(t, err)

	fragErr := &FragmentError{}
	require.ErrorAs(t, err, &fragErr)
	assert.Equal(t, 1, fragErr.Fragment)
	assert.Equal(t, 100, fragErr.Offset)

	statusErr := &protocol.StatusError{}
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, byte(0x31), statusErr.Code)

	// Nothing after the failed fragment went out.
	assert.Len(t, got, 2)
}

func TestTransfer_Run_EraseFailure(t *testing.T) {
	var got []sentFragment
	s, _ := newTestSession(t, fragmentRecorder(&got, 0, 0x31))

	err := testTransfer(100, true).Run(context.Background(), s, []byte{0x01})
	require.Error(t, err)

	fragErr := &FragmentError{}
	require.ErrorAs(t, err, &fragErr)
	assert.Equal(t, -1, fragErr.Fragment)

	assert.Len(t, got, 1) // only the erase step reached the robot
}

func TestTransfer_Run_Validation(t *testing.T) {
	s, _ := newTestSession(t, nil)

	noBuilder := &Transfer{FragmentSize: 10}
	assert.ErrorIs(t, noBuilder.Run(context.Background(), s, []byte{0x01}), ErrTransferNoBuilder)

	assert.ErrorIs(t, testTransfer(0, false).Run(context.Background(), s, []byte{0x01}), ErrTransferFragmentSize)
	assert.ErrorIs(t, testTransfer(protocol.MaxRequestDataSize+1, false).Run(context.Background(), s, []byte{0x01}), ErrTransferFragmentSize)

	assert.ErrorIs(t, testTransfer(10, false).Run(context.Background(), s, nil), ErrTransferEmptyPayload)
}
