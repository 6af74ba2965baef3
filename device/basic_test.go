package device

import (
	"context"
	"strings"
	"testing"

	"github.com/orbworks/orbit/protocol"
	"github.com/orbworks/orbit/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriver_LoadProgram(t *testing.T) {
	d, robot := newTestDriver(t, replyOK)

	program := strings.Repeat("10 print \"hi\"\n", 40) // 560 bytes
	require.NoError(t, d.LoadProgram(context.Background(), ProgramAreaFlash, program))

	reqs := robot.requests()
	require.Len(t, reqs, 4)

	// Erase first, then append fragments, each prefixed with the area.
	assert.Equal(t, byte(0x60), reqs[0].CommandID)
	assert.Equal(t, []byte{ProgramAreaFlash}, reqs[0].Data)

	var joined []byte
	for _, req := range reqs[1:] {
		assert.Equal(t, byte(0x61), req.CommandID)
		require.NotEmpty(t, req.Data)
		assert.Equal(t, ProgramAreaFlash, req.Data[0])
		assert.LessOrEqual(t, len(req.Data), 221)

		joined = append(joined, req.Data[1:]...)
	}
	assert.Equal(t, program, string(joined))
}

func TestDriver_LoadProgram_EraseFailure(t *testing.T) {
	d, robot := newTestDriver(t, func(r *fakeRobot, req *protocol.Request) {
		if req.CommandID == 0x60 {
			r.reply(StatusIllegalPage, req.Seq, nil)

			return
		}

		r.reply(StatusOK, req.Seq, nil)
	})

	err := d.LoadProgram(context.Background(), ProgramAreaFlash, "10 print \"hi\"")
	require.Error(t, err)

	fragErr := &session.FragmentError{}
	require.ErrorAs(t, err, &fragErr)
	assert.Equal(t, -1, fragErr.Fragment)

	code, ok := StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, StatusIllegalPage, code)

	// Nothing was appended after the failed erase.
	require.Len(t, robot.requests(), 1)
}

func TestDriver_LoadProgram_AbortsOnFragmentFailure(t *testing.T) {
	appends := 0
	d, robot := newTestDriver(t, func(r *fakeRobot, req *protocol.Request) {
		if req.CommandID == 0x61 {
			appends++
			if appends == 2 {
				r.reply(StatusFlashFailure, req.Seq, nil)

				return
			}
		}

		r.reply(StatusOK, req.Seq, nil)
	})

	program := strings.Repeat("x", 500)
	err := d.LoadProgram(context.Background(), ProgramAreaFlash, program)
	require.Error(t, err)

	fragErr := &session.FragmentError{}
	require.ErrorAs(t, err, &fragErr)
	assert.Equal(t, 1, fragErr.Fragment)
	assert.Equal(t, 220, fragErr.Offset)

	// Erase plus two appends; the third fragment never went out.
	require.Len(t, robot.requests(), 3)
}
