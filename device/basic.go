package device

import (
	"context"

	"github.com/orbworks/orbit/protocol"
	"github.com/orbworks/orbit/session"
)

// Program interpreter command ids.
const (
	cidEraseProgramArea      byte = 0x60
	cidAppendProgramFragment byte = 0x61
	cidExecuteProgram        byte = 0x62
	cidAbortProgram          byte = 0x63
	cidSubmitInputValue      byte = 0x64
)

// Program storage areas.
const (
	ProgramAreaRAM   byte = 0x00
	ProgramAreaFlash byte = 0x01
)

// programFragmentSize is the program text carried per frame during
// chunked uploads. Each frame also carries the leading area byte.
const programFragmentSize = 220

// EraseProgramArea clears a program storage area.
func (d *Driver) EraseProgramArea(ctx context.Context, area byte) error {
	return d.exec(ctx, DeviceRobot, cidEraseProgramArea, u8(area))
}

// AppendProgramFragment appends program text to a storage area. Text
// over one frame must be split by the caller; LoadProgram does this
// automatically.
func (d *Driver) AppendProgramFragment(ctx context.Context, area byte, text []byte) error {
	return d.exec(ctx, DeviceRobot, cidAppendProgramFragment, u8(area), text)
}

// ExecuteProgram runs the program in a storage area from the given line.
func (d *Driver) ExecuteProgram(ctx context.Context, area byte, startLine uint16) error {
	return d.exec(ctx, DeviceRobot, cidExecuteProgram, u8(area), u16(startLine))
}

// AbortProgram stops the running program.
func (d *Driver) AbortProgram(ctx context.Context) error {
	return d.exec(ctx, DeviceRobot, cidAbortProgram)
}

// SubmitInputValue answers a running program's input statement.
func (d *Driver) SubmitInputValue(ctx context.Context, value int32) error {
	return d.exec(ctx, DeviceRobot, cidSubmitInputValue, u32(uint32(value)))
}

// LoadProgram erases a storage area and streams program text into it,
// fragment by fragment, each sent only after the previous one is
// acknowledged. A failed fragment aborts the upload and leaves the area
// partially written; the robot has no rollback.
func (d *Driver) LoadProgram(ctx context.Context, area byte, text string) error {
	appendFragment := func(fragment []byte) *protocol.Command {
		cmd, _ := command(DeviceRobot, cidAppendProgramFragment, u8(area), fragment)

		return cmd
	}

	transfer := &session.Transfer{
		FragmentSize: programFragmentSize,
		Erase: func() *protocol.Command {
			cmd, _ := command(DeviceRobot, cidEraseProgramArea, u8(area))

			return cmd
		},
		First: appendFragment,
	}

	return transfer.Run(ctx, d.s, []byte(text))
}
