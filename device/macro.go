package device

import (
	"context"

	"github.com/orbworks/orbit/protocol"
	"github.com/orbworks/orbit/session"
)

// Macro executive command ids.
const (
	cidSaveTemporaryMacro   byte = 0x50
	cidSaveMacro            byte = 0x51
	cidReinitMacroExecutive byte = 0x52
	cidAbortMacro           byte = 0x53
	cidRunMacro             byte = 0x54
	cidAppendMacroChunk     byte = 0x58
)

// macroFragmentSize is the bytecode carried per frame during chunked
// macro uploads.
const macroFragmentSize = 220

// TemporaryMacroID runs the macro stored in the temporary slot.
const TemporaryMacroID byte = 0xFF

// SaveTemporaryMacro stores macro bytecode in the volatile temporary
// slot, replacing whatever was there. Macros over one frame go through
// LoadTemporaryMacro instead.
func (d *Driver) SaveTemporaryMacro(ctx context.Context, data []byte) error {
	return d.exec(ctx, DeviceRobot, cidSaveTemporaryMacro, data)
}

// SaveMacro stores macro bytecode in persistent memory under the id
// carried in the bytecode's header.
func (d *Driver) SaveMacro(ctx context.Context, data []byte) error {
	return d.exec(ctx, DeviceRobot, cidSaveMacro, data)
}

// ReinitMacroExecutive aborts any running macro and resets the macro
// executive's state.
func (d *Driver) ReinitMacroExecutive(ctx context.Context) error {
	return d.exec(ctx, DeviceRobot, cidReinitMacroExecutive)
}

// AbortMacro stops the running macro. Macros flagged unkillable keep
// running and the robot reports an execution failure.
func (d *Driver) AbortMacro(ctx context.Context) error {
	return d.exec(ctx, DeviceRobot, cidAbortMacro)
}

// RunMacro starts the stored macro with the given id. TemporaryMacroID
// runs the temporary slot.
func (d *Driver) RunMacro(ctx context.Context, id byte) error {
	return d.exec(ctx, DeviceRobot, cidRunMacro, u8(id))
}

// AppendMacroChunk appends bytecode to the temporary macro under
// construction. Chunks over one frame must be split by the caller;
// LoadTemporaryMacro does this automatically.
func (d *Driver) AppendMacroChunk(ctx context.Context, chunk []byte) error {
	return d.exec(ctx, DeviceRobot, cidAppendMacroChunk, chunk)
}

// LoadTemporaryMacro stores macro bytecode of any length in the
// temporary slot. Bytecode that fits one frame is stored with a single
// command; anything longer is streamed as a save followed by append
// chunks, each sent only after the previous one is acknowledged. A
// failed chunk aborts the upload and leaves the slot partially written.
func (d *Driver) LoadTemporaryMacro(ctx context.Context, data []byte) error {
	if len(data) <= macroFragmentSize {
		return d.SaveTemporaryMacro(ctx, data)
	}

	transfer := &session.Transfer{
		FragmentSize: macroFragmentSize,
		First: func(fragment []byte) *protocol.Command {
			cmd, _ := command(DeviceRobot, cidSaveTemporaryMacro, fragment)

			return cmd
		},
		Next: func(fragment []byte) *protocol.Command {
			cmd, _ := command(DeviceRobot, cidAppendMacroChunk, fragment)

			return cmd
		},
	}

	return transfer.Run(ctx, d.s, data)
}
