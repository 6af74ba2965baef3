// Package device catalogues the robot's command set on top of a session.
//
// Driver methods map one to one onto wire commands. Each builds a fixed
// payload, sends it through the session, and decodes the reply record
// where the command defines one. The session layer owns sequencing,
// correlation and timeouts; this package owns encodings only.
//
// Commands whose real completion signal is an asynchronous notification
// rather than the immediate acknowledgement (level 1 diagnostics, self
// level) use the session's send-expect-notify path and return the decoded
// notification payload.
package device
