// Package proto implements the L0 line protocol between the firmware and
// its host.
//
// Every message is a single JSON object terminated by '\n'. The host sends
// commands identified by the "cmd" field; the firmware answers with status
// lines (ready, ok, error) and telemetry frames.
//
// The codec is stateless: one call parses or serializes exactly one line.
// Reading and writing bytes is left to the caller.
package proto
