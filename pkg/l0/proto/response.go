package proto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
)

// Status values of status lines.
const (
	StatusReady = "ready"
	StatusOK    = "ok"
	StatusError = "error"
)

// AckPong is the acknowledged name of a PING.
const AckPong = "PONG"

// Response is a line sent from the firmware to the host.
type Response interface {
	isResponse()
}

// Ready is announced once at boot.
type Ready struct {
	Device string
	Mode   string
}

// Ack confirms a command was recognized and applied.
type Ack struct {
	Cmd string
}

// ErrorReply reports a line which could not be handled.
type ErrorReply struct {
	Message string
}

// Telemetry is a snapshot of the sensor and motor state.
type Telemetry struct {
	Distance   Centimeters `json:"distance"`
	LeftSpeed  int16       `json:"left_speed"`
	RightSpeed int16       `json:"right_speed"`
	Uptime     int64       `json:"uptime"`
	Mode       string      `json:"mode"`
}

func (Ready) isResponse()      {}
func (Ack) isResponse()        {}
func (ErrorReply) isResponse() {}
func (Telemetry) isResponse()  {}

// NewErrorReply creates an ErrorReply from an error.
func NewErrorReply(err error) ErrorReply {
	return ErrorReply{Message: err.Error()}
}

// Error implements error.
func (e ErrorReply) Error() string { return e.Message }

// Centimeters is a distance which always serializes with one decimal.
type Centimeters float64

// MarshalJSON implements json.Marshaler.
func (c Centimeters) MarshalJSON() ([]byte, error) {
	val := float64(c)
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return nil, fmt.Errorf("unsupported distance %v", val)
	}
	return strconv.AppendFloat(nil, val, 'f', 1, 64), nil
}

type readyLine struct {
	Status string `json:"status"`
	Device string `json:"device"`
	Mode   string `json:"mode"`
}

type ackLine struct {
	Status string `json:"status"`
	Cmd    string `json:"cmd"`
}

type errorLine struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type statusLine struct {
	Status  string `json:"status"`
	Device  string `json:"device"`
	Mode    string `json:"mode"`
	Cmd     string `json:"cmd"`
	Message string `json:"message"`
}

// Encode writes one response line, including the trailing '\n', with a
// single Write call.
func Encode(w io.Writer, resp Response) error {
	var line interface{}
	switch r := resp.(type) {
	case Ready:
		line = &readyLine{Status: StatusReady, Device: r.Device, Mode: r.Mode}
	case Ack:
		line = &ackLine{Status: StatusOK, Cmd: r.Cmd}
	case ErrorReply:
		line = &errorLine{Status: StatusError, Message: r.Message}
	case Telemetry:
		line = &r
	default:
		return fmt.Errorf("unsupported response %T", resp)
	}
	return encodeLine(w, line)
}

// Marshal returns the encoded line of a response.
func Marshal(resp Response) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, resp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeLine(w io.Writer, v interface{}) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// DecodeMessage classifies a line received from the firmware.
// Lines carrying "distance" are telemetry, everything else must be a
// status line.
func DecodeMessage(raw []byte) (Response, error) {
	line := bytes.TrimSpace(raw)
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil || fields == nil {
		return nil, &MalformedError{Reason: ReasonInvalidJSON}
	}
	if _, ok := fields["distance"]; ok {
		var t Telemetry
		if err := json.Unmarshal(line, &t); err != nil {
			return nil, &MalformedError{Reason: ReasonInvalidJSON}
		}
		return t, nil
	}
	var st statusLine
	if err := json.Unmarshal(line, &st); err != nil {
		return nil, &MalformedError{Reason: ReasonInvalidJSON}
	}
	switch st.Status {
	case StatusReady:
		return Ready{Device: st.Device, Mode: st.Mode}, nil
	case StatusOK:
		return Ack{Cmd: st.Cmd}, nil
	case StatusError:
		return ErrorReply{Message: st.Message}, nil
	}
	return nil, &MalformedError{Reason: ReasonUnknownStatus}
}
