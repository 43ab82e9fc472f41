package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
)

// Command names on the wire.
const (
	NameMove       = "MOVE"
	NameStop       = "STOP"
	NameSetSpeed   = "SET_SPEED"
	NameGetSensors = "GET_SENSORS"
	NamePing       = "PING"
)

// MaxDuty is the largest duty magnitude accepted in a MOVE command.
const MaxDuty = 255

// Command is a decoded host command.
type Command interface {
	// Name returns the wire name of the command.
	Name() string
}

// Move sets the signed duty of both motors.
type Move struct {
	Left  int16
	Right int16
}

// Stop zeroes both motors.
type Stop struct{}

// SetSpeed is acknowledged but has no effect, speed is set through Move.
type SetSpeed struct {
	Value int
}

// GetSensors requests an immediate telemetry frame.
type GetSensors struct{}

// Ping requests a PONG acknowledgement.
type Ping struct{}

// Name implements Command.
func (Move) Name() string { return NameMove }

// Name implements Command.
func (Stop) Name() string { return NameStop }

// Name implements Command.
func (SetSpeed) Name() string { return NameSetSpeed }

// Name implements Command.
func (GetSensors) Name() string { return NameGetSensors }

// Name implements Command.
func (Ping) Name() string { return NamePing }

// ParseLine decodes one line into a Command.
// An empty (or blank) line decodes to a nil Command and nil error, the
// caller should simply skip it.
func ParseLine(raw []byte) (Command, error) {
	line := bytes.TrimSpace(raw)
	if len(line) == 0 {
		return nil, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return nil, &MalformedError{Reason: ReasonInvalidJSON}
	}
	var name string
	if val, ok := fields["cmd"]; ok {
		if err := json.Unmarshal(val, &name); err != nil {
			return nil, &MalformedError{Reason: ReasonMissingCmd}
		}
	}
	if name == "" {
		return nil, &MalformedError{Reason: ReasonMissingCmd}
	}

	switch name {
	case NameMove:
		return Move{
			Left:  clampDuty(numberField(fields["left"])),
			Right: clampDuty(numberField(fields["right"])),
		}, nil
	case NameStop:
		return Stop{}, nil
	case NameSetSpeed:
		return SetSpeed{Value: clampInt(numberField(fields["value"]))}, nil
	case NameGetSensors:
		return GetSensors{}, nil
	case NamePing:
		return Ping{}, nil
	}
	return nil, &UnknownCommandError{Cmd: name}
}

// numberField reads an optional numeric field, anything absent or
// non-numeric reads as 0. Numbers beyond float64 range read as ±Inf.
func numberField(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var val float64
	if err := json.Unmarshal(raw, &val); err != nil {
		if inf, err := strconv.ParseFloat(string(raw), 64); errors.Is(err, strconv.ErrRange) {
			return inf
		}
		return 0
	}
	return val
}

func clampDuty(val float64) int16 {
	switch {
	case val > MaxDuty:
		return MaxDuty
	case val < -MaxDuty:
		return -MaxDuty
	}
	return int16(val)
}

func clampInt(val float64) int {
	switch {
	case val > math.MaxInt32:
		return math.MaxInt32
	case val < math.MinInt32:
		return math.MinInt32
	}
	return int(val)
}

type commandLine struct {
	Cmd   string `json:"cmd"`
	Left  *int16 `json:"left,omitempty"`
	Right *int16 `json:"right,omitempty"`
	Value *int   `json:"value,omitempty"`
}

// EncodeCommand serializes a command into a request line terminated
// by '\n'. This is what the host sends to the firmware.
func EncodeCommand(cmd Command) ([]byte, error) {
	line := commandLine{Cmd: cmd.Name()}
	switch c := cmd.(type) {
	case Move:
		line.Left, line.Right = &c.Left, &c.Right
	case SetSpeed:
		line.Value = &c.Value
	}
	var buf bytes.Buffer
	if err := encodeLine(&buf, &line); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
