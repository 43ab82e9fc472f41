package device

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	eventSize  = 8
	maxDevices = 32

	evINIT uint8 = 0x80
	evBTN  uint8 = 0x01
	evAXIS uint8 = 0x02
)

// event is struct js_event of the Linux joystick API.
type event struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

// DecodeEvent decodes a raw js_event.
func DecodeEvent(raw []byte) (Event, error) {
	if len(raw) != eventSize {
		return nil, fmt.Errorf("invalid event size %d", len(raw))
	}
	var ev event
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &ev); err != nil {
		return nil, err
	}
	switch ev.Type &^ evINIT {
	case evBTN:
		return &buttonEvent{event: ev}, nil
	case evAXIS:
		return &axisEvent{event: ev}, nil
	}
	return &ev, nil
}

func (e *event) IsInit() bool {
	return e.Type&evINIT != 0
}

func (e *event) Index() int {
	return int(e.Number)
}

type axisEvent struct {
	event
}

func (e *axisEvent) Value() int {
	return int(e.event.Value)
}

type buttonEvent struct {
	event
}

func (e *buttonEvent) Pressed() bool {
	return e.Value != 0
}
