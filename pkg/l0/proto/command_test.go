package proto

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	testCases := []struct {
		name   string
		line   string
		expect Command
	}{
		{"move", `{"cmd":"MOVE","left":150,"right":-150}`, Move{Left: 150, Right: -150}},
		{"move with newline", "{\"cmd\":\"MOVE\",\"left\":1,\"right\":2}\n", Move{Left: 1, Right: 2}},
		{"move surrounded by blanks", "  \t{\"cmd\":\"MOVE\",\"left\":-3}\r\n", Move{Left: -3}},
		{"move missing fields", `{"cmd":"MOVE"}`, Move{}},
		{"move non-numeric fields", `{"cmd":"MOVE","left":"fast","right":true}`, Move{}},
		{"move null fields", `{"cmd":"MOVE","left":null,"right":[1]}`, Move{}},
		{"move fraction truncates", `{"cmd":"MOVE","left":99.9,"right":-99.9}`, Move{Left: 99, Right: -99}},
		{"move clamps high", `{"cmd":"MOVE","left":500,"right":100000}`, Move{Left: 255, Right: 255}},
		{"move clamps low", `{"cmd":"MOVE","left":-1000,"right":-1e30}`, Move{Left: -255, Right: -255}},
		{"move clamps beyond float range", `{"cmd":"MOVE","left":1e400,"right":-1e400}`, Move{Left: 255, Right: -255}},
		{"set speed beyond float range", `{"cmd":"SET_SPEED","value":-1e999}`, SetSpeed{Value: math.MinInt32}},
		{"move bounds", `{"cmd":"MOVE","left":255,"right":-255}`, Move{Left: 255, Right: -255}},
		{"stop", `{"cmd":"STOP"}`, Stop{}},
		{"stop ignores extra fields", `{"cmd":"STOP","left":12,"foo":{"bar":1}}`, Stop{}},
		{"set speed", `{"cmd":"SET_SPEED","value":120}`, SetSpeed{Value: 120}},
		{"set speed default", `{"cmd":"SET_SPEED"}`, SetSpeed{}},
		{"get sensors", `{"cmd":"GET_SENSORS"}`, GetSensors{}},
		{"ping", `{"cmd":"PING"}`, Ping{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := ParseLine([]byte(tc.line))
			require.NoError(t, err)
			require.Equal(t, tc.expect, cmd)
		})
	}
}

func TestParseLineEmpty(t *testing.T) {
	for _, line := range []string{"", "\n", "  \r\n", "\t"} {
		cmd, err := ParseLine([]byte(line))
		require.NoError(t, err)
		require.Nil(t, cmd)
	}
}

func TestParseLineMalformed(t *testing.T) {
	testCases := []struct {
		name   string
		line   string
		reason string
	}{
		{"not json", `{not json`, ReasonInvalidJSON},
		{"plain text", `PING`, ReasonInvalidJSON},
		{"array", `["PING"]`, ReasonInvalidJSON},
		{"number", `42`, ReasonInvalidJSON},
		{"trailing garbage", `{"cmd":"PING"} x`, ReasonInvalidJSON},
		{"null", `null`, ReasonMissingCmd},
		{"missing cmd", `{"left":1}`, ReasonMissingCmd},
		{"empty cmd", `{"cmd":""}`, ReasonMissingCmd},
		{"null cmd", `{"cmd":null}`, ReasonMissingCmd},
		{"numeric cmd", `{"cmd":7}`, ReasonMissingCmd},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := ParseLine([]byte(tc.line))
			require.Nil(t, cmd)
			require.True(t, errors.Is(err, ErrMalformed))
			var malformed *MalformedError
			require.True(t, errors.As(err, &malformed))
			require.Equal(t, tc.reason, malformed.Reason)
		})
	}
}

func TestParseLineUnknownCommand(t *testing.T) {
	for _, name := range []string{"FLY", "ping", "Move", "PONG"} {
		cmd, err := ParseLine([]byte(`{"cmd":"` + name + `"}`))
		require.Nil(t, cmd)
		require.True(t, errors.Is(err, ErrUnknownCommand))
		require.False(t, errors.Is(err, ErrMalformed))
		var unknown *UnknownCommandError
		require.True(t, errors.As(err, &unknown))
		require.Equal(t, name, unknown.Cmd)
		require.Equal(t, "unknown command: "+name, err.Error())
	}
}

func TestEncodeCommand(t *testing.T) {
	testCases := []struct {
		cmd    Command
		expect string
	}{
		{Move{Left: 150, Right: -150}, `{"cmd":"MOVE","left":150,"right":-150}`},
		{Move{}, `{"cmd":"MOVE","left":0,"right":0}`},
		{Stop{}, `{"cmd":"STOP"}`},
		{SetSpeed{Value: 10}, `{"cmd":"SET_SPEED","value":10}`},
		{GetSensors{}, `{"cmd":"GET_SENSORS"}`},
		{Ping{}, `{"cmd":"PING"}`},
	}
	for _, tc := range testCases {
		t.Run(tc.cmd.Name(), func(t *testing.T) {
			line, err := EncodeCommand(tc.cmd)
			require.NoError(t, err)
			require.Equal(t, tc.expect+"\n", string(line))
			parsed, err := ParseLine(line)
			require.NoError(t, err)
			require.Equal(t, tc.cmd, parsed)
		})
	}
}
