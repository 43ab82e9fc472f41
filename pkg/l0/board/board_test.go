package board

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/robotalks/l0bot/pkg/l0/clock"
	"github.com/robotalks/l0bot/pkg/l0/motor"
	"github.com/robotalks/l0bot/pkg/l0/sonar"
)

func TestNewConfig(t *testing.T) {
	conf := NewConfig()
	require.Equal(t, 115200, conf.BaudRate)
	require.Equal(t, motor.DefaultFrequency, conf.PWMFrequency)
	require.Equal(t, sonar.DefaultTimeout, conf.EchoTimeout)
	require.NotEmpty(t, conf.ID)
	conf.Board = "other"
	require.NotEqual(t, "other", Default().Board)
}

func TestOpenUnknownBoard(t *testing.T) {
	conf := NewConfig()
	conf.Board = "arduino"
	_, err := conf.Open()
	require.True(t, errors.Is(err, ErrUnknownBoard))
}

func TestSimEcho(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	echo := NewSimEcho(clk, 50)
	r := &sonar.Reader{Trigger: &gpiotest.Pin{N: "trig"}, Echo: echo, Clock: clk}
	require.InDelta(t, 50, r.Measure(), 0.01)

	echo.SetDistance(500)
	require.Equal(t, sonar.MaxDistance, r.Measure())

	echo.SetDistance(0)
	start := clk.Now()
	require.Equal(t, sonar.NoEcho, r.Measure())
	require.True(t, clk.Now().Sub(start) >= sonar.DefaultTimeout)
}

type pipeRW struct {
	io.Reader
	io.Writer
}

func levels(p *gpiotest.Pin) (gpio.Level, gpio.Duty) {
	p.Lock()
	defer p.Unlock()
	return p.L, p.D
}

func TestSimBoard(t *testing.T) {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	conf := NewConfig()
	conf.Board = KindSim
	conf.Interval = 20 * time.Millisecond
	conf.SimDistance = 50
	b, err := openSim(conf, pipeRW{Reader: inR, Writer: outW})
	require.NoError(t, err)
	require.NotNil(t, b.Sim())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		errCh <- b.NewLoop().Run(ctx)
	}()

	replies := bufio.NewScanner(outR)
	require.True(t, replies.Scan())
	require.Equal(t, `{"status":"ready","device":"arduino_uno","mode":"camera_only"}`, replies.Text())

	go inW.Write([]byte(`{"cmd":"MOVE","left":255,"right":-128}` + "\n"))
	var distance float64
	acked := false
	for i := 0; i < 100 && (!acked || distance == 0); i++ {
		require.True(t, replies.Scan())
		var frame map[string]interface{}
		require.NoError(t, json.Unmarshal(replies.Bytes(), &frame))
		if frame["cmd"] == "MOVE" {
			acked = true
			continue
		}
		if d, ok := frame["distance"].(float64); ok && d != sonar.NoEcho {
			distance = d
		}
	}
	require.True(t, acked)
	require.InDelta(t, 50, distance, 5)

	sim := b.Sim()
	l, _ := levels(sim.LeftForward)
	require.Equal(t, gpio.High, l)
	_, d := levels(sim.LeftEnable)
	require.Equal(t, gpio.DutyMax, d)
	l, _ = levels(sim.RightReverse)
	require.Equal(t, gpio.High, l)
	l, _ = levels(sim.RightForward)
	require.Equal(t, gpio.Low, l)

	cancel()
	go func() {
		for replies.Scan() {
		}
	}()
	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}
	_, d = levels(sim.LeftEnable)
	require.Equal(t, gpio.Duty(0), d)
	require.NoError(t, b.Close())
}

func TestSimArena(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	conf := NewConfig()
	conf.Board = KindSim
	conf.SimArena = 200
	b, err := openSimWith(conf, pipeRW{}, clk)
	require.NoError(t, err)
	drive := b.Sim().Drive
	require.NotNil(t, drive)

	// the nose is 10cm ahead of the center, the wall at 100.
	require.InDelta(t, 90, b.Sonar.Measure(), 0.5)

	require.NoError(t, b.Motors.Apply(motor.State{Left: 255, Right: 255}))
	clk.Advance(time.Second)
	require.InDelta(t, 50, drive.Pose().X, 0.5)
	require.InDelta(t, 40, b.Sonar.Measure(), 0.5)
	l, _ := levels(b.Sim().LeftForward)
	require.Equal(t, gpio.High, l)
	_, d := levels(b.Sim().LeftEnable)
	require.Equal(t, gpio.DutyMax, d)

	require.NoError(t, b.Close())
	x := drive.Pose().X
	clk.Advance(time.Second)
	require.Equal(t, x, drive.Pose().X)
}
