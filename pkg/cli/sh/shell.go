package sh

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/l0bot/pkg/l0/proto"
	"github.com/robotalks/l0bot/pkg/l1/link"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *link.Config
	Link   *Link
}

// Link is a running Driver connected to a serial port.
type Link struct {
	Ctx    context.Context
	Cancel func()
	Port   string
	Driver *link.Driver
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&PortsCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *link.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Link == nil {
			c.Err(link.ErrNotConnected)
			return
		}
		fn(c)
	}
}

// FormatTelemetry prints a telemetry frame into friendly string for display.
func FormatTelemetry(t proto.Telemetry) string {
	var w bytes.Buffer
	if float64(t.Distance) == 999 {
		fmt.Fprint(&w, "distance=none")
	} else {
		fmt.Fprintf(&w, "distance=%.1fcm", float64(t.Distance))
	}
	fmt.Fprintf(&w, " left=%d right=%d uptime=%v", t.LeftSpeed, t.RightSpeed, time.Duration(t.Uptime)*time.Millisecond)
	if t.Mode != "" {
		fmt.Fprintf(&w, " mode=%s", t.Mode)
	}
	return w.String()
}

// Robot returns the drive operations of the current link.
func (s *Shell) Robot() link.Robot {
	return s.Link.Driver.Robot()
}

// Print prints the reply of a command.
func (s *Shell) Print(c *ishell.Context, resp proto.Response) error {
	if s.OutputJSON {
		out, err := proto.Marshal(resp)
		if err != nil {
			return err
		}
		c.Print(string(out))
		return nil
	}
	switch r := resp.(type) {
	case proto.Ack:
		if r.Cmd == proto.AckPong {
			c.Println(r.Cmd)
		} else {
			c.Println("OK")
		}
	case proto.Telemetry:
		c.Println(FormatTelemetry(r))
	default:
		c.Printf("%+v\n", resp)
	}
	return nil
}

// DoCommand runs a command and waits for result.
func DoCommand(c *ishell.Context, cmd proto.Command) error {
	s := ShellFrom(c)
	if s.Link == nil {
		c.Err(link.ErrNotConnected)
		return link.ErrNotConnected
	}
	resp, err := s.Link.Driver.Do(cmd).Wait(s.Link.Ctx)
	if err == nil {
		err = s.Print(c, resp)
	}
	if err != nil {
		c.Err(err)
	}
	return err
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect opens the serial port and waits until the firmware answers.
func (s *Shell) Connect(port string) error {
	conf := *s.Config
	conf.Port = port
	// a failed link is reported, not retried.
	conf.ReconnectInterval = 0
	drv := conf.NewDriver()
	l := &Link{Port: port, Driver: drv}
	l.Ctx, l.Cancel = context.WithCancel(context.Background())

	connCh := make(chan *link.Conn, 1)
	drv.OnStateChanged = func(conn *link.Conn) {
		select {
		case connCh <- conn:
		default:
		}
	}
	errCh := make(chan error, 1)
	go func() {
		err := drv.Run(l.Ctx)
		errCh <- err
		s.lost(l, err)
	}()
	select {
	case conn := <-connCh:
		if conn == nil {
			l.Cancel()
			return link.ErrClosed
		}
	case err := <-errCh:
		l.Cancel()
		return err
	}

	s.Disconnect()
	s.Link = l
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", port))
	return nil
}

func (s *Shell) lost(l *Link, err error) {
	if s.Link != l || l.Ctx.Err() != nil {
		return
	}
	s.Shell.Printf("\nconnection to %s lost: %v\n", l.Port, err)
	s.Link = nil
	s.Shell.SetPrompt(unconnectedPrompt)
}

// Disconnect disconnects current link.
func (s *Shell) Disconnect() {
	if s.Link != nil {
		s.Link.Cancel()
		s.Link = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Port != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Port)
		}
		if err := s.Connect(s.Config.Port); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Port, err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ports, err := link.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if len(ports) == 0 {
					// in case ports is nil, make it empty slice.
					ports = []string{}
				}
				out, err := json.Marshal(ports)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// ConnectCmd connects the firmware on a serial port.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[PORT]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			port := s.Config.Port
			if len(c.Args) > 0 {
				port = c.Args[0]
			}
			if port == "" {
				c.Err(fmt.Errorf("PORT required"))
				return
			}
			if err := s.Connect(port); err != nil {
				c.Err(err)
				return
			}
		},
	}

	// DisconnectCmd disconnects current link.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(link.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
