package firmware

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/robotalks/l0bot/pkg/l0/proto"
)

// MaxLineLen is the capacity of the command line buffer.
const MaxLineLen = 256

// DefaultPollWait bounds Poll when the port is read in the background.
const DefaultPollWait = time.Millisecond

const chunkSize = 64

// LineReader assembles '\n' terminated lines from the serial port without
// blocking the control loop for longer than the port read timeout.
//
// When ReadTimeout is set, the port is read inline and its read timeout
// bounds every Poll. Otherwise a background goroutine reads the port and
// Poll waits at most Wait for data (zero means no wait at all).
type LineReader struct {
	Reader      io.Reader
	ReadTimeout bool
	Wait        time.Duration

	buf      [MaxLineLen]byte
	size     int
	overflow bool
	rest     []byte
	scratch  [chunkSize]byte

	started bool
	chunkCh chan []byte
	errCh   chan error
}

// NewLineReader creates a LineReader.
func NewLineReader(r io.Reader, readTimeout bool) *LineReader {
	return &LineReader{Reader: r, ReadTimeout: readTimeout, Wait: DefaultPollWait}
}

// Start launches the background reader if the port has no read timeout.
// It's safe to call more than once.
func (l *LineReader) Start(ctx context.Context) {
	if l.started || l.ReadTimeout {
		return
	}
	l.started = true
	l.chunkCh, l.errCh = make(chan []byte), make(chan error, 1)
	go l.readLoop(ctx)
}

func (l *LineReader) readLoop(ctx context.Context) {
	for {
		buf := make([]byte, chunkSize)
		n, err := l.Reader.Read(buf)
		if n > 0 {
			select {
			case l.chunkCh <- buf[:n]:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			l.errCh <- err
			return
		}
	}
}

// Poll returns the next complete line, without the terminator, if one is
// available. The returned slice is only valid until the next call.
// A line exceeding MaxLineLen is dropped and reported as a
// *proto.MalformedError once its terminator arrives.
func (l *LineReader) Poll() ([]byte, bool, error) {
	if line, ok, err := l.scan(); ok || err != nil {
		return line, ok, err
	}
	chunk, err := l.receive()
	if err != nil {
		return nil, false, err
	}
	l.rest = chunk
	return l.scan()
}

func (l *LineReader) receive() ([]byte, error) {
	if l.ReadTimeout {
		n, err := l.Reader.Read(l.scratch[:])
		if err != nil && os.IsTimeout(err) {
			err = nil
		}
		return l.scratch[:n], err
	}
	if !l.started {
		l.Start(context.Background())
	}
	if l.Wait <= 0 {
		select {
		case chunk := <-l.chunkCh:
			return chunk, nil
		case err := <-l.errCh:
			return nil, err
		default:
			return nil, nil
		}
	}
	timer := time.NewTimer(l.Wait)
	defer timer.Stop()
	select {
	case chunk := <-l.chunkCh:
		return chunk, nil
	case err := <-l.errCh:
		return nil, err
	case <-timer.C:
		return nil, nil
	}
}

func (l *LineReader) scan() ([]byte, bool, error) {
	for len(l.rest) > 0 {
		b := l.rest[0]
		l.rest = l.rest[1:]
		if b == '\n' {
			line := l.buf[:l.size]
			l.size = 0
			if l.overflow {
				l.overflow = false
				return nil, false, &proto.MalformedError{Reason: proto.ReasonLineTooLong}
			}
			return line, true, nil
		}
		if l.overflow {
			continue
		}
		if l.size >= MaxLineLen {
			l.overflow, l.size = true, 0
			continue
		}
		l.buf[l.size] = b
		l.size++
	}
	return nil, false, nil
}
