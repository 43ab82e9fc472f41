package firmware

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/l0bot/pkg/l0/proto"
)

// chunkReader behaves like a serial port with a read timeout: it returns
// 0 bytes and no error when nothing is pending.
type chunkReader struct {
	chunks [][]byte
	err    error
}

func (r *chunkReader) push(s ...string) {
	for _, c := range s {
		r.chunks = append(r.chunks, []byte(c))
	}
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, r.err
	}
	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func pollLine(t *testing.T, l *LineReader, maxPolls int) (string, error) {
	for i := 0; i < maxPolls; i++ {
		line, ok, err := l.Poll()
		if err != nil {
			return "", err
		}
		if ok {
			return string(line), nil
		}
	}
	t.Fatalf("no line after %d polls", maxPolls)
	return "", nil
}

func TestLineReaderInline(t *testing.T) {
	r := &chunkReader{}
	l := NewLineReader(r, true)

	line, ok, err := l.Poll()
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, line)

	r.push(`{"cmd":`, `"PING"}`+"\n")
	line, ok, err = l.Poll()
	require.NoError(t, err)
	require.False(t, ok)
	line, ok, err = l.Poll()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"cmd":"PING"}`, string(line))
}

func TestLineReaderOneLinePerPoll(t *testing.T) {
	r := &chunkReader{}
	r.push("a\nb\n\nc")
	l := NewLineReader(r, true)
	for _, expect := range []string{"a", "b", ""} {
		line, ok, err := l.Poll()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, expect, string(line))
	}
	_, ok, err := l.Poll()
	require.NoError(t, err)
	require.False(t, ok)
	r.push("d\n")
	line, err := pollLine(t, l, 2)
	require.NoError(t, err)
	require.Equal(t, "cd", line)
}

func TestLineReaderTooLong(t *testing.T) {
	r := &chunkReader{}
	r.push(strings.Repeat("x", MaxLineLen), "\n")
	r.push(strings.Repeat("y", MaxLineLen+1), "\n", "ok\n")
	l := NewLineReader(r, true)

	line, err := pollLine(t, l, 10)
	require.NoError(t, err)
	require.Len(t, line, MaxLineLen)

	_, err = pollLine(t, l, 10)
	require.True(t, errors.Is(err, proto.ErrMalformed))
	require.Contains(t, err.Error(), proto.ReasonLineTooLong)

	line, err = pollLine(t, l, 10)
	require.NoError(t, err)
	require.Equal(t, "ok", line)
}

func TestLineReaderReadErrors(t *testing.T) {
	l := NewLineReader(&chunkReader{err: timeoutError{}}, true)
	_, ok, err := l.Poll()
	require.NoError(t, err)
	require.False(t, ok)

	l = NewLineReader(&chunkReader{err: io.EOF}, true)
	_, _, err = l.Poll()
	require.Equal(t, io.EOF, err)
}

func TestLineReaderBackground(t *testing.T) {
	pr, pw := io.Pipe()
	l := NewLineReader(pr, false)
	l.Wait = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)

	go func() {
		pw.Write([]byte("{\"cmd\":\"STOP\"}\n{\"cmd\""))
		pw.Write([]byte(":\"PING\"}\n"))
		pw.Close()
	}()

	line, err := pollLine(t, l, 500)
	require.NoError(t, err)
	require.Equal(t, `{"cmd":"STOP"}`, line)
	line, err = pollLine(t, l, 500)
	require.NoError(t, err)
	require.Equal(t, `{"cmd":"PING"}`, line)
	_, err = pollLine(t, l, 500)
	require.Equal(t, io.EOF, err)
}
