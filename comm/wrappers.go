package comm

import (
	"bufio"
	"io"
	"time"
)

// Terminator wraps a ReadWriter, appending the Tx terminator to each write
// and consuming through the Rx terminator on each read, stripping it from
// the data returned.  Reads are buffered; do not read from the underlying
// ReadWriter while a Terminator is attached to it.
type Terminator struct {
	rw   io.ReadWriter
	buf  *bufio.Reader
	tail []byte
	rx   byte
	tx   byte
}

// NewTerminator returns a Terminator with the given Rx and Tx terminator bytes
func NewTerminator(rw io.ReadWriter, rx, tx byte) *Terminator {
	return &Terminator{rw: rw, buf: bufio.NewReader(rw), rx: rx, tx: tx}
}

// Write sends p with the Tx terminator appended
func (t *Terminator) Write(p []byte) (int, error) {
	b := make([]byte, len(p)+1)
	copy(b, p)
	b[len(p)] = t.tx
	n, err := t.rw.Write(b)
	if n == len(b) {
		n-- // do not count the terminator against the caller's buffer
	}
	return n, err
}

// Read fills p with one response, up to but excluding the Rx terminator.
// If the response is larger than p, the remainder is returned by later reads.
func (t *Terminator) Read(p []byte) (int, error) {
	if len(t.tail) > 0 {
		n := copy(p, t.tail)
		t.tail = t.tail[n:]
		return n, nil
	}
	b, err := t.buf.ReadBytes(t.rx)
	if err == nil {
		b = b[:len(b)-1]
	}
	n := copy(p, b)
	t.tail = b[n:]
	return n, err
}

// SetReadDeadline forwards to the underlying connection if it has deadlines
func (t *Terminator) SetReadDeadline(d time.Time) error {
	if dl, ok := t.rw.(deadliner); ok {
		return dl.SetReadDeadline(d)
	}
	return nil
}

// SetWriteDeadline forwards to the underlying connection if it has deadlines
func (t *Terminator) SetWriteDeadline(d time.Time) error {
	if dl, ok := t.rw.(deadliner); ok {
		return dl.SetWriteDeadline(d)
	}
	return nil
}

// deadliner is the deadline-bearing subset of net.Conn
type deadliner interface {
	SetReadDeadline(time.Time) error
	SetWriteDeadline(time.Time) error
}

type timeoutRW struct {
	rw      io.ReadWriter
	dl      deadliner
	timeout time.Duration
}

// NewTimeout wraps rw so that each Read or Write refreshes a deadline of
// timeout from now.  If the connection does not support deadlines (serial
// ports configure their timeout at open) rw is returned unchanged; the
// error return is reserved and presently always nil.
func NewTimeout(rw io.ReadWriter, timeout time.Duration) (io.ReadWriter, error) {
	if dl, ok := rw.(deadliner); ok {
		return &timeoutRW{rw: rw, dl: dl, timeout: timeout}, nil
	}
	return rw, nil
}

func (t *timeoutRW) Read(p []byte) (int, error) {
	t.dl.SetReadDeadline(time.Now().Add(t.timeout))
	return t.rw.Read(p)
}

func (t *timeoutRW) Write(p []byte) (int, error) {
	t.dl.SetWriteDeadline(time.Now().Add(t.timeout))
	return t.rw.Write(p)
}
