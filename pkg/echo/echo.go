// Kunhua Huang 2026

package echo

import (
	"fmt"
	"io"
)

// BufferSize is the most bytes a single exchange will read and echo back.
const BufferSize = 1024

// Result describes one exchange. Errors are recorded, not returned, because
// the loop closes the connection either way.
type Result struct {
	Read     int
	Written  int
	ReadErr  error
	WriteErr error
}

func (r Result) Err() error {
	switch {
	case r.WriteErr != nil:
		return fmt.Errorf("write: %w", r.WriteErr)
	case r.ReadErr != nil && r.ReadErr != io.EOF:
		return fmt.Errorf("read: %w", r.ReadErr)
	default:
		return nil
	}
}

// Exchange does one read of at most BufferSize bytes and, if anything
// arrived, one write of exactly those bytes. There is no retry on a short
// read or short write.
func Exchange(rw io.ReadWriter) Result {
	buf := make([]byte, BufferSize)

	var res Result
	res.Read, res.ReadErr = rw.Read(buf)
	if res.Read <= 0 {
		return res
	}

	res.Written, res.WriteErr = rw.Write(buf[:res.Read])
	return res
}

// Shutdown half-closes the write side when the connection supports it and
// then closes it.
func Shutdown(c io.Closer) error {
	if cw, ok := c.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}
	return c.Close()
}
