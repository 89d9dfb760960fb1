package log

import (
	"fmt"
	"io"

	kitlog "github.com/go-kit/kit/log"
)

// Logger is the leveled key/value logger every beacond component takes.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})

	With(keyvals ...interface{}) Logger
}

// Hexadecimal renders a byte slice as lowercase 0x-prefixed hex when logged.
type Hexadecimal []byte

func (h Hexadecimal) String() string {
	return fmt.Sprintf("%#x", []byte(h))
}

// NewSyncWriter returns a new writer that is safe for concurrent use by
// multiple goroutines. Writes to the returned writer are passed on to w. If
// another write is already in progress, the calling goroutine blocks until
// the writer is available.
func NewSyncWriter(w io.Writer) io.Writer {
	return kitlog.NewSyncWriter(w)
}
