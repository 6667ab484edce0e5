package trace

import (
	"fmt"
	"io"
)

// Writer is a Sink that formats each event as a line of text and writes
// it to an underlying io.Writer.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w as a trace Sink.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Emit writes ev as a single line. Write errors are swallowed: a trace
// sink must never cause the simulation to fail.
func (w *Writer) Emit(ev Event) {
	fmt.Fprintln(w.w, ev.String())
}
