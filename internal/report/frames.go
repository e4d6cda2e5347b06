package report

import (
	"fmt"
	"runtime"
	"strings"
)

const maxFrames = 128

// Callers returns the stack of the calling goroutine, innermost first, one
// string per frame in the form
//
//	<index> <function> + <offset> (<file>:<line>)
//
// skip is the number of frames to drop above the caller of Callers; 0 starts
// at the function that called Callers.
func Callers(skip int) []string {
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(skip+2, pcs)
	return Frames(pcs[:n])
}

// Frames symbolizes program counters with the runtime's own tables.
func Frames(pcs []uintptr) []string {
	if len(pcs) == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pcs)
	var out []string
	for i := 0; ; i++ {
		f, more := frames.Next()
		out = append(out, formatFrame(i, f))
		if !more {
			break
		}
	}
	return out
}

func formatFrame(i int, f runtime.Frame) string {
	fn := f.Function
	if fn == "" {
		fn = "???"
	}
	offset := uintptr(0)
	if f.Entry != 0 && f.PC >= f.Entry {
		offset = f.PC - f.Entry
	}
	return fmt.Sprintf("%-4d%s + %d (%s:%d)", i, fn, offset, f.File, f.Line)
}

// Lines splits a runtime.Stack dump into frame lines, dropping empty ones.
func Lines(stack []byte) []string {
	var out []string
	for _, line := range strings.Split(string(stack), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
