// Package report renders crash diagnostics into the fixed text layout stored
// by crashstore.
//
// Two entry points exist. Format and FormatSignal build strings and may
// allocate; they are used for panics and outside any capture path. AppendSignal
// is the signal-capture form: it appends into a caller-owned buffer with
// strconv-style appends only, never calling fmt, taking locks, or growing the
// buffer when it was sized with SignalBufferSize. Anything it needs from the
// runtime (the image base, the goroutine dump) must be gathered beforehand by
// code that is itself allocation-free at capture time, such as runtime.Stack
// into a pre-allocated slice.
//
// Signal reports extend the bare header-plus-frames layout with one line,
// "signal <NAME>", between the header and the frames. archive.Classify
// relies on it to title signal reports.
package report

import (
	"strconv"
	"strings"
)

// Report is the raw material of an exception report.
type Report struct {
	Name   string
	Reason string
	// Frames are innermost first, exactly as captured.
	Frames []string
	// BaseAddress is the load address of the main executable.
	BaseAddress uint64
}

const headerPrefix = "Stack: SlideAdress:0x"

// Header returns the first line of every report, without a trailing newline.
func Header(base uint64) string {
	return headerPrefix + strconv.FormatUint(base, 16)
}

// Format renders an exception report:
//
//	Stack: SlideAdress:0x<hex>
//	Name: <name>
//	Reason: <reason>
//
//	<frames, one per line>
func Format(r Report) string {
	var sb strings.Builder
	sb.WriteString(Header(r.BaseAddress))
	sb.WriteString("\nName: ")
	sb.WriteString(r.Name)
	sb.WriteString("\nReason: ")
	sb.WriteString(r.Reason)
	sb.WriteString("\n\n")
	sb.WriteString(strings.Join(r.Frames, "\n"))
	return sb.String()
}

// FormatSignal renders a signal report: the header line followed by frames.
func FormatSignal(base uint64, frames []string) string {
	return Header(base) + "\n" + strings.Join(frames, "\n")
}

// SignalBufferSize is the capacity AppendSignal needs on top of the stack
// dump it is given.
const SignalBufferSize = 256

// AppendSignal appends a signal report to dst. sig is the signal name and is
// written as the first frame line so the report stays readable when the
// stack dump is empty. The stack dump is copied verbatim. dst does not grow
// if cap(dst)-len(dst) >= SignalBufferSize+len(stack).
func AppendSignal(dst []byte, base uint64, sig string, stack []byte) []byte {
	dst = append(dst, headerPrefix...)
	dst = strconv.AppendUint(dst, base, 16)
	dst = append(dst, '\n')
	dst = append(dst, "signal "...)
	dst = append(dst, sig...)
	if len(stack) > 0 {
		dst = append(dst, '\n')
		stack = trimTrailingNewlines(stack)
		dst = append(dst, stack...)
	}
	return dst
}

func trimTrailingNewlines(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == '\n' {
		b = b[:len(b)-1]
	}
	return b
}
