package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeader(t *testing.T) {
	assert.Equal(t, "Stack: SlideAdress:0x1000", Header(0x1000))
	assert.Equal(t, "Stack: SlideAdress:0x0", Header(0))
	assert.Equal(t, "Stack: SlideAdress:0xdeadbeef", Header(0xdeadbeef))
}

func TestFormat(t *testing.T) {
	got := Format(Report{
		Name:        "Foo",
		Reason:      "bar",
		Frames:      []string{"frame0", "frame1"},
		BaseAddress: 0x1000,
	})
	assert.Equal(t, "Stack: SlideAdress:0x1000\nName: Foo\nReason: bar\n\nframe0\nframe1", got)
}

func TestFormat_KeepsFrameOrder(t *testing.T) {
	frames := []string{"c", "a", "b"}
	got := Format(Report{Name: "n", Reason: "r", Frames: frames})
	assert.True(t, strings.HasSuffix(got, "\n\nc\na\nb"))
}

func TestFormat_NoFrames(t *testing.T) {
	got := Format(Report{Name: "n", Reason: "r"})
	assert.Equal(t, "Stack: SlideAdress:0x0\nName: n\nReason: r\n\n", got)
}

func TestFormatSignal(t *testing.T) {
	got := FormatSignal(0xabc, []string{"f0", "f1"})
	assert.Equal(t, "Stack: SlideAdress:0xabc\nf0\nf1", got)
}

func TestAppendSignal(t *testing.T) {
	stack := []byte("goroutine 1 [running]:\nmain.main()\n\n")
	buf := make([]byte, 0, SignalBufferSize+len(stack))

	out := AppendSignal(buf, 0x400000, "SIGSEGV", stack)

	assert.Equal(t, "Stack: SlideAdress:0x400000\nsignal SIGSEGV\ngoroutine 1 [running]:\nmain.main()", string(out))
}

func TestAppendSignal_DoesNotGrowPresizedBuffer(t *testing.T) {
	stack := []byte(strings.Repeat("x", 1024))
	buf := make([]byte, 0, SignalBufferSize+len(stack))

	out := AppendSignal(buf, ^uint64(0), "SIGABRT", stack)

	require.NotEmpty(t, out)
	assert.Equal(t, &buf[:1][0], &out[:1][0], "AppendSignal reallocated a pre-sized buffer")
}

func TestAppendSignal_Allocations(t *testing.T) {
	stack := []byte("goroutine 1 [running]:\nmain.main()")
	buf := make([]byte, 0, SignalBufferSize+len(stack))

	allocs := testing.AllocsPerRun(100, func() {
		_ = AppendSignal(buf[:0], 0x1000, "SIGBUS", stack)
	})
	assert.Zero(t, allocs)
}

func TestAppendSignal_EmptyStack(t *testing.T) {
	out := AppendSignal(nil, 0x10, "SIGHUP", nil)
	assert.Equal(t, "Stack: SlideAdress:0x10\nsignal SIGHUP", string(out))
}

func TestCallers(t *testing.T) {
	frames := Callers(0)
	require.NotEmpty(t, frames)
	assert.Contains(t, frames[0], "report.TestCallers")
	assert.True(t, strings.HasPrefix(frames[0], "0   "))
	assert.Contains(t, frames[0], "report_test.go:")
}

func helperFrames() []string { return Callers(1) }

func TestCallers_Skip(t *testing.T) {
	frames := helperFrames()
	require.NotEmpty(t, frames)
	assert.Contains(t, frames[0], "report.TestCallers_Skip")
}

func TestFrames_Empty(t *testing.T) {
	assert.Nil(t, Frames(nil))
}

func TestLines(t *testing.T) {
	got := Lines([]byte("a\n\n  \nb\n"))
	assert.Equal(t, []string{"a", "b"}, got)
}
