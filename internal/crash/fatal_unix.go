//go:build unix

package crash

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// FatalSignals is the set monitored while installed.
var FatalSignals = []os.Signal{
	unix.SIGABRT,
	unix.SIGSEGV,
	unix.SIGBUS,
	unix.SIGTRAP,
	unix.SIGILL,
	unix.SIGHUP,
	unix.SIGINT,
	unix.SIGQUIT,
	unix.SIGFPE,
	unix.SIGPIPE,
}

// reraise sends sig back to the process after its default disposition has
// been restored. The Go runtime ignores a few signals it does not own (an
// asynchronous SIGPIPE, for one), so the process exits with the shell's
// 128+n convention if it is still alive shortly after.
func reraise(sig os.Signal) {
	ss, ok := sig.(syscall.Signal)
	if !ok {
		os.Exit(2)
	}
	_ = unix.Kill(unix.Getpid(), ss)
	time.Sleep(250 * time.Millisecond)
	os.Exit(128 + int(ss))
}
