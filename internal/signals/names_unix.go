//go:build unix

package signals

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// Name returns the conventional name of sig, e.g. "SIGSEGV". It does not
// allocate for signals known to the platform.
func Name(sig os.Signal) string {
	if ss, ok := sig.(syscall.Signal); ok {
		if name := unix.SignalName(ss); name != "" {
			return name
		}
	}
	return sig.String()
}

// Lookup returns the signal called name, e.g. "SIGABRT".
func Lookup(name string) (os.Signal, bool) {
	ss := unix.SignalNum(name)
	if ss == 0 {
		return nil, false
	}
	return ss, true
}
