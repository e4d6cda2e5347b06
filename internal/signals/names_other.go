//go:build !unix

package signals

import "os"

// Name returns the runtime's description of sig.
func Name(sig os.Signal) string {
	return sig.String()
}

// Lookup is not supported on this platform.
func Lookup(name string) (os.Signal, bool) {
	return nil, false
}
