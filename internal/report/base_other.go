//go:build !linux

package report

// ImageBase returns 0 on platforms without a cheap way to find the load
// address of the main executable.
func ImageBase() uint64 {
	return 0
}
