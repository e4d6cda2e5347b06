//go:build linux

package report

import (
	"bufio"
	"bytes"
	"os"
	"strconv"
	"strings"
)

// ImageBase returns the load address of the main executable, read from
// /proc/self/maps. It returns 0 when the mapping cannot be found. The lookup
// does file I/O and must run before any capture, never inside one.
func ImageBase() uint64 {
	exe, err := os.Executable()
	if err != nil {
		return 0
	}
	maps, err := os.ReadFile("/proc/self/maps")
	if err != nil {
		return 0
	}
	return imageBaseFromMaps(maps, exe)
}

// imageBaseFromMaps returns the start of the first mapping backed by exe.
func imageBaseFromMaps(maps []byte, exe string) uint64 {
	sc := bufio.NewScanner(bytes.NewReader(maps))
	for sc.Scan() {
		// start-end perms offset dev inode path
		fields := strings.Fields(sc.Text())
		if len(fields) < 6 || fields[5] != exe {
			continue
		}
		start, _, ok := strings.Cut(fields[0], "-")
		if !ok {
			continue
		}
		base, err := strconv.ParseUint(start, 16, 64)
		if err != nil {
			continue
		}
		return base
	}
	return 0
}
