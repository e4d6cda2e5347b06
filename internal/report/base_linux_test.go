//go:build linux

package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageBaseFromMaps(t *testing.T) {
	maps := []byte(`00400000-00401000 r--p 00000000 08:01 100 /usr/lib/other
55d0c5a00000-55d0c5a21000 r--p 00000000 08:01 200 /opt/app/bin/app
55d0c5a21000-55d0c5b00000 r-xp 00021000 08:01 200 /opt/app/bin/app
7ffd1a000000-7ffd1a021000 rw-p 00000000 00:00 0 [stack]
`)
	assert.Equal(t, uint64(0x55d0c5a00000), imageBaseFromMaps(maps, "/opt/app/bin/app"))
	assert.Zero(t, imageBaseFromMaps(maps, "/missing"))
	assert.Zero(t, imageBaseFromMaps(nil, "/opt/app/bin/app"))
}

func TestImageBase(t *testing.T) {
	// The test binary is always mapped.
	assert.NotZero(t, ImageBase())
}
