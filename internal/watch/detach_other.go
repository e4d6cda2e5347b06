//go:build !unix

package watch

import "os/exec"

func detach(cmd *exec.Cmd) {}
