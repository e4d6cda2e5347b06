//go:build unix

package crashstore

import "golang.org/x/sys/unix"

// writeAtomic writes body to dir/name through a dot-prefixed temp file and a
// rename. It only issues raw syscalls so it stays usable from the signal
// capture path.
func writeAtomic(dir, name string, body []byte) error {
	tmpPath := dir + "/." + name + ".tmp"
	finalPath := dir + "/" + name

	fd, err := unix.Open(tmpPath, unix.O_WRONLY|unix.O_CREAT|unix.O_TRUNC|unix.O_CLOEXEC, 0o644)
	if err != nil {
		return err
	}
	for len(body) > 0 {
		n, err := unix.Write(fd, body)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			unix.Close(fd)
			unix.Unlink(tmpPath)
			return err
		}
		body = body[n:]
	}
	// fsync failures are ignored; the page cache outlives the process.
	_ = unix.Fsync(fd)
	if err := unix.Close(fd); err != nil {
		unix.Unlink(tmpPath)
		return err
	}
	if err := unix.Rename(tmpPath, finalPath); err != nil {
		unix.Unlink(tmpPath)
		return err
	}
	return nil
}
