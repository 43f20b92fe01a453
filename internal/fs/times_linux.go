//go:build linux

package fs

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// fileTimes extracts access and birth times. stat(2) has no birth time, so it
// comes from statx(2); where the kernel or the filesystem does not report it,
// creation falls back to the modification time.
func fileTimes(path string, info os.FileInfo) (atime, btime time.Time) {
	atime, btime = info.ModTime(), info.ModTime()
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		atime = time.Unix(int64(st.Atim.Sec), int64(st.Atim.Nsec))
	}

	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, unix.AT_STATX_SYNC_AS_STAT, unix.STATX_ATIME|unix.STATX_BTIME, &stx); err != nil {
		return atime, btime
	}
	if stx.Mask&unix.STATX_BTIME != 0 {
		btime = time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
	}
	return atime, btime
}
