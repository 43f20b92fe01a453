//go:build darwin

package fs

import (
	"os"
	"syscall"
	"time"
)

func fileTimes(_ string, info os.FileInfo) (atime, btime time.Time) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime(), info.ModTime()
	}
	atime = time.Unix(st.Atimespec.Sec, st.Atimespec.Nsec)
	btime = time.Unix(st.Birthtimespec.Sec, st.Birthtimespec.Nsec)
	return atime, btime
}
