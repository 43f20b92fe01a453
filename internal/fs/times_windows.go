//go:build windows

package fs

import (
	"os"
	"syscall"
	"time"
)

func fileTimes(_ string, info os.FileInfo) (atime, btime time.Time) {
	d, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return info.ModTime(), info.ModTime()
	}
	atime = time.Unix(0, d.LastAccessTime.Nanoseconds())
	btime = time.Unix(0, d.CreationTime.Nanoseconds())
	return atime, btime
}
