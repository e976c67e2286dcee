//go:build linux

package devclock

import (
	"time"

	"golang.org/x/sys/unix"
)

// bootMs читает CLOCK_BOOTTIME: монотонные часы, которые продолжают идти во время сна.
func bootMs() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_BOOTTIME, &ts); err != nil {
		return processMs()
	}
	return unix.TimespecToNsec(ts) / int64(time.Millisecond)
}
