package devclock

import "time"

var processStart = time.Now()

// processMs: монотонное время с запуска процесса (монотонная составляющая time.Time)
func processMs() int64 {
	return time.Since(processStart).Milliseconds()
}
