//go:build !linux

package devclock

// bootMs на не-Linux ведёт отсчёт от старта процесса; перезапуск процесса выглядит как перезагрузка.
func bootMs() int64 {
	return processMs()
}
