package service

import "github.com/shiwa/timecard-mini/sntp-sync/internal/logger"

// Listener получает события синхронизации. Вызывается из горутины синхронизации.
type Listener interface {
	OnStartSync(host string)
	OnSuccess(offsetMs, responseTimeMs int64)
	OnError(host string, err error)
}

// LogListener пишет события в лог
type LogListener struct{}

func (LogListener) OnStartSync(host string) {
	logger.Debug("sync with %s", host)
}

func (LogListener) OnSuccess(offsetMs, responseTimeMs int64) {
	logger.Info("synced: offset=%dms response_time=%dms", offsetMs, responseTimeMs)
}

func (LogListener) OnError(host string, err error) {
	logger.Error("sync with %s: %v", host, err)
}

type nopListener struct{}

func (nopListener) OnStartSync(string) {}
func (nopListener) OnSuccess(int64, int64) {}
func (nopListener) OnError(string, error) {}
