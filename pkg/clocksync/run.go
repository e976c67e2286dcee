package clocksync

import (
	"context"
	"time"

	"github.com/shiwa/timecard-mini/sntp-sync/internal/logger"
	"github.com/shiwa/timecard-mini/sntp-sync/pkg/config"
)

// RunDaemon синхронизирует время с интервалом daemon.interval до отмены ctx.
// Первая синхронизация выполняется сразу.
func RunDaemon(ctx context.Context, cfg *config.Config, quiet bool, opts ...Option) error {
	if cfg == nil {
		cfg = config.Default()
	}
	logger.Quiet = quiet
	c, err := New(cfg, opts...)
	if err != nil {
		return err
	}
	defer c.Shutdown()

	interval := parseInterval(cfg.Daemon.Interval)
	logger.Info("clocksync: primary=%d secondary=%d interval=%v",
		len(cfg.ClockSync.PrimaryServers), len(cfg.ClockSync.SecondaryServers), interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := c.Sync()
		if err != nil {
			return err
		}
		if ok {
			now := c.CurrentTime()
			logger.Info("server=%s time=%s", c.Server(), time.UnixMilli(now.UnixMs).UTC().Format(time.RFC3339Nano))
		} else {
			logger.Info("no server answered, device clock in use")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func parseInterval(s string) time.Duration {
	d := config.ParseDuration(s, time.Minute)
	if d <= 0 {
		return time.Minute
	}
	return d
}
