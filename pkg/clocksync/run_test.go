package clocksync

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shiwa/timecard-mini/sntp-sync/internal/devclock"
	"github.com/shiwa/timecard-mini/sntp-sync/internal/service"
	"github.com/shiwa/timecard-mini/sntp-sync/internal/sntp"
	"github.com/shiwa/timecard-mini/sntp-sync/internal/transport"
	"github.com/shiwa/timecard-mini/sntp-sync/pkg/config"
)

const (
	wallMs = int64(1522964196000)
	monoMs = int64(1000) // меньше min_wait: фоновая синхронизация не стартует сама
)

// stubRequester отвечает смещением offsetMs для любого хоста, кроме down
type stubRequester struct {
	clock    devclock.Clock
	offsetMs int64
	down     map[string]bool

	mu    sync.Mutex
	calls int
	hook  func(calls int)
}

func (s *stubRequester) RequestTime(host string, timeout time.Duration) (*sntp.Response, error) {
	s.mu.Lock()
	s.calls++
	n, hook := s.calls, s.hook
	s.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	if s.down[host] {
		return nil, fmt.Errorf("%s: unreachable", host)
	}
	return sntp.NewResponse(s.clock.WallClockMs(), s.clock.MonotonicMs(), s.offsetMs, s.clock), nil
}

func newTestClock(t *testing.T, cfg *config.Config, req *stubRequester) *Clock {
	t.Helper()
	c, err := New(cfg, WithDeviceClock(req.clock), WithRequester(req), WithListener(nil))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Shutdown() })
	return c
}

func TestClock_FallbackThenSynced(t *testing.T) {
	dev := devclock.NewManual(wallMs, monoMs)
	req := &stubRequester{clock: dev, offsetMs: 1109}
	c := newTestClock(t, nil, req)

	now := c.CurrentTime()
	if now.Synced || now.UnixMs != wallMs {
		t.Errorf("before sync: %+v", now)
	}
	if _, ok := c.CurrentNtpTimeMs(); ok {
		t.Error("CurrentNtpTimeMs before sync should be unavailable")
	}

	ok, err := c.Sync()
	if !ok || err != nil {
		t.Fatalf("Sync = %v, %v", ok, err)
	}
	dev.Advance(250)
	now = c.CurrentTime()
	if !now.Synced || now.UnixMs != wallMs+250+1109 || now.SinceLastSyncMs != 250 {
		t.Errorf("after sync: %+v", now)
	}
	if ms, ok := c.CurrentNtpTimeMs(); !ok || ms != now.UnixMs {
		t.Errorf("CurrentNtpTimeMs = %d, %v", ms, ok)
	}
	if c.CurrentTimeMs() != now.UnixMs {
		t.Errorf("CurrentTimeMs = %d", c.CurrentTimeMs())
	}
	if c.ElapsedTimeMs() != monoMs+250 {
		t.Errorf("ElapsedTimeMs = %d", c.ElapsedTimeMs())
	}
	if c.Server() != "0.pool.ntp.org" {
		t.Errorf("Server = %q", c.Server())
	}
}

func TestClock_SecondaryFallback(t *testing.T) {
	dev := devclock.NewManual(wallMs, monoMs)
	cfg := config.Default()
	req := &stubRequester{clock: dev, offsetMs: -5, down: map[string]bool{}}
	for _, h := range cfg.ClockSync.PrimaryServers {
		req.down[h] = true
	}
	c := newTestClock(t, cfg, req)
	if ok, _ := c.Sync(); !ok {
		t.Fatal("Sync failed")
	}
	if c.Server() != cfg.ClockSync.SecondaryServers[0] {
		t.Errorf("Server = %q", c.Server())
	}
}

func TestClock_FileCacheSurvivesRestart(t *testing.T) {
	dev := devclock.NewManual(wallMs, monoMs)
	cfg := config.Default()
	cfg.ClockSync.CacheFile = filepath.Join(t.TempDir(), "anchor.yml")

	first := newTestClock(t, cfg, &stubRequester{clock: dev, offsetMs: 300})
	if ok, _ := first.Sync(); !ok {
		t.Fatal("Sync failed")
	}
	_ = first.Shutdown()

	dev.Advance(1000)
	req := &stubRequester{clock: dev}
	second := newTestClock(t, cfg, req)
	ms, ok := second.CachedNtpTimeMs()
	if !ok || ms != wallMs+1000+300 {
		t.Errorf("CachedNtpTimeMs = %d, %v", ms, ok)
	}
	if req.calls != 0 {
		t.Errorf("restored clock made %d requests", req.calls)
	}
}

func TestClock_AfterShutdown(t *testing.T) {
	dev := devclock.NewManual(wallMs, monoMs)
	c := newTestClock(t, nil, &stubRequester{clock: dev, offsetMs: 10})
	if ok, _ := c.Sync(); !ok {
		t.Fatal("Sync failed")
	}
	if err := c.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Sync(); !errors.Is(err, service.ErrStopped) {
		t.Errorf("Sync err = %v", err)
	}
	if now := c.CurrentTime(); now.Synced || now.UnixMs != wallMs {
		t.Errorf("CurrentTime after shutdown = %+v", now)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.ClockSync.Timeout = "soon"
	if _, err := New(cfg); err == nil {
		t.Error("expected error")
	}
}

func TestNewResolver(t *testing.T) {
	if _, ok := newResolver(config.ResolverConfig{}).(transport.SystemResolver); !ok {
		t.Error("empty nameserver should use the system resolver")
	}
	if _, ok := newResolver(config.ResolverConfig{Nameserver: "127.0.0.1"}).(*transport.DNSResolver); !ok {
		t.Error("nameserver should select the DNS resolver")
	}
}

func TestRunDaemon(t *testing.T) {
	dev := devclock.NewManual(wallMs, monoMs)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := &stubRequester{clock: dev, offsetMs: 1}
	req.hook = func(calls int) {
		if calls == 3 {
			cancel()
		}
	}
	cfg := config.Default()
	cfg.Daemon.Interval = "5ms"

	done := make(chan error, 1)
	go func() {
		done <- RunDaemon(ctx, cfg, true, WithDeviceClock(dev), WithRequester(req), WithListener(nil))
	}()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunDaemon = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("RunDaemon did not stop")
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", time.Minute},
		{"500ms", 500 * time.Millisecond},
		{"15m", 15 * time.Minute},
		{"0s", time.Minute},
		{"invalid", time.Minute},
	}
	for _, tt := range tests {
		if got := parseInterval(tt.in); got != tt.want {
			t.Errorf("parseInterval(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
