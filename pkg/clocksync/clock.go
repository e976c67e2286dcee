// Package clocksync даёт время по NTP для встраивания в другие программы:
// Clock с fallback на часы устройства и RunDaemon для периодической синхронизации.
package clocksync

import (
	"fmt"

	"github.com/shiwa/timecard-mini/sntp-sync/internal/cache"
	"github.com/shiwa/timecard-mini/sntp-sync/internal/clockselect"
	"github.com/shiwa/timecard-mini/sntp-sync/internal/devclock"
	"github.com/shiwa/timecard-mini/sntp-sync/internal/service"
	"github.com/shiwa/timecard-mini/sntp-sync/internal/sntp"
	"github.com/shiwa/timecard-mini/sntp-sync/internal/transport"
	"github.com/shiwa/timecard-mini/sntp-sync/pkg/config"
)

// Time: текущее время. Synced == false: время взято с часов устройства.
type Time struct {
	UnixMs          int64
	SinceLastSyncMs int64
	Synced          bool
}

// Clock: часы, синхронизируемые с NTP серверами
type Clock struct {
	device devclock.Clock
	svc    *service.Service
}

type options struct {
	device    devclock.Clock
	requester service.Requester
	store     cache.Store
	listener  service.Listener
}

// Option настраивает New
type Option func(*options)

// WithDeviceClock подменяет часы устройства
func WithDeviceClock(c devclock.Clock) Option {
	return func(o *options) { o.device = c }
}

// WithRequester подменяет SNTP клиент
func WithRequester(r service.Requester) Option {
	return func(o *options) { o.requester = r }
}

// WithStore подменяет хранилище якоря (иначе cache_file или память)
func WithStore(s cache.Store) Option {
	return func(o *options) { o.store = s }
}

// WithListener задаёт получателя событий синхронизации (по умолчанию лог)
func WithListener(l service.Listener) Option {
	return func(o *options) { o.listener = l }
}

// New собирает Clock по конфигу. При cfg == nil используется конфиг по умолчанию.
func New(cfg *config.Config, opts ...Option) (*Clock, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{device: devclock.System{}, listener: service.LogListener{}}
	for _, opt := range opts {
		opt(&o)
	}
	cs := cfg.ClockSync
	if o.requester == nil {
		o.requester = sntp.NewClient(o.device, newResolver(cfg.Resolver), transport.UDPFactory{})
	}
	if o.store == nil {
		if cs.CacheFile != "" {
			o.store = cache.NewFileStore(cs.CacheFile)
		} else {
			o.store = cache.NewMemoryStore()
		}
	}
	def := service.DefaultOptions()
	svc := service.New(
		o.requester,
		o.device,
		cache.NewResponseCache(o.store, o.device),
		o.listener,
		clockselect.NewElection(cs.PrimaryServers, cs.SecondaryServers),
		service.Options{
			Timeout:             config.ParseDuration(cs.Timeout, def.Timeout),
			MinWaitBetweenSyncs: config.ParseDuration(cs.MinWaitBetweenSyncs, def.MinWaitBetweenSyncs),
			CacheExpiration:     config.ParseDuration(cs.CacheExpiration, def.CacheExpiration),
		},
	)
	return &Clock{device: o.device, svc: svc}, nil
}

func newResolver(rc config.ResolverConfig) transport.Resolver {
	timeout := config.ParseDuration(rc.Timeout, 0)
	if rc.Nameserver != "" {
		return transport.NewDNSResolver(rc.Nameserver, timeout)
	}
	return transport.SystemResolver{Timeout: timeout}
}

// Sync синхронизирует время; true при первом успешном ответе
func (c *Clock) Sync() (bool, error) {
	return c.svc.Sync()
}

// SyncInBackground запускает Sync в фоне и сразу возвращается
func (c *Clock) SyncInBackground() error {
	return c.svc.SyncInBackground()
}

// Shutdown останавливает фоновую синхронизацию. После него CurrentTime берёт время с часов устройства.
func (c *Clock) Shutdown() error {
	return c.svc.Shutdown()
}

// CurrentTime возвращает время по NTP или, если синхронизации не было, по часам устройства.
// При необходимости запускает фоновую синхронизацию.
func (c *Clock) CurrentTime() Time {
	t, err := c.svc.CurrentTime()
	if err != nil || t == nil {
		return Time{UnixMs: c.device.WallClockMs()}
	}
	return Time{UnixMs: t.UnixMs, SinceLastSyncMs: t.SinceLastSyncMs, Synced: true}
}

// CurrentTimeMs возвращает CurrentTime().UnixMs
func (c *Clock) CurrentTimeMs() int64 {
	return c.CurrentTime().UnixMs
}

// CurrentNtpTimeMs возвращает время только по NTP; false, если синхронизации не было
func (c *Clock) CurrentNtpTimeMs() (int64, bool) {
	t, err := c.svc.CurrentTime()
	if err != nil || t == nil {
		return 0, false
	}
	return t.UnixMs, true
}

// CachedNtpTimeMs: как CurrentNtpTimeMs, но без запуска синхронизации и только для свежего якоря
func (c *Clock) CachedNtpTimeMs() (int64, bool) {
	t, err := c.svc.CachedTime()
	if err != nil || t == nil {
		return 0, false
	}
	return t.UnixMs, true
}

// ElapsedTimeMs: монотонное время устройства
func (c *Clock) ElapsedTimeMs() int64 {
	return c.device.MonotonicMs()
}

// Server возвращает сервер последней успешной синхронизации
func (c *Clock) Server() string {
	return c.svc.Active()
}

func (t Time) String() string {
	if !t.Synced {
		return fmt.Sprintf("%d (device clock)", t.UnixMs)
	}
	return fmt.Sprintf("%d (synced %dms ago)", t.UnixMs, t.SinceLastSyncMs)
}
