// Package service поддерживает актуальный якорь времени: перебирает NTP серверы,
// кэширует результат и запускает фоновую пересинхронизацию по мере устаревания.
package service

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/shiwa/timecard-mini/sntp-sync/internal/cache"
	"github.com/shiwa/timecard-mini/sntp-sync/internal/clockselect"
	"github.com/shiwa/timecard-mini/sntp-sync/internal/devclock"
	"github.com/shiwa/timecard-mini/sntp-sync/internal/logger"
	"github.com/shiwa/timecard-mini/sntp-sync/internal/sntp"
)

// ErrStopped возвращается любой операцией после Shutdown
var ErrStopped = errors.New("sync service stopped")

var errNegativeTime = errors.New("server time is before 1970")

// Requester выполняет один обмен с сервером (*sntp.Client)
type Requester interface {
	RequestTime(host string, timeout time.Duration) (*sntp.Response, error)
}

// Options: параметры сервиса
type Options struct {
	Timeout             time.Duration // таймаут одного обмена
	MinWaitBetweenSyncs time.Duration // не чаще одной фоновой попытки за этот период
	CacheExpiration     time.Duration // возраст якоря, после которого нужна пересинхронизация
}

// DefaultOptions: таймаут 6 с, пауза и срок годности якоря по 1 мин
func DefaultOptions() Options {
	return Options{
		Timeout:             6 * time.Second,
		MinWaitBetweenSyncs: time.Minute,
		CacheExpiration:     time.Minute,
	}
}

// Time: спроецированное время и возраст якоря
type Time struct {
	UnixMs          int64
	SinceLastSyncMs int64
}

const (
	stateInit int32 = iota
	stateIdle
	stateSyncing
	stateStopped
)

// Service: синхронизация с набором серверов поверх кэша якоря
type Service struct {
	requester Requester
	clock     devclock.Clock
	cache     *cache.ResponseCache
	listener  Listener
	election  *clockselect.Election
	opts      Options

	state       atomic.Int32
	bootChecked atomic.Bool
	lastAttempt atomic.Int64 // монотонное время окончания последней попытки

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// New создаёт сервис и запускает фоновую горутину. listener может быть nil.
func New(requester Requester, clock devclock.Clock, rc *cache.ResponseCache, listener Listener,
	election *clockselect.Election, opts Options) *Service {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MinWaitBetweenSyncs < 0 {
		opts.MinWaitBetweenSyncs = def.MinWaitBetweenSyncs
	}
	if opts.CacheExpiration <= 0 {
		opts.CacheExpiration = def.CacheExpiration
	}
	if listener == nil {
		listener = nopListener{}
	}
	s := &Service{
		requester: requester,
		clock:     clock,
		cache:     rc,
		listener:  listener,
		election:  election,
		opts:      opts,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	s.wg.Add(1)
	go s.worker()
	return s
}

func (s *Service) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
			if _, err := s.Sync(); err != nil {
				return
			}
		}
	}
}

// Sync выполняет один раунд: серверы перебираются до первого успешного ответа.
func (s *Service) Sync() (bool, error) {
	if s.stopped() {
		return false, ErrStopped
	}
	round := uuid.New()
	logger.Debug("round %s: hosts %v", round, s.election.Hosts())
	host := s.election.Select(func(host string) bool {
		return s.syncHost(round, host)
	})
	if host == "" {
		logger.Debug("round %s: no server answered", round)
		return false, nil
	}
	logger.Debug("round %s: synced with %s", round, host)
	return true, nil
}

func (s *Service) syncHost(round uuid.UUID, host string) bool {
	prev := s.state.Load()
	if prev == stateSyncing || prev == stateStopped || !s.state.CompareAndSwap(prev, stateSyncing) {
		return false
	}
	defer func() {
		s.state.CompareAndSwap(stateSyncing, stateIdle)
		s.lastAttempt.Store(s.clock.MonotonicMs())
	}()

	start := s.clock.MonotonicMs()
	s.listener.OnStartSync(host)
	resp, err := s.requester.RequestTime(host, s.opts.Timeout)
	if err == nil && resp.CurrentTimeMs() < 0 {
		err = fmt.Errorf("%s: %w", host, errNegativeTime)
	}
	if err == nil {
		err = s.cache.Update(resp)
	}
	if err != nil {
		logger.Debug("round %s: %s: %v", round, host, err)
		s.listener.OnError(host, err)
		return false
	}
	s.listener.OnSuccess(resp.OffsetMs(), s.clock.MonotonicMs()-start)
	return true
}

// SyncInBackground ставит синхронизацию в очередь фоновой горутины и сразу возвращается.
// Если синхронизация уже идёт или ожидает, вызов ничего не делает.
func (s *Service) SyncInBackground() error {
	if s.stopped() {
		return ErrStopped
	}
	if s.state.Load() == stateSyncing {
		return nil
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// CurrentTime возвращает время по якорю или nil, если якоря нет.
// При отсутствии или устаревании якоря запускает фоновую синхронизацию
// (не чаще MinWaitBetweenSyncs).
func (s *Service) CurrentTime() (*Time, error) {
	if s.stopped() {
		return nil, ErrStopped
	}
	resp := s.response()
	if resp == nil {
		if s.sinceLastAttempt() >= s.opts.MinWaitBetweenSyncs.Milliseconds() {
			_ = s.SyncInBackground()
		}
		return nil, nil
	}
	age := resp.ResponseAge()
	if age >= s.opts.CacheExpiration.Milliseconds() && s.sinceLastAttempt() >= s.opts.MinWaitBetweenSyncs.Milliseconds() {
		_ = s.SyncInBackground()
	}
	return &Time{UnixMs: resp.CurrentTimeMs(), SinceLastSyncMs: age}, nil
}

// CachedTime возвращает время по якорю без запуска синхронизации; nil, если якорь устарел.
func (s *Service) CachedTime() (*Time, error) {
	if s.stopped() {
		return nil, ErrStopped
	}
	resp := s.response()
	if resp == nil {
		return nil, nil
	}
	age := resp.ResponseAge()
	if age >= s.opts.CacheExpiration.Milliseconds() {
		return nil, nil
	}
	return &Time{UnixMs: resp.CurrentTimeMs(), SinceLastSyncMs: age}, nil
}

// Shutdown останавливает фоновую горутину, дожидаясь текущей синхронизации
func (s *Service) Shutdown() error {
	if s.state.Swap(stateStopped) == stateStopped {
		return ErrStopped
	}
	close(s.done)
	s.wg.Wait()
	return nil
}

// Active возвращает сервер последней успешной синхронизации
func (s *Service) Active() string {
	return s.election.Active()
}

func (s *Service) stopped() bool {
	return s.state.Load() == stateStopped
}

func (s *Service) sinceLastAttempt() int64 {
	return s.clock.MonotonicMs() - s.lastAttempt.Load()
}

// response читает якорь; при первом обращении якорь с прошлой загрузки удаляется
func (s *Service) response() *sntp.Response {
	resp, err := s.cache.Get()
	if err != nil {
		logger.Error("read anchor: %v", err)
		return nil
	}
	if s.bootChecked.CompareAndSwap(false, true) && resp != nil && !resp.IsFromSameBoot() {
		logger.Info("anchor is from a previous boot, discarding")
		if err := s.cache.Clear(); err != nil {
			logger.Error("clear anchor: %v", err)
		}
		return nil
	}
	return resp
}
