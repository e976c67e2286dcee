package sntp

import (
	"time"

	"github.com/shiwa/timecard-mini/sntp-sync/internal/devclock"
)

// MaxBootMismatchMs: допустимое расхождение вычисленного момента загрузки между якорем и
// текущими показаниями; при расхождении от 1000 ms монотонные часы считаются сброшенными.
const MaxBootMismatchMs = 1000

// Response: якорь синхронизации, то есть показания часов устройства в момент ответа и смещение
// NTP-времени относительно часов устройства. Неизменяем; не держит сетевых ресурсов.
type Response struct {
	deviceWallMs int64
	deviceMonoMs int64
	offsetMs     int64
	clock        devclock.Clock
}

// NewResponse восстанавливает якорь (например, из кэша)
func NewResponse(deviceWallMs, deviceMonoMs, offsetMs int64, clock devclock.Clock) *Response {
	return &Response{
		deviceWallMs: deviceWallMs,
		deviceMonoMs: deviceMonoMs,
		offsetMs:     offsetMs,
		clock:        clock,
	}
}

// DeviceWallMs: настенное время устройства в момент ответа
func (r *Response) DeviceWallMs() int64 { return r.deviceWallMs }

// DeviceMonotonicMs: монотонное время устройства в момент ответа
func (r *Response) DeviceMonotonicMs() int64 { return r.deviceMonoMs }

// OffsetMs: NTP-время минус время устройства
func (r *Response) OffsetMs() int64 { return r.offsetMs }

// ResponseAge: сколько миллисекунд монотонного времени прошло с ответа
func (r *Response) ResponseAge() int64 {
	return r.clock.MonotonicMs() - r.deviceMonoMs
}

// CurrentTimeMs: текущее время по NTP без обращения к сети
func (r *Response) CurrentTimeMs() int64 {
	return r.deviceWallMs + r.offsetMs + r.ResponseAge()
}

// CurrentTime возвращает CurrentTimeMs как time.Time
func (r *Response) CurrentTime() time.Time {
	return time.UnixMilli(r.CurrentTimeMs())
}

// IsFromSameBoot сравнивает момент загрузки на момент ответа (wall − monotonic) с текущим.
// Расхождение от MaxBootMismatchMs означает перезагрузку: якорь нельзя экстраполировать.
func (r *Response) IsFromSameBoot() bool {
	bootThen := r.deviceWallMs - r.deviceMonoMs
	bootNow := r.clock.WallClockMs() - r.clock.MonotonicMs()
	d := bootThen - bootNow
	if d < 0 {
		d = -d
	}
	return d < MaxBootMismatchMs
}
