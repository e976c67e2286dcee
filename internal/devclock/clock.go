// Package devclock содержит часы устройства: настенное время и монотонное время с загрузки.
//
// Два показания снимаются независимо. Разность (wall − monotonic) даёт момент загрузки,
// по которому sntp.Response определяет, что устройство перезагружалось.
package devclock

import (
	"sync"
	"time"
)

// Clock: источник показаний часов устройства
type Clock interface {
	// WallClockMs возвращает настенное время в миллисекундах с 1970 (может прыгать)
	WallClockMs() int64
	// MonotonicMs возвращает миллисекунды с произвольной точки отсчёта (загрузка);
	// не убывает, не зависит от коррекции настенных часов, сбрасывается при перезагрузке
	MonotonicMs() int64
}

// System: часы операционной системы
type System struct{}

// WallClockMs возвращает системное время
func (System) WallClockMs() int64 {
	return time.Now().UnixMilli()
}

// MonotonicMs возвращает время с загрузки (с учётом сна, где это поддерживает ОС)
func (System) MonotonicMs() int64 {
	return bootMs()
}

// Manual: часы с ручным управлением для тестов и воспроизведения обменов
type Manual struct {
	mu   sync.Mutex
	wall int64
	mono int64
}

// NewManual создаёт часы с заданными показаниями
func NewManual(wallMs, monoMs int64) *Manual {
	return &Manual{wall: wallMs, mono: monoMs}
}

// WallClockMs возвращает текущее настенное показание
func (m *Manual) WallClockMs() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wall
}

// MonotonicMs возвращает текущее монотонное показание
func (m *Manual) MonotonicMs() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mono
}

// Advance сдвигает оба показания на d миллисекунд
func (m *Manual) Advance(d int64) {
	m.mu.Lock()
	m.wall += d
	m.mono += d
	m.mu.Unlock()
}

// Set задаёт показания (например, после имитации перезагрузки)
func (m *Manual) Set(wallMs, monoMs int64) {
	m.mu.Lock()
	m.wall, m.mono = wallMs, monoMs
	m.mu.Unlock()
}
