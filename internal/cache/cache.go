package cache

import (
	"github.com/shiwa/timecard-mini/sntp-sync/internal/devclock"
	"github.com/shiwa/timecard-mini/sntp-sync/internal/sntp"
)

// ResponseCache восстанавливает sntp.Response из Store поверх часов устройства
type ResponseCache struct {
	store Store
	clock devclock.Clock
}

// NewResponseCache создаёт кэш якоря
func NewResponseCache(store Store, clock devclock.Clock) *ResponseCache {
	return &ResponseCache{store: store, clock: clock}
}

// Get возвращает сохранённый якорь или nil, если его нет
func (c *ResponseCache) Get() (*sntp.Response, error) {
	r, ok, err := c.store.Load()
	if err != nil || !ok {
		return nil, err
	}
	return sntp.NewResponse(r.DeviceWallMs, r.DeviceMonotonicMs, r.OffsetMs, c.clock), nil
}

// Update сохраняет якорь
func (c *ResponseCache) Update(resp *sntp.Response) error {
	return c.store.Save(Record{
		DeviceWallMs:      resp.DeviceWallMs(),
		DeviceMonotonicMs: resp.DeviceMonotonicMs(),
		OffsetMs:          resp.OffsetMs(),
	})
}

// Clear удаляет якорь
func (c *ResponseCache) Clear() error {
	return c.store.Clear()
}
