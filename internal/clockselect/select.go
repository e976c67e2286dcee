package clockselect

import "sync"

// Election: выбор NTP сервера (как в Timebeat: primary → secondary)
type Election struct {
	primary   []string
	secondary []string

	mu     sync.Mutex
	active string
}

// NewElection создаёт выборщик из списков primary и secondary
func NewElection(primary, secondary []string) *Election {
	return &Election{
		primary:   primary,
		secondary: secondary,
	}
}

// Select перебирает серверы: сначала primary, затем secondary.
// Возвращает первый host, для которого try вернул true, иначе "".
func (e *Election) Select(try func(host string) bool) string {
	for _, group := range [][]string{e.primary, e.secondary} {
		for _, host := range group {
			if try(host) {
				e.setActive(host)
				return host
			}
		}
	}
	e.setActive("")
	return ""
}

func (e *Election) setActive(host string) {
	e.mu.Lock()
	e.active = host
	e.mu.Unlock()
}

// Active возвращает сервер последнего успешного Select
func (e *Election) Active() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Hosts возвращает все серверы в порядке перебора
func (e *Election) Hosts() []string {
	hosts := make([]string, 0, len(e.primary)+len(e.secondary))
	hosts = append(hosts, e.primary...)
	return append(hosts, e.secondary...)
}
