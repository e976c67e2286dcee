package transport

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Resolver разрешает имя сервера в адрес
type Resolver interface {
	Resolve(host string) (net.IP, error)
}

// SystemResolver: резолвер ОС (net.DefaultResolver)
type SystemResolver struct {
	Timeout time.Duration // 0 = без ограничения
}

// Resolve возвращает первый IPv4 адрес хоста, иначе первый адрес из ответа
func (r SystemResolver) Resolve(host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	ctx := context.Background()
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", host, err)
	}
	return pickAddr(host, addrs)
}

func pickAddr(host string, addrs []net.IPAddr) (net.IP, error) {
	if len(addrs) == 0 {
		return nil, fmt.Errorf("resolve %s: no addresses", host)
	}
	for _, a := range addrs {
		if ip4 := a.IP.To4(); ip4 != nil {
			return ip4, nil
		}
	}
	return addrs[0].IP, nil
}
