package transport

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// DNSResolver разрешает имя через заданный DNS сервер, минуя системный резолвер.
// Нужен на устройствах, где системный DNS недоступен или подменяется.
type DNSResolver struct {
	// Nameserver: адрес DNS сервера, "host" или "host:port" (по умолчанию порт 53)
	Nameserver string
	Timeout    time.Duration

	client *dns.Client
}

// NewDNSResolver создаёт резолвер для nameserver с таймаутом на один запрос
func NewDNSResolver(nameserver string, timeout time.Duration) *DNSResolver {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if _, _, err := net.SplitHostPort(nameserver); err != nil {
		nameserver = net.JoinHostPort(nameserver, "53")
	}
	return &DNSResolver{
		Nameserver: nameserver,
		Timeout:    timeout,
		client:     &dns.Client{Net: "udp", Timeout: timeout},
	}
}

var errNoRecords = errors.New("no address records")

// Resolve запрашивает A, затем AAAA. IP-литералы возвращаются без запроса.
func (r *DNSResolver) Resolve(host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	var lastErr error
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		ip, err := r.query(host, qtype)
		if err == nil {
			return ip, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("resolve %s via %s: %w", host, r.Nameserver, lastErr)
}

func (r *DNSResolver) query(host string, qtype uint16) (net.IP, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), qtype)
	m.RecursionDesired = true

	in, _, err := r.client.Exchange(m, r.Nameserver)
	if err != nil {
		return nil, err
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%s: rcode %s", dns.TypeToString[qtype], dns.RcodeToString[in.Rcode])
	}
	for _, rr := range in.Answer {
		switch a := rr.(type) {
		case *dns.A:
			if qtype == dns.TypeA {
				return a.A, nil
			}
		case *dns.AAAA:
			if qtype == dns.TypeAAAA {
				return a.AAAA, nil
			}
		}
	}
	return nil, fmt.Errorf("%s: %w", dns.TypeToString[qtype], errNoRecords)
}
