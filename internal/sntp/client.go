// Package sntp выполняет один обмен SNTP с сервером и превращает его в якорь времени (Response).
package sntp

import (
	"time"

	"github.com/shiwa/timecard-mini/sntp-sync/internal/devclock"
	"github.com/shiwa/timecard-mini/sntp-sync/internal/logger"
	"github.com/shiwa/timecard-mini/sntp-sync/internal/ntp"
	"github.com/shiwa/timecard-mini/sntp-sync/internal/transport"
)

// Client: SNTP клиент. Каждый вызов RequestTime открывает свой сокет и делает один обмен; вызовы независимы
// и безопасны из нескольких горутин, если таковы resolver и factory.
type Client struct {
	clock    devclock.Clock
	resolver transport.Resolver
	sockets  transport.Factory
	port     int
}

// ClientOption настраивает Client
type ClientOption func(*Client)

// WithPort задаёт UDP порт сервера (по умолчанию 123)
func WithPort(port int) ClientOption {
	return func(c *Client) { c.port = port }
}

// NewClient создаёт клиента поверх часов устройства, резолвера и фабрики сокетов
func NewClient(clock devclock.Clock, resolver transport.Resolver, sockets transport.Factory, opts ...ClientOption) *Client {
	c := &Client{
		clock:    clock,
		resolver: resolver,
		sockets:  sockets,
		port:     ntp.Port,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// RequestTime отправляет запрос на host и ждёт ответ не дольше timeout.
// Ошибки имеют тип *Error с Kind: транспорт, повреждённый пакет или недоверенный ответ.
// Сокет закрывается на любом пути выхода.
func (c *Client) RequestTime(host string, timeout time.Duration) (*Response, error) {
	addr, err := c.resolver.Resolve(host)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Host: host, Op: "resolve", Err: err}
	}
	sock, err := c.sockets.NewSocket()
	if err != nil {
		return nil, &Error{Kind: KindTransport, Host: host, Op: "socket", Err: err}
	}
	defer sock.Close()
	if err := sock.SetTimeout(timeout); err != nil {
		return nil, &Error{Kind: KindTransport, Host: host, Op: "socket", Err: err}
	}

	requestTime := c.clock.WallClockMs()
	requestTicks := c.clock.MonotonicMs()

	req := ntp.Encode(ntp.NewRequest(requestTime))
	if err := sock.Send(transport.NewAddressedDatagram(req, addr, c.port)); err != nil {
		return nil, &Error{Kind: KindTransport, Host: host, Op: "send", Err: err}
	}

	// буфер больше пакета: датаграмма длиннее 48 байт должна быть замечена, а не обрезана
	reply := transport.NewDatagram(make([]byte, 2*ntp.PacketSize))
	if err := sock.Receive(reply); err != nil {
		return nil, &Error{Kind: KindTransport, Host: host, Op: "receive", Err: err}
	}

	// настенным часам между запросом и ответом не доверяем, монотонной разнице доверяем
	responseTicks := c.clock.MonotonicMs()
	responseTime := requestTime + (responseTicks - requestTicks)

	p, err := ntp.Decode(reply.Payload())
	if err != nil {
		return nil, &Error{Kind: KindMalformed, Host: host, Op: "decode", Err: err}
	}
	if err := ntp.Validate(p); err != nil {
		return nil, &Error{Kind: KindUntrusted, Host: host, Op: "validate", Err: err}
	}

	originateTime := p.OriginateTime.UnixMs()
	receiveTime := p.ReceiveTime.UnixMs()
	transmitTime := p.TransmitTime.UnixMs()
	offset := ClockOffset(originateTime, receiveTime, transmitTime, responseTime)

	logger.Debug("%s (%s): stratum=%d leap=%s org=%d rec=%d xmt=%d resp=%d offset=%dms",
		host, addr, p.Stratum, p.Leap, originateTime, receiveTime, transmitTime, responseTime, offset)

	return NewResponse(responseTime, responseTicks, offset, c.clock), nil
}

// ClockOffset возвращает симметричную оценку смещения по четырём меткам (ms):
// ((receive − originate) + (transmit − response)) / 2 с усечением к нулю.
func ClockOffset(originate, receive, transmit, response int64) int64 {
	return ((receive - originate) + (transmit - response)) / 2
}
