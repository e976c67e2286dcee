package sntp

import (
	"errors"
	"fmt"
	"net"

	"github.com/shiwa/timecard-mini/sntp-sync/internal/ntp"
)

// Kind: категория отказа обмена
type Kind int

const (
	// KindTransport: разрешение имени, сокет, отправка, приём, таймаут
	KindTransport Kind = iota + 1
	// KindMalformed: ответ не является 48-байтным NTP пакетом
	KindMalformed
	// KindUntrusted: пакет корректен, но сервер не ручается за своё время
	KindUntrusted
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindMalformed:
		return "malformed"
	case KindUntrusted:
		return "untrusted"
	default:
		return "unknown"
	}
}

// Error: отказ одного обмена с сервером. Исходная ошибка доступна через errors.Unwrap.
type Error struct {
	Kind Kind
	Host string
	Op   string // resolve, socket, send, receive, decode, validate
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sntp %s %s: %s: %v", e.Host, e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Timeout сообщает, что ответ не пришёл за отведённое время
func (e *Error) Timeout() bool {
	var ne net.Error
	return e.Kind == KindTransport && errors.As(e.Err, &ne) && ne.Timeout()
}

// KindOf возвращает категорию ошибки RequestTime; 0, если ошибка не из этого пакета
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ntp.ErrMalformedPacket):
		return KindMalformed
	case errors.Is(err, ntp.ErrUntrustedReply):
		return KindUntrusted
	}
	return 0
}
