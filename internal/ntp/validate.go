package ntp

import (
	"errors"
	"fmt"
)

// MaxStratum: максимальный допустимый stratum; 0 и всё выше 15 не принимаются
const MaxStratum = 15

// ErrUntrustedReply: пакет разобран, но сервер не ручается за своё время
var ErrUntrustedReply = errors.New("untrusted ntp reply")

// UntrustedError описывает, какую проверку не прошёл ответ
type UntrustedError struct {
	Reason string
}

func (e *UntrustedError) Error() string {
	return "untrusted ntp reply: " + e.Reason
}

// Is позволяет проверять errors.Is(err, ErrUntrustedReply)
func (e *UntrustedError) Is(target error) bool {
	return target == ErrUntrustedReply
}

// Validate проверяет, можно ли доверять ответу. Порядок проверок: leap, mode, stratum, transmit.
func Validate(p Packet) error {
	if p.Leap == LeapNotInSync {
		return &UntrustedError{Reason: "unsynchronized server"}
	}
	if p.Mode != ModeServer && p.Mode != ModeBroadcast {
		return &UntrustedError{Reason: fmt.Sprintf("untrusted mode: %s", p.Mode)}
	}
	if p.Stratum == 0 || p.Stratum > MaxStratum {
		reason := fmt.Sprintf("untrusted stratum: %d", p.Stratum)
		if code := p.KissCode(); code != "" {
			reason += " (kiss code " + code + ")"
		}
		return &UntrustedError{Reason: reason}
	}
	if p.TransmitTime.IsZero() {
		return &UntrustedError{Reason: "zero transmit time"}
	}
	return nil
}
