// Package ntp реализует кодек 48-байтного пакета SNTP/NTP (RFC 4330) без сетевого ввода-вывода.
package ntp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
)

// PacketSize: размер NTP пакета без расширений
const PacketSize = 48

// Port: UDP порт NTP
const Port = 123

// ClientVersion: версия протокола в запросах клиента
const ClientVersion uint8 = 3

// Смещения полей в пакете
const (
	offFlags          = 0
	offStratum        = 1
	offPoll           = 2
	offPrecision      = 3
	offRootDelay      = 4
	offRootDispersion = 8
	offReferenceID    = 12
	offReferenceTime  = 16
	offOriginateTime  = 24
	offReceiveTime    = 32
	offTransmitTime   = 40
)

// ErrMalformedPacket: датаграмма не является NTP пакетом (длина не 48 байт)
var ErrMalformedPacket = errors.New("malformed ntp packet")

// Leap: индикатор секунды координации
type Leap uint8

const (
	LeapNoWarning Leap = iota
	LeapAddSecond      // последняя минута суток длится 61 секунду
	LeapDelSecond      // последняя минута суток длится 59 секунд
	LeapNotInSync      // часы сервера не синхронизированы
)

func (l Leap) String() string {
	switch l {
	case LeapNoWarning:
		return "no-warning"
	case LeapAddSecond:
		return "add-second"
	case LeapDelSecond:
		return "del-second"
	case LeapNotInSync:
		return "not-in-sync"
	default:
		return fmt.Sprintf("leap(%d)", uint8(l))
	}
}

// Mode: режим ассоциации
type Mode uint8

const (
	ModeReserved Mode = iota
	ModeSymmetricActive
	ModeSymmetricPassive
	ModeClient
	ModeServer
	ModeBroadcast
	ModeControl
	ModePrivate
)

func (m Mode) String() string {
	switch m {
	case ModeReserved:
		return "reserved"
	case ModeSymmetricActive:
		return "symmetric-active"
	case ModeSymmetricPassive:
		return "symmetric-passive"
	case ModeClient:
		return "client"
	case ModeServer:
		return "server"
	case ModeBroadcast:
		return "broadcast"
	case ModeControl:
		return "control"
	case ModePrivate:
		return "private"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Packet: разобранный NTP пакет
type Packet struct {
	Leap           Leap
	Version        uint8
	Mode           Mode
	Stratum        uint8
	Poll           int8
	Precision      int8
	RootDelay      Short
	RootDispersion Short
	ReferenceID    uint32
	ReferenceTime  Timestamp
	OriginateTime  Timestamp
	ReceiveTime    Timestamp
	TransmitTime   Timestamp
}

// NewRequest собирает клиентский запрос: leap 0, версия 3, режим client.
// Transmit timestamp = время устройства на момент запроса; младший байт дробной части
// заполняется случайными битами, чтобы ответ нельзя было подделать, не видя запроса.
func NewRequest(transmitMs int64) Packet {
	xmt := TimestampFromUnixMs(transmitMs)
	xmt.Fraction = xmt.Fraction&^0xff | uint32(rand.Intn(256))
	return Packet{
		Leap:         LeapNoWarning,
		Version:      ClientVersion,
		Mode:         ModeClient,
		TransmitTime: xmt,
	}
}

// Encode собирает 48-байтный пакет (big-endian)
func Encode(p Packet) []byte {
	buf := make([]byte, PacketSize)
	buf[offFlags] = byte(p.Leap&0x3)<<6 | (p.Version&0x7)<<3 | byte(p.Mode&0x7)
	buf[offStratum] = p.Stratum
	buf[offPoll] = byte(p.Poll)
	buf[offPrecision] = byte(p.Precision)
	binary.BigEndian.PutUint32(buf[offRootDelay:], uint32(p.RootDelay))
	binary.BigEndian.PutUint32(buf[offRootDispersion:], uint32(p.RootDispersion))
	binary.BigEndian.PutUint32(buf[offReferenceID:], p.ReferenceID)
	binary.BigEndian.PutUint64(buf[offReferenceTime:], p.ReferenceTime.uint64())
	binary.BigEndian.PutUint64(buf[offOriginateTime:], p.OriginateTime.uint64())
	binary.BigEndian.PutUint64(buf[offReceiveTime:], p.ReceiveTime.uint64())
	binary.BigEndian.PutUint64(buf[offTransmitTime:], p.TransmitTime.uint64())
	return buf
}

// Decode разбирает ответ сервера. Любая длина кроме 48 байт даёт ErrMalformedPacket.
// Все 32-битные поля читаются как беззнаковые.
func Decode(buf []byte) (Packet, error) {
	if len(buf) != PacketSize {
		return Packet{}, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedPacket, len(buf), PacketSize)
	}
	flags := buf[offFlags]
	return Packet{
		Leap:           Leap(flags >> 6 & 0x3),
		Version:        flags >> 3 & 0x7,
		Mode:           Mode(flags & 0x7),
		Stratum:        buf[offStratum],
		Poll:           int8(buf[offPoll]),
		Precision:      int8(buf[offPrecision]),
		RootDelay:      Short(binary.BigEndian.Uint32(buf[offRootDelay:])),
		RootDispersion: Short(binary.BigEndian.Uint32(buf[offRootDispersion:])),
		ReferenceID:    binary.BigEndian.Uint32(buf[offReferenceID:]),
		ReferenceTime:  timestampFromUint64(binary.BigEndian.Uint64(buf[offReferenceTime:])),
		OriginateTime:  timestampFromUint64(binary.BigEndian.Uint64(buf[offOriginateTime:])),
		ReceiveTime:    timestampFromUint64(binary.BigEndian.Uint64(buf[offReceiveTime:])),
		TransmitTime:   timestampFromUint64(binary.BigEndian.Uint64(buf[offTransmitTime:])),
	}, nil
}

// KissCode возвращает ASCII код "kiss-o'-death" (RATE, DENY, ...) для ответов со stratum 0
func (p Packet) KissCode() string {
	if p.Stratum != 0 {
		return ""
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], p.ReferenceID)
	n := 0
	for n < len(b) && b[n] >= 0x20 && b[n] < 0x7f {
		n++
	}
	return string(b[:n])
}
