// Package transport содержит внешних коллабораторов обмена: разрешение имени и UDP сокет.
package transport

import (
	"fmt"
	"net"
	"time"
)

// Datagram: буфер датаграммы с адресом назначения (для отправки) или источника (после приёма)
type Datagram struct {
	Buf  []byte
	N    int // число полезных байт после Receive
	Addr *net.UDPAddr
}

// NewDatagram создаёт датаграмму для приёма в buf
func NewDatagram(buf []byte) *Datagram {
	return &Datagram{Buf: buf}
}

// NewAddressedDatagram создаёт датаграмму для отправки buf на ip:port
func NewAddressedDatagram(buf []byte, ip net.IP, port int) *Datagram {
	return &Datagram{Buf: buf, N: len(buf), Addr: &net.UDPAddr{IP: ip, Port: port}}
}

// Payload возвращает принятые байты
func (d *Datagram) Payload() []byte {
	return d.Buf[:d.N]
}

// Socket: датаграммный сокет одного обмена
type Socket interface {
	// SetTimeout ограничивает ожидание в Receive
	SetTimeout(d time.Duration) error
	Send(d *Datagram) error
	// Receive блокируется до прихода датаграммы или истечения таймаута
	Receive(d *Datagram) error
	Close() error
}

// Factory создаёт сокеты; должна быть безопасна для одновременного вызова
type Factory interface {
	NewSocket() (Socket, error)
}

// UDPFactory создаёт несвязанные UDP сокеты на случайном локальном порту
type UDPFactory struct {
	// Network: "udp", "udp4" или "udp6"; пусто = "udp"
	Network string
}

// NewSocket открывает UDP сокет
func (f UDPFactory) NewSocket() (Socket, error) {
	network := f.Network
	if network == "" {
		network = "udp"
	}
	conn, err := net.ListenUDP(network, nil)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", network, err)
	}
	return &udpSocket{conn: conn}, nil
}

type udpSocket struct {
	conn    *net.UDPConn
	timeout time.Duration
}

func (s *udpSocket) SetTimeout(d time.Duration) error {
	s.timeout = d
	if d <= 0 {
		return s.conn.SetReadDeadline(time.Time{})
	}
	return s.conn.SetReadDeadline(time.Now().Add(d))
}

func (s *udpSocket) Send(d *Datagram) error {
	if d.Addr == nil {
		return fmt.Errorf("send: no destination address")
	}
	_, err := s.conn.WriteToUDP(d.Buf[:d.N], d.Addr)
	return err
}

func (s *udpSocket) Receive(d *Datagram) error {
	n, addr, err := s.conn.ReadFromUDP(d.Buf)
	if err != nil {
		return err
	}
	d.N = n
	d.Addr = addr
	return nil
}

func (s *udpSocket) Close() error {
	return s.conn.Close()
}
