package network

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/airtrap-server/internal/protocol"
)

// Session представляет одно клиентское подключение.
// Создаётся на TCP accept; UDP адрес появляется позже,
// после Hello-датаграммы с идентификатором сессии.
type Session struct {
	ID       uint32
	conn     net.Conn
	udpAddr  *net.UDPAddr
	lastSeen atomic.Int64 // unix nano последней активности

	writeMu sync.Mutex
	defunct atomic.Bool

	mu sync.RWMutex // защищает udpAddr
}

func newSession(id uint32, conn net.Conn) *Session {
	s := &Session{ID: id, conn: conn}
	s.touch()
	return s
}

// RemoteAddr возвращает адрес TCP соединения
func (s *Session) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

// UDPAddr возвращает привязанный UDP адрес или nil
func (s *Session) UDPAddr() *net.UDPAddr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.udpAddr
}

func (s *Session) bindUDP(addr *net.UDPAddr) {
	s.mu.Lock()
	s.udpAddr = addr
	s.mu.Unlock()
}

// Defunct сообщает, помечена ли сессия на удаление после ошибки записи
func (s *Session) Defunct() bool {
	return s.defunct.Load()
}

func (s *Session) markDefunct() {
	s.defunct.Store(true)
}

func (s *Session) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

// IdleSince возвращает длительность простоя сессии
func (s *Session) IdleSince() time.Duration {
	return time.Since(time.Unix(0, s.lastSeen.Load()))
}

// sendTCP пишет кадр в TCP сокет. Запись сериализуется мьютексом,
// чтобы кадры разных горутин не перемешивались.
func (s *Session) sendTCP(pkt *protocol.Packet) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.conn.Write(pkt.Encode())
	return err
}
