package network

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/annel0/airtrap-server/internal/logging"
	"github.com/annel0/airtrap-server/internal/protocol"
)

// SendMode выбирает транспорт для исходящего пакета
type SendMode uint8

const (
	// SendReliable — по TCP: с гарантией доставки и порядка
	SendReliable SendMode = iota
	// SendUnreliable — по UDP: без повторов, свежий снапшот заменяет старый
	SendUnreliable
)

// Server владеет TCP-листенером, общим UDP-сокетом и таблицей сессий.
// Вся расшифровка байтов происходит в горутинах транспорта; симуляция
// получает только типизированные NetworkEvent из очереди.
type Server struct {
	listener net.Listener
	udpConn  *net.UDPConn

	mu            sync.RWMutex
	sessions      map[uint32]*Session
	endpoints     map[string]uint32 // UDP endpoint -> session id
	nextSessionID uint32            // монотонный, 0 зарезервирован

	queue   *EventQueue
	metrics *Metrics

	idleTimeout time.Duration // 0 — без реапера

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer биндит оба порта. Ошибка бинда фатальна для запуска.
func NewServer(tcpAddr, udpAddr string, queue *EventQueue, metrics *Metrics) (*Server, error) {
	listener, err := net.Listen("tcp", tcpAddr)
	if err != nil {
		return nil, fmt.Errorf("tcp listen %s: %w", tcpAddr, err)
	}

	addr, err := net.ResolveUDPAddr("udp", udpAddr)
	if err != nil {
		listener.Close()
		return nil, fmt.Errorf("resolve udp %s: %w", udpAddr, err)
	}
	udpConn, err := net.ListenUDP("udp", addr)
	if err != nil {
		listener.Close()
		return nil, fmt.Errorf("udp listen %s: %w", udpAddr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		listener:      listener,
		udpConn:       udpConn,
		sessions:      make(map[uint32]*Session),
		endpoints:     make(map[string]uint32),
		nextSessionID: 1,
		queue:         queue,
		metrics:       metrics,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// TCPAddr возвращает фактический адрес TCP листенера
func (s *Server) TCPAddr() net.Addr { return s.listener.Addr() }

// UDPAddr возвращает фактический адрес UDP сокета
func (s *Server) UDPAddr() net.Addr { return s.udpConn.LocalAddr() }

// SetIdleTimeout включает отключение неактивных сессий
func (s *Server) SetIdleTimeout(d time.Duration) {
	s.idleTimeout = d
}

// Start запускает циклы приёма. Неблокирующий.
func (s *Server) Start() {
	s.wg.Add(2)
	go s.acceptLoop()
	go s.receiveLoop()
	if s.idleTimeout > 0 {
		s.wg.Add(1)
		go s.reaperLoop()
	}
	logging.Info("🌐 Транспорт запущен: tcp=%s udp=%s",
		s.listener.Addr(), s.udpConn.LocalAddr())
}

// Stop останавливает приём и закрывает все сессии
func (s *Server) Stop() {
	s.cancel()
	s.listener.Close()
	s.udpConn.Close()

	s.mu.Lock()
	for _, sess := range s.sessions {
		sess.conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	logging.Info("🌐 Транспорт остановлен")
}

// Session возвращает сессию по идентификатору
func (s *Server) Session(id uint32) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// CloseSession принудительно разрывает соединение.
// Очистка состояния произойдёт штатным путём через EventDisconnected.
func (s *Server) CloseSession(id uint32) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		sess.conn.Close()
	}
}

// Send отправляет пакет сессии выбранным транспортом.
// Ошибка надёжной отправки помечает сессию defunct; штатный путь
// отключения вычистит её state. Ненадёжные ошибки только логируются.
func (s *Server) Send(sessionID uint32, pkt *protocol.Packet, mode SendMode) error {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("network: unknown session %d", sessionID)
	}

	pkt.Header.SessionID = sessionID

	if mode == SendReliable {
		if err := sess.sendTCP(pkt); err != nil {
			s.countSendError("tcp")
			sess.markDefunct()
			sess.conn.Close()
			return fmt.Errorf("network: tcp send to %d: %w", sessionID, err)
		}
		s.countSent("tcp")
		return nil
	}

	udpAddr := sess.UDPAddr()
	if udpAddr == nil {
		// Клиент ещё не завершил UDP рукопожатие
		return nil
	}
	if _, err := s.udpConn.WriteToUDP(pkt.Encode(), udpAddr); err != nil {
		s.countSendError("udp")
		logging.Debug("UDP отправка сессии %d: %v", sessionID, err)
		return nil
	}
	s.countSent("udp")
	return nil
}

// Broadcast отправляет пакет всем сессиям из списка.
// Пустой список означает все подключённые сессии.
func (s *Server) Broadcast(sessionIDs []uint32, pkt *protocol.Packet, mode SendMode) {
	if sessionIDs == nil {
		s.mu.RLock()
		sessionIDs = make([]uint32, 0, len(s.sessions))
		for id := range s.sessions {
			sessionIDs = append(sessionIDs, id)
		}
		s.mu.RUnlock()
	}

	for _, id := range sessionIDs {
		if err := s.Send(id, pkt, mode); err != nil {
			logging.Debug("broadcast: %v", err)
		}
	}
}

// reaperLoop отключает сессии, молчащие дольше idleTimeout
func (s *Server) reaperLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			var stale []*Session
			for _, sess := range s.sessions {
				if sess.IdleSince() > s.idleTimeout {
					stale = append(stale, sess)
				}
			}
			s.mu.RUnlock()

			for _, sess := range stale {
				logging.Info("Сессия %d отключена по таймауту простоя", sess.ID)
				sess.conn.Close()
			}
		}
	}
}

func (s *Server) countReceived(transport string) {
	if s.metrics != nil {
		s.metrics.PacketsReceived.WithLabelValues(transport).Inc()
	}
}

func (s *Server) countSent(transport string) {
	if s.metrics != nil {
		s.metrics.PacketsSent.WithLabelValues(transport).Inc()
	}
}

func (s *Server) countSendError(transport string) {
	if s.metrics != nil {
		s.metrics.SendErrors.WithLabelValues(transport).Inc()
	}
}

func (s *Server) countDropped(reason string) {
	if s.metrics != nil {
		s.metrics.FramesDropped.WithLabelValues(reason).Inc()
	}
}

func (s *Server) setActiveSessions(n int) {
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(n))
	}
}
