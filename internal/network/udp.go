package network

import (
	"net"
	"time"

	"github.com/annel0/airtrap-server/internal/logging"
	"github.com/annel0/airtrap-server/internal/protocol"
)

// receiveLoop принимает UDP датаграммы на общем сокете
func (s *Server) receiveLoop() {
	defer s.wg.Done()

	buffer := make([]byte, 2048)

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
			// Таймаут чтения, чтобы регулярно проверять контекст
			s.udpConn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))

			n, addr, err := s.udpConn.ReadFromUDP(buffer)
			if err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					continue
				}
				select {
				case <-s.ctx.Done():
					return
				default:
					logging.Debug("Ошибка чтения UDP: %v", err)
					continue
				}
			}

			s.handleDatagram(buffer[:n], addr)
		}
	}
}

// handleDatagram валидирует кадр и атрибутирует его сессии.
// Датаграммы UDP самодостаточны: битый кадр отбрасывается,
// сокет продолжает жить.
func (s *Server) handleDatagram(data []byte, addr *net.UDPAddr) {
	pkt, err := protocol.DecodePacket(data)
	if err != nil {
		s.countDropped("bad_datagram")
		logging.Debug("UDP кадр от %s отброшен: %v", addr, err)
		return
	}

	s.countReceived("udp")

	// Hello — привязка endpoint к сессии, не игровое событие
	if pkt.Header.OpCode == protocol.OpHello {
		s.bindEndpoint(pkt.Header.SessionID, addr)
		return
	}

	s.mu.RLock()
	sessionID, bound := s.endpoints[addr.String()]
	s.mu.RUnlock()

	if !bound {
		// Клиент не прошёл UDP рукопожатие — молча отбрасываем
		s.countDropped("unbound")
		return
	}

	s.mu.RLock()
	sess := s.sessions[sessionID]
	s.mu.RUnlock()
	if sess != nil {
		sess.touch()
	}

	s.queue.Push(NetworkEvent{Kind: EventPacket, SessionID: sessionID, Packet: pkt})
}

// bindEndpoint запоминает соответствие UDP адреса и сессии.
// Требует существующей TCP сессии с тем же идентификатором.
func (s *Server) bindEndpoint(sessionID uint32, addr *net.UDPAddr) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		logging.Debug("UDP Hello от %s для несуществующей сессии %d", addr, sessionID)
		return
	}

	// Старый endpoint той же сессии вытесняется
	if old := sess.UDPAddr(); old != nil {
		delete(s.endpoints, old.String())
	}

	sess.bindUDP(addr)
	s.endpoints[addr.String()] = sessionID
	logging.Debug("UDP endpoint %s привязан к сессии %d", addr, sessionID)
}
