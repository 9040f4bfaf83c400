package network

import (
	"errors"
	"io"
	"net"

	"github.com/annel0/airtrap-server/internal/logging"
	"github.com/annel0/airtrap-server/internal/protocol"
)

// acceptLoop принимает TCP соединения и заводит сессии
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				logging.Error("Ошибка принятия соединения: %v", err)
				continue
			}
		}

		s.mu.Lock()
		id := s.nextSessionID
		s.nextSessionID++
		sess := newSession(id, conn)
		s.sessions[id] = sess
		count := len(s.sessions)
		s.mu.Unlock()
		s.setActiveSessions(count)

		logging.Info("Сессия %d подключена (%s)", id, conn.RemoteAddr())

		// Сразу сообщаем клиенту его идентификатор
		welcome := (&protocol.WelcomePayload{SessionID: id}).Marshal()
		if err := sess.sendTCP(protocol.NewPacket(protocol.OpWelcome, id, welcome)); err != nil {
			logging.Error("Не удалось отправить Welcome сессии %d: %v", id, err)
			conn.Close()
		}

		s.queue.Push(NetworkEvent{Kind: EventConnected, SessionID: id})

		s.wg.Add(1)
		go s.handleConnection(sess)
	}
}

// handleConnection читает кадры из TCP потока сессии.
// Искажённая сигнатура рвёт соединение: позиция в потоке после неё
// невосстановима.
func (s *Server) handleConnection(sess *Session) {
	defer s.wg.Done()
	defer s.dropSession(sess)

	headerBuf := make([]byte, protocol.HeaderSize)

	for {
		if _, err := io.ReadFull(sess.conn, headerBuf); err != nil {
			s.logReadError(sess.ID, err)
			return
		}

		header, err := protocol.DecodeHeader(headerBuf)
		if err != nil {
			s.countDropped("bad_header")
			logging.LogProtocolError(sess.conn.RemoteAddr().String(), err, headerBuf)
			return
		}

		var body []byte
		if header.BodySize > 0 {
			body = make([]byte, header.BodySize)
			if _, err := io.ReadFull(sess.conn, body); err != nil {
				s.logReadError(sess.ID, err)
				return
			}
		}

		sess.touch()
		s.countReceived("tcp")

		pkt := &protocol.Packet{Header: header, Body: body}

		// Ping обслуживается транспортом, в симуляцию не попадает
		if header.OpCode == protocol.OpPing {
			pong := protocol.NewPacket(protocol.OpPong, sess.ID, nil)
			pong.Header.AckID = header.SequenceID
			if err := sess.sendTCP(pong); err != nil {
				return
			}
			continue
		}

		s.queue.Push(NetworkEvent{Kind: EventPacket, SessionID: sess.ID, Packet: pkt})
	}
}

// dropSession удаляет сессию из таблиц и публикует событие отключения
func (s *Server) dropSession(sess *Session) {
	sess.conn.Close()

	s.mu.Lock()
	if _, ok := s.sessions[sess.ID]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.sessions, sess.ID)
	if addr := sess.UDPAddr(); addr != nil {
		delete(s.endpoints, addr.String())
	}
	count := len(s.sessions)
	s.mu.Unlock()
	s.setActiveSessions(count)

	logging.Info("Сессия %d отключена", sess.ID)
	s.queue.Push(NetworkEvent{Kind: EventDisconnected, SessionID: sess.ID})
}

func (s *Server) logReadError(sessionID uint32, err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return
	}
	logging.Debug("Сессия %d: ошибка чтения: %v", sessionID, err)
}
