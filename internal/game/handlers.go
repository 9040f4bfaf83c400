package game

import (
	"errors"
	"fmt"

	"github.com/annel0/airtrap-server/internal/auth"
	"github.com/annel0/airtrap-server/internal/ecs"
	"github.com/annel0/airtrap-server/internal/eventbus"
	"github.com/annel0/airtrap-server/internal/logging"
	"github.com/annel0/airtrap-server/internal/network"
	"github.com/annel0/airtrap-server/internal/protocol"
)

func (m *Manager) handleEvent(ev network.NetworkEvent) {
	switch ev.Kind {
	case network.EventConnected:
		m.handleConnected(ev.SessionID)
	case network.EventDisconnected:
		m.handleDisconnected(ev.SessionID)
	case network.EventPacket:
		m.handlePacket(ev.SessionID, ev.Packet)
	}
}

func (m *Manager) handleConnected(sessionID uint32) {
	m.g.Players.Add(sessionID)
	logging.Info("👤 Новая сессия %d", sessionID)
}

func (m *Manager) handleDisconnected(sessionID uint32) {
	p, ok := m.g.Players.Get(sessionID)
	if !ok {
		return
	}
	if p.RoomID != 0 || p.State == StateInLobby {
		m.leaveRoom(p, "отключился")
	}
	m.g.Players.Remove(sessionID)
	logging.Info("👤 Сессия %d закрыта (%s)", sessionID, p.Username)
}

func (m *Manager) handlePacket(sessionID uint32, pkt *protocol.Packet) {
	p, ok := m.g.Players.Get(sessionID)
	if !ok {
		return
	}

	switch pkt.Header.OpCode {
	case protocol.OpLoginRequest:
		m.handleLogin(p, pkt.Body)
	case protocol.OpRegisterRequest:
		m.handleRegister(p, pkt.Body)
	case protocol.OpListRooms:
		m.handleListRooms(p)
	case protocol.OpCreateRoom:
		m.handleCreateRoom(p, pkt.Body)
	case protocol.OpJoinRoom:
		m.handleJoinRoom(p, pkt.Body)
	case protocol.OpLeaveRoom:
		m.handleLeaveRoom(p)
	case protocol.OpSetReady:
		m.handleSetReady(p, pkt.Body)
	case protocol.OpRoomChatSended:
		m.handleChat(p, pkt.Body)
	case protocol.OpStartGame:
		m.handleStartGame(p)
	case protocol.OpInputTick:
		m.handleInput(p, pkt.Body)
	case protocol.OpDisconnect:
		if m.net != nil {
			m.net.CloseSession(p.SessionID)
		}
	case protocol.OpHello, protocol.OpPing:
		// Hello и Ping обслуживает транспорт.
	default:
		logging.Debug("🎮 Сессия %d: неожиданный опкод %s", sessionID, pkt.Header.OpCode)
	}
}

//================ Аутентификация =================//

func (m *Manager) handleLogin(p *Player, body []byte) {
	var creds protocol.CredentialsPayload
	if err := creds.Unmarshal(body); err != nil {
		m.authReply(p, protocol.OpLoginResponse, false, "малформированный запрос")
		return
	}
	if p.State != StateNotLogged && p.State != StateConnected {
		m.authReply(p, protocol.OpLoginResponse, false, "уже авторизован")
		return
	}
	if _, online := m.g.Players.ByUsername(creds.Username); online {
		m.authReply(p, protocol.OpLoginResponse, false, "игрок уже в сети")
		return
	}

	user, err := m.authn.Login(creds.Username, creds.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrBadCredentials) {
			logging.Error("🔑 Логин %s: %v", creds.Username, err)
		}
		m.authReply(p, protocol.OpLoginResponse, false, "неверное имя или пароль")
		return
	}

	p.Username = user.Username
	p.Weapon = weaponKindFromWire(creds.WeaponKind)
	m.joinLobby(p)
	m.authReply(p, protocol.OpLoginResponse, true, "добро пожаловать")
	m.publish(eventbus.EventPlayerJoined, eventbus.PlayerEventPayload{
		PlayerID: p.SessionID,
		Username: p.Username,
	})
	logging.Info("🔑 Игрок %s вошёл (сессия %d)", p.Username, p.SessionID)
}

func (m *Manager) handleRegister(p *Player, body []byte) {
	var creds protocol.CredentialsPayload
	if err := creds.Unmarshal(body); err != nil {
		m.authReply(p, protocol.OpRegisterResponse, false, "малформированный запрос")
		return
	}
	if _, err := m.authn.Register(creds.Username, creds.Password); err != nil {
		m.authReply(p, protocol.OpRegisterResponse, false, err.Error())
		return
	}
	m.authReply(p, protocol.OpRegisterResponse, true, "аккаунт создан")
	logging.Info("🔑 Зарегистрирован аккаунт %s", creds.Username)
}

func (m *Manager) authReply(p *Player, op protocol.OpCode, success bool, message string) {
	payload := protocol.AuthResponsePayload{Success: success, Message: message}
	m.g.sendReliable(p.SessionID, op, payload.Marshal())
}

//================ Комнаты =================//

func (m *Manager) handleListRooms(p *Player) {
	payload := protocol.RoomListPayload{Rooms: m.g.Rooms.Summaries()}
	m.g.sendReliable(p.SessionID, protocol.OpRoomList, payload.Marshal())
}

func (m *Manager) handleCreateRoom(p *Player, body []byte) {
	var req protocol.CreateRoomPayload
	if err := req.Unmarshal(body); err != nil {
		m.roomReply(p, protocol.OpCreateRoom, false, 0, "малформированный запрос")
		return
	}
	if p.State != StateInLobby {
		m.roomReply(p, protocol.OpCreateRoom, false, 0, "сначала войдите в лобби")
		return
	}
	if req.MaxPlayers == 0 || req.Name == "" {
		m.roomReply(p, protocol.OpCreateRoom, false, 0, "некорректные параметры комнаты")
		return
	}

	roomType := RoomPublic
	if req.RoomType == 1 {
		roomType = RoomPrivate
	}
	seed := m.g.RandomSeed()
	room := m.g.Rooms.Create(p.SessionID, req.Name, int(req.MaxPlayers),
		req.Difficulty, req.Speed, req.DurationMinutes, roomType, req.LevelID, seed)

	m.roomReply(p, protocol.OpCreateRoom, true, room.ID, "комната создана")
	m.publish(eventbus.EventRoomCreated, eventbus.RoomEventPayload{
		RoomID:   room.ID,
		RoomName: room.Name,
		LevelID:  uint32(room.LevelID),
	})
	logging.Info("🏠 Комната %q (#%d) создана игроком %s", room.Name, room.ID, p.Username)
}

func (m *Manager) handleJoinRoom(p *Player, body []byte) {
	var req protocol.JoinRoomPayload
	if err := req.Unmarshal(body); err != nil {
		m.roomReply(p, protocol.OpJoinRoom, false, 0, "малформированный запрос")
		return
	}
	room, ok := m.g.Rooms.Get(req.RoomID)
	if !ok {
		m.roomReply(p, protocol.OpJoinRoom, false, 0, "комната не найдена")
		return
	}
	if p.RoomID == room.ID {
		m.roomReply(p, protocol.OpJoinRoom, false, room.ID, "вы уже в этой комнате")
		return
	}

	// Сначала покидаем текущую комнату (или лобби).
	m.leaveRoom(p, "")

	if err := room.AddPlayer(p, req.AsSpectator); err != nil {
		m.joinLobby(p)
		m.roomReply(p, protocol.OpJoinRoom, false, room.ID, joinErrorMessage(err))
		return
	}
	p.RoomID = room.ID
	p.State = StateInRoom
	p.IsReady = false

	m.roomReply(p, protocol.OpJoinRoom, true, room.ID, "")
	if room.ID != LobbyRoomID {
		m.systemChat(room, fmt.Sprintf("%s присоединился", p.Username), p.SessionID)
	}

	// Зрителю идущего матча досылаем текущую сцену.
	if room.State() == RoomInGame && p.Spectator {
		m.replayScene(room, p.SessionID)
	}

	m.publish(eventbus.EventPlayerJoined, eventbus.PlayerEventPayload{
		RoomID:   room.ID,
		PlayerID: p.SessionID,
		Username: p.Username,
	})
}

func (m *Manager) handleLeaveRoom(p *Player) {
	if p.RoomID == LobbyRoomID {
		return
	}
	m.leaveRoom(p, "покинул комнату")
	m.joinLobby(p)
}

func (m *Manager) handleSetReady(p *Player, body []byte) {
	var req protocol.SetReadyPayload
	if err := req.Unmarshal(body); err != nil {
		return
	}
	room, ok := m.g.Rooms.Get(p.RoomID)
	if !ok || room.ID == LobbyRoomID || room.State() != RoomWaiting {
		return
	}
	p.IsReady = req.Ready
}

func (m *Manager) handleChat(p *Player, body []byte) {
	var req protocol.ChatSendPayload
	if err := req.Unmarshal(body); err != nil || req.Message == "" {
		return
	}
	if p.IsMuted || p.Username == "" {
		return
	}
	room, ok := m.g.Rooms.Get(p.RoomID)
	if !ok {
		return
	}
	payload := protocol.ChatReceivePayload{Author: p.Username, Message: req.Message}
	body = payload.Marshal()
	for _, sid := range room.SessionIDs() {
		if sid != p.SessionID {
			m.g.sendReliable(sid, protocol.OpRoomChatReceived, body)
		}
	}
}

func (m *Manager) handleStartGame(p *Player) {
	room, ok := m.g.Rooms.Get(p.RoomID)
	if !ok || room.ID == LobbyRoomID {
		return
	}
	if room.CreatorSession != p.SessionID || room.State() != RoomWaiting {
		return
	}
	m.startRoom(room)
}

//================ Ввод =================//

func (m *Manager) handleInput(p *Player, body []byte) {
	e, ok := m.g.EntityFor(p.SessionID)
	if !ok {
		return
	}
	var req protocol.InputTickPayload
	if err := req.Unmarshal(body); err != nil {
		return
	}
	in, ok := m.g.S.Input.GetPtr(e)
	if !ok {
		return
	}

	prev := in.Mask
	in.Mask = req.Mask
	in.LastProcessedTick = req.Tick

	// Переключение отладочного режима по фронту бита.
	if req.Mask&protocol.InputDebug != 0 && prev&protocol.InputDebug == 0 {
		p.Debug = !p.Debug
		payload := protocol.DebugModePayload{Enabled: p.Debug}
		m.g.sendReliable(p.SessionID, protocol.OpDebugModeUpdate, payload.Marshal())
	}
}

//================ Общие операции =================//

// joinLobby помещает игрока в лобби-комнату.
func (m *Manager) joinLobby(p *Player) {
	lobby := m.g.Rooms.Lobby()
	_ = lobby.AddPlayer(p, false)
	p.RoomID = LobbyRoomID
	p.State = StateInLobby
	p.IsReady = false
	p.Spectator = false
}

// leaveRoom выводит игрока из текущей комнаты, убирая его сущность и
// оповещая остальных. Пустые комнаты (кроме лобби) удаляются.
func (m *Manager) leaveRoom(p *Player, announce string) {
	room, ok := m.g.Rooms.Get(p.RoomID)
	if !ok {
		return
	}
	if p.Entity != ecs.Nil {
		m.g.Despawn(p.Entity, true)
		p.Entity = ecs.Nil
		p.NetworkID = 0
	}
	room.RemovePlayer(p.SessionID)
	p.RoomID = 0
	p.IsReady = false
	p.State = StateInLobby

	if room.ID == LobbyRoomID {
		return
	}
	if announce != "" && p.Username != "" {
		m.systemChat(room, fmt.Sprintf("%s %s", p.Username, announce), 0)
	}
	m.publish(eventbus.EventPlayerLeft, eventbus.PlayerEventPayload{
		RoomID:   room.ID,
		PlayerID: p.SessionID,
		Username: p.Username,
	})
	if room.Len() == 0 {
		m.levelSys.StopRoom(room.ID)
		m.despawnRoomEntities(room.ID)
		m.g.Rooms.Remove(room.ID)
		logging.Info("🏠 Комната %q (#%d) опустела и удалена", room.Name, room.ID)
	}
}

// systemChat — сервисное сообщение комнате. Пустой автор означает
// сообщение от сервера, exclude исключает одного получателя.
func (m *Manager) systemChat(room *Room, message string, exclude uint32) {
	payload := protocol.ChatReceivePayload{Author: "", Message: message}
	body := payload.Marshal()
	for _, sid := range room.SessionIDs() {
		if sid != exclude {
			m.g.sendReliable(sid, protocol.OpRoomChatReceived, body)
		}
	}
}

// replayScene досылает новому зрителю спавны всех сущностей комнаты.
func (m *Manager) replayScene(room *Room, sessionID uint32) {
	m.g.S.Room.Each(func(e ecs.Entity, r *RoomID) {
		if r.ID != room.ID {
			return
		}
		m.g.sendSpawnTo(sessionID, e)
	})
}

func (m *Manager) roomReply(p *Player, op protocol.OpCode, success bool, roomID uint32, message string) {
	payload := protocol.JoinRoomResponsePayload{Success: success, RoomID: roomID, Message: message}
	m.g.sendReliable(p.SessionID, op, payload.Marshal())
}

// weaponKindFromWire валидирует выбор оружия из пакета логина;
// неизвестные значения откатываются на классическое.
func weaponKindFromWire(v uint8) WeaponKind {
	k := WeaponKind(v)
	switch k {
	case WeaponClassic, WeaponBeam, WeaponTracker, WeaponBoomerang:
		return k
	default:
		return WeaponClassic
	}
}

func joinErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrRoomFull):
		return "комната заполнена"
	case errors.Is(err, ErrRoomInGame):
		return "матч уже идёт, доступен только режим зрителя"
	case errors.Is(err, ErrRoomFinished):
		return "матч завершён"
	case errors.Is(err, ErrBanned):
		return "вы заблокированы в этой комнате"
	case errors.Is(err, ErrAlreadyMember):
		return "вы уже в этой комнате"
	default:
		return "не удалось войти в комнату"
	}
}
