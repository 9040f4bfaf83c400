package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/airtrap-server/internal/auth"
	"github.com/annel0/airtrap-server/internal/ecs"
	"github.com/annel0/airtrap-server/internal/eventbus"
	"github.com/annel0/airtrap-server/internal/network"
	"github.com/annel0/airtrap-server/internal/protocol"
	"github.com/annel0/airtrap-server/internal/storage"
)

type managerHarness struct {
	m      *Manager
	sender *fakeSender
	queue  *network.EventQueue
}

func newManagerHarness(t *testing.T) *managerHarness {
	t.Helper()
	sender := &fakeSender{}
	queue := network.NewEventQueue()

	repo, err := auth.NewMemoryUserRepo()
	require.NoError(t, err)
	authn := auth.NewAuthenticator(repo)
	_, err = authn.Register("alice", "secret")
	require.NoError(t, err)
	_, err = authn.Register("bob", "secret")
	require.NoError(t, err)

	m := NewManager(ManagerConfig{
		Sender: sender,
		Queue:  queue,
		Authn:  authn,
		Scores: storage.NewMemoryScoreRepo(),
		Bus:    eventbus.NewMemoryBus(64),
		Seed:   1,
	})
	return &managerHarness{m: m, sender: sender, queue: queue}
}

func (h *managerHarness) connect(sessionID uint32) {
	h.queue.Push(network.NetworkEvent{Kind: network.EventConnected, SessionID: sessionID})
}

func (h *managerHarness) packet(sessionID uint32, op protocol.OpCode, body []byte) {
	h.queue.Push(network.NetworkEvent{
		Kind:      network.EventPacket,
		SessionID: sessionID,
		Packet:    protocol.NewPacket(op, sessionID, body),
	})
}

func (h *managerHarness) login(t *testing.T, sessionID uint32, username string) {
	t.Helper()
	h.connect(sessionID)
	creds := protocol.CredentialsPayload{Username: username, Password: "secret"}
	h.packet(sessionID, protocol.OpLoginRequest, creds.Marshal())
	h.m.Step(TickDt)

	p, ok := h.m.State().Players.Get(sessionID)
	require.True(t, ok)
	require.Equal(t, StateInLobby, p.State, "игрок должен оказаться в лобби")
}

// lastPayload находит последний пакет с данным опкодом для сессии.
func (h *managerHarness) lastPayload(sessionID uint32, op protocol.OpCode) ([]byte, bool) {
	for i := len(h.sender.sent) - 1; i >= 0; i-- {
		p := h.sender.sent[i]
		if p.sessionID == sessionID && p.op == op {
			return p.body, true
		}
	}
	return nil, false
}

func TestManagerLoginFlow(t *testing.T) {
	h := newManagerHarness(t)
	h.login(t, 1, "alice")

	body, ok := h.lastPayload(1, protocol.OpLoginResponse)
	require.True(t, ok, "нет ответа на логин")
	var resp protocol.AuthResponsePayload
	require.NoError(t, resp.Unmarshal(body))
	assert.True(t, resp.Success)
}

func TestManagerLoginWeaponChoice(t *testing.T) {
	h := newManagerHarness(t)
	h.connect(1)
	creds := protocol.CredentialsPayload{
		Username:   "alice",
		Password:   "secret",
		WeaponKind: uint8(WeaponBoomerang),
	}
	h.packet(1, protocol.OpLoginRequest, creds.Marshal())
	h.m.Step(TickDt)

	p, ok := h.m.State().Players.Get(1)
	require.True(t, ok)
	assert.Equal(t, WeaponBoomerang, p.Weapon)

	// Значение за пределами таблицы оружия откатывается на классическое
	h.connect(2)
	creds = protocol.CredentialsPayload{Username: "bob", Password: "secret", WeaponKind: 200}
	h.packet(2, protocol.OpLoginRequest, creds.Marshal())
	h.m.Step(TickDt)

	p, ok = h.m.State().Players.Get(2)
	require.True(t, ok)
	assert.Equal(t, WeaponClassic, p.Weapon)
}

func TestManagerLoginEmptyUsername(t *testing.T) {
	h := newManagerHarness(t)
	h.connect(1)

	// Пустое имя не должно матчиться с другими незалогиненными сессиями
	h.connect(2)

	creds := protocol.CredentialsPayload{Username: "", Password: "secret"}
	h.packet(1, protocol.OpLoginRequest, creds.Marshal())
	h.m.Step(TickDt)

	body, ok := h.lastPayload(1, protocol.OpLoginResponse)
	require.True(t, ok)
	var resp protocol.AuthResponsePayload
	require.NoError(t, resp.Unmarshal(body))
	assert.False(t, resp.Success)
	assert.Equal(t, "неверное имя или пароль", resp.Message)
}

func TestManagerRejectsDoubleLogin(t *testing.T) {
	h := newManagerHarness(t)
	h.login(t, 1, "alice")

	h.connect(2)
	creds := protocol.CredentialsPayload{Username: "alice", Password: "secret"}
	h.packet(2, protocol.OpLoginRequest, creds.Marshal())
	h.m.Step(TickDt)

	body, ok := h.lastPayload(2, protocol.OpLoginResponse)
	require.True(t, ok)
	var resp protocol.AuthResponsePayload
	require.NoError(t, resp.Unmarshal(body))
	assert.False(t, resp.Success, "повторный вход под тем же именем должен быть отклонён")
}

func TestManagerCreateJoinStart(t *testing.T) {
	h := newManagerHarness(t)
	h.login(t, 1, "alice")
	h.login(t, 2, "bob")

	create := protocol.CreateRoomPayload{Name: "co-op", MaxPlayers: 4, Difficulty: 1, LevelID: 1}
	h.packet(1, protocol.OpCreateRoom, create.Marshal())
	h.m.Step(TickDt)

	body, ok := h.lastPayload(1, protocol.OpCreateRoom)
	require.True(t, ok, "нет ответа на создание комнаты")
	var created protocol.JoinRoomResponsePayload
	require.NoError(t, created.Unmarshal(body))
	require.True(t, created.Success)
	roomID := created.RoomID

	join := protocol.JoinRoomPayload{RoomID: roomID}
	h.packet(1, protocol.OpJoinRoom, join.Marshal())
	h.packet(2, protocol.OpJoinRoom, join.Marshal())
	h.m.Step(TickDt)

	room, ok := h.m.State().Rooms.Get(roomID)
	require.True(t, ok)
	assert.Equal(t, 2, room.Len())

	ready := protocol.SetReadyPayload{Ready: true}
	h.packet(1, protocol.OpSetReady, ready.Marshal())
	h.packet(2, protocol.OpSetReady, ready.Marshal())
	h.m.Step(TickDt)

	assert.Equal(t, RoomInGame, room.State(), "комната должна стартовать по готовности всех")
	assert.GreaterOrEqual(t, h.sender.countOp(protocol.OpStartGame), 2, "StartGame каждому участнику")
	assert.GreaterOrEqual(t, h.sender.countOp(protocol.OpEntitySpawn), 2, "спавны игроков")

	p1, _ := h.m.State().Players.Get(1)
	assert.Equal(t, StateInGame, p1.State)
	assert.False(t, p1.Entity.IsNil())
}

func TestManagerChatRelay(t *testing.T) {
	h := newManagerHarness(t)
	h.login(t, 1, "alice")
	h.login(t, 2, "bob")

	msg := protocol.ChatSendPayload{Message: "привет"}
	h.packet(1, protocol.OpRoomChatSended, msg.Marshal())
	h.m.Step(TickDt)

	body, ok := h.lastPayload(2, protocol.OpRoomChatReceived)
	require.True(t, ok, "второй игрок не получил сообщение")
	var got protocol.ChatReceivePayload
	require.NoError(t, got.Unmarshal(body))
	assert.Equal(t, "alice", got.Author)
	assert.Equal(t, "привет", got.Message)

	// Отправителю эхо не возвращается.
	_, ok = h.lastPayload(1, protocol.OpRoomChatReceived)
	assert.False(t, ok)
}

func TestManagerGameOverOnTeamWipe(t *testing.T) {
	h := newManagerHarness(t)
	h.login(t, 1, "alice")

	create := protocol.CreateRoomPayload{Name: "solo", MaxPlayers: 1, Difficulty: 1, LevelID: 1}
	h.packet(1, protocol.OpCreateRoom, create.Marshal())
	h.m.Step(TickDt)
	body, _ := h.lastPayload(1, protocol.OpCreateRoom)
	var created protocol.JoinRoomResponsePayload
	require.NoError(t, created.Unmarshal(body))

	join := protocol.JoinRoomPayload{RoomID: created.RoomID}
	h.packet(1, protocol.OpJoinRoom, join.Marshal())
	h.m.Step(TickDt)
	ready := protocol.SetReadyPayload{Ready: true}
	h.packet(1, protocol.OpSetReady, ready.Marshal())
	h.m.Step(TickDt)

	room, _ := h.m.State().Rooms.Get(created.RoomID)
	require.Equal(t, RoomInGame, room.State())

	p, _ := h.m.State().Players.Get(1)
	h.m.State().ApplyDamage(p.Entity, playerMaxHealth*2, ecs.Nil)
	h.m.Step(TickDt)

	assert.Equal(t, RoomFinished, room.State(), "матч должен завершиться после гибели всех игроков")
	body, ok := h.lastPayload(1, protocol.OpGameOver)
	require.True(t, ok, "нет пакета GameOver")
	var over protocol.GameOverPayload
	require.NoError(t, over.Unmarshal(body))
	assert.Equal(t, "alice", over.BestPlayer)
}

func TestManagerKickPlayer(t *testing.T) {
	h := newManagerHarness(t)
	h.login(t, 1, "alice")

	require.True(t, h.m.KickPlayer(1, "нарушение правил", false))
	h.m.Step(TickDt)

	body, ok := h.lastPayload(1, protocol.OpKicked)
	require.True(t, ok, "нет пакета Kicked")
	var kicked protocol.KickedPayload
	require.NoError(t, kicked.Unmarshal(body))
	assert.Equal(t, "нарушение правил", kicked.Reason)

	assert.False(t, h.m.KickPlayer(99, "нет такого", false))
}

func TestManagerMutePlayer(t *testing.T) {
	h := newManagerHarness(t)
	h.login(t, 1, "alice")
	h.login(t, 2, "bob")
	h.sender.reset()

	require.True(t, h.m.MutePlayer(1, true))
	h.m.Step(TickDt)

	chat := protocol.ChatSendPayload{Message: "всем привет"}
	h.packet(1, protocol.OpRoomChatSended, chat.Marshal())
	h.m.Step(TickDt)

	_, ok := h.lastPayload(2, protocol.OpRoomChatReceived)
	assert.False(t, ok, "сообщение замьюченного игрока дошло до комнаты")

	require.True(t, h.m.MutePlayer(1, false))
	h.m.Step(TickDt)

	h.packet(1, protocol.OpRoomChatSended, chat.Marshal())
	h.m.Step(TickDt)

	body, ok := h.lastPayload(2, protocol.OpRoomChatReceived)
	require.True(t, ok, "после снятия мута чат не восстановился")
	var recv protocol.ChatReceivePayload
	require.NoError(t, recv.Unmarshal(body))
	assert.Equal(t, "alice", recv.Author)

	assert.False(t, h.m.MutePlayer(99, true))
}

func TestManagerDisconnectCleansUp(t *testing.T) {
	h := newManagerHarness(t)
	h.login(t, 1, "alice")

	h.queue.Push(network.NetworkEvent{Kind: network.EventDisconnected, SessionID: 1})
	h.m.Step(TickDt)

	_, ok := h.m.State().Players.Get(1)
	assert.False(t, ok, "игрок должен быть удалён после отключения")
}
