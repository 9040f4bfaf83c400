package game

import (
	"sync"

	"github.com/annel0/airtrap-server/internal/protocol"
)

// LobbyRoomID — id синглтон-лобби.
const LobbyRoomID uint32 = 0

// RoomRegistry владеет всеми комнатами. Мутация карты комнат — под
// общим замком; списки игроков защищены замками самих комнат, так что
// несвязанные комнаты не сериализуются друг относительно друга.
type RoomRegistry struct {
	mu     sync.RWMutex
	rooms  map[uint32]*Room
	nextID uint32
	lobby  *Room
}

// NewRoomRegistry создаёт реестр с готовым лобби.
func NewRoomRegistry() *RoomRegistry {
	lobby := newRoom(LobbyRoomID, "Lobby", 0, RoomLobby)
	return &RoomRegistry{
		rooms:  map[uint32]*Room{LobbyRoomID: lobby},
		nextID: 1,
		lobby:  lobby,
	}
}

// Lobby возвращает синглтон-лобби.
func (rr *RoomRegistry) Lobby() *Room {
	return rr.lobby
}

// Create регистрирует новую комнату и возвращает её.
// Создатель не присоединяется автоматически.
func (rr *RoomRegistry) Create(creator uint32, name string, maxPlayers int, difficulty uint8, speed uint16, duration uint16, roomType RoomType, levelID uint16, seed uint32) *Room {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	room := newRoom(rr.nextID, name, maxPlayers, roomType)
	room.CreatorSession = creator
	room.Difficulty = difficulty
	room.Speed = speed
	room.DurationMinutes = duration
	room.LevelID = levelID
	room.Seed = seed
	rr.rooms[rr.nextID] = room
	rr.nextID++
	return room
}

// Get возвращает комнату по id.
func (rr *RoomRegistry) Get(id uint32) (*Room, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	room, ok := rr.rooms[id]
	return room, ok
}

// Remove удаляет комнату (лобби удалить нельзя).
func (rr *RoomRegistry) Remove(id uint32) {
	if id == LobbyRoomID {
		return
	}
	rr.mu.Lock()
	defer rr.mu.Unlock()
	delete(rr.rooms, id)
}

// List возвращает снимок всех комнат.
func (rr *RoomRegistry) List() []*Room {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	out := make([]*Room, 0, len(rr.rooms))
	for _, room := range rr.rooms {
		out = append(out, room)
	}
	return out
}

// Summaries собирает публичные сводки всех комнат для RoomList.
func (rr *RoomRegistry) Summaries() []protocol.RoomSummary {
	rooms := rr.List()
	out := make([]protocol.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, protocol.RoomSummary{
			ID:              room.ID,
			Name:            room.Name,
			PlayerCount:     uint16(room.Len()),
			MaxPlayers:      uint16(room.MaxPlayers),
			InGame:          room.State() == RoomInGame,
			Difficulty:      room.Difficulty,
			Speed:           room.Speed,
			DurationMinutes: room.DurationMinutes,
			Seed:            room.Seed,
			LevelID:         room.LevelID,
		})
	}
	return out
}
