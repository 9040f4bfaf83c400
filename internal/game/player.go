package game

import (
	"sync"

	"github.com/annel0/airtrap-server/internal/ecs"
)

// PlayerState — этапы жизненного цикла подключённого клиента.
type PlayerState uint8

const (
	StateNone PlayerState = iota
	StateNotLogged
	StateConnected
	StateInLobby
	StateInRoom
	StateInGame
)

func (s PlayerState) String() string {
	switch s {
	case StateNotLogged:
		return "not_logged"
	case StateConnected:
		return "connected"
	case StateInLobby:
		return "in_lobby"
	case StateInRoom:
		return "in_room"
	case StateInGame:
		return "in_game"
	default:
		return "none"
	}
}

// Player — серверное состояние одного подключённого клиента.
// Создаётся при TCP-подключении, наполняется после логина,
// уничтожается при дисконнекте. Владеет им PlayerRegistry;
// все остальные хранят только sessionId.
type Player struct {
	SessionID uint32
	Username  string
	RoomID    uint32
	State     PlayerState
	IsReady   bool
	IsMuted   bool
	Spectator bool
	Debug     bool
	Weapon    WeaponKind
	Score     int32

	Entity    ecs.Entity // игровая сущность, Nil вне матча
	NetworkID uint32     // wire-id сущности, 0 вне матча
}

// PlayerRegistry — таблица игроков по sessionId.
type PlayerRegistry struct {
	mu      sync.RWMutex
	players map[uint32]*Player
}

func NewPlayerRegistry() *PlayerRegistry {
	return &PlayerRegistry{players: make(map[uint32]*Player)}
}

// Add регистрирует нового клиента в состоянии NotLogged.
func (r *PlayerRegistry) Add(sessionID uint32) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := &Player{
		SessionID: sessionID,
		State:     StateNotLogged,
		Entity:    ecs.Nil,
	}
	r.players[sessionID] = p
	return p
}

// Get возвращает игрока по sessionId.
func (r *PlayerRegistry) Get(sessionID uint32) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[sessionID]
	return p, ok
}

// Remove удаляет игрока; возвращает удалённую запись.
func (r *PlayerRegistry) Remove(sessionID uint32) (*Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[sessionID]
	if ok {
		delete(r.players, sessionID)
	}
	return p, ok
}

// ByUsername ищет залогиненного игрока по имени. Пустое имя — это
// ещё не залогиненная сессия, такие не матчим.
func (r *PlayerRegistry) ByUsername(username string) (*Player, bool) {
	if username == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.players {
		if p.Username == username {
			return p, true
		}
	}
	return nil, false
}

// Len возвращает число подключённых клиентов.
func (r *PlayerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// ForEach вызывает fn для каждого игрока.
func (r *PlayerRegistry) ForEach(fn func(*Player)) {
	r.mu.RLock()
	snapshot := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		snapshot = append(snapshot, p)
	}
	r.mu.RUnlock()

	for _, p := range snapshot {
		fn(p)
	}
}
