package game

import (
	"errors"
	"sync"
)

// Ошибки операций с комнатами.
var (
	ErrRoomNotFound  = errors.New("game: room not found")
	ErrRoomFull      = errors.New("game: room is full")
	ErrRoomInGame    = errors.New("game: room already in game")
	ErrRoomFinished  = errors.New("game: room is finished")
	ErrAlreadyMember = errors.New("game: player already in room")
	ErrBanned        = errors.New("game: player is banned from this room")
	ErrBadState      = errors.New("game: invalid room state transition")
)

// RoomState — состояние жизненного цикла комнаты.
// Waiting → InGame → Finished, Finished терминально.
type RoomState uint8

const (
	RoomWaiting RoomState = iota
	RoomInGame
	RoomFinished
)

func (s RoomState) String() string {
	switch s {
	case RoomInGame:
		return "in_game"
	case RoomFinished:
		return "finished"
	default:
		return "waiting"
	}
}

// RoomType — вид комнаты.
type RoomType uint8

const (
	RoomLobby RoomType = iota
	RoomPublic
	RoomPrivate
)

// Room — изолированная область симуляции и рассылки.
// Лобби — синглтон с id 0: всегда Waiting, без ограничений
// на вход и без рассылки состояния.
type Room struct {
	ID              uint32
	Name            string
	MaxPlayers      int
	Type            RoomType
	CreatorSession  uint32
	LevelID         uint16
	Seed            uint32
	Difficulty      uint8
	Speed           uint16
	DurationMinutes uint16

	mu      sync.Mutex
	state   RoomState
	players []*Player
	banned  map[string]bool
}

func newRoom(id uint32, name string, maxPlayers int, roomType RoomType) *Room {
	return &Room{
		ID:         id,
		Name:       name,
		MaxPlayers: maxPlayers,
		Type:       roomType,
		state:      RoomWaiting,
		banned:     make(map[string]bool),
	}
}

// State возвращает текущее состояние комнаты.
func (r *Room) State() RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// AddPlayer добавляет игрока в комнату. Для лобби ограничения
// вместимости и состояния не применяются. Зрители допускаются
// в идущую игру.
func (r *Room) AddPlayer(p *Player, spectator bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.players {
		if m.SessionID == p.SessionID {
			return ErrAlreadyMember
		}
	}

	if r.Type != RoomLobby {
		if r.banned[p.Username] {
			return ErrBanned
		}
		if r.state == RoomFinished {
			return ErrRoomFinished
		}
		if !spectator {
			if r.state == RoomInGame {
				return ErrRoomInGame
			}
			if r.MaxPlayers > 0 && r.activeCountLocked() >= r.MaxPlayers {
				return ErrRoomFull
			}
		}
	}

	p.Spectator = spectator
	r.players = append(r.players, p)
	return nil
}

// RemovePlayer убирает игрока из комнаты; возвращает false если его не было.
func (r *Room) RemovePlayer(sessionID uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, m := range r.players {
		if m.SessionID == sessionID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return true
		}
	}
	return false
}

// Players возвращает срез-копию участников.
func (r *Room) Players() []*Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Player, len(r.players))
	copy(out, r.players)
	return out
}

// SessionIDs возвращает идентификаторы сессий всех участников.
func (r *Room) SessionIDs() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uint32, 0, len(r.players))
	for _, m := range r.players {
		ids = append(ids, m.SessionID)
	}
	return ids
}

// Len возвращает число участников (включая зрителей).
func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// ActiveCount — число не-зрителей.
func (r *Room) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeCountLocked()
}

func (r *Room) activeCountLocked() int {
	n := 0
	for _, m := range r.players {
		if !m.Spectator {
			n++
		}
	}
	return n
}

// AllReady — true если есть хотя бы один активный игрок и все активные готовы.
func (r *Room) AllReady() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	active := 0
	for _, m := range r.players {
		if m.Spectator {
			continue
		}
		if !m.IsReady {
			return false
		}
		active++
	}
	return active > 0
}

// Start переводит комнату Waiting → InGame.
// Повторный вызов из любого другого состояния — ошибка (no-op у вызывающего).
func (r *Room) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Type == RoomLobby {
		return ErrBadState
	}
	if r.state != RoomWaiting {
		return ErrBadState
	}
	r.state = RoomInGame
	return nil
}

// Finish переводит комнату InGame → Finished.
func (r *Room) Finish() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RoomInGame {
		return ErrBadState
	}
	r.state = RoomFinished
	return nil
}

// Ban запрещает username вход в комнату.
func (r *Room) Ban(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.banned[username] = true
}

// IsBanned проверяет бан по имени.
func (r *Room) IsBanned(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.banned[username]
}
