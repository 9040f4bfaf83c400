package eventbus

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Типы игровых событий, публикуемых сервером.
const (
	EventRoomCreated   = "room.created"
	EventRoomStarted   = "room.started"
	EventRoomFinished  = "room.finished"
	EventPlayerJoined  = "player.joined"
	EventPlayerLeft    = "player.left"
	EventPlayerDied    = "player.died"
	EventBossDefeated  = "boss.defeated"
	EventScoreRecorded = "score.recorded"
)

// NewEnvelope собирает конверт с UUID и текущим временем.
// payload сериализуется в JSON; при ошибке Payload остаётся пустым.
func NewEnvelope(source, eventType string, payload any) *Envelope {
	data, err := json.Marshal(payload)
	if err != nil {
		data = nil
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Priority:  3,
		Payload:   data,
	}
}

// RoomEventPayload полезная нагрузка событий жизненного цикла комнаты.
type RoomEventPayload struct {
	RoomID   uint32 `json:"room_id"`
	RoomName string `json:"room_name,omitempty"`
	LevelID  uint32 `json:"level_id,omitempty"`
	Players  int    `json:"players,omitempty"`
}

// PlayerEventPayload полезная нагрузка событий игрока.
type PlayerEventPayload struct {
	RoomID   uint32 `json:"room_id"`
	PlayerID uint32 `json:"player_id"`
	Username string `json:"username,omitempty"`
	Score    int32  `json:"score,omitempty"`
}
