package network

import (
	"sync"

	"github.com/annel0/airtrap-server/internal/protocol"
)

// NetworkEvent — декодированный входящий кадр с привязкой к сессии.
// Kind отличает обычные пакеты от событий жизненного цикла сессии.
type NetworkEvent struct {
	Kind      EventKind
	SessionID uint32
	Packet    *protocol.Packet
}

type EventKind uint8

const (
	EventPacket EventKind = iota
	EventConnected
	EventDisconnected
)

// EventQueue — потокобезопасная очередь входящих событий.
// Транспортные горутины только кладут; симуляция забирает всё
// накопленное один раз за тик.
type EventQueue struct {
	mu     sync.Mutex
	events []NetworkEvent
}

func NewEventQueue() *EventQueue {
	return &EventQueue{events: make([]NetworkEvent, 0, 256)}
}

// Push добавляет событие в конец очереди
func (q *EventQueue) Push(ev NetworkEvent) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()
}

// Drain забирает все накопленные события, очищая очередь
func (q *EventQueue) Drain() []NetworkEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil
	}
	drained := q.events
	q.events = make([]NetworkEvent, 0, cap(drained))
	return drained
}

// Len возвращает число ожидающих событий
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
