package eventbus

import (
	"context"
	"sync"
	"time"
)

// Шина несёт игровые события наружу из симуляции: жизненный цикл
// комнат, входы игроков, смерти, рекорды. Симуляция только публикует;
// потребители (лог, метрики, внешние сервисы через JetStream)
// подписываются и не могут затормозить игровой тик.

// Envelope — контейнер одного события.
type Envelope struct {
	ID        string    // UUID
	Timestamp time.Time // UTC
	Source    string    // кто опубликовал (game, network…)
	EventType string    // room.created, player.died…
	Priority  int       // 0=низкий … 9=критичный, см. Publish
	Payload   []byte    // JSON-полезная нагрузка
}

// Filter ограничивает подписку нужными событиями.
// Пустой срез означает «все».
type Filter struct {
	Types   []string
	Sources []string
}

// Subscription позволяет отписаться.
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события.
type Handler func(ctx context.Context, ev *Envelope)

// Stats — агрегированные счётчики шины.
type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64
	InFlight  int
}

// EventBus — абстракция шины. Реализации: in-memory (по умолчанию)
// и NATS JetStream для внешних потребителей.
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
}

//================ In-Memory implementation =================//

// memoryBus буферизует события в канале; рассылка идёт в отдельной
// горутине, чтобы Publish из игрового тика не ждал обработчиков.
type memoryBus struct {
	mu     sync.RWMutex
	subs   map[int]subscriber
	nextID int
	stats  Stats
	queue  chan *Envelope
}

type subscriber struct {
	filter  Filter
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewMemoryBus создаёт шину с буфером на capacity событий.
// Игровому серверу хватает пары сотен: события штучные, не потоковые.
func NewMemoryBus(capacity int) EventBus {
	mb := &memoryBus{
		subs:  make(map[int]subscriber),
		queue: make(chan *Envelope, capacity),
	}
	go mb.dispatch()
	return mb
}

// Publish кладёт событие в буфер. При переполнении события с
// приоритетом ниже 5 молча отбрасываются (счётчик Dropped), важные —
// ждут места или отмены контекста.
func (mb *memoryBus) Publish(ctx context.Context, ev *Envelope) error {
	select {
	case mb.queue <- ev:
		mb.count(&mb.stats.Published)
		return nil
	default:
	}

	if ev.Priority < 5 {
		mb.count(&mb.stats.Dropped)
		return nil
	}

	select {
	case mb.queue <- ev:
		mb.count(&mb.stats.Published)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (mb *memoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	cctx, cancel := context.WithCancel(ctx)

	mb.mu.Lock()
	id := mb.nextID
	mb.nextID++
	mb.subs[id] = subscriber{filter: f, handler: h, ctx: cctx, cancel: cancel}
	mb.mu.Unlock()

	return &memSub{bus: mb, id: id}, nil
}

func (mb *memoryBus) Metrics() Stats {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	s := mb.stats
	s.InFlight = len(mb.queue)
	return s
}

func (mb *memoryBus) count(c *uint64) {
	mb.mu.Lock()
	*c++
	mb.mu.Unlock()
}

func (mb *memoryBus) dispatch() {
	for ev := range mb.queue {
		mb.mu.RLock()
		targets := make([]subscriber, 0, len(mb.subs))
		for _, sub := range mb.subs {
			if sub.filter.matches(ev) {
				targets = append(targets, sub)
			}
		}
		mb.mu.RUnlock()

		for _, sub := range targets {
			go func(s subscriber, e *Envelope) {
				select {
				case <-s.ctx.Done():
				default:
					s.handler(s.ctx, e)
					mb.count(&mb.stats.Consumed)
				}
			}(sub, ev)
		}
	}
}

func (f Filter) matches(ev *Envelope) bool {
	contains := func(val string, arr []string) bool {
		if len(arr) == 0 {
			return true
		}
		for _, v := range arr {
			if v == val {
				return true
			}
		}
		return false
	}
	return contains(ev.EventType, f.Types) && contains(ev.Source, f.Sources)
}

type memSub struct {
	bus *memoryBus
	id  int
}

func (s *memSub) Unsubscribe() {
	s.bus.mu.Lock()
	if sub, ok := s.bus.subs[s.id]; ok {
		sub.cancel()
		delete(s.bus.subs, s.id)
	}
	s.bus.mu.Unlock()
}
