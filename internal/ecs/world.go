// Package ecs реализует хранилище сущность-компонент: плотные массивы
// компонентов со swap-and-pop удалением и дескрипторы сущностей с
// поколением, защищающим от использования устаревших ссылок.
package ecs

import "errors"

var (
	// ErrCapacity возвращается когда свободных индексов не осталось
	ErrCapacity = errors.New("ecs: entity capacity exhausted")
	// ErrStaleHandle возвращается при операции с убитой сущностью
	ErrStaleHandle = errors.New("ecs: stale entity handle")
)

// Entity — непрозрачный дескриптор: индекс строки плюс поколение.
// Поколение увеличивается при каждом переиспользовании индекса,
// поэтому дескриптор убитой сущности никогда не совпадёт с живой.
type Entity struct {
	index      uint32
	generation uint32
}

// Nil — нулевой дескриптор, никогда не указывает на живую сущность
var Nil = Entity{}

// Index возвращает индекс строки (для отладочных логов)
func (e Entity) Index() uint32 { return e.index }

// IsNil сообщает, является ли дескриптор нулевым
func (e Entity) IsNil() bool { return e == Nil }

// eraser — внутренний интерфейс, через который мир вычищает
// компоненты убитой сущности из всех зарегистрированных хранилищ.
type eraser interface {
	removeIndex(index uint32)
}

// World владеет жизненным циклом сущностей и списком хранилищ
type World struct {
	generations []uint32
	alive       []bool
	free        []uint32
	capacity    int
	liveCount   int
	stores      []eraser
}

// NewWorld создаёт мир с фиксированной ёмкостью.
// Индекс 0 зарезервирован под Nil и никогда не выдаётся.
func NewWorld(capacity int) *World {
	if capacity < 1 {
		capacity = 1
	}
	w := &World{
		generations: make([]uint32, 1, capacity+1),
		alive:       make([]bool, 1, capacity+1),
		capacity:    capacity,
	}
	return w
}

// Spawn выделяет новый дескриптор или возвращает ErrCapacity
func (w *World) Spawn() (Entity, error) {
	if n := len(w.free); n > 0 {
		index := w.free[n-1]
		w.free = w.free[:n-1]
		w.alive[index] = true
		w.liveCount++
		return Entity{index: index, generation: w.generations[index]}, nil
	}

	if len(w.generations)-1 >= w.capacity {
		return Nil, ErrCapacity
	}

	index := uint32(len(w.generations))
	w.generations = append(w.generations, 1)
	w.alive = append(w.alive, true)
	w.liveCount++
	return Entity{index: index, generation: 1}, nil
}

// Alive проверяет, указывает ли дескриптор на живую сущность
func (w *World) Alive(e Entity) bool {
	return e.index != 0 &&
		int(e.index) < len(w.generations) &&
		w.alive[e.index] &&
		w.generations[e.index] == e.generation
}

// Kill удаляет сущность из всех хранилищ и освобождает индекс.
// Поколение индекса увеличивается, старые дескрипторы становятся
// недействительными. Повторный Kill — no-op.
func (w *World) Kill(e Entity) {
	if !w.Alive(e) {
		return
	}
	for _, s := range w.stores {
		s.removeIndex(e.index)
	}
	w.alive[e.index] = false
	w.generations[e.index]++
	w.free = append(w.free, e.index)
	w.liveCount--
}

// Len возвращает число живых сущностей
func (w *World) Len() int { return w.liveCount }

func (w *World) register(s eraser) {
	w.stores = append(w.stores, s)
}
