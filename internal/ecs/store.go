package ecs

// Store хранит компоненты одного типа плотным массивом.
// Удаление — swap-with-last, поэтому порядок обхода не стабилен,
// но доступ и удаление по сущности выполняются за O(1).
type Store[T any] struct {
	world    *World
	dense    []T
	entities []Entity
	sparse   map[uint32]int // индекс сущности -> позиция в dense
}

// NewStore создаёт хранилище и регистрирует его в мире,
// чтобы Kill вычищал компонент автоматически.
func NewStore[T any](w *World) *Store[T] {
	s := &Store[T]{
		world:  w,
		sparse: make(map[uint32]int),
	}
	w.register(s)
	return s
}

// Set присоединяет компонент к сущности; повторный Set перезаписывает.
// Для устаревшего дескриптора возвращает ErrStaleHandle.
func (s *Store[T]) Set(e Entity, value T) error {
	if !s.world.Alive(e) {
		return ErrStaleHandle
	}
	if pos, ok := s.sparse[e.index]; ok {
		s.dense[pos] = value
		return nil
	}
	s.sparse[e.index] = len(s.dense)
	s.dense = append(s.dense, value)
	s.entities = append(s.entities, e)
	return nil
}

// Has проверяет наличие компонента у живой сущности
func (s *Store[T]) Has(e Entity) bool {
	if !s.world.Alive(e) {
		return false
	}
	_, ok := s.sparse[e.index]
	return ok
}

// Get возвращает копию компонента
func (s *Store[T]) Get(e Entity) (T, bool) {
	var zero T
	if !s.world.Alive(e) {
		return zero, false
	}
	pos, ok := s.sparse[e.index]
	if !ok {
		return zero, false
	}
	return s.dense[pos], true
}

// GetPtr возвращает указатель на компонент для изменения на месте.
// Указатель действителен до следующего Set/Remove в этом хранилище.
func (s *Store[T]) GetPtr(e Entity) (*T, bool) {
	if !s.world.Alive(e) {
		return nil, false
	}
	pos, ok := s.sparse[e.index]
	if !ok {
		return nil, false
	}
	return &s.dense[pos], true
}

// Remove отсоединяет компонент (swap-with-last). No-op если его нет.
func (s *Store[T]) Remove(e Entity) {
	if !s.world.Alive(e) {
		return
	}
	s.removeIndex(e.index)
}

func (s *Store[T]) removeIndex(index uint32) {
	pos, ok := s.sparse[index]
	if !ok {
		return
	}
	last := len(s.dense) - 1
	if pos != last {
		s.dense[pos] = s.dense[last]
		s.entities[pos] = s.entities[last]
		s.sparse[s.entities[pos].index] = pos
	}
	s.dense = s.dense[:last]
	s.entities = s.entities[:last]
	delete(s.sparse, index)
}

// Len возвращает число сущностей с этим компонентом
func (s *Store[T]) Len() int { return len(s.dense) }

// Each обходит все компоненты. Изменять состав хранилища внутри
// колбэка нельзя; накапливайте сущности и изменяйте после обхода.
func (s *Store[T]) Each(fn func(Entity, *T)) {
	for i := range s.dense {
		fn(s.entities[i], &s.dense[i])
	}
}
