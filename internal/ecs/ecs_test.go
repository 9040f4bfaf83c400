package ecs

import (
	"errors"
	"testing"
)

type position struct{ X, Y float32 }
type health struct{ Current, Max int32 }

func TestSpawnAddHasKill(t *testing.T) {
	w := NewWorld(16)
	positions := NewStore[position](w)
	healths := NewStore[health](w)

	e, err := w.Spawn()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	// До Set компонента нет
	if positions.Has(e) || healths.Has(e) {
		t.Error("у свежей сущности не должно быть компонентов")
	}

	if err := positions.Set(e, position{X: 1, Y: 2}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !positions.Has(e) {
		t.Error("компонент должен появиться сразу после Set")
	}

	w.Kill(e)
	if positions.Has(e) || healths.Has(e) {
		t.Error("после Kill компоненты должны исчезнуть")
	}
	if w.Alive(e) {
		t.Error("убитая сущность не может быть живой")
	}
}

func TestStaleHandleAfterRecycle(t *testing.T) {
	w := NewWorld(4)
	positions := NewStore[position](w)

	old, _ := w.Spawn()
	positions.Set(old, position{X: 5})
	w.Kill(old)

	// Индекс переиспользуется, но поколение выросло
	fresh, _ := w.Spawn()
	if fresh.Index() != old.Index() {
		t.Fatalf("ожидали переиспользование индекса %d, получили %d", old.Index(), fresh.Index())
	}

	if err := positions.Set(old, position{X: 9}); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("Set по устаревшему дескриптору: ожидали ErrStaleHandle, получили %v", err)
	}
	if positions.Has(old) {
		t.Error("устаревший дескриптор не должен видеть компоненты новой сущности")
	}
	if _, ok := positions.Get(old); ok {
		t.Error("Get по устаревшему дескриптору должен вернуть false")
	}
}

func TestCapacityExhausted(t *testing.T) {
	w := NewWorld(2)
	if _, err := w.Spawn(); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Spawn(); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Spawn(); !errors.Is(err, ErrCapacity) {
		t.Errorf("ожидали ErrCapacity, получили %v", err)
	}
}

func TestSwapAndPopKeepsMapping(t *testing.T) {
	w := NewWorld(16)
	positions := NewStore[position](w)

	var entities []Entity
	for i := 0; i < 5; i++ {
		e, _ := w.Spawn()
		positions.Set(e, position{X: float32(i)})
		entities = append(entities, e)
	}

	// Удаляем из середины: последний элемент переезжает на её место
	positions.Remove(entities[1])

	for i, e := range entities {
		if i == 1 {
			continue
		}
		got, ok := positions.Get(e)
		if !ok {
			t.Fatalf("сущность %d потеряла компонент после чужого Remove", i)
		}
		if got.X != float32(i) {
			t.Errorf("сущность %d: X=%v, ожидали %v", i, got.X, float32(i))
		}
	}
	if positions.Len() != 4 {
		t.Errorf("Len=%d, ожидали 4", positions.Len())
	}
}

func TestView2Intersection(t *testing.T) {
	w := NewWorld(16)
	positions := NewStore[position](w)
	healths := NewStore[health](w)

	both, _ := w.Spawn()
	positions.Set(both, position{X: 1})
	healths.Set(both, health{Current: 50, Max: 100})

	onlyPos, _ := w.Spawn()
	positions.Set(onlyPos, position{X: 2})

	visited := 0
	View2(positions, healths, func(e Entity, p *position, h *health) {
		visited++
		if e != both {
			t.Errorf("в пересечение попала лишняя сущность %v", e)
		}
		h.Current -= 10
	})

	if visited != 1 {
		t.Fatalf("обошли %d сущностей, ожидали 1", visited)
	}
	got, _ := healths.Get(both)
	if got.Current != 40 {
		t.Errorf("изменение через указатель не сохранилось: %+v", got)
	}
}
