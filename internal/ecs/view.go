package ecs

// Zip-обходы: итерация пересечения нескольких хранилищ по сущности.
// Ведущим выбирается первое хранилище; сущности без какого-либо из
// остальных компонентов пропускаются.

// View2 обходит сущности, имеющие оба компонента A и B
func View2[A, B any](sa *Store[A], sb *Store[B], fn func(Entity, *A, *B)) {
	for i := range sa.dense {
		e := sa.entities[i]
		pb, ok := sb.sparse[e.index]
		if !ok {
			continue
		}
		fn(e, &sa.dense[i], &sb.dense[pb])
	}
}

// View3 обходит сущности, имеющие компоненты A, B и C
func View3[A, B, C any](sa *Store[A], sb *Store[B], sc *Store[C], fn func(Entity, *A, *B, *C)) {
	for i := range sa.dense {
		e := sa.entities[i]
		pb, ok := sb.sparse[e.index]
		if !ok {
			continue
		}
		pc, ok := sc.sparse[e.index]
		if !ok {
			continue
		}
		fn(e, &sa.dense[i], &sb.dense[pb], &sc.dense[pc])
	}
}

// View4 обходит сущности, имеющие компоненты A, B, C и D
func View4[A, B, C, D any](sa *Store[A], sb *Store[B], sc *Store[C], sd *Store[D], fn func(Entity, *A, *B, *C, *D)) {
	for i := range sa.dense {
		e := sa.entities[i]
		pb, ok := sb.sparse[e.index]
		if !ok {
			continue
		}
		pc, ok := sc.sparse[e.index]
		if !ok {
			continue
		}
		pd, ok := sd.sparse[e.index]
		if !ok {
			continue
		}
		fn(e, &sa.dense[i], &sb.dense[pb], &sc.dense[pc], &sd.dense[pd])
	}
}
