package game

import (
	"github.com/annel0/airtrap-server/internal/ecs"
	"github.com/annel0/airtrap-server/internal/protocol"
)

// CleanupSystem убирает снаряды, врагов и бонусы, улетевшие за
// пределы мира, чтобы хранилища не копили мусор за время матча.
type CleanupSystem struct {
	g      *GameState
	doomed []ecs.Entity
}

func NewCleanupSystem(g *GameState) *CleanupSystem {
	return &CleanupSystem{g: g}
}

func (s *CleanupSystem) Update(dt float32) {
	st := s.g.S
	s.doomed = s.doomed[:0]

	ecs.View2(st.Transform, st.Type, func(e ecs.Entity, tr *Transform, typ *EntityType) {
		switch typ.Kind {
		case protocol.KindPlayer, protocol.KindObstacle, protocol.KindObstacleSolid:
			return
		}
		if tr.Pos.X < cleanupMinX || tr.Pos.X > cleanupMaxX {
			s.doomed = append(s.doomed, e)
		}
	})

	for _, e := range s.doomed {
		s.g.Despawn(e, true)
	}
}
