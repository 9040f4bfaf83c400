package game

import (
	"github.com/annel0/airtrap-server/internal/ecs"
	"github.com/annel0/airtrap-server/internal/protocol"
	"github.com/annel0/airtrap-server/internal/vec"
)

// MovementSystem переводит ввод игроков в направление движения и
// интегрирует позиции всех подвижных сущностей.
type MovementSystem struct {
	g *GameState
}

func NewMovementSystem(g *GameState) *MovementSystem {
	return &MovementSystem{g: g}
}

func (s *MovementSystem) Update(dt float32) {
	st := s.g.S

	// Ввод → скорость. Направление сглаживается lerp-ом, чтобы резкая
	// смена клавиш не телепортировала вектор скорости.
	ecs.View3(st.Input, st.Velocity, st.Speed, func(e ecs.Entity, in *InputState, vel *Velocity, sp *MovementSpeed) {
		if sp.BoostRemaining > 0 {
			sp.BoostRemaining -= dt
			if sp.BoostRemaining <= 0 {
				sp.BoostRemaining = 0
				sp.Multiplier = 1
			}
		}

		var target vec.Vec2
		if in.Mask&protocol.InputMoveUp != 0 {
			target.Y -= 1
		}
		if in.Mask&protocol.InputMoveDown != 0 {
			target.Y += 1
		}
		if in.Mask&protocol.InputMoveLeft != 0 {
			target.X -= 1
		}
		if in.Mask&protocol.InputMoveRight != 0 {
			target.X += 1
		}

		if target.X != 0 || target.Y != 0 {
			vel.Dir = vel.Dir.Lerp(target.Normalized(), playerAccel*dt)
		} else {
			vel.Dir = vel.Dir.Lerp(vec.Vec2{}, playerDecel*dt)
		}
		vel.Speed = sp.Base * sp.Multiplier
	})

	// Интеграция позиций.
	ecs.View2(st.Transform, st.Velocity, func(e ecs.Entity, tr *Transform, vel *Velocity) {
		tr.Pos = tr.Pos.Add(vel.Dir.Mul(vel.Speed * dt))

		// Игроки не покидают границы мира.
		if typ, ok := st.Type.Get(e); ok && typ.Kind == protocol.KindPlayer {
			var w, h float32 = playerBoxW, playerBoxH
			if box, ok := st.Box.Get(e); ok {
				w, h = box.Width, box.Height
			}
			tr.Pos.X = clamp32(tr.Pos.X, 0, worldWidth-w)
			tr.Pos.Y = clamp32(tr.Pos.Y, 0, worldHeight-h)
		}
	})
}
