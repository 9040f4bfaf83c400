package game

import (
	"math"

	"github.com/annel0/airtrap-server/internal/ecs"
	"github.com/annel0/airtrap-server/internal/physics"
	"github.com/annel0/airtrap-server/internal/protocol"
	"github.com/annel0/airtrap-server/internal/vec"
)

// EnemySystem ведёт поведение врагов: паттерны движения, стрельбу,
// самонаводящиеся снаряды и бумеранги.
type EnemySystem struct {
	g *GameState

	pendingShots    []enemyShot
	pendingDespawns []ecs.Entity
}

type enemyShot struct {
	owner ecs.Entity
	room  *Room
	pos   vec.Vec2
	dir   vec.Vec2
}

func NewEnemySystem(g *GameState) *EnemySystem {
	return &EnemySystem{g: g}
}

func (s *EnemySystem) Update(dt float32) {
	s.pendingShots = s.pendingShots[:0]
	s.pendingDespawns = s.pendingDespawns[:0]

	s.updatePatterns(dt)
	s.updateEnemyWeapons(dt)
	s.updateHoming(dt)
	s.updateBoomerangs(dt)

	for _, shot := range s.pendingShots {
		if !s.g.World.Alive(shot.owner) {
			continue
		}
		s.g.SpawnEnemyBullet(shot.owner, shot.room, shot.pos, shot.dir)
	}
	for _, e := range s.pendingDespawns {
		if s.g.World.Alive(e) {
			s.g.Despawn(e, true)
		}
	}
}

// updatePatterns задаёт скорость врага из его паттерна движения.
func (s *EnemySystem) updatePatterns(dt float32) {
	st := s.g.S

	ecs.View3(st.Pattern, st.Velocity, st.Transform, func(e ecs.Entity, pat *MovementPattern, vel *Velocity, tr *Transform) {
		pat.Elapsed += dt

		typ, _ := st.Type.Get(e)
		if typ.Kind == protocol.KindBoss {
			s.steerBoss(e, pat, vel, tr)
			return
		}

		switch pat.Kind {
		case PatternStatic:
			vel.Dir = vec.Vec2{}
			vel.Speed = 0
		case PatternStraightLine:
			vel.Dir = vec.Vec2{X: -1}
			vel.Speed = pat.Speed
		case PatternSineWave:
			vy := pat.Amplitude * float32(math.Sin(float64(pat.Elapsed*pat.Frequency)))
			raw := vec.Vec2{X: -pat.Speed, Y: vy}
			vel.Dir = raw.Normalized()
			vel.Speed = raw.Length()
		case PatternZigZag:
			vy := pat.Amplitude
			if math.Sin(float64(pat.Elapsed*pat.Frequency)) < 0 {
				vy = -vy
			}
			raw := vec.Vec2{X: -pat.Speed, Y: vy}
			vel.Dir = raw.Normalized()
			vel.Speed = raw.Length()
		case PatternCircular:
			// Дрейф влево с круговым движением вокруг него.
			a := pat.Elapsed * pat.Frequency
			raw := vec.Vec2{
				X: -pat.Speed + pat.Amplitude*float32(math.Cos(float64(a))),
				Y: pat.Amplitude * float32(math.Sin(float64(a))),
			}
			vel.Dir = raw.Normalized()
			vel.Speed = raw.Length()
		case PatternKamikaze:
			s.steerKamikaze(e, pat, vel, tr)
		}
	})
}

// steerKamikaze: дрейф влево до сближения, затем ускоренное пике на
// ближайшего игрока. Активация необратима.
func (s *EnemySystem) steerKamikaze(e ecs.Entity, pat *MovementPattern, vel *Velocity, tr *Transform) {
	room, _ := s.g.S.Room.Get(e)
	_, targetPos, ok := s.g.nearestPlayer(room.ID, tr.Pos)
	if !ok {
		vel.Dir = vec.Vec2{X: -1}
		vel.Speed = pat.Speed
		return
	}

	if !pat.Activated && tr.Pos.DistanceTo(targetPos) <= kamikazeRange {
		pat.Activated = true
	}
	if pat.Activated {
		vel.Dir = targetPos.Sub(tr.Pos).Normalized()
		vel.Speed = pat.Speed * kamikazeSpeedBoost
	} else {
		vel.Dir = vec.Vec2{X: -1}
		vel.Speed = pat.Speed
	}
}

// steerBoss: босс держится у правого края экрана и выравнивается по
// вертикали на ближайшего игрока. Пока живы щиты — якорь дальше.
func (s *EnemySystem) steerBoss(e ecs.Entity, pat *MovementPattern, vel *Velocity, tr *Transform) {
	room, _ := s.g.S.Room.Get(e)

	anchorX := bossAnchorNear
	if s.g.roomHasLivingShields(room.ID) {
		anchorX = bossAnchorFar
	}

	targetY := tr.Pos.Y
	if _, pos, ok := s.g.nearestPlayer(room.ID, tr.Pos); ok {
		targetY = pos.Y
	}

	raw := vec.Vec2{
		X: (anchorX - tr.Pos.X) * followGain,
		Y: (targetY - tr.Pos.Y) * followGain,
	}
	speed := raw.Length()
	if speed > pat.Speed*followGain {
		speed = pat.Speed * followGain
	}
	vel.Dir = raw.Normalized()
	vel.Speed = speed
}

// updateEnemyWeapons стреляет из вражеского оружия: рядовые враги —
// влево, босс — веером из трёх снарядов в ближайшего игрока.
func (s *EnemySystem) updateEnemyWeapons(dt float32) {
	st := s.g.S

	ecs.View2(st.Weapon, st.Transform, func(e ecs.Entity, wp *SimpleWeapon, tr *Transform) {
		typ, _ := st.Type.Get(e)
		if !isEnemyKind(typ.Kind) {
			return
		}
		wp.SinceShot += dt
		if wp.SinceShot < wp.FireRate {
			return
		}
		roomID, _ := st.Room.Get(e)
		room, ok := s.g.Rooms.Get(roomID.ID)
		if !ok {
			return
		}
		_, targetPos, ok := s.g.nearestPlayer(roomID.ID, tr.Pos)
		if !ok {
			return
		}
		wp.SinceShot = 0

		var muzzle vec.Vec2
		if box, ok := st.Box.Get(e); ok {
			muzzle = vec.Vec2{X: tr.Pos.X, Y: tr.Pos.Y + box.Height/2}
		} else {
			muzzle = tr.Pos
		}

		if typ.Kind == protocol.KindBoss {
			aim := targetPos.Sub(muzzle).Normalized()
			base := float32(math.Atan2(float64(aim.Y), float64(aim.X)))
			for _, off := range [...]float32{-bossSpreadRad, 0, bossSpreadRad} {
				a := base + off
				dir := vec.Vec2{X: float32(math.Cos(float64(a))), Y: float32(math.Sin(float64(a)))}
				s.pendingShots = append(s.pendingShots, enemyShot{owner: e, room: room, pos: muzzle, dir: dir})
			}
		} else {
			s.pendingShots = append(s.pendingShots, enemyShot{owner: e, room: room, pos: muzzle, dir: vec.Vec2{X: -1}})
		}
	})
}

// updateHoming подруливает самонаводящиеся снаряды к ближайшему врагу
// в радиусе захвата.
func (s *EnemySystem) updateHoming(dt float32) {
	st := s.g.S

	ecs.View3(st.Homing, st.Velocity, st.Transform, func(e ecs.Entity, h *Homing, vel *Velocity, tr *Transform) {
		room, _ := st.Room.Get(e)

		var best ecs.Entity
		bestDist := h.Range
		found := false
		st.Room.Each(func(other ecs.Entity, r *RoomID) {
			if r.ID != room.ID {
				return
			}
			typ, ok := st.Type.Get(other)
			if !ok || !isEnemyKind(typ.Kind) {
				return
			}
			otr, ok := st.Transform.Get(other)
			if !ok {
				return
			}
			d := tr.Pos.DistanceTo(otr.Pos)
			if d <= bestDist {
				best, bestDist, found = other, d, true
			}
		})
		if !found {
			return
		}
		ttr, _ := st.Transform.Get(best)
		want := ttr.Pos.Sub(tr.Pos).Normalized()
		vel.Dir = vel.Dir.Lerp(want, h.Steering*dt).Normalized()
	})
}

// updateBoomerangs: на пределе дальности снаряд разворачивается к
// владельцу; при касании владельца возвращает ему патрон.
func (s *EnemySystem) updateBoomerangs(dt float32) {
	st := s.g.S

	st.Boomerang.Each(func(e ecs.Entity, b *Boomerang) {
		tr, ok := st.Transform.GetPtr(e)
		if !ok {
			return
		}
		if !s.g.World.Alive(b.Owner) {
			s.pendingDespawns = append(s.pendingDespawns, e)
			return
		}
		otr, _ := st.Transform.Get(b.Owner)

		if !b.Returning && tr.Pos.DistanceTo(b.Origin) >= b.MaxRange {
			b.Returning = true
		}
		if b.Returning {
			if vel, ok := st.Velocity.GetPtr(e); ok {
				vel.Dir = otr.Pos.Sub(tr.Pos).Normalized()
			}
			obox, _ := st.Box.Get(b.Owner)
			bbox, _ := st.Box.Get(e)
			if physics.Intersects(tr.Pos, bbox, otr.Pos, obox) {
				if am, ok := st.Ammo.GetPtr(b.Owner); ok && am.Current < am.Max {
					am.Current++
					am.Dirty = true
				}
				s.pendingDespawns = append(s.pendingDespawns, e)
			}
		}
	})
}
