package game

import (
	"github.com/annel0/airtrap-server/internal/ecs"
	"github.com/annel0/airtrap-server/internal/physics"
	"github.com/annel0/airtrap-server/internal/protocol"
	"github.com/annel0/airtrap-server/internal/vec"
)

// CollisionSystem разрешает пересечения AABB внутри каждой комнаты:
// снаряды против целей, игроки против бонусов и препятствий.
//
// Сначала снимается снимок сущностей комнаты по категориям, затем
// пары обрабатываются с проверкой Alive: ранняя смерть в паре не
// должна дать эффект уже мёртвой сущности.
type CollisionSystem struct {
	g *GameState

	players     []collider
	enemies     []collider
	obstacles   []collider
	powerups    []collider
	playerShots []collider
	enemyShots  []collider
}

type collider struct {
	e    ecs.Entity
	kind protocol.EntityKind
	pos  vec.Vec2
	box  physics.Box
}

func NewCollisionSystem(g *GameState) *CollisionSystem {
	return &CollisionSystem{g: g}
}

func (s *CollisionSystem) Update(dt float32) {
	for _, room := range s.g.Rooms.List() {
		if room.State() != RoomInGame {
			continue
		}
		s.snapshot(room.ID)
		s.resolvePlayerPowerups()
		s.resolvePlayerObstacles()
		s.resolvePlayerShots()
		s.resolveEnemyShots()
	}
}

// snapshot раскладывает сущности комнаты по категориям.
func (s *CollisionSystem) snapshot(roomID uint32) {
	st := s.g.S
	s.players = s.players[:0]
	s.enemies = s.enemies[:0]
	s.obstacles = s.obstacles[:0]
	s.powerups = s.powerups[:0]
	s.playerShots = s.playerShots[:0]
	s.enemyShots = s.enemyShots[:0]

	st.Room.Each(func(e ecs.Entity, r *RoomID) {
		if r.ID != roomID {
			return
		}
		typ, ok := st.Type.Get(e)
		if !ok {
			return
		}
		tr, ok := st.Transform.Get(e)
		if !ok {
			return
		}
		box, ok := st.Box.Get(e)
		if !ok {
			return
		}
		c := collider{e: e, kind: typ.Kind, pos: tr.Pos, box: box}

		switch {
		case typ.Kind == protocol.KindPlayer:
			s.players = append(s.players, c)
		case isEnemyKind(typ.Kind):
			s.enemies = append(s.enemies, c)
		case isObstacleKind(typ.Kind):
			s.obstacles = append(s.obstacles, c)
		case isPowerupKind(typ.Kind):
			s.powerups = append(s.powerups, c)
		case typ.Kind == protocol.KindBullet || typ.Kind == protocol.KindChargedBullet:
			s.playerShots = append(s.playerShots, c)
		case typ.Kind == protocol.KindEnemyBullet:
			s.enemyShots = append(s.enemyShots, c)
		}
	})
}

func (s *CollisionSystem) resolvePlayerPowerups() {
	for _, pu := range s.powerups {
		for _, pl := range s.players {
			if !s.g.World.Alive(pu.e) || !s.g.World.Alive(pl.e) {
				continue
			}
			if !physics.Intersects(pl.pos, pl.box, pu.pos, pu.box) {
				continue
			}
			s.applyPowerup(pl.e, pu.e)
			s.g.Despawn(pu.e, true)
			break
		}
	}
}

func (s *CollisionSystem) applyPowerup(player, powerup ecs.Entity) {
	st := s.g.S
	p, ok := st.Powerup.Get(powerup)
	if !ok {
		return
	}
	switch p.Kind {
	case protocol.KindPowerupHeal:
		s.g.Heal(player, p.Value)
	case protocol.KindPowerupSpeed:
		if sp, ok := st.Speed.GetPtr(player); ok {
			sp.Multiplier = powerupSpeedMult
			sp.BoostRemaining = p.Duration
		}
	case protocol.KindPowerupDoubleFire:
		st.Double.Set(player, DoubleFire{Remaining: p.Duration})
	case protocol.KindPowerupShield:
		st.Shield.Set(player, Shield{Charges: p.Value})
	}
}

// resolvePlayerObstacles выталкивает игрока из препятствия по оси
// минимального проникновения и гасит скорость вдоль неё.
func (s *CollisionSystem) resolvePlayerObstacles() {
	st := s.g.S
	for _, pl := range s.players {
		for _, ob := range s.obstacles {
			if !s.g.World.Alive(pl.e) || !s.g.World.Alive(ob.e) {
				continue
			}
			tr, ok := st.Transform.GetPtr(pl.e)
			if !ok {
				continue
			}
			if !physics.Intersects(tr.Pos, pl.box, ob.pos, ob.box) {
				continue
			}
			pen := physics.Penetration(tr.Pos, pl.box, ob.pos, ob.box)
			vel, _ := st.Velocity.GetPtr(pl.e)
			if abs32(pen.X) < abs32(pen.Y) {
				tr.Pos.X += pen.X
				if vel != nil {
					vel.Dir.X = 0
				}
			} else {
				tr.Pos.Y += pen.Y
				if vel != nil {
					vel.Dir.Y = 0
				}
			}
		}
	}
}

// resolvePlayerShots наносит урон врагам и разрушаемым препятствиям.
// Пока живы щиты босса, сам босс неуязвим. Бумеранг на вылете
// пробивает цели насквозь.
func (s *CollisionSystem) resolvePlayerShots() {
	st := s.g.S
	targets := make([]collider, 0, len(s.enemies)+len(s.obstacles))
	targets = append(targets, s.enemies...)
	targets = append(targets, s.obstacles...)

	for _, shot := range s.playerShots {
		dmg, ok := st.Damage.Get(shot.e)
		if !ok {
			continue
		}
		outbound := false
		if b, has := st.Boomerang.Get(shot.e); has && !b.Returning {
			outbound = true
		}

		for _, t := range targets {
			if !s.g.World.Alive(shot.e) || !s.g.World.Alive(t.e) {
				continue
			}
			if t.kind == protocol.KindObstacleSolid {
				// Неразрушаемое: снаряд просто сгорает.
				if physics.Intersects(shot.pos, shot.box, t.pos, t.box) {
					s.g.Despawn(shot.e, true)
				}
				continue
			}
			if !physics.Intersects(shot.pos, shot.box, t.pos, t.box) {
				continue
			}

			roomID, _ := st.Room.Get(shot.e)
			if t.kind == protocol.KindBoss && s.g.roomHasLivingShields(roomID.ID) {
				// Щиты держат удар: урон не проходит, снаряд сгорает.
				if !outbound {
					s.g.Despawn(shot.e, true)
				}
				continue
			}

			s.g.ApplyDamage(t.e, dmg.Amount, dmg.Source)
			if !outbound {
				s.g.Despawn(shot.e, true)
			}
		}
	}
}

// resolveEnemyShots: щит поглощает попадание, расходуя заряд.
func (s *CollisionSystem) resolveEnemyShots() {
	st := s.g.S
	for _, shot := range s.enemyShots {
		for _, pl := range s.players {
			if !s.g.World.Alive(shot.e) || !s.g.World.Alive(pl.e) {
				continue
			}
			if !physics.Intersects(shot.pos, shot.box, pl.pos, pl.box) {
				continue
			}
			if sh, ok := st.Shield.GetPtr(pl.e); ok && sh.Charges > 0 {
				sh.Charges--
				if sh.Charges == 0 {
					st.Shield.Remove(pl.e)
				}
			} else {
				dmg, _ := st.Damage.Get(shot.e)
				amount := dmg.Amount
				if amount == 0 {
					amount = enemyBulletDamage
				}
				s.g.ApplyDamage(pl.e, amount, dmg.Source)
			}
			s.g.Despawn(shot.e, true)
		}
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
