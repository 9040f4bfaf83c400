package game

import (
	"github.com/annel0/airtrap-server/internal/ecs"
	"github.com/annel0/airtrap-server/internal/protocol"
	"github.com/annel0/airtrap-server/internal/vec"
)

// ShootingSystem обрабатывает оружие игроков: обычный и заряженный
// выстрел, луч, перезарядку и истечение бафа двойного огня.
//
// Спавн пуль и урон откладываются до конца итерации: добавление и
// удаление сущностей двигает данные в хранилищах, а мы держим
// указатели на компоненты стрелка.
type ShootingSystem struct {
	g *GameState

	pendingShots []shotRequest
	beamTargets  []beamHit
}

type shotRequest struct {
	owner   ecs.Entity
	room    *Room
	pos     vec.Vec2
	scale   float32
	damage  int32
	weapon  WeaponKind
	charged bool
}

type beamHit struct {
	target ecs.Entity
	source ecs.Entity
}

func NewShootingSystem(g *GameState) *ShootingSystem {
	return &ShootingSystem{g: g}
}

func (s *ShootingSystem) Update(dt float32) {
	st := s.g.S
	s.pendingShots = s.pendingShots[:0]
	s.beamTargets = s.beamTargets[:0]

	// Истечение двойного огня.
	var expired []ecs.Entity
	st.Double.Each(func(e ecs.Entity, d *DoubleFire) {
		d.Remaining -= dt
		if d.Remaining <= 0 {
			expired = append(expired, e)
		}
	})
	for _, e := range expired {
		st.Double.Remove(e)
	}

	ecs.View4(st.Input, st.Weapon, st.Ammo, st.Transform, func(e ecs.Entity, in *InputState, wp *SimpleWeapon, am *Ammo, tr *Transform) {
		wp.SinceShot += dt
		if wp.BeamCooldown > 0 {
			wp.BeamCooldown -= dt
		}

		if am.IsReloading {
			am.ReloadTimer -= dt
			if am.ReloadTimer <= 0 {
				am.IsReloading = false
				am.Current = am.Max
				am.Dirty = true
			}
		}

		pressed := in.Mask&protocol.InputShoot != 0
		wasPressed := in.LastMask&protocol.InputShoot != 0
		reloadEdge := in.Mask&protocol.InputReload != 0 && in.LastMask&protocol.InputReload == 0

		// Перезарядка запрещена, пока активен луч: игрок не должен
		// обнулять магазин в середине непрерывного урона.
		if reloadEdge && !am.IsReloading && !wp.BeamActive && am.Current < am.Max {
			am.IsReloading = true
			am.ReloadTimer = am.ReloadCooldown
			am.Dirty = true
		}

		if wp.Kind == WeaponBeam {
			s.updateBeam(dt, e, wp, am, tr, pressed, wasPressed)
		} else {
			// Заряд копится с момента нажатия, выстрел — на отпускании.
			if pressed && !wasPressed {
				in.Charging = true
				in.ChargeTime = 0
			}
			if pressed && in.Charging {
				in.ChargeTime += dt
				if in.ChargeTime > chargeMax {
					in.ChargeTime = chargeMax
				}
			}
			if !pressed && wasPressed && in.Charging {
				in.Charging = false
				s.tryFire(e, in.ChargeTime, wp, am, tr)
			}
		}

		in.LastMask = in.Mask
	})

	for _, hit := range s.beamTargets {
		if !s.g.World.Alive(hit.target) {
			continue
		}
		s.g.ApplyDamage(hit.target, beamDamage, hit.source)
	}
	for _, shot := range s.pendingShots {
		if !s.g.World.Alive(shot.owner) {
			continue
		}
		s.g.SpawnBullet(shot.owner, shot.room, shot.pos, shot.scale, shot.damage, shot.weapon, shot.charged)
	}
}

// tryFire выпускает обычный или заряженный выстрел с учётом темпа
// стрельбы, боезапаса и двойного огня.
func (s *ShootingSystem) tryFire(e ecs.Entity, charge float32, wp *SimpleWeapon, am *Ammo, tr *Transform) {
	if wp.SinceShot < wp.FireRate || am.IsReloading || am.Current == 0 {
		return
	}

	scale := float32(1.0)
	damage := wp.Damage
	charged := charge >= chargeMin
	if charged {
		ratio := (charge - chargeMin) / (chargeMax - chargeMin)
		switch {
		case ratio < chargeTierSmall:
			scale = chargeScaleSmall
		case ratio < chargeTierMedium:
			scale = chargeScaleMedium
		default:
			scale = chargeScaleLarge
		}
		damage = int32(lerp32(float32(chargeDamageMin), float32(chargeDamageMax), ratio))
	}

	roomID, _ := s.g.S.Room.Get(e)
	room, ok := s.g.Rooms.Get(roomID.ID)
	if !ok {
		return
	}
	muzzle := vec.Vec2{X: tr.Pos.X + playerBoxW, Y: tr.Pos.Y + playerBoxH/2}

	shots := 1
	if d, ok := s.g.S.Double.Get(e); ok && d.Remaining > 0 {
		shots = 2
	}
	if int(am.Current) < shots {
		shots = int(am.Current)
	}

	for i := 0; i < shots; i++ {
		pos := muzzle
		if shots == 2 {
			if i == 0 {
				pos.Y -= doubleFireOffsetY
			} else {
				pos.Y += doubleFireOffsetY
			}
		}
		s.pendingShots = append(s.pendingShots, shotRequest{
			owner:   e,
			room:    room,
			pos:     pos,
			scale:   scale,
			damage:  damage,
			weapon:  wp.Kind,
			charged: charged,
		})
	}

	am.Current -= uint16(shots)
	am.Dirty = true
	wp.SinceShot = 0
}

// updateBeam ведёт луч: включение по нажатию, периодический урон всем
// врагам в полосе перед носителем, выключение по таймеру.
func (s *ShootingSystem) updateBeam(dt float32, e ecs.Entity, wp *SimpleWeapon, am *Ammo, tr *Transform, pressed, wasPressed bool) {
	if pressed && !wasPressed && !wp.BeamActive && wp.BeamCooldown <= 0 &&
		!am.IsReloading && am.Current >= beamAmmoCost {
		am.Current -= beamAmmoCost
		am.Dirty = true
		wp.BeamActive = true
		wp.BeamTimer = beamDuration
		wp.BeamTickTimer = 0
		s.announceBeam(e, true)
	}

	if !wp.BeamActive {
		return
	}

	wp.BeamTimer -= dt
	wp.BeamTickTimer += dt
	for wp.BeamTickTimer >= beamTickInterval {
		wp.BeamTickTimer -= beamTickInterval
		s.collectBeamTargets(e, tr)
	}
	if wp.BeamTimer <= 0 {
		wp.BeamActive = false
		wp.BeamCooldown = beamCooldownTime
		s.announceBeam(e, false)
	}
}

// collectBeamTargets находит всех врагов в той же комнате правее
// стрелка и в вертикальной полосе луча.
func (s *ShootingSystem) collectBeamTargets(e ecs.Entity, tr *Transform) {
	st := s.g.S
	room, ok := st.Room.Get(e)
	if !ok {
		return
	}
	centerY := tr.Pos.Y + playerBoxH/2

	st.Room.Each(func(other ecs.Entity, r *RoomID) {
		if r.ID != room.ID || other == e {
			return
		}
		typ, ok := st.Type.Get(other)
		if !ok || !isEnemyKind(typ.Kind) {
			return
		}
		otr, ok := st.Transform.Get(other)
		if !ok || otr.Pos.X <= tr.Pos.X {
			return
		}
		oc := otr.Pos.Y
		if box, ok := st.Box.Get(other); ok {
			oc += box.Height / 2
		}
		if oc < centerY-beamHalfBand || oc > centerY+beamHalfBand {
			return
		}
		s.beamTargets = append(s.beamTargets, beamHit{target: other, source: e})
	})
}

func (s *ShootingSystem) announceBeam(e ecs.Entity, active bool) {
	net, ok := s.g.S.Net.Get(e)
	if !ok {
		return
	}
	roomID, ok := s.g.S.Room.Get(e)
	if !ok {
		return
	}
	room, ok := s.g.Rooms.Get(roomID.ID)
	if !ok {
		return
	}
	payload := protocol.BeamStatePayload{NetworkID: net.ID, Active: active}
	s.g.broadcastRoom(room, protocol.OpBeamState, payload.Marshal())
}
