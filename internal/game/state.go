package game

import (
	"math/rand"

	"github.com/annel0/airtrap-server/internal/ecs"
	"github.com/annel0/airtrap-server/internal/eventbus"
	"github.com/annel0/airtrap-server/internal/logging"
	"github.com/annel0/airtrap-server/internal/network"
	"github.com/annel0/airtrap-server/internal/protocol"
	"github.com/annel0/airtrap-server/internal/vec"
)

// PacketSender — то, что симуляции нужно от транспорта.
// Реализуется network.Server; в тестах подменяется заглушкой.
type PacketSender interface {
	Send(sessionID uint32, pkt *protocol.Packet, mode network.SendMode) error
	Broadcast(sessionIDs []uint32, pkt *protocol.Packet, mode network.SendMode)
}

// worldCapacity — максимум одновременных сущностей во всех комнатах.
const worldCapacity = 4096

// GameState — однопоточное ядро симуляции: мир, хранилища,
// реестры и привязка сессий к сущностям. Все системы мутируют
// состояние только через него и только из тика симуляции.
type GameState struct {
	World   *ecs.World
	S       *Stores
	Rooms   *RoomRegistry
	Players *PlayerRegistry
	Sender  PacketSender

	// Events получает игровые события для внешних подписчиков
	// (шина). Устанавливается менеджером, nil допустим.
	Events func(eventType string, payload any)

	sessionEntity map[uint32]ecs.Entity
	entitySession map[ecs.Entity]uint32
	nextNetID     uint32
	rng           *rand.Rand
}

// NewGameState собирает пустое ядро симуляции.
func NewGameState(sender PacketSender, seed int64) *GameState {
	world := ecs.NewWorld(worldCapacity)
	return &GameState{
		World:         world,
		S:             NewStores(world),
		Rooms:         NewRoomRegistry(),
		Players:       NewPlayerRegistry(),
		Sender:        sender,
		sessionEntity: make(map[uint32]ecs.Entity),
		entitySession: make(map[ecs.Entity]uint32),
		nextNetID:     1,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

func (g *GameState) emit(eventType string, payload any) {
	if g.Events != nil {
		g.Events(eventType, payload)
	}
}

func (g *GameState) allocNetID() uint32 {
	id := g.nextNetID
	g.nextNetID++
	return id
}

// BindSession связывает сессию с игровой сущностью для приёма ввода.
func (g *GameState) BindSession(sessionID uint32, e ecs.Entity) {
	g.sessionEntity[sessionID] = e
	g.entitySession[e] = sessionID
}

// UnbindSession снимает привязку сессии к сущности.
func (g *GameState) UnbindSession(sessionID uint32) {
	if e, ok := g.sessionEntity[sessionID]; ok {
		delete(g.entitySession, e)
		delete(g.sessionEntity, sessionID)
	}
}

// EntityFor возвращает сущность, привязанную к сессии.
func (g *GameState) EntityFor(sessionID uint32) (ecs.Entity, bool) {
	e, ok := g.sessionEntity[sessionID]
	return e, ok
}

// sessionFor возвращает сессию-владельца сущности.
func (g *GameState) sessionFor(e ecs.Entity) (uint32, bool) {
	sid, ok := g.entitySession[e]
	return sid, ok
}

// sendReliable отправляет пакет по TCP; ошибки обрабатывает транспорт.
func (g *GameState) sendReliable(sessionID uint32, op protocol.OpCode, body []byte) {
	_ = g.Sender.Send(sessionID, protocol.NewPacket(op, sessionID, body), network.SendReliable)
}

// broadcastRoom рассылает пакет всем участникам комнаты по TCP.
func (g *GameState) broadcastRoom(room *Room, op protocol.OpCode, body []byte) {
	g.Sender.Broadcast(room.SessionIDs(), protocol.NewPacket(op, 0, body), network.SendReliable)
}

// broadcastRoomUDP рассылает пакет всем участникам комнаты по UDP.
func (g *GameState) broadcastRoomUDP(room *Room, op protocol.OpCode, body []byte) {
	g.Sender.Broadcast(room.SessionIDs(), protocol.NewPacket(op, 0, body), network.SendUnreliable)
}

// broadcastSpawn сообщает комнате о появлении сущности.
func (g *GameState) broadcastSpawn(room *Room, e ecs.Entity) {
	net, _ := g.S.Net.Get(e)
	tr, _ := g.S.Transform.Get(e)
	typ, _ := g.S.Type.Get(e)
	box, _ := g.S.Box.Get(e)
	vel, _ := g.S.Velocity.Get(e)

	var ownerID uint32
	if dmg, ok := g.S.Damage.Get(e); ok {
		if ownerNet, ok := g.S.Net.Get(dmg.Source); ok {
			ownerID = ownerNet.ID
		}
	}

	payload := protocol.EntitySpawnPayload{
		NetworkID: net.ID,
		Kind:      typ.Kind,
		X:         tr.Pos.X,
		Y:         tr.Pos.Y,
		VelX:      vel.Dir.X * vel.Speed,
		VelY:      vel.Dir.Y * vel.Speed,
		SizeX:     box.Width,
		SizeY:     box.Height,
		OwnerID:   ownerID,
	}
	g.broadcastRoom(room, protocol.OpEntitySpawn, payload.Marshal())
}

// Despawn уничтожает сущность, опционально оповестив комнату.
func (g *GameState) Despawn(e ecs.Entity, announce bool) {
	if !g.World.Alive(e) {
		return
	}

	if announce {
		net, hasNet := g.S.Net.Get(e)
		rid, hasRoom := g.S.Room.Get(e)
		if hasNet && hasRoom {
			if room, ok := g.Rooms.Get(rid.ID); ok {
				payload := protocol.EntityDeathPayload{NetworkID: net.ID}
				g.broadcastRoom(room, protocol.OpEntityDeath, payload.Marshal())
			}
		}
	}

	if sid, ok := g.entitySession[e]; ok {
		delete(g.sessionEntity, sid)
		delete(g.entitySession, e)
	}
	g.World.Kill(e)
}

// SpawnPlayerEntity создаёт игровую сущность игрока при старте матча.
// index задаёт вертикальный сдвиг точки появления.
func (g *GameState) SpawnPlayerEntity(p *Player, room *Room, index int) (ecs.Entity, error) {
	e, err := g.World.Spawn()
	if err != nil {
		return ecs.Nil, err
	}

	pos := vec.Vec2{X: playerSpawnX, Y: playerSpawnY + float32(index)*playerSpawnStep}
	netID := g.allocNetID()

	g.S.Transform.Set(e, Transform{Pos: pos, Scale: vec.Vec2{X: 1, Y: 1}})
	g.S.Velocity.Set(e, Velocity{Speed: playerBaseSpeed})
	g.S.Health.Set(e, Health{Current: playerMaxHealth, Max: playerMaxHealth})
	g.S.Box.Set(e, BoundingBox{Width: playerBoxW, Height: playerBoxH})
	g.S.Type.Set(e, EntityType{Kind: protocol.KindPlayer})
	g.S.Net.Set(e, NetworkID{ID: netID})
	g.S.Room.Set(e, RoomID{ID: room.ID})
	g.S.Input.Set(e, InputState{})
	g.S.Speed.Set(e, MovementSpeed{Base: playerBaseSpeed, Multiplier: 1})
	g.S.Ammo.Set(e, Ammo{Current: playerMaxAmmo, Max: playerMaxAmmo, ReloadCooldown: playerReload})
	rate := defaultFireRate
	if p.Weapon == WeaponBoomerang {
		rate = boomerangFireRate
	}
	g.S.Weapon.Set(e, SimpleWeapon{Kind: p.Weapon, FireRate: rate, Damage: bulletDamage})

	p.Entity = e
	p.NetworkID = netID
	g.BindSession(p.SessionID, e)
	return e, nil
}

// SpawnEnemy создаёт противника из триггера уровня.
func (g *GameState) SpawnEnemy(room *Room, tr SpawnTrigger, pos vec.Vec2) ecs.Entity {
	kind := protocol.KindScout
	hp := int32(50)
	box := BoundingBox{Width: 32, Height: 24}
	switch tr.Kind {
	case "tank":
		kind = protocol.KindTank
		hp = 150
		box = BoundingBox{Width: 48, Height: 32}
	case "boss":
		return g.spawnBoss(room, tr, pos)
	}

	e, err := g.World.Spawn()
	if err != nil {
		logging.Warn("Мир переполнен, спавн противника пропущен (комната %d)", room.ID)
		return ecs.Nil
	}

	speed := tr.Speed
	if speed <= 0 {
		speed = levelScrollSpeed
	}

	g.S.Transform.Set(e, Transform{Pos: pos, Scale: vec.Vec2{X: 1, Y: 1}})
	g.S.Velocity.Set(e, Velocity{Dir: vec.Vec2{X: -1}, Speed: speed})
	g.S.Health.Set(e, Health{Current: hp, Max: hp})
	g.S.Box.Set(e, box)
	g.S.Type.Set(e, EntityType{Kind: kind})
	g.S.Net.Set(e, NetworkID{ID: g.allocNetID()})
	g.S.Room.Set(e, RoomID{ID: room.ID})
	g.S.Pattern.Set(e, MovementPattern{
		Kind:      parsePattern(tr.Pattern),
		Speed:     speed,
		Amplitude: tr.Amplitude,
		Frequency: tr.Frequency,
	})
	if tr.Weapon {
		g.S.Weapon.Set(e, SimpleWeapon{Kind: WeaponClassic, FireRate: 1.5, Damage: enemyBulletDamage})
	}

	g.broadcastSpawn(room, e)
	return e
}

// spawnBoss создаёт босса и его щиты-спутники на полуокружности.
func (g *GameState) spawnBoss(room *Room, tr SpawnTrigger, pos vec.Vec2) ecs.Entity {
	e, err := g.World.Spawn()
	if err != nil {
		logging.Warn("Мир переполнен, босс не создан (комната %d)", room.ID)
		return ecs.Nil
	}

	hp := int32(1000)
	g.S.Transform.Set(e, Transform{Pos: pos, Scale: vec.Vec2{X: 1, Y: 1}})
	g.S.Velocity.Set(e, Velocity{})
	g.S.Health.Set(e, Health{Current: hp, Max: hp})
	g.S.Box.Set(e, BoundingBox{Width: 96, Height: 96})
	g.S.Type.Set(e, EntityType{Kind: protocol.KindBoss})
	g.S.Net.Set(e, NetworkID{ID: g.allocNetID()})
	g.S.Room.Set(e, RoomID{ID: room.ID})
	g.S.Pattern.Set(e, MovementPattern{Kind: PatternStatic, Speed: tr.Speed})
	g.S.Weapon.Set(e, SimpleWeapon{Kind: WeaponClassic, FireRate: 1.0, Damage: enemyBulletDamage})
	g.broadcastSpawn(room, e)

	for _, angle := range bossShieldAngles {
		g.spawnBossShield(room, e, pos, angle)
	}
	return e
}

func (g *GameState) spawnBossShield(room *Room, boss ecs.Entity, bossPos vec.Vec2, angleDeg float32) {
	e, err := g.World.Spawn()
	if err != nil {
		return
	}

	offset := angleOffset(angleDeg, bossShieldRadius)
	g.S.Transform.Set(e, Transform{Pos: bossPos.Add(offset), Scale: vec.Vec2{X: 1, Y: 1}})
	g.S.Velocity.Set(e, Velocity{})
	g.S.Health.Set(e, Health{Current: 120, Max: 120})
	g.S.Box.Set(e, BoundingBox{Width: 32, Height: 32})
	g.S.Type.Set(e, EntityType{Kind: protocol.KindBossShield})
	g.S.Net.Set(e, NetworkID{ID: g.allocNetID()})
	g.S.Room.Set(e, RoomID{ID: room.ID})
	g.S.Pattern.Set(e, MovementPattern{Kind: PatternStatic})
	g.broadcastSpawn(room, e)
	_ = boss
}

// SpawnPowerup создаёт бонус; он дрейфует влево со скоростью прокрутки.
func (g *GameState) SpawnPowerup(room *Room, kind protocol.EntityKind, pos vec.Vec2) ecs.Entity {
	e, err := g.World.Spawn()
	if err != nil {
		return ecs.Nil
	}

	pow := Powerup{Kind: kind}
	switch kind {
	case protocol.KindPowerupHeal:
		pow.Value = powerupHealValue
	case protocol.KindPowerupSpeed:
		pow.Duration = powerupSpeedTime
	case protocol.KindPowerupDoubleFire:
		pow.Duration = powerupDoubleTime
	case protocol.KindPowerupShield:
		pow.Value = powerupShieldHits
	}

	g.S.Transform.Set(e, Transform{Pos: pos, Scale: vec.Vec2{X: 1, Y: 1}})
	g.S.Velocity.Set(e, Velocity{Dir: vec.Vec2{X: -1}, Speed: levelScrollSpeed})
	g.S.Box.Set(e, BoundingBox{Width: 24, Height: 24})
	g.S.Type.Set(e, EntityType{Kind: kind})
	g.S.Net.Set(e, NetworkID{ID: g.allocNetID()})
	g.S.Room.Set(e, RoomID{ID: room.ID})
	g.S.Powerup.Set(e, pow)

	g.broadcastSpawn(room, e)
	return e
}

// SpawnObstacle создаёт препятствие. scrolling управляет дрейфом влево:
// тайловые препятствия статичны, триггерные едут вместе с миром.
func (g *GameState) SpawnObstacle(room *Room, pos vec.Vec2, w, h float32, destructible, scrolling bool) ecs.Entity {
	e, err := g.World.Spawn()
	if err != nil {
		return ecs.Nil
	}

	kind := protocol.KindObstacleSolid
	hp := solidObstacleHealth
	if destructible {
		kind = protocol.KindObstacle
		hp = obstacleHealth
	}

	vel := Velocity{}
	if scrolling {
		vel = Velocity{Dir: vec.Vec2{X: -1}, Speed: levelScrollSpeed}
	}

	g.S.Transform.Set(e, Transform{Pos: pos, Scale: vec.Vec2{X: 1, Y: 1}})
	g.S.Velocity.Set(e, vel)
	g.S.Health.Set(e, Health{Current: hp, Max: hp})
	g.S.Box.Set(e, BoundingBox{Width: w, Height: h})
	g.S.Type.Set(e, EntityType{Kind: kind})
	g.S.Net.Set(e, NetworkID{ID: g.allocNetID()})
	g.S.Room.Set(e, RoomID{ID: room.ID})

	g.broadcastSpawn(room, e)
	return e
}

// SpawnBullet создаёт снаряд игрока. charged задаёт сетевой тип, scale —
// размер хитбокса (средний заряд имеет scale 1.0, как и обычный выстрел).
func (g *GameState) SpawnBullet(owner ecs.Entity, room *Room, pos vec.Vec2, scale float32, damage int32, weapon WeaponKind, charged bool) ecs.Entity {
	e, err := g.World.Spawn()
	if err != nil {
		return ecs.Nil
	}

	kind := protocol.KindBullet
	if charged {
		kind = protocol.KindChargedBullet
	}

	speed := bulletSpeed
	if weapon == WeaponBoomerang {
		speed = boomerangSpeed
	}

	g.S.Transform.Set(e, Transform{Pos: pos, Scale: vec.Vec2{X: scale, Y: scale}})
	g.S.Velocity.Set(e, Velocity{Dir: vec.Vec2{X: 1}, Speed: speed})
	g.S.Box.Set(e, BoundingBox{Width: bulletW * scale, Height: bulletH * scale})
	g.S.Type.Set(e, EntityType{Kind: kind})
	g.S.Net.Set(e, NetworkID{ID: g.allocNetID()})
	roomID, _ := g.S.Room.Get(owner)
	g.S.Room.Set(e, RoomID{ID: roomID.ID})
	g.S.Damage.Set(e, Damage{Amount: damage, Source: owner})

	switch weapon {
	case WeaponTracker:
		g.S.Homing.Set(e, Homing{Steering: trackerSteering, Range: trackerRange})
	case WeaponBoomerang:
		g.S.Boomerang.Set(e, Boomerang{Owner: owner, Origin: pos, MaxRange: boomerangRange})
	}

	g.broadcastSpawn(room, e)
	return e
}

// SpawnEnemyBullet создаёт вражеский снаряд в направлении dir.
func (g *GameState) SpawnEnemyBullet(owner ecs.Entity, room *Room, pos vec.Vec2, dir vec.Vec2) ecs.Entity {
	e, err := g.World.Spawn()
	if err != nil {
		return ecs.Nil
	}

	g.S.Transform.Set(e, Transform{Pos: pos, Scale: vec.Vec2{X: 1, Y: 1}})
	g.S.Velocity.Set(e, Velocity{Dir: dir.Normalized(), Speed: enemyBulletSpeed})
	g.S.Box.Set(e, BoundingBox{Width: bulletW, Height: bulletH})
	g.S.Type.Set(e, EntityType{Kind: protocol.KindEnemyBullet})
	g.S.Net.Set(e, NetworkID{ID: g.allocNetID()})
	g.S.Room.Set(e, RoomID{ID: room.ID})
	g.S.Damage.Set(e, Damage{Amount: enemyBulletDamage, Source: owner})

	g.broadcastSpawn(room, e)
	return e
}

// ApplyDamage наносит урон сущности. Возвращает true если сущность
// погибла (и уже уничтожена). Здоровье зажато в [0, max]; смерть
// обрабатывается ровно один раз.
func (g *GameState) ApplyDamage(target ecs.Entity, amount int32, source ecs.Entity) bool {
	hp, ok := g.S.Health.GetPtr(target)
	if !ok || hp.Current <= 0 {
		return false
	}

	hp.Current -= amount
	if hp.Current < 0 {
		hp.Current = 0
	}
	if hp.Current > hp.Max {
		hp.Current = hp.Max
	}

	g.announceHealth(target, hp.Current, hp.Max)

	if hp.Current > 0 {
		return false
	}

	g.handleDeath(target, source)
	return true
}

// Heal восстанавливает здоровье с зажимом в max.
func (g *GameState) Heal(target ecs.Entity, amount int32) {
	hp, ok := g.S.Health.GetPtr(target)
	if !ok {
		return
	}
	hp.Current += amount
	if hp.Current > hp.Max {
		hp.Current = hp.Max
	}
	g.announceHealth(target, hp.Current, hp.Max)
}

func (g *GameState) announceHealth(e ecs.Entity, current, max int32) {
	net, hasNet := g.S.Net.Get(e)
	rid, hasRoom := g.S.Room.Get(e)
	if !hasNet || !hasRoom {
		return
	}
	room, ok := g.Rooms.Get(rid.ID)
	if !ok {
		return
	}
	payload := protocol.HealthUpdatePayload{NetworkID: net.ID, Current: current, Max: max}
	g.broadcastRoom(room, protocol.OpHealthUpdate, payload.Marshal())
}

// handleDeath начисляет очки, разыгрывает дроп бонуса и уничтожает
// сущность. Погибший игрок становится зрителем, а не покидает комнату.
func (g *GameState) handleDeath(target, source ecs.Entity) {
	typ, _ := g.S.Type.Get(target)
	rid, _ := g.S.Room.Get(target)
	room, hasRoom := g.Rooms.Get(rid.ID)

	if typ.Kind == protocol.KindPlayer {
		if sid, ok := g.sessionFor(target); ok {
			if p, ok := g.Players.Get(sid); ok {
				p.Spectator = true
				p.Entity = ecs.Nil
				logging.Info("💀 Игрок %s выбыл (комната %d)", p.Username, rid.ID)
				g.emit(eventbus.EventPlayerDied, eventbus.PlayerEventPayload{
					RoomID:   rid.ID,
					PlayerID: sid,
					Username: p.Username,
					Score:    p.Score,
				})
			}
		}
		g.Despawn(target, true)
		return
	}

	g.awardScore(source, typ.Kind)

	if typ.Kind == protocol.KindBoss && hasRoom {
		g.emit(eventbus.EventBossDefeated, eventbus.RoomEventPayload{
			RoomID:   room.ID,
			RoomName: room.Name,
			LevelID:  uint32(room.LevelID),
		})
	}

	if hasRoom && isEnemyKind(typ.Kind) && g.rng.Float64() < powerupDropChance {
		tr, _ := g.S.Transform.Get(target)
		g.SpawnPowerup(room, g.randomPowerupKind(), tr.Pos)
	}

	g.Despawn(target, true)
}

// awardScore начисляет очки игроку-владельцу источника урона.
func (g *GameState) awardScore(source ecs.Entity, killed protocol.EntityKind) {
	points := scoreFor(killed)
	if points == 0 {
		return
	}

	// Источником может быть снаряд — поднимаемся к владельцу.
	owner := source
	if dmg, ok := g.S.Damage.Get(source); ok {
		owner = dmg.Source
	}

	sid, ok := g.sessionFor(owner)
	if !ok {
		return
	}
	p, ok := g.Players.Get(sid)
	if !ok {
		return
	}

	p.Score += points
	payload := protocol.ScoreUpdatePayload{Score: p.Score}
	g.sendReliable(sid, protocol.OpScoreUpdate, payload.Marshal())
}

func (g *GameState) randomPowerupKind() protocol.EntityKind {
	kinds := []protocol.EntityKind{
		protocol.KindPowerupHeal,
		protocol.KindPowerupSpeed,
		protocol.KindPowerupDoubleFire,
		protocol.KindPowerupShield,
	}
	return kinds[g.rng.Intn(len(kinds))]
}

// frontPlayerX — X самого продвинутого живого игрока комнаты.
func (g *GameState) frontPlayerX(roomID uint32) float32 {
	front := float32(0)
	g.S.Room.Each(func(e ecs.Entity, rid *RoomID) {
		if rid.ID != roomID {
			return
		}
		typ, ok := g.S.Type.Get(e)
		if !ok || typ.Kind != protocol.KindPlayer {
			return
		}
		if tr, ok := g.S.Transform.Get(e); ok && tr.Pos.X > front {
			front = tr.Pos.X
		}
	})
	return front
}

// nearestPlayer находит ближайшего живого игрока комнаты к точке.
func (g *GameState) nearestPlayer(roomID uint32, from vec.Vec2) (ecs.Entity, vec.Vec2, bool) {
	best := ecs.Nil
	var bestPos vec.Vec2
	bestDist := float32(-1)

	g.S.Room.Each(func(e ecs.Entity, rid *RoomID) {
		if rid.ID != roomID {
			return
		}
		typ, ok := g.S.Type.Get(e)
		if !ok || typ.Kind != protocol.KindPlayer {
			return
		}
		tr, ok := g.S.Transform.Get(e)
		if !ok {
			return
		}
		d := from.DistanceTo(tr.Pos)
		if bestDist < 0 || d < bestDist {
			best, bestPos, bestDist = e, tr.Pos, d
		}
	})
	return best, bestPos, !best.IsNil()
}

// roomHasLivingShields — true, пока у босса комнаты жив хотя бы один щит.
func (g *GameState) roomHasLivingShields(roomID uint32) bool {
	alive := false
	g.S.Room.Each(func(e ecs.Entity, rid *RoomID) {
		if alive || rid.ID != roomID {
			return
		}
		if typ, ok := g.S.Type.Get(e); ok && typ.Kind == protocol.KindBossShield {
			alive = true
		}
	})
	return alive
}

func scoreFor(kind protocol.EntityKind) int32 {
	switch kind {
	case protocol.KindScout:
		return scoreScout
	case protocol.KindTank:
		return scoreTank
	case protocol.KindBoss:
		return scoreBoss
	case protocol.KindObstacle, protocol.KindObstacleSolid:
		return scoreObstacle
	case protocol.KindBossShield:
		return scoreTank
	default:
		return 0
	}
}

func isEnemyKind(kind protocol.EntityKind) bool {
	switch kind {
	case protocol.KindScout, protocol.KindTank, protocol.KindBoss, protocol.KindBossShield:
		return true
	default:
		return false
	}
}

func isPowerupKind(kind protocol.EntityKind) bool {
	switch kind {
	case protocol.KindPowerupHeal, protocol.KindPowerupSpeed,
		protocol.KindPowerupDoubleFire, protocol.KindPowerupShield:
		return true
	default:
		return false
	}
}

func isObstacleKind(kind protocol.EntityKind) bool {
	return kind == protocol.KindObstacle || kind == protocol.KindObstacleSolid
}

func parsePattern(s string) PatternKind {
	switch s {
	case "zigzag":
		return PatternZigZag
	case "circular":
		return PatternCircular
	case "sine":
		return PatternSineWave
	case "kamikaze":
		return PatternKamikaze
	case "static":
		return PatternStatic
	default:
		return PatternStraightLine
	}
}

func powerupKindByName(s string) protocol.EntityKind {
	switch s {
	case "speed":
		return protocol.KindPowerupSpeed
	case "double_fire":
		return protocol.KindPowerupDoubleFire
	case "shield":
		return protocol.KindPowerupShield
	default:
		return protocol.KindPowerupHeal
	}
}

// roomHasEnemies — есть ли в комнате живые противники.
func (g *GameState) roomHasEnemies(roomID uint32) bool {
	found := false
	g.S.Room.Each(func(e ecs.Entity, rid *RoomID) {
		if found || rid.ID != roomID {
			return
		}
		if typ, ok := g.S.Type.Get(e); ok && isEnemyKind(typ.Kind) {
			found = true
		}
	})
	return found
}

// RandomSeed выдаёт seed для новой комнаты из генератора мира.
func (g *GameState) RandomSeed() uint32 {
	return g.rng.Uint32()
}

// sendSpawnTo адресно досылает спавн сущности одной сессии.
func (g *GameState) sendSpawnTo(sessionID uint32, e ecs.Entity) {
	net, ok := g.S.Net.Get(e)
	if !ok {
		return
	}
	tr, _ := g.S.Transform.Get(e)
	typ, _ := g.S.Type.Get(e)
	box, _ := g.S.Box.Get(e)
	vel, _ := g.S.Velocity.Get(e)

	var ownerID uint32
	if dmg, ok := g.S.Damage.Get(e); ok {
		if ownerNet, ok := g.S.Net.Get(dmg.Source); ok {
			ownerID = ownerNet.ID
		}
	}
	payload := protocol.EntitySpawnPayload{
		NetworkID: net.ID,
		Kind:      typ.Kind,
		X:         tr.Pos.X,
		Y:         tr.Pos.Y,
		VelX:      vel.Dir.X * vel.Speed,
		VelY:      vel.Dir.Y * vel.Speed,
		SizeX:     box.Width,
		SizeY:     box.Height,
		OwnerID:   ownerID,
	}
	g.sendReliable(sessionID, protocol.OpEntitySpawn, payload.Marshal())
}
