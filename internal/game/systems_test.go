package game

import (
	"testing"

	"github.com/annel0/airtrap-server/internal/ecs"
	"github.com/annel0/airtrap-server/internal/eventbus"
	"github.com/annel0/airtrap-server/internal/network"
	"github.com/annel0/airtrap-server/internal/protocol"
	"github.com/annel0/airtrap-server/internal/vec"
)

// fakeSender копит отправленные пакеты вместо сети.
type fakeSender struct {
	sent []sentPacket
}

type sentPacket struct {
	sessionID uint32
	op        protocol.OpCode
	mode      network.SendMode
	body      []byte
}

func (f *fakeSender) Send(sessionID uint32, pkt *protocol.Packet, mode network.SendMode) error {
	f.sent = append(f.sent, sentPacket{sessionID, pkt.Header.OpCode, mode, pkt.Body})
	return nil
}

func (f *fakeSender) Broadcast(sessionIDs []uint32, pkt *protocol.Packet, mode network.SendMode) {
	for _, sid := range sessionIDs {
		f.sent = append(f.sent, sentPacket{sid, pkt.Header.OpCode, mode, pkt.Body})
	}
}

func (f *fakeSender) countOp(op protocol.OpCode) int {
	n := 0
	for _, p := range f.sent {
		if p.op == op {
			n++
		}
	}
	return n
}

func (f *fakeSender) reset() { f.sent = f.sent[:0] }

// match — минимальная игровая обвязка: мир, комната в матче и один
// игрок с заспавненной сущностью.
type match struct {
	g      *GameState
	sender *fakeSender
	room   *Room
	player *Player
}

func newMatch(t *testing.T) *match {
	t.Helper()
	sender := &fakeSender{}
	g := NewGameState(sender, 1)

	room := g.Rooms.Create(1, "test", 4, 1, 100, 10, RoomPublic, 1, 42)
	p := g.Players.Add(1)
	p.Username = "hero"
	if err := room.AddPlayer(p, false); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if err := room.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := g.SpawnPlayerEntity(p, room, 0); err != nil {
		t.Fatalf("SpawnPlayerEntity: %v", err)
	}
	sender.reset()
	return &match{g: g, sender: sender, room: room, player: p}
}

func (m *match) spawnScout(t *testing.T, pos vec.Vec2, hpOverride int32) *match {
	t.Helper()
	e := m.g.SpawnEnemy(m.room, SpawnTrigger{Kind: "scout", Pattern: "straight", Speed: 100}, pos)
	if e.IsNil() {
		t.Fatal("SpawnEnemy вернул Nil")
	}
	if hpOverride > 0 {
		hp, _ := m.g.S.Health.GetPtr(e)
		hp.Current, hp.Max = hpOverride, hpOverride
	}
	return m
}

func (m *match) input(mask uint8) {
	in, _ := m.g.S.Input.GetPtr(m.player.Entity)
	in.Mask = mask
}

//================ Движение =================//

func TestMovementAcceleratesTowardsInput(t *testing.T) {
	m := newMatch(t)
	sys := NewMovementSystem(m.g)

	m.input(protocol.InputMoveRight)
	for i := 0; i < 60; i++ {
		sys.Update(TickDt)
	}

	tr, _ := m.g.S.Transform.Get(m.player.Entity)
	if tr.Pos.X <= playerSpawnX {
		t.Errorf("игрок не сдвинулся вправо: X=%v", tr.Pos.X)
	}
	vel, _ := m.g.S.Velocity.Get(m.player.Entity)
	if vel.Dir.X < 0.9 {
		t.Errorf("направление не сошлось к вводу: %v", vel.Dir)
	}
}

func TestMovementClampsToWorld(t *testing.T) {
	m := newMatch(t)
	sys := NewMovementSystem(m.g)

	tr, _ := m.g.S.Transform.GetPtr(m.player.Entity)
	tr.Pos = vec.Vec2{X: 5, Y: 5}
	m.input(protocol.InputMoveLeft | protocol.InputMoveUp)
	for i := 0; i < 120; i++ {
		sys.Update(TickDt)
	}

	got, _ := m.g.S.Transform.Get(m.player.Entity)
	if got.Pos.X < 0 || got.Pos.Y < 0 {
		t.Errorf("игрок вышел за границы мира: %v", got.Pos)
	}
}

func TestSpeedBoostExpires(t *testing.T) {
	m := newMatch(t)
	sys := NewMovementSystem(m.g)

	sp, _ := m.g.S.Speed.GetPtr(m.player.Entity)
	sp.Multiplier = powerupSpeedMult
	sp.BoostRemaining = 0.1

	sys.Update(0.2)
	got, _ := m.g.S.Speed.Get(m.player.Entity)
	if got.Multiplier != 1 {
		t.Errorf("Multiplier = %v после истечения буста, ожидали 1", got.Multiplier)
	}
}

//================ Стрельба =================//

func TestShotConsumesOneAmmo(t *testing.T) {
	m := newMatch(t)
	sys := NewShootingSystem(m.g)

	wp, _ := m.g.S.Weapon.GetPtr(m.player.Entity)
	wp.SinceShot = 1

	m.input(protocol.InputShoot)
	sys.Update(0.05)
	m.input(0)
	sys.Update(TickDt)

	am, _ := m.g.S.Ammo.Get(m.player.Entity)
	if am.Current != playerMaxAmmo-1 {
		t.Errorf("Current = %d, ожидали %d", am.Current, playerMaxAmmo-1)
	}
	if got := m.sender.countOp(protocol.OpEntitySpawn); got != 1 {
		t.Errorf("спавнов снарядов = %d, ожидали 1", got)
	}
}

func TestDoubleFireConsumesTwoAmmo(t *testing.T) {
	m := newMatch(t)
	sys := NewShootingSystem(m.g)

	wp, _ := m.g.S.Weapon.GetPtr(m.player.Entity)
	wp.SinceShot = 1
	m.g.S.Double.Set(m.player.Entity, DoubleFire{Remaining: 5})

	m.input(protocol.InputShoot)
	sys.Update(0.05)
	m.input(0)
	sys.Update(TickDt)

	am, _ := m.g.S.Ammo.Get(m.player.Entity)
	if am.Current != playerMaxAmmo-2 {
		t.Errorf("Current = %d, ожидали %d", am.Current, playerMaxAmmo-2)
	}
	if got := m.sender.countOp(protocol.OpEntitySpawn); got != 2 {
		t.Errorf("спавнов снарядов = %d, ожидали 2", got)
	}
}

func TestChargedShotAfterLongHold(t *testing.T) {
	m := newMatch(t)
	sys := NewShootingSystem(m.g)

	wp, _ := m.g.S.Weapon.GetPtr(m.player.Entity)
	wp.SinceShot = 1

	m.input(protocol.InputShoot)
	sys.Update(1.0)
	sys.Update(1.0)
	m.input(0)
	sys.Update(TickDt)

	found := false
	m.g.S.Type.Each(func(_ ecs.Entity, typ *EntityType) {
		if typ.Kind == protocol.KindChargedBullet {
			found = true
		}
	})
	if !found {
		t.Error("после долгого удержания не появился заряженный снаряд")
	}
}

func TestMediumChargeSpawnsChargedBullet(t *testing.T) {
	m := newMatch(t)
	sys := NewShootingSystem(m.g)

	wp, _ := m.g.S.Weapon.GetPtr(m.player.Entity)
	wp.SinceShot = 1

	// Удержание 1.1с — средний уровень заряда, масштаб совпадает с обычным.
	m.input(protocol.InputShoot)
	sys.Update(1.1)
	m.input(0)
	sys.Update(TickDt)

	found := false
	m.g.S.Type.Each(func(e ecs.Entity, typ *EntityType) {
		if typ.Kind != protocol.KindChargedBullet {
			return
		}
		found = true
		tr, _ := m.g.S.Transform.Get(e)
		if tr.Scale.X != chargeScaleMedium {
			t.Errorf("Scale.X = %v, ожидали %v", tr.Scale.X, chargeScaleMedium)
		}
	})
	if !found {
		t.Error("средний заряд породил обычный снаряд вместо заряженного")
	}
}

func TestReloadRefillsAfterCooldown(t *testing.T) {
	m := newMatch(t)
	sys := NewShootingSystem(m.g)

	am, _ := m.g.S.Ammo.GetPtr(m.player.Entity)
	am.Current = 10

	m.input(protocol.InputReload)
	sys.Update(0.05)

	got, _ := m.g.S.Ammo.Get(m.player.Entity)
	if !got.IsReloading {
		t.Fatal("перезарядка не началась")
	}

	m.input(0)
	sys.Update(playerReload + 0.1)
	got, _ = m.g.S.Ammo.Get(m.player.Entity)
	if got.IsReloading || got.Current != got.Max {
		t.Errorf("после перезарядки Current=%d IsReloading=%v", got.Current, got.IsReloading)
	}
}

func TestBeamTicksDamage(t *testing.T) {
	m := newMatch(t)
	sys := NewShootingSystem(m.g)

	wp, _ := m.g.S.Weapon.GetPtr(m.player.Entity)
	wp.Kind = WeaponBeam

	tr, _ := m.g.S.Transform.Get(m.player.Entity)
	enemyPos := vec.Vec2{X: tr.Pos.X + 300, Y: tr.Pos.Y}
	m.spawnScout(t, enemyPos, 50)
	var enemy ecs.Entity
	m.g.S.Type.Each(func(e ecs.Entity, typ *EntityType) {
		if typ.Kind == protocol.KindScout {
			enemy = e
		}
	})

	m.input(protocol.InputShoot)
	sys.Update(0)

	am, _ := m.g.S.Ammo.Get(m.player.Entity)
	if am.Current != playerMaxAmmo-beamAmmoCost {
		t.Errorf("луч не списал патрон: %d", am.Current)
	}
	if m.sender.countOp(protocol.OpBeamState) != 1 {
		t.Error("нет оповещения о включении луча")
	}

	sys.Update(beamTickInterval)
	hp, _ := m.g.S.Health.Get(enemy)
	if hp.Current != 50-beamDamage {
		t.Errorf("здоровье врага = %d, ожидали %d", hp.Current, 50-beamDamage)
	}

	// После полной длительности луч гаснет и уходит на откат.
	for i := 0; i < int(beamDuration/beamTickInterval)+2; i++ {
		sys.Update(beamTickInterval)
	}
	got, _ := m.g.S.Weapon.Get(m.player.Entity)
	if got.BeamActive {
		t.Error("луч не выключился по таймеру")
	}
	if got.BeamCooldown <= 0 {
		t.Error("откат луча не начался")
	}
}

//================ Столкновения =================//

func TestBulletDamagesEnemy(t *testing.T) {
	m := newMatch(t)
	sys := NewCollisionSystem(m.g)

	enemyPos := vec.Vec2{X: 500, Y: 100}
	m.spawnScout(t, enemyPos, 50)
	m.g.SpawnBullet(m.player.Entity, m.room, enemyPos, 1.0, bulletDamage, WeaponClassic, false)
	m.sender.reset()

	sys.Update(TickDt)

	var hp Health
	m.g.S.Type.Each(func(e ecs.Entity, typ *EntityType) {
		if typ.Kind == protocol.KindScout {
			hp, _ = m.g.S.Health.Get(e)
		}
	})
	if hp.Current != 50-bulletDamage {
		t.Errorf("здоровье врага = %d, ожидали %d", hp.Current, 50-bulletDamage)
	}
	// Снаряд сгорел, враг жив: одна смерть (снаряда).
	if got := m.sender.countOp(protocol.OpEntityDeath); got != 1 {
		t.Errorf("EntityDeath = %d, ожидали 1 (снаряд)", got)
	}
}

func TestEnemyDeathAwardsScore(t *testing.T) {
	m := newMatch(t)
	sys := NewCollisionSystem(m.g)

	enemyPos := vec.Vec2{X: 500, Y: 100}
	m.spawnScout(t, enemyPos, 10)
	m.g.SpawnBullet(m.player.Entity, m.room, enemyPos, 1.0, bulletDamage, WeaponClassic, false)

	sys.Update(TickDt)

	if m.player.Score != scoreScout {
		t.Errorf("Score = %d, ожидали %d", m.player.Score, scoreScout)
	}
	if m.sender.countOp(protocol.OpScoreUpdate) != 1 {
		t.Error("нет пакета ScoreUpdate")
	}
}

func TestShieldAbsorbsEnemyBullet(t *testing.T) {
	m := newMatch(t)
	sys := NewCollisionSystem(m.g)

	m.g.S.Shield.Set(m.player.Entity, Shield{Charges: 2})
	tr, _ := m.g.S.Transform.Get(m.player.Entity)

	enemy := m.g.SpawnEnemy(m.room, SpawnTrigger{Kind: "scout", Pattern: "straight", Speed: 0}, vec.Vec2{X: 900, Y: 900})
	m.g.SpawnEnemyBullet(enemy, m.room, tr.Pos, vec.Vec2{X: -1})

	sys.Update(TickDt)

	hp, _ := m.g.S.Health.Get(m.player.Entity)
	if hp.Current != playerMaxHealth {
		t.Errorf("щит не поглотил урон: hp=%d", hp.Current)
	}
	sh, ok := m.g.S.Shield.Get(m.player.Entity)
	if !ok || sh.Charges != 1 {
		t.Errorf("заряды щита = %+v, ожидали 1", sh)
	}
}

func TestPlayerDeathBecomesSpectator(t *testing.T) {
	m := newMatch(t)

	died := m.g.ApplyDamage(m.player.Entity, playerMaxHealth*2, ecs.Nil)
	if !died {
		t.Fatal("игрок не погиб от летального урона")
	}
	if !m.player.Spectator {
		t.Error("погибший игрок не стал зрителем")
	}
	if !m.player.Entity.IsNil() {
		t.Error("сущность погибшего игрока не сброшена")
	}
	if got := m.sender.countOp(protocol.OpEntityDeath); got != 1 {
		t.Errorf("EntityDeath = %d, ожидали ровно 1", got)
	}
}

func TestDeathEmitsEvents(t *testing.T) {
	m := newMatch(t)

	var types []string
	var payloads []any
	m.g.Events = func(eventType string, payload any) {
		types = append(types, eventType)
		payloads = append(payloads, payload)
	}

	boss := m.g.SpawnEnemy(m.room, SpawnTrigger{Kind: "boss", Pattern: "static"}, vec.Vec2{X: 900, Y: 300})

	m.player.Score = 500
	m.g.ApplyDamage(m.player.Entity, playerMaxHealth*2, ecs.Nil)
	bossHP, _ := m.g.S.Health.Get(boss)
	m.g.ApplyDamage(boss, bossHP.Max, ecs.Nil)

	if len(types) != 2 {
		t.Fatalf("событий = %d (%v), ожидали 2", len(types), types)
	}
	if types[0] != eventbus.EventPlayerDied {
		t.Errorf("первое событие %q, ожидали %q", types[0], eventbus.EventPlayerDied)
	}
	pp, ok := payloads[0].(eventbus.PlayerEventPayload)
	if !ok || pp.PlayerID != m.player.SessionID || pp.Username != "hero" || pp.Score != 500 {
		t.Errorf("нагрузка смерти игрока: %+v", payloads[0])
	}
	if types[1] != eventbus.EventBossDefeated {
		t.Errorf("второе событие %q, ожидали %q", types[1], eventbus.EventBossDefeated)
	}
	rp, ok := payloads[1].(eventbus.RoomEventPayload)
	if !ok || rp.RoomID != m.room.ID {
		t.Errorf("нагрузка победы над боссом: %+v", payloads[1])
	}
}

func TestHealthClampOnHeal(t *testing.T) {
	m := newMatch(t)

	m.g.ApplyDamage(m.player.Entity, 30, ecs.Nil)
	m.g.Heal(m.player.Entity, 1000)

	hp, _ := m.g.S.Health.Get(m.player.Entity)
	if hp.Current != playerMaxHealth {
		t.Errorf("Current = %d, ожидали кламп к %d", hp.Current, playerMaxHealth)
	}
}

func TestPowerupPickup(t *testing.T) {
	m := newMatch(t)
	sys := NewCollisionSystem(m.g)

	m.g.ApplyDamage(m.player.Entity, 50, ecs.Nil)
	tr, _ := m.g.S.Transform.Get(m.player.Entity)
	m.g.SpawnPowerup(m.room, protocol.KindPowerupHeal, tr.Pos)

	sys.Update(TickDt)

	hp, _ := m.g.S.Health.Get(m.player.Entity)
	if hp.Current != playerMaxHealth-50+powerupHealValue {
		t.Errorf("здоровье после аптечки = %d", hp.Current)
	}
}

//================ Враги =================//

func TestKamikazeActivates(t *testing.T) {
	m := newMatch(t)
	sys := NewEnemySystem(m.g)

	tr, _ := m.g.S.Transform.Get(m.player.Entity)
	e := m.g.SpawnEnemy(m.room,
		SpawnTrigger{Kind: "scout", Pattern: "kamikaze", Speed: 100},
		vec.Vec2{X: tr.Pos.X + kamikazeRange - 50, Y: tr.Pos.Y})

	sys.Update(TickDt)

	pat, _ := m.g.S.Pattern.Get(e)
	if !pat.Activated {
		t.Fatal("камикадзе не активировался в радиусе")
	}
	vel, _ := m.g.S.Velocity.Get(e)
	if vel.Speed != 100*kamikazeSpeedBoost {
		t.Errorf("скорость пике = %v, ожидали %v", vel.Speed, 100*kamikazeSpeedBoost)
	}
	if vel.Dir.X >= 0 {
		t.Errorf("пике не направлено на игрока: %v", vel.Dir)
	}
}

func TestBossInvulnerableBehindShields(t *testing.T) {
	m := newMatch(t)
	collisions := NewCollisionSystem(m.g)

	bossPos := vec.Vec2{X: 900, Y: 300}
	boss := m.g.SpawnEnemy(m.room, SpawnTrigger{Kind: "boss", Pattern: "static"}, bossPos)

	m.g.SpawnBullet(m.player.Entity, m.room, bossPos, 1.0, bulletDamage, WeaponClassic, false)
	collisions.Update(TickDt)

	hp, _ := m.g.S.Health.Get(boss)
	if hp.Current != hp.Max {
		t.Fatalf("босс получил урон под щитами: %d/%d", hp.Current, hp.Max)
	}

	// Сносим щиты — босс становится уязвим.
	var shields []ecs.Entity
	m.g.S.Type.Each(func(e ecs.Entity, typ *EntityType) {
		if typ.Kind == protocol.KindBossShield {
			shields = append(shields, e)
		}
	})
	if len(shields) != 4 {
		t.Fatalf("щитов = %d, ожидали 4", len(shields))
	}
	for _, e := range shields {
		m.g.Despawn(e, false)
	}

	m.g.SpawnBullet(m.player.Entity, m.room, bossPos, 1.0, bulletDamage, WeaponClassic, false)
	collisions.Update(TickDt)

	hp, _ = m.g.S.Health.Get(boss)
	if hp.Current != hp.Max-bulletDamage {
		t.Errorf("босс без щитов не получил урон: %d/%d", hp.Current, hp.Max)
	}
}

func TestBoomerangReturnsAndRefundsAmmo(t *testing.T) {
	m := newMatch(t)
	sys := NewEnemySystem(m.g)

	tr, _ := m.g.S.Transform.Get(m.player.Entity)
	b := m.g.SpawnBullet(m.player.Entity, m.room, tr.Pos, 1.0, bulletDamage, WeaponBoomerang, false)

	am, _ := m.g.S.Ammo.GetPtr(m.player.Entity)
	am.Current = 50

	// Уводим снаряд за предел дальности — должен развернуться.
	btr, _ := m.g.S.Transform.GetPtr(b)
	btr.Pos.X += boomerangRange + 100
	sys.Update(TickDt)

	bm, _ := m.g.S.Boomerang.Get(b)
	if !bm.Returning {
		t.Fatal("бумеранг не развернулся на пределе дальности")
	}
	vel, _ := m.g.S.Velocity.Get(b)
	if vel.Dir.X >= 0 {
		t.Errorf("разворот не к владельцу: %v", vel.Dir)
	}

	// Возврат в руки владельца: патрон вернулся, снаряд исчез.
	btr, _ = m.g.S.Transform.GetPtr(b)
	btr.Pos = tr.Pos
	sys.Update(TickDt)

	if m.g.World.Alive(b) {
		t.Error("бумеранг не исчез после возврата")
	}
	got, _ := m.g.S.Ammo.Get(m.player.Entity)
	if got.Current != 51 {
		t.Errorf("Current = %d, ожидали 51 (возврат патрона)", got.Current)
	}
}

//================ Зачистка =================//

func TestCleanupRemovesFarEntities(t *testing.T) {
	m := newMatch(t)
	sys := NewCleanupSystem(m.g)

	b := m.g.SpawnBullet(m.player.Entity, m.room, vec.Vec2{X: cleanupMaxX + 100}, 1.0, bulletDamage, WeaponClassic, false)
	sys.Update(TickDt)

	if m.g.World.Alive(b) {
		t.Error("улетевший снаряд не удалён")
	}
	if !m.g.World.Alive(m.player.Entity) {
		t.Error("зачистка не должна трогать игроков")
	}
}

//================ Снапшоты =================//

func TestSnapshotTransportModes(t *testing.T) {
	m := newMatch(t)
	var tick uint32
	sys := NewNetSyncSystem(m.g, &tick)

	am, _ := m.g.S.Ammo.GetPtr(m.player.Entity)
	am.Current--
	am.Dirty = true
	sys.Update(TickDt)

	var gotSnapshot, gotAmmo bool
	for _, p := range m.sender.sent {
		switch p.op {
		case protocol.OpRoomUpdate:
			gotSnapshot = true
			if p.mode != network.SendUnreliable {
				t.Error("RoomUpdate должен уходить по UDP")
			}
		case protocol.OpAmmoUpdate:
			gotAmmo = true
			if p.mode != network.SendReliable {
				t.Error("AmmoUpdate должен уходить по TCP")
			}
		}
	}
	if !gotSnapshot || !gotAmmo {
		t.Fatalf("нет ожидаемых пакетов: snapshot=%v ammo=%v", gotSnapshot, gotAmmo)
	}
	if am.Dirty {
		t.Error("флаг dirty не сброшен после отправки")
	}
}
