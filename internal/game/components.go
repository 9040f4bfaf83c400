package game

import (
	"github.com/annel0/airtrap-server/internal/ecs"
	"github.com/annel0/airtrap-server/internal/physics"
	"github.com/annel0/airtrap-server/internal/protocol"
	"github.com/annel0/airtrap-server/internal/vec"
)

// Transform — позиция, поворот и масштаб сущности.
// Позиция — левый верхний угол коллайдера.
type Transform struct {
	Pos      vec.Vec2
	Rotation float32
	Scale    vec.Vec2
}

// Velocity — направление и скалярная скорость.
// Итоговое смещение за тик: Dir * Speed * dt.
type Velocity struct {
	Dir   vec.Vec2
	Speed float32
}

// Health — текущее и максимальное здоровье.
// Current всегда в диапазоне [0, Max]; сущность с Current==0
// уничтожается в том же тике.
type Health struct {
	Current int32
	Max     int32
}

// BoundingBox — AABB-коллайдер сущности.
type BoundingBox = physics.Box

// Damage вешается на снаряды: урон и владелец-источник.
type Damage struct {
	Amount int32
	Source ecs.Entity
}

// EntityType — категория сущности, совпадает с wire-enum протокола.
type EntityType struct {
	Kind protocol.EntityKind
}

// NetworkID — стабильный идентификатор сущности для клиентов.
// Не переиспользуется при рециркуляции entity-индексов.
type NetworkID struct {
	ID uint32
}

// RoomID привязывает сущность к комнате. Системы никогда не дают
// сущностям из разных комнат взаимодействовать.
type RoomID struct {
	ID uint32
}

// PatternKind — шаблон движения противника.
type PatternKind uint8

const (
	PatternStraightLine PatternKind = iota
	PatternZigZag
	PatternCircular
	PatternSineWave
	PatternKamikaze
	PatternStatic
)

// MovementPattern — параметры шаблонного движения.
type MovementPattern struct {
	Kind      PatternKind
	Speed     float32
	Amplitude float32
	Frequency float32
	Elapsed   float32 // накопленное время для осцилляций
	Activated bool    // для Kamikaze: цель захвачена
}

// WeaponKind — тип оружия.
type WeaponKind uint8

const (
	WeaponClassic WeaponKind = iota
	WeaponBeam
	WeaponTracker
	WeaponBoomerang
)

// SimpleWeapon — состояние оружия сущности.
type SimpleWeapon struct {
	Kind      WeaponKind
	FireRate  float32 // минимальный интервал между выстрелами, сек
	SinceShot float32
	Damage    int32

	// Состояние луча (только Kind == WeaponBeam)
	BeamActive    bool
	BeamTimer     float32 // оставшееся время луча
	BeamCooldown  float32 // оставшийся откат
	BeamTickTimer float32 // накопитель до следующего тика урона
}

// Ammo — боезапас игрока. Dirty выставляется при любом изменении
// и сбрасывается после отправки AmmoUpdate (ровно раз за тик).
type Ammo struct {
	Current        uint16
	Max            uint16
	ReloadCooldown float32
	ReloadTimer    float32
	IsReloading    bool
	Dirty          bool
}

// InputState — последняя маска ввода игрока.
type InputState struct {
	Mask              uint8
	LastMask          uint8
	ChargeTime        float32
	Charging          bool
	LastProcessedTick uint32
}

// Powerup — подбираемый бонус.
type Powerup struct {
	Kind     protocol.EntityKind
	Value    int32
	Duration float32
}

// Shield поглощает попадания, по одному заряду за удар.
type Shield struct {
	Charges int32
}

// DoubleFire дублирует каждый выстрел, пока не истечёт таймер.
type DoubleFire struct {
	Remaining float32
}

// Homing — самонаведение снаряда/сущности.
type Homing struct {
	Steering float32 // скорость доворота, доля в секунду
	Range    float32 // радиус захвата цели
}

// MovementSpeed — базовая скорость и временный множитель от бонуса.
type MovementSpeed struct {
	Base           float32
	Multiplier     float32
	BoostRemaining float32
}

// Boomerang — снаряд, возвращающийся к владельцу.
type Boomerang struct {
	Owner     ecs.Entity
	Origin    vec.Vec2
	MaxRange  float32
	Returning bool
}
