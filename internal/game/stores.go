package game

import (
	"github.com/annel0/airtrap-server/internal/ecs"
)

// Stores — набор компонентных хранилищ мира.
// Один экземпляр на симуляцию, все системы работают через него.
type Stores struct {
	Transform *ecs.Store[Transform]
	Velocity  *ecs.Store[Velocity]
	Health    *ecs.Store[Health]
	Box       *ecs.Store[BoundingBox]
	Damage    *ecs.Store[Damage]
	Type      *ecs.Store[EntityType]
	Net       *ecs.Store[NetworkID]
	Room      *ecs.Store[RoomID]
	Pattern   *ecs.Store[MovementPattern]
	Weapon    *ecs.Store[SimpleWeapon]
	Ammo      *ecs.Store[Ammo]
	Input     *ecs.Store[InputState]
	Powerup   *ecs.Store[Powerup]
	Shield    *ecs.Store[Shield]
	Double    *ecs.Store[DoubleFire]
	Homing    *ecs.Store[Homing]
	Speed     *ecs.Store[MovementSpeed]
	Boomerang *ecs.Store[Boomerang]
}

// NewStores регистрирует все хранилища в мире.
func NewStores(w *ecs.World) *Stores {
	return &Stores{
		Transform: ecs.NewStore[Transform](w),
		Velocity:  ecs.NewStore[Velocity](w),
		Health:    ecs.NewStore[Health](w),
		Box:       ecs.NewStore[BoundingBox](w),
		Damage:    ecs.NewStore[Damage](w),
		Type:      ecs.NewStore[EntityType](w),
		Net:       ecs.NewStore[NetworkID](w),
		Room:      ecs.NewStore[RoomID](w),
		Pattern:   ecs.NewStore[MovementPattern](w),
		Weapon:    ecs.NewStore[SimpleWeapon](w),
		Ammo:      ecs.NewStore[Ammo](w),
		Input:     ecs.NewStore[InputState](w),
		Powerup:   ecs.NewStore[Powerup](w),
		Shield:    ecs.NewStore[Shield](w),
		Double:    ecs.NewStore[DoubleFire](w),
		Homing:    ecs.NewStore[Homing](w),
		Speed:     ecs.NewStore[MovementSpeed](w),
		Boomerang: ecs.NewStore[Boomerang](w),
	}
}
