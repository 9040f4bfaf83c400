package game

import (
	"github.com/annel0/airtrap-server/internal/ecs"
	"github.com/annel0/airtrap-server/internal/protocol"
)

// NetSyncSystem — исходящая репликация: снапшот позиций комнаты раз
// в тик по UDP и адресные AmmoUpdate по TCP для «грязных» магазинов.
type NetSyncSystem struct {
	g    *GameState
	tick *uint32

	states []protocol.EntityState
}

func NewNetSyncSystem(g *GameState, tick *uint32) *NetSyncSystem {
	return &NetSyncSystem{g: g, tick: tick}
}

func (s *NetSyncSystem) Update(dt float32) {
	st := s.g.S

	for _, room := range s.g.Rooms.List() {
		if room.State() != RoomInGame {
			continue
		}
		s.states = s.states[:0]

		st.Room.Each(func(e ecs.Entity, r *RoomID) {
			if r.ID != room.ID {
				return
			}
			tr, ok := st.Transform.Get(e)
			if !ok {
				return
			}
			net, ok := st.Net.Get(e)
			if !ok {
				return
			}
			vel, _ := st.Velocity.Get(e)
			s.states = append(s.states, protocol.EntityState{
				NetworkID: net.ID,
				X:         tr.Pos.X,
				Y:         tr.Pos.Y,
				VelX:      vel.Dir.X * vel.Speed,
				VelY:      vel.Dir.Y * vel.Speed,
				Rotation:  tr.Rotation,
			})
		})

		if len(s.states) == 0 {
			continue
		}
		payload := protocol.RoomUpdatePayload{Tick: *s.tick, Entities: s.states}
		s.g.broadcastRoomUDP(room, protocol.OpRoomUpdate, payload.Marshal())
	}

	// Адресная досылка боезапаса владельцам.
	st.Ammo.Each(func(e ecs.Entity, am *Ammo) {
		if !am.Dirty {
			return
		}
		am.Dirty = false
		sid, ok := s.g.sessionFor(e)
		if !ok {
			return
		}
		payload := protocol.AmmoUpdatePayload{
			Current:     am.Current,
			Max:         am.Max,
			IsReloading: am.IsReloading,
		}
		s.g.sendReliable(sid, protocol.OpAmmoUpdate, payload.Marshal())
	})
}
