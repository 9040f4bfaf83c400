package protocol

// EntityState — одна запись снапшота: позиция/скорость/поворот сущности
type EntityState struct {
	NetworkID uint32
	X, Y      float32
	VelX      float32
	VelY      float32
	Rotation  float32
}

// entityStateSize — размер одной записи в байтах
const entityStateSize = 24

// RoomUpdatePayload — снапшот состояния комнаты, рассылается по UDP
// каждый тик всем участникам комнаты в состоянии InGame.
type RoomUpdatePayload struct {
	Tick     uint32
	Entities []EntityState
}

func (p *RoomUpdatePayload) Marshal() []byte {
	w := NewWriter()
	w.PutU32(p.Tick)
	w.PutU16(uint16(len(p.Entities)))
	for _, e := range p.Entities {
		w.PutU32(e.NetworkID)
		w.PutF32(e.X)
		w.PutF32(e.Y)
		w.PutF32(e.VelX)
		w.PutF32(e.VelY)
		w.PutF32(e.Rotation)
	}
	return w.Bytes()
}

func (p *RoomUpdatePayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	p.Tick = r.U32()
	count := int(r.U16())
	if r.Err() == nil && r.Remaining() != count*entityStateSize {
		return ErrTruncated
	}
	p.Entities = make([]EntityState, 0, count)
	for i := 0; i < count; i++ {
		p.Entities = append(p.Entities, EntityState{
			NetworkID: r.U32(),
			X:         r.F32(),
			Y:         r.F32(),
			VelX:      r.F32(),
			VelY:      r.F32(),
			Rotation:  r.F32(),
		})
	}
	return r.Err()
}
