package protocol

// Тела пакетов. Каждая структура умеет сериализоваться в сетевой
// порядок байт и разбираться обратно. Пустые тела (Hello, Disconnect,
// ListRooms, LeaveRoom, Ping, Pong) структур не имеют.

// WelcomePayload отправляется сервером сразу после TCP accept
type WelcomePayload struct {
	SessionID uint32
}

func (p *WelcomePayload) Marshal() []byte {
	w := NewWriter()
	w.PutU32(p.SessionID)
	return w.Bytes()
}

func (p *WelcomePayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	p.SessionID = r.U32()
	return r.Err()
}

// CredentialsPayload — тело LoginRequest и RegisterRequest.
// WeaponKind — выбранное клиентом оружие на предстоящую игру.
type CredentialsPayload struct {
	Username   string
	Password   string
	WeaponKind uint8
}

func (p *CredentialsPayload) Marshal() []byte {
	w := NewWriter()
	w.PutString(p.Username)
	w.PutString(p.Password)
	w.PutU8(p.WeaponKind)
	return w.Bytes()
}

func (p *CredentialsPayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	p.Username = r.String()
	p.Password = r.String()
	p.WeaponKind = r.U8()
	return r.Err()
}

// AuthResponsePayload — тело LoginResponse и RegisterResponse
type AuthResponsePayload struct {
	Success bool
	Message string
}

func (p *AuthResponsePayload) Marshal() []byte {
	w := NewWriter()
	w.PutBool(p.Success)
	w.PutString(p.Message)
	return w.Bytes()
}

func (p *AuthResponsePayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	p.Success = r.Bool()
	p.Message = r.String()
	return r.Err()
}

// RoomSummary — публичное описание комнаты в пакете RoomList
type RoomSummary struct {
	ID              uint32
	Name            string
	PlayerCount     uint16
	MaxPlayers      uint16
	InGame          bool
	Difficulty      uint8
	Speed           uint16
	DurationMinutes uint16
	Seed            uint32
	LevelID         uint16
}

// RoomListPayload — ответ на ListRooms
type RoomListPayload struct {
	Rooms []RoomSummary
}

func (p *RoomListPayload) Marshal() []byte {
	w := NewWriter()
	w.PutU16(uint16(len(p.Rooms)))
	for _, room := range p.Rooms {
		w.PutU32(room.ID)
		w.PutString(room.Name)
		w.PutU16(room.PlayerCount)
		w.PutU16(room.MaxPlayers)
		w.PutBool(room.InGame)
		w.PutU8(room.Difficulty)
		w.PutU16(room.Speed)
		w.PutU16(room.DurationMinutes)
		w.PutU32(room.Seed)
		w.PutU16(room.LevelID)
	}
	return w.Bytes()
}

func (p *RoomListPayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	count := int(r.U16())
	p.Rooms = make([]RoomSummary, 0, count)
	for i := 0; i < count; i++ {
		room := RoomSummary{
			ID:              r.U32(),
			Name:            r.String(),
			PlayerCount:     r.U16(),
			MaxPlayers:      r.U16(),
			InGame:          r.Bool(),
			Difficulty:      r.U8(),
			Speed:           r.U16(),
			DurationMinutes: r.U16(),
			Seed:            r.U32(),
			LevelID:         r.U16(),
		}
		if r.Err() != nil {
			return r.Err()
		}
		p.Rooms = append(p.Rooms, room)
	}
	return r.Err()
}

// CreateRoomPayload — запрос на создание комнаты
type CreateRoomPayload struct {
	Name            string
	MaxPlayers      uint16
	Difficulty      uint8
	Speed           uint16
	DurationMinutes uint16
	RoomType        uint8
	LevelID         uint16
}

func (p *CreateRoomPayload) Marshal() []byte {
	w := NewWriter()
	w.PutString(p.Name)
	w.PutU16(p.MaxPlayers)
	w.PutU8(p.Difficulty)
	w.PutU16(p.Speed)
	w.PutU16(p.DurationMinutes)
	w.PutU8(p.RoomType)
	w.PutU16(p.LevelID)
	return w.Bytes()
}

func (p *CreateRoomPayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	p.Name = r.String()
	p.MaxPlayers = r.U16()
	p.Difficulty = r.U8()
	p.Speed = r.U16()
	p.DurationMinutes = r.U16()
	p.RoomType = r.U8()
	p.LevelID = r.U16()
	return r.Err()
}

// JoinRoomPayload — запрос входа в комнату
type JoinRoomPayload struct {
	RoomID      uint32
	AsSpectator bool
}

func (p *JoinRoomPayload) Marshal() []byte {
	w := NewWriter()
	w.PutU32(p.RoomID)
	w.PutBool(p.AsSpectator)
	return w.Bytes()
}

func (p *JoinRoomPayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	p.RoomID = r.U32()
	p.AsSpectator = r.Bool()
	return r.Err()
}

// JoinRoomResponsePayload — результат входа (тот же опкод JoinRoom,
// направление сервер→клиент). Для лобби не отправляется.
type JoinRoomResponsePayload struct {
	Success bool
	RoomID  uint32
	Message string
}

func (p *JoinRoomResponsePayload) Marshal() []byte {
	w := NewWriter()
	w.PutBool(p.Success)
	w.PutU32(p.RoomID)
	w.PutString(p.Message)
	return w.Bytes()
}

func (p *JoinRoomResponsePayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	p.Success = r.Bool()
	p.RoomID = r.U32()
	p.Message = r.String()
	return r.Err()
}

// SetReadyPayload — флаг готовности игрока в комнате
type SetReadyPayload struct {
	Ready bool
}

func (p *SetReadyPayload) Marshal() []byte {
	w := NewWriter()
	w.PutBool(p.Ready)
	return w.Bytes()
}

func (p *SetReadyPayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	p.Ready = r.Bool()
	return r.Err()
}

// ChatSendPayload — сообщение чата от клиента
type ChatSendPayload struct {
	Message string
}

func (p *ChatSendPayload) Marshal() []byte {
	w := NewWriter()
	w.PutString(p.Message)
	return w.Bytes()
}

func (p *ChatSendPayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	p.Message = r.String()
	return r.Err()
}

// ChatReceivePayload — ретранслированное сообщение чата.
// Author пустой у системных сообщений ("X has joined").
type ChatReceivePayload struct {
	Author  string
	Message string
}

func (p *ChatReceivePayload) Marshal() []byte {
	w := NewWriter()
	w.PutString(p.Author)
	w.PutString(p.Message)
	return w.Bytes()
}

func (p *ChatReceivePayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	p.Author = r.String()
	p.Message = r.String()
	return r.Err()
}

// StartGamePayload — уведомление о старте матча
type StartGamePayload struct {
	LevelID uint16
	Seed    uint32
}

func (p *StartGamePayload) Marshal() []byte {
	w := NewWriter()
	w.PutU16(p.LevelID)
	w.PutU32(p.Seed)
	return w.Bytes()
}

func (p *StartGamePayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	p.LevelID = r.U16()
	p.Seed = r.U32()
	return r.Err()
}

// InputTickPayload — маска ввода клиента за тик
type InputTickPayload struct {
	Tick uint32
	Mask uint8
}

func (p *InputTickPayload) Marshal() []byte {
	w := NewWriter()
	w.PutU32(p.Tick)
	w.PutU8(p.Mask)
	return w.Bytes()
}

func (p *InputTickPayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	p.Tick = r.U32()
	p.Mask = r.U8()
	return r.Err()
}

// EntitySpawnPayload — появление сущности в комнате
type EntitySpawnPayload struct {
	NetworkID uint32
	Kind      EntityKind
	X, Y      float32
	VelX      float32
	VelY      float32
	SizeX     float32
	SizeY     float32
	OwnerID   uint32 // NetworkID владельца для снарядов, иначе 0
}

func (p *EntitySpawnPayload) Marshal() []byte {
	w := NewWriter()
	w.PutU32(p.NetworkID)
	w.PutU8(uint8(p.Kind))
	w.PutF32(p.X)
	w.PutF32(p.Y)
	w.PutF32(p.VelX)
	w.PutF32(p.VelY)
	w.PutF32(p.SizeX)
	w.PutF32(p.SizeY)
	w.PutU32(p.OwnerID)
	return w.Bytes()
}

func (p *EntitySpawnPayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	p.NetworkID = r.U32()
	p.Kind = EntityKind(r.U8())
	p.X = r.F32()
	p.Y = r.F32()
	p.VelX = r.F32()
	p.VelY = r.F32()
	p.SizeX = r.F32()
	p.SizeY = r.F32()
	p.OwnerID = r.U32()
	return r.Err()
}

// EntityDeathPayload — сущность уничтожена
type EntityDeathPayload struct {
	NetworkID uint32
}

func (p *EntityDeathPayload) Marshal() []byte {
	w := NewWriter()
	w.PutU32(p.NetworkID)
	return w.Bytes()
}

func (p *EntityDeathPayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	p.NetworkID = r.U32()
	return r.Err()
}

// AmmoUpdatePayload — состояние боезапаса владельца
type AmmoUpdatePayload struct {
	Current     uint16
	Max         uint16
	IsReloading bool
}

func (p *AmmoUpdatePayload) Marshal() []byte {
	w := NewWriter()
	w.PutU16(p.Current)
	w.PutU16(p.Max)
	w.PutBool(p.IsReloading)
	return w.Bytes()
}

func (p *AmmoUpdatePayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	p.Current = r.U16()
	p.Max = r.U16()
	p.IsReloading = r.Bool()
	return r.Err()
}

// DebugModePayload — переключение отладочного режима игрока
type DebugModePayload struct {
	Enabled bool
}

func (p *DebugModePayload) Marshal() []byte {
	w := NewWriter()
	w.PutBool(p.Enabled)
	return w.Bytes()
}

func (p *DebugModePayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	p.Enabled = r.Bool()
	return r.Err()
}

// KickedPayload отправляется игроку перед исключением из комнаты
type KickedPayload struct {
	Reason string
}

func (p *KickedPayload) Marshal() []byte {
	w := NewWriter()
	w.PutString(p.Reason)
	return w.Bytes()
}

func (p *KickedPayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	p.Reason = r.String()
	return r.Err()
}

// HealthUpdatePayload — изменение здоровья сущности
type HealthUpdatePayload struct {
	NetworkID uint32
	Current   int32
	Max       int32
}

func (p *HealthUpdatePayload) Marshal() []byte {
	w := NewWriter()
	w.PutU32(p.NetworkID)
	w.PutI32(p.Current)
	w.PutI32(p.Max)
	return w.Bytes()
}

func (p *HealthUpdatePayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	p.NetworkID = r.U32()
	p.Current = r.I32()
	p.Max = r.I32()
	return r.Err()
}

// ScoreUpdatePayload — текущий счёт игрока-получателя
type ScoreUpdatePayload struct {
	Score int32
}

func (p *ScoreUpdatePayload) Marshal() []byte {
	w := NewWriter()
	w.PutI32(p.Score)
	return w.Bytes()
}

func (p *ScoreUpdatePayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	p.Score = r.I32()
	return r.Err()
}

// BeamStatePayload — включение/выключение луча у сущности
type BeamStatePayload struct {
	NetworkID uint32
	Active    bool
}

func (p *BeamStatePayload) Marshal() []byte {
	w := NewWriter()
	w.PutU32(p.NetworkID)
	w.PutBool(p.Active)
	return w.Bytes()
}

func (p *BeamStatePayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	p.NetworkID = r.U32()
	p.Active = r.Bool()
	return r.Err()
}

// GameOverPayload — итог матча для одного получателя
type GameOverPayload struct {
	BestPlayer string
	BestScore  int32
	YourScore  int32
}

func (p *GameOverPayload) Marshal() []byte {
	w := NewWriter()
	w.PutString(p.BestPlayer)
	w.PutI32(p.BestScore)
	w.PutI32(p.YourScore)
	return w.Bytes()
}

func (p *GameOverPayload) Unmarshal(body []byte) error {
	r := NewReader(body)
	p.BestPlayer = r.String()
	p.BestScore = r.I32()
	p.YourScore = r.I32()
	return r.Err()
}
