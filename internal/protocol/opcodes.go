package protocol

// OpCode идентифицирует тип пакета в заголовке кадра
type OpCode uint8

const (
	OpHello            OpCode = 0x01
	OpWelcome          OpCode = 0x02
	OpDisconnect       OpCode = 0x03
	OpListRooms        OpCode = 0x04
	OpRoomList         OpCode = 0x05
	OpCreateRoom       OpCode = 0x06
	OpJoinRoom         OpCode = 0x07
	OpLeaveRoom        OpCode = 0x08
	OpRoomUpdate       OpCode = 0x09
	OpSetReady         OpCode = 0x0A
	OpRoomChatSended   OpCode = 0x0B
	OpRoomChatReceived OpCode = 0x0C
	OpStartGame        OpCode = 0x0D
	OpInputTick        OpCode = 0x10
	OpLoginRequest     OpCode = 0x1A
	OpRegisterRequest  OpCode = 0x1B
	OpEntitySpawn      OpCode = 0x21
	OpEntityDeath      OpCode = 0x22
	OpAmmoUpdate       OpCode = 0x23
	OpPing             OpCode = 0x24
	OpPong             OpCode = 0x25
	OpDebugModeUpdate  OpCode = 0x26
	OpKicked           OpCode = 0x27
	OpHealthUpdate     OpCode = 0x28
	OpScoreUpdate      OpCode = 0x29
	OpBeamState        OpCode = 0x2A
	OpGameOver         OpCode = 0x2B
	OpLoginResponse    OpCode = 0x9A
	OpRegisterResponse OpCode = 0x9B
)

// String возвращает имя опкода для логов
func (op OpCode) String() string {
	switch op {
	case OpHello:
		return "Hello"
	case OpWelcome:
		return "Welcome"
	case OpDisconnect:
		return "Disconnect"
	case OpListRooms:
		return "ListRooms"
	case OpRoomList:
		return "RoomList"
	case OpCreateRoom:
		return "CreateRoom"
	case OpJoinRoom:
		return "JoinRoom"
	case OpLeaveRoom:
		return "LeaveRoom"
	case OpRoomUpdate:
		return "RoomUpdate"
	case OpSetReady:
		return "SetReady"
	case OpRoomChatSended:
		return "RoomChatSended"
	case OpRoomChatReceived:
		return "RoomChatReceived"
	case OpStartGame:
		return "StartGame"
	case OpInputTick:
		return "InputTick"
	case OpLoginRequest:
		return "LoginRequest"
	case OpRegisterRequest:
		return "RegisterRequest"
	case OpEntitySpawn:
		return "EntitySpawn"
	case OpEntityDeath:
		return "EntityDeath"
	case OpAmmoUpdate:
		return "AmmoUpdate"
	case OpPing:
		return "Ping"
	case OpPong:
		return "Pong"
	case OpDebugModeUpdate:
		return "DebugModeUpdate"
	case OpKicked:
		return "Kicked"
	case OpHealthUpdate:
		return "HealthUpdate"
	case OpScoreUpdate:
		return "ScoreUpdate"
	case OpBeamState:
		return "BeamState"
	case OpGameOver:
		return "GameOver"
	case OpLoginResponse:
		return "LoginResponse"
	case OpRegisterResponse:
		return "RegisterResponse"
	default:
		return "Unknown"
	}
}

// EntityKind — тип сущности в пакетах EntitySpawn
type EntityKind uint8

const (
	KindPlayer            EntityKind = 1
	KindScout             EntityKind = 2
	KindTank              EntityKind = 3
	KindBoss              EntityKind = 4
	KindBullet            EntityKind = 5
	KindPowerupHeal       EntityKind = 6
	KindPowerupSpeed      EntityKind = 7
	KindObstacle          EntityKind = 8
	KindEnemyBullet       EntityKind = 9
	KindObstacleSolid     EntityKind = 10
	KindChargedBullet     EntityKind = 11
	KindPowerupDoubleFire EntityKind = 12
	KindPowerupShield     EntityKind = 13
	KindBossShield        EntityKind = 14
)

// Биты маски ввода в пакете InputTick
const (
	InputMoveUp    uint8 = 1 << 0
	InputMoveDown  uint8 = 1 << 1
	InputMoveLeft  uint8 = 1 << 2
	InputMoveRight uint8 = 1 << 3
	InputShoot     uint8 = 1 << 4
	InputReload    uint8 = 1 << 5
	InputDebug     uint8 = 1 << 6
)
