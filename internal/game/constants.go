package game

import (
	"math"
	"time"
)

// Частота симуляции.
const (
	TickRate  = 60
	TickDt    = float32(1.0 / 60.0)
	tickSleep = 16 * time.Millisecond
)

// Игрок.
const (
	playerMaxHealth = 100
	playerMaxAmmo   = 100
	playerReload    = float32(2.0)
	playerBaseSpeed = float32(200)
	playerBoxW      = float32(32)
	playerBoxH      = float32(16)
	playerSpawnX    = float32(100)
	playerSpawnY    = float32(100)
	playerSpawnStep = float32(80) // вертикальный сдвиг на индекс игрока
	playerAccel     = float32(8.0)
	playerDecel     = float32(10.0)
	worldWidth      = float32(1280)
	worldHeight     = float32(720)
)

// Заряженный выстрел.
const (
	chargeMin         = float32(0.2)
	chargeMax         = float32(2.0)
	chargeTierSmall   = float32(0.34)
	chargeTierMedium  = float32(0.67)
	chargeScaleSmall  = float32(0.5)
	chargeScaleMedium = float32(1.0)
	chargeScaleLarge  = float32(2.0)
	chargeDamageMin   = int32(25)
	chargeDamageMax   = int32(120)
)

// Снаряды.
const (
	bulletW           = float32(8)
	bulletH           = float32(4)
	bulletDamage      = int32(25)
	bulletSpeed       = float32(600)
	enemyBulletDamage = int32(10)
	enemyBulletSpeed  = float32(350)
	defaultFireRate   = float32(0.25)
)

// Луч.
const (
	beamDamage       = int32(4)
	beamTickInterval = float32(0.25)
	beamDuration     = float32(5.0)
	beamCooldownTime = float32(5.0)
	beamHalfBand     = float32(40)
	beamAmmoCost     = 1
)

// Бумеранг и трекер.
const (
	boomerangRange    = float32(500)
	boomerangSpeed    = float32(400)
	boomerangFireRate = float32(2.0)
	trackerSteering   = float32(2.0)
	trackerRange      = float32(350)
)

// Уровень и волны.
const (
	levelScrollSpeed = float32(120)
	minSpawnAhead    = float32(200)
	bossSpawnAhead   = float32(450)
	bossAnchorNear   = float32(900)
	bossAnchorFar    = float32(1100)
	followGain       = float32(2.0)
)

// spawnOffsets циклически сдвигают X-позицию волновых спавнов.
var spawnOffsets = [...]float32{0, 100, -40, 80, -80}

// Босс и его щиты: полукруг радиусом bossShieldRadius.
const bossShieldRadius = float32(250)

var bossShieldAngles = [...]float32{120, 150, 210, 240}

// Препятствия из тайловой карты.
const (
	obstacleHealth      = int32(80)
	solidObstacleHealth = int32(1000000)
)

// Бонусы.
const (
	powerupDropChance  = 0.30
	powerupHealValue   = int32(25)
	powerupSpeedMult   = float32(1.5)
	powerupSpeedTime   = float32(5.0)
	powerupDoubleTime  = float32(10.0)
	powerupShieldHits  = int32(3)
	doubleFireOffsetY  = float32(6)
	kamikazeRange      = float32(400)
	kamikazeSpeedBoost = float32(1.5)
)

// bossSpreadRad — угол между снарядами в веерном залпе босса (15°).
const bossSpreadRad = float32(15 * math.Pi / 180)

// Очки за уничтожение.
const (
	scoreScout    = int32(10)
	scoreTank     = int32(25)
	scoreBoss     = int32(250)
	scoreObstacle = int32(5)
)

// Границы мира для зачистки снарядов и отставших сущностей.
const (
	cleanupMinX = float32(-200)
	cleanupMaxX = float32(5000)
)
