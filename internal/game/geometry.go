package game

import (
	"math"

	"github.com/annel0/airtrap-server/internal/vec"
)

// angleOffset — смещение на окружности радиуса r под углом в градусах.
func angleOffset(angleDeg, r float32) vec.Vec2 {
	rad := float64(angleDeg) * math.Pi / 180
	return vec.Vec2{
		X: r * float32(math.Cos(rad)),
		Y: r * float32(math.Sin(rad)),
	}
}

// lerp32 — линейная интерполяция скаляра с зажимом t в [0,1].
func lerp32(a, b, t float32) float32 {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a + (b-a)*t
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
