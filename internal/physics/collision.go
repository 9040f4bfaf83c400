package physics

import (
	"github.com/annel0/airtrap-server/internal/vec"
)

// Box представляет прямоугольный AABB-коллайдер.
// Позиция сущности — левый верхний угол прямоугольника.
type Box struct {
	Width  float32
	Height float32
}

// NewBox создаёт коллайдер с указанными размерами
func NewBox(width, height float32) Box {
	return Box{Width: width, Height: height}
}

// IsPointInside проверяет, находится ли точка внутри коллайдера
func (b Box) IsPointInside(boxPos, point vec.Vec2) bool {
	return point.X >= boxPos.X &&
		point.X < boxPos.X+b.Width &&
		point.Y >= boxPos.Y &&
		point.Y < boxPos.Y+b.Height
}

// Intersects проверяет пересечение двух AABB
func Intersects(pos1 vec.Vec2, box1 Box, pos2 vec.Vec2, box2 Box) bool {
	return pos1.X < pos2.X+box2.Width &&
		pos1.X+box1.Width > pos2.X &&
		pos1.Y < pos2.Y+box2.Height &&
		pos1.Y+box1.Height > pos2.Y
}

// Penetration возвращает глубину проникновения box1 в box2 по каждой оси.
// Знак указывает направление минимального выталкивания первого прямоугольника.
// Осмысленно только для пересекающихся прямоугольников.
func Penetration(pos1 vec.Vec2, box1 Box, pos2 vec.Vec2, box2 Box) vec.Vec2 {
	c1 := vec.Vec2{X: pos1.X + box1.Width/2, Y: pos1.Y + box1.Height/2}
	c2 := vec.Vec2{X: pos2.X + box2.Width/2, Y: pos2.Y + box2.Height/2}

	overlapX := (box1.Width+box2.Width)/2 - abs(c1.X-c2.X)
	overlapY := (box1.Height+box2.Height)/2 - abs(c1.Y-c2.Y)

	pen := vec.Vec2{X: overlapX, Y: overlapY}
	if c1.X < c2.X {
		pen.X = -pen.X
	}
	if c1.Y < c2.Y {
		pen.Y = -pen.Y
	}
	return pen
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
