package world

import (
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world/block"
)

// ChunkSize задаёт длину ребра чанка в клетках
const ChunkSize = 16

// Chunk хранит разреженный участок мира 16x16x16. Хранятся только непустые клетки.
type Chunk struct {
	Coords vec.Vec3 // Координаты чанка в мире

	States     map[vec.Vec3]block.State // Локальные координаты -> состояние
	Companions map[vec.Vec3]any         // Локальные координаты -> компаньон клетки
	Changes    map[vec.Vec3]struct{}    // Изменённые с последнего ClearChanges клетки

	ChangeCounter int // Счетчик изменений
}

// NewChunk создаёт пустой чанк с указанными координатами
func NewChunk(coords vec.Vec3) *Chunk {
	return &Chunk{
		Coords:     coords,
		States:     make(map[vec.Vec3]block.State),
		Companions: make(map[vec.Vec3]any),
		Changes:    make(map[vec.Vec3]struct{}),
	}
}

// State возвращает состояние клетки по локальным координатам
func (c *Chunk) State(local vec.Vec3) block.State {
	if s, ok := c.States[local]; ok {
		return s
	}
	return block.Air
}

// SetState записывает состояние. Воздух удаляет запись.
func (c *Chunk) SetState(local vec.Vec3, s block.State) {
	if s.IsAir() {
		delete(c.States, local)
	} else {
		c.States[local] = s
	}
	c.Changes[local] = struct{}{}
	c.ChangeCounter++
}

// Companion возвращает компаньон клетки
func (c *Chunk) Companion(local vec.Vec3) any {
	return c.Companions[local]
}

// SetCompanion записывает компаньон клетки; nil удаляет его
func (c *Chunk) SetCompanion(local vec.Vec3, v any) {
	if v == nil {
		delete(c.Companions, local)
		return
	}
	c.Companions[local] = v
}

// IsEmpty сообщает, что в чанке нет непустых клеток
func (c *Chunk) IsEmpty() bool {
	return len(c.States) == 0 && len(c.Companions) == 0
}

// WorldPos переводит локальные координаты в мировые
func (c *Chunk) WorldPos(local vec.Vec3) vec.Vec3 {
	return vec.Vec3{
		X: c.Coords.X*ChunkSize + local.X,
		Y: c.Coords.Y*ChunkSize + local.Y,
		Z: c.Coords.Z*ChunkSize + local.Z,
	}
}

// ClearChanges сбрасывает список изменённых клеток
func (c *Chunk) ClearChanges() {
	c.Changes = make(map[vec.Vec3]struct{})
}
