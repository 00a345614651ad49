// Package world хранит клетки мира, которые ядро частей использует как хозяина.
package world

import (
	"sort"

	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world/block"
)

// World хранит разреженный мир из чанков. Как и ядро частей, рассчитан на один
// поток: все изменения выполняются в цикле тиков.
type World struct {
	chunks    map[vec.Vec3]*Chunk
	remote    bool
	drops     []DropEvent
	listeners []Listener
	notifying bool
	pending   []Event
}

// NewWorld создаёт пустой мир. remote = true для клиентской копии.
func NewWorld(remote bool) *World {
	return &World{
		chunks: make(map[vec.Vec3]*Chunk),
		remote: remote,
	}
}

// Listen добавляет получателя событий
func (w *World) Listen(l Listener) {
	w.listeners = append(w.listeners, l)
}

func (w *World) chunk(pos vec.Vec3, create bool) (*Chunk, vec.Vec3) {
	coords := pos.ToChunkCoords()
	c, ok := w.chunks[coords]
	if !ok && create {
		c = NewChunk(coords)
		w.chunks[coords] = c
	}
	return c, pos.LocalInChunk()
}

// State возвращает состояние клетки
func (w *World) State(pos vec.Vec3) block.State {
	c, local := w.chunk(pos, false)
	if c == nil {
		return block.Air
	}
	return c.State(local)
}

// SetState записывает состояние клетки и оповещает слушателей
func (w *World) SetState(pos vec.Vec3, s block.State) {
	c, local := w.chunk(pos, !s.IsAir())
	if c == nil {
		return
	}
	old := c.State(local)
	c.SetState(local, s)
	if c.IsEmpty() {
		delete(w.chunks, c.Coords)
	}
	if old != s {
		w.emit(BlockEvent{Position: pos, Old: old, New: s})
	}
}

// NotifyNeighbors оповещает слушателей об изменении содержимого клетки,
// когда её состояние осталось прежним
func (w *World) NotifyNeighbors(pos vec.Vec3) {
	s := w.State(pos)
	w.emit(BlockEvent{Position: pos, Old: s, New: s})
}

// Companion возвращает компаньон клетки
func (w *World) Companion(pos vec.Vec3) any {
	c, local := w.chunk(pos, false)
	if c == nil {
		return nil
	}
	return c.Companion(local)
}

// SetCompanion записывает компаньон клетки
func (w *World) SetCompanion(pos vec.Vec3, v any) {
	c, local := w.chunk(pos, v != nil)
	if c == nil {
		return
	}
	c.SetCompanion(local, v)
	if c.IsEmpty() {
		delete(w.chunks, c.Coords)
	}
}

// IsRemote сообщает, что мир является неавторитетной копией
func (w *World) IsRemote() bool {
	return w.remote
}

// SpawnDrops запоминает выпавшие предметы
func (w *World) SpawnDrops(pos vec.Vec3, stacks []block.Stack) {
	if len(stacks) == 0 {
		return
	}
	ev := DropEvent{Position: pos, Stacks: append([]block.Stack(nil), stacks...)}
	w.drops = append(w.drops, ev)
	w.emit(ev)
}

// TakeDrops возвращает накопленные выпадения и очищает список
func (w *World) TakeDrops() []DropEvent {
	out := w.drops
	w.drops = nil
	return out
}

// CellsOfType возвращает позиции клеток указанного типа в детерминированном порядке
func (w *World) CellsOfType(typ string) []vec.Vec3 {
	var out []vec.Vec3
	for _, c := range w.chunks {
		for local, s := range c.States {
			if s.Type() == typ {
				out = append(out, c.WorldPos(local))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return out
}

// ChunkCount возвращает число загруженных чанков
func (w *World) ChunkCount() int {
	return len(w.chunks)
}

// emit доставляет событие слушателям. События, возникшие внутри
// обработчика, ставятся в очередь и доставляются после него.
func (w *World) emit(ev Event) {
	if w.notifying {
		w.pending = append(w.pending, ev)
		return
	}
	w.notifying = true
	defer func() { w.notifying = false }()

	queue := []Event{ev}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, l := range w.listeners {
			l(next)
		}
		queue = append(queue, w.pending...)
		w.pending = w.pending[:0]
	}
}
