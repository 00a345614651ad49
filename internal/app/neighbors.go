package app

import (
	"github.com/annel0/mmo-multipart/internal/multipart"
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world"
)

// AttachNeighbors подписывает менеджер на изменения клеток мира: соседи
// изменившейся клетки получают NeighborChanged и UpdatePostPlacement.
// Для удалённого мира ничего не делает, его состояние приходит с авторитетного узла.
func AttachNeighbors(w *world.World, m *multipart.Manager) {
	if w.IsRemote() {
		return
	}
	w.Listen(func(ev world.Event) {
		be, ok := ev.(world.BlockEvent)
		if !ok {
			return
		}
		for _, f := range vec.Faces {
			n := be.Position.Offset(f)
			m.NeighborChanged(w, n, be.Position)
			m.UpdatePostPlacement(w, n, f.Opposite(), be.New)
		}
	})
}
