package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/annel0/mmo-multipart/internal/multipart"
	"github.com/annel0/mmo-multipart/internal/vec"
)

// MemorySnapshotRepo реализует SnapshotRepo в памяти.
// Используется для тестов и запуска без каталога данных.
// ВНИМАНИЕ: Данные теряются при перезапуске сервера!
type MemorySnapshotRepo struct {
	mu   sync.RWMutex
	data map[vec.Vec3]multipart.Snapshot
}

// NewMemorySnapshotRepo создает новый репозиторий снимков в памяти.
func NewMemorySnapshotRepo() *MemorySnapshotRepo {
	return &MemorySnapshotRepo{data: make(map[vec.Vec3]multipart.Snapshot)}
}

func (r *MemorySnapshotRepo) Save(ctx context.Context, snap multipart.Snapshot) error {
	return r.BatchSave(ctx, []multipart.Snapshot{snap})
}

func (r *MemorySnapshotRepo) BatchSave(ctx context.Context, snaps []multipart.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, snap := range snaps {
		if snap.Empty() {
			delete(r.data, snap.Pos)
			continue
		}
		r.data[snap.Pos] = cloneSnapshot(snap)
	}
	return nil
}

func (r *MemorySnapshotRepo) Load(ctx context.Context, pos vec.Vec3) (multipart.Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return multipart.Snapshot{}, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap, ok := r.data[pos]
	if !ok {
		return multipart.Snapshot{Pos: pos}, false, nil
	}
	return cloneSnapshot(snap), true, nil
}

func (r *MemorySnapshotRepo) Delete(ctx context.Context, pos vec.Vec3) error {
	return r.BatchSave(ctx, []multipart.Snapshot{{Pos: pos}})
}

// ForEach обходит снимки в порядке ключей, как ContainerStore
func (r *MemorySnapshotRepo) ForEach(ctx context.Context, fn func(multipart.Snapshot) error) error {
	r.mu.RLock()
	snaps := make([]multipart.Snapshot, 0, len(r.data))
	for _, snap := range r.data {
		snaps = append(snaps, cloneSnapshot(snap))
	}
	r.mu.RUnlock()

	sort.Slice(snaps, func(i, j int) bool { return Key(snaps[i].Pos) < Key(snaps[j].Pos) })
	for _, snap := range snaps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(snap); err != nil {
			return err
		}
	}
	return nil
}

// Count возвращает число сохранённых клеток
func (r *MemorySnapshotRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

func cloneSnapshot(snap multipart.Snapshot) multipart.Snapshot {
	out := multipart.Snapshot{Pos: snap.Pos, Parts: make([]multipart.PartSnapshot, len(snap.Parts))}
	for i, ps := range snap.Parts {
		out.Parts[i] = ps
		if ps.Tile != nil {
			out.Parts[i].Tile = make(map[string]string, len(ps.Tile))
			for k, v := range ps.Tile {
				out.Parts[i].Tile[k] = v
			}
		}
	}
	return out
}
