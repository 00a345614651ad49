package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/annel0/mmo-multipart/internal/multipart"
	"github.com/annel0/mmo-multipart/internal/vec"
)

// ErrNotReady возвращается после закрытия хранилища
var ErrNotReady = errors.New("хранилище не готово")

// SnapshotRepo определяет интерфейс сохранения снимков клеток-контейнеров.
// Снимок привязан к позиции клетки; пустой снимок означает, что контейнера больше нет.
type SnapshotRepo interface {
	// Save сохраняет снимок. Пустой снимок удаляет запись.
	Save(ctx context.Context, snap multipart.Snapshot) error

	// Load загружает снимок клетки.
	// Возвращает false, если клетка не сохранялась.
	Load(ctx context.Context, pos vec.Vec3) (multipart.Snapshot, bool, error)

	// Delete удаляет снимок клетки.
	Delete(ctx context.Context, pos vec.Vec3) error

	// BatchSave сохраняет снимки одного тика одной транзакцией.
	BatchSave(ctx context.Context, snaps []multipart.Snapshot) error

	// ForEach обходит все сохранённые снимки.
	ForEach(ctx context.Context, fn func(multipart.Snapshot) error) error
}

const keyPrefix = "container:"

// Key возвращает ключ клетки в хранилище и кеше
func Key(pos vec.Vec3) string {
	return keyPrefix + pos.Key()
}

// ParseKey разбирает ключ, построенный Key
func ParseKey(key string) (vec.Vec3, error) {
	raw, ok := strings.CutPrefix(key, keyPrefix)
	if !ok {
		return vec.Vec3{}, fmt.Errorf("ключ %q без префикса %s", key, keyPrefix)
	}
	return vec.ParseVec3(strings.ReplaceAll(raw, ":", ","))
}
