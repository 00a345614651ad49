package world

import (
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world/block"
)

// EventType определяет тип события
type EventType uint8

const (
	EventTypeBlockSet EventType = iota // Установка состояния клетки
	EventTypeDrops                     // Выпадение предметов
)

// Event представляет собой интерфейс для всех событий
type Event interface {
	GetType() EventType
}

// BlockEvent публикуется при смене состояния клетки
type BlockEvent struct {
	Position vec.Vec3
	Old      block.State
	New      block.State
}

// GetType возвращает тип события
func (e BlockEvent) GetType() EventType {
	return EventTypeBlockSet
}

// DropEvent публикуется, когда из клетки выпали предметы
type DropEvent struct {
	Position vec.Vec3
	Stacks   []block.Stack
}

// GetType возвращает тип события
func (e DropEvent) GetType() EventType {
	return EventTypeDrops
}

// Listener получает события мира синхронно, в потоке изменения
type Listener func(ev Event)
