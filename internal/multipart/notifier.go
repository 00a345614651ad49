package multipart

import "github.com/annel0/mmo-multipart/internal/vec"

// Notifier получает сообщения о том, что набор частей клетки изменился.
// Реализация сама решает, когда и как рассылать изменения.
type Notifier interface {
	PartsChanged(w World, pos vec.Vec3)
}

type nopNotifier struct{}

func (nopNotifier) PartsChanged(World, vec.Vec3) {}

// NotifierFunc позволяет использовать функцию как Notifier
type NotifierFunc func(w World, pos vec.Vec3)

func (f NotifierFunc) PartsChanged(w World, pos vec.Vec3) { f(w, pos) }
