package multipart

import "errors"

var (
	// слот уже занят другой частью
	ErrSlotOccupied = errors.New("слот занят")
	// в слоте нет части
	ErrSlotEmpty = errors.New("слот пуст")
	// занимаемые объёмы или заявленные слоты пересекаются
	ErrOccupancyConflict = errors.New("конфликт занятости клетки")
	// одна из частей запретила соседство
	ErrCoexistenceVeto = errors.New("часть запретила соседство")
	// для состояния нет поведения части
	ErrUnresolvableState = errors.New("состояние не описывает часть")
	// слот не зарегистрирован
	ErrUnknownSlot = errors.New("неизвестный слот")
	// изменение запрошено на неавторитетной стороне
	ErrRemoteWorld = errors.New("мир не авторитетен")
	// размещение отклонено по структурным причинам
	ErrPlacementRejected = errors.New("размещение отклонено")
)

// reasonOf сводит ошибку к короткой метке для метрик
func reasonOf(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrSlotOccupied):
		return "occupied"
	case errors.Is(err, ErrOccupancyConflict):
		return "conflict"
	case errors.Is(err, ErrCoexistenceVeto):
		return "veto"
	case errors.Is(err, ErrUnresolvableState):
		return "unresolvable"
	case errors.Is(err, ErrUnknownSlot):
		return "unknown_slot"
	case errors.Is(err, ErrRemoteWorld):
		return "remote"
	default:
		return "rejected"
	}
}
