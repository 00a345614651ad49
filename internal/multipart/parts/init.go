// Package parts содержит типы частей, которые можно собирать в одной клетке.
package parts

import "github.com/annel0/mmo-multipart/internal/multipart"

// Регистрируем все типы частей при импорте пакета
func init() {
	multipart.Register(NewCoverBehavior())
	multipart.Register(NewLampBehavior())
	multipart.Register(NewLeverBehavior())
}
